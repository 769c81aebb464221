package responses

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// QuestionPrefix marks a header cell as a question column.
const QuestionPrefix = "Q"

// metadataRows follow the header in survey exports and carry no responses.
const metadataRows = 2

// #region errors
var (
	// ErrNoHeader indicates the table is empty.
	ErrNoHeader = errors.New("responses: missing header row")
	// ErrMissingMetadataRows indicates fewer than two rows follow the header.
	ErrMissingMetadataRows = errors.New("responses: missing metadata rows")
	// ErrShortRow indicates a data row ends before a question column.
	ErrShortRow = errors.New("responses: row shorter than header")
)

// #endregion errors

// #region question
// Question is one question column and its non-empty responses in row order.
type Question struct {
	ID        string
	Column    int
	Responses []string
}

// Count returns the total number of responses across questions.
func Count(qs []Question) int {
	n := 0
	for _, q := range qs {
		n += len(q.Responses)
	}
	return n
}

// #endregion question

// #region parse
// ParseFile reads a response table from path. The file is closed on every
// return path.
func ParseFile(path string) ([]Question, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open responses %s: %w", path, err)
	}
	defer f.Close()

	qs, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parse responses %s: %w", path, err)
	}
	return qs, nil
}

// Parse reads a comma separated table. Header cells starting with "Q" name
// question columns; the two rows after the header are skipped. Each remaining
// row contributes its non-empty cells to the matching question, so questions
// come back in column order with responses in row order.
func Parse(r io.Reader) ([]Question, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, ErrNoHeader
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	var qs []Question
	for i, field := range header {
		if strings.HasPrefix(field, QuestionPrefix) {
			qs = append(qs, Question{ID: field, Column: i, Responses: []string{}})
		}
	}

	for i := 0; i < metadataRows; i++ {
		if _, err := cr.Read(); err == io.EOF {
			return nil, ErrMissingMetadataRows
		} else if err != nil {
			return nil, fmt.Errorf("read metadata row %d: %w", i+1, err)
		}
	}

	for rowNum := metadataRows + 2; ; rowNum++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", rowNum, err)
		}
		for qi := range qs {
			col := qs[qi].Column
			if col >= len(row) {
				return nil, fmt.Errorf("row %d has %d cells, question %s is column %d: %w",
					rowNum, len(row), qs[qi].ID, col+1, ErrShortRow)
			}
			if resp := row[col]; resp != "" {
				qs[qi].Responses = append(qs[qi].Responses, resp)
			}
		}
	}
	return qs, nil
}

// #endregion parse
