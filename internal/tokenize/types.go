package tokenize

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownMarker indicates a token name outside COLOR/SIZE/DIM.
var ErrUnknownMarker = errors.New("tokenize: unknown token marker")

// #region token
// Token marks that a describable feature was mentioned at that position.
type Token int

// Feature markers. The zero value is not a valid marker.
const (
	Color Token = iota + 1
	Size
	Dim
)

var tokenNames = map[Token]string{
	Color: "COLOR",
	Size:  "SIZE",
	Dim:   "DIM",
}

func (t Token) String() string {
	if s, ok := tokenNames[t]; ok {
		return s
	}
	return fmt.Sprintf("Token(%d)", int(t))
}

// ParseToken maps a marker name (case-insensitive) to its Token.
func ParseToken(s string) (Token, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	for t, n := range tokenNames {
		if n == name {
			return t, nil
		}
	}
	return 0, fmt.Errorf("%q: %w", s, ErrUnknownMarker)
}

// Names renders tokens as marker names.
func Names(tokens []Token) []string {
	out := make([]string, len(tokens))
	for i, t := range tokens {
		out[i] = t.String()
	}
	return out
}

// ParseTokens is the inverse of Names.
func ParseTokens(names []string) ([]Token, error) {
	out := make([]Token, len(names))
	for i, n := range names {
		t, err := ParseToken(n)
		if err != nil {
			return nil, err
		}
		out[i] = t
	}
	return out, nil
}

// #endregion token

// #region response
// Response is one tokenized free-text description. Labels is passed through
// from the tokenizer untouched; Tokens lists mentioned features in order and
// may repeat a marker.
type Response struct {
	Text   string
	Labels []string
	Tokens []Token
}

// Group holds the tokenized responses to one question, in row order.
type Group struct {
	QuestionID string
	Responses  []Response
}

// #endregion response

// #region tokenizer
// Tokenizer turns a raw response string into a Response.
type Tokenizer interface {
	Tokenize(ctx context.Context, text string) (Response, error)
}

// #endregion tokenizer
