package tokenize

import (
	"context"
	"fmt"

	"github.com/danielpatrickdp/reg-trainer/internal/responses"
)

// #region tokenize-all
// All tokenizes every response of every question, keeping question and row
// order.
func All(ctx context.Context, tok Tokenizer, qs []responses.Question) ([]Group, error) {
	groups := make([]Group, len(qs))
	for i, q := range qs {
		g := Group{QuestionID: q.ID, Responses: make([]Response, 0, len(q.Responses))}
		for j, text := range q.Responses {
			r, err := tok.Tokenize(ctx, text)
			if err != nil {
				return nil, fmt.Errorf("tokenize %s response %d: %w", q.ID, j, err)
			}
			g.Responses = append(g.Responses, r)
		}
		groups[i] = g
	}
	return groups, nil
}

// #endregion tokenize-all
