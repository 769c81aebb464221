package tokenize

import (
	"context"
	"fmt"
	"os"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"
)

// #region lexicon
// Lexicon lists the words that signal each describable feature.
type Lexicon struct {
	Color []string `yaml:"color"`
	Size  []string `yaml:"size"`
	Dim   []string `yaml:"dim"`
}

// LoadLexicon reads a YAML lexicon file.
func LoadLexicon(path string) (Lexicon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Lexicon{}, fmt.Errorf("read lexicon %s: %w", path, err)
	}
	var lex Lexicon
	if err := yaml.Unmarshal(data, &lex); err != nil {
		return Lexicon{}, fmt.Errorf("parse lexicon %s: %w", path, err)
	}
	return lex, nil
}

// #endregion lexicon

// #region lexicon-tokenizer
// LexiconTokenizer is an offline Tokenizer: every word found in the lexicon
// yields one token, labelled with the word, in the order the words appear.
type LexiconTokenizer struct {
	words map[string]Token
}

// NewLexiconTokenizer indexes lex. A word listed under several features keeps
// the first of color, size, dim.
func NewLexiconTokenizer(lex Lexicon) *LexiconTokenizer {
	words := make(map[string]Token)
	add := func(list []string, t Token) {
		for _, w := range list {
			w = strings.ToLower(strings.TrimSpace(w))
			if _, ok := words[w]; !ok && w != "" {
				words[w] = t
			}
		}
	}
	add(lex.Color, Color)
	add(lex.Size, Size)
	add(lex.Dim, Dim)
	return &LexiconTokenizer{words: words}
}

// Tokenize implements Tokenizer.
func (l *LexiconTokenizer) Tokenize(_ context.Context, text string) (Response, error) {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-'
	})
	resp := Response{Text: text}
	for _, w := range fields {
		if t, ok := l.words[w]; ok {
			resp.Labels = append(resp.Labels, w)
			resp.Tokens = append(resp.Tokens, t)
		}
	}
	return resp, nil
}

// #endregion lexicon-tokenizer
