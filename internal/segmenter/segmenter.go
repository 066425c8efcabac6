// Package segmenter splits raw text into lowercase word tokens for
// vocabulary population. Two modes are supported: delimiter splitting on
// whitespace and sentence punctuation, and GPT-4 style regex splitting for
// corpora where punctuation runs and contractions should survive as tokens.
package segmenter

import (
	"fmt"
	"log/slog"
	"strings"
	"unicode"

	"github.com/dlclark/regexp2"

	"github.com/tokenforge/subword-induction-platform/pkg/config"
)

// delimiters along with any unicode space terminate a word token.
const delimiters = ".,!?;:()"

// gpt4Pattern splits text the way GPT-4 era tokenizers do. regexp2 is needed
// for the atomic groups and lookahead the stdlib regexp cannot express.
const gpt4Pattern = `'(?i:[sdmt]|ll|ve|re)|(?>[^\r\n\p{L}\p{N}]?)\p{L}+|\p{N}{1,3}| ?(?>[^\s\p{L}\p{N}]+)[\r\n]*|\s*[\r\n]|\s+(?!\S)|\s+`

// Segmenter turns documents into lowercase word tokens.
type Segmenter struct {
	cfg     config.SegmenterConfig
	pattern *regexp2.Regexp
	logger  *slog.Logger
}

// New creates a Segmenter for the configured mode. The pattern is compiled
// once; an invalid mode is an error rather than a silent fallback.
func New(cfg config.SegmenterConfig) (*Segmenter, error) {
	s := &Segmenter{
		cfg:    cfg,
		logger: slog.Default().With("component", "segmenter"),
	}
	switch cfg.Mode {
	case "", "delimiter":
	case "pattern":
		re, err := regexp2.Compile(gpt4Pattern, regexp2.None)
		if err != nil {
			return nil, fmt.Errorf("compiling split pattern: %w", err)
		}
		s.pattern = re
	default:
		return nil, fmt.Errorf("unknown segmenter mode %q", cfg.Mode)
	}
	return s, nil
}

// Segment splits text into lowercase word tokens. Tokens longer than the
// configured limit are truncated, with a warning, rather than failing the
// document.
func (s *Segmenter) Segment(text string) []string {
	var words []string
	if s.pattern != nil {
		words = s.splitPattern(text)
	} else {
		words = s.splitDelimiter(text)
	}

	out := words[:0]
	for _, w := range words {
		w = strings.ToLower(w)
		if s.cfg.MaxTokenLen > 0 {
			if runes := []rune(w); len(runes) > s.cfg.MaxTokenLen {
				s.logger.Warn("token exceeds length limit, truncating",
					"token_len", len(runes),
					"max_len", s.cfg.MaxTokenLen,
				)
				w = string(runes[:s.cfg.MaxTokenLen])
			}
		}
		if w != "" {
			out = append(out, w)
		}
	}
	return out
}

func (s *Segmenter) splitDelimiter(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return unicode.IsSpace(r) || strings.ContainsRune(delimiters, r)
	})
}

func (s *Segmenter) splitPattern(text string) []string {
	var words []string
	m, err := s.pattern.FindStringMatch(text)
	for err == nil && m != nil {
		tok := strings.TrimSpace(m.String())
		if tok != "" {
			words = append(words, tok)
		}
		m, err = s.pattern.FindNextMatch(m)
	}
	if err != nil {
		s.logger.Error("pattern matching aborted", "error", err)
	}
	return words
}
