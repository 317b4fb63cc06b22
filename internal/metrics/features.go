// Package metrics derives local size features from message text.
package metrics

import (
	"strings"
	"unicode/utf8"
)

// Features holds size counts for a piece of text.
type Features struct {
	Bytes int `json:"bytes"`
	Runes int `json:"runes"`
	Words int `json:"words"`
	Lines int `json:"lines"`
}

// CountFeatures computes byte, rune, word and line counts for s.
// Words split on Unicode whitespace; an empty string has zero lines.
func CountFeatures(s string) Features {
	f := Features{
		Bytes: len(s),
		Runes: utf8.RuneCountInString(s),
		Words: len(strings.Fields(s)),
	}
	if s != "" {
		f.Lines = 1 + strings.Count(s, "\n")
	}
	return f
}

// Add returns the field-wise sum of f and o.
func (f Features) Add(o Features) Features {
	return Features{
		Bytes: f.Bytes + o.Bytes,
		Runes: f.Runes + o.Runes,
		Words: f.Words + o.Words,
		Lines: f.Lines + o.Lines,
	}
}

// Sum totals the features of every text.
func Sum(texts ...string) Features {
	var total Features
	for _, t := range texts {
		total = total.Add(CountFeatures(t))
	}
	return total
}
