package ml

import (
	"fmt"
	"sort"
)

// LabelEncoder maps class names to contiguous integer codes in sorted order.
// Codes are local to the data the encoder was fit on.
type LabelEncoder struct {
	Classes []string
	index   map[string]int
}

// FitLabelEncoder builds an encoder from the distinct values of labels.
func FitLabelEncoder(labels []string) *LabelEncoder {
	seen := make(map[string]struct{}, len(labels))
	for _, l := range labels {
		seen[l] = struct{}{}
	}
	classes := make([]string, 0, len(seen))
	for l := range seen {
		classes = append(classes, l)
	}
	sort.Strings(classes)
	return NewLabelEncoder(classes)
}

// NewLabelEncoder restores an encoder from an already ordered class list.
func NewLabelEncoder(classes []string) *LabelEncoder {
	idx := make(map[string]int, len(classes))
	for i, c := range classes {
		idx[c] = i
	}
	return &LabelEncoder{Classes: classes, index: idx}
}

// Transform encodes labels. Unknown labels are an error.
func (e *LabelEncoder) Transform(labels []string) ([]int, error) {
	out := make([]int, len(labels))
	for i, l := range labels {
		code, ok := e.index[l]
		if !ok {
			return nil, fmt.Errorf("unknown label %q", l)
		}
		out[i] = code
	}
	return out, nil
}

// Inverse decodes class codes back to names.
func (e *LabelEncoder) Inverse(codes []int) []string {
	out := make([]string, len(codes))
	for i, c := range codes {
		out[i] = e.Classes[c]
	}
	return out
}
