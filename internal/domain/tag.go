package domain

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

// MaxTagNameLength is the longest accepted tag name, in characters.
const MaxTagNameLength = 64

// Tag is a label shared between tasks. Names are unique.
type Tag struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// NormalizeTagNames trims, dedupes and sorts names. Blank or over-long
// names fail with a "tags" FieldError.
func NormalizeTagNames(names []string) ([]string, error) {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, raw := range names {
		name := strings.TrimSpace(raw)
		if name == "" {
			return nil, NewFieldError("tags", ErrInvalidValue, "Tag names cannot be blank")
		}
		if utf8.RuneCountInString(name) > MaxTagNameLength {
			return nil, NewFieldError("tags", ErrInvalidValue, "Tag %q exceeds %d characters", name, MaxTagNameLength)
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	sort.Strings(out)
	return out, nil
}

// SameTagSet reports whether a and b hold the same names, ignoring order.
func SameTagSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	as := append([]string{}, a...)
	bs := append([]string{}, b...)
	sort.Strings(as)
	sort.Strings(bs)
	for i := range as {
		if as[i] != bs[i] {
			return false
		}
	}
	return true
}
