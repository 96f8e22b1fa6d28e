package openapi

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	whitespaceRun   = regexp.MustCompile(`\s+`)
	invalidNameChar = regexp.MustCompile(`[^a-zA-Z0-9_.-]`)
	underscoreRun   = regexp.MustCompile(`_{2,}`)
	nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9]`)
)

// Sanitize turns a raw operation identifier into a tool name made only of
// [A-Za-z0-9_.-]. The result is never empty, never starts with a digit, and
// Sanitize(Sanitize(s)) == Sanitize(s).
func Sanitize(raw string) string {
	s := whitespaceRun.ReplaceAllString(raw, "_")
	s = invalidNameChar.ReplaceAllString(s, "_")
	s = underscoreRun.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if s == "" || (s[0] >= '0' && s[0] <= '9') {
		// "tool_" on its own would lose its trailing underscore on the next pass.
		s = strings.TrimSuffix("tool_"+s, "_")
	}
	return s
}

// rawIdentifier returns the operationId when present, otherwise
// "<method>_<path>" with every non-alphanumeric path character replaced by "_",
// lower-cased.
func rawIdentifier(method, path, operationID string) string {
	if operationID != "" {
		return operationID
	}
	return strings.ToLower(method + "_" + nonAlphanumeric.ReplaceAllString(path, "_"))
}

// NameSet hands out unique names in first-seen order.
type NameSet struct {
	taken map[string]bool
}

// NewNameSet returns an empty name set.
func NewNameSet() *NameSet {
	return &NameSet{taken: make(map[string]bool)}
}

// Claim registers base, or base_1, base_2, ... when base is already taken,
// and returns the name that was registered.
func (s *NameSet) Claim(base string) string {
	name := base
	for counter := 1; s.taken[name]; counter++ {
		name = base + "_" + strconv.Itoa(counter)
	}
	s.taken[name] = true
	return name
}

// Has reports whether name has been claimed.
func (s *NameSet) Has(name string) bool {
	return s.taken[name]
}

// Len returns the number of claimed names.
func (s *NameSet) Len() int {
	return len(s.taken)
}
