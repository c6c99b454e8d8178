package service

import (
	"regexp"
	"strings"
)

// IdentifierClass is the result of classifying a raw identifier string.
type IdentifierClass int

const (
	ClassOther IdentifierClass = iota
	ClassEthereumAddress
	ClassRawHex40
	ClassInboxIDLike
)

var (
	ethAddressRe = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)
	rawHex40Re   = regexp.MustCompile(`^[0-9a-fA-F]{40}$`)
	inboxIDRe    = regexp.MustCompile(`^[a-z0-9_-]{10,}$`)
)

// Classify reports what kind of identifier value looks like. The order
// matters: a 40-char raw hex string is raw hex, never inbox-id-like, so
// address-shaped strings are never sent to the directory's inbox lookup.
func Classify(value string) IdentifierClass {
	switch {
	case ethAddressRe.MatchString(value):
		return ClassEthereumAddress
	case rawHex40Re.MatchString(value):
		return ClassRawHex40
	case isInboxIDLike(value):
		return ClassInboxIDLike
	default:
		return ClassOther
	}
}

func isInboxIDLike(value string) bool {
	if strings.HasPrefix(value, "0x") {
		return false
	}
	if strings.ContainsAny(value, ".@ \t\n") {
		return false
	}
	return inboxIDRe.MatchString(value)
}

// NormalizeIdentifier lower-cases value and prefixes bare 40-hex strings so
// the two spellings of an address land in the same set.
func NormalizeIdentifier(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	if Classify(value) == ClassRawHex40 {
		return "0x" + value
	}
	return value
}

// IsEthereumAddress reports whether value normalizes to a 0x-prefixed
// Ethereum address.
func IsEthereumAddress(value string) bool {
	c := Classify(strings.TrimSpace(value))
	return c == ClassEthereumAddress || c == ClassRawHex40
}

// addressSet is an ordered set of normalized identifiers with
// case-insensitive dedup.
type addressSet struct {
	ordered []string
	seen    map[string]struct{}
}

func newAddressSet() *addressSet {
	return &addressSet{seen: make(map[string]struct{})}
}

// Add inserts a normalized identifier, ignoring duplicates and empties.
// It reports whether the set changed.
func (s *addressSet) Add(value string) bool {
	norm := NormalizeIdentifier(value)
	if norm == "" {
		return false
	}
	if _, ok := s.seen[norm]; ok {
		return false
	}
	s.seen[norm] = struct{}{}
	s.ordered = append(s.ordered, norm)
	return true
}

func (s *addressSet) Contains(value string) bool {
	_, ok := s.seen[NormalizeIdentifier(value)]
	return ok
}

// Values returns the members in insertion order.
func (s *addressSet) Values() []string {
	return s.ordered
}

// First returns the first member, or "" when empty.
func (s *addressSet) First() string {
	if len(s.ordered) == 0 {
		return ""
	}
	return s.ordered[0]
}

// ValuesPrimaryFirst returns the members with primary sorted to the front
// and the rest in insertion order.
func (s *addressSet) ValuesPrimaryFirst(primary string) []string {
	primary = NormalizeIdentifier(primary)
	if primary == "" || !s.Contains(primary) {
		return s.ordered
	}
	out := make([]string, 0, len(s.ordered))
	out = append(out, primary)
	for _, v := range s.ordered {
		if v != primary {
			out = append(out, v)
		}
	}
	return out
}
