package query

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// implSuffix is the trailing marker stripped from implementation type
// names when deriving aliases, so that "PartyImpl" yields "party0".
const implSuffix = "Impl"

// AliasAllocator hands out unique, readable names for aliases and
// parameters. Names are derived from a candidate by keeping the text after
// its last '.', stripping the implementation marker, lower-casing the first
// letter and appending the smallest unused integer suffix.
type AliasAllocator struct {
	used map[string]struct{}
}

// NewAliasAllocator returns an empty allocator.
func NewAliasAllocator() *AliasAllocator {
	return &AliasAllocator{used: make(map[string]struct{})}
}

// Reserve marks a name as used so that Name never returns it.
func (a *AliasAllocator) Reserve(name string) {
	a.used[name] = struct{}{}
}

// IsReserved reports whether the name has been handed out or reserved.
func (a *AliasAllocator) IsReserved(name string) bool {
	_, ok := a.used[name]
	return ok
}

// Name allocates a new name derived from candidate.
func (a *AliasAllocator) Name(candidate string) string {
	base := baseName(candidate)
	for i := 0; ; i++ {
		name := base + strconv.Itoa(i)
		if !a.IsReserved(name) {
			a.Reserve(name)
			return name
		}
	}
}

func baseName(candidate string) string {
	if i := strings.LastIndexByte(candidate, '.'); i >= 0 {
		candidate = candidate[i+1:]
	}
	if trimmed := strings.TrimSuffix(candidate, implSuffix); trimmed != "" {
		candidate = trimmed
	}
	r, size := utf8.DecodeRuneInString(candidate)
	if r == utf8.RuneError {
		return candidate
	}
	return string(unicode.ToLower(r)) + candidate[size:]
}
