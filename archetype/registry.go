package archetype

import (
	"regexp"
	"sort"
	"strings"
	"sync"
)

// Catalog is the read-only view of archetype descriptors used by the query compiler.
type Catalog interface {
	// Descriptor returns the descriptor for an exact short name.
	Descriptor(shortName string) (*Descriptor, bool)
	// ShortNames returns the short names matching a wildcard pattern,
	// sorted. If primaryOnly is set, secondary archetypes are excluded.
	ShortNames(pattern string, primaryOnly bool) []string
}

// Registry is an in-memory Catalog. It is safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	byName map[string]*Descriptor
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]*Descriptor)}
}

// Register adds a descriptor. Registering a second descriptor under the
// same short name fails with a DuplicateError.
func (r *Registry) Register(d *Descriptor) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byName[d.ShortName]; ok {
		return &DuplicateError{Kind: "archetype", Name: d.ShortName}
	}
	r.byName[d.ShortName] = d
	return nil
}

// MustRegister is a helper that calls Register and panics if an error occurs.
// It is intended for use during application initialization and in tests.
func (r *Registry) MustRegister(descs ...*Descriptor) {
	for _, d := range descs {
		if err := r.Register(d); err != nil {
			panic(err)
		}
	}
}

// Descriptor implements Catalog.
func (r *Registry) Descriptor(shortName string) (*Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.byName[shortName]
	return d, ok
}

// ShortNames implements Catalog.
func (r *Registry) ShortNames(pattern string, primaryOnly bool) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []string
	for name, d := range r.byName {
		if primaryOnly && !d.Primary {
			continue
		}
		if MatchShortName(pattern, name) {
			result = append(result, name)
		}
	}
	sort.Strings(result)
	return result
}

// Descriptors returns all registered descriptors, ordered by short name.
func (r *Registry) Descriptors() []*Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]*Descriptor, 0, len(r.byName))
	for _, d := range r.byName {
		result = append(result, d)
	}
	SortByShortName(result)
	return result
}

// Len returns the number of registered archetypes.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byName)
}

// Clear removes all registered descriptors.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byName = make(map[string]*Descriptor)
}

var patternCache sync.Map // pattern -> *regexp.Regexp

// MatchShortName reports whether name matches pattern, where '*' in the
// pattern matches any run of characters, including '.'.
func MatchShortName(pattern, name string) bool {
	if !strings.Contains(pattern, "*") {
		return pattern == name
	}
	if re, ok := patternCache.Load(pattern); ok {
		return re.(*regexp.Regexp).MatchString(name)
	}
	parts := strings.Split(pattern, "*")
	for i, p := range parts {
		parts[i] = regexp.QuoteMeta(p)
	}
	re := regexp.MustCompile("^" + strings.Join(parts, ".*") + "$")
	patternCache.Store(pattern, re)
	return re.MatchString(name)
}

// HasWildcard reports whether a short name contains a wildcard.
func HasWildcard(s string) bool {
	return strings.Contains(s, "*")
}
