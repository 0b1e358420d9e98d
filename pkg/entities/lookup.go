package entities

import "sort"

// Lookup holds the natural keys of entities mapped by earlier passes.
// It is built pass by pass and handed to later passes read-only, replacing
// the shared mutable reference tables the legacy exporter relied on.
type Lookup struct {
	sets map[Type]map[string]Entity
}

// NewLookup creates an empty lookup.
func NewLookup() *Lookup {
	return &Lookup{sets: make(map[Type]map[string]Entity)}
}

// Add registers a mapped entity. Later entities with the same key replace
// earlier ones; key uniqueness is enforced upstream by the mapper.
func (l *Lookup) Add(e Entity) {
	set, ok := l.sets[e.EntityType()]
	if !ok {
		set = make(map[string]Entity)
		l.sets[e.EntityType()] = set
	}
	set[e.Key()] = e
}

// AddAll registers a batch of mapped entities.
func (l *Lookup) AddAll(es []Entity) {
	for _, e := range es {
		l.Add(e)
	}
}

// Has reports whether a key exists for the given entity type.
func (l *Lookup) Has(t Type, key string) bool {
	_, ok := l.sets[t][key]
	return ok
}

// Get returns the entity for a key, if present.
func (l *Lookup) Get(t Type, key string) (Entity, bool) {
	e, ok := l.sets[t][key]
	return e, ok
}

// Count returns the number of entities held for a type.
func (l *Lookup) Count(t Type) int {
	return len(l.sets[t])
}

// Keys returns the sorted keys held for a type.
func (l *Lookup) Keys(t Type) []string {
	keys := make([]string, 0, len(l.sets[t]))
	for k := range l.sets[t] {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
