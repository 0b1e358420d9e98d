// Package graph computes the order in which entity types are synced.
// The relationships are declared by the entity descriptors; keeping the
// ordering here, instead of hardcoded in the sync engine, means adding an
// entity type only requires declaring its dependencies.
package graph

import (
	"fmt"
	"sort"

	"github.com/campusops/sisync/pkg/entities"
)

// Graph holds the declared dependencies between entity types. An edge
// A -> B means A depends on B: B must be fully synced before A starts.
type Graph struct {
	types []entities.Type
	deps  map[entities.Type][]entities.Type
}

// New creates a graph over the given entity types and their declared
// dependencies.
func New(types []entities.Type, deps map[entities.Type][]entities.Type) *Graph {
	g := &Graph{
		types: append([]entities.Type(nil), types...),
		deps:  make(map[entities.Type][]entities.Type, len(deps)),
	}
	for t, ds := range deps {
		g.deps[t] = append([]entities.Type(nil), ds...)
	}
	return g
}

// DependsOn returns the declared direct dependencies of a type.
func (g *Graph) DependsOn(t entities.Type) []entities.Type {
	return g.deps[t]
}

// Order returns a topological ordering of the entity types: every
// dependency precedes its dependents. Ties break alphabetically so the
// order is stable across runs.
func (g *Graph) Order() ([]entities.Type, error) {
	indegree := make(map[entities.Type]int, len(g.types))
	dependents := make(map[entities.Type][]entities.Type, len(g.types))

	for _, t := range g.types {
		indegree[t] = 0
	}
	for t, deps := range g.deps {
		for _, dep := range deps {
			if _, known := indegree[dep]; !known {
				return nil, fmt.Errorf("%s depends on undeclared entity type %s", t, dep)
			}
			indegree[t]++
			dependents[dep] = append(dependents[dep], t)
		}
	}

	var ready []entities.Type
	for _, t := range g.types {
		if indegree[t] == 0 {
			ready = append(ready, t)
		}
	}

	order := make([]entities.Type, 0, len(g.types))
	for len(ready) > 0 {
		sort.Slice(ready, func(i, j int) bool { return ready[i] < ready[j] })
		next := ready[0]
		ready = ready[1:]
		order = append(order, next)

		for _, dependent := range dependents[next] {
			indegree[dependent]--
			if indegree[dependent] == 0 {
				ready = append(ready, dependent)
			}
		}
	}

	if len(order) != len(g.types) {
		return nil, fmt.Errorf("dependency cycle among entity types (ordered %d of %d)", len(order), len(g.types))
	}

	return order, nil
}

// Dependents returns every type that transitively depends on t, sorted.
// The sync run uses this to skip exactly the passes whose references
// cannot resolve after a pass-fatal failure.
func (g *Graph) Dependents(t entities.Type) []entities.Type {
	direct := make(map[entities.Type][]entities.Type, len(g.types))
	for typ, deps := range g.deps {
		for _, dep := range deps {
			direct[dep] = append(direct[dep], typ)
		}
	}

	seen := make(map[entities.Type]bool)
	var walk func(entities.Type)
	walk = func(from entities.Type) {
		for _, dependent := range direct[from] {
			if !seen[dependent] {
				seen[dependent] = true
				walk(dependent)
			}
		}
	}
	walk(t)

	out := make([]entities.Type, 0, len(seen))
	for typ := range seen {
		out = append(out, typ)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
