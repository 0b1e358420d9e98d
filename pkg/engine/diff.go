package engine

import (
	"sort"

	"github.com/campusops/sisync/pkg/entities"
	"github.com/campusops/sisync/pkg/remote"
)

// Operation is one remote write the engine performs.
type Operation string

// Remote operations.
const (
	OpCreate     Operation = "create"
	OpUpdate     Operation = "update"
	OpDelete     Operation = "delete"
	OpDeactivate Operation = "deactivate"
)

// Change is one pending remote write: the operation, the record's natural
// key, and the full field set to send. Remote is zero for creates.
type Change struct {
	Operation Operation
	Key       string
	Fields    map[string]string
	Remote    remote.Record
}

// Diff is the classified outcome of comparing one pass's local entities
// against the remote records. Change slices are sorted by key so apply
// order, and therefore logs, are stable across runs.
type Diff struct {
	Creates   []Change
	Updates   []Change
	Removals  []Change
	Unchanged int
}

// Empty reports whether the diff requires no remote writes.
func (d *Diff) Empty() bool {
	return len(d.Creates) == 0 && len(d.Updates) == 0 && len(d.Removals) == 0
}

// Classify partitions local entities against the existing remote records
// by natural key. Local-only keys create; shared keys update when any
// mapped field differs; remote-only keys delete, deactivate, or stay
// according to policy.
func (e *Engine) Classify(locals []entities.Entity, existing remote.Records, policy DeletePolicy) *Diff {
	diff := &Diff{}
	localKeys := make(map[string]bool, len(locals))

	for _, entity := range locals {
		key := entity.Key()
		localKeys[key] = true
		fields := entity.Fields()

		record, found := existing[key]
		if !found {
			diff.Creates = append(diff.Creates, Change{Operation: OpCreate, Key: key, Fields: fields})
			continue
		}
		if fieldsEqual(fields, record.Fields) {
			diff.Unchanged++
			continue
		}
		diff.Updates = append(diff.Updates, Change{Operation: OpUpdate, Key: key, Fields: fields, Remote: record})
	}

	for key, record := range existing {
		if localKeys[key] {
			continue
		}
		switch policy {
		case PolicyDelete:
			diff.Removals = append(diff.Removals, Change{Operation: OpDelete, Key: key, Remote: record})
		case PolicyDeactivate:
			if record.Fields[e.opts.DeactivateField] == e.opts.DeactivateValue {
				diff.Unchanged++
				continue
			}
			diff.Removals = append(diff.Removals, Change{
				Operation: OpDeactivate,
				Key:       key,
				Fields:    e.deactivated(record),
				Remote:    record,
			})
		default:
			diff.Unchanged++
		}
	}

	sortChanges(diff.Creates)
	sortChanges(diff.Updates)
	sortChanges(diff.Removals)
	return diff
}

// deactivated returns the record's fields with the inactive marker set,
// so a deactivate is a full-record update rather than a patch.
func (e *Engine) deactivated(record remote.Record) map[string]string {
	fields := make(map[string]string, len(record.Fields)+1)
	for k, v := range record.Fields {
		fields[k] = v
	}
	fields[e.opts.DeactivateField] = e.opts.DeactivateValue
	return fields
}

// fieldsEqual reports whether every mapped field matches its remote value.
// Only mapped fields participate; remote-side extras never force an update.
func fieldsEqual(local, existing map[string]string) bool {
	for name, want := range local {
		if existing[name] != want {
			return false
		}
	}
	return true
}

func sortChanges(changes []Change) {
	sort.Slice(changes, func(i, j int) bool { return changes[i].Key < changes[j].Key })
}
