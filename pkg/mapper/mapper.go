// Package mapper converts raw extract records into canonical entities.
// Mapping is a pure function of the record, the entity descriptor, and the
// read-only lookup tables built by earlier passes: no remote calls and no
// hidden state, so a run can be replayed for testing.
package mapper

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"

	"github.com/campusops/sisync/pkg/entities"
	"github.com/campusops/sisync/pkg/errors"
	"github.com/campusops/sisync/pkg/extract"
)

// ExcludedRecord describes a record dropped during mapping.
type ExcludedRecord struct {
	Index int
	Key   string
	Err   error
}

// Result holds one pass's mapping outcome: successfully mapped entities
// and the records excluded with their reasons. Exclusions never fail the
// batch.
type Result struct {
	Entities []entities.Entity
	Excluded []ExcludedRecord
}

// SplitFunc expands one raw record into one or more records before
// mapping, for legacy rows that encode several canonical records.
type SplitFunc func(desc *extract.Descriptor, record extract.Record) []extract.Record

// identitySplit is the default: one raw record, one canonical record.
func identitySplit(_ *extract.Descriptor, record extract.Record) []extract.Record {
	return []extract.Record{record}
}

// Mapper maps raw records to canonical entities.
type Mapper struct {
	titles cases.Caser
	split  SplitFunc
}

// Option configures a Mapper.
type Option func(*Mapper)

// WithSplit overrides the record split behavior.
func WithSplit(split SplitFunc) Option {
	return func(m *Mapper) {
		m.split = split
	}
}

// New creates a Mapper.
func New(opts ...Option) *Mapper {
	m := &Mapper{
		titles: newTitleCaser(),
		split:  identitySplit,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Map converts one pass's loaded records into canonical entities, resolving
// foreign keys against lookup. Keys must be unique within the pass; a
// duplicate excludes the later record.
func (m *Mapper) Map(desc *extract.Descriptor, records []extract.Record, lookup *entities.Lookup) *Result {
	result := &Result{}
	seen := make(map[string]bool, len(records))

	for _, raw := range records {
		for _, record := range m.split(desc, raw) {
			entity, err := m.mapRecord(desc, record, lookup)
			if err != nil {
				result.Excluded = append(result.Excluded, ExcludedRecord{
					Index: record.Index,
					Key:   record.Key(desc),
					Err:   err,
				})
				continue
			}

			if seen[entity.Key()] {
				result.Excluded = append(result.Excluded, ExcludedRecord{
					Index: record.Index,
					Key:   entity.Key(),
					Err: errors.NewValidationError(desc.KeySource, entity.Key(),
						"duplicate natural key within the extract"),
				})
				continue
			}
			seen[entity.Key()] = true

			result.Entities = append(result.Entities, entity)
		}
	}

	return result
}

// mapRecord maps a single record: key derivation, field translation, and
// foreign key resolution, then construction of the typed entity.
func (m *Mapper) mapRecord(desc *extract.Descriptor, record extract.Record, lookup *entities.Lookup) (entities.Entity, error) {
	key := NormalizeKey(record.Values[desc.KeySource])
	if key == "" {
		return nil, errors.NewValidationError(desc.KeySource, record.Values[desc.KeySource],
			"key value is missing")
	}

	fields, err := m.translateFields(desc, record)
	if err != nil {
		return nil, err
	}
	fields[desc.KeyField()] = key

	refs, err := resolveRefs(desc, record, key, lookup)
	if err != nil {
		return nil, err
	}

	return build(desc.Entity, fields, refs)
}

// translateFields trims every mapped value and applies the descriptor's
// translations. The remote API strips surrounding whitespace on write, so
// trimming here prevents a needless update on every run.
func (m *Mapper) translateFields(desc *extract.Descriptor, record extract.Record) (map[string]string, error) {
	translations := m.translations()
	fields := make(map[string]string, len(desc.Fields))

	for _, spec := range desc.Fields {
		val := strings.TrimSpace(record.Values[spec.Source])
		if spec.Parse != "" {
			translate, ok := translations[spec.Parse]
			if !ok {
				return nil, fmt.Errorf("descriptor for %s names unknown translation %q", desc.Entity, spec.Parse)
			}
			translated, err := translate(val)
			if err != nil {
				return nil, errors.NewValidationError(spec.Source, val, err.Error())
			}
			val = translated
		}
		fields[spec.Name] = val
	}

	return fields, nil
}

// resolveRefs resolves the record's foreign keys against earlier passes.
// An optional ref may be blank; anything non-blank must resolve.
func resolveRefs(desc *extract.Descriptor, record extract.Record, key string, lookup *entities.Lookup) (map[string]string, error) {
	refs := make(map[string]string, len(desc.Refs))

	for _, ref := range desc.Refs {
		val := NormalizeKey(record.Values[ref.Source])
		if val == "" {
			if ref.Optional {
				refs[ref.Field] = ""
				continue
			}
			return nil, &errors.ReferenceError{
				Entity: string(desc.Entity),
				Key:    key,
				Field:  ref.Field,
				Target: string(ref.Entity),
				Value:  "",
			}
		}
		if !lookup.Has(ref.Entity, val) {
			return nil, &errors.ReferenceError{
				Entity: string(desc.Entity),
				Key:    key,
				Field:  ref.Field,
				Target: string(ref.Entity),
				Value:  val,
			}
		}
		refs[ref.Field] = val
	}

	return refs, nil
}

