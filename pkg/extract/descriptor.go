// Package extract reads the per-entity JSON files produced by the legacy
// export conversion step and validates their records against embedded
// entity descriptors. The descriptors are the single declaration of each
// entity type's source columns, required fields, translations, and
// foreign keys; the loader, mapper, and sync engine are all driven by them.
package extract

import (
	_ "embed"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-yaml"

	"github.com/campusops/sisync/pkg/entities"
)

//go:embed descriptors.yaml
var descriptorsYAML []byte

// FieldSpec declares one mapped field: the canonical attribute name, the
// legacy source column it comes from, and how its value is checked and
// translated.
type FieldSpec struct {
	Name     string `yaml:"name" validate:"required"`
	Source   string `yaml:"source" validate:"required"`
	Required bool   `yaml:"required"`
	// Check is a validator tag applied to the raw value (e.g. "email").
	// Blank values skip the check unless the field is also required.
	Check string `yaml:"check"`
	// Parse names a value translation applied by the mapper
	// (bool, title, boarder). Blank means pass-through.
	Parse string `yaml:"parse"`
}

// RefSpec declares a foreign key: which source column carries the key of
// which entity type. Optional refs may be blank; non-blank values must
// resolve against the lookup tables built by earlier passes.
type RefSpec struct {
	Field    string        `yaml:"field" validate:"required"`
	Source   string        `yaml:"source" validate:"required"`
	Entity   entities.Type `yaml:"entity" validate:"required"`
	Optional bool          `yaml:"optional"`
}

// Descriptor declares one entity type's extract file and mapping rules.
type Descriptor struct {
	Entity    entities.Type `yaml:"entity" validate:"required"`
	File      string        `yaml:"file" validate:"required"`
	Resource  string        `yaml:"resource" validate:"required"`
	KeySource string        `yaml:"key" validate:"required"`
	// Deletable marks the type eligible for hard deletion of remote-only
	// records. Append-only types (discipline) leave this false.
	Deletable bool        `yaml:"deletable"`
	Fields    []FieldSpec `yaml:"fields" validate:"required,dive"`
	Refs      []RefSpec   `yaml:"refs" validate:"dive"`
}

// DependsOn returns the entity types this descriptor's records reference.
func (d *Descriptor) DependsOn() []entities.Type {
	seen := make(map[entities.Type]bool)
	var deps []entities.Type
	for _, ref := range d.Refs {
		if !seen[ref.Entity] {
			seen[ref.Entity] = true
			deps = append(deps, ref.Entity)
		}
	}
	return deps
}

// KeyField returns the canonical field name that carries the natural key.
func (d *Descriptor) KeyField() string {
	for _, f := range d.Fields {
		if f.Source == d.KeySource {
			return f.Name
		}
	}
	// Descriptors always map their key column; the embedded set is
	// checked by tests.
	return d.KeySource
}

// RequiredSources returns the source columns that must be present and
// non-empty for a record to load. The key column is always required.
func (d *Descriptor) RequiredSources() []string {
	sources := []string{d.KeySource}
	for _, f := range d.Fields {
		if f.Required && f.Source != d.KeySource {
			sources = append(sources, f.Source)
		}
	}
	return sources
}

// descriptorFile is the top-level shape of descriptors.yaml.
type descriptorFile struct {
	Descriptors []Descriptor `yaml:"descriptors" validate:"required,dive"`
}

// Descriptors returns the embedded descriptor set keyed by entity type.
// The embedded file ships with the binary, so a failure here is a build
// defect and panics rather than returning an error.
func Descriptors() map[entities.Type]*Descriptor {
	var file descriptorFile
	if err := yaml.Unmarshal(descriptorsYAML, &file); err != nil {
		panic(fmt.Sprintf("embedded descriptors.yaml is invalid: %v", err))
	}
	if err := validator.New().Struct(&file); err != nil {
		panic(fmt.Sprintf("embedded descriptors.yaml failed validation: %v", err))
	}

	byType := make(map[entities.Type]*Descriptor, len(file.Descriptors))
	for i := range file.Descriptors {
		d := &file.Descriptors[i]
		if _, dup := byType[d.Entity]; dup {
			panic(fmt.Sprintf("embedded descriptors.yaml declares %s twice", d.Entity))
		}
		byType[d.Entity] = d
	}
	return byType
}
