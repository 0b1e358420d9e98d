package extract

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/campusops/sisync/pkg/entities"
	"github.com/campusops/sisync/pkg/errors"
	"github.com/campusops/sisync/pkg/logging"
)

// Record is one raw extract record that passed shape validation. Values
// are the source columns coerced to strings, untrimmed and untranslated;
// the mapper owns normalization.
type Record struct {
	Index  int
	Values map[string]string
}

// Key returns the record's natural key column value, if present.
func (r Record) Key(desc *Descriptor) string {
	return strings.TrimSpace(r.Values[desc.KeySource])
}

// SkippedRecord describes a record dropped during loading, with enough
// context to locate it in the source file.
type SkippedRecord struct {
	Index int
	Key   string
	Err   error
}

// Result holds the outcome of loading one extract file.
type Result struct {
	Records []Record
	Skipped []SkippedRecord
}

// Loader reads converted extract files. A zero Loader is not usable;
// construct with NewLoader.
type Loader struct {
	validate *validator.Validate
}

// NewLoader creates a Loader.
func NewLoader() *Loader {
	return &Loader{validate: validator.New()}
}

// extractFile is the expected top-level shape of a converted export file.
type extractFile struct {
	Records *[]map[string]any `json:"records"`
}

// LoadFile opens and loads one entity type's extract file.
func (l *Loader) LoadFile(path string, desc *Descriptor) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.WrapIO("open", path, err)
	}
	defer f.Close() //nolint:errcheck // read-only handle

	return l.Load(f, path, desc)
}

// Load reads records from r, validating the top-level structure and each
// record's required fields. A malformed top level fails the whole load;
// an invalid record is skipped, logged, and reported in Result.Skipped.
func (l *Loader) Load(r io.Reader, name string, desc *Descriptor) (*Result, error) {
	var file extractFile
	dec := json.NewDecoder(r)
	if err := dec.Decode(&file); err != nil {
		return nil, errors.NewParseError("json", name, "not a valid extract document", err)
	}
	if file.Records == nil {
		return nil, errors.NewParseError("json", name, `top-level "records" array missing`, nil)
	}

	result := &Result{}
	for i, raw := range *file.Records {
		record, err := l.coerce(i, raw)
		if err == nil {
			err = l.checkRecord(record, desc)
		}
		if err != nil {
			key := record.Key(desc)
			logging.Warn().
				Str("file", name).
				Str("entity", string(desc.Entity)).
				Int("record", i).
				Str("key", key).
				Err(err).
				Msg("Skipping invalid record")
			result.Skipped = append(result.Skipped, SkippedRecord{Index: i, Key: key, Err: err})
			continue
		}
		result.Records = append(result.Records, record)
	}

	logging.Debug().
		Str("file", name).
		Str("entity", string(desc.Entity)).
		Int("loaded", len(result.Records)).
		Int("skipped", len(result.Skipped)).
		Msg("Extract file loaded")

	return result, nil
}

// coerce converts a decoded JSON record into string column values.
// Scalars coerce; nested objects or arrays mean the converter misfired
// and the record is invalid.
func (l *Loader) coerce(index int, raw map[string]any) (Record, error) {
	record := Record{Index: index, Values: make(map[string]string, len(raw))}
	for col, val := range raw {
		switch v := val.(type) {
		case nil:
			record.Values[col] = ""
		case string:
			record.Values[col] = v
		case bool:
			record.Values[col] = strconv.FormatBool(v)
		case float64:
			record.Values[col] = strconv.FormatFloat(v, 'f', -1, 64)
		default:
			return record, errors.NewValidationError(col, val,
				fmt.Sprintf("expected a scalar value, got %T", val))
		}
	}
	return record, nil
}

// checkRecord enforces the descriptor's required fields and value checks.
func (l *Loader) checkRecord(record Record, desc *Descriptor) error {
	for _, source := range desc.RequiredSources() {
		val, ok := record.Values[source]
		if !ok {
			return errors.NewValidationError(source, nil, "required field is missing")
		}
		if strings.TrimSpace(val) == "" {
			return errors.NewValidationError(source, val, "required field is empty")
		}
	}

	for _, field := range desc.Fields {
		if field.Check == "" {
			continue
		}
		val := strings.TrimSpace(record.Values[field.Source])
		if val == "" {
			// Optional fields may be blank; required blanks were caught above.
			continue
		}
		if err := l.validate.Var(val, field.Check); err != nil {
			return errors.NewValidationError(field.Source, val,
				fmt.Sprintf("value does not satisfy %q", field.Check))
		}
	}

	return nil
}

// DescriptorFor returns the embedded descriptor for an entity type.
func DescriptorFor(t entities.Type) (*Descriptor, error) {
	desc, ok := Descriptors()[t]
	if !ok {
		return nil, fmt.Errorf("no descriptor declared for entity type %s", t)
	}
	return desc, nil
}
