package mapper

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/campusops/sisync/pkg/errors"
)

// Translation converts a trimmed source value into its canonical form.
// Translations are pure; a failed translation excludes the record.
type Translation func(val string) (string, error)

// translations maps the parse names used in descriptors.yaml to their
// implementations.
func (m *Mapper) translations() map[string]Translation {
	return map[string]Translation{
		"bool":    parseBool,
		"boarder": parseBoarderDay,
		"title":   m.parseTitle,
	}
}

// parseBool folds the legacy export's assorted truthy and falsy spellings
// into the remote API's boolean serialization.
func parseBool(val string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(val)) {
	case "yes", "true", "t", "1":
		return "true", nil
	case "no", "false", "f", "0":
		return "false", nil
	case "":
		return "", errors.NewValidationError("", val, "boolean value is empty")
	}
	return "", errors.NewValidationError("", val, fmt.Sprintf("unknown true/false value %q", val))
}

// parseBoarderDay translates the legacy B/D residency marker into a
// boolean is_boarder value.
func parseBoarderDay(val string) (string, error) {
	switch strings.TrimSpace(val) {
	case "B":
		return "true", nil
	case "D":
		return "false", nil
	case "":
		return "", errors.NewValidationError("", val, "boarder/day value is empty")
	}
	return "", errors.NewValidationError("", val, fmt.Sprintf("unknown boarder/day value %q", val))
}

// parseTitle normalizes shouty legacy labels (department and division names
// arrive fully upper-cased) into title case. Blank passes through.
func (m *Mapper) parseTitle(val string) (string, error) {
	if val == "" {
		return "", nil
	}
	return m.titles.String(strings.ToLower(val)), nil
}

// NormalizeKey derives the stable matching form of a natural key:
// surrounding whitespace stripped and letters upper-cased, since the legacy
// export is inconsistent about identifier casing between files.
func NormalizeKey(val string) string {
	return strings.ToUpper(strings.TrimSpace(val))
}

// newTitleCaser builds the caser used by the title translation.
func newTitleCaser() cases.Caser {
	return cases.Title(language.English)
}
