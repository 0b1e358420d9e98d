package mapper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusops/sisync/pkg/entities"
	"github.com/campusops/sisync/pkg/errors"
	"github.com/campusops/sisync/pkg/extract"
)

func descriptorFor(t *testing.T, typ entities.Type) *extract.Descriptor {
	t.Helper()
	desc, err := extract.DescriptorFor(typ)
	require.NoError(t, err)
	return desc
}

func record(index int, values map[string]string) extract.Record {
	return extract.Record{Index: index, Values: values}
}

func TestMapTeacher(t *testing.T) {
	desc := descriptorFor(t, entities.TypeTeacher)
	records := []extract.Record{
		record(0, map[string]string{
			"IDTEACHER":       " t1 ",
			"NameUnique":      "jsmith",
			"NameFirst":       "Jan ",
			"NameLast":        " Smith",
			"NamePrefix":      "Dr.",
			"EmailSchool":     "jsmith@school.example",
			"DepartmentName":  "MATHEMATICS",
			"Active Employee": "Yes",
		}),
	}

	result := New().Map(desc, records, entities.NewLookup())
	require.Len(t, result.Entities, 1)
	assert.Empty(t, result.Excluded)

	teacher, ok := result.Entities[0].(*entities.Teacher)
	require.True(t, ok)
	assert.Equal(t, "T1", teacher.ID)
	assert.Equal(t, "Jan", teacher.FirstName)
	assert.Equal(t, "Smith", teacher.LastName)
	assert.Equal(t, "Mathematics", teacher.Department)
	assert.True(t, teacher.Active)
}

func TestMapExcludesBadTranslation(t *testing.T) {
	desc := descriptorFor(t, entities.TypeTeacher)
	records := []extract.Record{
		record(0, map[string]string{
			"IDTEACHER":       "T1",
			"NameUnique":      "jsmith",
			"NameFirst":       "Jan",
			"NameLast":        "Smith",
			"Active Employee": "maybe",
		}),
	}

	result := New().Map(desc, records, entities.NewLookup())
	assert.Empty(t, result.Entities)
	require.Len(t, result.Excluded, 1)
	assert.True(t, errors.IsInvalidRecord(result.Excluded[0].Err))
	assert.Equal(t, "T1", result.Excluded[0].Key)
}

func TestMapSectionResolvesReferences(t *testing.T) {
	lookup := entities.NewLookup()
	lookup.Add(&entities.Course{Number: "MATH101"})
	lookup.Add(&entities.Teacher{ID: "T1"})

	desc := descriptorFor(t, entities.TypeSection)
	records := []extract.Record{
		record(0, map[string]string{
			"IDSECTION":    "SEC1",
			"CourseNumber": "math101", // case differs from the course file
			"IDTEACHER":    "T1",
			"TermName":     "Fall 2026",
			"Period":       "3",
		}),
	}

	result := New().Map(desc, records, lookup)
	require.Len(t, result.Entities, 1)

	section, ok := result.Entities[0].(*entities.Section)
	require.True(t, ok)
	assert.Equal(t, "MATH101", section.CourseNumber)
	assert.Equal(t, "T1", section.TeacherID)
}

func TestMapSectionUnresolvedCourseExcluded(t *testing.T) {
	lookup := entities.NewLookup()
	lookup.Add(&entities.Teacher{ID: "T1"})

	desc := descriptorFor(t, entities.TypeSection)
	records := []extract.Record{
		record(0, map[string]string{
			"IDSECTION":    "SEC1",
			"CourseNumber": "C_missing",
			"IDTEACHER":    "T1",
		}),
	}

	result := New().Map(desc, records, lookup)
	assert.Empty(t, result.Entities)
	require.Len(t, result.Excluded, 1)
	assert.True(t, errors.IsUnresolvedReference(result.Excluded[0].Err))

	var refErr *errors.ReferenceError
	require.ErrorAs(t, result.Excluded[0].Err, &refErr)
	assert.Equal(t, "C_MISSING", refErr.Value)
	assert.Equal(t, "courses", refErr.Target)
}

func TestMapStudentOptionalFamilyRef(t *testing.T) {
	desc := descriptorFor(t, entities.TypeStudent)
	records := []extract.Record{
		record(0, map[string]string{
			"IDSTUDENT": "S1",
			"NameFirst": "Ana",
			"NameLast":  "Lopez",
			// IDFAMILY absent: optional ref, student still maps
		}),
		record(1, map[string]string{
			"IDSTUDENT": "S2",
			"NameFirst": "Ben",
			"NameLast":  "King",
			"IDFAMILY":  "F_missing",
		}),
	}

	result := New().Map(desc, records, entities.NewLookup())
	require.Len(t, result.Entities, 1)
	assert.Equal(t, "S1", result.Entities[0].Key())

	require.Len(t, result.Excluded, 1)
	assert.True(t, errors.IsUnresolvedReference(result.Excluded[0].Err))
}

func TestMapDuplicateKeyExcluded(t *testing.T) {
	desc := descriptorFor(t, entities.TypeCourse)
	records := []extract.Record{
		record(0, map[string]string{"CourseNumber": "MATH101", "CourseName": "Algebra I"}),
		record(1, map[string]string{"CourseNumber": " math101 ", "CourseName": "Algebra I again"}),
	}

	result := New().Map(desc, records, entities.NewLookup())
	assert.Len(t, result.Entities, 1)
	require.Len(t, result.Excluded, 1)
	assert.True(t, errors.IsInvalidRecord(result.Excluded[0].Err))
}

func TestMapIsDeterministic(t *testing.T) {
	desc := descriptorFor(t, entities.TypeCourse)
	records := []extract.Record{
		record(0, map[string]string{"CourseNumber": "MATH101", "CourseName": "Algebra I", "DepartmentName": "MATH"}),
	}

	first := New().Map(desc, records, entities.NewLookup())
	second := New().Map(desc, records, entities.NewLookup())
	require.Len(t, first.Entities, 1)
	require.Len(t, second.Entities, 1)
	assert.Equal(t, first.Entities[0].Fields(), second.Entities[0].Fields())
}

func TestMapWithSplit(t *testing.T) {
	// Legacy registration rows can carry a second semester in the same row;
	// a split hook expands them.
	split := func(desc *extract.Descriptor, r extract.Record) []extract.Record {
		if r.Values["DateStart2"] == "" {
			return []extract.Record{r}
		}
		second := extract.Record{Index: r.Index, Values: map[string]string{}}
		for k, v := range r.Values {
			second.Values[k] = v
		}
		second.Values["IDREGISTRATION"] = r.Values["IDREGISTRATION"] + "-2"
		second.Values["DateStart"] = r.Values["DateStart2"]
		return []extract.Record{r, second}
	}

	lookup := entities.NewLookup()
	lookup.Add(&entities.Student{ID: "S1"})
	lookup.Add(&entities.Section{ID: "SEC1"})

	desc := descriptorFor(t, entities.TypeRegistration)
	records := []extract.Record{
		record(0, map[string]string{
			"IDREGISTRATION": "R1",
			"IDSTUDENT":      "S1",
			"IDSECTION":      "SEC1",
			"DateStart":      "2026-01-05",
			"DateStart2":     "2026-06-01",
		}),
	}

	result := New(WithSplit(split)).Map(desc, records, lookup)
	require.Len(t, result.Entities, 2)
	assert.Equal(t, "R1", result.Entities[0].Key())
	assert.Equal(t, "R1-2", result.Entities[1].Key())
}
