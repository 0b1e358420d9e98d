// Package entities defines the canonical in-memory records that one
// reconciliation run builds from the extract files. Entities are
// constructed once per run, compared against the remote system, and
// discarded; the remote system is the only persistent store.
package entities

// Type identifies one entity type. The value doubles as the remote API
// resource name.
type Type string

// Entity types, in declaration order. The sync order is computed from the
// declared dependencies, not from this list.
const (
	TypeFamily       Type = "families"
	TypeTeacher      Type = "teachers"
	TypeStudent      Type = "students"
	TypeCourse       Type = "courses"
	TypeSection      Type = "sections"
	TypeRegistration Type = "registrations"
	TypeEnrollment   Type = "enrollments"
	TypeDiscipline   Type = "discipline_records"
)

// Types returns all known entity types.
func Types() []Type {
	return []Type{
		TypeFamily,
		TypeTeacher,
		TypeStudent,
		TypeCourse,
		TypeSection,
		TypeRegistration,
		TypeEnrollment,
		TypeDiscipline,
	}
}

// Entity is a canonical record with a stable natural key.
type Entity interface {
	// EntityType returns the type this entity belongs to.
	EntityType() Type

	// Key returns the natural key, unique within the entity type for a run.
	Key() string

	// Fields returns the wire representation sent to and compared against
	// the remote API. Every field listed here participates in change
	// detection.
	Fields() map[string]string
}

// Family is a household record. Families have no dependencies and sync first.
type Family struct {
	ID         string
	Address    string
	City       string
	State      string
	PostalCode string
	Phone      string
	Email      string
}

// EntityType implements Entity.
func (f *Family) EntityType() Type { return TypeFamily }

// Key implements Entity.
func (f *Family) Key() string { return f.ID }

// Fields implements Entity.
func (f *Family) Fields() map[string]string {
	return map[string]string{
		"family_id":   f.ID,
		"address":     f.Address,
		"city":        f.City,
		"state":       f.State,
		"postal_code": f.PostalCode,
		"phone":       f.Phone,
		"email":       f.Email,
	}
}

// Teacher is a faculty record.
type Teacher struct {
	ID         string
	UniqueName string
	FirstName  string
	LastName   string
	Prefix     string
	Email      string
	Department string
	Active     bool
}

// EntityType implements Entity.
func (t *Teacher) EntityType() Type { return TypeTeacher }

// Key implements Entity.
func (t *Teacher) Key() string { return t.ID }

// Fields implements Entity.
func (t *Teacher) Fields() map[string]string {
	return map[string]string{
		"teacher_id":  t.ID,
		"unique_name": t.UniqueName,
		"first_name":  t.FirstName,
		"last_name":   t.LastName,
		"prefix":      t.Prefix,
		"email":       t.Email,
		"department":  t.Department,
		"active":      boolField(t.Active),
	}
}

// Student is a permanent record entry. FamilyID references a Family loaded
// in an earlier pass.
type Student struct {
	ID        string
	FirstName string
	LastName  string
	Nickname  string
	Email     string
	Gender    string
	Grade     string
	Status    string
	FamilyID  string
}

// EntityType implements Entity.
func (s *Student) EntityType() Type { return TypeStudent }

// Key implements Entity.
func (s *Student) Key() string { return s.ID }

// Fields implements Entity.
func (s *Student) Fields() map[string]string {
	return map[string]string{
		"student_id": s.ID,
		"first_name": s.FirstName,
		"last_name":  s.LastName,
		"nickname":   s.Nickname,
		"email":      s.Email,
		"gender":     s.Gender,
		"grade":      s.Grade,
		"status":     s.Status,
		"family":     s.FamilyID,
	}
}

// Course is a catalog course. The course number is the natural key.
type Course struct {
	Number         string
	Name           string
	NameShort      string
	NameTranscript string
	Division       string
	GradeLevel     string
	Department     string
	CourseType     string
}

// EntityType implements Entity.
func (c *Course) EntityType() Type { return TypeCourse }

// Key implements Entity.
func (c *Course) Key() string { return c.Number }

// Fields implements Entity.
func (c *Course) Fields() map[string]string {
	return map[string]string{
		"number":                 c.Number,
		"course_name":            c.Name,
		"course_name_short":      c.NameShort,
		"course_name_transcript": c.NameTranscript,
		"division":               c.Division,
		"grade_level":            c.GradeLevel,
		"department":             c.Department,
		"course_type":            c.CourseType,
	}
}

// Section is one scheduled instance of a course taught by a teacher.
type Section struct {
	ID           string
	CourseNumber string
	TeacherID    string
	Term         string
	Period       string
}

// EntityType implements Entity.
func (s *Section) EntityType() Type { return TypeSection }

// Key implements Entity.
func (s *Section) Key() string { return s.ID }

// Fields implements Entity.
func (s *Section) Fields() map[string]string {
	return map[string]string{
		"section_id": s.ID,
		"course":     s.CourseNumber,
		"teacher":    s.TeacherID,
		"term":       s.Term,
		"period":     s.Period,
	}
}

// Registration records a student signing up for a section for a date range.
type Registration struct {
	ID        string
	StudentID string
	SectionID string
	StartDate string
	EndDate   string
	Status    string
}

// EntityType implements Entity.
func (r *Registration) EntityType() Type { return TypeRegistration }

// Key implements Entity.
func (r *Registration) Key() string { return r.ID }

// Fields implements Entity.
func (r *Registration) Fields() map[string]string {
	return map[string]string{
		"registration_id": r.ID,
		"student":         r.StudentID,
		"section":         r.SectionID,
		"start_date":      r.StartDate,
		"end_date":        r.EndDate,
		"status":          r.Status,
	}
}

// Enrollment records a student's active participation in a section.
type Enrollment struct {
	ID        string
	StudentID string
	SectionID string
	Role      string
	Status    string
}

// EntityType implements Entity.
func (e *Enrollment) EntityType() Type { return TypeEnrollment }

// Key implements Entity.
func (e *Enrollment) Key() string { return e.ID }

// Fields implements Entity.
func (e *Enrollment) Fields() map[string]string {
	return map[string]string{
		"enrollment_id": e.ID,
		"student":       e.StudentID,
		"section":       e.SectionID,
		"role":          e.Role,
		"status":        e.Status,
	}
}

// Discipline is a disciplinary incident attached to a student. Discipline
// records are append-only on the remote side and are never deleted by a run.
type Discipline struct {
	ID          string
	StudentID   string
	Date        string
	Category    string
	Description string
}

// EntityType implements Entity.
func (d *Discipline) EntityType() Type { return TypeDiscipline }

// Key implements Entity.
func (d *Discipline) Key() string { return d.ID }

// Fields implements Entity.
func (d *Discipline) Fields() map[string]string {
	return map[string]string{
		"record_id":   d.ID,
		"student":     d.StudentID,
		"date":        d.Date,
		"category":    d.Category,
		"description": d.Description,
	}
}

// boolField renders a boolean the way the remote API serializes it.
func boolField(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
