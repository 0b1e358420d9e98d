package mapper

import (
	"fmt"

	"github.com/campusops/sisync/pkg/entities"
)

// build constructs the typed entity for an entity type from the translated
// canonical fields and resolved references.
func build(t entities.Type, fields, refs map[string]string) (entities.Entity, error) {
	switch t {
	case entities.TypeFamily:
		return &entities.Family{
			ID:         fields["family_id"],
			Address:    fields["address"],
			City:       fields["city"],
			State:      fields["state"],
			PostalCode: fields["postal_code"],
			Phone:      fields["phone"],
			Email:      fields["email"],
		}, nil

	case entities.TypeTeacher:
		return &entities.Teacher{
			ID:         fields["teacher_id"],
			UniqueName: fields["unique_name"],
			FirstName:  fields["first_name"],
			LastName:   fields["last_name"],
			Prefix:     fields["prefix"],
			Email:      fields["email"],
			Department: fields["department"],
			Active:     fields["active"] == "true",
		}, nil

	case entities.TypeStudent:
		return &entities.Student{
			ID:        fields["student_id"],
			FirstName: fields["first_name"],
			LastName:  fields["last_name"],
			Nickname:  fields["nickname"],
			Email:     fields["email"],
			Gender:    fields["gender"],
			Grade:     fields["grade"],
			Status:    fields["status"],
			FamilyID:  refs["family"],
		}, nil

	case entities.TypeCourse:
		return &entities.Course{
			Number:         fields["number"],
			Name:           fields["course_name"],
			NameShort:      fields["course_name_short"],
			NameTranscript: fields["course_name_transcript"],
			Division:       fields["division"],
			GradeLevel:     fields["grade_level"],
			Department:     fields["department"],
			CourseType:     fields["course_type"],
		}, nil

	case entities.TypeSection:
		return &entities.Section{
			ID:           fields["section_id"],
			CourseNumber: refs["course"],
			TeacherID:    refs["teacher"],
			Term:         fields["term"],
			Period:       fields["period"],
		}, nil

	case entities.TypeRegistration:
		return &entities.Registration{
			ID:        fields["registration_id"],
			StudentID: refs["student"],
			SectionID: refs["section"],
			StartDate: fields["start_date"],
			EndDate:   fields["end_date"],
			Status:    fields["status"],
		}, nil

	case entities.TypeEnrollment:
		return &entities.Enrollment{
			ID:        fields["enrollment_id"],
			StudentID: refs["student"],
			SectionID: refs["section"],
			Role:      fields["role"],
			Status:    fields["status"],
		}, nil

	case entities.TypeDiscipline:
		return &entities.Discipline{
			ID:          fields["record_id"],
			StudentID:   refs["student"],
			Date:        fields["date"],
			Category:    fields["category"],
			Description: fields["description"],
		}, nil
	}

	return nil, fmt.Errorf("no entity builder for type %s", t)
}
