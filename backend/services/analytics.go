package services

import (
	"sprintlms/backend/models"

	"gorm.io/gorm"
)

// Trophy tiers by passed certification count, highest first.
var trophyTiers = []struct {
	Threshold int
	Name      string
}{
	{20, "ultimate"},
	{12, "diamond"},
	{8, "platinum"},
	{5, "gold"},
	{3, "silver"},
	{1, "bronze"},
}

// TrophyTier maps a passed-certification count to a trophy name, empty when
// the student has not passed any certification yet.
func TrophyTier(passedCerts int) string {
	for _, tier := range trophyTiers {
		if passedCerts >= tier.Threshold {
			return tier.Name
		}
	}
	return ""
}

// PassedCertCount counts a user's passed certifications, the basis for
// trophy tiers.
func PassedCertCount(db *gorm.DB, userID uint) int64 {
	var count int64
	db.Model(&models.Certification{}).
		Where("user_id = ? AND status = ?", userID, models.CertPassed).
		Count(&count)
	return count
}

// TrophyTierNames returns the tier names highest first, for building
// zero-filled distributions.
func TrophyTierNames() []string {
	names := make([]string, 0, len(trophyTiers))
	for _, tier := range trophyTiers {
		names = append(names, tier.Name)
	}
	return names
}

// CourseStudentCount counts a course's students as enrollments plus unlocked
// access grants. A student holding both records is counted twice; the two
// systems are summed as-is.
func CourseStudentCount(db *gorm.DB, courseID uint) int64 {
	var enrollments int64
	db.Model(&models.CourseEnrollment{}).Where("course_id = ?", courseID).Count(&enrollments)

	var accesses int64
	db.Model(&models.CourseAccess{}).
		Where("course_id = ? AND status = ?", courseID, models.AccessUnlocked).
		Count(&accesses)

	return enrollments + accesses
}

// CourseCompletionRate is completed progress records over the total possible
// (students times lessons), as a percentage, capped at 100. Zero when the
// course has no lessons or no students.
func CourseCompletionRate(db *gorm.DB, courseID uint) float64 {
	var lessons int64
	db.Model(&models.Lesson{}).Where("course_id = ?", courseID).Count(&lessons)
	if lessons == 0 {
		return 0
	}

	students := CourseStudentCount(db, courseID)
	if students == 0 {
		return 0
	}

	var completed int64
	db.Model(&models.UserProgress{}).
		Joins("JOIN lessons ON lessons.id = user_progresses.lesson_id").
		Where("lessons.course_id = ? AND user_progresses.completed", courseID).
		Count(&completed)

	rate := float64(completed) / float64(students*lessons) * 100
	if rate > 100 {
		rate = 100
	}
	return rate
}

// CourseStudentIDs returns the distinct user ids with access to a course,
// deduplicated across enrollments and unlocked access grants.
func CourseStudentIDs(db *gorm.DB, courseID uint) []uint {
	seen := map[uint]bool{}

	var enrollments []models.CourseEnrollment
	db.Where("course_id = ?", courseID).Find(&enrollments)
	for _, e := range enrollments {
		seen[e.UserID] = true
	}

	var accesses []models.CourseAccess
	db.Where("course_id = ? AND status = ?", courseID, models.AccessUnlocked).Find(&accesses)
	for _, a := range accesses {
		seen[a.UserID] = true
	}

	ids := make([]uint, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	return ids
}
