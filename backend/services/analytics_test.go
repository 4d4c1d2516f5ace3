package services

import (
	"testing"

	"sprintlms/backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrophyTier(t *testing.T) {
	cases := []struct {
		certs int
		tier  string
	}{
		{0, ""},
		{1, "bronze"},
		{2, "bronze"},
		{3, "silver"},
		{4, "silver"},
		{5, "gold"},
		{7, "gold"},
		{8, "platinum"},
		{12, "diamond"},
		{19, "diamond"},
		{20, "ultimate"},
		{100, "ultimate"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.tier, TrophyTier(tc.certs), "certs=%d", tc.certs)
	}
}

// Only passed certifications count toward the trophy basis.
func TestPassedCertCount(t *testing.T) {
	db := newTestDB(t)
	user := makeUser(t, db, "student")
	courseA := makeCourse(t, db, "Go Basics", "go-basics")
	courseB := makeCourse(t, db, "Go Advanced", "go-advanced")

	require.NoError(t, db.Create(&models.Certification{
		UserID: user.ID, CourseID: courseA.ID, Status: models.CertPassed,
	}).Error)
	require.NoError(t, db.Create(&models.Certification{
		UserID: user.ID, CourseID: courseB.ID, Status: models.CertEligible,
	}).Error)

	assert.Equal(t, int64(1), PassedCertCount(db, user.ID))
}

func TestTrophyTierNames(t *testing.T) {
	assert.Equal(t, []string{"ultimate", "diamond", "platinum", "gold", "silver", "bronze"}, TrophyTierNames())
}

// A student holding both an enrollment and an access grant is counted twice.
// The count is the sum of the two systems, not a deduplicated union.
func TestCourseStudentCountDoubleCounts(t *testing.T) {
	db := newTestDB(t)
	user := makeUser(t, db, "student")
	staff := makeUser(t, db, "admin")
	course := makeCourse(t, db, "Go Basics", "go-basics")

	require.NoError(t, db.Create(&models.CourseEnrollment{
		UserID:   user.ID,
		CourseID: course.ID,
	}).Error)
	_, err := GrantCourseAccess(db, user.ID, course.ID, "manual", staff.ID, nil, "")
	require.NoError(t, err)

	assert.Equal(t, int64(2), CourseStudentCount(db, course.ID))

	// the deduplicated id list still sees one student
	assert.Len(t, CourseStudentIDs(db, course.ID), 1)
}

func TestCourseStudentCountExcludesRevoked(t *testing.T) {
	db := newTestDB(t)
	user := makeUser(t, db, "student")
	staff := makeUser(t, db, "admin")
	course := makeCourse(t, db, "Go Basics", "go-basics")

	_, err := GrantCourseAccess(db, user.ID, course.ID, "manual", staff.ID, nil, "")
	require.NoError(t, err)
	_, err = RevokeCourseAccess(db, user.ID, course.ID, staff.ID, "", "")
	require.NoError(t, err)

	assert.Equal(t, int64(0), CourseStudentCount(db, course.ID))
}

func TestCourseCompletionRate(t *testing.T) {
	db := newTestDB(t)
	userA := makeUser(t, db, "alpha")
	userB := makeUser(t, db, "beta")
	course := makeCourse(t, db, "Go Basics", "go-basics")
	lessonOne := makeLesson(t, db, course.ID, "One", "one", 1)
	makeLesson(t, db, course.ID, "Two", "two", 2)

	require.NoError(t, db.Create(&models.CourseEnrollment{UserID: userA.ID, CourseID: course.ID}).Error)
	require.NoError(t, db.Create(&models.CourseEnrollment{UserID: userB.ID, CourseID: course.ID}).Error)

	require.NoError(t, db.Create(&models.UserProgress{
		UserID:    userA.ID,
		LessonID:  lessonOne.ID,
		Completed: true,
	}).Error)

	// 1 completion over 2 students x 2 lessons
	assert.InDelta(t, 25.0, CourseCompletionRate(db, course.ID), 0.001)
}

// Progress rows from users outside the roster can push completions past the
// theoretical maximum. The rate stays capped at 100.
func TestCourseCompletionRateCapped(t *testing.T) {
	db := newTestDB(t)
	insider := makeUser(t, db, "insider")
	outsider := makeUser(t, db, "outsider")
	course := makeCourse(t, db, "Go Basics", "go-basics")
	lesson := makeLesson(t, db, course.ID, "One", "one", 1)

	require.NoError(t, db.Create(&models.CourseEnrollment{
		UserID: insider.ID, CourseID: course.ID,
	}).Error)

	require.NoError(t, db.Create(&models.UserProgress{
		UserID: insider.ID, LessonID: lesson.ID, Completed: true,
	}).Error)
	require.NoError(t, db.Create(&models.UserProgress{
		UserID: outsider.ID, LessonID: lesson.ID, Completed: true,
	}).Error)

	// 2 completions over 1 student x 1 lesson reads 200 without the cap
	assert.Equal(t, float64(100), CourseCompletionRate(db, course.ID))
}

func TestCourseCompletionRateEmptyCourse(t *testing.T) {
	db := newTestDB(t)
	course := makeCourse(t, db, "Empty", "empty")
	assert.Equal(t, float64(0), CourseCompletionRate(db, course.ID))
}
