package services

import (
	"testing"

	"sprintlms/backend/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Course{},
		&models.Module{},
		&models.Lesson{},
		&models.UserProgress{},
		&models.CourseEnrollment{},
		&models.CourseAccess{},
		&models.Bundle{},
		&models.BundlePurchase{},
		&models.Cohort{},
		&models.CohortMember{},
		&models.Exam{},
		&models.ExamAttempt{},
		&models.Certification{},
		&models.LessonQuiz{},
		&models.LessonQuizQuestion{},
		&models.LessonQuizAttempt{},
	))
	return db
}

func makeUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	user := models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "x",
	}
	require.NoError(t, db.Create(&user).Error)
	return &user
}

func makeCourse(t *testing.T, db *gorm.DB, name, slug string) *models.Course {
	t.Helper()
	course := models.Course{Name: name, Slug: slug}
	require.NoError(t, db.Create(&course).Error)
	return &course
}

func makeLesson(t *testing.T, db *gorm.DB, courseID uint, title, slug string, order int) *models.Lesson {
	t.Helper()
	lesson := models.Lesson{CourseID: courseID, Title: title, Slug: slug, Order: order}
	require.NoError(t, db.Create(&lesson).Error)
	return &lesson
}
