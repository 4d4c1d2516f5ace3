package utils

import (
	"fmt"

	"sprintlms/backend/config"
	"sprintlms/backend/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func InitDB(cfg *config.Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName,
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	if err := MigrateModels(db); err != nil {
		return nil, err
	}

	return db, nil
}

func MigrateModels(db *gorm.DB) error {
	return db.AutoMigrate(
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
	)
}
