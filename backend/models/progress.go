package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	PaymentFull        = "full"
	PaymentInstallment = "installment"
)

type UserProgress struct {
	gorm.Model
	UserID               uint `gorm:"index:idx_progress_user_lesson,unique"`
	LessonID             uint `gorm:"index:idx_progress_user_lesson,unique"`
	Lesson               Lesson
	Completed            bool `gorm:"default:false"`
	CompletedAt          *time.Time
	ProgressPercentage   int  `gorm:"default:0"`
	VideoWatchPercentage int  `gorm:"default:0"`
	LastAccessed         time.Time
}

type CourseEnrollment struct {
	gorm.Model
	UserID      uint   `gorm:"index:idx_enrollment_user_course,unique"`
	CourseID    uint   `gorm:"index:idx_enrollment_user_course,unique"`
	User        User
	Course      Course
	EnrolledAt  time.Time
	PaymentType string `gorm:"default:full"` // full, installment
}

// DaysUntilExam returns how many days remain before the course exam unlocks.
// Full payments unlock immediately; installment plans wait out the course window.
func (e *CourseEnrollment) DaysUntilExam(unlockDays int) int {
	if e.PaymentType == PaymentFull {
		return 0
	}
	elapsed := int(time.Since(e.EnrolledAt).Hours() / 24)
	remaining := unlockDays - elapsed
	if remaining < 0 {
		return 0
	}
	return remaining
}
