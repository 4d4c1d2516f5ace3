package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	CertNotEligible = "not_eligible"
	CertEligible    = "eligible"
	CertPassed      = "passed"
)

type Exam struct {
	gorm.Model
	CourseID     uint    `gorm:"uniqueIndex"`
	Title        string
	PassingScore float64 `gorm:"default:80"`
}

type ExamAttempt struct {
	gorm.Model
	UserID    uint `gorm:"index"`
	ExamID    uint `gorm:"index"`
	Exam      Exam
	Score     float64
	Passed    bool
	StartedAt time.Time
}

type Certification struct {
	gorm.Model
	UserID                  uint   `gorm:"index:idx_cert_user_course,unique"`
	CourseID                uint   `gorm:"index:idx_cert_user_course,unique"`
	Status                  string `gorm:"default:not_eligible"` // not_eligible, eligible, passed
	AccredibleCertificateID string
	IssuedAt                *time.Time
}
