package models

import "gorm.io/gorm"

type LessonQuiz struct {
	gorm.Model
	LessonID     uint                 `gorm:"uniqueIndex"`
	Lesson       Lesson
	Title        string
	Description  string
	PassingScore float64              `gorm:"default:80"`
	IsRequired   bool                 `gorm:"default:false"`
	Questions    []LessonQuizQuestion `gorm:"foreignKey:QuizID"`
}

type LessonQuizQuestion struct {
	gorm.Model
	QuizID        uint   `gorm:"index"`
	Text          string
	OptionA       string
	OptionB       string
	OptionC       string
	OptionD       string
	CorrectOption string `gorm:"default:A"` // A, B, C or D
	Order         int    `gorm:"default:0"`
}

type LessonQuizAttempt struct {
	gorm.Model
	UserID uint `gorm:"index"`
	QuizID uint `gorm:"index"`
	Score  float64
	Passed bool
}
