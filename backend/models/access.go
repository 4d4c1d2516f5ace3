package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	AccessUnlocked = "unlocked"
	AccessExpired  = "expired"
	AccessPending  = "pending"
	AccessRevoked  = "revoked"
)

// CourseAccess is the generalized access-grant record. A user can hold access to a
// course through a manual grant, a bundle purchase or a cohort membership, alongside
// the legacy CourseEnrollment rows. "Enrolled" means either record exists.
type CourseAccess struct {
	gorm.Model
	UserID           uint   `gorm:"index"`
	CourseID         uint   `gorm:"index"`
	User             User
	Course           Course
	AccessType       string `gorm:"default:manual"`   // manual, bundle, cohort
	Status           string `gorm:"default:unlocked"` // unlocked, expired, pending, revoked
	BundlePurchaseID *uint
	CohortID         *uint
	GrantedByID      *uint
	GrantedAt        time.Time
	ExpiresAt        *time.Time
	RevokedByID      *uint
	RevokedAt        *time.Time
	RevokeReason     string
	Notes            string
}

type Bundle struct {
	gorm.Model
	Name                string
	Slug                string   `gorm:"uniqueIndex"`
	Description         string
	BundleType          string   `gorm:"default:fixed"` // fixed, pick_n
	Price               *float64
	IsActive            bool     `gorm:"default:true"`
	MaxCourseSelections *int
	Courses             []Course `gorm:"many2many:bundle_courses"`
}

type BundlePurchase struct {
	gorm.Model
	UserID     uint `gorm:"index"`
	BundleID   uint `gorm:"index"`
	Bundle     Bundle
	PurchaseID string
	Notes      string
}

type Cohort struct {
	gorm.Model
	Name     string
	IsActive bool `gorm:"default:true"`
}

type CohortMember struct {
	gorm.Model
	UserID   uint `gorm:"index:idx_cohort_member,unique"`
	CohortID uint `gorm:"index:idx_cohort_member,unique"`
}
