package services

import (
	"errors"
	"time"

	"sprintlms/backend/models"

	"gorm.io/gorm"
)

// ErrNoActiveAccess reports a revoke against a user with no unlocked access.
var ErrNoActiveAccess = errors.New("no active access found to revoke")

// GrantCourseAccess unlocks a course for a user. An existing revoked or expired
// record is reactivated in place rather than duplicated.
func GrantCourseAccess(db *gorm.DB, userID, courseID uint, accessType string, grantedBy uint, expiresAt *time.Time, notes string) (*models.CourseAccess, error) {
	var access models.CourseAccess
	err := db.Where("user_id = ? AND course_id = ?", userID, courseID).First(&access).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		access = models.CourseAccess{
			UserID:      userID,
			CourseID:    courseID,
			AccessType:  accessType,
			Status:      models.AccessUnlocked,
			GrantedByID: &grantedBy,
			GrantedAt:   time.Now(),
			ExpiresAt:   expiresAt,
			Notes:       notes,
		}
		if err := db.Create(&access).Error; err != nil {
			return nil, err
		}
		return &access, nil
	}

	access.AccessType = accessType
	access.Status = models.AccessUnlocked
	access.GrantedByID = &grantedBy
	access.GrantedAt = time.Now()
	access.ExpiresAt = expiresAt
	access.RevokedByID = nil
	access.RevokedAt = nil
	access.RevokeReason = ""
	access.Notes = notes
	if err := db.Save(&access).Error; err != nil {
		return nil, err
	}
	return &access, nil
}

// RevokeCourseAccess marks a user's unlocked access as revoked.
func RevokeCourseAccess(db *gorm.DB, userID, courseID uint, revokedBy uint, reason, notes string) (*models.CourseAccess, error) {
	var access models.CourseAccess
	err := db.Where("user_id = ? AND course_id = ? AND status = ?",
		userID, courseID, models.AccessUnlocked).First(&access).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNoActiveAccess
	}
	if err != nil {
		return nil, err
	}

	now := time.Now()
	access.Status = models.AccessRevoked
	access.RevokedByID = &revokedBy
	access.RevokedAt = &now
	access.RevokeReason = reason
	if notes != "" {
		access.Notes = notes
	}
	if err := db.Save(&access).Error; err != nil {
		return nil, err
	}
	return &access, nil
}

// GrantBundleAccess records a bundle purchase and fans access out to every
// course in the bundle. Returns the accesses granted.
func GrantBundleAccess(db *gorm.DB, userID uint, bundle *models.Bundle, grantedBy uint, purchaseID, notes string) (*models.BundlePurchase, []models.CourseAccess, error) {
	purchase := models.BundlePurchase{
		UserID:     userID,
		BundleID:   bundle.ID,
		PurchaseID: purchaseID,
		Notes:      notes,
	}
	if err := db.Create(&purchase).Error; err != nil {
		return nil, nil, err
	}

	var courses []models.Course
	if err := db.Model(bundle).Association("Courses").Find(&courses); err != nil {
		return nil, nil, err
	}

	var granted []models.CourseAccess
	for _, course := range courses {
		access, err := GrantCourseAccess(db, userID, course.ID, "bundle", grantedBy, nil, notes)
		if err != nil {
			continue
		}
		access.BundlePurchaseID = &purchase.ID
		db.Save(access)
		granted = append(granted, *access)
	}

	return &purchase, granted, nil
}

// AddToCohort puts a user into a cohort; returns whether the membership is new.
func AddToCohort(db *gorm.DB, userID, cohortID uint) (bool, error) {
	var member models.CohortMember
	err := db.Where("user_id = ? AND cohort_id = ?", userID, cohortID).First(&member).Error
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}

	member = models.CohortMember{UserID: userID, CohortID: cohortID}
	if err := db.Create(&member).Error; err != nil {
		return false, err
	}
	return true, nil
}

// BulkGrantAccess grants every (user, course) pair, skipping pairs already
// unlocked, and returns how many grants were made. Missing users or courses are
// skipped, never fatal.
func BulkGrantAccess(db *gorm.DB, userIDs, courseIDs []uint, accessType string, grantedBy uint, expiresAt *time.Time, notes string) int {
	granted := 0
	for _, userID := range userIDs {
		var user models.User
		if err := db.First(&user, userID).Error; err != nil {
			continue
		}
		for _, courseID := range courseIDs {
			var course models.Course
			if err := db.First(&course, courseID).Error; err != nil {
				continue
			}

			var existing models.CourseAccess
			err := db.Where("user_id = ? AND course_id = ? AND status = ?",
				userID, courseID, models.AccessUnlocked).First(&existing).Error
			if err == nil {
				continue
			}

			if _, err := GrantCourseAccess(db, userID, courseID, accessType, grantedBy, expiresAt, notes); err == nil {
				granted++
			}
		}
	}
	return granted
}

// HasCourseAccess answers the dual-system enrollment question: a user is
// enrolled when either a legacy enrollment or an unlocked access exists.
func HasCourseAccess(db *gorm.DB, userID, courseID uint) bool {
	var enrollments int64
	db.Model(&models.CourseEnrollment{}).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Count(&enrollments)
	if enrollments > 0 {
		return true
	}

	var accesses int64
	db.Model(&models.CourseAccess{}).
		Where("user_id = ? AND course_id = ? AND status = ?", userID, courseID, models.AccessUnlocked).
		Count(&accesses)
	return accesses > 0
}
