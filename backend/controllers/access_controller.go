package controllers

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"sprintlms/backend/config"
	"sprintlms/backend/models"
	"sprintlms/backend/services"
	"sprintlms/backend/utils"

	"gorm.io/gorm"

	"github.com/gofiber/fiber/v2"
)

// AccessController exposes the admin access-grant surface: manual grants,
// bundle purchases, cohort membership and bulk operations.
type AccessController struct {
	DB  *gorm.DB
	Cfg *config.Config
}

func NewAccessController(db *gorm.DB, cfg *config.Config) *AccessController {
	return &AccessController{DB: db, Cfg: cfg}
}

type GrantInput struct {
	UserID    uint       `json:"user_id" validate:"required"`
	CourseID  uint       `json:"course_id" validate:"required"`
	ExpiresAt *time.Time `json:"expires_at"`
	Notes     string     `json:"notes"`
}

// GrantAccess manually unlocks a course for a user.
func (ac *AccessController) GrantAccess(c *fiber.Ctx) error {
	grantedBy := c.Locals("user_id").(uint)

	var input GrantInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Cannot parse JSON",
		})
	}
	if err := validate.Struct(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	var user models.User
	if err := ac.DB.First(&user, input.UserID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "User not found",
		})
	}
	var course models.Course
	if err := ac.DB.First(&course, input.CourseID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Course not found",
		})
	}

	access, err := services.GrantCourseAccess(ac.DB, input.UserID, input.CourseID, "manual", grantedBy, input.ExpiresAt, input.Notes)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not grant access",
		})
	}

	return utils.Message(c, fmt.Sprintf("Access granted to %s for %s", user.Username, course.Name), fiber.Map{
		"access_id": access.ID,
		"status":    access.Status,
	})
}

// RevokeAccess revokes a user's unlocked access to a course.
func (ac *AccessController) RevokeAccess(c *fiber.Ctx) error {
	revokedBy := c.Locals("user_id").(uint)

	type RevokeInput struct {
		UserID   uint   `json:"user_id" validate:"required"`
		CourseID uint   `json:"course_id" validate:"required"`
		Reason   string `json:"reason"`
		Notes    string `json:"notes"`
	}
	var input RevokeInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Cannot parse JSON",
		})
	}
	if err := validate.Struct(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	access, err := services.RevokeCourseAccess(ac.DB, input.UserID, input.CourseID, revokedBy, input.Reason, input.Notes)
	if errors.Is(err, services.ErrNoActiveAccess) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "No active access found",
		})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not revoke access",
		})
	}

	return utils.Message(c, "Access revoked", fiber.Map{
		"access_id": access.ID,
		"status":    access.Status,
	})
}

// GrantBundle records a bundle purchase and unlocks every course in it.
func (ac *AccessController) GrantBundle(c *fiber.Ctx) error {
	grantedBy := c.Locals("user_id").(uint)

	type BundleInput struct {
		UserID     uint   `json:"user_id" validate:"required"`
		BundleID   uint   `json:"bundle_id" validate:"required"`
		PurchaseID string `json:"purchase_id"`
		Notes      string `json:"notes"`
	}
	var input BundleInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Cannot parse JSON",
		})
	}
	if err := validate.Struct(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	var bundle models.Bundle
	if err := ac.DB.Preload("Courses").First(&bundle, input.BundleID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Bundle not found",
		})
	}
	if !bundle.IsActive {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Bundle is not active",
		})
	}

	purchase, granted, err := services.GrantBundleAccess(ac.DB, input.UserID, &bundle, grantedBy, input.PurchaseID, input.Notes)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not grant bundle access",
		})
	}

	return utils.Message(c, fmt.Sprintf("Bundle %s granted, %d courses unlocked", bundle.Name, len(granted)), fiber.Map{
		"purchase_id": purchase.ID,
		"count":       len(granted),
	})
}

// AddCohortMember adds a user to a cohort.
func (ac *AccessController) AddCohortMember(c *fiber.Ctx) error {
	cohortID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid cohort ID",
		})
	}

	type MemberInput struct {
		UserID uint `json:"user_id" validate:"required"`
	}
	var input MemberInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Cannot parse JSON",
		})
	}
	if err := validate.Struct(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	var cohort models.Cohort
	if err := ac.DB.First(&cohort, cohortID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Cohort not found",
		})
	}

	created, err := services.AddToCohort(ac.DB, input.UserID, cohort.ID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not add cohort member",
		})
	}

	if !created {
		return utils.Message(c, "User is already a cohort member")
	}
	return utils.Message(c, fmt.Sprintf("User added to cohort %s", cohort.Name))
}

// BulkGrant grants every (user, course) pair in the request, skipping pairs
// that are already unlocked.
func (ac *AccessController) BulkGrant(c *fiber.Ctx) error {
	grantedBy := c.Locals("user_id").(uint)

	type BulkInput struct {
		UserIDs   []uint     `json:"user_ids" validate:"required,min=1"`
		CourseIDs []uint     `json:"course_ids" validate:"required,min=1"`
		ExpiresAt *time.Time `json:"expires_at"`
		Notes     string     `json:"notes"`
	}
	var input BulkInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Cannot parse JSON",
		})
	}
	if err := validate.Struct(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	granted := services.BulkGrantAccess(ac.DB, input.UserIDs, input.CourseIDs, "manual", grantedBy, input.ExpiresAt, input.Notes)

	return utils.Message(c, fmt.Sprintf("%d accesses granted", granted), fiber.Map{
		"count": granted,
	})
}

// GetUserAccess lists a user's access records alongside their enrollments.
func (ac *AccessController) GetUserAccess(c *fiber.Ctx) error {
	userID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid user ID",
		})
	}

	var accesses []models.CourseAccess
	if err := ac.DB.Preload("Course").Where("user_id = ?", userID).
		Order("granted_at DESC").Find(&accesses).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not query database",
		})
	}

	var enrollments []models.CourseEnrollment
	ac.DB.Preload("Course").Where("user_id = ?", userID).Find(&enrollments)

	accessList := make([]fiber.Map, 0, len(accesses))
	for _, access := range accesses {
		accessList = append(accessList, fiber.Map{
			"id":          access.ID,
			"course_id":   access.CourseID,
			"course_name": access.Course.Name,
			"access_type": access.AccessType,
			"status":      access.Status,
			"granted_at":  access.GrantedAt,
			"expires_at":  access.ExpiresAt,
		})
	}

	enrollList := make([]fiber.Map, 0, len(enrollments))
	for _, enrollment := range enrollments {
		enrollList = append(enrollList, fiber.Map{
			"id":           enrollment.ID,
			"course_id":    enrollment.CourseID,
			"course_name":  enrollment.Course.Name,
			"enrolled_at":  enrollment.EnrolledAt,
			"payment_type": enrollment.PaymentType,
		})
	}

	return c.JSON(fiber.Map{
		"accesses":    accessList,
		"enrollments": enrollList,
	})
}

// CreateBundle registers a course bundle.
func (ac *AccessController) CreateBundle(c *fiber.Ctx) error {
	type BundleInput struct {
		Name                string   `json:"name" validate:"required"`
		Description         string   `json:"description"`
		BundleType          string   `json:"bundle_type" validate:"omitempty,oneof=fixed pick_n"`
		Price               *float64 `json:"price"`
		MaxCourseSelections *int     `json:"max_course_selections"`
		CourseIDs           []uint   `json:"course_ids"`
	}
	var input BundleInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Cannot parse JSON",
		})
	}
	if err := validate.Struct(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	bundle := models.Bundle{
		Name:                input.Name,
		Slug:                ac.uniqueBundleSlug(utils.Slugify(input.Name)),
		Description:         input.Description,
		BundleType:          input.BundleType,
		Price:               input.Price,
		IsActive:            true,
		MaxCourseSelections: input.MaxCourseSelections,
	}
	if bundle.BundleType == "" {
		bundle.BundleType = "fixed"
	}

	if len(input.CourseIDs) > 0 {
		var courses []models.Course
		if err := ac.DB.Where("id IN ?", input.CourseIDs).Find(&courses).Error; err == nil {
			bundle.Courses = courses
		}
	}

	if err := ac.DB.Create(&bundle).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not create bundle",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"bundle": bundle,
	})
}

// DeleteBundle removes a bundle. Bundles with recorded purchases are kept so
// the purchase history stays resolvable.
func (ac *AccessController) DeleteBundle(c *fiber.Ctx) error {
	bundleID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid bundle ID",
		})
	}

	var purchases int64
	ac.DB.Model(&models.BundlePurchase{}).Where("bundle_id = ?", bundleID).Count(&purchases)
	if purchases > 0 {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Bundle has purchases and cannot be deleted",
		})
	}

	result := ac.DB.Delete(&models.Bundle{}, bundleID)
	if result.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not delete bundle",
		})
	}
	if result.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Bundle not found",
		})
	}

	return c.JSON(fiber.Map{
		"message": "Bundle deleted",
	})
}

func (ac *AccessController) uniqueBundleSlug(base string) string {
	slug := base
	for i := 2; ; i++ {
		var count int64
		ac.DB.Model(&models.Bundle{}).Where("slug = ?", slug).Count(&count)
		if count == 0 {
			return slug
		}
		slug = fmt.Sprintf("%s-%d", base, i)
	}
}

// GetBundles lists bundles with their courses.
func (ac *AccessController) GetBundles(c *fiber.Ctx) error {
	var bundles []models.Bundle
	if err := ac.DB.Preload("Courses").Find(&bundles).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not query database",
		})
	}

	return c.JSON(fiber.Map{
		"bundles": bundles,
	})
}

// CreateCohort registers a cohort.
func (ac *AccessController) CreateCohort(c *fiber.Ctx) error {
	type CohortInput struct {
		Name string `json:"name" validate:"required"`
	}
	var input CohortInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Cannot parse JSON",
		})
	}
	if err := validate.Struct(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	cohort := models.Cohort{Name: input.Name, IsActive: true}
	if err := ac.DB.Create(&cohort).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not create cohort",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"cohort": cohort,
	})
}
