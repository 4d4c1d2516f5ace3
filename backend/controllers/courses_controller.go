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

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"

	"github.com/gofiber/fiber/v2"
)

var validate = validator.New()

type CoursesController struct {
	DB  *gorm.DB
	Cfg *config.Config
}

func NewCoursesController(db *gorm.DB, cfg *config.Config) *CoursesController {
	return &CoursesController{DB: db, Cfg: cfg}
}

// GetCourses returns the catalog, filterable by type and search term.
// Locked and coming-soon courses stay visible so the storefront can tease them.
func (cc *CoursesController) GetCourses(c *fiber.Ctx) error {
	query := cc.DB.Model(&models.Course{})

	if courseType := c.Query("type"); courseType != "" {
		query = query.Where("course_type = ?", courseType)
	}
	if search := c.Query("search"); search != "" {
		pattern := "%" + search + "%"
		query = query.Where("name ILIKE ? OR description ILIKE ?", pattern, pattern)
	}

	var courses []models.Course
	if err := query.Order("created_at DESC").Find(&courses).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not query database",
		})
	}

	result := make([]fiber.Map, 0, len(courses))
	for _, course := range courses {
		var lessonCount int64
		cc.DB.Model(&models.Lesson{}).Where("course_id = ?", course.ID).Count(&lessonCount)

		result = append(result, fiber.Map{
			"id":                course.ID,
			"name":              course.Name,
			"slug":              course.Slug,
			"course_type":       course.CourseType,
			"status":            course.Status,
			"short_description": course.ShortDescription,
			"coach_name":        course.CoachName,
			"special_tag":       course.SpecialTag,
			"lesson_count":      lessonCount,
		})
	}

	return c.JSON(fiber.Map{
		"courses": result,
	})
}

// GetCourseDetails returns a course with its module tree and, for an
// authenticated caller, their access and exam countdown.
func (cc *CoursesController) GetCourseDetails(c *fiber.Ctx) error {
	slug := c.Params("slug")

	var course models.Course
	err := cc.DB.
		Preload("Modules", func(db *gorm.DB) *gorm.DB {
			return db.Order("modules.order ASC")
		}).
		Preload("Modules.Lessons", func(db *gorm.DB) *gorm.DB {
			return db.Order("lessons.order ASC")
		}).
		Where("slug = ?", slug).First(&course).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Course not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not query database",
		})
	}

	modules := make([]fiber.Map, 0, len(course.Modules))
	for _, module := range course.Modules {
		lessons := make([]fiber.Map, 0, len(module.Lessons))
		for _, lesson := range module.Lessons {
			lessons = append(lessons, fiber.Map{
				"id":       lesson.ID,
				"title":    lesson.Title,
				"slug":     lesson.Slug,
				"order":    lesson.Order,
				"type":     lesson.LessonType,
				"duration": lesson.FormattedDuration(),
			})
		}
		modules = append(modules, fiber.Map{
			"id":      module.ID,
			"name":    module.Name,
			"order":   module.Order,
			"lessons": lessons,
		})
	}

	// Lessons without a module still belong to the course page.
	var unassigned []models.Lesson
	cc.DB.Where("course_id = ? AND module_id IS NULL", course.ID).
		Order("\"order\" ASC").Find(&unassigned)
	standalone := make([]fiber.Map, 0, len(unassigned))
	for _, lesson := range unassigned {
		standalone = append(standalone, fiber.Map{
			"id":       lesson.ID,
			"title":    lesson.Title,
			"slug":     lesson.Slug,
			"order":    lesson.Order,
			"type":     lesson.LessonType,
			"duration": lesson.FormattedDuration(),
		})
	}

	result := fiber.Map{
		"course": fiber.Map{
			"id":                 course.ID,
			"name":               course.Name,
			"slug":               course.Slug,
			"course_type":        course.CourseType,
			"status":             course.Status,
			"description":        course.Description,
			"short_description":  course.ShortDescription,
			"coach_name":         course.CoachName,
			"special_tag":        course.SpecialTag,
			"modules":            modules,
			"standalone_lessons": standalone,
		},
	}

	if userID, err := utils.ExtractUserIDFromToken(c, cc.Cfg); err == nil {
		result["has_access"] = services.HasCourseAccess(cc.DB, userID, course.ID)

		var enrollment models.CourseEnrollment
		if err := cc.DB.Where("user_id = ? AND course_id = ?", userID, course.ID).
			First(&enrollment).Error; err == nil {
			result["days_until_exam"] = enrollment.DaysUntilExam(course.ExamUnlockDays)
		}
	}

	return c.JSON(result)
}

type CourseInput struct {
	Name              string `json:"name" validate:"required,min=3,max=200"`
	CourseType        string `json:"course_type" validate:"omitempty,oneof=sprint speaking consultancy special"`
	Status            string `json:"status" validate:"omitempty,oneof=active locked coming_soon"`
	Description       string `json:"description"`
	ShortDescription  string `json:"short_description"`
	CoachName         string `json:"coach_name"`
	IsSubscribersOnly bool   `json:"is_subscribers_only"`
	ExamUnlockDays    int    `json:"exam_unlock_days" validate:"omitempty,gt=0"`
	SpecialTag        string `json:"special_tag"`
}

func (cc *CoursesController) CreateCourse(c *fiber.Ctx) error {
	var input CourseInput
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

	course := models.Course{
		Name:              input.Name,
		Slug:              cc.uniqueCourseSlug(utils.Slugify(input.Name)),
		CourseType:        input.CourseType,
		Status:            input.Status,
		Description:       input.Description,
		ShortDescription:  input.ShortDescription,
		CoachName:         input.CoachName,
		IsSubscribersOnly: input.IsSubscribersOnly,
		ExamUnlockDays:    input.ExamUnlockDays,
		SpecialTag:        input.SpecialTag,
	}
	if course.CourseType == "" {
		course.CourseType = "sprint"
	}
	if course.Status == "" {
		course.Status = models.CourseStatusActive
	}
	if course.CoachName == "" {
		course.CoachName = "Sprint Coach"
	}
	if course.ExamUnlockDays == 0 {
		course.ExamUnlockDays = 120
	}

	if err := cc.DB.Create(&course).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not create course",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"course": course,
	})
}

func (cc *CoursesController) UpdateCourse(c *fiber.Ctx) error {
	courseID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid course ID",
		})
	}

	var course models.Course
	if err := cc.DB.First(&course, courseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Course not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not query database",
		})
	}

	var input CourseInput
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

	course.Name = input.Name
	course.Description = input.Description
	course.ShortDescription = input.ShortDescription
	course.IsSubscribersOnly = input.IsSubscribersOnly
	course.SpecialTag = input.SpecialTag
	if input.CourseType != "" {
		course.CourseType = input.CourseType
	}
	if input.Status != "" {
		course.Status = input.Status
	}
	if input.CoachName != "" {
		course.CoachName = input.CoachName
	}
	if input.ExamUnlockDays > 0 {
		course.ExamUnlockDays = input.ExamUnlockDays
	}

	if err := cc.DB.Save(&course).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not update course",
		})
	}

	return c.JSON(fiber.Map{
		"course": course,
	})
}

func (cc *CoursesController) DeleteCourse(c *fiber.Ctx) error {
	courseID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid course ID",
		})
	}

	result := cc.DB.Delete(&models.Course{}, courseID)
	if result.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not delete course",
		})
	}
	if result.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Course not found",
		})
	}

	return c.JSON(fiber.Map{
		"message": "Course deleted",
	})
}

// Enroll creates a direct enrollment for the authenticated user.
func (cc *CoursesController) Enroll(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, cc.Cfg)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	courseID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid course ID",
		})
	}

	var course models.Course
	if err := cc.DB.First(&course, courseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Course not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not query database",
		})
	}

	type EnrollInput struct {
		PaymentType string `json:"payment_type"`
	}
	var input EnrollInput
	_ = c.BodyParser(&input)
	if input.PaymentType == "" {
		input.PaymentType = "full"
	}

	var existing models.CourseEnrollment
	if err := cc.DB.Where("user_id = ? AND course_id = ?", userID, course.ID).
		First(&existing).Error; err == nil {
		return c.JSON(fiber.Map{
			"message":    "Already enrolled",
			"enrollment": existing,
		})
	}

	enrollment := models.CourseEnrollment{
		UserID:      userID,
		CourseID:    course.ID,
		EnrolledAt:  time.Now(),
		PaymentType: input.PaymentType,
	}
	if err := cc.DB.Create(&enrollment).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not create enrollment",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":    "Enrolled",
		"enrollment": enrollment,
	})
}

// GetMyCourses lists the courses the authenticated user can open, via
// enrollment or an unlocked access grant.
func (cc *CoursesController) GetMyCourses(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, cc.Cfg)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	courseIDs := map[uint]bool{}

	var enrollments []models.CourseEnrollment
	cc.DB.Where("user_id = ?", userID).Find(&enrollments)
	for _, e := range enrollments {
		courseIDs[e.CourseID] = true
	}

	var accesses []models.CourseAccess
	cc.DB.Where("user_id = ? AND status = ?", userID, models.AccessUnlocked).Find(&accesses)
	for _, a := range accesses {
		courseIDs[a.CourseID] = true
	}

	ids := make([]uint, 0, len(courseIDs))
	for id := range courseIDs {
		ids = append(ids, id)
	}

	var courses []models.Course
	if len(ids) > 0 {
		if err := cc.DB.Where("id IN ?", ids).Find(&courses).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Could not query database",
			})
		}
	}

	result := make([]fiber.Map, 0, len(courses))
	for _, course := range courses {
		var totalLessons, completedLessons int64
		cc.DB.Model(&models.Lesson{}).Where("course_id = ?", course.ID).Count(&totalLessons)
		cc.DB.Model(&models.UserProgress{}).
			Joins("JOIN lessons ON lessons.id = user_progresses.lesson_id").
			Where("user_progresses.user_id = ? AND lessons.course_id = ? AND user_progresses.completed", userID, course.ID).
			Count(&completedLessons)

		var completionRate float64
		if totalLessons > 0 {
			completionRate = float64(completedLessons) / float64(totalLessons) * 100
		}

		result = append(result, fiber.Map{
			"id":                course.ID,
			"name":              course.Name,
			"slug":              course.Slug,
			"course_type":       course.CourseType,
			"total_lessons":     totalLessons,
			"completed_lessons": completedLessons,
			"completion_rate":   completionRate,
		})
	}

	return c.JSON(fiber.Map{
		"courses": result,
	})
}

func (cc *CoursesController) uniqueCourseSlug(base string) string {
	slug := base
	for i := 2; ; i++ {
		var count int64
		cc.DB.Model(&models.Course{}).Where("slug = ?", slug).Count(&count)
		if count == 0 {
			return slug
		}
		slug = fmt.Sprintf("%s-%d", base, i)
	}
}
