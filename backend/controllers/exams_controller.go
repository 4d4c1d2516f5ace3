package controllers

import (
	"errors"
	"strconv"
	"time"

	"sprintlms/backend/config"
	"sprintlms/backend/models"
	"sprintlms/backend/services"
	"sprintlms/backend/utils"

	"gorm.io/gorm"

	"github.com/gofiber/fiber/v2"
)

type ExamsController struct {
	DB  *gorm.DB
	Cfg *config.Config
}

func NewExamsController(db *gorm.DB, cfg *config.Config) *ExamsController {
	return &ExamsController{DB: db, Cfg: cfg}
}

// GetCourseExam tells the learner whether the course exam exists and whether
// it is unlocked for them. Installment payers wait out the course's unlock
// window; everyone else gets it immediately.
func (ec *ExamsController) GetCourseExam(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, ec.Cfg)
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
	if err := ec.DB.First(&course, courseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Course not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not query database",
		})
	}

	if !services.HasCourseAccess(ec.DB, userID, course.ID) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "No access to this course",
		})
	}

	var exam models.Exam
	if err := ec.DB.Where("course_id = ?", course.ID).First(&exam).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Course has no exam",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not query database",
		})
	}

	daysUntilExam := 0
	var enrollment models.CourseEnrollment
	if err := ec.DB.Where("user_id = ? AND course_id = ?", userID, course.ID).
		First(&enrollment).Error; err == nil {
		daysUntilExam = enrollment.DaysUntilExam(course.ExamUnlockDays)
	}

	var attempts []models.ExamAttempt
	ec.DB.Where("user_id = ? AND exam_id = ?", userID, exam.ID).
		Order("created_at DESC").Find(&attempts)

	return c.JSON(fiber.Map{
		"exam": fiber.Map{
			"id":            exam.ID,
			"title":         exam.Title,
			"passing_score": exam.PassingScore,
		},
		"unlocked":        daysUntilExam == 0,
		"days_until_exam": daysUntilExam,
		"attempts":        attempts,
	})
}

// SubmitExamAttempt records a graded exam attempt. A passing score marks the
// user's certification as passed.
func (ec *ExamsController) SubmitExamAttempt(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, ec.Cfg)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	examID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid exam ID",
		})
	}

	var exam models.Exam
	if err := ec.DB.First(&exam, examID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Exam not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not query database",
		})
	}

	var course models.Course
	if err := ec.DB.First(&course, exam.CourseID).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not query database",
		})
	}

	if !services.HasCourseAccess(ec.DB, userID, course.ID) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "No access to this course",
		})
	}

	var enrollment models.CourseEnrollment
	if err := ec.DB.Where("user_id = ? AND course_id = ?", userID, course.ID).
		First(&enrollment).Error; err == nil {
		if enrollment.DaysUntilExam(course.ExamUnlockDays) > 0 {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Exam is not unlocked yet",
			})
		}
	}

	type AttemptInput struct {
		Score float64 `json:"score" validate:"gte=0,lte=100"`
	}
	var input AttemptInput
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

	attempt := models.ExamAttempt{
		UserID:    userID,
		ExamID:    exam.ID,
		Score:     input.Score,
		Passed:    input.Score >= exam.PassingScore,
		StartedAt: time.Now(),
	}
	if err := ec.DB.Create(&attempt).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not save attempt",
		})
	}

	if attempt.Passed {
		ec.markCertificationPassed(userID, course.ID)
	}

	return c.JSON(fiber.Map{
		"score":  attempt.Score,
		"passed": attempt.Passed,
	})
}

func (ec *ExamsController) markCertificationPassed(userID, courseID uint) {
	var cert models.Certification
	err := ec.DB.Where("user_id = ? AND course_id = ?", userID, courseID).First(&cert).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		cert = models.Certification{UserID: userID, CourseID: courseID}
	} else if err != nil {
		return
	}

	if cert.Status == models.CertPassed {
		return
	}
	now := time.Now()
	cert.Status = models.CertPassed
	cert.IssuedAt = &now
	ec.DB.Save(&cert)
}

// GetMyCertifications lists the authenticated user's certifications.
func (ec *ExamsController) GetMyCertifications(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, ec.Cfg)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	var certs []models.Certification
	if err := ec.DB.Where("user_id = ?", userID).Find(&certs).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not query database",
		})
	}

	result := make([]fiber.Map, 0, len(certs))
	for _, cert := range certs {
		var course models.Course
		ec.DB.First(&course, cert.CourseID)
		result = append(result, fiber.Map{
			"course_id":   cert.CourseID,
			"course_name": course.Name,
			"status":      cert.Status,
			"issued_at":   cert.IssuedAt,
		})
	}

	return c.JSON(fiber.Map{
		"certifications": result,
	})
}

// CreateExam attaches an exam to a course. Staff only; one exam per course.
func (ec *ExamsController) CreateExam(c *fiber.Ctx) error {
	type ExamInput struct {
		CourseID     uint    `json:"course_id" validate:"required"`
		Title        string  `json:"title" validate:"required"`
		PassingScore float64 `json:"passing_score" validate:"omitempty,gte=0,lte=100"`
	}
	var input ExamInput
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

	var course models.Course
	if err := ec.DB.First(&course, input.CourseID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Course not found",
		})
	}

	var existing models.Exam
	if err := ec.DB.Where("course_id = ?", course.ID).First(&existing).Error; err == nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Course already has an exam",
		})
	}

	exam := models.Exam{
		CourseID:     course.ID,
		Title:        input.Title,
		PassingScore: input.PassingScore,
	}
	if exam.PassingScore == 0 {
		exam.PassingScore = 80
	}

	if err := ec.DB.Create(&exam).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not create exam",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"exam": exam,
	})
}
