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

type ProgressController struct {
	DB  *gorm.DB
	Cfg *config.Config
}

func NewProgressController(db *gorm.DB, cfg *config.Config) *ProgressController {
	return &ProgressController{DB: db, Cfg: cfg}
}

// UpdateLessonProgress records watch percentage and completion for the
// authenticated user. Completion is sticky: once a lesson is completed it
// stays completed even if a later update reports a lower percentage.
func (pc *ProgressController) UpdateLessonProgress(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, pc.Cfg)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	lessonID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid lesson ID",
		})
	}

	var lesson models.Lesson
	if err := pc.DB.First(&lesson, lessonID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Lesson not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not query database",
		})
	}

	if !services.HasCourseAccess(pc.DB, userID, lesson.CourseID) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "No access to this course",
		})
	}

	type ProgressInput struct {
		ProgressPercentage   *int  `json:"progress_percentage"`
		VideoWatchPercentage *int  `json:"video_watch_percentage"`
		Completed            *bool `json:"completed"`
	}
	var input ProgressInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Cannot parse JSON",
		})
	}

	var progress models.UserProgress
	err = pc.DB.Where("user_id = ? AND lesson_id = ?", userID, lesson.ID).First(&progress).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		progress = models.UserProgress{
			UserID:   userID,
			LessonID: lesson.ID,
		}
	} else if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not query database",
		})
	}

	if input.ProgressPercentage != nil {
		p := clampPercent(*input.ProgressPercentage)
		if p > progress.ProgressPercentage {
			progress.ProgressPercentage = p
		}
	}
	if input.VideoWatchPercentage != nil {
		p := clampPercent(*input.VideoWatchPercentage)
		if p > progress.VideoWatchPercentage {
			progress.VideoWatchPercentage = p
		}
	}
	if (input.Completed != nil && *input.Completed) || progress.VideoWatchPercentage >= 90 {
		if !progress.Completed {
			progress.Completed = true
			now := time.Now()
			progress.CompletedAt = &now
			progress.ProgressPercentage = 100
		}
	}
	progress.LastAccessed = time.Now()

	if err := pc.DB.Save(&progress).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not save progress",
		})
	}

	return c.JSON(fiber.Map{
		"progress": fiber.Map{
			"lesson_id":              progress.LessonID,
			"completed":              progress.Completed,
			"progress_percentage":    progress.ProgressPercentage,
			"video_watch_percentage": progress.VideoWatchPercentage,
		},
	})
}

// GetCourseProgress summarizes the authenticated user's progress through one course.
func (pc *ProgressController) GetCourseProgress(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, pc.Cfg)
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

	var lessons []models.Lesson
	if err := pc.DB.Where("course_id = ?", courseID).Order("\"order\" ASC").Find(&lessons).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not query database",
		})
	}

	lessonIDs := make([]uint, 0, len(lessons))
	for _, lesson := range lessons {
		lessonIDs = append(lessonIDs, lesson.ID)
	}

	progressByLesson := map[uint]models.UserProgress{}
	if len(lessonIDs) > 0 {
		var progresses []models.UserProgress
		pc.DB.Where("user_id = ? AND lesson_id IN ?", userID, lessonIDs).Find(&progresses)
		for _, p := range progresses {
			progressByLesson[p.LessonID] = p
		}
	}

	completed := 0
	items := make([]fiber.Map, 0, len(lessons))
	for _, lesson := range lessons {
		p := progressByLesson[lesson.ID]
		if p.Completed {
			completed++
		}
		items = append(items, fiber.Map{
			"lesson_id":              lesson.ID,
			"title":                  lesson.Title,
			"slug":                   lesson.Slug,
			"completed":              p.Completed,
			"video_watch_percentage": p.VideoWatchPercentage,
		})
	}

	var completionRate float64
	if len(lessons) > 0 {
		completionRate = float64(completed) / float64(len(lessons)) * 100
	}

	return c.JSON(fiber.Map{
		"course_id":         courseID,
		"total_lessons":     len(lessons),
		"completed_lessons": completed,
		"completion_rate":   completionRate,
		"lessons":           items,
	})
}

func clampPercent(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
