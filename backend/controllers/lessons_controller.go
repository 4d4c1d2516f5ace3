package controllers

import (
	"errors"
	"fmt"
	"io"
	"log"
	"strconv"

	"sprintlms/backend/config"
	"sprintlms/backend/models"
	"sprintlms/backend/services"
	"sprintlms/backend/utils"

	"gorm.io/gorm"

	"github.com/gofiber/fiber/v2"
)

type LessonsController struct {
	DB        *gorm.DB
	Cfg       *config.Config
	Extractor *services.TextExtractor
	Generator *services.AIGenerator // nil when no API key is configured
	Vimeo     *services.VimeoClient
	Logger    *log.Logger
}

func NewLessonsController(db *gorm.DB, cfg *config.Config, extractor *services.TextExtractor, generator *services.AIGenerator, vimeo *services.VimeoClient, logger *log.Logger) *LessonsController {
	return &LessonsController{
		DB:        db,
		Cfg:       cfg,
		Extractor: extractor,
		Generator: generator,
		Vimeo:     vimeo,
		Logger:    logger,
	}
}

// GetLessonDetail serves the lesson player page: playback source, content,
// quiz presence and the caller's progress. Requires course access.
func (lc *LessonsController) GetLessonDetail(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, lc.Cfg)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	courseSlug := c.Params("slug")
	lessonSlug := c.Params("lessonSlug")

	var course models.Course
	if err := lc.DB.Where("slug = ?", courseSlug).First(&course).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Course not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not query database",
		})
	}

	if !services.HasCourseAccess(lc.DB, userID, course.ID) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "No access to this course",
		})
	}

	var lesson models.Lesson
	if err := lc.DB.Where("course_id = ? AND slug = ?", course.ID, lessonSlug).
		First(&lesson).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Lesson not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not query database",
		})
	}

	source, url := lesson.PlaybackSource()

	var quiz models.LessonQuiz
	hasQuiz := lc.DB.Where("lesson_id = ?", lesson.ID).First(&quiz).Error == nil

	var progress models.UserProgress
	lc.DB.Where("user_id = ? AND lesson_id = ?", userID, lesson.ID).First(&progress)

	lessonMap := fiber.Map{
		"id":            lesson.ID,
		"title":         lesson.Title,
		"slug":          lesson.Slug,
		"description":   lesson.Description,
		"type":          lesson.LessonType,
		"video_source":  source,
		"video_url":     url,
		"duration":      lesson.FormattedDuration(),
		"workbook_url":  lesson.WorkbookURL,
		"resources_url": lesson.ResourcesURL,
		"content":       lesson.Content,
		"has_quiz":      hasQuiz,
	}
	if lesson.AIGenerationStatus == models.AIStatusApproved {
		lessonMap["summary"] = lesson.AIShortSummary
		lessonMap["outcomes"] = lesson.OutcomesList()
	}

	return c.JSON(fiber.Map{
		"lesson": lessonMap,
		"progress": fiber.Map{
			"completed":              progress.Completed,
			"progress_percentage":    progress.ProgressPercentage,
			"video_watch_percentage": progress.VideoWatchPercentage,
		},
	})
}

// GetLessons lists lessons for the admin screens, filterable by course and
// AI generation status.
func (lc *LessonsController) GetLessons(c *fiber.Ctx) error {
	query := lc.DB.Model(&models.Lesson{})

	if courseID := c.Query("course_id"); courseID != "" {
		query = query.Where("course_id = ?", courseID)
	}
	if status := c.Query("ai_generation_status"); status != "" {
		query = query.Where("ai_generation_status = ?", status)
	}

	var lessons []models.Lesson
	if err := query.Order("course_id ASC, \"order\" ASC").Find(&lessons).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not query database",
		})
	}

	result := make([]fiber.Map, 0, len(lessons))
	for _, lesson := range lessons {
		source, _ := lesson.PlaybackSource()
		result = append(result, fiber.Map{
			"id":                   lesson.ID,
			"course_id":            lesson.CourseID,
			"module_id":            lesson.ModuleID,
			"title":                lesson.Title,
			"slug":                 lesson.Slug,
			"order":                lesson.Order,
			"video_source":         source,
			"ai_generation_status": lesson.AIGenerationStatus,
		})
	}

	return c.JSON(fiber.Map{
		"lessons": result,
	})
}

func (lc *LessonsController) DeleteLesson(c *fiber.Ctx) error {
	lessonID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid lesson ID",
		})
	}

	result := lc.DB.Delete(&models.Lesson{}, lessonID)
	if result.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not delete lesson",
		})
	}
	if result.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Lesson not found",
		})
	}

	return c.JSON(fiber.Map{
		"message": "Lesson deleted",
	})
}

// VerifyVimeoURL resolves a Vimeo link through oEmbed so the admin form can
// preview the title and thumbnail before saving.
func (lc *LessonsController) VerifyVimeoURL(c *fiber.Ctx) error {
	type VerifyInput struct {
		VimeoURL string `json:"vimeo_url"`
	}
	var input VerifyInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Cannot parse JSON",
		})
	}

	vimeoID := services.ExtractVimeoID(input.VimeoURL)
	if vimeoID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Not a valid Vimeo URL",
		})
	}

	meta := lc.Vimeo.FetchMetadata(vimeoID)
	return c.JSON(fiber.Map{
		"vimeo_id":  vimeoID,
		"title":     meta.Title,
		"thumbnail": meta.Thumbnail,
		"duration":  meta.Duration,
	})
}

// AddLessonFromVimeo creates a lesson from a Vimeo link, pulling title,
// thumbnail and duration from oEmbed when the form leaves them blank.
func (lc *LessonsController) AddLessonFromVimeo(c *fiber.Ctx) error {
	type VimeoLessonInput struct {
		CourseID   uint   `json:"course_id"`
		ModuleID   *uint  `json:"module_id"`
		VimeoURL   string `json:"vimeo_url"`
		Title      string `json:"title"`
		LessonType string `json:"lesson_type"`
	}
	var input VimeoLessonInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Cannot parse JSON",
		})
	}

	var course models.Course
	if err := lc.DB.First(&course, input.CourseID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Course not found",
		})
	}

	vimeoID := services.ExtractVimeoID(input.VimeoURL)
	if vimeoID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Not a valid Vimeo URL",
		})
	}

	meta := lc.Vimeo.FetchMetadata(vimeoID)

	title := input.Title
	if title == "" {
		title = meta.Title
	}
	if title == "" {
		title = fmt.Sprintf("Vimeo Lesson %s", vimeoID)
	}

	var maxOrder int
	lc.DB.Model(&models.Lesson{}).
		Where("course_id = ?", course.ID).
		Select(`COALESCE(MAX("order"), 0)`).
		Scan(&maxOrder)

	lesson := models.Lesson{
		CourseID:             course.ID,
		ModuleID:             input.ModuleID,
		Title:                title,
		Slug:                 lc.uniqueLessonSlug(course.ID, utils.Slugify(title)),
		Order:                maxOrder + 1,
		LessonType:           input.LessonType,
		VimeoURL:             input.VimeoURL,
		VimeoID:              vimeoID,
		VimeoThumbnail:       meta.Thumbnail,
		VimeoDurationSeconds: meta.Duration,
	}
	if lesson.LessonType == "" {
		lesson.LessonType = "video"
	}

	if err := lc.DB.Create(&lesson).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not create lesson",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"lesson": lesson,
	})
}

// GenerateLessonContent runs AI content generation for a lesson from its
// transcription or rough notes.
func (lc *LessonsController) GenerateLessonContent(c *fiber.Ctx) error {
	if lc.Generator == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "AI generation is not available",
		})
	}

	lessonID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid lesson ID",
		})
	}

	var lesson models.Lesson
	if err := lc.DB.First(&lesson, lessonID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Lesson not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not query database",
		})
	}

	if lesson.AIGenerationStatus == models.AIStatusApproved {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Lesson is already approved",
		})
	}

	sourceText := lesson.Transcription
	if sourceText == "" {
		sourceText = lesson.RoughNotes
	}
	if sourceText == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Lesson has no transcription or rough notes",
		})
	}

	var course models.Course
	lc.DB.First(&course, lesson.CourseID)

	moduleName := ""
	if lesson.ModuleID != nil {
		var module models.Module
		if err := lc.DB.First(&module, *lesson.ModuleID).Error; err == nil {
			moduleName = module.Name
		}
	}

	suggested := lesson.WorkingTitle
	if suggested == "" {
		suggested = lesson.Title
	}

	content, err := lc.Generator.GenerateLessonContent(c.Context(), sourceText, course.Name, moduleName, suggested)
	if err != nil {
		lc.Logger.Printf("lesson %d: content generation failed: %v", lesson.ID, err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "Content generation failed",
		})
	}

	editorDoc, err := services.EncodeEditorJS(content.ContentBlocks)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not encode lesson content",
		})
	}

	lesson.Content = editorDoc
	lesson.AIGenerationStatus = models.AIStatusGenerated
	lesson.AICleanTitle = content.CleanTitle
	lesson.AIShortSummary = content.ShortSummary
	lesson.AIFullDescription = content.FullDescription
	lesson.AIOutcomes = models.EncodeStringList(content.Outcomes)
	lesson.AICoachActions = models.EncodeStringList(content.CoachActions)

	if err := lc.DB.Save(&lesson).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not save lesson",
		})
	}

	return c.JSON(fiber.Map{
		"message": "Content generated",
		"lesson": fiber.Map{
			"id":                   lesson.ID,
			"ai_clean_title":       lesson.AICleanTitle,
			"ai_short_summary":     lesson.AIShortSummary,
			"ai_full_description":  lesson.AIFullDescription,
			"ai_outcomes":          lesson.OutcomesList(),
			"ai_coach_actions":     lesson.CoachActionsList(),
			"ai_generation_status": lesson.AIGenerationStatus,
		},
	})
}

// UpdateGeneratedContent lets a reviewer edit AI output before approving it.
func (lc *LessonsController) UpdateGeneratedContent(c *fiber.Ctx) error {
	lessonID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid lesson ID",
		})
	}

	var lesson models.Lesson
	if err := lc.DB.First(&lesson, lessonID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Lesson not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not query database",
		})
	}

	type ContentInput struct {
		CleanTitle      string   `json:"ai_clean_title"`
		ShortSummary    string   `json:"ai_short_summary"`
		FullDescription string   `json:"ai_full_description"`
		Outcomes        []string `json:"ai_outcomes"`
		CoachActions    []string `json:"ai_coach_actions"`
		Content         string   `json:"content"`
	}
	var input ContentInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Cannot parse JSON",
		})
	}

	if input.CleanTitle != "" {
		lesson.AICleanTitle = input.CleanTitle
	}
	if input.ShortSummary != "" {
		lesson.AIShortSummary = input.ShortSummary
	}
	if input.FullDescription != "" {
		lesson.AIFullDescription = input.FullDescription
	}
	if input.Outcomes != nil {
		lesson.AIOutcomes = models.EncodeStringList(input.Outcomes)
	}
	if input.CoachActions != nil {
		lesson.AICoachActions = models.EncodeStringList(input.CoachActions)
	}
	if input.Content != "" {
		lesson.Content = input.Content
	}

	if err := lc.DB.Save(&lesson).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not save lesson",
		})
	}

	return c.JSON(fiber.Map{
		"message": "Content updated",
	})
}

// ApproveLesson promotes generated AI content into the lesson's public fields
// and locks it against re-generation.
func (lc *LessonsController) ApproveLesson(c *fiber.Ctx) error {
	lessonID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid lesson ID",
		})
	}

	var lesson models.Lesson
	if err := lc.DB.First(&lesson, lessonID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Lesson not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not query database",
		})
	}

	if lesson.AIGenerationStatus != models.AIStatusGenerated {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Lesson has no generated content to approve",
		})
	}

	if lesson.AICleanTitle != "" {
		lesson.Title = lesson.AICleanTitle
		lesson.Slug = lc.uniqueLessonSlugExcept(lesson.CourseID, utils.Slugify(lesson.AICleanTitle), lesson.ID)
	}
	if lesson.AIFullDescription != "" {
		lesson.Description = lesson.AIFullDescription
	}
	lesson.AIGenerationStatus = models.AIStatusApproved

	if err := lc.DB.Save(&lesson).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not save lesson",
		})
	}

	return c.JSON(fiber.Map{
		"message": "Lesson approved",
		"lesson":  lesson,
	})
}

// IngestPDFLesson builds a lesson from an uploaded PDF: extract the text, run
// content generation, then create or update the target lesson. An approved
// lesson is never overwritten.
func (lc *LessonsController) IngestPDFLesson(c *fiber.Ctx) error {
	if lc.Generator == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "AI generation is not available",
		})
	}

	courseID, err := strconv.Atoi(c.FormValue("course_id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid course ID",
		})
	}
	moduleName := c.FormValue("module_name")
	if moduleName == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "module_name is required",
		})
	}
	suggestedTitle := c.FormValue("title")

	var course models.Course
	if err := lc.DB.First(&course, courseID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Course not found",
		})
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "No file uploaded",
		})
	}
	if fileHeader.Size > lc.Cfg.MaxUploadBytes {
		return c.Status(fiber.StatusRequestEntityTooLarge).JSON(fiber.Map{
			"error": "File too large",
		})
	}

	file, err := fileHeader.Open()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not read file",
		})
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not read file",
		})
	}

	text, err := lc.Extractor.ExtractPDF(data)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Could not extract text from PDF",
		})
	}

	content, err := lc.Generator.GenerateLessonContent(c.Context(), text, course.Name, moduleName, suggestedTitle)
	if err != nil {
		lc.Logger.Printf("course %d: PDF ingestion generation failed: %v", course.ID, err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "Content generation failed",
		})
	}

	module, err := services.GetOrCreateModule(lc.DB, &course, moduleName)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not create module",
		})
	}

	lesson, created, err := services.UpsertGeneratedLesson(lc.DB, &course, module, content)
	if errors.Is(err, services.ErrLessonApproved) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error":     "Lesson is already approved and was not changed",
			"lesson_id": lesson.ID,
		})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not save lesson",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Lesson ingested",
		"created": created,
		"lesson": fiber.Map{
			"id":                   lesson.ID,
			"title":                lesson.Title,
			"slug":                 lesson.Slug,
			"module_id":            lesson.ModuleID,
			"ai_generation_status": lesson.AIGenerationStatus,
		},
	})
}

func (lc *LessonsController) uniqueLessonSlug(courseID uint, base string) string {
	return lc.uniqueLessonSlugExcept(courseID, base, 0)
}

func (lc *LessonsController) uniqueLessonSlugExcept(courseID uint, base string, exceptID uint) string {
	slug := base
	for i := 2; ; i++ {
		var count int64
		query := lc.DB.Model(&models.Lesson{}).Where("course_id = ? AND slug = ?", courseID, slug)
		if exceptID != 0 {
			query = query.Where("id <> ?", exceptID)
		}
		query.Count(&count)
		if count == 0 {
			return slug
		}
		slug = fmt.Sprintf("%s-%d", base, i)
	}
}
