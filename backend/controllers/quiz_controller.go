package controllers

import (
	"errors"
	"io"
	"log"
	"path/filepath"
	"strconv"
	"strings"

	"sprintlms/backend/config"
	"sprintlms/backend/models"
	"sprintlms/backend/services"
	"sprintlms/backend/utils"

	"gorm.io/gorm"

	"github.com/gofiber/fiber/v2"
)

type QuizController struct {
	DB        *gorm.DB
	Cfg       *config.Config
	Extractor *services.TextExtractor
	Generator *services.AIGenerator // nil when no API key is configured
	Logger    *log.Logger
}

func NewQuizController(db *gorm.DB, cfg *config.Config, extractor *services.TextExtractor, generator *services.AIGenerator, logger *log.Logger) *QuizController {
	return &QuizController{
		DB:        db,
		Cfg:       cfg,
		Extractor: extractor,
		Generator: generator,
		Logger:    logger,
	}
}

// GetQuizzes lists quizzes for the admin screens, filterable by course.
func (qc *QuizController) GetQuizzes(c *fiber.Ctx) error {
	query := qc.DB.Model(&models.LessonQuiz{}).Preload("Lesson")

	if courseID := c.Query("course_id"); courseID != "" {
		query = query.Joins("JOIN lessons ON lessons.id = lesson_quizzes.lesson_id").
			Where("lessons.course_id = ?", courseID)
	}

	var quizzes []models.LessonQuiz
	if err := query.Find(&quizzes).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not query database",
		})
	}

	result := make([]fiber.Map, 0, len(quizzes))
	for _, quiz := range quizzes {
		var questionCount int64
		qc.DB.Model(&models.LessonQuizQuestion{}).Where("quiz_id = ?", quiz.ID).Count(&questionCount)

		result = append(result, fiber.Map{
			"id":             quiz.ID,
			"lesson_id":      quiz.LessonID,
			"lesson_title":   quiz.Lesson.Title,
			"title":          quiz.Title,
			"passing_score":  quiz.PassingScore,
			"is_required":    quiz.IsRequired,
			"question_count": questionCount,
		})
	}

	return c.JSON(fiber.Map{
		"quizzes": result,
	})
}

// GetLessonQuiz returns the quiz attached to a lesson, creating it on first
// access so the admin form always has something to edit.
func (qc *QuizController) GetLessonQuiz(c *fiber.Ctx) error {
	lessonID, err := strconv.Atoi(c.Params("lessonId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid lesson ID",
		})
	}

	var lesson models.Lesson
	if err := qc.DB.First(&lesson, lessonID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Lesson not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not query database",
		})
	}

	quiz, err := services.GetOrCreateQuiz(qc.DB, &lesson, 80)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not create quiz",
		})
	}

	var questions []models.LessonQuizQuestion
	qc.DB.Where("quiz_id = ?", quiz.ID).Order("\"order\" ASC").Find(&questions)

	return c.JSON(fiber.Map{
		"quiz": fiber.Map{
			"id":            quiz.ID,
			"lesson_id":     quiz.LessonID,
			"title":         quiz.Title,
			"description":   quiz.Description,
			"passing_score": quiz.PassingScore,
			"is_required":   quiz.IsRequired,
		},
		"questions": questions,
	})
}

// UpdateQuizSettings saves title, passing score and required flag.
func (qc *QuizController) UpdateQuizSettings(c *fiber.Ctx) error {
	quizID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid quiz ID",
		})
	}

	var quiz models.LessonQuiz
	if err := qc.DB.First(&quiz, quizID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Quiz not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not query database",
		})
	}

	type SettingsInput struct {
		Title        string   `json:"title"`
		Description  string   `json:"description"`
		PassingScore *float64 `json:"passing_score"`
		IsRequired   *bool    `json:"is_required"`
	}
	var input SettingsInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Cannot parse JSON",
		})
	}

	if input.Title != "" {
		quiz.Title = input.Title
	}
	if input.Description != "" {
		quiz.Description = input.Description
	}
	if input.PassingScore != nil {
		if *input.PassingScore < 0 || *input.PassingScore > 100 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Passing score must be between 0 and 100",
			})
		}
		quiz.PassingScore = *input.PassingScore
	}
	if input.IsRequired != nil {
		quiz.IsRequired = *input.IsRequired
	}

	if err := qc.DB.Save(&quiz).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not update quiz",
		})
	}

	return c.JSON(fiber.Map{
		"quiz": quiz,
	})
}

type QuestionInput struct {
	Text          string `json:"text" validate:"required"`
	OptionA       string `json:"option_a" validate:"required"`
	OptionB       string `json:"option_b" validate:"required"`
	OptionC       string `json:"option_c"`
	OptionD       string `json:"option_d"`
	CorrectOption string `json:"correct_option"`
}

// AddQuestion appends a question at the next order slot.
func (qc *QuizController) AddQuestion(c *fiber.Ctx) error {
	quizID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid quiz ID",
		})
	}

	var quiz models.LessonQuiz
	if err := qc.DB.First(&quiz, quizID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Quiz not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not query database",
		})
	}

	var input QuestionInput
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

	question := models.LessonQuizQuestion{
		QuizID:        quiz.ID,
		Text:          input.Text,
		OptionA:       input.OptionA,
		OptionB:       input.OptionB,
		OptionC:       input.OptionC,
		OptionD:       input.OptionD,
		CorrectOption: services.NormalizeCorrectOption(input.CorrectOption),
		Order:         services.MaxQuestionOrder(qc.DB, quiz.ID) + 1,
	}

	if err := qc.DB.Create(&question).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not create question",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"question": question,
	})
}

func (qc *QuizController) UpdateQuestion(c *fiber.Ctx) error {
	questionID, err := strconv.Atoi(c.Params("questionId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid question ID",
		})
	}

	var question models.LessonQuizQuestion
	if err := qc.DB.First(&question, questionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Question not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not query database",
		})
	}

	var input QuestionInput
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

	question.Text = input.Text
	question.OptionA = input.OptionA
	question.OptionB = input.OptionB
	question.OptionC = input.OptionC
	question.OptionD = input.OptionD
	question.CorrectOption = services.NormalizeCorrectOption(input.CorrectOption)

	if err := qc.DB.Save(&question).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not update question",
		})
	}

	return c.JSON(fiber.Map{
		"question": question,
	})
}

func (qc *QuizController) DeleteQuestion(c *fiber.Ctx) error {
	questionID, err := strconv.Atoi(c.Params("questionId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid question ID",
		})
	}

	result := qc.DB.Delete(&models.LessonQuizQuestion{}, questionID)
	if result.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not delete question",
		})
	}
	if result.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Question not found",
		})
	}

	return c.JSON(fiber.Map{
		"message": "Question deleted",
	})
}

// DeleteQuiz removes a quiz together with its questions.
func (qc *QuizController) DeleteQuiz(c *fiber.Ctx) error {
	quizID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid quiz ID",
		})
	}

	var quiz models.LessonQuiz
	if err := qc.DB.First(&quiz, quizID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Quiz not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not query database",
		})
	}

	qc.DB.Where("quiz_id = ?", quiz.ID).Delete(&models.LessonQuizQuestion{})
	if err := qc.DB.Delete(&quiz).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not delete quiz",
		})
	}

	return c.JSON(fiber.Map{
		"message": "Quiz deleted",
	})
}

// UploadQuestions ingests quiz questions for a lesson, either parsed from an
// uploaded CSV or PDF file or generated by AI. The lesson's quiz is created on
// demand and new questions continue after its current order.
func (qc *QuizController) UploadQuestions(c *fiber.Ctx) error {
	lessonID, err := strconv.Atoi(c.FormValue("lesson_id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid lesson ID",
		})
	}

	var lesson models.Lesson
	if err := qc.DB.First(&lesson, lessonID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Lesson not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not query database",
		})
	}

	method := c.FormValue("generation_method")
	if method == "" {
		method = "upload"
	}

	var questions []services.ParsedQuestion

	switch method {
	case "upload":
		questions, err = qc.parseUploadedFile(c)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
			})
		}

	case "ai":
		if qc.Generator == nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error": "AI generation is not available",
			})
		}
		numQuestions, _ := strconv.Atoi(c.FormValue("num_questions"))
		if numQuestions <= 0 {
			numQuestions = 5
		}
		questions, err = qc.Generator.GenerateQuizQuestions(c.Context(), &lesson, numQuestions)
		if err != nil {
			qc.Logger.Printf("lesson %d: quiz generation failed: %v", lesson.ID, err)
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
				"error": "Question generation failed",
			})
		}

	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unknown generation method",
		})
	}

	if len(questions) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "No valid questions found",
		})
	}

	quiz, err := services.GetOrCreateQuiz(qc.DB, &lesson, 80)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not create quiz",
		})
	}

	created := services.CreateQuestions(qc.DB, quiz.ID, questions)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Questions imported",
		"quiz_id": quiz.ID,
		"created": created,
	})
}

func (qc *QuizController) parseUploadedFile(c *fiber.Ctx) ([]services.ParsedQuestion, error) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return nil, errors.New("No file uploaded")
	}
	if fileHeader.Size > qc.Cfg.MaxUploadBytes {
		return nil, errors.New("File too large")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return nil, errors.New("Could not read file")
	}
	defer file.Close()

	switch strings.ToLower(filepath.Ext(fileHeader.Filename)) {
	case ".csv":
		rows, err := qc.Extractor.ExtractCSV(file)
		if err != nil {
			return nil, errors.New("Could not parse CSV file")
		}
		return services.ParseCSVQuestions(rows), nil

	case ".pdf":
		data, err := io.ReadAll(file)
		if err != nil {
			return nil, errors.New("Could not read file")
		}
		text, err := qc.Extractor.ExtractPDF(data)
		if err != nil {
			return nil, errors.New("Could not extract text from PDF")
		}
		return services.ParsePDFQuestions(text), nil
	}

	return nil, errors.New("Unsupported file type, expected .csv or .pdf")
}

// SubmitQuizAttempt grades a learner's answers against the stored questions.
func (qc *QuizController) SubmitQuizAttempt(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, qc.Cfg)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	quizID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid quiz ID",
		})
	}

	var quiz models.LessonQuiz
	if err := qc.DB.First(&quiz, quizID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Quiz not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not query database",
		})
	}

	type AttemptInput struct {
		Answers map[string]string `json:"answers"` // question id -> selected option
	}
	var input AttemptInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Cannot parse JSON",
		})
	}

	var questions []models.LessonQuizQuestion
	qc.DB.Where("quiz_id = ?", quiz.ID).Find(&questions)
	if len(questions) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Quiz has no questions",
		})
	}

	correct := 0
	for _, question := range questions {
		answer := input.Answers[strconv.Itoa(int(question.ID))]
		if strings.EqualFold(strings.TrimSpace(answer), question.CorrectOption) {
			correct++
		}
	}

	score := float64(correct) / float64(len(questions)) * 100
	attempt := models.LessonQuizAttempt{
		UserID: userID,
		QuizID: quiz.ID,
		Score:  score,
		Passed: score >= quiz.PassingScore,
	}
	if err := qc.DB.Create(&attempt).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not save attempt",
		})
	}

	return c.JSON(fiber.Map{
		"score":   score,
		"passed":  attempt.Passed,
		"correct": correct,
		"total":   len(questions),
	})
}
