package services

import (
	"encoding/json"
	"errors"
	"fmt"

	"sprintlms/backend/models"
	"sprintlms/backend/utils"

	"gorm.io/gorm"
)

// ErrLessonApproved reports that re-ingestion targeted a lesson a human already
// approved. Approved lessons are never overwritten without explicit confirmation.
var ErrLessonApproved = errors.New("lesson already approved; refusing to overwrite")

// GetOrCreateQuiz returns the single quiz attached to a lesson, creating it with
// defaults on first use.
func GetOrCreateQuiz(db *gorm.DB, lesson *models.Lesson, passingScore float64) (*models.LessonQuiz, error) {
	quiz := models.LessonQuiz{
		LessonID:     lesson.ID,
		Title:        fmt.Sprintf("%s Quiz", lesson.Title),
		PassingScore: passingScore,
	}
	err := db.Where(models.LessonQuiz{LessonID: lesson.ID}).
		Attrs(models.LessonQuiz{Title: quiz.Title, PassingScore: passingScore}).
		FirstOrCreate(&quiz).Error
	if err != nil {
		return nil, err
	}
	return &quiz, nil
}

// MaxQuestionOrder returns the highest ordinal currently in a quiz, 0 when empty.
func MaxQuestionOrder(db *gorm.DB, quizID uint) int {
	var maxOrder int
	db.Model(&models.LessonQuizQuestion{}).
		Where("quiz_id = ?", quizID).
		Select(`COALESCE(MAX("order"), 0)`).
		Scan(&maxOrder)
	return maxOrder
}

// CreateQuestions persists parsed questions into a quiz. Ordinals continue after
// the quiz's current maximum so repeated imports never collide. A row that fails
// to insert is skipped; the batch continues and the returned count reflects only
// successful inserts. Imports are deliberately not deduplicated: there is no
// natural key on question text, so importing the same file twice doubles the
// question count.
func CreateQuestions(db *gorm.DB, quizID uint, questions []ParsedQuestion) int {
	maxOrder := MaxQuestionOrder(db, quizID)

	created := 0
	for _, q := range questions {
		question := models.LessonQuizQuestion{
			QuizID:        quizID,
			Text:          q.Text,
			OptionA:       q.OptionA,
			OptionB:       q.OptionB,
			OptionC:       q.OptionC,
			OptionD:       q.OptionD,
			CorrectOption: q.CorrectOption,
			Order:         maxOrder + q.Order,
		}
		if err := db.Create(&question).Error; err != nil {
			continue
		}
		created++
	}
	return created
}

// UpsertGeneratedLesson creates or updates a lesson from AI-generated content,
// keyed by (course, module, slug). An approved lesson is left untouched and
// reported via ErrLessonApproved; a generated or pending lesson gets its AI
// fields overwritten and its status set back to "generated".
func UpsertGeneratedLesson(db *gorm.DB, course *models.Course, module *models.Module, content *LessonContent) (*models.Lesson, bool, error) {
	slug := utils.Slugify(content.CleanTitle)
	if slug == "" {
		return nil, false, errors.New("generated lesson has no usable title")
	}

	editorDoc, err := json.Marshal(ToEditorJS(content.ContentBlocks))
	if err != nil {
		return nil, false, err
	}

	var lesson models.Lesson
	err = db.Where("course_id = ? AND module_id = ? AND slug = ?", course.ID, module.ID, slug).
		First(&lesson).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		var maxOrder int
		db.Model(&models.Lesson{}).
			Where("course_id = ? AND module_id = ?", course.ID, module.ID).
			Select(`COALESCE(MAX("order"), 0)`).
			Scan(&maxOrder)

		lesson = models.Lesson{
			CourseID:           course.ID,
			ModuleID:           &module.ID,
			Title:              content.CleanTitle,
			Slug:               slug,
			Description:        content.FullDescription,
			Order:              maxOrder + 1,
			LessonType:         "video",
			Content:            string(editorDoc),
			AIGenerationStatus: models.AIStatusGenerated,
			AICleanTitle:       content.CleanTitle,
			AIShortSummary:     content.ShortSummary,
			AIFullDescription:  content.FullDescription,
			AIOutcomes:         models.EncodeStringList(content.Outcomes),
			AICoachActions:     models.EncodeStringList(content.CoachActions),
		}
		if err := db.Create(&lesson).Error; err != nil {
			return nil, false, err
		}
		return &lesson, true, nil
	}
	if err != nil {
		return nil, false, err
	}

	if lesson.AIGenerationStatus == models.AIStatusApproved {
		return &lesson, false, ErrLessonApproved
	}

	lesson.Title = content.CleanTitle
	lesson.Description = content.FullDescription
	lesson.Content = string(editorDoc)
	lesson.AIGenerationStatus = models.AIStatusGenerated
	lesson.AICleanTitle = content.CleanTitle
	lesson.AIShortSummary = content.ShortSummary
	lesson.AIFullDescription = content.FullDescription
	lesson.AIOutcomes = models.EncodeStringList(content.Outcomes)
	lesson.AICoachActions = models.EncodeStringList(content.CoachActions)
	if err := db.Save(&lesson).Error; err != nil {
		return nil, false, err
	}
	return &lesson, false, nil
}

// GetOrCreateModule returns the named module under a course, appending it at the
// next order slot when missing.
func GetOrCreateModule(db *gorm.DB, course *models.Course, name string) (*models.Module, error) {
	var module models.Module
	err := db.Where("course_id = ? AND name = ?", course.ID, name).First(&module).Error
	if err == nil {
		return &module, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	var maxOrder int
	db.Model(&models.Module{}).
		Where("course_id = ?", course.ID).
		Select(`COALESCE(MAX("order"), 0)`).
		Scan(&maxOrder)

	module = models.Module{
		CourseID:    course.ID,
		Name:        name,
		Order:       maxOrder + 1,
		Description: fmt.Sprintf("Module content for %s", name),
	}
	if err := db.Create(&module).Error; err != nil {
		return nil, err
	}
	return &module, nil
}
