package services

import (
	"testing"

	"sprintlms/backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetOrCreateQuiz(t *testing.T) {
	db := newTestDB(t)
	course := makeCourse(t, db, "Go Basics", "go-basics")
	lesson := makeLesson(t, db, course.ID, "Interfaces", "interfaces", 1)

	quiz, err := GetOrCreateQuiz(db, lesson, 80)
	require.NoError(t, err)
	assert.Equal(t, "Interfaces Quiz", quiz.Title)
	assert.Equal(t, float64(80), quiz.PassingScore)

	again, err := GetOrCreateQuiz(db, lesson, 60)
	require.NoError(t, err)
	assert.Equal(t, quiz.ID, again.ID)
	// existing quiz keeps its settings
	assert.Equal(t, float64(80), again.PassingScore)
}

func TestCreateQuestionsOrderContinues(t *testing.T) {
	db := newTestDB(t)
	course := makeCourse(t, db, "Go Basics", "go-basics")
	lesson := makeLesson(t, db, course.ID, "Slices", "slices", 1)
	quiz, err := GetOrCreateQuiz(db, lesson, 80)
	require.NoError(t, err)

	batch := []ParsedQuestion{
		{Text: "Q1", OptionA: "a", OptionB: "b", CorrectOption: "A", Order: 1},
		{Text: "Q2", OptionA: "a", OptionB: "b", CorrectOption: "B", Order: 2},
		{Text: "Q3", OptionA: "a", OptionB: "b", CorrectOption: "C", Order: 3},
	}

	created := CreateQuestions(db, quiz.ID, batch)
	assert.Equal(t, 3, created)

	// second import continues numbering after the existing maximum
	created = CreateQuestions(db, quiz.ID, batch[:2])
	assert.Equal(t, 2, created)

	var questions []models.LessonQuizQuestion
	db.Where("quiz_id = ?", quiz.ID).Order("\"order\" ASC").Find(&questions)
	require.Len(t, questions, 5)

	orders := make([]int, 0, len(questions))
	for _, q := range questions {
		orders = append(orders, q.Order)
	}
	assert.Equal(t, []int{1, 2, 3, 4, 5}, orders)
}

func TestCreateQuestionsDoubleImportDoubles(t *testing.T) {
	db := newTestDB(t)
	course := makeCourse(t, db, "Go Basics", "go-basics")
	lesson := makeLesson(t, db, course.ID, "Maps", "maps", 1)
	quiz, err := GetOrCreateQuiz(db, lesson, 80)
	require.NoError(t, err)

	batch := []ParsedQuestion{
		{Text: "Same question", OptionA: "a", OptionB: "b", CorrectOption: "A", Order: 1},
	}

	CreateQuestions(db, quiz.ID, batch)
	CreateQuestions(db, quiz.ID, batch)

	// no dedup on question text: importing the same file twice doubles the count
	var count int64
	db.Model(&models.LessonQuizQuestion{}).Where("quiz_id = ?", quiz.ID).Count(&count)
	assert.Equal(t, int64(2), count)
}

func TestMaxQuestionOrderEmptyQuiz(t *testing.T) {
	db := newTestDB(t)
	assert.Equal(t, 0, MaxQuestionOrder(db, 999))
}

func TestUpsertGeneratedLessonCreate(t *testing.T) {
	db := newTestDB(t)
	course := makeCourse(t, db, "Sales Sprint", "sales-sprint")
	module, err := GetOrCreateModule(db, course, "Week 1")
	require.NoError(t, err)

	content := &LessonContent{
		CleanTitle:      "Closing the Deal",
		ShortSummary:    "How to close",
		FullDescription: "A longer description",
		ContentBlocks:   []ContentBlock{{Type: "paragraph", Data: map[string]any{"text": "hi"}}},
		Outcomes:        []string{"close deals"},
		CoachActions:    []string{"practice daily"},
	}

	lesson, created, err := UpsertGeneratedLesson(db, course, module, content)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "closing-the-deal", lesson.Slug)
	assert.Equal(t, models.AIStatusGenerated, lesson.AIGenerationStatus)
	assert.Equal(t, 1, lesson.Order)
	assert.NotEmpty(t, lesson.Content)
	assert.Equal(t, []string{"close deals"}, lesson.OutcomesList())
}

func TestUpsertGeneratedLessonOverwritesGenerated(t *testing.T) {
	db := newTestDB(t)
	course := makeCourse(t, db, "Sales Sprint", "sales-sprint")
	module, err := GetOrCreateModule(db, course, "Week 1")
	require.NoError(t, err)

	content := &LessonContent{CleanTitle: "Cold Calls", ShortSummary: "v1"}
	lesson, created, err := UpsertGeneratedLesson(db, course, module, content)
	require.NoError(t, err)
	require.True(t, created)

	content.ShortSummary = "v2"
	updated, created, err := UpsertGeneratedLesson(db, course, module, content)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, lesson.ID, updated.ID)
	assert.Equal(t, "v2", updated.AIShortSummary)
}

func TestUpsertGeneratedLessonRefusesApproved(t *testing.T) {
	db := newTestDB(t)
	course := makeCourse(t, db, "Sales Sprint", "sales-sprint")
	module, err := GetOrCreateModule(db, course, "Week 1")
	require.NoError(t, err)

	content := &LessonContent{CleanTitle: "Objections", ShortSummary: "original"}
	lesson, _, err := UpsertGeneratedLesson(db, course, module, content)
	require.NoError(t, err)

	lesson.AIGenerationStatus = models.AIStatusApproved
	require.NoError(t, db.Save(lesson).Error)

	content.ShortSummary = "should not land"
	kept, created, err := UpsertGeneratedLesson(db, course, module, content)
	assert.ErrorIs(t, err, ErrLessonApproved)
	assert.False(t, created)

	var stored models.Lesson
	require.NoError(t, db.First(&stored, kept.ID).Error)
	assert.Equal(t, "original", stored.AIShortSummary)
	assert.Equal(t, models.AIStatusApproved, stored.AIGenerationStatus)
}

func TestUpsertGeneratedLessonEmptyTitle(t *testing.T) {
	db := newTestDB(t)
	course := makeCourse(t, db, "Sales Sprint", "sales-sprint")
	module, err := GetOrCreateModule(db, course, "Week 1")
	require.NoError(t, err)

	_, _, err = UpsertGeneratedLesson(db, course, module, &LessonContent{CleanTitle: "!!!"})
	assert.Error(t, err)
}

func TestGetOrCreateModuleOrdering(t *testing.T) {
	db := newTestDB(t)
	course := makeCourse(t, db, "Sales Sprint", "sales-sprint")

	first, err := GetOrCreateModule(db, course, "Week 1")
	require.NoError(t, err)
	assert.Equal(t, 1, first.Order)

	second, err := GetOrCreateModule(db, course, "Week 2")
	require.NoError(t, err)
	assert.Equal(t, 2, second.Order)

	again, err := GetOrCreateModule(db, course, "Week 1")
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
}
