package controllers_test

import (
	"net/http"
	"strconv"
	"testing"

	"sprintlms/backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetLessonDetailRequiresAccess(t *testing.T) {
	app, db, cfg := setupTestApp(t)
	student, token := createUser(t, db, cfg, "student", false)

	course := models.Course{Name: "Go Basics", Slug: "go-basics"}
	require.NoError(t, db.Create(&course).Error)
	lesson := models.Lesson{
		CourseID: course.ID, Title: "Interfaces", Slug: "interfaces",
		VimeoID: "123", VimeoDurationSeconds: 125,
	}
	require.NoError(t, db.Create(&lesson).Error)

	target := "/api/courses/go-basics/lessons/interfaces"

	// no access yet
	resp, err := app.Test(jsonRequest(t, http.MethodGet, target, token, nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	require.NoError(t, db.Create(&models.CourseEnrollment{
		UserID: student.ID, CourseID: course.ID,
	}).Error)

	resp, err = app.Test(jsonRequest(t, http.MethodGet, target, token, nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	lessonMap := body["lesson"].(map[string]any)
	assert.Equal(t, "vimeo", lessonMap["video_source"])
	assert.Equal(t, "https://player.vimeo.com/video/123", lessonMap["video_url"])
	assert.Equal(t, "2:05", lessonMap["duration"])
	assert.Equal(t, false, lessonMap["has_quiz"])
}

func TestGetLessonDetailNotFound(t *testing.T) {
	app, db, cfg := setupTestApp(t)
	student, token := createUser(t, db, cfg, "student", false)

	course := models.Course{Name: "Go Basics", Slug: "go-basics"}
	require.NoError(t, db.Create(&course).Error)
	require.NoError(t, db.Create(&models.CourseEnrollment{
		UserID: student.ID, CourseID: course.ID,
	}).Error)

	resp, err := app.Test(jsonRequest(t, http.MethodGet, "/api/courses/go-basics/lessons/ghost", token, nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, err = app.Test(jsonRequest(t, http.MethodGet, "/api/courses/no-course/lessons/x", token, nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGetLessonsFilter(t *testing.T) {
	app, db, cfg := setupTestApp(t)
	_, staffToken := createUser(t, db, cfg, "admin", true)

	course := models.Course{Name: "Go Basics", Slug: "go-basics"}
	require.NoError(t, db.Create(&course).Error)
	require.NoError(t, db.Create(&models.Lesson{
		CourseID: course.ID, Title: "Pending", Slug: "pending",
		AIGenerationStatus: models.AIStatusPending,
	}).Error)
	require.NoError(t, db.Create(&models.Lesson{
		CourseID: course.ID, Title: "Done", Slug: "done",
		AIGenerationStatus: models.AIStatusApproved,
	}).Error)

	resp, err := app.Test(jsonRequest(t, http.MethodGet,
		"/api/admin/lessons/?ai_generation_status=approved", staffToken, nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	lessons := body["lessons"].([]any)
	require.Len(t, lessons, 1)
	assert.Equal(t, "Done", lessons[0].(map[string]any)["title"])
}

func TestVerifyVimeoURLRejectsNonVimeo(t *testing.T) {
	app, db, cfg := setupTestApp(t)
	_, staffToken := createUser(t, db, cfg, "admin", true)

	resp, err := app.Test(jsonRequest(t, http.MethodPost, "/api/admin/lessons/vimeo/verify", staffToken, map[string]string{
		"vimeo_url": "https://youtube.com/watch?v=abc",
	}))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGenerateWithoutGeneratorUnavailable(t *testing.T) {
	app, db, cfg := setupTestApp(t)
	_, staffToken := createUser(t, db, cfg, "admin", true)

	course := models.Course{Name: "Go Basics", Slug: "go-basics"}
	require.NoError(t, db.Create(&course).Error)
	lesson := models.Lesson{CourseID: course.ID, Title: "Raw", Slug: "raw", Transcription: "text"}
	require.NoError(t, db.Create(&lesson).Error)

	resp, err := app.Test(jsonRequest(t, http.MethodPost,
		"/api/admin/lessons/"+strconv.Itoa(int(lesson.ID))+"/generate", staffToken, nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestApproveLessonPromotesAIContent(t *testing.T) {
	app, db, cfg := setupTestApp(t)
	_, staffToken := createUser(t, db, cfg, "admin", true)

	course := models.Course{Name: "Go Basics", Slug: "go-basics"}
	require.NoError(t, db.Create(&course).Error)
	lesson := models.Lesson{
		CourseID: course.ID, Title: "rough working title", Slug: "rough-working-title",
		AIGenerationStatus: models.AIStatusGenerated,
		AICleanTitle:       "Polished Title",
		AIFullDescription:  "Full description",
	}
	require.NoError(t, db.Create(&lesson).Error)

	resp, err := app.Test(jsonRequest(t, http.MethodPost,
		"/api/admin/lessons/"+strconv.Itoa(int(lesson.ID))+"/approve", staffToken, nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var stored models.Lesson
	require.NoError(t, db.First(&stored, lesson.ID).Error)
	assert.Equal(t, "Polished Title", stored.Title)
	assert.Equal(t, "polished-title", stored.Slug)
	assert.Equal(t, "Full description", stored.Description)
	assert.Equal(t, models.AIStatusApproved, stored.AIGenerationStatus)

	// approving again conflicts
	resp, err = app.Test(jsonRequest(t, http.MethodPost,
		"/api/admin/lessons/"+strconv.Itoa(int(lesson.ID))+"/approve", staffToken, nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestUpdateGeneratedContent(t *testing.T) {
	app, db, cfg := setupTestApp(t)
	_, staffToken := createUser(t, db, cfg, "admin", true)

	course := models.Course{Name: "Go Basics", Slug: "go-basics"}
	require.NoError(t, db.Create(&course).Error)
	lesson := models.Lesson{
		CourseID: course.ID, Title: "Draft", Slug: "draft",
		AIGenerationStatus: models.AIStatusGenerated,
		AICleanTitle:       "Old Title",
	}
	require.NoError(t, db.Create(&lesson).Error)

	resp, err := app.Test(jsonRequest(t, http.MethodPut,
		"/api/admin/lessons/"+strconv.Itoa(int(lesson.ID))+"/content", staffToken, map[string]any{
			"ai_clean_title": "Edited Title",
			"ai_outcomes":    []string{"first", "second"},
		}))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var stored models.Lesson
	require.NoError(t, db.First(&stored, lesson.ID).Error)
	assert.Equal(t, "Edited Title", stored.AICleanTitle)
	assert.Equal(t, []string{"first", "second"}, stored.OutcomesList())
}

func TestDeleteLesson(t *testing.T) {
	app, db, cfg := setupTestApp(t)
	_, staffToken := createUser(t, db, cfg, "admin", true)

	course := models.Course{Name: "Go Basics", Slug: "go-basics"}
	require.NoError(t, db.Create(&course).Error)
	lesson := models.Lesson{CourseID: course.ID, Title: "Doomed", Slug: "doomed"}
	require.NoError(t, db.Create(&lesson).Error)

	resp, err := app.Test(jsonRequest(t, http.MethodDelete,
		"/api/admin/lessons/"+strconv.Itoa(int(lesson.ID)), staffToken, nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = app.Test(jsonRequest(t, http.MethodDelete,
		"/api/admin/lessons/"+strconv.Itoa(int(lesson.ID)), staffToken, nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
