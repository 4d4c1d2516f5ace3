package controllers_test

import (
	"net/http"
	"strconv"
	"testing"

	"sprintlms/backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateCourseDefaultsAndSlug(t *testing.T) {
	app, db, cfg := setupTestApp(t)
	_, staffToken := createUser(t, db, cfg, "admin", true)

	resp, err := app.Test(jsonRequest(t, http.MethodPost, "/api/admin/courses/", staffToken, map[string]any{
		"name": "Sales Sprint",
	}))
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var course models.Course
	require.NoError(t, db.Where("slug = ?", "sales-sprint").First(&course).Error)
	assert.Equal(t, "sprint", course.CourseType)
	assert.Equal(t, models.CourseStatusActive, course.Status)
	assert.Equal(t, "Sprint Coach", course.CoachName)
	assert.Equal(t, 120, course.ExamUnlockDays)

	// same name gets a suffixed slug
	resp, err = app.Test(jsonRequest(t, http.MethodPost, "/api/admin/courses/", staffToken, map[string]any{
		"name": "Sales Sprint",
	}))
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var second models.Course
	require.NoError(t, db.Where("slug = ?", "sales-sprint-2").First(&second).Error)
	assert.Equal(t, "Sales Sprint", second.Name)
}

func TestCreateCourseValidation(t *testing.T) {
	app, db, cfg := setupTestApp(t)
	_, staffToken := createUser(t, db, cfg, "admin", true)

	resp, err := app.Test(jsonRequest(t, http.MethodPost, "/api/admin/courses/", staffToken, map[string]any{
		"name": "ab",
	}))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = app.Test(jsonRequest(t, http.MethodPost, "/api/admin/courses/", staffToken, map[string]any{
		"name":        "Valid Name",
		"course_type": "webinar",
	}))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetCoursesCatalog(t *testing.T) {
	app, db, cfg := setupTestApp(t)
	_ = cfg

	require.NoError(t, db.Create(&models.Course{
		Name: "Sales Sprint", Slug: "sales-sprint", CourseType: "sprint", Status: "active",
	}).Error)
	require.NoError(t, db.Create(&models.Course{
		Name: "Speaking Club", Slug: "speaking-club", CourseType: "speaking", Status: "coming_soon",
	}).Error)

	// catalog is public and shows every status
	resp, err := app.Test(jsonRequest(t, http.MethodGet, "/api/courses", "", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Len(t, body["courses"].([]any), 2)

	resp, err = app.Test(jsonRequest(t, http.MethodGet, "/api/courses?type=speaking", "", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body = decodeBody(t, resp)
	courses := body["courses"].([]any)
	require.Len(t, courses, 1)
	assert.Equal(t, "Speaking Club", courses[0].(map[string]any)["name"])
}

func TestGetCourseDetailsModuleTree(t *testing.T) {
	app, db, cfg := setupTestApp(t)
	_ = cfg

	course := models.Course{Name: "Sales Sprint", Slug: "sales-sprint"}
	require.NoError(t, db.Create(&course).Error)
	module := models.Module{CourseID: course.ID, Name: "Week 1", Order: 1}
	require.NoError(t, db.Create(&module).Error)
	require.NoError(t, db.Create(&models.Lesson{
		CourseID: course.ID, ModuleID: &module.ID, Title: "Kickoff", Slug: "kickoff", Order: 1,
	}).Error)
	require.NoError(t, db.Create(&models.Lesson{
		CourseID: course.ID, Title: "Bonus", Slug: "bonus", Order: 2,
	}).Error)

	resp, err := app.Test(jsonRequest(t, http.MethodGet, "/api/courses/sales-sprint", "", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	courseMap := body["course"].(map[string]any)
	modules := courseMap["modules"].([]any)
	require.Len(t, modules, 1)
	week := modules[0].(map[string]any)
	assert.Equal(t, "Week 1", week["name"])
	require.Len(t, week["lessons"].([]any), 1)

	standalone := courseMap["standalone_lessons"].([]any)
	require.Len(t, standalone, 1)
	assert.Equal(t, "Bonus", standalone[0].(map[string]any)["title"])

	// anonymous callers see no access fields
	_, hasAccess := body["has_access"]
	assert.False(t, hasAccess)
}

func TestEnrollIdempotent(t *testing.T) {
	app, db, cfg := setupTestApp(t)
	student, token := createUser(t, db, cfg, "student", false)

	course := models.Course{Name: "Sales Sprint", Slug: "sales-sprint"}
	require.NoError(t, db.Create(&course).Error)

	target := "/api/courses/" + strconv.Itoa(int(course.ID)) + "/enroll"

	resp, err := app.Test(jsonRequest(t, http.MethodPost, target, token, map[string]any{
		"payment_type": "installment",
	}))
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, err = app.Test(jsonRequest(t, http.MethodPost, target, token, nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, "Already enrolled", body["message"])

	var count int64
	db.Model(&models.CourseEnrollment{}).Where("user_id = ?", student.ID).Count(&count)
	assert.EqualValues(t, 1, count)

	var enrollment models.CourseEnrollment
	require.NoError(t, db.Where("user_id = ?", student.ID).First(&enrollment).Error)
	assert.Equal(t, models.PaymentInstallment, enrollment.PaymentType)
	assert.False(t, enrollment.EnrolledAt.IsZero())
}

func TestUpdateAndDeleteCourse(t *testing.T) {
	app, db, cfg := setupTestApp(t)
	_, staffToken := createUser(t, db, cfg, "admin", true)

	course := models.Course{Name: "Sales Sprint", Slug: "sales-sprint", CourseType: "sprint", Status: "active"}
	require.NoError(t, db.Create(&course).Error)

	resp, err := app.Test(jsonRequest(t, http.MethodPut,
		"/api/admin/courses/"+strconv.Itoa(int(course.ID)), staffToken, map[string]any{
			"name":   "Sales Sprint 2.0",
			"status": "locked",
		}))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var stored models.Course
	require.NoError(t, db.First(&stored, course.ID).Error)
	assert.Equal(t, "Sales Sprint 2.0", stored.Name)
	assert.Equal(t, models.CourseStatusLocked, stored.Status)
	// slug is stable across renames
	assert.Equal(t, "sales-sprint", stored.Slug)

	resp, err = app.Test(jsonRequest(t, http.MethodDelete,
		"/api/admin/courses/"+strconv.Itoa(int(course.ID)), staffToken, nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = app.Test(jsonRequest(t, http.MethodDelete,
		"/api/admin/courses/"+strconv.Itoa(int(course.ID)), staffToken, nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
