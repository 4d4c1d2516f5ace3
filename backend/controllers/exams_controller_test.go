package controllers_test

import (
	"net/http"
	"strconv"
	"testing"
	"time"

	"sprintlms/backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateExamOnePerCourse(t *testing.T) {
	app, db, cfg := setupTestApp(t)
	_, staffToken := createUser(t, db, cfg, "admin", true)

	course := models.Course{Name: "Go Basics", Slug: "go-basics"}
	require.NoError(t, db.Create(&course).Error)

	resp, err := app.Test(jsonRequest(t, http.MethodPost, "/api/admin/exams/", staffToken, map[string]any{
		"course_id": course.ID,
		"title":     "Final Exam",
	}))
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var exam models.Exam
	require.NoError(t, db.Where("course_id = ?", course.ID).First(&exam).Error)
	assert.EqualValues(t, 80, exam.PassingScore)

	resp, err = app.Test(jsonRequest(t, http.MethodPost, "/api/admin/exams/", staffToken, map[string]any{
		"course_id": course.ID,
		"title":     "Second Exam",
	}))
	require.NoError(t, err)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestGetCourseExamLockedForInstallmentPayer(t *testing.T) {
	app, db, cfg := setupTestApp(t)
	student, token := createUser(t, db, cfg, "student", false)

	course := models.Course{Name: "Go Basics", Slug: "go-basics", ExamUnlockDays: 120}
	require.NoError(t, db.Create(&course).Error)
	exam := models.Exam{CourseID: course.ID, Title: "Final Exam", PassingScore: 80}
	require.NoError(t, db.Create(&exam).Error)
	require.NoError(t, db.Create(&models.CourseEnrollment{
		UserID:      student.ID,
		CourseID:    course.ID,
		PaymentType: models.PaymentInstallment,
		EnrolledAt:  time.Now().AddDate(0, 0, -30),
	}).Error)

	resp, err := app.Test(jsonRequest(t, http.MethodGet,
		"/api/courses/"+strconv.Itoa(int(course.ID))+"/exam", token, nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, false, body["unlocked"])
	assert.EqualValues(t, 90, body["days_until_exam"])

	// submitting while locked is rejected
	resp, err = app.Test(jsonRequest(t, http.MethodPost,
		"/api/exams/"+strconv.Itoa(int(exam.ID))+"/attempts", token, map[string]any{
			"score": 95,
		}))
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestGetCourseExamUnlockedForFullPayment(t *testing.T) {
	app, db, cfg := setupTestApp(t)
	student, token := createUser(t, db, cfg, "student", false)

	course := models.Course{Name: "Go Basics", Slug: "go-basics", ExamUnlockDays: 120}
	require.NoError(t, db.Create(&course).Error)
	exam := models.Exam{CourseID: course.ID, Title: "Final Exam", PassingScore: 80}
	require.NoError(t, db.Create(&exam).Error)
	require.NoError(t, db.Create(&models.CourseEnrollment{
		UserID:      student.ID,
		CourseID:    course.ID,
		PaymentType: models.PaymentFull,
		EnrolledAt:  time.Now(),
	}).Error)

	resp, err := app.Test(jsonRequest(t, http.MethodGet,
		"/api/courses/"+strconv.Itoa(int(course.ID))+"/exam", token, nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, true, body["unlocked"])
	assert.EqualValues(t, 0, body["days_until_exam"])
}

func TestSubmitExamAttemptIssuesCertification(t *testing.T) {
	app, db, cfg := setupTestApp(t)
	student, token := createUser(t, db, cfg, "student", false)

	course := models.Course{Name: "Go Basics", Slug: "go-basics"}
	require.NoError(t, db.Create(&course).Error)
	exam := models.Exam{CourseID: course.ID, Title: "Final Exam", PassingScore: 80}
	require.NoError(t, db.Create(&exam).Error)
	require.NoError(t, db.Create(&models.CourseEnrollment{
		UserID: student.ID, CourseID: course.ID, PaymentType: models.PaymentFull,
	}).Error)

	target := "/api/exams/" + strconv.Itoa(int(exam.ID)) + "/attempts"

	// failing attempt issues nothing
	resp, err := app.Test(jsonRequest(t, http.MethodPost, target, token, map[string]any{
		"score": 60,
	}))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, false, body["passed"])

	var certCount int64
	db.Model(&models.Certification{}).Where("user_id = ?", student.ID).Count(&certCount)
	assert.EqualValues(t, 0, certCount)

	resp, err = app.Test(jsonRequest(t, http.MethodPost, target, token, map[string]any{
		"score": 85,
	}))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body = decodeBody(t, resp)
	assert.Equal(t, true, body["passed"])

	var cert models.Certification
	require.NoError(t, db.Where("user_id = ? AND course_id = ?", student.ID, course.ID).
		First(&cert).Error)
	assert.Equal(t, models.CertPassed, cert.Status)
	assert.NotNil(t, cert.IssuedAt)

	resp, err = app.Test(jsonRequest(t, http.MethodGet, "/api/my/certifications", token, nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body = decodeBody(t, resp)
	certs := body["certifications"].([]any)
	require.Len(t, certs, 1)
	assert.Equal(t, "Go Basics", certs[0].(map[string]any)["course_name"])
}

func TestSubmitExamAttemptValidation(t *testing.T) {
	app, db, cfg := setupTestApp(t)
	student, token := createUser(t, db, cfg, "student", false)

	course := models.Course{Name: "Go Basics", Slug: "go-basics"}
	require.NoError(t, db.Create(&course).Error)
	exam := models.Exam{CourseID: course.ID, Title: "Final Exam", PassingScore: 80}
	require.NoError(t, db.Create(&exam).Error)
	require.NoError(t, db.Create(&models.CourseEnrollment{
		UserID: student.ID, CourseID: course.ID, PaymentType: models.PaymentFull,
	}).Error)

	resp, err := app.Test(jsonRequest(t, http.MethodPost,
		"/api/exams/"+strconv.Itoa(int(exam.ID))+"/attempts", token, map[string]any{
			"score": 140,
		}))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
