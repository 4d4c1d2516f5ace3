package controllers

import (
	"errors"
	"sort"
	"strconv"
	"strings"
	"time"

	"sprintlms/backend/config"
	"sprintlms/backend/models"
	"sprintlms/backend/services"

	"gorm.io/gorm"

	"github.com/gofiber/fiber/v2"
)

// AnalyticsController serves the staff dashboard: headline numbers, per-course
// performance, trophy distribution and the student roster.
type AnalyticsController struct {
	DB  *gorm.DB
	Cfg *config.Config
}

func NewAnalyticsController(db *gorm.DB, cfg *config.Config) *AnalyticsController {
	return &AnalyticsController{DB: db, Cfg: cfg}
}

// GetOverview returns the dashboard headline numbers: content totals, student
// counts over activity windows, enrollment and access totals, and
// certification counts.
func (anc *AnalyticsController) GetOverview(c *fiber.Ctx) error {
	now := time.Now()
	weekAgo := now.AddDate(0, 0, -7)
	monthAgo := now.AddDate(0, 0, -30)
	quarterAgo := now.AddDate(0, 0, -90)

	var totalCourses, totalLessons, approvedLessons, pendingLessons, totalQuizzes int64
	anc.DB.Model(&models.Course{}).Count(&totalCourses)
	anc.DB.Model(&models.Lesson{}).Count(&totalLessons)
	anc.DB.Model(&models.Lesson{}).
		Where("ai_generation_status = ?", models.AIStatusApproved).
		Count(&approvedLessons)
	anc.DB.Model(&models.Lesson{}).
		Where("ai_generation_status = ?", models.AIStatusPending).
		Count(&pendingLessons)
	anc.DB.Model(&models.LessonQuiz{}).Count(&totalQuizzes)

	var totalStudents, activeStudents, newStudents7d, newStudents30d, inactiveStudents int64
	anc.DB.Model(&models.User{}).Where("is_staff = ?", false).Count(&totalStudents)
	anc.DB.Model(&models.User{}).
		Where("is_staff = ? AND last_login >= ?", false, monthAgo).
		Count(&activeStudents)
	anc.DB.Model(&models.User{}).
		Where("is_staff = ? AND date_joined >= ?", false, weekAgo).
		Count(&newStudents7d)
	anc.DB.Model(&models.User{}).
		Where("is_staff = ? AND date_joined >= ?", false, monthAgo).
		Count(&newStudents30d)
	anc.DB.Model(&models.User{}).
		Where("is_staff = ? AND (last_login < ? OR last_login IS NULL)", false, quarterAgo).
		Count(&inactiveStudents)

	var totalEnrollments, enrollments7d, enrollments30d int64
	anc.DB.Model(&models.CourseEnrollment{}).Count(&totalEnrollments)
	anc.DB.Model(&models.CourseEnrollment{}).
		Where("created_at >= ?", weekAgo).
		Count(&enrollments7d)
	anc.DB.Model(&models.CourseEnrollment{}).
		Where("created_at >= ?", monthAgo).
		Count(&enrollments30d)

	var unlockedAccesses, expiredAccesses, pendingAccesses int64
	anc.DB.Model(&models.CourseAccess{}).
		Where("status = ?", models.AccessUnlocked).
		Count(&unlockedAccesses)
	anc.DB.Model(&models.CourseAccess{}).
		Where("status = ?", models.AccessExpired).
		Count(&expiredAccesses)
	anc.DB.Model(&models.CourseAccess{}).
		Where("status = ?", models.AccessPending).
		Count(&pendingAccesses)

	var totalProgress, totalCompletions, progress7d int64
	anc.DB.Model(&models.UserProgress{}).Count(&totalProgress)
	anc.DB.Model(&models.UserProgress{}).
		Where("completed = ?", true).
		Count(&totalCompletions)
	anc.DB.Model(&models.UserProgress{}).
		Where("last_accessed >= ?", weekAgo).
		Count(&progress7d)

	var completionRate float64
	if totalProgress > 0 {
		completionRate = float64(totalCompletions) / float64(totalProgress) * 100
	}

	var activeThisWeek int64
	anc.DB.Model(&models.UserProgress{}).
		Where("last_accessed > ?", weekAgo).
		Distinct("user_id").
		Count(&activeThisWeek)

	var totalCertifications, certifications7d, certifications30d int64
	anc.DB.Model(&models.Certification{}).
		Where("status = ?", models.CertPassed).
		Count(&totalCertifications)
	anc.DB.Model(&models.Certification{}).
		Where("status = ? AND issued_at >= ?", models.CertPassed, weekAgo).
		Count(&certifications7d)
	anc.DB.Model(&models.Certification{}).
		Where("status = ? AND issued_at >= ?", models.CertPassed, monthAgo).
		Count(&certifications30d)

	return c.JSON(fiber.Map{
		"total_courses":        totalCourses,
		"total_lessons":        totalLessons,
		"approved_lessons":     approvedLessons,
		"pending_lessons":      pendingLessons,
		"total_quizzes":        totalQuizzes,
		"total_students":       totalStudents,
		"active_students":      activeStudents,
		"new_students_7d":      newStudents7d,
		"new_students_30d":     newStudents30d,
		"inactive_students":    inactiveStudents,
		"total_enrollments":    totalEnrollments,
		"enrollments_7d":       enrollments7d,
		"enrollments_30d":      enrollments30d,
		"unlocked_accesses":    unlockedAccesses,
		"expired_accesses":     expiredAccesses,
		"pending_accesses":     pendingAccesses,
		"total_progress":       totalProgress,
		"total_completions":    totalCompletions,
		"progress_7d":          progress7d,
		"completion_rate":      completionRate,
		"active_this_week":     activeThisWeek,
		"total_certifications": totalCertifications,
		"certifications_7d":    certifications7d,
		"certifications_30d":   certifications30d,
	})
}

// GetAnalytics returns the full analytics payload: per-course and per-type
// performance, student aggregates, trophy distribution, exam and quiz stats,
// access breakdown, 30-day trends and a merged recent activity feed.
func (anc *AnalyticsController) GetAnalytics(c *fiber.Ctx) error {
	dropOffRate, certificationRate := anc.completionAggregates()

	return c.JSON(fiber.Map{
		"course_performance":  anc.coursePerformance(),
		"course_type_stats":   anc.courseTypeStats(),
		"student_stats":       anc.studentStats(),
		"trophy_distribution": anc.trophyDistribution(),
		"exam_stats":          anc.examStats(),
		"quiz_stats":          anc.quizStats(),
		"access_by_method":    anc.accessByMethod(),
		"drop_off_rate":       dropOffRate,
		"certification_rate":  certificationRate,
		"enrollment_trend": dailyTrend(30, func(from, to time.Time) int64 {
			var count int64
			anc.DB.Model(&models.CourseEnrollment{}).
				Where("created_at >= ? AND created_at < ?", from, to).
				Count(&count)
			return count
		}),
		"certification_trend": dailyTrend(30, func(from, to time.Time) int64 {
			var count int64
			anc.DB.Model(&models.Certification{}).
				Where("issued_at >= ? AND issued_at < ?", from, to).
				Count(&count)
			return count
		}),
		"recent_activity": anc.recentActivity(20),
	})
}

func (anc *AnalyticsController) coursePerformance() []fiber.Map {
	var courses []models.Course
	anc.DB.Order("created_at ASC").Find(&courses)

	result := make([]fiber.Map, 0, len(courses))
	for _, course := range courses {
		var lessons int64
		anc.DB.Model(&models.Lesson{}).Where("course_id = ?", course.ID).Count(&lessons)

		studentIDs := services.CourseStudentIDs(anc.DB, course.ID)

		// started = any progress record in this course
		var started int64
		anc.DB.Model(&models.UserProgress{}).
			Joins("JOIN lessons ON lessons.id = user_progresses.lesson_id").
			Where("lessons.course_id = ?", course.ID).
			Distinct("user_progresses.user_id").
			Count(&started)

		finished := 0
		if lessons > 0 {
			for _, userID := range studentIDs {
				if anc.completedInCourse(userID, course.ID) >= lessons {
					finished++
				}
			}
		}

		var dropOffRate float64
		if started > 0 {
			dropOffRate = float64(started-int64(finished)) / float64(started) * 100
		}

		var certifications int64
		anc.DB.Model(&models.Certification{}).
			Where("course_id = ? AND status = ?", course.ID, models.CertPassed).
			Count(&certifications)

		result = append(result, fiber.Map{
			"course_id":       course.ID,
			"course_name":     course.Name,
			"course_type":     course.CourseType,
			"total_students":  services.CourseStudentCount(anc.DB, course.ID),
			"total_lessons":   lessons,
			"completion_rate": services.CourseCompletionRate(anc.DB, course.ID),
			"started":         started,
			"finished":        finished,
			"drop_off_rate":   dropOffRate,
			"certifications":  certifications,
		})
	}
	return result
}

func (anc *AnalyticsController) courseTypeStats() []fiber.Map {
	stats := make([]fiber.Map, 0, 4)
	for _, courseType := range []string{"sprint", "speaking", "consultancy", "special"} {
		var courses []models.Course
		anc.DB.Where("course_type = ?", courseType).Find(&courses)

		courseIDs := make([]uint, 0, len(courses))
		var students int64
		for _, course := range courses {
			courseIDs = append(courseIDs, course.ID)
			students += services.CourseStudentCount(anc.DB, course.ID)
		}

		var lessons, completed int64
		if len(courseIDs) > 0 {
			anc.DB.Model(&models.Lesson{}).Where("course_id IN ?", courseIDs).Count(&lessons)
			anc.DB.Model(&models.UserProgress{}).
				Joins("JOIN lessons ON lessons.id = user_progresses.lesson_id").
				Where("lessons.course_id IN ? AND user_progresses.completed", courseIDs).
				Count(&completed)
		}

		var rate float64
		if lessons > 0 && students > 0 {
			rate = float64(completed) / float64(lessons*students) * 100
			if rate > 100 {
				rate = 100
			}
		}

		stats = append(stats, fiber.Map{
			"course_type":     courseType,
			"total_courses":   len(courses),
			"total_students":  students,
			"completion_rate": rate,
		})
	}
	return stats
}

func (anc *AnalyticsController) studentStats() fiber.Map {
	var totalStudents int64
	anc.DB.Model(&models.User{}).Where("is_staff = ?", false).Count(&totalStudents)

	var withProgress, withCompletions int64
	anc.DB.Model(&models.UserProgress{}).
		Joins("JOIN users ON users.id = user_progresses.user_id").
		Where("users.is_staff = ?", false).
		Distinct("user_progresses.user_id").
		Count(&withProgress)
	anc.DB.Model(&models.UserProgress{}).
		Joins("JOIN users ON users.id = user_progresses.user_id").
		Where("users.is_staff = ? AND user_progresses.completed", false).
		Distinct("user_progresses.user_id").
		Count(&withCompletions)

	zeroProgress := totalStudents - withProgress
	if zeroProgress < 0 {
		zeroProgress = 0
	}

	var totalCompletions int64
	anc.DB.Model(&models.UserProgress{}).Where("completed = ?", true).Count(&totalCompletions)

	var avgLessons float64
	if totalStudents > 0 {
		avgLessons = float64(totalCompletions) / float64(totalStudents)
	}

	return fiber.Map{
		"zero_progress":           zeroProgress,
		"with_completions":        withCompletions,
		"avg_lessons_per_student": avgLessons,
	}
}

// trophyDistribution buckets students by their passed-certification count.
func (anc *AnalyticsController) trophyDistribution() fiber.Map {
	distribution := fiber.Map{}
	for _, name := range services.TrophyTierNames() {
		distribution[name] = 0
	}

	type certRow struct {
		UserID uint
		Passed int
	}
	var rows []certRow
	anc.DB.Model(&models.Certification{}).
		Select("user_id, COUNT(*) as passed").
		Where("status = ?", models.CertPassed).
		Group("user_id").
		Scan(&rows)

	for _, row := range rows {
		if tier := services.TrophyTier(row.Passed); tier != "" {
			distribution[tier] = distribution[tier].(int) + 1
		}
	}
	return distribution
}

func (anc *AnalyticsController) examStats() fiber.Map {
	var attempts, passed int64
	anc.DB.Model(&models.ExamAttempt{}).Count(&attempts)
	anc.DB.Model(&models.ExamAttempt{}).Where("passed = ?", true).Count(&passed)

	var passRate float64
	if attempts > 0 {
		passRate = float64(passed) / float64(attempts) * 100
	}

	var certifications int64
	anc.DB.Model(&models.Certification{}).
		Where("status = ?", models.CertPassed).
		Count(&certifications)

	return fiber.Map{
		"total_attempts":      attempts,
		"passed":              passed,
		"pass_rate":           passRate,
		"certifications_sent": certifications,
	}
}

func (anc *AnalyticsController) quizStats() fiber.Map {
	var attempts, passed int64
	anc.DB.Model(&models.LessonQuizAttempt{}).Count(&attempts)
	anc.DB.Model(&models.LessonQuizAttempt{}).Where("passed = ?", true).Count(&passed)

	var avgScore float64
	anc.DB.Model(&models.LessonQuizAttempt{}).
		Select("COALESCE(AVG(score), 0)").
		Scan(&avgScore)

	var passRate float64
	if attempts > 0 {
		passRate = float64(passed) / float64(attempts) * 100
	}

	return fiber.Map{
		"total_attempts": attempts,
		"passed":         passed,
		"pass_rate":      passRate,
		"average_score":  avgScore,
	}
}

func (anc *AnalyticsController) accessByMethod() fiber.Map {
	var enrollments, accesses, bundles, cohorts int64
	anc.DB.Model(&models.CourseEnrollment{}).Count(&enrollments)
	anc.DB.Model(&models.CourseAccess{}).
		Where("status = ?", models.AccessUnlocked).
		Count(&accesses)
	anc.DB.Model(&models.BundlePurchase{}).Count(&bundles)
	anc.DB.Model(&models.CohortMember{}).Count(&cohorts)

	return fiber.Map{
		"enrollment":    enrollments,
		"course_access": accesses,
		"bundle":        bundles,
		"cohort":        cohorts,
	}
}

// dailyTrend builds per-day buckets for the last n days, oldest first.
func dailyTrend(days int, count func(from, to time.Time) int64) []fiber.Map {
	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	trend := make([]fiber.Map, 0, days)
	for i := days - 1; i >= 0; i-- {
		dayStart := today.AddDate(0, 0, -i)
		dayEnd := dayStart.AddDate(0, 0, 1)
		trend = append(trend, fiber.Map{
			"date":  dayStart.Format("01/02"),
			"count": count(dayStart, dayEnd),
		})
	}
	return trend
}

// completionAggregates walks every course once and derives the cross-course
// numbers: drop-off over the union of enrolled students, and certifications
// issued relative to the student/course pairs that finished all lessons.
func (anc *AnalyticsController) completionAggregates() (dropOffRate, certificationRate float64) {
	var courses []models.Course
	anc.DB.Find(&courses)

	started := map[uint]bool{}
	finishedUsers := map[uint]bool{}
	finishedPairs := 0
	for _, course := range courses {
		var lessons int64
		anc.DB.Model(&models.Lesson{}).Where("course_id = ?", course.ID).Count(&lessons)

		for _, userID := range services.CourseStudentIDs(anc.DB, course.ID) {
			started[userID] = true
			if lessons == 0 {
				continue
			}
			if anc.completedInCourse(userID, course.ID) >= lessons {
				finishedUsers[userID] = true
				finishedPairs++
			}
		}
	}

	if len(started) > 0 {
		dropOffRate = float64(len(started)-len(finishedUsers)) / float64(len(started)) * 100
	}
	if finishedPairs > 0 {
		var certifications int64
		anc.DB.Model(&models.Certification{}).
			Where("status = ?", models.CertPassed).
			Count(&certifications)
		certificationRate = float64(certifications) / float64(finishedPairs) * 100
	}
	return dropOffRate, certificationRate
}

func (anc *AnalyticsController) completedInCourse(userID, courseID uint) int64 {
	var completed int64
	anc.DB.Model(&models.UserProgress{}).
		Joins("JOIN lessons ON lessons.id = user_progresses.lesson_id").
		Where("user_progresses.user_id = ? AND lessons.course_id = ? AND user_progresses.completed", userID, courseID).
		Count(&completed)
	return completed
}

// recentActivity merges lesson completions, significant progress updates,
// exam attempts and issued certifications into one feed, newest first.
func (anc *AnalyticsController) recentActivity(limit int) []fiber.Map {
	type event struct {
		entry fiber.Map
		at    time.Time
	}
	events := make([]event, 0, limit*4)

	username := func(userID uint) string {
		var user models.User
		if err := anc.DB.First(&user, userID).Error; err != nil {
			return ""
		}
		return user.Username
	}

	var completions []models.UserProgress
	anc.DB.Preload("Lesson").
		Where("completed = ? AND completed_at IS NOT NULL", true).
		Order("completed_at DESC").
		Limit(limit).
		Find(&completions)
	for _, progress := range completions {
		events = append(events, event{fiber.Map{
			"type":      "lesson_completed",
			"username":  username(progress.UserID),
			"detail":    progress.Lesson.Title,
			"timestamp": *progress.CompletedAt,
		}, *progress.CompletedAt})
	}

	// half-watched lessons count as activity, noise below that does not
	var updates []models.UserProgress
	anc.DB.Preload("Lesson").
		Where("completed = ? AND video_watch_percentage >= ?", false, 50).
		Order("last_accessed DESC").
		Limit(limit).
		Find(&updates)
	for _, progress := range updates {
		events = append(events, event{fiber.Map{
			"type":      "progress_update",
			"username":  username(progress.UserID),
			"detail":    progress.Lesson.Title,
			"timestamp": progress.LastAccessed,
		}, progress.LastAccessed})
	}

	var attempts []models.ExamAttempt
	anc.DB.Preload("Exam").
		Order("started_at DESC").
		Limit(limit).
		Find(&attempts)
	for _, attempt := range attempts {
		events = append(events, event{fiber.Map{
			"type":      "exam_attempt",
			"username":  username(attempt.UserID),
			"detail":    attempt.Exam.Title,
			"passed":    attempt.Passed,
			"timestamp": attempt.StartedAt,
		}, attempt.StartedAt})
	}

	var certifications []models.Certification
	anc.DB.Where("issued_at IS NOT NULL").
		Order("issued_at DESC").
		Limit(limit).
		Find(&certifications)
	for _, cert := range certifications {
		var course models.Course
		anc.DB.First(&course, cert.CourseID)
		events = append(events, event{fiber.Map{
			"type":      "certification_issued",
			"username":  username(cert.UserID),
			"detail":    course.Name,
			"timestamp": *cert.IssuedAt,
		}, *cert.IssuedAt})
	}

	sort.Slice(events, func(i, j int) bool { return events[i].at.After(events[j].at) })
	if len(events) > limit {
		events = events[:limit]
	}

	feed := make([]fiber.Map, 0, len(events))
	for _, e := range events {
		feed = append(feed, e.entry)
	}
	return feed
}

// GetStudents lists every student holding an enrollment or unlocked access,
// deduplicated, with overall progress, certification count, trophy and a
// derived status. Supports course/status/search filters and recent, progress,
// name and enrolled sorts.
func (anc *AnalyticsController) GetStudents(c *fiber.Ctx) error {
	courseFilter, _ := strconv.Atoi(c.Query("course"))
	statusFilter := c.Query("status")
	search := strings.ToLower(strings.TrimSpace(c.Query("search")))
	sortKey := c.Query("sort", "recent")

	userIDs := map[uint]bool{}

	var enrollments []models.CourseEnrollment
	anc.DB.Find(&enrollments)
	for _, e := range enrollments {
		userIDs[e.UserID] = true
	}

	var accesses []models.CourseAccess
	anc.DB.Where("status = ?", models.AccessUnlocked).Find(&accesses)
	for _, a := range accesses {
		userIDs[a.UserID] = true
	}

	if courseFilter > 0 {
		inCourse := map[uint]bool{}
		for _, id := range services.CourseStudentIDs(anc.DB, uint(courseFilter)) {
			inCourse[id] = true
		}
		for id := range userIDs {
			if !inCourse[id] {
				delete(userIDs, id)
			}
		}
	}

	type studentRow struct {
		entry      fiber.Map
		user       models.User
		progress   int
		lastActive time.Time
	}
	rows := make([]studentRow, 0, len(userIDs))
	for userID := range userIDs {
		var user models.User
		if err := anc.DB.First(&user, userID).Error; err != nil {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(user.Username), search) &&
			!strings.Contains(strings.ToLower(user.Email), search) {
			continue
		}

		// overall progress over the union of the student's courses
		courseIDs := anc.studentCourseIDs(userID)
		var totalLessons, completedInCourses int64
		if len(courseIDs) > 0 {
			anc.DB.Model(&models.Lesson{}).Where("course_id IN ?", courseIDs).Count(&totalLessons)
			anc.DB.Model(&models.UserProgress{}).
				Joins("JOIN lessons ON lessons.id = user_progresses.lesson_id").
				Where("user_progresses.user_id = ? AND lessons.course_id IN ? AND user_progresses.completed", userID, courseIDs).
				Count(&completedInCourses)
		}
		overall := 0
		if totalLessons > 0 {
			overall = int(float64(completedInCourses) / float64(totalLessons) * 100)
		}

		var completed int64
		anc.DB.Model(&models.UserProgress{}).
			Where("user_id = ? AND completed", userID).
			Count(&completed)

		certifications := services.PassedCertCount(anc.DB, userID)

		var lastActive time.Time
		var latest models.UserProgress
		if err := anc.DB.Where("user_id = ?", userID).
			Order("last_accessed DESC").First(&latest).Error; err == nil {
			lastActive = latest.LastAccessed
		}

		status := "inactive"
		switch {
		case certifications > 0:
			status = "certified"
		case overall >= 100:
			status = "completed"
		case overall > 0:
			status = "active"
		}
		if statusFilter != "" && status != statusFilter {
			continue
		}

		rows = append(rows, studentRow{
			entry: fiber.Map{
				"user_id":           user.ID,
				"username":          user.Username,
				"email":             user.Email,
				"overall_progress":  overall,
				"completed_lessons": completed,
				"certifications":    certifications,
				"trophy":            services.TrophyTier(int(certifications)),
				"last_active":       lastActive,
				"status":            status,
			},
			user:       user,
			progress:   overall,
			lastActive: lastActive,
		})
	}

	switch sortKey {
	case "progress":
		sort.Slice(rows, func(i, j int) bool { return rows[i].progress > rows[j].progress })
	case "name":
		sort.Slice(rows, func(i, j int) bool {
			return strings.ToLower(rows[i].user.Username) < strings.ToLower(rows[j].user.Username)
		})
	case "enrolled":
		sort.Slice(rows, func(i, j int) bool { return rows[i].user.DateJoined.After(rows[j].user.DateJoined) })
	default: // recent
		sort.Slice(rows, func(i, j int) bool { return rows[i].lastActive.After(rows[j].lastActive) })
	}

	students := make([]fiber.Map, 0, len(rows))
	for _, row := range rows {
		students = append(students, row.entry)
	}

	return c.JSON(fiber.Map{
		"students": students,
		"total":    len(students),
	})
}

// studentCourseIDs is the union of a student's enrolled and unlocked-access
// course ids, deduplicated.
func (anc *AnalyticsController) studentCourseIDs(userID uint) []uint {
	seen := map[uint]bool{}

	var enrollments []models.CourseEnrollment
	anc.DB.Where("user_id = ?", userID).Find(&enrollments)
	for _, e := range enrollments {
		seen[e.CourseID] = true
	}

	var accesses []models.CourseAccess
	anc.DB.Where("user_id = ? AND status = ?", userID, models.AccessUnlocked).Find(&accesses)
	for _, a := range accesses {
		seen[a.CourseID] = true
	}

	ids := make([]uint, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	return ids
}

// GetStudentDetail returns one student's per-course breakdown plus quiz and
// exam history.
func (anc *AnalyticsController) GetStudentDetail(c *fiber.Ctx) error {
	userID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid user ID",
		})
	}

	var user models.User
	if err := anc.DB.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "User not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not query database",
		})
	}

	courses := []fiber.Map{}
	for _, courseID := range anc.studentCourseIDs(uint(userID)) {
		var course models.Course
		if err := anc.DB.First(&course, courseID).Error; err != nil {
			continue
		}

		var total int64
		anc.DB.Model(&models.Lesson{}).Where("course_id = ?", courseID).Count(&total)
		completed := anc.completedInCourse(uint(userID), courseID)

		var completionRate float64
		if total > 0 {
			completionRate = float64(completed) / float64(total) * 100
		}

		var certification models.Certification
		certStatus := models.CertNotEligible
		if err := anc.DB.Where("user_id = ? AND course_id = ?", userID, courseID).
			First(&certification).Error; err == nil {
			certStatus = certification.Status
		}

		courses = append(courses, fiber.Map{
			"course_id":            course.ID,
			"course_name":          course.Name,
			"total_lessons":        total,
			"completed_lessons":    completed,
			"completion_rate":      completionRate,
			"certification_status": certStatus,
		})
	}

	var totalCompleted int64
	anc.DB.Model(&models.UserProgress{}).
		Where("user_id = ? AND completed", userID).
		Count(&totalCompleted)

	certifications := services.PassedCertCount(anc.DB, uint(userID))

	var quizAttempts []models.LessonQuizAttempt
	anc.DB.Where("user_id = ?", userID).Order("created_at DESC").Limit(20).Find(&quizAttempts)

	var examAttempts []models.ExamAttempt
	anc.DB.Where("user_id = ?", userID).Order("created_at DESC").Find(&examAttempts)

	return c.JSON(fiber.Map{
		"student": fiber.Map{
			"user_id":           user.ID,
			"username":          user.Username,
			"email":             user.Email,
			"first_name":        user.FirstName,
			"last_name":         user.LastName,
			"date_joined":       user.DateJoined,
			"last_login":        user.LastLogin,
			"completed_lessons": totalCompleted,
			"certifications":    certifications,
			"trophy":            services.TrophyTier(int(certifications)),
		},
		"courses":       courses,
		"quiz_attempts": quizAttempts,
		"exam_attempts": examAttempts,
	})
}
