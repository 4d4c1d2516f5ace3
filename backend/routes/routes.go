package routes

import (
	"log"

	"sprintlms/backend/config"
	"sprintlms/backend/controllers"
	"sprintlms/backend/middleware"
	"sprintlms/backend/services"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func SetupRoutes(app *fiber.App, db *gorm.DB, cfg *config.Config, generator *services.AIGenerator, logger *log.Logger) {
	extractor := services.NewTextExtractor()
	vimeo := services.NewVimeoClient()

	// Auth routes
	authController := controllers.NewAuthController(db, cfg)
	app.Post("/api/auth/register", authController.Register)
	app.Post("/api/auth/login", authController.Login)

	// Middleware
	authMiddleware := middleware.AuthMiddleware(cfg)
	staffMiddleware := middleware.StaffMiddleware(db, cfg)

	// Public catalog
	coursesController := controllers.NewCoursesController(db, cfg)
	app.Get("/api/courses", coursesController.GetCourses)
	app.Get("/api/courses/:slug", coursesController.GetCourseDetails)

	// Learner routes
	lessonsController := controllers.NewLessonsController(db, cfg, extractor, generator, vimeo, logger)
	app.Get("/api/my/courses", authMiddleware, coursesController.GetMyCourses)
	app.Post("/api/courses/:id/enroll", authMiddleware, coursesController.Enroll)
	app.Get("/api/courses/:slug/lessons/:lessonSlug", authMiddleware, lessonsController.GetLessonDetail)

	progressController := controllers.NewProgressController(db, cfg)
	app.Post("/api/lessons/:id/progress", authMiddleware, progressController.UpdateLessonProgress)
	app.Get("/api/courses/:id/progress", authMiddleware, progressController.GetCourseProgress)

	quizController := controllers.NewQuizController(db, cfg, extractor, generator, logger)
	app.Post("/api/quizzes/:id/attempts", authMiddleware, quizController.SubmitQuizAttempt)

	examsController := controllers.NewExamsController(db, cfg)
	app.Get("/api/courses/:id/exam", authMiddleware, examsController.GetCourseExam)
	app.Post("/api/exams/:id/attempts", authMiddleware, examsController.SubmitExamAttempt)
	app.Get("/api/my/certifications", authMiddleware, examsController.GetMyCertifications)

	// Admin routes for courses and lessons
	adminCourses := app.Group("/api/admin/courses", staffMiddleware)
	adminCourses.Post("/", coursesController.CreateCourse)
	adminCourses.Put("/:id", coursesController.UpdateCourse)
	adminCourses.Delete("/:id", coursesController.DeleteCourse)

	adminLessons := app.Group("/api/admin/lessons", staffMiddleware)
	adminLessons.Get("/", lessonsController.GetLessons)
	adminLessons.Delete("/:id", lessonsController.DeleteLesson)
	adminLessons.Post("/vimeo/verify", lessonsController.VerifyVimeoURL)
	adminLessons.Post("/vimeo", lessonsController.AddLessonFromVimeo)
	adminLessons.Post("/:id/generate", lessonsController.GenerateLessonContent)
	adminLessons.Put("/:id/content", lessonsController.UpdateGeneratedContent)
	adminLessons.Post("/:id/approve", lessonsController.ApproveLesson)
	adminLessons.Post("/ingest-pdf", lessonsController.IngestPDFLesson)

	// Admin routes for quizzes
	adminQuizzes := app.Group("/api/admin/quizzes", staffMiddleware)
	adminQuizzes.Get("/", quizController.GetQuizzes)
	adminQuizzes.Get("/lesson/:lessonId", quizController.GetLessonQuiz)
	adminQuizzes.Put("/:id", quizController.UpdateQuizSettings)
	adminQuizzes.Delete("/:id", quizController.DeleteQuiz)
	adminQuizzes.Post("/:id/questions", quizController.AddQuestion)
	adminQuizzes.Put("/:id/questions/:questionId", quizController.UpdateQuestion)
	adminQuizzes.Delete("/:id/questions/:questionId", quizController.DeleteQuestion)
	adminQuizzes.Post("/upload", quizController.UploadQuestions)

	// Admin routes for exams
	adminExams := app.Group("/api/admin/exams", staffMiddleware)
	adminExams.Post("/", examsController.CreateExam)

	// Admin routes for access grants
	accessController := controllers.NewAccessController(db, cfg)
	adminAccess := app.Group("/api/admin/access", staffMiddleware)
	adminAccess.Post("/grant", accessController.GrantAccess)
	adminAccess.Post("/revoke", accessController.RevokeAccess)
	adminAccess.Post("/bulk", accessController.BulkGrant)
	adminAccess.Post("/bundle", accessController.GrantBundle)
	adminAccess.Get("/users/:id", accessController.GetUserAccess)
	adminAccess.Get("/bundles", accessController.GetBundles)
	adminAccess.Post("/bundles", accessController.CreateBundle)
	adminAccess.Delete("/bundles/:id", accessController.DeleteBundle)
	adminAccess.Post("/cohorts", accessController.CreateCohort)
	adminAccess.Post("/cohorts/:id/members", accessController.AddCohortMember)

	// Admin analytics dashboard
	analyticsController := controllers.NewAnalyticsController(db, cfg)
	adminAnalytics := app.Group("/api/admin/analytics", staffMiddleware)
	adminAnalytics.Get("/overview", analyticsController.GetOverview)
	adminAnalytics.Get("/", analyticsController.GetAnalytics)
	adminAnalytics.Get("/students", analyticsController.GetStudents)
	adminAnalytics.Get("/students/:id", analyticsController.GetStudentDetail)
}
