package router

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/tempoedu/tempo-api/config"
	"github.com/tempoedu/tempo-api/database"
	"github.com/tempoedu/tempo-api/handlers"
	admin_handlers "github.com/tempoedu/tempo-api/handlers/admin"
	auth_handlers "github.com/tempoedu/tempo-api/handlers/auth"
	student_handlers "github.com/tempoedu/tempo-api/handlers/student"
	subscription_handlers "github.com/tempoedu/tempo-api/handlers/subscription"
	teacher_handlers "github.com/tempoedu/tempo-api/handlers/teacher"
	"github.com/tempoedu/tempo-api/model"
	"github.com/tempoedu/tempo-api/services"
	"github.com/tempoedu/tempo-api/utils/auth"
	"github.com/tempoedu/tempo-api/utils/cache"
	"github.com/tempoedu/tempo-api/utils/middleware"
)

// SetupRoutes wires middleware, services and handlers onto the fiber app.
func SetupRoutes(app *fiber.App, store database.Storage, getEnv *config.EnvironmentVariable) {
	if getEnv.JWT_SECRET == "" {
		log.Fatal("JWT_SECRET environment variable is not set")
	}

	jwtIssuer := getEnv.JWT_ISSUER
	if jwtIssuer == "" {
		jwtIssuer = "tempo-api"
	}

	jwtManager := auth.NewJWTManager(auth.JWTConfig{
		Secret: getEnv.JWT_SECRET,
		Expiry: auth.DefaultTokenExpiry,
		Issuer: jwtIssuer,
	})

	db := store.GetDB()

	// Redis-backed lockout on the login endpoints; absent Redis just means
	// no lockout, never a blocked request.
	var bruteForce *middleware.BruteForceProtection
	if getEnv.REDIS_URL != "" {
		redisCache, err := cache.NewRedisCache(getEnv.REDIS_URL)
		if err != nil {
			log.Printf("Warning: Failed to connect to Redis: %v. Brute force protection disabled.", err)
		} else {
			bruteForce = middleware.NewBruteForceProtection(redisCache)
		}
	}

	authMiddleware := middleware.NewAuthMiddleware(jwtManager)

	// Services
	courseService := services.NewCourseService(db, services.DefaultPricing())
	allocationService := services.NewAllocationService(db)
	subscriptionService := services.NewSubscriptionService(db)

	// Handlers
	authHandler := auth_handlers.NewAuthHandler(db, jwtManager, allocationService, bruteForce)
	studentHandler := student_handlers.NewStudentHandler(db, courseService)
	teacherHandler := teacher_handlers.NewTeacherHandler(db, courseService)
	adminHandler := admin_handlers.NewAdminHandler(db, courseService, allocationService)
	subscriptionHandler := subscription_handlers.NewSubscriptionHandler(db, subscriptionService)

	middleware.SetupSecurity(app, middleware.SecurityConfig{
		AllowedOrigins:    getEnv.ALLOWED_ORIGINS,
		RateLimitRequests: 100,
		RateLimitWindow:   1 * time.Minute,
	})

	// Health check endpoint (public)
	app.Get("/ping", handlers.HandleCheckHealth)

	api := app.Group("/api")

	// Auth routes (public)
	authGroup := api.Group("/auth")
	authGroup.Post("/register", authHandler.Register)
	if bruteForce != nil {
		lockout := bruteForce.CheckAndRecordAttempt()
		authGroup.Post("/login", lockout, authHandler.Login)
		authGroup.Post("/teacher-login", lockout, authHandler.TeacherLogin)
		authGroup.Post("/admin-login", lockout, authHandler.AdminLogin)
	} else {
		authGroup.Post("/login", authHandler.Login)
		authGroup.Post("/teacher-login", authHandler.TeacherLogin)
		authGroup.Post("/admin-login", authHandler.AdminLogin)
	}
	authGroup.Post("/logout", authHandler.Logout)

	// Student routes: public catalog plus student-only purchase and access
	studentGroup := api.Group("/student")
	studentGroup.Get("/browse", studentHandler.Browse)
	studentGroup.Get("/featured", studentHandler.Featured)
	studentGroup.Get("/subjects", studentHandler.Subjects)
	studentGroup.Get("/classes", studentHandler.Classes)
	studentGroup.Get("/purchased-courses", authMiddleware.RequireRole(model.RoleStudent), studentHandler.PurchasedCourses)
	studentGroup.Get("/course/:id", studentHandler.CourseDetails)
	studentGroup.Post("/course/:id/purchase", authMiddleware.RequireRole(model.RoleStudent), studentHandler.Purchase)
	studentGroup.Get("/course/:id/access", authMiddleware.RequireRole(model.RoleStudent), studentHandler.Access)

	// Teacher routes
	teacherGroup := api.Group("/teacher", authMiddleware.RequireRole(model.RoleTeacher))
	teacherGroup.Post("/courses", teacherHandler.CreateCourse)
	teacherGroup.Get("/courses", teacherHandler.ListCourses)
	teacherGroup.Put("/courses/:id", teacherHandler.UpdateCourse)
	teacherGroup.Post("/courses/:id/video", teacherHandler.UploadVideo)
	teacherGroup.Get("/sales/overview", teacherHandler.SalesOverview)

	// Admin routes
	adminGroup := api.Group("/admin", authMiddleware.RequireRole(model.RoleAdmin))
	adminGroup.Get("/courses", adminHandler.ListCourses)
	adminGroup.Put("/courses/:id/approve", adminHandler.ApproveCourse)
	adminGroup.Delete("/courses/:id/reject", adminHandler.RejectCourse)
	adminGroup.Get("/teachers", adminHandler.ListTeachers)
	adminGroup.Get("/students", adminHandler.ListStudents)
	adminGroup.Get("/teacher-accounts/unallocated", adminHandler.UnallocatedAccounts)
	adminGroup.Post("/teacher-accounts/create", adminHandler.CreateAccount)
	adminGroup.Post("/teacher-accounts/allocate", adminHandler.AllocateAccount)

	// Subscription routes
	subscriptionGroup := api.Group("/subscriptions")
	subscriptionGroup.Post("/", authMiddleware.Required(), subscriptionHandler.Create)
	subscriptionGroup.Get("/stats", authMiddleware.RequireRole(model.RoleAdmin), subscriptionHandler.Stats)
	subscriptionGroup.Get("/user/:userId", authMiddleware.Required(), subscriptionHandler.ForUser)
	subscriptionGroup.Get("/", authMiddleware.RequireRole(model.RoleAdmin), subscriptionHandler.List)
	subscriptionGroup.Patch("/:id/status", authMiddleware.RequireRole(model.RoleAdmin), subscriptionHandler.UpdateStatus)
	subscriptionGroup.Patch("/:id/cancel", authMiddleware.Required(), subscriptionHandler.Cancel)
	subscriptionGroup.Post("/:id/renew", authMiddleware.Required(), subscriptionHandler.Renew)
}
