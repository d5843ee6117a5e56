package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"medibook-server/internal/config"
	"medibook-server/internal/handlers"
	"medibook-server/internal/middleware"
	"medibook-server/internal/models"
	"medibook-server/internal/payment"
	"medibook-server/internal/repository"
	"medibook-server/internal/service"
	"medibook-server/internal/storage"
)

// Dependencies bundles everything the route table needs.
type Dependencies struct {
	DB     *gorm.DB
	Cfg    *config.Config
	Redis  redis.UniversalClient
	Blobs  storage.BlobStore
	Events service.EventPublisher
	Logger *logrus.Logger
}

// Services are the wired core components, shared with the job scheduler.
type Services struct {
	Booking      service.BookingService
	Appointments service.AppointmentService
	Chat         service.ChatService
	Stats        service.StatsService
	Repo         repository.AppointmentRepository
}

// SetupRoutes wires repositories, services and handlers onto the router
// and returns the services for reuse by the cron scheduler.
func SetupRoutes(router *gin.Engine, deps Dependencies) *Services {
	appointmentRepo := repository.NewAppointmentRepository(deps.DB)
	chatRepo := repository.NewChatRepository(deps.DB)
	userRepo := repository.NewUserRepository(deps.DB)

	bookingService := service.NewBookingService(appointmentRepo, userRepo, deps.Cfg.Booking, deps.Events, deps.Logger)
	appointmentService := service.NewAppointmentService(appointmentRepo, deps.Events, deps.Logger, nil)
	chatService := service.NewChatService(chatRepo, deps.Blobs, deps.Redis, deps.Logger)
	statsService := service.NewStatsService(appointmentRepo, userRepo)
	paymentClient := payment.NewClient(deps.Cfg.Payment)

	authHandler := handlers.NewAuthHandler(deps.DB, deps.Cfg)
	userHandler := handlers.NewUserHandler(deps.DB, deps.Blobs)
	appointmentHandler := handlers.NewAppointmentHandler(bookingService, appointmentService, paymentClient, deps.Cfg.Payment.FeeAmount)
	chatHandler := handlers.NewChatHandler(chatService, appointmentService, deps.Logger)
	reportHandler := handlers.NewReportHandler(deps.DB, deps.Blobs, appointmentService, deps.Logger)
	adminHandler := handlers.NewAdminHandler(statsService)

	// Public routes (no authentication required)
	public := router.Group("/api/v1")
	{
		authRoutes := public.Group("/auth")
		{
			authRoutes.POST("/register", authHandler.Register)
			authRoutes.POST("/login", authHandler.Login)
			authRoutes.POST("/refresh-token", authHandler.RefreshToken)
		}
	}

	// Authenticated routes
	private := router.Group("/api/v1")
	private.Use(middleware.AuthMiddleware(deps.Cfg))
	{
		authRoutesPrivate := private.Group("/auth")
		{
			authRoutesPrivate.POST("/logout", authHandler.Logout)
			authRoutesPrivate.GET("/profile", authHandler.GetProfile)
			authRoutesPrivate.PUT("/profile", authHandler.UpdateProfile)
		}

		userRoutes := private.Group("/users")
		{
			userRoutes.GET("/doctors", userHandler.GetDoctors)
			userRoutes.GET("/doctors/:id", userHandler.GetDoctorByID)
			userRoutes.POST("/profile-photo", userHandler.UploadProfilePhoto)
		}

		doctorRoutes := private.Group("/doctors")
		doctorRoutes.Use(middleware.RoleAuthMiddleware(models.RoleDoctor))
		{
			doctorRoutes.PUT("/availability", userHandler.SetAvailability)
		}

		appointmentRoutes := private.Group("/appointments")
		{
			appointmentRoutes.POST("", middleware.RoleAuthMiddleware(models.RolePatient), appointmentHandler.CreateAppointment)
			appointmentRoutes.GET("", appointmentHandler.GetAppointmentsForUser)
			appointmentRoutes.GET("/:id", appointmentHandler.GetAppointmentByID)
			appointmentRoutes.POST("/:id/payment/order", appointmentHandler.CreatePaymentOrder)
			appointmentRoutes.POST("/:id/payment/confirm", appointmentHandler.ConfirmPayment)
			appointmentRoutes.PATCH("/:id/status", appointmentHandler.UpdateAppointmentStatus)
			appointmentRoutes.PATCH("/:id/reschedule", appointmentHandler.RescheduleAppointment)
			appointmentRoutes.DELETE("/:id", middleware.RoleAuthMiddleware(models.RolePatient), appointmentHandler.DeleteAppointment)

			// Chat channel scoped to one appointment
			appointmentRoutes.GET("/:id/chat", chatHandler.GetHistory)
			appointmentRoutes.POST("/:id/chat", chatHandler.PostMessage)
			appointmentRoutes.GET("/:id/chat/ws", chatHandler.Subscribe)

			// Medical report bundle
			appointmentRoutes.POST("/:id/reports", reportHandler.UploadReport)
			appointmentRoutes.GET("/:id/reports", reportHandler.ListReports)
			appointmentRoutes.DELETE("/:id/reports", reportHandler.DeleteReport)

			// Prescriptions
			appointmentRoutes.POST("/:id/prescriptions", middleware.RoleAuthMiddleware(models.RoleDoctor), reportHandler.CreatePrescription)
			appointmentRoutes.GET("/:id/prescriptions", reportHandler.ListPrescriptions)
		}

		adminRoutes := private.Group("/admin")
		adminRoutes.Use(middleware.RoleAuthMiddleware(models.RoleAdmin))
		{
			adminRoutes.GET("/stats", adminHandler.GetStats)
			adminRoutes.GET("/stats/export", adminHandler.ExportStats)
		}
	}

	// Uploaded blobs are served statically.
	router.Static(deps.Cfg.Uploads.BaseURL, deps.Cfg.Uploads.Dir)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "UP"})
	})

	return &Services{
		Booking:      bookingService,
		Appointments: appointmentService,
		Chat:         chatService,
		Stats:        statsService,
		Repo:         appointmentRepo,
	}
}
