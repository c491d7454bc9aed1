package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mess-suite/mess-web/internal/app/domain"
	"github.com/mess-suite/mess-web/internal/app/domain/attendance"
	"github.com/mess-suite/mess-web/internal/app/domain/auth"
	"github.com/mess-suite/mess-web/internal/app/domain/billing"
	"github.com/mess-suite/mess-web/internal/app/domain/dashboard"
	"github.com/mess-suite/mess-web/internal/app/domain/meals"
	"github.com/mess-suite/mess-web/internal/app/domain/users"
	"github.com/mess-suite/mess-web/internal/app/middleware"
	"github.com/mess-suite/mess-web/internal/app/upstream"
)

type AppHandlers struct {
	Auth       *auth.AuthHandlers
	Dashboard  *dashboard.DashboardHandlers
	Meals      *meals.MealsHandlers
	Attendance *attendance.AttendanceHandlers
	Users      *users.UsersHandlers
}

// Setup wires the handlers to the upstream client and registers every route.
func Setup(r *gin.Engine, client upstream.Client, log *zap.Logger) {
	handlers := setupDependencies(client, log)
	setupRouter(r, handlers, client, log)
}

func setupDependencies(client upstream.Client, log *zap.Logger) *AppHandlers {
	baseHandler := domain.NewBaseHandler(log)
	billingService := billing.NewService(client, log)

	return &AppHandlers{
		Auth:       auth.NewAuthHandlers(client, log),
		Dashboard:  dashboard.NewDashboardHandlers(baseHandler, client, billingService),
		Meals:      meals.NewMealsHandlers(baseHandler, client),
		Attendance: attendance.NewAttendanceHandlers(baseHandler, client),
		Users:      users.NewUsersHandlers(baseHandler, client),
	}
}

func setupRouter(r *gin.Engine, h *AppHandlers, verifier middleware.TokenVerifier, log *zap.Logger) {
	// Credential routes stay outside the auth gate.
	authGroup := r.Group("/auth")
	{
		authGroup.POST("/login", h.Auth.Login)
		authGroup.POST("/signup", h.Auth.Signup)
	}

	// Every route below verifies the session token upstream before running.
	protected := r.Group("/")
	protected.Use(middleware.RequireAuth(verifier, log))
	{
		protected.POST("/auth/logout", h.Auth.Logout)

		protected.GET("/dashboard", h.Dashboard.Show)
		protected.GET("/dashboard/history", h.Dashboard.History)
		protected.POST("/dashboard/pay", h.Dashboard.Pay)
		protected.GET("/payment/success", h.Dashboard.PaymentSuccess)

		protected.GET("/meals", h.Meals.List)
	}

	// Admin-only management surfaces. The role comes from the verify
	// response, never from the cookie.
	admin := r.Group("/")
	admin.Use(middleware.RequireAuth(verifier, log), middleware.RequireAdmin(log))
	{
		admin.GET("/admin", h.Dashboard.Admin)

		admin.POST("/meals", h.Meals.Create)
		admin.PUT("/meals/:id", h.Meals.Update)
		admin.DELETE("/meals/:id", h.Meals.Delete)

		admin.GET("/attendance", h.Attendance.List)
		admin.POST("/attendance", h.Attendance.Mark)
		admin.DELETE("/attendance/:id", h.Attendance.Delete)
		admin.POST("/attendance/water-charge", h.Attendance.WaterCharge)

		admin.GET("/users", h.Users.List)
		admin.POST("/users", h.Users.Create)
		admin.PUT("/users/:id", h.Users.Update)
		admin.DELETE("/users/:id", h.Users.Delete)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "page not found"})
	})
}
