package routes

import (
	"etaca_backend/internal/handlers"
	"etaca_backend/internal/middleware"
	"etaca_backend/internal/models"
	"etaca_backend/internal/services"

	"github.com/gin-gonic/gin"
)

// SetupRoutes регистрирует все маршруты API.
func SetupRoutes(
	r *gin.Engine,
	auth services.AuthService,
	authHandler *handlers.AuthHandler,
	orgHandler *handlers.OrganizationHandler,
	goalHandler *handlers.GoalHandler,
	donationHandler *handlers.DonationHandler,
) {
	api := r.Group("/api/v1")

	// 🌍 Публичные маршруты (донор и шлюз)
	{
		api.POST("/auth/login", authHandler.Login)
		api.POST("/organizations", orgHandler.Register)
		api.GET("/organizations/:slug", orgHandler.GetPublic)
		api.GET("/organizations/:slug/qr", orgHandler.QRCode)
		api.POST("/donations", donationHandler.Initiate)
		api.GET("/donations/:external_ref", donationHandler.GetByExternalRef)

		// S2S callback шлюза. Аутентификация — HMAC-подпись payload'а,
		// а не JWT, поэтому маршрут публичный.
		api.POST("/webhooks/fiserv", donationHandler.Webhook)
	}

	// 🏢 Кабинет организации
	org := api.Group("/org")
	org.Use(middleware.AuthMiddleware(auth), middleware.RequireRoles(models.UserRoleOrgOwner))
	{
		org.GET("/donations", donationHandler.List)
		org.GET("/donations/export", donationHandler.ExportCSV)
		org.PUT("/payment-config", orgHandler.UpdatePaymentConfig)

		org.POST("/goals", goalHandler.Create)
		org.GET("/goals", goalHandler.List)
		org.PUT("/goals/:id", goalHandler.Update)
		org.DELETE("/goals/:id", goalHandler.Deactivate)
	}

	// 🛡 Админка
	admin := api.Group("/admin")
	admin.Use(middleware.AuthMiddleware(auth), middleware.RequireRoles(models.UserRoleAdmin))
	{
		admin.GET("/organizations", orgHandler.List)
		admin.POST("/organizations/:id/activate", orgHandler.Activate)
		admin.POST("/organizations/:id/suspend", orgHandler.Suspend)
	}
}
