// Package api assembles the HTTP surface: middleware order, route table
// and the defaults for optional collaborators.
package api

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/swiftserve/swiftserve-backend/internal/apperr"
	"github.com/swiftserve/swiftserve-backend/internal/auth"
	"github.com/swiftserve/swiftserve-backend/internal/handlers"
	"github.com/swiftserve/swiftserve-backend/internal/lifecycle"
	"github.com/swiftserve/swiftserve-backend/internal/middleware"
	"github.com/swiftserve/swiftserve-backend/internal/services"
	"github.com/swiftserve/swiftserve-backend/pkg/utils"
	"gorm.io/gorm"
)

const (
	defaultLoginLimit  = 5
	defaultLoginWindow = time.Minute
)

// Deps are the collaborators the routes need. DB, Sessions, Engine and
// Images are required; the rest fall back to in-process defaults.
type Deps struct {
	DB       *gorm.DB
	Sessions *auth.Service
	Engine   *lifecycle.Engine
	Images   handlers.ImageStore

	Mailer       handlers.Mailer
	GarageCache  handlers.GarageCache
	LoginLimiter middleware.Limiter

	Cookies      middleware.CookieOptions
	AllowOrigins []string
	AdminEmail   string
	// UploadDir is served under /uploads when set.
	UploadDir string
}

func NewRouter(d Deps) *gin.Engine {
	if d.Mailer == nil {
		d.Mailer = utils.NewMailer(utils.MailerConfig{})
	}
	if d.LoginLimiter == nil {
		d.LoginLimiter = services.NewMemoryRateLimiter(defaultLoginLimit, defaultLoginWindow)
	}

	r := gin.New()
	r.Use(middleware.RequestLogger(), gin.Recovery())
	// Without origins the API is same-origin only. cors.New panics on an
	// empty list.
	if len(d.AllowOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     d.AllowOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.CSRFHeaderName},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}
	r.NoRoute(func(c *gin.Context) {
		status, body := apperr.ToResponse(apperr.NotFound("Not found."))
		c.JSON(status, body)
	})

	if d.UploadDir != "" {
		r.Static("/uploads", d.UploadDir)
	}
	r.GET("/health", handlers.Health(d.DB))

	db, engine := d.DB, d.Engine
	api := r.Group("/api")
	api.Use(middleware.Session(d.Sessions, d.DB), middleware.CSRF())
	{
		// Public routes
		authRoutes := api.Group("/auth")
		{
			authRoutes.GET("/csrf/", handlers.CSRFToken(d.Cookies))
			authRoutes.POST("/login/", middleware.RateLimit(d.LoginLimiter, "Too many login attempts"),
				handlers.Login(db, d.Sessions, d.Cookies))
			authRoutes.POST("/logout/", handlers.Logout(d.Cookies))
			authRoutes.GET("/user/", middleware.RequireAuth(), handlers.CurrentUser(db))
		}

		api.POST("/car-owners/register/", handlers.RegisterCarOwner(db, d.Mailer))
		api.POST("/mechanics/register/", handlers.RegisterMechanic(db, d.Mailer, d.AdminEmail))
		api.POST("/garages/register/", handlers.RegisterGarage(db, d.Mailer, d.AdminEmail))
		api.POST("/service-inquiry/", handlers.SubmitServiceInquiry(db, d.Mailer, d.AdminEmail))

		api.GET("/product-categories/", handlers.ListCategories(db))
		products := api.Group("/products")
		{
			products.GET("/", handlers.ListProducts(db))
			products.GET("/featured/", handlers.FeaturedProducts(db))
			products.GET("/on_sale/", handlers.OnSaleProducts(db))
			products.GET("/:slug/", handlers.GetProduct(db))
			products.POST("/", middleware.RequireAdmin(), handlers.CreateProduct(db))
		}

		// Protected routes
		protected := api.Group("/")
		protected.Use(middleware.RequireAuth())
		{
			protected.GET("/car-owners/me/", handlers.CarOwnerMe(db))

			mechanics := protected.Group("/mechanics")
			{
				mechanics.GET("/me/", handlers.MechanicMe(db))
				mechanics.GET("/pending/", middleware.RequireAdmin(), handlers.PendingMechanics(db))
				mechanics.POST("/:id/approve/", middleware.RequireAdmin(), handlers.ApproveMechanic(db, d.Mailer))
			}

			garages := protected.Group("/garages")
			{
				garages.GET("/", handlers.ListGarages(db, d.GarageCache))
				garages.GET("/me/", handlers.GarageMe(db))
				garages.GET("/pending/", middleware.RequireAdmin(), handlers.PendingGarages(db))
				garages.POST("/:id/approve/", middleware.RequireAdmin(), handlers.ApproveGarage(db, d.Mailer, d.GarageCache))
				garages.POST("/:id/upload_images/", handlers.UploadGarageImages(db, d.Images, d.GarageCache))
			}

			cars := protected.Group("/cars")
			{
				cars.GET("/", handlers.ListCars(db))
				cars.POST("/", handlers.CreateCar(db))
			}

			requests := protected.Group("/service-requests")
			{
				requests.GET("/", handlers.ListServiceRequests(engine))
				requests.POST("/", handlers.CreateServiceRequest(engine))
				requests.GET("/:id/", handlers.GetServiceRequest(engine))
				requests.GET("/:id/earnings/", handlers.ServiceRequestEarnings(engine))
				requests.POST("/:id/accept_job/", handlers.AcceptJob(engine))
				requests.POST("/:id/assign_mechanic/", handlers.AssignMechanic(engine))
				requests.POST("/:id/pickup_car/", handlers.PickupCar(engine))
				requests.POST("/:id/deliver_to_garage/", handlers.DeliverToGarage(engine))
				requests.POST("/:id/add_work_item/", handlers.AddWorkItem(engine))
				requests.DELETE("/:id/remove_work_item/", handlers.RemoveWorkItem(engine))
				requests.POST("/:id/complete_service/", handlers.CompleteService(engine))
				requests.POST("/:id/return_to_owner/", handlers.ReturnToOwner(engine))
			}

			notifications := protected.Group("/notifications")
			{
				notifications.GET("/", handlers.ListNotifications(db))
				notifications.POST("/:id/mark_read/", handlers.MarkNotificationRead(db))
				notifications.POST("/send_to_mechanics/", middleware.RequireAdmin(), handlers.SendToMechanics(db))
				notifications.POST("/send_to_garages/", middleware.RequireAdmin(), handlers.SendToGarages(db))
			}

			orders := protected.Group("/orders")
			{
				orders.GET("/", handlers.ListOrders(db))
				orders.POST("/create_order/", handlers.CreateOrder(db))
			}
		}
	}

	return r
}
