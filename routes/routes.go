package routes

import (
	"net/http"
	"time"

	"github.com/periodcalm/period-calm-website-sub000/controllers"
	"github.com/periodcalm/period-calm-website-sub000/middlewares"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type Deps struct {
	JWTSecret   []byte
	CORSOrigins []string
	Log         *zap.Logger
	Accounts    middlewares.AccountLookup

	Auth     *controllers.AuthController
	User     *controllers.UserController
	Device   *controllers.DeviceController
	Realtime *controllers.RealtimeController
	Cycle    *controllers.CycleController
	Admin    *controllers.AdminController
}

func SetupRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if d.Log != nil {
		r.Use(middlewares.RequestLogger(d.Log))
	}
	r.Use(cors.New(corsConfig(d.CORSOrigins)))

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Public auth routes
	auth := r.Group("/auth")
	{
		auth.POST("/register", d.Auth.Register)
		auth.POST("/login", d.Auth.Login)
		auth.POST("/forgot-password", d.Auth.ForgotPassword)
		auth.POST("/reset-password", d.Auth.ResetPassword)
	}

	authed := middlewares.AuthMiddleware(d.JWTSecret)

	user := r.Group("/user", authed)
	{
		user.GET("/profile", d.User.GetProfile)
		user.PUT("/profile", d.User.UpdateProfile)
		user.POST("/notifications/toggle", d.User.ToggleNotifications)
		user.GET("/alerts", d.User.ListAlerts)
		user.POST("/devices", d.Device.Register)
		user.GET("/alerts/ws", d.Realtime.AlertsWS)
	}

	cycle := r.Group("/cycle", authed)
	{
		cycle.GET("/records", d.Cycle.ListRecords)
		cycle.PUT("/records/:date", d.Cycle.SaveRecord)
		cycle.DELETE("/records/:date", d.Cycle.DeleteRecord)
		cycle.GET("/prediction", d.Cycle.Prediction)
		cycle.GET("/insights", d.Cycle.Insights)
		cycle.POST("/export", d.Cycle.ExportCSV)
		cycle.POST("/import", d.Cycle.Import)
	}

	admin := r.Group("/admin", authed, middlewares.AdminOnly(d.Accounts))
	{
		admin.GET("", d.Admin.Resources)
		admin.GET("/:resource", d.Admin.List)
		admin.POST("/:resource", d.Admin.Create)
		admin.GET("/:resource/:id", d.Admin.Get)
		admin.PATCH("/:resource/:id", d.Admin.Update)
		admin.DELETE("/:resource/:id", d.Admin.Delete)
	}

	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			cfg.AllowCredentials = false
			return cfg
		}
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		cfg.AllowCredentials = false
		return cfg
	}
	cfg.AllowOrigins = origins
	return cfg
}
