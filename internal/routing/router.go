// Package routing wires the HTTP routes to their handlers and middleware.
package routing

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"tfc-server/internal/config"
	"tfc-server/internal/handlers"
	"tfc-server/internal/managers"
	"tfc-server/internal/middleware"
	"tfc-server/internal/schemas"
	"tfc-server/internal/utils"
)

func InitRouter(databaseMgr managers.DatabaseMgr, mailMgr managers.MailMgr, cfg *config.Config) *gin.Engine {
	// Initialize router with logging and recovery middleware
	router := gin.New()
	// Initialize middleware
	setupCommonMiddleware(router)
	// Setup routes
	setupRoutes(router, databaseMgr, mailMgr, cfg)

	return router
}

func setupCommonMiddleware(router *gin.Engine) {
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.InjectTrace())
	router.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"http://localhost:19006", "http://localhost:19007", "http://127.0.0.1:19006", "http://127.0.0.1:19007"},
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Accept", "Authorization", "Content-Type", "Origin"},
		ExposeHeaders: []string{"Content-Length", "Content-Type", "X-Trace-Id"},
	}))
	router.Use(middleware.SanitizePath())
	router.Use(middleware.LogRequest())
}

func setupRoutes(router *gin.Engine, databaseMgr managers.DatabaseMgr, mailMgr managers.MailMgr, cfg *config.Config) {
	// Set up version route
	router.GET("/", func(c *gin.Context) {
		metadata := &schemas.MetadataDTO{
			ApiVersion: "main:latest",
			ApiName:    "TFC Server",
		}
		utils.WriteAndLogResponse(c, metadata, http.StatusOK)
	})

	// Set up health route
	router.GET("/health", func(c *gin.Context) {
		// Ping the database
		var one int
		if err := databaseMgr.GetPool().QueryRow(c, "SELECT 1").Scan(&one); err != nil {
			c.String(http.StatusInternalServerError, "Database not responding")
			return
		}
		c.Status(http.StatusOK)
	})

	// Set up API routes
	apiRouter := router.Group("/api")
	{
		authHdl := handlers.NewAuthHandler(databaseMgr, mailMgr, cfg)

		// Set up user routes
		userRouter := apiRouter.Group("/users")
		userRoutes(userRouter, authHdl)

		// Set up recovery routes
		authRouter := apiRouter.Group("/auth")
		authRoutes(authRouter, authHdl)
	}
}

func userRoutes(userRouter *gin.RouterGroup, authHdl handlers.AuthHdl) {
	userRouter.POST("", middleware.ValidateAndSanitizeStruct(&schemas.RegistrationRequest{}), authHdl.RegisterUser)
	userRouter.POST("/login", middleware.ValidateAndSanitizeStruct(&schemas.LoginRequest{}), authHdl.LoginUser)
}

func authRoutes(authRouter *gin.RouterGroup, authHdl handlers.AuthHdl) {
	authRouter.POST("/recover-username", middleware.ValidateAndSanitizeStruct(&schemas.RecoverUsernameRequest{}), authHdl.RecoverUsername)
	authRouter.POST("/forgot-password", middleware.ValidateAndSanitizeStruct(&schemas.ForgotPasswordRequest{}), authHdl.ForgotPassword)
	authRouter.POST("/reset-password", middleware.ValidateAndSanitizeStruct(&schemas.ResetPasswordRequest{}), authHdl.ResetPassword)
}
