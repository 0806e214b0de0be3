package main

import (
	"log"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/linket-app/linket-go/api"
	"github.com/linket-app/linket-go/logging"
	"github.com/linket-app/linket-go/pkg/config"
	"github.com/linket-app/linket-go/tenant"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found -- config defaults will be used")
	}

	logger, err := logging.NewChanneledLogger(nil)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	tenantManager, err := tenant.NewManager(logger)
	if err != nil {
		log.Fatalf("Failed to initialize tenant manager: %v", err)
	}

	r := gin.Default()
	r.SetTrustedProxies([]string{"127.0.0.1", "::1"})

	r.Use(cors.New(cors.Config{
		AllowOrigins: []string{
			"http://localhost:3000",
			"http://127.0.0.1:3000",
			"http://[::1]:3000",
		},
		AllowMethods: []string{"GET", "OPTIONS"},
		AllowHeaders: []string{
			"Origin", "Content-Type", "Accept", "Authorization",
			"X-Tenant-ID", "X-Request-ID", "X-Requested-With",
		},
		AllowCredentials: true,
		ExposeHeaders:    []string{"Content-Type", "X-Request-ID"},
	}))

	r.Use(api.RequestID())

	handlers := api.NewAnalyticsHandlers(logger)

	v1 := r.Group("/api/v1")
	v1.GET("/health", handlers.HandleHealth)

	analyticsRoutes := v1.Group("/analytics")
	analyticsRoutes.Use(api.TenantContext(tenantManager, logger))
	analyticsRoutes.Use(api.TenantAuth())
	analyticsRoutes.GET("/rollup", handlers.HandleRollup)

	logger.System().Info("Linket analytics server starting", "port", config.Port)

	server := &http.Server{
		Addr:         ":" + config.Port,
		Handler:      r,
		ReadTimeout:  config.ServerReadTimeout,
		WriteTimeout: config.ServerWriteTimeout,
		IdleTimeout:  config.ServerIdleTimeout,
	}

	if err := server.ListenAndServe(); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
