package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"betweenlines/groq"
	"betweenlines/handlers"
	"betweenlines/subscriber"
	"betweenlines/utils"
	"betweenlines/web"

	valkeystore "betweenlines/valkey"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"betweenlines/bot"
)

func main() {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.TimeKey = ""
	cfg.EncoderConfig.EncodeDuration = zapcore.MillisDurationEncoder
	logger, err := cfg.Build()
	if err != nil {
		log.Fatalf("cannot initialize logger: %v", err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	// Initialize Valkey
	valkeystore.InitValkey(logger)

	// Initialize PostgreSQL database
	if err := utils.InitDB(logger); err != nil {
		sugar.Fatalw("failed to init database",
			"error", err)
	}
	defer utils.CloseDB(logger)

	// Create database schema
	if err := utils.CreateSchema(logger); err != nil {
		sugar.Fatalw("failed to create database schema",
			"error", err)
	}

	// Initialize S3
	if err := utils.InitS3(logger); err != nil {
		sugar.Fatalw("failed to init s3",
			"error", err)
	}

	// Groq client; an empty key means every analysis uses the heuristic
	// fallback scorer.
	apiKey := os.Getenv("GROQ_API_KEY")
	if apiKey == "" {
		sugar.Warn("GROQ_API_KEY is not set, AI scoring disabled")
	}
	ai := groq.NewClient(apiKey, utils.GetEnvOrDefault("GROQ_MODEL", groq.DefaultModel), logger)

	// Start analysis subscriber in background
	go subscriber.StartSubscriber(logger, ai)

	// Hourly cleanup of uploads that were never analyzed
	retention := time.Duration(utils.GetEnvInt("UPLOAD_RETENTION_HOURS", 24)) * time.Hour
	c := cron.New()
	if _, err := c.AddFunc("@hourly", func() {
		if err := subscriber.CleanupStaleUploads(logger, retention); err != nil {
			sugar.Errorw("stale upload cleanup failed",
				"error", err)
		}
	}); err != nil {
		sugar.Fatalw("failed to schedule cleanup",
			"error", err)
	}
	c.Start()
	defer c.Stop()

	// Optional Slack front end
	botToken := os.Getenv("SLACK_BOT_TOKEN")
	appToken := os.Getenv("SLACK_APP_TOKEN")
	if botToken != "" && appToken != "" {
		go func() {
			if err := bot.StartSlackBot(logger, ai, botToken, appToken); err != nil {
				sugar.Errorw("slack bot stopped",
					"error", err)
			}
		}()
	} else {
		sugar.Info("Slack tokens not set, bot front end disabled")
	}

	// Setup HTTP server
	r := gin.New()
	sugar.Info("Creating router")

	r.Use(ginzap.Ginzap(logger, time.RFC3339, true))
	r.Use(ginzap.RecoveryWithZap(logger, true))

	// Chat analysis routes
	r.POST("/chats/upload", handlers.HandleChatUpload(logger))
	r.GET("/chats/list", handlers.HandleListAnalyses(logger))
	r.GET("/chats/:id", handlers.HandleGetUpload(logger))
	r.POST("/chats/:id/analyze", handlers.HandleTriggerAnalysis(logger))
	r.GET("/chats/:id/analysis", handlers.HandleGetAnalysis(logger))
	r.GET("/chats/:id/export.json", handlers.HandleExportJSON(logger))
	r.GET("/chats/:id/export.pdf", handlers.HandleExportPDF(logger))

	// Operational routes
	r.GET("/metrics", handlers.HandleMetrics())
	r.GET("/db-status", handlers.HandleDBStatus())
	r.GET("/healthcheck", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"message": "ok"})
	})

	web.RegisterRoutes(r)

	port := utils.GetEnvOrDefault("APP_PORT", "5000")
	sugar.Infow("Running on port",
		"port", port)
	r.Run(fmt.Sprintf(":%s", port))
}
