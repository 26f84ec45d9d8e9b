package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"betweenlines/ingest"
	"betweenlines/store"
	"betweenlines/subscriber"
	valkeystore "betweenlines/valkey"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type analyzeRequest struct {
	You  string `json:"you" binding:"required"`
	Them string `json:"them" binding:"required"`
}

// getUpload is swapped out in tests.
var getUpload = store.GetUpload

// HandleTriggerAnalysis validates the chosen pair and queues the analysis
// on the pub/sub channel.
func HandleTriggerAnalysis(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		if id == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "upload id is required"})
			return
		}

		var req analyzeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "you and them are required"})
			return
		}

		upload, err := getUpload(c.Request.Context(), id)
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "upload not found"})
			return
		}
		if err != nil {
			logger.Error("Upload lookup failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load upload"})
			return
		}

		// Once an analysis finishes the staged chat text is gone, so a
		// re-trigger could only end in a spurious failed status.
		if err := ingest.EnsureAnalyzable(upload); err != nil {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}

		if err := ingest.ValidatePair(upload, req.You, req.Them); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		payload := subscriber.AnalysisRequestedPayload{
			UploadID: upload.ID,
			You:      req.You,
			Them:     req.Them,
		}
		message, err := json.Marshal(payload)
		if err != nil {
			logger.Error("Message serialization failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create analysis request"})
			return
		}

		ctx := c.Request.Context()
		if err := valkeystore.Client.Publish(ctx, subscriber.AnalysisRequestedChannel, string(message)).Err(); err != nil {
			logger.Error("Message publishing failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to trigger analysis"})
			return
		}

		if err := store.SetUploadStatus(ctx, upload.ID, store.StatusQueued); err != nil {
			logger.Warn("Status update failed", zap.Error(err))
		}

		c.JSON(http.StatusOK, gin.H{
			"message":   "Analysis triggered successfully",
			"upload_id": upload.ID,
		})
	}
}

// HandleGetAnalysis returns the analysis result for an upload, cache
// first, database second.
func HandleGetAnalysis(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		sugar := logger.Sugar()
		id := c.Param("id")
		if id == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "upload id is required"})
			return
		}

		data, err := store.LoadResultJSON(c.Request.Context(), id)
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error":   "Analysis not found",
				"message": "Analysis may still be processing or upload id is invalid",
			})
			return
		}
		if err != nil {
			sugar.Errorw("Analysis retrieval failed",
				"error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve analysis"})
			return
		}

		c.Header("Content-Type", "application/json")
		c.String(http.StatusOK, data)
	}
}

// HandleGetUpload returns upload metadata (participants, status).
func HandleGetUpload(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		upload, err := store.GetUpload(c.Request.Context(), id)
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "upload not found"})
			return
		}
		if err != nil {
			logger.Error("Upload lookup failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load upload"})
			return
		}
		c.JSON(http.StatusOK, upload)
	}
}

// HandleListAnalyses returns recent analyses, newest first.
func HandleListAnalyses(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		results, err := store.ListAnalyses(c.Request.Context(), logger, 100)
		if err != nil {
			logger.Error("Database query failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve analyses"})
			return
		}
		if len(results) == 0 {
			c.JSON(http.StatusOK, []store.AnalysisSummary{})
			return
		}
		c.JSON(http.StatusOK, results)
	}
}
