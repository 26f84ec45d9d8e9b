package handlers

import (
	"net/http"

	"betweenlines/utils"

	"github.com/gin-gonic/gin"
)

func HandleMetrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"uploads_total":          utils.UploadsTotal.Value(),
			"uploads_rejected_total": utils.UploadsRejected.Value(),
			"analyses_total":         utils.AnalysesTotal.Value(),
			"analyses_failed_total":  utils.AnalysesFailed.Value(),
			"groq_fallback_total":    utils.GroqFallbackTotal.Value(),
		})
	}
}
