package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"

	"betweenlines/export"
	"betweenlines/store"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// HandleExportJSON serves the stored result as a JSON attachment.
func HandleExportJSON(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		data, err := store.LoadResultJSON(c.Request.Context(), id)
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Analysis not found"})
			return
		}
		if err != nil {
			logger.Error("Analysis retrieval failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve analysis"})
			return
		}

		c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="betweenlines-%s.json"`, id))
		c.Header("Content-Type", "application/json")
		c.String(http.StatusOK, data)
	}
}

// HandleExportPDF renders the stored result as a PDF report.
func HandleExportPDF(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		result, err := store.LoadResult(c.Request.Context(), id)
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Analysis not found"})
			return
		}
		if err != nil {
			logger.Error("Analysis retrieval failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve analysis"})
			return
		}

		var buf bytes.Buffer
		if err := export.WritePDF(&buf, result); err != nil {
			logger.Error("PDF rendering failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to render PDF"})
			return
		}

		c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="betweenlines-%s.pdf"`, id))
		c.Data(http.StatusOK, "application/pdf", buf.Bytes())
	}
}
