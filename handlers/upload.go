package handlers

import (
	"errors"
	"io"
	"net/http"

	"betweenlines/ingest"
	"betweenlines/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// HandleChatUpload accepts a WhatsApp chat export (.txt or .zip), stages
// it, and returns the upload id plus the detected participants.
func HandleChatUpload(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		fileHeader, err := c.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "file is required (form key: file)"})
			return
		}
		if fileHeader.Size > ingest.MaxUploadBytes {
			utils.UploadsRejected.Add(1)
			c.JSON(http.StatusBadRequest, gin.H{"error": "file too large, max 10MB allowed"})
			return
		}

		src, err := fileHeader.Open()
		if err != nil {
			logger.Error("File processing failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process uploaded file"})
			return
		}
		defer src.Close()

		data, err := io.ReadAll(io.LimitReader(src, ingest.MaxUploadBytes+1))
		if err != nil {
			logger.Error("File processing failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read uploaded file"})
			return
		}

		upload, _, err := ingest.FromBytes(c.Request.Context(), logger, fileHeader.Filename, data)
		if err != nil {
			var verr *ingest.ValidationError
			if errors.As(err, &verr) {
				c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error()})
				return
			}
			logger.Error("Chat ingestion failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to ingest chat export"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"message":       "Chat export uploaded successfully",
			"upload_id":     upload.ID,
			"participants":  upload.Participants,
			"message_count": upload.MessageCount,
		})
	}
}
