// Package ingest is the shared pipeline behind the HTTP handlers, the
// pub/sub worker, and the Slack bot: validate an uploaded chat export,
// stage it, and run the analysis for a chosen pair.
package ingest

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"betweenlines/analyzer"
	"betweenlines/chat"
	"betweenlines/store"
	"betweenlines/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MaxUploadBytes caps chat exports at 10 MiB.
const MaxUploadBytes = 10 << 20

// Bucket and store access goes through these vars so tests can run the
// pipeline without infrastructure.
var (
	uploadObject    = utils.UploadObject
	downloadObject  = utils.DownloadObject
	deleteObject    = utils.DeleteObject
	createUpload    = store.CreateUpload
	getUpload       = store.GetUpload
	setUploadStatus = store.SetUploadStatus
	saveResult      = store.SaveResult
)

// ValidationError marks client-side problems (bad extension, not an
// export, too few participants) so handlers can answer 400 instead of 500.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string { return e.msg }

func validationErrorf(format string, args ...interface{}) error {
	return &ValidationError{msg: fmt.Sprintf(format, args...)}
}

// FromBytes validates a chat export, stages the raw text in the bucket,
// and records the upload. Accepts .txt, or .zip holding a .txt.
func FromBytes(ctx context.Context, logger *zap.Logger, fileName string, data []byte) (*store.Upload, *chat.Transcript, error) {
	if int64(len(data)) > MaxUploadBytes {
		utils.UploadsRejected.Add(1)
		return nil, nil, validationErrorf("file too large, max 10MB allowed")
	}

	var content string
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".txt":
		content = string(data)
	case ".zip":
		extracted, err := chat.ExtractFromZip(data, MaxUploadBytes)
		if err != nil {
			utils.UploadsRejected.Add(1)
			return nil, nil, validationErrorf("invalid zip archive: %v", err)
		}
		content = extracted
	default:
		utils.UploadsRejected.Add(1)
		return nil, nil, validationErrorf("only .txt and .zip files are allowed")
	}

	snippet := content
	if len(snippet) > 1024 {
		snippet = snippet[:1024]
	}
	if !chat.LooksLikeExport(snippet) {
		utils.UploadsRejected.Add(1)
		return nil, nil, validationErrorf("invalid file format, must be a WhatsApp export")
	}

	transcript, err := chat.Parse(content)
	if err != nil {
		utils.UploadsRejected.Add(1)
		return nil, nil, validationErrorf("%v", err)
	}

	upload := &store.Upload{
		ID:           uuid.NewString(),
		FileName:     filepath.Base(fileName),
		Participants: transcript.Participants,
		MessageCount: len(transcript.Messages),
		Status:       store.StatusUploaded,
	}

	if err := uploadObject(ctx, bytes.NewReader([]byte(content)), upload.ObjectKey()); err != nil {
		return nil, nil, fmt.Errorf("staging chat export: %w", err)
	}
	if err := createUpload(ctx, upload); err != nil {
		return nil, nil, fmt.Errorf("recording upload: %w", err)
	}

	utils.UploadsTotal.Add(1)
	logger.Sugar().Infow("Chat export ingested",
		"upload", upload.ID,
		"participants", len(upload.Participants),
		"messages", upload.MessageCount)

	return upload, transcript, nil
}

// Run executes the analysis for a staged upload: download the text, parse
// it again, score the chosen pair, persist the result, and delete the raw
// chat from the bucket. The upload ends in status done or failed.
func Run(ctx context.Context, logger *zap.Logger, ai analyzer.Completer, uploadID, you, them string) (*analyzer.Result, error) {
	sugar := logger.Sugar()

	upload, err := getUpload(ctx, uploadID)
	if err != nil {
		return nil, fmt.Errorf("loading upload %s: %w", uploadID, err)
	}

	if err := EnsureAnalyzable(upload); err != nil {
		return nil, err
	}
	if err := ValidatePair(upload, you, them); err != nil {
		return nil, err
	}

	data, err := downloadObject(ctx, upload.ObjectKey())
	if err != nil {
		markFailed(ctx, logger, uploadID)
		return nil, fmt.Errorf("downloading chat export: %w", err)
	}

	transcript, err := chat.Parse(string(data))
	if err != nil {
		markFailed(ctx, logger, uploadID)
		return nil, fmt.Errorf("parsing chat export: %w", err)
	}

	result, err := analyzer.Analyze(ctx, logger, ai, transcript, uploadID, you, them)
	if err != nil {
		markFailed(ctx, logger, uploadID)
		return nil, fmt.Errorf("analyzing chat: %w", err)
	}

	if err := saveResult(ctx, result); err != nil {
		markFailed(ctx, logger, uploadID)
		return nil, fmt.Errorf("saving result: %w", err)
	}

	// raw chat text is deleted once the analysis is stored
	if err := deleteObject(ctx, upload.ObjectKey()); err != nil {
		sugar.Warnw("Failed to delete processed chat export",
			"upload", uploadID,
			"error", err)
	}

	if err := setUploadStatus(ctx, uploadID, store.StatusDone); err != nil {
		sugar.Warnw("Failed to update upload status",
			"upload", uploadID,
			"error", err)
	}

	utils.AnalysesTotal.Add(1)
	return result, nil
}

// EnsureAnalyzable rejects uploads whose raw chat text is gone: once an
// analysis finishes the staged object is deleted, so a finished or failed
// upload cannot be analyzed again.
func EnsureAnalyzable(upload *store.Upload) error {
	switch upload.Status {
	case store.StatusDone:
		return validationErrorf("upload %s is already analyzed", upload.ID)
	case store.StatusFailed:
		return validationErrorf("upload %s failed a previous analysis, upload the chat again", upload.ID)
	}
	return nil
}

// ValidatePair checks that both names are detected participants and differ.
func ValidatePair(upload *store.Upload, you, them string) error {
	if you == "" || them == "" || you == them {
		return validationErrorf("you and them must be two different participants")
	}
	for _, name := range []string{you, them} {
		found := false
		for _, p := range upload.Participants {
			if p == name {
				found = true
				break
			}
		}
		if !found {
			return validationErrorf("%s is not a participant in this chat", name)
		}
	}
	return nil
}

func markFailed(ctx context.Context, logger *zap.Logger, uploadID string) {
	utils.AnalysesFailed.Add(1)
	if err := setUploadStatus(ctx, uploadID, store.StatusFailed); err != nil {
		logger.Error("Failed to mark upload failed", zap.Error(err))
	}
}
