package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"betweenlines/utils"

	"go.uber.org/zap"
)

// Upload statuses, in lifecycle order.
const (
	StatusUploaded = "uploaded"
	StatusQueued   = "queued"
	StatusDone     = "done"
	StatusFailed   = "failed"
)

var ErrNotFound = errors.New("not found")

// Upload is one row of chat_uploads.
type Upload struct {
	ID           string    `json:"id"`
	FileName     string    `json:"file_name"`
	Participants []string  `json:"participants"`
	MessageCount int       `json:"message_count"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
}

// ObjectKey is where the raw chat text lives in the bucket until the
// analysis finishes.
func (u *Upload) ObjectKey() string {
	return fmt.Sprintf("chats/%s.txt", u.ID)
}

// CreateUpload inserts a new chat_uploads row.
func CreateUpload(ctx context.Context, u *Upload) error {
	participants, err := json.Marshal(u.Participants)
	if err != nil {
		return fmt.Errorf("marshaling participants: %w", err)
	}
	_, err = utils.DB.ExecContext(ctx, `
        INSERT INTO chat_uploads (id, file_name, participants, message_count, status)
        VALUES ($1, $2, $3, $4, $5)
    `, u.ID, u.FileName, participants, u.MessageCount, u.Status)
	if err != nil {
		return fmt.Errorf("inserting upload: %w", err)
	}
	return nil
}

// GetUpload loads one upload by id.
func GetUpload(ctx context.Context, id string) (*Upload, error) {
	var u Upload
	var participants []byte
	err := utils.DB.QueryRowContext(ctx, `
        SELECT id, file_name, participants, message_count, status, created_at
        FROM chat_uploads WHERE id = $1
    `, id).Scan(&u.ID, &u.FileName, &participants, &u.MessageCount, &u.Status, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying upload: %w", err)
	}
	if err := json.Unmarshal(participants, &u.Participants); err != nil {
		return nil, fmt.Errorf("unmarshaling participants: %w", err)
	}
	return &u, nil
}

// SetUploadStatus moves an upload through its lifecycle.
func SetUploadStatus(ctx context.Context, id, status string) error {
	_, err := utils.DB.ExecContext(ctx, `
        UPDATE chat_uploads SET status = $2, updated_at = CURRENT_TIMESTAMP WHERE id = $1
    `, id, status)
	if err != nil {
		return fmt.Errorf("updating upload status: %w", err)
	}
	return nil
}

// StaleUploads returns ids of uploads that never completed within the
// retention window. Used by the cleanup cron.
func StaleUploads(ctx context.Context, olderThan time.Duration) ([]string, error) {
	rows, err := utils.DB.QueryContext(ctx, `
        SELECT id FROM chat_uploads
        WHERE status IN ($1, $2) AND created_at < $3
    `, StatusUploaded, StatusQueued, time.Now().UTC().Add(-olderThan))
	if err != nil {
		return nil, fmt.Errorf("querying stale uploads: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning stale upload: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// DeleteUpload removes the row (analyses cascade).
func DeleteUpload(ctx context.Context, id string) error {
	_, err := utils.DB.ExecContext(ctx, `DELETE FROM chat_uploads WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting upload: %w", err)
	}
	return nil
}

// AnalysisSummary is one row of the list endpoint.
type AnalysisSummary struct {
	UploadID  string    `json:"upload_id"`
	FileName  string    `json:"file_name"`
	You       string    `json:"you"`
	Them      string    `json:"them"`
	CreatedAt time.Time `json:"created_at"`
}

// ListAnalyses returns recent analyses, newest first.
func ListAnalyses(ctx context.Context, logger *zap.Logger, limit int) ([]AnalysisSummary, error) {
	rows, err := utils.DB.QueryContext(ctx, `
        SELECT a.upload_id, u.file_name, a.you, a.them, a.created_at
        FROM chat_analyses a
        JOIN chat_uploads u ON u.id = a.upload_id
        ORDER BY a.created_at DESC
        LIMIT $1
    `, limit)
	if err != nil {
		return nil, fmt.Errorf("querying analyses: %w", err)
	}
	defer rows.Close()

	var out []AnalysisSummary
	for rows.Next() {
		var s AnalysisSummary
		if err := rows.Scan(&s.UploadID, &s.FileName, &s.You, &s.Them, &s.CreatedAt); err != nil {
			logger.Error("Data scanning failed", zap.Error(err))
			continue
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
