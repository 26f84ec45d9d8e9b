package subscriber

import (
	"context"
	"fmt"
	"time"

	"betweenlines/store"
	"betweenlines/utils"

	"go.uber.org/zap"
)

// CleanupStaleUploads deletes uploads that were never analyzed within the
// retention window, including their staged chat text. Runs from the
// hourly cron in main.
func CleanupStaleUploads(logger *zap.Logger, retention time.Duration) error {
	ctx := context.Background()
	sugar := logger.Sugar()

	ids, err := store.StaleUploads(ctx, retention)
	if err != nil {
		return fmt.Errorf("listing stale uploads: %w", err)
	}
	if len(ids) == 0 {
		return nil
	}

	removed := 0
	for _, id := range ids {
		key := fmt.Sprintf("chats/%s.txt", id)
		if err := utils.DeleteObject(ctx, key); err != nil {
			sugar.Warnw("Failed to delete stale chat object",
				"upload", id,
				"error", err)
		}
		if err := store.DeleteUpload(ctx, id); err != nil {
			sugar.Warnw("Failed to delete stale upload row",
				"upload", id,
				"error", err)
			continue
		}
		removed++
	}

	sugar.Infow("Stale upload cleanup finished",
		"candidates", len(ids),
		"removed", removed)
	return nil
}
