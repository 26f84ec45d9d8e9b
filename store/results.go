package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"betweenlines/analyzer"
	"betweenlines/utils"
	valkeystore "betweenlines/valkey"
)

const resultCacheTTL = 24 * time.Hour

func resultCacheKey(uploadID string) string {
	return fmt.Sprintf("analysis:%s", uploadID)
}

// SaveResult persists the analysis in Postgres and caches the JSON in
// valkey for a day.
func SaveResult(ctx context.Context, result *analyzer.Result) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshaling result: %w", err)
	}

	_, err = utils.DB.ExecContext(ctx, `
        INSERT INTO chat_analyses (upload_id, you, them, result)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (upload_id) DO UPDATE SET
            you = EXCLUDED.you,
            them = EXCLUDED.them,
            result = EXCLUDED.result,
            created_at = CURRENT_TIMESTAMP
    `, result.UploadID, result.You, result.Them, payload)
	if err != nil {
		return fmt.Errorf("storing analysis: %w", err)
	}

	if err := valkeystore.Client.Set(ctx, resultCacheKey(result.UploadID), string(payload), resultCacheTTL).Err(); err != nil {
		return fmt.Errorf("caching analysis: %w", err)
	}
	return nil
}

// LoadResultJSON returns the stored analysis as raw JSON, cache first,
// Postgres second. ErrNotFound while the analysis is still pending.
func LoadResultJSON(ctx context.Context, uploadID string) (string, error) {
	data, err := valkeystore.Client.Get(ctx, resultCacheKey(uploadID)).Result()
	if err == nil {
		return data, nil
	}
	if !isNilReply(err) {
		return "", fmt.Errorf("reading analysis cache: %w", err)
	}

	var payload string
	err = utils.DB.QueryRowContext(ctx, `
        SELECT result FROM chat_analyses WHERE upload_id = $1
    `, uploadID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("querying analysis: %w", err)
	}

	// repopulate the cache on the way out
	_ = valkeystore.Client.Set(ctx, resultCacheKey(uploadID), payload, resultCacheTTL).Err()
	return payload, nil
}

// LoadResult decodes the stored analysis.
func LoadResult(ctx context.Context, uploadID string) (*analyzer.Result, error) {
	raw, err := LoadResultJSON(ctx, uploadID)
	if err != nil {
		return nil, err
	}
	var result analyzer.Result
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return nil, fmt.Errorf("unmarshaling analysis: %w", err)
	}
	return &result, nil
}

// valkeycompat surfaces cache misses as the redis-compatible nil reply.
func isNilReply(err error) bool {
	return err.Error() == "redis: nil" || err.Error() == "valkey: nil"
}
