package utils

import (
	"context"
	"os"
	"testing"

	"go.uber.org/zap"
)

func testLogger(t *testing.T) *zap.Logger {
	cfg := zap.NewProductionConfig()
	l, err := cfg.Build()
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return l
}

func ensureDB(t *testing.T) {
	l := testLogger(t)
	if os.Getenv("POSTGRES_HOST") == "" {
		_ = os.Setenv("POSTGRES_HOST", "localhost")
	}
	if os.Getenv("POSTGRES_PORT") == "" {
		_ = os.Setenv("POSTGRES_PORT", "5432")
	}
	if os.Getenv("POSTGRES_USER") == "" {
		_ = os.Setenv("POSTGRES_USER", "postgres")
	}
	if os.Getenv("POSTGRES_PASSWORD") == "" {
		_ = os.Setenv("POSTGRES_PASSWORD", "postgres")
	}
	if os.Getenv("POSTGRES_DB") == "" {
		_ = os.Setenv("POSTGRES_DB", "betweenlines")
	}
	if err := InitDB(l); err != nil {
		t.Skip("db not available")
	}
	if err := CreateSchema(l); err != nil {
		t.Fatalf("schema: %v", err)
	}
}

func TestCreateSchemaIsIdempotent(t *testing.T) {
	ensureDB(t)
	// a second run must not fail on existing tables or indexes
	if err := CreateSchema(testLogger(t)); err != nil {
		t.Fatalf("second CreateSchema: %v", err)
	}
}

func TestAnalysisUpsertOnUploadConflict(t *testing.T) {
	ensureDB(t)
	ctx := context.Background()

	_, err := DB.ExecContext(ctx, `
        INSERT INTO chat_uploads (id, file_name, participants, message_count, status)
        VALUES ('00000000-0000-0000-0000-0000000000aa', 'chat.txt', '["Alice","Bob"]', 5, 'done')
        ON CONFLICT (id) DO NOTHING
    `)
	if err != nil {
		t.Fatalf("insert upload: %v", err)
	}
	defer func() {
		_, _ = DB.ExecContext(ctx, `DELETE FROM chat_uploads WHERE id = '00000000-0000-0000-0000-0000000000aa'`)
	}()

	upsert := `
        INSERT INTO chat_analyses (upload_id, you, them, result)
        VALUES ('00000000-0000-0000-0000-0000000000aa', $1, $2, '{}')
        ON CONFLICT (upload_id) DO UPDATE SET you = EXCLUDED.you, them = EXCLUDED.them
    `
	if _, err := DB.ExecContext(ctx, upsert, "Alice", "Bob"); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	if _, err := DB.ExecContext(ctx, upsert, "Bob", "Alice"); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	var count int
	if err := DB.QueryRowContext(ctx, `
        SELECT COUNT(*) FROM chat_analyses WHERE upload_id = '00000000-0000-0000-0000-0000000000aa'
    `).Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected single analysis row, got %d", count)
	}
}
