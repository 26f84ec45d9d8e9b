package ingest

import (
	"context"
	"errors"
	"io"
	"testing"

	"betweenlines/analyzer"
	"betweenlines/store"

	"go.uber.org/zap"
)

const sampleExport = `12/3/2024, 9:15 am - Alice: Good morning!
12/3/2024, 9:16 am - Bob: morning, how did you sleep?
12/3/2024, 9:17 am - Alice: Pretty well, lol
12/3/2024, 6:30 pm - Bob: dinner tonight?
12/3/2024, 6:45 pm - Alice: yes please ❤️
`

// fakeInfra replaces the bucket and store seams with in-memory fakes and
// restores them when the test ends.
type fakeInfra struct {
	upload       *store.Upload
	stagedKeys   []string
	deletedKeys  []string
	savedResults []*analyzer.Result
	statuses     []string
	chatText     string
}

func installFakeInfra(t *testing.T, upload *store.Upload, chatText string) *fakeInfra {
	t.Helper()

	f := &fakeInfra{upload: upload, chatText: chatText}

	origUpload := uploadObject
	origDownload := downloadObject
	origDelete := deleteObject
	origCreate := createUpload
	origGet := getUpload
	origSetStatus := setUploadStatus
	origSave := saveResult
	t.Cleanup(func() {
		uploadObject = origUpload
		downloadObject = origDownload
		deleteObject = origDelete
		createUpload = origCreate
		getUpload = origGet
		setUploadStatus = origSetStatus
		saveResult = origSave
	})

	uploadObject = func(ctx context.Context, body io.Reader, key string) error {
		f.stagedKeys = append(f.stagedKeys, key)
		return nil
	}
	downloadObject = func(ctx context.Context, key string) ([]byte, error) {
		return []byte(f.chatText), nil
	}
	deleteObject = func(ctx context.Context, key string) error {
		f.deletedKeys = append(f.deletedKeys, key)
		return nil
	}
	createUpload = func(ctx context.Context, u *store.Upload) error {
		f.upload = u
		return nil
	}
	getUpload = func(ctx context.Context, id string) (*store.Upload, error) {
		if f.upload == nil || f.upload.ID != id {
			return nil, store.ErrNotFound
		}
		u := *f.upload
		return &u, nil
	}
	setUploadStatus = func(ctx context.Context, id, status string) error {
		f.statuses = append(f.statuses, status)
		f.upload.Status = status
		return nil
	}
	saveResult = func(ctx context.Context, r *analyzer.Result) error {
		f.savedResults = append(f.savedResults, r)
		return nil
	}

	return f
}

func (f *fakeInfra) lastStatus() string {
	if len(f.statuses) == 0 {
		return ""
	}
	return f.statuses[len(f.statuses)-1]
}

func TestRunDeletesObjectAndMarksDone(t *testing.T) {
	upload := &store.Upload{
		ID:           "u-1",
		Participants: []string{"Alice", "Bob"},
		Status:       store.StatusUploaded,
	}
	f := installFakeInfra(t, upload, sampleExport)

	result, err := Run(context.Background(), zap.NewNop(), nil, "u-1", "Alice", "Bob")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result == nil || result.UploadID != "u-1" {
		t.Fatalf("unexpected result: %+v", result)
	}

	if len(f.savedResults) != 1 {
		t.Fatalf("got %d saved results, want 1", len(f.savedResults))
	}
	if len(f.deletedKeys) != 1 || f.deletedKeys[0] != upload.ObjectKey() {
		t.Errorf("deleted keys = %v, want [%s]", f.deletedKeys, upload.ObjectKey())
	}
	if got := f.lastStatus(); got != store.StatusDone {
		t.Errorf("final status = %q, want %q", got, store.StatusDone)
	}
}

func TestRunMarksFailedOnUnparsableChat(t *testing.T) {
	upload := &store.Upload{
		ID:           "u-2",
		Participants: []string{"Alice", "Bob"},
		Status:       store.StatusQueued,
	}
	f := installFakeInfra(t, upload, "not a chat export at all")

	if _, err := Run(context.Background(), zap.NewNop(), nil, "u-2", "Alice", "Bob"); err == nil {
		t.Fatal("expected error for unparsable chat text")
	}

	if len(f.deletedKeys) != 0 {
		t.Errorf("object deleted on failure, keys = %v", f.deletedKeys)
	}
	if len(f.savedResults) != 0 {
		t.Errorf("got %d saved results, want 0", len(f.savedResults))
	}
	if got := f.lastStatus(); got != store.StatusFailed {
		t.Errorf("final status = %q, want %q", got, store.StatusFailed)
	}
}

func TestRunRejectsFinishedUpload(t *testing.T) {
	for _, status := range []string{store.StatusDone, store.StatusFailed} {
		upload := &store.Upload{
			ID:           "u-3",
			Participants: []string{"Alice", "Bob"},
			Status:       status,
		}
		f := installFakeInfra(t, upload, sampleExport)

		_, err := Run(context.Background(), zap.NewNop(), nil, "u-3", "Alice", "Bob")
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("status %s: got %v, want ValidationError", status, err)
		}
		if len(f.statuses) != 0 {
			t.Errorf("status %s: upload status was rewritten to %v", status, f.statuses)
		}
		if len(f.deletedKeys) != 0 {
			t.Errorf("status %s: object deleted, keys = %v", status, f.deletedKeys)
		}
	}
}

func TestFromBytesStagesAndRecords(t *testing.T) {
	f := installFakeInfra(t, nil, "")

	upload, transcript, err := FromBytes(context.Background(), zap.NewNop(), "chat.txt", []byte(sampleExport))
	if err != nil {
		t.Fatalf("FromBytes: %v", err)
	}
	if upload.Status != store.StatusUploaded {
		t.Errorf("status = %q, want %q", upload.Status, store.StatusUploaded)
	}
	if len(transcript.Participants) != 2 {
		t.Errorf("participants = %v, want 2 names", transcript.Participants)
	}
	if len(f.stagedKeys) != 1 || f.stagedKeys[0] != upload.ObjectKey() {
		t.Errorf("staged keys = %v, want [%s]", f.stagedKeys, upload.ObjectKey())
	}
	if f.upload == nil || f.upload.ID != upload.ID {
		t.Errorf("upload row not recorded: %+v", f.upload)
	}
}
