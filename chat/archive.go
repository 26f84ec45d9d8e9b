package chat

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// ExtractFromZip returns the contents of the first .txt entry in a zip
// archive, reading at most limit bytes. WhatsApp "export chat" produces a
// zip with a single .txt inside, so the first match wins.
func ExtractFromZip(data []byte, limit int64) (string, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("opening zip archive: %w", err)
	}

	for _, f := range reader.File {
		if strings.ToLower(filepath.Ext(f.Name)) != ".txt" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", fmt.Errorf("opening zip entry %s: %w", f.Name, err)
		}
		defer rc.Close()

		// LimitReader guards against entries that decompress far
		// beyond the upload cap.
		content, err := io.ReadAll(io.LimitReader(rc, limit+1))
		if err != nil {
			return "", fmt.Errorf("reading zip entry %s: %w", f.Name, err)
		}
		if int64(len(content)) > limit {
			return "", fmt.Errorf("zip entry %s exceeds size limit", f.Name)
		}
		return string(content), nil
	}

	return "", fmt.Errorf("no .txt entry found in zip archive")
}
