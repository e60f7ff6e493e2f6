package script

import (
	"fmt"
	"os"
	"path/filepath"
)

// FileName is the default export name for s.
func FileName(s Script) string {
	return fmt.Sprintf("script-%d.md", s.CreatedAt.UnixMilli())
}

// Export writes s as markdown. When path is an existing directory the file is
// created inside it using FileName. It returns the written path.
func Export(path string, s Script) (string, error) {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		path = filepath.Join(path, FileName(s))
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create export directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(s.Markdown()), 0o644); err != nil {
		return "", fmt.Errorf("write script: %w", err)
	}
	return path, nil
}
