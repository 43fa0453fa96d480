package preview

import (
	"fmt"
	"image/png"
	"os"
	"path/filepath"
)

// WritePNG saves the preview as <dir>/<lead>.png and returns the path.
func (p Preview) WritePNG(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create preview directory: %w", err)
	}

	path := filepath.Join(dir, p.Lead.String()+".png")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create preview: %w", err)
	}
	defer f.Close()

	if err := png.Encode(f, p.Image); err != nil {
		return "", fmt.Errorf("encode preview %s: %w", p.Lead, err)
	}
	return path, nil
}
