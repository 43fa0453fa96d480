package image

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(1, 1, color.RGBA{R: 10, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))
}

func TestLoadPNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "page.png")
	writePNG(t, path, 30, 20)

	src, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "png", src.Format)
	assert.Equal(t, path, src.Path)
	assert.Equal(t, 30, src.Width())
	assert.Equal(t, 20, src.Height())
}

func TestLoadFailures(t *testing.T) {
	dir := t.TempDir()

	garbage := filepath.Join(dir, "broken.png")
	require.NoError(t, os.WriteFile(garbage, []byte("not an image"), 0644))
	brokenPDF := filepath.Join(dir, "broken.pdf")
	require.NoError(t, os.WriteFile(brokenPDF, []byte("not a pdf"), 0644))

	tests := []struct {
		name string
		path string
	}{
		{"missing file", filepath.Join(dir, "nope.png")},
		{"unsupported extension", filepath.Join(dir, "page.gif")},
		{"corrupt pdf", brokenPDF},
		{"corrupt data", garbage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.path)
			assert.ErrorIs(t, err, ErrImageLoad)
		})
	}
}

func TestIsSupportedFormat(t *testing.T) {
	assert.True(t, IsSupportedFormat("scan.TIF"))
	assert.True(t, IsSupportedFormat("/a/b/ecg.webp"))
	assert.True(t, IsSupportedFormat("ecg.PDF"))
	assert.False(t, IsSupportedFormat("ecg.gif"))
}

// onePagePDF builds a 72x72 pt single-page PDF whose lower-left quarter is
// filled black.
func onePagePDF() []byte {
	content := "0 0 0 rg 0 0 36 36 re f\n"
	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 72 72] /Contents 4 0 R >>",
		fmt.Sprintf("<< /Length %d >>\nstream\n%sendstream", len(content), content),
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}

func TestLoadPDFRendersFirstPage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "page.pdf")
	require.NoError(t, os.WriteFile(path, onePagePDF(), 0644))

	src, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "pdf", src.Format)
	assert.Equal(t, path, src.Path)
	assert.InDelta(t, PDFDPI, src.Width(), 1)
	assert.InDelta(t, PDFDPI, src.Height(), 1)

	dark, _, _, _ := src.Image.At(src.Width()/4, src.Height()*3/4).RGBA()
	light, _, _, _ := src.Image.At(src.Width()*3/4, src.Height()/4).RGBA()
	assert.Less(t, dark, uint32(0x4000))
	assert.Greater(t, light, uint32(0xc000))
}
