package ocr

import (
	"image"
	"strings"

	pageimage "ecg-digitizer/internal/image"
	"ecg-digitizer/internal/lead"
	"ecg-digitizer/pkg/geometry"
)

// Suggestion is the lead name read next to one region.
type Suggestion struct {
	Region geometry.RectInt
	Text   string
	Lead   lead.ID
	OK     bool
}

// LabelRegion returns the part of a lead region where the printed label
// normally sits: its top-left corner.
func LabelRegion(r geometry.RectInt) geometry.RectInt {
	w := min(r.Width, max(40, r.Width/6))
	h := min(r.Height, max(24, r.Height/3))
	return geometry.RectInt{X: r.X, Y: r.Y, Width: w, Height: h}
}

// Suggest reads the label of every region.
func (r *Reader) Suggest(page image.Image, regions []geometry.RectInt) ([]Suggestion, error) {
	if len(regions) == 0 {
		return nil, nil
	}
	mat, err := pageimage.ToMat(page)
	if err != nil {
		return nil, err
	}
	defer mat.Close()

	out := make([]Suggestion, 0, len(regions))
	for _, reg := range regions {
		text, err := r.readRegion(mat, page.Bounds(), LabelRegion(reg))
		if err != nil {
			return nil, err
		}
		id, ok := ParseLabel(text)
		out = append(out, Suggestion{Region: reg, Text: text, Lead: id, OK: ok})
	}
	return out, nil
}

// glyphFixes maps characters Tesseract reads for a printed I.
var glyphFixes = strings.NewReplacer("l", "I", "|", "I", "1", "I")

// ParseLabel maps OCR text to a lead. It tolerates case errors and the usual
// I/l/1/| confusion.
func ParseLabel(text string) (lead.ID, bool) {
	s := strings.Join(strings.Fields(text), "")
	if s == "" {
		return 0, false
	}
	if id, err := lead.Parse(s); err == nil {
		return id, true
	}

	upper := strings.ToUpper(s)
	if strings.HasPrefix(upper, "V") && len(upper) == 2 {
		// Chest leads: the digit is meaningful.
		if id, err := lead.Parse(upper); err == nil {
			return id, true
		}
		if upper[1] == 'I' || upper[1] == 'L' || upper[1] == '|' {
			return lead.V1, true
		}
		return 0, false
	}
	if id, err := lead.Parse(glyphFixes.Replace(s)); err == nil {
		return id, true
	}
	return 0, false
}
