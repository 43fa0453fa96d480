// Package annotation reads and writes the JSON file that records where each
// lead sits on a page image and how the page is scaled.
package annotation

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"ecg-digitizer/internal/lead"
	"ecg-digitizer/pkg/geometry"
)

// File is an annotation file (.json).
type File struct {
	Image        ImageRef        `json:"image"`
	Rotation     float64         `json:"rotation"`
	TimeScale    float64         `json:"timeScale"`
	VoltageScale float64         `json:"voltageScale"`
	Leads        map[string]Lead `json:"leads"`
}

// ImageRef locates the page image.
type ImageRef struct {
	Filename  string `json:"filename"`
	Directory string `json:"directory"`
}

// Lead is the annotation of one lead region.
type Lead struct {
	Crop      Crop     `json:"crop"`
	StartTime float64  `json:"startTime"`
	Baseline  *float64 `json:"baseline,omitempty"`
}

// Crop is a lead rectangle in rotated page pixels.
type Crop struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Load loads an annotation file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse annotation %s: %w", path, err)
	}

	return &f, nil
}

// Save writes the annotation to path.
func (f *File) Save(path string) error {
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// SetImage records imagePath, relative to the annotation file when possible.
func (f *File) SetImage(annotationPath, imagePath string) {
	dir, name := filepath.Split(imagePath)
	if rel, err := filepath.Rel(filepath.Dir(annotationPath), filepath.Clean(dir)); err == nil {
		dir = rel
	}
	f.Image = ImageRef{Filename: name, Directory: filepath.Clean(dir)}
}

// ImagePath returns the path of the page image. A relative directory is
// resolved against the annotation file's directory.
func (f *File) ImagePath(annotationPath string) string {
	if f.Image.Filename == "" {
		return ""
	}
	p := filepath.Join(f.Image.Directory, f.Image.Filename)
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(filepath.Dir(annotationPath), p)
}

// Request validates the annotation and converts it to a digitization request.
// Lead names match case-insensitively, so two keys naming the same lead are
// rejected.
func (f *File) Request() (lead.Request, error) {
	leads := make(map[lead.ID]lead.Spec, len(f.Leads))
	for name, l := range f.Leads {
		id, err := lead.Parse(name)
		if err != nil {
			return lead.Request{}, err
		}
		if _, dup := leads[id]; dup {
			return lead.Request{}, fmt.Errorf("%w: lead %s given twice (%q)", lead.ErrInvalidRequest, id, name)
		}
		leads[id] = lead.Spec{
			Region: geometry.RectInt{
				X:      l.Crop.X,
				Y:      l.Crop.Y,
				Width:  l.Crop.Width,
				Height: l.Crop.Height,
			},
			StartTime: l.StartTime,
			Baseline:  l.Baseline,
		}
	}
	return lead.NewRequest(f.Rotation, f.TimeScale, f.VoltageScale, leads)
}

// FromRequest builds an annotation for req. Image paths are left empty.
func FromRequest(req lead.Request) *File {
	f := &File{
		Rotation:     req.Rotation(),
		TimeScale:    req.TimeScale(),
		VoltageScale: req.VoltScale(),
		Leads:        make(map[string]Lead),
	}
	for _, id := range req.Leads() {
		spec, _ := req.Lead(id)
		f.Leads[id.String()] = Lead{
			Crop: Crop{
				X:      spec.Region.X,
				Y:      spec.Region.Y,
				Width:  spec.Region.Width,
				Height: spec.Region.Height,
			},
			StartTime: spec.StartTime,
			Baseline:  spec.Baseline,
		}
	}
	return f
}
