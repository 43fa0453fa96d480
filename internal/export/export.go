// Package export writes digitized lead signals as delimited text.
package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"ecg-digitizer/internal/calibrate"
	"ecg-digitizer/internal/lead"
)

// ErrUnsupportedSeparator is returned for a separator other than comma, tab
// or space. Nothing is written when it is returned.
var ErrUnsupportedSeparator = errors.New("unsupported export separator")

// Separator is the field delimiter of an export file.
type Separator rune

const (
	Comma Separator = ','
	Tab   Separator = '\t'
	Space Separator = ' '
)

// ParseSeparator accepts a separator name (comma, tab, space) or the
// character itself.
func ParseSeparator(s string) (Separator, error) {
	switch strings.ToLower(s) {
	case "comma", ",":
		return Comma, nil
	case "tab", "\t", `\t`:
		return Tab, nil
	case "space", " ":
		return Space, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedSeparator, s)
}

// Valid reports whether s is a supported separator.
func (s Separator) Valid() bool {
	return s == Comma || s == Tab || s == Space
}

func (s Separator) String() string {
	switch s {
	case Comma:
		return "comma"
	case Tab:
		return "tab"
	case Space:
		return "space"
	}
	return fmt.Sprintf("Separator(%q)", rune(s))
}

// Write writes signals to w. Leads appear in standard order as a time and a
// voltage column each; row i holds sample i of every lead. Where a lead has
// fewer samples its cells are blank, except with Space, where blank cells
// would merge into the delimiter run and the lead's last sample is repeated
// instead.
func Write(w io.Writer, signals map[lead.ID]calibrate.Signal, sep Separator) error {
	if !sep.Valid() {
		return fmt.Errorf("%w: %q", ErrUnsupportedSeparator, rune(sep))
	}

	ids := make([]lead.ID, 0, len(signals))
	rows := 0
	for id, sig := range signals {
		ids = append(ids, id)
		rows = max(rows, len(sig.Samples))
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	cw := csv.NewWriter(w)
	cw.Comma = rune(sep)

	header := make([]string, 0, 2*len(ids))
	for _, id := range ids {
		header = append(header, id.String()+"_time", id.String()+"_voltage")
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	record := make([]string, 2*len(ids))
	for i := 0; i < rows; i++ {
		for j, id := range ids {
			samples := signals[id].Samples
			k := i
			if k >= len(samples) && sep == Space && len(samples) > 0 {
				k = len(samples) - 1
			}
			if k < len(samples) {
				record[2*j] = formatFloat(samples[k].Time)
				record[2*j+1] = formatFloat(samples[k].Voltage)
			} else {
				record[2*j], record[2*j+1] = "", ""
			}
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteFile writes signals to path. The separator is checked before the file
// is created. The extension (.csv, .txt) does not change the format.
func WriteFile(path string, signals map[lead.ID]calibrate.Signal, sep Separator) (err error) {
	if !sep.Valid() {
		return fmt.Errorf("%w: %q", ErrUnsupportedSeparator, rune(sep))
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create export: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	return Write(f, signals, sep)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
