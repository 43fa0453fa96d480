package main

import (
	"fmt"

	"ecg-digitizer/internal/annotation"
	pageimage "ecg-digitizer/internal/image"
	"ecg-digitizer/internal/ocr"
	"ecg-digitizer/internal/region"
	"ecg-digitizer/pkg/geometry"

	"github.com/spf13/cobra"
)

var labelsAnnotation string

var labelsCmd = &cobra.Command{
	Use:   "labels",
	Short: "Read the printed lead name of every annotated region",
	Long: `Runs OCR on the top-left corner of each annotated region and reports the
lead name printed there next to the one in the annotation.`,
	RunE: runLabels,
}

func init() {
	labelsCmd.Flags().StringVarP(&labelsAnnotation, "annotation", "a", "", "annotation file (required)")
	labelsCmd.MarkFlagRequired("annotation")
	rootCmd.AddCommand(labelsCmd)
}

func runLabels(cmd *cobra.Command, args []string) error {
	ann, err := annotation.Load(labelsAnnotation)
	if err != nil {
		return fmt.Errorf("load annotation: %w", err)
	}
	req, err := ann.Request()
	if err != nil {
		return err
	}
	src, err := pageimage.Load(ann.ImagePath(labelsAnnotation))
	if err != nil {
		return err
	}
	frame, err := region.NewFrame(src.Image, req.Rotation(), cfg.PipelineOptions().ExpandCanvas)
	if err != nil {
		return err
	}

	reader, err := ocr.NewReader()
	if err != nil {
		return err
	}
	defer reader.Close()

	ids := req.Leads()
	regions := make([]geometry.RectInt, len(ids))
	for i, id := range ids {
		spec, _ := req.Lead(id)
		regions[i] = spec.Region
	}

	suggestions, err := reader.Suggest(frame.Color, regions)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for i, s := range suggestions {
		read := "?"
		if s.OK {
			read = s.Lead.String()
		}
		status := "ok"
		if !s.OK || s.Lead != ids[i] {
			status = "check"
		}
		fmt.Fprintf(out, "%-4s read %-4s (%q) %s\n", ids[i], read, s.Text, status)
	}
	return nil
}
