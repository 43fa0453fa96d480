package main

import (
	"fmt"

	"ecg-digitizer/internal/grid"
	pageimage "ecg-digitizer/internal/image"
	"ecg-digitizer/internal/region"

	"github.com/spf13/cobra"
)

var (
	gridImage    string
	gridRotation float64
)

var gridCmd = &cobra.Command{
	Use:   "grid",
	Short: "Detect the calibration grid of a page and print its spacing",
	RunE:  runGrid,
}

func init() {
	gridCmd.Flags().StringVarP(&gridImage, "image", "i", "", "page image (required)")
	gridCmd.Flags().Float64Var(&gridRotation, "rotation", 0, "rotation in degrees, positive is clockwise")
	gridCmd.MarkFlagRequired("image")
	rootCmd.AddCommand(gridCmd)
}

func runGrid(cmd *cobra.Command, args []string) error {
	src, err := pageimage.Load(gridImage)
	if err != nil {
		return err
	}

	opts := cfg.PipelineOptions()
	frame, err := region.NewFrame(src.Image, gridRotation, opts.ExpandCanvas)
	if err != nil {
		return err
	}

	g, err := grid.Detect(frame.Gray, opts.Grid)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	b := frame.Bounds()
	fmt.Fprintf(out, "Image: %s (%s, %dx%d)\n", src.Path, src.Format, b.Dx(), b.Dy())
	fmt.Fprintf(out, "Horizontal spacing: %.2f px\n", g.HorizontalSpacing)
	fmt.Fprintf(out, "Vertical spacing:   %.2f px\n", g.VerticalSpacing)
	fmt.Fprintf(out, "Grid pixels:        %d\n", g.Mask.Count())
	return nil
}
