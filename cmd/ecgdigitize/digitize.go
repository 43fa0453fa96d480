package main

import (
	"fmt"

	"ecg-digitizer/internal/annotation"
	"ecg-digitizer/internal/digitize"
	"ecg-digitizer/internal/export"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	digitizeAnnotation string
	digitizeOutput     string
	digitizeSeparator  string
	digitizePreviews   string
	digitizeImage      string
)

var digitizeCmd = &cobra.Command{
	Use:   "digitize",
	Short: "Extract the annotated leads of a page and export them",
	Long: `Loads an annotation file and its page image, extracts every annotated lead
and writes the samples as delimited text. Nothing is written if any lead fails.`,
	RunE: runDigitize,
}

func init() {
	digitizeCmd.Flags().StringVarP(&digitizeAnnotation, "annotation", "a", "", "annotation file (required)")
	digitizeCmd.Flags().StringVarP(&digitizeOutput, "output", "o", "", "export file, .csv or .txt (required)")
	digitizeCmd.Flags().StringVar(&digitizeSeparator, "separator", "", "comma, tab or space (default from config)")
	digitizeCmd.Flags().StringVar(&digitizePreviews, "previews", "", "directory for per-lead preview PNGs")
	digitizeCmd.Flags().StringVarP(&digitizeImage, "image", "i", "", "page image, overriding the annotation")
	digitizeCmd.MarkFlagRequired("annotation")
	digitizeCmd.MarkFlagRequired("output")
	rootCmd.AddCommand(digitizeCmd)
}

func runDigitize(cmd *cobra.Command, args []string) error {
	sep, err := cfg.Separator()
	if digitizeSeparator != "" {
		sep, err = export.ParseSeparator(digitizeSeparator)
	}
	if err != nil {
		return err
	}

	ann, err := annotation.Load(digitizeAnnotation)
	if err != nil {
		return fmt.Errorf("load annotation: %w", err)
	}
	req, err := ann.Request()
	if err != nil {
		return err
	}

	imagePath := digitizeImage
	if imagePath == "" {
		imagePath = ann.ImagePath(digitizeAnnotation)
	}
	if imagePath == "" {
		return fmt.Errorf("annotation %s names no image; pass --image", digitizeAnnotation)
	}

	logger.WithFields(logrus.Fields{
		"image": imagePath,
		"leads": len(req.Leads()),
	}).Info("digitizing")

	pipeline := digitize.New(cfg.PipelineOptions(), digitize.WithLogger(logger))
	res, err := pipeline.DigitizeFile(cmd.Context(), imagePath, req)
	if err != nil {
		return err
	}

	if err := export.WriteFile(digitizeOutput, res.Signals, sep); err != nil {
		return err
	}
	logger.WithField("path", digitizeOutput).Info("signals exported")

	if digitizePreviews != "" {
		for _, id := range req.Leads() {
			path, err := res.Previews[id].WritePNG(digitizePreviews)
			if err != nil {
				return err
			}
			logger.WithField("path", path).Debug("preview written")
		}
	}

	for _, id := range res.Blank {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: lead %s region is blank\n", id)
	}
	if res.GridFallback {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: grid not found, used fallback spacing %.2f px\n",
			res.Grid.HorizontalSpacing)
	}
	return nil
}
