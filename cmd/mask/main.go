// mask paints a binary mask over an image with the mouse and saves it as a PNG
// and a .npy array named after the target.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/livegan"
	"github.com/livegan/cv"
	"github.com/livegan/mask"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	target    string
	outdir    string
	logFormat string
	verbose   bool
)

var rootCmd = &cobra.Command{
	Use:           "mask",
	Short:         "Draw a binary mask over an image with the mouse, press q to save",
	SilenceUsage:  true,
	SilenceErrors: true,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		info, err := os.Stat(target)
		if err != nil {
			return fmt.Errorf("%w: target %q: %w", livegan.ErrConfiguration, target, err)
		}
		if info.IsDir() {
			return fmt.Errorf("%w: target %q is a directory", livegan.ErrConfiguration, target)
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(livegan.NewLogger(verbose, logFormat))
	},
}

func init() {
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}
	rootCmd.Flags().StringVarP(&target, "target", "t", "", "Image to draw the mask on")
	rootCmd.Flags().StringVar(&outdir, "outdir", filepath.Join(cwd, "experiences", "out", "mask"), "Directory for the saved mask")
	rootCmd.Flags().StringVar(&logFormat, "log-format", "text", "Log format (text, json)")
	rootCmd.Flags().BoolVar(&verbose, "verbose", false, "Debug logging")
	_ = rootCmd.MarkFlagRequired("target")
}

func run(log *logrus.Logger) error {
	img, err := cv.LoadImage(target)
	if err != nil {
		return err
	}
	b := img.Bounds()
	log.WithFields(logrus.Fields{"target": target, "width": b.Dx(), "height": b.Dy()}).Info("Draw with the left mouse button, press q to finish")

	editor := mask.NewEditor(img, log)
	window := cv.NewWindow("Draw Mask")
	window.OnPointer(editor.Handle)
	err = editor.Run(window)
	if cerr := window.Close(); cerr != nil {
		log.WithError(cerr).Warn("Could not close window")
	}
	if err != nil {
		return err
	}

	pngPath, npyPath, err := mask.Export(editor.Canvas, outdir, mask.Stem(target))
	if err != nil {
		return err
	}
	log.WithFields(logrus.Fields{"image": pngPath, "array": npyPath}).Info("Mask saved")
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
