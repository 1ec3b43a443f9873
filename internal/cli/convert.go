package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/browser"
	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/mediabatch/internal/batch"
	"github.com/abdul-hamid-achik/mediabatch/internal/output"
	"github.com/abdul-hamid-achik/mediabatch/internal/presets"
)

var convertCmd = &cobra.Command{
	Use:   "convert [files...]",
	Short: "Convert a batch of images",
	Long: `Convert one or more images to a target format and size.

Every converted file is written individually and aggregated into one
zip bundle. A failing file is reported and skipped; it never aborts
the rest of the batch.

Examples:
  mediabatch convert photo.png -f webp -q 80
  mediabatch convert *.jpg --width 1920 -f jpg
  mediabatch convert shoot/*.png --preset web --tag "Summer Sale"
  mediabatch convert *.png -f png --open`,
	Args: cobra.MinimumNArgs(1),
	RunE: runConvert,
}

var (
	convertFormat   string
	convertQuality  int
	convertWidth    int
	convertHeight   int
	convertTag      string
	convertPreset   string
	convertOut      string
	convertPreviews string
	convertOpen     bool
)

func init() {
	convertCmd.Flags().StringVarP(&convertFormat, "format", "f", "", "Output format (jpg, png, webp, gif, bmp, tiff, ico)")
	convertCmd.Flags().IntVarP(&convertQuality, "quality", "q", 0, "Quality 1-100 (jpg and webp)")
	convertCmd.Flags().IntVar(&convertWidth, "width", 0, "Target width; height derives from the aspect ratio")
	convertCmd.Flags().IntVar(&convertHeight, "height", 0, "Target height; width derives from the aspect ratio")
	convertCmd.Flags().StringVar(&convertTag, "tag", "", "Metadata tag, also used as the output filename")
	convertCmd.Flags().StringVarP(&convertPreset, "preset", "p", "", "Named preset (web, thumbnail, archive, icon, or from config)")
	convertCmd.Flags().StringVarP(&convertOut, "out", "o", "", "Output directory (default from config)")
	convertCmd.Flags().StringVar(&convertPreviews, "previews", "", "Also write preview thumbnails into this directory")
	convertCmd.Flags().BoolVar(&convertOpen, "open", false, "Open the finished bundle")
}

type convertResult struct {
	Bundle    string   `json:"bundle,omitempty"`
	Files     []string `json:"files"`
	Completed int      `json:"completed"`
	Failed    int      `json:"failed"`
}

func runConvert(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	batchCfg := batch.Config{Format: cfg.Format, Quality: cfg.Quality}
	width, height, tag := convertWidth, convertHeight, convertTag

	if convertPreset != "" {
		p, ok := cfg.GetPreset(convertPreset)
		if !ok {
			return fmt.Errorf("unknown preset: %s", convertPreset)
		}
		if p.Format != "" {
			batchCfg.Format = p.Format
		}
		if p.Quality > 0 {
			batchCfg.Quality = p.Quality
		}
		if width == 0 {
			width = p.Width
		}
		if height == 0 {
			height = p.Height
		}
		if tag == "" {
			tag = p.Tag
		}
	}
	if convertFormat != "" {
		batchCfg.Format = convertFormat
	}
	if convertQuality > 0 {
		batchCfg.Quality = convertQuality
	}

	if !presets.IsImageFormat(batchCfg.Format) {
		return fmt.Errorf("unsupported image format: %s", batchCfg.Format)
	}
	if batchCfg.Quality < 1 || batchCfg.Quality > 100 {
		return fmt.Errorf("quality %d out of range 1-100", batchCfg.Quality)
	}

	b := batch.New()
	for _, path := range args {
		data, err := os.ReadFile(path)
		if err != nil {
			printer.ItemFailed(path, err)
			continue
		}
		it, err := b.Add(filepath.Base(path), data)
		if err != nil {
			printer.ItemFailed(path, err)
			continue
		}
		if width > 0 {
			it.SetTargetWidth(width)
		} else if height > 0 {
			it.SetTargetHeight(height)
		}
		if tag != "" {
			it.SetTag(tag)
		}
	}
	if b.Len() == 0 {
		return fmt.Errorf("no readable images in %d file(s)", len(args))
	}

	if err := ensureEngine(ctx); err != nil {
		return err
	}

	outDir := convertOut
	if outDir == "" {
		outDir = cfg.OutputDir
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}

	bar := output.NewProgress(b.Len(), "converting", output.ProgressWithQuiet(quietMode || jsonOutput))
	orch := batch.NewOrchestrator(eng)
	orch.PreviewDir = convertPreviews
	orch.Notify = func(it *batch.Item) {
		bar.Increment()
		if it.Status() == batch.StatusError {
			printer.ItemFailed(it.Name(), it.Err())
		}
	}

	res, err := orch.Run(ctx, b, batchCfg)
	bar.Finish()
	if err != nil {
		return err
	}

	result := convertResult{Completed: res.Completed, Failed: res.Failed}

	for _, it := range b.Items() {
		out := it.Output()
		if out == nil {
			continue
		}
		path := filepath.Join(outDir, out.Filename)
		if err := os.WriteFile(path, out.Data, 0o644); err != nil {
			printer.ItemFailed(out.Filename, err)
			continue
		}
		printer.ItemDone(it.Name(), path)
		result.Files = append(result.Files, path)
	}

	var bundlePath string
	if res.Bundle != nil {
		bundlePath = filepath.Join(outDir, res.BundleName)
		if err := os.WriteFile(bundlePath, res.Bundle, 0o644); err != nil {
			return fmt.Errorf("failed to write bundle: %w", err)
		}
		result.Bundle = bundlePath
		printer.Info("bundle: %s", bundlePath)
	}

	printer.Summary(res.Completed, res.Failed)
	if err := printer.PrintResult(result); err != nil {
		return err
	}

	if convertOpen && bundlePath != "" {
		if err := browser.OpenFile(bundlePath); err != nil {
			printer.Warn("could not open bundle: %v", err)
		}
	}

	return nil
}
