package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/mediabatch/internal/batch"
	"github.com/abdul-hamid-achik/mediabatch/internal/output"
	"github.com/abdul-hamid-achik/mediabatch/internal/presets"
	"github.com/abdul-hamid-achik/mediabatch/internal/probe"
)

var videoCmd = &cobra.Command{
	Use:   "video <file>",
	Short: "Transcode a single video",
	Long: `Transcode one video to a target format, resolution and codec.

The file is probed first to seed its resolution; probing is
best-effort and a failed probe only means dimensions must be given
with --width/--height.

Examples:
  mediabatch video clip.mov -f mp4
  mediabatch video clip.mp4 -f webm -c vp9 -r 720p
  mediabatch video clip.mp4 -r custom --width 1000 --height 562
  mediabatch video clip.mkv -f mp4 -c copy`,
	Args: cobra.ExactArgs(1),
	RunE: runVideo,
}

var (
	videoFormat     string
	videoResolution string
	videoWidth      int
	videoHeight     int
	videoCodec      string
	videoOut        string
)

func init() {
	videoCmd.Flags().StringVarP(&videoFormat, "format", "f", "mp4", "Output format (mp4, webm, mkv, avi, mov, flv, wmv)")
	videoCmd.Flags().StringVarP(&videoResolution, "resolution", "r", "original", "original, custom, or a preset: "+strings.Join(presets.ResolutionNames, ", "))
	videoCmd.Flags().IntVar(&videoWidth, "width", 0, "Custom width; height derives from the probed aspect ratio")
	videoCmd.Flags().IntVar(&videoHeight, "height", 0, "Custom height; width derives from the probed aspect ratio")
	videoCmd.Flags().StringVarP(&videoCodec, "codec", "c", "h264", "Codec: "+strings.Join(presets.CodecNames, ", "))
	videoCmd.Flags().StringVarP(&videoOut, "out", "o", "", "Output directory (default from config)")
}

type videoResult struct {
	File   string `json:"file"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
	Codec  string `json:"source_codec,omitempty"`
}

func runVideo(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	if !presets.IsVideoFormat(videoFormat) {
		return fmt.Errorf("unsupported video format: %s", videoFormat)
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}

	if err := ensureEngine(ctx); err != nil {
		return err
	}

	info, err := probe.Probe(ctx, eng, data)
	if err != nil {
		return err
	}
	if info.HasDimensions() {
		printer.Info("source: %dx%d %s", info.Width, info.Height, info.Codec)
	} else {
		printer.Warn("could not probe source dimensions")
	}

	it := batch.NewItemWithDimensions(filepath.Base(args[0]), data, info.Width, info.Height)

	vcfg := batch.VideoConfig{
		Format:     videoFormat,
		Resolution: videoResolution,
		Codec:      videoCodec,
	}
	if videoResolution == "custom" {
		switch {
		case videoWidth > 0 && videoHeight > 0:
			it.SetTargetWidth(videoWidth)
			it.SetTargetHeight(videoHeight)
		case videoWidth > 0:
			it.SetTargetWidth(videoWidth)
		case videoHeight > 0:
			it.SetTargetHeight(videoHeight)
		default:
			return fmt.Errorf("custom resolution requires --width or --height")
		}
		vcfg.Width = it.TargetWidth()
		vcfg.Height = it.TargetHeight()
		if vcfg.Width == 0 || vcfg.Height == 0 {
			return fmt.Errorf("probe found no dimensions; give both --width and --height")
		}
	}

	bar := output.NewPercentBar("transcoding", quietMode || jsonOutput)
	orch := batch.NewOrchestrator(eng)

	out, err := orch.RunVideo(ctx, it, vcfg, bar.Set)
	bar.Finish()
	if err != nil {
		printer.Error("transcoding failed: %v", err)
		return err
	}

	outDir := videoOut
	if outDir == "" {
		outDir = cfg.OutputDir
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}
	path := filepath.Join(outDir, out.Filename)
	if err := os.WriteFile(path, out.Data, 0o644); err != nil {
		return err
	}

	printer.ItemDone(it.Name(), path)
	return printer.PrintResult(videoResult{
		File:   path,
		Width:  info.Width,
		Height: info.Height,
		Codec:  info.Codec,
	})
}
