package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/mediabatch/internal/probe"
)

var probeCmd = &cobra.Command{
	Use:   "probe <file>",
	Short: "Inspect a media file",
	Long: `Print the resolution, codec, frame rate and duration of a media
file, scraped from the engine's diagnostic output. Fields the engine
does not report show as unknown.`,
	Args: cobra.ExactArgs(1),
	RunE: runProbe,
}

type probeResult struct {
	Width    int     `json:"width,omitempty"`
	Height   int     `json:"height,omitempty"`
	FPS      float64 `json:"fps,omitempty"`
	Codec    string  `json:"codec,omitempty"`
	Duration float64 `json:"duration_seconds,omitempty"`
}

func runProbe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

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

	printer.KeyValue("resolution", orUnknown(info.HasDimensions(), fmt.Sprintf("%dx%d", info.Width, info.Height)))
	printer.KeyValue("codec", orUnknown(info.Codec != "", info.Codec))
	printer.KeyValue("fps", orUnknown(info.FPS > 0, fmt.Sprintf("%.2f", info.FPS)))
	printer.KeyValue("duration", orUnknown(info.Duration > 0, fmt.Sprintf("%.2fs", info.Duration)))

	return printer.PrintResult(probeResult{
		Width:    info.Width,
		Height:   info.Height,
		FPS:      info.FPS,
		Codec:    info.Codec,
		Duration: info.Duration,
	})
}

func orUnknown(known bool, value string) string {
	if !known {
		return "unknown"
	}
	return value
}
