package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/mediabatch/internal/config"
	"github.com/abdul-hamid-achik/mediabatch/internal/engine"
	"github.com/abdul-hamid-achik/mediabatch/internal/logger"
	"github.com/abdul-hamid-achik/mediabatch/internal/output"
	"github.com/abdul-hamid-achik/mediabatch/internal/version"
)

var (
	jsonOutput bool
	quietMode  bool
	cfg        *config.Config
	printer    *output.Printer
	eng        engine.Engine
)

var rootCmd = &cobra.Command{
	Use:   "mediabatch",
	Short: "mediabatch - batch image and video conversion through ffmpeg",
	Long: `mediabatch converts images in batches and transcodes single videos
through an embedded ffmpeg engine, entirely on your machine.

Get started:
  mediabatch convert *.png -f webp     # Convert images, get a zip bundle
  mediabatch video clip.mov -f mp4     # Transcode one video
  mediabatch probe clip.mov            # Inspect a media file`,
	Version: version.Full(),
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "version" {
			return nil
		}

		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}
		logger.Init(cfg.LogLevel)

		printer = output.New(
			output.WithJSON(jsonOutput),
			output.WithQuiet(quietMode),
		)

		eng = engine.New(&engine.Config{FFmpegPath: cfg.FFmpegPath})
		return nil
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() error {
	defer func() {
		if eng != nil {
			_ = eng.Close()
		}
	}()
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output as JSON (for scripting)")
	rootCmd.PersistentFlags().BoolVar(&quietMode, "quiet", false, "Suppress non-error output")

	rootCmd.SetVersionTemplate("mediabatch version {{.Version}}\n")

	rootCmd.AddCommand(convertCmd)
	rootCmd.AddCommand(videoCmd)
	rootCmd.AddCommand(probeCmd)
}

// ensureEngine loads the engine once. Load failure is fatal for the
// session: it is reported as a blocking message and no retry is offered.
func ensureEngine(ctx context.Context) error {
	if eng.Ready() {
		return nil
	}
	if err := eng.Load(ctx); err != nil {
		printer.Error("Media engine unavailable: %v", err)
		printer.Error("Install ffmpeg or set %s to its location.", config.EnvFFmpegPath)
		return err
	}
	return nil
}
