package batch

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/abdul-hamid-achik/mediabatch/internal/engine"
	"github.com/abdul-hamid-achik/mediabatch/internal/logger"
	"github.com/abdul-hamid-achik/mediabatch/internal/plan"
	"github.com/abdul-hamid-achik/mediabatch/internal/presets"
)

var (
	ErrUnknownResolution = errors.New("batch: unknown resolution preset")
	ErrUnknownCodec      = errors.New("batch: unknown codec")
)

// VideoOutputName is the fixed artifact name of a converted video,
// completed with the selected format's extension.
const VideoOutputName = "video-transformado"

// VideoConfig describes the single active video job.
type VideoConfig struct {
	Format     string // one of presets.VideoFormats
	Resolution string // "original", a preset name (720p, ...) or "custom"
	Width      int    // custom mode
	Height     int    // custom mode
	Codec      string // one of presets.CodecNames; empty means h264
}

// RunVideo converts the single video item. Progress is surfaced as an
// integer percentage; ticks may arrive out of order, so callers treat
// the display value as best-effort.
func (o *Orchestrator) RunVideo(ctx context.Context, it *Item, cfg VideoConfig, onProgress func(pct int)) (*Output, error) {
	log := logger.FromContext(ctx).With("item_id", it.id.String())

	if !o.engine.Ready() {
		return nil, engine.ErrNotReady
	}

	intent, err := videoIntent(it, cfg)
	if err != nil {
		return nil, err
	}

	it.markProcessing()
	start := time.Now()
	log.Info("video job started", "format", cfg.Format, "resolution", cfg.Resolution, "codec", cfg.Codec)

	defer func() {
		o.deleteQuietly(ctx, intent.Input)
		o.deleteQuietly(ctx, intent.Output)
	}()

	if err := o.engine.WriteVirtualFile(intent.Input, it.source); err != nil {
		it.fail(err)
		return nil, err
	}

	if onProgress != nil {
		unsubscribe := o.engine.SubscribeProgress(func(fraction float64) {
			pct := int(math.Round(fraction * 100))
			if pct < 0 {
				pct = 0
			}
			if pct > 100 {
				pct = 100
			}
			onProgress(pct)
		})
		defer unsubscribe()
	}

	if err := o.engine.Execute(ctx, plan.Video(intent)); err != nil {
		it.fail(err)
		return nil, err
	}

	data, err := o.engine.ReadVirtualFile(intent.Output)
	if err != nil {
		it.fail(err)
		return nil, err
	}

	out := &Output{
		Data:     data,
		Filename: VideoOutputName + "." + cfg.Format,
	}
	it.complete(out)

	log.Info("video job finished", "size", len(data), "duration_ms", time.Since(start).Milliseconds())
	return out, nil
}

func videoIntent(it *Item, cfg VideoConfig) (plan.VideoIntent, error) {
	intent := plan.VideoIntent{
		Input:  "in-" + it.id.String() + sourceExt(it.name),
		Output: "out-" + it.id.String() + "." + cfg.Format,
		Format: cfg.Format,
	}

	switch cfg.Resolution {
	case "", "original":
		intent.Mode = plan.ResolutionOriginal
	case "custom":
		intent.Mode = plan.ResolutionCustom
		intent.Width = cfg.Width
		intent.Height = cfg.Height
	default:
		res, ok := presets.GetResolution(cfg.Resolution)
		if !ok {
			return plan.VideoIntent{}, fmt.Errorf("%w: %s", ErrUnknownResolution, cfg.Resolution)
		}
		intent.Mode = plan.ResolutionPreset
		intent.PresetHeight = res.Height
	}

	name := cfg.Codec
	if name == "" {
		name = "h264"
	}
	codec, ok := presets.GetCodec(name)
	if !ok {
		return plan.VideoIntent{}, fmt.Errorf("%w: %s", ErrUnknownCodec, name)
	}
	intent.StreamCopy = codec.Copy
	intent.Encoder = codec.Encoder

	return intent, nil
}
