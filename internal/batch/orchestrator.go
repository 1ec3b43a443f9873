package batch

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/abdul-hamid-achik/mediabatch/internal/bundle"
	"github.com/abdul-hamid-achik/mediabatch/internal/engine"
	"github.com/abdul-hamid-achik/mediabatch/internal/logger"
	"github.com/abdul-hamid-achik/mediabatch/internal/plan"
	"github.com/abdul-hamid-achik/mediabatch/internal/preview"
)

// Config applies uniformly to every item of an image batch at
// conversion time; it is not stored per item.
type Config struct {
	Format  string // output format, one of presets.ImageFormats
	Quality int    // 1-100, semantics format-dependent
}

// Orchestrator drives items sequentially through the engine. It is the
// engine's sole caller: invocations never overlap because the engine
// exposes one virtual filesystem and one execution context.
type Orchestrator struct {
	engine engine.Engine

	// PreviewDir, when set, receives a preview file per completed item.
	PreviewDir string

	// Notify, when set, is called after each item settles (done or
	// error). Used for live progress display.
	Notify func(*Item)
}

func NewOrchestrator(eng engine.Engine) *Orchestrator {
	return &Orchestrator{engine: eng}
}

// RunResult summarizes one image batch run.
type RunResult struct {
	BundleName string
	Bundle     []byte // nil when every item failed
	Completed  int
	Failed     int
}

// Run converts every item of the batch in insertion order, one engine
// invocation in flight at a time. A failing item is marked error and
// the batch continues; completed outputs are registered into the
// bundle, which is finalized once after all items were attempted.
func (o *Orchestrator) Run(ctx context.Context, b *Batch, cfg Config) (*RunResult, error) {
	if !o.engine.Ready() {
		return nil, engine.ErrNotReady
	}
	items := b.Items()
	if len(items) == 0 {
		return nil, ErrEmptyBatch
	}

	ctx = logger.WithBatchID(ctx, uuid.NewString())
	log := logger.FromContext(ctx)

	start := time.Now()
	agg := bundle.New()
	result := &RunResult{BundleName: bundle.Filename(start)}

	log.Info("batch started", "items", len(items), "format", cfg.Format, "quality", cfg.Quality)

	for _, it := range items {
		ctx := logger.WithItemID(ctx, it.id.String())
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if err := o.convertItem(ctx, it, cfg, agg); err != nil {
			it.fail(err)
			result.Failed++
			logger.FromContext(ctx).Warn("item failed", "name", it.name, "error", err)
		} else {
			result.Completed++
		}
		if o.Notify != nil {
			o.Notify(it)
		}
	}

	data, err := agg.Finalize()
	switch {
	case err == nil:
		result.Bundle = data
	case errors.Is(err, bundle.ErrEmpty):
		// Every item failed; there is nothing to download.
	default:
		return nil, err
	}

	log.Info("batch finished",
		"completed", result.Completed,
		"failed", result.Failed,
		"duration_ms", time.Since(start).Milliseconds())
	return result, nil
}

// convertItem runs one item through write/plan/execute/read and
// registers the output. The staged virtual files are always deleted:
// the engine's filesystem is not garbage-collected, so skipping cleanup
// leaks the batch's whole working set.
func (o *Orchestrator) convertItem(ctx context.Context, it *Item, cfg Config, agg *bundle.Aggregator) error {
	it.markProcessing()

	inName := "in-" + it.id.String() + sourceExt(it.name)
	outName := "out-" + it.id.String() + "." + cfg.Format
	defer func() {
		o.deleteQuietly(ctx, inName)
		o.deleteQuietly(ctx, outName)
	}()

	if err := o.engine.WriteVirtualFile(inName, it.source); err != nil {
		return err
	}

	args := plan.Image(plan.ImageIntent{
		Input:        inName,
		Output:       outName,
		SourceWidth:  it.sourceWidth,
		SourceHeight: it.sourceHeight,
		TargetWidth:  it.targetWidth,
		TargetHeight: it.targetHeight,
		Format:       cfg.Format,
		Quality:      cfg.Quality,
		Tag:          it.tag,
	})

	if err := o.engine.Execute(ctx, args); err != nil {
		return err
	}

	data, err := o.engine.ReadVirtualFile(outName)
	if err != nil {
		return err
	}

	filename := plan.OutputName(it.tag, it.name, cfg.Format)
	out := &Output{Data: data, Filename: filename}

	if o.PreviewDir != "" && preview.Decodable(data) {
		path, err := preview.Write(o.PreviewDir, it.id.String(), data)
		if err != nil {
			logger.FromContext(ctx).Warn("preview generation failed", "name", it.name, "error", err)
		} else {
			out.PreviewPath = path
		}
	}

	it.complete(out)
	agg.Register(filename, data)
	return nil
}

func (o *Orchestrator) deleteQuietly(ctx context.Context, name string) {
	if err := o.engine.DeleteVirtualFile(name); err != nil {
		logger.FromContext(ctx).Warn("virtual file cleanup failed", "file", name, "error", err)
	}
}

func sourceExt(name string) string {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[i:]
	}
	return ""
}

// Engine exposes the orchestrator's engine for probing and readiness
// checks by the caller.
func (o *Orchestrator) Engine() engine.Engine {
	return o.engine
}
