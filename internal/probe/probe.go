// Package probe extracts media properties from the engine's diagnostic
// output. The engine refuses an invocation without an output reference,
// but it dumps stream information before failing; probing runs exactly
// that invocation and scrapes the text. Results are best-effort: any
// field can come back unknown and conversion must still be possible
// with manually entered dimensions.
package probe

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/abdul-hamid-achik/mediabatch/internal/engine"
	"github.com/abdul-hamid-achik/mediabatch/internal/logger"
)

// Result holds the scraped properties. Zero values mean unknown.
type Result struct {
	Width    int
	Height   int
	FPS      float64
	Codec    string
	Duration float64 // seconds
}

// HasDimensions reports whether both dimensions were found.
func (r Result) HasDimensions() bool {
	return r.Width > 0 && r.Height > 0
}

var (
	resolutionRe = regexp.MustCompile(`\b(\d{2,5})x(\d{2,5})\b`)
	fpsRe        = regexp.MustCompile(`([\d.]+) fps\b`)
	codecRe      = regexp.MustCompile(`Video: (\w+)`)
	durationRe   = regexp.MustCompile(`Duration: (\d+):(\d{2}):(\d{2}(?:\.\d+)?)`)
)

// Probe writes data into the engine's virtual filesystem, runs an
// input-only invocation and scrapes its diagnostic text. The
// invocation's own failure is expected and swallowed; a returned error
// means the probe could not even stage the file.
func Probe(ctx context.Context, eng engine.Engine, data []byte) (Result, error) {
	log := logger.FromContext(ctx)

	if !eng.Ready() {
		return Result{}, engine.ErrNotReady
	}

	name := "probe-" + uuid.NewString() + ".bin"
	if err := eng.WriteVirtualFile(name, data); err != nil {
		return Result{}, fmt.Errorf("probe: failed to stage input: %w", err)
	}
	defer func() {
		if err := eng.DeleteVirtualFile(name); err != nil {
			log.Warn("probe: failed to clean staged input", "file", name, "error", err)
		}
	}()

	var lines []string
	unsubscribe := eng.SubscribeLogs(func(line string) {
		lines = append(lines, line)
	})
	err := eng.Execute(ctx, []string{"-i", name})
	unsubscribe()
	if err == nil {
		log.Debug("probe: input-only invocation unexpectedly succeeded")
	}
	if ctx.Err() != nil {
		return Result{}, ctx.Err()
	}

	result := Parse(lines)
	log.Debug("probe finished",
		"width", result.Width, "height", result.Height,
		"fps", result.FPS, "codec", result.Codec, "duration", result.Duration)
	return result, nil
}

// Parse scrapes known substrings out of diagnostic lines. Fields not
// found stay zero.
func Parse(lines []string) Result {
	var r Result
	for _, line := range lines {
		if m := durationRe.FindStringSubmatch(line); m != nil && r.Duration == 0 {
			h, _ := strconv.ParseFloat(m[1], 64)
			min, _ := strconv.ParseFloat(m[2], 64)
			sec, _ := strconv.ParseFloat(m[3], 64)
			r.Duration = h*3600 + min*60 + sec
		}

		if !strings.Contains(line, "Video:") {
			continue
		}
		if m := codecRe.FindStringSubmatch(line); m != nil && r.Codec == "" {
			r.Codec = m[1]
		}
		if m := resolutionRe.FindStringSubmatch(line); m != nil && !r.HasDimensions() {
			r.Width, _ = strconv.Atoi(m[1])
			r.Height, _ = strconv.Atoi(m[2])
		}
		if m := fpsRe.FindStringSubmatch(line); m != nil && r.FPS == 0 {
			r.FPS, _ = strconv.ParseFloat(m[1], 64)
		}
	}
	return r
}
