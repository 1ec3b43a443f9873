// Package plan maps declared conversion intents to ordered engine
// argument lists. Everything here is pure: no I/O, no engine calls.
package plan

import (
	"fmt"
	"math"
	"strconv"
)

// metadataKeys is the fixed set of descriptive fields a tag is applied
// to. Over-tagging every field with the same value is deliberate:
// different readers look at different fields.
var metadataKeys = []string{
	"title",
	"description",
	"comment",
	"author",
	"copyright",
	"creation_date",
}

// ImageIntent is one image item's declared transformation.
type ImageIntent struct {
	Input  string // virtual input file name
	Output string // virtual output file name, extension = format

	SourceWidth  int
	SourceHeight int
	TargetWidth  int
	TargetHeight int

	Format  string // jpg, png, webp, gif, bmp, tiff, ico
	Quality int    // 1-100, semantics format-dependent
	Tag     string // optional metadata tag
}

// Image builds the engine argument list for one image conversion.
func Image(in ImageIntent) []string {
	args := []string{"-i", in.Input}

	if in.TargetWidth != in.SourceWidth || in.TargetHeight != in.SourceHeight {
		args = append(args, "-vf", fmt.Sprintf("scale=%d:%d", in.TargetWidth, in.TargetHeight))
	}

	switch in.Format {
	case "jpg", "jpeg":
		args = append(args, "-q:v", strconv.Itoa(JPEGQuality(in.Quality)))
	case "webp":
		args = append(args, "-quality", strconv.Itoa(in.Quality))
	}

	if in.Tag != "" {
		for _, key := range metadataKeys {
			args = append(args, "-metadata", key+"="+in.Tag)
		}
	}

	return append(args, in.Output)
}

// ResolutionMode selects how a video's output resolution is derived.
type ResolutionMode int

const (
	ResolutionOriginal ResolutionMode = iota
	ResolutionPreset
	ResolutionCustom
)

// VideoIntent is the single video job's declared transformation.
type VideoIntent struct {
	Input  string
	Output string

	Format string // mp4, webm, mkv, avi, mov, flv, wmv

	Mode         ResolutionMode
	PresetHeight int // ResolutionPreset: fixed height, width auto-derives
	Width        int // ResolutionCustom
	Height       int // ResolutionCustom

	Encoder    string // engine encoder name, ignored when StreamCopy
	StreamCopy bool
}

// Video builds the engine argument list for one video conversion.
// A StreamCopy intent combined with a resolution or format change is
// accepted as-is; the engine's own failure surfaces as the job error.
func Video(in VideoIntent) []string {
	args := []string{"-i", in.Input}

	switch in.Mode {
	case ResolutionPreset:
		// -2 keeps the auto-derived width divisible by two, which the
		// encoders require.
		args = append(args, "-vf", fmt.Sprintf("scale=-2:%d", in.PresetHeight))
	case ResolutionCustom:
		args = append(args, "-vf", fmt.Sprintf("scale=%d:%d", EvenDimension(in.Width), EvenDimension(in.Height)))
	}

	if in.StreamCopy {
		args = append(args, "-c", "copy")
	} else {
		args = append(args, "-c:v", in.Encoder)
		if in.Encoder == "libx264" && in.Format == "mp4" {
			args = append(args, "-preset", "fast")
		}
	}

	return append(args, in.Output)
}

// JPEGQuality maps user quality 1-100 to the engine's inverted 2-31
// scale: higher user quality means a lower engine value.
func JPEGQuality(q int) int {
	v := int(math.Floor(31 - float64(q-1)*29/99))
	if v < 2 {
		return 2
	}
	if v > 31 {
		return 31
	}
	return v
}

// EvenDimension rounds a pixel dimension down to an even value, a codec
// requirement for custom resolutions.
func EvenDimension(v int) int {
	if v%2 != 0 {
		return v - 1
	}
	return v
}
