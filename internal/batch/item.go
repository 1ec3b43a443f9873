package batch

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"math"
	"os"

	// Register decoders for reading source dimensions at item creation.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/google/uuid"
)

var (
	ErrUndecodable = errors.New("batch: cannot read source dimensions")
	ErrDiscarded   = errors.New("batch: item was discarded")
)

// Status is an item's position in its lifecycle. Transitions move
// forward only: a done or error item can be discarded, never returned
// to idle. A new conversion run may take it through processing again.
type Status string

const (
	StatusIdle       Status = "idle"
	StatusProcessing Status = "processing"
	StatusDone       Status = "done"
	StatusError      Status = "error"
)

// Output exists only on done items. It owns the converted bytes, the
// final output filename and an optional preview file acting as the
// item's display handle.
type Output struct {
	Data        []byte
	Filename    string
	PreviewPath string
}

// Item is one queued conversion: an image in a batch, or the single
// active video. The source reference and its dimensions are fixed at
// creation; only the target dimensions and tag are user-mutable.
type Item struct {
	id   uuid.UUID
	name string

	source       []byte
	sourceWidth  int
	sourceHeight int
	aspectRatio  float64

	targetWidth  int
	targetHeight int
	tag          string

	status Status
	err    error
	output *Output
}

// NewItem creates an idle item from an image file, reading the source
// dimensions from its header.
func NewItem(name string, data []byte) (*Item, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUndecodable, err)
	}
	return NewItemWithDimensions(name, data, cfg.Width, cfg.Height), nil
}

// NewItemWithDimensions creates an idle item with externally determined
// dimensions, as the video path does after probing. Zero dimensions
// mean unknown; the aspect ratio link stays disabled until both are set
// through other means.
func NewItemWithDimensions(name string, data []byte, width, height int) *Item {
	it := &Item{
		id:           uuid.New(),
		name:         name,
		source:       data,
		sourceWidth:  width,
		sourceHeight: height,
		targetWidth:  width,
		targetHeight: height,
		status:       StatusIdle,
	}
	if height > 0 {
		it.aspectRatio = float64(width) / float64(height)
	}
	return it
}

func (it *Item) ID() uuid.UUID     { return it.id }
func (it *Item) Name() string      { return it.name }
func (it *Item) Status() Status    { return it.status }
func (it *Item) Err() error        { return it.err }
func (it *Item) Output() *Output   { return it.output }
func (it *Item) Source() []byte    { return it.source }
func (it *Item) SourceWidth() int  { return it.sourceWidth }
func (it *Item) SourceHeight() int { return it.sourceHeight }
func (it *Item) TargetWidth() int  { return it.targetWidth }
func (it *Item) TargetHeight() int { return it.targetHeight }
func (it *Item) Tag() string       { return it.tag }

// AspectRatio is width/height as fixed at creation. It is never
// recomputed from target dimensions.
func (it *Item) AspectRatio() float64 { return it.aspectRatio }

// SetTargetWidth sets the desired width and recomputes the height from
// the fixed aspect ratio, rounded to the nearest integer.
func (it *Item) SetTargetWidth(w int) {
	it.targetWidth = w
	if it.aspectRatio > 0 {
		it.targetHeight = int(math.Round(float64(w) / it.aspectRatio))
	}
}

// SetTargetHeight sets the desired height and recomputes the width from
// the fixed aspect ratio, rounded to the nearest integer.
func (it *Item) SetTargetHeight(h int) {
	it.targetHeight = h
	if it.aspectRatio > 0 {
		it.targetWidth = int(math.Round(float64(h) * it.aspectRatio))
	}
}

func (it *Item) SetTag(tag string) { it.tag = tag }

func (it *Item) markProcessing() {
	it.status = StatusProcessing
	it.err = nil
	it.output = nil
}

func (it *Item) complete(out *Output) {
	it.status = StatusDone
	it.output = out
}

func (it *Item) fail(err error) {
	it.status = StatusError
	it.err = err
}

// release frees the display-handle resource, if any.
func (it *Item) release() {
	if it.output != nil && it.output.PreviewPath != "" {
		_ = os.Remove(it.output.PreviewPath)
	}
	it.output = nil
}
