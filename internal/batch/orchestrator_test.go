package batch

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdul-hamid-achik/mediabatch/internal/engine"
)

// convertingEngine makes Execute behave like a real conversion: it
// reads the input reference, writes transformed bytes to the output
// reference, and can be told to fail on selected calls.
func convertingEngine(t *testing.T, failOn map[int]bool) *engine.MemoryEngine {
	t.Helper()
	eng := engine.NewMemoryEngine()
	require.NoError(t, eng.Load(context.Background()))

	call := 0
	eng.ExecFunc = func(e *engine.MemoryEngine, args []string) error {
		call++
		if failOn[call] {
			return fmt.Errorf("%w: conversion blew up", engine.ErrExecFailed)
		}
		in := args[1]
		out := args[len(args)-1]
		data, err := e.ReadVirtualFile(in)
		if err != nil {
			return err
		}
		return e.WriteVirtualFile(out, append([]byte("converted:"), data...))
	}
	return eng
}

func bundleNames(t *testing.T, data []byte) []string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	names := make([]string, len(zr.File))
	for i, f := range zr.File {
		names[i] = f.Name
	}
	return names
}

func TestRun_ConvertsAllItems(t *testing.T) {
	eng := convertingEngine(t, nil)
	o := NewOrchestrator(eng)

	b := New()
	for i := 0; i < 3; i++ {
		_, err := b.Add(fmt.Sprintf("img-%d.png", i), makePNG(t, 64, 48))
		require.NoError(t, err)
	}

	res, err := o.Run(context.Background(), b, Config{Format: "jpg", Quality: 80})
	require.NoError(t, err)

	assert.Equal(t, 3, res.Completed)
	assert.Equal(t, 0, res.Failed)
	assert.Equal(t, []string{"img-0.jpg", "img-1.jpg", "img-2.jpg"}, bundleNames(t, res.Bundle))

	for _, it := range b.Items() {
		assert.Equal(t, StatusDone, it.Status())
		require.NotNil(t, it.Output())
		assert.Equal(t, "converted:", string(it.Output().Data[:10]))
	}
}

func TestRun_PerItemFailureIsolation(t *testing.T) {
	// Item 2 of 4 fails; the rest must still convert and the bundle
	// holds exactly N-1 entries.
	eng := convertingEngine(t, map[int]bool{2: true})
	o := NewOrchestrator(eng)

	b := New()
	for i := 0; i < 4; i++ {
		_, err := b.Add(fmt.Sprintf("img-%d.png", i), makePNG(t, 10, 10))
		require.NoError(t, err)
	}

	res, err := o.Run(context.Background(), b, Config{Format: "png"})
	require.NoError(t, err)

	assert.Equal(t, 3, res.Completed)
	assert.Equal(t, 1, res.Failed)
	assert.Len(t, bundleNames(t, res.Bundle), 3)

	items := b.Items()
	assert.Equal(t, StatusError, items[1].Status())
	assert.ErrorIs(t, items[1].Err(), engine.ErrExecFailed)
	assert.Nil(t, items[1].Output())
	for _, i := range []int{0, 2, 3} {
		assert.Equal(t, StatusDone, items[i].Status(), "item %d", i)
	}
}

func TestRun_AllItemsFail(t *testing.T) {
	eng := convertingEngine(t, map[int]bool{1: true, 2: true})
	o := NewOrchestrator(eng)

	b := New()
	for i := 0; i < 2; i++ {
		_, err := b.Add(fmt.Sprintf("img-%d.png", i), makePNG(t, 10, 10))
		require.NoError(t, err)
	}

	res, err := o.Run(context.Background(), b, Config{Format: "webp", Quality: 50})
	require.NoError(t, err)

	assert.Equal(t, 2, res.Failed)
	assert.Nil(t, res.Bundle)
}

func TestRun_CleansVirtualFilesPerItem(t *testing.T) {
	eng := convertingEngine(t, map[int]bool{2: true})
	o := NewOrchestrator(eng)

	b := New()
	for i := 0; i < 3; i++ {
		_, err := b.Add(fmt.Sprintf("img-%d.png", i), makePNG(t, 8, 8))
		require.NoError(t, err)
	}

	_, err := o.Run(context.Background(), b, Config{Format: "jpg", Quality: 90})
	require.NoError(t, err)

	// Success or failure, nothing stays behind in the staging area.
	assert.Empty(t, eng.Files())
}

func TestRun_EngineNotReady(t *testing.T) {
	o := NewOrchestrator(engine.NewMemoryEngine())

	b := New()
	_, err := b.Add("img.png", makePNG(t, 4, 4))
	require.NoError(t, err)

	_, err = o.Run(context.Background(), b, Config{Format: "jpg"})
	assert.ErrorIs(t, err, engine.ErrNotReady)
}

func TestRun_EmptyBatch(t *testing.T) {
	eng := convertingEngine(t, nil)
	o := NewOrchestrator(eng)

	_, err := o.Run(context.Background(), New(), Config{Format: "jpg"})
	assert.ErrorIs(t, err, ErrEmptyBatch)
}

func TestRun_TaggedFilenames(t *testing.T) {
	eng := convertingEngine(t, nil)
	o := NewOrchestrator(eng)

	b := New()
	it, err := b.Add("IMG_0001.png", makePNG(t, 10, 10))
	require.NoError(t, err)
	it.SetTag("Summer Sale!!")

	res, err := o.Run(context.Background(), b, Config{Format: "webp", Quality: 70})
	require.NoError(t, err)

	assert.Equal(t, []string{"Summer-Sale--.webp"}, bundleNames(t, res.Bundle))
	assert.Equal(t, "Summer-Sale--.webp", it.Output().Filename)
}

func TestRun_DiscardedItemNeverInBundle(t *testing.T) {
	eng := convertingEngine(t, nil)
	o := NewOrchestrator(eng)

	b := New()
	keep, err := b.Add("keep.png", makePNG(t, 10, 10))
	require.NoError(t, err)
	drop, err := b.Add("drop.png", makePNG(t, 10, 10))
	require.NoError(t, err)

	require.True(t, b.Discard(drop.ID()))
	assert.Equal(t, 1, b.Len())

	res, err := o.Run(context.Background(), b, Config{Format: "jpg", Quality: 80})
	require.NoError(t, err)

	assert.Equal(t, []string{"keep.jpg"}, bundleNames(t, res.Bundle))
	assert.Equal(t, StatusDone, keep.Status())
}

func TestRun_RerunReprocessesCurrentItems(t *testing.T) {
	eng := convertingEngine(t, nil)
	o := NewOrchestrator(eng)

	b := New()
	for i := 0; i < 2; i++ {
		_, err := b.Add(fmt.Sprintf("img-%d.png", i), makePNG(t, 10, 10))
		require.NoError(t, err)
	}

	first, err := o.Run(context.Background(), b, Config{Format: "jpg", Quality: 80})
	require.NoError(t, err)
	require.Len(t, bundleNames(t, first.Bundle), 2)

	// Re-running with done items is permitted; the new bundle reflects
	// this run's items, not the cumulative history.
	second, err := o.Run(context.Background(), b, Config{Format: "jpg", Quality: 80})
	require.NoError(t, err)
	assert.Len(t, bundleNames(t, second.Bundle), 2)
	assert.Equal(t, 2, second.Completed)
}

func TestRun_NotifyCalledPerItem(t *testing.T) {
	eng := convertingEngine(t, map[int]bool{1: true})
	o := NewOrchestrator(eng)

	var seen []Status
	o.Notify = func(it *Item) { seen = append(seen, it.Status()) }

	b := New()
	for i := 0; i < 2; i++ {
		_, err := b.Add(fmt.Sprintf("img-%d.png", i), makePNG(t, 10, 10))
		require.NoError(t, err)
	}

	_, err := o.Run(context.Background(), b, Config{Format: "png"})
	require.NoError(t, err)

	assert.Equal(t, []Status{StatusError, StatusDone}, seen)
}

func TestDiscard_RemovesPreviewResource(t *testing.T) {
	eng := convertingEngine(t, nil)
	o := NewOrchestrator(eng)
	o.PreviewDir = t.TempDir()

	// The "conversion" passes PNG bytes through so the preview can
	// actually decode them.
	eng.ExecFunc = func(e *engine.MemoryEngine, args []string) error {
		data, err := e.ReadVirtualFile(args[1])
		if err != nil {
			return err
		}
		return e.WriteVirtualFile(args[len(args)-1], data)
	}

	b := New()
	it, err := b.Add("img.png", makePNG(t, 32, 32))
	require.NoError(t, err)

	_, err = o.Run(context.Background(), b, Config{Format: "png"})
	require.NoError(t, err)

	path := it.Output().PreviewPath
	require.NotEmpty(t, path)
	require.FileExists(t, path)

	require.True(t, b.Discard(it.ID()))
	assert.NoFileExists(t, path)
}

func TestRun_ContextCancelled(t *testing.T) {
	eng := convertingEngine(t, nil)
	o := NewOrchestrator(eng)

	b := New()
	_, err := b.Add("img.png", makePNG(t, 4, 4))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = o.Run(ctx, b, Config{Format: "jpg"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRun_ErrorsNeverPropagateRaw(t *testing.T) {
	// An engine failure becomes item state; Run itself returns nil.
	eng := convertingEngine(t, map[int]bool{1: true})
	o := NewOrchestrator(eng)

	b := New()
	it, err := b.Add("img.png", makePNG(t, 4, 4))
	require.NoError(t, err)

	res, err := o.Run(context.Background(), b, Config{Format: "jpg"})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Failed)
	assert.True(t, errors.Is(it.Err(), engine.ErrExecFailed))
}
