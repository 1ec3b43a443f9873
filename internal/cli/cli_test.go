package cli

import (
	"strings"
	"testing"
)

func execute(t *testing.T, args ...string) error {
	t.Helper()
	t.Setenv("HOME", t.TempDir())

	// Flag globals survive between Execute calls; reset what the tests touch.
	convertFormat, convertPreset, convertTag, convertOut, convertPreviews = "", "", "", "", ""
	convertQuality, convertWidth, convertHeight = 0, 0, 0
	convertOpen = false
	videoFormat, videoResolution, videoCodec, videoOut = "mp4", "original", "h264", ""
	videoWidth, videoHeight = 0, 0

	rootCmd.SetArgs(args)
	return rootCmd.Execute()
}

func TestConvert_RequiresFiles(t *testing.T) {
	err := execute(t, "convert")
	if err == nil {
		t.Fatal("convert with no args succeeded")
	}
}

func TestConvert_RejectsUnsupportedFormat(t *testing.T) {
	err := execute(t, "convert", "whatever.png", "-f", "exe")
	if err == nil || !strings.Contains(err.Error(), "unsupported image format") {
		t.Fatalf("err = %v, want unsupported image format", err)
	}
}

func TestConvert_RejectsUnknownPreset(t *testing.T) {
	err := execute(t, "convert", "whatever.png", "-p", "nope")
	if err == nil || !strings.Contains(err.Error(), "unknown preset") {
		t.Fatalf("err = %v, want unknown preset", err)
	}
}

func TestConvert_RejectsQualityOutOfRange(t *testing.T) {
	err := execute(t, "convert", "whatever.png", "-q", "150")
	if err == nil || !strings.Contains(err.Error(), "out of range") {
		t.Fatalf("err = %v, want quality out of range", err)
	}
}

func TestVideo_RejectsUnsupportedFormat(t *testing.T) {
	err := execute(t, "video", "clip.bin", "-f", "exe")
	if err == nil || !strings.Contains(err.Error(), "unsupported video format") {
		t.Fatalf("err = %v, want unsupported video format", err)
	}
}

func TestVideo_RequiresExactlyOneFile(t *testing.T) {
	if err := execute(t, "video"); err == nil {
		t.Fatal("video with no args succeeded")
	}
	if err := execute(t, "video", "a.mp4", "b.mp4"); err == nil {
		t.Fatal("video with two args succeeded")
	}
}
