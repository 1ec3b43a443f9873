package engine

import (
	"bufio"
	"strings"
	"testing"
)

func TestParseDuration(t *testing.T) {
	tests := []struct {
		name string
		line string
		want float64
		ok   bool
	}{
		{
			name: "standard duration line",
			line: "  Duration: 00:01:30.50, start: 0.000000, bitrate: 5605 kb/s",
			want: 90.5,
			ok:   true,
		},
		{
			name: "hours",
			line: "  Duration: 01:00:00.00, start: 0.000000",
			want: 3600,
			ok:   true,
		},
		{
			name: "no duration",
			line: "Stream #0:0: Video: h264",
			ok:   false,
		},
		{
			name: "unparseable clock",
			line: "  Duration: N/A, start: 0.000000",
			ok:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parseDuration(tt.line)
			if ok != tt.ok {
				t.Fatalf("parseDuration(%q) ok = %v, want %v", tt.line, ok, tt.ok)
			}
			if ok && got != tt.want {
				t.Errorf("parseDuration(%q) = %v, want %v", tt.line, got, tt.want)
			}
		})
	}
}

func TestParseTime(t *testing.T) {
	line := "frame=  100 fps= 25 q=28.0 size=     512KiB time=00:00:12.34 bitrate= 339.9kbits/s speed=1.02x"

	got, ok := parseTime(line)
	if !ok {
		t.Fatalf("parseTime(%q) ok = false, want true", line)
	}
	if want := 12.34; got != want {
		t.Errorf("parseTime(%q) = %v, want %v", line, got, want)
	}

	if _, ok := parseTime("frame=  100 fps= 25"); ok {
		t.Error("parseTime() ok = true for line without time=, want false")
	}
}

func TestScanStatusLines(t *testing.T) {
	// ffmpeg rewrites its status line with \r, not \n.
	input := "line one\nframe=1 time=00:00:01.00\rframe=2 time=00:00:02.00\rlast"

	scanner := bufio.NewScanner(strings.NewReader(input))
	scanner.Split(scanStatusLines)

	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}

	want := []string{
		"line one",
		"frame=1 time=00:00:01.00",
		"frame=2 time=00:00:02.00",
		"last",
	}
	if len(lines) != len(want) {
		t.Fatalf("got %d lines, want %d: %q", len(lines), len(want), lines)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestValidName(t *testing.T) {
	valid := []string{"in-abc123.png", "out.mp4", "a_b-c.webp"}
	for _, name := range valid {
		if err := validName(name); err != nil {
			t.Errorf("validName(%q) = %v, want nil", name, err)
		}
	}

	invalid := []string{"", "../escape", "dir/file.png", ".hidden", "a/..", "/abs"}
	for _, name := range invalid {
		if err := validName(name); err == nil {
			t.Errorf("validName(%q) = nil, want error", name)
		}
	}
}
