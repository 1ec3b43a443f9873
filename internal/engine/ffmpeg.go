package engine

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
)

// Config holds settings for the ffmpeg-backed engine.
type Config struct {
	FFmpegPath string // path to the ffmpeg binary (default "ffmpeg")
	StagingDir string // parent dir for the virtual filesystem (default os.TempDir)
}

func DefaultConfig() *Config {
	return &Config{
		FFmpegPath: "ffmpeg",
	}
}

// FFmpeg runs the external ffmpeg binary. The virtual filesystem is a
// per-session staging directory used as the working directory of every
// invocation, so argument lists reference bare virtual names.
type FFmpeg struct {
	config *Config

	mu      sync.Mutex // guards ready, dir and all filesystem state
	execMu  sync.Mutex // serializes invocations; held for a whole Execute
	ready   bool
	dir     string
	ffmpeg  string
	subs    subscribers
}

var _ Engine = (*FFmpeg)(nil)

// New creates an unloaded engine adapter. Call Load before use.
func New(cfg *Config) *FFmpeg {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &FFmpeg{config: cfg}
}

func (e *FFmpeg) Load(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.ready {
		return nil
	}

	path, err := exec.LookPath(e.config.FFmpegPath)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrFFmpegNotFound, err)
	}

	dir, err := os.MkdirTemp(e.config.StagingDir, "mediabatch-vfs-*")
	if err != nil {
		return fmt.Errorf("engine: failed to create staging dir: %w", err)
	}

	e.ffmpeg = path
	e.dir = dir
	e.ready = true
	return ctx.Err()
}

func (e *FFmpeg) Ready() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ready
}

func (e *FFmpeg) WriteVirtualFile(name string, data []byte) error {
	path, err := e.resolve(name)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("engine: failed to write %s: %w", name, err)
	}
	return nil
}

func (e *FFmpeg) ReadVirtualFile(name string) ([]byte, error) {
	path, err := e.resolve(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, name)
		}
		return nil, fmt.Errorf("engine: failed to read %s: %w", name, err)
	}
	return data, nil
}

func (e *FFmpeg) DeleteVirtualFile(name string) error {
	path, err := e.resolve(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("engine: failed to delete %s: %w", name, err)
	}
	return nil
}

func (e *FFmpeg) Execute(ctx context.Context, args []string) error {
	e.mu.Lock()
	if !e.ready {
		e.mu.Unlock()
		return ErrNotReady
	}
	bin, dir := e.ffmpeg, e.dir
	e.mu.Unlock()

	// One invocation in flight at a time: the staging directory is shared.
	e.execMu.Lock()
	defer e.execMu.Unlock()

	full := append([]string{"-hide_banner", "-nostdin", "-y"}, args...)
	cmd := exec.CommandContext(ctx, bin, full...)
	cmd.Dir = dir

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrExecFailed, err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%w: %v", ErrExecFailed, err)
	}

	var tail []string
	scanner := bufio.NewScanner(stderr)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	scanner.Split(scanStatusLines)

	var totalSecs float64
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		e.subs.emitLog(line)
		tail = append(tail, line)
		if len(tail) > 8 {
			tail = tail[1:]
		}
		if d, ok := parseDuration(line); ok && totalSecs == 0 {
			totalSecs = d
		}
		if t, ok := parseTime(line); ok && totalSecs > 0 {
			e.subs.emitProgress(min(t/totalSecs, 1))
		}
	}

	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("%w: %v: %s", ErrExecFailed, err, strings.Join(tail, "\n"))
	}
	return nil
}

func (e *FFmpeg) SubscribeLogs(fn LogFunc) func() {
	return e.subs.addLog(fn)
}

func (e *FFmpeg) SubscribeProgress(fn ProgressFunc) func() {
	return e.subs.addProgress(fn)
}

func (e *FFmpeg) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.ready {
		return nil
	}
	e.ready = false
	return os.RemoveAll(e.dir)
}

func (e *FFmpeg) resolve(name string) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.ready {
		return "", ErrNotReady
	}
	if err := validName(name); err != nil {
		return "", err
	}
	return filepath.Join(e.dir, name), nil
}

// scanStatusLines splits on \n and \r: ffmpeg rewrites its status line
// with carriage returns, and time= ticks only appear there.
func scanStatusLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

// parseDuration extracts total seconds from a "Duration: 00:01:30.50" line.
func parseDuration(line string) (float64, bool) {
	idx := strings.Index(line, "Duration:")
	if idx < 0 {
		return 0, false
	}
	rest := strings.TrimSpace(line[idx+len("Duration:"):])
	if i := strings.IndexByte(rest, ','); i >= 0 {
		rest = rest[:i]
	}
	return parseClock(strings.TrimSpace(rest))
}

// parseTime extracts elapsed seconds from a "... time=00:00:12.34 ..."
// status line tick.
func parseTime(line string) (float64, bool) {
	idx := strings.Index(line, "time=")
	if idx < 0 {
		return 0, false
	}
	rest := line[idx+len("time="):]
	if i := strings.IndexByte(rest, ' '); i >= 0 {
		rest = rest[:i]
	}
	return parseClock(rest)
}

func parseClock(s string) (float64, bool) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return 0, false
	}
	h, err1 := strconv.ParseFloat(parts[0], 64)
	m, err2 := strconv.ParseFloat(parts[1], 64)
	sec, err3 := strconv.ParseFloat(parts[2], 64)
	if err1 != nil || err2 != nil || err3 != nil {
		return 0, false
	}
	return h*3600 + m*60 + sec, true
}

type subscribers struct {
	mu       sync.Mutex
	nextID   int
	logs     map[int]LogFunc
	progress map[int]ProgressFunc
}

func (s *subscribers) addLog(fn LogFunc) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.logs == nil {
		s.logs = make(map[int]LogFunc)
	}
	id := s.nextID
	s.nextID++
	s.logs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.logs, id)
	}
}

func (s *subscribers) addProgress(fn ProgressFunc) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.progress == nil {
		s.progress = make(map[int]ProgressFunc)
	}
	id := s.nextID
	s.nextID++
	s.progress[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.progress, id)
	}
}

func (s *subscribers) emitLog(line string) {
	s.mu.Lock()
	fns := make([]LogFunc, 0, len(s.logs))
	for _, fn := range s.logs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()
	for _, fn := range fns {
		fn(line)
	}
}

func (s *subscribers) emitProgress(fraction float64) {
	s.mu.Lock()
	fns := make([]ProgressFunc, 0, len(s.progress))
	for _, fn := range s.progress {
		fns = append(fns, fn)
	}
	s.mu.Unlock()
	for _, fn := range fns {
		fn(fraction)
	}
}
