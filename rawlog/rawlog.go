// Package rawlog writes every frame of a live session to a canutils style log file.
package rawlog

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/squadracorsepolito/bmsmon/frame"
	"github.com/squadracorsepolito/bmsmon/internal"
)

// Largest standard (11 bit) identifier.
const maxStandardID = 0x7ff

type Config struct {
	Enabled bool
	Dir     string

	// FlushInterval bounds the time a line stays in the write buffer.
	FlushInterval time.Duration
}

func NewDefaultConfig() *Config {
	return &Config{
		Enabled: true,
		Dir:     "logs",

		FlushInterval: time.Second,
	}
}

// FileName returns the name of the log file of a session started at t.
func FileName(t time.Time) string {
	return fmt.Sprintf("can_log_%s.log", t.Format("20060102_150405"))
}

// Writer appends frames to a log file. It is safe for concurrent use.
type Writer struct {
	tel *internal.Telemetry

	mx sync.Mutex

	file  *os.File
	buf   *bufio.Writer
	iface string
	path  string

	flushInterval time.Duration
	lastFlush     time.Time

	lines  int64
	closed bool

	line []byte
}

// Open creates the log file of a session of the given interface started at t.
func Open(cfg *Config, iface string, t time.Time) (*Writer, error) {
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create raw log directory: %w", err)
	}

	path := filepath.Join(cfg.Dir, FileName(t))

	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open raw log: %w", err)
	}

	w := &Writer{
		tel: internal.NewTelemetry("rawlog", iface),

		file:  file,
		buf:   bufio.NewWriter(file),
		iface: iface,
		path:  path,

		flushInterval: cfg.FlushInterval,
		lastFlush:     time.Now(),

		line: make([]byte, 0, 64),
	}

	w.tel.NewCounter("written_lines", w.Lines)
	w.tel.LogInfo("raw log opened", "path", path)

	return w, nil
}

// Path returns the path of the log file.
func (w *Writer) Path() string {
	return w.path
}

// Record appends f to the log.
func (w *Writer) Record(f frame.Frame) error {
	w.mx.Lock()
	defer w.mx.Unlock()

	if w.closed {
		return os.ErrClosed
	}

	w.line = AppendLine(w.line[:0], w.iface, f)
	if _, err := w.buf.Write(w.line); err != nil {
		return err
	}
	w.lines++

	if w.flushInterval > 0 && time.Since(w.lastFlush) >= w.flushInterval {
		w.lastFlush = time.Now()
		return w.buf.Flush()
	}

	return nil
}

// AppendLine appends the log line of f, newline included, to dst.
// The line looks like: (1700000000.123456) can0 1A0#0102030405060708
func AppendLine(dst []byte, iface string, f frame.Frame) []byte {
	ts := f.Timestamp

	dst = append(dst, '(')
	dst = strconv.AppendInt(dst, ts.Unix(), 10)
	dst = append(dst, '.')
	dst = appendPadded(dst, uint64(ts.Nanosecond()/1000), 6)
	dst = append(dst, ") "...)
	dst = append(dst, iface...)
	dst = append(dst, ' ')

	if f.ID > maxStandardID {
		dst = appendHex(dst, uint64(f.ID), 8)
	} else {
		dst = appendHex(dst, uint64(f.ID), 3)
	}

	dst = append(dst, '#')
	for _, b := range f.Data {
		dst = appendHex(dst, uint64(b), 2)
	}

	return append(dst, '\n')
}

func appendPadded(dst []byte, v uint64, width int) []byte {
	s := strconv.FormatUint(v, 10)
	for range width - len(s) {
		dst = append(dst, '0')
	}
	return append(dst, s...)
}

const hexDigits = "0123456789ABCDEF"

func appendHex(dst []byte, v uint64, width int) []byte {
	for shift := (width - 1) * 4; shift >= 0; shift -= 4 {
		dst = append(dst, hexDigits[(v>>shift)&0xf])
	}
	return dst
}

// Lines returns the number of written lines.
func (w *Writer) Lines() int64 {
	w.mx.Lock()
	defer w.mx.Unlock()

	return w.lines
}

// Flush writes the buffered lines to the file.
func (w *Writer) Flush() error {
	w.mx.Lock()
	defer w.mx.Unlock()

	if w.closed {
		return nil
	}

	w.lastFlush = time.Now()
	return w.buf.Flush()
}

// Run flushes the buffered lines every flush interval until ctx is done
// or the writer is closed, so lines reach the file on a quiet bus too.
func (w *Writer) Run(ctx context.Context) {
	if w.flushInterval <= 0 {
		return
	}

	ticker := time.NewTicker(w.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-ticker.C:
			w.mx.Lock()
			closed := w.closed
			w.mx.Unlock()

			if closed {
				return
			}

			if err := w.Flush(); err != nil {
				w.tel.LogError("failed to flush raw log", err)
			}
		}
	}
}

// Close flushes the buffered lines and closes the file.
func (w *Writer) Close() error {
	w.mx.Lock()
	defer w.mx.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true

	flushErr := w.buf.Flush()
	closeErr := w.file.Close()

	if flushErr != nil {
		return flushErr
	}
	return closeErr
}
