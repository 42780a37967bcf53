package rawlog

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"io"
	"iter"
	"strconv"
	"strings"
	"time"

	"github.com/squadracorsepolito/bmsmon/frame"
)

// Line is a parsed log line.
type Line struct {
	Iface string
	Frame frame.Frame
}

// ParseLine parses a line written by [AppendLine], without the trailing newline.
func ParseLine(line string) (Line, error) {
	fields := strings.Fields(line)
	if len(fields) != 3 {
		return Line{}, fmt.Errorf("rawlog: malformed line %q", line)
	}

	tsField := fields[0]
	if len(tsField) < 3 || tsField[0] != '(' || tsField[len(tsField)-1] != ')' {
		return Line{}, fmt.Errorf("rawlog: malformed timestamp %q", tsField)
	}

	ts, err := parseTimestamp(tsField[1 : len(tsField)-1])
	if err != nil {
		return Line{}, err
	}

	idStr, dataStr, ok := strings.Cut(fields[2], "#")
	if !ok {
		return Line{}, fmt.Errorf("rawlog: missing '#' in %q", fields[2])
	}

	id, err := strconv.ParseUint(idStr, 16, 32)
	if err != nil {
		return Line{}, fmt.Errorf("rawlog: malformed identifier %q: %w", idStr, err)
	}

	data, err := hex.DecodeString(dataStr)
	if err != nil {
		return Line{}, fmt.Errorf("rawlog: malformed payload %q: %w", dataStr, err)
	}

	if len(data) > frame.MaxDataLen {
		return Line{}, fmt.Errorf("rawlog: payload of %d bytes", len(data))
	}

	return Line{
		Iface: fields[1],
		Frame: frame.New(uint32(id), data, ts),
	}, nil
}

func parseTimestamp(s string) (time.Time, error) {
	secStr, fracStr, _ := strings.Cut(s, ".")

	sec, err := strconv.ParseInt(secStr, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("rawlog: malformed timestamp %q: %w", s, err)
	}

	var nsec int64
	if fracStr != "" {
		if len(fracStr) > 9 {
			fracStr = fracStr[:9]
		}

		frac, err := strconv.ParseInt(fracStr, 10, 64)
		if err != nil {
			return time.Time{}, fmt.Errorf("rawlog: malformed timestamp %q: %w", s, err)
		}

		nsec = frac
		for range 9 - len(fracStr) {
			nsec *= 10
		}
	}

	return time.Unix(sec, nsec), nil
}

// ReadLines iterates over the lines of r.
// Blank lines are skipped and the iteration stops at the first error.
func ReadLines(r io.Reader) iter.Seq2[Line, error] {
	return func(yield func(Line, error) bool) {
		scanner := bufio.NewScanner(r)

		for scanner.Scan() {
			text := strings.TrimSpace(scanner.Text())
			if text == "" {
				continue
			}

			line, err := ParseLine(text)
			if !yield(line, err) || err != nil {
				return
			}
		}

		if err := scanner.Err(); err != nil {
			yield(Line{}, err)
		}
	}
}
