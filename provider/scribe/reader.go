package scribe

import (
	"bufio"
	"errors"
	"io"
	"strings"
)

// errStreamDone signals a clean end of the response body.
var errStreamDone = errors.New("stream done")

// lineReader yields the response body one line at a time. It is built on
// bufio.Reader rather than bufio.Scanner so oversized frames don't trip the
// scanner's token limit; a frame can carry an arbitrarily large delta.
type lineReader struct {
	r    *bufio.Reader
	done bool
}

func newLineReader(r io.Reader) *lineReader {
	return &lineReader{r: bufio.NewReader(r)}
}

// Next returns the next line with its terminator stripped. It returns
// errStreamDone once the body is exhausted; a trailing line without a
// newline is still delivered before that.
func (l *lineReader) Next() (string, error) {
	if l.done {
		return "", errStreamDone
	}

	line, err := l.r.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) {
			l.done = true
			if strings.TrimSpace(line) != "" {
				return strings.TrimRight(line, "\r\n"), nil
			}
			return "", errStreamDone
		}
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func readBounded(r io.Reader, limit int64) string {
	body, _ := io.ReadAll(io.LimitReader(r, limit))
	return string(body)
}
