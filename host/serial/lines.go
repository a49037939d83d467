package serial

import (
	"bufio"
	"bytes"
	"io"
	"time"
)

// Line is one console line with the time it was completed on the host.
type Line struct {
	Text string
	At   time.Time
}

// LineReader splits the firmware's CRLF-terminated console output into lines.
type LineReader struct {
	// Follow keeps reading past end of input. A tarm/serial port reports a
	// read timeout as io.EOF, so a live console sets this.
	Follow bool

	r   *bufio.Reader
	now func() time.Time
}

// NewLineReader reads lines from r.
func NewLineReader(r io.Reader) *LineReader {
	return &LineReader{r: bufio.NewReader(r), now: time.Now}
}

// Next returns the next complete line. Without Follow, a partial line
// pending at end of input is returned before io.EOF.
func (lr *LineReader) Next() (Line, error) {
	var buf []byte
	for {
		chunk, err := lr.r.ReadSlice('\n')
		buf = append(buf, chunk...)
		switch err {
		case nil:
			return lr.line(buf), nil
		case bufio.ErrBufferFull:
			continue
		case io.EOF, io.ErrNoProgress:
			if lr.Follow {
				continue
			}
			if len(buf) > 0 {
				return lr.line(buf), nil
			}
			return Line{}, io.EOF
		default:
			return Line{}, err
		}
	}
}

func (lr *LineReader) line(b []byte) Line {
	return Line{Text: string(bytes.TrimRight(b, "\r\n")), At: lr.now()}
}
