package input

import (
	"bufio"
	"bytes"
	"slices"
	"strconv"
	"strings"
)

// Click is a left mouse button press at a 1-based terminal cell.
type Click struct {
	Col, Row int
}

// Input represents the current frame's input state. Keys are edge-triggered:
// each byte read counts once, so a single key press never hits twice.
type Input struct {
	Quit      bool // q or Ctrl+C
	Interrupt bool // Ctrl+C only; q is a letter while typing a name
	Space     bool
	Enter     bool
	Backspace bool
	Escape    bool
	Up        bool
	Down      bool
	Numbers   []int   // Digits in the order they were typed
	Letters   []byte  // Lower-cased letters in the order they were typed
	Text      []rune  // Printable characters and backspaces ('\b') in typing order
	Clicks    []Click // Left button presses (SGR mouse reporting)
	Pressed   []byte  // Raw bytes read this frame
}

// Has reports whether letter was typed this frame (case-insensitive).
func (in Input) Has(letter byte) bool {
	letter = lower(letter)
	for _, l := range in.Letters {
		if l == letter {
			return true
		}
	}
	return false
}

// Any reports whether anything was read this frame.
func (in Input) Any() bool {
	return len(in.Pressed) > 0
}

// maxHoldFrames is how many empty frames a held escape prefix waits for the
// rest of its sequence.
const maxHoldFrames = 3

// Stream delivers input bytes via a channel.
type Stream struct {
	ch     chan byte
	closed bool

	pending []byte // Unterminated escape sequence carried to the next frame
	held    int    // Empty frames pending has waited
}

// StartStream spawns a goroutine that reads from r and sends bytes to the stream.
func StartStream(r *bufio.Reader) *Stream {
	s := &Stream{ch: make(chan byte, 128)}
	go func() {
		for {
			b, err := r.ReadByte()
			if err != nil {
				close(s.ch)
				return
			}
			s.ch <- b
		}
	}()
	return s
}

// Closed reports whether the underlying reader has ended.
func (s *Stream) Closed() bool {
	return s.closed
}

// ReadInput drains all available bytes from the stream (non-blocking) and
// parses them. A chunk ending in the middle of an escape sequence keeps that
// tail for the next frame.
func ReadInput(s *Stream) Input {
	var buf []byte
drain:
	for {
		select {
		case b, ok := <-s.ch:
			if !ok {
				s.closed = true
				break drain
			}
			buf = append(buf, b)
		default:
			break drain
		}
	}
	return s.decode(buf)
}

// decode parses chunk after any bytes held from the previous frame.
func (s *Stream) decode(chunk []byte) Input {
	if len(chunk) == 0 && len(s.pending) > 0 && !s.closed {
		s.held++
		if s.held < maxHoldFrames {
			return Parse(nil)
		}
		// Nothing followed. A lone ESC is the Escape key; a longer fragment
		// will never complete and is dropped.
		held := s.pending
		s.pending, s.held = nil, 0
		if len(held) == 1 {
			return Parse(held)
		}
		return Parse(nil)
	}

	buf := append(s.pending, chunk...)
	s.pending, s.held = nil, 0
	if !s.closed {
		if cut := incompleteTail(buf); cut < len(buf) {
			s.pending = slices.Clone(buf[cut:])
			buf = buf[:cut]
		}
	}
	return Parse(buf)
}

// incompleteTail returns the index where an unterminated escape sequence
// starts at the end of buf, or len(buf) when buf ends cleanly.
func incompleteTail(buf []byte) int {
	i := bytes.LastIndexByte(buf, '\x1b')
	if i < 0 {
		return len(buf)
	}
	rest := buf[i+1:]
	switch {
	case len(rest) == 0:
		return i // ESC, or the first byte of a sequence
	case rest[0] != '[':
		return len(buf)
	case len(rest) == 1:
		return i // ESC [
	case rest[1] != '<':
		return len(buf)
	}
	for _, b := range rest[2:] {
		if b == 'M' || b == 'm' {
			return len(buf)
		}
		if b != ';' && (b < '0' || b > '9') {
			return len(buf)
		}
	}
	return i // ESC [ < digits;... without its final byte
}

// Parse decodes a chunk of terminal input. The chunk is taken as complete:
// a trailing ESC is the Escape key.
func Parse(buf []byte) Input {
	in := Input{Pressed: buf}
	for i := 0; i < len(buf); i++ {
		b := buf[i]

		if b == '\x1b' && i+1 < len(buf) && buf[i+1] == '[' {
			if n, click, ok := parseSGRMouse(buf[i:]); ok {
				if click != nil {
					in.Clicks = append(in.Clicks, *click)
				}
				i += n - 1
				continue
			}
			if i+2 < len(buf) {
				switch buf[i+2] {
				case 'A':
					in.Up = true
					i += 2
					continue
				case 'B':
					in.Down = true
					i += 2
					continue
				case 'C', 'D':
					i += 2
					continue
				}
			}
		}

		applyByte(&in, b)
	}
	return in
}

func applyByte(in *Input, b byte) {
	switch {
	case b == ' ':
		in.Space = true
		in.Text = append(in.Text, ' ')
	case b == '\n' || b == '\r':
		in.Enter = true
	case b == '\b' || b == '\x7f':
		in.Backspace = true
		in.Text = append(in.Text, '\b')
	case b == '\x1b':
		in.Escape = true
	case b == '\x03': // Ctrl+C
		in.Quit = true
		in.Interrupt = true
	case b >= '0' && b <= '9':
		in.Numbers = append(in.Numbers, int(b-'0'))
		in.Text = append(in.Text, rune(b))
	case isLetter(b):
		l := lower(b)
		in.Letters = append(in.Letters, l)
		in.Text = append(in.Text, rune(b))
		if l == 'q' {
			in.Quit = true
		}
	case b > ' ' && b < 0x7f:
		in.Text = append(in.Text, rune(b))
	}
}

// parseSGRMouse decodes "ESC [ < button ; col ; row (M|m)". It returns the
// sequence length and, for a left button press, the click.
func parseSGRMouse(buf []byte) (int, *Click, bool) {
	if len(buf) < 3 || buf[2] != '<' {
		return 0, nil, false
	}
	end := -1
	for j := 3; j < len(buf); j++ {
		if buf[j] == 'M' || buf[j] == 'm' {
			end = j
			break
		}
		if buf[j] != ';' && (buf[j] < '0' || buf[j] > '9') {
			return 0, nil, false
		}
	}
	if end < 0 {
		return 0, nil, false
	}
	fields := strings.Split(string(buf[3:end]), ";")
	if len(fields) != 3 {
		return end + 1, nil, true
	}
	button, err1 := strconv.Atoi(fields[0])
	col, err2 := strconv.Atoi(fields[1])
	row, err3 := strconv.Atoi(fields[2])
	if err1 != nil || err2 != nil || err3 != nil {
		return end + 1, nil, true
	}
	// Release, motion and buttons other than left are ignored.
	if buf[end] != 'M' || button&0b1100011 != 0 {
		return end + 1, nil, true
	}
	return end + 1, &Click{Col: col, Row: row}, true
}

func isLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func lower(b byte) byte {
	if b >= 'A' && b <= 'Z' {
		return b + ('a' - 'A')
	}
	return b
}
