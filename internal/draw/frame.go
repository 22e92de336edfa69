package draw

import (
	"strings"

	"github.com/tomz197/moles/internal/loop/config"
)

// Frame is the play area inside the terminal. When the terminal is larger
// than the maximum render size the frame is centered and gets a border.
type Frame struct {
	Width, Height        int
	OffsetCol, OffsetRow int
}

// FitFrame clamps terminal dimensions to the max render resolution and
// computes the centering offset.
func FitFrame(termWidth, termHeight int) Frame {
	f := Frame{
		Width:  min(termWidth, config.MaxTermWidth),
		Height: min(termHeight, config.MaxTermHeight),
	}
	f.OffsetCol = (termWidth - f.Width) / 2
	f.OffsetRow = (termHeight - f.Height) / 2
	return f
}

// CenterX is the middle column of the frame.
func (f Frame) CenterX() int { return f.Width / 2 }

// CenterY is the middle row of the frame.
func (f Frame) CenterY() int { return f.Height / 2 }

// Border draws a box around the frame when there is room for one.
// Horizontal bars need a vertical offset, vertical bars a horizontal one.
func (f Frame) Border(cw *ChunkWriter) {
	hasH := f.OffsetCol >= 1
	hasV := f.OffsetRow >= 1
	if !hasH && !hasV {
		return
	}

	// Coordinates relative to the frame; the writer adds the offset.
	left, right := 0, f.Width+1
	top, bottom := 0, f.Height+1
	bar := strings.Repeat("─", f.Width)

	if hasV {
		if hasH {
			cw.WriteAt(left, top, "┌"+bar+"┐")
			cw.WriteAt(left, bottom, "└"+bar+"┘")
		} else {
			cw.WriteAt(1, top, bar)
			cw.WriteAt(1, bottom, bar)
		}
	}
	if hasH {
		for row := 1; row <= f.Height; row++ {
			cw.WriteAt(left, row, "│")
			cw.WriteAt(right, row, "│")
		}
	}
}
