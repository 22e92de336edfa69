package draw

import (
	"fmt"
	"strings"

	"github.com/tomz197/moles/internal/loop/config"
	"github.com/tomz197/moles/internal/object"
	"github.com/tomz197/moles/internal/physics"
	"github.com/tomz197/moles/internal/round"
)

// Sprite and cell geometry in terminal cells.
const (
	SpriteWidth  = 9
	SpriteHeight = 4
	CellWidth    = 15
	CellHeight   = 7 // Sprite, rim, key label, gap
	HUDRows      = 2
)

var (
	spriteMole = []string{
		`  .---.  `,
		` ( o o ) `,
		` (  ^  ) `,
		`  '---'  `,
	}
	spriteMoleWhacked = []string{
		`  .---.  `,
		` ( x x ) `,
		` (  o  ) `,
		`  '---'  `,
	}
	spriteHardHat = []string{
		` _[===]_ `,
		` ( o o ) `,
		` (  ^  ) `,
		`  '---'  `,
	}
	spriteHardHatCracked = []string{
		` _[=/=]_ `,
		` ( o o ) `,
		` (  ^  ) `,
		`  '---'  `,
	}
	spriteBomb = []string{
		`    ,*   `,
		`  .-'-.  `,
		` ( BOOM) `,
		`  '---'  `,
	}
	rim   = `\_______/`
	blank = strings.Repeat(" ", SpriteWidth)
)

// Layout positions the holes of the board inside a frame.
type Layout struct {
	Sprites []physics.Rect // Sprite area per hole, bottom edge sits on the rim
	labels  []string
}

// BoardLayout centers a GridCols x GridRows board below the HUD.
func BoardLayout(width, height int) Layout {
	boardW := config.GridCols * CellWidth
	boardH := config.GridRows * CellHeight
	originCol := max(1, (width-boardW)/2+1)
	originRow := HUDRows + 1 + max(0, (height-HUDRows-boardH)/2)

	keys := make(map[int]int, len(config.HoleKeys))
	for digit, hole := range config.HoleKeys {
		keys[hole] = digit
	}

	l := Layout{
		Sprites: make([]physics.Rect, config.HoleCount),
		labels:  make([]string, config.HoleCount),
	}
	for i := range l.Sprites {
		col, row := i%config.GridCols, i/config.GridCols
		l.Sprites[i] = physics.Rect{
			X: originCol + col*CellWidth + (CellWidth-SpriteWidth)/2,
			Y: originRow + row*CellHeight,
			W: SpriteWidth,
			H: SpriteHeight,
		}
		l.labels[i] = fmt.Sprintf("[%d]", keys[i])
	}
	return l
}

// HoleAt returns the hole whose visible mole covers the cell (col, row).
func (l Layout) HoleAt(col, row int, targets []round.TargetView) (int, bool) {
	for _, tv := range targets {
		if tv.ID < 0 || tv.ID >= len(l.Sprites) {
			continue
		}
		if physics.Collider(l.Sprites[tv.ID], tv.Progress).Contains(col, row) {
			return tv.ID, true
		}
	}
	return 0, false
}

// DrawBoard draws every hole. Hidden sprite rows are blanked so nothing is
// left behind when a mole sinks.
func DrawBoard(cw *ChunkWriter, l Layout, targets []round.TargetView) {
	for _, tv := range targets {
		if tv.ID < 0 || tv.ID >= len(l.Sprites) {
			continue
		}
		r := l.Sprites[tv.ID]
		sprite, style := spriteFor(tv)
		visible := physics.VisibleRows(r.H, tv.Progress)
		for line := 0; line < r.H; line++ {
			hidden := r.H - visible
			if line < hidden {
				cw.WriteAt(r.X, r.Y+line, blank)
				continue
			}
			cw.WriteStyledAt(r.X, r.Y+line, style, sprite[line-hidden])
		}
		cw.WriteStyledAt(r.X, r.Bottom(), StyleBrown, rim)
		cw.WriteStyledAt(r.X+(r.W-len(l.labels[tv.ID]))/2, r.Bottom()+1, StyleDim, l.labels[tv.ID])
	}
}

func spriteFor(tv round.TargetView) ([]string, Style) {
	switch {
	case tv.Kind == object.KindBomb:
		return spriteBomb, StyleRed
	case tv.Whacked:
		return spriteMoleWhacked, StyleDim
	case tv.Kind == object.KindHardHat && tv.Lives >= 2:
		return spriteHardHat, StyleYellow
	case tv.Kind == object.KindHardHat:
		return spriteHardHatCracked, StyleYellow
	default:
		return spriteMole, StyleBrown
	}
}
