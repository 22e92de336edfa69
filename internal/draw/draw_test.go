package draw

import (
	"bytes"
	"strings"
	"testing"

	"github.com/tomz197/moles/internal/object"
	"github.com/tomz197/moles/internal/round"
)

func TestChunkWriterAppliesOffset(t *testing.T) {
	var out bytes.Buffer
	cw := NewChunkWriter(&out, 10, 5)
	cw.WriteAt(1, 1, "hi")
	if err := cw.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if got := out.String(); got != "\033[6;11Hhi" {
		t.Fatalf("output = %q", got)
	}
	if cw.Len() != 0 {
		t.Fatal("buffer not reset after Flush")
	}
}

func TestChunkWriterFlushesLargeFrames(t *testing.T) {
	var out bytes.Buffer
	cw := NewChunkWriter(&out, 0, 0)
	big := strings.Repeat("x", maxChunkSize*3+7)
	cw.WriteString(big)
	if err := cw.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if out.String() != big {
		t.Fatalf("wrote %d bytes, want %d", out.Len(), len(big))
	}
}

func TestTextWidthIgnoresEscapes(t *testing.T) {
	if got := TextWidth(string(StyleRed) + "abc" + string(StyleReset)); got != 3 {
		t.Fatalf("TextWidth = %d, want 3", got)
	}
	if got := TextWidth("┌──┐"); got != 4 {
		t.Fatalf("TextWidth box = %d, want 4", got)
	}
}

func TestFitFrame(t *testing.T) {
	f := FitFrame(200, 60)
	if f.Width != 120 || f.Height != 40 || f.OffsetCol != 40 || f.OffsetRow != 10 {
		t.Fatalf("FitFrame(200,60) = %+v", f)
	}
	small := FitFrame(80, 24)
	if small.Width != 80 || small.Height != 24 || small.OffsetCol != 0 || small.OffsetRow != 0 {
		t.Fatalf("FitFrame(80,24) = %+v", small)
	}
}

func TestBoardLayoutDoesNotOverlap(t *testing.T) {
	l := BoardLayout(80, 30)
	if len(l.Sprites) != 9 {
		t.Fatalf("holes = %d, want 9", len(l.Sprites))
	}
	for i, a := range l.Sprites {
		if a.Y <= HUDRows {
			t.Errorf("hole %d at row %d overlaps the HUD", i, a.Y)
		}
		for j, b := range l.Sprites {
			if i != j && a.Contains(b.X, b.Y) {
				t.Errorf("hole %d overlaps hole %d", i, j)
			}
		}
	}
	if l.labels[0] != "[7]" || l.labels[4] != "[5]" || l.labels[8] != "[3]" {
		t.Errorf("labels = %v, want numpad layout", l.labels)
	}
}

func TestHoleAtUsesVisiblePart(t *testing.T) {
	l := BoardLayout(80, 30)
	r := l.Sprites[4]
	targets := []round.TargetView{{ID: 4, Kind: object.KindStandard, Progress: 0.5}}

	if _, ok := l.HoleAt(r.X+1, r.Y, targets); ok {
		t.Error("click on the hidden top half hit the mole")
	}
	if id, ok := l.HoleAt(r.X+1, r.Bottom()-1, targets); !ok || id != 4 {
		t.Errorf("click on the visible part = %d,%v, want 4", id, ok)
	}
	if _, ok := l.HoleAt(r.X+1, r.Bottom()-1, []round.TargetView{{ID: 4}}); ok {
		t.Error("click on an empty hole hit")
	}
}

func TestDrawBoardBlanksHiddenRows(t *testing.T) {
	var out bytes.Buffer
	cw := NewChunkWriter(&out, 0, 0)
	l := BoardLayout(80, 30)
	DrawBoard(cw, l, []round.TargetView{{ID: 0, Kind: object.KindBomb, Progress: 0.25}})
	_ = cw.Flush()

	s := out.String()
	if strings.Count(s, blank) != 3 {
		t.Errorf("blank rows = %d, want 3", strings.Count(s, blank))
	}
	if !strings.Contains(s, spriteBomb[0]) || !strings.Contains(s, rim) {
		t.Errorf("bomb top row or rim missing: %q", s)
	}
}

func TestSpriteForHardHatStates(t *testing.T) {
	full, _ := spriteFor(round.TargetView{Kind: object.KindHardHat, Lives: 2})
	cracked, _ := spriteFor(round.TargetView{Kind: object.KindHardHat, Lives: 1})
	if full[0] == cracked[0] {
		t.Fatal("cracked hat looks like a full one")
	}
}
