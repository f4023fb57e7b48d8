package cmdgen

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"penarm/host/kinematics"
	"penarm/protocol"
)

const twoPaths = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 40 40">
  <path d="M 10 10 L 20 10" stroke="black" fill="none"/>
  <path d="M 0 0 Q 10 10 20 0" stroke="black" fill="none"/>
</svg>`

func TestReadSVGSamplesSegments(t *testing.T) {
	points, err := ReadSVG(strings.NewReader(twoPaths), 4)
	if err != nil {
		t.Fatalf("ReadSVG failed: %v", err)
	}

	want := []Point{
		{Pos: mgl64.Vec2{10, 10}},
		{Pos: mgl64.Vec2{12.5, 10}},
		{Pos: mgl64.Vec2{15, 10}},
		{Pos: mgl64.Vec2{17.5, 10}},
		{Pos: mgl64.Vec2{20, 10}},
		{Toggle: true},
		{Pos: mgl64.Vec2{0, 0}},
		{Toggle: true},
		{Pos: mgl64.Vec2{5, 3.75}},
		{Pos: mgl64.Vec2{10, 5}},
		{Pos: mgl64.Vec2{15, 3.75}},
		{Pos: mgl64.Vec2{20, 0}},
	}
	if len(points) != len(want) {
		t.Fatalf("Expected %d entries, got %d: %v", len(want), len(points), points)
	}
	for i := range want {
		if points[i].Toggle != want[i].Toggle {
			t.Errorf("Entry %d: expected toggle=%v, got %v", i, want[i].Toggle, points[i])
			continue
		}
		if points[i].Pos.Sub(want[i].Pos).Len() > 0.05 {
			t.Errorf("Entry %d: expected %v, got %v", i, want[i].Pos, points[i].Pos)
		}
	}
}

func TestReadSVGCircle(t *testing.T) {
	doc := `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 40 40">
  <circle cx="20" cy="20" r="10" stroke="black" fill="none"/>
</svg>`
	points, err := ReadSVG(strings.NewReader(doc), 8)
	if err != nil {
		t.Fatalf("ReadSVG failed: %v", err)
	}
	if len(points) < 16 {
		t.Fatalf("Expected a sampled outline, got %d points", len(points))
	}
	center := mgl64.Vec2{20, 20}
	for _, p := range points {
		if p.Toggle {
			t.Fatal("A single closed shape needs no pen markers")
		}
		if r := p.Pos.Sub(center).Len(); math.Abs(r-10) > 0.1 {
			t.Errorf("Point %v is %.3f from the center, expected 10", p.Pos, r)
		}
	}
}

func TestReadSVGEmpty(t *testing.T) {
	_, err := ReadSVG(strings.NewReader(`<svg xmlns="http://www.w3.org/2000/svg"></svg>`), 4)
	if !errors.Is(err, ErrNoPaths) {
		t.Errorf("Expected ErrNoPaths, got %v", err)
	}
}

func TestPlace(t *testing.T) {
	points := []Point{{Pos: mgl64.Vec2{1, 2}}, {Toggle: true}}
	got := Place(points, 2, mgl64.Vec2{10, 0})
	if got[0].Pos != (mgl64.Vec2{12, 4}) {
		t.Errorf("Expected (12, 4), got %v", got[0].Pos)
	}
	if !got[1].Toggle {
		t.Error("Pen markers must pass through")
	}
	if points[0].Pos != (mgl64.Vec2{1, 2}) {
		t.Error("Place must not modify its input")
	}
}

func TestSVGToCommands(t *testing.T) {
	points, err := ReadSVG(strings.NewReader(twoPaths), 4)
	if err != nil {
		t.Fatalf("ReadSVG failed: %v", err)
	}
	points = Place(points, 1, mgl64.Vec2{5, 5})

	cmds, report, err := Generate(points, kinematics.Arm{L1: 20, L2: 20}, quiet)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if report.Skipped != 0 || report.Toggles != 2 {
		t.Errorf("Unexpected report %+v", report)
	}

	want := []string{
		protocol.CmdStart, "", protocol.CmdPenDown, "", "", "", "",
		protocol.CmdPenUp, "", protocol.CmdPenDown, "", "", "", "",
		protocol.CmdPenUp, protocol.CmdEnd,
	}
	if len(cmds) != len(want) {
		t.Fatalf("Expected %d commands, got %d: %q", len(want), len(cmds), cmds)
	}
	for i, w := range want {
		if w == "" {
			if !strings.HasPrefix(cmds[i], "(") {
				t.Errorf("Command %d: expected a move, got %q", i, cmds[i])
			}
			continue
		}
		if cmds[i] != w {
			t.Errorf("Command %d: expected %q, got %q", i, w, cmds[i])
		}
	}
}
