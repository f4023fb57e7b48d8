// Package cmdgen turns point lists into arm command files.
package cmdgen

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl64"

	"penarm/host/kinematics"
	"penarm/protocol"
)

// PenMarker on a line of its own toggles the pen between points
const PenMarker = "-"

// ErrBadPoint is returned for a points-file line that is neither a point
// nor a pen marker
var ErrBadPoint = errors.New("cmdgen: bad point")

// Point is one entry of a points file: a position, or a pen toggle
type Point struct {
	Pos    mgl64.Vec2
	Toggle bool
}

// ReadPoints parses a points file. Each line holds "x, y" (parentheses
// optional) or the pen marker; blank lines and lines starting with '#' are
// skipped.
func ReadPoints(r io.Reader) ([]Point, error) {
	var points []Point
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if line == PenMarker {
			points = append(points, Point{Toggle: true})
			continue
		}

		pos, err := parsePoint(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		points = append(points, Point{Pos: pos})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read points: %w", err)
	}
	return points, nil
}

func parsePoint(line string) (mgl64.Vec2, error) {
	line = strings.TrimSuffix(strings.TrimPrefix(line, "("), ")")
	xs, ys, ok := strings.Cut(line, ",")
	if !ok {
		return mgl64.Vec2{}, fmt.Errorf("%w: %q", ErrBadPoint, line)
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(xs), 64)
	if err != nil {
		return mgl64.Vec2{}, fmt.Errorf("%w: %q", ErrBadPoint, line)
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(ys), 64)
	if err != nil {
		return mgl64.Vec2{}, fmt.Errorf("%w: %q", ErrBadPoint, line)
	}
	return mgl64.Vec2{x, y}, nil
}

// Report counts what Generate did
type Report struct {
	Points  int // positions read
	Skipped int // unreachable positions left out
	Toggles int // pen markers
}

// Generate builds the command list for points. The pen goes down after the
// first move and every marker flips it; the file ends with the pen up.
// Unreachable points are skipped with a warning.
func Generate(points []Point, arm kinematics.Arm, logger *slog.Logger) ([]string, Report, error) {
	if err := arm.Validate(); err != nil {
		return nil, Report{}, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	var report Report
	cmds := make([]string, 0, len(points)+4)
	down := true
	for _, p := range points {
		if p.Toggle {
			report.Toggles++
			if down {
				cmds = append(cmds, protocol.CmdPenUp)
			} else {
				cmds = append(cmds, protocol.CmdPenDown)
			}
			down = !down
			continue
		}

		report.Points++
		angles, err := arm.Solve(p.Pos)
		if err != nil {
			report.Skipped++
			logger.Warn("point skipped", "x", p.Pos.X(), "y", p.Pos.Y(), "err", err)
			continue
		}
		cmds = append(cmds, FormatMove(angles))
	}

	out := make([]string, 0, len(cmds)+4)
	out = append(out, protocol.CmdStart)
	if len(cmds) > 0 {
		out = append(out, cmds[0])
	}
	out = append(out, protocol.CmdPenDown)
	if len(cmds) > 1 {
		out = append(out, cmds[1:]...)
	}
	out = append(out, protocol.CmdPenUp, protocol.CmdEnd)
	return out, report, nil
}

// FormatMove renders a move command
func FormatMove(a kinematics.Angles) string {
	return fmt.Sprintf("(%.2f, %.2f)", a.Shoulder, a.Elbow)
}

// Write writes one command per line
func Write(w io.Writer, cmds []string) error {
	bw := bufio.NewWriter(w)
	for _, c := range cmds {
		if _, err := bw.WriteString(c + "\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// ReadCommands reads a command file, dropping blank lines
func ReadCommands(r io.Reader) ([]string, error) {
	var cmds []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if len(line) > protocol.LineMax {
			return nil, fmt.Errorf("command %q longer than %d bytes", line[:16]+"...", protocol.LineMax)
		}
		cmds = append(cmds, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read commands: %w", err)
	}
	return cmds, nil
}
