package cmdgen

import (
	"errors"
	"fmt"
	"io"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
	"golang.org/x/image/math/fixed"
)

// DefaultSamples is the number of pieces each SVG segment is cut into
const DefaultSamples = 20

// ErrNoPaths is returned for an SVG document with nothing to draw
var ErrNoPaths = errors.New("cmdgen: svg has no paths")

// ReadSVG samples every path of an SVG document into points. Each segment
// contributes samplesPerSegment points after its start point. Between
// subpaths a pen marker pair lifts the pen for the travel move and lowers
// it again. Shapes (rect, circle, polyline, ...) count as paths. Group
// transforms are not applied; coordinates are in document units.
func ReadSVG(r io.Reader, samplesPerSegment int) ([]Point, error) {
	if samplesPerSegment < 1 {
		samplesPerSegment = DefaultSamples
	}

	icon, err := oksvg.ReadIconStream(r, oksvg.IgnoreErrorMode)
	if err != nil {
		return nil, fmt.Errorf("read svg: %w", err)
	}

	s := &sampler{samples: samplesPerSegment}
	for i := range icon.SVGPaths {
		if err := s.path(icon.SVGPaths[i].Path); err != nil {
			return nil, fmt.Errorf("svg path %d: %w", i, err)
		}
	}
	if len(s.points) == 0 {
		return nil, ErrNoPaths
	}
	return s.points, nil
}

// sampler walks rasterx paths. A rasterx.Path is a flat list: a command
// code followed by its control and end points.
type sampler struct {
	samples int
	points  []Point

	cur, start mgl64.Vec2
	subpaths   int
}

func (s *sampler) path(p rasterx.Path) error {
	for i := 0; i < len(p); {
		switch rasterx.PathCommand(p[i]) {
		case rasterx.PathMoveTo:
			if i+2 >= len(p) {
				return errTruncated
			}
			s.moveTo(point(p[i+1], p[i+2]))
			i += 3
		case rasterx.PathLineTo:
			if i+2 >= len(p) {
				return errTruncated
			}
			s.lineTo(point(p[i+1], p[i+2]))
			i += 3
		case rasterx.PathQuadTo:
			if i+4 >= len(p) {
				return errTruncated
			}
			c, end := point(p[i+1], p[i+2]), point(p[i+3], p[i+4])
			from := s.cur
			s.sample(func(t float64) mgl64.Vec2 {
				return mgl64.QuadraticBezierCurve2D(t, from, c, end)
			})
			i += 5
		case rasterx.PathCubicTo:
			if i+6 >= len(p) {
				return errTruncated
			}
			c1, c2, end := point(p[i+1], p[i+2]), point(p[i+3], p[i+4]), point(p[i+5], p[i+6])
			from := s.cur
			s.sample(func(t float64) mgl64.Vec2 {
				return mgl64.CubicBezierCurve2D(t, from, c1, c2, end)
			})
			i += 7
		case rasterx.PathClose:
			if !s.cur.ApproxEqual(s.start) {
				s.lineTo(s.start)
			}
			i++
		default:
			return fmt.Errorf("unknown path command %d", p[i])
		}
	}
	return nil
}

var errTruncated = errors.New("truncated path command")

func (s *sampler) moveTo(p mgl64.Vec2) {
	if s.subpaths > 0 {
		s.points = append(s.points, Point{Toggle: true}, Point{Pos: p}, Point{Toggle: true})
	} else {
		s.points = append(s.points, Point{Pos: p})
	}
	s.subpaths++
	s.cur, s.start = p, p
}

func (s *sampler) lineTo(end mgl64.Vec2) {
	from := s.cur
	s.sample(func(t float64) mgl64.Vec2 {
		return from.Add(end.Sub(from).Mul(t))
	})
}

// sample appends curve(t) for t = 1/n ... 1. t = 0 is the current point,
// already emitted.
func (s *sampler) sample(curve func(t float64) mgl64.Vec2) {
	for k := 1; k <= s.samples; k++ {
		s.points = append(s.points, Point{Pos: curve(float64(k) / float64(s.samples))})
	}
	s.cur = s.points[len(s.points)-1].Pos
}

func point(x, y fixed.Int26_6) mgl64.Vec2 {
	return mgl64.Vec2{float64(x) / 64, float64(y) / 64}
}

// Place scales points about the origin and then shifts them, mapping
// document units onto the arm's working area. Pen markers pass through.
func Place(points []Point, scale float64, offset mgl64.Vec2) []Point {
	out := make([]Point, len(points))
	for i, p := range points {
		if p.Toggle {
			out[i] = p
			continue
		}
		out[i] = Point{Pos: p.Pos.Mul(scale).Add(offset)}
	}
	return out
}
