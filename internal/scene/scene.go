// Package scene holds the layout state of a scene that spans every
// registered window: one object per window, centred on that window's
// screen rectangle, viewed through this window's screen offset.
//
// Nothing here draws. A renderer calls Rebuild on membership changes,
// SetOffsetTarget on its own shape changes and Step once per frame, then
// draws Objects at Local coordinates.
package scene

import "github.com/1broseidon/multiwin/internal/winreg"

// Falloff is the fraction of the remaining distance covered per Step.
const Falloff = 0.05

// Point is a position in screen pixels.
type Point struct {
	X, Y float64
}

// Object is the scene element that represents one window.
type Object struct {
	WindowID int
	Index    int
	Size     float64 // radius in pixels
	Hue      float64 // 0..1, wraps
	Position Point   // screen coordinates
}

// Scene is the per-process scene state.
type Scene struct {
	objects      []Object
	offset       Point
	offsetTarget Point
}

// New returns an empty scene.
func New() *Scene {
	return &Scene{}
}

// Rebuild replaces every object with one per window, placed directly at
// the window's centre.
func (s *Scene) Rebuild(windows []winreg.Record) {
	s.objects = make([]Object, len(windows))
	for i, w := range windows {
		s.objects[i] = Object{
			WindowID: w.ID,
			Index:    i,
			Size:     50 + float64(i)*25,
			Hue:      wrap(float64(i) * 0.1),
			Position: center(w.Shape),
		}
	}
}

// SetOffsetTarget aims the world offset at this window's screen position
// so the scene is drawn in local coordinates. Without easing the offset
// jumps to the target, which is what the first placement wants.
func (s *Scene) SetOffsetTarget(self winreg.Shape, easing bool) {
	s.offsetTarget = Point{X: -float64(self.X), Y: -float64(self.Y)}
	if !easing {
		s.offset = s.offsetTarget
	}
}

// Step eases the world offset and every object toward their targets.
// windows must be the roster the objects were built from; extra objects
// or windows are left alone.
func (s *Scene) Step(windows []winreg.Record) {
	s.offset = ease(s.offset, s.offsetTarget)
	for i := range s.objects {
		if i >= len(windows) {
			break
		}
		s.objects[i].Position = ease(s.objects[i].Position, center(windows[i].Shape))
	}
}

// Objects returns a copy of the scene objects.
func (s *Scene) Objects() []Object {
	out := make([]Object, len(s.objects))
	copy(out, s.objects)
	return out
}

// Offset returns the current world offset.
func (s *Scene) Offset() Point {
	return s.offset
}

// Local converts an object's screen position into this window's
// coordinates.
func (s *Scene) Local(obj Object) Point {
	return Point{X: obj.Position.X + s.offset.X, Y: obj.Position.Y + s.offset.Y}
}

func center(shape winreg.Shape) Point {
	return Point{
		X: float64(shape.X) + float64(shape.W)*0.5,
		Y: float64(shape.Y) + float64(shape.H)*0.5,
	}
}

func ease(from, to Point) Point {
	return Point{
		X: from.X + (to.X-from.X)*Falloff,
		Y: from.Y + (to.Y-from.Y)*Falloff,
	}
}

func wrap(h float64) float64 {
	for h >= 1 {
		h--
	}
	return h
}
