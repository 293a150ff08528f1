package epicycle

import "math"

// circleSegments is the number of segments of an overlay circle. Each circle
// is a closed line strip of circleSegments+1 vertices.
const circleSegments = 48

// overlay draws the mechanism on top of the trail: a circle around each
// selected arm joint and an optional hub circle at the origin. Its vertices
// live in a small buffer that is rewritten whenever the joints move.
type overlay struct {
	anchors  []int // joint index per circle, -1 for the hub
	radii    []float64
	color    RGBA
	hubColor RGBA
	buf      []byte
}

// newOverlay returns nil when o selects no circle for a chain of arms arms.
// Joint radii beyond the last arm and non-positive radii are ignored.
func newOverlay(o options, arms int) *overlay {
	ov := &overlay{color: o.jointColor, hubColor: o.hubColor}
	if o.hub > 0 {
		ov.anchors = append(ov.anchors, -1)
		ov.radii = append(ov.radii, o.hub)
	}
	for i, r := range o.joints {
		if i >= arms {
			break
		}
		if r > 0 {
			ov.anchors = append(ov.anchors, i)
			ov.radii = append(ov.radii, r)
		}
	}
	if len(ov.anchors) == 0 {
		return nil
	}
	ov.buf = make([]byte, len(ov.anchors)*(circleSegments+1)*RecordSize)
	return ov
}

// encode writes every circle around joints and returns the vertex bytes.
// The returned slice is reused by the next call.
func (ov *overlay) encode(joints []Vec3) []byte {
	off := 0
	for c, j := range ov.anchors {
		center, color := Vec3{}, ov.hubColor
		if j >= 0 {
			center, color = joints[j], ov.color
		}
		for i := range circleSegments + 1 {
			sin, cos := math.Sincos(2 * math.Pi * float64(i) / circleSegments)
			p := center.Add(V3(sin, cos, 0).Mul(ov.radii[c]))
			NewRecord(p, color).Encode(ov.buf[off:])
			off += RecordSize
		}
	}
	return ov.buf
}

// spans returns one strip per circle.
func (ov *overlay) spans() []Span {
	spans := make([]Span, len(ov.anchors))
	for c := range spans {
		spans[c] = Span{First: uint32(c * (circleSegments + 1)), Count: circleSegments + 1}
	}
	return spans
}
