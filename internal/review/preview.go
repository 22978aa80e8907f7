package review

import "invoiceview/internal/domain"

// Zoom and rotation bounds for the document preview.
const (
	zoomStep = 0.2
	zoomMin  = 0.5
	zoomMax  = 3.0
)

// ViewTransform is the document preview state: zoom scale, pan offset and
// rotation. Every mutation goes through a pure reducer below so the
// invariants (scale clamped, rotation a multiple of 90) hold everywhere.
type ViewTransform struct {
	Scale           float64 `json:"scale"`
	TranslateX      float64 `json:"translate_x"`
	TranslateY      float64 `json:"translate_y"`
	RotationDegrees int     `json:"rotation_degrees"`
}

// DefaultViewTransform is the identity transform a fresh preview starts at.
func DefaultViewTransform() ViewTransform {
	return ViewTransform{Scale: 1.0}
}

func clampScale(s float64) float64 {
	if s < zoomMin {
		return zoomMin
	}
	if s > zoomMax {
		return zoomMax
	}
	return s
}

// ZoomIn increases the scale by one step, clamped to the maximum.
func ZoomIn(t ViewTransform) ViewTransform {
	t.Scale = clampScale(t.Scale + zoomStep)
	return t
}

// ZoomOut decreases the scale by one step, clamped to the minimum.
func ZoomOut(t ViewTransform) ViewTransform {
	t.Scale = clampScale(t.Scale - zoomStep)
	return t
}

// Pan shifts the view by the given offsets.
func Pan(t ViewTransform, dx, dy float64) ViewTransform {
	t.TranslateX += dx
	t.TranslateY += dy
	return t
}

// Rotate turns the view a quarter clockwise.
func Rotate(t ViewTransform) ViewTransform {
	t.RotationDegrees = (t.RotationDegrees + 90) % 360
	return t
}

// ResetView restores the identity transform.
func ResetView(ViewTransform) ViewTransform {
	return DefaultViewTransform()
}

// PreviewOp names a preview mutation requested over the API.
type PreviewOp struct {
	Op string  `json:"op"`
	DX float64 `json:"dx"`
	DY float64 `json:"dy"`
}

// ApplyPreviewOp dispatches a named operation to its reducer.
func ApplyPreviewOp(t ViewTransform, op PreviewOp) (ViewTransform, error) {
	switch op.Op {
	case "zoom_in":
		return ZoomIn(t), nil
	case "zoom_out":
		return ZoomOut(t), nil
	case "pan":
		return Pan(t, op.DX, op.DY), nil
	case "rotate":
		return Rotate(t), nil
	case "reset":
		return ResetView(t), nil
	}
	return t, domain.ErrInvalidPreviewOp
}
