package opencv

import "image"

// Eye box size as a fraction of face width.
const (
	eyeBoxWidth  = 0.30
	eyeBoxHeight = 0.18
)

// eyeBox returns a box centered on an eye landmark, clipped to bounds.
func eyeBox(center image.Point, faceWidth int, bounds image.Rectangle) image.Rectangle {
	w := int(float64(faceWidth) * eyeBoxWidth)
	h := int(float64(faceWidth) * eyeBoxHeight)
	if w < 2 || h < 2 {
		return image.Rectangle{}
	}
	r := image.Rect(center.X-w/2, center.Y-h/2, center.X+w/2, center.Y+h/2)
	return r.Intersect(bounds)
}

// pupilRatio converts a pupil column inside a box of the given width to [0, 1].
func pupilRatio(x, width int) float64 {
	if width <= 1 {
		return 0.5
	}
	r := float64(x) / float64(width-1)
	switch {
	case r < 0:
		return 0
	case r > 1:
		return 1
	}
	return r
}

func mean(xs []float64) float64 {
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}
