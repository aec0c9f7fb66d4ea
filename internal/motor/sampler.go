// internal/motor/sampler.go
package motor

// Sampler draws click points inside a target region. Points are pulled from
// an elliptical Gaussian footprint around the region centroid, shifted by
// the caller's drift bias, so the distribution is centered but never
// mechanical.
type Sampler struct {
	// Fractions of the bounding width/height that form the elliptical
	// footprint's standard deviations.
	widthFrac  float64
	heightFrac float64

	rnd *Rand
}

// sampler retry budget for arbitrary shapes before the centroid fallback.
const maxShapeDraws = 10

// NewSampler creates a Sampler. Typical fractions: 0.32 width, 0.36 height.
func NewSampler(widthFrac, heightFrac float64, rnd *Rand) *Sampler {
	return &Sampler{widthFrac: widthFrac, heightFrac: heightFrac, rnd: rnd}
}

// Pick returns a click point inside region, biased by the given drift
// vector. The result is always within the region's bounding rectangle.
// For plain rectangles the candidate is clamped directly into bounds; for
// arbitrary shapes up to maxShapeDraws candidates are tested against the
// containment predicate, falling back to the bounding-box center when all
// of them miss.
func (s *Sampler) Pick(region Region, bias Vec) ScreenPoint {
	bounds := region.Bounds()
	center := bounds.Center()

	sx := float64(bounds.W) * s.widthFrac
	sy := float64(bounds.H) * s.heightFrac

	if rect, ok := region.(Rect); ok {
		p := s.candidate(center, bias, sx, sy)
		return rect.Clamp(p)
	}

	for i := 0; i < maxShapeDraws; i++ {
		p := bounds.Clamp(s.candidate(center, bias, sx, sy))
		if region.Contains(p) {
			return p
		}
	}
	// Deterministic fallback: the shape may be thin or concave enough that
	// the footprint keeps missing it. The bounding-box center is the best
	// guess that still honors the bounds guarantee.
	return center
}

func (s *Sampler) candidate(center ScreenPoint, bias Vec, sx, sy float64) ScreenPoint {
	return center.Vec().
		Add(bias).
		Add(Vec{X: s.rnd.Gaussian(0, 1) * sx, Y: s.rnd.Gaussian(0, 1) * sy}).
		Point()
}
