package rd

import (
	"fmt"
	"math"
	"sort"
)

// RDPoint is one measured sample. Quality uses the higher-is-better
// convention; negate lower-is-better metrics before building points.
type RDPoint struct {
	Codec          string   `json:"codec"`
	QualitySetting float64  `json:"quality_setting"`
	Bpp            float64  `json:"bpp"`
	Quality        float64  `json:"quality"`
	EncodeTimeMs   *float64 `json:"encode_time_ms,omitempty"`
	Image          *string  `json:"image,omitempty"`
}

func NewRDPoint(codec string, qualitySetting, bpp, quality float64) RDPoint {
	return RDPoint{
		Codec:          codec,
		QualitySetting: qualitySetting,
		Bpp:            bpp,
		Quality:        quality,
	}
}

func (p RDPoint) Validate() error {
	if math.IsNaN(p.Quality) || math.IsInf(p.Quality, 0) {
		return fmt.Errorf("point %s: quality must be finite, got %v", p.Codec, p.Quality)
	}
	if math.IsNaN(p.Bpp) || math.IsInf(p.Bpp, 0) || p.Bpp < 0 {
		return fmt.Errorf("point %s: bpp must be finite and >= 0, got %v", p.Codec, p.Bpp)
	}
	return nil
}

// Dominates reports whether a is at least as good as b on both axes (lower
// bpp, higher quality) and strictly better on one.
func (a RDPoint) Dominates(b RDPoint) bool {
	return dominates(a.Bpp, a.Quality, b.Bpp, b.Quality)
}

func dominates(aBpp, aQ, bBpp, bQ float64) bool {
	if aBpp > bBpp || aQ < bQ {
		return false
	}
	return aBpp < bBpp || aQ > bQ
}

// ParetoFront is the non-dominated subset of a point set, ascending by bpp.
type ParetoFront struct {
	Points []RDPoint `json:"points"`
}

// ComputeParetoFront walks the input in order, skipping candidates an
// accepted point dominates and evicting accepted points the candidate
// dominates. O(n^2) worst case, fine for a sweep of a few thousand points;
// an incremental or sweep-line version would replace this if that changes.
func ComputeParetoFront(points []RDPoint) ParetoFront {
	var front []RDPoint
	for _, p := range points {
		if anyDominates(front, p) {
			continue
		}
		kept := front[:0]
		for _, f := range front {
			if !p.Dominates(f) {
				kept = append(kept, f)
			}
		}
		front = append(kept, p)
	}
	sort.SliceStable(front, func(i, j int) bool { return front[i].Bpp < front[j].Bpp })
	return ParetoFront{Points: front}
}

func anyDominates(front []RDPoint, p RDPoint) bool {
	for _, f := range front {
		if f.Dominates(p) {
			return true
		}
	}
	return false
}

// ParetoFrontPerCodec computes an independent front for each codec id.
func ParetoFrontPerCodec(points []RDPoint) map[string]ParetoFront {
	byCodec := make(map[string][]RDPoint)
	for _, p := range points {
		byCodec[p.Codec] = append(byCodec[p.Codec], p)
	}
	fronts := make(map[string]ParetoFront, len(byCodec))
	for codec, pts := range byCodec {
		fronts[codec] = ComputeParetoFront(pts)
	}
	return fronts
}

func (f ParetoFront) Len() int      { return len(f.Points) }
func (f ParetoFront) IsEmpty() bool { return len(f.Points) == 0 }

// AtQuality returns the front points with quality >= minQuality.
func (f ParetoFront) AtQuality(minQuality float64) []RDPoint {
	var out []RDPoint
	for _, p := range f.Points {
		if p.Quality >= minQuality {
			out = append(out, p)
		}
	}
	return out
}

// AtBpp returns the front points with bpp <= maxBpp.
func (f ParetoFront) AtBpp(maxBpp float64) []RDPoint {
	var out []RDPoint
	for _, p := range f.Points {
		if p.Bpp <= maxBpp {
			out = append(out, p)
		}
	}
	return out
}

// BestAtBpp is the highest-quality point within the rate budget.
func (f ParetoFront) BestAtBpp(maxBpp float64) (RDPoint, bool) {
	var best RDPoint
	found := false
	for _, p := range f.Points {
		if p.Bpp <= maxBpp && (!found || p.Quality > best.Quality) {
			best, found = p, true
		}
	}
	return best, found
}

// BestAtQuality is the lowest-bpp point meeting the quality floor.
func (f ParetoFront) BestAtQuality(minQuality float64) (RDPoint, bool) {
	var best RDPoint
	found := false
	for _, p := range f.Points {
		if p.Quality >= minQuality && (!found || p.Bpp < best.Bpp) {
			best, found = p, true
		}
	}
	return best, found
}

// Codecs returns the distinct codec ids on the front, sorted.
func (f ParetoFront) Codecs() []string {
	seen := make(map[string]bool)
	var out []string
	for _, p := range f.Points {
		if !seen[p.Codec] {
			seen[p.Codec] = true
			out = append(out, p.Codec)
		}
	}
	sort.Strings(out)
	return out
}

func (f ParetoFront) FilterCodec(codec string) []RDPoint {
	var out []RDPoint
	for _, p := range f.Points {
		if p.Codec == codec {
			out = append(out, p)
		}
	}
	return out
}
