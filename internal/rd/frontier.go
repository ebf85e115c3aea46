package rd

import "sort"

// ConfiguredRDPoint is a measured position tagged with the configuration
// that produced it.
type ConfiguredRDPoint struct {
	Position     RDPosition  `json:"position"`
	Config       CodecConfig `json:"config"`
	Image        *string     `json:"image,omitempty"`
	EncodeTimeMs *float64    `json:"encode_time_ms,omitempty"`
	DecodeTimeMs *float64    `json:"decode_time_ms,omitempty"`
}

// ConfiguredParetoFront is the non-dominated frontier of a configuration
// sweep, with the calibration and bin scheme used to interpret it.
type ConfiguredParetoFront struct {
	Calibration RDCalibration       `json:"calibration"`
	Scheme      BinScheme           `json:"scheme"`
	Points      []ConfiguredRDPoint `json:"points"`
}

// BinCoverage is the number of frontier points whose s2 angle is in Bin.
type BinCoverage struct {
	Bin   AngleBin `json:"bin"`
	Count int      `json:"count"`
}

// ComputeConfiguredFront applies the raw (bpp, s2) dominance rule, not the
// angles, and sorts the frontier ascending by bpp.
func ComputeConfiguredFront(points []ConfiguredRDPoint, cal RDCalibration, scheme BinScheme) ConfiguredParetoFront {
	var front []ConfiguredRDPoint
	for _, p := range points {
		dominated := false
		for _, f := range front {
			if positionDominates(f.Position, p.Position) {
				dominated = true
				break
			}
		}
		if dominated {
			continue
		}
		kept := front[:0]
		for _, f := range front {
			if !positionDominates(p.Position, f.Position) {
				kept = append(kept, f)
			}
		}
		front = append(kept, p)
	}
	sort.SliceStable(front, func(i, j int) bool { return front[i].Position.Bpp < front[j].Position.Bpp })
	return ConfiguredParetoFront{Calibration: cal, Scheme: scheme, Points: front}
}

func positionDominates(a, b RDPosition) bool {
	return dominates(a.Bpp, a.Ssimulacra2, b.Bpp, b.Ssimulacra2)
}

// BestConfigForS2 is the lowest-bpp point with s2 >= minS2.
func (f ConfiguredParetoFront) BestConfigForS2(minS2 float64) (ConfiguredRDPoint, bool) {
	return f.lowestBpp(func(p RDPosition) bool { return p.Ssimulacra2 >= minS2 })
}

// BestConfigForBa is the lowest-bpp point with butteraugli <= maxBa.
func (f ConfiguredParetoFront) BestConfigForBa(maxBa float64) (ConfiguredRDPoint, bool) {
	return f.lowestBpp(func(p RDPosition) bool { return p.Butteraugli <= maxBa })
}

// BestConfigForBpp is the highest-s2 point with bpp <= maxBpp.
func (f ConfiguredParetoFront) BestConfigForBpp(maxBpp float64) (ConfiguredRDPoint, bool) {
	var best ConfiguredRDPoint
	found := false
	for _, p := range f.Points {
		if p.Position.Bpp > maxBpp {
			continue
		}
		if !found || p.Position.Ssimulacra2 > best.Position.Ssimulacra2 {
			best, found = p, true
		}
	}
	return best, found
}

func (f ConfiguredParetoFront) lowestBpp(keep func(RDPosition) bool) (ConfiguredRDPoint, bool) {
	var best ConfiguredRDPoint
	found := false
	for _, p := range f.Points {
		if !keep(p.Position) {
			continue
		}
		if !found || p.Position.Bpp < best.Position.Bpp {
			best, found = p, true
		}
	}
	return best, found
}

// InBin returns the frontier points whose s2 angle falls in bin.
func (f ConfiguredParetoFront) InBin(bin AngleBin) []ConfiguredRDPoint {
	var out []ConfiguredRDPoint
	for _, p := range f.Points {
		if bin.Contains(p.Position.ThetaS2) {
			out = append(out, p)
		}
	}
	return out
}

// Coverage counts frontier points per bin of the scheme, by s2 angle.
func (f ConfiguredParetoFront) Coverage() []BinCoverage {
	bins := f.Scheme.Bins()
	out := make([]BinCoverage, len(bins))
	for i, b := range bins {
		out[i] = BinCoverage{Bin: b, Count: len(f.InBin(b))}
	}
	return out
}

// EmptyBins are the bins no frontier point reaches: the trade-off regions a
// sweep should target next.
func (f ConfiguredParetoFront) EmptyBins() []AngleBin {
	var out []AngleBin
	for _, c := range f.Coverage() {
		if c.Count == 0 {
			out = append(out, c.Bin)
		}
	}
	return out
}
