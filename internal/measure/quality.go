package measure

import (
	"fmt"
	"strconv"
	"strings"
)

// DefaultQualityRange is the sweep used when none is configured.
const DefaultQualityRange = "10:2:98"

// ParseQualityRange parses "start:step:end" (inclusive) or a comma separated
// list of quality settings.
func ParseQualityRange(s string) ([]float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty quality range")
	}
	if strings.Contains(s, ":") {
		parts := strings.Split(s, ":")
		if len(parts) != 3 {
			return nil, fmt.Errorf("quality range %q: want start:step:end", s)
		}
		var vals [3]float64
		for i, p := range parts {
			v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
			if err != nil {
				return nil, fmt.Errorf("quality range %q: %w", s, err)
			}
			vals[i] = v
		}
		start, step, end := vals[0], vals[1], vals[2]
		if step <= 0 || end < start {
			return nil, fmt.Errorf("quality range %q: need step > 0 and end >= start", s)
		}
		var out []float64
		for i := 0; ; i++ {
			q := start + float64(i)*step
			if q > end+1e-9 {
				break
			}
			out = append(out, q)
		}
		return out, nil
	}

	var out []float64
	for _, p := range strings.Split(s, ",") {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("quality list %q: %w", s, err)
		}
		out = append(out, v)
	}
	return out, nil
}
