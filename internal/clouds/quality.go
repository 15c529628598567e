package clouds

import (
	"fmt"
	"strconv"
	"strings"
)

// Quality is the update-buffer width. Sky images are four times wider.
type Quality int

const (
	QualityLow    Quality = 64
	QualityMedium Quality = 128
	QualityHigh   Quality = 256
	QualityUltra  Quality = 512
)

// Qualities lists the supported tiers in ascending order.
var Qualities = []Quality{QualityLow, QualityMedium, QualityHigh, QualityUltra}

func (q Quality) String() string {
	switch q {
	case QualityLow:
		return "low"
	case QualityMedium:
		return "medium"
	case QualityHigh:
		return "high"
	case QualityUltra:
		return "ultra"
	}
	return strconv.Itoa(int(q))
}

// Supported reports whether q is one of the four tiers.
func (q Quality) Supported() bool {
	for _, t := range Qualities {
		if q == t {
			return true
		}
	}
	return false
}

// NearestQuality maps any width onto the closest tier; ties go to the lower.
func NearestQuality(n int) Quality {
	best := Qualities[0]
	bestDist := abs(n - int(best))
	for _, q := range Qualities[1:] {
		if d := abs(n - int(q)); d < bestDist {
			best, bestDist = q, d
		}
	}
	return best
}

// ParseQuality accepts a tier name or a width.
func ParseQuality(s string) (Quality, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	for _, q := range Qualities {
		if s == q.String() {
			return q, nil
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("clouds: unknown quality %q", s)
	}
	return NearestQuality(n), nil
}

// Next returns the following tier, wrapping from ultra to low.
func (q Quality) Next() Quality {
	for i, t := range Qualities {
		if t == q {
			return Qualities[(i+1)%len(Qualities)]
		}
	}
	return NearestQuality(int(q))
}

// Toward returns the tier adjacent to q in the direction of n, or q itself
// when n equals q or q is already the last tier that way.
func (q Quality) Toward(n int) Quality {
	for i, t := range Qualities {
		if t != q {
			continue
		}
		switch {
		case n > int(q) && i+1 < len(Qualities):
			return Qualities[i+1]
		case n < int(q) && i > 0:
			return Qualities[i-1]
		}
		return q
	}
	return NearestQuality(n)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
