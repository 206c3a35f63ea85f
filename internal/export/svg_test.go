package export

import (
	"strings"
	"testing"
)

func TestSeriesToSVG(t *testing.T) {
	times := []float64{0, 0.5, 1.0, 1.5}
	vals := []float64{0, 3, 5, 4}

	svg := SeriesToSVG(times, vals, 640, 240, "#00ff88", "velocity")
	if !strings.HasPrefix(svg, `<?xml`) || !strings.HasSuffix(svg, "</svg>") {
		t.Fatal("not a complete svg document")
	}
	if !strings.Contains(svg, "velocity") {
		t.Error("caption missing")
	}
	if strings.Count(svg, " L") != len(times)-1 {
		t.Errorf("expected %d line segments, got %d", len(times)-1, strings.Count(svg, " L"))
	}
}

func TestSeriesToSVGDegenerate(t *testing.T) {
	if SeriesToSVG([]float64{0}, []float64{1}, 100, 100, "#fff", "") != "" {
		t.Error("single point should produce nothing")
	}
	if SeriesToSVG(nil, nil, 100, 100, "#fff", "") != "" {
		t.Error("empty input should produce nothing")
	}

	// Flat series must still map inside the viewport.
	svg := SeriesToSVG([]float64{0, 1, 2}, []float64{5, 5, 5}, 100, 100, "#fff", "")
	if svg == "" {
		t.Fatal("flat series should still plot")
	}
	if strings.Contains(svg, "NaN") || strings.Contains(svg, "Inf") {
		t.Error("flat series produced non-finite coordinates")
	}
}
