// Package export renders stored trajectory series as standalone SVG line
// plots, for reports that outlive the terminal.
package export

import (
	"fmt"
	"strings"
)

// SeriesToSVG plots one (time, value) series as an SVG polyline on a dark
// background. Inputs shorter than two points produce an empty string.
func SeriesToSVG(times, vals []float64, width, height int, stroke, caption string) string {
	n := len(times)
	if len(vals) < n {
		n = len(vals)
	}
	if n < 2 {
		return ""
	}

	minX, maxX := times[0], times[0]
	minY, maxY := vals[0], vals[0]
	for i := 0; i < n; i++ {
		if times[i] < minX {
			minX = times[i]
		}
		if times[i] > maxX {
			maxX = times[i]
		}
		if vals[i] < minY {
			minY = vals[i]
		}
		if vals[i] > maxY {
			maxY = vals[i]
		}
	}

	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.05
	maxX += rangeX * 0.05
	minY -= rangeY * 0.1
	maxY += rangeY * 0.1
	rangeX = maxX - minX
	rangeY = maxY - minY

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a14"/>
`, width, height, width, height))

	if caption != "" {
		sb.WriteString(fmt.Sprintf(`<text x="10" y="18" fill="#8888aa" font-family="monospace" font-size="12">%s</text>
`, caption))
	}

	sb.WriteString(fmt.Sprintf(`<path fill="none" stroke="%s" stroke-width="1.5" d="M`, stroke))
	for i := 0; i < n; i++ {
		x := (times[i] - minX) / rangeX * float64(width)
		y := float64(height) - (vals[i]-minY)/rangeY*float64(height)
		if i == 0 {
			sb.WriteString(fmt.Sprintf("%.1f,%.1f", x, y))
		} else {
			sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", x, y))
		}
	}
	sb.WriteString("\"/>\n</svg>")
	return sb.String()
}
