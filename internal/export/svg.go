// Package export renders simulation state and telemetry as SVG.
package export

import (
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/sphfluid/internal/collision"
	"github.com/san-kum/sphfluid/internal/sim"
)

// Snapshot draws the box, obstacles, attractor and every finite particle.
// scale is pixels per world unit. Particles are shaded by density relative
// to the target density: pale at or below it, saturated at twice it.
func Snapshot(s *sim.Simulation, scale float64) string {
	if s == nil || scale <= 0 {
		return ""
	}
	p := s.Params()
	width, height := p.Width*scale, p.Height*scale

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height)

	sb.WriteString(`<g stroke="#666688" stroke-width="2" fill="none">` + "\n")
	for _, o := range s.Obstacles() {
		switch o.Kind {
		case collision.Dam:
			if o.Intact() {
				fmt.Fprintf(&sb, `<line x1="%.1f" y1="0" x2="%.1f" y2="%.1f"/>`+"\n", o.X*scale, o.X*scale, height)
			}
		case collision.Rectangle:
			fmt.Fprintf(&sb, `<rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" fill="#222233"/>`+"\n",
				o.Min.X*scale, o.Min.Y*scale, (o.Max.X-o.Min.X)*scale, (o.Max.Y-o.Min.Y)*scale)
		}
	}
	sb.WriteString("</g>\n")

	r := math.Max(p.ParticleRadius*scale, 1)
	sb.WriteString("<g>\n")
	for _, pt := range s.View().All() {
		if !pt.IsFinite() {
			continue
		}
		fmt.Fprintf(&sb, `<circle cx="%.1f" cy="%.1f" r="%.1f" fill="%s"/>`+"\n",
			pt.Position.X*scale, pt.Position.Y*scale, r, densityColor(pt.Density, p.TargetDensity))
	}
	sb.WriteString("</g>\n")

	if a := s.Attractor(); a.Active {
		fmt.Fprintf(&sb, `<circle cx="%.1f" cy="%.1f" r="%.1f" fill="none" stroke="#ff00ff" stroke-dasharray="4 4"/>`+"\n",
			a.Position.X*scale, a.Position.Y*scale, a.Radius*scale)
	}

	sb.WriteString("</svg>")
	return sb.String()
}

func densityColor(density, target float64) string {
	t := 0.0
	if target > 0 {
		t = math.Min(math.Max(density/target-1, 0), 1)
	}
	lerp := func(a, b int) int { return a + int(t*float64(b-a)) }
	return fmt.Sprintf("#%02x%02x%02x", lerp(0x99, 0x00), lerp(0xdd, 0x66), 0xff)
}

// Series plots values against sample index as a polyline. The y range is
// padded by 10% on each side; a flat series sits at mid-height.
func Series(values []float64, width, height int, strokeColor string) string {
	if len(values) < 2 {
		return ""
	}

	lo, hi := values[0], values[0]
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	span := hi - lo
	if span == 0 {
		lo -= 0.5
		span = 1
	}
	lo -= span * 0.1
	span *= 1.2

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<path fill="none" stroke="%s" stroke-width="1.5" d="M`,
		width, height, width, height, strokeColor)

	last := float64(len(values) - 1)
	for i, v := range values {
		x := float64(i) / last * float64(width)
		y := float64(height) - (v-lo)/span*float64(height)
		if i == 0 {
			fmt.Fprintf(&sb, "%.1f,%.1f", x, y)
		} else {
			fmt.Fprintf(&sb, " L%.1f,%.1f", x, y)
		}
	}

	sb.WriteString(`"/>
</svg>`)
	return sb.String()
}
