// Package aqi converts US EPA PM2.5 Air Quality Index values to physical
// concentrations in µg/m³.
package aqi

import "math"

type breakpoint struct {
	aqiLo, aqiHi int
	cLo, cHi     float64
}

// US EPA PM2.5 breakpoints (AQI range → concentration range).
var breakpoints = []breakpoint{
	{0, 50, 0.0, 12.0},
	{51, 100, 12.1, 35.4},
	{101, 150, 35.5, 55.4},
	{151, 200, 55.5, 150.4},
	{201, 300, 150.5, 250.4},
	{301, 400, 250.5, 350.4},
	{401, 500, 350.5, 500.4},
}

// ToConcentration converts a PM2.5 AQI value to µg/m³ by linear interpolation
// within the matching breakpoint row, rounded to one decimal. Values above 500
// fall back to the AQI value itself; the upstream methodology treats readings
// that high as off-scale and the approximation keeps them ordered.
func ToConcentration(aqi int) float64 {
	if aqi <= 0 {
		return 0.0
	}
	for _, bp := range breakpoints {
		if aqi >= bp.aqiLo && aqi <= bp.aqiHi {
			c := float64(aqi-bp.aqiLo)*(bp.cHi-bp.cLo)/float64(bp.aqiHi-bp.aqiLo) + bp.cLo
			return round1(c)
		}
	}
	return round1(float64(aqi))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
