package params

import (
	"math"
	"strings"
)

// Host documents store lengths in feet, angles in radians, areas in square
// feet and volumes in cubic feet. Factors convert one display unit into the
// matching internal unit.
var unitFactors = map[string]float64{
	"mm":  1 / 304.8,
	"cm":  1 / 30.48,
	"dm":  1 / 3.048,
	"m":   1 / 0.3048,
	"in":  1.0 / 12,
	"ft":  1,
	"deg": math.Pi / 180,
	"rad": 1,

	"mm2": 1 / (304.8 * 304.8),
	"cm2": 1 / (30.48 * 30.48),
	"m2":  1 / (0.3048 * 0.3048),
	"in2": 1.0 / 144,
	"ft2": 1,

	"mm3": 1 / (304.8 * 304.8 * 304.8),
	"cm3": 1 / (30.48 * 30.48 * 30.48),
	"m3":  1 / (0.3048 * 0.3048 * 0.3048),
	"in3": 1.0 / 1728,
	"ft3": 1,
}

var unitAliases = map[string]string{
	"millimeter": "mm", "millimeters": "mm", "millimetre": "mm", "millimetres": "mm",
	"centimeter": "cm", "centimeters": "cm", "centimetre": "cm", "centimetres": "cm",
	"meter": "m", "meters": "m", "metre": "m", "metres": "m",
	"inch": "in", "inches": "in", "\"": "in",
	"foot": "ft", "feet": "ft", "'": "ft",
	"degree": "deg", "degrees": "deg", "°": "deg",
	"radian": "rad", "radians": "rad",
	"m²": "m2", "sqm": "m2", "mm²": "mm2", "cm²": "cm2", "sqft": "ft2", "ft²": "ft2",
	"m³": "m3", "mm³": "mm3", "cm³": "cm3", "cuft": "ft3", "ft³": "ft3",
}

// NormalizeUnit returns the canonical key of a unit label, or "" when the
// label is not a convertible unit.
func NormalizeUnit(unit string) string {
	u := strings.ToLower(strings.TrimSpace(unit))
	if alias, ok := unitAliases[u]; ok {
		u = alias
	}
	if _, ok := unitFactors[u]; ok {
		return u
	}
	return ""
}

// ToInternal converts a value expressed in unit into host units. Unknown
// units are returned unchanged with ok false.
func ToInternal(value float64, unit string) (float64, bool) {
	f, ok := unitFactors[NormalizeUnit(unit)]
	if !ok {
		return value, false
	}
	return value * f, true
}

// FromInternal converts a value in host units back into unit.
func FromInternal(value float64, unit string) (float64, bool) {
	f, ok := unitFactors[NormalizeUnit(unit)]
	if !ok {
		return value, false
	}
	return value / f, true
}
