package ride

import "strings"

// WeatherIcon names the icon for a weather banner.
type WeatherIcon string

const (
	IconRain    WeatherIcon = "rain"
	IconSnow    WeatherIcon = "snow"
	IconCloud   WeatherIcon = "cloud"
	IconCold    WeatherIcon = "cold"
	IconSun     WeatherIcon = "sun"
	IconDefault WeatherIcon = "default"
)

// Glyph is the emoji rendered for the icon.
func (i WeatherIcon) Glyph() string {
	switch i {
	case IconRain:
		return "🌧️"
	case IconSnow:
		return "❄️"
	case IconCloud:
		return "☁️"
	case IconCold:
		return "🥶"
	case IconSun:
		return "☀️"
	default:
		return "🌤️"
	}
}

const (
	ColorRain   = "#4A90E2"
	ColorCold   = "#87CEEB"
	ColorHot    = "#FFA500"
	ColorNormal = "#32CD32"
)

// IconFor picks the weather icon. Condition keywords are checked before
// temperature thresholds.
func IconFor(condition string, tempC float64) WeatherIcon {
	c := strings.ToLower(condition)
	switch {
	case strings.Contains(c, "rain"), strings.Contains(c, "drizzle"), strings.Contains(c, "storm"):
		return IconRain
	case strings.Contains(c, "snow"):
		return IconSnow
	case strings.Contains(c, "cloud"):
		return IconCloud
	case tempC < 10:
		return IconCold
	case tempC > 25:
		return IconSun
	}
	return IconDefault
}

// ColorFor picks the banner background. Drizzle, snow and cloud fall
// through to the temperature thresholds.
func ColorFor(condition string, tempC float64) string {
	c := strings.ToLower(condition)
	switch {
	case strings.Contains(c, "rain"), strings.Contains(c, "storm"):
		return ColorRain
	case tempC < 10:
		return ColorCold
	case tempC > 25:
		return ColorHot
	}
	return ColorNormal
}
