package ride

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/example/ride-assistant/internal/models"
)

const maxRideOptions = 3

// WeatherBanner is the coloured weather strip above the inputs.
type WeatherBanner struct {
	Icon  WeatherIcon `json:"icon"`
	Glyph string      `json:"glyph"`
	Color string      `json:"color"`
	Text  string      `json:"text"`
}

type RideOption struct {
	Name     string `json:"name"`
	Estimate string `json:"estimate"`
	Minutes  int    `json:"minutes"`
}

// Display is the presentation model of a loaded ride result.
type Display struct {
	Weather      WeatherBanner `json:"weather"`
	Duration     string        `json:"duration"`
	Distance     string        `json:"distance"`
	Options      []RideOption  `json:"options"`
	AISuggestion string        `json:"ai_suggestion"`
}

// NewDisplay builds the presentation model for r.
func NewDisplay(r models.RideResult) Display {
	w := r.WeatherReport
	icon := IconFor(w.Condition, w.TemperatureCelsius)
	d := Display{
		Weather: WeatherBanner{
			Icon:  icon,
			Glyph: icon.Glyph(),
			Color: ColorFor(w.Condition, w.TemperatureCelsius),
			Text:  WeatherText(w),
		},
		Duration:     r.RideDetails.Duration,
		Distance:     r.RideDetails.Distance,
		Options:      make([]RideOption, 0, maxRideOptions),
		AISuggestion: r.AISuggestion,
	}
	for i, p := range r.Estimates.Prices {
		if i == maxRideOptions {
			break
		}
		d.Options = append(d.Options, RideOption{Name: p.DisplayName, Estimate: p.EstimateText, Minutes: p.DurationMinutes()})
	}
	return d
}

// WeatherText renders "Light rain • 12.5°C".
func WeatherText(w models.WeatherReport) string {
	return capitalize(w.Condition) + " • " + strconv.FormatFloat(w.TemperatureCelsius, 'f', -1, 64) + "°C"
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	var b strings.Builder
	b.WriteRune(unicode.ToUpper(r))
	b.WriteString(s[size:])
	return b.String()
}
