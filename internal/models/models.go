package models

import (
	"math"
	"time"
)

// Field identifies one of the two location inputs.
type Field string

const (
	FieldPickup      Field = "pickup"
	FieldDestination Field = "destination"
)

// Platform is the host the client runs on.
type Platform string

const (
	PlatformWeb     Platform = "web"
	PlatformIOS     Platform = "ios"
	PlatformAndroid Platform = "android"
)

func (p Platform) Valid() bool {
	switch p {
	case PlatformWeb, PlatformIOS, PlatformAndroid:
		return true
	}
	return false
}

// LocationQuery is the current text of a field and when its quiet period ends.
type LocationQuery struct {
	Text             string    `json:"text"`
	DebounceDeadline time.Time `json:"debounce_deadline"`
}

type Suggestion struct {
	Description string `json:"description"`
}

// RideQuery is built at submit time from the two field values.
type RideQuery struct {
	Source      string `json:"source" validate:"notblank"`
	Destination string `json:"destination" validate:"notblank"`
}

type RideDetails struct {
	Distance        string  `json:"distance"`
	DistanceMeters  int     `json:"distance_meters,omitempty"`
	Duration        string  `json:"duration"`
	DurationSeconds int     `json:"duration_seconds,omitempty"`
	StartAddress    string  `json:"start_address"`
	EndAddress      string  `json:"end_address"`
	Polyline        *string `json:"polyline,omitempty"`
}

type WeatherReport struct {
	Condition          string  `json:"condition"`
	TemperatureCelsius float64 `json:"temperature"`
}

type PriceEstimate struct {
	DisplayName     string  `json:"display_name"`
	EstimateText    string  `json:"estimate"`
	DurationSeconds float64 `json:"duration"`
}

// DurationMinutes rounds the trip duration to whole minutes.
func (p PriceEstimate) DurationMinutes() int {
	return int(math.Round(p.DurationSeconds / 60))
}

// TimeEstimate is a pickup ETA; the backend reports it in seconds.
type TimeEstimate struct {
	DisplayName     string  `json:"display_name"`
	EstimateSeconds float64 `json:"estimate"`
}

func (t TimeEstimate) ETAMinutes() int {
	return int(math.Round(t.EstimateSeconds / 60))
}

type Estimates struct {
	Prices []PriceEstimate `json:"prices"`
	Times  []TimeEstimate  `json:"times"`
}

// RideResult is the aggregate returned for one ride query.
type RideResult struct {
	RideDetails   RideDetails   `json:"ride_details"`
	WeatherReport WeatherReport `json:"weather_report"`
	Estimates     Estimates     `json:"uber_estimates"`
	AISuggestion  string        `json:"ai_suggestion"`
}

// MapRenderState is the rendering strategy chosen for the map surface.
type MapRenderState string

const (
	RenderWebEmbed    MapRenderState = "web_embed"
	RenderNativeEmbed MapRenderState = "native_embed"
	RenderPlaceholder MapRenderState = "placeholder"
)
