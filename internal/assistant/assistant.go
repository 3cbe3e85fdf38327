// Package assistant wires the two suggestion controllers, the ride
// orchestrator and the map renderer into one client on a shared loop.
package assistant

import (
	"log/slog"

	"github.com/example/ride-assistant/internal/config"
	"github.com/example/ride-assistant/internal/eventloop"
	"github.com/example/ride-assistant/internal/mapview"
	"github.com/example/ride-assistant/internal/models"
	"github.com/example/ride-assistant/internal/ride"
	"github.com/example/ride-assistant/internal/suggest"
)

// Backend is everything the client needs from the assistant backend.
type Backend interface {
	suggest.Lookuper
	ride.Booker
}

// State is the combined view handed to the UI.
type State struct {
	Pickup      suggest.Snapshot `json:"pickup"`
	Destination suggest.Snapshot `json:"destination"`
	Ride        ride.Snapshot    `json:"ride"`
	Display     *ride.Display    `json:"display,omitempty"`
	Map         *mapview.View    `json:"map,omitempty"`
}

type Assistant struct {
	pickup      *suggest.Controller
	destination *suggest.Controller
	rides       *ride.Orchestrator
	maps        *mapview.Renderer

	observers []func(State)
}

func New(cfg config.ClientConfig, sched eventloop.Scheduler, be Backend, alerts ride.AlertSink, logger *slog.Logger) *Assistant {
	opts := suggest.Options{
		DebounceDelay:  cfg.DebounceDelay,
		MinQueryLength: cfg.MinQueryLength,
		MaxSuggestions: cfg.MaxSuggestions,
		LookupTimeout:  cfg.HTTPTimeout,
	}
	a := &Assistant{
		pickup:      suggest.New(models.FieldPickup, sched, be, opts, logger),
		destination: suggest.New(models.FieldDestination, sched, be, opts, logger),
		rides:       ride.NewOrchestrator(sched, be, alerts, cfg.HTTPTimeout, logger),
		maps:        mapview.NewRenderer(cfg.Platform, mapview.Capabilities{HasEmbeddableBrowser: cfg.HasEmbeddableBrowser}, cfg.MapsAPIKey, logger),
	}
	a.pickup.OnChange(func(suggest.Snapshot) { a.notify() })
	a.destination.OnChange(func(suggest.Snapshot) { a.notify() })
	a.rides.OnChange(func(ride.Snapshot) { a.notify() })
	return a
}

// Field returns the controller for f, or nil for an unknown field.
func (a *Assistant) Field(f models.Field) *suggest.Controller {
	switch f {
	case models.FieldPickup:
		return a.pickup
	case models.FieldDestination:
		return a.destination
	}
	return nil
}

func (a *Assistant) Rides() *ride.Orchestrator { return a.rides }

// Submit requests a ride for the current field values. Must be called on
// the loop.
func (a *Assistant) Submit() error {
	return a.rides.RequestRide(a.pickup.Text(), a.destination.Text())
}

// OnChange registers fn to receive the combined state after every change.
// fn runs on the loop.
func (a *Assistant) OnChange(fn func(State)) {
	a.observers = append(a.observers, fn)
}

// State assembles the current view from the component snapshots. Safe from
// any goroutine.
func (a *Assistant) State() State {
	rs := a.rides.Snapshot()
	st := State{
		Pickup:      a.pickup.Snapshot(),
		Destination: a.destination.Snapshot(),
		Ride:        rs,
	}
	if rs.Result != nil {
		d := ride.NewDisplay(*rs.Result)
		st.Display = &d
	}
	if rs.MapVisible {
		v := a.maps.ForResult(rs.Result)
		st.Map = &v
	}
	return st
}

func (a *Assistant) notify() {
	if len(a.observers) == 0 {
		return
	}
	st := a.State()
	for _, fn := range a.observers {
		fn(st)
	}
}
