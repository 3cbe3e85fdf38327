// Package ride validates ride queries, issues the aggregate booking request
// and tracks its lifecycle.
package ride

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/example/ride-assistant/internal/apperr"
	"github.com/example/ride-assistant/internal/backend"
	"github.com/example/ride-assistant/internal/eventloop"
	"github.com/example/ride-assistant/internal/logging"
	"github.com/example/ride-assistant/internal/models"
	"github.com/example/ride-assistant/internal/observability"
	"github.com/example/ride-assistant/internal/validation"
)

const (
	MsgMissingLocations = "Please enter both pickup and destination locations"
	MsgBookingFailed    = "Could not fetch ride details."
)

// Phase is the orchestrator's position in its request lifecycle.
type Phase string

const (
	PhaseIdle    Phase = "idle"
	PhaseLoading Phase = "loading"
	PhaseLoaded  Phase = "loaded"
	PhaseFailed  Phase = "failed"
)

// Booker issues the aggregate ride request.
type Booker interface {
	BookRide(ctx context.Context, q models.RideQuery) (models.RideResult, error)
}

// AlertSink shows user-visible errors.
type AlertSink interface {
	Alert(err error)
}

// AlertFunc adapts a function to AlertSink.
type AlertFunc func(err error)

func (f AlertFunc) Alert(err error) { f(err) }

// Snapshot is an immutable view of the orchestrator. Result is nil unless
// Phase is PhaseLoaded.
type Snapshot struct {
	Phase      Phase              `json:"phase"`
	Loading    bool               `json:"loading"`
	MapVisible bool               `json:"map_visible"`
	Query      *models.RideQuery  `json:"query,omitempty"`
	Result     *models.RideResult `json:"result,omitempty"`
	Error      string             `json:"error,omitempty"`
}

// Orchestrator owns the RideResult. Every method except Snapshot must be
// called on the loop.
type Orchestrator struct {
	sched    eventloop.Scheduler
	booker   Booker
	alerts   AlertSink
	validate *validation.Validator
	timeout  time.Duration
	logger   *slog.Logger

	generation uint64
	snap       atomic.Pointer[Snapshot]
	observers  []func(Snapshot)
}

func NewOrchestrator(sched eventloop.Scheduler, booker Booker, alerts AlertSink, timeout time.Duration, logger *slog.Logger) *Orchestrator {
	if alerts == nil {
		alerts = AlertFunc(func(error) {})
	}
	o := &Orchestrator{
		sched:    sched,
		booker:   booker,
		alerts:   alerts,
		validate: validation.New(),
		timeout:  timeout,
		logger:   logging.Component(logger, "ride"),
	}
	o.snap.Store(&Snapshot{Phase: PhaseIdle, MapVisible: true})
	return o
}

func (o *Orchestrator) OnChange(fn func(Snapshot)) {
	o.observers = append(o.observers, fn)
}

// Snapshot returns the latest published state. Safe from any goroutine.
func (o *Orchestrator) Snapshot() Snapshot { return *o.snap.Load() }

// RequestRide validates the two locations and, when both are present,
// starts a booking. A blank location returns a validation error, which is
// also sent to the alert sink; no request is made.
func (o *Orchestrator) RequestRide(source, destination string) error {
	q := models.RideQuery{Source: source, Destination: destination}
	if err := o.validate.Struct(q); err != nil {
		verr := apperr.Validation(MsgMissingLocations).WithOp("ride.request")
		verr.Err = err
		observability.BookingsTotal.WithLabelValues(observability.OutcomeRejected).Inc()
		o.logger.Info("ride request rejected", "fields", validation.FailedFields(err))
		o.alerts.Alert(verr)
		return verr
	}

	o.generation++
	gen := o.generation
	prev := o.Snapshot()
	o.publish(&Snapshot{Phase: PhaseLoading, Loading: true, MapVisible: true, Query: &q})
	o.logger.Info("ride request issued", "generation", gen, "previous_phase", prev.Phase)

	var (
		result models.RideResult
		err    error
		took   time.Duration
	)
	o.sched.Go(func() {
		ctx := context.Background()
		if o.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, o.timeout)
			defer cancel()
		}
		start := time.Now()
		result, err = o.booker.BookRide(ctx, q)
		took = time.Since(start)
	}, func() {
		o.finish(gen, q, result, err, took)
	})
	return nil
}

func (o *Orchestrator) finish(gen uint64, q models.RideQuery, result models.RideResult, err error, took time.Duration) {
	observability.BookingDuration.Observe(took.Seconds())
	if gen != o.generation {
		observability.BookingsTotal.WithLabelValues(observability.OutcomeStale).Inc()
		observability.StaleResponses.WithLabelValues("book_ride").Inc()
		o.logger.Debug("stale ride response dropped", "generation", gen, "latest", o.generation)
		return
	}
	if err != nil {
		msg := backend.Detail(err)
		if msg == "" {
			msg = MsgBookingFailed
		}
		berr := apperr.Booking(msg, err).WithOp("ride.request")
		observability.BookingsTotal.WithLabelValues(observability.OutcomeFailed).Inc()
		o.logger.Error("ride request failed", "error", berr)
		o.publish(&Snapshot{Phase: PhaseFailed, MapVisible: true, Query: &q, Error: msg})
		o.alerts.Alert(berr)
		return
	}
	observability.BookingsTotal.WithLabelValues(observability.OutcomeLoaded).Inc()
	o.logger.Info("ride details loaded", "distance", result.RideDetails.Distance, "duration", result.RideDetails.Duration)
	o.publish(&Snapshot{Phase: PhaseLoaded, MapVisible: true, Query: &q, Result: &result})
}

func (o *Orchestrator) publish(s *Snapshot) {
	o.snap.Store(s)
	for _, fn := range o.observers {
		fn(*s)
	}
}
