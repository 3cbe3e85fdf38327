// Package suggest implements the debounced location-suggestion controller,
// one instance per input field.
package suggest

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/example/ride-assistant/internal/apperr"
	"github.com/example/ride-assistant/internal/eventloop"
	"github.com/example/ride-assistant/internal/logging"
	"github.com/example/ride-assistant/internal/models"
	"github.com/example/ride-assistant/internal/observability"
)

// Lookuper resolves partial addresses to suggestions.
type Lookuper interface {
	Autocomplete(ctx context.Context, input string) ([]models.Suggestion, error)
}

type Options struct {
	DebounceDelay  time.Duration
	MinQueryLength int
	MaxSuggestions int
	// LookupTimeout bounds a single autocomplete call; zero means none.
	LookupTimeout time.Duration
}

func DefaultOptions() Options {
	return Options{
		DebounceDelay:  300 * time.Millisecond,
		MinQueryLength: 3,
		MaxSuggestions: 5,
		LookupTimeout:  10 * time.Second,
	}
}

// Snapshot is an immutable view of a field's state.
type Snapshot struct {
	Field       models.Field         `json:"field"`
	Query       models.LocationQuery `json:"query"`
	Suggestions []models.Suggestion  `json:"suggestions"`
	Visible     bool                 `json:"visible"`
}

// Controller owns one field's query text, quiet-period timer and
// suggestion list. Every method except Snapshot must be called on the loop.
type Controller struct {
	field  models.Field
	sched  eventloop.Scheduler
	lookup Lookuper
	opts   Options
	logger *slog.Logger

	text        string
	deadline    time.Time
	suggestions []models.Suggestion
	visible     bool
	timer       eventloop.Timer
	generation  uint64

	snap      atomic.Pointer[Snapshot]
	observers []func(Snapshot)
}

func New(field models.Field, sched eventloop.Scheduler, lookup Lookuper, opts Options, logger *slog.Logger) *Controller {
	def := DefaultOptions()
	if opts.DebounceDelay <= 0 {
		opts.DebounceDelay = def.DebounceDelay
	}
	if opts.MinQueryLength <= 0 {
		opts.MinQueryLength = def.MinQueryLength
	}
	if opts.MaxSuggestions <= 0 {
		opts.MaxSuggestions = def.MaxSuggestions
	}
	c := &Controller{
		field:  field,
		sched:  sched,
		lookup: lookup,
		opts:   opts,
		logger: logging.Component(logger, "suggest").With("field", string(field)),
	}
	c.snap.Store(&Snapshot{Field: field, Suggestions: []models.Suggestion{}})
	return c
}

func (c *Controller) Field() models.Field { return c.field }

// Text is the field's current value.
func (c *Controller) Text() string { return c.text }

// OnChange registers fn to receive every new snapshot. fn runs on the loop.
func (c *Controller) OnChange(fn func(Snapshot)) {
	c.observers = append(c.observers, fn)
}

// Snapshot returns the latest published state. Safe from any goroutine.
func (c *Controller) Snapshot() Snapshot { return *c.snap.Load() }

// OnTextChanged records a keystroke and restarts the quiet period.
func (c *Controller) OnTextChanged(text string) {
	c.text = text
	c.stopTimer()
	c.deadline = c.sched.Now().Add(c.opts.DebounceDelay)
	c.timer = c.sched.AfterFunc(c.opts.DebounceDelay, c.quietPeriodElapsed)
	c.publish()
}

// SelectSuggestion sets the field to a chosen suggestion and hides the list.
// No lookup follows.
func (c *Controller) SelectSuggestion(text string) {
	c.stopTimer()
	c.generation++
	c.text = text
	c.deadline = time.Time{}
	c.visible = false
	c.publish()
}

// Focus re-shows the list when it still holds suggestions.
func (c *Controller) Focus() {
	if len(c.suggestions) == 0 || c.visible {
		return
	}
	c.visible = true
	c.publish()
}

func (c *Controller) stopTimer() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

func (c *Controller) quietPeriodElapsed() {
	c.timer = nil
	c.deadline = time.Time{}
	// Advancing the generation here also invalidates any lookup still in
	// flight for earlier text.
	c.generation++
	if utf8.RuneCountInString(c.text) < c.opts.MinQueryLength {
		c.clear()
		c.publish()
		return
	}

	gen := c.generation
	text := c.text
	observability.LookupsIssued.WithLabelValues(string(c.field)).Inc()
	c.logger.Debug("autocomplete lookup issued", "text", text, "generation", gen)

	var (
		results []models.Suggestion
		err     error
	)
	c.sched.Go(func() {
		ctx := context.Background()
		if c.opts.LookupTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, c.opts.LookupTimeout)
			defer cancel()
		}
		results, err = c.lookup.Autocomplete(ctx, text)
	}, func() {
		c.lookupFinished(gen, results, err)
	})
}

func (c *Controller) lookupFinished(gen uint64, results []models.Suggestion, err error) {
	if gen != c.generation {
		observability.StaleResponses.WithLabelValues("autocomplete").Inc()
		c.logger.Debug("stale autocomplete response dropped", "generation", gen, "latest", c.generation)
		return
	}
	if err != nil {
		lerr := apperr.Lookup(err).WithOp("suggest." + string(c.field))
		observability.LookupsFailed.WithLabelValues(string(c.field)).Inc()
		c.logger.Warn("autocomplete lookup failed", "error", lerr)
		c.clear()
		c.publish()
		return
	}
	if len(results) > c.opts.MaxSuggestions {
		results = results[:c.opts.MaxSuggestions]
	}
	c.suggestions = append([]models.Suggestion(nil), results...)
	c.visible = true
	c.publish()
}

func (c *Controller) clear() {
	c.suggestions = nil
	c.visible = false
}

func (c *Controller) publish() {
	list := make([]models.Suggestion, len(c.suggestions))
	copy(list, c.suggestions)
	s := &Snapshot{
		Field:       c.field,
		Query:       models.LocationQuery{Text: c.text, DebounceDeadline: c.deadline},
		Suggestions: list,
		Visible:     c.visible && len(list) > 0,
	}
	c.snap.Store(s)
	for _, fn := range c.observers {
		fn(*s)
	}
}
