package suggest

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/example/ride-assistant/internal/eventloop"
	"github.com/example/ride-assistant/internal/logging"
	"github.com/example/ride-assistant/internal/models"
)

type fakeLookup struct {
	calls   []string
	results map[string][]models.Suggestion
	err     error
}

func (f *fakeLookup) Autocomplete(_ context.Context, input string) ([]models.Suggestion, error) {
	f.calls = append(f.calls, input)
	if f.err != nil {
		return nil, f.err
	}
	if r, ok := f.results[input]; ok {
		return r, nil
	}
	return []models.Suggestion{{Description: input + ", USA"}}, nil
}

func newController(t *testing.T, lookup Lookuper) (*Controller, *eventloop.Manual) {
	t.Helper()
	m := eventloop.NewManual(time.Unix(1_700_000_000, 0))
	c := New(models.FieldPickup, m, lookup, DefaultOptions(), logging.Discard())
	return c, m
}

func suggestions(n int) []models.Suggestion {
	out := make([]models.Suggestion, n)
	for i := range out {
		out[i] = models.Suggestion{Description: fmt.Sprintf("Place %d", i)}
	}
	return out
}

func TestShortTextNeverFires(t *testing.T) {
	f := &fakeLookup{}
	c, m := newController(t, f)

	c.OnTextChanged("B")
	c.OnTextChanged("Bo")
	m.Advance(time.Second)

	if len(f.calls) != 0 {
		t.Fatalf("expected no lookups, got %v", f.calls)
	}
	if s := c.Snapshot(); s.Visible || len(s.Suggestions) != 0 {
		t.Fatalf("expected hidden empty list, got %+v", s)
	}
}

func TestLookupFiresOnceAfterQuietPeriod(t *testing.T) {
	f := &fakeLookup{}
	c, m := newController(t, f)

	c.OnTextChanged("Bos")
	m.Advance(299 * time.Millisecond)
	if len(f.calls) != 0 {
		t.Fatalf("lookup fired before quiet period ended")
	}
	m.Advance(time.Millisecond)
	if len(f.calls) != 1 || f.calls[0] != "Bos" {
		t.Fatalf("calls = %v, want [Bos]", f.calls)
	}
	m.CompleteAll()
	m.Advance(time.Second)
	if len(f.calls) != 1 {
		t.Fatalf("extra lookups fired: %v", f.calls)
	}
	s := c.Snapshot()
	if !s.Visible || len(s.Suggestions) != 1 || s.Suggestions[0].Description != "Bos, USA" {
		t.Fatalf("unexpected snapshot %+v", s)
	}
}

func TestOnlyLastKeystrokeInWindowFires(t *testing.T) {
	f := &fakeLookup{}
	c, m := newController(t, f)

	for _, text := range []string{"Bos", "Bost", "Bosto", "Boston"} {
		c.OnTextChanged(text)
		m.Advance(100 * time.Millisecond)
	}
	m.Advance(300 * time.Millisecond)
	if len(f.calls) != 1 || f.calls[0] != "Boston" {
		t.Fatalf("calls = %v, want [Boston]", f.calls)
	}
	if m.PendingTimers() != 0 {
		t.Fatalf("pending timers = %d", m.PendingTimers())
	}
}

func TestSuggestionsCappedAtFive(t *testing.T) {
	f := &fakeLookup{results: map[string][]models.Suggestion{"Main": suggestions(9)}}
	c, m := newController(t, f)

	c.OnTextChanged("Main")
	m.Advance(300 * time.Millisecond)
	m.CompleteAll()

	s := c.Snapshot()
	if len(s.Suggestions) != 5 {
		t.Fatalf("got %d suggestions, want 5", len(s.Suggestions))
	}
	if s.Suggestions[0].Description != "Place 0" || s.Suggestions[4].Description != "Place 4" {
		t.Fatalf("order not preserved: %+v", s.Suggestions)
	}
}

func TestLookupFailureClearsAndHides(t *testing.T) {
	f := &fakeLookup{results: map[string][]models.Suggestion{"Bos": suggestions(2)}}
	c, m := newController(t, f)

	c.OnTextChanged("Bos")
	m.Advance(300 * time.Millisecond)
	m.CompleteAll()
	if !c.Snapshot().Visible {
		t.Fatalf("expected suggestions visible")
	}

	f.err = errors.New("connection refused")
	c.OnTextChanged("Bost")
	m.Advance(300 * time.Millisecond)
	m.CompleteAll()

	if s := c.Snapshot(); s.Visible || len(s.Suggestions) != 0 {
		t.Fatalf("expected cleared list after failure, got %+v", s)
	}
}

func TestStaleResponseDiscarded(t *testing.T) {
	f := &fakeLookup{results: map[string][]models.Suggestion{
		"Bos":    {{Description: "Bossier City"}},
		"Boston": {{Description: "Boston, MA"}},
	}}
	c, m := newController(t, f)

	c.OnTextChanged("Bos")
	m.Advance(300 * time.Millisecond)
	c.OnTextChanged("Boston")
	m.Advance(300 * time.Millisecond)
	if m.PendingJobs() != 2 {
		t.Fatalf("pending jobs = %d, want 2", m.PendingJobs())
	}

	// Newer response arrives first, then the slow stale one.
	m.Complete(1)
	m.Complete(0)

	s := c.Snapshot()
	if len(s.Suggestions) != 1 || s.Suggestions[0].Description != "Boston, MA" {
		t.Fatalf("stale response overwrote newer one: %+v", s.Suggestions)
	}
}

func TestSelectSuggestionHidesAndSkipsLookup(t *testing.T) {
	f := &fakeLookup{results: map[string][]models.Suggestion{"Bos": suggestions(3)}}
	c, m := newController(t, f)

	c.OnTextChanged("Bos")
	m.Advance(300 * time.Millisecond)
	m.CompleteAll()

	c.SelectSuggestion("Place 1")
	m.Advance(time.Second)

	if len(f.calls) != 1 {
		t.Fatalf("selection triggered a lookup: %v", f.calls)
	}
	s := c.Snapshot()
	if s.Visible || s.Query.Text != "Place 1" {
		t.Fatalf("unexpected snapshot %+v", s)
	}

	c.Focus()
	if !c.Snapshot().Visible {
		t.Fatalf("focus should re-show the retained list")
	}
}

func TestSelectDuringInFlightLookupKeepsListHidden(t *testing.T) {
	f := &fakeLookup{}
	c, m := newController(t, f)

	c.OnTextChanged("Bos")
	m.Advance(300 * time.Millisecond)
	c.SelectSuggestion("Boston, MA")
	m.CompleteAll()

	if c.Snapshot().Visible {
		t.Fatalf("late response re-opened the list after selection")
	}
}

func TestFocusWithEmptyListStaysHidden(t *testing.T) {
	c, _ := newController(t, &fakeLookup{})
	c.Focus()
	if c.Snapshot().Visible {
		t.Fatalf("empty list should stay hidden")
	}
}

func TestObserversReceiveSnapshots(t *testing.T) {
	c, m := newController(t, &fakeLookup{})
	var seen []Snapshot
	c.OnChange(func(s Snapshot) { seen = append(seen, s) })

	c.OnTextChanged("Bos")
	if len(seen) != 1 || seen[0].Query.Text != "Bos" {
		t.Fatalf("seen = %+v", seen)
	}
	if want := m.Now().Add(300 * time.Millisecond); !seen[0].Query.DebounceDeadline.Equal(want) {
		t.Fatalf("deadline = %v, want %v", seen[0].Query.DebounceDeadline, want)
	}
	m.Advance(300 * time.Millisecond)
	m.CompleteAll()
	if last := seen[len(seen)-1]; !last.Visible {
		t.Fatalf("last snapshot should be visible: %+v", last)
	}
}
