package eventloop

import (
	"context"
	"sort"
	"time"
)

// Manual is a virtual-time Scheduler for tests. Nothing happens until the
// test calls Flush, Advance or Complete. Work handed to Go runs immediately,
// but its completion is held until the test releases it, so tests choose
// the order in which responses arrive.
//
// Manual is not safe for concurrent use.
type Manual struct {
	now    time.Time
	tasks  []func()
	timers []*manualTimer
	jobs   []func()
	seq    int
}

func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

func (m *Manual) Now() time.Time { return m.now }

func (m *Manual) Post(fn func()) { m.tasks = append(m.tasks, fn) }

func (m *Manual) AfterFunc(d time.Duration, fn func()) Timer {
	m.seq++
	t := &manualTimer{when: m.now.Add(d), seq: m.seq, fn: fn}
	m.timers = append(m.timers, t)
	return t
}

func (m *Manual) Go(work func(), done func()) {
	work()
	m.jobs = append(m.jobs, done)
}

// Do runs fn and everything it posts.
func (m *Manual) Do(_ context.Context, fn func()) error {
	fn()
	m.Flush()
	return nil
}

// Flush runs posted tasks until the queue is empty.
func (m *Manual) Flush() {
	for len(m.tasks) > 0 {
		fn := m.tasks[0]
		m.tasks = m.tasks[1:]
		fn()
	}
}

// Advance moves virtual time forward by d, firing due timers in order.
func (m *Manual) Advance(d time.Duration) {
	target := m.now.Add(d)
	m.Flush()
	for {
		t := m.nextDue(target)
		if t == nil {
			break
		}
		m.now = t.when
		if !t.stopped {
			t.fired = true
			t.fn()
		}
		m.Flush()
	}
	m.now = target
}

func (m *Manual) nextDue(target time.Time) *manualTimer {
	m.compact()
	if len(m.timers) == 0 {
		return nil
	}
	sort.SliceStable(m.timers, func(i, j int) bool {
		if m.timers[i].when.Equal(m.timers[j].when) {
			return m.timers[i].seq < m.timers[j].seq
		}
		return m.timers[i].when.Before(m.timers[j].when)
	})
	t := m.timers[0]
	if t.when.After(target) {
		return nil
	}
	m.timers = m.timers[1:]
	return t
}

func (m *Manual) compact() {
	live := m.timers[:0]
	for _, t := range m.timers {
		if !t.stopped {
			live = append(live, t)
		}
	}
	m.timers = live
}

// PendingTimers counts timers that have neither fired nor been stopped.
func (m *Manual) PendingTimers() int {
	m.compact()
	return len(m.timers)
}

// PendingJobs counts completions handed to Go and not yet released.
func (m *Manual) PendingJobs() int { return len(m.jobs) }

// Complete releases the i-th held completion (in issue order) and flushes.
func (m *Manual) Complete(i int) {
	done := m.jobs[i]
	m.jobs = append(m.jobs[:i], m.jobs[i+1:]...)
	done()
	m.Flush()
}

// CompleteAll releases every held completion in issue order.
func (m *Manual) CompleteAll() {
	for len(m.jobs) > 0 {
		m.Complete(0)
	}
}

type manualTimer struct {
	when    time.Time
	seq     int
	fn      func()
	fired   bool
	stopped bool
}

func (t *manualTimer) Stop() bool {
	if t.fired || t.stopped {
		return false
	}
	t.stopped = true
	return true
}
