package pipeline

import (
	"sync"

	"github.com/fpang/memories-download/internal/manifest"
)

// NotificationKind distinguishes progress milestones from warnings.
type NotificationKind string

const (
	KindProgress NotificationKind = "progress"
	KindWarning  NotificationKind = "warning"
)

// MonthLabel is the year and display month of a progress milestone.
type MonthLabel struct {
	Year  string `json:"year"`
	Month string `json:"month"`
}

// Notification is sent to the observer.
//
// For progress notifications Count is the 1-based position in the batch and
// Total is set only on the first notification of a batch (zero otherwise).
// Warnings carry a human-readable Message; a failed stitch also sets
// ClipCount to the number of clips that stayed separate.
type Notification struct {
	Kind      NotificationKind   `json:"kind"`
	Count     int                `json:"count,omitempty"`
	Total     int                `json:"total,omitempty"`
	Type      manifest.MediaType `json:"type"`
	Date      MonthLabel         `json:"date"`
	File      string             `json:"file,omitempty"`
	Message   string             `json:"message,omitempty"`
	ClipCount int                `json:"clipCount,omitempty"`
	Err       error              `json:"-"`
}

// Observer receives notifications. Emit must not block the caller.
type Observer interface {
	Emit(n Notification)
}

// ObserverFunc adapts a function to Observer. The function runs on the
// emitting goroutine, so it must be quick.
type ObserverFunc func(n Notification)

// Emit calls f(n).
func (f ObserverFunc) Emit(n Notification) {
	f(n)
}

// AsyncObserver queues notifications without bound and delivers them to a
// sink on its own goroutine, in emission order.
type AsyncObserver struct {
	sink func(Notification)

	mu     sync.Mutex
	cond   *sync.Cond
	queue  []Notification
	closed bool
	done   chan struct{}
}

// NewAsyncObserver starts delivering to sink.
func NewAsyncObserver(sink func(Notification)) *AsyncObserver {
	o := &AsyncObserver{
		sink: sink,
		done: make(chan struct{}),
	}
	o.cond = sync.NewCond(&o.mu)
	go o.loop()
	return o
}

// Emit queues n. Notifications emitted after Close are dropped.
func (o *AsyncObserver) Emit(n Notification) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return
	}
	o.queue = append(o.queue, n)
	o.cond.Signal()
}

// Close delivers everything already queued, then stops.
func (o *AsyncObserver) Close() {
	o.mu.Lock()
	o.closed = true
	o.cond.Broadcast()
	o.mu.Unlock()
	<-o.done
}

func (o *AsyncObserver) loop() {
	defer close(o.done)
	for {
		o.mu.Lock()
		for len(o.queue) == 0 && !o.closed {
			o.cond.Wait()
		}
		if len(o.queue) == 0 && o.closed {
			o.mu.Unlock()
			return
		}
		batch := o.queue
		o.queue = nil
		o.mu.Unlock()

		for _, n := range batch {
			o.sink(n)
		}
	}
}
