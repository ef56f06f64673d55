package crawl

import "igcrawler/pkg/graph"

// EventKind names a point of progress in a crawl
type EventKind string

const (
	EventSeeded       EventKind = "seeded"
	EventSampled      EventKind = "sampled"
	EventPassStarted  EventKind = "pass_started"
	EventNodeResolved EventKind = "node_resolved"
	EventNodeFailed   EventKind = "node_failed"
	EventPassFinished EventKind = "pass_finished"
	EventRotated      EventKind = "rotated"
	EventFinished     EventKind = "finished"
)

// Event reports crawl progress. Fields not relevant to Kind are zero.
type Event struct {
	Kind    EventKind
	Account string
	Pass    int
	Node    *graph.Node
	Result  *PassResult
	Stats   graph.Stats
	Err     error
}

// Observer receives events synchronously from the crawl goroutine
type Observer interface {
	Observe(Event)
}

// ObserverFunc adapts a function to Observer
type ObserverFunc func(Event)

func (f ObserverFunc) Observe(e Event) { f(e) }

type nopObserver struct{}

func (nopObserver) Observe(Event) {}
