package ingest

import (
	"github.com/fsnotify/fsnotify"
)

// Op is the kind of change a notifier reports.
type Op uint8

const (
	OpCreate Op = iota + 1
	OpWrite
)

func (o Op) String() string {
	switch o {
	case OpCreate:
		return "create"
	case OpWrite:
		return "write"
	}
	return "other"
}

// Event is a single filesystem change inside the watched directory.
type Event struct {
	Name string
	Op   Op
}

// Notifier delivers create/write events for the directories added to it.
type Notifier interface {
	Add(dir string) error
	Events() <-chan Event
	Errors() <-chan error
	Close() error
}

// NotifierFactory creates a Notifier; it fails when the platform mechanism
// (inotify, kqueue, ...) cannot be set up.
type NotifierFactory func() (Notifier, error)

type fsNotifier struct {
	w      *fsnotify.Watcher
	events chan Event
	done   chan struct{}
}

// NewFSNotifier wraps fsnotify. Only Create and Write are forwarded; rename,
// remove and chmod are dropped.
func NewFSNotifier() (Notifier, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	n := &fsNotifier{w: w, events: make(chan Event), done: make(chan struct{})}
	go n.forward()
	return n, nil
}

func (n *fsNotifier) forward() {
	defer close(n.events)
	for e := range n.w.Events {
		var ev Event
		switch {
		case e.Has(fsnotify.Create):
			ev = Event{Name: e.Name, Op: OpCreate}
		case e.Has(fsnotify.Write):
			ev = Event{Name: e.Name, Op: OpWrite}
		default:
			continue
		}
		select {
		case n.events <- ev:
		case <-n.done:
			return
		}
	}
}

func (n *fsNotifier) Add(dir string) error { return n.w.Add(dir) }

func (n *fsNotifier) Events() <-chan Event { return n.events }

func (n *fsNotifier) Errors() <-chan error { return n.w.Errors }

func (n *fsNotifier) Close() error {
	close(n.done)
	return n.w.Close()
}
