package ui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"ttlform/internal/editor"
)

// eventsMsg carries controller events into the update loop, oldest first.
type eventsMsg []editor.Event

// EventPump is the controller's event sink for the terminal host. Emit only
// queues, so the controller may call it from any goroutine; the update loop
// drains the queue through Wait. Nothing is dropped.
type EventPump struct {
	mu     sync.Mutex
	queue  []editor.Event
	notify chan struct{}
	done   chan struct{}
	once   sync.Once
}

// NewEventPump creates an empty pump.
func NewEventPump() *EventPump {
	return &EventPump{
		notify: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
}

// Emit implements editor.EventSink.
func (p *EventPump) Emit(ev editor.Event) {
	p.mu.Lock()
	p.queue = append(p.queue, ev)
	p.mu.Unlock()

	select {
	case p.notify <- struct{}{}:
	default:
	}
}

// Wait returns a command that blocks until events are queued and delivers all
// of them as one message. Re-arm it after every delivery.
func (p *EventPump) Wait() tea.Cmd {
	return func() tea.Msg {
		for {
			if batch := p.drain(); len(batch) > 0 {
				return eventsMsg(batch)
			}
			select {
			case <-p.notify:
			case <-p.done:
				return nil
			}
		}
	}
}

// Close releases a pending Wait.
func (p *EventPump) Close() {
	p.once.Do(func() { close(p.done) })
}

func (p *EventPump) drain() []editor.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	batch := p.queue
	p.queue = nil
	return batch
}
