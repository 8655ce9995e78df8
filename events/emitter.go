package events

import (
	"log"
	"sync"
)

// EventType labels what happened in the simulation.
type EventType string

const (
	EventBlockMined        EventType = "block_mined"
	EventBlockReceived     EventType = "block_received"
	EventForkSwitch        EventType = "fork_switch"
	EventContractCalled    EventType = "contract_called"
	EventContractDeployed  EventType = "contract_deployed"
	EventRedactionRequest  EventType = "redaction_requested"
	EventRedactionVote     EventType = "redaction_voted"
	EventRedactionApproved EventType = "redaction_approved"
	EventRedactionRejected EventType = "redaction_rejected"
	EventRedactionExecuted EventType = "redaction_executed"
)

// Event carries a typed payload emitted after a state change observed during
// the simulation run.
type Event struct {
	Type      EventType      `json:"type"`
	Timestamp float64        `json:"timestamp"`
	NodeID    int            `json:"node_id"`
	Data      map[string]any `json:"data"`
}

// Handler is a callback invoked for matching events.
type Handler func(Event)

// Emitter is a simple pub/sub broker. Subscribe before Emit. The simulator's
// Statistics accumulators are wired in as subscribers so that reporting
// stays decoupled from the handlers that produce the data.
type Emitter struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
}

// NewEmitter creates an Emitter with no subscribers.
func NewEmitter() *Emitter {
	return &Emitter{handlers: make(map[EventType][]Handler)}
}

// Subscribe registers h to be called whenever typ is emitted.
func (e *Emitter) Subscribe(typ EventType, h Handler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handlers[typ] = append(e.handlers[typ], h)
}

// Emit delivers ev to all subscribers for ev.Type synchronously. Each
// handler is guarded by panic recovery so a misbehaving subscriber cannot
// halt the event loop mid-run.
func (e *Emitter) Emit(ev Event) {
	e.mu.RLock()
	handlers := e.handlers[ev.Type]
	e.mu.RUnlock()
	for _, h := range handlers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Printf("[events] handler panicked for %s: %v", ev.Type, r)
				}
			}()
			h(ev)
		}()
	}
}
