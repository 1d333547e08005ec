package events

import (
	"context"
	"sync"

	"matka/models"

	log "github.com/sirupsen/logrus"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeBetPlaced      EventType = "bet_placed"
	EventTypeNumberLocked   EventType = "number_locked"
	EventTypeResultDeclared EventType = "result_declared"
	EventTypeRoundSettled   EventType = "round_settled"
	EventTypeRoundCancelled EventType = "round_cancelled"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// BetPlacedEvent represents a stake that was accepted into a round
type BetPlacedEvent struct {
	RoundID    int64
	BetID      int64
	UserID     int64
	NumberType models.NumberType
	Number     int
	Amount     int64
}

func (e BetPlacedEvent) Type() EventType {
	return EventTypeBetPlaced
}

// NumberLockedEvent represents a number crossing its stake cap
type NumberLockedEvent struct {
	RoundID     int64
	NumberType  models.NumberType
	Number      int
	TotalStaked int64
}

func (e NumberLockedEvent) Type() EventType {
	return EventTypeNumberLocked
}

// ResultDeclaredEvent represents a winning number being declared
type ResultDeclaredEvent struct {
	RoundID       int64
	WinningNumber int
	DigitResult   int
}

func (e ResultDeclaredEvent) Type() EventType {
	return EventTypeResultDeclared
}

// RoundSettledEvent represents a round reaching full settlement
type RoundSettledEvent struct {
	RoundID      int64
	WonBets      int
	TotalPaidOut int64
}

func (e RoundSettledEvent) Type() EventType {
	return EventTypeRoundSettled
}

// RoundCancelledEvent represents an administrative abort of a round
type RoundCancelledEvent struct {
	RoundID    int64
	VoidedBets int
}

func (e RoundCancelledEvent) Type() EventType {
	return EventTypeRoundCancelled
}

// Handler is a function that handles events
type Handler func(ctx context.Context, event Event)

// Bus manages event subscriptions and dispatching
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
	}
}

// Subscribe adds a handler for a specific event type
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)

	log.WithFields(log.Fields{
		"eventType":    eventType,
		"handlerCount": len(b.handlers[eventType]),
	}).Debug("Subscribed handler to event type")
}

// Emit publishes an event to all registered handlers
func (b *Bus) Emit(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.Type()]))
	copy(handlers, b.handlers[event.Type()])
	b.mu.RUnlock()

	// Call handlers asynchronously to avoid blocking
	for i, handler := range handlers {
		go func(h Handler, handlerIndex int) {
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(log.Fields{
						"eventType":    event.Type(),
						"handlerIndex": handlerIndex,
						"panic":        r,
					}).Error("Event handler panicked")
				}
			}()
			h(ctx, event)
		}(handler, i)
	}
}

// TransactionalBus stashes events raised inside a unit of work and flushes
// them to the underlying bus only after the transaction commits.
type TransactionalBus struct {
	real    *Bus
	pending []Event
}

func NewTransactionalBus(real *Bus) *TransactionalBus {
	return &TransactionalBus{real: real}
}

func (b *TransactionalBus) Publish(e Event) {
	b.pending = append(b.pending, e)
}

// Flush is called after a successful DB commit
func (b *TransactionalBus) Flush(ctx context.Context) error {
	// Events are processed independently of the transaction lifecycle, so a
	// cancelled request context must not suppress them.
	eventCtx := context.Background()

	for _, ev := range b.pending {
		b.real.Emit(eventCtx, ev)
	}
	b.pending = nil
	return nil
}

// Discard drops pending events after a rollback
func (b *TransactionalBus) Discard() {
	b.pending = nil
}
