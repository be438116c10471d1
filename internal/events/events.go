package events

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"checkin-offers-api/internal/logging"
	"checkin-offers-api/internal/models"
)

// EventType represents the type of event.
type EventType string

const (
	// EventOfferUpserted is emitted when a catalog offer is created or updated
	EventOfferUpserted EventType = "offer.upserted"
	// EventOfferDeleted is emitted when a catalog offer is removed
	EventOfferDeleted EventType = "offer.deleted"
	// EventRecommendationServed is emitted after offers are selected for a guest
	EventRecommendationServed EventType = "recommendation.served"
)

// Event represents an event in the system.
type Event struct {
	ID        string
	Type      EventType
	Timestamp time.Time
	Data      interface{}
}

// OfferUpsertedData contains data for offer upserted events.
type OfferUpsertedData struct {
	Offer models.Offer
}

// OfferDeletedData contains data for offer deleted events.
type OfferDeletedData struct {
	OfferID int
}

// RecommendationServedData contains data for recommendation served events.
type RecommendationServedData struct {
	Checkin  string
	AgeGroup string
	Gender   string
	Source   string // "catalog" or "inline"
	Offers   []models.OfferView
	Cached   bool
}

// Handler is a function that handles events.
type Handler func(ctx context.Context, event Event) error

// Manager manages event handlers and event publishing.
type Manager struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
	enabled  bool
	wg       sync.WaitGroup
}

// NewManager creates a new event manager.
func NewManager(enabled bool) *Manager {
	return &Manager{
		handlers: make(map[EventType][]Handler),
		enabled:  enabled,
	}
}

// Subscribe subscribes a handler to a specific event type.
func (m *Manager) Subscribe(eventType EventType, handler Handler) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.enabled {
		return
	}
	m.handlers[eventType] = append(m.handlers[eventType], handler)
}

// Publish publishes an event to all subscribed handlers. Handlers run in
// their own goroutines and must not rely on ctx outliving the request.
func (m *Manager) Publish(ctx context.Context, eventType EventType, data interface{}) {
	m.mu.RLock()
	if !m.enabled || len(m.handlers[eventType]) == 0 {
		m.mu.RUnlock()
		return
	}
	handlers := append([]Handler(nil), m.handlers[eventType]...)
	// Counted under the lock so Shutdown's Wait cannot start between the
	// enabled check and Add.
	m.wg.Add(len(handlers))
	m.mu.RUnlock()

	event := Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}

	// Detach from request cancellation; the response may already be written.
	hctx := context.WithoutCancel(ctx)
	for _, handler := range handlers {
		go func(h Handler) {
			defer m.wg.Done()
			if err := h(hctx, event); err != nil {
				logging.Ctx(ctx).Warn().
					Err(err).
					Str("event_id", event.ID).
					Str("event_type", string(event.Type)).
					Msg("event handler failed")
			}
		}(handler)
	}
}

// PublishOfferUpserted publishes an offer upserted event.
func (m *Manager) PublishOfferUpserted(ctx context.Context, offer models.Offer) {
	m.Publish(ctx, EventOfferUpserted, OfferUpsertedData{Offer: offer})
}

// PublishOfferDeleted publishes an offer deleted event.
func (m *Manager) PublishOfferDeleted(ctx context.Context, offerID int) {
	m.Publish(ctx, EventOfferDeleted, OfferDeletedData{OfferID: offerID})
}

// PublishRecommendationServed publishes a recommendation served event.
func (m *Manager) PublishRecommendationServed(ctx context.Context, data RecommendationServedData) {
	m.Publish(ctx, EventRecommendationServed, data)
}

// AuditLog returns a handler that writes every event to the logger at debug level.
func AuditLog() Handler {
	return func(ctx context.Context, event Event) error {
		logging.Ctx(ctx).Debug().
			Str("event_id", event.ID).
			Str("event_type", string(event.Type)).
			Time("event_time", event.Timestamp).
			Interface("data", event.Data).
			Msg("event")
		return nil
	}
}

// SubscribeAll subscribes handler to every known event type.
func (m *Manager) SubscribeAll(handler Handler) {
	for _, t := range []EventType{EventOfferUpserted, EventOfferDeleted, EventRecommendationServed} {
		m.Subscribe(t, handler)
	}
}

// Wait blocks until every handler started so far has returned.
func (m *Manager) Wait() {
	m.wg.Wait()
}

// Shutdown stops accepting events and waits for running handlers.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	m.enabled = false
	m.handlers = make(map[EventType][]Handler)
	m.mu.Unlock()

	m.wg.Wait()
}
