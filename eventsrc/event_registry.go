package eventsrc

import (
	"fmt"
	"sync"
)

// EventFactory returns a fresh, zero-valued event for unmarshaling.
type EventFactory func() Event

var (
	registryMu sync.RWMutex
	registry   = make(map[string]EventFactory)
)

// RegisterEvent binds an event-type tag to its factory. Domain packages
// call it from init; a second registration of the same tag panics because
// it means two event structs claim one wire name.
func RegisterEvent(eventType string, factory EventFactory) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := registry[eventType]; exists {
		panic(fmt.Sprintf("event type %q registered twice", eventType))
	}
	registry[eventType] = factory
}

// CreateEvent instantiates the registered event for a type tag.
func CreateEvent(eventType string) (Event, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	factory, ok := registry[eventType]
	if !ok {
		return nil, fmt.Errorf("event type %q is not registered", eventType)
	}
	return factory(), nil
}
