package station

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sort"

	"github.com/louisbranch/galley/internal/domain/event"
)

var (
	// ErrFoldAssertRequired indicates a missing state assertion callback.
	ErrFoldAssertRequired = errors.New("fold assert callback is required")
	// ErrFoldHandlerRequired indicates a missing fold handler.
	ErrFoldHandlerRequired = errors.New("fold handler is required")
	// ErrFoldHandlerUnknownType indicates an event type the router was not
	// built to handle.
	ErrFoldHandlerUnknownType = errors.New("fold handler does not handle event type")
)

// FoldRouter dispatches station events to per-type fold handlers over a
// concrete state type S. Unlike a core fold, a router errors on event types
// it does not handle: station events are routed by envelope metadata, so an
// unhandled type means a registration bug rather than another slice's event.
type FoldRouter[S any] struct {
	assert   func(state any) (S, error)
	handlers map[event.Type]func(state S, evt event.Event) (S, error)
	types    []event.Type
}

// NewFoldRouter builds a router. The assert callback converts the opaque
// station state into S (a type assertion in practice).
func NewFoldRouter[S any](assert func(state any) (S, error)) *FoldRouter[S] {
	return &FoldRouter[S]{
		assert:   assert,
		handlers: make(map[event.Type]func(state S, evt event.Event) (S, error)),
	}
}

// Handle registers a fold handler for an event type.
func (r *FoldRouter[S]) Handle(eventType event.Type, handler func(state S, evt event.Event) (S, error)) *FoldRouter[S] {
	if r == nil {
		return nil
	}
	if r.handlers == nil {
		r.handlers = make(map[event.Type]func(state S, evt event.Event) (S, error))
	}
	if !slices.Contains(r.types, eventType) {
		r.types = append(r.types, eventType)
	}
	r.handlers[eventType] = handler
	return r
}

// Fold implements Folder.
func (r *FoldRouter[S]) Fold(state any, evt event.Event) (any, error) {
	if r == nil || r.assert == nil {
		return nil, ErrFoldAssertRequired
	}
	typed, err := r.assert(state)
	if err != nil {
		return nil, err
	}
	handler, ok := r.handlers[evt.Type]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrFoldHandlerUnknownType, evt.Type)
	}
	if handler == nil {
		return nil, ErrFoldHandlerRequired
	}
	next, err := handler(typed, evt)
	if err != nil {
		return nil, err
	}
	return next, nil
}

// FoldHandledTypes implements Folder.
func (r *FoldRouter[S]) FoldHandledTypes() []event.Type {
	if r == nil {
		return nil
	}
	types := make([]event.Type, len(r.types))
	copy(types, r.types)
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

// HandleFold wraps a payload-typed fold function so it can be registered on a
// router: the event payload is unmarshalled into P before the fold runs.
func HandleFold[S any, P any](fold func(state S, evt event.Event, payload P) (S, error)) func(state S, evt event.Event) (S, error) {
	return func(state S, evt event.Event) (S, error) {
		var payload P
		if len(evt.PayloadJSON) > 0 {
			if err := json.Unmarshal(evt.PayloadJSON, &payload); err != nil {
				var zero S
				return zero, fmt.Errorf("unmarshal %s payload: %w", evt.Type, err)
			}
		}
		return fold(state, evt, payload)
	}
}
