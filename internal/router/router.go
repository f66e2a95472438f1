// Package router routes decoded inbound messages to the handler registered
// for their kind.
package router

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/SteamyCutie/layerzero-concept/pkg/message"
	"github.com/ethereum/go-ethereum/common"
	log "github.com/sirupsen/logrus"
)

// ErrNoHandler is returned when no handler is registered for a message kind.
var ErrNoHandler = errors.New("no handler found for message kind")

// Source identifies the remote participant a message came from.
type Source struct {
	Chain   message.ChainID
	Address common.Address
}

// MessageHandler handles an authorized inbound message.
type MessageHandler func(ctx context.Context, src Source, msg message.Message) error

// Router routes inbound messages to their registered handlers based on message kind.
type Router struct {
	handlers sync.Map // message.Kind -> MessageHandler
}

// NewRouter creates a new Router.
func NewRouter() *Router {
	return &Router{
		handlers: sync.Map{},
	}
}

// OnMessage registers a handler for a message kind, replacing any previous one.
//
// Example:
//
//	router.OnMessage(message.KindCounterRequest, func(ctx context.Context, src router.Source, msg message.Message) error {
//		fmt.Println("counter requested by chain", src.Chain)
//		return nil
//	})
func (r *Router) OnMessage(kind message.Kind, handler MessageHandler) {
	r.handlers.Store(kind, handler)
}

// HandleMessage dispatches msg to the handler registered for its kind.
func (r *Router) HandleMessage(ctx context.Context, src Source, msg message.Message) error {
	if msg == nil {
		return errors.New("nil message")
	}
	kind := msg.Kind()
	if !message.IsValidKind(kind) {
		return fmt.Errorf("invalid message kind: %s", kind)
	}
	handler, ok := r.handlers.Load(kind)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoHandler, kind)
	}
	return handler.(MessageHandler)(ctx, src, msg)
}

// Routes returns the registered kinds in ascending order.
func (r *Router) Routes() []message.Kind {
	var kinds []message.Kind
	r.handlers.Range(func(key, _ any) bool {
		kinds = append(kinds, key.(message.Kind))
		return true
	})
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// ListRoutes logs all registered routes at debug level.
func (r *Router) ListRoutes() {
	for _, kind := range r.Routes() {
		log.WithField("caller", "router").Debugf("Message kind: %s", kind)
	}
}
