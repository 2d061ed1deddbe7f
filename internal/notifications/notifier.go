// internal/notifications/notifier.go
package notifications

import (
	"context"
	"log"
	"strings"
	"sync"
)

// Channel names accepted by the router.
const (
	ChannelTelegram = "telegram"
	ChannelWhatsApp = "whatsapp"
)

// Notifier is the outbound notification capability. Delivery is
// at-least-once; downstream effects must be idempotent, which is why the
// webhook pipeline only asks for a send after a real status transition.
type Notifier interface {
	Send(ctx context.Context, channel, contact, message string, meta map[string]string) error
}

// Router fans a send out to the sender registered for the channel.
// An unsupported channel is logged and dropped, not an error: losing a
// courtesy notification must never fail the pipeline that triggered it.
type Router struct {
	mu      sync.RWMutex
	senders map[string]Notifier
}

func NewRouter() *Router {
	return &Router{senders: make(map[string]Notifier)}
}

func (r *Router) Register(channel string, sender Notifier) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.senders[strings.ToLower(channel)] = sender
}

func (r *Router) Send(ctx context.Context, channel, contact, message string, meta map[string]string) error {
	r.mu.RLock()
	sender, ok := r.senders[strings.ToLower(channel)]
	r.mu.RUnlock()
	if !ok {
		log.Printf("[WARN] notifications: unsupported channel %q, dropping message", channel)
		return nil
	}
	return sender.Send(ctx, channel, contact, message, meta)
}
