package events

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/rolegate/internal/application/verify"
	"github.com/rolegate/internal/domain"
)

// Dispatcher fans inbound gateway events into the verification service. Each
// event runs on its own goroutine so a slow handler for one user never blocks
// delivery for unrelated users; the registry serializes state access itself.
type Dispatcher struct {
	svc *verify.Service
	wg  sync.WaitGroup
}

func NewDispatcher(svc *verify.Service) *Dispatcher {
	return &Dispatcher{svc: svc}
}

// Submit handles ev asynchronously. ack, when non-nil, receives the
// acknowledgment text the platform should surface to the invoker.
func (d *Dispatcher) Submit(ctx context.Context, ev domain.Event, ack func(string)) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		text, err := d.handle(ctx, ev)
		if err != nil {
			slog.Warn("event handling failed", "event", fmt.Sprintf("%T", ev), "err", err)
		}
		if ack != nil && text != "" {
			ack(text)
		}
	}()
}

func (d *Dispatcher) handle(ctx context.Context, ev domain.Event) (string, error) {
	switch ev := ev.(type) {
	case domain.AdminSetup:
		return d.svc.HandleAdminSetup(ctx, ev)
	case domain.VerifyPressed:
		return d.svc.HandleVerifyPressed(ctx, ev)
	case domain.DirectMessage:
		return "", d.svc.HandleDirectMessage(ctx, ev)
	case domain.MemberJoined:
		return "", d.svc.HandleMemberJoined(ctx, ev)
	default:
		return "", fmt.Errorf("unhandled event %T: %w", ev, domain.ErrBadRequest)
	}
}

// Wait blocks until every in-flight handler, including its synchronous
// persistence write, has finished. Called during shutdown.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
