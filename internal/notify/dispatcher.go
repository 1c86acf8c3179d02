package notify

import (
	"context"
	"time"

	"github.com/nhle/gamewatch/internal/model"
	"github.com/nhle/gamewatch/internal/transport"
)

// Dispatcher delivers matches to every subscriber of the matched entity
// that has not received them yet.
type Dispatcher struct {
	ledger      *Ledger
	sender      transport.Sender
	sendTimeout time.Duration
	loc         *time.Location
	metrics     *Metrics
}

// NewDispatcher creates a Dispatcher. Messages are rendered in loc.
func NewDispatcher(
	ledger *Ledger,
	sender transport.Sender,
	sendTimeout time.Duration,
	loc *time.Location,
	metrics *Metrics,
) *Dispatcher {
	if loc == nil {
		loc = time.UTC
	}
	return &Dispatcher{
		ledger:      ledger,
		sender:      sender,
		sendTimeout: sendTimeout,
		loc:         loc,
		metrics:     metrics,
	}
}

// Dispatch sends each match to its subscribers in ascending id order.
// A tuple is marked sent only after the transport accepted it. Failed
// sends are logged and left unmarked; they never stop the pass.
func (d *Dispatcher) Dispatch(ctx context.Context, pass *Pass, matches []model.Match, snap Snapshot) {
	kind := string(pass.Kind)
	report := pass.Report

	for _, m := range matches {
		text := FormatMessage(m, d.loc)

		for _, subscriber := range snap.Subscribers(m.EntityID) {
			if ctx.Err() != nil {
				pass.logger.Warn("dispatch interrupted", "error", ctx.Err())
				report.Interrupted = true
				return
			}

			key := m.Key(subscriber)
			if d.ledger.HasSent(ctx, key) {
				report.Skipped++
				d.metrics.delivery(kind, outcomeSkipped)
				continue
			}

			report.Attempts++
			err := d.send(ctx, subscriber, text)
			switch {
			case err == nil:
				report.Delivered++
				d.metrics.delivery(kind, outcomeDelivered)
				if !d.ledger.MarkSent(ctx, key) {
					report.LedgerErrors++
				}
				pass.logger.Info("notification delivered", "key", key.String())
			case transport.IsUnreachable(err):
				report.Unreachable++
				d.metrics.delivery(kind, outcomeUnreachable)
				pass.logger.Warn("recipient unreachable", "key", key.String(), "error", err)
			default:
				report.Failed++
				d.metrics.delivery(kind, outcomeFailed)
				pass.logger.Error("delivery failed", "key", key.String(), "error", err)
			}
		}
	}
}

func (d *Dispatcher) send(ctx context.Context, subscriber int64, text string) error {
	sendCtx, cancel := withTimeout(ctx, d.sendTimeout)
	defer cancel()
	return d.sender.Send(sendCtx, subscriber, text)
}
