// Package alert tells the operator how scheduled passes went.
package alert

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/nicholas-fedor/shoutrrr"
	"github.com/nicholas-fedor/shoutrrr/pkg/types"

	"github.com/nhle/gamewatch/internal/notify"
)

// Config configures a Reporter.
type Config struct {
	// URLs are shoutrrr service URLs, e.g. "telegram://token@telegram?chats=1".
	URLs    []string
	Timeout time.Duration
	// OnFailureOnly suppresses summaries of healthy passes.
	OnFailureOnly bool
}

// Reporter posts pass summaries to the configured services.
type Reporter struct {
	send          func(message string, params *types.Params) []error
	onFailureOnly bool
}

// NewReporter builds a Reporter. It returns nil when no URLs are
// configured; a nil Reporter ignores every report.
func NewReporter(cfg Config) (*Reporter, error) {
	if len(cfg.URLs) == 0 {
		return nil, nil
	}

	sender, err := shoutrrr.CreateSender(cfg.URLs...)
	if err != nil {
		return nil, fmt.Errorf("creating alert sender: %w", sanitize(err, cfg.URLs))
	}
	if cfg.Timeout > 0 {
		sender.Timeout = cfg.Timeout
	}
	sender.SetLogger(log.New(io.Discard, "", 0))

	return &Reporter{
		send:          sender.Send,
		onFailureOnly: cfg.OnFailureOnly,
	}, nil
}

// Report posts a summary of r. Healthy passes are skipped when the
// reporter only alerts on failure.
func (a *Reporter) Report(ctx context.Context, r notify.PassReport) error {
	if a == nil {
		return nil
	}
	if a.onFailureOnly && r.Healthy() {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	params := types.Params{}
	params.SetTitle(Title(r))

	var errs []error
	for _, err := range a.send(Summary(r), &params) {
		if err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("sending pass alert: %w", errors.Join(errs...))
	}
	return nil
}

// Title is the one-line headline for r.
func Title(r notify.PassReport) string {
	status := "ok"
	if !r.Healthy() {
		status = "degraded"
	}
	return fmt.Sprintf("gamewatch %s pass %s", r.Kind, status)
}

// Summary renders r as plain text.
func Summary(r notify.PassReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "pass %s (%s)\n", r.PassID, r.Kind)
	fmt.Fprintf(&b, "window %s\n", r.Window)
	fmt.Fprintf(&b, "took %s\n", r.Duration.Round(time.Millisecond))
	fmt.Fprintf(&b, "entities=%d matches=%d attempts=%d delivered=%d skipped=%d\n",
		r.Entities, r.Matches, r.Attempts, r.Delivered, r.Skipped)
	fmt.Fprintf(&b, "unreachable=%d failed=%d ledger_errors=%d dropped_rows=%d entity_errors=%d",
		r.Unreachable, r.Failed, r.LedgerErrors, r.DroppedRows, r.EntityErrors)

	var problems []string
	if r.ResolveFailed {
		problems = append(problems, "follow table unreadable")
	}
	if r.FeedFailed {
		problems = append(problems, "schedule pull failed")
	}
	if r.Interrupted {
		problems = append(problems, "interrupted")
	}
	if len(problems) > 0 {
		fmt.Fprintf(&b, "\nproblems: %s", strings.Join(problems, ", "))
	}
	return b.String()
}

// sanitize strips service URLs, which may carry tokens, from err.
func sanitize(err error, urls []string) error {
	msg := err.Error()
	for _, u := range urls {
		if u != "" {
			msg = strings.ReplaceAll(msg, u, "<redacted>")
		}
	}
	if msg == err.Error() {
		return err
	}
	return errors.New(msg)
}
