package controller

import (
	"context"
	"fmt"
	"time"

	"github.com/glyphlang/rdb/pkg/livewatch"
	"github.com/glyphlang/rdb/pkg/metrics"
	"github.com/glyphlang/rdb/pkg/sessionlog"
)

// Observability bundles the domain-stack components a REPL optionally
// reports through as it drives a session. Every field is optional —
// a zero-value Observability makes every hook a no-op, so tests and
// the simplest CLI invocation never have to construct one.
type Observability struct {
	SessionID string
	Metrics   *metrics.Metrics
	Log       *sessionlog.Log
	Dashboard *livewatch.Dashboard
}

func (o Observability) recordBreak(ctx context.Context, path string, line int) {
	if o.Metrics != nil {
		o.Metrics.RecordBreak()
	}
	if o.Log != nil {
		_ = o.Log.RecordBreak(ctx, o.SessionID, path, line, time.Now())
	}
	if o.Dashboard != nil {
		_ = o.Dashboard.Broadcast(o.SessionID, livewatch.Snapshot{Kind: "break", Path: path, Line: line})
	}
}

func (o Observability) recordCommand(ctx context.Context, cmd Command, reply Reply) {
	if o.Metrics != nil {
		o.Metrics.RecordCommand(cmd.Kind.String())
		if cmd.Kind.Resuming() {
			o.Metrics.RecordStep(cmd.Kind.String())
		}
		if cmd.Kind == Watch {
			o.Metrics.RecordWatch()
		}
	}
	if o.Log != nil {
		_ = o.Log.RecordCommand(ctx, o.SessionID, cmd.Wire, replyHead(reply), time.Now())
	}
	if o.Dashboard != nil && cmd.Kind == PrintStack && reply.Err == "" {
		_ = o.Dashboard.Broadcast(o.SessionID, livewatch.Snapshot{Kind: "stack", Stack: reply.Stack})
	}
}

func (o Observability) recordDetach() {
	if o.Metrics != nil {
		o.Metrics.RecordDetach()
	}
}

func replyHead(r Reply) string {
	if r.Err != "" {
		return "ER " + r.Err
	}
	if len(r.Named) > 0 {
		return fmt.Sprintf("%s = %s", r.Named[0].Name, r.Named[0].Value.Number)
	}
	return "OK"
}
