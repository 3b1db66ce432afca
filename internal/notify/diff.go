package notify

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/John-Robertt/subagg-go/internal/snapshot"
)

const DefaultTitle = "subagg"

type Options struct {
	Title  string
	Logger *slog.Logger
}

// Report summarizes one DiffNotifier pass.
type Report struct {
	Ran      bool // a latest snapshot existed and the pass completed
	Changed  bool
	Total    int
	Delta    int
	Notified bool // the sender accepted the message
}

// DiffNotifier compares the latest snapshot against the previous one, rotates
// latest into previous and announces changes.
type DiffNotifier struct {
	snaps  *snapshot.Store
	sender Sender
	title  string
	log    *slog.Logger
}

func NewDiffNotifier(snaps *snapshot.Store, sender Sender, opt Options) *DiffNotifier {
	if opt.Title == "" {
		opt.Title = DefaultTitle
	}
	log := opt.Logger
	if log == nil {
		log = slog.Default()
	}
	if sender == nil {
		sender = LogSender{Logger: log}
	}
	return &DiffNotifier{snaps: snaps, sender: sender, title: opt.Title, log: log}
}

// Run performs one pass. Store and delivery failures are logged, never
// returned. Two overlapping runs may both notify.
func (d *DiffNotifier) Run(ctx context.Context) Report {
	latest, ok, err := d.snaps.Latest(ctx)
	if err != nil {
		d.log.Warn("diff skipped: latest snapshot unavailable", "error", err)
		return Report{}
	}
	if !ok {
		d.log.Info("diff skipped: no latest snapshot")
		return Report{}
	}
	prev, hasPrev, err := d.snaps.Previous(ctx)
	if err != nil {
		d.log.Warn("diff skipped: previous snapshot unavailable", "error", err)
		return Report{}
	}

	rep := Report{
		Ran:     true,
		Changed: !hasPrev || !slices.Equal(prev.Nodes, latest.Nodes),
		Total:   len(latest.Nodes),
	}
	rep.Delta = rep.Total
	if hasPrev {
		rep.Delta = rep.Total - len(prev.Nodes)
	}

	if err := d.snaps.Rotate(ctx, latest); err != nil {
		d.log.Warn("snapshot rotation failed", "error", err)
	}

	if !rep.Changed {
		d.log.Debug("node set unchanged", "total", rep.Total)
		return rep
	}
	msg := Message(d.title, rep.Total, rep.Delta, latest.Time())
	if err := d.sender.Send(ctx, msg); err != nil {
		d.log.Warn("notification delivery failed", "error", err)
		return rep
	}
	rep.Notified = true
	d.log.Info("node update notified", "total", rep.Total, "delta", rep.Delta)
	return rep
}

// Message formats the change notification text.
func Message(title string, total, delta int, at time.Time) string {
	sign := "+"
	if delta < 0 {
		sign = "-"
		delta = -delta
	}
	return fmt.Sprintf("【%s】订阅节点更新\n总节点: %d\n变动: %s%d\n时间: %s",
		title, total, sign, delta, at.UTC().Format(time.RFC3339))
}

