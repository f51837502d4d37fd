// Package triggers implements C7: the thin adapters between the outside
// world (process lifecycle, the source's change-notification channel, and a
// system job scheduler) and the engine's entry points. It holds no sync
// logic of its own.
package triggers

import (
	"context"
	"log/slog"
	"time"

	"github.com/cpindexer/cpindexer/internal/engine"
	"github.com/cpindexer/cpindexer/internal/settings"
)

// DefaultFullUpdateInterval is the spec §4.7 default of 30 days.
const DefaultFullUpdateInterval = 30 * 24 * time.Hour

// Triggers wires lifecycle edges for a single user context's engine.
type Triggers struct {
	eng           *engine.Engine
	settingsStore *settings.Store
	interval      time.Duration
	logger        *slog.Logger

	cancelMaintenance context.CancelFunc
}

// New builds a Triggers for eng. interval is the full-update re-run cadence;
// zero uses DefaultFullUpdateInterval.
func New(eng *engine.Engine, settingsStore *settings.Store, interval time.Duration, logger *slog.Logger) *Triggers {
	if interval <= 0 {
		interval = DefaultFullUpdateInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Triggers{eng: eng, settingsStore: settingsStore, interval: interval, logger: logger}
}

// Start is the lifecycle-start edge: it starts the engine's worker and, if
// this is the first run ever or the full-update interval has elapsed,
// schedules a full-update maintenance job.
func (t *Triggers) Start(ctx context.Context) {
	t.eng.Start(ctx)

	cur := t.settingsStore.Load()
	now := time.Now().UnixMilli()
	dueForFull := cur.LastFullUpdateMs == 0 || now-cur.LastFullUpdateMs >= t.interval.Milliseconds()
	if !dueForFull {
		return
	}

	maintCtx, cancel := context.WithCancel(ctx)
	t.cancelMaintenance = cancel
	go func() {
		if err := t.eng.RunFullUpdate(maintCtx); err != nil {
			t.logger.Warn("triggers: scheduled full update failed", "error", err)
		}
	}()
}

// Stop is the lifecycle-stop edge: it cancels any scheduled maintenance job
// and shuts the engine down with its default grace period.
func (t *Triggers) Stop() {
	if t.cancelMaintenance != nil {
		t.cancelMaintenance()
	}
	t.eng.Shutdown(0)
}

// OnChange is the change-notification edge: it invokes the engine's
// debounced delta entry point. Safe to call from any goroutine.
func (t *Triggers) OnChange() {
	t.eng.NotifyChange()
}

// RunMaintenance is the maintenance-job edge: it runs the full-update entry
// point with the supplied cancellation context, for use by an external job
// scheduler that wants control over timing rather than the Start-time
// interval check above.
func (t *Triggers) RunMaintenance(ctx context.Context) error {
	return t.eng.RunFullUpdate(ctx)
}
