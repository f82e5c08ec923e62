package watchdog

import (
	"context"
	"log/slog"
	"time"

	"gradewatch/lib/snapshotstore"
	"gradewatch/lib/timezone"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("services/watchdog")

var meter = otel.Meter("services/watchdog")
var cycleCounter, _ = meter.Int64Counter("watchdog.cycles")
var changeCounter, _ = meter.Int64Counter("watchdog.changes_detected")
var fetchFailureCounter, _ = meter.Int64Counter("watchdog.fetch_failures")
var deliveryFailureCounter, _ = meter.Int64Counter("watchdog.delivery_failures")

type Options struct {
	Store    SnapshotStore
	Portal   PortalClient
	Notifier Notifier
	// Interval is the sleep between poll cycles, at least one second.
	Interval time.Duration
	// MyStudentID is the default watch target.
	MyStudentID string
	// DefaultDiscordUserID is pinged for changes on MyStudentID.
	DefaultDiscordUserID string
	// UsersFile maps additional student ids to Discord user ids, it is
	// re-read at the start of every cycle.
	UsersFile string
}

// Service runs the fetch -> diff -> notify -> persist cycle for every
// watch target on a fixed interval.
type Service struct {
	opts Options

	// fallback holds snapshots whose persist failed; they keep later
	// comparisons within this process from re-alerting.
	fallback map[string]snapshotstore.Snapshot

	status *status
}

func NewService(opts Options) *Service {
	return &Service{
		opts:     opts,
		fallback: map[string]snapshotstore.Snapshot{},
		status:   newStatus(),
	}
}

// Run executes the first check immediately and then repeats on the
// configured interval until the context is cancelled.
func (s *Service) Run(ctx context.Context) {
	slog.InfoContext(ctx, "start daemon",
		"task", "watch course results",
		"interval", s.opts.Interval,
	)

	s.RunCycle(ctx)

	ticker := time.NewTicker(s.opts.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.RunCycle(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// RunCycle performs one full pass over all watch targets. Failures of a
// single target never abort the cycle; only the results page fetch is
// shared and its failure skips every target at once.
func (s *Service) RunCycle(ctx context.Context) {
	ctx, span := tracer.Start(ctx, "RunCycle")
	defer span.End()

	cycleCounter.Add(ctx, 1)

	targets := s.loadTargets(ctx)
	span.SetAttributes(attribute.Int("targets", len(targets)))

	results, err := s.opts.Portal.FetchResults(ctx)
	if err != nil {
		fetchFailureCounter.Add(ctx, 1)
		span.RecordError(err)
		span.SetStatus(codes.Error, "results fetch failed")
		slog.ErrorContext(ctx, "failed to fetch results page", "err", err)
		s.status.recordFetchFailure(err)
		return
	}
	s.status.recordFetchSuccess()

	for _, target := range targets {
		s.runTargetCycle(ctx, target, results)
	}
	s.status.recordCycle(timezone.Now())
}

func (s *Service) runTargetCycle(ctx context.Context, target WatchTarget, results map[string]snapshotstore.Snapshot) {
	ctx, span := tracer.Start(ctx, "runTargetCycle")
	defer span.End()
	span.SetAttributes(attribute.String("student", target.StudentID))

	curr, ok := results[target.StudentID]
	if !ok {
		fetchFailureCounter.Add(ctx, 1)
		span.SetStatus(codes.Error, "student missing from results table")
		slog.WarnContext(ctx, "student missing from results table", "student", target.StudentID)
		s.status.recordTarget(target.StudentID, "missing from results table")
		return
	}

	prev := s.previousSnapshot(ctx, target.StudentID)
	events := Diff(prev, curr, timezone.Now())
	span.SetAttributes(attribute.Int("changes", len(events)))

	if len(events) == 0 {
		// nothing changed, leave the stored snapshot untouched so an
		// unchanged store never produces a duplicate alert
		s.status.recordTarget(target.StudentID, "no change")
		return
	}
	changeCounter.Add(ctx, int64(len(events)))

	for _, event := range events {
		slog.InfoContext(ctx, "change detected",
			"student", event.StudentID,
			"field", event.Field,
			"previous", event.Previous,
			"new", event.New,
		)
		err := s.opts.Notifier.Notify(ctx, event, target)
		if err != nil {
			// at-most-once-per-change: log and move on, the event is
			// not re-sent until the field changes again
			deliveryFailureCounter.Add(ctx, 1)
			span.RecordError(err)
			slog.WarnContext(ctx, "failed to deliver notification",
				"student", event.StudentID,
				"field", event.Field,
				"err", err,
			)
		}
	}

	// persist after the notification attempts; a crash before this point
	// re-detects the same change on restart
	err := s.opts.Store.Save(ctx, curr)
	if err != nil {
		span.RecordError(err)
		slog.WarnContext(ctx, "failed to persist snapshot",
			"student", target.StudentID,
			"err", err,
		)
		s.fallback[target.StudentID] = curr
		s.status.recordTarget(target.StudentID, "change notified, persist failed")
		return
	}
	delete(s.fallback, target.StudentID)
	s.status.recordTarget(target.StudentID, "change notified")
}

// previousSnapshot prefers the in-memory fallback of a failed persist
// over the store; a load failure counts as "never seen".
func (s *Service) previousSnapshot(ctx context.Context, studentID string) *snapshotstore.Snapshot {
	if snapshot, ok := s.fallback[studentID]; ok {
		return &snapshot
	}

	snapshot, ok, err := s.opts.Store.Load(ctx, studentID)
	if err != nil {
		slog.WarnContext(ctx, "failed to load stored snapshot, treating as first observation",
			"student", studentID,
			"err", err,
		)
		return nil
	}
	if !ok {
		return nil
	}
	return &snapshot
}
