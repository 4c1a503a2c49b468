// Package pipeline orchestrates the ingestion of one uploaded grade
// file: load, resolve columns, compute statistics, match the roster,
// render charts, persist grade records and dispatch notifications.
package pipeline

import (
	"context"
	"errors"
	"log/slog"

	"gradepulse/internal/dataprocessing"
	"gradepulse/internal/infrastructure"
	"gradepulse/internal/match"
	"gradepulse/internal/metrics"
	"gradepulse/internal/notify"
	"gradepulse/internal/store"
	"gradepulse/pkg/contracts/domain"
)

// ChartRenderer produces a distribution chart for one student and
// returns the written file path.
type ChartRenderer interface {
	Render(grades []float64, target float64, studentID, subject string) (string, error)
}

// Notifier delivers one rendered notification message
type Notifier interface {
	Dispatch(ctx context.Context, msg domain.NotificationMessage) (notify.DeliveryState, error)
}

// Processor runs the ingestion pipeline for uploaded grade files.
// Chart rendering, persistence and notification are independent
// best-effort side effects per student: a failure in any of them is
// logged and never blocks the remaining students in the batch.
type Processor struct {
	loader   *dataprocessing.Loader
	resolver dataprocessing.ColumnResolver
	stats    *dataprocessing.StatsEngine
	matcher  *match.Engine
	renderer ChartRenderer
	store    store.Store
	notifier Notifier
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// NewProcessor wires the pipeline stages together
func NewProcessor(
	loader *dataprocessing.Loader,
	resolver dataprocessing.ColumnResolver,
	stats *dataprocessing.StatsEngine,
	renderer ChartRenderer,
	st store.Store,
	notifier Notifier,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		loader:   loader,
		resolver: resolver,
		stats:    stats,
		matcher:  match.NewEngine(),
		renderer: renderer,
		store:    st,
		notifier: notifier,
		metrics:  m,
		logger:   logger.With(slog.String("component", "pipeline")),
	}
}

// ProcessFile ingests one uploaded grade file. sourceRef identifies the
// originating channel or batch and becomes the GradeRecord source key.
//
// Unsupported formats and unresolvable columns abort the file with a
// typed error; an empty cleaned set is a legitimate nothing-to-report
// outcome and returns nil. Processing is at-most-once per file: there
// is no resume after cancellation or crash.
func (p *Processor) ProcessFile(ctx context.Context, filePath, sourceRef string) error {
	ctx = infrastructure.EnsureTraceID(ctx)
	logger := p.logger.With(
		slog.String("file", filePath),
		slog.String("source", sourceRef))

	logger.InfoContext(ctx, "starting grade file analysis")

	report, err := p.loader.Load(filePath)
	if err != nil {
		p.metrics.FilesProcessed.WithLabelValues("rejected").Inc()
		logger.ErrorContext(ctx, "failed to load file", slog.String("error", err.Error()))
		return err
	}

	cols, err := p.resolver.Resolve(report.Headers)
	if err != nil {
		p.metrics.FilesProcessed.WithLabelValues("rejected").Inc()
		logger.ErrorContext(ctx, "failed to resolve columns",
			slog.Any("headers", report.Headers),
			slog.String("error", err.Error()))
		return err
	}

	rows, stats, err := p.stats.Compute(report, cols)
	if err != nil {
		var emptyErr *dataprocessing.EmptyDatasetError
		if errors.As(err, &emptyErr) {
			// Expected outcome: no stats, no charts, no notifications.
			p.metrics.FilesProcessed.WithLabelValues("empty").Inc()
			logger.InfoContext(ctx, "no valid grades in file")
			return nil
		}
		p.metrics.FilesProcessed.WithLabelValues("rejected").Inc()
		return err
	}
	p.metrics.RowsCleaned.Add(float64(len(rows)))

	roster, err := p.store.ListUsers(ctx)
	if err != nil {
		// Degrade to empty results rather than crash the listener.
		p.metrics.FilesProcessed.WithLabelValues("error").Inc()
		logger.ErrorContext(ctx, "failed to load roster", slog.String("error", err.Error()))
		return nil
	}
	if len(roster) == 0 {
		p.metrics.FilesProcessed.WithLabelValues("processed").Inc()
		logger.InfoContext(ctx, "no registered students, skipping notifications")
		return nil
	}

	pairs := p.matcher.Match(roster, rows)
	logger.InfoContext(ctx, "matched students against roster",
		slog.Int("roster_size", len(roster)),
		slog.Int("cleaned_rows", len(rows)),
		slog.Int("matches", len(pairs)))

	template := p.resultTemplate(ctx)
	grades := make([]float64, len(rows))
	for i, row := range rows {
		grades[i] = row.Grade
	}

	for _, pair := range pairs {
		select {
		case <-ctx.Done():
			logger.WarnContext(ctx, "processing cancelled mid-batch",
				slog.String("student_id", pair.Student.StudentID))
			return ctx.Err()
		default:
		}
		p.processStudent(ctx, logger, pair, report.Subject, sourceRef, grades, stats, template)
	}

	p.metrics.FilesProcessed.WithLabelValues("processed").Inc()
	logger.InfoContext(ctx, "file processing complete", slog.Int("notified_candidates", len(pairs)))
	return nil
}

// processStudent runs the chart, persist and notify side effects for
// one matched student. Failures are isolated to the student.
func (p *Processor) processStudent(
	ctx context.Context,
	logger *slog.Logger,
	pair match.Pair,
	subject, sourceRef string,
	grades []float64,
	stats domain.ClassStatistics,
	template string,
) {
	studentLogger := logger.With(slog.String("student_id", pair.Student.StudentID))
	studentLogger.InfoContext(ctx, "match found",
		slog.Float64("grade", pair.Row.Grade),
		slog.Int("rank", pair.Row.Rank),
		slog.Float64("percentile", pair.Row.Percentile),
		slog.Float64("class_mean", stats.Mean))

	chartPath, err := p.renderer.Render(grades, pair.Row.Grade, pair.Student.StudentID, subject)
	if err != nil {
		// Degrade to a text-only notification.
		p.metrics.ChartsRendered.WithLabelValues("error").Inc()
		studentLogger.WarnContext(ctx, "chart rendering failed, sending text only",
			slog.String("error", err.Error()))
		chartPath = ""
	} else {
		p.metrics.ChartsRendered.WithLabelValues("ok").Inc()
	}

	if err := p.store.InsertGradeRecord(ctx, domain.GradeRecord{
		StudentID:  pair.Student.StudentID,
		Subject:    subject,
		Grade:      pair.Row.Grade,
		Rank:       pair.Row.Rank,
		Percentile: pair.Row.Percentile,
		Source:     sourceRef,
	}); err != nil {
		// Persistence and notification are independent side effects.
		studentLogger.ErrorContext(ctx, "failed to persist grade record",
			slog.String("error", err.Error()))
	} else {
		p.metrics.GradesPersisted.Inc()
	}

	text, err := notify.RenderTemplate(template, notify.MessageVars(subject, pair.Row))
	if err != nil {
		studentLogger.ErrorContext(ctx, "message template is misconfigured",
			slog.String("error", err.Error()))
		return
	}

	state, err := p.notifier.Dispatch(ctx, domain.NotificationMessage{
		ChatID:         pair.Student.ChatID,
		Text:           text,
		AttachmentPath: chartPath,
	})
	p.metrics.Notifications.WithLabelValues(string(state)).Inc()
	if err != nil {
		studentLogger.ErrorContext(ctx, "notification delivery failed",
			slog.String("state", string(state)),
			slog.String("error", err.Error()))
	}
}

// resultTemplate loads the configured message template, falling back to
// the default when unset or when the store is unreachable.
func (p *Processor) resultTemplate(ctx context.Context) string {
	template, err := p.store.GetSetting(ctx, store.SettingResultTemplate)
	if err != nil {
		p.logger.WarnContext(ctx, "failed to load message template, using default",
			slog.String("error", err.Error()))
		return notify.DefaultResultTemplate
	}
	if template == "" {
		return notify.DefaultResultTemplate
	}
	return template
}
