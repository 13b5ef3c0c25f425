package audit

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	apperrors "entityaudit/internal/errors"
	"entityaudit/internal/logger"
)

const tracerName = "entityaudit/internal/audit"

// Writer persists audit records to the store named by Settings.AuditWith.
type Writer struct {
	settings Settings
	stores   *Stores
	metrics  *Metrics
	tracer   trace.Tracer
}

// WriterOption configures a Writer.
type WriterOption func(*Writer)

// WithMetrics makes the writer maintain m.
func WithMetrics(m *Metrics) WriterOption {
	return func(w *Writer) { w.metrics = m }
}

// WithTracerProvider overrides the global OpenTelemetry tracer provider.
func WithTracerProvider(tp trace.TracerProvider) WriterOption {
	return func(w *Writer) { w.tracer = tp.Tracer(tracerName) }
}

// NewWriter creates a writer. It fails when settings name no store, or a
// store that is not registered in stores.
func NewWriter(settings Settings, stores *Stores, opts ...WriterOption) (*Writer, error) {
	if settings.AuditWith == "" {
		return nil, apperrors.WithMessage(apperrors.ErrAuditStoreRequired,
			"no audit store configured: set AUDIT_WITH to the name of a registered store")
	}
	if stores == nil {
		stores = NewStores()
	}
	if _, err := stores.Resolve(settings.AuditWith); err != nil {
		return nil, err
	}

	w := &Writer{
		settings: settings,
		stores:   stores,
		tracer:   otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Settings returns the configuration the writer was built with.
func (w *Writer) Settings() Settings {
	return w.settings
}

// Store resolves the configured audit store.
func (w *Writer) Store() (Store, error) {
	return w.stores.Resolve(w.settings.AuditWith)
}

// Write persists a single record describing in. Errors are returned to the
// caller; the built-in hooks and the Interceptor log them instead.
func (w *Writer) Write(ctx context.Context, in Input) (*Record, error) {
	ctx, span := w.tracer.Start(ctx, "audit.write", trace.WithAttributes(
		attribute.String("audit.action", in.Action),
		attribute.String("audit.subject_type", in.Subject.SubjectType()),
		attribute.String("audit.subject_id", in.Subject.SubjectID()),
		attribute.Bool("audit.success", in.Err == nil),
	))
	defer span.End()

	store, err := w.Store()
	if err != nil {
		w.metrics.failed(in.Action)
		span.RecordError(err)
		span.SetStatus(codes.Error, "audit store not resolved")
		return nil, err
	}

	rec := Record{
		Action:      in.Action,
		SubjectType: in.Subject.SubjectType(),
		SubjectID:   in.Subject.SubjectID(),
		Actor:       w.settings.ActorFrom(ctx),
		Metadata:    in.Metadata,
		Success:     in.Err == nil,
	}
	if in.Err != nil {
		rec.Error = in.Err.Error()
	}

	created, err := store.Create(ctx, rec)
	if err != nil {
		w.metrics.failed(in.Action)
		span.RecordError(err)
		span.SetStatus(codes.Error, "audit store create failed")
		return nil, fmt.Errorf("writing %s audit record for %s %q: %w",
			in.Action, rec.SubjectType, rec.SubjectID, err)
	}

	w.metrics.written(in.Action, rec.Success)
	return created, nil
}

// record writes in and swallows any failure after logging it, so a broken
// audit store never changes what the audited operation reports. The write is
// detached from ctx cancellation: a cancelled operation is still recorded.
func (w *Writer) record(ctx context.Context, in Input) {
	ctx = context.WithoutCancel(ctx)

	var err error
	func() {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("audit store panicked: %v", r)
				w.metrics.failed(in.Action)
			}
		}()
		_, err = w.Write(ctx, in)
	}()

	if err != nil {
		logger.Get().Errorw("failed to write audit record",
			"error", err,
			"action", in.Action,
			"subject_type", in.Subject.SubjectType(),
			"subject_id", in.Subject.SubjectID(),
			"operation_succeeded", in.Err == nil,
		)
	}
}
