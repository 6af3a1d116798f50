// Package service orchestrates buyer validation, persistence and history.
//
// Every mutation validates first, then writes the buyer row and its history
// entry in a single store transaction. Committed history entries are handed to
// an optional publisher afterwards; publish failures are logged and counted but
// never fail the request.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"leadbook/internal/buyer/diff"
	"leadbook/internal/buyer/filter"
	"leadbook/internal/buyer/models"
	"leadbook/internal/buyer/validation"
	"leadbook/internal/platform/metrics"
	dErrors "leadbook/pkg/domain-errors"
	"leadbook/pkg/platform/sentinel"
	"leadbook/pkg/requestcontext"
)

const (
	// DefaultHistoryLimit is how many history entries Get returns.
	DefaultHistoryLimit = 5
	// MaxImportRows caps the data rows accepted by one CSV import.
	MaxImportRows = 200
)

// Store persists buyers and their history. RunInTx makes every call issued
// with the callback's context part of one atomic unit.
type Store interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error

	Create(ctx context.Context, b *models.Buyer) error
	FindByID(ctx context.Context, id string) (*models.Buyer, error)
	Update(ctx context.Context, b *models.Buyer, expected time.Time) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, q filter.Query) ([]*models.Buyer, error)
	Count(ctx context.Context, q filter.Query) (int, error)

	Append(ctx context.Context, e *models.HistoryEntry) error
	ListByBuyer(ctx context.Context, buyerID string, limit int) ([]*models.HistoryEntry, error)
	DeleteByBuyer(ctx context.Context, buyerID string) error
}

// OwnerDirectory resolves owner display details for the detail view.
type OwnerDirectory interface {
	FindOwner(ctx context.Context, userID string) (*models.Owner, error)
}

// HistoryPublisher receives history entries after their transaction commits.
type HistoryPublisher interface {
	Publish(ctx context.Context, entry *models.HistoryEntry) error
}

type Service struct {
	store        Store
	owners       OwnerDirectory
	publisher    HistoryPublisher
	logger       *slog.Logger
	metrics      *metrics.Metrics
	tracer       trace.Tracer
	historyLimit int
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithOwnerDirectory(owners OwnerDirectory) Option {
	return func(s *Service) {
		s.owners = owners
	}
}

func WithPublisher(p HistoryPublisher) Option {
	return func(s *Service) {
		s.publisher = p
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = t
	}
}

func WithHistoryLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.historyLimit = n
		}
	}
}

func New(store Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("buyer store is required")
	}
	svc := &Service{
		store:        store,
		logger:       slog.Default(),
		tracer:       otel.Tracer("leadbook/buyer"),
		historyLimit: DefaultHistoryLimit,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Create validates raw and stores a new buyer owned by actor together with a
// created history entry.
func (s *Service) Create(ctx context.Context, actor string, raw map[string]any) (b *models.Buyer, err error) {
	ctx, span := s.tracer.Start(ctx, "buyer.Create")
	defer func() { endSpan(span, err) }()

	if actor == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	b, fe := validation.ValidateCreate(raw)
	if len(fe) > 0 {
		return nil, s.validationError(fe)
	}

	now := timestamp(requestcontext.Now(ctx))
	b.ID = uuid.NewString()
	b.OwnerID = actor
	b.CreatedAt, b.UpdatedAt = now, now

	entry, err := models.NewHistoryEntry(b.ID, actor, models.ActionCreated, nil, now)
	if err != nil {
		return nil, err
	}
	err = s.store.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.store.Create(ctx, b); err != nil {
			return err
		}
		return s.store.Append(ctx, entry)
	})
	if err != nil {
		return nil, s.storeError(ctx, err, "failed to create buyer")
	}

	span.SetAttributes(attribute.String("buyer.id", b.ID))
	s.metrics.IncrementBuyersCreated()
	s.metrics.IncrementHistoryEntries(string(entry.Action))
	s.publish(ctx, entry)
	s.logger.InfoContext(ctx, "buyer created",
		"buyer_id", b.ID,
		"owner_id", actor,
		"request_id", requestcontext.RequestID(ctx),
	)
	return b, nil
}

// Get returns a buyer with its most recent history entries, newest first.
func (s *Service) Get(ctx context.Context, id string) (detail *models.BuyerDetail, err error) {
	ctx, span := s.tracer.Start(ctx, "buyer.Get", trace.WithAttributes(attribute.String("buyer.id", id)))
	defer func() { endSpan(span, err) }()

	b, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, s.storeError(ctx, err, "failed to load buyer")
	}
	history, err := s.store.ListByBuyer(ctx, id, s.historyLimit)
	if err != nil {
		return nil, s.storeError(ctx, err, "failed to load buyer history")
	}
	if history == nil {
		history = []*models.HistoryEntry{}
	}

	detail = &models.BuyerDetail{Buyer: b, History: history}
	if s.owners != nil {
		owner, err := s.owners.FindOwner(ctx, b.OwnerID)
		switch {
		case err == nil:
			detail.Owner = owner
		case errors.Is(err, sentinel.ErrNotFound):
		default:
			s.logger.WarnContext(ctx, "failed to resolve buyer owner",
				"buyer_id", id,
				"owner_id", b.OwnerID,
				"error", err,
			)
		}
	}
	return detail, nil
}

// List returns one page of buyers matching p, ordered by updatedAt.
func (s *Service) List(ctx context.Context, p filter.Params, order filter.Order) (page *models.Page, err error) {
	ctx, span := s.tracer.Start(ctx, "buyer.List")
	defer func() { endSpan(span, err) }()

	start := time.Now()
	q := filter.Build(p, order)

	var (
		buyers []*models.Buyer
		total  int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		buyers, err = s.store.List(gctx, q)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = s.store.Count(gctx, q)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, s.storeError(ctx, err, "failed to list buyers")
	}
	s.metrics.ObserveListLatency(time.Since(start).Seconds())

	if buyers == nil {
		buyers = []*models.Buyer{}
	}
	return &models.Page{Buyers: buyers, Pagination: q.Pagination(total)}, nil
}

// Update applies a partial update from the buyer's owner. The payload must
// carry the updatedAt the caller last saw; a stale value is a conflict.
// A payload that changes nothing still bumps updatedAt but writes no history.
func (s *Service) Update(ctx context.Context, actor, id string, raw map[string]any) (b *models.Buyer, err error) {
	ctx, span := s.tracer.Start(ctx, "buyer.Update", trace.WithAttributes(attribute.String("buyer.id", id)))
	defer func() { endSpan(span, err) }()

	existing, err := s.authorize(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	p, fe := validation.ValidateUpdate(raw)
	if len(fe) > 0 {
		return nil, s.validationError(fe)
	}
	if p.ID != id {
		return nil, dErrors.New(dErrors.CodeBadRequest, "payload id does not match the buyer being updated")
	}
	if !p.UpdatedAt.Equal(existing.UpdatedAt) {
		s.metrics.IncrementUpdateConflicts()
		return nil, dErrors.New(dErrors.CodeConflict, "buyer was modified by someone else; reload and try again")
	}

	merged := existing.Merge(*p)
	if fe := validation.CheckRecord(merged); len(fe) > 0 {
		return nil, s.validationError(fe)
	}
	changes := diff.Compute(*existing, *p)

	now := timestamp(requestcontext.Now(ctx))
	if !now.After(existing.UpdatedAt) {
		now = existing.UpdatedAt.Add(time.Microsecond)
	}
	merged.UpdatedAt = now

	var entry *models.HistoryEntry
	if len(changes) > 0 {
		entry, err = models.NewHistoryEntry(id, actor, models.ActionUpdated, changes, now)
		if err != nil {
			return nil, err
		}
	}

	err = s.store.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.store.Update(ctx, merged, existing.UpdatedAt); err != nil {
			return err
		}
		if entry == nil {
			return nil
		}
		return s.store.Append(ctx, entry)
	})
	if err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			s.metrics.IncrementUpdateConflicts()
		}
		return nil, s.storeError(ctx, err, "failed to update buyer")
	}

	if entry != nil {
		s.metrics.IncrementBuyersUpdated()
		s.metrics.IncrementHistoryEntries(string(entry.Action))
		s.publish(ctx, entry)
	}
	s.logger.InfoContext(ctx, "buyer updated",
		"buyer_id", id,
		"changed_fields", len(changes),
		"request_id", requestcontext.RequestID(ctx),
	)
	return merged, nil
}

// Delete removes a buyer and its history. Only the owner may delete.
func (s *Service) Delete(ctx context.Context, actor, id string) (err error) {
	ctx, span := s.tracer.Start(ctx, "buyer.Delete", trace.WithAttributes(attribute.String("buyer.id", id)))
	defer func() { endSpan(span, err) }()

	if _, err := s.authorize(ctx, actor, id); err != nil {
		return err
	}
	err = s.store.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.store.DeleteByBuyer(ctx, id); err != nil {
			return err
		}
		return s.store.Delete(ctx, id)
	})
	if err != nil {
		return s.storeError(ctx, err, "failed to delete buyer")
	}

	s.metrics.IncrementBuyersDeleted()
	s.logger.InfoContext(ctx, "buyer deleted",
		"buyer_id", id,
		"request_id", requestcontext.RequestID(ctx),
	)
	return nil
}

// authorize loads the buyer and checks actor owns it. Missing buyers are
// reported before ownership.
func (s *Service) authorize(ctx context.Context, actor, id string) (*models.Buyer, error) {
	if actor == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	existing, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, s.storeError(ctx, err, "failed to load buyer")
	}
	if !existing.OwnedBy(actor) {
		return nil, dErrors.New(dErrors.CodeForbidden, "only the owner can modify this buyer")
	}
	return existing, nil
}

func (s *Service) validationError(fe dErrors.FieldErrors) error {
	fields := make([]string, len(fe))
	for i, f := range fe {
		fields[i] = f.Field
	}
	s.metrics.ObserveValidationFailures(fields)
	return dErrors.Validation(fe)
}

// storeError maps store sentinels to domain errors. Anything else is logged
// and reported as internal.
func (s *Service) storeError(ctx context.Context, err error, msg string) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "buyer not found")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.New(dErrors.CodeConflict, "buyer was modified by someone else; reload and try again")
	case errors.Is(err, sentinel.ErrAlreadyUsed):
		return dErrors.Wrap(err, dErrors.CodeConflict, "buyer already exists")
	case errors.Is(err, context.DeadlineExceeded):
		return dErrors.Wrap(err, dErrors.CodeTimeout, "request timed out")
	}
	var de *dErrors.Error
	if errors.As(err, &de) {
		return err
	}
	s.logger.ErrorContext(ctx, msg,
		"error", err,
		"request_id", requestcontext.RequestID(ctx),
	)
	return dErrors.Wrap(err, dErrors.CodeInternal, msg)
}

func (s *Service) publish(ctx context.Context, entry *models.HistoryEntry) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(context.WithoutCancel(ctx), entry); err != nil {
		s.metrics.IncrementHistoryPublishFails()
		s.logger.WarnContext(ctx, "failed to publish history entry",
			"buyer_id", entry.BuyerID,
			"action", entry.Action,
			"error", err,
		)
	}
}

// timestamp normalizes t to the precision every store round-trips.
func timestamp(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
