package otel

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/nexopanel/tenantcore/internal/domain"
)

const tracerName = "github.com/nexopanel/tenantcore/internal/adapter/otel"

// TracingRepository wraps a domain.TenantRepository with OpenTelemetry tracing.
// Each method creates a span with semantic attributes and records errors.
type TracingRepository struct {
	next   domain.TenantRepository
	tracer trace.Tracer
}

// Compile-time check: TracingRepository implements domain.TenantRepository.
var _ domain.TenantRepository = (*TracingRepository)(nil)

// NewTracingRepository creates a tracing decorator around the given repository.
func NewTracingRepository(next domain.TenantRepository) *TracingRepository {
	return &TracingRepository{
		next:   next,
		tracer: otel.Tracer(tracerName),
	}
}

func (r *TracingRepository) Create(ctx context.Context, tenant domain.Tenant) error {
	ctx, span := r.tracer.Start(ctx, "TenantRepository.Create",
		trace.WithAttributes(
			attribute.String("tenant.id", tenant.ID),
			attribute.String("tenant.domain", tenant.Domain),
			attribute.String("tenant.db_name", tenant.DBName),
		),
	)
	defer span.End()

	err := r.next.Create(ctx, tenant)
	recordError(span, err)
	return err
}

func (r *TracingRepository) GetByID(ctx context.Context, id string) (domain.Tenant, error) {
	ctx, span := r.tracer.Start(ctx, "TenantRepository.GetByID",
		trace.WithAttributes(attribute.String("tenant.id", id)),
	)
	defer span.End()

	tenant, err := r.next.GetByID(ctx, id)
	recordError(span, err)
	return tenant, err
}

func (r *TracingRepository) GetByDomain(ctx context.Context, domainName string) (domain.Tenant, error) {
	ctx, span := r.tracer.Start(ctx, "TenantRepository.GetByDomain",
		trace.WithAttributes(attribute.String("tenant.domain", domainName)),
	)
	defer span.End()

	tenant, err := r.next.GetByDomain(ctx, domainName)
	recordError(span, err)
	return tenant, err
}

func (r *TracingRepository) List(ctx context.Context, filter domain.ListFilter) ([]domain.Tenant, error) {
	ctx, span := r.tracer.Start(ctx, "TenantRepository.List",
		trace.WithAttributes(
			attribute.Int("filter.limit", filter.Limit),
			attribute.Int("filter.offset", filter.Offset),
		),
	)
	defer span.End()

	if filter.Status != nil {
		span.SetAttributes(attribute.String("filter.status", string(*filter.Status)))
	}

	tenants, err := r.next.List(ctx, filter)
	recordError(span, err)
	if err == nil {
		span.SetAttributes(attribute.Int("result.count", len(tenants)))
	}
	return tenants, err
}

func (r *TracingRepository) UpdateStatus(ctx context.Context, tenant domain.Tenant, from domain.Status) error {
	ctx, span := r.tracer.Start(ctx, "TenantRepository.UpdateStatus",
		trace.WithAttributes(
			attribute.String("tenant.id", tenant.ID),
			attribute.String("tenant.status", string(tenant.Status)),
			attribute.String("tenant.status_from", string(from)),
		),
	)
	defer span.End()

	err := r.next.UpdateStatus(ctx, tenant, from)
	recordError(span, err)
	return err
}

func (r *TracingRepository) ListExpired(ctx context.Context, cutoff time.Time) ([]domain.Tenant, error) {
	ctx, span := r.tracer.Start(ctx, "TenantRepository.ListExpired",
		trace.WithAttributes(attribute.String("purge.cutoff", cutoff.UTC().Format(time.RFC3339))),
	)
	defer span.End()

	tenants, err := r.next.ListExpired(ctx, cutoff)
	recordError(span, err)
	if err == nil {
		span.SetAttributes(attribute.Int("result.count", len(tenants)))
	}
	return tenants, err
}

func (r *TracingRepository) DeleteExpired(ctx context.Context, id string, cutoff time.Time) (bool, error) {
	ctx, span := r.tracer.Start(ctx, "TenantRepository.DeleteExpired",
		trace.WithAttributes(
			attribute.String("tenant.id", id),
			attribute.String("purge.cutoff", cutoff.UTC().Format(time.RFC3339)),
		),
	)
	defer span.End()

	deleted, err := r.next.DeleteExpired(ctx, id, cutoff)
	recordError(span, err)
	span.SetAttributes(attribute.Bool("result.deleted", deleted))
	return deleted, err
}

func (r *TracingRepository) DeleteCanceled(ctx context.Context, id string) (bool, error) {
	ctx, span := r.tracer.Start(ctx, "TenantRepository.DeleteCanceled",
		trace.WithAttributes(attribute.String("tenant.id", id)),
	)
	defer span.End()

	deleted, err := r.next.DeleteCanceled(ctx, id)
	recordError(span, err)
	span.SetAttributes(attribute.Bool("result.deleted", deleted))
	return deleted, err
}

func (r *TracingRepository) Delete(ctx context.Context, id string) error {
	ctx, span := r.tracer.Start(ctx, "TenantRepository.Delete",
		trace.WithAttributes(attribute.String("tenant.id", id)),
	)
	defer span.End()

	err := r.next.Delete(ctx, id)
	recordError(span, err)
	return err
}

func recordError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}
