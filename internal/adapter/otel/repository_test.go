package otel_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	adapter "github.com/nexopanel/tenantcore/internal/adapter/otel"
	"github.com/nexopanel/tenantcore/internal/domain"
)

// --- Test tracer setup ---

func setupTestTracer(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return exporter
}

// --- Mock repository ---

type mockRepo struct {
	tenants map[string]domain.Tenant
	domains map[string]string
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		tenants: make(map[string]domain.Tenant),
		domains: make(map[string]string),
	}
}

func (m *mockRepo) Create(_ context.Context, t domain.Tenant) error {
	m.tenants[t.ID] = t
	m.domains[t.Domain] = t.ID
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id string) (domain.Tenant, error) {
	t, ok := m.tenants[id]
	if !ok {
		return domain.Tenant{}, domain.ErrTenantNotFound
	}
	return t, nil
}

func (m *mockRepo) GetByDomain(_ context.Context, domainName string) (domain.Tenant, error) {
	id, ok := m.domains[domainName]
	if !ok {
		return domain.Tenant{}, domain.ErrTenantNotFound
	}
	return m.tenants[id], nil
}

func (m *mockRepo) List(_ context.Context, _ domain.ListFilter) ([]domain.Tenant, error) {
	out := make([]domain.Tenant, 0, len(m.tenants))
	for _, t := range m.tenants {
		out = append(out, t)
	}
	return out, nil
}

func (m *mockRepo) UpdateStatus(_ context.Context, t domain.Tenant, from domain.Status) error {
	stored, ok := m.tenants[t.ID]
	if !ok {
		return domain.ErrTenantNotFound
	}
	if stored.Status != from {
		return domain.ErrTenantConflict
	}
	m.tenants[t.ID] = t
	return nil
}

func (m *mockRepo) ListExpired(_ context.Context, cutoff time.Time) ([]domain.Tenant, error) {
	var out []domain.Tenant
	for _, t := range m.tenants {
		if t.Status == domain.StatusCanceled && t.CanceledAt != nil && !t.CanceledAt.After(cutoff) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *mockRepo) DeleteExpired(_ context.Context, id string, cutoff time.Time) (bool, error) {
	t, ok := m.tenants[id]
	if !ok || t.Status != domain.StatusCanceled || t.CanceledAt == nil || t.CanceledAt.After(cutoff) {
		return false, nil
	}
	delete(m.tenants, id)
	delete(m.domains, t.Domain)
	return true, nil
}

func (m *mockRepo) DeleteCanceled(_ context.Context, id string) (bool, error) {
	t, ok := m.tenants[id]
	if !ok || t.Status != domain.StatusCanceled {
		return false, nil
	}
	delete(m.tenants, id)
	delete(m.domains, t.Domain)
	return true, nil
}

func (m *mockRepo) Delete(_ context.Context, id string) error {
	t, ok := m.tenants[id]
	if !ok {
		return domain.ErrTenantNotFound
	}
	delete(m.tenants, id)
	delete(m.domains, t.Domain)
	return nil
}

// --- Tests ---

func TestTracingRepository_Create_RecordsSpan(t *testing.T) {
	exporter := setupTestTracer(t)
	inner := newMockRepo()
	repo := adapter.NewTracingRepository(inner)

	tenant := domain.NewTenant("t-1", "Acme", "acme.example.com", "tenant_acme")
	if err := repo.Create(context.Background(), tenant); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}
	if spans[0].Name != "TenantRepository.Create" {
		t.Errorf("span name = %q, want %q", spans[0].Name, "TenantRepository.Create")
	}

	assertAttribute(t, spans[0], "tenant.id", "t-1")
	assertAttribute(t, spans[0], "tenant.domain", "acme.example.com")
	assertAttribute(t, spans[0], "tenant.db_name", "tenant_acme")
}

func TestTracingRepository_GetByID_RecordsError(t *testing.T) {
	exporter := setupTestTracer(t)
	inner := newMockRepo()
	repo := adapter.NewTracingRepository(inner)

	_, err := repo.GetByID(context.Background(), "nonexistent")
	if !errors.Is(err, domain.ErrTenantNotFound) {
		t.Fatalf("expected ErrTenantNotFound, got %v", err)
	}

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}

	if spans[0].Status.Code != codes.Error {
		t.Errorf("span status = %v, want %v", spans[0].Status.Code, codes.Error)
	}

	if len(spans[0].Events) == 0 {
		t.Error("expected error event on span")
	}
}

func TestTracingRepository_List_RecordsResultCount(t *testing.T) {
	exporter := setupTestTracer(t)
	inner := newMockRepo()
	repo := adapter.NewTracingRepository(inner)

	inner.tenants["t-1"] = domain.NewTenant("t-1", "A", "a.example.com", "tenant_a")
	inner.tenants["t-2"] = domain.NewTenant("t-2", "B", "b.example.com", "tenant_b")

	tenants, err := repo.List(context.Background(), domain.ListFilter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tenants) != 2 {
		t.Errorf("got %d tenants, want 2", len(tenants))
	}

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}

	assertAttribute(t, spans[0], "result.count", "2")
}

func TestTracingRepository_UpdateStatus_RecordsTransition(t *testing.T) {
	exporter := setupTestTracer(t)
	inner := newMockRepo()
	repo := adapter.NewTracingRepository(inner)

	tenant := domain.NewTenant("t-1", "Acme", "acme.example.com", "tenant_acme")
	inner.tenants["t-1"] = tenant

	tenant.Status = domain.StatusActive
	if err := repo.UpdateStatus(context.Background(), tenant, domain.StatusTrial); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}
	if spans[0].Name != "TenantRepository.UpdateStatus" {
		t.Errorf("span name = %q, want %q", spans[0].Name, "TenantRepository.UpdateStatus")
	}

	assertAttribute(t, spans[0], "tenant.status", "active")
	assertAttribute(t, spans[0], "tenant.status_from", "trial")
}

func TestTracingRepository_DeleteExpired_RecordsOutcome(t *testing.T) {
	exporter := setupTestTracer(t)
	inner := newMockRepo()
	repo := adapter.NewTracingRepository(inner)

	tenant := domain.NewTenant("t-1", "Acme", "acme.example.com", "tenant_acme")
	canceledAt := time.Now().UTC().Add(-31 * 24 * time.Hour)
	tenant.MarkCanceled(canceledAt)
	inner.tenants["t-1"] = tenant

	deleted, err := repo.DeleteExpired(context.Background(), "t-1", time.Now().UTC().Add(-domain.GracePeriod))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !deleted {
		t.Fatal("deleted = false, want true")
	}

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}

	assertAttribute(t, spans[0], "result.deleted", "true")
}

// assertAttribute checks that a span has an attribute with the given key and string value.
func assertAttribute(t *testing.T, span tracetest.SpanStub, key, want string) {
	t.Helper()
	for _, attr := range span.Attributes {
		if string(attr.Key) == key {
			got := attr.Value.Emit()
			if got != want {
				t.Errorf("attribute %q = %q, want %q", key, got, want)
			}
			return
		}
	}
	t.Errorf("attribute %q not found on span %q", key, span.Name)
}
