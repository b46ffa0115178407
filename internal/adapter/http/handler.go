package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/nexopanel/tenantcore/internal/app"
	"github.com/nexopanel/tenantcore/internal/domain"
)

const timeFormat = "2006-01-02T15:04:05Z"

// TenantResponse is the API representation of a tenant. The grace
// period fields are derived at render time; they are never stored.
type TenantResponse struct {
	ID                 string `json:"id" doc:"Unique identifier"`
	Name               string `json:"name" doc:"Display name"`
	OwnerName          string `json:"owner_name" doc:"Owner's name"`
	OwnerEmail         string `json:"owner_email" doc:"Owner's email"`
	PlanID             string `json:"plan_id,omitempty" doc:"Subscription plan reference"`
	DBName             string `json:"db_name" doc:"Isolated database name"`
	Domain             string `json:"domain" doc:"Primary domain"`
	Status             string `json:"status" doc:"Lifecycle state"`
	IsActive           bool   `json:"is_active" doc:"Activity flag"`
	CanceledAt         string `json:"canceled_at,omitempty" doc:"Cancellation timestamp (ISO 8601)"`
	GraceDaysRemaining int    `json:"grace_period_days_remaining" doc:"Whole days left to restore a canceled tenant"`
	CanRestore         bool   `json:"can_restore" doc:"Whether the tenant can still be restored"`
	CanDelete          bool   `json:"can_delete" doc:"Whether permanent deletion is permitted"`
	CreatedAt          string `json:"created_at" doc:"Creation timestamp (ISO 8601)"`
	UpdatedAt          string `json:"updated_at" doc:"Last update timestamp (ISO 8601)"`
}

func toTenantResponse(svc *app.TenantService, t domain.Tenant) TenantResponse {
	now := svc.Now()
	resp := TenantResponse{
		ID:                 t.ID,
		Name:               t.Name,
		OwnerName:          t.OwnerName,
		OwnerEmail:         t.OwnerEmail,
		PlanID:             t.PlanID,
		DBName:             t.DBName,
		Domain:             t.Domain,
		Status:             string(t.Status),
		IsActive:           t.IsActive,
		GraceDaysRemaining: t.GraceDaysRemaining(now),
		CanRestore:         t.CanRestore(now),
		CanDelete:          t.CanDelete(),
		CreatedAt:          t.CreatedAt.Format(timeFormat),
		UpdatedAt:          t.UpdatedAt.Format(timeFormat),
	}
	if t.CanceledAt != nil {
		resp.CanceledAt = t.CanceledAt.Format(timeFormat)
	}
	return resp
}

// PlanResponse is the API representation of a subscription plan.
type PlanResponse struct {
	ID           string `json:"id" doc:"Unique identifier"`
	Name         string `json:"name" doc:"Plan name"`
	PriceCents   int64  `json:"price_cents" doc:"Price in cents"`
	DurationDays int    `json:"duration_days" doc:"Billing period length"`
	TenantsCount int    `json:"tenants_count" doc:"Number of tenants on this plan"`
}

func toPlanResponse(p domain.Plan) PlanResponse {
	return PlanResponse{
		ID:           p.ID,
		Name:         p.Name,
		PriceCents:   p.PriceCents,
		DurationDays: p.DurationDays,
		TenantsCount: p.TenantsCount,
	}
}

// --- Create Tenant ---

type CreateTenantInput struct {
	Body struct {
		Name          string `json:"name" minLength:"1" maxLength:"255" doc:"Display name (also the source of the isolated database name)"`
		Domain        string `json:"domain" minLength:"1" maxLength:"255" doc:"Primary domain, globally unique"`
		OwnerName     string `json:"owner_name" minLength:"1" maxLength:"255" doc:"Owner's name"`
		OwnerEmail    string `json:"owner_email" format:"email" doc:"Owner's email"`
		OwnerPassword string `json:"owner_password" minLength:"8" doc:"Owner's initial password"`
		PlanID        string `json:"plan_id,omitempty" doc:"Subscription plan reference"`
	}
}

type CreateTenantOutput struct {
	Body TenantResponse
}

// --- Get Tenant ---

type GetTenantInput struct {
	ID string `path:"id" doc:"Tenant ID"`
}

type GetTenantOutput struct {
	Body TenantResponse
}

// --- List Tenants ---

type ListTenantsInput struct {
	Status string `query:"status" required:"false" doc:"Filter by status"`
	Limit  int    `query:"limit" required:"false" default:"50" doc:"Max results"`
	Offset int    `query:"offset" required:"false" default:"0" doc:"Pagination offset"`
}

type ListTenantsOutput struct {
	Body []TenantResponse
}

// --- Cancel / Restore ---

type TenantActionInput struct {
	ID string `path:"id" doc:"Tenant ID"`
}

type TenantActionOutput struct {
	Body TenantResponse
}

// --- Manual Delete ---

type DeleteTenantInput struct {
	ID   string `path:"id" doc:"Tenant ID"`
	Body struct {
		Confirm string `json:"confirm" minLength:"1" doc:"The tenant's exact name, typed as confirmation"`
	}
}

// --- Purge ---

type PurgeInput struct {
	DryRun bool `query:"dry_run" required:"false" doc:"Report what would be purged without deleting anything"`
}

type PurgeOutput struct {
	Body struct {
		Count     int      `json:"count" doc:"Number of tenants purged (or that would be purged)"`
		TenantIDs []string `json:"tenant_ids,omitempty" doc:"Identifiers of affected tenants"`
		DryRun    bool     `json:"dry_run" doc:"Whether this was a dry run"`
	}
}

// --- Plans ---

type CreatePlanInput struct {
	Body struct {
		Name         string `json:"name" minLength:"1" maxLength:"255" doc:"Plan name"`
		PriceCents   int64  `json:"price_cents" minimum:"0" doc:"Price in cents"`
		DurationDays int    `json:"duration_days" minimum:"1" doc:"Billing period length"`
	}
}

type CreatePlanOutput struct {
	Body PlanResponse
}

type ListPlansOutput struct {
	Body []PlanResponse
}

type DeletePlanInput struct {
	ID string `path:"id" doc:"Plan ID"`
}

// Register adds all tenant and plan API routes to the Huma API.
func Register(api huma.API, svc *app.TenantService, plans *app.PlanService) {
	huma.Register(api, huma.Operation{
		OperationID: "create-tenant",
		Method:      http.MethodPost,
		Path:        "/api/v1/tenants",
		Summary:     "Provision a new tenant",
		Tags:        []string{"Tenants"},
	}, func(ctx context.Context, input *CreateTenantInput) (*CreateTenantOutput, error) {
		tenant, err := svc.Create(ctx, app.CreateParams{
			TenantName:    input.Body.Name,
			Domain:        input.Body.Domain,
			OwnerName:     input.Body.OwnerName,
			OwnerEmail:    input.Body.OwnerEmail,
			OwnerPassword: input.Body.OwnerPassword,
			PlanID:        input.Body.PlanID,
		})
		if err != nil {
			return nil, toHumaError(err)
		}
		return &CreateTenantOutput{Body: toTenantResponse(svc, tenant)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-tenant",
		Method:      http.MethodGet,
		Path:        "/api/v1/tenants/{id}",
		Summary:     "Get a tenant by ID",
		Tags:        []string{"Tenants"},
	}, func(ctx context.Context, input *GetTenantInput) (*GetTenantOutput, error) {
		tenant, err := svc.GetByID(ctx, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &GetTenantOutput{Body: toTenantResponse(svc, tenant)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-tenants",
		Method:      http.MethodGet,
		Path:        "/api/v1/tenants",
		Summary:     "List tenants",
		Tags:        []string{"Tenants"},
	}, func(ctx context.Context, input *ListTenantsInput) (*ListTenantsOutput, error) {
		filter := domain.ListFilter{
			Limit:  input.Limit,
			Offset: input.Offset,
		}
		if input.Status != "" {
			s := domain.Status(input.Status)
			filter.Status = &s
		}

		tenants, err := svc.List(ctx, filter)
		if err != nil {
			return nil, toHumaError(err)
		}

		resp := make([]TenantResponse, len(tenants))
		for i, t := range tenants {
			resp[i] = toTenantResponse(svc, t)
		}
		return &ListTenantsOutput{Body: resp}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "cancel-tenant",
		Method:      http.MethodPost,
		Path:        "/api/v1/tenants/{id}/cancel",
		Summary:     "Cancel a tenant, starting the 30-day grace period",
		Tags:        []string{"Tenants"},
	}, func(ctx context.Context, input *TenantActionInput) (*TenantActionOutput, error) {
		tenant, err := svc.Cancel(ctx, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &TenantActionOutput{Body: toTenantResponse(svc, tenant)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "restore-tenant",
		Method:      http.MethodPost,
		Path:        "/api/v1/tenants/{id}/restore",
		Summary:     "Restore a canceled tenant within its grace period",
		Tags:        []string{"Tenants"},
	}, func(ctx context.Context, input *TenantActionInput) (*TenantActionOutput, error) {
		tenant, err := svc.Restore(ctx, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &TenantActionOutput{Body: toTenantResponse(svc, tenant)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "suspend-tenant",
		Method:      http.MethodPost,
		Path:        "/api/v1/tenants/{id}/suspend",
		Summary:     "Suspend an active tenant",
		Tags:        []string{"Tenants"},
	}, func(ctx context.Context, input *TenantActionInput) (*TenantActionOutput, error) {
		tenant, err := svc.Suspend(ctx, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &TenantActionOutput{Body: toTenantResponse(svc, tenant)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "activate-tenant",
		Method:      http.MethodPost,
		Path:        "/api/v1/tenants/{id}/activate",
		Summary:     "Activate a trial or suspended tenant",
		Tags:        []string{"Tenants"},
	}, func(ctx context.Context, input *TenantActionInput) (*TenantActionOutput, error) {
		tenant, err := svc.Activate(ctx, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &TenantActionOutput{Body: toTenantResponse(svc, tenant)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-tenant",
		Method:      http.MethodDelete,
		Path:        "/api/v1/tenants/{id}",
		Summary:     "Permanently delete a canceled tenant (requires typed confirmation)",
		Tags:        []string{"Tenants"},
	}, func(ctx context.Context, input *DeleteTenantInput) (*struct{}, error) {
		if err := svc.ManualDelete(ctx, input.ID, input.Body.Confirm); err != nil {
			return nil, toHumaError(err)
		}
		return nil, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "purge-canceled-tenants",
		Method:      http.MethodPost,
		Path:        "/api/v1/tenants/purge-canceled",
		Summary:     "Purge tenants canceled more than 30 days ago",
		Tags:        []string{"Tenants"},
	}, func(ctx context.Context, input *PurgeInput) (*PurgeOutput, error) {
		result, err := svc.Purge(ctx, svc.DefaultPurgeCutoff(), input.DryRun)
		if err != nil {
			return nil, toHumaError(err)
		}
		out := &PurgeOutput{}
		out.Body.Count = result.Count
		out.Body.TenantIDs = result.TenantIDs
		out.Body.DryRun = result.DryRun
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "create-plan",
		Method:      http.MethodPost,
		Path:        "/api/v1/plans",
		Summary:     "Create a subscription plan",
		Tags:        []string{"Plans"},
	}, func(ctx context.Context, input *CreatePlanInput) (*CreatePlanOutput, error) {
		plan, err := plans.Create(ctx, input.Body.Name, input.Body.PriceCents, input.Body.DurationDays)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &CreatePlanOutput{Body: toPlanResponse(plan)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-plans",
		Method:      http.MethodGet,
		Path:        "/api/v1/plans",
		Summary:     "List subscription plans",
		Tags:        []string{"Plans"},
	}, func(ctx context.Context, _ *struct{}) (*ListPlansOutput, error) {
		list, err := plans.List(ctx)
		if err != nil {
			return nil, toHumaError(err)
		}
		resp := make([]PlanResponse, len(list))
		for i, p := range list {
			resp[i] = toPlanResponse(p)
		}
		return &ListPlansOutput{Body: resp}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-plan",
		Method:      http.MethodDelete,
		Path:        "/api/v1/plans/{id}",
		Summary:     "Delete a plan with no tenants on it",
		Tags:        []string{"Plans"},
	}, func(ctx context.Context, input *DeletePlanInput) (*struct{}, error) {
		if err := plans.Delete(ctx, input.ID); err != nil {
			return nil, toHumaError(err)
		}
		return nil, nil
	})
}

// toHumaError translates domain errors to Huma HTTP errors.
func toHumaError(err error) error {
	switch {
	case errors.Is(err, domain.ErrTenantNotFound):
		return huma.Error404NotFound("tenant not found")
	case errors.Is(err, domain.ErrPlanNotFound):
		return huma.Error404NotFound("plan not found")
	case errors.Is(err, domain.ErrPlanInUse):
		return huma.Error409Conflict(err.Error())
	case errors.Is(err, domain.ErrTenantConflict):
		return huma.Error409Conflict(err.Error())
	case errors.Is(err, domain.ErrDeleteNotAllowed):
		return huma.Error422UnprocessableEntity(err.Error())
	case errors.Is(err, domain.ErrEmptyDBName):
		return huma.Error400BadRequest(err.Error())
	}

	var domainErr *domain.DomainConflictError
	if errors.As(err, &domainErr) {
		return huma.Error409Conflict(domainErr.Error())
	}

	var dbNameErr *domain.DBNameConflictError
	if errors.As(err, &dbNameErr) {
		return huma.Error409Conflict(dbNameErr.Error())
	}

	var pwErr *domain.PasswordPolicyError
	if errors.As(err, &pwErr) {
		return huma.Error400BadRequest(pwErr.Error())
	}

	var graceErr *domain.GracePeriodExpiredError
	if errors.As(err, &graceErr) {
		return huma.Error422UnprocessableEntity(graceErr.Error())
	}

	var confirmErr *domain.ConfirmationError
	if errors.As(err, &confirmErr) {
		return huma.Error422UnprocessableEntity(confirmErr.Error())
	}

	var trErr *domain.TransitionError
	if errors.As(err, &trErr) {
		return huma.Error422UnprocessableEntity(trErr.Error())
	}

	var provErr *domain.ProvisionError
	if errors.As(err, &provErr) {
		return huma.Error502BadGateway(provErr.Error())
	}

	return huma.Error500InternalServerError("internal server error")
}
