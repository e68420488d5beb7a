package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/neomorfeo/ringside/internal/app"
	"github.com/neomorfeo/ringside/internal/domain"
)

// --- Create Entity ---

type CreateEntityInput struct {
	Body struct {
		Type      string `json:"type" enum:"wrestler,referee,manager,tag_team,stable,title" doc:"Entity type"`
		Name      string `json:"name" minLength:"1" maxLength:"255" doc:"Display name"`
		CreatedAt string `json:"created_at,omitempty" doc:"Creation date (YYYY-MM-DD or RFC 3339); defaults to now"`
	}
}

type EntityOutput struct {
	Body EntityResponse
}

// --- Get Entity ---

type GetEntityInput struct {
	ID string `path:"id" doc:"Entity ID"`
}

// --- List Entities ---

type ListEntitiesInput struct {
	Type   string `query:"type" required:"false" doc:"Filter by entity type"`
	Limit  int    `query:"limit" required:"false" default:"50" minimum:"0" doc:"Max results"`
	Offset int    `query:"offset" required:"false" default:"0" minimum:"0" doc:"Pagination offset"`
}

type ListEntitiesOutput struct {
	Body []EntityResponse
}

// --- Status and history ---

type StatusInput struct {
	ID   string `path:"id" doc:"Entity ID"`
	AsOf string `query:"as_of" required:"false" doc:"Point in time (YYYY-MM-DD or RFC 3339); defaults to now"`
}

type StatusOutput struct {
	Body StatusResponse
}

type HistoryOutput struct {
	Body []PeriodResponse
}

// --- Transition ---

type TransitionInput struct {
	ID   string `path:"id" doc:"Entity ID"`
	Body struct {
		Event      string `json:"event,omitempty" enum:"employ,release,injure,heal,suspend,reinstate,retire,unretire,activate,deactivate" doc:"Lifecycle event to trigger"`
		Capability string `json:"capability,omitempty" enum:"employable,injurable,suspendable,retirable,activatable" doc:"Capability to transition, with action, when no event is given"`
		Action     string `json:"action,omitempty" enum:"open,close" doc:"Open or close a period of the capability"`
		Date       string `json:"date,omitempty" doc:"Effective date (YYYY-MM-DD or RFC 3339); defaults to now"`
	}
}

type ReportOutput struct {
	Body ReportResponse
}

// --- Delete and restore ---

type DeleteEntityInput struct {
	ID   string `path:"id" doc:"Entity ID"`
	Date string `query:"date" required:"false" doc:"Effective date; defaults to now"`
}

type RestoreEntityInput struct {
	ID   string `path:"id" doc:"Entity ID"`
	Body struct {
		Policy string `json:"policy" enum:"conservative,forced" doc:"How to treat former members that now belong elsewhere"`
		Date   string `json:"date,omitempty" doc:"Effective date; defaults to now"`
	}
}

type DiffOutput struct {
	Body DiffResponse
}

// Register adds all roster API routes to the Huma API.
func Register(api huma.API, engine *app.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "create-entity",
		Method:      http.MethodPost,
		Path:        "/api/v1/roster",
		Summary:     "Create a roster entity",
		Tags:        []string{"Roster"},
	}, func(ctx context.Context, input *CreateEntityInput) (*EntityOutput, error) {
		at, err := parseDate("created_at", input.Body.CreatedAt)
		if err != nil {
			return nil, err
		}
		entity, err := engine.CreateEntity(ctx, domain.EntityType(input.Body.Type), input.Body.Name, at)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &EntityOutput{Body: toEntityResponse(entity)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-entity",
		Method:      http.MethodGet,
		Path:        "/api/v1/roster/{id}",
		Summary:     "Get a roster entity by ID",
		Tags:        []string{"Roster"},
	}, func(ctx context.Context, input *GetEntityInput) (*EntityOutput, error) {
		entity, err := engine.GetEntity(ctx, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &EntityOutput{Body: toEntityResponse(entity)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-entities",
		Method:      http.MethodGet,
		Path:        "/api/v1/roster",
		Summary:     "List roster entities",
		Tags:        []string{"Roster"},
	}, func(ctx context.Context, input *ListEntitiesInput) (*ListEntitiesOutput, error) {
		filter := domain.ListFilter{
			Limit:  input.Limit,
			Offset: input.Offset,
		}
		if input.Type != "" {
			t := domain.EntityType(input.Type)
			filter.Type = &t
		}

		entities, err := engine.List(ctx, filter)
		if err != nil {
			return nil, toHumaError(err)
		}

		resp := make([]EntityResponse, len(entities))
		for i, e := range entities {
			resp[i] = toEntityResponse(e)
		}
		return &ListEntitiesOutput{Body: resp}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-entity-status",
		Method:      http.MethodGet,
		Path:        "/api/v1/roster/{id}/status",
		Summary:     "Derive the status of an entity",
		Tags:        []string{"Roster"},
	}, func(ctx context.Context, input *StatusInput) (*StatusOutput, error) {
		asOf, err := parseDate("as_of", input.AsOf)
		if err != nil {
			return nil, err
		}
		report, err := engine.QueryStatus(ctx, input.ID, asOf)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &StatusOutput{Body: toStatusResponse(report)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-entity-history",
		Method:      http.MethodGet,
		Path:        "/api/v1/roster/{id}/history",
		Summary:     "List every status period of an entity",
		Tags:        []string{"Roster"},
	}, func(ctx context.Context, input *GetEntityInput) (*HistoryOutput, error) {
		history, err := engine.History(ctx, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &HistoryOutput{Body: toPeriodResponses(history)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "transition-entity",
		Method:      http.MethodPost,
		Path:        "/api/v1/roster/{id}/transitions",
		Summary:     "Apply a lifecycle transition and its cascade",
		Tags:        []string{"Roster"},
	}, func(ctx context.Context, input *TransitionInput) (*ReportOutput, error) {
		at, err := parseDate("date", input.Body.Date)
		if err != nil {
			return nil, err
		}

		var transition func(ctx context.Context) (domain.CascadeReport, error)
		switch {
		case input.Body.Event != "":
			event := domain.Event(input.Body.Event)
			transition = func(ctx context.Context) (domain.CascadeReport, error) {
				return engine.Apply(ctx, input.ID, event, at)
			}
		case input.Body.Capability != "" && input.Body.Action != "":
			c, a := domain.Capability(input.Body.Capability), domain.Action(input.Body.Action)
			transition = func(ctx context.Context) (domain.CascadeReport, error) {
				return engine.CascadeTransition(ctx, input.ID, c, a, at)
			}
		default:
			return nil, huma.Error400BadRequest("either event or capability and action is required")
		}

		report, err := app.RetryOnConflict(ctx, transition)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &ReportOutput{Body: toReportResponse(report)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-entity",
		Method:      http.MethodDelete,
		Path:        "/api/v1/roster/{id}",
		Summary:     "Soft-delete an entity and end its memberships",
		Tags:        []string{"Roster"},
	}, func(ctx context.Context, input *DeleteEntityInput) (*DiffOutput, error) {
		at, err := parseDate("date", input.Date)
		if err != nil {
			return nil, err
		}
		diff, err := app.RetryOnConflict(ctx, func(ctx context.Context) (domain.MembershipDiff, error) {
			return engine.Delete(ctx, input.ID, at)
		})
		if err != nil {
			return nil, toHumaError(err)
		}
		return &DiffOutput{Body: toDiffResponse(diff)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "restore-entity",
		Method:      http.MethodPost,
		Path:        "/api/v1/roster/{id}/restore",
		Summary:     "Restore a soft-deleted entity and its memberships",
		Tags:        []string{"Roster"},
	}, func(ctx context.Context, input *RestoreEntityInput) (*DiffOutput, error) {
		at, err := parseDate("date", input.Body.Date)
		if err != nil {
			return nil, err
		}
		policy := domain.RestorePolicy(input.Body.Policy)
		diff, err := app.RetryOnConflict(ctx, func(ctx context.Context) (domain.MembershipDiff, error) {
			return engine.Restore(ctx, input.ID, policy, at)
		})
		if err != nil {
			return nil, toHumaError(err)
		}
		return &DiffOutput{Body: toDiffResponse(diff)}, nil
	})

	registerMembers(api, engine)
}

// parseDate accepts a calendar date or an RFC 3339 timestamp. Empty means now.
func parseDate(field, s string) (time.Time, error) {
	if s == "" {
		return time.Now().UTC(), nil
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, huma.Error400BadRequest(fmt.Sprintf("%s: expected YYYY-MM-DD or RFC 3339, got %q", field, s))
	}
	return t.UTC(), nil
}

// toHumaError translates domain errors to Huma HTTP errors.
func toHumaError(err error) error {
	if errors.Is(err, domain.ErrEntityNotFound) {
		return huma.Error404NotFound("entity not found")
	}

	if errors.Is(err, domain.ErrInvalidEntityType) ||
		errors.Is(err, domain.ErrUnknownEvent) ||
		errors.Is(err, domain.ErrEmptyName) {
		return huma.Error400BadRequest(err.Error())
	}

	var capErr *domain.UnsupportedCapabilityError
	if errors.As(err, &capErr) {
		return huma.Error400BadRequest(capErr.Error())
	}

	var conflict *domain.ConcurrentModificationError
	if errors.As(err, &conflict) {
		return huma.Error409Conflict(conflict.Error())
	}

	var (
		illegal   *domain.IllegalTransitionError
		reconcile *domain.ReconciliationError
		duplicate *domain.DuplicateCurrentPeriodError
		noCurrent *domain.NoCurrentPeriodError
		dateOrder *domain.InvalidDateOrderError
	)
	switch {
	case errors.As(err, &illegal),
		errors.As(err, &reconcile),
		errors.As(err, &duplicate),
		errors.As(err, &noCurrent),
		errors.As(err, &dateOrder):
		return huma.Error422UnprocessableEntity(err.Error())
	}

	var integrity *domain.DataIntegrityError
	if errors.As(err, &integrity) {
		return huma.Error500InternalServerError("data integrity violation")
	}

	return huma.Error500InternalServerError("internal server error")
}
