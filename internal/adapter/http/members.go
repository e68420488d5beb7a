package http

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/neomorfeo/ringside/internal/app"
	"github.com/neomorfeo/ringside/internal/domain"
)

type MembersOutput struct {
	Body []MembershipResponse
}

type AddMemberInput struct {
	ID   string `path:"id" doc:"Composite entity ID"`
	Body struct {
		MemberID string `json:"member_id" minLength:"1" doc:"Entity to add"`
		Date     string `json:"date,omitempty" doc:"Effective date; defaults to now"`
	}
}

type RemoveMemberInput struct {
	ID       string `path:"id" doc:"Composite entity ID"`
	MemberID string `path:"memberId" doc:"Entity to remove"`
	Date     string `query:"date" required:"false" doc:"Effective date; defaults to now"`
}

type ReconcileMembersInput struct {
	ID   string `path:"id" doc:"Composite entity ID"`
	Body struct {
		Relation  string   `json:"relation" enum:"tag_team_wrestler,tag_team_manager,wrestler_manager,stable_wrestler,stable_tag_team" doc:"Relation to reconcile"`
		MemberIDs []string `json:"member_ids" doc:"Target set of current members"`
		Policy    string   `json:"policy,omitempty" enum:"conservative,forced" default:"conservative" doc:"How to treat targets that belong elsewhere"`
		Date      string   `json:"date,omitempty" doc:"Effective date; defaults to now"`
	}
}

type MergeInput struct {
	ID   string `path:"id" doc:"Surviving stable ID"`
	Body struct {
		SecondaryID string `json:"secondary_id" minLength:"1" doc:"Stable absorbed and soft-deleted"`
		Date        string `json:"date,omitempty" doc:"Effective date; defaults to now"`
	}
}

type SplitInput struct {
	ID   string `path:"id" doc:"Original stable ID"`
	Body struct {
		Name      string   `json:"name" minLength:"1" maxLength:"255" doc:"Name of the new stable"`
		MemberIDs []string `json:"member_ids" minItems:"1" doc:"Members moving to the new stable"`
		Date      string   `json:"date,omitempty" doc:"Effective date; defaults to now"`
	}
}

func registerMembers(api huma.API, engine *app.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "list-members",
		Method:      http.MethodGet,
		Path:        "/api/v1/roster/{id}/members",
		Summary:     "List the current members of a composite",
		Tags:        []string{"Memberships"},
	}, func(ctx context.Context, input *GetEntityInput) (*MembersOutput, error) {
		members, err := engine.Members(ctx, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &MembersOutput{Body: toMembershipResponses(members)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "add-member",
		Method:      http.MethodPost,
		Path:        "/api/v1/roster/{id}/members",
		Summary:     "Add a member to a composite",
		Tags:        []string{"Memberships"},
	}, func(ctx context.Context, input *AddMemberInput) (*DiffOutput, error) {
		at, err := parseDate("date", input.Body.Date)
		if err != nil {
			return nil, err
		}
		diff, err := app.RetryOnConflict(ctx, func(ctx context.Context) (domain.MembershipDiff, error) {
			return engine.AddMember(ctx, input.ID, input.Body.MemberID, at)
		})
		if err != nil {
			return nil, toHumaError(err)
		}
		return &DiffOutput{Body: toDiffResponse(diff)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "remove-member",
		Method:      http.MethodDelete,
		Path:        "/api/v1/roster/{id}/members/{memberId}",
		Summary:     "Remove a member from a composite",
		Tags:        []string{"Memberships"},
	}, func(ctx context.Context, input *RemoveMemberInput) (*DiffOutput, error) {
		at, err := parseDate("date", input.Date)
		if err != nil {
			return nil, err
		}
		diff, err := app.RetryOnConflict(ctx, func(ctx context.Context) (domain.MembershipDiff, error) {
			return engine.RemoveMember(ctx, input.ID, input.MemberID, at)
		})
		if err != nil {
			return nil, toHumaError(err)
		}
		return &DiffOutput{Body: toDiffResponse(diff)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "reconcile-members",
		Method:      http.MethodPut,
		Path:        "/api/v1/roster/{id}/members",
		Summary:     "Replace the current members of one relation",
		Tags:        []string{"Memberships"},
	}, func(ctx context.Context, input *ReconcileMembersInput) (*DiffOutput, error) {
		at, err := parseDate("date", input.Body.Date)
		if err != nil {
			return nil, err
		}
		relation := domain.Relation(input.Body.Relation)
		policy := domain.RestorePolicy(input.Body.Policy)
		if policy == "" {
			policy = domain.PolicyConservative
		}
		diff, err := app.RetryOnConflict(ctx, func(ctx context.Context) (domain.MembershipDiff, error) {
			return engine.ReconcileMembership(ctx, input.ID, relation, input.Body.MemberIDs, at, policy)
		})
		if err != nil {
			return nil, toHumaError(err)
		}
		return &DiffOutput{Body: toDiffResponse(diff)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "merge-stables",
		Method:      http.MethodPost,
		Path:        "/api/v1/stables/{id}/merge",
		Summary:     "Merge another stable into this one",
		Tags:        []string{"Stables"},
	}, func(ctx context.Context, input *MergeInput) (*DiffOutput, error) {
		at, err := parseDate("date", input.Body.Date)
		if err != nil {
			return nil, err
		}
		diff, err := app.RetryOnConflict(ctx, func(ctx context.Context) (domain.MembershipDiff, error) {
			return engine.Merge(ctx, input.ID, input.Body.SecondaryID, at)
		})
		if err != nil {
			return nil, toHumaError(err)
		}
		return &DiffOutput{Body: toDiffResponse(diff)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "split-stable",
		Method:      http.MethodPost,
		Path:        "/api/v1/stables/{id}/split",
		Summary:     "Split members off into a new stable",
		Tags:        []string{"Stables"},
	}, func(ctx context.Context, input *SplitInput) (*DiffOutput, error) {
		at, err := parseDate("date", input.Body.Date)
		if err != nil {
			return nil, err
		}
		diff, err := app.RetryOnConflict(ctx, func(ctx context.Context) (domain.MembershipDiff, error) {
			return engine.Split(ctx, input.ID, input.Body.Name, input.Body.MemberIDs, at)
		})
		if err != nil {
			return nil, toHumaError(err)
		}
		return &DiffOutput{Body: toDiffResponse(diff)}, nil
	})
}
