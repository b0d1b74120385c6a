package application

import (
	"context"
	"io"

	"github.com/bnema/siteforge-cli/internal/cache"
	"github.com/bnema/siteforge-cli/internal/domain"
	"github.com/bnema/siteforge-cli/internal/mutation"
)

type UpdateProjectCommand struct {
	ID    string
	Patch domain.ProjectPatch
}

type UpdateUserRoleCommand struct {
	ID   string
	Role domain.Role
}

func (c UpdateUserRoleCommand) Validate() error {
	var errs domain.ValidationErrors
	if err := domain.ValidateID("id", c.ID); err != nil {
		errs = append(errs, err.(*domain.ValidationError))
	}
	if _, err := domain.ParseRole(string(c.Role)); err != nil {
		errs = append(errs, err.(*domain.ValidationError))
	}
	return errs.Err()
}

func (rt *Runtime) CreateProject(ctx context.Context, in domain.ProjectInput) (domain.Project, error) {
	return mutation.Mutate(rt.withIssuedToken(ctx), rt.Mutations, mutation.Mutation[domain.Project]{
		Name:     "create project",
		Validate: in.Validate,
		Do: func(ctx context.Context) (domain.Project, error) {
			return rt.api.CreateProject(ctx, in)
		},
		Invalidates: []cache.Key{KeyProjects, KeyStats},
	})
}

func (rt *Runtime) UpdateProject(ctx context.Context, cmd UpdateProjectCommand) (domain.Project, error) {
	return mutation.Mutate(rt.withIssuedToken(ctx), rt.Mutations, mutation.Mutation[domain.Project]{
		Name: "update project",
		Validate: func() error {
			if err := domain.ValidateID("id", cmd.ID); err != nil {
				return err
			}
			return cmd.Patch.Validate()
		},
		Do: func(ctx context.Context) (domain.Project, error) {
			return rt.api.UpdateProject(ctx, cmd.ID, cmd.Patch)
		},
		Invalidates: []cache.Key{KeyProjects, KeyProject(cmd.ID)},
	})
}

func (rt *Runtime) PublishProject(ctx context.Context, id string) (domain.Project, error) {
	status := domain.ProjectPublished
	return rt.UpdateProject(ctx, UpdateProjectCommand{ID: id, Patch: domain.ProjectPatch{Status: &status}})
}

func (rt *Runtime) DeleteProject(ctx context.Context, id string) error {
	_, err := mutation.Mutate(rt.withIssuedToken(ctx), rt.Mutations, mutation.Mutation[struct{}]{
		Name:     "delete project",
		Validate: func() error { return domain.ValidateID("id", id) },
		Do: func(ctx context.Context) (struct{}, error) {
			return struct{}{}, rt.api.DeleteProject(ctx, id)
		},
		Invalidates: []cache.Key{KeyProjects, KeyStats},
	})
	return err
}

func (rt *Runtime) UpdateUserRole(ctx context.Context, cmd UpdateUserRoleCommand) (domain.UserSafe, error) {
	return mutation.Mutate(rt.withIssuedToken(ctx), rt.Mutations, mutation.Mutation[domain.UserSafe]{
		Name:     "update user role",
		Validate: cmd.Validate,
		Do: func(ctx context.Context) (domain.UserSafe, error) {
			return rt.api.UpdateUserRole(ctx, cmd.ID, cmd.Role)
		},
		Invalidates: []cache.Key{KeyAdminUsers},
	})
}

func (rt *Runtime) DeleteUser(ctx context.Context, id string) error {
	_, err := mutation.Mutate(rt.withIssuedToken(ctx), rt.Mutations, mutation.Mutation[struct{}]{
		Name:     "delete user",
		Validate: func() error { return domain.ValidateID("id", id) },
		Do: func(ctx context.Context) (struct{}, error) {
			return struct{}{}, rt.api.DeleteUser(ctx, id)
		},
		Invalidates: []cache.Key{KeyAdminUsers, KeyAdminStats},
	})
	return err
}

func (rt *Runtime) GenerateWebsite(ctx context.Context, req domain.GenerateWebsiteRequest) (domain.Project, error) {
	if req.PrimaryColor == "" {
		req.PrimaryColor = domain.DefaultPrimaryColor
	}
	result, err := mutation.Mutate(rt.withIssuedToken(ctx), rt.Mutations, mutation.Mutation[domain.GenerateWebsiteResult]{
		Name:     "generate website",
		Validate: req.Validate,
		Do: func(ctx context.Context) (domain.GenerateWebsiteResult, error) {
			return rt.api.GenerateWebsite(ctx, req)
		},
		Invalidates: []cache.Key{KeyProjects, KeyAIUsage, KeyStats},
	})
	return result.Project, err
}

func (rt *Runtime) RegenerateSection(ctx context.Context, req domain.RegenerateSectionRequest) (domain.Project, error) {
	return mutation.Mutate(rt.withIssuedToken(ctx), rt.Mutations, mutation.Mutation[domain.Project]{
		Name:     "regenerate section",
		Validate: req.Validate,
		Do: func(ctx context.Context) (domain.Project, error) {
			return rt.api.RegenerateSection(ctx, req)
		},
		Invalidates: []cache.Key{KeyProject(req.ProjectID), KeyAIUsage},
	})
}

// DownloadWebsite streams a project's site archive. It reads server state
// only, so nothing is invalidated.
func (rt *Runtime) DownloadWebsite(ctx context.Context, id string, w io.Writer) (int64, error) {
	if err := domain.ValidateID("id", id); err != nil {
		return 0, err
	}
	token := rt.Session.Token()
	n, err := rt.api.DownloadWebsite(ctx, id, w)
	if err != nil {
		rt.expireOnAuthInvalid(ctx, token, err)
	}
	return n, err
}
