package ports

import (
	"context"
	"io"

	"github.com/bnema/siteforge-cli/internal/domain"
)

// IdentityResolver validates a token against the server.
type IdentityResolver interface {
	WhoAmI(ctx context.Context, token string) (domain.UserSafe, error)
}

type AuthAPI interface {
	IdentityResolver
	Login(ctx context.Context, creds domain.Credentials) (domain.AuthResult, error)
	Signup(ctx context.Context, req domain.SignupRequest) (domain.AuthResult, error)
}

type ProjectAPI interface {
	ListProjects(ctx context.Context) ([]domain.Project, error)
	GetProject(ctx context.Context, id string) (domain.Project, error)
	CreateProject(ctx context.Context, in domain.ProjectInput) (domain.Project, error)
	UpdateProject(ctx context.Context, id string, patch domain.ProjectPatch) (domain.Project, error)
	DeleteProject(ctx context.Context, id string) error
}

type CatalogAPI interface {
	ListTemplates(ctx context.Context) ([]domain.Template, error)
	ListMedia(ctx context.Context) ([]domain.Media, error)
}

type AccountAPI interface {
	ClientStats(ctx context.Context) (domain.ClientStats, error)
	AIUsage(ctx context.Context) (domain.AIUsage, error)
	Subscription(ctx context.Context) (domain.SubscriptionState, error)
}

type AdminAPI interface {
	AdminStats(ctx context.Context) (domain.AdminStats, error)
	AdminUsers(ctx context.Context) ([]domain.UserSafe, error)
	AdminAnalytics(ctx context.Context) (domain.AdminAnalytics, error)
	UpdateUserRole(ctx context.Context, id string, role domain.Role) (domain.UserSafe, error)
	DeleteUser(ctx context.Context, id string) error
}

type WebsiteAPI interface {
	GenerateWebsite(ctx context.Context, req domain.GenerateWebsiteRequest) (domain.GenerateWebsiteResult, error)
	RegenerateSection(ctx context.Context, req domain.RegenerateSectionRequest) (domain.Project, error)
	DownloadWebsite(ctx context.Context, id string, w io.Writer) (int64, error)
}

// SiteForgeAPI is the full REST surface of the SiteForgeAI server.
type SiteForgeAPI interface {
	AuthAPI
	ProjectAPI
	CatalogAPI
	AccountAPI
	AdminAPI
	WebsiteAPI
}
