// Package httpapitest runs an in-memory SiteForgeAI API for tests.
package httpapitest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bnema/siteforge-cli/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// Archive is the body served by the website download route.
const Archive = "PK\x03\x04siteforge-archive"

type account struct {
	user     domain.UserSafe
	password string
}

type userKey struct{}

// Server is a stateful fake of the SiteForgeAI REST API. Every routed request
// is counted per route pattern, e.g. "GET /api/projects/{id}", before its
// handler runs.
type Server struct {
	*httptest.Server

	mu        sync.Mutex
	accounts  map[string]*account
	tokens    map[string]string
	projects  map[string]domain.Project
	templates []domain.Template
	media     []domain.Media
	hits      map[string]int
	hold      map[string]chan struct{}
	order     int
}

func NewServer() *Server {
	s := &Server{
		accounts: make(map[string]*account),
		tokens:   make(map[string]string),
		projects: make(map[string]domain.Project),
		hits:     make(map[string]int),
		hold:     make(map[string]chan struct{}),
	}
	s.Server = httptest.NewServer(s.routes())
	return s
}

func (s *Server) routes() http.Handler {
	root := chi.NewRouter()
	root.Group(func(r chi.Router) {
		r.Use(s.count)
		s.mount(r)
	})
	return root
}

func (s *Server) mount(r chi.Router) {
	r.Post("/api/auth/login", s.login)
	r.Post("/api/auth/signup", s.signup)

	r.Group(func(r chi.Router) {
		r.Use(s.authenticate)
		r.Get("/api/auth/me", s.me)
		r.Get("/api/projects", s.listProjects)
		r.Post("/api/projects", s.createProject)
		r.Get("/api/projects/{id}", s.getProject)
		r.Patch("/api/projects/{id}", s.updateProject)
		r.Delete("/api/projects/{id}", s.deleteProject)
		r.Get("/api/templates", s.listTemplates)
		r.Get("/api/media", s.listMedia)
		r.Get("/api/stats", s.stats)
		r.Get("/api/ai/usage", s.usage)
		r.Get("/api/subscription", s.subscription)
		r.Post("/api/website/generate", s.generate)
		r.Post("/api/website/regenerate", s.regenerate)
		r.Get("/api/website/{id}/download", s.download)

		r.Group(func(r chi.Router) {
			r.Use(s.requireAdmin)
			r.Get("/api/admin/stats", s.adminStats)
			r.Get("/api/admin/users", s.adminUsers)
			r.Get("/api/admin/analytics", s.adminAnalytics)
			r.Patch("/api/admin/users/{id}/role", s.updateRole)
			r.Delete("/api/admin/users/{id}", s.deleteUser)
		})
	})
}

// AddUser registers an account and returns a valid token for it.
func (s *Server) AddUser(user domain.UserSafe, password string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.Role == "" {
		user.Role = domain.RoleClient
	}
	if user.AIGenerationsLimit == 0 {
		user.AIGenerationsLimit = 5
	}
	if user.PlanType == "" {
		user.PlanType = domain.PlanFree
		user.SubscriptionStatus = domain.SubscriptionFree
	}
	s.accounts[user.ID] = &account{user: user, password: password}
	return s.issueLocked(user.ID)
}

// Revoke makes token invalid; requests carrying it get 401.
func (s *Server) Revoke(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, token)
}

func (s *Server) AddProject(p domain.Project) domain.Project {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addProjectLocked(p)
}

func (s *Server) AddTemplate(t domain.Template) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.templates = append(s.templates, t)
}

func (s *Server) AddMedia(m domain.Media) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.media = append(s.media, m)
}

// Hits reports how many requests reached route, e.g. "GET /api/projects".
func (s *Server) Hits(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[route]
}

// HitsWithPrefix sums the hits of every route whose path starts with prefix.
func (s *Server) HitsWithPrefix(prefix string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := 0
	for route, n := range s.hits {
		_, path, _ := strings.Cut(route, " ")
		if strings.HasPrefix(path, prefix) {
			total += n
		}
	}
	return total
}

// Hold blocks requests to route until the returned release func is called.
func (s *Server) Hold(route string) (release func()) {
	ch := make(chan struct{})
	s.mu.Lock()
	s.hold[route] = ch
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.hold, route)
			s.mu.Unlock()
			close(ch)
		})
	}
}

func (s *Server) issueLocked(userID string) string {
	token := "tok-" + uuid.NewString()
	s.tokens[token] = userID
	return token
}

func (s *Server) addProjectLocked(p domain.Project) domain.Project {
	s.order++
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Status == "" {
		p.Status = domain.ProjectDraft
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(s.order) * time.Minute)
	}
	p.UpdatedAt = p.CreatedAt
	s.projects[p.ID] = p
	return p
}

func (s *Server) count(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.hits[r.Method+" "+chi.RouteContext(r.Context()).RoutePattern()]++
		s.mu.Unlock()

		next.ServeHTTP(w, r)
	})
}

func (s *Server) wait(r *http.Request) {
	route := r.Method + " " + chi.RouteContext(r.Context()).RoutePattern()
	s.mu.Lock()
	ch, ok := s.hold[route]
	s.mu.Unlock()
	if !ok {
		return
	}
	select {
	case <-ch:
	case <-r.Context().Done():
	}
}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || token == "" {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		s.mu.Lock()
		userID, found := s.tokens[token]
		acct := s.accounts[userID]
		s.mu.Unlock()
		if !found || acct == nil {
			writeError(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		s.wait(r)
		next.ServeHTTP(w, r.WithContext(contextWithUser(r, userID)))
	})
}

func contextWithUser(r *http.Request, userID string) context.Context {
	return context.WithValue(r.Context(), userKey{}, userID)
}

func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.current(r).Role != domain.RoleAdmin {
			writeError(w, http.StatusForbidden, "Admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) current(r *http.Request) domain.UserSafe {
	userID, _ := r.Context().Value(userKey{}).(string)
	s.mu.Lock()
	defer s.mu.Unlock()
	if acct, ok := s.accounts[userID]; ok {
		return acct.user
	}
	return domain.UserSafe{}
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var creds domain.Credentials
	if !decode(w, r, &creds) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for id, acct := range s.accounts {
		if strings.EqualFold(acct.user.Email, creds.Email) && acct.password == creds.Password {
			writeJSON(w, http.StatusOK, domain.AuthResult{Token: s.issueLocked(id), User: acct.user})
			return
		}
	}
	writeError(w, http.StatusUnauthorized, "Invalid credentials")
}

func (s *Server) signup(w http.ResponseWriter, r *http.Request) {
	var req domain.SignupRequest
	if !decode(w, r, &req) {
		return
	}

	s.mu.Lock()
	for _, acct := range s.accounts {
		if strings.EqualFold(acct.user.Email, req.Email) {
			s.mu.Unlock()
			writeError(w, http.StatusBadRequest, "User already exists")
			return
		}
	}
	s.mu.Unlock()

	user := domain.UserSafe{Email: req.Email, Name: req.Name, Role: domain.RoleClient}
	token := s.AddUser(user, req.Password)
	s.mu.Lock()
	created := s.accounts[s.tokens[token]].user
	s.mu.Unlock()
	writeJSON(w, http.StatusCreated, domain.AuthResult{Token: token, User: created})
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.current(r))
}

func (s *Server) listProjects(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.ownedProjects(s.current(r)))
}

func (s *Server) ownedProjects(user domain.UserSafe) []domain.Project {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.Project, 0, len(s.projects))
	for _, p := range s.projects {
		if user.Role == domain.RoleAdmin || p.UserID == user.ID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (s *Server) project(w http.ResponseWriter, r *http.Request) (domain.Project, bool) {
	user := s.current(r)
	s.mu.Lock()
	p, ok := s.projects[chi.URLParam(r, "id")]
	s.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "Project not found")
		return p, false
	}
	if p.UserID != user.ID && user.Role != domain.RoleAdmin {
		writeError(w, http.StatusForbidden, "Access denied")
		return p, false
	}
	return p, true
}

func (s *Server) getProject(w http.ResponseWriter, r *http.Request) {
	if p, ok := s.project(w, r); ok {
		writeJSON(w, http.StatusOK, p)
	}
}

func (s *Server) createProject(w http.ResponseWriter, r *http.Request) {
	var in domain.ProjectInput
	if !decode(w, r, &in) {
		return
	}
	user := s.current(r)
	p := s.AddProject(domain.Project{Name: in.Name, Description: in.Description, TemplateID: in.TemplateID, UserID: user.ID})
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) updateProject(w http.ResponseWriter, r *http.Request) {
	p, ok := s.project(w, r)
	if !ok {
		return
	}
	var patch domain.ProjectPatch
	if !decode(w, r, &patch) {
		return
	}
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.Status != nil {
		p.Status = *patch.Status
	}
	if patch.Domain != nil {
		p.Domain = *patch.Domain
	}
	p.UpdatedAt = p.UpdatedAt.Add(time.Second)

	s.mu.Lock()
	s.projects[p.ID] = p
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) deleteProject(w http.ResponseWriter, r *http.Request) {
	p, ok := s.project(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	delete(s.projects, p.ID)
	s.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listTemplates(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	out := append([]domain.Template{}, s.templates...)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) listMedia(w http.ResponseWriter, r *http.Request) {
	user := s.current(r)
	s.mu.Lock()
	out := []domain.Media{}
	for _, m := range s.media {
		if m.UserID == user.ID {
			out = append(out, m)
		}
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) stats(w http.ResponseWriter, r *http.Request) {
	projects := s.ownedProjects(s.current(r))
	stats := domain.ClientStats{TotalProjects: len(projects), StorageUsed: "0 MB"}
	templates := map[string]bool{}
	for _, p := range projects {
		if p.Status == domain.ProjectPublished {
			stats.PublishedSites++
		}
		if p.TemplateID != "" {
			templates[p.TemplateID] = true
		}
	}
	stats.TemplatesUsed = len(templates)
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) usage(w http.ResponseWriter, r *http.Request) {
	user := s.current(r)
	writeJSON(w, http.StatusOK, domain.AIUsage{
		Used:      user.AIGenerationsUsed,
		Limit:     user.AIGenerationsLimit,
		Remaining: max(user.AIGenerationsLimit-user.AIGenerationsUsed, 0),
	})
}

func (s *Server) subscription(w http.ResponseWriter, r *http.Request) {
	user := s.current(r)
	blocked := user.SubscriptionStatus == domain.SubscriptionPastDue || user.SubscriptionStatus == domain.SubscriptionCancelled
	writeJSON(w, http.StatusOK, domain.SubscriptionState{
		PlanType:  user.PlanType,
		Status:    user.SubscriptionStatus,
		IsBlocked: blocked,
		CanUseAI:  !blocked && user.AIGenerationsUsed < user.AIGenerationsLimit,
	})
}

func (s *Server) consumeGeneration(w http.ResponseWriter, user domain.UserSafe) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	acct := s.accounts[user.ID]
	if acct.user.AIGenerationsUsed >= acct.user.AIGenerationsLimit {
		writeError(w, http.StatusForbidden, "AI generation limit reached")
		return false
	}
	acct.user.AIGenerationsUsed++
	return true
}

func (s *Server) generate(w http.ResponseWriter, r *http.Request) {
	var req domain.GenerateWebsiteRequest
	if !decode(w, r, &req) {
		return
	}
	user := s.current(r)
	if !s.consumeGeneration(w, user) {
		return
	}
	p := s.AddProject(domain.Project{
		Name:        req.BusinessName,
		Description: req.Description,
		UserID:      user.ID,
	})
	writeJSON(w, http.StatusOK, domain.GenerateWebsiteResult{Project: p})
}

func (s *Server) regenerate(w http.ResponseWriter, r *http.Request) {
	var req domain.RegenerateSectionRequest
	if !decode(w, r, &req) {
		return
	}
	user := s.current(r)
	s.mu.Lock()
	p, ok := s.projects[req.ProjectID]
	s.mu.Unlock()
	if !ok || (p.UserID != user.ID && user.Role != domain.RoleAdmin) {
		writeError(w, http.StatusNotFound, "Project not found")
		return
	}
	if !s.consumeGeneration(w, user) {
		return
	}
	p.Description = fmt.Sprintf("%s [%s regenerated]", p.Description, req.SectionName)
	s.mu.Lock()
	s.projects[p.ID] = p
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) download(w http.ResponseWriter, r *http.Request) {
	p, ok := s.project(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", p.Name+".zip"))
	_, _ = w.Write([]byte(Archive))
}

func (s *Server) adminStats(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stats := domain.AdminStats{TotalUsers: len(s.accounts), TotalProjects: len(s.projects), ActiveUsers: len(s.accounts)}
	for _, p := range s.projects {
		if p.Status == domain.ProjectPublished {
			stats.PublishedSites++
		}
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) adminUsers(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	users := make([]domain.UserSafe, 0, len(s.accounts))
	for _, acct := range s.accounts {
		users = append(users, acct.user)
	}
	s.mu.Unlock()
	sort.Slice(users, func(i, j int) bool { return users[i].Email < users[j].Email })
	writeJSON(w, http.StatusOK, users)
}

func (s *Server) adminAnalytics(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, domain.AdminAnalytics{
		TotalUsers:         len(s.accounts),
		TotalProjects:      len(s.projects),
		PageViews:          12500,
		AvgSessionDuration: "3m 24s",
		ConversionRate:     "2.4%",
	})
}

func (s *Server) updateRole(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Role domain.Role `json:"role"`
	}
	if !decode(w, r, &body) {
		return
	}
	if body.Role != domain.RoleAdmin && body.Role != domain.RoleClient {
		writeError(w, http.StatusBadRequest, "Invalid role")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	acct, ok := s.accounts[chi.URLParam(r, "id")]
	if !ok {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	acct.user.Role = body.Role
	writeJSON(w, http.StatusOK, acct.user)
}

func (s *Server) deleteUser(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := chi.URLParam(r, "id")
	if _, ok := s.accounts[id]; !ok {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	delete(s.accounts, id)
	w.WriteHeader(http.StatusNoContent)
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}
