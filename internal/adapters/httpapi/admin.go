package httpapi

import (
	"context"
	"net/http"

	"github.com/bnema/siteforge-cli/internal/domain"
)

func (c *Client) AdminStats(ctx context.Context) (domain.AdminStats, error) {
	var stats domain.AdminStats
	err := c.do(ctx, "get admin stats", http.MethodGet, "/api/admin/stats", nil, &stats)
	return stats, err
}

func (c *Client) AdminUsers(ctx context.Context) ([]domain.UserSafe, error) {
	var users []domain.UserSafe
	if err := c.do(ctx, "list users", http.MethodGet, "/api/admin/users", nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (c *Client) AdminAnalytics(ctx context.Context) (domain.AdminAnalytics, error) {
	var analytics domain.AdminAnalytics
	err := c.do(ctx, "get analytics", http.MethodGet, "/api/admin/analytics", nil, &analytics)
	return analytics, err
}

func (c *Client) UpdateUserRole(ctx context.Context, id string, role domain.Role) (domain.UserSafe, error) {
	var user domain.UserSafe
	if err := domain.ValidateID("id", id); err != nil {
		return user, err
	}
	body := struct {
		Role domain.Role `json:"role"`
	}{Role: role}
	err := c.do(ctx, "update user role", http.MethodPatch, "/api/admin/users/"+id+"/role", body, &user)
	return user, err
}

func (c *Client) DeleteUser(ctx context.Context, id string) error {
	if err := domain.ValidateID("id", id); err != nil {
		return err
	}
	return c.do(ctx, "delete user", http.MethodDelete, "/api/admin/users/"+id, nil, nil)
}
