package httpapi

import (
	"context"
	"net/http"

	"github.com/bnema/siteforge-cli/internal/domain"
)

func (c *Client) ClientStats(ctx context.Context) (domain.ClientStats, error) {
	var stats domain.ClientStats
	err := c.do(ctx, "get stats", http.MethodGet, "/api/stats", nil, &stats)
	return stats, err
}

func (c *Client) AIUsage(ctx context.Context) (domain.AIUsage, error) {
	var usage domain.AIUsage
	err := c.do(ctx, "get ai usage", http.MethodGet, "/api/ai/usage", nil, &usage)
	return usage, err
}

func (c *Client) Subscription(ctx context.Context) (domain.SubscriptionState, error) {
	var state domain.SubscriptionState
	err := c.do(ctx, "get subscription", http.MethodGet, "/api/subscription", nil, &state)
	return state, err
}
