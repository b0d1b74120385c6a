package domain

import (
	"strings"
	"time"
)

type Role string

const (
	RoleAdmin  Role = "ADMIN"
	RoleClient Role = "CLIENT"
)

func ParseRole(raw string) (Role, error) {
	role := Role(strings.ToUpper(strings.TrimSpace(raw)))
	switch role {
	case RoleAdmin, RoleClient:
		return role, nil
	default:
		return "", &ValidationError{Field: "role", Message: "must be ADMIN or CLIENT"}
	}
}

type PlanType string

const (
	PlanFree       PlanType = "free"
	PlanPro        PlanType = "pro"
	PlanEnterprise PlanType = "enterprise"
)

type SubscriptionStatus string

const (
	SubscriptionFree      SubscriptionStatus = "free"
	SubscriptionActive    SubscriptionStatus = "active"
	SubscriptionPastDue   SubscriptionStatus = "past_due"
	SubscriptionCancelled SubscriptionStatus = "cancelled"
)

// UserSafe is the user record as exposed to clients. It has no credential
// fields, so decoding a server payload that still carries one drops it.
type UserSafe struct {
	ID                  string             `json:"id"`
	Email               string             `json:"email"`
	Name                string             `json:"name"`
	Role                Role               `json:"role"`
	AvatarURL           string             `json:"avatarUrl,omitempty"`
	AIGenerationsUsed   int                `json:"aiGenerationsUsed"`
	AIGenerationsLimit  int                `json:"aiGenerationsLimit"`
	PlanType            PlanType           `json:"planType"`
	SubscriptionStatus  SubscriptionStatus `json:"subscriptionStatus"`
	SubscriptionEndDate *time.Time         `json:"subscriptionEndDate,omitempty"`
	CreatedAt           time.Time          `json:"createdAt"`
}

func (u UserSafe) IsAdmin() bool {
	return u.Role == RoleAdmin
}

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResult is what the login and signup endpoints return.
type AuthResult struct {
	Token string   `json:"token"`
	User  UserSafe `json:"user"`
}
