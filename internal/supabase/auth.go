package supabase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/supabase-community/gotrue-go"
	"github.com/supabase-community/gotrue-go/types"
	"real4d-backend/internal/metrics"
	"real4d-backend/internal/models"
)

// AuthClient talks to Supabase Auth (GoTrue). Admin calls carry the service
// role key; token verification uses the caller's access token.
type AuthClient struct {
	auth       gotrue.Client
	serviceKey string
	metrics    *metrics.Metrics
}

func NewAuthClient(client *Client, m *metrics.Metrics) *AuthClient {
	return &AuthClient{
		auth:       client.Supabase.Auth,
		serviceKey: client.Config.SupabaseServiceRoleKey,
		metrics:    m,
	}
}

func (a *AuthClient) admin() gotrue.Client {
	return a.auth.WithToken(a.serviceKey)
}

// FindUserByEmail scans the admin user list. Matching is on the lower-cased email.
func (a *AuthClient) FindUserByEmail(ctx context.Context, email string) (*models.Identity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	defer a.metrics.ObserveSince("auth", "list_users", time.Now())

	resp, err := a.admin().AdminListUsers()
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	email = strings.ToLower(email)
	for _, u := range resp.Users {
		if strings.ToLower(u.Email) == email {
			return toIdentity(u), nil
		}
	}
	return nil, models.ErrIdentityNotFound
}

func (a *AuthClient) CreateUser(ctx context.Context, email, name string) (*models.Identity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	defer a.metrics.ObserveSince("auth", "create_user", time.Now())

	resp, err := a.admin().AdminCreateUser(types.AdminCreateUserRequest{
		Email:        email,
		EmailConfirm: true,
		UserMetadata: map[string]interface{}{"nome": name},
	})
	if err != nil {
		if isAlreadyRegistered(err) {
			return nil, fmt.Errorf("%w: %s", models.ErrIdentityExists, email)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return toIdentity(resp.User), nil
}

func (a *AuthClient) DeleteUser(ctx context.Context, identity models.Identity) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	defer a.metrics.ObserveSince("auth", "delete_user", time.Now())

	if err := a.admin().AdminDeleteUser(types.AdminDeleteUserRequest{UserID: identity.ID}); err != nil {
		return fmt.Errorf("failed to delete user %s: %w", identity.ID, err)
	}
	return nil
}

// GenerateMagicLink returns models.ErrIdentityNotFound when the account no
// longer exists.
func (a *AuthClient) GenerateMagicLink(ctx context.Context, email, redirectTo string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	defer a.metrics.ObserveSince("auth", "generate_link", time.Now())

	resp, err := a.admin().AdminGenerateLink(types.AdminGenerateLinkRequest{
		Type:       types.LinkTypeMagicLink,
		Email:      email,
		RedirectTo: redirectTo,
	})
	if err != nil {
		if isUserNotFound(err) {
			return "", fmt.Errorf("%w: %s", models.ErrIdentityNotFound, email)
		}
		return "", fmt.Errorf("failed to generate magic link: %w", err)
	}
	return resp.ActionLink, nil
}

// VerifyToken asks Supabase Auth who owns the access token.
func (a *AuthClient) VerifyToken(ctx context.Context, token string) (*models.Identity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if token == "" {
		return nil, models.ErrInvalidToken
	}
	defer a.metrics.ObserveSince("auth", "get_user", time.Now())

	resp, err := a.auth.WithToken(token).GetUser()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrInvalidToken, err)
	}
	if resp == nil || resp.Email == "" {
		return nil, models.ErrInvalidToken
	}
	return toIdentity(resp.User), nil
}

func toIdentity(u types.User) *models.Identity {
	identity := &models.Identity{
		ID:    u.ID,
		Email: strings.ToLower(u.Email),
	}
	if name, ok := u.UserMetadata["nome"].(string); ok {
		identity.Name = name
	}
	return identity
}

func isAlreadyRegistered(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "already been registered") ||
		strings.Contains(msg, "already registered") ||
		strings.Contains(msg, "email_exists")
}

func isUserNotFound(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.HasPrefix(msg, "response status code 404") ||
		strings.Contains(msg, "user_not_found") ||
		strings.Contains(msg, "user not found")
}
