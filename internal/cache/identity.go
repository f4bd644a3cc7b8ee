package cache

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"real4d-backend/internal/models"
)

const identityKeyPrefix = "identity:email:"

// IdentityProvider mirrors services.IdentityProvider.
type IdentityProvider interface {
	FindUserByEmail(ctx context.Context, email string) (*models.Identity, error)
	CreateUser(ctx context.Context, email, name string) (*models.Identity, error)
	DeleteUser(ctx context.Context, identity models.Identity) error
	GenerateMagicLink(ctx context.Context, email, redirectTo string) (string, error)
	VerifyToken(ctx context.Context, token string) (*models.Identity, error)
}

// IdentityCache memoizes email lookups in front of an IdentityProvider, since
// the admin API only offers a paginated user listing. Redis failures degrade
// to calling the provider directly.
type IdentityCache struct {
	IdentityProvider
	redis  *Redis
	ttl    time.Duration
	logger *zap.Logger
}

func NewIdentityCache(provider IdentityProvider, r *Redis, ttl time.Duration, logger *zap.Logger) *IdentityCache {
	return &IdentityCache{
		IdentityProvider: provider,
		redis:            r,
		ttl:              ttl,
		logger:           logger,
	}
}

func identityKey(email string) string {
	return identityKeyPrefix + strings.ToLower(strings.TrimSpace(email))
}

func (c *IdentityCache) FindUserByEmail(ctx context.Context, email string) (*models.Identity, error) {
	var cached models.Identity
	hit, err := c.redis.GetJSON(ctx, identityKey(email), &cached)
	if err != nil {
		c.logger.Warn("identity cache read failed", zap.Error(err))
	}
	if hit {
		return &cached, nil
	}

	identity, err := c.IdentityProvider.FindUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	c.store(ctx, identity)
	return identity, nil
}

func (c *IdentityCache) CreateUser(ctx context.Context, email, name string) (*models.Identity, error) {
	identity, err := c.IdentityProvider.CreateUser(ctx, email, name)
	if err != nil {
		return nil, err
	}
	c.store(ctx, identity)
	return identity, nil
}

func (c *IdentityCache) DeleteUser(ctx context.Context, identity models.Identity) error {
	if err := c.IdentityProvider.DeleteUser(ctx, identity); err != nil {
		return err
	}
	c.evict(ctx, identity.Email)
	return nil
}

// GenerateMagicLink drops the cached entry when the provider no longer knows
// the account, so the next lookup misses.
func (c *IdentityCache) GenerateMagicLink(ctx context.Context, email, redirectTo string) (string, error) {
	link, err := c.IdentityProvider.GenerateMagicLink(ctx, email, redirectTo)
	if errors.Is(err, models.ErrIdentityNotFound) {
		c.evict(ctx, email)
	}
	return link, err
}

func (c *IdentityCache) evict(ctx context.Context, email string) {
	if err := c.redis.Delete(ctx, identityKey(email)); err != nil {
		c.logger.Warn("identity cache evict failed", zap.Error(err))
	}
}

func (c *IdentityCache) store(ctx context.Context, identity *models.Identity) {
	if err := c.redis.SetJSON(ctx, identityKey(identity.Email), identity, c.ttl); err != nil {
		c.logger.Warn("identity cache write failed", zap.Error(err))
	}
}
