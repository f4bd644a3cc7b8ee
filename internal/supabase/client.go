package supabase

import (
	"fmt"

	"github.com/supabase-community/supabase-go"
	"real4d-backend/internal/config"
)

// Client holds the supabase-go client built with the service role key. Auth and
// PostgREST calls made through it bypass row level security.
type Client struct {
	Supabase *supabase.Client
	Config   *config.Config
}

func NewClient(cfg *config.Config) (*Client, error) {
	client, err := supabase.NewClient(cfg.SupabaseURL, cfg.SupabaseServiceRoleKey, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create supabase client: %w", err)
	}

	return &Client{
		Supabase: client,
		Config:   cfg,
	}, nil
}
