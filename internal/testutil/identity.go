package testutil

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"real4d-backend/internal/models"
)

// Identity is an in-memory auth service. Errors keyed by method name are
// returned instead of running the method.
type Identity struct {
	mu       sync.Mutex
	Users    map[string]*models.Identity
	Tokens   map[string]string
	Links    []string
	Created  []string
	Errors   map[string]error
	Recorder *Recorder
}

func NewIdentity(rec *Recorder) *Identity {
	return &Identity{
		Users:    map[string]*models.Identity{},
		Tokens:   map[string]string{},
		Errors:   map[string]error{},
		Recorder: rec,
	}
}

func (f *Identity) call(name string) error {
	f.Recorder.Record("identity." + name)
	return f.Errors[name]
}

// AddUser seeds a user reachable through token.
func (f *Identity) AddUser(email, name, token string) *models.Identity {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := &models.Identity{ID: uuid.New(), Email: email, Name: name}
	f.Users[email] = u
	if token != "" {
		f.Tokens[token] = email
	}
	return u
}

func (f *Identity) UserCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Users)
}

func (f *Identity) FindUserByEmail(ctx context.Context, email string) (*models.Identity, error) {
	if err := f.call("FindUserByEmail"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.Users[email]
	if !ok {
		return nil, models.ErrIdentityNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *Identity) CreateUser(ctx context.Context, email, name string) (*models.Identity, error) {
	if err := f.call("CreateUser"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.Users[email]; ok {
		return nil, models.ErrIdentityExists
	}
	u := &models.Identity{ID: uuid.New(), Email: email, Name: name}
	f.Users[email] = u
	f.Created = append(f.Created, email)
	cp := *u
	return &cp, nil
}

func (f *Identity) DeleteUser(ctx context.Context, identity models.Identity) error {
	if err := f.call("DeleteUser"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.Users, identity.Email)
	for token, email := range f.Tokens {
		if email == identity.Email {
			delete(f.Tokens, token)
		}
	}
	return nil
}

func (f *Identity) GenerateMagicLink(ctx context.Context, email, redirectTo string) (string, error) {
	if err := f.call("GenerateMagicLink"); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.Users[email]; !ok {
		return "", models.ErrIdentityNotFound
	}
	link := "https://auth.test/verify?type=magiclink&email=" + email + "&redirect_to=" + redirectTo
	f.Links = append(f.Links, link)
	return link, nil
}

func (f *Identity) VerifyToken(ctx context.Context, token string) (*models.Identity, error) {
	if err := f.call("VerifyToken"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	email, ok := f.Tokens[token]
	if !ok {
		return nil, models.ErrInvalidToken
	}
	u, ok := f.Users[email]
	if !ok {
		return nil, models.ErrInvalidToken
	}
	cp := *u
	return &cp, nil
}
