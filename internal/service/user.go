package service

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"tradepost-rest-api/internal/model"
	"tradepost-rest-api/internal/repository"
	"tradepost-rest-api/pkg/apierror"
	"tradepost-rest-api/pkg/uid"
)

// UserService handles participant registration and lookup.
type UserService struct {
	ledger repository.LedgerStore
}

// NewUserService creates a new user service.
func NewUserService(ledger repository.LedgerStore) *UserService {
	if ledger == nil {
		return nil
	}
	return &UserService{ledger: ledger}
}

// Register creates a new user with a generated id and API key.
// The API key is only returned here; subsequent reads omit it.
func (s *UserService) Register(ctx context.Context, name string) (*model.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apierror.ValidationError("invalid registration",
			apierror.FieldError{Field: "name", Message: "must not be empty"})
	}

	user := &model.User{
		ID:        uid.New(),
		Name:      name,
		APIKey:    uid.NewAPIKey(),
		CreatedAt: time.Now().UTC(),
	}

	if err := s.ledger.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateName) {
			return nil, apierror.Conflict("user name already taken")
		}
		return nil, apierror.InternalError("failed to create user")
	}

	log.Printf("[UserService] Registered user %s (%s)", user.Name, user.ID)
	return user, nil
}

// List returns public views of all users.
func (s *UserService) List(ctx context.Context) ([]model.UserView, error) {
	users, err := s.ledger.ListUsers(ctx)
	if err != nil {
		return nil, apierror.InternalError("failed to list users")
	}
	return users, nil
}

// Delete removes a user and, via the ledger, all their listings and
// inbox entries. Administrative action only.
func (s *UserService) Delete(ctx context.Context, id string) error {
	deleted, err := s.ledger.DeleteUser(ctx, id)
	if err != nil {
		return apierror.InternalError("failed to delete user")
	}
	if !deleted {
		return apierror.NotFound("user not found")
	}

	log.Printf("[UserService] Deleted user %s (cascaded listings and inbox)", id)
	return nil
}

// ResolveAPIKey maps a presented credential to a user identity.
// This is the auth gate for bearer API keys.
func (s *UserService) ResolveAPIKey(ctx context.Context, apiKey string) (*model.User, error) {
	if apiKey == "" {
		return nil, apierror.Unauthorized("")
	}

	user, err := s.ledger.GetUserByAPIKey(ctx, apiKey)
	if err != nil {
		return nil, apierror.InternalError("failed to resolve credential")
	}
	if user == nil {
		return nil, apierror.Unauthorized("Invalid API key")
	}
	return user, nil
}
