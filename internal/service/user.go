package service

import (
	"context"

	"golang.org/x/crypto/bcrypt"

	"usergroups/internal/domain/models"
)

// UserRepository is the persistence contract the user service relies on.
// Every call runs inside a single transaction on the storage side.
type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	UpdateUser(ctx context.Context, id string, updates models.UserUpdates) (*models.User, error)
	ListUsers(ctx context.Context, loginSubstring string, limit int) ([]models.User, error)
	GetUserByLogin(ctx context.Context, login string) (*models.User, error)
}

// UserService is a stateless facade over the user repository.
type UserService struct {
	repo UserRepository
}

func NewUserService(repo UserRepository) *UserService {
	return &UserService{repo: repo}
}

func (s *UserService) CreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user.Password = string(hash)
	return s.repo.CreateUser(ctx, user)
}

func (s *UserService) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return s.repo.GetUserByID(ctx, id)
}

func (s *UserService) UpdateUser(ctx context.Context, id string, updates models.UserUpdates) (*models.User, error) {
	if updates.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*updates.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		hashed := string(hash)
		updates.Password = &hashed
	}
	return s.repo.UpdateUser(ctx, id, updates)
}

// DeleteUser marks the record as deleted; the row itself stays.
func (s *UserService) DeleteUser(ctx context.Context, id string) error {
	deleted := true
	_, err := s.repo.UpdateUser(ctx, id, models.UserUpdates{IsDeleted: &deleted})
	return err
}

func (s *UserService) ListUsers(ctx context.Context, loginSubstring string, limit int) ([]models.User, error) {
	return s.repo.ListUsers(ctx, loginSubstring, limit)
}

// GetUserByCredentials returns the matching non-deleted user, or nil without
// an error when login and password do not match any record.
func (s *UserService) GetUserByCredentials(ctx context.Context, login, password string) (*models.User, error) {
	user, err := s.repo.GetUserByLogin(ctx, login)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, nil
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, nil
	}
	return user, nil
}
