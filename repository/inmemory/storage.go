package storage

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	apperrors "usergroups/internal/domain/errors"
	"usergroups/internal/domain/models"
)

// Storage keeps users and groups in process memory. It backs the service
// tests and the -inmemory development mode.
type Storage struct {
	mu      sync.RWMutex
	users   map[string]models.User
	groups  map[string]models.Group
	members map[string][]string // group id -> user ids
}

func NewStorage() *Storage {
	return &Storage{
		users:   make(map[string]models.User),
		groups:  make(map[string]models.Group),
		members: make(map[string][]string),
	}
}

func (s *Storage) CreateUser(_ context.Context, user *models.User) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.Login == user.Login {
			return nil, apperrors.ErrUserAlreadyExists
		}
	}

	user.ID = uuid.New().String()
	s.users[user.ID] = *user
	stored := *user
	return &stored, nil
}

func (s *Storage) GetUserByID(_ context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, exists := s.users[id]
	if !exists {
		return nil, &apperrors.FindUserError{ID: id}
	}
	return &user, nil
}

func (s *Storage) GetUserByLogin(_ context.Context, login string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, user := range s.users {
		if user.Login == login && !user.IsDeleted {
			found := user
			return &found, nil
		}
	}
	return nil, nil
}

func (s *Storage) UpdateUser(_ context.Context, id string, updates models.UserUpdates) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, exists := s.users[id]
	if !exists {
		return nil, &apperrors.FindUserError{ID: id}
	}

	if updates.Login != nil {
		user.Login = *updates.Login
	}
	if updates.Password != nil {
		user.Password = *updates.Password
	}
	if updates.Age != nil {
		user.Age = *updates.Age
	}
	if updates.IsDeleted != nil {
		user.IsDeleted = *updates.IsDeleted
	}

	s.users[id] = user
	return &user, nil
}

func (s *Storage) ListUsers(_ context.Context, loginSubstring string, limit int) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := []models.User{}
	for _, user := range s.users {
		if loginSubstring != "" && !strings.Contains(user.Login, loginSubstring) {
			continue
		}
		users = append(users, user)
	}

	sort.Slice(users, func(i, j int) bool { return users[i].Login < users[j].Login })

	if limit > 0 && len(users) > limit {
		users = users[:limit]
	}
	return users, nil
}

func (s *Storage) CreateGroup(_ context.Context, group *models.Group) (*models.Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	group.ID = uuid.New().String()
	if group.Users == nil {
		group.Users = []models.User{}
	}
	s.groups[group.ID] = *group
	stored := *group
	return &stored, nil
}

func (s *Storage) GetGroupByID(_ context.Context, id string) (*models.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.groupWithMembers(id)
}

func (s *Storage) UpdateGroup(_ context.Context, id string, updates models.GroupUpdates) (*models.Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	group, exists := s.groups[id]
	if !exists {
		return nil, &apperrors.FindGroupError{ID: id}
	}

	if updates.Name != nil {
		group.Name = *updates.Name
	}
	if updates.Permissions != nil {
		group.Permissions = updates.Permissions
	}

	s.groups[id] = group
	return s.groupWithMembers(id)
}

func (s *Storage) DeleteGroup(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.groups[id]; !exists {
		return &apperrors.FindGroupError{ID: id}
	}
	delete(s.groups, id)
	delete(s.members, id)
	return nil
}

func (s *Storage) ListGroups(_ context.Context) ([]models.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	groups := []models.Group{}
	for id := range s.groups {
		group, err := s.groupWithMembers(id)
		if err != nil {
			return nil, err
		}
		groups = append(groups, *group)
	}

	sort.Slice(groups, func(i, j int) bool { return groups[i].Name < groups[j].Name })
	return groups, nil
}

func (s *Storage) ReplaceGroupUsers(_ context.Context, groupID string, userIDs []string) (*models.Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.groups[groupID]; !exists {
		return nil, &apperrors.FindGroupError{ID: groupID}
	}
	for _, id := range userIDs {
		if _, exists := s.users[id]; !exists {
			return nil, &apperrors.FindUserError{ID: id}
		}
	}

	s.members[groupID] = append([]string(nil), userIDs...)
	return s.groupWithMembers(groupID)
}

// groupWithMembers must be called with the lock held.
func (s *Storage) groupWithMembers(id string) (*models.Group, error) {
	group, exists := s.groups[id]
	if !exists {
		return nil, &apperrors.FindGroupError{ID: id}
	}

	group.Users = []models.User{}
	for _, userID := range s.members[id] {
		if user, ok := s.users[userID]; ok {
			group.Users = append(group.Users, user)
		}
	}
	return &group, nil
}
