package service

import (
	"context"
	"sync"

	"usergroups/internal/domain/models"
)

// GroupRepository is the persistence contract the group service relies on.
type GroupRepository interface {
	CreateGroup(ctx context.Context, group *models.Group) (*models.Group, error)
	GetGroupByID(ctx context.Context, id string) (*models.Group, error)
	UpdateGroup(ctx context.Context, id string, updates models.GroupUpdates) (*models.Group, error)
	DeleteGroup(ctx context.Context, id string) error
	ListGroups(ctx context.Context) ([]models.Group, error)
	ReplaceGroupUsers(ctx context.Context, groupID string, userIDs []string) (*models.Group, error)
}

// GroupService is a stateless facade over the group repository. It also
// needs user lookups to verify membership candidates.
type GroupService struct {
	groups GroupRepository
	users  UserRepository
}

func NewGroupService(groups GroupRepository, users UserRepository) *GroupService {
	return &GroupService{groups: groups, users: users}
}

func (s *GroupService) CreateGroup(ctx context.Context, group *models.Group) (*models.Group, error) {
	return s.groups.CreateGroup(ctx, group)
}

func (s *GroupService) GetGroupByID(ctx context.Context, id string) (*models.Group, error) {
	return s.groups.GetGroupByID(ctx, id)
}

func (s *GroupService) UpdateGroup(ctx context.Context, id string, updates models.GroupUpdates) (*models.Group, error) {
	return s.groups.UpdateGroup(ctx, id, updates)
}

// DeleteGroup removes the group physically, membership rows included.
func (s *GroupService) DeleteGroup(ctx context.Context, id string) error {
	return s.groups.DeleteGroup(ctx, id)
}

func (s *GroupService) ListGroups(ctx context.Context) ([]models.Group, error) {
	return s.groups.ListGroups(ctx)
}

// AddUsersToGroup resolves every user id concurrently, fails the whole
// operation if any id is unknown, and then replaces the group's membership
// wholesale in one atomic repository call.
func (s *GroupService) AddUsersToGroup(ctx context.Context, groupID string, userIDs []string) (*models.Group, error) {
	var wg sync.WaitGroup
	lookupErrs := make([]error, len(userIDs))
	for i, id := range userIDs {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			if _, err := s.users.GetUserByID(ctx, id); err != nil {
				lookupErrs[i] = err
			}
		}(i, id)
	}
	wg.Wait()

	for _, err := range lookupErrs {
		if err != nil {
			return nil, err
		}
	}

	return s.groups.ReplaceGroupUsers(ctx, groupID, userIDs)
}
