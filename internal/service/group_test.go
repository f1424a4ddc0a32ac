package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "usergroups/internal/domain/errors"
	"usergroups/internal/domain/models"
	storage "usergroups/repository/inmemory"
)

func newGroupService() (*GroupService, *UserService) {
	store := storage.NewStorage()
	return NewGroupService(store, store), NewUserService(store)
}

func createTestGroup(t *testing.T, svc *GroupService, name string) *models.Group {
	t.Helper()
	created, err := svc.CreateGroup(context.Background(), &models.Group{
		Name:        name,
		Permissions: []models.Permission{models.PermissionRead},
	})
	require.NoError(t, err)
	return created
}

func TestCreateAndGetGroup(t *testing.T) {
	groups, _ := newGroupService()

	created := createTestGroup(t, groups, "grp1")
	require.NotEmpty(t, created.ID)

	got, err := groups.GetGroupByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "grp1", got.Name)
	assert.Equal(t, []models.Permission{models.PermissionRead}, got.Permissions)
}

func TestGetGroupByID_Unknown(t *testing.T) {
	groups, _ := newGroupService()

	_, err := groups.GetGroupByID(context.Background(), "missing-id")
	var findErr *apperrors.FindGroupError
	require.ErrorAs(t, err, &findErr)
	assert.Equal(t, "no group with id: missing-id", err.Error())
}

func TestUpdateGroup_PatchesOnlyGivenFields(t *testing.T) {
	groups, _ := newGroupService()
	created := createTestGroup(t, groups, "grp1")

	perms := []models.Permission{models.PermissionRead, models.PermissionWrite}
	updated, err := groups.UpdateGroup(context.Background(), created.ID, models.GroupUpdates{Permissions: perms})
	require.NoError(t, err)

	assert.Equal(t, "grp1", updated.Name)
	assert.Equal(t, perms, updated.Permissions)
}

func TestDeleteGroup_IsPhysical(t *testing.T) {
	groups, _ := newGroupService()
	created := createTestGroup(t, groups, "grp1")

	require.NoError(t, groups.DeleteGroup(context.Background(), created.ID))

	_, err := groups.GetGroupByID(context.Background(), created.ID)
	var findErr *apperrors.FindGroupError
	assert.ErrorAs(t, err, &findErr)
}

func TestListGroups_SortedByName(t *testing.T) {
	groups, _ := newGroupService()
	for _, name := range []string{"zeta", "alpha", "middle"} {
		createTestGroup(t, groups, name)
	}

	list, err := groups.ListGroups(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "alpha", list[0].Name)
	assert.Equal(t, "middle", list[1].Name)
	assert.Equal(t, "zeta", list[2].Name)
}

func TestAddUsersToGroup(t *testing.T) {
	t.Run("replaces membership wholesale", func(t *testing.T) {
		groups, users := newGroupService()
		group := createTestGroup(t, groups, "grp1")
		first := createTestUser(t, users, "first")
		second := createTestUser(t, users, "second")

		updated, err := groups.AddUsersToGroup(context.Background(), group.ID, []string{first.ID})
		require.NoError(t, err)
		require.Len(t, updated.Users, 1)
		assert.Equal(t, first.ID, updated.Users[0].ID)

		// A second call replaces, it does not append.
		updated, err = groups.AddUsersToGroup(context.Background(), group.ID, []string{second.ID})
		require.NoError(t, err)
		require.Len(t, updated.Users, 1)
		assert.Equal(t, second.ID, updated.Users[0].ID)
	})

	t.Run("unknown user leaves membership unchanged", func(t *testing.T) {
		groups, users := newGroupService()
		group := createTestGroup(t, groups, "grp1")
		member := createTestUser(t, users, "member")

		_, err := groups.AddUsersToGroup(context.Background(), group.ID, []string{member.ID})
		require.NoError(t, err)

		_, err = groups.AddUsersToGroup(context.Background(), group.ID, []string{member.ID, "missing-id"})
		var findErr *apperrors.FindUserError
		require.ErrorAs(t, err, &findErr)
		assert.Equal(t, "no user with id: missing-id", err.Error())

		got, err := groups.GetGroupByID(context.Background(), group.ID)
		require.NoError(t, err)
		require.Len(t, got.Users, 1)
		assert.Equal(t, member.ID, got.Users[0].ID)
	})

	t.Run("unknown group", func(t *testing.T) {
		groups, users := newGroupService()
		member := createTestUser(t, users, "member")

		_, err := groups.AddUsersToGroup(context.Background(), "missing-id", []string{member.ID})
		var findErr *apperrors.FindGroupError
		assert.ErrorAs(t, err, &findErr)
	})

	t.Run("many users resolved concurrently", func(t *testing.T) {
		groups, users := newGroupService()
		group := createTestGroup(t, groups, "grp1")

		ids := make([]string, 0, 20)
		for i := 0; i < 20; i++ {
			ids = append(ids, createTestUser(t, users, "user"+string(rune('a'+i))).ID)
		}

		updated, err := groups.AddUsersToGroup(context.Background(), group.ID, ids)
		require.NoError(t, err)
		assert.Len(t, updated.Users, 20)
	})
}
