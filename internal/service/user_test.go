package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	apperrors "usergroups/internal/domain/errors"
	"usergroups/internal/domain/models"
	storage "usergroups/repository/inmemory"
)

func newUserService() *UserService {
	return NewUserService(storage.NewStorage())
}

func createTestUser(t *testing.T, svc *UserService, login string) *models.User {
	t.Helper()
	created, err := svc.CreateUser(context.Background(), &models.User{
		Login:    login,
		Password: "password1234",
		Age:      30,
	})
	require.NoError(t, err)
	return created
}

func TestCreateUser_HashesPassword(t *testing.T) {
	svc := newUserService()

	created := createTestUser(t, svc, "log123")

	assert.NotEmpty(t, created.ID)
	assert.NotEqual(t, "password1234", created.Password)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(created.Password), []byte("password1234")))
}

func TestCreateUser_DuplicateLogin(t *testing.T) {
	svc := newUserService()
	createTestUser(t, svc, "log123")

	_, err := svc.CreateUser(context.Background(), &models.User{Login: "log123", Password: "otherpass", Age: 20})
	assert.ErrorIs(t, err, apperrors.ErrUserAlreadyExists)
}

func TestGetUserByCredentials(t *testing.T) {
	svc := newUserService()
	created := createTestUser(t, svc, "log123")

	t.Run("matching credentials", func(t *testing.T) {
		user, err := svc.GetUserByCredentials(context.Background(), "log123", "password1234")
		require.NoError(t, err)
		require.NotNil(t, user)
		assert.Equal(t, created.ID, user.ID)
	})

	t.Run("wrong password returns nil without error", func(t *testing.T) {
		user, err := svc.GetUserByCredentials(context.Background(), "log123", "wrongpass")
		require.NoError(t, err)
		assert.Nil(t, user)
	})

	t.Run("unknown login returns nil without error", func(t *testing.T) {
		user, err := svc.GetUserByCredentials(context.Background(), "nobody", "password1234")
		require.NoError(t, err)
		assert.Nil(t, user)
	})

	t.Run("deleted user cannot log in", func(t *testing.T) {
		require.NoError(t, svc.DeleteUser(context.Background(), created.ID))

		user, err := svc.GetUserByCredentials(context.Background(), "log123", "password1234")
		require.NoError(t, err)
		assert.Nil(t, user)
	})
}

func TestDeleteUser_IsSoft(t *testing.T) {
	svc := newUserService()
	created := createTestUser(t, svc, "log123")

	require.NoError(t, svc.DeleteUser(context.Background(), created.ID))

	// The record is still readable, only flagged.
	user, err := svc.GetUserByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.True(t, user.IsDeleted)
}

func TestDeleteUser_Unknown(t *testing.T) {
	svc := newUserService()

	err := svc.DeleteUser(context.Background(), "missing-id")
	var findErr *apperrors.FindUserError
	require.ErrorAs(t, err, &findErr)
	assert.Equal(t, "no user with id: missing-id", err.Error())
}

func TestUpdateUser_PatchesOnlyGivenFields(t *testing.T) {
	svc := newUserService()
	created := createTestUser(t, svc, "log123")

	newAge := 42
	updated, err := svc.UpdateUser(context.Background(), created.ID, models.UserUpdates{Age: &newAge})
	require.NoError(t, err)

	assert.Equal(t, 42, updated.Age)
	assert.Equal(t, "log123", updated.Login)
	assert.Equal(t, created.Password, updated.Password)
	assert.False(t, updated.IsDeleted)
}

func TestUpdateUser_RehashesPassword(t *testing.T) {
	svc := newUserService()
	created := createTestUser(t, svc, "log123")

	newPassword := "newpassword1"
	updated, err := svc.UpdateUser(context.Background(), created.ID, models.UserUpdates{Password: &newPassword})
	require.NoError(t, err)

	assert.NotEqual(t, "newpassword1", updated.Password)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(updated.Password), []byte("newpassword1")))
}

func TestListUsers(t *testing.T) {
	svc := newUserService()
	for _, login := range []string{"log_str", "other", "login_string", "log123"} {
		createTestUser(t, svc, login)
	}

	t.Run("sorted ascending by login", func(t *testing.T) {
		users, err := svc.ListUsers(context.Background(), "", 0)
		require.NoError(t, err)
		require.Len(t, users, 4)
		assert.Equal(t, "log123", users[0].Login)
		assert.Equal(t, "log_str", users[1].Login)
		assert.Equal(t, "login_string", users[2].Login)
		assert.Equal(t, "other", users[3].Login)
	})

	t.Run("case-sensitive substring filter", func(t *testing.T) {
		users, err := svc.ListUsers(context.Background(), "log", 0)
		require.NoError(t, err)
		require.Len(t, users, 3)
		for _, u := range users {
			assert.Contains(t, u.Login, "log")
		}
	})

	t.Run("limit caps the result", func(t *testing.T) {
		users, err := svc.ListUsers(context.Background(), "log", 1)
		require.NoError(t, err)
		require.Len(t, users, 1)
		assert.Equal(t, "log123", users[0].Login)
	})

	t.Run("order-stable across calls", func(t *testing.T) {
		first, err := svc.ListUsers(context.Background(), "", 0)
		require.NoError(t, err)
		second, err := svc.ListUsers(context.Background(), "", 0)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})
}
