package models

// Permission is one of the fixed permission tags a group may carry.
type Permission string

const (
	PermissionRead        Permission = "READ"
	PermissionWrite       Permission = "WRITE"
	PermissionDelete      Permission = "DELETE"
	PermissionShare       Permission = "SHARE"
	PermissionUploadFiles Permission = "UPLOAD_FILES"
)

type User struct {
	ID        string `json:"id"`
	Login     string `json:"login"`
	Password  string `json:"password"`
	Age       int    `json:"age"`
	IsDeleted bool   `json:"is_deleted"`
}

type Group struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Permissions []Permission `json:"permissions"`
	Users       []User       `json:"users"`
}

// UserUpdates is a field-level patch: only non-nil fields overwrite.
type UserUpdates struct {
	Login     *string `json:"login"`
	Password  *string `json:"password"`
	Age       *int    `json:"age"`
	IsDeleted *bool   `json:"is_deleted"`
}

type GroupUpdates struct {
	Name        *string      `json:"name"`
	Permissions []Permission `json:"permissions"`
}

type LoginRequest struct {
	Login    string `json:"login" validate:"required,min=3"`
	Password string `json:"password" validate:"required,min=3"`
}

type CreateUserRequest struct {
	Login     string `json:"login" validate:"required,min=3"`
	Password  string `json:"password" validate:"required,min=3"`
	Age       *int   `json:"age" validate:"required,gte=0"`
	IsDeleted *bool  `json:"is_deleted" validate:"required"`
}

type UpdateUserRequest struct {
	Login     *string `json:"login" validate:"omitempty,min=3"`
	Password  *string `json:"password" validate:"omitempty,min=3"`
	Age       *int    `json:"age" validate:"omitempty,gte=0"`
	IsDeleted *bool   `json:"is_deleted"`
}

type CreateGroupRequest struct {
	Name        string   `json:"name" validate:"required,min=3"`
	Permissions []string `json:"permissions" validate:"required,dive,oneof=READ WRITE DELETE SHARE UPLOAD_FILES"`
}

type UpdateGroupRequest struct {
	Name        *string  `json:"name" validate:"omitempty,min=3"`
	Permissions []string `json:"permissions" validate:"omitempty,dive,oneof=READ WRITE DELETE SHARE UPLOAD_FILES"`
}

type AddUsersRequest struct {
	UsersID []string `json:"usersId" validate:"required,dive,min=36"`
}

// ListUsersQuery carries the normalized query values for GET /users.
// Limit is zero when the caller did not cap the result.
type ListUsersQuery struct {
	LoginSubstring string
	Limit          int
}

// Permissions converts the validated string slice of a group request.
func Permissions(tags []string) []Permission {
	if tags == nil {
		return nil
	}
	perms := make([]Permission, len(tags))
	for i, tag := range tags {
		perms[i] = Permission(tag)
	}
	return perms
}
