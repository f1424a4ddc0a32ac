package errors

import (
	"errors"
	"fmt"
)

var (
	ErrNoToken            = errors.New("No jwt token provided")
	ErrFailedToken        = errors.New("Failed jwt token")
	ErrInvalidCredentials = errors.New("Bad Username/Password combination")
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrInternalServer     = errors.New("internal server error")

	ErrConfigFileReadFailed = errors.New("failed to read config file")
	ErrConfigParseFailed    = errors.New("failed to parse config file")
	ErrConfigInvalidFormat  = errors.New("invalid config value")
)

// FindUserError reports a user id that resolved to no record.
type FindUserError struct {
	ID string
}

func (e *FindUserError) Error() string {
	return fmt.Sprintf("no user with id: %s", e.ID)
}

// FindGroupError reports a group id that resolved to no record.
type FindGroupError struct {
	ID string
}

func (e *FindGroupError) Error() string {
	return fmt.Sprintf("no group with id: %s", e.ID)
}

// ValidationError carries the pre-composed per-channel validation message.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// DBInitializationError is fatal: the service cannot run without storage.
type DBInitializationError struct {
	Err error
}

func (e *DBInitializationError) Error() string {
	return fmt.Sprintf("database initialization failed: %v", e.Err)
}

func (e *DBInitializationError) Unwrap() error {
	return e.Err
}
