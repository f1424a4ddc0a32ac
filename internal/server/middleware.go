package server

import (
	"errors"
	"log"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	apperrors "usergroups/internal/domain/errors"
)

// AuthHeader carries the raw bearer token; the login route is the only one
// reachable without it.
const AuthHeader = "jwt-access-token"

const ctxKeyUserID = "user_id"

// exitProcess is swapped out in tests; a lost database is otherwise fatal.
var exitProcess = func() { os.Exit(1) }

// AuthRequired rejects requests without a token (403) or with a token that
// fails verification (401), and puts the authenticated user id on the
// context otherwise.
func (api *API) AuthRequired() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		tokenString := ctx.GetHeader(AuthHeader)
		if tokenString == "" {
			_ = ctx.Error(apperrors.ErrNoToken)
			ctx.Abort()
			return
		}

		claims, err := api.jwtManager.ParseToken(tokenString)
		if err != nil {
			_ = ctx.Error(apperrors.ErrFailedToken)
			ctx.Abort()
			return
		}

		ctx.Set(ctxKeyUserID, claims.UserID)
		ctx.Next()
	}
}

// GetUserID returns the authenticated user's id set by AuthRequired.
func GetUserID(ctx *gin.Context) string {
	userID, exists := ctx.Get(ctxKeyUserID)
	if !exists {
		return ""
	}
	return userID.(string)
}

// ErrorHandler is the terminal mapper: it logs whatever failure propagated
// from any earlier stage and writes the mapped status with the failure
// message as a plain-text body.
func ErrorHandler() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		ctx.Next()

		if len(ctx.Errors) == 0 {
			return
		}
		err := ctx.Errors.Last().Err
		log.Println("[ERROR]", err)

		if ctx.Writer.Written() {
			return
		}

		var (
			dbInitErr *apperrors.DBInitializationError
			userErr   *apperrors.FindUserError
			groupErr  *apperrors.FindGroupError
			valErr    *apperrors.ValidationError
		)
		switch {
		case errors.As(err, &dbInitErr):
			ctx.String(http.StatusInternalServerError, err.Error())
			exitProcess()
		case errors.Is(err, apperrors.ErrInvalidCredentials), errors.Is(err, apperrors.ErrFailedToken):
			ctx.String(http.StatusUnauthorized, err.Error())
		case errors.Is(err, apperrors.ErrNoToken):
			ctx.String(http.StatusForbidden, err.Error())
		case errors.As(err, &userErr), errors.As(err, &groupErr):
			ctx.String(http.StatusNotFound, err.Error())
		case errors.As(err, &valErr):
			ctx.String(http.StatusBadRequest, err.Error())
		default:
			ctx.String(http.StatusInternalServerError, err.Error())
		}
	}
}
