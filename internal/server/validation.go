package server

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator"

	apperrors "usergroups/internal/domain/errors"
	"usergroups/internal/domain/models"
)

// Request channels. Each has its own schema per route and its own prefix in
// the composed validation message.
const (
	channelParams = "params"
	channelQuery  = "query"
	channelBody   = "body"
)

const (
	ctxKeyBody      = "validatedBody"
	ctxKeyID        = "validatedID"
	ctxKeyListQuery = "validatedListQuery"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

type pathParams struct {
	ID string `json:"id" validate:"required,min=36"`
}

type listUsersQueryParams struct {
	LoginSubstring string `json:"loginsubstring" validate:"omitempty,max=10"`
	Limit          string `json:"limit" validate:"omitempty,numeric"`
}

// ParamsIDValidator checks the :id path parameter and stores the accepted
// value in the request context.
func ParamsIDValidator() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		params := pathParams{ID: ctx.Param("id")}
		if err := validate.Struct(params); err != nil {
			abortWithValidation(ctx, channelParams, err)
			return
		}
		ctx.Set(ctxKeyID, params.ID)
		ctx.Next()
	}
}

// QuerySubstringLimitValidator checks the loginsubstring/limit query pair
// and stores the coerced values for GET /users.
func QuerySubstringLimitValidator() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		raw := listUsersQueryParams{
			LoginSubstring: ctx.Query("loginsubstring"),
			Limit:          ctx.Query("limit"),
		}
		if err := validate.Struct(raw); err != nil {
			abortWithValidation(ctx, channelQuery, err)
			return
		}

		query := models.ListUsersQuery{LoginSubstring: raw.LoginSubstring}
		if raw.Limit != "" {
			query.Limit, _ = strconv.Atoi(raw.Limit)
		}
		ctx.Set(ctxKeyListQuery, query)
		ctx.Next()
	}
}

func CredentialsBodyValidator() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		var req models.LoginRequest
		if !bindBody(ctx, &req) {
			return
		}
		ctx.Set(ctxKeyBody, &req)
		ctx.Next()
	}
}

func UserBodyValidatorOnCreate() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		var req models.CreateUserRequest
		if !bindBody(ctx, &req) {
			return
		}
		ctx.Set(ctxKeyBody, &req)
		ctx.Next()
	}
}

func UserBodyValidatorOnUpdate() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		var req models.UpdateUserRequest
		if !bindBody(ctx, &req) {
			return
		}
		ctx.Set(ctxKeyBody, &req)
		ctx.Next()
	}
}

func GroupBodyValidatorOnCreate() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		var req models.CreateGroupRequest
		if !bindBody(ctx, &req) {
			return
		}
		ctx.Set(ctxKeyBody, &req)
		ctx.Next()
	}
}

func GroupBodyValidatorOnUpdate() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		var req models.UpdateGroupRequest
		if !bindBody(ctx, &req) {
			return
		}
		ctx.Set(ctxKeyBody, &req)
		ctx.Next()
	}
}

func GroupRelationsBodyValidator() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		var req models.AddUsersRequest
		if !bindBody(ctx, &req) {
			return
		}
		ctx.Set(ctxKeyBody, &req)
		ctx.Next()
	}
}

func bindBody(ctx *gin.Context, req any) bool {
	if err := ctx.ShouldBindJSON(req); err != nil {
		_ = ctx.Error(&apperrors.ValidationError{
			Message: fmt.Sprintf("Error validating request %s. Invalid JSON payload.", channelBody),
		})
		ctx.Abort()
		return false
	}
	if err := validate.Struct(req); err != nil {
		abortWithValidation(ctx, channelBody, err)
		return false
	}
	return true
}

func abortWithValidation(ctx *gin.Context, channel string, err error) {
	_ = ctx.Error(&apperrors.ValidationError{Message: validationMessage(channel, err)})
	ctx.Abort()
}

// validationMessage joins one sentence per violated field, in schema field
// order, e.g.
//
//	Error validating request body. "name" length must be at least 3 characters long.
func validationMessage(channel string, err error) string {
	var sb strings.Builder
	sb.WriteString("Error validating request ")
	sb.WriteString(channel)
	sb.WriteString(".")

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		sb.WriteString(" Invalid payload.")
		return sb.String()
	}
	for _, fe := range verrs {
		sb.WriteString(fmt.Sprintf(" %q %s.", fieldPath(fe), constraintText(fe)))
	}
	return sb.String()
}

// fieldPath strips the request struct name, keeping array indexes, so a bad
// second element reads usersId[1].
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func constraintText(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("length must be at least %s characters long", fe.Param())
		}
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("length must be less than or equal to %s characters long", fe.Param())
		}
		return fmt.Sprintf("must be less than or equal to %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	case "numeric":
		return "must be a number"
	case "oneof":
		return "must be one of [READ, WRITE, DELETE, SHARE, UPLOAD_FILES]"
	default:
		return fmt.Sprintf("failed the %s constraint", fe.Tag())
	}
}
