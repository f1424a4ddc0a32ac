package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"usergroups/internal/auth"
	apperrors "usergroups/internal/domain/errors"
	"usergroups/internal/domain/models"
)

type UserService interface {
	CreateUser(ctx context.Context, user *models.User) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	UpdateUser(ctx context.Context, id string, updates models.UserUpdates) (*models.User, error)
	DeleteUser(ctx context.Context, id string) error
	ListUsers(ctx context.Context, loginSubstring string, limit int) ([]models.User, error)
	GetUserByCredentials(ctx context.Context, login, password string) (*models.User, error)
}

type GroupService interface {
	CreateGroup(ctx context.Context, group *models.Group) (*models.Group, error)
	GetGroupByID(ctx context.Context, id string) (*models.Group, error)
	UpdateGroup(ctx context.Context, id string, updates models.GroupUpdates) (*models.Group, error)
	DeleteGroup(ctx context.Context, id string) error
	ListGroups(ctx context.Context) ([]models.Group, error)
	AddUsersToGroup(ctx context.Context, groupID string, userIDs []string) (*models.Group, error)
}

type API struct {
	httpSrv    *http.Server
	users      UserService
	groups     GroupService
	jwtManager *auth.JWTManager
}

func NewAPI(users UserService, groups GroupService, cfg *Config) *API {
	if users == nil || groups == nil {
		return nil
	}

	jwtConfig := auth.NewConfig(cfg.Secret, time.Duration(cfg.ExpiresInMs)*time.Millisecond)

	api := API{
		httpSrv: &http.Server{
			Addr: fmt.Sprintf("%s:%d", cfg.Addr, cfg.Port),
		},
		users:      users,
		groups:     groups,
		jwtManager: auth.NewJWTManager(jwtConfig),
	}

	api.configRoutes()

	return &api
}

func (api *API) Start() error {
	if api.httpSrv.Addr == "" {
		api.httpSrv.Addr = ":3000"
	}
	return api.httpSrv.ListenAndServe()
}

func (api *API) Shutdown(ctx context.Context) error {
	return api.httpSrv.Shutdown(ctx)
}

func (api *API) configRoutes() {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery(), ErrorHandler())

	router.POST("/user/login", CredentialsBodyValidator(), api.login)

	authed := router.Group("/", api.AuthRequired())
	{
		authed.POST("/user", UserBodyValidatorOnCreate(), api.createUser)
		authed.GET("/user/:id", ParamsIDValidator(), api.getUser)
		authed.PUT("/user/:id", UserBodyValidatorOnUpdate(), ParamsIDValidator(), api.updateUser)
		authed.DELETE("/user/:id", ParamsIDValidator(), api.deleteUser)
		authed.GET("/users", QuerySubstringLimitValidator(), api.listUsers)

		authed.POST("/group", GroupBodyValidatorOnCreate(), api.createGroup)
		authed.GET("/group/:id", ParamsIDValidator(), api.getGroup)
		authed.GET("/groups", api.listGroups)
		authed.PUT("/group/:id", GroupBodyValidatorOnUpdate(), ParamsIDValidator(), api.updateGroup)
		authed.DELETE("/group/:id", ParamsIDValidator(), api.deleteGroup)
		authed.POST("/group/:id/addusers", ParamsIDValidator(), GroupRelationsBodyValidator(), api.addUsersToGroup)
	}

	api.httpSrv.Handler = router
}

func (api *API) login(ctx *gin.Context) {
	req := ctx.MustGet(ctxKeyBody).(*models.LoginRequest)

	user, err := api.users.GetUserByCredentials(ctx.Request.Context(), req.Login, req.Password)
	if err != nil {
		_ = ctx.Error(err)
		ctx.Abort()
		return
	}
	if user == nil {
		_ = ctx.Error(apperrors.ErrInvalidCredentials)
		ctx.Abort()
		return
	}

	token, err := api.jwtManager.GenerateToken(user.ID)
	if err != nil {
		_ = ctx.Error(err)
		ctx.Abort()
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"token": token})
}

func (api *API) createUser(ctx *gin.Context) {
	req := ctx.MustGet(ctxKeyBody).(*models.CreateUserRequest)

	user := models.User{
		Login:     req.Login,
		Password:  req.Password,
		Age:       *req.Age,
		IsDeleted: *req.IsDeleted,
	}

	created, err := api.users.CreateUser(ctx.Request.Context(), &user)
	if err != nil {
		_ = ctx.Error(err)
		ctx.Abort()
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"createdUser": created})
}

func (api *API) getUser(ctx *gin.Context) {
	id := ctx.MustGet(ctxKeyID).(string)

	user, err := api.users.GetUserByID(ctx.Request.Context(), id)
	if err != nil {
		_ = ctx.Error(err)
		ctx.Abort()
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"user": user})
}

func (api *API) updateUser(ctx *gin.Context) {
	id := ctx.MustGet(ctxKeyID).(string)
	req := ctx.MustGet(ctxKeyBody).(*models.UpdateUserRequest)

	updates := models.UserUpdates{
		Login:     req.Login,
		Password:  req.Password,
		Age:       req.Age,
		IsDeleted: req.IsDeleted,
	}

	updated, err := api.users.UpdateUser(ctx.Request.Context(), id, updates)
	if err != nil {
		_ = ctx.Error(err)
		ctx.Abort()
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"updatedUser": updated})
}

func (api *API) deleteUser(ctx *gin.Context) {
	id := ctx.MustGet(ctxKeyID).(string)

	if err := api.users.DeleteUser(ctx.Request.Context(), id); err != nil {
		_ = ctx.Error(err)
		ctx.Abort()
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("user with id %s marked as deleted", id)})
}

func (api *API) listUsers(ctx *gin.Context) {
	query := ctx.MustGet(ctxKeyListQuery).(models.ListUsersQuery)

	users, err := api.users.ListUsers(ctx.Request.Context(), query.LoginSubstring, query.Limit)
	if err != nil {
		_ = ctx.Error(err)
		ctx.Abort()
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"users": users})
}

func (api *API) createGroup(ctx *gin.Context) {
	req := ctx.MustGet(ctxKeyBody).(*models.CreateGroupRequest)

	group := models.Group{
		Name:        req.Name,
		Permissions: models.Permissions(req.Permissions),
	}

	created, err := api.groups.CreateGroup(ctx.Request.Context(), &group)
	if err != nil {
		_ = ctx.Error(err)
		ctx.Abort()
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"createdGroup": created})
}

func (api *API) getGroup(ctx *gin.Context) {
	id := ctx.MustGet(ctxKeyID).(string)

	group, err := api.groups.GetGroupByID(ctx.Request.Context(), id)
	if err != nil {
		_ = ctx.Error(err)
		ctx.Abort()
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"group": group})
}

func (api *API) listGroups(ctx *gin.Context) {
	groups, err := api.groups.ListGroups(ctx.Request.Context())
	if err != nil {
		_ = ctx.Error(err)
		ctx.Abort()
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"groups": groups})
}

func (api *API) updateGroup(ctx *gin.Context) {
	id := ctx.MustGet(ctxKeyID).(string)
	req := ctx.MustGet(ctxKeyBody).(*models.UpdateGroupRequest)

	updates := models.GroupUpdates{
		Name:        req.Name,
		Permissions: models.Permissions(req.Permissions),
	}

	updated, err := api.groups.UpdateGroup(ctx.Request.Context(), id, updates)
	if err != nil {
		_ = ctx.Error(err)
		ctx.Abort()
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"updatedGroup": updated})
}

func (api *API) deleteGroup(ctx *gin.Context) {
	id := ctx.MustGet(ctxKeyID).(string)

	if err := api.groups.DeleteGroup(ctx.Request.Context(), id); err != nil {
		_ = ctx.Error(err)
		ctx.Abort()
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("group with id %s deleted", id)})
}

func (api *API) addUsersToGroup(ctx *gin.Context) {
	id := ctx.MustGet(ctxKeyID).(string)
	req := ctx.MustGet(ctxKeyBody).(*models.AddUsersRequest)

	group, err := api.groups.AddUsersToGroup(ctx.Request.Context(), id, req.UsersID)
	if err != nil {
		_ = ctx.Error(err)
		ctx.Abort()
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"createdGroupRelations": group})
}
