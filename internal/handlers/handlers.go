package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"profilehub/api/internal/apperr"
	"profilehub/api/internal/config"
	"profilehub/api/internal/middleware"
	"profilehub/api/internal/models"
	"profilehub/api/internal/repository"
	"profilehub/api/internal/service"
	"profilehub/api/internal/storage"
)

type HandlerSet struct {
	log         zerolog.Logger
	cfg         *config.AppConfig
	authService *service.AuthService
	userService *service.UserService
	db          *pgxpool.Pool
	cache       *redis.Client
	store       *storage.ObjectStore
}

func NewHandlerSet(log zerolog.Logger, db *pgxpool.Pool, cache *redis.Client, store *storage.ObjectStore, cfg *config.AppConfig) HandlerSet {
	authRepo := repository.NewAuthRepository(db, log)
	profileRepo := repository.NewProfileRepository(db, log)
	auth := service.NewAuthService(authRepo, cfg, log)
	users := service.NewUserService(profileRepo, log)

	return HandlerSet{
		log:         log,
		cfg:         cfg,
		authService: auth,
		userService: users,
		db:          db,
		cache:       cache,
		store:       store,
	}
}

func (h HandlerSet) Routes(router *gin.RouterGroup) {
	router.GET("/healthz", h.Health)

	v1 := router.Group("/v1")

	auth := v1.Group("/auth")
	auth.POST("/register", h.Register)
	auth.POST("/login", h.Login)
	auth.POST("/refresh-token", h.Refresh)
	auth.POST("/reset-password", h.ResetPassword)

	authed := v1.Group("/auth")
	authed.Use(middleware.Auth(h.cfg, h.authService))
	authed.POST("/logout", h.Logout)
	authed.GET("/me", h.Me)

	adminAuth := v1.Group("/auth")
	adminAuth.Use(
		middleware.Auth(h.cfg, h.authService),
		middleware.RequireRoles(models.AccountRoleAdmin),
	)
	adminAuth.POST("/users/:id/change-password", h.ChangePassword)

	users := v1.Group("/users")
	users.GET("", h.ListUsers)
	users.GET("/:id", h.GetUser)
	users.GET("/:id/followers", h.Followers)
	users.GET("/:id/following", h.Following)

	usersAuthed := v1.Group("/users")
	usersAuthed.Use(middleware.Auth(h.cfg, h.authService))
	usersAuthed.PATCH("/me", h.UpdateProfile)
	usersAuthed.POST("/me/avatar", h.UploadAvatar)
	usersAuthed.POST("/:id/follow", h.Follow)
	usersAuthed.DELETE("/:id/follow", h.Unfollow)

	usersAdmin := v1.Group("/users")
	usersAdmin.Use(
		middleware.Auth(h.cfg, h.authService),
		middleware.RequireRoles(models.AccountRoleAdmin),
	)
	usersAdmin.DELETE("/:id", h.DeleteUser)
}

// respondError maps a service failure to its HTTP status and
// machine-readable code without parsing the message.
func respondError(c *gin.Context, err error) {
	c.JSON(apperr.StatusOf(err), gin.H{
		"error": gin.H{
			"code":    string(apperr.KindOf(err)),
			"message": apperr.MessageOf(err),
		},
	})
}

func respondKind(c *gin.Context, kind apperr.Kind, message string) {
	respondError(c, apperr.New(kind, message))
}

func currentAccount(c *gin.Context) (models.Account, bool) {
	accountVal, exists := c.Get(middleware.ContextAccount)
	if !exists {
		return models.Account{}, false
	}
	account, ok := accountVal.(models.Account)
	return account, ok
}
