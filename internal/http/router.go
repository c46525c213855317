package http

import (
	"context"
	"log/slog"
	"time"

	"blogpress/internal/auth"
	"blogpress/internal/cache"
	"blogpress/internal/config"
	"blogpress/internal/domain/user"
	"blogpress/internal/http/handlers"
	"blogpress/internal/http/middlewares"
	"blogpress/internal/observability"
	"blogpress/internal/repo/postgres"
	"blogpress/internal/upload"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

const maxJSONBody = 1 << 20

func NewRouter(cfg config.Config, log *slog.Logger, pool *pgxpool.Pool, postCache *cache.PostCache) *gin.Engine {
	if cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}

	RegisterValidations()

	r := gin.New()

	// metrics
	reg := prometheus.NewRegistry()
	prom := observability.NewProm(reg)

	// middleware
	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger(log))
	r.Use(middlewares.SecurityHeaders())
	r.Use(otelgin.Middleware("blogpress"))
	r.Use(prom.GinHandleMiddleware())

	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(middlewares.CORSMiddleware(cfg.CORSAllowedOrigins))
	}

	// health
	ping := func() error {
		if pool == nil {
			return nil
		}

		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
		defer cancel()

		return pool.Ping(ctx)
	}

	h := handlers.NewHealthHandler(ping)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	// uploaded images are public
	r.Static("/uploads", cfg.UploadDir)

	// wire up repositories
	postsRepo := postgres.NewPostsRepo(pool, prom)
	usersRepo := postgres.NewUsersRepo(pool, prom)

	// wire up handlers
	jwtManager := auth.NewManager(cfg.JWTSecret, cfg.AccessTTL())
	authMw := middlewares.NewAuthMiddleware(jwtManager)

	postsHandler := handlers.NewPostsHandler(postsRepo, postCache)
	usersHandler := handlers.NewUsersHandler(usersRepo, jwtManager)

	imageStore := upload.NewStore(cfg.UploadDir, cfg.UploadMaxBytes)
	uploadsHandler := handlers.NewUploadsHandler(imageStore, postsRepo, usersRepo, postCache, prom)

	canWrite := authMw.RequireRole(user.RoleAuthor, user.RoleAdministrator)
	adminOnly := authMw.RequireRole(user.RoleAdministrator)

	requireJSON := middlewares.RequireJSON()
	jsonBodyCap := middlewares.MaxBodyBytes(maxJSONBody)
	uploadBodyCap := middlewares.MaxBodyBytes(cfg.UploadMaxBytes + maxJSONBody)

	// login attempts are throttled per IP, uploads per authenticated user
	loginLimiter := middlewares.NewRateLimiter(10, time.Minute)
	uploadLimiter := middlewares.NewRateLimiter(30, time.Minute)
	uploadThrottle := uploadLimiter.RateLimiterMiddleware(middlewares.KeyByUserOrIP)

	// posts
	posts := r.Group("/postagens")
	{
		posts.GET("", postsHandler.ListPosts)
		posts.GET("/:id", postsHandler.GetPostByID)
		posts.POST("", requireJSON, jsonBodyCap, authMw.RequireAuth(), canWrite, postsHandler.CreatePost)
		posts.PUT("/:id", requireJSON, jsonBodyCap, authMw.RequireAuth(), canWrite, postsHandler.UpdatePost)
		posts.DELETE("/:id", authMw.RequireAuth(), canWrite, postsHandler.DeletePost)
		// multipart, stays out of the JSON middleware chain
		posts.POST("/:id/imagem", uploadBodyCap, authMw.RequireAuth(), canWrite, uploadThrottle, uploadsHandler.PostImage)
	}

	// users
	users := r.Group("/usuarios")
	{
		users.POST("/registro", requireJSON, jsonBodyCap, usersHandler.Register)
		users.POST("/login", requireJSON, jsonBodyCap, loginLimiter.RateLimiterMiddleware(middlewares.KeyByIP), usersHandler.Login)
		users.GET("", authMw.RequireAuth(), adminOnly, usersHandler.ListUsers)
		users.PUT("/:id", requireJSON, jsonBodyCap, authMw.RequireAuth(), usersHandler.UpdateUser)
		users.PUT("/:id/papel", requireJSON, jsonBodyCap, authMw.RequireAuth(), adminOnly, usersHandler.UpdateRole)
		users.DELETE("/:id", authMw.RequireAuth(), adminOnly, usersHandler.DeleteUser)
		users.POST("/:id/imagem", uploadBodyCap, authMw.RequireAuth(), uploadThrottle, uploadsHandler.UserImage)
	}

	return r
}
