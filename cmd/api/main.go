package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	common_api "issue-tracker/internal/common/api"
	"issue-tracker/internal/common/errs"
	"issue-tracker/internal/config"
	"issue-tracker/internal/credential"
	"issue-tracker/internal/database"
	"issue-tracker/internal/features/audit"
	"issue-tracker/internal/features/auth"
	"issue-tracker/internal/features/bug"
	"issue-tracker/internal/features/permission"
	"issue-tracker/internal/features/role"
	"issue-tracker/internal/features/system"
	"issue-tracker/internal/features/user"
	"issue-tracker/internal/logger"
	"issue-tracker/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

// NewFiberServer creates a new Fiber app instance
func NewFiberServer(cfg *config.Config, log *zap.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := errs.HTTPStatus(err)
			if code >= fiber.StatusInternalServerError {
				log.Error("request failed",
					zap.String("method", c.Method()),
					zap.String("path", c.Path()),
					zap.Error(err),
				)
			}
			return c.Status(code).JSON(fiber.Map{
				"error": errs.PublicMessage(err),
			})
		},
	})

	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.RequestLogger(log))
	app.Use(middleware.CORSMiddleware(cfg))

	return app
}

// AsRoute is a helper function to reduce boilerplate.
// It tags the constructor so Fx knows to add it to the "routes" group.
func AsRoute(f any) any {
	return fx.Annotate(
		f,
		fx.As(new(common_api.Route)),    // Cast to Interface
		fx.ResultTags(`group:"routes"`), // Add to Group
	)
}

// RegisterAllRoutes takes the group "routes" (slice of interfaces)
// and calls Setup() on each one.
func RegisterAllRoutes(app *fiber.App, routes []common_api.Route, log *zap.Logger) {
	log.Info("Registering routes", zap.Int("count", len(routes)))
	for _, route := range routes {
		log.Debug("Setting up route", zap.String("api", fmt.Sprintf("%T", route)))
		route.Setup(app)
	}

	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Sorry couldn't find " + c.OriginalURL(),
		})
	})
	log.Info("All routes registered successfully")
}

// RegisterAllRoutesWithAnnotation wraps RegisterAllRoutes with fx annotations
var RegisterAllRoutesWithAnnotation = fx.Annotate(
	RegisterAllRoutes,
	fx.ParamTags(``, `group:"routes"`, ``),
)

// StartServer creates a lifecycle hook to start Fiber in a goroutine
// and shut it down when the app exits.
func StartServer(lc fx.Lifecycle, app *fiber.App, cfg *config.Config, log *zap.Logger, shutdowner fx.Shutdowner) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if cfg.JWTSecret == "" {
				return errors.New("JWT_SECRET is not set")
			}
			go func() {
				port := fmt.Sprintf(":%s", cfg.Port)
				log.Info("Server listening", zap.String("addr", port))
				if err := app.Listen(port); err != nil {
					log.Error("Server failed to start", zap.Error(err))
					_ = shutdowner.Shutdown(fx.ExitCode(1))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return app.ShutdownWithContext(ctx)
		},
	})
}

// indexer is anything that can create its collection indexes.
type indexer interface {
	EnsureIndexes(ctx context.Context) error
}

// InitializeIndexes ensures that necessary database indexes are created.
// User indexes back the unique email rule, so startup fails without them.
func InitializeIndexes(lc fx.Lifecycle, userRepo user.UserRepository, roleRepo role.RoleRepository, bugRepo bug.BugRepository, log *zap.Logger) {
	registerIndexHooks(lc, []indexer{userRepo}, []indexer{roleRepo, bugRepo}, log)
}

// registerIndexHooks builds required indexes before the server starts and
// the rest in the background.
func registerIndexHooks(lc fx.Lifecycle, required, background []indexer, log *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			for _, idx := range required {
				if err := idx.EnsureIndexes(ctx); err != nil {
					return fmt.Errorf("ensure %T indexes: %w", idx, err)
				}
			}

			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()

				for _, idx := range background {
					if err := idx.EnsureIndexes(ctx); err != nil {
						log.Warn("Failed to ensure indexes", zap.String("repo", fmt.Sprintf("%T", idx)), zap.Error(err))
					}
				}
			}()
			return nil
		},
	})
}

// subjectAdapter exposes users to the permission resolver.
type subjectAdapter struct {
	users user.UserService
}

func (a *subjectAdapter) SubjectByID(ctx context.Context, id primitive.ObjectID) (permission.Subject, error) {
	u, err := a.users.GetUser(ctx, id)
	if err != nil {
		return permission.Subject{}, err
	}
	return auth.SubjectOf(u), nil
}

// @title           Issue Tracker API
// @version         1.0
// @description     Bug tracking backend built on Fiber, Uber Fx and MongoDB.

// @host            localhost:5001
// @BasePath        /api
func main() {
	app := fx.New(
		fx.Provide(
			// Load Config
			config.LoadConfig,

			// Initialize Logger
			logger.NewLogger,

			// Initialize Fiber Server
			NewFiberServer,

			// Initialize Database
			database.NewDatabase,

			// Initialize Repository
			audit.NewAuditRepository,
			role.NewRoleRepository,
			user.NewUserRepository,
			bug.NewBugRepository,

			audit.NewAuditService,
			audit.NewRecorder,
			credential.NewService,
			role.NewRoleService,
			user.NewUserService,
			bug.NewBugService,
			bug.NewExporter,
			auth.NewAuthService,
			permission.NewResolver,

			// Interface Adapters to break circular dependencies and satisfy Fx
			func(s role.RoleService) permission.RoleLookup { return s },
			func(s user.UserService) permission.SubjectLookup { return &subjectAdapter{users: s} },
			func(s user.UserService) bug.AssigneeLookup { return s },
			func(r *permission.Resolver) middleware.PermissionResolver { return r },
			func(r *permission.Resolver) auth.SubjectResolver { return r },

			middleware.NewAuthenticator,
			middleware.NewGate,

			// Initialize Controller
			auth.NewAuthController,
			user.NewUserController,
			role.NewRoleController,
			bug.NewBugController,
			system.NewSystemController,

			// Initialize API Routes
			AsRoute(auth.NewAuthApi),
			AsRoute(user.NewUserApi),
			AsRoute(role.NewRoleApi),
			AsRoute(bug.NewBugApi),
			AsRoute(system.NewSystemApi),
		),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log}
		}),
		fx.Invoke(
			// Register Routes & Start
			RegisterAllRoutesWithAnnotation,
			StartServer,
			InitializeIndexes,
		),
	)

	app.Run()
}
