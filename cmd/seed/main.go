package main

import (
	"context"
	"os"

	"issue-tracker/internal/config"
	"issue-tracker/internal/database"
	"issue-tracker/internal/features/role"
	"issue-tracker/internal/logger"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

const defaultRolesPath = "cmd/seed/data/roles.yaml"

// Seed upserts the role definitions and then stops the app.
func Seed(
	lc fx.Lifecycle,
	roleRepo role.RoleRepository,
	roleService role.RoleService,
	logger *zap.Logger,
	shutdowner fx.Shutdowner,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				code := 0
				defer func() {
					if err := shutdowner.Shutdown(fx.ExitCode(code)); err != nil {
						logger.Error("Failed to shutdown", zap.Error(err))
					}
				}()

				// Data path assumes running from the module root
				path := defaultRolesPath
				if len(os.Args) > 1 {
					path = os.Args[1]
				}

				logger.Info("Starting role seeding", zap.String("file", path))
				roles, err := loadRoles(path)
				if err != nil {
					logger.Error("Failed to read roles", zap.Error(err))
					code = 1
					return
				}

				ctx := context.Background()
				if err := roleRepo.EnsureIndexes(ctx); err != nil {
					logger.Warn("Failed to ensure role indexes", zap.Error(err))
				}

				for i := range roles {
					r := &roles[i]
					created, err := roleService.SaveRole(ctx, r)
					if err != nil {
						logger.Error("Failed to save role", zap.String("role", r.Name), zap.Error(err))
						code = 1
						continue
					}
					if created {
						logger.Info("Role created", zap.String("role", r.Name), zap.Strings("granted", r.Granted()))
					} else {
						logger.Info("Role updated", zap.String("role", r.Name))
					}
				}
				logger.Info("Seeding complete", zap.Int("roles", len(roles)))
			}()
			return nil
		},
	})
}

func main() {
	app := fx.New(
		fx.Provide(
			config.LoadConfig,
			logger.NewLogger,
			database.NewDatabase,
			role.NewRoleRepository,
			role.NewRoleService,
		),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log}
		}),
		fx.Invoke(Seed),
	)

	app.Run()
}
