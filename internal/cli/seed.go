package cli

import (
	"fmt"

	"course-authoring-service/internal/auth"
	"course-authoring-service/internal/domain"
	"course-authoring-service/internal/infra/postgres"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/spf13/cobra"
)

const demoPassword = "password123"

// NewSeedCmd inserts a demo instructor and student.
func NewSeedCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert demo users into Postgres",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			defer log.Sync()
			if cfg.Postgres.URL == "" {
				return fmt.Errorf("postgres url not configured")
			}
			ctx := cmd.Context()
			if err := runMigrations(ctx, cfg, log); err != nil {
				return err
			}
			pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
			if err != nil {
				return fmt.Errorf("connect postgres: %w", err)
			}
			defer pool.Close()

			users, err := demoUsers()
			if err != nil {
				return err
			}
			dir := postgres.NewUserDirectory(pool)
			for _, u := range users {
				id, err := dir.Upsert(ctx, u)
				if err != nil {
					return err
				}
				log.Info("seeded user", "id", id, "email", u.Email, "role", u.Role)
			}
			return nil
		},
	}
}

// demoUsers share one password so the API can be tried right away.
func demoUsers() ([]domain.User, error) {
	hash, err := auth.HashPassword(demoPassword)
	if err != nil {
		return nil, err
	}
	return []domain.User{
		{ID: 1, Name: "Paulo", Email: "paulo@alura.com.br", PasswordHash: hash, Role: domain.RoleInstructor},
		{ID: 2, Name: "Caio", Email: "caio@alura.com.br", PasswordHash: hash, Role: domain.RoleStudent},
	}, nil
}

