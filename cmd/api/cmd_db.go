package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"storefront/internal/config"
	"storefront/internal/domain/model"
	"storefront/internal/infra/db"
	infraRepo "storefront/internal/infra/repository"
	"storefront/internal/repository"
	auth "storefront/internal/usecase/auth_usecase"
	"storefront/internal/validator"
)

// bootDBは設定を読んでDBに接続する
func bootDB() (config.Config, *gorm.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, nil, err
	}
	gormDB, err := db.Connect(cfg)
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, gormDB, nil
}

// storefront migrate
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update database tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, gormDB, err := bootDB()
		if err != nil {
			return err
		}
		fmt.Println("Running migrations…")
		return db.Migrate(gormDB)
	},
}

var (
	seedName     string
	seedEmail    string
	seedPassword string
)

// storefront seed-admin --email ... --password ...
var seedAdminCmd = &cobra.Command{
	Use:   "seed-admin",
	Short: "Create an ADMIN user",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, gormDB, err := bootDB()
		if err != nil {
			return err
		}
		if err := db.Migrate(gormDB); err != nil {
			return err
		}
		hasher := auth.NewBcryptPasswordHasher(cfg.BcryptCost)
		u, err := seedAdmin(cmd.Context(), infraRepo.NewUserGormRepository(gormDB), hasher, seedName, seedEmail, seedPassword)
		if err != nil {
			return err
		}
		fmt.Printf("Created admin %s (id=%d)\n", u.Email, u.ID)
		return nil
	},
}

func init() {
	seedAdminCmd.Flags().StringVar(&seedName, "name", "admin", "display name")
	seedAdminCmd.Flags().StringVar(&seedEmail, "email", "", "admin email")
	seedAdminCmd.Flags().StringVar(&seedPassword, "password", "", "admin password")
	_ = seedAdminCmd.MarkFlagRequired("email")
	_ = seedAdminCmd.MarkFlagRequired("password")
}

func seedAdmin(ctx context.Context, users repository.UserRepository, hasher auth.PasswordHasher, name, email, password string) (*model.User, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if v := validator.Register(name, email, password); !v.Empty() {
		return nil, v
	}

	hashed, err := hasher.Hash(password)
	if err != nil {
		return nil, err
	}
	u := &model.User{Name: name, Email: email, PasswordHash: hashed, Role: model.RoleAdmin}
	if err := users.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, fmt.Errorf("email already exists: %s", email)
		}
		return nil, err
	}
	return u, nil
}
