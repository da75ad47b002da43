package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dedilute/catalog-backend/entity"
	"github.com/dedilute/catalog-backend/repository"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

func newMigrateCommand(rt *adminEnv) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.withDB(cmd, func(db *gorm.DB) error {
				if err := repository.Migrate(db); err != nil {
					return fmt.Errorf("migration failed: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Schema is up to date")
				return nil
			})
		},
	}
}

func addUserFlags(cmd *cobra.Command, withPermission bool) {
	cmd.Flags().String("email", "", "email of the user ("+EnvPrefix+"_EMAIL)")
	if withPermission {
		cmd.Flags().String("permission", "", "permission code or name ("+EnvPrefix+"_PERMISSION)")
	}
}

// target resolves the user and, when asked, the concrete permission name. A
// known abstract code such as ADMIN is translated through the configured mapping.
func (rt *adminEnv) target(ctx context.Context, repo *repository.Repository, withPermission bool) (*entity.User, string, error) {
	email := strings.ToLower(strings.TrimSpace(rt.v.GetString("email")))
	if email == "" {
		return nil, "", errors.New("--email is required")
	}

	var name string
	if withPermission {
		name = strings.TrimSpace(rt.v.GetString("permission"))
		if name == "" {
			return nil, "", errors.New("--permission is required")
		}
		if mapped, ok := rt.cfg.Permission.Mapping[strings.ToUpper(name)]; ok {
			name = mapped
		}
	}

	user, err := repo.UserRepo.FindByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, "", fmt.Errorf("no user with email %s", email)
	}
	if err != nil {
		return nil, "", err
	}
	return user, name, nil
}

func newGrantCommand(rt *adminEnv) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "grant",
		Short: "Grant a permission to a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.withDB(cmd, func(db *gorm.DB) error {
				ctx := cmd.Context()
				repo := repository.NewRepository(db)

				user, name, err := rt.target(ctx, repo, true)
				if err != nil {
					return err
				}
				if err := repo.PermissionRepo.Grant(ctx, user.ID, name); err != nil {
					return fmt.Errorf("failed to grant %s: %w", name, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Granted %s to %s\n", name, user.Email)
				return nil
			})
		},
	}
	addUserFlags(cmd, true)
	return cmd
}

func newRevokeCommand(rt *adminEnv) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "revoke",
		Short: "Revoke a permission from a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.withDB(cmd, func(db *gorm.DB) error {
				ctx := cmd.Context()
				repo := repository.NewRepository(db)

				user, name, err := rt.target(ctx, repo, true)
				if err != nil {
					return err
				}
				removed, err := repo.PermissionRepo.Revoke(ctx, user.ID, name)
				if err != nil {
					return fmt.Errorf("failed to revoke %s: %w", name, err)
				}
				if removed == 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "%s does not hold %s\n", user.Email, name)
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Revoked %s from %s\n", name, user.Email)
				return nil
			})
		},
	}
	addUserFlags(cmd, true)
	return cmd
}

func newPermissionsCommand(rt *adminEnv) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "permissions",
		Short: "List the permissions a user holds",
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.withDB(cmd, func(db *gorm.DB) error {
				ctx := cmd.Context()
				repo := repository.NewRepository(db)

				user, _, err := rt.target(ctx, repo, false)
				if err != nil {
					return err
				}
				names, err := repo.PermissionRepo.ListNames(ctx, user.ID)
				if err != nil {
					return err
				}
				if len(names) == 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "%s holds no permissions\n", user.Email)
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", user.Email, strings.Join(names, ", "))
				return nil
			})
		},
	}
	addUserFlags(cmd, false)
	return cmd
}
