package cli

import (
	"fmt"
	"strings"

	"github.com/dedilute/catalog-backend/config"
	"github.com/dedilute/catalog-backend/infra"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gorm.io/gorm"
)

// EnvPrefix namespaces the environment variables that stand in for flags,
// e.g. CATALOG_ADMIN_EMAIL for --email.
const EnvPrefix = "CATALOG_ADMIN"

// DBOpener returns a database handle and its closer.
type DBOpener func(cfg *config.EnvConfig) (*gorm.DB, func() error, error)

// OpenDatabase connects with the same settings the HTTP server uses.
func OpenDatabase(cfg *config.EnvConfig) (*gorm.DB, func() error, error) {
	client, err := infra.InitPostgresClient(cfg)
	if err != nil {
		return nil, nil, err
	}
	return client.DB, client.Close, nil
}

type adminEnv struct {
	open DBOpener
	v    *viper.Viper
	cfg  *config.EnvConfig
}

// withDB binds the command's flags, opens the database and runs fn.
func (rt *adminEnv) withDB(cmd *cobra.Command, fn func(db *gorm.DB) error) error {
	if err := rt.v.BindPFlags(cmd.Flags()); err != nil {
		return err
	}
	db, closeDB, err := rt.open(rt.cfg)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer closeDB()
	return fn(db)
}

func NewRootCommand(open DBOpener) *cobra.Command {
	var envFile string
	rt := &adminEnv{open: open, v: viper.New()}

	cmd := &cobra.Command{
		Use:           "admin",
		Short:         "Catalog backend administration",
		Long:          "Operator tasks for the catalog backend: schema migration and permission assignment.",
		SilenceErrors: true,
		SilenceUsage:  true,

		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if envFile != "" {
				if err := godotenv.Load(envFile); err != nil {
					return fmt.Errorf("failed to load %s: %w", envFile, err)
				}
			} else {
				_ = godotenv.Load()
			}

			rt.v.SetEnvPrefix(EnvPrefix)
			rt.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
			rt.v.AutomaticEnv()
			rt.cfg = config.LoadEnvConfig()
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&envFile, "env-file", "", "env file to load (default is ./.env when present)")

	cmd.AddCommand(newMigrateCommand(rt))
	cmd.AddCommand(newGrantCommand(rt))
	cmd.AddCommand(newRevokeCommand(rt))
	cmd.AddCommand(newPermissionsCommand(rt))

	return cmd
}
