package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/app-bouncer/internal/bootstrap"
	"github.com/example/app-bouncer/internal/persistence/sqlstore"
)

func init() {
	rootCmd.AddCommand(migrateCmd)
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending schema migrations",
	RunE:  runMigrate,
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	store, err := bootstrap.OpenStore(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Migrate(cmd.Context()); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	out := cmd.OutOrStdout()
	if sqlStore, ok := store.(*sqlstore.Store); ok {
		version, err := sqlstore.SchemaVersion(cmd.Context(), sqlStore.Pool())
		if err != nil {
			return fmt.Errorf("read schema version: %w", err)
		}
		fmt.Fprintf(out, "%s schema at version %d\n", cfg.Storage, version)
		return nil
	}
	fmt.Fprintf(out, "%s storage needs no migrations\n", cfg.Storage)
	return nil
}
