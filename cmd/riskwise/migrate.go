package main

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/ajitpratap0/riskwise/internal/db"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the consultation-log schema migrations",
		RunE:  runMigrate,
	}

	cmd.Flags().Bool("status", false, "show migration status without applying changes")

	return cmd
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	status, _ := cmd.Flags().GetBool("status")

	if cfg.Database.URL == "" {
		return errors.New("database.url is not set (RISKWISE_DATABASE_URL)")
	}

	sqlDB, err := db.OpenSQL(cfg.Database.URL)
	if err != nil {
		return err
	}
	defer func() {
		if err := sqlDB.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close database connection")
		}
	}()

	migrator := db.NewMigrator(sqlDB)

	if !status {
		return migrator.Migrate(cmd.Context())
	}

	statuses, err := migrator.Status(cmd.Context())
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "VERSION\tDESCRIPTION\tAPPLIED")
	for _, s := range statuses {
		fmt.Fprintf(w, "%03d\t%s\t%t\n", s.Version, s.Description, s.Applied)
	}
	return w.Flush()
}
