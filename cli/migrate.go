package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"thyknow/config"
	"thyknow/migrations"

	"github.com/spf13/cobra"
)

func init() {
	migrateCmd.AddCommand(migrateUpCmd, migrateStatusCmd)
	rootCmd.AddCommand(migrateCmd)
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the database schema",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := newMigrationManager()
		if err != nil {
			return err
		}
		ran, err := m.Up(cmd.Context())
		for _, name := range ran {
			fmt.Fprintf(cmd.OutOrStdout(), "applied %s\n", name)
		}
		return err
	},
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "List applied and pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := newMigrationManager()
		if err != nil {
			return err
		}
		statuses, err := m.Status(cmd.Context())
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tVERSION\tSTATUS\tAPPLIED AT")
		for _, s := range statuses {
			state, at := "pending", "-"
			if s.Applied {
				state, at = "applied", s.AppliedAt.Format("2006-01-02 15:04:05")
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", s.Name, s.Version, state, at)
		}
		return w.Flush()
	},
}

func newMigrationManager() (*migrations.Manager, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	db, err := openDB(cfg)
	if err != nil {
		return nil, err
	}
	return migrations.NewManager(db, migrations.All()), nil
}
