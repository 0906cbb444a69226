package main

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"sitediary/db"
	"sitediary/db/migrations"
)

var migrateCmd = &cobra.Command{
	Use:       "migrate [up|down|status]",
	Short:     "Apply or inspect database migrations",
	Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"up", "down", "status"},
	RunE: func(cmd *cobra.Command, args []string) error {
		action := "up"
		if len(args) == 1 {
			action = args[0]
		}

		conn, err := db.Connect(cmd.Context(), cfg.Database.DSN, db.PoolConfig{MaxOpenConns: 1})
		if err != nil {
			return err
		}
		defer conn.Close()

		migrations.SetLogger(log)
		switch action {
		case "up":
			return migrations.Run(cmd.Context(), conn.DB)
		case "down":
			return migrations.Down(cmd.Context(), conn.DB)
		case "status":
			return migrations.Status(cmd.Context(), conn.DB)
		}
		return errors.Errorf("unknown migrate action %q", action)
	},
}
