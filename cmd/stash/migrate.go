package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tobiloba/dailystash/internal/cli"
	"github.com/tobiloba/dailystash/internal/storage"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Bring the database schema up to date",
		RunE: func(cmd *cobra.Command, _ []string) error {
			// initStorage already migrates; running it is the whole job
			store, err := initStorage(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			fmt.Println(cli.SuccessStyle.Render(fmt.Sprintf("✓ Schema is at version %d", storage.ExpectedSchemaVersion)))
			return nil
		},
	}
}
