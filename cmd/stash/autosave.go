package main

import (
	"fmt"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/tobiloba/dailystash/internal/cli"
	"github.com/tobiloba/dailystash/internal/engine"
)

func autosaveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "autosave",
		Short: "Automatic savings collection",
	}
	cmd.AddCommand(autosaveRunCmd())
	return cmd
}

func autosaveRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Collect from every plan whose auto-save window is open",
		Long: `Collect the daily amount from every active auto-save plan whose
window is open, funding each from its owner's wallet. Meant to be run
from a scheduler every few minutes. Per-plan failures are recorded as
failed transactions and do not stop the run.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			limits, err := limitPolicy(store.Currency())
			if err != nil {
				return err
			}

			runner := engine.NewAutoSaveRunner(store, store, store, store, engine.NewProcessor(), limits)

			var bar *progressbar.ProgressBar
			runner.OnProgress(func(done, total int) {
				if bar == nil {
					bar = progressbar.NewOptions(total,
						progressbar.OptionSetDescription("Auto-saving"),
						progressbar.OptionShowCount(),
						progressbar.OptionClearOnFinish(),
					)
				}
				_ = bar.Set(done)
			})

			stats, err := runner.Run(ctx)
			if err != nil {
				return err
			}

			if stats.Due == 0 {
				fmt.Println(cli.SubtleStyle.Render("No plans due for auto-save"))
				return nil
			}
			fmt.Println(cli.SuccessStyle.Render(fmt.Sprintf("✓ Auto-save complete: %d due, %d saved, %d failed",
				stats.Due, stats.Saved, stats.Failed)))
			return nil
		},
	}
}
