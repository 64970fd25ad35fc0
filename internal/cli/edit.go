package cli

import (
	"context"

	"github.com/spf13/cobra"

	"curricula-cli/internal/engine"
	"curricula-cli/internal/logger"
	"curricula-cli/internal/modal"
	"curricula-cli/internal/tui"
)

func newEditCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "edit",
		Short: "Open the interactive course editor",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEdit(cmd.Context(), app)
		},
	}
}

func runEdit(ctx context.Context, app *App) error {
	cfg, err := app.resolveConfig()
	if err != nil {
		return err
	}
	log, err := logger.New(cfg.LogDir(), cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	gw, closeGW, err := openGateway(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = closeGW() }()

	broker := modal.NewBroker(modal.PolicyCancelPending)
	notifier := tui.NewNotifier()
	eng := engine.New(cfg.CourseID, gw, broker, notifier, log)

	// The program loads the tree itself on startup.
	return tui.Run(eng, broker, notifier, cfg.CourseID)
}
