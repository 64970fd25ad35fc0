package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"curricula-cli/internal/config"
	"curricula-cli/internal/engine"
	"curricula-cli/internal/gateway"
	"curricula-cli/internal/logger"
	"curricula-cli/internal/modal"
)

// App carries the persistent flag values shared by every command. Flags
// override the environment-derived config where set.
type App struct {
	Dir      string
	Backend  string
	CourseID string
	Yes      bool
}

func NewRootCmd() *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:          "curricula",
		Short:        "Course outline editor (TUI + scriptable commands)",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Open the interactive editor
  curricula

  # Scriptable commands
  curricula sections list
  curricula sections add --title "Getting started"
  curricula sections move sec-123 --after sec-456
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			// No subcommand opens the editor.
			if len(args) == 0 {
				return runEdit(cmd.Context(), app)
			}
			return cmd.Help()
		},
	}

	cmd.PersistentFlags().StringVar(&app.Dir, "dir", "", "Data directory (default $CURRICULA_DATA_DIR or ~/.curricula)")
	cmd.PersistentFlags().StringVar(&app.Backend, "backend", "", "Persistence backend: sqlite or rest")
	cmd.PersistentFlags().StringVar(&app.CourseID, "course", "", "Course id to operate on")
	cmd.PersistentFlags().BoolVar(&app.Yes, "yes", false, "Answer yes to confirmation prompts")

	cmd.AddCommand(newEditCmd(app))
	cmd.AddCommand(newSectionsCmd(app))
	cmd.AddCommand(newModulesCmd(app))
	return cmd
}

func (app *App) resolveConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if app.Dir != "" {
		cfg.DataDir = app.Dir
	}
	if app.Backend != "" {
		cfg.Backend = app.Backend
	}
	if app.CourseID != "" {
		cfg.CourseID = app.CourseID
	}
	if cfg.CourseID == "" {
		cfg.CourseID = "default"
	}
	switch cfg.Backend {
	case "sqlite", "rest":
	default:
		return nil, fmt.Errorf("unknown backend %q (want sqlite or rest)", cfg.Backend)
	}
	return cfg, nil
}

func openGateway(ctx context.Context, cfg *config.Config) (gateway.Gateway, func() error, error) {
	if cfg.Backend == "rest" {
		return gateway.NewRESTClient(cfg.APIBaseURL, cfg.APIToken), func() error { return nil }, nil
	}
	store, err := gateway.OpenSQLite(ctx, cfg.SQLitePath())
	if err != nil {
		return nil, nil, err
	}
	return store, store.Close, nil
}

// loadEngine builds an engine over the configured backend and loads the
// course tree. The returned close func releases the backend.
func loadEngine(ctx context.Context, app *App, prompter engine.Prompter, notifier engine.Notifier) (*engine.Engine, *zap.Logger, func() error, error) {
	cfg, err := app.resolveConfig()
	if err != nil {
		return nil, nil, nil, err
	}
	log, err := logger.New(cfg.LogDir(), cfg.LogLevel)
	if err != nil {
		return nil, nil, nil, err
	}
	gw, closeGW, err := openGateway(ctx, cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	eng := engine.New(cfg.CourseID, gw, prompter, notifier, log)
	if err := eng.Load(ctx); err != nil {
		_ = closeGW()
		return nil, nil, nil, err
	}
	return eng, log, closeGW, nil
}

// scriptedPrompter configures answers for a non-interactive command run.
func scriptedPrompter(app *App) *modal.Scripted {
	return &modal.Scripted{DefaultConfirm: app.Yes}
}

func writeOut(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(map[string]any{"data": v})
}
