package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"curricula-cli/internal/engine"
	"curricula-cli/internal/modal"
)

func newSectionsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sections",
		Short: "Inspect and edit course sections",
	}
	cmd.AddCommand(newSectionsListCmd(app))
	cmd.AddCommand(newSectionsAddCmd(app))
	cmd.AddCommand(newSectionsDeleteCmd(app))
	cmd.AddCommand(newSectionsMoveCmd(app))
	return cmd
}

func newSectionsListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the sections of the course in outline order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, log, closeGW, err := loadEngine(cmd.Context(), app, scriptedPrompter(app), engine.NopNotifier())
			if err != nil {
				return err
			}
			defer func() { _ = closeGW(); _ = log.Sync() }()

			type row struct {
				ID          string `json:"id"`
				Title       string `json:"title"`
				Order       int    `json:"order"`
				SubSections int    `json:"subSections"`
				Modules     int    `json:"modules"`
			}
			course := eng.Course()
			out := make([]row, 0, len(course.Sections))
			for _, sec := range course.Sections {
				n := len(sec.Modules)
				for _, sub := range sec.SubSections {
					n += len(sub.Modules)
				}
				out = append(out, row{
					ID:          sec.ID,
					Title:       sec.Title,
					Order:       sec.Order,
					SubSections: len(sec.SubSections),
					Modules:     n,
				})
			}
			return writeOut(cmd, out)
		},
	}
}

func newSectionsAddCmd(app *App) *cobra.Command {
	var title string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Append a section to the course",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			prompter := scriptedPrompter(app)
			prompter.Forms = []modal.FormValues{{"title": title}}

			eng, log, closeGW, err := loadEngine(cmd.Context(), app, prompter, engine.NopNotifier())
			if err != nil {
				return err
			}
			defer func() { _ = closeGW(); _ = log.Sync() }()

			if err := eng.AddSection(cmd.Context()); err != nil {
				return err
			}
			course := eng.Course()
			return writeOut(cmd, course.Sections[len(course.Sections)-1])
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "Section title")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func newSectionsDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <section-id>",
		Short: "Delete a section and everything under it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !app.Yes {
				return errors.New("deleting a section removes its sub-sections and modules; pass --yes to confirm")
			}
			prompter := scriptedPrompter(app)

			eng, log, closeGW, err := loadEngine(cmd.Context(), app, prompter, engine.NopNotifier())
			if err != nil {
				return err
			}
			defer func() { _ = closeGW(); _ = log.Sync() }()

			if err := eng.DeleteSection(cmd.Context(), args[0]); err != nil {
				return err
			}
			return writeOut(cmd, map[string]any{"deleted": args[0]})
		},
	}
}

func newSectionsMoveCmd(app *App) *cobra.Command {
	var before string
	var after string
	cmd := &cobra.Command{
		Use:   "move <section-id>",
		Short: "Reorder a section relative to a sibling",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if (before == "" && after == "") || (before != "" && after != "") {
				return errors.New("provide exactly one of --before or --after")
			}

			// The move command is an explicit request; the confirmation the
			// interactive editor shows is answered yes here.
			prompter := scriptedPrompter(app)
			prompter.DefaultConfirm = true

			eng, log, closeGW, err := loadEngine(cmd.Context(), app, prompter, engine.NopNotifier())
			if err != nil {
				return err
			}
			defer func() { _ = closeGW(); _ = log.Sync() }()

			targetID := before
			edge := engine.EdgeBefore
			if after != "" {
				targetID = after
				edge = engine.EdgeAfter
			}
			if err := eng.ReorderSection(cmd.Context(), args[0], targetID, edge); err != nil {
				return err
			}

			course := eng.Course()
			orders := make([]map[string]any, 0, len(course.Sections))
			for _, sec := range course.Sections {
				orders = append(orders, map[string]any{"id": sec.ID, "order": sec.Order, "title": sec.Title})
			}
			return writeOut(cmd, orders)
		},
	}
	cmd.Flags().StringVar(&before, "before", "", "Move before this section id")
	cmd.Flags().StringVar(&after, "after", "", "Move after this section id")
	return cmd
}
