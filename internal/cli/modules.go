package cli

import (
	"github.com/spf13/cobra"

	"curricula-cli/internal/engine"
	"curricula-cli/internal/model"
)

func newModulesCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "modules",
		Short: "Inspect course modules",
	}
	cmd.AddCommand(newModulesListCmd(app))
	return cmd
}

func newModulesListCmd(app *App) *cobra.Command {
	var sectionID string
	var subSectionID string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List modules, optionally scoped to a section or sub-section",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, log, closeGW, err := loadEngine(cmd.Context(), app, scriptedPrompter(app), engine.NopNotifier())
			if err != nil {
				return err
			}
			defer func() { _ = closeGW(); _ = log.Sync() }()

			type row struct {
				ID           string           `json:"id"`
				Title        string           `json:"title"`
				Type         model.ModuleType `json:"type"`
				Order        int              `json:"order"`
				SectionID    string           `json:"sectionId,omitempty"`
				SubSectionID string           `json:"subSectionId,omitempty"`
			}
			include := func(m *model.Module) bool {
				if sectionID != "" && m.SectionID != sectionID {
					return false
				}
				if subSectionID != "" && m.SubSectionID != subSectionID {
					return false
				}
				return true
			}

			var out []row
			add := func(mods []*model.Module) {
				for _, m := range mods {
					if !include(m) {
						continue
					}
					out = append(out, row{
						ID:           m.ID,
						Title:        m.Title,
						Type:         m.Type,
						Order:        m.Order,
						SectionID:    m.SectionID,
						SubSectionID: m.SubSectionID,
					})
				}
			}
			for _, sec := range eng.Course().Sections {
				add(sec.Modules)
				for _, sub := range sec.SubSections {
					add(sub.Modules)
				}
			}
			return writeOut(cmd, out)
		},
	}
	cmd.Flags().StringVar(&sectionID, "section", "", "Only modules owned directly by this section")
	cmd.Flags().StringVar(&subSectionID, "subsection", "", "Only modules owned by this sub-section")
	return cmd
}
