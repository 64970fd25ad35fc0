package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"curricula-cli/internal/engine"
	"curricula-cli/internal/modal"
)

// Run hosts the editor until the user quits. The broker's surface callback
// and the notifier are bound to the running program before it starts, so
// engine goroutines can post into the event loop at any time.
func Run(eng *engine.Engine, broker *modal.Broker, notifier *Notifier, courseTitle string) error {
	applyColorProfilePreference()
	m := newAppModel(eng, broker, courseTitle)
	p := tea.NewProgram(m, tea.WithAltScreen())
	broker.SetSurface(func(req *modal.Request) {
		p.Send(modalChangedMsg{req: req})
	})
	notifier.bind(p.Send)
	_, err := p.Run()
	return err
}
