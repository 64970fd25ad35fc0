package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"curricula-cli/internal/modal"
	"curricula-cli/internal/model"
)

// modalChangedMsg arrives when the broker's live slot changes; req is nil
// when the slot emptied.
type modalChangedMsg struct {
	req *modal.Request
}

// opDoneMsg is posted when a backgrounded engine operation finishes. The
// engine already routed user-facing feedback through the notifier; the TUI
// only refreshes.
type opDoneMsg struct {
	err error
}

type treeLoadedMsg struct {
	course *model.Course
	err    error
}

type notifyMsg struct {
	isErr bool
	text  string
}

type clearNoticeMsg struct {
	seq int
}

// Notifier bridges engine feedback into the running program. Before Run
// binds it, messages are dropped (there is no surface to show them on).
type Notifier struct {
	mu   sync.Mutex
	send func(tea.Msg)
}

func NewNotifier() *Notifier { return &Notifier{} }

func (n *Notifier) bind(send func(tea.Msg)) {
	n.mu.Lock()
	n.send = send
	n.mu.Unlock()
}

func (n *Notifier) post(msg tea.Msg) {
	n.mu.Lock()
	send := n.send
	n.mu.Unlock()
	if send != nil {
		send(msg)
	}
}

func (n *Notifier) Success(msg string) { n.post(notifyMsg{text: msg}) }
func (n *Notifier) Error(msg string)   { n.post(notifyMsg{isErr: true, text: msg}) }

// grabState tracks move mode: a grabbed row waiting for a drop target.
type grabState struct {
	active bool
	id     string
	kind   rowKind
	parent string // ParentRef key; drops are only legal onto same-scope rows
	title  string
}
