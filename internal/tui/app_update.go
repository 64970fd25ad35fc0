package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"curricula-cli/internal/engine"
	"curricula-cli/internal/modal"
	"curricula-cli/internal/model"
)

func (m appModel) Init() tea.Cmd {
	return m.loadCmd()
}

func (m appModel) loadCmd() tea.Cmd {
	eng := m.eng
	return func() tea.Msg {
		err := eng.Load(context.Background())
		return treeLoadedMsg{course: eng.Course(), err: err}
	}
}

// runOp backgrounds an engine operation. The op blocks on broker requests
// and gateway round trips; tea runs the command on its own goroutine, so the
// UI keeps updating while the op is suspended.
func runOp(op func(context.Context) error) tea.Cmd {
	return func() tea.Msg {
		return opDoneMsg{err: op(context.Background())}
	}
}

func noticeTimeout(seq int) tea.Cmd {
	return tea.Tick(3*time.Second, func(time.Time) tea.Msg {
		return clearNoticeMsg{seq: seq}
	})
}

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.seenWindowSize = true
		m.clampScroll()
		return m, nil

	case modalChangedMsg:
		(&m).attachSurface(msg.req)
		return m, nil

	case treeLoadedMsg:
		if msg.err != nil {
			m.notice = "Load failed: " + msg.err.Error()
			m.noticeErr = true
			m.noticeSeq++
			return m, noticeTimeout(m.noticeSeq)
		}
		(&m).rebuildRows()
		return m, nil

	case opDoneMsg:
		// The engine already pushed user feedback through the notifier.
		(&m).rebuildRows()
		return m, nil

	case notifyMsg:
		m.notice = msg.text
		m.noticeErr = msg.isErr
		m.noticeSeq++
		return m, noticeTimeout(m.noticeSeq)

	case clearNoticeMsg:
		if msg.seq == m.noticeSeq {
			m.notice = ""
		}
		return m, nil

	case tea.KeyMsg:
		return m.updateKey(msg)
	}
	return m, nil
}

func (m appModel) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		m.broker.DismissActive()
		return m, tea.Quit
	}

	if m.live != nil {
		cmd := (&m).updateSurface(msg)
		return m, cmd
	}

	if m.filtering {
		return m.updateFilterKey(msg)
	}

	switch msg.String() {
	case "q":
		return m, tea.Quit

	case "j", "down":
		if m.cursor < len(m.rows)-1 {
			m.cursor++
		}
		m.clampScroll()

	case "k", "up":
		if m.cursor > 0 {
			m.cursor--
		}
		m.clampScroll()

	case "/":
		m.filtering = true
		m.filterInput.SetValue(m.filter)
		m.filterInput.Focus()
		return m, textinput.Blink

	case "r":
		return m, m.loadCmd()

	case "enter":
		if m.grab.active {
			return m.dropGrab(engine.EdgeAfter)
		}
		if r, ok := m.currentRow(); ok && r.kind != rowModule {
			m.collapsed[r.id] = !m.collapsed[r.id]
			(&m).rebuildRows()
		}

	case "b":
		if m.grab.active {
			return m.dropGrab(engine.EdgeBefore)
		}

	case "esc":
		if m.grab.active {
			m.grab = grabState{}
			return m, nil
		}
		if m.filter != "" {
			m.filter = ""
			m.eng.SetFilter("")
			(&m).rebuildRows()
		}

	case "g":
		if r, ok := m.currentRow(); ok {
			m.grab = grabState{
				active: true,
				id:     r.id,
				kind:   r.kind,
				parent: r.parent.Key(),
				title:  r.title,
			}
		}

	case "a":
		return m, runOp(m.eng.AddSection)

	case "s":
		if r, ok := m.currentRow(); ok && r.kind == rowSection {
			id := r.id
			return m, runOp(func(ctx context.Context) error {
				return m.eng.AddSubSection(ctx, id)
			})
		}
		return m, m.flashErr("Select a section to add a sub-section to")

	case "M":
		if r, ok := m.currentRow(); ok && r.kind != rowModule {
			parent := model.ParentRef{SectionID: r.id}
			if r.kind == rowSubSection {
				parent = model.ParentRef{SubSectionID: r.id}
			}
			return m, runOp(func(ctx context.Context) error {
				return m.eng.AddModule(ctx, parent)
			})
		}
		return m, m.flashErr("Select a section or sub-section to add a module to")

	case "e":
		if r, ok := m.currentRow(); ok {
			id := r.id
			switch r.kind {
			case rowSection:
				return m, runOp(func(ctx context.Context) error { return m.eng.EditSection(ctx, id) })
			case rowSubSection:
				return m, runOp(func(ctx context.Context) error { return m.eng.EditSubSection(ctx, id) })
			default:
				return m, runOp(func(ctx context.Context) error { return m.eng.EditModule(ctx, id) })
			}
		}

	case "d":
		if r, ok := m.currentRow(); ok {
			id := r.id
			switch r.kind {
			case rowSection:
				return m, runOp(func(ctx context.Context) error { return m.eng.DeleteSection(ctx, id) })
			case rowSubSection:
				return m, runOp(func(ctx context.Context) error { return m.eng.DeleteSubSection(ctx, id) })
			default:
				return m, runOp(func(ctx context.Context) error { return m.eng.DeleteModule(ctx, id) })
			}
		}

	case "D":
		if r, ok := m.currentRow(); ok && r.kind == rowSection {
			id := r.id
			return m, runOp(func(ctx context.Context) error { return m.eng.DuplicateSection(ctx, id) })
		}
		return m, m.flashErr("Only sections can be duplicated")

	case "v":
		if r, ok := m.currentRow(); ok && r.kind == rowModule {
			return m, m.previewCmd(r)
		}
	}
	return m, nil
}

func (m appModel) dropGrab(edge engine.Edge) (tea.Model, tea.Cmd) {
	target, ok := m.currentRow()
	grab := m.grab
	m.grab = grabState{}
	if !ok {
		return m, nil
	}
	if target.kind != grab.kind || target.parent.Key() != grab.parent {
		return m, m.flashErr("Items can only be reordered among their own siblings")
	}

	draggedID, targetID := grab.id, target.id
	switch grab.kind {
	case rowSection:
		return m, runOp(func(ctx context.Context) error {
			return m.eng.ReorderSection(ctx, draggedID, targetID, edge)
		})
	case rowSubSection:
		return m, runOp(func(ctx context.Context) error {
			return m.eng.ReorderSubSection(ctx, draggedID, targetID, edge)
		})
	default:
		return m, runOp(func(ctx context.Context) error {
			return m.eng.ReorderModule(ctx, draggedID, targetID, edge)
		})
	}
}

// previewCmd shows module content through the broker's custom surface.
func (m appModel) previewCmd(r outlineRow) tea.Cmd {
	body := r.content
	if r.moduleType == model.ModuleTypeText {
		body = renderMarkdown(r.content, modalBodyWidth(m.width))
	}
	if body == "" {
		body = styleMuted().Render("(no content)")
	}
	title := r.title
	broker := m.broker
	return func() tea.Msg {
		_, err := broker.RequestCustom(context.Background(), body, modal.CustomSpec{Title: title})
		return opDoneMsg{err: err}
	}
}

func (m *appModel) flashErr(text string) tea.Cmd {
	m.notice = text
	m.noticeErr = true
	m.noticeSeq++
	return noticeTimeout(m.noticeSeq)
}

func (m appModel) updateFilterKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.filtering = false
		m.filterInput.Blur()
		return m, nil
	case "esc":
		m.filtering = false
		m.filterInput.Blur()
		m.filterInput.SetValue("")
		m.filter = ""
		m.eng.SetFilter("")
		(&m).rebuildRows()
		return m, nil
	}
	var cmd tea.Cmd
	m.filterInput, cmd = m.filterInput.Update(msg)
	if v := m.filterInput.Value(); v != m.filter {
		m.filter = v
		m.eng.SetFilter(v)
		(&m).rebuildRows()
	}
	return m, cmd
}
