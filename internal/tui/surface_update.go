package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"curricula-cli/internal/modal"
)

// updateSurface routes a key to whichever surface state renders the live
// request. Resolution goes through req.Resolve; the broker then clears its
// slot and notifies us with a modalChangedMsg.
func (m *appModel) updateSurface(msg tea.KeyMsg) tea.Cmd {
	req := m.live
	if req == nil {
		return nil
	}

	// Esc always dismisses, for every kind: cancellation is a normal result,
	// never an error, and the awaiting caller must not stay pending.
	if msg.String() == "esc" || msg.String() == "ctrl+g" {
		req.Dismiss()
		return nil
	}

	switch req.Kind {
	case modal.KindForm:
		return m.updateFormSurface(req, msg)
	case modal.KindConfirm:
		return m.updateConfirmSurface(req, msg)
	case modal.KindChoice, modal.KindSelect:
		m.updateSingleListSurface(req, msg)
	case modal.KindMultiSelect:
		m.updateMultiListSurface(req, msg)
	case modal.KindCustom:
		m.updateCustomSurface(req, msg)
	}
	return nil
}

func (m *appModel) updateFormSurface(req *modal.Request, msg tea.KeyMsg) tea.Cmd {
	s := m.form
	if s == nil {
		return nil
	}
	switch msg.String() {
	case "tab", "down":
		if msg.String() == "down" && s.onField() && s.fields[s.focus].field.Type == modal.FieldTextarea {
			break // let the textarea take it
		}
		s.setFocus(s.focus + 1)
		return nil
	case "shift+tab", "up":
		if msg.String() == "up" && s.onField() && s.fields[s.focus].field.Type == modal.FieldTextarea {
			break
		}
		s.setFocus(s.focus - 1)
		return nil
	case "left", "right":
		if s.onField() {
			f := &s.fields[s.focus]
			if f.field.Type == modal.FieldSelect && len(f.field.Options) > 0 {
				delta := 1
				if msg.String() == "left" {
					delta = -1
				}
				f.selIdx = (f.selIdx + delta + len(f.field.Options)) % len(f.field.Options)
				return nil
			}
		}
	case " ":
		if s.onField() && s.fields[s.focus].field.Type == modal.FieldCheckbox {
			s.fields[s.focus].checked = !s.fields[s.focus].checked
			return nil
		}
	case "enter":
		// Enter inside a textarea inserts a newline; everywhere else it
		// submits (or presses the focused button).
		if s.onField() && s.fields[s.focus].field.Type == modal.FieldTextarea {
			break
		}
		if s.focus == len(s.fields)+1 { // cancel button
			req.Dismiss()
			return nil
		}
		if vals := s.submit(); vals != nil {
			req.Resolve(vals)
		}
		return nil
	}
	return s.updateFocused(msg)
}

func (m *appModel) updateConfirmSurface(req *modal.Request, msg tea.KeyMsg) tea.Cmd {
	s := m.confirm
	if s == nil {
		return nil
	}
	switch msg.String() {
	case "tab", "left", "right", "h", "l":
		if s.focus == confirmFocusConfirm {
			s.focus = confirmFocusCancel
		} else {
			s.focus = confirmFocusConfirm
		}
	case "y":
		req.Resolve(true)
	case "n":
		req.Resolve(false)
	case "enter":
		req.Resolve(s.focus == confirmFocusConfirm)
	}
	return nil
}

func (m *appModel) updateSingleListSurface(req *modal.Request, msg tea.KeyMsg) {
	s := m.list
	if s == nil {
		return
	}
	switch msg.String() {
	case "up", "k":
		s.move(-1)
	case "down", "j":
		s.move(1)
	case "enter":
		if v := s.choose(); v != nil {
			req.Resolve(v)
		}
	}
}

func (m *appModel) updateMultiListSurface(req *modal.Request, msg tea.KeyMsg) {
	s := m.list
	if s == nil {
		return
	}
	switch msg.String() {
	case "up", "k":
		s.move(-1)
	case "down", "j":
		s.move(1)
	case " ":
		s.toggle()
	case "enter":
		if vals := s.chosenMulti(); vals != nil {
			req.Resolve(vals)
		}
	}
}

func (m *appModel) updateCustomSurface(req *modal.Request, msg tea.KeyMsg) {
	s := m.custom
	if s == nil {
		return
	}
	switch msg.String() {
	case "up", "k":
		s.scroll--
	case "down", "j":
		s.scroll++
	case "enter", "q":
		req.Dismiss()
	}
}

// attachSurface builds the UI state for a request that just became live.
func (m *appModel) attachSurface(req *modal.Request) {
	m.live = req
	m.form = nil
	m.confirm = nil
	m.list = nil
	m.custom = nil
	if req == nil {
		return
	}
	switch req.Kind {
	case modal.KindForm:
		m.form = newFormSurface(*req.Form, m.width)
	case modal.KindConfirm:
		m.confirm = &confirmSurface{spec: *req.Confirm, focus: confirmFocusCancel}
	case modal.KindChoice:
		m.list = newListSurface(req.Choice.Title, req.Choice.Message, req.Choice.Options, false)
	case modal.KindSelect:
		m.list = newListSurface(req.Select.Title, req.Select.Message, req.Select.Options, false)
	case modal.KindMultiSelect:
		m.list = newListSurface(req.Multi.Title, req.Multi.Message, req.Multi.Options, true)
	case modal.KindCustom:
		body := ""
		switch p := req.Payload.(type) {
		case string:
			body = p
		case interface{ Render(width int) string }:
			body = p.Render(modalBodyWidth(m.width))
		}
		m.custom = &customSurface{title: req.Custom.Title, body: body}
	}
}
