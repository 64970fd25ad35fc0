package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"curricula-cli/internal/modal"
)

// Per-kind surface state. One of these is live at a time, mirroring the
// broker's single slot.

type formField struct {
	field modal.Field
	input textinput.Model
	area  textarea.Model
	// selIdx indexes field.Options for select fields.
	selIdx  int
	checked bool
}

type formSurface struct {
	spec   modal.FormSpec
	fields []formField
	// focus: 0..len(fields)-1 are fields, then submit, then cancel.
	focus  int
	errMsg string
}

func newFormSurface(spec modal.FormSpec, width int) *formSurface {
	s := &formSurface{spec: spec}
	bodyW := modalBodyWidth(width)
	for _, f := range spec.Fields {
		ff := formField{field: f}
		switch f.Type {
		case modal.FieldTextarea:
			ta := textarea.New()
			ta.SetWidth(bodyW - 2)
			ta.SetHeight(4)
			ta.SetValue(f.Default)
			ff.area = ta
		case modal.FieldSelect:
			for i, opt := range f.Options {
				if opt.Value == f.Default {
					ff.selIdx = i
				}
			}
		case modal.FieldCheckbox:
			ff.checked = f.Default == "true"
		default:
			ti := textinput.New()
			ti.Placeholder = f.Label
			ti.SetValue(f.Default)
			ti.CharLimit = 0
			if f.Type == modal.FieldPassword {
				ti.EchoMode = textinput.EchoPassword
			}
			ff.input = ti
		}
		s.fields = append(s.fields, ff)
	}
	s.setFocus(0)
	return s
}

func (s *formSurface) setFocus(i int) {
	max := len(s.fields) + 1 // fields, submit, cancel
	if i < 0 {
		i = max
	}
	if i > max {
		i = 0
	}
	s.focus = i
	for j := range s.fields {
		f := &s.fields[j]
		switch f.field.Type {
		case modal.FieldTextarea:
			if j == i {
				f.area.Focus()
			} else {
				f.area.Blur()
			}
		case modal.FieldSelect, modal.FieldCheckbox:
		default:
			if j == i {
				f.input.Focus()
			} else {
				f.input.Blur()
			}
		}
	}
}

func (s *formSurface) values() modal.FormValues {
	vals := modal.FormValues{}
	for i := range s.fields {
		f := &s.fields[i]
		switch f.field.Type {
		case modal.FieldTextarea:
			vals[f.field.Name] = f.area.Value()
		case modal.FieldSelect:
			if len(f.field.Options) > 0 {
				vals[f.field.Name] = f.field.Options[f.selIdx].Value
			}
		case modal.FieldCheckbox:
			if f.checked {
				vals[f.field.Name] = "true"
			} else {
				vals[f.field.Name] = "false"
			}
		default:
			vals[f.field.Name] = f.input.Value()
		}
	}
	return vals
}

// submit validates required fields; returns the values when acceptable, or
// nil after recording which labels are missing (the surface stays open).
func (s *formSurface) submit() modal.FormValues {
	vals := s.values()
	if missing := modal.MissingRequired(s.spec, vals); len(missing) > 0 {
		s.errMsg = "Required: " + strings.Join(missing, ", ")
		return nil
	}
	return vals
}

func (s *formSurface) onField() bool { return s.focus < len(s.fields) }

func (s *formSurface) updateFocused(msg tea.Msg) tea.Cmd {
	if !s.onField() {
		return nil
	}
	f := &s.fields[s.focus]
	var cmd tea.Cmd
	switch f.field.Type {
	case modal.FieldTextarea:
		f.area, cmd = f.area.Update(msg)
	case modal.FieldSelect, modal.FieldCheckbox:
	default:
		f.input, cmd = f.input.Update(msg)
	}
	return cmd
}

type confirmFocus int

const (
	confirmFocusConfirm confirmFocus = iota
	confirmFocusCancel
)

type confirmSurface struct {
	spec  modal.ConfirmSpec
	focus confirmFocus
}

// listSurface backs choice, select and multiselect requests.
type listSurface struct {
	title   string
	message string
	options []modal.Option
	idx     int
	multi   bool
	picked  map[string]bool
	errMsg  string
}

func newListSurface(title, message string, options []modal.Option, multi bool) *listSurface {
	return &listSurface{
		title:   title,
		message: message,
		options: options,
		multi:   multi,
		picked:  map[string]bool{},
	}
}

func (s *listSurface) move(delta int) {
	if len(s.options) == 0 {
		return
	}
	s.idx = (s.idx + delta + len(s.options)) % len(s.options)
}

func (s *listSurface) toggle() {
	if !s.multi || len(s.options) == 0 {
		return
	}
	opt := s.options[s.idx]
	if opt.Disabled {
		return
	}
	s.picked[opt.Value] = !s.picked[opt.Value]
	s.errMsg = ""
}

// choose returns the selection for single-select lists, or nil when the
// current option is disabled (submission blocked).
func (s *listSurface) choose() any {
	if len(s.options) == 0 {
		return nil
	}
	opt := s.options[s.idx]
	if opt.Disabled {
		s.errMsg = "That option is unavailable"
		return nil
	}
	return opt.Value
}

// chosenMulti returns the picked values in option order, or nil when empty.
func (s *listSurface) chosenMulti() []string {
	var out []string
	for _, opt := range s.options {
		if s.picked[opt.Value] {
			out = append(out, opt.Value)
		}
	}
	if len(out) == 0 {
		s.errMsg = "Select at least one option"
		return nil
	}
	return out
}

type customSurface struct {
	title  string
	body   string
	scroll int
}
