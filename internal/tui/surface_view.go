package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"curricula-cli/internal/modal"
)

func renderButton(label string, active, destructive bool) string {
	st := lipgloss.NewStyle().
		Padding(0, 1).
		Foreground(colorSurfaceFg).
		Background(colorControlBg)
	if active {
		st = st.Foreground(colorSelectedFg).Background(colorSelectedBg).Bold(true)
		if destructive {
			st = st.Foreground(colorDanger)
		}
	}
	return st.Render(label)
}

func buttonRow(confirmLabel, cancelLabel string, confirmActive, destructive bool) string {
	confirm := renderButton(confirmLabel, confirmActive, destructive)
	cancel := renderButton(cancelLabel, !confirmActive, false)
	return lipgloss.JoinHorizontal(lipgloss.Top, confirm, " ", cancel)
}

func (s *formSurface) view(width int) string {
	bodyW := modalBodyWidth(width)
	var b strings.Builder
	for i := range s.fields {
		f := &s.fields[i]
		label := f.field.Label
		if f.field.Required {
			label += " *"
		}
		if i == s.focus {
			b.WriteString(lipgloss.NewStyle().Foreground(colorAccent).Bold(true).Render(label))
		} else {
			b.WriteString(styleMuted().Render(label))
		}
		b.WriteString("\n")
		switch f.field.Type {
		case modal.FieldTextarea:
			b.WriteString(f.area.View())
		case modal.FieldSelect:
			var parts []string
			for j, opt := range f.field.Options {
				lbl := opt.Label
				if j == f.selIdx {
					lbl = "(•) " + lbl
				} else {
					lbl = "( ) " + lbl
				}
				parts = append(parts, lbl)
			}
			b.WriteString(strings.Join(parts, "   "))
		case modal.FieldCheckbox:
			if f.checked {
				b.WriteString("[x] " + f.field.Label)
			} else {
				b.WriteString("[ ] " + f.field.Label)
			}
		default:
			b.WriteString(f.input.View())
		}
		b.WriteString("\n\n")
	}

	submitLabel := s.spec.SubmitLabel
	if submitLabel == "" {
		submitLabel = "Save"
	}
	cancelLabel := s.spec.CancelLabel
	if cancelLabel == "" {
		cancelLabel = "Cancel"
	}
	submitActive := s.focus == len(s.fields)
	cancelActive := s.focus == len(s.fields)+1
	submit := renderButton(submitLabel, submitActive, false)
	cancel := renderButton(cancelLabel, cancelActive, false)
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, submit, " ", cancel))
	b.WriteString("\n")

	if s.errMsg != "" {
		b.WriteString("\n" + styleError().Render(truncateLine(s.errMsg, bodyW)) + "\n")
	}
	b.WriteString("\n" + styleMuted().Render("tab: next field   enter: submit   esc: cancel"))
	return renderModalBox(width, s.spec.Title, b.String())
}

func (s *confirmSurface) view(width int) string {
	bodyW := modalBodyWidth(width)
	msg := lipgloss.NewStyle().Width(bodyW).Render(s.spec.Message)

	confirmLabel := s.spec.ConfirmLabel
	if confirmLabel == "" {
		confirmLabel = "OK"
	}
	cancelLabel := s.spec.CancelLabel
	if cancelLabel == "" {
		cancelLabel = "Cancel"
	}

	content := strings.Join([]string{
		msg,
		"",
		buttonRow(confirmLabel, cancelLabel, s.focus == confirmFocusConfirm, s.spec.Destructive),
		"",
		styleMuted().Render("tab: focus   enter: select   esc: cancel"),
	}, "\n")
	return renderModalBox(width, s.spec.Title, content)
}

func (s *listSurface) view(width int) string {
	bodyW := modalBodyWidth(width)
	var b strings.Builder
	if s.message != "" {
		b.WriteString(lipgloss.NewStyle().Width(bodyW).Render(s.message))
		b.WriteString("\n\n")
	}
	for i, opt := range s.options {
		cursor := "  "
		if i == s.idx {
			cursor = "> "
		}
		mark := ""
		if s.multi {
			if s.picked[opt.Value] {
				mark = "[x] "
			} else {
				mark = "[ ] "
			}
		}
		line := cursor + mark + opt.Label
		if opt.Description != "" {
			line += styleMuted().Render("  — " + opt.Description)
		}
		line = truncateLine(line, bodyW)
		switch {
		case opt.Disabled:
			line = styleMuted().Render(line)
		case i == s.idx:
			line = styleSelected().Render(padLine(line, bodyW))
		}
		b.WriteString(line + "\n")
	}
	if s.errMsg != "" {
		b.WriteString("\n" + styleError().Render(s.errMsg) + "\n")
	}
	help := "enter: select   esc: cancel"
	if s.multi {
		help = "space: toggle   enter: submit   esc: cancel"
	}
	b.WriteString("\n" + styleMuted().Render(help))
	return renderModalBox(width, s.title, b.String())
}

func (s *customSurface) view(width, height int) string {
	lines := strings.Split(s.body, "\n")
	maxLines := height - 8
	if maxLines < 4 {
		maxLines = 4
	}
	if s.scroll > len(lines)-1 {
		s.scroll = len(lines) - 1
	}
	if s.scroll < 0 {
		s.scroll = 0
	}
	end := s.scroll + maxLines
	if end > len(lines) {
		end = len(lines)
	}
	content := strings.Join(lines[s.scroll:end], "\n")
	content += "\n\n" + styleMuted().Render("j/k: scroll   esc: close")
	return renderModalBox(width, s.title, content)
}
