package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"

	"curricula-cli/internal/engine"
	"curricula-cli/internal/modal"
)

type appModel struct {
	eng    *engine.Engine
	broker *modal.Broker

	courseTitle string

	rows      []outlineRow
	cursor    int
	scroll    int
	collapsed map[string]bool

	width          int
	height         int
	seenWindowSize bool

	filterInput textinput.Model
	filtering   bool
	filter      string

	grab grabState

	notice    string
	noticeErr bool
	noticeSeq int

	// live mirrors the broker's slot; the surface states render it.
	live    *modal.Request
	form    *formSurface
	confirm *confirmSurface
	list    *listSurface
	custom  *customSurface
}

func newAppModel(eng *engine.Engine, broker *modal.Broker, courseTitle string) appModel {
	fi := textinput.New()
	fi.Placeholder = "Filter titles"
	fi.Prompt = "/"
	return appModel{
		eng:         eng,
		broker:      broker,
		courseTitle: courseTitle,
		collapsed:   map[string]bool{},
		filterInput: fi,
		width:       80,
		height:      24,
	}
}

func (m *appModel) rebuildRows() {
	course := m.eng.Course()
	if course.Title != "" {
		m.courseTitle = course.Title
	}
	m.rows = flattenCourse(course, m.collapsed, m.filter)
	if m.cursor >= len(m.rows) {
		m.cursor = len(m.rows) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *appModel) currentRow() (outlineRow, bool) {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return outlineRow{}, false
	}
	return m.rows[m.cursor], true
}

func (m *appModel) rowsViewportHeight() int {
	h := m.height - 4 // header, filter/notice, help
	if h < 3 {
		h = 3
	}
	return h
}

func (m *appModel) clampScroll() {
	h := m.rowsViewportHeight()
	if m.cursor < m.scroll {
		m.scroll = m.cursor
	}
	if m.cursor >= m.scroll+h {
		m.scroll = m.cursor - h + 1
	}
	if m.scroll < 0 {
		m.scroll = 0
	}
}

func (m appModel) View() string {
	if m.live != nil {
		return placeCentered(m.width, m.height, m.surfaceView())
	}

	var b strings.Builder

	title := m.courseTitle
	if title == "" {
		title = "Course"
	}
	header := " " + title
	if m.filter != "" && !m.filtering {
		header += styleMuted().Render(fmt.Sprintf("   filter: %q", m.filter))
	}
	if m.grab.active {
		header += styleError().Render(fmt.Sprintf("   moving %q — enter: after, b: before, esc: cancel", m.grab.title))
	}
	b.WriteString(lipgloss.NewStyle().Bold(true).Render(padLine(header, m.width)))
	b.WriteString("\n")

	h := m.rowsViewportHeight()
	end := m.scroll + h
	if end > len(m.rows) {
		end = len(m.rows)
	}
	if len(m.rows) == 0 {
		b.WriteString(styleMuted().Render("  No sections yet. Press a to add one."))
		b.WriteString(strings.Repeat("\n", h))
	} else {
		for i := m.scroll; i < end; i++ {
			r := m.rows[i]
			b.WriteString(renderRow(r, i == m.cursor, m.grab.active && r.id == m.grab.id, m.width))
			b.WriteString("\n")
		}
		for i := end - m.scroll; i < h; i++ {
			b.WriteString("\n")
		}
	}

	if m.filtering {
		b.WriteString(m.filterInput.View())
	} else if m.notice != "" {
		if m.noticeErr {
			b.WriteString(styleError().Render(truncateLine(m.notice, m.width)))
		} else {
			b.WriteString(truncateLine(m.notice, m.width))
		}
	}
	b.WriteString("\n")

	help := "j/k: move   a: add section   s: add sub-section   M: add module   e: edit   d: delete   D: duplicate   g: grab   v: view   /: filter   r: reload   q: quit"
	b.WriteString(styleMuted().Render(truncateLine(help, m.width)))

	return b.String()
}

func (m appModel) surfaceView() string {
	switch {
	case m.form != nil:
		return m.form.view(m.width)
	case m.confirm != nil:
		return m.confirm.view(m.width)
	case m.list != nil:
		return m.list.view(m.width)
	case m.custom != nil:
		return m.custom.view(m.width, m.height)
	default:
		return ""
	}
}
