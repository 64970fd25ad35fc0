package tui

import (
	"fmt"
	"strings"

	"curricula-cli/internal/model"
)

type rowKind int

const (
	rowSection rowKind = iota
	rowSubSection
	rowModule
)

func (k rowKind) String() string {
	switch k {
	case rowSection:
		return "section"
	case rowSubSection:
		return "sub-section"
	default:
		return "module"
	}
}

// outlineRow is one visible line of the curriculum tree.
type outlineRow struct {
	kind  rowKind
	id    string
	title string
	order int
	depth int
	// parent addresses the sibling scope this row belongs to; two rows are
	// reorder-compatible when their kind and parent key match.
	parent model.ParentRef
	// moduleType is set for module rows.
	moduleType model.ModuleType
	// content is carried for module preview.
	content string
	// counts for section/subsection rows, shown as chrome.
	nChildren int
}

// flattenCourse walks the tree depth-first in sibling order. Collapsed ids
// hide their subtree. A non-empty filter keeps only rows whose title matches
// (case-insensitive); filtered rows keep their real order values so the view
// never suggests fake positions.
func flattenCourse(course *model.Course, collapsed map[string]bool, filter string) []outlineRow {
	filter = strings.ToLower(strings.TrimSpace(filter))
	match := func(title string) bool {
		return filter == "" || strings.Contains(strings.ToLower(title), filter)
	}

	var out []outlineRow
	appendRow := func(r outlineRow) {
		if match(r.title) {
			out = append(out, r)
		}
	}

	for _, sec := range course.Sections {
		appendRow(outlineRow{
			kind:      rowSection,
			id:        sec.ID,
			title:     sec.Title,
			order:     sec.Order,
			parent:    model.ParentRef{CourseID: course.ID},
			nChildren: len(sec.Modules) + len(sec.SubSections),
		})
		if collapsed[sec.ID] {
			continue
		}
		for _, m := range sec.Modules {
			appendRow(outlineRow{
				kind:       rowModule,
				id:         m.ID,
				title:      m.Title,
				order:      m.Order,
				depth:      1,
				parent:     model.ParentRef{SectionID: sec.ID},
				moduleType: m.Type,
				content:    m.Content,
			})
		}
		for _, ss := range sec.SubSections {
			appendRow(outlineRow{
				kind:      rowSubSection,
				id:        ss.ID,
				title:     ss.Title,
				order:     ss.Order,
				depth:     1,
				parent:    model.ParentRef{SectionID: sec.ID},
				nChildren: len(ss.Modules),
			})
			if collapsed[ss.ID] {
				continue
			}
			for _, m := range ss.Modules {
				appendRow(outlineRow{
					kind:       rowModule,
					id:         m.ID,
					title:      m.Title,
					order:      m.Order,
					depth:      2,
					parent:     model.ParentRef{SubSectionID: ss.ID},
					moduleType: m.Type,
					content:    m.Content,
				})
			}
		}
	}
	return out
}

func rowGlyph(r outlineRow) string {
	switch r.kind {
	case rowSection:
		return "§"
	case rowSubSection:
		return "▸"
	default:
		switch r.moduleType {
		case model.ModuleTypeVideo:
			return "▶"
		case model.ModuleTypeQuiz:
			return "?"
		case model.ModuleTypeChat:
			return "…"
		default:
			return "≡"
		}
	}
}

func renderRow(r outlineRow, selected, grabbed bool, width int) string {
	indent := strings.Repeat("  ", r.depth)
	label := fmt.Sprintf("%s%s %d. %s", indent, rowGlyph(r), r.order, r.title)
	if r.kind != rowModule && r.nChildren > 0 {
		label += styleMuted().Render(fmt.Sprintf("  (%d)", r.nChildren))
	}
	if grabbed {
		label = "⠿ " + label
	} else {
		label = "  " + label
	}
	label = padLine(label, width)
	if selected {
		return styleSelected().Render(label)
	}
	return label
}
