package engine

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"curricula-cli/internal/gateway"
	"curricula-cli/internal/modal"
	"curricula-cli/internal/model"
)

// Section duplication strategies offered by DuplicateSection.
const (
	DuplicateSimple     = "copy"
	DuplicateReferenced = "copy-with-references"
	DuplicateTemplate   = "save-as-template"
)

// AddSection collects a title and appends a new section at the end of the
// course. The local tree changes only after the gateway accepts the create.
func (e *Engine) AddSection(ctx context.Context) error {
	vals, err := e.prompter.RequestForm(ctx, modal.FormSpec{
		Title: "New section",
		Fields: []modal.Field{
			{Name: "title", Label: "Title", Type: modal.FieldText, Required: true},
		},
	})
	if err != nil {
		return e.fail("add section", err)
	}
	if vals == nil {
		return nil
	}

	title, err := cleanTitle(vals["title"])
	if err != nil {
		return e.fail("add section", err)
	}

	e.mu.Lock()
	in := gateway.CreateSectionInput{
		CourseID: e.course.ID,
		Title:    title,
		Order:    len(e.course.Sections) + 1,
	}
	e.mu.Unlock()
	if err := e.validateStruct(in); err != nil {
		return e.fail("add section", err)
	}

	sec, err := e.gw.CreateSection(ctx, in)
	if err != nil {
		return e.fail("add section", err)
	}

	e.mu.Lock()
	sec.Order = in.Order
	e.course.Sections = append(e.course.Sections, sec)
	e.mu.Unlock()

	e.log.Info("section created", zap.String("id", sec.ID), zap.Int("order", sec.Order))
	e.notifier.Success("Section added")
	return nil
}

// EditSection opens a form pre-populated with the current title and patches
// only what changed. Edits are pessimistic: the local node updates after the
// gateway confirms, so a failed patch never leaves a divergent title.
func (e *Engine) EditSection(ctx context.Context, id string) error {
	e.mu.Lock()
	sec, _ := e.findSection(id)
	if sec == nil {
		e.mu.Unlock()
		return e.fail("edit section", validationErrf("section not found"))
	}
	current := sec.Title
	e.mu.Unlock()

	vals, err := e.prompter.RequestForm(ctx, modal.FormSpec{
		Title: "Edit section",
		Fields: []modal.Field{
			{Name: "title", Label: "Title", Type: modal.FieldText, Required: true, Default: current},
		},
	})
	if err != nil {
		return e.fail("edit section", err)
	}
	if vals == nil {
		return nil
	}

	title, err := cleanTitle(vals["title"])
	if err != nil {
		return e.fail("edit section", err)
	}
	if title == current {
		return nil
	}

	if err := e.gw.UpdateSection(ctx, id, gateway.SectionPatch{Title: &title}); err != nil {
		return e.fail("edit section", err)
	}

	e.mu.Lock()
	if sec, _ := e.findSection(id); sec != nil {
		sec.Title = title
	}
	e.mu.Unlock()
	e.notifier.Success("Section updated")
	return nil
}

// DeleteSection confirms the cascade, deletes remotely, then removes the
// local node and closes the order gap. No optimistic removal: the outline
// must not show a state the server has not accepted.
func (e *Engine) DeleteSection(ctx context.Context, id string) error {
	e.mu.Lock()
	sec, _ := e.findSection(id)
	if sec == nil {
		e.mu.Unlock()
		return e.fail("delete section", validationErrf("section not found"))
	}
	title := sec.Title
	nModules := len(sec.Modules)
	for _, ss := range sec.SubSections {
		nModules += len(ss.Modules)
	}
	nSubs := len(sec.SubSections)
	e.mu.Unlock()

	ok, err := e.prompter.RequestConfirmation(ctx, modal.ConfirmSpec{
		Title:        "Delete section",
		Message:      fmt.Sprintf("Delete %q? This will also delete %d sub-section(s) and %d module(s).", title, nSubs, nModules),
		ConfirmLabel: "Delete",
		CancelLabel:  "Cancel",
		Destructive:  true,
	})
	if err != nil {
		return e.fail("delete section", err)
	}
	if !ok {
		return nil
	}

	if err := e.gw.DeleteSection(ctx, id); err != nil {
		return e.fail("delete section", err)
	}

	e.mu.Lock()
	if _, idx := e.findSection(id); idx >= 0 {
		e.course.Sections = append(e.course.Sections[:idx], e.course.Sections[idx+1:]...)
	}
	tail := trailingSections(e.course.Sections)
	e.mu.Unlock()

	// Close the gap left by the deleted order. Shifting each trailing sibling
	// down one, in ascending order, never collides with a held value.
	for _, t := range tail {
		if err := e.gw.UpdateSection(ctx, t.id, gateway.SectionPatch{Order: &t.order}); err != nil {
			return e.fail("delete section", fmt.Errorf("renumber after delete: %w", err))
		}
	}

	e.log.Info("section deleted", zap.String("id", id))
	e.notifier.Success("Section deleted")
	return nil
}

// DuplicateSection offers the duplication strategies and performs the chosen
// one. Saving as a template is not backed by the current gateway and fails
// fast rather than silently doing nothing.
func (e *Engine) DuplicateSection(ctx context.Context, id string) error {
	e.mu.Lock()
	sec, _ := e.findSection(id)
	if sec == nil {
		e.mu.Unlock()
		return e.fail("duplicate section", validationErrf("section not found"))
	}
	src := sec.Clone()
	count := len(e.course.Sections)
	e.mu.Unlock()

	strategy, ok, err := e.prompter.RequestChoice(ctx, modal.ChoiceSpec{
		Title:   "Duplicate section",
		Message: "How should this section be duplicated?",
		Options: []modal.Option{
			{Label: "Simple copy", Value: DuplicateSimple, Description: "Copy the section with all sub-sections and modules"},
			{Label: "Copy with references", Value: DuplicateReferenced, Description: "Copy the section; pick which sub-sections to carry over"},
			{Label: "Save as template", Value: DuplicateTemplate, Description: "Store this section as a reusable template"},
		},
	})
	if err != nil {
		return e.fail("duplicate section", err)
	}
	if !ok {
		return nil
	}

	if strategy == DuplicateTemplate {
		return e.fail("duplicate section", fmt.Errorf("save as template: %w", gateway.ErrNotSupported))
	}

	var includeSubs []*model.SubSection
	switch strategy {
	case DuplicateSimple:
		includeSubs = src.SubSections
	case DuplicateReferenced:
		if len(src.SubSections) > 0 {
			opts := make([]modal.Option, len(src.SubSections))
			for i, ss := range src.SubSections {
				opts[i] = modal.Option{Label: ss.Title, Value: ss.ID}
			}
			picked, err := e.prompter.RequestMultiSelection(ctx, modal.SelectSpec{
				Title:   "Sub-sections to include",
				Message: "Select the sub-sections to carry into the copy.",
				Options: opts,
			})
			if err != nil {
				return e.fail("duplicate section", err)
			}
			if picked == nil {
				return nil
			}
			keep := map[string]bool{}
			for _, id := range picked {
				keep[id] = true
			}
			for _, ss := range src.SubSections {
				if keep[ss.ID] {
					includeSubs = append(includeSubs, ss)
				}
			}
		}
	default:
		return e.fail("duplicate section", validationErrf("unknown duplication strategy %q", strategy))
	}

	vals, err := e.prompter.RequestForm(ctx, modal.FormSpec{
		Title: "Name the copy",
		Fields: []modal.Field{
			{Name: "title", Label: "New title", Type: modal.FieldText, Required: true, Default: "Copy of " + src.Title},
		},
	})
	if err != nil {
		return e.fail("duplicate section", err)
	}
	if vals == nil {
		return nil
	}
	title, err := cleanTitle(vals["title"])
	if err != nil {
		return e.fail("duplicate section", err)
	}

	created, err := e.gw.CreateSection(ctx, gateway.CreateSectionInput{
		CourseID: src.CourseID,
		Title:    title,
		Order:    count + 1,
	})
	if err != nil {
		return e.fail("duplicate section", err)
	}
	created.Order = count + 1

	for i, m := range src.Modules {
		cm, err := e.gw.CreateModule(ctx, gateway.CreateModuleInput{
			SectionID: created.ID,
			Title:     m.Title,
			Type:      m.Type,
			Content:   m.Content,
			Quiz:      m.Quiz.Clone(),
			Order:     i + 1,
		})
		if err != nil {
			return e.fail("duplicate section", err)
		}
		created.Modules = append(created.Modules, cm)
	}
	for i, ss := range includeSubs {
		cs, err := e.gw.CreateSubSection(ctx, gateway.CreateSubSectionInput{
			SectionID:   created.ID,
			Title:       ss.Title,
			Description: ss.Description,
			Objectives:  append([]string(nil), ss.Objectives...),
			DurationMin: ss.DurationMin,
			Order:       i + 1,
		})
		if err != nil {
			return e.fail("duplicate section", err)
		}
		for j, m := range ss.Modules {
			cm, err := e.gw.CreateModule(ctx, gateway.CreateModuleInput{
				SubSectionID: cs.ID,
				Title:        m.Title,
				Type:         m.Type,
				Content:      m.Content,
				Quiz:         m.Quiz.Clone(),
				Order:        j + 1,
			})
			if err != nil {
				return e.fail("duplicate section", err)
			}
			cs.Modules = append(cs.Modules, cm)
		}
		created.SubSections = append(created.SubSections, cs)
	}

	e.mu.Lock()
	e.course.Sections = append(e.course.Sections, created)
	e.mu.Unlock()

	e.log.Info("section duplicated",
		zap.String("source", id),
		zap.String("copy", created.ID),
		zap.String("strategy", strategy),
	)
	e.notifier.Success("Section duplicated")
	return nil
}

type orderFix struct {
	id    string
	order int
}

// trailingSections lists sections whose stored order disagrees with their
// position, re-stamping local orders as it goes. Called under e.mu.
func trailingSections(secs []*model.Section) []orderFix {
	var out []orderFix
	for i, s := range secs {
		want := i + 1
		if s.Order != want {
			s.Order = want
			out = append(out, orderFix{id: s.ID, order: want})
		}
	}
	return out
}

func trailingSubSections(subs []*model.SubSection) []orderFix {
	var out []orderFix
	for i, s := range subs {
		want := i + 1
		if s.Order != want {
			s.Order = want
			out = append(out, orderFix{id: s.ID, order: want})
		}
	}
	return out
}

func trailingModules(mods []*model.Module) []orderFix {
	var out []orderFix
	for i, m := range mods {
		want := i + 1
		if m.Order != want {
			m.Order = want
			out = append(out, orderFix{id: m.ID, order: want})
		}
	}
	return out
}
