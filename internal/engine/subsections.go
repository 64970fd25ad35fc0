package engine

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"curricula-cli/internal/gateway"
	"curricula-cli/internal/modal"
)

func subSectionFormFields(title, description, objectives, duration string) []modal.Field {
	return []modal.Field{
		{Name: "title", Label: "Title", Type: modal.FieldText, Required: true, Default: title},
		{Name: "description", Label: "Description", Type: modal.FieldTextarea, Default: description},
		{Name: "objectives", Label: "Objectives (one per line)", Type: modal.FieldTextarea, Default: objectives},
		{Name: "duration", Label: "Duration (minutes)", Type: modal.FieldNumber, Default: duration},
	}
}

func parseObjectives(raw string) []string {
	var out []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}

func parseDuration(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, validationErrf("duration must be a non-negative number of minutes")
	}
	return n, nil
}

// AddSubSection collects the sub-section fields and appends it to sectionID.
func (e *Engine) AddSubSection(ctx context.Context, sectionID string) error {
	e.mu.Lock()
	sec, _ := e.findSection(sectionID)
	if sec == nil {
		e.mu.Unlock()
		return e.fail("add sub-section", validationErrf("section not found"))
	}
	order := len(sec.SubSections) + 1
	e.mu.Unlock()

	vals, err := e.prompter.RequestForm(ctx, modal.FormSpec{
		Title:  "New sub-section",
		Fields: subSectionFormFields("", "", "", ""),
	})
	if err != nil {
		return e.fail("add sub-section", err)
	}
	if vals == nil {
		return nil
	}

	title, err := cleanTitle(vals["title"])
	if err != nil {
		return e.fail("add sub-section", err)
	}
	duration, err := parseDuration(vals["duration"])
	if err != nil {
		return e.fail("add sub-section", err)
	}

	in := gateway.CreateSubSectionInput{
		SectionID:   sectionID,
		Title:       title,
		Description: strings.TrimSpace(vals["description"]),
		Objectives:  parseObjectives(vals["objectives"]),
		DurationMin: duration,
		Order:       order,
	}
	if err := e.validateStruct(in); err != nil {
		return e.fail("add sub-section", err)
	}

	sub, err := e.gw.CreateSubSection(ctx, in)
	if err != nil {
		return e.fail("add sub-section", err)
	}

	e.mu.Lock()
	if sec, _ := e.findSection(sectionID); sec != nil {
		sub.Order = len(sec.SubSections) + 1
		sec.SubSections = append(sec.SubSections, sub)
	}
	e.mu.Unlock()

	e.log.Info("sub-section created", zap.String("id", sub.ID), zap.String("section", sectionID))
	e.notifier.Success("Sub-section added")
	return nil
}

// EditSubSection patches only the logical fields the form changed;
// local state updates after the gateway confirms.
func (e *Engine) EditSubSection(ctx context.Context, id string) error {
	e.mu.Lock()
	_, sub, _ := e.findSubSection(id)
	if sub == nil {
		e.mu.Unlock()
		return e.fail("edit sub-section", validationErrf("sub-section not found"))
	}
	cur := sub.Clone()
	e.mu.Unlock()

	duration := ""
	if cur.DurationMin > 0 {
		duration = strconv.Itoa(cur.DurationMin)
	}
	vals, err := e.prompter.RequestForm(ctx, modal.FormSpec{
		Title:  "Edit sub-section",
		Fields: subSectionFormFields(cur.Title, cur.Description, strings.Join(cur.Objectives, "\n"), duration),
	})
	if err != nil {
		return e.fail("edit sub-section", err)
	}
	if vals == nil {
		return nil
	}

	title, err := cleanTitle(vals["title"])
	if err != nil {
		return e.fail("edit sub-section", err)
	}
	newDuration, err := parseDuration(vals["duration"])
	if err != nil {
		return e.fail("edit sub-section", err)
	}
	description := strings.TrimSpace(vals["description"])
	objectives := parseObjectives(vals["objectives"])

	var patch gateway.SubSectionPatch
	if title != cur.Title {
		patch.Title = &title
	}
	if description != cur.Description {
		patch.Description = &description
	}
	if strings.Join(objectives, "\n") != strings.Join(cur.Objectives, "\n") {
		patch.Objectives = &objectives
	}
	if newDuration != cur.DurationMin {
		patch.DurationMin = &newDuration
	}
	if patch.Empty() {
		return nil
	}

	if err := e.gw.UpdateSubSection(ctx, id, patch); err != nil {
		return e.fail("edit sub-section", err)
	}

	e.mu.Lock()
	if _, sub, _ := e.findSubSection(id); sub != nil {
		if patch.Title != nil {
			sub.Title = *patch.Title
		}
		if patch.Description != nil {
			sub.Description = *patch.Description
		}
		if patch.Objectives != nil {
			sub.Objectives = *patch.Objectives
		}
		if patch.DurationMin != nil {
			sub.DurationMin = *patch.DurationMin
		}
	}
	e.mu.Unlock()
	e.notifier.Success("Sub-section updated")
	return nil
}

// DeleteSubSection confirms the module cascade, deletes remotely, then
// removes the local node and closes the order gap among its siblings.
func (e *Engine) DeleteSubSection(ctx context.Context, id string) error {
	e.mu.Lock()
	sec, sub, _ := e.findSubSection(id)
	if sub == nil {
		e.mu.Unlock()
		return e.fail("delete sub-section", validationErrf("sub-section not found"))
	}
	title := sub.Title
	nModules := len(sub.Modules)
	sectionID := sec.ID
	e.mu.Unlock()

	ok, err := e.prompter.RequestConfirmation(ctx, modal.ConfirmSpec{
		Title:        "Delete sub-section",
		Message:      fmt.Sprintf("Delete %q? This will also delete %d module(s).", title, nModules),
		ConfirmLabel: "Delete",
		CancelLabel:  "Cancel",
		Destructive:  true,
	})
	if err != nil {
		return e.fail("delete sub-section", err)
	}
	if !ok {
		return nil
	}

	if err := e.gw.DeleteSubSection(ctx, id); err != nil {
		return e.fail("delete sub-section", err)
	}

	e.mu.Lock()
	var tail []orderFix
	if sec, _ := e.findSection(sectionID); sec != nil {
		for i, ss := range sec.SubSections {
			if ss.ID == id {
				sec.SubSections = append(sec.SubSections[:i], sec.SubSections[i+1:]...)
				break
			}
		}
		tail = trailingSubSections(sec.SubSections)
	}
	e.mu.Unlock()

	for _, t := range tail {
		if err := e.gw.UpdateSubSection(ctx, t.id, gateway.SubSectionPatch{Order: &t.order}); err != nil {
			return e.fail("delete sub-section", fmt.Errorf("renumber after delete: %w", err))
		}
	}

	e.log.Info("sub-section deleted", zap.String("id", id))
	e.notifier.Success("Sub-section deleted")
	return nil
}
