package engine

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"curricula-cli/internal/gateway"
	"curricula-cli/internal/modal"
	"curricula-cli/internal/model"
)

func moduleTypeOptions() []modal.Option {
	return []modal.Option{
		{Label: "Video", Value: string(model.ModuleTypeVideo), Description: "A hosted video, addressed by URL or id"},
		{Label: "Text", Value: string(model.ModuleTypeText), Description: "Markdown content shown inline"},
		{Label: "Quiz", Value: string(model.ModuleTypeQuiz), Description: "Multiple-choice questions"},
		{Label: "Chat", Value: string(model.ModuleTypeChat), Description: "A guided chat case list"},
	}
}

func moduleFormFields(typ model.ModuleType, m *model.Module) []modal.Field {
	title := ""
	content := ""
	if m != nil {
		title = m.Title
		content = m.Content
	}
	fields := []modal.Field{
		{Name: "title", Label: "Title", Type: modal.FieldText, Required: true, Default: title},
	}
	switch typ {
	case model.ModuleTypeVideo:
		fields = append(fields,
			modal.Field{Name: "video", Label: "Video URL or id", Type: modal.FieldText, Required: true, Default: content})
	case model.ModuleTypeQuiz:
		prompt, options, answer := "", "", ""
		if m != nil && m.Quiz != nil && len(m.Quiz.Questions) > 0 {
			q := m.Quiz.Questions[0]
			prompt = q.Prompt
			options = strings.Join(q.Options, "\n")
			answer = strconv.Itoa(q.Answer + 1)
		}
		fields = append(fields,
			modal.Field{Name: "question", Label: "Question", Type: modal.FieldText, Required: true, Default: prompt},
			modal.Field{Name: "options", Label: "Options (one per line)", Type: modal.FieldTextarea, Required: true, Default: options},
			modal.Field{Name: "answer", Label: "Correct option number", Type: modal.FieldNumber, Required: true, Default: answer})
	default:
		fields = append(fields,
			modal.Field{Name: "content", Label: "Content", Type: modal.FieldTextarea, Required: true, Default: content})
	}
	return fields
}

// moduleFromForm builds the content payload for typ out of form values.
func moduleFromForm(typ model.ModuleType, vals modal.FormValues) (content string, quiz *model.QuizData, err error) {
	switch typ {
	case model.ModuleTypeQuiz:
		options := parseObjectives(vals["options"])
		answer, convErr := strconv.Atoi(strings.TrimSpace(vals["answer"]))
		if convErr != nil {
			return "", nil, validationErrf("correct option must be a number")
		}
		quiz = &model.QuizData{Questions: []model.QuizQuestion{{
			Prompt:  strings.TrimSpace(vals["question"]),
			Options: options,
			Answer:  answer - 1,
		}}}
		return "", quiz, nil
	case model.ModuleTypeVideo:
		return strings.TrimSpace(vals["video"]), nil, nil
	default:
		return strings.TrimSpace(vals["content"]), nil, nil
	}
}

// validateModulePayload enforces the type-specific rules before any gateway
// call: a failing module is reported and never partially written.
func validateModulePayload(typ model.ModuleType, content string, quiz *model.QuizData) error {
	switch typ {
	case model.ModuleTypeVideo:
		if content == "" || strings.ContainsAny(content, " \t") {
			return validationErrf("video modules need a resolvable video URL or id")
		}
	case model.ModuleTypeText, model.ModuleTypeChat:
		if strings.TrimSpace(content) == "" {
			return validationErrf("%s modules need content", typ)
		}
	case model.ModuleTypeQuiz:
		if quiz == nil || len(quiz.Questions) == 0 {
			return validationErrf("quiz modules need at least one question")
		}
		for i, q := range quiz.Questions {
			if strings.TrimSpace(q.Prompt) == "" {
				return validationErrf("question %d has no prompt", i+1)
			}
			if len(q.Options) < 2 {
				return validationErrf("question %d needs at least two options", i+1)
			}
			for j, opt := range q.Options {
				if strings.TrimSpace(opt) == "" {
					return validationErrf("question %d option %d is empty", i+1, j+1)
				}
			}
			if q.Answer < 0 || q.Answer >= len(q.Options) {
				return validationErrf("question %d has no valid correct option", i+1)
			}
		}
	default:
		return validationErrf("unknown module type %q", typ)
	}
	return nil
}

// AddModule picks a type, collects the type's fields and appends the module
// to parent (a section or a subsection).
func (e *Engine) AddModule(ctx context.Context, parent model.ParentRef) error {
	e.mu.Lock()
	mods := e.modulesFor(parent)
	if mods == nil {
		e.mu.Unlock()
		return e.fail("add module", validationErrf("parent not found"))
	}
	order := len(*mods) + 1
	e.mu.Unlock()

	typVal, ok, err := e.prompter.RequestSelection(ctx, modal.SelectSpec{
		Title:   "Module type",
		Message: "What kind of module is this?",
		Options: moduleTypeOptions(),
	})
	if err != nil {
		return e.fail("add module", err)
	}
	if !ok {
		return nil
	}
	typ := model.ModuleType(typVal)

	vals, err := e.prompter.RequestForm(ctx, modal.FormSpec{
		Title:  "New module",
		Fields: moduleFormFields(typ, nil),
	})
	if err != nil {
		return e.fail("add module", err)
	}
	if vals == nil {
		return nil
	}

	title, err := cleanTitle(vals["title"])
	if err != nil {
		return e.fail("add module", err)
	}
	content, quiz, err := moduleFromForm(typ, vals)
	if err != nil {
		return e.fail("add module", err)
	}
	if err := validateModulePayload(typ, content, quiz); err != nil {
		return e.fail("add module", err)
	}

	in := gateway.CreateModuleInput{
		SectionID:    parent.SectionID,
		SubSectionID: parent.SubSectionID,
		Title:        title,
		Type:         typ,
		Content:      content,
		Quiz:         quiz,
		Order:        order,
	}
	if err := e.validateStruct(in); err != nil {
		return e.fail("add module", err)
	}

	mod, err := e.gw.CreateModule(ctx, in)
	if err != nil {
		return e.fail("add module", err)
	}

	e.mu.Lock()
	if mods := e.modulesFor(parent); mods != nil {
		mod.Order = len(*mods) + 1
		*mods = append(*mods, mod)
	}
	e.mu.Unlock()

	e.log.Info("module created", zap.String("id", mod.ID), zap.String("type", string(typ)))
	e.notifier.Success("Module added")
	return nil
}

// EditModule re-opens the module's form pre-populated and patches only the
// changed fields. Pessimistic, like every edit.
func (e *Engine) EditModule(ctx context.Context, id string) error {
	e.mu.Lock()
	mods, _, idx := e.findModule(id)
	if idx < 0 {
		e.mu.Unlock()
		return e.fail("edit module", validationErrf("module not found"))
	}
	cur := (*mods)[idx].Clone()
	e.mu.Unlock()

	vals, err := e.prompter.RequestForm(ctx, modal.FormSpec{
		Title:  "Edit module",
		Fields: moduleFormFields(cur.Type, cur),
	})
	if err != nil {
		return e.fail("edit module", err)
	}
	if vals == nil {
		return nil
	}

	title, err := cleanTitle(vals["title"])
	if err != nil {
		return e.fail("edit module", err)
	}
	content, quiz, err := moduleFromForm(cur.Type, vals)
	if err != nil {
		return e.fail("edit module", err)
	}
	if err := validateModulePayload(cur.Type, content, quiz); err != nil {
		return e.fail("edit module", err)
	}

	var patch gateway.ModulePatch
	if title != cur.Title {
		patch.Title = &title
	}
	if content != cur.Content {
		patch.Content = &content
	}
	if quiz != nil && !quizEqual(quiz, cur.Quiz) {
		patch.Quiz = quiz
	}
	if patch.Empty() {
		return nil
	}

	if err := e.gw.UpdateModule(ctx, id, patch); err != nil {
		return e.fail("edit module", err)
	}

	e.mu.Lock()
	if mods, _, idx := e.findModule(id); idx >= 0 {
		m := (*mods)[idx]
		if patch.Title != nil {
			m.Title = *patch.Title
		}
		if patch.Content != nil {
			m.Content = *patch.Content
		}
		if patch.Quiz != nil {
			m.Quiz = patch.Quiz.Clone()
		}
	}
	e.mu.Unlock()
	e.notifier.Success("Module updated")
	return nil
}

// DeleteModule confirms, deletes remotely, then removes the local node and
// closes the order gap.
func (e *Engine) DeleteModule(ctx context.Context, id string) error {
	e.mu.Lock()
	mods, parent, idx := e.findModule(id)
	if idx < 0 {
		e.mu.Unlock()
		return e.fail("delete module", validationErrf("module not found"))
	}
	title := (*mods)[idx].Title
	e.mu.Unlock()

	ok, err := e.prompter.RequestConfirmation(ctx, modal.ConfirmSpec{
		Title:        "Delete module",
		Message:      fmt.Sprintf("Delete module %q?", title),
		ConfirmLabel: "Delete",
		CancelLabel:  "Cancel",
		Destructive:  true,
	})
	if err != nil {
		return e.fail("delete module", err)
	}
	if !ok {
		return nil
	}

	if err := e.gw.DeleteModule(ctx, id); err != nil {
		return e.fail("delete module", err)
	}

	e.mu.Lock()
	var tail []orderFix
	if mods := e.modulesFor(parent); mods != nil {
		for i, m := range *mods {
			if m.ID == id {
				*mods = append((*mods)[:i], (*mods)[i+1:]...)
				break
			}
		}
		tail = trailingModules(*mods)
	}
	e.mu.Unlock()

	for _, t := range tail {
		if err := e.gw.UpdateModule(ctx, t.id, gateway.ModulePatch{Order: &t.order}); err != nil {
			return e.fail("delete module", fmt.Errorf("renumber after delete: %w", err))
		}
	}

	e.log.Info("module deleted", zap.String("id", id))
	e.notifier.Success("Module deleted")
	return nil
}

func quizEqual(a, b *model.QuizData) bool {
	if (a == nil) != (b == nil) {
		return false
	}
	if a == nil {
		return true
	}
	if len(a.Questions) != len(b.Questions) {
		return false
	}
	for i := range a.Questions {
		qa, qb := a.Questions[i], b.Questions[i]
		if qa.Prompt != qb.Prompt || qa.Answer != qb.Answer || len(qa.Options) != len(qb.Options) {
			return false
		}
		for j := range qa.Options {
			if qa.Options[j] != qb.Options[j] {
				return false
			}
		}
	}
	return true
}
