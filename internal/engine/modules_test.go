package engine

import (
	"context"
	"errors"
	"testing"

	"curricula-cli/internal/gateway"
	"curricula-cli/internal/modal"
	"curricula-cli/internal/model"
)

func TestValidateModulePayload(t *testing.T) {
	quiz := func(prompt string, answer int, options ...string) *model.QuizData {
		return &model.QuizData{Questions: []model.QuizQuestion{{
			Prompt:  prompt,
			Options: options,
			Answer:  answer,
		}}}
	}
	cases := []struct {
		name    string
		typ     model.ModuleType
		content string
		quiz    *model.QuizData
		wantErr bool
	}{
		{"video url ok", model.ModuleTypeVideo, "https://v/abc", nil, false},
		{"video empty", model.ModuleTypeVideo, "", nil, true},
		{"video with spaces", model.ModuleTypeVideo, "not a url", nil, true},
		{"text ok", model.ModuleTypeText, "# Heading", nil, false},
		{"text blank", model.ModuleTypeText, "   ", nil, true},
		{"chat ok", model.ModuleTypeChat, "case list", nil, false},
		{"quiz ok", model.ModuleTypeQuiz, "", quiz("2+2?", 1, "3", "4"), false},
		{"quiz nil", model.ModuleTypeQuiz, "", nil, true},
		{"quiz no questions", model.ModuleTypeQuiz, "", &model.QuizData{}, true},
		{"quiz blank prompt", model.ModuleTypeQuiz, "", quiz("  ", 0, "a", "b"), true},
		{"quiz one option", model.ModuleTypeQuiz, "", quiz("q?", 0, "only"), true},
		{"quiz empty option", model.ModuleTypeQuiz, "", quiz("q?", 0, "a", " "), true},
		{"quiz answer out of range", model.ModuleTypeQuiz, "", quiz("q?", 2, "a", "b"), true},
		{"quiz answer negative", model.ModuleTypeQuiz, "", quiz("q?", -1, "a", "b"), true},
		{"unknown type", model.ModuleType("slides"), "x", nil, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := validateModulePayload(tc.typ, tc.content, tc.quiz)
			if tc.wantErr && err == nil {
				t.Fatal("want error")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestModuleFromFormQuiz(t *testing.T) {
	content, quiz, err := moduleFromForm(model.ModuleTypeQuiz, modal.FormValues{
		"question": " What is 2+2? ",
		"options":  "3\n4\n5",
		"answer":   "2",
	})
	if err != nil {
		t.Fatalf("moduleFromForm: %v", err)
	}
	if content != "" {
		t.Fatalf("quiz content %q, want empty", content)
	}
	q := quiz.Questions[0]
	if q.Prompt != "What is 2+2?" {
		t.Fatalf("prompt %q", q.Prompt)
	}
	// The form takes a 1-based option number; storage is 0-based.
	if q.Answer != 1 {
		t.Fatalf("answer %d, want 1", q.Answer)
	}
	if len(q.Options) != 3 {
		t.Fatalf("options %v", q.Options)
	}

	if _, _, err := moduleFromForm(model.ModuleTypeQuiz, modal.FormValues{
		"question": "q", "options": "a\nb", "answer": "second",
	}); err == nil {
		t.Fatal("non-numeric answer should error")
	}
}

func TestAddModuleToSection(t *testing.T) {
	gw := newFakeGateway()
	prompter := &modal.Scripted{
		Choices: []string{string(model.ModuleTypeVideo)},
		Forms:   []modal.FormValues{{"title": "Intro video", "video": "vid-123"}},
	}
	eng := seedCourse(t, gw, prompter, 1)
	secID := sectionIDs(eng.Course())[0]

	if err := eng.AddModule(context.Background(), model.ParentRef{SectionID: secID}); err != nil {
		t.Fatalf("add module: %v", err)
	}

	mods := eng.Course().Sections[0].Modules
	if len(mods) != 1 {
		t.Fatalf("got %d modules, want 1", len(mods))
	}
	if mods[0].Type != model.ModuleTypeVideo || mods[0].Content != "vid-123" {
		t.Fatalf("module %+v", mods[0])
	}
	if mods[0].Order != 1 {
		t.Fatalf("order %d, want 1", mods[0].Order)
	}
}

func TestAddModuleInvalidVideoRejected(t *testing.T) {
	gw := newFakeGateway()
	prompter := &modal.Scripted{
		Choices: []string{string(model.ModuleTypeVideo)},
		Forms:   []modal.FormValues{{"title": "Intro video", "video": "two words"}},
	}
	eng := seedCourse(t, gw, prompter, 1)
	secID := sectionIDs(eng.Course())[0]

	err := eng.AddModule(context.Background(), model.ParentRef{SectionID: secID})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("want ValidationError, got %v", err)
	}
	if len(gw.mods) != 0 {
		t.Fatal("invalid module reached the gateway")
	}
}

func TestAddModuleCancelledTypeSelection(t *testing.T) {
	gw := newFakeGateway()
	prompter := &modal.Scripted{Choices: []string{""}}
	eng := seedCourse(t, gw, prompter, 1)
	secID := sectionIDs(eng.Course())[0]

	if err := eng.AddModule(context.Background(), model.ParentRef{SectionID: secID}); err != nil {
		t.Fatalf("cancelled add should not error: %v", err)
	}
	if len(gw.mods) != 0 {
		t.Fatal("cancelled add created a module")
	}
}

func TestEditModuleKeepsQuizWhenUnchanged(t *testing.T) {
	gw := newFakeGateway()
	ctx := context.Background()
	sec, _ := gw.CreateSection(ctx, gateway.CreateSectionInput{CourseID: "course-1", Title: "Basics", Order: 1})
	mod, _ := gw.CreateModule(ctx, gateway.CreateModuleInput{
		SectionID: sec.ID,
		Title:     "Check yourself",
		Type:      model.ModuleTypeQuiz,
		Quiz: &model.QuizData{Questions: []model.QuizQuestion{{
			Prompt:  "2+2?",
			Options: []string{"3", "4"},
			Answer:  1,
		}}},
		Order: 1,
	})

	prompter := &modal.Scripted{Forms: []modal.FormValues{{
		"title":    "Check yourself again",
		"question": "2+2?",
		"options":  "3\n4",
		"answer":   "2",
	}}}
	eng := New("course-1", gw, prompter, nil, nil)
	if err := eng.Load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}

	if err := eng.EditModule(ctx, mod.ID); err != nil {
		t.Fatalf("edit module: %v", err)
	}

	row := gw.mods[mod.ID]
	if row.title != "Check yourself again" {
		t.Fatalf("stored title %q", row.title)
	}
	if row.quiz.Questions[0].Answer != 1 {
		t.Fatalf("quiz answer changed: %+v", row.quiz)
	}
}

func TestDeleteModuleClosesGap(t *testing.T) {
	gw := newFakeGateway()
	ctx := context.Background()
	sec, _ := gw.CreateSection(ctx, gateway.CreateSectionInput{CourseID: "course-1", Title: "Basics", Order: 1})
	var modIDs []string
	for _, title := range []string{"First", "Second", "Third"} {
		m, err := gw.CreateModule(ctx, gateway.CreateModuleInput{
			SectionID: sec.ID,
			Title:     title,
			Type:      model.ModuleTypeText,
			Content:   "body",
			Order:     len(modIDs) + 1,
		})
		if err != nil {
			t.Fatalf("seed module: %v", err)
		}
		modIDs = append(modIDs, m.ID)
	}

	prompter := &modal.Scripted{Confirms: []bool{true}}
	eng := New("course-1", gw, prompter, nil, nil)
	if err := eng.Load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}

	if err := eng.DeleteModule(ctx, modIDs[1]); err != nil {
		t.Fatalf("delete module: %v", err)
	}

	mods := eng.Course().Sections[0].Modules
	if len(mods) != 2 {
		t.Fatalf("got %d modules, want 2", len(mods))
	}
	for i, m := range mods {
		if m.Order != i+1 {
			t.Fatalf("module %s order %d, want %d", m.ID, m.Order, i+1)
		}
	}
	if _, ok := gw.mods[modIDs[1]]; ok {
		t.Fatal("deleted module still in the store")
	}
}
