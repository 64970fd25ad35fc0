package modal

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Scripted answers requests from pre-loaded queues instead of a surface. It
// backs the non-interactive CLI commands and tests. An exhausted queue falls
// back to the zero answer (cancel) unless a default is configured.
type Scripted struct {
	mu sync.Mutex

	// DefaultConfirm answers confirmations once Confirms is exhausted
	// (the CLI sets it from --yes).
	DefaultConfirm bool
	Confirms       []bool

	// Forms entries answer form requests in order; a nil entry cancels.
	// Once exhausted, answers are assembled from each field's default; a
	// required field without a default fails the request.
	Forms []FormValues

	// Choices answer choice/select requests in order; "" cancels.
	Choices []string

	// Multis answer multi-selection requests; a nil entry cancels.
	Multis [][]string
}

func (s *Scripted) RequestForm(_ context.Context, spec FormSpec) (FormValues, error) {
	s.mu.Lock()
	var vals FormValues
	scripted := false
	if len(s.Forms) > 0 {
		vals = s.Forms[0]
		s.Forms = s.Forms[1:]
		scripted = true
	}
	s.mu.Unlock()

	if scripted {
		if vals == nil {
			return nil, nil
		}
		if missing := MissingRequired(spec, vals); len(missing) > 0 {
			return nil, fmt.Errorf("missing required fields: %s", strings.Join(missing, ", "))
		}
		return vals, nil
	}

	vals = FormValues{}
	for _, f := range spec.Fields {
		vals[f.Name] = f.Default
	}
	if missing := MissingRequired(spec, vals); len(missing) > 0 {
		return nil, fmt.Errorf("missing required fields: %s", strings.Join(missing, ", "))
	}
	return vals, nil
}

func (s *Scripted) RequestConfirmation(_ context.Context, _ ConfirmSpec) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.Confirms) > 0 {
		v := s.Confirms[0]
		s.Confirms = s.Confirms[1:]
		return v, nil
	}
	return s.DefaultConfirm, nil
}

func (s *Scripted) popChoice() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.Choices) == 0 {
		return "", false
	}
	v := s.Choices[0]
	s.Choices = s.Choices[1:]
	if strings.TrimSpace(v) == "" {
		return "", false
	}
	return v, true
}

func (s *Scripted) RequestChoice(_ context.Context, _ ChoiceSpec) (string, bool, error) {
	v, ok := s.popChoice()
	return v, ok, nil
}

func (s *Scripted) RequestSelection(_ context.Context, _ SelectSpec) (string, bool, error) {
	v, ok := s.popChoice()
	return v, ok, nil
}

func (s *Scripted) RequestMultiSelection(_ context.Context, _ SelectSpec) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.Multis) == 0 {
		return nil, nil
	}
	v := s.Multis[0]
	s.Multis = s.Multis[1:]
	if len(v) == 0 {
		return nil, nil
	}
	return v, nil
}

func (s *Scripted) RequestCustom(_ context.Context, _ any, _ CustomSpec) (any, error) {
	return nil, nil
}
