package model

// Deep copies. The engine snapshots sibling groups before optimistic mutations
// and must restore them exactly on rollback, so copies share nothing with the
// originals.

func (c *Course) Clone() *Course {
	if c == nil {
		return nil
	}
	out := &Course{ID: c.ID, Title: c.Title}
	if c.Sections != nil {
		out.Sections = make([]*Section, len(c.Sections))
		for i, s := range c.Sections {
			out.Sections[i] = s.Clone()
		}
	}
	return out
}

func (s *Section) Clone() *Section {
	if s == nil {
		return nil
	}
	cp := *s
	cp.Modules = cloneModules(s.Modules)
	if s.SubSections != nil {
		cp.SubSections = make([]*SubSection, len(s.SubSections))
		for i, ss := range s.SubSections {
			cp.SubSections[i] = ss.Clone()
		}
	}
	return &cp
}

func (s *SubSection) Clone() *SubSection {
	if s == nil {
		return nil
	}
	cp := *s
	if s.Objectives != nil {
		cp.Objectives = append([]string(nil), s.Objectives...)
	}
	cp.Modules = cloneModules(s.Modules)
	return &cp
}

func (m *Module) Clone() *Module {
	if m == nil {
		return nil
	}
	cp := *m
	cp.Quiz = m.Quiz.Clone()
	return &cp
}

func (q *QuizData) Clone() *QuizData {
	if q == nil {
		return nil
	}
	cp := QuizData{}
	if q.Questions != nil {
		cp.Questions = make([]QuizQuestion, len(q.Questions))
		for i, qq := range q.Questions {
			cp.Questions[i] = QuizQuestion{
				Prompt: qq.Prompt,
				Answer: qq.Answer,
			}
			if qq.Options != nil {
				cp.Questions[i].Options = append([]string(nil), qq.Options...)
			}
		}
	}
	return &cp
}

func cloneModules(in []*Module) []*Module {
	if in == nil {
		return nil
	}
	out := make([]*Module, len(in))
	for i, m := range in {
		out[i] = m.Clone()
	}
	return out
}
