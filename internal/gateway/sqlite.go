package gateway

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"curricula-cli/internal/model"
)

// SQLiteStore is the local backend: one sqlite file holding the same shapes
// the remote API serves. The UNIQUE(parent, ord) constraints make it reject a
// colliding renumber exactly like the remote API does, so offline editing and
// tests exercise the same two-phase discipline.
type SQLiteStore struct {
	db *sql.DB
}

func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// Serialize writers; sqlite only has one anyway.
	db.SetMaxOpenConns(1)
	s := &SQLiteStore{db: db}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

func (s *SQLiteStore) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS sections (
			id TEXT PRIMARY KEY,
			course_id TEXT NOT NULL,
			title TEXT NOT NULL,
			ord INTEGER NOT NULL,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			UNIQUE(course_id, ord)
		)`,
		`CREATE TABLE IF NOT EXISTS subsections (
			id TEXT PRIMARY KEY,
			section_id TEXT NOT NULL,
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			objectives TEXT NOT NULL DEFAULT '[]',
			duration INTEGER NOT NULL DEFAULT 0,
			ord INTEGER NOT NULL,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			UNIQUE(section_id, ord)
		)`,
		// Parent columns are empty strings rather than NULL so the uniqueness
		// constraint actually fires (sqlite treats NULLs as distinct).
		`CREATE TABLE IF NOT EXISTS modules (
			id TEXT PRIMARY KEY,
			section_id TEXT NOT NULL DEFAULT '',
			sub_section_id TEXT NOT NULL DEFAULT '',
			title TEXT NOT NULL,
			type TEXT NOT NULL,
			content TEXT NOT NULL DEFAULT '',
			quiz TEXT NOT NULL DEFAULT '',
			ord INTEGER NOT NULL,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			UNIQUE(section_id, sub_section_id, ord)
		)`,
	}
	for _, q := range stmts {
		if _, err := s.db.ExecContext(ctx, q); err != nil {
			return err
		}
	}
	return nil
}

func mapSQLiteErr(err error) error {
	if err == nil {
		return nil
	}
	if strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return ErrOrderConflict
	}
	return err
}

func now() string { return time.Now().UTC().Format(time.RFC3339Nano) }

func parseTS(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}

func (s *SQLiteStore) CreateSection(ctx context.Context, in CreateSectionInput) (*model.Section, error) {
	id := uuid.NewString()
	ts := now()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sections(id, course_id, title, ord, created_at, updated_at) VALUES(?, ?, ?, ?, ?, ?)`,
		id, in.CourseID, in.Title, in.Order, ts, ts)
	if err != nil {
		return nil, mapSQLiteErr(err)
	}
	return &model.Section{
		ID:        id,
		CourseID:  in.CourseID,
		Title:     in.Title,
		Order:     in.Order,
		CreatedAt: parseTS(ts),
		UpdatedAt: parseTS(ts),
	}, nil
}

func (s *SQLiteStore) UpdateSection(ctx context.Context, id string, patch SectionPatch) error {
	if patch.Empty() {
		return nil
	}
	sets := []string{"updated_at = ?"}
	args := []any{now()}
	if patch.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *patch.Title)
	}
	if patch.Order != nil {
		sets = append(sets, "ord = ?")
		args = append(args, *patch.Order)
	}
	args = append(args, id)
	res, err := s.db.ExecContext(ctx, `UPDATE sections SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return mapSQLiteErr(err)
	}
	return requireRow(res)
}

// DeleteSection cascades to owned subsections and modules, matching the
// remote API's contract.
func (s *SQLiteStore) DeleteSection(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM modules WHERE sub_section_id IN (SELECT id FROM subsections WHERE section_id = ?)`, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM modules WHERE section_id = ?`, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM subsections WHERE section_id = ?`, id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM sections WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if err := requireRow(res); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLiteStore) ListSections(ctx context.Context, courseID string) ([]*model.Section, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, course_id, title, ord, created_at, updated_at FROM sections WHERE course_id = ? ORDER BY ord`, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.Section
	for rows.Next() {
		var sec model.Section
		var cts, uts string
		if err := rows.Scan(&sec.ID, &sec.CourseID, &sec.Title, &sec.Order, &cts, &uts); err != nil {
			return nil, err
		}
		sec.CreatedAt = parseTS(cts)
		sec.UpdatedAt = parseTS(uts)
		out = append(out, &sec)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) CreateSubSection(ctx context.Context, in CreateSubSectionInput) (*model.SubSection, error) {
	id := uuid.NewString()
	ts := now()
	obj, err := json.Marshal(in.Objectives)
	if err != nil {
		return nil, err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO subsections(id, section_id, title, description, objectives, duration, ord, created_at, updated_at)
		 VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, in.SectionID, in.Title, in.Description, string(obj), in.DurationMin, in.Order, ts, ts)
	if err != nil {
		return nil, mapSQLiteErr(err)
	}
	return &model.SubSection{
		ID:          id,
		SectionID:   in.SectionID,
		Title:       in.Title,
		Description: in.Description,
		Objectives:  in.Objectives,
		DurationMin: in.DurationMin,
		Order:       in.Order,
		CreatedAt:   parseTS(ts),
		UpdatedAt:   parseTS(ts),
	}, nil
}

func (s *SQLiteStore) UpdateSubSection(ctx context.Context, id string, patch SubSectionPatch) error {
	if patch.Empty() {
		return nil
	}
	sets := []string{"updated_at = ?"}
	args := []any{now()}
	if patch.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *patch.Title)
	}
	if patch.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *patch.Description)
	}
	if patch.Objectives != nil {
		obj, err := json.Marshal(*patch.Objectives)
		if err != nil {
			return err
		}
		sets = append(sets, "objectives = ?")
		args = append(args, string(obj))
	}
	if patch.DurationMin != nil {
		sets = append(sets, "duration = ?")
		args = append(args, *patch.DurationMin)
	}
	if patch.Order != nil {
		sets = append(sets, "ord = ?")
		args = append(args, *patch.Order)
	}
	args = append(args, id)
	res, err := s.db.ExecContext(ctx, `UPDATE subsections SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return mapSQLiteErr(err)
	}
	return requireRow(res)
}

func (s *SQLiteStore) DeleteSubSection(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM modules WHERE sub_section_id = ?`, id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM subsections WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if err := requireRow(res); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLiteStore) ListSubSections(ctx context.Context, sectionID string) ([]*model.SubSection, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, section_id, title, description, objectives, duration, ord, created_at, updated_at
		 FROM subsections WHERE section_id = ? ORDER BY ord`, sectionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.SubSection
	for rows.Next() {
		var ss model.SubSection
		var obj, cts, uts string
		if err := rows.Scan(&ss.ID, &ss.SectionID, &ss.Title, &ss.Description, &obj, &ss.DurationMin, &ss.Order, &cts, &uts); err != nil {
			return nil, err
		}
		if obj != "" && obj != "[]" {
			if err := json.Unmarshal([]byte(obj), &ss.Objectives); err != nil {
				return nil, err
			}
		}
		ss.CreatedAt = parseTS(cts)
		ss.UpdatedAt = parseTS(uts)
		out = append(out, &ss)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) CreateModule(ctx context.Context, in CreateModuleInput) (*model.Module, error) {
	id := uuid.NewString()
	ts := now()
	quiz := ""
	if in.Quiz != nil {
		b, err := json.Marshal(in.Quiz)
		if err != nil {
			return nil, err
		}
		quiz = string(b)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO modules(id, section_id, sub_section_id, title, type, content, quiz, ord, created_at, updated_at)
		 VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, in.SectionID, in.SubSectionID, in.Title, string(in.Type), in.Content, quiz, in.Order, ts, ts)
	if err != nil {
		return nil, mapSQLiteErr(err)
	}
	return &model.Module{
		ID:           id,
		SectionID:    in.SectionID,
		SubSectionID: in.SubSectionID,
		Title:        in.Title,
		Type:         in.Type,
		Content:      in.Content,
		Quiz:         in.Quiz.Clone(),
		Order:        in.Order,
		CreatedAt:    parseTS(ts),
		UpdatedAt:    parseTS(ts),
	}, nil
}

func (s *SQLiteStore) UpdateModule(ctx context.Context, id string, patch ModulePatch) error {
	if patch.Empty() {
		return nil
	}
	sets := []string{"updated_at = ?"}
	args := []any{now()}
	if patch.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *patch.Title)
	}
	if patch.Type != nil {
		sets = append(sets, "type = ?")
		args = append(args, string(*patch.Type))
	}
	if patch.Content != nil {
		sets = append(sets, "content = ?")
		args = append(args, *patch.Content)
	}
	if patch.Quiz != nil {
		b, err := json.Marshal(patch.Quiz)
		if err != nil {
			return err
		}
		sets = append(sets, "quiz = ?")
		args = append(args, string(b))
	}
	if patch.Order != nil {
		sets = append(sets, "ord = ?")
		args = append(args, *patch.Order)
	}
	args = append(args, id)
	res, err := s.db.ExecContext(ctx, `UPDATE modules SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return mapSQLiteErr(err)
	}
	return requireRow(res)
}

func (s *SQLiteStore) DeleteModule(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM modules WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *SQLiteStore) ListModules(ctx context.Context, parent model.ParentRef) ([]*model.Module, error) {
	var (
		where string
		arg   string
	)
	switch {
	case parent.SubSectionID != "":
		where, arg = "sub_section_id = ?", parent.SubSectionID
	case parent.SectionID != "":
		where, arg = "section_id = ? AND sub_section_id = ''", parent.SectionID
	default:
		return nil, ErrNotFound
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, section_id, sub_section_id, title, type, content, quiz, ord, created_at, updated_at
		 FROM modules WHERE `+where+` ORDER BY ord`, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.Module
	for rows.Next() {
		var m model.Module
		var typ, quiz, cts, uts string
		if err := rows.Scan(&m.ID, &m.SectionID, &m.SubSectionID, &m.Title, &typ, &m.Content, &quiz, &m.Order, &cts, &uts); err != nil {
			return nil, err
		}
		m.Type = model.ModuleType(typ)
		if quiz != "" {
			var q model.QuizData
			if err := json.Unmarshal([]byte(quiz), &q); err != nil {
				return nil, err
			}
			m.Quiz = &q
		}
		m.CreatedAt = parseTS(cts)
		m.UpdatedAt = parseTS(uts)
		out = append(out, &m)
	}
	return out, rows.Err()
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
