package stores

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/colonyops/scribe/internal/core/script"
	"github.com/colonyops/scribe/internal/data/db"
)

const scriptColumns = "id, topic, title, body, options, model, created_at"

// ScriptStore implements script.Store using SQLite.
type ScriptStore struct {
	db *db.DB
}

var _ script.Store = (*ScriptStore)(nil)

// NewScriptStore creates a new SQLite-backed script store.
func NewScriptStore(db *db.DB) *ScriptStore {
	return &ScriptStore{db: db}
}

// Save creates or replaces a script.
func (s *ScriptStore) Save(ctx context.Context, sc script.Script) error {
	opts, err := json.Marshal(sc.Options.Values())
	if err != nil {
		return fmt.Errorf("failed to marshal options: %w", err)
	}

	_, err = s.db.Conn().ExecContext(ctx, `
		INSERT INTO scripts (id, topic, title, body, options, model, created_at, search_text)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			topic = excluded.topic,
			title = excluded.title,
			body = excluded.body,
			options = excluded.options,
			model = excluded.model,
			search_text = excluded.search_text`,
		sc.ID, sc.Topic, sc.Title, sc.Body, string(opts), sc.Model, sc.CreatedAt.UnixNano(),
		searchText(sc),
	)
	if err != nil {
		return fmt.Errorf("failed to save script: %w", err)
	}
	return nil
}

// List returns up to limit scripts, newest first. A limit of zero or less
// returns every script.
func (s *ScriptStore) List(ctx context.Context, limit int) ([]script.Script, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.Conn().QueryContext(ctx,
		"SELECT "+scriptColumns+" FROM scripts ORDER BY created_at DESC, id LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list scripts: %w", err)
	}
	return collectScripts(rows)
}

// Search returns scripts whose topic or title contains query, newest first.
func (s *ScriptStore) Search(ctx context.Context, query string, limit int) ([]script.Script, error) {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return s.List(ctx, limit)
	}
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.Conn().QueryContext(ctx,
		"SELECT "+scriptColumns+` FROM scripts
		WHERE instr(search_text, ?) > 0
		ORDER BY created_at DESC, id LIMIT ?`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search scripts: %w", err)
	}
	return collectScripts(rows)
}

// Get returns a script by ID. Returns script.ErrNotFound if not found.
func (s *ScriptStore) Get(ctx context.Context, id string) (script.Script, error) {
	row := s.db.Conn().QueryRowContext(ctx, "SELECT "+scriptColumns+" FROM scripts WHERE id = ?", id)
	sc, err := scanScript(row)
	if IsNotFoundError(err) {
		return script.Script{}, script.ErrNotFound
	}
	if err != nil {
		return script.Script{}, fmt.Errorf("failed to get script: %w", err)
	}
	return sc, nil
}

// Delete removes a script by ID. Returns script.ErrNotFound if not found.
func (s *ScriptStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.Conn().ExecContext(ctx, "DELETE FROM scripts WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete script: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete script: %w", err)
	}
	if n == 0 {
		return script.ErrNotFound
	}
	return nil
}

// Prune keeps the newest keep scripts and deletes the rest, returning how
// many were removed.
func (s *ScriptStore) Prune(ctx context.Context, keep int) (int64, error) {
	if keep < 0 {
		keep = 0
	}

	var removed int64
	err := s.db.WithTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			DELETE FROM scripts WHERE id NOT IN (
				SELECT id FROM scripts ORDER BY created_at DESC, id LIMIT ?
			)`, keep)
		if err != nil {
			return err
		}
		removed, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to prune scripts: %w", err)
	}
	return removed, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanScript(row scanner) (script.Script, error) {
	var (
		sc        script.Script
		opts      string
		createdAt int64
	)
	if err := row.Scan(&sc.ID, &sc.Topic, &sc.Title, &sc.Body, &opts, &sc.Model, &createdAt); err != nil {
		return script.Script{}, err
	}

	var values map[string]string
	if err := json.Unmarshal([]byte(opts), &values); err != nil {
		return script.Script{}, fmt.Errorf("failed to unmarshal options: %w", err)
	}
	sc.Options = script.OptionsFromValues(values)
	sc.CreatedAt = time.Unix(0, createdAt)
	return sc, nil
}

func collectScripts(rows *sql.Rows) ([]script.Script, error) {
	defer func() { _ = rows.Close() }()

	var out []script.Script
	for rows.Next() {
		sc, err := scanScript(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to convert script: %w", err)
		}
		out = append(out, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read scripts: %w", err)
	}
	return out, nil
}

func searchText(sc script.Script) string {
	return strings.ToLower(sc.Topic + " " + sc.Title)
}
