// Package store handles SQLite persistence.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/verte-zerg/sleepsafe/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// ErrNotFound is returned when a named record does not exist.
var ErrNotFound = errors.New("not found")

// Note keys for generated session texts.
const (
	NoteSummary = "session_summary"
	NotePlan    = "final_analysis"
)

// Store wraps SQLite access for settings, presets and session data.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS voice_presets (
			name TEXT PRIMARY KEY,
			stability REAL NOT NULL,
			style REAL NOT NULL,
			saved_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS analyses (
			seq INTEGER PRIMARY KEY,
			id TEXT NOT NULL UNIQUE,
			theme TEXT NOT NULL,
			cognitive_load INTEGER NOT NULL,
			payload TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS messages (
			seq INTEGER PRIMARY KEY,
			author TEXT NOT NULL,
			text TEXT NOT NULL,
			sent_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS notes (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_analyses_theme ON analyses(theme);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// LoadSettings returns the stored settings over the defaults.
func (s *Store) LoadSettings(ctx context.Context) (model.Settings, error) {
	out := model.DefaultSettings()
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM settings`)
	if err != nil {
		return out, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return out, err
		}
		if err := applySetting(&out, key, value); err != nil {
			return out, fmt.Errorf("setting %s: %w", key, err)
		}
	}
	if err := rows.Err(); err != nil {
		return out, err
	}
	return out, nil
}

func applySetting(dst *model.Settings, key, value string) error {
	var err error
	switch key {
	case "sensitivity":
		dst.Sensitivity, err = strconv.Atoi(value)
	case "fatigue_enabled":
		dst.FatigueEnabled, err = strconv.ParseBool(value)
	case "emotion_enabled":
		dst.EmotionEnabled, err = strconv.ParseBool(value)
	case "voice_output":
		dst.VoiceOutput, err = strconv.ParseBool(value)
	case "voice_id":
		dst.VoiceID = value
	case "voice_mode":
		dst.VoiceMode = model.VoiceMode(value)
	case "custom_stability":
		dst.CustomStability, err = strconv.ParseFloat(value, 64)
	case "custom_style":
		dst.CustomStyle, err = strconv.ParseFloat(value, 64)
	}
	return err
}

// SaveSettings replaces all stored settings.
func (s *Store) SaveSettings(ctx context.Context, settings model.Settings) (err error) {
	values := map[string]string{
		"sensitivity":      strconv.Itoa(settings.Sensitivity),
		"fatigue_enabled":  strconv.FormatBool(settings.FatigueEnabled),
		"emotion_enabled":  strconv.FormatBool(settings.EmotionEnabled),
		"voice_output":     strconv.FormatBool(settings.VoiceOutput),
		"voice_id":         settings.VoiceID,
		"voice_mode":       string(settings.VoiceMode),
		"custom_stability": strconv.FormatFloat(settings.CustomStability, 'f', -1, 64),
		"custom_style":     strconv.FormatFloat(settings.CustomStyle, 'f', -1, 64),
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()
	for key, value := range values {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO settings (key, value) VALUES (?, ?)
			 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ListPresets returns voice presets in the order they were saved.
func (s *Store) ListPresets(ctx context.Context) ([]model.VoicePreset, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, stability, style FROM voice_presets ORDER BY saved_at ASC, name ASC`)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()
	var presets []model.VoicePreset
	for rows.Next() {
		var p model.VoicePreset
		if err := rows.Scan(&p.Name, &p.Stability, &p.Style); err != nil {
			return nil, err
		}
		presets = append(presets, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return presets, nil
}

// GetPreset returns a preset by name.
func (s *Store) GetPreset(ctx context.Context, name string) (model.VoicePreset, error) {
	p := model.VoicePreset{Name: name}
	err := s.db.QueryRowContext(ctx,
		`SELECT stability, style FROM voice_presets WHERE name = ?`, name).Scan(&p.Stability, &p.Style)
	if errors.Is(err, sql.ErrNoRows) {
		return p, fmt.Errorf("preset %q: %w", name, ErrNotFound)
	}
	return p, err
}

// SavePreset stores a preset, replacing one with the same name.
func (s *Store) SavePreset(ctx context.Context, p model.VoicePreset) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO voice_presets (name, stability, style, saved_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET stability = excluded.stability, style = excluded.style, saved_at = excluded.saved_at`,
		p.Name, p.Stability, p.Style, time.Now().UTC().Format(time.RFC3339Nano))
	return err
}

// DeletePreset removes a preset by name.
func (s *Store) DeletePreset(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM voice_presets WHERE name = ?`, name)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("preset %q: %w", name, ErrNotFound)
	}
	return nil
}

// AppendAnalysis stores one analysis result at the end of the history.
func (s *Store) AppendAnalysis(ctx context.Context, r model.AnalysisResult) error {
	payload, err := json.Marshal(r)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO analyses (id, theme, cognitive_load, payload) VALUES (?, ?, ?, ?)`,
		r.ID, r.Theme, r.CognitiveLoad, string(payload))
	return err
}

// ListAnalyses returns the history in insertion order. last > 0 keeps only the newest entries.
func (s *Store) ListAnalyses(ctx context.Context, last int) ([]model.AnalysisResult, error) {
	query := `SELECT payload FROM analyses ORDER BY seq ASC`
	var args []any
	if last > 0 {
		query = `SELECT payload FROM (SELECT seq, payload FROM analyses ORDER BY seq DESC LIMIT ?) ORDER BY seq ASC`
		args = append(args, last)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()
	var history []model.AnalysisResult
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var r model.AnalysisResult
		if err := json.Unmarshal([]byte(payload), &r); err != nil {
			return nil, fmt.Errorf("decode analysis: %w", err)
		}
		history = append(history, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return history, nil
}

// AppendMessage stores one transcript message.
func (s *Store) AppendMessage(ctx context.Context, m model.Message) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO messages (author, text, sent_at) VALUES (?, ?, ?)`,
		string(m.Author), m.Text, m.SentAt.Format(time.RFC3339Nano))
	return err
}

// ListMessages returns the transcript in insertion order.
func (s *Store) ListMessages(ctx context.Context) ([]model.Message, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT author, text, sent_at FROM messages ORDER BY seq ASC`)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()
	var messages []model.Message
	for rows.Next() {
		var m model.Message
		var author, sentAt string
		if err := rows.Scan(&author, &m.Text, &sentAt); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(time.RFC3339Nano, sentAt)
		if err != nil {
			return nil, err
		}
		m.Author = model.Author(author)
		m.SentAt = parsed
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return messages, nil
}

// SetNote stores a generated text under key.
func (s *Store) SetNote(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO notes (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	return err
}

// Note returns the text stored under key.
func (s *Store) Note(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM notes WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("note %q: %w", key, ErrNotFound)
	}
	return value, err
}

// ResetSession clears history, transcript and notes. Settings and presets are kept.
func (s *Store) ResetSession(ctx context.Context) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()
	for _, stmt := range []string{`DELETE FROM analyses`, `DELETE FROM messages`, `DELETE FROM notes`} {
		if _, err = tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return tx.Commit()
}
