// Package sqlite stores the question set in a local SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"quiz-session/internal/domain"
)

// QuestionLoader reads and writes questions as JSON rows, one per question.
type QuestionLoader struct {
	db *sql.DB
}

// Open creates the database file and schema if needed.
func Open(path string) (*QuestionLoader, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	l := &QuestionLoader{db: db}
	if err := l.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return l, nil
}

func (l *QuestionLoader) initSchema() error {
	_, err := l.db.Exec(`
	CREATE TABLE IF NOT EXISTS questions (
		position INTEGER PRIMARY KEY,
		data TEXT NOT NULL
	);`)
	return err
}

func (l *QuestionLoader) LoadQuestions(ctx context.Context) ([]domain.Question, error) {
	rows, err := l.db.QueryContext(ctx, `SELECT data FROM questions ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	defer rows.Close()

	var questions []domain.Question
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		var q domain.Question
		if err := json.Unmarshal([]byte(raw), &q); err != nil {
			return nil, fmt.Errorf("unmarshal question: %w", err)
		}
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	if len(questions) == 0 {
		return nil, domain.ErrQuestionsNotFound
	}
	return questions, nil
}

// ReplaceQuestions swaps the stored set for questions in one transaction.
func (l *QuestionLoader) ReplaceQuestions(ctx context.Context, questions []domain.Question) error {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM questions`); err != nil {
		return fmt.Errorf("clear questions: %w", err)
	}
	for i, q := range questions {
		raw, err := json.Marshal(q)
		if err != nil {
			return fmt.Errorf("marshal question %d: %w", i, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO questions (position, data) VALUES (?, ?)`, i, string(raw)); err != nil {
			return fmt.Errorf("insert question %d: %w", i, err)
		}
	}
	return tx.Commit()
}

func (l *QuestionLoader) Close() error {
	return l.db.Close()
}
