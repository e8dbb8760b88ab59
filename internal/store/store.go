// Package store keeps the question bank in SQLite. The bank is written once
// at import time and read-only afterwards; rowid order preserves the order
// questions appear in the bank files.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pavelanni/interviewer/internal/model"

	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS questions (
		id TEXT PRIMARY KEY,
		topic TEXT NOT NULL,
		type TEXT NOT NULL,
		difficulty TEXT NOT NULL,
		prompt TEXT NOT NULL,
		options TEXT NOT NULL DEFAULT '[]',
		answer INTEGER NOT NULL DEFAULT 0,
		rubric TEXT,
		hint TEXT NOT NULL DEFAULT '',
		explanation TEXT NOT NULL DEFAULT '',
		follow_up TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS bank_metadata (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

const questionCols = `id, topic, type, difficulty, prompt, options, answer, rubric, hint, explanation, follow_up`

// InsertQuestion stores a question. Options and rubric are stored as JSON.
func (s *Store) InsertQuestion(q model.Question) error {
	options, err := json.Marshal(q.Options)
	if err != nil {
		return fmt.Errorf("marshal options for %q: %w", q.ID, err)
	}
	var rubric any
	if q.Rubric != nil {
		data, err := json.Marshal(q.Rubric)
		if err != nil {
			return fmt.Errorf("marshal rubric for %q: %w", q.ID, err)
		}
		rubric = string(data)
	}
	_, err = s.db.Exec(
		`INSERT INTO questions (`+questionCols+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		q.ID, q.Topic, q.Type, q.Difficulty, q.Prompt,
		string(options), q.Answer, rubric, q.Hint, q.Explanation, q.FollowUp,
	)
	return err
}

func scanQuestion(scan func(...any) error) (model.Question, error) {
	var q model.Question
	var options string
	var rubric sql.NullString
	err := scan(&q.ID, &q.Topic, &q.Type, &q.Difficulty, &q.Prompt,
		&options, &q.Answer, &rubric, &q.Hint, &q.Explanation, &q.FollowUp)
	if err != nil {
		return q, err
	}
	if err := json.Unmarshal([]byte(options), &q.Options); err != nil {
		return q, fmt.Errorf("unmarshal options for %q: %w", q.ID, err)
	}
	if rubric.Valid {
		q.Rubric = &model.Rubric{}
		if err := json.Unmarshal([]byte(rubric.String), q.Rubric); err != nil {
			return q, fmt.Errorf("unmarshal rubric for %q: %w", q.ID, err)
		}
	}
	return q, nil
}

func (s *Store) queryQuestions(query string, args ...any) ([]model.Question, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var questions []model.Question
	for rows.Next() {
		q, err := scanQuestion(rows.Scan)
		if err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// ListQuestions returns all questions in bank order.
func (s *Store) ListQuestions() ([]model.Question, error) {
	return s.queryQuestions(`SELECT ` + questionCols + ` FROM questions ORDER BY rowid`)
}

// Filter returns questions whose topic is in topics and whose difficulty
// matches (DifficultyAll matches every level), in bank order. An empty topic
// set or a filter matching nothing yields an empty result, not an error.
func (s *Store) Filter(topics []string, difficulty model.Difficulty) ([]model.Question, error) {
	if len(topics) == 0 {
		return nil, nil
	}
	placeholders := strings.Repeat("?, ", len(topics))
	query := `SELECT ` + questionCols + ` FROM questions
		WHERE topic IN (` + placeholders[:len(placeholders)-2] + `)`
	args := make([]any, 0, len(topics)+1)
	for _, t := range topics {
		args = append(args, t)
	}
	if difficulty != "" && difficulty != model.DifficultyAll {
		query += ` AND difficulty = ?`
		args = append(args, difficulty)
	}
	query += ` ORDER BY rowid`
	return s.queryQuestions(query, args...)
}

// GetQuestion returns a question by ID.
func (s *Store) GetQuestion(id string) (model.Question, error) {
	row := s.db.QueryRow(`SELECT `+questionCols+` FROM questions WHERE id = ?`, id)
	return scanQuestion(row.Scan)
}

// QuestionCount returns the number of questions in the bank.
func (s *Store) QuestionCount() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM questions`).Scan(&count)
	return count, err
}

// ListDistinctTopics returns the topics present in the bank, alphabetically.
func (s *Store) ListDistinctTopics() ([]string, error) {
	rows, err := s.db.Query(`SELECT DISTINCT topic FROM questions ORDER BY topic`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var topics []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		topics = append(topics, t)
	}
	return topics, rows.Err()
}
