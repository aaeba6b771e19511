// Package store persists finished-session summaries.
package store

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/strumline/strumline/model"
)

type Store struct {
	db *sql.DB
}

func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	initStatement := `
	create table if not exists sessions
	  (
		  id text not null primary key,
		  final_score real,
		  final_combo integer,
		  total_notes integer,
		  time_played real,
		  difficulty text
	  );
	`
	if _, err = db.Exec(initStatement); err != nil {
		db.Close()
		return nil, fmt.Errorf("unable to initialize sessions table: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) SaveSummary(summary model.SessionSummary) error {
	_, err := s.db.Exec(
		"insert into sessions(id, final_score, final_combo, total_notes, time_played, difficulty) values(?, ?, ?, ?, ?, ?)",
		summary.ID,
		summary.FinalScore,
		summary.FinalCombo,
		summary.TotalNotes,
		summary.TimePlayed,
		string(summary.Difficulty),
	)
	return err
}

// Recent returns up to n summaries, highest score first.
func (s *Store) Recent(n int) ([]model.SessionSummary, error) {
	rows, err := s.db.Query(
		"select id, final_score, final_combo, total_notes, time_played, difficulty from sessions order by final_score desc limit ?",
		n,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.SessionSummary
	for rows.Next() {
		var sum model.SessionSummary
		var difficulty string
		if err := rows.Scan(
			&sum.ID,
			&sum.FinalScore,
			&sum.FinalCombo,
			&sum.TotalNotes,
			&sum.TimePlayed,
			&difficulty,
		); err != nil {
			return nil, err
		}
		sum.Difficulty = model.Difficulty(difficulty)
		out = append(out, sum)
	}
	return out, rows.Err()
}
