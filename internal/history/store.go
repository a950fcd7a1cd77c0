package history

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/grounded-app/risk-engine/internal/record"
)

// #region store

// Store persists daily records and user profiles over a shared *sql.DB.
type Store struct {
	db *sql.DB
}

// NewStore creates the history tables if needed and returns a store.
func NewStore(db *sql.DB) (*Store, error) {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS daily_records (
		user_id           INTEGER NOT NULL,
		day_num           INTEGER NOT NULL,
		day_of_week       INTEGER NOT NULL,
		used              INTEGER NOT NULL,
		context           TEXT NOT NULL,
		time_of_day       TEXT NOT NULL,
		method            TEXT NOT NULL,
		amount            REAL NOT NULL,
		cost              REAL NOT NULL,
		mood              REAL NOT NULL,
		sleep_quality     REAL NOT NULL,
		craving_intensity REAL NOT NULL,
		reminder_opens    INTEGER NOT NULL,
		messages_read     INTEGER NOT NULL,
		PRIMARY KEY (user_id, day_num)
	)`)
	if err != nil {
		return nil, fmt.Errorf("create daily_records table: %w", err)
	}
	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS user_profiles (
		user_id      INTEGER PRIMARY KEY,
		profile_json TEXT NOT NULL
	)`)
	if err != nil {
		return nil, fmt.Errorf("create user_profiles table: %w", err)
	}
	return &Store{db: db}, nil
}

// #endregion store

// #region save

// SaveHistory replaces every user present in h. Users absent from h are untouched.
// Days keep their DayNum; duplicate day numbers within a user fail the insert.
func (s *Store) SaveHistory(h record.History) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO daily_records (user_id, day_num, day_of_week, used, context, time_of_day,
		method, amount, cost, mood, sleep_quality, craving_intensity, reminder_opens, messages_read)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, id := range h.Users() {
		if _, err := tx.Exec(`DELETE FROM daily_records WHERE user_id = ?`, int(id)); err != nil {
			return fmt.Errorf("clear user %d: %w", id, err)
		}
		for _, d := range h[id] {
			_, err := stmt.Exec(int(id), d.DayNum, d.DayOfWeek, d.Used, d.Context, d.TimeOfDay, d.Method,
				d.Amount, d.Cost, d.Mood, d.SleepQuality, d.CravingIntensity, d.ReminderOpens, d.MessagesRead)
			if err != nil {
				return fmt.Errorf("insert user %d day %d: %w", id, d.DayNum, err)
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// SaveProfiles upserts the generative profiles of synthetic users.
func (s *Store) SaveProfiles(profiles map[record.UserID]record.Profile) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for id, p := range profiles {
		data, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("marshal profile %d: %w", id, err)
		}
		_, err = tx.Exec(`INSERT INTO user_profiles (user_id, profile_json) VALUES (?, ?)
			ON CONFLICT(user_id) DO UPDATE SET profile_json = excluded.profile_json`, int(id), string(data))
		if err != nil {
			return fmt.Errorf("upsert profile %d: %w", id, err)
		}
	}
	return tx.Commit()
}

// #endregion save

// #region load

const selectColumns = `user_id, day_num, day_of_week, used, context, time_of_day, method, amount, cost,
	mood, sleep_quality, craving_intensity, reminder_opens, messages_read`

// LoadHistory returns every stored user, each in day order.
func (s *Store) LoadHistory() (record.History, error) {
	return s.query(`SELECT ` + selectColumns + ` FROM daily_records ORDER BY user_id, day_num`)
}

// LoadUser returns one user's days in order; empty if the user is unknown.
func (s *Store) LoadUser(id record.UserID) ([]record.DailyRecord, error) {
	h, err := s.query(`SELECT `+selectColumns+` FROM daily_records WHERE user_id = ? ORDER BY day_num`, int(id))
	if err != nil {
		return nil, err
	}
	return h[id], nil
}

// Users returns the stored user IDs in ascending order.
func (s *Store) Users() ([]record.UserID, error) {
	rows, err := s.db.Query(`SELECT DISTINCT user_id FROM daily_records ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var ids []record.UserID
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		ids = append(ids, record.UserID(id))
	}
	return ids, rows.Err()
}

// LoadProfiles returns all stored profiles.
func (s *Store) LoadProfiles() (map[record.UserID]record.Profile, error) {
	rows, err := s.db.Query(`SELECT user_id, profile_json FROM user_profiles`)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	defer rows.Close()

	out := map[record.UserID]record.Profile{}
	for rows.Next() {
		var id int
		var data string
		if err := rows.Scan(&id, &data); err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		var p record.Profile
		if err := json.Unmarshal([]byte(data), &p); err != nil {
			return nil, fmt.Errorf("unmarshal profile %d: %w", id, err)
		}
		out[record.UserID(id)] = p
	}
	return out, rows.Err()
}

func (s *Store) query(q string, args ...any) (record.History, error) {
	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	defer rows.Close()

	h := record.History{}
	for rows.Next() {
		var id int
		var d record.DailyRecord
		err := rows.Scan(&id, &d.DayNum, &d.DayOfWeek, &d.Used, &d.Context, &d.TimeOfDay, &d.Method,
			&d.Amount, &d.Cost, &d.Mood, &d.SleepQuality, &d.CravingIntensity, &d.ReminderOpens, &d.MessagesRead)
		if err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		h[record.UserID(id)] = append(h[record.UserID(id)], d)
	}
	return h, rows.Err()
}

// #endregion load
