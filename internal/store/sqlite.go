package store

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ilkoid/pilates-vision/pkg/utils"
	"github.com/mattn/go-sqlite3"
)

// SQLiteStore реализует Repository поверх sqlite (mattn/go-sqlite3).
type SQLiteStore struct {
	db *sql.DB
}

var _ Repository = (*SQLiteStore)(nil)

const studentColumns = `id, name, tax_id_cpf, date_of_birth, phone, medical_notes, goals,
	latest_detected_deviations, latest_clinical_analysis, latest_workout_plan`

// NewSQLite открывает (или создаёт) базу и применяет схему.
func NewSQLite(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	dsn := "file:" + dbPath + "?_journal_mode=WAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	utils.Info("Student store opened", "path", dbPath)
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS students (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		tax_id_cpf TEXT NOT NULL UNIQUE,
		date_of_birth TEXT NOT NULL,
		phone TEXT NOT NULL,
		medical_notes TEXT NOT NULL DEFAULT '',
		goals TEXT NOT NULL DEFAULT '',
		latest_detected_deviations TEXT NOT NULL DEFAULT '[]',
		latest_clinical_analysis TEXT NOT NULL DEFAULT '',
		latest_workout_plan TEXT NOT NULL DEFAULT '[]'
	);
	CREATE INDEX IF NOT EXISTS idx_students_name ON students(name);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close закрывает соединение с базой.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Create добавляет студента. Повторный CPF → ErrDuplicateCPF.
func (s *SQLiteStore) Create(ctx context.Context, st *Student) (*Student, error) {
	query := `
	INSERT INTO students (name, tax_id_cpf, date_of_birth, phone, medical_notes, goals)
	VALUES (?, ?, ?, ?, ?, ?)`

	res, err := s.db.ExecContext(ctx, query,
		st.Name, st.TaxIDCPF, st.DateOfBirth, st.Phone, st.MedicalNotes, st.Goals)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateCPF
		}
		return nil, fmt.Errorf("insert student: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get last insert id: %w", err)
	}
	return s.Get(ctx, id)
}

// Get возвращает студента по ID или ErrNotFound.
func (s *SQLiteStore) Get(ctx context.Context, id int64) (*Student, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+studentColumns+` FROM students WHERE id = ?`, id)

	st, err := scanStudent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan student row: %w", err)
	}
	return st, nil
}

// List возвращает студентов по убыванию ID с опциональным поиском.
func (s *SQLiteStore) List(ctx context.Context, search string) ([]Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students`
	var args []any

	if q := strings.TrimSpace(search); q != "" {
		pattern := "%" + q + "%"
		query += ` WHERE name LIKE ? OR tax_id_cpf LIKE ? OR phone LIKE ?`
		args = append(args, pattern, pattern, pattern)
	}
	query += ` ORDER BY id DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query students: %w", err)
	}
	defer rows.Close()

	students := make([]Student, 0)
	for rows.Next() {
		st, err := scanStudent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan student row: %w", err)
		}
		students = append(students, *st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate students: %w", err)
	}
	return students, nil
}

// SaveAnalysis сохраняет результат последнего анализа осанки.
func (s *SQLiteStore) SaveAnalysis(ctx context.Context, id int64, deviations []string, analysis string) error {
	if deviations == nil {
		deviations = []string{}
	}
	deviationsJSON, err := marshalText(deviations)
	if err != nil {
		return fmt.Errorf("marshal deviations: %w", err)
	}

	return s.update(ctx,
		`UPDATE students SET latest_detected_deviations = ?, latest_clinical_analysis = ? WHERE id = ?`,
		deviationsJSON, analysis, id)
}

// SavePlan сохраняет последний план упражнений JSON текстом.
func (s *SQLiteStore) SavePlan(ctx context.Context, id int64, plan any) error {
	planJSON, err := marshalText(plan)
	if err != nil {
		return fmt.Errorf("marshal workout plan: %w", err)
	}
	return s.update(ctx, `UPDATE students SET latest_workout_plan = ? WHERE id = ?`, planJSON, id)
}

func (s *SQLiteStore) update(ctx context.Context, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update student: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStudent(row rowScanner) (*Student, error) {
	var st Student
	err := row.Scan(
		&st.ID, &st.Name, &st.TaxIDCPF, &st.DateOfBirth, &st.Phone,
		&st.MedicalNotes, &st.Goals,
		&st.LatestDetectedDeviations, &st.LatestClinicalAnalysis, &st.LatestWorkoutPlan,
	)
	if err != nil {
		return nil, err
	}
	return &st, nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}

// marshalText сериализует значение без HTML экранирования.
func marshalText(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}
