package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/recruitly/screener/internal/model"

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
	CREATE TABLE IF NOT EXISTS applicants (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		status TEXT NOT NULL DEFAULT 'pending',
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS tests (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		duration_minutes INTEGER NOT NULL DEFAULT 60,
		passing_score REAL NOT NULL DEFAULT 60,
		difficulty INTEGER NOT NULL DEFAULT 3
	);

	CREATE TABLE IF NOT EXISTS questions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		test_id INTEGER NOT NULL,
		text TEXT NOT NULL,
		correct_answer TEXT NOT NULL DEFAULT '',
		explanation TEXT NOT NULL DEFAULT '',
		kind TEXT NOT NULL DEFAULT 'open_ended',
		point_value REAL NOT NULL DEFAULT 10,
		ai_generated INTEGER NOT NULL DEFAULT 0,
		FOREIGN KEY (test_id) REFERENCES tests(id)
	);

	CREATE TABLE IF NOT EXISTS attempts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		applicant_id INTEGER NOT NULL,
		test_id INTEGER NOT NULL,
		started_at DATETIME NOT NULL,
		completed_at DATETIME,
		score REAL,
		FOREIGN KEY (applicant_id) REFERENCES applicants(id),
		FOREIGN KEY (test_id) REFERENCES tests(id)
	);

	CREATE TABLE IF NOT EXISTS answers (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		attempt_id INTEGER NOT NULL,
		question_id INTEGER NOT NULL,
		content TEXT NOT NULL DEFAULT '',
		is_correct INTEGER,
		ai_score REAL,
		FOREIGN KEY (attempt_id) REFERENCES attempts(id),
		FOREIGN KEY (question_id) REFERENCES questions(id)
	);

	CREATE TABLE IF NOT EXISTS screener_metadata (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// CreateApplicant stores a new applicant and fills in its ID.
func (s *Store) CreateApplicant(a *model.Applicant) error {
	if a.Status == "" {
		a.Status = model.StatusPending
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	res, err := s.db.Exec(
		`INSERT INTO applicants (name, email, status, created_at) VALUES (?, ?, ?, ?)`,
		a.Name, a.Email, a.Status, a.CreatedAt,
	)
	if err != nil {
		return err
	}
	a.ID, err = res.LastInsertId()
	return err
}

// GetApplicant returns an applicant by ID, or nil when absent.
func (s *Store) GetApplicant(id int64) (*model.Applicant, error) {
	var a model.Applicant
	err := s.db.QueryRow(
		`SELECT id, name, email, status, created_at FROM applicants WHERE id = ?`, id,
	).Scan(&a.ID, &a.Name, &a.Email, &a.Status, &a.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// ListApplicants returns all applicants.
func (s *Store) ListApplicants() ([]model.Applicant, error) {
	rows, err := s.db.Query(`SELECT id, name, email, status, created_at FROM applicants ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var applicants []model.Applicant
	for rows.Next() {
		var a model.Applicant
		if err := rows.Scan(&a.ID, &a.Name, &a.Email, &a.Status, &a.CreatedAt); err != nil {
			return nil, err
		}
		applicants = append(applicants, a)
	}
	return applicants, rows.Err()
}

// UpdateApplicantStatus moves an applicant to a new pipeline status.
func (s *Store) UpdateApplicantStatus(id int64, status model.ApplicantStatus) error {
	_, err := s.db.Exec(`UPDATE applicants SET status = ? WHERE id = ?`, status, id)
	return err
}

// CreateTest stores a new test and fills in its ID.
func (s *Store) CreateTest(t *model.Test) error {
	res, err := s.db.Exec(
		`INSERT INTO tests (title, description, duration_minutes, passing_score, difficulty) VALUES (?, ?, ?, ?, ?)`,
		t.Title, t.Description, t.DurationMinutes, t.PassingScore, t.Difficulty,
	)
	if err != nil {
		return err
	}
	t.ID, err = res.LastInsertId()
	return err
}

// GetTest returns a test by ID, or nil when absent.
func (s *Store) GetTest(id int64) (*model.Test, error) {
	var t model.Test
	err := s.db.QueryRow(
		`SELECT id, title, description, duration_minutes, passing_score, difficulty FROM tests WHERE id = ?`, id,
	).Scan(&t.ID, &t.Title, &t.Description, &t.DurationMinutes, &t.PassingScore, &t.Difficulty)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// ListTests returns all tests.
func (s *Store) ListTests() ([]model.Test, error) {
	rows, err := s.db.Query(`SELECT id, title, description, duration_minutes, passing_score, difficulty FROM tests ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var tests []model.Test
	for rows.Next() {
		var t model.Test
		if err := rows.Scan(&t.ID, &t.Title, &t.Description, &t.DurationMinutes, &t.PassingScore, &t.Difficulty); err != nil {
			return nil, err
		}
		tests = append(tests, t)
	}
	return tests, rows.Err()
}

// InsertQuestion stores a question and fills in its ID.
func (s *Store) InsertQuestion(q *model.Question) error {
	res, err := s.db.Exec(
		`INSERT INTO questions (test_id, text, correct_answer, explanation, kind, point_value, ai_generated)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		q.TestID, q.Text, q.CorrectAnswer, q.Explanation, q.Kind, q.PointValue, q.AIGenerated,
	)
	if err != nil {
		return err
	}
	q.ID, err = res.LastInsertId()
	return err
}

// GetQuestionsForTest returns all questions on a test.
func (s *Store) GetQuestionsForTest(testID int64) ([]model.Question, error) {
	rows, err := s.db.Query(
		`SELECT id, test_id, text, correct_answer, explanation, kind, point_value, ai_generated
		 FROM questions WHERE test_id = ? ORDER BY id`, testID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var questions []model.Question
	for rows.Next() {
		var q model.Question
		if err := rows.Scan(&q.ID, &q.TestID, &q.Text, &q.CorrectAnswer, &q.Explanation, &q.Kind, &q.PointValue, &q.AIGenerated); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// CreateAttempt stores a new attempt and fills in its ID.
func (s *Store) CreateAttempt(a *model.Attempt) error {
	if a.StartedAt.IsZero() {
		a.StartedAt = time.Now()
	}
	res, err := s.db.Exec(
		`INSERT INTO attempts (applicant_id, test_id, started_at) VALUES (?, ?, ?)`,
		a.ApplicantID, a.TestID, a.StartedAt,
	)
	if err != nil {
		return err
	}
	a.ID, err = res.LastInsertId()
	return err
}

// GetAttempt returns an attempt by ID, or nil when absent.
func (s *Store) GetAttempt(id int64) (*model.Attempt, error) {
	var a model.Attempt
	err := s.db.QueryRow(
		`SELECT id, applicant_id, test_id, started_at, completed_at, score FROM attempts WHERE id = ?`, id,
	).Scan(&a.ID, &a.ApplicantID, &a.TestID, &a.StartedAt, &a.CompletedAt, &a.Score)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// GetInProgressAttempt returns the uncompleted attempt for the applicant and
// test, or nil when none exists.
func (s *Store) GetInProgressAttempt(applicantID, testID int64) (*model.Attempt, error) {
	var a model.Attempt
	err := s.db.QueryRow(
		`SELECT id, applicant_id, test_id, started_at, completed_at, score
		 FROM attempts WHERE applicant_id = ? AND test_id = ? AND completed_at IS NULL`,
		applicantID, testID,
	).Scan(&a.ID, &a.ApplicantID, &a.TestID, &a.StartedAt, &a.CompletedAt, &a.Score)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// ListAttempts returns all attempts, newest first.
func (s *Store) ListAttempts() ([]model.Attempt, error) {
	rows, err := s.db.Query(
		`SELECT id, applicant_id, test_id, started_at, completed_at, score FROM attempts ORDER BY id DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var attempts []model.Attempt
	for rows.Next() {
		var a model.Attempt
		if err := rows.Scan(&a.ID, &a.ApplicantID, &a.TestID, &a.StartedAt, &a.CompletedAt, &a.Score); err != nil {
			return nil, err
		}
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}

// CompleteAttempt finalizes an attempt with its completion time and score.
// Review reuses it to persist a recomputed score.
func (s *Store) CompleteAttempt(id int64, completedAt time.Time, score float64) error {
	_, err := s.db.Exec(
		`UPDATE attempts SET completed_at = ?, score = ? WHERE id = ?`,
		completedAt, score, id,
	)
	return err
}

// SaveAnswers stores all answers for an attempt in one transaction and fills
// in their IDs.
func (s *Store) SaveAnswers(answers []model.Answer) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for i := range answers {
		res, err := tx.Exec(
			`INSERT INTO answers (attempt_id, question_id, content, is_correct, ai_score) VALUES (?, ?, ?, ?, ?)`,
			answers[i].AttemptID, answers[i].QuestionID, answers[i].Content, answers[i].IsCorrect, answers[i].AIScore,
		)
		if err != nil {
			return err
		}
		if answers[i].ID, err = res.LastInsertId(); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// GetAnswersForAttempt returns all answers recorded for an attempt.
func (s *Store) GetAnswersForAttempt(attemptID int64) ([]model.Answer, error) {
	rows, err := s.db.Query(
		`SELECT id, attempt_id, question_id, content, is_correct, ai_score FROM answers WHERE attempt_id = ? ORDER BY id`,
		attemptID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var answers []model.Answer
	for rows.Next() {
		var a model.Answer
		if err := rows.Scan(&a.ID, &a.AttemptID, &a.QuestionID, &a.Content, &a.IsCorrect, &a.AIScore); err != nil {
			return nil, err
		}
		answers = append(answers, a)
	}
	return answers, rows.Err()
}

// SetAnswerCorrect records a recruiter's correctness verdict on an answer.
func (s *Store) SetAnswerCorrect(answerID int64, correct bool) error {
	_, err := s.db.Exec(`UPDATE answers SET is_correct = ? WHERE id = ?`, correct, answerID)
	return err
}
