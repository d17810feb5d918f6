package store

import (
	"testing"
	"time"

	"github.com/recruitly/screener/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("newTestStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func seedApplicant(t *testing.T, s *Store, name, email string) *model.Applicant {
	t.Helper()
	a := &model.Applicant{Name: name, Email: email}
	if err := s.CreateApplicant(a); err != nil {
		t.Fatalf("seedApplicant: %v", err)
	}
	return a
}

func seedTest(t *testing.T, s *Store, title string, durationMinutes int) *model.Test {
	t.Helper()
	tst := &model.Test{Title: title, DurationMinutes: durationMinutes, PassingScore: 60, Difficulty: 3}
	if err := s.CreateTest(tst); err != nil {
		t.Fatalf("seedTest: %v", err)
	}
	return tst
}

func seedQuestion(t *testing.T, s *Store, testID int64, text string, kind model.QuestionKind, points float64) *model.Question {
	t.Helper()
	q := &model.Question{
		TestID:        testID,
		Text:          text,
		CorrectAnswer: "answer for " + text,
		Kind:          kind,
		PointValue:    points,
	}
	if err := s.InsertQuestion(q); err != nil {
		t.Fatalf("seedQuestion: %v", err)
	}
	return q
}

func TestApplicantRoundTrip(t *testing.T) {
	s := newTestStore(t)

	a := seedApplicant(t, s, "Ana Flores", "ana@example.com")
	if a.ID == 0 {
		t.Fatal("ID not filled in")
	}
	if a.Status != model.StatusPending {
		t.Errorf("default status = %q, want pending", a.Status)
	}

	got, err := s.GetApplicant(a.ID)
	if err != nil {
		t.Fatalf("GetApplicant: %v", err)
	}
	if got.Name != "Ana Flores" || got.Email != "ana@example.com" {
		t.Errorf("got %+v", got)
	}

	missing, err := s.GetApplicant(9999)
	if err != nil {
		t.Fatalf("GetApplicant(missing): %v", err)
	}
	if missing != nil {
		t.Errorf("missing applicant = %+v, want nil", missing)
	}

	if err := s.UpdateApplicantStatus(a.ID, model.StatusTesting); err != nil {
		t.Fatalf("UpdateApplicantStatus: %v", err)
	}
	got, _ = s.GetApplicant(a.ID)
	if got.Status != model.StatusTesting {
		t.Errorf("status = %q, want testing", got.Status)
	}
}

func TestTestAndQuestions(t *testing.T) {
	s := newTestStore(t)

	tst := seedTest(t, s, "Backend básico", 45)
	seedQuestion(t, s, tst.ID, "¿Qué es una goroutine?", model.KindOpenEnded, 10)
	seedQuestion(t, s, tst.ID, "¿Go es compilado?", model.KindTrueFalse, 5)

	other := seedTest(t, s, "Otra prueba", 30)
	seedQuestion(t, s, other.ID, "¿Qué es un contenedor?", model.KindOpenEnded, 10)

	questions, err := s.GetQuestionsForTest(tst.ID)
	if err != nil {
		t.Fatalf("GetQuestionsForTest: %v", err)
	}
	if len(questions) != 2 {
		t.Fatalf("got %d questions, want 2", len(questions))
	}
	if questions[1].Kind != model.KindTrueFalse || questions[1].PointValue != 5 {
		t.Errorf("question = %+v", questions[1])
	}

	tests, err := s.ListTests()
	if err != nil {
		t.Fatalf("ListTests: %v", err)
	}
	if len(tests) != 2 {
		t.Errorf("got %d tests, want 2", len(tests))
	}
}

func TestAttemptLifecycle(t *testing.T) {
	s := newTestStore(t)
	applicant := seedApplicant(t, s, "Luis", "luis@example.com")
	tst := seedTest(t, s, "Prueba", 60)

	a := &model.Attempt{ApplicantID: applicant.ID, TestID: tst.ID, StartedAt: time.Now()}
	if err := s.CreateAttempt(a); err != nil {
		t.Fatalf("CreateAttempt: %v", err)
	}

	inProgress, err := s.GetInProgressAttempt(applicant.ID, tst.ID)
	if err != nil {
		t.Fatalf("GetInProgressAttempt: %v", err)
	}
	if inProgress == nil || inProgress.ID != a.ID {
		t.Fatalf("in-progress attempt = %+v", inProgress)
	}

	completedAt := time.Now()
	if err := s.CompleteAttempt(a.ID, completedAt, 82.5); err != nil {
		t.Fatalf("CompleteAttempt: %v", err)
	}

	got, err := s.GetAttempt(a.ID)
	if err != nil {
		t.Fatalf("GetAttempt: %v", err)
	}
	if got.CompletedAt == nil || got.Score == nil {
		t.Fatalf("completion not persisted: %+v", got)
	}
	if *got.Score != 82.5 {
		t.Errorf("score = %v, want 82.5", *got.Score)
	}

	inProgress, err = s.GetInProgressAttempt(applicant.ID, tst.ID)
	if err != nil {
		t.Fatalf("GetInProgressAttempt after completion: %v", err)
	}
	if inProgress != nil {
		t.Errorf("completed attempt still reported in progress: %+v", inProgress)
	}
}

func TestAnswersRoundTrip(t *testing.T) {
	s := newTestStore(t)
	applicant := seedApplicant(t, s, "Eva", "eva@example.com")
	tst := seedTest(t, s, "Prueba", 60)
	q1 := seedQuestion(t, s, tst.ID, "¿Go es tipado estáticamente?", model.KindTrueFalse, 5)
	q2 := seedQuestion(t, s, tst.ID, "Explica los canales de Go.", model.KindOpenEnded, 10)

	a := &model.Attempt{ApplicantID: applicant.ID, TestID: tst.ID, StartedAt: time.Now()}
	if err := s.CreateAttempt(a); err != nil {
		t.Fatalf("CreateAttempt: %v", err)
	}

	correct := true
	aiScore := 0.8
	answers := []model.Answer{
		{AttemptID: a.ID, QuestionID: q1.ID, Content: "verdadero", IsCorrect: &correct},
		{AttemptID: a.ID, QuestionID: q2.ID, Content: "son conductos tipados", AIScore: &aiScore},
	}
	if err := s.SaveAnswers(answers); err != nil {
		t.Fatalf("SaveAnswers: %v", err)
	}
	if answers[0].ID == 0 || answers[1].ID == 0 {
		t.Fatal("answer IDs not filled in")
	}

	got, err := s.GetAnswersForAttempt(a.ID)
	if err != nil {
		t.Fatalf("GetAnswersForAttempt: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d answers, want 2", len(got))
	}
	if got[0].IsCorrect == nil || !*got[0].IsCorrect {
		t.Errorf("IsCorrect = %v, want true", got[0].IsCorrect)
	}
	if got[0].AIScore != nil {
		t.Errorf("true/false answer has AI score: %v", *got[0].AIScore)
	}
	if got[1].AIScore == nil || *got[1].AIScore != 0.8 {
		t.Errorf("AIScore = %v, want 0.8", got[1].AIScore)
	}
	if got[1].IsCorrect != nil {
		t.Errorf("open-ended answer has correctness: %v", *got[1].IsCorrect)
	}

	if err := s.SetAnswerCorrect(got[1].ID, true); err != nil {
		t.Fatalf("SetAnswerCorrect: %v", err)
	}
	got, _ = s.GetAnswersForAttempt(a.ID)
	if got[1].IsCorrect == nil || !*got[1].IsCorrect {
		t.Error("correction not persisted")
	}
}

func TestMetadata(t *testing.T) {
	s := newTestStore(t)

	v, err := s.GetMetadata("ai_model")
	if err != nil {
		t.Fatalf("GetMetadata: %v", err)
	}
	if v != "" {
		t.Errorf("missing key = %q, want empty", v)
	}

	if err := s.SetMetadata("ai_model", "llama3.2"); err != nil {
		t.Fatalf("SetMetadata: %v", err)
	}
	if err := s.SetMetadata("ai_model", "mistral"); err != nil {
		t.Fatalf("SetMetadata upsert: %v", err)
	}
	v, _ = s.GetMetadata("ai_model")
	if v != "mistral" {
		t.Errorf("got %q, want mistral", v)
	}
}

func TestExportAllAttempts(t *testing.T) {
	s := newTestStore(t)
	applicant := seedApplicant(t, s, "Mia", "mia@example.com")
	tst := seedTest(t, s, "Prueba final", 60)
	q := seedQuestion(t, s, tst.ID, "¿Qué es un mutex?", model.KindOpenEnded, 10)

	a := &model.Attempt{ApplicantID: applicant.ID, TestID: tst.ID, StartedAt: time.Now()}
	if err := s.CreateAttempt(a); err != nil {
		t.Fatalf("CreateAttempt: %v", err)
	}
	aiScore := 0.9
	if err := s.SaveAnswers([]model.Answer{
		{AttemptID: a.ID, QuestionID: q.ID, Content: "un candado de exclusión mutua", AIScore: &aiScore},
	}); err != nil {
		t.Fatalf("SaveAnswers: %v", err)
	}
	if err := s.CompleteAttempt(a.ID, time.Now(), 90); err != nil {
		t.Fatalf("CompleteAttempt: %v", err)
	}

	results, err := s.ExportAllAttempts()
	if err != nil {
		t.Fatalf("ExportAllAttempts: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	r := results[0]
	if r.ApplicantName != "Mia" || r.TestTitle != "Prueba final" {
		t.Errorf("result = %+v", r)
	}
	if r.Score == nil || *r.Score != 90 {
		t.Errorf("score = %v, want 90", r.Score)
	}
	if len(r.Answers) != 1 || r.Answers[0].QuestionText != "¿Qué es un mutex?" {
		t.Errorf("answers = %+v", r.Answers)
	}
}
