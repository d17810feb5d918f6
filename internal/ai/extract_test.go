package ai

import (
	"strings"
	"testing"

	"github.com/recruitly/screener/internal/model"
)

func TestExtractQuestionsJSONArray(t *testing.T) {
	raw := `[
		{"question": "¿Qué es una goroutine en Go?", "answer": "Un hilo ligero gestionado por el runtime", "explanation": "Las goroutines son más baratas que los hilos del SO"},
		{"question": "¿Qué hace el comando go vet?", "answer": "Analiza el código en busca de errores probables"}
	]`

	got := ExtractQuestions(raw, 2, "Go")
	if len(got) != 2 {
		t.Fatalf("got %d questions, want 2", len(got))
	}
	if got[0].Text != "¿Qué es una goroutine en Go?" {
		t.Errorf("question = %q", got[0].Text)
	}
	if got[0].CorrectAnswer != "Un hilo ligero gestionado por el runtime" {
		t.Errorf("answer = %q", got[0].CorrectAnswer)
	}
	if got[0].Explanation == "" {
		t.Error("explanation lost")
	}
}

func TestExtractQuestionsCodeFenced(t *testing.T) {
	raw := "```json\n[{\"question\": \"¿Qué es un canal en Go?\", \"answer\": \"Un conducto tipado entre goroutines\"}]\n```"

	got := ExtractQuestions(raw, 1, "Go")
	if got[0].Text != "¿Qué es un canal en Go?" {
		t.Errorf("question = %q", got[0].Text)
	}
}

func TestExtractQuestionsFieldAliases(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"spanish", `[{"pregunta": "¿Qué es la normalización de bases de datos?", "respuesta": "Organizar tablas para reducir redundancia"}]`},
		{"mixed", `[{"texto": "¿Qué es un índice compuesto en SQL?", "correctAnswer": "Un índice sobre varias columnas"}]`},
		{"snake", `[{"content": "¿Para qué sirve una clave foránea?", "correct_answer": "Para mantener integridad referencial"}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractQuestions(tt.raw, 1, "SQL")
			if got[0].CorrectAnswer == "" || got[0].CorrectAnswer == "See explanation" {
				t.Errorf("alias not resolved: %+v", got[0])
			}
		})
	}
}

func TestExtractQuestionsObjectSplit(t *testing.T) {
	raw := `{"question": "¿Qué es una transacción en una base de datos?", "answer": "Una unidad atómica de trabajo"}{"question": "¿Qué significa ACID en bases de datos?", "answer": "Atomicidad, consistencia, aislamiento y durabilidad"}`

	got := ExtractQuestions(raw, 2, "SQL")
	if len(got) != 2 {
		t.Fatalf("got %d questions, want 2", len(got))
	}
	for _, q := range got {
		if strings.HasPrefix(q.Text, "Question about") {
			t.Errorf("placeholder instead of parsed question: %q", q.Text)
		}
	}
}

func TestExtractQuestionsBraceScan(t *testing.T) {
	raw := `Aquí están las preguntas solicitadas:
{"question": "¿Cuál es la diferencia entre INNER y LEFT JOIN?", "answer": "LEFT JOIN conserva filas sin correspondencia"}
Espero que sean útiles.`

	got := ExtractQuestions(raw, 1, "SQL")
	if got[0].Text != "¿Cuál es la diferencia entre INNER y LEFT JOIN?" {
		t.Errorf("question = %q", got[0].Text)
	}
}

func TestExtractQuestionsLabeledText(t *testing.T) {
	raw := `1. ¿Qué es la inyección SQL y cómo se previene?
Respuesta: Un ataque que inserta SQL malicioso; se previene con consultas parametrizadas.
Explicación: Nunca concatenar entrada de usuario en consultas.

2. ¿Qué es un deadlock en una base de datos?
Answer: Dos transacciones esperándose mutuamente por bloqueos.`

	got := ExtractQuestions(raw, 2, "SQL")
	if len(got) != 2 {
		t.Fatalf("got %d questions, want 2", len(got))
	}
	if !strings.Contains(got[0].Text, "inyección SQL") {
		t.Errorf("question = %q", got[0].Text)
	}
	if !strings.Contains(got[0].CorrectAnswer, "parametrizadas") {
		t.Errorf("answer = %q", got[0].CorrectAnswer)
	}
	if !strings.Contains(got[0].Explanation, "concatenar") {
		t.Errorf("explanation = %q", got[0].Explanation)
	}
}

func TestExtractQuestionsRejection(t *testing.T) {
	raw := `[
		{"question": "[Pregunta 1]", "answer": "[Respuesta 1]"},
		{"question": "corta", "answer": "algo"},
		{"question": "¿Esta pregunta válida sobre redes sobrevive el filtro?", "answer": "Sí, porque tiene pregunta y respuesta reales"}
	]`

	got := ExtractQuestions(raw, 1, "redes")
	if len(got) != 1 {
		t.Fatalf("got %d questions, want 1", len(got))
	}
	if strings.Contains(got[0].Text, "[Pregunta") {
		t.Errorf("placeholder accepted: %q", got[0].Text)
	}
	if got[0].Text == "corta" {
		t.Error("too-short question accepted")
	}
}

func TestExtractQuestionsTruncation(t *testing.T) {
	long := strings.Repeat("x", 1500)
	raw := `[{"question": "¿Puede una respuesta larga ser truncada correctamente?", "answer": "` + long + `"}]`

	got := ExtractQuestions(raw, 1, "misc")
	if len(got[0].CorrectAnswer) != 1000 {
		t.Errorf("answer length = %d, want 1000", len(got[0].CorrectAnswer))
	}
	if !strings.HasSuffix(got[0].CorrectAnswer, "...") {
		t.Error("truncated answer missing ellipsis")
	}
}

func TestExtractQuestionsExplanationBleed(t *testing.T) {
	raw := `[{"question": "¿Qué es un balanceador de carga?", "answer": "Distribuye tráfico entre servidores", "explanation": "Mejora disponibilidad y rendimiento. Pregunta: ¿qué es un proxy?"}]`

	got := ExtractQuestions(raw, 1, "infra")
	if strings.Contains(got[0].Explanation, "proxy") {
		t.Errorf("label bleed not cut: %q", got[0].Explanation)
	}
}

func TestExtractQuestionsBackfill(t *testing.T) {
	got := ExtractQuestions("lo siento, no puedo generar preguntas", 3, "Kubernetes")
	if len(got) != 3 {
		t.Fatalf("got %d questions, want 3", len(got))
	}
	for i, q := range got {
		want := "Question about Kubernetes (part " + string(rune('1'+i)) + ")"
		if q.Text != want {
			t.Errorf("placeholder %d = %q, want %q", i, q.Text, want)
		}
	}
}

func TestExtractQuestionsPartialBackfill(t *testing.T) {
	raw := `[{"question": "¿Qué es un pod en Kubernetes exactamente?", "answer": "La unidad mínima de despliegue"}]`

	got := ExtractQuestions(raw, 3, "Kubernetes")
	if len(got) != 3 {
		t.Fatalf("got %d questions, want 3", len(got))
	}
	if strings.HasPrefix(got[0].Text, "Question about") {
		t.Error("parsed question displaced by placeholder")
	}
	// The shortfall is covered by placeholders, never by re-accepting the
	// same question from a looser parse.
	if got[1].Text == got[0].Text {
		t.Errorf("question accepted twice: %q", got[1].Text)
	}
	if got[1].Text != "Question about Kubernetes (part 2)" {
		t.Errorf("got[1].Text = %q, want part 2 placeholder", got[1].Text)
	}
	if got[2].Text != "Question about Kubernetes (part 3)" {
		t.Errorf("placeholder = %q", got[2].Text)
	}
}

func TestExtractQuestionsKindInference(t *testing.T) {
	raw := `[
		{"question": "¿El protocolo HTTP mantiene estado entre solicitudes?", "answer": "falso"},
		{"question": "¿Cuál de estas es una base de datos relacional?\na) Redis\nb) PostgreSQL\nc) Kafka", "answer": "b) PostgreSQL"},
		{"question": "Explica la diferencia entre procesos e hilos.", "answer": "Los procesos tienen memoria aislada; los hilos la comparten"}
	]`

	got := ExtractQuestions(raw, 3, "sistemas")
	if got[0].Kind != model.KindTrueFalse {
		t.Errorf("got[0].Kind = %q, want true_false", got[0].Kind)
	}
	if got[1].Kind != model.KindMultipleChoice {
		t.Errorf("got[1].Kind = %q, want multiple_choice", got[1].Kind)
	}
	if got[2].Kind != model.KindOpenEnded {
		t.Errorf("got[2].Kind = %q, want open_ended", got[2].Kind)
	}
}

func TestExtractScore(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		category string
		want     float64
	}{
		{"bare decimal", "Relevancia: 0.85", "Relevancia", 0.85},
		{"ten point decimal", "Relevancia: 8.5", "Relevancia", 0.85},
		{"ten point score label", "Experiencia score: 7.5", "Experiencia", 0.75},
		{"out of ten", "Experiencia: 7/10", "Experiencia", 0.7},
		{"score label", "Educación score: 0.60", "Educación", 0.6},
		{"out of hundred", "Relevancia: 85/100", "Relevancia", 0.85},
		{"case insensitive", "relevancia: 0.4", "Relevancia", 0.4},
		{"loose integer small", "Habilidades técnicas 8", "Habilidades técnicas", 0.8},
		{"loose integer large", "Experiencia = 75", "Experiencia", 0.75},
		{"missing", "sin puntajes aquí", "Relevancia", 0.5},
		{"clamped", "Relevancia: 15/10", "Relevancia", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractScore(tt.text, tt.category); got != tt.want {
				t.Errorf("ExtractScore(%q, %q) = %v, want %v", tt.text, tt.category, got, tt.want)
			}
		})
	}
}

func TestExtractScorePatternPriority(t *testing.T) {
	// The bare decimal wins over a later n/10 mention of the same label.
	text := "Relevancia: 0.9\nEn resumen, Relevancia: 3/10 no aplica."
	if got := ExtractScore(text, "Relevancia"); got != 0.9 {
		t.Errorf("ExtractScore = %v, want 0.9", got)
	}
}

func TestExtractSection(t *testing.T) {
	text := "Fortalezas: dominio sólido de Go y SQL\nDebilidades: poca experiencia en la nube"

	if got := ExtractSection(text, "Fortalezas"); got != "dominio sólido de Go y SQL" {
		t.Errorf("Fortalezas = %q", got)
	}
	if got := ExtractSection(text, "Debilidades"); got != "poca experiencia en la nube" {
		t.Errorf("Debilidades = %q", got)
	}
	if got := ExtractSection(text, "Inexistente"); got != "" {
		t.Errorf("missing section = %q, want empty", got)
	}
}

func TestExtractSentiment(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		wantLabel string
		wantScore float64
	}{
		{"valid", `{"sentiment": "positive", "score": 0.8}`, model.SentimentPositive, 0.8},
		{"fenced", "```json\n{\"sentiment\": \"negative\", \"score\": -0.5}\n```", model.SentimentNegative, -0.5},
		{"clamped", `{"sentiment": "positive", "score": 3}`, model.SentimentPositive, 1},
		{"bad label", `{"sentiment": "ecstatic", "score": 0.9}`, model.SentimentNeutral, 0.9},
		{"garbage", "no puedo analizar esto", model.SentimentNeutral, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractSentiment(tt.raw)
			if got.Sentiment != tt.wantLabel || got.Score != tt.wantScore {
				t.Errorf("ExtractSentiment = %+v, want {%s %v}", got, tt.wantLabel, tt.wantScore)
			}
		})
	}
}

func TestExtractSimilarity(t *testing.T) {
	got := ExtractSimilarity(`{"similarityPercentage": 72.5, "analysis": "coincidencias en la estructura"}`)
	if got.SimilarityPercentage != 72.5 {
		t.Errorf("SimilarityPercentage = %v, want 72.5", got.SimilarityPercentage)
	}
	if got.Analysis != "coincidencias en la estructura" {
		t.Errorf("Analysis = %q", got.Analysis)
	}

	got = ExtractSimilarity(`{"similarity_percentage": 150}`)
	if got.SimilarityPercentage != 100 {
		t.Errorf("clamp failed: %v", got.SimilarityPercentage)
	}

	got = ExtractSimilarity("texto sin estructura")
	if got.SimilarityPercentage != 0 || got.Analysis != "texto sin estructura" {
		t.Errorf("degraded result = %+v", got)
	}
}

func TestExtractGrade(t *testing.T) {
	got := ExtractGrade(`{"score": 0.9, "feedback": "respuesta completa"}`)
	if got.Score != 0.9 || got.Feedback != "respuesta completa" {
		t.Errorf("ExtractGrade = %+v", got)
	}

	got = ExtractGrade("nada útil aquí")
	if got.Score != 0.5 {
		t.Errorf("degraded score = %v, want 0.5", got.Score)
	}

	got = ExtractGrade(`{"score": 1.7}`)
	if got.Score != 1 {
		t.Errorf("clamp failed: %v", got.Score)
	}
}
