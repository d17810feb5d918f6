package ai

import (
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/tidwall/gjson"

	"github.com/recruitly/screener/internal/model"
)

// Field alias lists, in lookup priority order. Generated text mixes English
// and Spanish field names freely.
var (
	questionAliases = []string{
		"question", "pregunta", "text", "content", "prompt", "title", "texto", "contenido",
	}
	answerAliases = []string{
		"answer", "respuesta", "correctAnswer", "correct_answer", "solution", "solucion", "respuestaCorrecta",
	}
	explanationAliases = []string{
		"explanation", "explicacion", "explicación", "reason", "justification", "feedback",
		"razon", "razón", "justificacion", "justificación",
	}
)

const (
	maxFieldLen    = 1000
	minQuestionLen = 10
)

// QuestionCandidate is one parsed-but-unvalidated question pulled out of raw
// provider output.
type QuestionCandidate struct {
	Question    string
	Answer      string
	Explanation string
	Accepted    bool
	Reason      string
}

// braceObjectRegex matches a JSON-ish object allowing one level of nesting.
var braceObjectRegex = regexp.MustCompile(`\{[^{}]*(\{[^{}]*\})*[^{}]*\}`)

// codeFenceRegex strips markdown code fences around a JSON payload.
var codeFenceRegex = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")

// explanationBleedRegex finds the start of a new labeled question inside an
// explanation, a common generation artifact.
var explanationBleedRegex = regexp.MustCompile(`(?i)(pregunta|question)\s*\d*\s*:`)

// labeled-line field patterns for non-JSON output.
var (
	answerLineRegex      = regexp.MustCompile(`(?im)^\s*(?:answer|respuesta)\s*:\s*(.+)$`)
	explanationLineRegex = regexp.MustCompile(`(?im)^\s*(?:explanation|explicaci[oó]n)\s*:\s*(.+)$`)
	numberedRegex        = regexp.MustCompile(`(?m)^\s*(?:\d+[.)]|[Qq]\d*\s*:|[Pp]regunta\s*\d*\s*:)\s*`)
	optionListRegex      = regexp.MustCompile(`(?m)^\s*[a-dA-D][).]\s+`)
	bareKeyRegex         = regexp.MustCompile(`([{,]\s*)([A-Za-z_][A-Za-z0-9_]*)\s*:`)
	whitespaceRegex      = regexp.MustCompile(`\s+`)
)

// ExtractQuestions parses raw provider output into exactly wanted questions.
// It tries progressively looser strategies and stops as soon as enough
// candidates are accepted; any shortfall is backfilled with labeled
// placeholders so the result always has wanted elements.
func ExtractQuestions(raw string, wanted int, topic string) []model.Question {
	if wanted <= 0 {
		return nil
	}
	text := stripCodeFences(raw)

	strategies := []struct {
		name string
		run  func(string) []QuestionCandidate
	}{
		{"json_array", candidatesFromJSONArray},
		{"object_split", candidatesFromObjectSplit},
		{"brace_scan", candidatesFromBraceScan},
		{"labeled_blocks", candidatesFromLabeledBlocks},
		{"plain_blocks", candidatesFromPlainBlocks},
	}

	var accepted []model.Question
	seen := make(map[string]struct{})
	for _, s := range strategies {
		for _, cand := range s.run(text) {
			q, ok := validate(cand)
			if !ok {
				continue
			}
			// Looser strategies re-scan the same text; count each question once.
			key := strings.ToLower(whitespaceRegex.ReplaceAllString(q.Text, " "))
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			accepted = append(accepted, q)
			if len(accepted) == wanted {
				slog.Debug("question extraction complete", "strategy", s.name, "accepted", len(accepted))
				return accepted
			}
		}
	}

	// Backfill to the exact requested count.
	for i := len(accepted); i < wanted; i++ {
		slog.Warn("backfilling placeholder question", "topic", topic, "position", i+1)
		accepted = append(accepted, model.Question{
			Text:          fmt.Sprintf("Question about %s (part %d)", topic, i+1),
			CorrectAnswer: "See explanation",
			Explanation:   "This question requires manual review.",
			Kind:          model.KindOpenEnded,
		})
	}
	return accepted
}

// validate applies the rejection rules and normalizes an accepted candidate.
func validate(c QuestionCandidate) (model.Question, bool) {
	question := strings.TrimSpace(c.Question)
	answer := strings.TrimSpace(c.Answer)

	switch {
	case question == "" || answer == "":
		return model.Question{}, false
	case strings.Contains(question, "[Pregunta") || strings.Contains(question, "[Respuesta"),
		strings.Contains(answer, "[Pregunta") || strings.Contains(answer, "[Respuesta"):
		return model.Question{}, false
	case utf8.RuneCountInString(question) < minQuestionLen:
		return model.Question{}, false
	}

	explanation := strings.TrimSpace(c.Explanation)
	if loc := explanationBleedRegex.FindStringIndex(explanation); loc != nil && loc[0] > 0 {
		explanation = strings.TrimSpace(explanation[:loc[0]])
	}

	return model.Question{
		Text:          truncate(question),
		CorrectAnswer: truncate(answer),
		Explanation:   truncate(explanation),
		Kind:          inferKind(question, answer),
	}, true
}

// inferKind guesses the answer format from the candidate's text shape.
func inferKind(question, answer string) model.QuestionKind {
	lower := strings.ToLower(strings.TrimSpace(answer))
	switch lower {
	case "true", "false", "verdadero", "falso", "sí", "si", "no":
		return model.KindTrueFalse
	}
	if optionListRegex.MatchString(question) {
		return model.KindMultipleChoice
	}
	return model.KindOpenEnded
}

func truncate(s string) string {
	if utf8.RuneCountInString(s) <= maxFieldLen {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxFieldLen-3]) + "..."
}

func stripCodeFences(s string) string {
	if m := codeFenceRegex.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	return strings.TrimSpace(s)
}

// candidatesFromJSONArray parses the whole text as a JSON array of objects.
func candidatesFromJSONArray(text string) []QuestionCandidate {
	trimmed := strings.TrimSpace(text)
	start := strings.Index(trimmed, "[")
	end := strings.LastIndex(trimmed, "]")
	if start < 0 || end <= start {
		return nil
	}
	arr := trimmed[start : end+1]
	if !gjson.Valid(arr) {
		return nil
	}
	var out []QuestionCandidate
	gjson.Parse(arr).ForEach(func(_, item gjson.Result) bool {
		if item.IsObject() {
			out = append(out, candidateFromObject(item.Raw))
		}
		return true
	})
	return out
}

// candidatesFromObjectSplit reconstructs objects from "}{" run-on output,
// where the provider emitted objects back to back without array brackets.
func candidatesFromObjectSplit(text string) []QuestionCandidate {
	if !strings.Contains(text, "}{") && !strings.Contains(text, "},{") {
		return nil
	}
	cleaned := strings.NewReplacer("[", "", "]", "", "},{", "}{").Replace(text)
	parts := strings.Split(cleaned, "}{")
	var out []QuestionCandidate
	for i, p := range parts {
		if i > 0 {
			p = "{" + p
		}
		if i < len(parts)-1 {
			p = p + "}"
		}
		p = strings.TrimSpace(p)
		if gjson.Valid(p) && gjson.Parse(p).IsObject() {
			out = append(out, candidateFromObject(p))
		}
	}
	return out
}

// candidatesFromBraceScan regex-scans for object-shaped fragments anywhere in
// the text.
func candidatesFromBraceScan(text string) []QuestionCandidate {
	var out []QuestionCandidate
	for _, frag := range braceObjectRegex.FindAllString(text, -1) {
		if gjson.Valid(frag) {
			out = append(out, candidateFromObject(frag))
			continue
		}
		// Tolerate single quotes and unquoted keys via a relaxed pass.
		if fixed, ok := relaxJSON(frag); ok {
			out = append(out, candidateFromObject(fixed))
		}
	}
	return out
}

// candidatesFromLabeledBlocks slices numbered or "Q:" style paragraphs and
// pulls fields from labeled lines.
func candidatesFromLabeledBlocks(text string) []QuestionCandidate {
	locs := numberedRegex.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return nil
	}
	var out []QuestionCandidate
	for i, loc := range locs {
		end := len(text)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		block := text[loc[1]:end]

		var c QuestionCandidate
		if m := answerLineRegex.FindStringSubmatchIndex(block); m != nil {
			c.Question = strings.TrimSpace(block[:m[0]])
			c.Answer = strings.TrimSpace(block[m[2]:m[3]])
		} else {
			c.Question = strings.TrimSpace(block)
		}
		if m := explanationLineRegex.FindStringSubmatch(block); m != nil {
			c.Explanation = strings.TrimSpace(m[1])
		}
		out = append(out, c)
	}
	return out
}

// candidatesFromPlainBlocks treats blank-line separated blocks as bare
// questions with no stated answer. Validation rejects them unless an answer
// line is present, so this is a last resort for labeled text the numbered
// scan missed.
func candidatesFromPlainBlocks(text string) []QuestionCandidate {
	var out []QuestionCandidate
	for _, block := range strings.Split(text, "\n\n") {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		var c QuestionCandidate
		if m := answerLineRegex.FindStringSubmatchIndex(block); m != nil {
			c.Question = strings.TrimSpace(block[:m[0]])
			c.Answer = strings.TrimSpace(block[m[2]:m[3]])
		} else {
			c.Question = block
		}
		if m := explanationLineRegex.FindStringSubmatch(block); m != nil {
			c.Explanation = strings.TrimSpace(m[1])
		}
		out = append(out, c)
	}
	return out
}

// candidateFromObject resolves aliased fields from one JSON object fragment.
func candidateFromObject(frag string) QuestionCandidate {
	return QuestionCandidate{
		Question:    firstField(frag, questionAliases),
		Answer:      firstField(frag, answerAliases),
		Explanation: firstField(frag, explanationAliases),
	}
}

func firstField(frag string, aliases []string) string {
	for _, a := range aliases {
		if v := gjson.Get(frag, a); v.Exists() && v.String() != "" {
			return v.String()
		}
	}
	return ""
}

// relaxJSON quotes bare keys and swaps single quotes so a sloppy fragment
// parses. Returns false when the result still is not valid JSON.
func relaxJSON(frag string) (string, bool) {
	fixed := bareKeyRegex.ReplaceAllString(frag, `$1"$2":`)
	fixed = strings.ReplaceAll(fixed, "'", `"`)
	if gjson.Valid(fixed) {
		return fixed, true
	}
	return "", false
}

// ExtractScore pulls a normalized [0,1] score for a named category out of
// free text. Pattern priority: bare decimal, n/10, "category score:", n/100.
// Returns 0.5 when nothing matches.
func ExtractScore(text, category string) float64 {
	cat := whitespaceRegex.ReplaceAllString(regexp.QuoteMeta(strings.TrimSpace(category)), `\s+`)
	patterns := []struct {
		re    *regexp.Regexp
		scale float64
	}{
		{regexp.MustCompile(`(?i)` + cat + `\s*:\s*(\d+\.\d+)`), 1},
		{regexp.MustCompile(`(?i)` + cat + `\s*:\s*(\d+(?:\.\d+)?)\s*/\s*10\b`), 10},
		{regexp.MustCompile(`(?i)` + cat + `\s+score\s*:\s*(\d+\.\d+)`), 1},
		{regexp.MustCompile(`(?i)` + cat + `\s*:\s*(\d+(?:\.\d+)?)\s*/\s*100\b`), 100},
	}
	for _, p := range patterns {
		if m := p.re.FindStringSubmatch(text); m != nil {
			v, err := strconv.ParseFloat(m[1], 64)
			if err != nil {
				continue
			}
			v /= p.scale
			// An unscaled value above 1 is a 10-point grade ("Relevancia: 8.5").
			if p.scale == 1 && v > 1 {
				v /= 10
			}
			return clamp01(v)
		}
	}
	// Loose fallback: a bare integer right after the label, scale guessed
	// from magnitude.
	loose := regexp.MustCompile(`(?i)` + cat + `\s*[:=]?\s*(\d+(?:\.\d+)?)`)
	if m := loose.FindStringSubmatch(text); m != nil {
		v, err := strconv.ParseFloat(m[1], 64)
		if err == nil {
			switch {
			case v <= 1:
				return clamp01(v)
			case v <= 10:
				return clamp01(v / 10)
			default:
				return clamp01(v / 100)
			}
		}
	}
	return 0.5
}

// ExtractSection returns the rest of the line after "Name:" in the text, or
// empty when absent.
func ExtractSection(text, name string) string {
	re := regexp.MustCompile(`(?im)^\s*` + regexp.QuoteMeta(name) + `\s*:\s*(.+)$`)
	if m := re.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

// ExtractSentiment parses a sentiment label and score from provider output.
// Unparseable output degrades to neutral with score 0.
func ExtractSentiment(raw string) model.SentimentResult {
	result := model.SentimentResult{Sentiment: model.SentimentNeutral}
	frag := firstJSONObject(raw)
	if frag == "" {
		return result
	}
	label := strings.ToLower(gjson.Get(frag, "sentiment").String())
	switch label {
	case model.SentimentPositive, model.SentimentNegative, model.SentimentNeutral:
		result.Sentiment = label
	}
	if v := gjson.Get(frag, "score"); v.Exists() {
		result.Score = clampRange(v.Float(), -1, 1)
	}
	return result
}

// ExtractSimilarity parses a plagiarism comparison result. Unparseable
// output degrades to zero similarity with the raw text as analysis.
func ExtractSimilarity(raw string) model.PlagiarismResult {
	result := model.PlagiarismResult{Analysis: strings.TrimSpace(raw)}
	frag := firstJSONObject(raw)
	if frag == "" {
		return result
	}
	for _, alias := range []string{"similarityPercentage", "similarity_percentage", "similarity"} {
		if v := gjson.Get(frag, alias); v.Exists() {
			result.SimilarityPercentage = clampRange(v.Float(), 0, 100)
			break
		}
	}
	if v := gjson.Get(frag, "analysis"); v.Exists() && v.String() != "" {
		result.Analysis = v.String()
	}
	return result
}

// ExtractGrade parses a grading result. A missing or unparseable score
// degrades to the neutral 0.5.
func ExtractGrade(raw string) model.GradeResult {
	result := model.GradeResult{Score: 0.5}
	frag := firstJSONObject(raw)
	if frag == "" {
		// Labeled-text fallback.
		if s := ExtractSection(raw, "score"); s != "" {
			if v, err := strconv.ParseFloat(s, 64); err == nil {
				result.Score = clamp01(v)
			}
		}
		result.Feedback = ExtractSection(raw, "feedback")
		return result
	}
	if v := gjson.Get(frag, "score"); v.Exists() {
		result.Score = clamp01(v.Float())
	}
	result.Feedback = gjson.Get(frag, "feedback").String()
	return result
}

// firstJSONObject returns the first valid object-shaped fragment in the
// text, after stripping any code fences.
func firstJSONObject(raw string) string {
	text := stripCodeFences(raw)
	if gjson.Valid(text) && gjson.Parse(text).IsObject() {
		return text
	}
	for _, frag := range braceObjectRegex.FindAllString(text, -1) {
		if gjson.Valid(frag) {
			return frag
		}
		if fixed, ok := relaxJSON(frag); ok {
			return fixed
		}
	}
	return ""
}

func clamp01(v float64) float64 { return clampRange(v, 0, 1) }

func clampRange(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
