// Package score grades a single answer against a question. Multiple choice is
// an exact index comparison; open and code answers are graded by a keyword
// rubric: normalized substring containment against the keyword list, a flat
// penalty when a known misconception appears, and a clamp to [0,1]. It is a
// deliberately lightweight heuristic, not semantic understanding.
package score

import (
	"math"
	"strings"

	"github.com/pavelanni/interviewer/internal/model"
)

// MisconceptionPenalty is subtracted once from the base score when any
// misconception phrase appears in the answer.
const MisconceptionPenalty = 0.2

// NeutralScore is awarded to open/code answers that have no rubric to grade
// against. Grading is impossible there, and ungraded content must not be
// silently zero-scored.
const NeutralScore = 0.5

// Result is the outcome of grading one answer.
type Result struct {
	Score  float64
	Detail model.Detail
}

// Normalize lowercases s and collapses every run of characters outside
// [a-z0-9#+.-] into a single space, trimming the ends. Both answers and
// rubric phrases pass through this before matching, so "box-sizing" and
// "Box-Sizing!" compare equal.
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	space := false
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9',
			r == '#', r == '+', r == '.', r == '-':
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			space = false
			b.WriteRune(r)
		default:
			space = true
		}
	}
	return b.String()
}

// Evaluate grades an answer to q. It never fails: a missing choice or an
// index outside the options is simply incorrect, and a missing rubric yields
// the neutral score.
func Evaluate(q model.Question, ans model.Answer) Result {
	switch q.Type {
	case model.TypeMultipleChoice:
		correct := ans.Choice != nil && *ans.Choice == q.Answer
		s := 0.0
		if correct {
			s = 1.0
		}
		return Result{Score: s, Detail: model.ChoiceDetail{Correct: correct}}
	case model.TypeOpen, model.TypeCode:
		return scoreByRubric(ans.Text, q.Rubric)
	}
	return Result{Score: 0, Detail: nil}
}

// scoreByRubric implements the keyword heuristic. The base matched/need ratio
// is left uncapped before the final clamp: excess matches saturate at 1
// rather than earning extra credit.
func scoreByRubric(answer string, rubric *model.Rubric) Result {
	detail := model.RubricDetail{
		Matched: []string{},
		Missed:  []string{},
		Flags:   []string{},
	}
	if rubric == nil {
		return Result{Score: NeutralScore, Detail: detail}
	}

	text := Normalize(answer)
	for _, k := range rubric.Keywords {
		if strings.Contains(text, Normalize(k)) {
			detail.Matched = append(detail.Matched, k)
		} else {
			detail.Missed = append(detail.Missed, k)
		}
	}
	for _, m := range rubric.Misconceptions {
		if strings.Contains(text, Normalize(m)) {
			detail.Flags = append(detail.Flags, m)
		}
	}

	need := rubric.MinKeywords
	if need == 0 {
		need = int(math.Ceil(float64(len(rubric.Keywords)) * 0.5))
	}
	base := float64(len(detail.Matched)) / math.Max(float64(need), 1)

	penalty := 0.0
	if len(detail.Flags) > 0 {
		penalty = MisconceptionPenalty
	}
	return Result{Score: clamp(base-penalty, 0, 1), Detail: detail}
}

func clamp(n, min, max float64) float64 {
	return math.Max(min, math.Min(max, n))
}
