package score

import (
	"math"
	"reflect"
	"testing"

	"github.com/pavelanni/interviewer/internal/model"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"lowercases", "Box-Sizing", "box-sizing"},
		{"keeps charset", "c# c++ node.js box-sizing", "c# c++ node.js box-sizing"},
		{"collapses runs", "a,,,   b!!c", "a b c"},
		{"trims ends", "  <section> and <div>  ", "section and div"},
		{"digits survive", "HTTP/2 is not HTTP 1.1", "http 2 is not http 1.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.in); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func intp(i int) *int { return &i }

func TestEvaluateMultipleChoice(t *testing.T) {
	q := model.Question{
		ID:      "mcq1",
		Type:    model.TypeMultipleChoice,
		Options: []string{"a", "b", "c", "d"},
		Answer:  2,
	}

	tests := []struct {
		name        string
		ans         model.Answer
		wantScore   float64
		wantCorrect bool
	}{
		{"correct index", model.Answer{Choice: intp(2)}, 1, true},
		{"wrong index", model.Answer{Choice: intp(0)}, 0, false},
		{"out of range", model.Answer{Choice: intp(9)}, 0, false},
		{"negative", model.Answer{Choice: intp(-1)}, 0, false},
		{"no selection", model.Answer{}, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Evaluate(q, tt.ans)
			if res.Score != tt.wantScore {
				t.Errorf("score = %v, want %v", res.Score, tt.wantScore)
			}
			detail, ok := res.Detail.(model.ChoiceDetail)
			if !ok {
				t.Fatalf("detail type = %T, want ChoiceDetail", res.Detail)
			}
			if detail.Correct != tt.wantCorrect {
				t.Errorf("correct = %v, want %v", detail.Correct, tt.wantCorrect)
			}
		})
	}
}

func TestEvaluateNoRubric(t *testing.T) {
	for _, typ := range []model.QuestionType{model.TypeOpen, model.TypeCode} {
		q := model.Question{ID: "q", Type: typ}
		res := Evaluate(q, model.Answer{Text: "anything at all"})
		if res.Score != NeutralScore {
			t.Errorf("%s: score = %v, want %v", typ, res.Score, NeutralScore)
		}
		detail, ok := res.Detail.(model.RubricDetail)
		if !ok {
			t.Fatalf("%s: detail type = %T, want RubricDetail", typ, res.Detail)
		}
		if len(detail.Matched) != 0 || len(detail.Missed) != 0 || len(detail.Flags) != 0 {
			t.Errorf("%s: expected empty detail, got %+v", typ, detail)
		}
		if detail.Matched == nil || detail.Missed == nil || detail.Flags == nil {
			t.Errorf("%s: detail slices must be present, not nil", typ)
		}
	}
}

func TestEvaluateRubric(t *testing.T) {
	boxModel := &model.Rubric{
		Keywords:    []string{"padding", "border", "margin", "content"},
		MinKeywords: 3,
	}

	tests := []struct {
		name        string
		rubric      *model.Rubric
		answer      string
		wantScore   float64
		wantMatched []string
		wantMissed  []string
		wantFlags   []string
	}{
		{
			name:        "threshold met exactly",
			rubric:      boxModel,
			answer:      "The content area, padding and border are counted",
			wantScore:   1.0,
			wantMatched: []string{"padding", "border", "content"},
			wantMissed:  []string{"margin"},
			wantFlags:   []string{},
		},
		{
			name: "misconception penalty",
			rubric: &model.Rubric{
				Keywords:       []string{"padding", "border", "margin", "content"},
				Misconceptions: []string{"no difference"},
				MinKeywords:    3,
			},
			answer:      "content, padding and border matter; there is no difference otherwise",
			wantScore:   0.8,
			wantMatched: []string{"padding", "border", "content"},
			wantMissed:  []string{"margin"},
			wantFlags:   []string{"no difference"},
		},
		{
			name:        "default threshold is half the keywords",
			rubric:      &model.Rubric{Keywords: []string{"a1", "b2", "c3", "d4"}},
			answer:      "only a1 here",
			wantScore:   0.5, // need = ceil(4 * 0.5) = 2
			wantMatched: []string{"a1"},
			wantMissed:  []string{"b2", "c3", "d4"},
			wantFlags:   []string{},
		},
		{
			name:        "excess matches saturate at one",
			rubric:      &model.Rubric{Keywords: []string{"alpha", "beta", "gamma"}, MinKeywords: 1},
			answer:      "alpha beta gamma",
			wantScore:   1.0, // base is 3.0 before the clamp
			wantMatched: []string{"alpha", "beta", "gamma"},
			wantMissed:  []string{},
			wantFlags:   []string{},
		},
		{
			name: "penalty clamps at zero",
			rubric: &model.Rubric{
				Keywords:       []string{"alpha"},
				Misconceptions: []string{"beta"},
			},
			answer:      "beta only",
			wantScore:   0,
			wantMatched: []string{},
			wantMissed:  []string{"alpha"},
			wantFlags:   []string{"beta"},
		},
		{
			name:        "matching ignores case and punctuation",
			rubric:      &model.Rubric{Keywords: []string{"box-sizing", "$(document).ready"}, MinKeywords: 2},
			answer:      "Use Box-Sizing! Then $(document).ready(fn).",
			wantScore:   1.0,
			wantMatched: []string{"box-sizing", "$(document).ready"},
			wantMissed:  []string{},
			wantFlags:   []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := model.Question{ID: "q", Type: model.TypeOpen, Rubric: tt.rubric}
			res := Evaluate(q, model.Answer{Text: tt.answer})
			if math.Abs(res.Score-tt.wantScore) > 1e-9 {
				t.Errorf("score = %v, want %v", res.Score, tt.wantScore)
			}
			detail, ok := res.Detail.(model.RubricDetail)
			if !ok {
				t.Fatalf("detail type = %T, want RubricDetail", res.Detail)
			}
			if !reflect.DeepEqual(detail.Matched, tt.wantMatched) {
				t.Errorf("matched = %v, want %v", detail.Matched, tt.wantMatched)
			}
			if !reflect.DeepEqual(detail.Missed, tt.wantMissed) {
				t.Errorf("missed = %v, want %v", detail.Missed, tt.wantMissed)
			}
			if !reflect.DeepEqual(detail.Flags, tt.wantFlags) {
				t.Errorf("flags = %v, want %v", detail.Flags, tt.wantFlags)
			}
		})
	}
}
