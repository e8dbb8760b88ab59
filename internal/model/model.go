package model

import "time"

// QuestionType distinguishes how a question is answered and graded.
type QuestionType string

const (
	// TypeMultipleChoice questions carry options and a canonical answer index.
	TypeMultipleChoice QuestionType = "mcq"
	// TypeOpen questions take free text graded against a rubric.
	TypeOpen QuestionType = "open"
	// TypeCode questions take code or pseudo-code graded against a rubric.
	TypeCode QuestionType = "code"
)

// Difficulty represents question difficulty level.
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "Beginner"
	DifficultyIntermediate Difficulty = "Intermediate"
	DifficultyAdvanced     Difficulty = "Advanced"
	// DifficultyAll is the filter value that matches every level.
	DifficultyAll Difficulty = "all"
)

// Difficulties lists the valid levels in ascending order.
var Difficulties = []Difficulty{DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced}

// Rubric is the keyword-based grading spec attached to open and code questions.
type Rubric struct {
	Keywords       []string `json:"keywords" validate:"required,min=1,dive,required"`
	Misconceptions []string `json:"misconceptions,omitempty"`
	// MinKeywords is the match threshold; 0 means half the keywords, rounded up.
	MinKeywords int `json:"minKeywords,omitempty" validate:"min=0"`
}

// Question is one immutable entry of the question bank.
type Question struct {
	ID         string       `json:"id" validate:"required"`
	Topic      string       `json:"topic" validate:"required"`
	Type       QuestionType `json:"type" validate:"required,oneof=mcq open code"`
	Difficulty Difficulty   `json:"difficulty" validate:"required,oneof=Beginner Intermediate Advanced"`
	Prompt     string       `json:"prompt" validate:"required"`
	// Options and Answer are meaningful for multiple choice only.
	Options []string `json:"options,omitempty"`
	Answer  int      `json:"answer,omitempty"`
	// Rubric may be nil for open/code questions; grading then falls back to a
	// neutral score.
	Rubric      *Rubric `json:"rubric,omitempty"`
	Hint        string  `json:"hint,omitempty"`
	Explanation string  `json:"explanation,omitempty"`
	FollowUp    string  `json:"followUp,omitempty"`
}

// Answer is a submitted answer: a selected option index for multiple choice,
// free text for open and code questions, or neither when nothing was entered.
type Answer struct {
	Choice *int   `json:"choice,omitempty"`
	Text   string `json:"text,omitempty"`
}

// Raw returns the value recorded in history: the option index, the text, or
// nil when nothing was submitted.
func (a Answer) Raw() any {
	if a.Choice != nil {
		return *a.Choice
	}
	if a.Text != "" {
		return a.Text
	}
	return nil
}

// Detail describes how a score was produced. Exactly one concrete type is
// used per record: ChoiceDetail for multiple choice, RubricDetail for
// open/code grading, SkipDetail for skipped questions.
type Detail interface {
	detail()
}

// ChoiceDetail records whether a multiple-choice answer was correct.
type ChoiceDetail struct {
	Correct bool `json:"correct"`
}

func (ChoiceDetail) detail() {}

// RubricDetail records the rubric evaluation breakdown. All three slices are
// always present, possibly empty.
type RubricDetail struct {
	Matched []string `json:"matched"`
	Missed  []string `json:"missed"`
	Flags   []string `json:"flags"`
}

func (RubricDetail) detail() {}

// SkipDetail marks a question the user skipped.
type SkipDetail struct {
	Skipped bool `json:"skipped"`
}

func (SkipDetail) detail() {}

// Settings are the user-tunable session parameters.
type Settings struct {
	SelectedTopics     []string   `json:"selectedTopics"`
	Difficulty         Difficulty `json:"difficulty"`
	Timed              bool       `json:"timed"`
	SecondsPerQuestion int        `json:"secondsPerQuestion"`
}

// HistoryRecord is one graded attempt. Question fields are snapshotted so the
// record stays valid even if the bank changes.
type HistoryRecord struct {
	QuestionID    string       `json:"id"`
	Topic         string       `json:"topic"`
	Difficulty    Difficulty   `json:"difficulty"`
	Type          QuestionType `json:"type"`
	Prompt        string       `json:"prompt"`
	UserAnswer    any          `json:"userAnswer"`
	AutoSubmitted bool         `json:"autoSubmitted"`
	Score         float64      `json:"score"`
	Detail        Detail       `json:"detail"`
	Timestamp     time.Time    `json:"timestamp"`
}

// SessionConfig holds runtime parameters set via CLI flags.
type SessionConfig struct {
	Topics             []string // empty means all topics in the bank
	Difficulty         string   // empty or "all" means all difficulties
	Timed              bool
	SecondsPerQuestion int
	BasePath           string // URL prefix for sub-path deployments
	ExportDir          string // directory for server-side export copies, empty to disable
}
