// Package session owns the interview run state machine: which questions are
// in play, their shuffled order, the current position, the per-question
// countdown, and the graded history. All operations serialize behind one
// mutex, so a session behaves as a strict sequence of events even under a
// concurrent HTTP server.
package session

import (
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pavelanni/interviewer/internal/model"
	"github.com/pavelanni/interviewer/internal/score"
)

// Bounds for the per-question countdown, in seconds.
const (
	MinSecondsPerQuestion     = 15
	MaxSecondsPerQuestion     = 600
	DefaultSecondsPerQuestion = 90
)

// State is the controller's lifecycle phase.
type State string

const (
	// StateIdle means no questions match the current filters.
	StateIdle State = "idle"
	// StateActive means a question is awaiting an answer.
	StateActive State = "active"
	// StateCompleted means every question in the run has been answered or skipped.
	StateCompleted State = "completed"
)

// Bank is the read-only question source the controller draws from.
type Bank interface {
	Filter(topics []string, difficulty model.Difficulty) ([]model.Question, error)
}

// Controller drives one interview session. Zero value is not usable; create
// with New.
type Controller struct {
	mu    sync.Mutex
	bank  Bank
	rng   *rand.Rand
	clock Clock

	attemptID string
	settings  model.Settings
	order     []string
	questions map[string]model.Question
	position  int
	remaining int
	history   Recorder

	// timerGen invalidates ticks from cancelled countdowns: a tick whose
	// generation no longer matches is ignored, so a stale timer can never
	// grade a question the user already left.
	timerGen  uint64
	timerStop chan struct{}
}

// Option configures a Controller.
type Option func(*Controller)

// WithRand injects the random source used for shuffling.
func WithRand(r *rand.Rand) Option {
	return func(c *Controller) { c.rng = r }
}

// WithClock injects the time source used for the countdown and timestamps.
func WithClock(clk Clock) Option {
	return func(c *Controller) { c.clock = clk }
}

// New creates a controller in the Idle state. Call SetFilters to start a run.
func New(bank Bank, opts ...Option) *Controller {
	c := &Controller{
		bank:  bank,
		clock: realClock{},
		settings: model.Settings{
			Difficulty:         model.DifficultyAll,
			SecondsPerQuestion: DefaultSecondsPerQuestion,
		},
		attemptID: uuid.NewString(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.rng == nil {
		now := uint64(time.Now().UnixNano())
		c.rng = rand.New(rand.NewPCG(now, now>>32))
	}
	return c
}

// Snapshot is a consistent copy of the observable session state.
type Snapshot struct {
	AttemptID        string
	State            State
	Settings         model.Settings
	Order            []string
	Position         int
	Total            int
	RemainingSeconds int
	Current          *model.Question
	History          []model.HistoryRecord
	Percent          int
}

// Snapshot returns the current state under the lock.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := Snapshot{
		AttemptID:        c.attemptID,
		State:            c.stateLocked(),
		Settings:         c.settingsLocked(),
		Order:            append([]string(nil), c.order...),
		Position:         c.position,
		Total:            len(c.order),
		RemainingSeconds: c.remaining,
		History:          c.history.Records(),
		Percent:          c.history.AggregatePercent(),
	}
	if snap.State == StateActive {
		q := c.questions[c.order[c.position]]
		snap.Current = &q
	}
	return snap
}

// Settings returns a copy of the current session settings.
func (c *Controller) Settings() model.Settings {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.settingsLocked()
}

// History returns a copy of the graded attempts so far.
func (c *Controller) History() []model.HistoryRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.history.Records()
}

// SetFilters requeries the bank, shuffles the filtered set into a fresh
// order, and begins a new attempt: position 0, empty history, timer reset.
func (c *Controller) SetFilters(topics []string, difficulty model.Difficulty) error {
	if difficulty == "" {
		difficulty = model.DifficultyAll
	}

	filtered, err := c.bank.Filter(topics, difficulty)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.settings.SelectedTopics = append([]string(nil), topics...)
	c.settings.Difficulty = difficulty
	c.questions = make(map[string]model.Question, len(filtered))
	c.order = make([]string, 0, len(filtered))
	for _, q := range filtered {
		c.questions[q.ID] = q
		c.order = append(c.order, q.ID)
	}
	c.shuffleLocked()
	c.beginAttemptLocked()

	slog.Debug("session filters set",
		"attempt_id", c.attemptID,
		"topics", topics,
		"difficulty", difficulty,
		"questions", len(c.order),
	)
	return nil
}

// Restart reshuffles the existing filtered set into a new order and begins a
// new attempt. The bank is not requeried.
func (c *Controller) Restart() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.shuffleLocked()
	c.beginAttemptLocked()
	slog.Debug("session restarted", "attempt_id", c.attemptID, "questions", len(c.order))
}

// SetTimed enables or disables the countdown, taking effect with the current
// question.
func (c *Controller) SetTimed(timed bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.settings.Timed = timed
	c.startTimerLocked()
}

// SetSecondsPerQuestion sets the countdown length, clamped to the allowed
// bounds, and restarts the current question's timer.
func (c *Controller) SetSecondsPerQuestion(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.settings.SecondsPerQuestion = clampSeconds(n)
	c.startTimerLocked()
}

// Submit grades the current question and advances. Outside the Active state
// it is a no-op.
func (c *Controller) Submit(ans model.Answer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.submitLocked(ans, false)
}

// Skip records a zero-score skip for the current question and advances.
// Outside the Active state it is a no-op.
func (c *Controller) Skip() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stateLocked() != StateActive {
		return
	}
	q := c.questions[c.order[c.position]]
	c.history.Append(model.HistoryRecord{
		QuestionID:    q.ID,
		Topic:         q.Topic,
		Difficulty:    q.Difficulty,
		Type:          q.Type,
		Prompt:        q.Prompt,
		UserAnswer:    nil,
		AutoSubmitted: false,
		Score:         0,
		Detail:        model.SkipDetail{Skipped: true},
		Timestamp:     c.clock.Now().UTC(),
	})
	c.advanceLocked()
}

// Close cancels any pending countdown.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancelTimerLocked()
}

func (c *Controller) stateLocked() State {
	switch {
	case len(c.order) == 0:
		return StateIdle
	case c.position >= len(c.order):
		return StateCompleted
	default:
		return StateActive
	}
}

func (c *Controller) settingsLocked() model.Settings {
	s := c.settings
	s.SelectedTopics = append([]string(nil), c.settings.SelectedTopics...)
	return s
}

func (c *Controller) shuffleLocked() {
	c.rng.Shuffle(len(c.order), func(i, j int) {
		c.order[i], c.order[j] = c.order[j], c.order[i]
	})
}

func (c *Controller) beginAttemptLocked() {
	c.position = 0
	c.history.Clear()
	c.attemptID = uuid.NewString()
	c.startTimerLocked()
}

func (c *Controller) submitLocked(ans model.Answer, auto bool) {
	if c.stateLocked() != StateActive {
		return
	}
	q := c.questions[c.order[c.position]]
	res := score.Evaluate(q, ans)
	c.history.Append(model.HistoryRecord{
		QuestionID:    q.ID,
		Topic:         q.Topic,
		Difficulty:    q.Difficulty,
		Type:          q.Type,
		Prompt:        q.Prompt,
		UserAnswer:    ans.Raw(),
		AutoSubmitted: auto,
		Score:         res.Score,
		Detail:        res.Detail,
		Timestamp:     c.clock.Now().UTC(),
	})
	c.advanceLocked()
}

// advanceLocked moves past the current question. Answering the last question
// leaves position == len(order), which is the Completed state.
func (c *Controller) advanceLocked() {
	c.position++
	c.startTimerLocked()
}

// startTimerLocked cancels any pending countdown and, when timed and Active,
// starts a fresh one for the current question.
func (c *Controller) startTimerLocked() {
	c.cancelTimerLocked()
	c.remaining = c.settings.SecondsPerQuestion
	if !c.settings.Timed || c.stateLocked() != StateActive {
		return
	}
	stop := make(chan struct{})
	c.timerStop = stop
	go c.runTimer(c.timerGen, stop)
}

func (c *Controller) cancelTimerLocked() {
	c.timerGen++
	if c.timerStop != nil {
		close(c.timerStop)
		c.timerStop = nil
	}
}

func (c *Controller) runTimer(gen uint64, stop <-chan struct{}) {
	t := c.clock.NewTicker(time.Second)
	defer t.Stop()
	for {
		select {
		case <-stop:
			return
		case <-t.C():
			if !c.tick(gen) {
				return
			}
		}
	}
}

// tick consumes one countdown second. It reports whether the timer should
// keep running; a generation mismatch means the countdown was cancelled
// between the tick firing and the lock being taken.
func (c *Controller) tick(gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.timerGen {
		return false
	}
	c.remaining--
	if c.remaining > 0 {
		return true
	}

	// Expiry: force-submit whatever the user has, which server-side is
	// nothing. submitLocked restarts the timer for the next question, so
	// this countdown is done either way.
	slog.Debug("question timed out", "attempt_id", c.attemptID, "position", c.position)
	c.submitLocked(model.Answer{}, true)
	return false
}

func clampSeconds(n int) int {
	if n < MinSecondsPerQuestion {
		return MinSecondsPerQuestion
	}
	if n > MaxSecondsPerQuestion {
		return MaxSecondsPerQuestion
	}
	return n
}
