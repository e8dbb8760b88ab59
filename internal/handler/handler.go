// Package handler exposes the session engine as a JSON API. There is exactly
// one session per server; every route operates on it.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pavelanni/interviewer/internal/export"
	"github.com/pavelanni/interviewer/internal/i18n"
	"github.com/pavelanni/interviewer/internal/model"
	"github.com/pavelanni/interviewer/internal/session"
	"github.com/pavelanni/interviewer/internal/store"
)

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	store   *store.Store
	session *session.Controller
	// copies receives a server-side copy of every export, nil to disable.
	copies export.Sink
	now    func() time.Time
}

// New creates a new Handler.
func New(s *store.Store, sess *session.Controller, copies export.Sink) *Handler {
	return &Handler{store: s, session: sess, copies: copies, now: time.Now}
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/api/topics", h.handleTopics)
	r.Get("/api/session", h.handleSession)
	r.Put("/api/session/filters", h.handleSetFilters)
	r.Put("/api/session/config", h.handleSetConfig)
	r.Post("/api/session/answer", h.handleAnswer)
	r.Post("/api/session/skip", h.handleSkip)
	r.Post("/api/session/restart", h.handleRestart)
	r.Get("/api/session/hint", h.handleHint)
	r.Get("/api/session/solution", h.handleSolution)
	r.Get("/api/session/export", h.handleExport)
}

// questionView is the client-facing shape of the current question. The
// canonical answer, rubric, and explanation never leave the server here.
type questionView struct {
	ID         string             `json:"id"`
	Topic      string             `json:"topic"`
	Type       model.QuestionType `json:"type"`
	Difficulty model.Difficulty   `json:"difficulty"`
	Prompt     string             `json:"prompt"`
	Options    []string           `json:"options,omitempty"`
	HasHint    bool               `json:"hasHint"`
}

type sessionView struct {
	AttemptID        string                `json:"attemptId"`
	State            session.State         `json:"state"`
	Settings         model.Settings        `json:"settings"`
	Position         int                   `json:"position"`
	Total            int                   `json:"total"`
	RemainingSeconds int                   `json:"remainingSeconds"`
	ScorePercent     int                   `json:"scorePercent"`
	Question         *questionView         `json:"question,omitempty"`
	History          []model.HistoryRecord `json:"history"`
	Message          string                `json:"message,omitempty"`
}

func (h *Handler) sessionView(r *http.Request) sessionView {
	snap := h.session.Snapshot()
	view := sessionView{
		AttemptID:        snap.AttemptID,
		State:            snap.State,
		Settings:         snap.Settings,
		Position:         snap.Position,
		Total:            snap.Total,
		RemainingSeconds: snap.RemainingSeconds,
		ScorePercent:     snap.Percent,
		History:          snap.History,
	}
	switch snap.State {
	case session.StateIdle:
		view.Message = i18n.T(r.Context(), "SessionIdle")
	case session.StateCompleted:
		view.Message = i18n.T(r.Context(), "SessionCompleted")
	case session.StateActive:
		q := snap.Current
		view.Question = &questionView{
			ID:         q.ID,
			Topic:      q.Topic,
			Type:       q.Type,
			Difficulty: q.Difficulty,
			Prompt:     q.Prompt,
			Options:    q.Options,
			HasHint:    q.Hint != "",
		}
	}
	return view
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

func (h *Handler) handleTopics(w http.ResponseWriter, r *http.Request) {
	topics, err := h.store.ListDistinctTopics()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	count, err := h.store.QuestionCount()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if topics == nil {
		topics = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"topics":       topics,
		"difficulties": model.Difficulties,
		"message":      i18n.Tp(r.Context(), "QuestionsAvailable", count),
	})
}

func (h *Handler) handleSession(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.sessionView(r))
}

func (h *Handler) handleSetFilters(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Topics     []string         `json:"topics"`
		Difficulty model.Difficulty `json:"difficulty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if !validDifficultyFilter(req.Difficulty) {
		http.Error(w, i18n.T(r.Context(), "InvalidDifficulty"), http.StatusBadRequest)
		return
	}
	if err := h.session.SetFilters(req.Topics, req.Difficulty); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	view := h.sessionView(r)
	if view.State == session.StateIdle {
		view.Message = i18n.T(r.Context(), "NoQuestionsMatch")
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *Handler) handleSetConfig(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Timed              *bool `json:"timed"`
		SecondsPerQuestion *int  `json:"secondsPerQuestion"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Timed != nil {
		h.session.SetTimed(*req.Timed)
	}
	if req.SecondsPerQuestion != nil {
		h.session.SetSecondsPerQuestion(*req.SecondsPerQuestion)
	}
	writeJSON(w, http.StatusOK, h.sessionView(r))
}

func (h *Handler) handleAnswer(w http.ResponseWriter, r *http.Request) {
	var ans model.Answer
	if err := json.NewDecoder(r.Body).Decode(&ans); err != nil {
		http.Error(w, i18n.T(r.Context(), "AnswerRequired"), http.StatusBadRequest)
		return
	}
	// An empty answer is legal: it is graded like any other miss.
	h.session.Submit(ans)
	writeJSON(w, http.StatusOK, h.sessionView(r))
}

func (h *Handler) handleSkip(w http.ResponseWriter, r *http.Request) {
	h.session.Skip()
	writeJSON(w, http.StatusOK, h.sessionView(r))
}

func (h *Handler) handleRestart(w http.ResponseWriter, r *http.Request) {
	h.session.Restart()
	writeJSON(w, http.StatusOK, h.sessionView(r))
}

func (h *Handler) handleHint(w http.ResponseWriter, r *http.Request) {
	q, ok := h.currentQuestion()
	if !ok || q.Hint == "" {
		http.Error(w, i18n.T(r.Context(), "NoHint"), http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"hint": q.Hint})
}

func (h *Handler) handleSolution(w http.ResponseWriter, r *http.Request) {
	q, ok := h.currentQuestion()
	if !ok || q.Explanation == "" {
		http.Error(w, i18n.T(r.Context(), "NoSolution"), http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"explanation": q.Explanation,
		"followUp":    q.FollowUp,
	})
}

func (h *Handler) currentQuestion() (model.Question, bool) {
	snap := h.session.Snapshot()
	if snap.Current == nil {
		return model.Question{}, false
	}
	return *snap.Current, true
}

// downloadSink delivers an export artifact as an HTTP attachment.
type downloadSink struct {
	w http.ResponseWriter
}

func (d downloadSink) Save(name string, data []byte) error {
	d.w.Header().Set("Content-Type", "application/json")
	d.w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	_, err := d.w.Write(data)
	return err
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	data, err := export.Serialize(h.session.Settings(), h.session.History())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	name := export.Filename(h.now())

	if h.copies != nil {
		if err := h.copies.Save(name, data); err != nil {
			slog.Error("save export copy", "name", name, "error", err)
		}
	}
	if err := (downloadSink{w}).Save(name, data); err != nil {
		slog.Error("write export", "name", name, "error", err)
	}
}

func validDifficultyFilter(d model.Difficulty) bool {
	if d == "" || d == model.DifficultyAll {
		return true
	}
	for _, known := range model.Difficulties {
		if d == known {
			return true
		}
	}
	return false
}
