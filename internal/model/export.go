package model

// SessionExport is the top-level JSON structure for a session export: the
// settings the run was taken under plus the graded history, exactly as
// accumulated.
type SessionExport struct {
	Settings Settings        `json:"settings"`
	History  []HistoryRecord `json:"history"`
}
