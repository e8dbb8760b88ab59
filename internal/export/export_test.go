package export

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pavelanni/interviewer/internal/model"
)

func TestSerializeShape(t *testing.T) {
	settings := model.Settings{
		SelectedTopics:     []string{"HTML", "CSS"},
		Difficulty:         model.DifficultyAll,
		Timed:              true,
		SecondsPerQuestion: 90,
	}
	history := []model.HistoryRecord{
		{
			QuestionID:    "css1",
			Topic:         "CSS",
			Difficulty:    model.DifficultyBeginner,
			Type:          model.TypeOpen,
			Prompt:        "Explain the box model.",
			UserAnswer:    "padding and border",
			AutoSubmitted: false,
			Score:         1,
			Detail:        model.RubricDetail{Matched: []string{"padding", "border"}, Missed: []string{}, Flags: []string{}},
			Timestamp:     time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC),
		},
		{
			QuestionID: "html2",
			Topic:      "HTML",
			Type:       model.TypeMultipleChoice,
			UserAnswer: nil,
			Score:      0,
			Detail:     model.SkipDetail{Skipped: true},
		},
	}

	data, err := Serialize(settings, history)
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}

	var decoded struct {
		Settings map[string]any   `json:"settings"`
		History  []map[string]any `json:"history"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal export: %v", err)
	}

	if got := decoded.Settings["difficulty"]; got != "all" {
		t.Errorf("settings.difficulty = %v, want all", got)
	}
	if got := decoded.Settings["timed"]; got != true {
		t.Errorf("settings.timed = %v, want true", got)
	}
	if got := decoded.Settings["secondsPerQuestion"]; got != float64(90) {
		t.Errorf("settings.secondsPerQuestion = %v, want 90", got)
	}
	if len(decoded.History) != 2 {
		t.Fatalf("history length = %d, want 2", len(decoded.History))
	}

	first := decoded.History[0]
	if first["userAnswer"] != "padding and border" {
		t.Errorf("userAnswer = %v", first["userAnswer"])
	}
	detail, ok := first["detail"].(map[string]any)
	if !ok {
		t.Fatalf("detail = %v", first["detail"])
	}
	if _, present := detail["matched"]; !present {
		t.Error("rubric detail must carry matched")
	}

	second := decoded.History[1]
	if second["userAnswer"] != nil {
		t.Errorf("skipped userAnswer = %v, want null", second["userAnswer"])
	}
	if d := second["detail"].(map[string]any); d["skipped"] != true {
		t.Errorf("skip detail = %v", d)
	}
}

func TestSerializeEmptySession(t *testing.T) {
	data, err := Serialize(model.Settings{}, nil)
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	var decoded map[string]json.RawMessage
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if string(decoded["history"]) != "[]" {
		t.Errorf("history = %s, want []", decoded["history"])
	}
	var settings map[string]any
	if err := json.Unmarshal(decoded["settings"], &settings); err != nil {
		t.Fatalf("unmarshal settings: %v", err)
	}
	if topics, ok := settings["selectedTopics"].([]any); !ok || len(topics) != 0 {
		t.Errorf("selectedTopics = %v, want []", settings["selectedTopics"])
	}
}

func TestFilename(t *testing.T) {
	ts := time.Date(2026, 8, 28, 12, 34, 56, 789000000, time.UTC)
	got := Filename(ts)
	want := "interview-2026-08-28T12-34-56-789Z.json"
	if got != want {
		t.Errorf("Filename = %q, want %q", got, want)
	}
}

func TestDirSink(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "exports")
	sink := DirSink{Dir: dir}

	if err := sink.Save("run.json", []byte(`{"ok":true}`)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "run.json"))
	if err != nil {
		t.Fatalf("read saved export: %v", err)
	}
	if string(data) != `{"ok":true}` {
		t.Errorf("saved payload = %s", data)
	}
}
