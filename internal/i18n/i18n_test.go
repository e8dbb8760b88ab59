package i18n

import (
	"context"
	"testing"
)

func TestTranslations(t *testing.T) {
	if err := Init("en"); err != nil {
		t.Fatalf("Init: %v", err)
	}

	en := WithLocalizer(context.Background(), NewLocalizer("en"))
	ru := WithLocalizer(context.Background(), NewLocalizer("ru"))

	if got := T(en, "AppTitle"); got != "Interviewer" {
		t.Errorf("en AppTitle = %q", got)
	}
	if got := T(ru, "AppTitle"); got != "Интервьюер" {
		t.Errorf("ru AppTitle = %q", got)
	}
	if got := T(en, "NoQuestionsMatch"); got != "No questions match the current filters." {
		t.Errorf("en NoQuestionsMatch = %q", got)
	}
}

func TestPlurals(t *testing.T) {
	if err := Init("en"); err != nil {
		t.Fatalf("Init: %v", err)
	}

	en := WithLocalizer(context.Background(), NewLocalizer("en"))
	ru := WithLocalizer(context.Background(), NewLocalizer("ru"))

	tests := []struct {
		ctx   context.Context
		count int
		want  string
	}{
		{en, 1, "1 question available."},
		{en, 5, "5 questions available."},
		{ru, 1, "Доступен 1 вопрос."},
		{ru, 2, "Доступно 2 вопроса."},
		{ru, 5, "Доступно 5 вопросов."},
	}
	for _, tt := range tests {
		if got := Tp(tt.ctx, "QuestionsAvailable", tt.count); got != tt.want {
			t.Errorf("Tp(QuestionsAvailable, %d) = %q, want %q", tt.count, got, tt.want)
		}
	}
}

func TestMissingMessageFallsBackToID(t *testing.T) {
	if err := Init("en"); err != nil {
		t.Fatalf("Init: %v", err)
	}

	ctx := WithLocalizer(context.Background(), NewLocalizer("en"))
	if got := T(ctx, "NoSuchMessage"); got != "NoSuchMessage" {
		t.Errorf("T(NoSuchMessage) = %q, want the ID itself", got)
	}
}

func TestUnknownLanguageFallsBackToDefault(t *testing.T) {
	if err := Init("en"); err != nil {
		t.Fatalf("Init: %v", err)
	}

	ctx := WithLocalizer(context.Background(), NewLocalizer("xx"))
	if got := T(ctx, "AppTitle"); got != "Interviewer" {
		t.Errorf("T with unknown language = %q, want Interviewer", got)
	}
}
