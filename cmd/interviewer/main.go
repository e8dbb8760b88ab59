package main

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pavelanni/interviewer/internal/export"
	"github.com/pavelanni/interviewer/internal/handler"
	appI18n "github.com/pavelanni/interviewer/internal/i18n"
	"github.com/pavelanni/interviewer/internal/model"
	"github.com/pavelanni/interviewer/internal/session"
	"github.com/pavelanni/interviewer/internal/store"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "interviewer",
		Short: "Interview practice engine with keyword-rubric grading",
	}

	serve := serveCmd()
	root.AddCommand(serve, validateCmd())

	// Make "serve" the default when no subcommand is given.
	root.RunE = serve.RunE

	// Register serve flags on root so bare `interviewer --addr ...` still works.
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP session server",
		RunE:  runServe,
	}
	f := cmd.Flags()
	f.StringP("addr", "a", ":8080", "HTTP listen address")
	f.String("db", "interviewer.db", "SQLite database path")
	f.StringSliceP("questions", "q", []string{"questions/frontend_en.json"}, "Paths to question bank JSON files (repeatable)")
	f.StringSliceP("topics", "t", nil, "Initial topic selection (default: every topic in the bank)")
	f.StringP("difficulty", "d", "all", "Initial difficulty filter (Beginner, Intermediate, Advanced, all)")
	f.Bool("timed", false, "Start in timed mode")
	f.Int("seconds-per-question", session.DefaultSecondsPerQuestion, "Countdown per question in timed mode")
	f.StringP("lang", "l", "en", "API message language (en, ru)")
	f.String("base-path", "", "URL prefix for sub-path deployments (e.g. /demo)")
	f.String("export-dir", "", "Directory for server-side export copies (empty = downloads only)")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
	return cmd
}

func validateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check question bank files without starting the server",
		RunE:  runValidate,
	}
	f := cmd.Flags()
	f.StringSliceP("questions", "q", []string{"questions/frontend_en.json"}, "Paths to question bank JSON files (repeatable)")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
	return cmd
}

func setupLogging(cmd *cobra.Command) {
	v := viperForCmd(cmd)

	var logLevel slog.Level
	switch strings.ToLower(v.GetString("log-level")) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: logLevel}
	var logHandler slog.Handler
	switch strings.ToLower(v.GetString("log-format")) {
	case "json":
		logHandler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	default:
		logHandler = slog.NewTextHandler(os.Stderr, handlerOpts)
	}
	slog.SetDefault(slog.New(logHandler))
}

// viperForCmd binds a command's flags and environment to a fresh viper instance.
func viperForCmd(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())

	v.SetEnvPrefix("INTERVIEWER")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("interviewer")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/interviewer")
	v.AddConfigPath("/etc/interviewer")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Info("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

func runServe(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if err := loadQuestions(db, v.GetStringSlice("questions")); err != nil {
		return fmt.Errorf("load questions: %w", err)
	}

	lang := v.GetString("lang")
	if err := appI18n.Init(lang); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}

	cfg := model.SessionConfig{
		Topics:             v.GetStringSlice("topics"),
		Difficulty:         v.GetString("difficulty"),
		Timed:              v.GetBool("timed"),
		SecondsPerQuestion: v.GetInt("seconds-per-question"),
		BasePath:           v.GetString("base-path"),
		ExportDir:          v.GetString("export-dir"),
	}

	sess, err := newSession(db, cfg)
	if err != nil {
		return err
	}
	defer sess.Close()

	var copies export.Sink
	if cfg.ExportDir != "" {
		copies = export.DirSink{Dir: cfg.ExportDir}
	}
	h := handler.New(db, sess, copies)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(appI18n.Middleware(lang))

	// Normalize base path.
	basePath := strings.TrimRight(cfg.BasePath, "/")
	if basePath != "" && !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	if basePath != "" {
		r.Route(basePath, func(sub chi.Router) {
			h.Routes(sub)
		})
	} else {
		h.Routes(r)
	}

	addr := v.GetString("addr")
	snap := sess.Snapshot()
	slog.Info("starting server",
		"addr", addr,
		"lang", lang,
		"topics", snap.Settings.SelectedTopics,
		"difficulty", snap.Settings.Difficulty,
		"timed", snap.Settings.Timed,
		"seconds_per_question", snap.Settings.SecondsPerQuestion,
		"questions", snap.Total,
		"base_path", basePath,
	)
	return http.ListenAndServe(addr, r)
}

// newSession builds the single server-owned session from the configured
// filters. An empty topic flag selects every topic in the bank.
func newSession(db *store.Store, cfg model.SessionConfig) (*session.Controller, error) {
	topics := cfg.Topics
	if len(topics) == 0 {
		var err error
		topics, err = db.ListDistinctTopics()
		if err != nil {
			return nil, fmt.Errorf("list topics: %w", err)
		}
	}

	difficulty := model.Difficulty(cfg.Difficulty)
	if difficulty == "" {
		difficulty = model.DifficultyAll
	}

	sess := session.New(db)
	sess.SetSecondsPerQuestion(cfg.SecondsPerQuestion)
	sess.SetTimed(cfg.Timed)
	if err := sess.SetFilters(topics, difficulty); err != nil {
		return nil, fmt.Errorf("set filters: %w", err)
	}
	return sess, nil
}

func runValidate(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	var problems int
	seen := make(map[string]string)
	for _, path := range v.GetStringSlice("questions") {
		questions, err := readBankFile(path)
		if err != nil {
			return err
		}
		for _, q := range questions {
			if prev, dup := seen[q.ID]; dup {
				slog.Error("duplicate question id", "id", q.ID, "path", path, "first_seen", prev)
				problems++
				continue
			}
			seen[q.ID] = path
			if err := q.Validate(); err != nil {
				slog.Error("invalid question", "path", path, "error", err)
				problems++
			}
		}
		slog.Info("checked bank file", "path", path, "count", len(questions))
	}

	if problems > 0 {
		return fmt.Errorf("%d invalid questions", problems)
	}
	slog.Info("all question files valid", "questions", len(seen))
	return nil
}

func readBankFile(path string) ([]model.Question, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var questions []model.Question
	if err := json.Unmarshal(data, &questions); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return questions, nil
}

func loadQuestions(db *store.Store, paths []string) error {
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}

		hash := sha256sum(data)
		storedHash, err := db.GetImportedFileHash(path)
		if err != nil {
			return fmt.Errorf("check import status for %s: %w", path, err)
		}

		if storedHash == hash {
			slog.Info("questions file unchanged, skipping", "path", path)
			continue
		}
		if storedHash != "" {
			slog.Warn("questions file changed since last import, skipping to avoid duplicate ids",
				"path", path)
			continue
		}

		var questions []model.Question
		if err := json.Unmarshal(data, &questions); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}

		for _, q := range questions {
			if err := q.Validate(); err != nil {
				return fmt.Errorf("validate question from %s: %w", path, err)
			}
			if err := db.InsertQuestion(q); err != nil {
				return fmt.Errorf("insert question %q from %s: %w", q.ID, path, err)
			}
		}

		if err := db.SetImportedFileHash(path, hash); err != nil {
			return fmt.Errorf("record import for %s: %w", path, err)
		}
		slog.Info("imported questions", "path", path, "count", len(questions))
	}

	return nil
}

func sha256sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}
