package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/recruitly/screener/internal/ai"
	"github.com/recruitly/screener/internal/attempt"
	"github.com/recruitly/screener/internal/handler"
	appI18n "github.com/recruitly/screener/internal/i18n"
	"github.com/recruitly/screener/internal/model"
	"github.com/recruitly/screener/internal/store"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "screener",
		Short: "AI-assisted recruitment assessment service",
	}

	serve := serveCmd()
	root.AddCommand(serve, exportCmd())

	// Make "serve" the default when no subcommand is given.
	root.RunE = serve.RunE

	// Register serve flags on root so bare `screener --addr ...` still works.
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the assessment HTTP server",
		RunE:  runServe,
	}
	f := cmd.Flags()
	f.StringP("addr", "a", ":8080", "HTTP listen address")
	f.String("db", "screener.db", "SQLite database path")
	f.String("ai-url", "http://localhost:11434/v1", "OpenAI-compatible API base URL")
	f.String("ai-key", "ollama", "API key for the AI provider")
	f.String("ai-model", "llama3.2", "Model name")
	f.Duration("ai-timeout", 60*time.Second, "Overall deadline per AI call")
	f.StringP("lang", "l", "es", "Default response language (en, es)")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
	return cmd
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export attempt results as JSON",
		RunE:  runExport,
	}
	f := cmd.Flags()
	f.String("db", "screener.db", "SQLite database path")
	f.StringP("output", "o", "-", "Output file path (- for stdout)")
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

	v.SetEnvPrefix("SCREENER")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("screener")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/screener")
	v.AddConfigPath("/etc/screener")
	v.AddConfigPath("/data")
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

	if err := db.SetMetadata("ai_model", v.GetString("ai-model")); err != nil {
		return fmt.Errorf("record model metadata: %w", err)
	}

	lang := v.GetString("lang")
	if err := appI18n.Init(lang); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}

	client := ai.NewClient(
		v.GetString("ai-url"),
		v.GetString("ai-key"),
		v.GetString("ai-model"),
	)
	if err := client.Ping(context.Background()); err != nil {
		return fmt.Errorf("AI provider health check: %w", err)
	}
	slog.Info("AI endpoint OK", "url", v.GetString("ai-url"), "model", v.GetString("ai-model"))

	aiSvc := ai.NewService(client, ai.NewCache(), v.GetDuration("ai-timeout"))
	attemptSvc := attempt.NewService(db, aiSvc)

	h := handler.New(db, aiSvc, attemptSvc)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(appI18n.Middleware(lang))
	h.Routes(r)

	addr := v.GetString("addr")
	slog.Info("starting server",
		"addr", addr,
		"model", v.GetString("ai-model"),
		"ai_url", v.GetString("ai-url"),
		"lang", lang,
	)
	return http.ListenAndServe(addr, r)
}

func runExport(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	results, err := db.ExportAllAttempts()
	if err != nil {
		return fmt.Errorf("export attempts: %w", err)
	}

	modelName, err := db.GetMetadata("ai_model")
	if err != nil {
		return fmt.Errorf("read model metadata: %w", err)
	}

	export := struct {
		AIModel    string                `json:"ai_model,omitempty"`
		ExportedAt time.Time             `json:"exported_at"`
		Results    []model.AttemptResult `json:"results"`
	}{
		AIModel:    modelName,
		ExportedAt: time.Now().UTC(),
		Results:    results,
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}

	outPath := v.GetString("output")
	var w io.Writer
	if outPath == "" || outPath == "-" {
		w = os.Stdout
	} else {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	_, err = w.Write(data)
	if err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	// Ensure trailing newline.
	_, _ = fmt.Fprintln(w)

	return nil
}
