package main

import (
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
	"github.com/go-chi/cors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"

	"github.com/piperalpha/training/internal/handler"
	appI18n "github.com/piperalpha/training/internal/i18n"
	"github.com/piperalpha/training/internal/model"
	"github.com/piperalpha/training/internal/session"
	"github.com/piperalpha/training/internal/store"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "training",
		Short: "Piper Alpha training progress tracking API",
	}

	serve := serveCmd()
	root.AddCommand(serve, exportCmd())

	// Make "serve" the default when no subcommand is given.
	root.RunE = serve.RunE

	// Register serve flags on root so bare `training --addr ...` still works.
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP training API server",
		RunE:  runServe,
	}
	f := cmd.Flags()
	f.StringP("addr", "a", ":8000", "HTTP listen address")
	f.String("db", "piper_alpha.db", "SQLite database path")
	f.String("jwt-secret", "", "HMAC secret for access tokens (or set TRAINING_JWT_SECRET)")
	f.Duration("token-ttl", 30*24*time.Hour, "Access token lifetime")
	f.StringP("lang", "l", "en", "API message language (en, ru)")
	f.StringSlice("cors-origins", []string{"*"}, "Allowed CORS origins (repeatable)")
	f.String("admin-email", "admin@piperalpha.local", "Initial admin email")
	f.String("admin-password", "", "Initial admin password (or set TRAINING_ADMIN_PASSWORD)")
	f.String("admin-name", "Administrator", "Initial admin display name")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
	return cmd
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export all training sessions as JSON",
		RunE:  runExport,
	}
	f := cmd.Flags()
	f.String("db", "piper_alpha.db", "SQLite database path")
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

	v.SetEnvPrefix("TRAINING")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("training")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/training")
	v.AddConfigPath("/etc/training")
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

	secret := v.GetString("jwt-secret")
	if secret == "" {
		return fmt.Errorf("a token secret is required: set --jwt-secret or TRAINING_JWT_SECRET")
	}

	// Open database.
	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	// Seed an admin account if no users exist.
	if err := seedAdmin(db, v.GetString("admin-email"), v.GetString("admin-password"), v.GetString("admin-name")); err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}

	// Initialize i18n.
	lang := v.GetString("lang")
	if err := appI18n.Init(lang); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}

	tokens := handler.NewTokenIssuer(secret, v.GetDuration("token-ttl"))
	norm := session.NewNormalizer(db)
	h := handler.New(db, norm, tokens)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   v.GetStringSlice("cors-origins"),
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
	}))
	r.Use(appI18n.Middleware(lang))
	h.Routes(r)

	addr := v.GetString("addr")
	slog.Info("starting server",
		"addr", addr,
		"db", v.GetString("db"),
		"lang", lang,
		"token_ttl", v.GetDuration("token-ttl"),
	)
	return http.ListenAndServe(addr, r)
}

// exportEntry is one session in the export dump: the record, its owner's
// display name, and the on-demand statistics.
type exportEntry struct {
	SessionID   int64                 `json:"session_id"`
	Email       string                `json:"email"`
	TraineeName string                `json:"trainee_name"`
	CreatedAt   time.Time             `json:"session_timestamp"`
	Chapters    []model.ChapterResult `json:"chapters"`
	Stats       session.Stats         `json:"stats"`
}

func runExport(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	records, err := db.ListAllRecords()
	if err != nil {
		return fmt.Errorf("list sessions: %w", err)
	}

	// Cache owner names; many sessions share one trainee.
	names := make(map[string]string)
	entries := make([]exportEntry, 0, len(records))
	for _, rec := range records {
		name, ok := names[rec.OwnerEmail]
		if !ok {
			user, err := db.GetUserByEmail(rec.OwnerEmail)
			if err != nil {
				return fmt.Errorf("get user %s: %w", rec.OwnerEmail, err)
			}
			if user != nil {
				name = user.TraineeName
			}
			names[rec.OwnerEmail] = name
		}
		entries = append(entries, exportEntry{
			SessionID:   rec.ID,
			Email:       rec.OwnerEmail,
			TraineeName: name,
			CreatedAt:   rec.CreatedAt,
			Chapters:    rec.Chapters,
			Stats:       session.Derive(rec),
		})
	}

	data, err := json.MarshalIndent(entries, "", "  ")
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

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	// Ensure trailing newline.
	_, _ = fmt.Fprintln(w)

	return nil
}

func seedAdmin(db *store.Store, email, password, name string) error {
	count, err := db.UserCount()
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	if password == "" {
		return fmt.Errorf("admin password is required: set --admin-password flag or TRAINING_ADMIN_PASSWORD env var")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	if err := db.CreateUser(model.User{
		Email:        email,
		PasswordHash: string(hash),
		Role:         model.RoleAdmin,
		TraineeName:  name,
		CreatedAt:    time.Now().UTC(),
	}); err != nil {
		return fmt.Errorf("create admin user: %w", err)
	}

	slog.Info("seeded admin user", "email", email)
	return nil
}
