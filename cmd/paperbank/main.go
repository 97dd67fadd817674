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
	"golang.org/x/crypto/bcrypt"

	"github.com/arjunrs/paperbank/internal/export"
	"github.com/arjunrs/paperbank/internal/extract"
	"github.com/arjunrs/paperbank/internal/handler"
	"github.com/arjunrs/paperbank/internal/model"
	"github.com/arjunrs/paperbank/internal/pdf"
	"github.com/arjunrs/paperbank/internal/pipeline"
	"github.com/arjunrs/paperbank/internal/store"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "paperbank",
		Short: "Exam-paper question extraction powered by multimodal LLMs",
	}

	serve := serveCmd()
	root.AddCommand(serve, extractCmd(), exportCmd())

	// Make "serve" the default when no subcommand is given.
	root.RunE = serve.RunE

	// Register serve flags on root so bare `paperbank --addr ...` still works.
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

func llmFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("llm-url", "https://api.openai.com/v1", "OpenAI-compatible API base URL")
	f.StringSliceP("llm-keys", "k", nil, "API keys for the extraction model (repeatable; rotated on retry)")
	f.String("llm-model", "gpt-4o", "Multimodal model name")
	f.Int("max-tokens", 4096, "Completion length cap per page")
	f.Duration("backoff", 2*time.Second, "Linear backoff unit between retries")
	f.StringSliceP("types", "t", []string{"MCQ", "MSQ", "NAT", "Subjective"}, "Enabled question types")
	f.Int("dpi", 200, "Page render resolution")
	f.Int("max-pages", 0, "Page limit per paper (0 = unlimited)")
	f.String("pdftoppm", "pdftoppm", "Path to the pdftoppm binary")
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP upload/review server",
		RunE:  runServe,
	}
	f := cmd.Flags()
	f.StringP("addr", "a", ":8080", "HTTP listen address")
	f.String("db", "paperbank.db", "SQLite database path")
	f.String("upload-dir", "uploads", "Directory for uploaded PDFs")
	f.Int64("max-upload-mb", 50, "Maximum upload size in megabytes")
	f.Bool("secure-cookies", true, "Set Secure flag on session cookies")
	f.String("admin-password", "", "Initial admin password (or set PAPERBANK_ADMIN_PASSWORD)")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
	llmFlags(cmd)
	return cmd
}

func extractCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract <paper.pdf>",
		Short: "Extract questions from one PDF and print them as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  runExtract,
	}
	f := cmd.Flags()
	f.StringP("output", "o", "-", "Output file path (- for stdout)")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
	llmFlags(cmd)
	return cmd
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export accepted questions with marking schemes",
		RunE:  runExport,
	}
	f := cmd.Flags()
	f.String("db", "paperbank.db", "SQLite database path")
	f.String("format", "json", "Output format (json, xlsx)")
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

	v.SetEnvPrefix("PAPERBANK")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("paperbank")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/paperbank")
	v.AddConfigPath("/etc/paperbank")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Info("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

func invokerFromConfig(v *viper.Viper) (*extract.Invoker, error) {
	keys := v.GetStringSlice("llm-keys")
	if len(keys) == 0 {
		return nil, fmt.Errorf("at least one API key is required: set --llm-keys or PAPERBANK_LLM_KEYS")
	}
	return extract.NewInvoker(extract.InvokerConfig{
		Keys:        keys,
		BaseURL:     v.GetString("llm-url"),
		Model:       v.GetString("llm-model"),
		MaxTokens:   v.GetInt("max-tokens"),
		BackoffUnit: v.GetDuration("backoff"),
	}), nil
}

func enabledTypes(v *viper.Viper) (model.TypeSet, error) {
	types, err := model.ParseTypeSet(v.GetStringSlice("types"))
	if err != nil {
		return nil, err
	}
	if len(types) == 0 {
		return nil, fmt.Errorf("at least one question type must be enabled")
	}
	return types, nil
}

func rasterizerFromConfig(v *viper.Viper) *pdf.Rasterizer {
	return pdf.NewRasterizer(pdf.Config{
		Pdftoppm: v.GetString("pdftoppm"),
		DPI:      v.GetInt("dpi"),
		MaxPages: v.GetInt("max-pages"),
	})
}

func runServe(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if err := seedAdmin(db, v.GetString("admin-password")); err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	if err := db.SeedDefaultSchemes(); err != nil {
		return fmt.Errorf("seed marking schemes: %w", err)
	}

	types, err := enabledTypes(v)
	if err != nil {
		return err
	}
	invoker, err := invokerFromConfig(v)
	if err != nil {
		return err
	}
	raster := rasterizerFromConfig(v)
	processor := pipeline.New(raster, invoker, db, slog.Default())

	cfg := model.ServiceConfig{
		EnabledTypes:   types,
		MaxUploadBytes: v.GetInt64("max-upload-mb") << 20,
		SecureCookies:  v.GetBool("secure-cookies"),
	}
	h := handler.New(db, processor, raster, cfg, v.GetString("upload-dir"))

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	h.Routes(r)

	addr := v.GetString("addr")
	slog.Info("starting server",
		"addr", addr,
		"model", v.GetString("llm-model"),
		"llm_url", v.GetString("llm-url"),
		"key_pool", len(v.GetStringSlice("llm-keys")),
		"types", types.Strings(),
		"dpi", v.GetInt("dpi"),
	)
	return http.ListenAndServe(addr, r)
}

func runExtract(cmd *cobra.Command, args []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	types, err := enabledTypes(v)
	if err != nil {
		return err
	}
	invoker, err := invokerFromConfig(v)
	if err != nil {
		return err
	}
	raster := rasterizerFromConfig(v)

	ctx := context.Background()
	pages, err := raster.RenderPages(ctx, args[0])
	if err != nil {
		return fmt.Errorf("rasterize %s: %w", args[0], err)
	}

	memory := extract.NewPageMemory()
	type pageOut struct {
		Page      int                       `json:"page"`
		Questions []model.ExtractedQuestion `json:"questions"`
	}
	var out []pageOut
	for idx, img := range pages {
		pageNum := idx + 1
		qs, err := invoker.Extract(ctx, extract.PageRequest{
			ImageJPEG:    img,
			PageNumber:   pageNum,
			Memory:       memory,
			EnabledTypes: types,
		})
		if err != nil {
			return fmt.Errorf("extract page %d: %w", pageNum, err)
		}
		out = append(out, pageOut{Page: pageNum, Questions: qs})
	}

	return writeOutput(v.GetString("output"), out)
}

func runExport(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	bank, err := db.BuildExport()
	if err != nil {
		return fmt.Errorf("build export: %w", err)
	}

	switch strings.ToLower(v.GetString("format")) {
	case "json":
		return writeOutput(v.GetString("output"), bank)
	case "xlsx":
		data, err := export.QuestionsXLSX(bank)
		if err != nil {
			return fmt.Errorf("render xlsx: %w", err)
		}
		outPath := v.GetString("output")
		if outPath == "" || outPath == "-" {
			_, err = os.Stdout.Write(data)
			return err
		}
		return os.WriteFile(outPath, data, 0o644)
	default:
		return fmt.Errorf("unknown format %q (json, xlsx)", v.GetString("format"))
	}
}

func writeOutput(outPath string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}

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

func seedAdmin(db *store.Store, password string) error {
	count, err := db.UserCount()
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	if password == "" {
		return fmt.Errorf("admin password is required: set --admin-password flag or PAPERBANK_ADMIN_PASSWORD env var")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	_, err = db.CreateUser(model.User{
		Username:     "admin",
		DisplayName:  "Administrator",
		PasswordHash: string(hash),
		Role:         model.UserRoleAdmin,
		Active:       true,
	})
	if err != nil {
		return fmt.Errorf("create admin user: %w", err)
	}

	slog.Info("seeded default admin user", "username", "admin")
	return nil
}
