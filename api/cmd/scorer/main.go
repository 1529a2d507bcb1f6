package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ielts-scorer/api/internal/config"
	"ielts-scorer/api/internal/handle"
	"ielts-scorer/api/internal/httpserver"
	"ielts-scorer/api/internal/llm"
	"ielts-scorer/api/internal/llm/gemini"
	"ielts-scorer/api/internal/llm/groq"
	"ielts-scorer/api/internal/logger"
	"ielts-scorer/api/internal/migrations"
	"ielts-scorer/api/internal/prompt"
	"ielts-scorer/api/internal/scoring"
	"ielts-scorer/api/internal/store"
)

var (
	configPath string

	cfg *config.Config
	zl  *zap.Logger
	log logger.Logger
)

var rootCmd = &cobra.Command{
	Use:           "scorer",
	Short:         "IELTS Writing essay scorer",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if configPath != "" {
			cfg, err = config.LoadFromFile(configPath)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		zl = logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
		log = logger.NewZapAdapter(zl)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if zl != nil {
			_ = zl.Sync()
		}
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

var migrateCmd = &cobra.Command{
	Use:       "migrate [up|down]",
	Short:     "Apply or roll back database migrations",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"up", "down"},
	RunE:      runMigrate,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a config file (yaml, json or toml)")
	rootCmd.AddCommand(serveCmd, migrateCmd, scoreCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	svc, closeEngine, err := buildService(ctx)
	if err != nil {
		return err
	}
	defer closeEngine()

	opts := handle.Options{
		APIToken:         cfg.Auth.APIToken,
		RequestTimeout:   cfg.LLM.RequestTimeout,
		APIKeyConfigured: strings.TrimSpace(cfg.APIKey()) != "",
		Engine:           svc.Engine().Name(),
		Model:            svc.Engine().Model(),
		PromptVersion:    prompt.Version,
	}

	var essays handle.EssayStore
	if cfg.Database.URL != "" {
		if err := migrations.Up(cfg.Database.URL); err != nil {
			return err
		}
		db, err := store.Open(ctx, cfg.Database)
		if err != nil {
			return err
		}
		defer db.Close()
		essays = store.NewEssayRepo(db)
		opts.Ping = db.PingContext
	} else {
		log.Warn("DATABASE_URL is not set; results will not be persisted", nil)
	}

	if cfg.Auth.APIToken == "" {
		log.Warn("API_TOKEN is not set; bearer authentication is disabled", nil)
	}

	h := handle.New(svc, essays, log, opts)
	return httpserver.Run(ctx, ":"+cfg.Port, h.Routes(), log)
}

func runMigrate(_ *cobra.Command, args []string) error {
	switch args[0] {
	case "up":
		if err := migrations.Up(cfg.Database.URL); err != nil {
			return err
		}
	case "down":
		if err := migrations.Down(cfg.Database.URL); err != nil {
			return err
		}
	}
	log.Info("migrations applied", map[string]interface{}{"direction": args[0]})
	return nil
}

// buildService wires the configured engine, the prompt set and the scoring pipeline.
// The returned func releases engine resources.
func buildService(ctx context.Context) (*scoring.Service, func(), error) {
	engines := &llm.Engines{}
	closeFn := func() {}

	switch strings.ToLower(cfg.LLM.Provider) {
	case "gemini":
		g, err := gemini.New(ctx, cfg.LLM.GeminiAPIKey, cfg.LLM.GeminiModel)
		if err != nil {
			return nil, nil, err
		}
		engines.Gemini = g
		closeFn = func() { _ = g.Close() }
	default:
		engines.Groq = groq.New(cfg.LLM.GroqAPIKey, cfg.LLM.GroqModel, cfg.LLM.GroqBaseURL)
	}

	engine, err := engines.GetEngine(cfg.LLM.Provider)
	if err != nil {
		closeFn()
		return nil, nil, err
	}

	prompts, err := prompt.Load(cfg.Prompt.Dir)
	if err != nil {
		closeFn()
		return nil, nil, err
	}

	svc, err := scoring.NewService(engine, prompts, log, scoring.Options{
		Temperature:      cfg.LLM.Temperature,
		RetryTemperature: cfg.LLM.RetryTemperature,
		MaxTokens:        cfg.LLM.MaxTokens,
		TopP:             cfg.LLM.TopP,
	})
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	log.Info("scoring engine ready", map[string]interface{}{
		"engine":         engine.Name(),
		"model":          engine.Model(),
		"prompt_version": prompts.Version,
	})
	return svc, closeFn, nil
}
