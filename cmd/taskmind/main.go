package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"taskmind/internal/chat"
	"taskmind/internal/config"
	"taskmind/internal/llm"
	"taskmind/internal/server"
	"taskmind/internal/store"
)

var (
	// Global flags
	verbose    bool
	configPath string
	userID     int64

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "taskmind",
	Short: "taskmind - conversational task manager",
	Long: `taskmind manages a task list through natural language.

Messages are interpreted by an inference service into create, edit or delete
intents; matched tasks are mutated in SQLite and every turn is answered with a
deterministic confirmation block plus a generated reply.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := zap.NewProductionConfig()
		if verbose {
			cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = cfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// serveCmd runs the HTTP server
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	Long: `Starts the HTTP API:

  GET    /health
  GET    /tasks            POST /tasks
  PUT    /tasks/:id        DELETE /tasks/:id
  POST   /chat
  POST   /users/register   POST /users/login`,
	RunE: runServe,
}

// chatCmd processes a single message from the command line
var chatCmd = &cobra.Command{
	Use:   "chat [message]",
	Short: "Process one chat message and print the reply",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runChat,
}

// initCmd writes a default config file
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default configuration file",
	RunE:  runInit,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "taskmind.yaml", "path to the config file")
	chatCmd.Flags().Int64Var(&userID, "user", 0, "owner id to scope the conversation to")

	rootCmd.AddCommand(serveCmd, chatCmd, initCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	st, err := store.Open(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer st.Close()

	client, err := llm.NewClient(cfg.LLM)
	if err != nil {
		return fmt.Errorf("failed to create inference client: %w", err)
	}

	composer := chat.New(st, client, cfg.Chat, logger)
	srv := server.New(cfg.Server.Addr, server.NewHandlers(st, composer, logger), logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return srv.Run(ctx)
}

func runChat(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	st, err := store.Open(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer st.Close()

	client, err := llm.NewClient(cfg.LLM)
	if err != nil {
		return fmt.Errorf("failed to create inference client: %w", err)
	}

	var ownerID *int64
	if userID != 0 {
		ownerID = &userID
	}

	composer := chat.New(st, client, cfg.Chat, logger)
	reply, err := composer.Chat(cmd.Context(), strings.Join(args, " "), ownerID)
	if err != nil {
		return err
	}

	fmt.Println(reply)
	return nil
}

func runInit(cmd *cobra.Command, args []string) error {
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("%s already exists", configPath)
	}

	cfg := config.DefaultConfig()
	if err := cfg.Save(configPath); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	fmt.Printf("Wrote default configuration to %s\n", configPath)
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
