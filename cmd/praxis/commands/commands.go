// Package commands implements the praxis CLI subcommands. Each command
// builds the application graph directly and talks to Ollama in-process; the
// HTTP server is only needed for the UI, not for the CLI.
package commands

import (
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/praxislearn/praxis/internal/app"
	"github.com/praxislearn/praxis/internal/config"
	"github.com/praxislearn/praxis/internal/llm/routing"
	"github.com/praxislearn/praxis/internal/logger"
)

func buildApp(cfgPath string) (*app.App, error) {
	_ = godotenv.Load()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}

	log, err := logger.Initialize(cfg.Logging)
	if err != nil {
		return nil, err
	}

	return app.New(cfg, log)
}

// NewServeCommand runs the HTTP server until interrupted.
func NewServeCommand(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the praxis HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(*cfgPath)
			if err != nil {
				return err
			}
			defer a.Logger.Sync()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a.Start(ctx)
			return a.Serve(ctx)
		},
	}
}

// NewAskCommand answers one free-form question and exits.
func NewAskCommand(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask the general model a one-shot question",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(*cfgPath)
			if err != nil {
				return err
			}
			defer a.Logger.Sync()

			text, err := a.Orchestrator.Text(cmd.Context(), routing.TaskGeneral, strings.Join(args, " "))
			if err != nil {
				return err
			}
			fmt.Println(text)
			return nil
		},
	}
}

// NewModelsCommand lists registered models and whether they are installed.
func NewModelsCommand(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List registered models and their availability",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(*cfgPath)
			if err != nil {
				return err
			}
			defer a.Logger.Sync()

			for _, name := range a.Registry.Available() {
				status := "missing"
				if a.Availability.Exists(cmd.Context(), name) {
					status = "installed"
				}
				fmt.Printf("%-30s %s\n", name, status)
			}
			return nil
		},
	}
}

// NewGenerateCommand generates a single practice problem.
func NewGenerateCommand(cfgPath *string) *cobra.Command {
	var skill string
	var difficulty float64

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate one practice problem",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(*cfgPath)
			if err != nil {
				return err
			}
			defer a.Logger.Sync()

			problem, err := a.Generator.Generate(cmd.Context(), skill, difficulty)
			if err != nil {
				return err
			}

			fmt.Printf("ID:         %s\n", problem.ID)
			fmt.Printf("Topic:      %s\n", problem.Topic)
			fmt.Printf("Difficulty: %.2f\n", problem.Difficulty)
			fmt.Printf("\n%s\n", problem.Statement)
			if problem.SolutionSketch != "" {
				fmt.Printf("\nSketch: %s\n", problem.SolutionSketch)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&skill, "skill", "algorithms", "skill domain to generate for")
	cmd.Flags().Float64Var(&difficulty, "difficulty", 0.5, "difficulty in [0,1]")
	return cmd
}
