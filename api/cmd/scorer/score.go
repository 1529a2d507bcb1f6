package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"ielts-scorer/api/internal/scoring"
)

var (
	scoreTask    string
	scoreModule  string
	scorePrompt  string
	scoreTimeout int
)

var scoreCmd = &cobra.Command{
	Use:   "score <essay-file>",
	Short: "Score one essay file and print the result as JSON",
	Long: `Runs the scoring pipeline once against the configured model and prints the outcome.
Nothing is written to the database.

Example:
  scorer score essay.txt --task task2 --module academic --prompt "Some people believe..."`,
	Args: cobra.ExactArgs(1),
	RunE: runScore,
}

func init() {
	scoreCmd.Flags().StringVar(&scoreTask, "task", scoring.TaskType2, "task1 or task2")
	scoreCmd.Flags().StringVar(&scoreModule, "module", scoring.ModuleAcademic, "academic or general")
	scoreCmd.Flags().StringVar(&scorePrompt, "prompt", "", "the task prompt the essay answers")
	scoreCmd.Flags().IntVar(&scoreTimeout, "timeout", 60, "overall deadline in seconds")
	_ = scoreCmd.MarkFlagRequired("prompt")
}

func runScore(cmd *cobra.Command, args []string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	body, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read essay: %w", err)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), secondsOr(scoreTimeout, 60))
	defer cancel()

	svc, closeEngine, err := buildService(ctx)
	if err != nil {
		return err
	}
	defer closeEngine()

	out := svc.ScoreEssay(ctx, scoring.ScoreRequest{
		TaskType:   scoreTask,
		Module:     scoreModule,
		PromptText: scorePrompt,
		EssayText:  string(body),
	})

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return err
	}
	if !out.Success {
		return fmt.Errorf("scoring failed (%s)", out.Label())
	}
	return nil
}

func secondsOr(v, def int) time.Duration {
	if v <= 0 {
		v = def
	}
	return time.Duration(v) * time.Second
}
