package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"concierge/internal/categories"
	"concierge/internal/classify"
	"concierge/internal/llm"
)

var classifyCmd = &cobra.Command{
	Use:   "classify <text>",
	Short: "Classify a message from the command line",
	Long:  `Runs the intent classifier over the given text and prints the result as JSON. Useful for prompt debugging.`,
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		text := strings.Join(args, " ")

		cats, err := categories.Load()
		if err != nil {
			return fmt.Errorf("load categories: %w", err)
		}
		model, err := llm.NewModel(ctx, cfg, cfg.LLMModel)
		if err != nil {
			return fmt.Errorf("init model: %w", err)
		}

		nyc, err := time.LoadLocation("America/New_York")
		if err != nil {
			return fmt.Errorf("load timezone: %w", err)
		}

		classifier := classify.New(model, cats, nil, cfg.ClassifyTimeout, logger,
			func() time.Time { return time.Now().In(nyc) })
		res, err := classifier.Classify(ctx, "cli", text)
		if err != nil {
			return fmt.Errorf("classify: %w", err)
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	},
}
