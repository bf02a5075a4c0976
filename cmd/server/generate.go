package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ashureev/c2h-ai/internal/catalog"
	"github.com/ashureev/c2h-ai/internal/completion"
	"github.com/ashureev/c2h-ai/internal/domain"
	"github.com/ashureev/c2h-ai/internal/markdown"
	"github.com/ashureev/c2h-ai/internal/prompt"
)

func generateCmd() *cobra.Command {
	var (
		toolID     string
		approachID string
		details    domain.PromptDetails
		asHTML     bool
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate teaching material and print it",
		Example: `  c2h-ai generate --tool lesson_plan --topic Photosynthesis --grade "Grade 5" --subject Science
  c2h-ai generate --tool worksheet --approach montessori --topic Fractions --grade "Grade 3" --subject Maths --html`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}

			cat, err := catalog.Load(cfg.CatalogPath)
			if err != nil {
				return fmt.Errorf("load catalog: %w", err)
			}

			tool, ok := cat.Tool(toolID)
			if !ok || tool.IsChat() {
				return fmt.Errorf("unknown tool %q", toolID)
			}
			approach := cat.DefaultApproach()
			if approachID != "" {
				if approach, ok = cat.Approach(approachID); !ok {
					return fmt.Errorf("unknown approach %q", approachID)
				}
			}
			if !details.Validate() {
				return errors.New(domain.ErrMissingDetails)
			}

			ai := completion.New(completion.Config{
				Provider: cfg.LLM.Provider,
				APIKey:   cfg.LLM.APIKey,
				Model:    cfg.LLM.Model,
				BaseURL:  cfg.LLM.BaseURL,
			}, completion.WithLogger(logger), completion.WithTimeout(cfg.LLM.Timeout))

			content, err := ai.Generate(context.Background(), prompt.Compose(details, tool, approach), prompt.SystemInstruction)
			if err != nil {
				return err
			}

			if asHTML {
				content = markdown.ToHTML(content)
			}
			_, err = fmt.Fprintln(os.Stdout, content)
			return err
		},
	}

	cmd.Flags().StringVar(&toolID, "tool", "lesson_plan", "Tool id")
	cmd.Flags().StringVar(&approachID, "approach", "", "Teaching approach id (default: catalog default)")
	cmd.Flags().StringVar(&details.Topic, "topic", "", "Topic")
	cmd.Flags().StringVar(&details.GradeLevel, "grade", "", "Grade level")
	cmd.Flags().StringVar(&details.Subject, "subject", "", "Subject")
	cmd.Flags().StringVar(&details.SpecificInstructions, "notes", "", "Specific instructions")
	cmd.Flags().BoolVar(&asHTML, "html", false, "Print rendered HTML instead of Markdown")

	return cmd
}
