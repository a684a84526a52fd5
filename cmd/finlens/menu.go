package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/Veraticus/finlens/internal/cli"
	"github.com/Veraticus/finlens/internal/llm"
	"github.com/Veraticus/finlens/internal/menu"
	"github.com/spf13/cobra"
)

func menuCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "menu <request...>",
		Short: "Recommend a banking menu for a request",
		Long: `Recommend the banking menu that best serves a free-text request.

The LLM first picks a top-level category and then one of its menus.`,
		Example: `  finlens menu 다음 주 월요일에 월세 보내고 싶어요`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			request := strings.TrimSpace(strings.Join(args, " "))
			if request == "" {
				return fmt.Errorf("request must not be empty")
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			tree, err := menu.Load(cfg.Menu.Path, slog.Default())
			if err != nil {
				return fmt.Errorf("failed to load menu tree: %w", err)
			}

			svc, err := newLLMService(ctx, cfg)
			if err != nil {
				return err
			}
			defer closeLLM(svc)

			rec, err := llm.NewMenuFinder(svc, tree).Recommend(ctx, request)
			if err != nil {
				return fmt.Errorf("no suitable menu found: %w", err)
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), cli.RenderRecommendation(rec))
			return err
		},
	}
}
