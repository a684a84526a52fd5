package main

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/Veraticus/finlens/internal/cli"
	"github.com/Veraticus/finlens/internal/llm"
	"github.com/Veraticus/finlens/internal/model"
	"github.com/spf13/cobra"
)

func defineCmd() *cobra.Command {
	var (
		useLLM    bool
		imagePath string
	)

	cmd := &cobra.Command{
		Use:   "define [term]",
		Short: "Explain a financial term",
		Long: `Explain a financial term.

By default the term is looked up in the financial dictionary and the best
fuzzy matches are shown. With --llm the LLM writes a plain-language
definition instead. With --image the LLM reads the term from a screenshot.`,
		Example: `  finlens define 예금자 보호
  finlens define --llm 중도상환수수료
  finlens define --image screenshot.png`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			term := strings.TrimSpace(strings.Join(args, " "))

			switch {
			case imagePath != "" && term != "":
				return errors.New("pass either a term or --image, not both")
			case imagePath == "" && term == "":
				return errors.New("a term is required")
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			if imagePath == "" && !useLLM {
				dict, loadErr := loadDictionary(ctx, cfg)
				if loadErr != nil {
					return fmt.Errorf("failed to load dictionary: %w", loadErr)
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), cli.RenderMatches(term, dict.Lookup(term)))
				return err
			}

			svc, err := newLLMService(ctx, cfg)
			if err != nil {
				return err
			}
			defer closeLLM(svc)
			definer := llm.NewDefiner(svc)

			var def model.Definition
			if imagePath != "" {
				encoded, readErr := encodeImageFile(imagePath)
				if readErr != nil {
					return readErr
				}
				def, err = definer.DefineImage(ctx, encoded)
			} else {
				def, err = definer.DefineText(ctx, term)
			}
			if err != nil {
				return fmt.Errorf("failed to define term: %w", err)
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), cli.RenderDefinition(def))
			return err
		},
	}

	cmd.Flags().BoolVar(&useLLM, "llm", false, "generate a definition with the LLM")
	cmd.Flags().StringVar(&imagePath, "image", "", "screenshot to read the term from")

	return cmd
}

// encodeImageFile reads an image file as base64.
func encodeImageFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read image: %w", err)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("image %s is empty", path)
	}
	return base64.StdEncoding.EncodeToString(data), nil
}
