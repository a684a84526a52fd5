package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/Veraticus/finlens/internal/cli"
	"github.com/Veraticus/finlens/internal/finbert"
	"github.com/Veraticus/finlens/internal/llm"
	"github.com/Veraticus/finlens/internal/model"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const defaultChunkSize = 32

// batchClassifier classifies a list of terms in one call.
type batchClassifier interface {
	ClassifyBatch(ctx context.Context, terms []string) ([]model.Classification, error)
}

// thresholdClassifier applies a per-run threshold to the local classifier.
type thresholdClassifier struct {
	classifier *finbert.Classifier
	threshold  float64
}

func (t thresholdClassifier) ClassifyBatch(ctx context.Context, terms []string) ([]model.Classification, error) {
	return t.classifier.ClassifyBatchWithThreshold(ctx, terms, t.threshold)
}

func classifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "classify [terms...]",
		Short: "Decide whether terms are financial",
		Long: `Classify terms as financial or not.

Terms come from the arguments or, with --file, one per line from a file
("-" reads stdin). Files are classified in chunks with a progress bar.
The local classifier is used unless --llm is given.`,
		Example: `  finlens classify 금리 로그인
  finlens classify --file terms.txt --chunk 64
  finlens classify --llm 중도상환수수료`,
		RunE: runClassify,
	}

	cmd.Flags().StringP("file", "f", "", "read terms from a file, one per line")
	cmd.Flags().Bool("llm", false, "classify with the LLM instead of the local model")
	cmd.Flags().Float64("threshold", -1, "financial probability threshold (default from config)")
	cmd.Flags().Int("chunk", defaultChunkSize, "terms per request when reading a file")

	_ = viper.BindPFlag("classify.file", cmd.Flags().Lookup("file"))
	_ = viper.BindPFlag("classify.llm", cmd.Flags().Lookup("llm"))
	_ = viper.BindPFlag("classify.threshold", cmd.Flags().Lookup("threshold"))
	_ = viper.BindPFlag("classify.chunk", cmd.Flags().Lookup("chunk"))

	return cmd
}

func runClassify(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	file := viper.GetString("classify.file")
	useLLM := viper.GetBool("classify.llm")
	threshold := viper.GetFloat64("classify.threshold")
	chunkSize := viper.GetInt("classify.chunk")

	terms, err := collectTerms(args, file, cmd.InOrStdin())
	if err != nil {
		return err
	}
	if len(terms) == 0 {
		return errors.New("no terms to classify: pass terms as arguments or use --file")
	}
	if useLLM && threshold >= 0 {
		return errors.New("--threshold only applies to the local classifier")
	}
	if threshold > 1 {
		return fmt.Errorf("threshold must be within [0, 1], got %v", threshold)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	var classifier batchClassifier
	if useLLM {
		svc, svcErr := newLLMService(ctx, cfg)
		if svcErr != nil {
			return svcErr
		}
		defer closeLLM(svc)
		classifier = llm.NewClassifier(svc)
	} else {
		local, loadErr := loadClassifier(ctx, cfg)
		if loadErr != nil {
			return fmt.Errorf("failed to load classifier: %w", loadErr)
		}
		if threshold < 0 {
			threshold = local.Threshold()
		}
		classifier = thresholdClassifier{classifier: local, threshold: threshold}
	}

	out := cmd.OutOrStdout()
	if file == "" {
		results, classifyErr := classifier.ClassifyBatch(ctx, terms)
		if classifyErr != nil {
			return fmt.Errorf("classification failed: %w", classifyErr)
		}
		return printClassifications(out, results)
	}

	progress := cli.NewProgress(cmd.ErrOrStderr(), len(terms), cli.LensIcon+" Classifying")
	interrupts := cli.NewInterruptHandler(cmd.ErrOrStderr())
	interrupts.Track(progress)
	runCtx := interrupts.HandleInterrupts(ctx)

	results, err := classifyInChunks(runCtx, classifier, terms, chunkSize, progress)
	if printErr := printClassifications(out, results); printErr != nil {
		return printErr
	}
	if err != nil {
		if interrupts.WasInterrupted() && errors.Is(err, context.Canceled) {
			return nil
		}
		return fmt.Errorf("classification failed: %w", err)
	}
	progress.Finish()
	return nil
}

// collectTerms returns the argument terms followed by the terms read from file.
func collectTerms(args []string, file string, stdin io.Reader) ([]string, error) {
	terms := slices.Clone(args)
	if file == "" {
		return terms, nil
	}

	r := stdin
	if file != "-" {
		f, err := os.Open(file)
		if err != nil {
			return nil, fmt.Errorf("failed to open terms file: %w", err)
		}
		defer func() { _ = f.Close() }()
		r = f
	}

	fromFile, err := cli.ReadTerms(r)
	if err != nil {
		return nil, err
	}
	return append(terms, fromFile...), nil
}

// classifyInChunks classifies terms chunk by chunk, advancing progress after
// each one. On failure it returns the results gathered so far.
func classifyInChunks(ctx context.Context, c batchClassifier, terms []string, size int, progress *cli.Progress) ([]model.Classification, error) {
	results := make([]model.Classification, 0, len(terms))
	for _, chunk := range cli.Chunk(terms, size) {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		batch, err := c.ClassifyBatch(ctx, chunk)
		if err != nil {
			return results, err
		}
		results = append(results, batch...)
		if progress != nil {
			progress.Add(len(chunk))
		}
	}
	return results, nil
}

func printClassifications(w io.Writer, results []model.Classification) error {
	for _, r := range results {
		if _, err := fmt.Fprintln(w, cli.FormatClassification(r)); err != nil {
			return err
		}
	}
	return nil
}
