package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/Veraticus/finlens/internal/cli"
	"github.com/Veraticus/finlens/internal/common"
	"github.com/Veraticus/finlens/internal/dictionary"
	"github.com/Veraticus/finlens/internal/llm"
	"github.com/Veraticus/finlens/internal/model"
	"github.com/Veraticus/finlens/internal/storage"
	"github.com/Veraticus/finlens/internal/tui"
	"github.com/spf13/cobra"
)

func dictCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dict",
		Short: "Manage the financial dictionary",
		Long: `Import, inspect and browse the financial dictionary.

The service reads the dictionary from a CSV file by default. Set
dictionary.source to "sqlite" to serve the entries imported with
'finlens dict import' instead.`,
		Example: `  # Load a CSV into the database
  finlens dict import fin_terms.csv

  # Show what is stored
  finlens dict status

  # Search interactively
  finlens dict browse`,
	}

	cmd.AddCommand(dictImportCmd())
	cmd.AddCommand(dictStatusCmd())
	cmd.AddCommand(dictBrowseCmd())

	return cmd
}

func dictImportCmd() *cobra.Command {
	var backup bool

	cmd := &cobra.Command{
		Use:   "import <csv>",
		Short: "Replace the stored dictionary with a CSV file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			store, err := initStorage(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() {
				if closeErr := store.Close(); closeErr != nil {
					slog.Error("Failed to close database", "error", closeErr)
				}
			}()

			backupDir := ""
			if backup {
				backupDir = filepath.Join(filepath.Dir(cfg.Database.Path), "backups")
			}

			result, err := importDictionary(ctx, store, args[0], dictionaryColumns(cfg), backupDir)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if result.BackupPath != "" {
				fmt.Fprintln(out, cli.FormatInfo("Previous dictionary backed up to "+result.BackupPath))
			}
			if result.Skipped > 0 {
				fmt.Fprintln(out, cli.FormatWarning(fmt.Sprintf("Skipped %d entries without a definition", result.Skipped)))
			}
			fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Imported %d terms from %s", result.Imported, args[0])))
			return nil
		},
	}

	cmd.Flags().BoolVar(&backup, "backup", true, "back up the database before replacing a non-empty dictionary")

	return cmd
}

// importResult summarizes a dictionary import.
type importResult struct {
	BackupPath string
	Imported   int
	Skipped    int
}

// importDictionary parses path and replaces the stored dictionary with it.
// When backupDir is set and the store already holds entries, the database is
// backed up there first.
func importDictionary(ctx context.Context, store *storage.SQLiteStorage, path string, cols dictionary.Columns, backupDir string) (importResult, error) {
	var result importResult

	f, err := os.Open(path)
	if err != nil {
		return result, fmt.Errorf("failed to open dictionary: %w", err)
	}
	defer func() { _ = f.Close() }()

	parsed, err := dictionary.ParseCSV(f, cols)
	if err != nil {
		return result, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	entries := make([]model.DictionaryEntry, 0, len(parsed))
	for _, e := range dictionary.New(parsed).Entries() {
		if e.Definition == "" {
			result.Skipped++
			continue
		}
		entries = append(entries, e)
	}
	if len(entries) == 0 {
		return result, fmt.Errorf("%s holds no usable dictionary entries", path)
	}

	if backupDir != "" {
		existing, countErr := store.CountDictionaryEntries(ctx)
		if countErr != nil {
			return result, countErr
		}
		if existing > 0 {
			result.BackupPath, err = store.Backup(ctx, backupDir)
			if err != nil {
				return result, fmt.Errorf("failed to back up database: %w", err)
			}
		}
	}

	source, err := filepath.Abs(path)
	if err != nil {
		source = path
	}
	if err := store.ReplaceDictionary(ctx, source, entries); err != nil {
		return result, fmt.Errorf("failed to store dictionary: %w", err)
	}

	result.Imported = len(entries)
	slog.Info("Dictionary imported", "source", source, "entries", result.Imported, "skipped", result.Skipped)
	return result, nil
}

func dictStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the stored dictionary and its last import",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			store, err := initStorage(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() {
				if closeErr := store.Close(); closeErr != nil {
					slog.Error("Failed to close database", "error", closeErr)
				}
			}()

			status, err := dictionaryStatus(ctx, store)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), cli.RenderBox(cli.BookIcon+" Dictionary", status))
			return err
		},
	}
}

// dictionaryStatus describes the stored dictionary.
func dictionaryStatus(ctx context.Context, store *storage.SQLiteStorage) (string, error) {
	count, err := store.CountDictionaryEntries(ctx)
	if err != nil {
		return "", err
	}

	status := fmt.Sprintf("Database: %s\nTerms:    %d", store.Path(), count)

	last, err := store.LastImport(ctx)
	switch {
	case errors.Is(err, common.ErrNotFound):
		return status + "\nNo import recorded yet.", nil
	case err != nil:
		return "", err
	}
	return status + fmt.Sprintf("\nImported: %s from %s (%d terms)",
		last.ImportedAt.Local().Format(time.DateTime), last.Source, last.EntryCount), nil
}

func dictBrowseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Search the dictionary interactively",
		Long: `Open an interactive fuzzy search over the dictionary.

When an LLM API key is configured, enter asks the LLM to define the
selected term.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			dict, err := loadDictionary(ctx, cfg)
			if err != nil {
				return fmt.Errorf("failed to load dictionary: %w", err)
			}

			opts := []tui.Option{tui.WithDictionary(dict)}
			if cfg.RequireLLM() == nil {
				svc, svcErr := newLLMService(ctx, cfg)
				if svcErr != nil {
					return svcErr
				}
				defer closeLLM(svc)
				opts = append(opts, tui.WithDefiner(llm.NewDefiner(svc)))
			}

			return tui.Run(ctx, opts...)
		},
	}
}
