package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spacesedan/mindtrack/config"
	"github.com/spacesedan/mindtrack/internal/app"
	"github.com/spacesedan/mindtrack/internal/logging"
	"github.com/spacesedan/mindtrack/internal/models"
	"github.com/spacesedan/mindtrack/internal/retention"
	"github.com/spf13/cobra"
)

func main() {
	config.LoadEnv(config.AppEnv())
	cfg := config.Load()
	logging.InitLogger(cfg.LogLevel)

	if err := newRootCmd(cfg).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(cfg config.Config) *cobra.Command {
	root := &cobra.Command{
		Use:          "mindtrackctl",
		Short:        "mindtrackctl - analyze text and social media posts offline",
		SilenceUsage: true,
	}
	root.AddCommand(
		newAnalyzeCmd(cfg),
		newExtractCmd(cfg),
		newPlatformsCmd(cfg),
		newPruneCmd(cfg),
	)
	return root
}

func newAnalyzeCmd(cfg config.Config) *cobra.Command {
	var asJSON bool
	var file string

	cmd := &cobra.Command{
		Use:   "analyze [text]",
		Short: "Classify text and print coping suggestions",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readText(cmd.InOrStdin(), file, args)
			if err != nil {
				return err
			}

			lex, err := app.LoadLexicon(cfg)
			if err != nil {
				return err
			}
			setup := app.BuildClassifier(cfg.Classifier)
			if setup.Close != nil {
				defer setup.Close(context.Background())
			}

			result := app.NewAnalyzer(lex, setup, cfg).Analyze(cmd.Context(), text)
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), result)
			}
			printAnalysis(cmd.OutOrStdout(), result)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the full analysis as JSON")
	cmd.Flags().StringVarP(&file, "file", "f", "", "Read the text from a file, - for stdin")
	return cmd
}

func newExtractCmd(cfg config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "extract <url>",
		Short: "Fetch the text of a social media post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := app.BuildExtractors(cfg.Platforms).Extract(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), result)
		},
	}
}

func newPlatformsCmd(cfg config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "platforms",
		Short: "List supported platforms and their configuration status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "PLATFORM\tSTATUS\tMETHODS")
			for _, p := range app.BuildExtractors(cfg.Platforms).Platforms() {
				fmt.Fprintf(w, "%s\t%s\t%s\n", p.Name, p.Status, strings.Join(p.Methods, ", "))
			}
			return w.Flush()
		},
	}
}

func newPruneCmd(cfg config.Config) *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete timeline entries older than --days",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if days <= 0 {
				days = cfg.Retention.Days
			}
			repo, closeRepo, err := app.OpenRepository(cmd.Context(), cfg.Storage)
			if err != nil {
				return err
			}
			defer closeRepo(context.Background())

			pruner, err := retention.New(repo, days, cfg.Retention.Schedule)
			if err != nil {
				return err
			}
			deleted, err := pruner.RunOnce(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d entries older than %d days\n", deleted, days)
			return nil
		},
	}
	cmd.Flags().IntVar(&days, "days", 0, "Retention window in days (defaults to RETENTION_DAYS)")
	return cmd
}

func readText(stdin io.Reader, file string, args []string) (string, error) {
	switch {
	case file == "-":
		raw, err := io.ReadAll(stdin)
		return strings.TrimSpace(string(raw)), err
	case file != "":
		raw, err := os.ReadFile(file)
		return strings.TrimSpace(string(raw)), err
	case len(args) == 1 && strings.TrimSpace(args[0]) != "":
		return strings.TrimSpace(args[0]), nil
	}
	return "", fmt.Errorf("no text given: pass it as an argument or with --file")
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printAnalysis(w io.Writer, result models.AnalysisResult) {
	fmt.Fprintf(w, "Sentiment:       %s (%.0f%%, %s)\n", result.Sentiment, result.Confidence*100, result.PredictionSource)
	fmt.Fprintf(w, "Primary emotion: %s\n", result.Context.PrimaryEmotion)
	if len(result.Context.Concerns) > 0 {
		fmt.Fprintf(w, "Concerns:        %s\n", strings.Join(result.Context.Concerns, ", "))
	}
	if result.Context.Crisis {
		fmt.Fprintln(w, "Crisis indicators detected. Call or text 988 (US) for immediate support.")
	}
	for i, s := range result.Suggestions {
		fmt.Fprintf(w, "%d. [%s] %s: %s\n", i+1, s.Priority, s.Title, s.Description)
	}
	for _, r := range result.Resources {
		fmt.Fprintf(w, "- %s (%s)\n", r.Name, r.Contact)
	}
}
