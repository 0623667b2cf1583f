package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"datastory/domain/dataset"
	"datastory/domain/story"
	"datastory/internal/analysis"
	"datastory/internal/chart"
	"datastory/internal/config"
	"datastory/internal/container"
	cleaning "datastory/internal/dataset"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// cliApp carries the flags shared by every command and the wired container
type cliApp struct {
	sample   string
	jsonOut  bool
	cleaning cleaning.CleanOptions

	container *container.Container
}

func newRootCmd() *cobra.Command {
	app := &cliApp{}

	rootCmd := &cobra.Command{
		Use:           "datastory-cli",
		Short:         "Profile CSV files and turn them into data stories",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_ = godotenv.Load()
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			app.container, err = container.New(cmd.Context(), cfg)
			return err
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if app.container == nil {
				return nil
			}
			return app.container.Shutdown(cmd.Context())
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&app.sample, "sample", "", "Use a bundled sample dataset instead of a file")
	flags.BoolVar(&app.jsonOut, "json", false, "Print JSON instead of text")
	flags.BoolVar(&app.cleaning.HandleMissing, "handle-missing", false, "Fill missing values before analysis")
	flags.BoolVar(&app.cleaning.HandleOutliers, "handle-outliers", false, "Clip outliers before analysis")

	rootCmd.AddCommand(
		app.newSamplesCmd(),
		app.newProfileCmd(),
		app.newPromptCmd(),
		app.newStoryCmd(),
		app.newAskCmd(),
		app.newTrendCmd(),
		app.newAnomaliesCmd(),
		app.newCorrelationsCmd(),
		app.newChartCmd(),
		app.newUsageCmd(),
		app.newMigrateCmd(),
	)
	return rootCmd
}

// load reads the file argument, or the --sample dataset when no file is given
func (a *cliApp) load(args []string) (*dataset.Dataset, error) {
	var (
		ds  *dataset.Dataset
		err error
	)
	switch {
	case len(args) > 0:
		ds, err = a.container.Loader.LoadFile(args[0])
	case a.sample != "":
		ds, err = a.container.Samples.Load(a.sample)
	default:
		return nil, fmt.Errorf("pass a CSV/Excel file or --sample (one of %s)", strings.Join(a.sampleNames(), ", "))
	}
	if err != nil {
		return nil, err
	}
	if a.cleaning.HandleMissing || a.cleaning.HandleOutliers {
		ds = cleaning.Clean(ds, a.cleaning)
	}
	return ds, nil
}

func (a *cliApp) sampleNames() []string {
	var names []string
	for _, info := range a.container.Samples.Info() {
		names = append(names, info.Name)
	}
	return names
}

// emit prints v as indented JSON with --json, otherwise runs text
func (a *cliApp) emit(cmd *cobra.Command, v interface{}, text func(w io.Writer)) error {
	w := cmd.OutOrStdout()
	if a.jsonOut {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	text(w)
	return nil
}

func formatPtr(v *float64) string {
	if v == nil {
		return "N/A"
	}
	return chart.FormatNumber(*v, 2)
}

func storyConfigFlags(cmd *cobra.Command, cfg *story.Config) {
	cmd.Flags().StringVar((*string)(&cfg.Audience), "audience", "", "Audience: executive|marketing|technical|general")
	cmd.Flags().StringVar((*string)(&cfg.Focus), "focus", "", "Focus: trends|anomalies|correlations|holistic")
	cmd.Flags().StringVar((*string)(&cfg.Length), "length", "", "Length: brief|normal|detailed")
}

func (a *cliApp) newSamplesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "samples",
		Short: "List the bundled sample datasets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			infos := a.container.Samples.Info()
			return a.emit(cmd, infos, func(w io.Writer) {
				for _, info := range infos {
					fmt.Fprintf(w, "%-24s %s\n", info.Name, info.Description)
				}
			})
		},
	}
}

func (a *cliApp) newProfileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "profile [file]",
		Short: "Print the statistical profile of a dataset",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := a.load(args)
			if err != nil {
				return err
			}
			result, err := a.container.Stories.Analyze(ds)
			if err != nil {
				return err
			}
			return a.emit(cmd, result, func(w io.Writer) {
				fmt.Fprintf(w, "📊 %s: %d rows, %d columns\n\n", ds.Name, result.BasicInfo.Rows, result.BasicInfo.Columns)
				for _, name := range ds.ColumnNames() {
					fmt.Fprintf(w, "• %-28s %-12s missing %d  %s\n", name, result.BasicInfo.ColumnTypes[name],
						result.MissingValues[name], chart.ColumnDescription(name))
					if stats, ok := result.NumericStats[name]; ok {
						fmt.Fprintf(w, "    mean %s  median %s  min %s  max %s  std %s\n", formatPtr(stats.Mean),
							formatPtr(stats.Median), formatPtr(stats.Min), formatPtr(stats.Max), formatPtr(stats.Std))
					}
				}
			})
		},
	}
}

func (a *cliApp) newPromptCmd() *cobra.Command {
	var cfg story.Config
	cmd := &cobra.Command{
		Use:   "prompt [file]",
		Short: "Print the story prompt that would be sent to the narrative service",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := a.load(args)
			if err != nil {
				return err
			}
			prompt, err := a.container.Stories.CompilePrompt(ds, cfg)
			if err != nil {
				return err
			}
			return a.emit(cmd, map[string]string{"prompt": prompt}, func(w io.Writer) {
				fmt.Fprintln(w, prompt)
			})
		},
	}
	storyConfigFlags(cmd, &cfg)
	return cmd
}

func (a *cliApp) newStoryCmd() *cobra.Command {
	var cfg story.Config
	var outputFile string

	cmd := &cobra.Command{
		Use:   "story [file]",
		Short: "Generate a data story",
		Long: `Profile the dataset, request a story from the narrative service and bind
its chart recommendations. Without OPENAI_API_KEY a placeholder story is built
from the dataset itself.

Example: datastory-cli story --sample sales_data --audience executive --out story.json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := a.load(args)
			if err != nil {
				return err
			}
			result, err := a.container.Stories.GenerateStory(cmd.Context(), ds, cfg)
			if err != nil {
				return err
			}

			if outputFile != "" {
				raw, err := json.MarshalIndent(result, "", "  ")
				if err != nil {
					return err
				}
				if err := os.WriteFile(outputFile, raw, 0o644); err != nil {
					return fmt.Errorf("failed to write %s: %w", outputFile, err)
				}
			}

			return a.emit(cmd, result, func(w io.Writer) {
				fmt.Fprintf(w, "📖 %s (%s, %s, %s)\n", result.Dataset, result.Config.Audience, result.Config.Focus, result.Config.Length)
				if result.Warning != "" {
					fmt.Fprintf(w, "⚠️  %s\n", result.Warning)
				}
				fmt.Fprintf(w, "\n%s\n", result.Story.Narrative)
				if len(result.Insights) > 0 {
					fmt.Fprintf(w, "\n🔑 KEY INSIGHTS\n")
					for i, insight := range result.Insights {
						fmt.Fprintf(w, "%d. %s: %s\n", i+1, insight.Title, insight.Description)
						if insight.ChartError != "" {
							fmt.Fprintf(w, "   chart skipped: %s\n", insight.ChartError)
						}
					}
				}
				if len(result.Story.RecommendedActions) > 0 {
					fmt.Fprintf(w, "\n🎯 RECOMMENDED ACTIONS\n")
					for _, action := range result.Story.RecommendedActions {
						fmt.Fprintf(w, "• %s: %s\n", action.Title, action.Description)
					}
				}
				fmt.Fprintf(w, "\n%d charts, %d ms\n", len(result.Charts), result.RuntimeMs)
				if outputFile != "" {
					fmt.Fprintf(w, "💾 Saved to %s\n", outputFile)
				}
			})
		},
	}

	storyConfigFlags(cmd, &cfg)
	cmd.Flags().StringVar(&outputFile, "out", "", "Also write the story JSON to this file")
	return cmd
}

func (a *cliApp) newAskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask [file] question",
		Short: "Ask a question about a dataset",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			question := args[len(args)-1]
			ds, err := a.load(args[:len(args)-1])
			if err != nil {
				return err
			}
			result, err := a.container.Stories.AskQuestion(cmd.Context(), ds, question)
			if err != nil {
				return err
			}
			return a.emit(cmd, result, func(w io.Writer) {
				if result.Warning != "" {
					fmt.Fprintf(w, "⚠️  %s\n", result.Warning)
				}
				if result.Answer == nil {
					return
				}
				fmt.Fprintln(w, result.Answer.Answer)
				if result.Answer.Explanation != "" {
					fmt.Fprintf(w, "\n%s\n", result.Answer.Explanation)
				}
				for _, point := range result.Answer.DataPoints {
					fmt.Fprintf(w, "• %s\n", point)
				}
				if result.Answer.Limitations != "" {
					fmt.Fprintf(w, "\nLimitations: %s\n", result.Answer.Limitations)
				}
			})
		},
	}
	return cmd
}

func (a *cliApp) newTrendCmd() *cobra.Command {
	var dateColumn, valueColumn string

	cmd := &cobra.Command{
		Use:   "trend [file]",
		Short: "Detect the trend of a value column over a date column",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := a.load(args)
			if err != nil {
				return err
			}
			result, err := analysis.DetectTrend(ds, dateColumn, valueColumn)
			if err != nil {
				return err
			}
			return a.emit(cmd, result, func(w io.Writer) {
				fmt.Fprintf(w, "📈 %s over %s: %s", result.ValueColumn, result.DateColumn, result.Direction)
				if result.Strength != "" {
					fmt.Fprintf(w, " (%s)", result.Strength)
				}
				fmt.Fprintf(w, " via %s on %d points\n", result.Method, result.Points)
				if result.PValue != nil {
					fmt.Fprintf(w, "p-value %s, r² %s\n", chart.FormatNumber(*result.PValue, 4), formatPtr(result.RSquared))
				}
				if result.PercentChange != nil {
					fmt.Fprintf(w, "change %s%%\n", chart.FormatNumber(*result.PercentChange, 1))
				}
			})
		},
	}

	cmd.Flags().StringVar(&dateColumn, "date", "date", "Date column")
	cmd.Flags().StringVar(&valueColumn, "value", "", "Numeric value column")
	_ = cmd.MarkFlagRequired("value")
	return cmd
}

func (a *cliApp) newAnomaliesCmd() *cobra.Command {
	var column, method string
	var threshold float64

	cmd := &cobra.Command{
		Use:   "anomalies [file]",
		Short: "Flag outlying rows of a numeric column",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := a.load(args)
			if err != nil {
				return err
			}
			result, err := analysis.DetectAnomalies(ds, column, method, threshold)
			if err != nil {
				return err
			}
			return a.emit(cmd, result, func(w io.Writer) {
				fmt.Fprintf(w, "🔍 %s (%s, k=%s): %d anomalies (%s%%)\n", result.Column, result.Method,
					chart.FormatNumber(result.Threshold, 2), result.AnomalyCount, chart.FormatNumber(result.AnomalyPercent, 2))
				if result.Note != "" {
					fmt.Fprintln(w, result.Note)
				}
				for _, row := range result.Anomalies {
					fmt.Fprintf(w, "• %v\n", row[column])
				}
			})
		},
	}

	cmd.Flags().StringVar(&column, "column", "", "Numeric column to scan")
	cmd.Flags().StringVar(&method, "method", analysis.MethodIQR, "Method: iqr|zscore")
	cmd.Flags().Float64Var(&threshold, "threshold", 0, "Threshold k (0 uses the default)")
	_ = cmd.MarkFlagRequired("column")
	return cmd
}

func (a *cliApp) newCorrelationsCmd() *cobra.Command {
	var threshold float64

	cmd := &cobra.Command{
		Use:   "correlations [file]",
		Short: "List strongly correlated numeric column pairs",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := a.load(args)
			if err != nil {
				return err
			}
			pairs := analysis.RankCorrelations(ds, threshold)
			return a.emit(cmd, pairs, func(w io.Writer) {
				if len(pairs) == 0 {
					fmt.Fprintf(w, "No pairs with |r| >= %s\n", chart.FormatNumber(threshold, 2))
					return
				}
				for _, p := range pairs {
					fmt.Fprintf(w, "%-24s %-24s %s\n", p.Column1, p.Column2, chart.FormatNumber(p.Coefficient, 3))
				}
			})
		},
	}

	cmd.Flags().Float64Var(&threshold, "threshold", analysis.DefaultCorrelationThreshold, "Minimum |r|")
	return cmd
}

func (a *cliApp) newChartCmd() *cobra.Command {
	var spec chart.Spec

	cmd := &cobra.Command{
		Use:   "chart [file]",
		Short: "Bind a chart specification and print its JSON",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := a.load(args)
			if err != nil {
				return err
			}
			c, err := a.container.Binder.Bind(ds, spec)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(c)
		},
	}

	cmd.Flags().StringVar(&spec.Type, "type", chart.TypeBar, "Chart type: bar|line|scatter|pie|heatmap")
	cmd.Flags().StringVar(&spec.XColumn, "x", "", "X column")
	cmd.Flags().StringVar(&spec.YColumn, "y", "", "Y column")
	cmd.Flags().StringVar(&spec.Title, "title", "", "Chart title")
	return cmd
}

func (a *cliApp) newUsageCmd() *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "usage",
		Short: "Summarize recorded narrative token usage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.container.Usage == nil {
				return fmt.Errorf("no usage ledger configured (set DATABASE_URL)")
			}
			if days <= 0 {
				return fmt.Errorf("--days must be positive")
			}
			end := time.Now().UTC()
			summary, err := a.container.Usage.GetUsageSummary(cmd.Context(), end.AddDate(0, 0, -days), end)
			if err != nil {
				return err
			}
			return a.emit(cmd, summary, func(w io.Writer) {
				fmt.Fprintf(w, "Last %d days: %d requests, %d tokens (%d prompt, %d completion)\n", days,
					summary.RequestCount, summary.TotalTokens, summary.TotalPromptTokens, summary.TotalCompletionTokens)
				for model, m := range summary.ByModel {
					fmt.Fprintf(w, "• %s: %d requests, %d tokens\n", model, m.RequestCount, m.TotalTokens)
				}
			})
		},
	}

	cmd.Flags().IntVar(&days, "days", 30, "Number of days to summarize")
	return cmd
}

func (a *cliApp) newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the usage ledger schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.container.DB == nil {
				return fmt.Errorf("no database configured (set DATABASE_URL)")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✅ Usage ledger schema is up to date (%s)\n", a.container.DB.DriverName())
			return nil
		},
	}
}
