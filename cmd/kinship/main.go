package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/N3moAhead/kinship/internal/config"
	"github.com/N3moAhead/kinship/internal/db"
	"github.com/N3moAhead/kinship/internal/logging"
	"github.com/N3moAhead/kinship/internal/migration"
	"github.com/N3moAhead/kinship/internal/shell"
	"github.com/N3moAhead/kinship/internal/stats"
	"github.com/N3moAhead/kinship/internal/tui"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Global flags
	configPath string
	verbose    bool
	noWatch    bool

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "kinship",
	Short: "Keep track of a family tree",
	Long: `kinship records people and how they are related: parents, children,
spouses and siblings. Grandparents and cousins are derived from those.

Run without arguments to start the interactive shell.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		logger, err = logging.New(cfg.Logging, verbose)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	Args: cobra.MaximumNArgs(1),
	RunE: runShell,
}

var shellCmd = &cobra.Command{
	Use:   "shell [file]",
	Short: "Edit a family file interactively",
	Long: `Starts the TREE> prompt. The file is loaded first if it exists;
otherwise the session starts with an empty graph that 'save' writes there.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runShell,
}

var viewCmd = &cobra.Command{
	Use:   "view [file]",
	Short: "Browse a family file in a terminal UI",
	Long: `Opens a browsable list of everyone in the file. Changes made in the
viewer are saved immediately, and changes saved by a running shell show up
live unless --no-watch is given.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return tui.Run(dataFile(args), !noWatch, logger)
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats [file]",
	Short: "Print aggregate statistics for a family file",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runStats,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate [file]",
	Short: "Rewrite a family file in the current layout",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := dataFile(args)
		changed, err := db.UpgradeFile(path, logger)
		if err != nil {
			return fmt.Errorf("migrating %s: %w", path, err)
		}
		if changed {
			fmt.Fprintf(cmd.OutOrStdout(), "%s upgraded to version %s.\n", path, migration.Current)
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "%s is already up to date.\n", path)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath, "Path to the configuration file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	viewCmd.Flags().BoolVar(&noWatch, "no-watch", false, "Do not reload when the file changes on disk")

	rootCmd.AddCommand(shellCmd, viewCmd, statsCmd, migrateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func dataFile(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return cfg.DataFile
}

func runShell(cmd *cobra.Command, args []string) error {
	s := shell.New(cfg, cmd.OutOrStdout(), logger)
	if err := s.Open(dataFile(args)); err != nil {
		return err
	}
	return s.Run(cmd.Context(), cmd.InOrStdin())
}

func runStats(cmd *cobra.Command, args []string) error {
	path := dataFile(args)
	g, err := db.Load(path, logger)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("no family file at %s", path)
	}
	if err != nil {
		return err
	}

	ref, err := cfg.Today()
	if err != nil {
		return err
	}
	report, err := stats.Collect(cmd.Context(), g, ref)
	if err != nil {
		return err
	}
	printReport(cmd.OutOrStdout(), path, report)
	return nil
}

func printReport(w io.Writer, path string, r *stats.Report) {
	renderer := lipgloss.NewRenderer(w)
	title := renderer.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	label := renderer.NewStyle().Foreground(lipgloss.Color("240")).Width(22)

	average := func(v *float64) string {
		if v == nil {
			return "n/a"
		}
		return fmt.Sprintf("%.2f", *v)
	}

	var b strings.Builder
	b.WriteString(title.Render(path) + "\n")
	fmt.Fprintf(&b, "%s%d\n", label.Render("People"), r.People)
	fmt.Fprintf(&b, "%s%s\n", label.Render("Children per person"), average(r.AverageChildren))
	fmt.Fprintf(&b, "%s%s\n", label.Render("Average age"), average(r.AverageAge))
	if len(r.Birthdays) > 0 {
		b.WriteString("\n" + title.Render("Birthdays") + "\n")
		for _, group := range r.Birthdays {
			b.WriteString(group.String() + "\n")
		}
	}
	fmt.Fprint(w, b.String())
}
