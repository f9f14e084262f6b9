package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/teeterhq/teeter/packages/core/config"
	"github.com/teeterhq/teeter/packages/core/discovery"
	"github.com/teeterhq/teeter/packages/core/harness"
	"github.com/teeterhq/teeter/packages/core/registry"
	"github.com/teeterhq/teeter/packages/core/runner"
	"github.com/teeterhq/teeter/packages/output"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run registered tests with category filtering",
	Long: `Run the registered test units, filtered by category and tags.

Examples:
  teeter run
  teeter run --category regression
  teeter run -c integration --exclude-slow
  teeter run --format minimal --exclude-ci
  teeter run --log-file results.json --log-verbosity 2
  teeter run --log-file --log-file-format txt --log-append
  teeter run --discover-only
  teeter run --watch -c development`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runCommand,
}

// WatchDebounceDelay is the debounce delay for file watch events
const WatchDebounceDelay = 300 * time.Millisecond

var (
	categoryFlag    string
	excludeSlowFlag bool
	excludeCIFlag   bool
	patternFlag     string
	pathFlag        string
	formatFlag      string
	verboseFlag     int // 0=off, 1=-v, 2=-vv
	quietFlag       bool
	noColorFlag     bool
	discoverFlag    bool
	categoriesFlag  bool
	watchFlag       bool
	configFlag      string

	logFileFlag      string
	logFormatFlag    string
	logVerbosityFlag int
	logAppendFlag    bool
	logOverwriteFlag bool
)

func init() {
	// Selection flags
	runCmd.Flags().StringVarP(&categoryFlag, "category", "c", getEnvString("TEETER_CATEGORY", ""), "Run only tests in this category: regression, integration, development (env: TEETER_CATEGORY)")
	runCmd.Flags().BoolVar(&excludeSlowFlag, "exclude-slow", getEnvBool("TEETER_EXCLUDE_SLOW", false), "Skip tests tagged slow (env: TEETER_EXCLUDE_SLOW)")
	runCmd.Flags().BoolVar(&excludeCIFlag, "exclude-ci", getEnvBool("TEETER_EXCLUDE_CI", false), "Skip tests tagged skip-ci (env: TEETER_EXCLUDE_CI)")
	runCmd.Flags().StringVar(&patternFlag, "pattern", getEnvString("TEETER_PATTERN", ""), "Source file name pattern for discovery (env: TEETER_PATTERN)")
	runCmd.Flags().StringVarP(&pathFlag, "path", "p", getEnvString("TEETER_PATH", ""), "Root directory to discover from; default: auto-detected repository root (env: TEETER_PATH)")
	runCmd.Flags().StringVar(&configFlag, "config", getEnvString("TEETER_CONFIG", ""), "Path to config file (env: TEETER_CONFIG)")

	// Console output flags
	runCmd.Flags().StringVarP(&formatFlag, "format", "f", getEnvString("TEETER_FORMAT", ""), "Console format: standard, verbose, json, minimal (env: TEETER_FORMAT)")
	runCmd.Flags().CountVarP(&verboseFlag, "verbose", "v", "Verbose output (-v, -vv for more detail)")
	runCmd.Flags().BoolVarP(&quietFlag, "quiet", "q", getEnvBool("TEETER_QUIET", false), "Suppress output for passing runs (env: TEETER_QUIET)")
	runCmd.Flags().BoolVar(&noColorFlag, "no-color", getEnvBool("TEETER_NO_COLOR", false), "Disable colored output (env: TEETER_NO_COLOR)")

	// Discovery-only surfaces
	runCmd.Flags().BoolVar(&discoverFlag, "discover-only", false, "List the discovered tests with their categories without running them")
	runCmd.Flags().BoolVar(&categoriesFlag, "list-categories", false, "Show per-category test counts without running")

	// Log file flags
	runCmd.Flags().StringVar(&logFileFlag, "log-file", getEnvString("TEETER_LOG_FILE", ""), "Write results to a file; without a value a timestamped name is chosen (env: TEETER_LOG_FILE)")
	runCmd.Flags().Lookup("log-file").NoOptDefVal = "auto"
	runCmd.Flags().StringVar(&logFormatFlag, "log-file-format", getEnvString("TEETER_LOG_FORMAT", ""), "Log file format: json, txt (env: TEETER_LOG_FORMAT)")
	runCmd.Flags().IntVar(&logVerbosityFlag, "log-verbosity", getEnvInt("TEETER_LOG_VERBOSITY", 0), "Log file detail level 1-3 (env: TEETER_LOG_VERBOSITY)")
	runCmd.Flags().BoolVar(&logAppendFlag, "log-append", false, "Append to the log file instead of overwriting")
	runCmd.Flags().BoolVar(&logOverwriteFlag, "log-overwrite", false, "Overwrite the log file (default)")

	runCmd.Flags().BoolVarP(&watchFlag, "watch", "w", false, "Watch the test tree for changes and re-run")
}

// Environment variable helpers
func getEnvString(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		return val == "true" || val == "1" || val == "yes"
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

// runSettings is the fully resolved run configuration: config file
// values overlaid with CLI flags.
type runSettings struct {
	category     registry.Category
	filter       discovery.Filter
	pattern      string
	root         string
	format       output.Format
	verbosity    int
	quiet        bool
	noColor      bool
	logPath      string
	logFormat    output.FileFormat
	logVerbosity int
	logAppend    bool
	command      string
}

func runCommand(cmd *cobra.Command, args []string) error {
	settings, err := resolveSettings(cmd)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "teeter: %v\n", err)
		os.Exit(ExitConfigError)
	}

	mapping, err := discover(settings)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "teeter: %v\n", err)
		os.Exit(ExitConfigError)
	}

	if categoriesFlag {
		printCategories(cmd, mapping)
		return nil
	}
	if discoverFlag {
		printDiscovered(cmd, mapping)
		return nil
	}

	code := executeRun(cmd, settings, mapping)

	if !watchFlag {
		os.Exit(code)
	}
	return watchLoop(cmd, settings)
}

// resolveSettings loads the config file and overlays the CLI flags.
// Invalid values are configuration faults: reported before anything
// runs.
func resolveSettings(cmd *cobra.Command) (*runSettings, error) {
	fileConfig, err := config.LoadConfig(configFlag)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	s := &runSettings{}

	categoryName := fileConfig.Category
	if categoryFlag != "" {
		categoryName = categoryFlag
	}
	s.category, err = registry.ParseCategory(categoryName)
	if err != nil {
		return nil, err
	}
	s.filter = discovery.Filter{
		Category:    s.category,
		ExcludeSlow: excludeSlowFlag || fileConfig.GetExcludeSlow(),
		ExcludeCI:   excludeCIFlag || fileConfig.GetExcludeCI(),
	}

	s.pattern = fileConfig.Pattern
	if patternFlag != "" {
		s.pattern = patternFlag
	}
	if s.pattern == "" {
		s.pattern = discovery.DefaultPattern
	}

	s.root = fileConfig.Path
	if pathFlag != "" {
		s.root = pathFlag
	}
	if s.root == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		if root, ok := discovery.DetectRoot(cwd); ok {
			s.root = root
		} else {
			s.root = cwd
		}
	}
	if info, err := os.Stat(s.root); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("test path %s is not a directory", s.root)
	}

	formatName := fileConfig.Format
	if formatFlag != "" {
		formatName = formatFlag
	}
	s.format, err = output.ParseFormat(formatName)
	if err != nil {
		return nil, err
	}

	s.verbosity = verboseFlag
	if verboseFlag == 0 && fileConfig.Verbosity > 1 {
		s.verbosity = fileConfig.Verbosity
	}
	s.quiet = quietFlag || fileConfig.GetQuiet()
	s.noColor = noColorFlag || fileConfig.GetNoColor()

	logFormatName := fileConfig.LogFormat
	if logFormatFlag != "" {
		logFormatName = logFormatFlag
	}
	s.logFormat, err = output.ParseFileFormat(logFormatName)
	if err != nil {
		return nil, err
	}

	s.logVerbosity = fileConfig.LogVerbosity
	if logVerbosityFlag > 0 {
		s.logVerbosity = logVerbosityFlag
	}
	if s.logVerbosity < 1 || s.logVerbosity > 3 {
		return nil, fmt.Errorf("log verbosity must be 1-3, got %d", s.logVerbosity)
	}

	if logAppendFlag && logOverwriteFlag {
		return nil, fmt.Errorf("--log-append and --log-overwrite are mutually exclusive")
	}
	s.logAppend = fileConfig.GetLogAppend()
	if logAppendFlag {
		s.logAppend = true
	}
	if logOverwriteFlag {
		s.logAppend = false
	}

	if logFileFlag != "" {
		s.logPath = logFileFlag
		if s.logPath == "auto" {
			s.logPath = autoLogName(fileConfig.LogDir, s.logFormat)
		}
	}

	s.command = reconstructCommand(s)
	return s, nil
}

// autoLogName picks a timestamped file name so repeated runs never
// clobber each other by accident.
func autoLogName(dir string, format output.FileFormat) string {
	ext := ".json"
	if format == output.FileFormatText {
		ext = ".txt"
	}
	name := "teeter_run_" + time.Now().Format("20060102_150405") + ext
	if dir == "" {
		return name
	}
	return filepath.Join(dir, name)
}

// reconstructCommand builds the normalized invocation recorded with
// the run, so a persisted result file can be replayed later.
func reconstructCommand(s *runSettings) string {
	parts := []string{"teeter", "run"}
	if s.category != "" {
		parts = append(parts, "--category", string(s.category))
	}
	if s.filter.ExcludeSlow {
		parts = append(parts, "--exclude-slow")
	}
	if s.filter.ExcludeCI {
		parts = append(parts, "--exclude-ci")
	}
	if s.pattern != discovery.DefaultPattern {
		parts = append(parts, "--pattern", s.pattern)
	}
	if s.format != output.FormatStandard {
		parts = append(parts, "--format", string(s.format))
	}
	if s.quiet {
		parts = append(parts, "--quiet")
	}
	if s.logPath != "" {
		parts = append(parts, "--log-file", s.logPath)
		parts = append(parts, "--log-file-format", string(s.logFormat))
		parts = append(parts, "--log-verbosity", strconv.Itoa(s.logVerbosity))
		if s.logAppend {
			parts = append(parts, "--log-append")
		}
	}
	return strings.Join(parts, " ")
}

func discover(s *runSettings) (*discovery.Mapping, error) {
	engine := discovery.New(harness.NewInProcess(registry.Default()), s.root, discovery.WithPattern(s.pattern))
	return engine.Discover()
}

// executeRun performs one full discovery-filtered run and returns the
// process exit code.
func executeRun(cmd *cobra.Command, s *runSettings, mapping *discovery.Mapping) int {
	units := mapping.Select(s.filter)

	console := output.NewConsole(
		output.WithWriter(cmd.OutOrStdout()),
		output.WithFormat(s.format),
		output.WithVerbosity(s.verbosity),
		output.WithQuiet(s.quiet),
		output.WithNoColor(s.noColor),
	)
	sinks := []output.Sink{console}

	if s.logPath != "" {
		fileSink, err := output.NewFileSink(s.logPath,
			output.FileWithFormat(s.logFormat),
			output.FileWithVerbosity(s.logVerbosity),
			output.FileWithAppend(s.logAppend),
		)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "teeter: %v\n", err)
			return ExitConfigError
		}
		sinks = append(sinks, fileSink)
	}

	hub := output.NewHub(sinks, output.WithWarnWriter(cmd.ErrOrStderr()))

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	r := runner.New(hub, runner.WithCommand(s.command))
	summary := r.Run(ctx, units)

	if err := hub.Close(); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", err)
	}
	return summary.ExitCode()
}

func printCategories(cmd *cobra.Command, mapping *discovery.Mapping) {
	counts := mapping.Counts()
	categories := make([]string, 0, len(counts))
	for c := range counts {
		categories = append(categories, string(c))
	}
	sort.Strings(categories)

	fmt.Fprintf(cmd.OutOrStdout(), "Categories (%d tests):\n", len(mapping.Units()))
	for _, c := range categories {
		fmt.Fprintf(cmd.OutOrStdout(), "  %-15s %d\n", c, counts[registry.Category(c)])
	}
}

func printDiscovered(cmd *cobra.Command, mapping *discovery.Mapping) {
	for _, u := range mapping.Units() {
		line := fmt.Sprintf("%s [%s]", u.ID(), mapping.CategoryOf(u))
		if tags := u.Meta.Tags(); tags != "" {
			line += " " + tags
		}
		if u.LoadErr != nil {
			line += fmt.Sprintf(" (load error: %v)", u.LoadErr)
		}
		fmt.Fprintln(cmd.OutOrStdout(), line)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "\n%d tests discovered\n", len(mapping.Units()))
}

// watchLoop re-discovers and re-runs the selection whenever a file in
// the test tree changes. Events are debounced so editor save bursts
// trigger one run.
func watchLoop(cmd *cobra.Command, s *runSettings) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	watched := make(map[string]bool)
	_ = filepath.Walk(s.root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() && !watched[path] {
			base := filepath.Base(path)
			if strings.HasPrefix(base, ".") && path != s.root {
				return filepath.SkipDir
			}
			_ = watcher.Add(path)
			watched[path] = true
		}
		return nil
	})

	fmt.Fprintf(cmd.OutOrStdout(), "\nWatching for changes... (press Ctrl+C to stop)\n\n")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var debounceTimer *time.Timer
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(WatchDebounceDelay, func() {
				fmt.Fprintf(cmd.OutOrStdout(), "\nFile changed: %s\nRe-running tests...\n\n", event.Name)
				mapping, err := discover(s)
				if err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "teeter: %v\n", err)
					return
				}
				executeRun(cmd, s, mapping)
				fmt.Fprintf(cmd.OutOrStdout(), "\nWatching for changes... (press Ctrl+C to stop)\n")
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: watcher error: %v\n", err)
		}
	}
}
