package nutrilog

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/saadjs/nutrilog/internal/config"
	"github.com/saadjs/nutrilog/internal/domain"
	"github.com/saadjs/nutrilog/internal/logging"
)

var (
	dbPath   string
	userFlag string
	logLevel string

	// env is loaded once per invocation, before any command runs.
	env config.Config
)

var rootCmd = &cobra.Command{
	Use:   "nutrilog",
	Short: "nutrilog tracks meals, nutrition and workouts from your terminal",
	Long: "nutrilog is a local-first nutrition and training log: ingredients, recipes, meals and days " +
		"with calorie and protein totals, plus exercises, workouts and workout templates.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		env = config.Load()
		return logging.Setup(config.FirstNonEmpty(logLevel, env.LogLevel), cmd.ErrOrStderr())
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(exitCode(err))
	}
}

// exitCode maps domain error kinds to process exit status.
func exitCode(err error) int {
	switch domain.CodeOf(err) {
	case domain.CodeValidation:
		return 2
	case domain.CodeNotFound:
		return 3
	case domain.CodeAlreadyExists, domain.CodeConflict:
		return 4
	case domain.CodeAuth, domain.CodePermission:
		return 5
	case domain.CodeRateLimit, domain.CodeInfra:
		return 6
	default:
		return 1
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Path to SQLite database")
	rootCmd.PersistentFlags().StringVar(&userFlag, "user", "", "Act as this user id (defaults to NUTRILOG_USER, then the current_user config)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn or error")
}
