package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var version = "source"

var (
	configPath string
	logLevel   string

	rootCmd = &cobra.Command{
		Use:   "lfgsim",
		Short: "Dungeon queue simulator",
		Long: `lfgsim forms parties of one tank, one healer and three DPS from a queue of
players and runs them through a bounded number of concurrent dungeon instances.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setLogger(logLevel)
		},
	}
)

func setLogger(level string) {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	if len(os.Getenv("CONSOLE_LOG")) > 0 {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
	if os.Getenv("DEBUG") != "" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		return
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
		return
	}
	zerolog.SetGlobalLevel(lvl)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.txt", "config file path")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.AddCommand(runCmd, watchCmd)
}

func main() {
	// `lfgsim` with no subcommand runs the simulation
	if len(os.Args) < 2 || (strings.HasPrefix(os.Args[1], "-") && os.Args[1] != "-h" && os.Args[1] != "--help") {
		rootCmd.SetArgs(append([]string{"run"}, os.Args[1:]...))
	}
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
