package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/getmockd/ewsoap/pkg/config"
	"github.com/getmockd/ewsoap/pkg/logging"
	"github.com/spf13/cobra"
)

var (
	// Version is injected during build
	Version = "dev"
	// Commit is injected during build
	Commit = "none"
	// BuildDate is injected during build
	BuildDate = "unknown"
)

// globalFlags holds persistent flags shared by every subcommand.
type globalFlags struct {
	configPath string
	jsonOutput bool
	logLevel   string
	tracePath  string
	envFile    string

	trace *os.File
}

// NewRootCommand builds the ewsoap command tree.
func NewRootCommand() *cobra.Command {
	g := &globalFlags{}

	root := &cobra.Command{
		Use:   "ewsoap",
		Short: "ewsoap talks SOAP to Exchange Web Services",
		Long: `ewsoap wraps request bodies in Exchange SOAP envelopes, sends them,
checks the reply for SOAP faults and extracts typed fields from it.

Settings are read from the file given with --config (YAML or JSON), then
from EWSOAP_* environment variables (or --env-file). Flags override both.`,
		SilenceUsage:  true,
		SilenceErrors: true, // Execute prints errors
	}

	root.PersistentFlags().StringVarP(&g.configPath, "config", "c", "", "Path to a client config file (.yaml, .yml or .json)")
	root.PersistentFlags().BoolVar(&g.jsonOutput, "json", false, "Output command results in JSON format")
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "Log level (debug, info, warn, error); debug dumps SOAP envelopes")

	root.PersistentFlags().StringVar(&g.envFile, "env-file", "", "Read EWSOAP_* settings from a dotenv file")
	root.PersistentFlags().StringVar(&g.tracePath, "trace", "", "Write a debug-level JSON trace, including SOAP envelopes, to this file")

	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if g.tracePath == "" {
			return nil
		}
		f, err := os.Create(g.tracePath)
		if err != nil {
			return fmt.Errorf("failed to open trace file: %w", err)
		}
		g.trace = f
		return nil
	}
	root.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		return g.closeTrace()
	}

	root.AddCommand(
		newSendCommand(g),
		newExtractCommand(g),
		newEnvelopeCommand(g),
		newVersionCommand(g),
	)
	return root
}

// Run executes the CLI with os.Args and returns the process exit code.
func Run() int {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	return 0
}

// loadConfig reads the config file if one was given, otherwise starts from
// defaults, then applies environment overrides.
func (g *globalFlags) loadConfig() (*config.ClientConfig, error) {
	var cfg *config.ClientConfig
	if g.configPath == "" {
		cfg = config.Default()
	} else {
		var err error
		if cfg, err = config.LoadFromFile(g.configPath); err != nil {
			return nil, err
		}
	}

	lookup := config.LookupFunc(os.LookupEnv)
	if g.envFile != "" {
		var err error
		if lookup, err = config.EnvFile(g.envFile); err != nil {
			return nil, err
		}
	}
	if err := cfg.ApplyEnv(lookup); err != nil {
		return nil, err
	}

	if g.logLevel != "" {
		cfg.Log.Level = g.logLevel
	}
	return cfg, nil
}

// logger builds a logger writing to w, normally the command's stderr.
func (g *globalFlags) logger(cfg *config.ClientConfig, w io.Writer) *slog.Logger {
	lc := cfg.LoggingConfig()
	lc.Output = w
	if g.trace != nil {
		lc.TraceOutput = g.trace
	}
	return logging.New(lc)
}

func (g *globalFlags) closeTrace() error {
	if g.trace == nil {
		return nil
	}
	err := g.trace.Close()
	g.trace = nil
	return err
}
