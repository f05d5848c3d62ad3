package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/hamed0406/wazuhcheck/internal/config"
	"github.com/hamed0406/wazuhcheck/internal/logging"
)

// Exit codes.
const (
	exitOK     = 0
	exitFailed = 1 // at least one check failed
	exitUsage  = 2 // bad flags, config or check names
)

// errChecksFailed marks a run that completed with failing checks.
var errChecksFailed = errors.New("checks failed")

// app is the state shared by subcommands once the root pre-run has loaded
// configuration and logging.
type app struct {
	cfgFile string
	cfg     config.Config
	log     *zap.Logger
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "wazuhcheck",
		Short: "Liveness smoke checks for a Wazuh deployment",
		Long: `wazuhcheck checks that a Wazuh deployment is alive: the manager API
(port 55000), the indexer API (port 9200) and the dashboard login page
(port 443, through a headless Chromium).

Endpoints default to localhost and can be changed in .wazuhcheck.yaml or
with WAZUHCHECK_* environment variables.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default is ./.wazuhcheck.yaml or $HOME/.wazuhcheck.yaml)")
	root.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	root.PersistentFlags().BoolP("verbose", "v", false, "also write logs to stderr")

	root.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		return a.init(cmd.Flags())
	}

	root.AddCommand(newRunCmd(a), newListCmd(a))
	return root
}

// init loads configuration with the usual precedence (flag > env > file >
// default) and opens the logger. Flags only override when explicitly set.
func (a *app) init(fs *pflag.FlagSet) error {
	v, err := config.NewViper(a.cfgFile)
	if err != nil {
		return err
	}
	overrideFromFlags(v, fs, map[string]string{
		"log-level":   "log.level",
		"verbose":     "log.console",
		"concurrency": "suite.concurrency",
	})
	cfg, err := config.Decode(v)
	if err != nil {
		return err
	}
	log, err := logging.NewLogger(logging.Options{Dir: cfg.Log.Dir, Level: cfg.Log.Level, Console: cfg.Log.Console})
	if err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	a.cfg, a.log = cfg, log
	return nil
}

func overrideFromFlags(v *viper.Viper, fs *pflag.FlagSet, keys map[string]string) {
	fs.Visit(func(f *pflag.Flag) {
		if key, ok := keys[f.Name]; ok {
			v.Set(key, f.Value.String())
		}
	})
}

func execute(args []string, stdout, stderr io.Writer) int {
	a := &app{}
	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.Execute()
	if a.log != nil {
		_ = a.log.Sync()
	}
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, errChecksFailed):
		return exitFailed
	default:
		fmt.Fprintln(stderr, "Error:", err)
		return exitUsage
	}
}
