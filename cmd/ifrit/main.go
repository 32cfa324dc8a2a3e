// Command ifrit serves the Final Fantasy collection inventory and manages
// its database from the terminal.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/erazemk/ifrit/internal/config"
	"github.com/erazemk/ifrit/internal/logging"
)

// app carries what every subcommand needs once flags are parsed.
type app struct {
	v        *viper.Viper
	cfgFile  string
	cfg      *config.Config
	log      *zap.Logger
	closeLog func()
}

func main() {
	a := &app{v: config.New()}
	root := a.rootCommand()
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func (a *app) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "ifrit",
		Short:         "Final Fantasy collectibles inventory",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.closeLog != nil {
				a.closeLog()
			}
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&a.cfgFile, "config", "c", "", "config file (yaml, json or toml)")
	pf.StringP("db", "d", "ifrit.sqlite3", "SQLite database path")
	pf.StringP("log", "l", "", "log file path (default: stdout/stderr only)")
	pf.Bool("debug", false, "enable debug logging")
	pf.StringP("admin-user", "u", "Admin", "admin username created on first run")

	root.AddCommand(
		a.initCommand(),
		a.serveCommand(),
		a.exportCommand(),
		a.importCommand(),
		a.resetCommand(),
		a.migrateCommand(),
	)
	return root
}

// setup binds the flags of cmd, loads the configuration and installs the
// global logger.
func (a *app) setup(cmd *cobra.Command) error {
	if err := config.BindFlags(a.v, cmd.Flags()); err != nil {
		return err
	}
	cfg, err := config.Load(a.v, a.cfgFile)
	if err != nil {
		return err
	}
	a.cfg = cfg

	log, closeLog, err := logging.New(cfg.Log, cfg.Debug)
	if err != nil {
		return err
	}
	a.log = log
	a.closeLog = closeLog
	zap.ReplaceGlobals(log)
	return nil
}
