// Package cli is the cmdvault command tree. Every entity operation is
// reached through it; with no arguments on a terminal it starts the TUI.
package cli

import (
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sadopc/cmdvault/internal/config"
	"github.com/sadopc/cmdvault/internal/executor"
	"github.com/sadopc/cmdvault/internal/logging"
	"github.com/sadopc/cmdvault/internal/runner"
	"github.com/sadopc/cmdvault/internal/store"
	"github.com/sadopc/cmdvault/internal/tui"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// app carries what the subcommands share. Fields left nil are filled from
// the environment in open; tests preset them.
type app struct {
	store *store.Store
	fs    afero.Fs
	exec  *executor.Executor

	dbPath   string
	logLevel string
	verbose  bool

	owned   bool
	logFile io.Closer
	isTTY   func() bool
}

func newApp() *app {
	return &app{
		fs:    afero.NewOsFs(),
		isTTY: func() bool { return term.IsTerminal(int(os.Stdout.Fd())) },
	}
}

func (a *app) open() error {
	if a.store != nil {
		if a.exec == nil {
			a.exec = executor.New(config.DefaultExecTimeout)
		}
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if a.dbPath != "" {
		cfg.DBPath = a.dbPath
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}

	if a.verbose {
		logging.Init(logging.Config{Level: logging.ParseLevel(cfg.LogLevel), Output: os.Stderr, Pretty: true})
	} else {
		f, err := logging.OpenFile(cfg.LogFile)
		if err != nil {
			return err
		}
		a.logFile = f
		logging.Init(logging.Config{Level: logging.ParseLevel(cfg.LogLevel), Output: f})
	}

	s, err := store.New(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	logging.Debug().Str("path", cfg.DBPath).Msg("database opened")
	a.store = s
	a.owned = true
	a.exec = executor.New(cfg.ExecTimeout)
	return nil
}

func (a *app) close() {
	if a.owned && a.store != nil {
		a.store.Close()
		a.store = nil
	}
	if a.logFile != nil {
		a.logFile.Close()
		a.logFile = nil
	}
}

func (a *app) runner() *runner.Runner {
	return runner.New(a.store, a.exec)
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "cmdvault",
		Short: "Store, fill in and run shell command templates",
		Long: `cmdvault keeps reusable shell command templates with named variables,
organised by project and tag.

  cmdvault                 open the interactive UI
  cmdvault list            list commands
  cmdvault run <command>   fill in variables and run a command`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.open()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.close()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if !a.isTTY() {
				return cmd.Help()
			}
			p := tea.NewProgram(tui.NewApp(a.store, a.runner(), a.fs), tea.WithAltScreen())
			_, err := p.Run()
			return err
		},
	}

	root.PersistentFlags().StringVar(&a.dbPath, "db", "", "database path (default from "+config.EnvDB+")")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log to stderr instead of the log file")

	root.AddCommand(
		a.listCmd(),
		a.showCmd(),
		a.renderCmd(),
		a.runCmd(),
		a.addCmd(),
		a.editCmd(),
		a.rmCmd(),
		a.projectCmd(),
		a.tagCmd(),
		a.configCmd(),
		a.importCmd(),
		a.exportCmd(),
		a.historyCmd(),
	)
	return root
}

func Execute() {
	a := newApp()
	if err := a.rootCmd().Execute(); err != nil {
		// cobra skips PersistentPostRun on error.
		a.close()
		fmt.Fprintln(os.Stderr, errorColor.Sprint("Error: ")+err.Error())
		os.Exit(1)
	}
}
