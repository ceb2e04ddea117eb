package cmd

import (
	"errors"
	"io/fs"
	"log"
	"os"
	"path/filepath"

	"github.com/josephlewis42/myshell/core"
	"github.com/josephlewis42/myshell/core/config"
	"github.com/josephlewis42/myshell/core/executor"
	"github.com/josephlewis42/myshell/core/logger"
	"github.com/spf13/cobra"
)

// DefaultConfigDirName is the directory under $HOME holding the configuration
// if --config isn't given.
const DefaultConfigDirName = ".myshell"

var (
	cfgPath     string
	commandLine string

	// exitStatus is the low byte of the status of the last line the shell ran.
	exitStatus int
)

func configDir() string {
	if cfgPath != "" {
		return cfgPath
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, DefaultConfigDirName)
}

// loadConfig loads the configuration. Without an explicit --config a missing
// directory falls back to the built-in defaults.
func loadConfig() (*config.Configuration, error) {
	configuration, err := config.Load(configDir())

	if errors.Is(err, fs.ErrNotExist) {
		if cfgPath == "" {
			return config.Default()
		}
		log.Println("Couldn't load config: did you run init?")
	}

	return configuration, err
}

// openEvents returns the recorder for the configured event log and a func to
// close it.
func openEvents(configuration *config.Configuration) (logger.EventRecorder, func(), error) {
	if configuration.EventLogPath() == "" {
		return logger.NopEventRecorder{}, func() {}, nil
	}

	fd, err := configuration.OpenEventLog()
	if err != nil {
		return nil, nil, err
	}

	return logger.NewJsonLinesLogRecorder(fd).NewSession(), func() { fd.Close() }, nil
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "myshell",
	Short: "A small command interpreter",
	Long: `A small command interpreter supporting sequences (;), conditionals (&& and ||),
pipelines (|), groups ( ... ) and the redirections <, >, >> and 2>.

Without -c an interactive session is started on the terminal.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		configuration, err := loadConfig()
		if err != nil {
			return err
		}
		log.SetPrefix(configuration.Name + ": ")

		events, closeEvents, err := openEvents(configuration)
		if err != nil {
			return err
		}
		defer closeEvents()

		shell, err := core.NewShell(configuration, core.Options{Events: events})
		if err != nil {
			return err
		}

		var status executor.Status
		if cmd.Flags().Changed("command") {
			status = shell.RunCommand(commandLine)
		} else if status, err = shell.RunInteractive(); err != nil {
			return err
		}

		exitStatus = status.ExitCode()
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	cobra.CheckErr(rootCmd.Execute())
	os.Exit(exitStatus)
}

func init() {
	log.SetFlags(0)

	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "config path (default $HOME/"+DefaultConfigDirName+")")
	rootCmd.Flags().StringVarP(&commandLine, "command", "c", "", "run one command line and exit with its status")
}
