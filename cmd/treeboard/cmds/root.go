package cmds

import (
	"io"
	"os"

	treeboard "github.com/ideamans/go-treeboard"
	"github.com/ideamans/go-treeboard/tui"
	"github.com/spf13/cobra"
)

var (
	configFile string
	apiURL     string
	apiToken   string
	excelPath  string
	sheetName  string
	logLevel   string
)

// RootCmd runs the interactive dashboard
var RootCmd = &cobra.Command{
	Use:           "treeboard",
	Short:         "Dashboard for a tree-backed dataset",
	SilenceErrors: true,
	SilenceUsage:  true,
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := settingsFromFlags()
		if err != nil {
			return err
		}

		// The dashboard owns the terminal; logs go to the configured file only
		logger, err := settings.NewLogger(io.Discard)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		backend, config, err := settings.OpenBackend(ctx, logger)
		if err != nil {
			return err
		}

		notifier := tui.NewChannelNotifier(16)
		config.Notifier = notifier
		controller := treeboard.New(backend, config)
		defer controller.Close()

		return tui.Run(ctx, controller, notifier)
	},
}

func init() {
	flags := RootCmd.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "Path to an ini config file")
	flags.StringVar(&apiURL, "api", "", "Base URL of the dashboard REST API")
	flags.StringVar(&apiToken, "token", "", "Bearer token for the REST API")
	flags.StringVar(&excelPath, "excel", "", "Serve from a local Excel workbook")
	flags.StringVar(&sheetName, "sheet", "", "Sheet name in the workbook or spreadsheet")
	flags.StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	RootCmd.AddCommand(importCmd)
	RootCmd.AddCommand(convertCmd)
	RootCmd.AddCommand(genBashCompletionCmd)
}

// settingsFromFlags loads the config file and applies flag overrides
func settingsFromFlags() (*Settings, error) {
	settings, err := LoadSettings(configFile)
	if err != nil {
		return nil, err
	}

	if apiURL != "" {
		settings.APIBaseURL = apiURL
	}
	if apiToken != "" {
		settings.APIToken = apiToken
	}
	if excelPath != "" {
		settings.ExcelPath = excelPath
		// an explicit workbook wins over a configured API
		if apiURL == "" {
			settings.APIBaseURL = ""
		}
	}
	if sheetName != "" {
		settings.ExcelSheet = sheetName
		settings.SheetName = sheetName
	}
	if logLevel != "" {
		settings.LogLevel = logLevel
	}
	return settings, nil
}

var genBashCompletionCmd = &cobra.Command{
	Use:   "bash",
	Short: "Generate bash completions file",
	Run: func(cmd *cobra.Command, args []string) {
		RootCmd.GenBashCompletion(os.Stdout)
	},
}
