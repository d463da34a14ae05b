package cmds

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	treeboard "github.com/ideamans/go-treeboard"
	"github.com/ideamans/go-treeboard/adapters/excel"
	"github.com/ideamans/go-treeboard/adapters/googlesheets"
	"github.com/ideamans/go-treeboard/adapters/httpapi"
	"github.com/sirupsen/logrus"
	"gopkg.in/ini.v1"
)

// Settings is the merged view of the config file and the command line
type Settings struct {
	APIBaseURL string
	APIToken   string
	APITimeout time.Duration

	ExcelPath  string
	ExcelSheet string

	SpreadsheetID   string
	SheetName       string
	CredentialsFile string

	SyncInterval   time.Duration
	RequestTimeout time.Duration
	KeyField       string

	LogLevel string
	LogFile  string
}

// LoadSettings reads an ini config file. An empty path yields defaults.
func LoadSettings(path string) (*Settings, error) {
	file := ini.Empty()
	if path != "" {
		var err error
		file, err = ini.Load(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load config %s: %w", path, err)
		}
	}

	api := file.Section("api")
	xl := file.Section("excel")
	gs := file.Section("googlesheets")
	client := file.Section("client")
	logs := file.Section("log")

	return &Settings{
		APIBaseURL:      api.Key("base_url").String(),
		APIToken:        api.Key("token").String(),
		APITimeout:      api.Key("timeout").MustDuration(0),
		ExcelPath:       xl.Key("path").String(),
		ExcelSheet:      xl.Key("sheet").MustString("data"),
		SpreadsheetID:   gs.Key("spreadsheet_id").String(),
		SheetName:       gs.Key("sheet").MustString("data"),
		CredentialsFile: gs.Key("credentials").String(),
		SyncInterval:    client.Key("sync_interval").MustDuration(0),
		RequestTimeout:  client.Key("request_timeout").MustDuration(0),
		KeyField:        client.Key("key_field").MustString(treeboard.DefaultKeyField),
		LogLevel:        logs.Key("level").MustString("info"),
		LogFile:         logs.Key("file").String(),
	}, nil
}

// NewLogger builds the process logger. out receives entries when no log
// file is configured.
func (s *Settings) NewLogger(out io.Writer) (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(s.LogLevel)
	if err != nil {
		return nil, err
	}

	logger := logrus.New()
	logger.SetLevel(level)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	logger.SetOutput(out)

	if s.LogFile != "" {
		f, err := os.OpenFile(s.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		logger.SetOutput(f)
	}
	return logger, nil
}

// OpenBackend picks the backend from the settings: the REST API when a
// base URL is set, otherwise Google Sheets, otherwise an Excel workbook.
func (s *Settings) OpenBackend(ctx context.Context, logger logrus.FieldLogger) (treeboard.Backend, *treeboard.Config, error) {
	var (
		backend treeboard.Backend
		config  *treeboard.Config
	)

	switch {
	case s.APIBaseURL != "":
		b, err := httpapi.New(&httpapi.Config{
			BaseURL:  s.APIBaseURL,
			Token:    s.APIToken,
			Timeout:  s.APITimeout,
			KeyField: s.KeyField,
		})
		if err != nil {
			return nil, nil, err
		}
		backend, config = b, httpapi.DefaultClientConfig()
		logger.WithField("url", s.APIBaseURL).Debug("using REST backend")

	case s.SpreadsheetID != "":
		sheet, err := googlesheets.Open(ctx, googlesheets.Config{
			SpreadsheetID:   s.SpreadsheetID,
			SheetName:       s.SheetName,
			KeyColumn:       s.KeyField,
			CredentialsFile: s.CredentialsFile,
		})
		if err != nil {
			return nil, nil, err
		}
		backend, config = treeboard.NewLocalBackend(sheet, s.KeyField), googlesheets.DefaultClientConfig()
		logger.WithField("spreadsheet", s.SpreadsheetID).Debug("using Google Sheets backend")

	case s.ExcelPath != "":
		sheet, err := excel.New(&excel.Config{
			FilePath:  s.ExcelPath,
			SheetName: s.ExcelSheet,
			KeyColumn: s.KeyField,
		})
		if err != nil {
			return nil, nil, err
		}
		backend, config = treeboard.NewLocalBackend(sheet, s.KeyField), excel.DefaultClientConfig()
		logger.WithField("path", s.ExcelPath).Debug("using Excel backend")

	default:
		return nil, nil, fmt.Errorf("no backend configured: set --api, --excel or [googlesheets] spreadsheet_id")
	}

	if s.SyncInterval > 0 {
		config.SyncInterval = s.SyncInterval
	}
	if s.RequestTimeout > 0 {
		config.RequestTimeout = s.RequestTimeout
	}
	config.KeyField = s.KeyField
	config.Logger = logger
	return backend, config, nil
}
