package cmds

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	treeboard "github.com/ideamans/go-treeboard"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import <csv>",
	Short: "Upload a CSV dataset",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		controller, err := newCommandController(cmd)
		if err != nil {
			return err
		}
		defer controller.Close()

		path := args[0]
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()

		info, err := f.Stat()
		if err != nil {
			return err
		}

		bar := progressbar.DefaultBytes(info.Size(), "uploading")
		if err := controller.Upload(cmd.Context(), filepath.Base(path), io.TeeReader(f, bar)); err != nil {
			return err
		}
		bar.Finish()

		fmt.Fprintf(cmd.OutOrStdout(), "%d rows loaded\n", controller.State().TotalRows)
		return nil
	},
}

var convertCmd = &cobra.Command{
	Use:       "convert <AVL|BST|BTREE>",
	Short:     "Switch the backend tree structure",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"AVL", "BST", "BTREE"},
	RunE: func(cmd *cobra.Command, args []string) error {
		target, err := treeboard.ParseStructureMode(args[0])
		if err != nil {
			return err
		}

		controller, err := newCommandController(cmd)
		if err != nil {
			return err
		}
		defer controller.Close()

		if err := controller.Convert(cmd.Context(), target); err != nil {
			return err
		}

		state := controller.State()
		fmt.Fprintf(cmd.OutOrStdout(), "structure %s, %d rows\n", state.Structure, state.TotalRows)
		return nil
	},
}

// newCommandController builds a controller for one-shot commands: no
// background sync, notices logged to stderr.
func newCommandController(cmd *cobra.Command) (*treeboard.Controller, error) {
	settings, err := settingsFromFlags()
	if err != nil {
		return nil, err
	}
	logger, err := settings.NewLogger(cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}

	backend, config, err := settings.OpenBackend(cmd.Context(), logger)
	if err != nil {
		return nil, err
	}
	config.SyncInterval = 0
	config.Notifier = &treeboard.LogNotifier{Logger: logger}

	return treeboard.New(backend, config), nil
}
