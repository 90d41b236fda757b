package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kud1/file-viewer/internal/tui"
)

// NewOpenCommand creates the open command.
func NewOpenCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "open [path...]",
		Short: "Open the interactive viewer",
		Long: `Start the full-screen terminal viewer.

Any paths given are loaded as tables before the viewer starts. Inside the
viewer you can add and remove files, browse table previews, run SQL, and
export results.`,
		Example: `  # Start empty and add files interactively
  fviewer open

  # Start with files preloaded
  fviewer open orders.csv users.parquet

  # Load a directory of daily files as one table
  fviewer open ./events/`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOpen(cmd, args)
		},
	}

	return cmd
}

func runOpen(cmd *cobra.Command, paths []string) error {
	if !isTerminal(os.Stdout) {
		return fmt.Errorf("the viewer needs a terminal; use 'fviewer query' for scripted output")
	}

	cfg := getConfig(cmd)

	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	if err := loadPaths(cmd, s, paths); err != nil {
		return err
	}

	store := openHistory(cmd)
	if store != nil {
		defer func() { _ = store.Close() }()
	}

	return tui.Run(cmd.Context(), tui.Config{
		Session:      s,
		History:      store,
		PreviewLimit: cfg.PreviewLimit,
		Logger:       getLogger(cmd),
	})
}
