// Command bestxi scores a player sheet and picks the highest-impact squad
// from the terminal.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/stitts-dev/bestxi/internal/ingest"
	"github.com/stitts-dev/bestxi/internal/models"
	"github.com/stitts-dev/bestxi/pkg/logger"
)

// errInfeasible signals a completed solve with no valid squad.
var errInfeasible = errors.New("no valid squad")

const exitInfeasible = 2

type rootOptions struct {
	file     string
	format   string
	logLevel string
	log      *logrus.Logger
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "bestxi",
		Short: "Pick the highest-impact cricket squad from a player sheet",
		Long: `bestxi reads a player sheet (CSV with a header row, or a JSON array),
scores every player for the chosen match format and selects the squad with
the highest total impact under squad-size, overseas and role rules.

Example:
  bestxi select --file players.csv --format ODI --max-foreign 4`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.logLevel == "" {
				opts.log = logger.NewDiscardLogger()
			} else {
				opts.log = logger.InitLogger(opts.logLevel, true)
				opts.log.SetOutput(cmd.ErrOrStderr())
			}
			logger.Logger = opts.log
			return nil
		},
	}

	root.PersistentFlags().StringVarP(&opts.file, "file", "f", "", "player sheet (.csv or .json, - for CSV on stdin)")
	root.PersistentFlags().StringVar(&opts.format, "format", string(models.DefaultFormat), "match format: Test, ODI or T20")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log to stderr at this level (debug, info, warn)")
	_ = root.MarkPersistentFlagRequired("file")

	root.AddCommand(newScoreCmd(opts))
	root.AddCommand(newSelectCmd(opts))
	return root
}

// loadCandidates reads the sheet named by --file.
func (o *rootOptions) loadCandidates(stdin io.Reader) ([]models.Candidate, error) {
	if o.file == "-" {
		return ingest.ReadCSV(stdin)
	}

	f, err := os.Open(o.file)
	if err != nil {
		return nil, fmt.Errorf("open player sheet: %w", err)
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(o.file), ".json") {
		return ingest.ReadJSON(f)
	}
	return ingest.ReadCSV(f)
}

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		if errors.Is(err, errInfeasible) {
			os.Exit(exitInfeasible)
		}
		os.Exit(1)
	}
}
