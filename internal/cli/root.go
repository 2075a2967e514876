// Package cli implements the docprep command line.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"docprep-backend/internal/bootstrap"
	"docprep-backend/internal/shared/config"
)

// AppFactory builds the application for a command run.
type AppFactory func() (*bootstrap.App, error)

// DefaultFactory loads configuration from the environment.
func DefaultFactory() (*bootstrap.App, error) {
	return bootstrap.Build(config.Load())
}

type root struct {
	output  string
	factory AppFactory
}

func (r *root) reporter(cmd *cobra.Command) *Reporter {
	return &Reporter{Format: r.output, Out: cmd.OutOrStdout()}
}

// withApp builds the app, runs fn and releases the app afterwards.
func (r *root) withApp(fn func(app *bootstrap.App) error) error {
	app, err := r.factory()
	if err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}
	defer app.Close()
	return fn(app)
}

// NewRootCmd returns the docprep command tree.
func NewRootCmd(factory AppFactory) *cobra.Command {
	if factory == nil {
		factory = DefaultFactory
	}
	r := &root{factory: factory}

	cmd := &cobra.Command{
		Use:           "docprep",
		Short:         "Prepare documents for machine translation",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&r.output, "output", "o", FormatJSON, "Output format: json or yaml")

	cmd.AddCommand(
		newAnalyzeCmd(r),
		newValidateCmd(r),
		newProcessCmd(r),
		newConvertCmd(r),
		newFormatsCmd(r),
		newSummaryCmd(r),
		newCleanupCmd(r),
	)
	return cmd
}

// Execute runs the command line and exits non-zero on failure.
func Execute() {
	if err := NewRootCmd(nil).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
