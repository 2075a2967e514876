package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"docprep-backend/internal/bootstrap"
)

func readInput(path string) (string, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", nil, fmt.Errorf("read %s: %w", path, err)
	}
	return filepath.Base(path), data, nil
}

func newAnalyzeCmd(r *root) *cobra.Command {
	return &cobra.Command{
		Use:   "analyze FILE",
		Short: "Score a DOCX file's readiness for machine translation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, data, err := readInput(args[0])
			if err != nil {
				return err
			}
			return r.withApp(func(app *bootstrap.App) error {
				res, err := app.DocumentsService.AnalyzeForTranslation(cmd.Context(), name, data)
				if err != nil {
					return err
				}
				return r.reporter(cmd).Handle(res)
			})
		},
	}
}

func newValidateCmd(r *root) *cobra.Command {
	return &cobra.Command{
		Use:   "validate FILE",
		Short: "Check that a file is a well-formed DOCX document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, data, err := readInput(args[0])
			if err != nil {
				return err
			}
			return r.withApp(func(app *bootstrap.App) error {
				res, err := app.DocumentsService.ValidateOnly(cmd.Context(), name, data)
				if err != nil {
					return err
				}
				if err := r.reporter(cmd).Handle(res); err != nil {
					return err
				}
				if !res.IsValid {
					return fmt.Errorf("invalid: %s", res.Message)
				}
				return nil
			})
		},
	}
}

func newProcessCmd(r *root) *cobra.Command {
	var keepOriginal bool
	cmd := &cobra.Command{
		Use:   "process FILE",
		Short: "Store, convert, validate and analyze a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, data, err := readInput(args[0])
			if err != nil {
				return err
			}
			return r.withApp(func(app *bootstrap.App) error {
				res, err := app.DocumentsService.Process(cmd.Context(), name, data, keepOriginal)
				if err != nil {
					return err
				}
				return r.reporter(cmd).Handle(res)
			})
		},
	}
	cmd.Flags().BoolVar(&keepOriginal, "keep-original", true, "Keep the uploaded original after conversion")
	return cmd
}

func newConvertCmd(r *root) *cobra.Command {
	var outDir string
	cmd := &cobra.Command{
		Use:   "convert FILE",
		Short: "Convert a document to DOCX with LibreOffice",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, data, err := readInput(args[0])
			if err != nil {
				return err
			}
			if outDir == "" {
				outDir = filepath.Dir(args[0])
			}
			return r.withApp(func(app *bootstrap.App) error {
				out, err := app.Converter.ConvertToDOCX(cmd.Context(), name, data)
				if err != nil {
					return err
				}
				target := filepath.Join(outDir, out.FileName)
				if out.Converted {
					if err := os.MkdirAll(outDir, 0o755); err != nil {
						return err
					}
					if err := os.WriteFile(target, out.Data, 0o644); err != nil {
						return fmt.Errorf("write %s: %w", target, err)
					}
				} else {
					target = args[0]
				}
				return r.reporter(cmd).Handle(map[string]any{
					"input":     args[0],
					"output":    target,
					"converted": out.Converted,
					"message":   out.Message,
				})
			})
		},
	}
	cmd.Flags().StringVar(&outDir, "out-dir", "", "Directory for the converted file (defaults to the input's directory)")
	return cmd
}

func newFormatsCmd(r *root) *cobra.Command {
	return &cobra.Command{
		Use:   "formats",
		Short: "List accepted input formats",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return r.withApp(func(app *bootstrap.App) error {
				return r.reporter(cmd).Handle(app.DocumentsService.Formats())
			})
		},
	}
}

func newSummaryCmd(r *root) *cobra.Command {
	var hours int
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Summarize logged operations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return r.withApp(func(app *bootstrap.App) error {
				sum, err := app.DocumentsService.Summary(cmd.Context(), hours)
				if err != nil {
					return err
				}
				return r.reporter(cmd).Handle(sum)
			})
		},
	}
	cmd.Flags().IntVar(&hours, "hours", 24, "Time window in hours (1-168)")
	return cmd
}

func newCleanupCmd(r *root) *cobra.Command {
	var daysOld int
	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Delete stored files older than a number of days",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return r.withApp(func(app *bootstrap.App) error {
				res, err := app.DocumentsService.Cleanup(cmd.Context(), daysOld)
				if err != nil {
					return err
				}
				return r.reporter(cmd).Handle(res)
			})
		},
	}
	cmd.Flags().IntVar(&daysOld, "days-old", 7, "Delete files older than this many days")
	return cmd
}
