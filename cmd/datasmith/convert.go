package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/thywilljoshua/datasmith/internal/ai"
	"github.com/thywilljoshua/datasmith/internal/config"
	"github.com/thywilljoshua/datasmith/internal/convert"
	"github.com/thywilljoshua/datasmith/internal/logging"
	"github.com/thywilljoshua/datasmith/internal/table"
)

func convertCmd(cfg *config.Config) *cobra.Command {
	var out string
	var rotate int
	var model string
	var quiet bool

	cmd := &cobra.Command{
		Use:   "convert <image|pdf>",
		Short: "Extract the table in an image or PDF into a CSV file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if out == "" {
				out = cfg.OutputPath
			}
			if model == "" {
				model = cfg.Model
			}
			if !cfg.HasAPIKey() {
				return ai.ErrMissingAPIKey
			}
			log := logging.NewLogger("convert")

			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read %s: %w", path, err)
			}

			g, err := ai.NewGemini(cmd.Context(), cfg.APIKey, model)
			if err != nil {
				return err
			}
			log.Debug("converting", "file", path, "model", g.Model(), "rotation", rotate)

			res, err := convert.Run(cmd.Context(), convert.Input{Name: filepath.Base(path), Data: data}, convert.Config{
				OutPath:   out,
				Rotation:  rotate,
				Extractor: g,
			})
			if err != nil {
				var cerr *convert.Error
				if errors.As(err, &cerr) {
					log.Debug("conversion failed", "code", cerr.Code, "error", err)
					return errors.New(cerr.UserMessage())
				}
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "CSV file saved as %s\n", res.Path)
			if !quiet {
				return printTable(cmd.OutOrStdout(), res.Table)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "CSV output path (default from DATASMITH_OUTPUT, csv_output.csv)")
	cmd.Flags().IntVar(&rotate, "rotate", 0, "rotate images counter-clockwise by this many degrees (multiple of 90)")
	cmd.Flags().StringVar(&model, "model", "", "Gemini model name (default from DATASMITH_MODEL)")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "do not print the extracted table")
	return cmd
}

func printTable(w io.Writer, t *table.Table) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(t.Header, "\t"))
	for _, row := range t.Rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}
