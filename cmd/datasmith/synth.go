package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/thywilljoshua/datasmith/internal/config"
	"github.com/thywilljoshua/datasmith/internal/logging"
	"github.com/thywilljoshua/datasmith/internal/prompt"
	"github.com/thywilljoshua/datasmith/internal/synth"
	"github.com/thywilljoshua/datasmith/internal/web"
	"github.com/thywilljoshua/datasmith/internal/workbook"
)

func synthCmd(cfg *config.Config) *cobra.Command {
	var planPath string
	var sheets []string
	var rows []int
	var interactive bool
	var seed uint64
	var out string

	cmd := &cobra.Command{
		Use:   "synth <xlsx>",
		Short: "Append synthetic rows to sheets of a workbook",
		Long: `Append synthetic rows to sheets of a workbook.

Columns follow their own distribution unless a plan says otherwise:
numeric columns draw from a normal fit, text columns resample their values
by frequency, date columns draw uniformly between their first and last date
and empty columns stay empty. A YAML plan (--plan) or the prompts
(--interactive) can pin a column to a fixed value, a numeric range or a list.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			log := logging.NewLogger("synth")

			wb, err := workbook.Open(path)
			if err != nil {
				return err
			}
			defer wb.Close()

			var plan *synth.Plan
			switch {
			case planPath != "":
				f, err := os.Open(planPath)
				if err != nil {
					return fmt.Errorf("open plan: %w", err)
				}
				plan, err = synth.LoadPlan(f)
				f.Close()
				if err != nil {
					return err
				}
			case interactive:
				frames, err := wb.Frames()
				if err != nil {
					return err
				}
				plan, err = synth.Interview(cmd.Context(), prompt.NewSurvey(), frames)
				if err != nil {
					return err
				}
			case len(sheets) > 0:
				plan, err = planFromFlags(sheets, rows)
				if err != nil {
					return err
				}
			default:
				return errors.New("nothing to generate: pass --plan, --sheet with --rows, or --interactive")
			}
			if len(plan.Sheets) == 0 {
				return errors.New("plan selects no sheets")
			}

			s := seed
			if !cmd.Flags().Changed("seed") {
				s = plan.Seed
				if s == 0 {
					s = cfg.Seed
				}
			}

			summaries, err := synth.Augment(wb, *plan, synth.NewGenerator(s))
			if err != nil {
				return err
			}
			if out == "" {
				out = filepath.Join(filepath.Dir(path), web.SyntheticName(path))
			}
			if err := wb.SaveAs(out); err != nil {
				return err
			}

			for _, sum := range summaries {
				log.Debug("sheet augmented", "sheet", sum.Sheet, "added", sum.Added)
				fmt.Fprintf(cmd.OutOrStdout(), "%s: added %d rows (%d total)\n", sum.Sheet, sum.Added, sum.Total)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Workbook saved as %s\n", out)
			return nil
		},
	}
	cmd.Flags().StringVar(&planPath, "plan", "", "YAML plan with per-sheet row counts and column rules")
	cmd.Flags().StringArrayVar(&sheets, "sheet", nil, "sheet to augment with default rules (repeatable)")
	cmd.Flags().IntSliceVar(&rows, "rows", nil, "rows to add, one per --sheet or a single count for all")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "choose sheets and column rules with prompts")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "random seed (default from the plan or DATASMITH_SEED; 0 is random)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output workbook (default <name>_synthetic.xlsx next to the input)")
	return cmd
}

// planFromFlags pairs --sheet and --rows into a plan with default rules.
func planFromFlags(sheets []string, rows []int) (*synth.Plan, error) {
	if len(rows) != len(sheets) && len(rows) != 1 {
		return nil, fmt.Errorf("got %d --rows values for %d sheets", len(rows), len(sheets))
	}
	plan := &synth.Plan{}
	for i, sheet := range sheets {
		n := rows[0]
		if len(rows) > 1 {
			n = rows[i]
		}
		if n < 1 {
			return nil, &synth.RuleError{Sheet: sheet, Err: fmt.Errorf("%w: %d", synth.ErrRowCount, n)}
		}
		plan.Sheets = append(plan.Sheets, synth.SheetPlan{Sheet: sheet, Rows: n})
	}
	return plan, nil
}
