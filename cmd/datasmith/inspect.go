package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/thywilljoshua/datasmith/internal/table"
	"github.com/thywilljoshua/datasmith/internal/workbook"
)

func inspectCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "inspect <xlsx>",
		Short: "List the sheets of a workbook with each column's kind",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			wb, err := workbook.Open(args[0])
			if err != nil {
				return err
			}
			defer wb.Close()

			frames, err := wb.Frames()
			if err != nil {
				return err
			}
			if asJSON {
				b, _ := json.MarshalIndent(frames, "", "  ")
				fmt.Fprintln(cmd.OutOrStdout(), string(b))
				return nil
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			for _, f := range frames {
				fmt.Fprintf(tw, "%s\t(%d rows)\n", f.Sheet, f.Rows)
				for _, c := range f.Columns {
					fmt.Fprintf(tw, "  %s\t%s\t%d values\t%d empty%s\n", c.Name, c.Kind, c.Count(), c.Nulls, columnFlags(c))
				}
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the sheet summaries as JSON")
	return cmd
}

func columnFlags(c table.Column) string {
	switch {
	case c.Kind == table.KindNumeric && c.Integral:
		return "\tintegers"
	case c.Kind == table.KindDatetime && c.DateOnly:
		return "\tdates"
	}
	return ""
}
