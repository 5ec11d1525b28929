package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/crimson-sun/clinote/internal/engine/labelmap"
)

var labelsJSON bool

var labelsCmd = &cobra.Command{
	Use:   "labels",
	Short: "Print the label to disease-category table",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		entries := labelmap.Entries()
		if labelsJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(entries)
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "LABEL\tDESCRIPTION")
		for _, e := range entries {
			fmt.Fprintf(tw, "%s\t%s\n", e.Label, e.Description)
		}
		fmt.Fprintf(tw, "(other)\t%s\n", labelmap.Unknown)
		return tw.Flush()
	},
}

func init() {
	rootCmd.AddCommand(labelsCmd)
	labelsCmd.Flags().BoolVar(&labelsJSON, "json", false, "output as JSON")
}
