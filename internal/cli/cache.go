package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "List models in the local cache",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		r := newResolver()
		entries, err := r.Cached()
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "no cached models in %s\n", cfg.Hub.CacheDir)
			return nil
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "MODEL\tREVISION\tREF\tFILES\tCOMPLETE\tFETCHED")
		for _, e := range entries {
			ref := e.Ref
			if ref == "" {
				ref = "-"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%v\t%s\n", e.ID, e.Revision, ref, len(e.Files), e.Complete(), e.FetchedAt.Format(time.RFC3339))
		}
		return tw.Flush()
	},
}

func init() {
	rootCmd.AddCommand(cacheCmd)
}
