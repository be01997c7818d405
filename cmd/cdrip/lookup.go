package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newLookupCmd(a *app) *cobra.Command {
	var refresh bool
	cmd := &cobra.Command{
		Use:   "lookup",
		Short: "Look the disc up in CDDB and list the candidates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := a.openDisc()
			if err != nil {
				return err
			}
			defer closeDisc(a, ds)

			db, err := a.openStore()
			if err != nil {
				return err
			}
			defer db.Close()

			res, err := a.lookup(ds, db, refresh)
			if err != nil {
				return err
			}
			defer res.Release()

			w := cmd.OutOrStdout()
			if res.Len() == 0 {
				fmt.Fprintf(w, "no match for disc %s\n", res.DiscID)
				return nil
			}
			fmt.Fprintf(w, "disc %s: %d match(es)\n", res.DiscID, res.Len())
			for i, rec := range res.Records() {
				printRecord(w, i, rec)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&refresh, "refresh", false, "query the service even if the disc is cached")
	return cmd
}
