package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

const flushLongDesc string = `Write the versions since the last flush to a new row and column segment.

The segment is recorded in the manifest under data_dir and, when an archive
is configured, copied there together with the manifest.`

func newFlushCmd(r *rootCommander) *cobra.Command {
	return &cobra.Command{
		Use:   "flush",
		Short: "Flush pending versions to a segment",
		Long:  flushLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			db, err := r.openDB(ctx, true)
			if err != nil {
				return err
			}
			defer db.Close()

			seg, err := db.Flush(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if seg == nil {
				fmt.Fprintln(out, "nothing to flush")
				return nil
			}
			fmt.Fprintf(out, "segment %s: %d rows, ts [%d, %d]\n", seg.ID, seg.Rows, seg.MinTS, seg.MaxTS)
			return nil
		},
	}
}
