package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hupe1980/vecrow/engine"
)

const replayLongDesc string = `Replay the write-ahead log and report what it holds.

Replay rebuilds the memtable and index in memory; nothing is written. With
--dump the newest version of every key is printed.`

type replayCommander struct {
	root *rootCommander
	dump bool
}

func newReplayCmd(r *rootCommander) *cobra.Command {
	c := &replayCommander{root: r}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay the WAL",
		Long:  replayLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.run(cmd)
		},
	}

	cmd.Flags().BoolVar(&c.dump, "dump", false, "Print the newest version of every key")

	return cmd
}

func (c *replayCommander) run(cmd *cobra.Command) error {
	cfg := c.root.cfg

	e, err := engine.New(c.root.newEmbedder(), func(o *engine.Options) {
		o.WALPath = c.root.walPath()
		o.CompressWAL = cfg.CompressWAL
		o.Logger = c.root.logger.Logger
		if cfg.Index == "flat" {
			o.IndexKind = engine.IndexFlat
		}
	})
	if err != nil {
		return err
	}
	defer e.Close()

	stats, err := e.Recover(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "records:      %d\n", stats.Records)
	fmt.Fprintf(out, "inserts:      %d\n", stats.Inserts)
	fmt.Fprintf(out, "checkpoints:  %d\n", stats.Checkpoints)
	fmt.Fprintf(out, "max ts:       %d\n", stats.MaxTS)
	fmt.Fprintf(out, "checkpoint:   %d\n", stats.CheckpointTS)
	fmt.Fprintf(out, "clock:        %d\n", e.Now())
	fmt.Fprintf(out, "indexed:      %d\n", e.Index().Len())

	if c.dump {
		for _, v := range e.Scan(e.Now()) {
			fmt.Fprintf(out, "%s txn=%d %v\n", v, v.TxnID, v.Row.Payload)
		}
	}
	return nil
}
