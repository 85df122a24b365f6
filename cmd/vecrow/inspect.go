package main

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/hupe1980/vecrow/blobstore"
	"github.com/hupe1980/vecrow/engine"
	"github.com/hupe1980/vecrow/internal/manifest"
	"github.com/hupe1980/vecrow/segment"
)

const inspectLongDesc string = `Show the manifest and its segments.

With --segment the rows and column zone maps of one segment are printed.
With --key the segments holding a row key are located; segments whose key
zone map rules the key out are skipped without scanning.
With --versions all manifest versions are listed.`

type inspectCommander struct {
	root     *rootCommander
	segment  string
	key      string
	versions bool
}

func newInspectCmd(r *rootCommander) *cobra.Command {
	c := &inspectCommander{root: r}

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Show the manifest and segments",
		Long:  inspectLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.run(cmd)
		},
	}

	cmd.Flags().StringVar(&c.segment, "segment", "", "Segment ID to print")
	cmd.Flags().StringVar(&c.key, "key", "", "Row key to locate in flushed segments")
	cmd.Flags().BoolVar(&c.versions, "versions", false, "List all manifest versions")

	return cmd
}

func (c *inspectCommander) run(cmd *cobra.Command) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	dataDir := c.root.cfg.DataDir

	store := manifest.NewStore(blobstore.NewLocalStore(dataDir), nil)

	if c.versions {
		ms, err := store.ListVersions(ctx)
		if err != nil {
			return err
		}
		for _, m := range ms {
			fmt.Fprintf(out, "%s  segments=%d checkpoint=%d  %s\n",
				manifest.FileName(m.ID), len(m.Segments), m.CheckpointTS, m.CreatedAt.Format("2006-01-02T15:04:05Z07:00"))
		}
		return nil
	}

	m, err := store.Load(ctx)
	if errors.Is(err, manifest.ErrNotFound) {
		fmt.Fprintln(out, "no manifest")
		return nil
	}
	if err != nil {
		return err
	}

	if c.segment != "" {
		for _, s := range m.Segments {
			if s.ID == c.segment {
				return printSegment(out, dataDir, s)
			}
		}
		return fmt.Errorf("segment %q not found", c.segment)
	}

	if c.key != "" {
		return findKey(out, dataDir, m.Segments, c.key)
	}

	fmt.Fprintf(out, "manifest:     %d\n", m.ID)
	fmt.Fprintf(out, "dims:         %d\n", m.Dims)
	fmt.Fprintf(out, "index:        %s\n", m.Index)
	fmt.Fprintf(out, "checkpoint:   %d\n", m.CheckpointTS)
	fmt.Fprintf(out, "rows:         %d\n", m.Rows())
	for _, s := range m.Segments {
		fmt.Fprintf(out, "  %s  rows=%d ts=[%d,%d]\n", s.ID, s.Rows, s.MinTS, s.MaxTS)
	}
	return nil
}

func printSegment(out io.Writer, dataDir string, s manifest.Segment) error {
	rs, err := segment.OpenRowSegment(filepath.Join(dataDir, filepath.FromSlash(s.RowPath)))
	if err != nil {
		return err
	}
	defer rs.Close()

	_, rows, err := rs.Iter()
	if err != nil {
		return err
	}
	for _, v := range rows {
		fmt.Fprintf(out, "%s txn=%d %v\n", v, v.TxnID, v.Row.Payload)
	}

	cs, err := segment.ReadColumnSegment(filepath.Join(dataDir, filepath.FromSlash(s.ColumnPath)))
	if err != nil {
		return err
	}
	for _, name := range []string{engine.ColumnKey, engine.ColumnText} {
		col, ok := cs.Column(name)
		if !ok {
			continue
		}
		z := col.ZoneMap
		fmt.Fprintf(out, "column %-5s values=%d len=[%d,%d]", name, col.Len(), z.MinLen, z.MaxLen)
		if z.MinTS != nil && z.MaxTS != nil {
			fmt.Fprintf(out, " ts=[%d,%d]", *z.MinTS, *z.MaxTS)
		}
		fmt.Fprintln(out)
	}
	return nil
}

func findKey(out io.Writer, dataDir string, segs []manifest.Segment, key string) error {
	found, pruned := 0, 0
	for _, s := range segs {
		cs, err := segment.ReadColumnSegment(filepath.Join(dataDir, filepath.FromSlash(s.ColumnPath)))
		if err != nil {
			return err
		}
		col, ok := cs.Column(engine.ColumnKey)
		if !ok {
			return fmt.Errorf("segment %s has no %q column", s.ID, engine.ColumnKey)
		}
		if !col.ZoneMap.MayContainLen(uint32(len(key))) {
			pruned++
			continue
		}
		for i := range col.Len() {
			v, err := col.Value(i)
			if err != nil {
				return err
			}
			if v == key {
				fmt.Fprintf(out, "%s row %d\n", s.ID, i)
				found++
			}
		}
	}
	fmt.Fprintf(out, "%d match(es), %d of %d segment(s) pruned\n", found, pruned, len(segs))
	return nil
}
