package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/hupe1980/vecrow"
	"github.com/hupe1980/vecrow/model"
)

const ingestLongDesc string = `Insert rows from JSON documents, one per line or concatenated.

Each document has a key and a payload. A string payload field "text" is
embedded. A missing txn gets a random transaction id.

  {"key": "doc-1", "payload": {"text": "quarterly revenue grew"}}

Reads stdin when no file or "-" is given. After every segment_size_mb of
input the pending versions are flushed to a segment.

Example:
  vecrow ingest rows.jsonl
  cat rows.jsonl | vecrow ingest --flush`

type ingestRecord struct {
	Key     model.RowKey   `json:"key"`
	Txn     *model.TxnID   `json:"txn,omitempty"`
	Payload model.Document `json:"payload"`
}

type ingestCommander struct {
	root  *rootCommander
	flush bool
}

func newIngestCmd(r *rootCommander) *cobra.Command {
	c := &ingestCommander{root: r}

	cmd := &cobra.Command{
		Use:   "ingest [file...]",
		Short: "Insert JSON rows",
		Long:  ingestLongDesc,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, args)
		},
	}

	cmd.Flags().BoolVar(&c.flush, "flush", false, "Flush pending versions when done")

	return cmd
}

func (c *ingestCommander) run(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	db, err := c.root.openDB(ctx, true)
	if err != nil {
		return err
	}
	defer db.Close()

	if len(args) == 0 {
		args = []string{"-"}
	}

	threshold := int64(c.root.cfg.SegmentSizeMB) << 20
	total := 0

	for _, name := range args {
		n, err := c.ingestFile(ctx, db, cmd.InOrStdin(), name, threshold)
		total += n
		if err != nil {
			return err
		}
	}

	if c.flush {
		if _, err := db.Flush(ctx); err != nil {
			return err
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "ingested %d rows, clock at %d\n", total, db.Now())
	return nil
}

func (c *ingestCommander) ingestFile(ctx context.Context, db *vecrow.DB, stdin io.Reader, name string, threshold int64) (int, error) {
	var r io.Reader = stdin
	if name != "-" {
		f, err := os.Open(name)
		if err != nil {
			return 0, err
		}
		defer f.Close()
		r = f
	}

	counter := &countingReader{r: r}
	dec := json.NewDecoder(counter)

	var (
		rows      int
		lastFlush int64
	)
	for {
		var rec ingestRecord
		if err := dec.Decode(&rec); err != nil {
			if errors.Is(err, io.EOF) {
				return rows, nil
			}
			return rows, fmt.Errorf("%s: record %d: %w", name, rows+1, err)
		}
		if rec.Key == "" {
			return rows, fmt.Errorf("%s: record %d: missing key", name, rows+1)
		}

		txn := vecrow.NewTxnID()
		if rec.Txn != nil {
			txn = *rec.Txn
		}
		if err := db.Insert(ctx, txn, model.Row{Key: rec.Key, Payload: rec.Payload}); err != nil {
			return rows, err
		}
		rows++

		if threshold > 0 && counter.n-lastFlush >= threshold {
			if _, err := db.Flush(ctx); err != nil {
				return rows, err
			}
			lastFlush = counter.n
		}
	}
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
