package main

import (
	"fmt"
	"strings"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/hupe1980/vecrow"
	"github.com/hupe1980/vecrow/access"
)

const queryLongDesc string = `Run a similarity query.

The argument is either a SemanticQL statement or plain text searched with
--top results. The active index answers to the space "default" and to "*".

  FIND SIMILAR "<text>" IN <space> [TOP n]

With --roles the results are gated like a caller holding those RACI roles:
only responsible or accountable callers see hits.

Example:
  vecrow query 'FIND SIMILAR "payment failed" IN default TOP 3'
  vecrow query "payment failed" --top 3 --roles informed
  vecrow query "payment failed" --json`

type queryCommander struct {
	root   *rootCommander
	topK   int
	roles  string
	asJSON bool
}

func newQueryCmd(r *rootCommander) *cobra.Command {
	c := &queryCommander{root: r}

	cmd := &cobra.Command{
		Use:   "query <statement|text>",
		Short: "Run a similarity query",
		Long:  queryLongDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, args[0])
		},
	}

	cmd.Flags().IntVarP(&c.topK, "top", "k", 5, "Number of results for plain-text queries")
	cmd.Flags().StringVar(&c.roles, "roles", "", "Comma-separated RACI roles of the caller")
	cmd.Flags().BoolVar(&c.asJSON, "json", false, "Print results as JSON lines")

	return cmd
}

func (c *queryCommander) run(cmd *cobra.Command, input string) error {
	ctx := cmd.Context()

	var opts []vecrow.Option
	if c.roles != "" {
		roles, err := access.ParseRoles(c.roles)
		if err != nil {
			return err
		}
		opts = append(opts, vecrow.WithAccess(access.NewPersona("cli", roles)))
	}

	db, err := c.root.openDB(ctx, false, opts...)
	if err != nil {
		return err
	}
	defer db.Close()

	var results []vecrow.Result
	if strings.HasPrefix(strings.TrimSpace(input), "FIND") {
		results, err = db.Query(ctx, input)
	} else {
		results, err = db.Search(ctx, input, c.topK)
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if c.asJSON {
		enc := json.NewEncoder(out)
		for _, r := range results {
			if err := enc.Encode(r); err != nil {
				return err
			}
		}
		return nil
	}

	if len(results) == 0 {
		fmt.Fprintln(out, "No results found.")
		return nil
	}
	for i, r := range results {
		text := ""
		if r.Row != nil {
			text, _ = r.Row.Row.Payload.Text()
		}
		fmt.Fprintf(out, "%2d. %-20s %.4f  %s\n", i+1, r.Key, r.Score, text)
	}
	return nil
}
