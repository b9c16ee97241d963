package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/koustreak/sqldesk/internal/builder"
	"github.com/koustreak/sqldesk/internal/errs"
)

func compileCmd() *cobra.Command {
	var (
		joinType string
		alias    bool
	)
	cmd := &cobra.Command{
		Use:   "compile [canvas.json]",
		Short: "Print the SQL for a query-builder canvas",
		Long: "Reads a canvas document ({nodes, edges, joinType}) from the given file, " +
			"or stdin when none is given, and prints the SELECT it compiles to.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := cmd.InOrStdin()
			if len(args) == 1 && args[0] != "-" {
				fh, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer fh.Close()
				in = fh
			}

			c, err := readCanvas(in)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("join") {
				c.JoinType = joinType
			}
			if alias {
				c.Alias = true
			}

			sql, err := c.Compile()
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), sql)
			return err
		},
	}

	cmd.Flags().StringVar(&joinType, "join", "", "join kind: JOIN, LEFT JOIN or RIGHT JOIN")
	cmd.Flags().BoolVar(&alias, "alias", false, "alias every table (t1, t2, ...)")
	return cmd
}

func readCanvas(r io.Reader) (builder.Canvas, error) {
	var c builder.Canvas
	if err := json.NewDecoder(r).Decode(&c); err != nil {
		return c, errs.Wrap(errs.ErrKindInvalidInput, "invalid canvas document", err)
	}
	return c, nil
}
