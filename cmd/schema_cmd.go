package main

import (
	"fmt"

	"github.com/Vovarama1992/vidcatalog/internal/infra"
	"github.com/spf13/cobra"
)

func newSchemaCmd() *cobra.Command {
	var backend, keyspace string

	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Print the DDL a store backend expects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			stmts, err := infra.Schema(backend, keyspace)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, s := range stmts {
				if _, err := fmt.Fprintf(out, "%s;\n\n", s); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&backend, "backend", infra.BackendCassandra, "cassandra | postgres | sqlite")
	cmd.Flags().StringVar(&keyspace, "keyspace", "cassandra_duombaze", "cassandra keyspace")
	return cmd
}
