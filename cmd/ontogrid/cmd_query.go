package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/magpierre/ontogrid/internal/source"
)

var (
	queryFlags    gridFlags
	endpoint      string
	queryFile     string
	resultPath    string
	variablesJSON string
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Run a GraphQL query and export the resulting rows",
	Long: `Post a GraphQL query, take the list of objects at --path and run it
through the same filter, sort and export pipeline as "export". Nested
objects become dotted columns.`,
	Example: `  ontogrid query --endpoint http://localhost:8080/graphql --query people.graphql --path data.people --sort name`,
	Args:    cobra.NoArgs,
	RunE:    runQuery,
}

func init() {
	queryFlags.register(queryCmd)
	queryCmd.Flags().StringVar(&endpoint, "endpoint", "", "GraphQL endpoint (default: graphql.endpoint from config)")
	queryCmd.Flags().StringVarP(&queryFile, "query", "q", "", "File holding the GraphQL query")
	queryCmd.Flags().StringVar(&resultPath, "path", "", "Dotted path to the result list, e.g. data.objects.items")
	queryCmd.Flags().StringVar(&variablesJSON, "variables", "", "Query variables as a JSON object")
	_ = queryCmd.MarkFlagRequired("query")
}

func runQuery(cmd *cobra.Command, args []string) error {
	url := endpoint
	if url == "" {
		url = cfg.GraphQL.Endpoint
	}
	if url == "" {
		return fmt.Errorf("no GraphQL endpoint: set --endpoint or graphql.endpoint")
	}

	query, err := os.ReadFile(queryFile)
	if err != nil {
		return fmt.Errorf("failed to read query: %w", err)
	}

	var vars map[string]any
	if variablesJSON != "" {
		if err := json.Unmarshal([]byte(variablesJSON), &vars); err != nil {
			return fmt.Errorf("invalid --variables: %w", err)
		}
	}

	g := &source.GraphQL{
		Endpoint:  url,
		Query:     string(query),
		Variables: vars,
		Path:      resultPath,
		Timeout:   cfg.GraphQL.Timeout,
		Logger:    logger,
	}
	table, err := g.Load(cmdContext(cmd))
	if err != nil {
		return err
	}
	return runGrid(cmd, table, queryFlags)
}
