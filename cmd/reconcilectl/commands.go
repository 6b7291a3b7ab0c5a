package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/reconciler/internal/domain/query"
	"github.com/kailas-cloud/reconciler/internal/logger"
	"github.com/kailas-cloud/reconciler/internal/usecase/reconcile"
)

func newQueryCmd() *cobra.Command {
	var (
		entityType string
		limit      int
		props      []string
	)
	cmd := &cobra.Command{
		Use:   "query <text>",
		Short: "Reconcile one text against an entity type",
		Example: `  reconcilectl query "Biskupin" --type site --prop lat=52.79 --prop lon=17.73
  reconcilectl query "978-0-19-953556-9" --type reference --prop isbn=9780199535569`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			properties, err := parseProps(props)
			if err != nil {
				return err
			}
			a, log, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			defer func() { _ = log.Sync() }()

			ctx := logger.ContextWithLogger(cmd.Context(), log)
			envs, err := a.Reconcile.ReconcileOne(ctx, reconcile.Item{
				ID:         "q0",
				Text:       args[0],
				Type:       entityType,
				Limit:      limit,
				Properties: properties,
			})
			if err != nil {
				return err
			}
			return writeResults(cmd.OutOrStdout(), []reconcile.Result{{ID: "q0", Candidates: envs}}, outputJSON)
		},
	}
	cmd.Flags().StringVarP(&entityType, "type", "t", "", "Entity type key")
	cmd.Flags().IntVarP(&limit, "limit", "l", 0, "Maximum number of candidates (default from config)")
	cmd.Flags().StringArrayVarP(&props, "prop", "p", nil, "Query property as key=value (repeatable)")
	_ = cmd.MarkFlagRequired("type")
	return cmd
}

func newBatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "batch <file>",
		Short: "Reconcile a YAML or JSON list of queries",
		Long: `batch reads a list of queries and reconciles them in file order:

  - id: q0
    query: Biskupin
    type: site
    limit: 5
    properties:
      lat: "52.79"
      lon: "17.73"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := readBatchFile(args[0])
			if err != nil {
				return err
			}
			a, log, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			defer func() { _ = log.Sync() }()

			ctx := logger.ContextWithLogger(cmd.Context(), log)
			results, err := a.Reconcile.Reconcile(ctx, items)
			if err != nil {
				return err
			}
			return writeResults(cmd.OutOrStdout(), results, outputJSON)
		},
	}
}

func newTypesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "types",
		Short: "List the registered entity types",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, log, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			defer func() { _ = log.Sync() }()
			return writeTypes(cmd.OutOrStdout(), a.Reconcile.Types(), outputJSON)
		},
	}
}

func newDetailsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "details <type> <id>",
		Short: "Show the stored record of one entity",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, log, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			defer func() { _ = log.Sync() }()

			ctx := logger.ContextWithLogger(cmd.Context(), log)
			d, err := a.Reconcile.Details(ctx, args[0], args[1])
			if err != nil {
				return err
			}
			return writeDetails(cmd.OutOrStdout(), d, outputJSON)
		},
	}
}

// parseProps turns ["lat=52.1", "place=Gniezno"] into a property map.
func parseProps(in []string) (query.Properties, error) {
	out := make(query.Properties, len(in))
	for _, kv := range in {
		k, v, ok := strings.Cut(kv, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("property %q: expected key=value", kv)
		}
		out[k] = v
	}
	return out, nil
}

type batchEntry struct {
	ID         string            `yaml:"id"`
	Query      string            `yaml:"query"`
	Type       string            `yaml:"type"`
	Limit      int               `yaml:"limit"`
	Properties map[string]string `yaml:"properties"`
}

// readBatchFile parses a batch file. JSON is valid YAML, so one decoder serves both.
// Entries without an id get q<index>.
func readBatchFile(path string) ([]reconcile.Item, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read batch file: %w", err)
	}
	var entries []batchEntry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse batch file %s: %w", path, err)
	}
	items := make([]reconcile.Item, len(entries))
	for i, e := range entries {
		id := e.ID
		if id == "" {
			id = fmt.Sprintf("q%d", i)
		}
		items[i] = reconcile.Item{
			ID:         id,
			Text:       e.Query,
			Type:       e.Type,
			Limit:      e.Limit,
			Properties: query.Properties(e.Properties),
		}
	}
	return items, nil
}
