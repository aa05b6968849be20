// Command filterctl inspects the listing dataset and runs filter
// predicates against it without the HTTP server or a model.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"travelchat/internal/catalog"
	"travelchat/internal/config"
	"travelchat/internal/filter"
	"travelchat/internal/model"
	"travelchat/internal/repository"
	"travelchat/internal/service"
)

var opts struct {
	dataset  string
	dsn      string
	table    string
	manifest string
	limit    int
}

var rootCmd = &cobra.Command{
	Use:           "filterctl",
	Short:         "Inspect the listing dataset and try filter predicates",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.dataset, "dataset", "", "dataset file (csv, compressed csv or xlsx); defaults to DATASET_PATH")
	flags.StringVar(&opts.dsn, "dsn", "", "PostgreSQL connection string; overrides --dataset")
	flags.StringVar(&opts.table, "table", "listings", "table to read when --dsn is set")
	flags.StringVar(&opts.manifest, "manifest", "", "column manifest; defaults to the built-in one")

	schemaCmd := &cobra.Command{
		Use:   "schema",
		Short: "List the dataset columns with their type and label",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := loadSnapshot(cmd.Context())
			if err != nil {
				return err
			}
			return printSchema(cmd.OutOrStdout(), snap.Schema)
		},
	}

	compileCmd := &cobra.Command{
		Use:   "compile <predicate>",
		Short: "Validate a predicate and print its canonical form",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := loadSnapshot(cmd.Context())
			if err != nil {
				return err
			}
			expr, err := filter.Compile(args[0], snap.Schema)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, expr.String())
			fmt.Fprintln(out, "columns:", strings.Join(expr.Columns(), ", "))
			return nil
		},
	}

	queryCmd := &cobra.Command{
		Use:   "query <predicate>",
		Short: "Run a predicate and print the chat response it would produce",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := loadSnapshot(cmd.Context())
			if err != nil {
				return err
			}
			return runQuery(cmd.OutOrStdout(), snap, args[0], opts.limit)
		},
	}
	queryCmd.Flags().IntVar(&opts.limit, "limit", 0, "print at most this many listings (0 prints all)")

	rootCmd.AddCommand(schemaCmd, compileCmd, queryCmd)
}

func loadSnapshot(ctx context.Context) (*repository.Snapshot, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	manifest, err := catalog.LoadManifest(opts.manifest)
	if err != nil {
		return nil, err
	}

	cfg := config.DatasetConfig{
		Path:               opts.dataset,
		DSN:                opts.dsn,
		Table:              opts.table,
		MaxConnections:     1,
		MaxIdleConnections: 1,
	}
	if cfg.Path == "" && cfg.DSN == "" {
		cfg.Path = os.Getenv("DATASET_PATH")
	}
	source, err := repository.NewSource(cfg)
	if err != nil {
		return nil, err
	}
	return repository.NewLoader(source, manifest).Load(ctx)
}

func printSchema(w io.Writer, schema *catalog.Schema) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "COLUMN\tTYPE\tLABEL")
	for _, col := range schema.Columns() {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", filter.QuoteColumn(col.Name), col.Type, schema.Label(col.Name))
	}
	return tw.Flush()
}

// runQuery prints the response envelope for predicate. A rejected predicate
// is printed as an error envelope and also returned.
func runQuery(w io.Writer, snap *repository.Snapshot, predicate string, limit int) error {
	var (
		filters []string
		runErr  error
		status  int
		body    model.ChatResponse
	)

	expr, err := filter.Compile(predicate, snap.Schema)
	if err != nil {
		runErr = err
		status, body = service.BuildResponse(nil, nil, &service.Error{Class: service.ClassCompile, Message: err.Error(), Err: err})
	} else {
		rows := filter.Evaluate(expr, snap.Table)
		if limit > 0 && len(rows) > limit {
			rows = rows[:limit]
		}
		filters = service.NewDisplayNameResolver(snap.Schema).Resolve(expr.Columns())
		listings, err := service.NewProjector(snap.Schema.Projection()).Project(rows, snap.Table)
		runErr = err
		status, body = service.BuildResponse(filters, listings, err)
	}

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(body); err != nil {
		return err
	}
	if runErr != nil {
		return fmt.Errorf("status %d: %w", status, runErr)
	}
	return nil
}
