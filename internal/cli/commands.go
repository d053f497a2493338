package cli

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/polydb-io/polydb/pkg/provider"
)

func newEnginesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "engines",
		Short: "List the supported database engines",
		RunE: func(cmd *cobra.Command, args []string) error {
			records := []provider.Record{}
			for _, engine := range provider.ListRegistered() {
				caps := provider.All[engine]
				rec := provider.NewRecord()
				rec.Set("engine", string(engine))
				rec.Set("model", string(caps.Model))
				rec.Set("sql", caps.SupportsSQL)
				rec.Set("import", caps.SupportsImport)
				rec.Set("server_sort", caps.ServerSideSort)
				records = append(records, rec)
			}
			format, _ := cmd.Flags().GetString("format")
			return renderRecords(cmd.OutOrStdout(), records, format)
		},
	}
}

func newTablesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tables",
		Short: "List tables, collections or key prefixes",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withConnection(cmd, func(ctx context.Context, conn provider.Connection) error {
				tables, err := conn.ListTables(ctx)
				if err != nil {
					return err
				}
				records := make([]provider.Record, 0, len(tables))
				for _, t := range tables {
					rec := provider.NewRecord()
					rec.Set("table", t)
					records = append(records, rec)
				}
				format, _ := cmd.Flags().GetString("format")
				return renderRecords(cmd.OutOrStdout(), records, format)
			})
		},
	}
}

func newRowsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rows <table>",
		Short: "Fetch a page of records",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt64("limit")
			offset, _ := cmd.Flags().GetInt64("offset")
			sortSpec, _ := cmd.Flags().GetString("sort")

			opts := provider.FetchOptions{Offset: offset}
			if cmd.Flags().Changed("limit") {
				opts.Limit = provider.Limit(limit)
			}
			keys, err := parseSortSpec(sortSpec)
			if err != nil {
				return err
			}
			opts.Sort = keys

			return withConnection(cmd, func(ctx context.Context, conn provider.Connection) error {
				records, err := conn.GetRecords(ctx, args[0], opts)
				if err != nil {
					return err
				}
				format, _ := cmd.Flags().GetString("format")
				return renderRecords(cmd.OutOrStdout(), records, format)
			})
		},
	}
	cmd.Flags().Int64("limit", 0, "maximum records to fetch (unset fetches all)")
	cmd.Flags().Int64("offset", 0, "records to skip")
	cmd.Flags().String("sort", "", "sort spec, e.g. id or age:desc,name:asc")
	return cmd
}

func newCountCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "count <table>",
		Short: "Count the records of a table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withConnection(cmd, func(ctx context.Context, conn provider.Connection) error {
				count, err := conn.GetRecordCount(ctx, args[0])
				if err != nil {
					return err
				}
				rec := provider.NewRecord()
				rec.Set("count", count)
				format, _ := cmd.Flags().GetString("format")
				return renderRecords(cmd.OutOrStdout(), []provider.Record{rec}, format)
			})
		},
	}
}

func newQueryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query <text>",
		Short: "Run a query in the engine's native syntax",
		Long: `Run free-form query text: SQL for relational engines, shell-style
find/countDocuments for MongoDB, a redis-cli command for Redis. The text
runs with the connection's full privileges.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tableName, _ := cmd.Flags().GetString("table")
			limit, _ := cmd.Flags().GetInt64("limit")

			qctx := provider.QueryContext{TableName: tableName}
			if cmd.Flags().Changed("limit") {
				qctx.Limit = provider.Limit(limit)
			}

			return withConnection(cmd, func(ctx context.Context, conn provider.Connection) error {
				records, err := conn.RunQuery(ctx, args[0], qctx)
				if err != nil {
					return err
				}
				format, _ := cmd.Flags().GetString("format")
				return renderRecords(cmd.OutOrStdout(), records, format)
			})
		},
	}
	cmd.Flags().String("table", "", "context table for bare filter queries")
	cmd.Flags().Int64("limit", 0, "cap the number of returned records")
	return cmd
}

func newUpdateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <table>",
		Short: "Apply a partial update to matching records",
		Long: `Apply --set changes to the records matching the --where filter. Both
are required: an empty filter or an empty update set is rejected before
anything reaches the database.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			setPairs, _ := cmd.Flags().GetStringArray("set")
			wherePairs, _ := cmd.Flags().GetStringArray("where")

			updates, err := parseAssignments(setPairs)
			if err != nil {
				return err
			}
			where, err := parseAssignments(wherePairs)
			if err != nil {
				return err
			}

			return withConnection(cmd, func(ctx context.Context, conn provider.Connection) error {
				result, err := conn.UpdateRecord(ctx, args[0], provider.Identifier(where), updates)
				if err != nil {
					return err
				}
				slog.Info("update applied", "table", args[0], "affected", result.AffectedCount)
				rec := provider.NewRecord()
				rec.Set("success", result.Success)
				rec.Set("affected", result.AffectedCount)
				format, _ := cmd.Flags().GetString("format")
				return renderRecords(cmd.OutOrStdout(), []provider.Record{rec}, format)
			})
		},
	}
	cmd.Flags().StringArray("set", nil, "column=value to change (repeatable)")
	cmd.Flags().StringArray("where", nil, "column=value filter (repeatable)")
	return cmd
}

func newExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export <table> <destination>",
		Short: "Export a table to a CSV or JSON file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withConnection(cmd, func(ctx context.Context, conn provider.Connection) error {
				path, err := conn.ExportTable(ctx, args[0], args[1], nil)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "exported %s to %s\n", args[0], path)
				return nil
			})
		},
	}
}

func newImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <table> <source>",
		Short: "Import a CSV or JSON file into a table",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withConnection(cmd, func(ctx context.Context, conn provider.Connection) error {
				inserted, err := conn.ImportTable(ctx, args[0], args[1])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "imported %d records into %s\n", inserted, args[0])
				return nil
			})
		},
	}
}

// parseSortSpec parses "col", "col:asc" or "col1:desc,col2" into sort keys.
func parseSortSpec(spec string) ([]provider.SortKey, error) {
	if strings.TrimSpace(spec) == "" {
		return nil, nil
	}
	var keys []provider.SortKey
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		column, dir, found := strings.Cut(part, ":")
		key := provider.SortKey{Column: column, Direction: provider.Ascending}
		if found {
			switch strings.ToLower(dir) {
			case "asc":
			case "desc":
				key.Direction = provider.Descending
			default:
				return nil, fmt.Errorf("invalid sort direction %q in %q", dir, part)
			}
		}
		if key.Column == "" {
			return nil, fmt.Errorf("empty column in sort spec %q", spec)
		}
		keys = append(keys, key)
	}
	return keys, nil
}

// parseAssignments parses repeated column=value flags. Values stay strings;
// the engine coerces them.
func parseAssignments(pairs []string) (map[string]any, error) {
	out := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		column, value, found := strings.Cut(pair, "=")
		if !found || column == "" {
			return nil, fmt.Errorf("invalid assignment %q, expected column=value", pair)
		}
		out[column] = value
	}
	return out, nil
}

// sortedColumns is used by tests to compare assignment maps.
func sortedColumns(m map[string]any) []string {
	cols := make([]string, 0, len(m))
	for c := range m {
		cols = append(cols, c)
	}
	sort.Strings(cols)
	return cols
}
