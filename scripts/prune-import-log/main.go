// prune-import-log removes old import batches of one project from the
// engine import log. Audit log entries are never touched.
//
// Usage: go run ./scripts/prune-import-log [flags] <project-id>
//
// Database connection: Uses standard PG* environment variables
//
// Flags:
//
//	-dry-run      Show what would be deleted without actually deleting (default: true)
//	-older-than   Only batches started before now minus this duration (default: 2160h, 90 days)
//	-status       Only batches with this status, e.g. failed (default: all)
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var validStatuses = map[string]bool{
	"":        true,
	"success": true,
	"partial": true,
	"failed":  true,
}

func main() {
	dryRun := flag.Bool("dry-run", true, "Show what would be deleted without actually deleting")
	olderThan := flag.Duration("older-than", 90*24*time.Hour, "Only batches started before now minus this duration")
	status := flag.String("status", "", "Only batches with this status (success, partial, failed)")
	flag.Parse()

	args := flag.Args()
	if len(args) < 1 {
		fmt.Fprintf(os.Stderr, "Usage: %s [-dry-run=false] [-older-than=720h] [-status=failed] <project-id>\n", os.Args[0])
		os.Exit(1)
	}

	projectID, err := uuid.Parse(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid project ID: %v\n", err)
		os.Exit(1)
	}
	if !validStatuses[*status] {
		fmt.Fprintf(os.Stderr, "Invalid status %q\n", *status)
		os.Exit(1)
	}
	cutoff := time.Now().Add(-*olderThan)

	ctx := context.Background()

	conn, err := pgx.Connect(ctx, buildConnString())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer conn.Close(ctx)

	// Set RLS context for project
	if _, err := conn.Exec(ctx, "SELECT set_config('app.current_project_id', $1, false)", projectID.String()); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to set RLS context: %v\n", err)
		os.Exit(1)
	}

	if *dryRun {
		fmt.Println("DRY RUN - no changes will be made")
		fmt.Println("Run with -dry-run=false to actually delete batches")
		fmt.Println()
	}

	count, err := pruneBatches(ctx, conn, projectID, cutoff, *status, *dryRun)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error pruning import log: %v\n", err)
		os.Exit(1)
	}

	if *dryRun {
		fmt.Printf("\nTotal batches that would be deleted: %d\n", count)
	} else {
		fmt.Printf("\nTotal batches deleted: %d\n", count)
	}
}

// pruneBatches deletes the project's batches started before cutoff,
// optionally only those with the given status. With dryRun it lists them instead.
func pruneBatches(ctx context.Context, conn *pgx.Conn, projectID uuid.UUID, cutoff time.Time, status string, dryRun bool) (int, error) {
	const filter = `
		WHERE project_id = $1
		  AND started_at < $2
		  AND ($3 = '' OR status = $3)`

	if dryRun {
		rows, err := conn.Query(ctx, `
			SELECT id, file_name, table_name, status, imported_rows, total_rows, started_at
			FROM engine_import_log`+filter+`
			ORDER BY started_at`, projectID, cutoff, status)
		if err != nil {
			return 0, fmt.Errorf("query failed: %w", err)
		}
		defer rows.Close()

		var count int
		for rows.Next() {
			var (
				id                  uuid.UUID
				fileName, tableName string
				batchStatus         string
				imported, total     int
				startedAt           time.Time
			)
			if err := rows.Scan(&id, &fileName, &tableName, &batchStatus, &imported, &total, &startedAt); err != nil {
				return 0, fmt.Errorf("scan failed: %w", err)
			}
			count++
			fmt.Printf("  %s  %s  %-8s %d/%d rows into %s (%s)\n",
				startedAt.Format(time.DateOnly), id, batchStatus, imported, total, tableName, truncate(fileName, 40))
		}
		if err := rows.Err(); err != nil {
			return 0, fmt.Errorf("rows iteration failed: %w", err)
		}

		if count == 0 {
			fmt.Println("  No matching batches")
		}
		return count, nil
	}

	result, err := conn.Exec(ctx, `DELETE FROM engine_import_log`+filter, projectID, cutoff, status)
	if err != nil {
		return 0, fmt.Errorf("delete failed: %w", err)
	}
	return int(result.RowsAffected()), nil
}

func buildConnString() string {
	host := getEnvOrDefault("PGHOST", "localhost")
	port := getEnvOrDefault("PGPORT", "5432")
	user := getEnvOrDefault("PGUSER", "ekaya")
	password := os.Getenv("PGPASSWORD")
	dbname := getEnvOrDefault("PGDATABASE", "ekaya_sheets")

	connStr := fmt.Sprintf("host=%s port=%s user=%s dbname=%s sslmode=disable",
		host, port, user, dbname)
	if password != "" {
		connStr += fmt.Sprintf(" password=%s", password)
	}
	return connStr
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// truncate shortens a string to maxLen characters, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
