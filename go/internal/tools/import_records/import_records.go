package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mcdev12/icebreaker/go/clients/apps_script_client"
	"github.com/mcdev12/icebreaker/go/internal/dbconfig"
	"github.com/mcdev12/icebreaker/go/internal/models"
	"github.com/mcdev12/icebreaker/go/internal/records"
)

const defaultExportPath = "go/internal/assets/records.json"

// recordNamespace seeds the deterministic record IDs so re-running an
// import never duplicates rows.
var recordNamespace = uuid.MustParse("6f1c3a52-7a8e-4c1b-9d55-2b0f6f5e9a10")

func main() {
	path := defaultExportPath
	if len(os.Args) > 1 {
		path = os.Args[1]
	}

	loc, err := time.LoadLocation(getEnv("TIMEZONE", "Asia/Taipei"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "load timezone: %v\n", err)
		os.Exit(1)
	}

	// 1) Load the exported records
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read JSON: %v\n", err)
		os.Exit(1)
	}
	recs, err := parseExport(data, time.Now(), loc)
	if err != nil {
		fmt.Fprintf(os.Stderr, "parse export: %v\n", err)
		os.Exit(1)
	}

	// 2) Connect using shared dbconfig
	cfg, err := dbconfig.NewConfigFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "database config: %v\n", err)
		os.Exit(1)
	}
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.DSN())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	if _, err := pool.Exec(ctx, records.Schema); err != nil {
		fmt.Fprintf(os.Stderr, "create schema: %v\n", err)
		os.Exit(1)
	}

	// 3) Insert and count
	var (
		total    = len(recs)
		inserted int
		skipped  int
		errs     int
	)

	for _, r := range recs {
		cmdTag, err := pool.Exec(ctx, `
            INSERT INTO question_records (id, name, question, drawn_at)
            VALUES ($1, $2, $3, $4)
            ON CONFLICT (id) DO NOTHING
        `,
			recordID(r), r.Name, r.Question, r.DrawnAt.UTC(),
		)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error inserting record for %s: %v\n", r.Name, err)
			errs++
			continue
		}
		if cmdTag.RowsAffected() == 1 {
			inserted++
		} else {
			skipped++
		}
	}

	// 4) Print summary
	fmt.Printf(
		"Record import complete: %d total, %d inserted, %d skipped, %d errors\n",
		total, inserted, skipped, errs,
	)
}

// parseExport accepts either a bare record array or a full records response
// as the script returns it, and sanitizes the rows.
func parseExport(data []byte, now time.Time, loc *time.Location) ([]models.QuestionRecord, error) {
	var raw []apps_script_client.RawRecord
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &raw); err != nil {
			return nil, fmt.Errorf("unmarshal record array: %w", err)
		}
	} else {
		var response apps_script_client.RecordsResponse
		if err := json.Unmarshal(trimmed, &response); err != nil {
			return nil, fmt.Errorf("unmarshal records response: %w", err)
		}
		raw = response.Records
	}
	return records.Sanitize(raw, now, loc), nil
}

func recordID(r models.QuestionRecord) uuid.UUID {
	key := strings.Join([]string{r.Name, r.Question, r.DrawnAt.UTC().Format(time.RFC3339Nano)}, "\x1f")
	return uuid.NewSHA1(recordNamespace, []byte(key))
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
