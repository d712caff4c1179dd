// Runs one aggregation pass against the live sources and prints the merged
// feed as a table. The database is skipped unless -db is set, so this works
// without any infrastructure.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/launchpadhq/launchpad/internal/aggregate"
	"github.com/launchpadhq/launchpad/internal/db"
)

func main() {
	useDB := flag.Bool("db", false, "include curated records from DATABASE_URL")
	timeout := flag.Duration("timeout", 8*time.Second, "per-source fetch budget")
	flag.Parse()

	ctx := context.Background()

	registry, err := aggregate.LoadRegistry()
	if err != nil {
		log.Fatalf("failed to load source registry: %v", err)
	}
	fallback, err := aggregate.LoadFallback()
	if err != nil {
		log.Fatalf("failed to load fallback table: %v", err)
	}

	var reader aggregate.DatabaseReader
	if *useDB {
		pool, err := db.Connect(ctx)
		if err != nil {
			log.Fatalf("failed to connect to database: %v", err)
		}
		defer pool.Close()
		reader = db.NewStore(pool)
	}

	client := aggregate.NewClient(*timeout, 1.0)
	pipeline := aggregate.NewPipeline(reader, aggregate.BuildSources(registry, client), fallback, *timeout)

	res := pipeline.Run(ctx)
	if res.Err != "" {
		log.Printf("warning: %s", res.Err)
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"#", "Title", "Type", "Org", "Deadline", "Source"})
	for i, o := range res.Opportunities {
		t.AppendRow(table.Row{
			i + 1,
			aggregate.TruncateText(o.Title, 48),
			o.Type,
			aggregate.TruncateText(o.Organization, 24),
			o.Deadline.Format("2006-01-02 15:04"),
			o.Source,
		})
	}
	t.SetStyle(table.StyleLight)
	t.Render()

	log.Printf("%d opportunities, fetched at %s", res.Total, res.FetchedAt.Format(time.RFC3339))
}
