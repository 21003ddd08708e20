package main

import (
	"context"
	"flag"
	"log"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/storefront_sync/channelsync"
	"bitbucket.org/mmdatafocus/storefront_sync/config"
	"bitbucket.org/mmdatafocus/storefront_sync/models"
)

// One-shot taxonomy sweep, meant to run as a scheduled job so the HTTP
// service does not have to keep a long-lived ticker alive.
func main() {
	hours := flag.Int("hours", 24, "push terms modified in the last N hours")
	kindsFlag := flag.String("kinds", "", "comma-separated term kinds (author,publisher,genre); empty means all")
	timeout := flag.Duration("timeout", 30*time.Minute, "overall sweep deadline")
	flag.Parse()

	var kinds []string
	for _, part := range strings.Split(*kindsFlag, ",") {
		if kind := strings.ToLower(strings.TrimSpace(part)); kind != "" {
			kinds = append(kinds, kind)
		}
	}

	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	syncer := channelsync.NewSyncer(models.NewRepository(db), channelsync.NewClient())

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	report, err := syncer.SyncAllTerms(ctx, *hours, kinds)
	if err != nil {
		log.Fatalf("term sweep failed: %v", err)
	}
	log.Printf("term sweep finished: scanned=%d synced=%d errors=%d", report.Scanned, report.Synced, report.Errors)
	if report.Errors > 0 {
		log.Fatal("term sweep finished with errors")
	}
}
