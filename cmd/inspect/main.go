package main

import (
	"context"
	"flag"
	"fmt"
	"huddle/infrastructure/storage"
	"huddle/internal"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/logs"
	"github.com/olekukonko/tablewriter"
)

func main() {
	dbPath := flag.String("db", os.Getenv("BADGER_FILEPATH"), "Path to badger DB")
	prefix := flag.String("prefix", "room:", "Prefix to scan, empty for everything")
	serve := flag.Int("serve", 0, "Serve the HTML inspector on this port instead of printing")
	flag.Parse()

	db, err := openDB(*dbPath)
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	if *serve > 0 {
		viewer(db, *serve)
		return
	}

	entries, err := storage.Dump(context.Background(), db, *prefix, 30*time.Second)
	if err != nil {
		log.Fatal(err)
	}
	render(os.Stdout, entries)
}

func render(w io.Writer, entries []storage.Entry) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Key", "Type", "Time", "Room", "Id", "Detail"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	for _, e := range entries {
		at := "--:--:--"
		if !e.At.IsZero() {
			at = e.At.Format(time.DateTime)
		}
		table.Append([]string{e.Key, e.Kind, at, e.Room.String(), e.ID, e.Detail})
	}
	table.Render()
}

// viewer serves the read-only HTML inspector until interrupted.
func viewer(db *badger.DB, port int) {
	logger := logs.GetLoggerFromString("INFO")
	stats := func() map[string]any {
		return map[string]any{
			"status": "viewer mode (read-only)",
			"time":   time.Now().Format(time.RFC822),
		}
	}
	srv := internal.StartDebugServer(logger, db, port, "/inspect", internal.DefaultMapper, stats)
	fmt.Printf("Viewer started at http://localhost:%d/inspect\n", port)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()
	_ = internal.ShutdownDebugServer(srv, time.Second)
}

// openDB opens the store read-only, next to a running server.
func openDB(path string) (*badger.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("-db or BADGER_FILEPATH is required")
	}
	opts := badger.DefaultOptions(path).
		WithReadOnly(true).
		WithLogger(nil).
		WithBypassLockGuard(true)
	return badger.Open(opts)
}
