package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"voxelflow.ai/internal/persistence/indexdb"
)

func dbCmd(args []string) {
	fs := flag.NewFlagSet("db", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	worldID := fs.String("world", "", "world id (required unless -db)")
	dbPath := fs.String("db", "", "sqlite db path (optional)")
	limit := fs.Int("limit", 20, "result limit")
	busy := fs.Bool("busy", false, "ticks: only ticks with fluid updates")
	pos := fs.String("pos", "", "audits: block position x,y,z")
	reason := fs.String("reason", "", "audits: change reason, e.g. FLUID_HARDEN")
	cmdName := fs.String("cmd", "", "commands: command name filter, e.g. PLACE_FLUID")
	catalog := fs.String("catalog", "blocks_palette", "catalogs: catalog name")
	_ = fs.Parse(args)

	q := "snapshots"
	if fs.NArg() > 0 {
		q = strings.TrimSpace(fs.Arg(0))
	}
	if *limit <= 0 {
		*limit = 20
	}

	path := strings.TrimSpace(*dbPath)
	if path == "" {
		if strings.TrimSpace(*worldID) == "" {
			fmt.Fprintln(os.Stderr, "missing -world or -db")
			os.Exit(2)
		}
		path = filepath.Join(*dataDir, "worlds", *worldID, "index", "world.sqlite")
	}

	r, err := indexdb.OpenReader(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open:", err)
		os.Exit(1)
	}
	defer r.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	switch q {
	case "snapshots":
		rows, err := r.Snapshots(ctx, *limit)
		exitOnErr("query", err)
		for _, row := range rows {
			printJSON(row)
		}

	case "ticks":
		rows, err := r.Ticks(ctx, *limit, *busy)
		exitOnErr("query", err)
		for _, row := range rows {
			printJSON(row)
		}

	case "audits":
		var rows []indexdb.AuditRow
		switch {
		case strings.TrimSpace(*pos) != "":
			p, err := parseVec3(*pos)
			if err != nil {
				fmt.Fprintln(os.Stderr, "bad -pos:", err)
				os.Exit(2)
			}
			rows, err = r.AuditsAt(ctx, p, *limit)
			exitOnErr("query", err)
		case strings.TrimSpace(*reason) != "":
			rows, err = r.AuditsByReason(ctx, strings.ToUpper(strings.TrimSpace(*reason)), *limit)
			exitOnErr("query", err)
		default:
			fmt.Fprintln(os.Stderr, "audits needs -pos or -reason")
			os.Exit(2)
		}
		for _, row := range rows {
			printJSON(row)
		}

	case "commands":
		rows, err := r.Commands(ctx, strings.ToUpper(strings.TrimSpace(*cmdName)), *limit)
		exitOnErr("query", err)
		for _, row := range rows {
			printJSON(row)
		}

	case "catalogs":
		digest, raw, err := r.Catalog(ctx, *catalog)
		exitOnErr("query", err)
		printJSON(struct {
			Name   string          `json:"name"`
			Digest string          `json:"digest"`
			Value  json.RawMessage `json:"value"`
		}{Name: *catalog, Digest: digest, Value: json.RawMessage(raw)})

	default:
		fmt.Fprintln(os.Stderr, "unknown query:", q)
		fmt.Fprintln(os.Stderr, "usage: admin db [-data ./data] [-world WORLD|-db PATH] [-limit N] snapshots|ticks|audits|commands|catalogs")
		os.Exit(2)
	}
}

func exitOnErr(what string, err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "%s: %v\n", what, err)
	os.Exit(1)
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}
