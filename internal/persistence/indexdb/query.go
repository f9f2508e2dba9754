package indexdb

import (
	"context"
	"database/sql"
	"fmt"
)

// Reader runs admin queries against an index file, usually of a running server.
type Reader struct {
	db *sql.DB
}

func OpenReader(path string) (*Reader, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return &Reader{db: db}, nil
}

func (r *Reader) Close() error { return r.db.Close() }

type TickRow struct {
	Tick            uint64 `json:"tick"`
	Digest          string `json:"digest"`
	Commands        int    `json:"commands"`
	Updates         int    `json:"updates"`
	Spread          int    `json:"spread"`
	Fell            int    `json:"fell"`
	Hardened        int    `json:"hardened"`
	Displaced       int    `json:"displaced"`
	Pending         int    `json:"pending"`
	EntitiesTouched int    `json:"entities_touched"`
}

type AuditRow struct {
	Tick   uint64 `json:"tick"`
	Seq    int    `json:"seq"`
	Actor  string `json:"actor"`
	Action string `json:"action"`
	Pos    [3]int `json:"pos"`
	From   uint16 `json:"from"`
	To     uint16 `json:"to"`
	Reason string `json:"reason,omitempty"`
}

type CommandRow struct {
	Tick uint64 `json:"tick"`
	Seq  int    `json:"seq"`
	ID   string `json:"id"`
	Cmd  string `json:"cmd"`
	Pos  [3]int `json:"pos"`
}

// Snapshots lists the newest snapshots first.
func (r *Reader) Snapshots(ctx context.Context, limit int) ([]SnapshotRow, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT tick,path,height,chunks,pending,entities FROM snapshots ORDER BY tick DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []SnapshotRow
	for rows.Next() {
		var s SnapshotRow
		var tick int64
		if err := rows.Scan(&tick, &s.Path, &s.Height, &s.Chunks, &s.Pending, &s.Entities); err != nil {
			return nil, err
		}
		s.Tick = uint64(tick)
		out = append(out, s)
	}
	return out, rows.Err()
}

// Ticks lists the newest ticks first. busyOnly skips ticks without a single fluid update.
func (r *Reader) Ticks(ctx context.Context, limit int, busyOnly bool) ([]TickRow, error) {
	q := `SELECT tick,digest,commands,updates,spread,fell,hardened,displaced,pending,entities_touched FROM ticks`
	if busyOnly {
		q += ` WHERE updates > 0`
	}
	q += ` ORDER BY tick DESC LIMIT ?`
	rows, err := r.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []TickRow
	for rows.Next() {
		var t TickRow
		var tick int64
		if err := rows.Scan(&tick, &t.Digest, &t.Commands, &t.Updates, &t.Spread, &t.Fell, &t.Hardened, &t.Displaced, &t.Pending, &t.EntitiesTouched); err != nil {
			return nil, err
		}
		t.Tick = uint64(tick)
		out = append(out, t)
	}
	return out, rows.Err()
}

// AuditsAt lists the changes made to one block, newest first.
func (r *Reader) AuditsAt(ctx context.Context, pos [3]int, limit int) ([]AuditRow, error) {
	return r.audits(ctx, `WHERE x=? AND z=? AND y=?`, []any{pos[0], pos[2], pos[1]}, limit)
}

// AuditsByReason lists changes with one reason (e.g. "FLUID_HARDEN"), newest first.
func (r *Reader) AuditsByReason(ctx context.Context, reason string, limit int) ([]AuditRow, error) {
	return r.audits(ctx, `WHERE reason=?`, []any{reason}, limit)
}

func (r *Reader) audits(ctx context.Context, where string, args []any, limit int) ([]AuditRow, error) {
	q := `SELECT tick,seq,actor,action,x,y,z,from_block,to_block,COALESCE(reason,'') FROM audits ` + where + ` ORDER BY tick DESC, seq DESC LIMIT ?`
	rows, err := r.db.QueryContext(ctx, q, append(args, limit)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []AuditRow
	for rows.Next() {
		var a AuditRow
		var tick int64
		if err := rows.Scan(&tick, &a.Seq, &a.Actor, &a.Action, &a.Pos[0], &a.Pos[1], &a.Pos[2], &a.From, &a.To, &a.Reason); err != nil {
			return nil, err
		}
		a.Tick = uint64(tick)
		out = append(out, a)
	}
	return out, rows.Err()
}

// Commands lists external commands of one kind (all kinds when cmd is empty), newest first.
func (r *Reader) Commands(ctx context.Context, cmd string, limit int) ([]CommandRow, error) {
	q := `SELECT tick,seq,id,cmd,x,y,z FROM commands`
	args := []any{}
	if cmd != "" {
		q += ` WHERE cmd=?`
		args = append(args, cmd)
	}
	q += ` ORDER BY tick DESC, seq DESC LIMIT ?`
	rows, err := r.db.QueryContext(ctx, q, append(args, limit)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []CommandRow
	for rows.Next() {
		var c CommandRow
		var tick int64
		if err := rows.Scan(&tick, &c.Seq, &c.ID, &c.Cmd, &c.Pos[0], &c.Pos[1], &c.Pos[2]); err != nil {
			return nil, err
		}
		c.Tick = uint64(tick)
		out = append(out, c)
	}
	return out, rows.Err()
}

// Catalog returns the stored JSON of a catalog row.
func (r *Reader) Catalog(ctx context.Context, name string) (digest, raw string, err error) {
	err = r.db.QueryRowContext(ctx, `SELECT digest,json FROM catalogs WHERE name=?`, name).Scan(&digest, &raw)
	return digest, raw, err
}
