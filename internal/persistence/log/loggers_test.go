package log

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"voxelflow.ai/internal/sim/world"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

func TestTickLogger_RotatesAndReadsBack(t *testing.T) {
	dir := t.TempDir()
	clk := &fakeClock{t: time.Date(2026, 3, 1, 10, 59, 0, 0, time.UTC)}
	var closed []string
	l := NewTickLogger(dir, Options{Now: clk.Now, OnClose: func(p string) { closed = append(closed, p) }})

	for tick := uint64(0); tick < 3; tick++ {
		if tick == 2 {
			clk.t = clk.t.Add(2 * time.Minute)
		}
		if err := l.WriteTick(world.TickLogEntry{Tick: tick, Digest: "d", Fluid: world.FluidTickStats{Updates: int(tick)}}); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	if err := l.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	files, err := Files(filepath.Join(dir, "ticks"), "ticks")
	if err != nil {
		t.Fatalf("files: %v", err)
	}
	if len(files) != 2 || filepath.Base(files[0]) != "ticks-2026-03-01-10.jsonl.zst" {
		t.Fatalf("files=%v", files)
	}
	if len(closed) != 2 || closed[0] != files[0] || closed[1] != files[1] {
		t.Fatalf("closed=%v", closed)
	}

	var got []uint64
	err = ForEachTick(dir, func(e world.TickLogEntry) error {
		got = append(got, e.Tick)
		return nil
	})
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got) != 3 || got[0] != 0 || got[2] != 2 {
		t.Fatalf("ticks=%v", got)
	}
}

func TestAuditLogger_ReadStopsOnError(t *testing.T) {
	dir := t.TempDir()
	l := NewAuditLogger(dir, Options{})
	for i := 0; i < 3; i++ {
		if err := l.WriteAudit(world.AuditEntry{Tick: uint64(i), Actor: "WORLD", Action: "SET_BLOCK", Pos: [3]int{i, 1, 0}}); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	_ = l.Close()

	stop := errors.New("stop")
	n := 0
	err := ForEachAudit(dir, func(e world.AuditEntry) error {
		n++
		if e.Pos[0] == 1 {
			return stop
		}
		return nil
	})
	if !errors.Is(err, stop) || n != 2 {
		t.Fatalf("err=%v n=%d", err, n)
	}
}

func TestForEachTick_MissingDir(t *testing.T) {
	n := 0
	if err := ForEachTick(t.TempDir(), func(world.TickLogEntry) error { n++; return nil }); err != nil || n != 0 {
		t.Fatalf("err=%v n=%d", err, n)
	}
}
