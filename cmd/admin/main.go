package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"voxelflow.ai/internal/persistence/archive"
	persistlog "voxelflow.ai/internal/persistence/log"
	"voxelflow.ai/internal/persistence/snapshot"
	"voxelflow.ai/internal/sim/voxel"
	"voxelflow.ai/internal/sim/world"
)

func main() {
	if len(os.Args) >= 2 {
		switch os.Args[1] {
		case "rollback":
			rollbackCmd(os.Args[2:])
			return
		case "inspect":
			inspectCmd(os.Args[2:])
			return
		case "db":
			dbCmd(os.Args[2:])
			return
		case "state":
			stateCmd(os.Args[2:])
			return
		case "snapshot":
			snapshotCmd(os.Args[2:])
			return
		case "command":
			commandCmd(os.Args[2:])
			return
		}
	}
	listCmd(os.Args[1:])
}

func listCmd(args []string) {
	fs := flag.NewFlagSet("admin", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	worldID := fs.String("world", "", "world id (optional)")
	_ = fs.Parse(args)

	base := filepath.Join(*dataDir, "worlds")
	if *worldID != "" {
		base = filepath.Join(base, *worldID)
	}

	entries, err := os.ReadDir(base)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read:", err)
		os.Exit(1)
	}
	for _, e := range entries {
		fmt.Println(e.Name())
	}
}

// inspectCmd prints a snapshot summary without loading catalogs.
func inspectCmd(args []string) {
	fs := flag.NewFlagSet("inspect", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	worldID := fs.String("world", "", "world id (used when -snapshot is empty)")
	snapPath := fs.String("snapshot", "", "snapshot path (optional; defaults to latest)")
	headerOnly := fs.Bool("header", false, "read the header only")
	_ = fs.Parse(args)

	path := strings.TrimSpace(*snapPath)
	if path == "" {
		if strings.TrimSpace(*worldID) == "" {
			fmt.Fprintln(os.Stderr, "missing -world or -snapshot")
			os.Exit(2)
		}
		path = latestSnapshot(filepath.Join(*dataDir, "worlds", *worldID))
	}
	if path == "" {
		fmt.Fprintln(os.Stderr, "no snapshot found")
		os.Exit(2)
	}

	if *headerOnly {
		h, err := snapshot.ReadHeader(path)
		if err != nil {
			fmt.Fprintln(os.Stderr, "read header:", err)
			os.Exit(1)
		}
		printJSON(h)
		return
	}
	snap, err := snapshot.ReadSnapshot(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read snapshot:", err)
		os.Exit(1)
	}
	printJSON(summarize(path, snap))
}

type snapshotSummary struct {
	Path          string         `json:"path"`
	WorldID       string         `json:"world_id"`
	Tick          uint64         `json:"tick"`
	TickRateHz    int            `json:"tick_rate_hz"`
	Height        int            `json:"height"`
	BoundaryR     int            `json:"boundary_r"`
	PaletteDigest string         `json:"palette_digest"`
	Chunks        int            `json:"chunks"`
	Entities      int            `json:"entities"`
	Pending       map[string]int `json:"pending"`
	Blocks        map[string]int `json:"blocks"`
}

func summarize(path string, snap snapshot.SnapshotV1) snapshotSummary {
	s := snapshotSummary{
		Path:          path,
		WorldID:       snap.Header.WorldID,
		Tick:          snap.Header.Tick,
		TickRateHz:    snap.TickRate,
		Height:        snap.Height,
		BoundaryR:     snap.BoundaryR,
		PaletteDigest: snap.PaletteDigest,
		Chunks:        len(snap.Chunks),
		Entities:      len(snap.Entities),
		Pending:       map[string]int{},
		Blocks:        map[string]int{},
	}
	for _, p := range snap.Pending {
		s.Pending[p.Fluid]++
	}
	for _, ch := range snap.Chunks {
		for _, b := range ch.Blocks {
			id := int(voxel.State(b).ID())
			if id == 0 {
				continue
			}
			name := strconv.Itoa(id)
			if id < len(snap.Palette) {
				name = snap.Palette[id]
			}
			s.Blocks[name]++
		}
	}
	return s
}

func rollbackCmd(args []string) {
	fs := flag.NewFlagSet("rollback", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	worldID := fs.String("world", "", "world id")
	snapPath := fs.String("snapshot", "", "snapshot path to rollback from (optional; defaults to latest)")
	aabb := fs.String("aabb", "", "AABB filter: x1,y1,z1:x2,y2,z2 (required)")
	sinceTick := fs.Uint64("since_tick", 0, "rollback changes since tick (inclusive)")
	toTick := fs.Uint64("to_tick", 0, "rollback changes up to tick (inclusive, optional; defaults to snapshot tick)")
	reason := fs.String("reason", "", "only rollback changes with this reason, e.g. FLUID_SPREAD (optional)")
	outPath := fs.String("out", "", "output snapshot path (optional)")
	_ = fs.Parse(args)

	if strings.TrimSpace(*worldID) == "" {
		fmt.Fprintln(os.Stderr, "missing -world")
		os.Exit(2)
	}
	if strings.TrimSpace(*aabb) == "" {
		fmt.Fprintln(os.Stderr, "missing -aabb")
		os.Exit(2)
	}

	worldDir := filepath.Join(*dataDir, "worlds", *worldID)
	snapshotToLoad := strings.TrimSpace(*snapPath)
	if snapshotToLoad == "" {
		snapshotToLoad = latestSnapshot(worldDir)
	}
	if snapshotToLoad == "" {
		fmt.Fprintln(os.Stderr, "no snapshot found; provide -snapshot or run server until it writes one")
		os.Exit(2)
	}

	snap, err := snapshot.ReadSnapshot(snapshotToLoad)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read snapshot:", err)
		os.Exit(1)
	}

	min, max, err := parseAABB(*aabb)
	if err != nil {
		fmt.Fprintln(os.Stderr, "bad -aabb:", err)
		os.Exit(2)
	}

	endTick := *toTick
	if endTick == 0 || endTick > snap.Header.Tick {
		endTick = snap.Header.Tick
	}

	f := auditFilter{Since: *sinceTick, To: endTick, Min: min, Max: max, Reason: strings.ToUpper(strings.TrimSpace(*reason))}
	recs, err := readAudit(worldDir, f)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read audit:", err)
		os.Exit(1)
	}
	if len(recs) == 0 {
		fmt.Println("no matching audit entries; nothing to rollback")
		return
	}

	res := applyRollback(&snap, recs)

	if strings.TrimSpace(*outPath) == "" {
		*outPath = filepath.Join(worldDir, "snapshots", fmt.Sprintf("%d.rollback.snap.zst", snap.Header.Tick))
	}
	archDir, err := archive.ArchiveRollback(worldDir, snapshotToLoad, snap, archive.RollbackMeta{
		Output:    filepath.Base(*outPath),
		AABB:      *aabb,
		SinceTick: *sinceTick,
		ToTick:    endTick,
		Reason:    f.Reason,
		Applied:   res.Applied,
		Skipped:   res.Skipped,
		Dropped:   res.PendingDropped,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "archive source snapshot:", err)
		os.Exit(1)
	}
	fmt.Println("archived source snapshot in", archDir)

	if err := snapshot.WriteSnapshot(*outPath, snap); err != nil {
		fmt.Fprintln(os.Stderr, "write snapshot:", err)
		os.Exit(1)
	}

	fmt.Printf("rollback ok: snapshot=%s tick=%d aabb=%s since=%d to=%d entries=%d applied=%d skipped=%d pending_dropped=%d out=%s\n",
		filepath.Base(snapshotToLoad), snap.Header.Tick, *aabb, *sinceTick, endTick, len(recs), res.Applied, res.Skipped, res.PendingDropped, *outPath)
}

type auditFilter struct {
	Since, To uint64
	Min, Max  [3]int
	Reason    string
}

type auditRec struct {
	Seq   uint64
	Entry world.AuditEntry
}

func readAudit(worldDir string, f auditFilter) ([]auditRec, error) {
	out := make([]auditRec, 0, 1024)
	var seq uint64
	err := persistlog.ForEachAudit(worldDir, func(e world.AuditEntry) error {
		seq++
		if e.Action != "SET_BLOCK" {
			return nil
		}
		if e.Tick < f.Since || e.Tick > f.To {
			return nil
		}
		if f.Reason != "" && e.Reason != f.Reason {
			return nil
		}
		if !withinAABB(e.Pos, f.Min, f.Max) {
			return nil
		}
		out = append(out, auditRec{Seq: seq, Entry: e})
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Reverse chronological apply: highest tick first; for same tick use reverse read order.
	sort.Slice(out, func(i, j int) bool {
		if out[i].Entry.Tick != out[j].Entry.Tick {
			return out[i].Entry.Tick > out[j].Entry.Tick
		}
		return out[i].Seq > out[j].Seq
	})
	return out, nil
}

type rollbackResult struct {
	Applied        int
	Skipped        int
	PendingDropped int
}

// applyRollback restores each recorded From state. Pending fluid updates at restored
// positions are dropped so the old flow does not resume on load.
func applyRollback(snap *snapshot.SnapshotV1, recs []auditRec) rollbackResult {
	var res rollbackResult
	if snap == nil || len(recs) == 0 {
		return res
	}
	chunks := map[[2]int]*snapshot.ChunkV1{}
	for i := range snap.Chunks {
		ch := &snap.Chunks[i]
		chunks[[2]int{ch.CX, ch.CZ}] = ch
	}

	const cs = voxel.ChunkSize
	reverted := map[[3]int]bool{}
	for _, r := range recs {
		p := r.Entry.Pos
		ch := chunks[[2]int{floorDiv(p[0], cs), floorDiv(p[2], cs)}]
		y := p[1]
		if ch == nil || y < 0 || y >= ch.Height {
			res.Skipped++
			continue
		}
		i := mod(p[0], cs) + mod(p[2], cs)*cs + y*cs*cs
		if i < 0 || i >= len(ch.Blocks) {
			res.Skipped++
			continue
		}
		ch.Blocks[i] = r.Entry.From
		reverted[p] = true
		res.Applied++
	}

	kept := snap.Pending[:0]
	for _, pu := range snap.Pending {
		if reverted[pu.Pos] {
			res.PendingDropped++
			continue
		}
		kept = append(kept, pu)
	}
	snap.Pending = kept
	return res
}

func withinAABB(pos [3]int, min, max [3]int) bool {
	return pos[0] >= min[0] && pos[0] <= max[0] &&
		pos[1] >= min[1] && pos[1] <= max[1] &&
		pos[2] >= min[2] && pos[2] <= max[2]
}

func parseAABB(s string) (min, max [3]int, err error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return min, max, fmt.Errorf("expected x1,y1,z1:x2,y2,z2")
	}
	a, err := parseVec3(parts[0])
	if err != nil {
		return min, max, err
	}
	b, err := parseVec3(parts[1])
	if err != nil {
		return min, max, err
	}
	for i := 0; i < 3; i++ {
		if a[i] <= b[i] {
			min[i], max[i] = a[i], b[i]
		} else {
			min[i], max[i] = b[i], a[i]
		}
	}
	return min, max, nil
}

func parseVec3(s string) ([3]int, error) {
	var v [3]int
	parts := strings.Split(strings.TrimSpace(s), ",")
	if len(parts) != 3 {
		return v, fmt.Errorf("expected x,y,z")
	}
	for i := 0; i < 3; i++ {
		n, err := strconv.Atoi(strings.TrimSpace(parts[i]))
		if err != nil {
			return v, err
		}
		v[i] = n
	}
	return v, nil
}

func latestSnapshot(worldDir string) string {
	dir := filepath.Join(worldDir, "snapshots")
	ents, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}
	var best string
	var bestTick uint64
	for _, e := range ents {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(name, ".snap.zst") {
			continue
		}
		base := strings.TrimSuffix(name, ".snap.zst")
		tick, err := strconv.ParseUint(base, 10, 64)
		if err != nil {
			continue
		}
		if best == "" || tick > bestTick {
			bestTick = tick
			best = filepath.Join(dir, name)
		}
	}
	return best
}

func floorDiv(a, b int) int {
	// b > 0
	q := a / b
	r := a % b
	if r < 0 {
		q--
	}
	return q
}

func mod(a, b int) int {
	// b > 0
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}
