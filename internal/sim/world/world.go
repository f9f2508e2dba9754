package world

import (
	"fmt"
	"sync"
	"sync/atomic"

	"voxelflow.ai/internal/persistence/snapshot"
	"voxelflow.ai/internal/sim/blocks"
	"voxelflow.ai/internal/sim/catalogs"
	"voxelflow.ai/internal/sim/contact"
	"voxelflow.ai/internal/sim/entity"
	"voxelflow.ai/internal/sim/flow"
	"voxelflow.ai/internal/sim/schedule"
	"voxelflow.ai/internal/sim/voxel"
)

// World is a single-threaded authoritative fluid simulation.
// All state must be accessed only from the world loop goroutine.
type World struct {
	cfg      WorldConfig
	catalogs *catalogs.Catalogs
	pal      *blocks.Palette

	tick atomic.Uint64

	chunks   *voxel.ChunkStore
	queue    *schedule.Queue
	resolver *flow.Resolver
	prop     *flow.Propagator

	entities *entity.Store
	hooks    *entity.Pipeline
	contact  *contact.Handler

	commands      chan CommandRequest
	observerJoin  chan ObserverJoinRequest
	observerLeave chan string
	admin         chan adminSnapshotReq
	stop          chan struct{}
	stopOnce      sync.Once

	observers map[string]*observerClient

	// Optional loggers (may be nil). Implemented in internal/persistence/*.
	tickLogger  TickLogger
	auditLogger AuditLogger

	// Optional snapshot sink (may be nil). Snapshot writing should be off-thread.
	snapshotSink chan<- snapshot.SnapshotV1

	// Per-tick buffers, reset at the start of every step.
	auditsThisTick []AuditEntry
	soundsThisTick []SoundEvent
	curTick        uint64

	metrics atomic.Value // WorldMetrics
}

func New(cfg WorldConfig, cats *catalogs.Catalogs) (*World, error) {
	if cats == nil {
		return nil, fmt.Errorf("nil catalogs")
	}
	cfg.applyDefaults()
	pal, err := blocks.NewPalette(cats.Blocks)
	if err != nil {
		return nil, err
	}

	w := &World{
		cfg:           cfg,
		catalogs:      cats,
		pal:           pal,
		chunks:        voxel.NewChunkStore(cfg.Height, cfg.BoundaryR, pal.Air),
		queue:         schedule.NewQueue(),
		entities:      entity.NewStore(cfg.ID),
		hooks:         entity.NewPipeline(),
		commands:      make(chan CommandRequest, 1024),
		observerJoin:  make(chan ObserverJoinRequest, 64),
		observerLeave: make(chan string, 64),
		admin:         make(chan adminSnapshotReq, 16),
		stop:          make(chan struct{}),
		observers:     map[string]*observerClient{},
	}
	w.resolver = flow.NewResolver(w.chunks, w.queue, w, pal)
	w.prop = flow.NewPropagator(w.chunks, w.queue, pal, w.resolver)
	w.resolver.OnChange(w.auditChange)
	w.prop.OnChange(w.auditChange)
	w.contact = contact.NewHandler(w.chunks, pal, contactHooks{w.hooks}, contactHooks{w.hooks})
	w.metrics.Store(WorldMetrics{})
	return w, nil
}

func (w *World) SetTickLogger(l TickLogger)                    { w.tickLogger = l }
func (w *World) SetAuditLogger(l AuditLogger)                  { w.auditLogger = l }
func (w *World) SetSnapshotSink(ch chan<- snapshot.SnapshotV1) { w.snapshotSink = ch }

func (w *World) Commands() chan<- CommandRequest          { return w.commands }
func (w *World) ObserverJoin() chan<- ObserverJoinRequest { return w.observerJoin }
func (w *World) ObserverLeave() chan<- string             { return w.observerLeave }
func (w *World) CurrentTick() uint64                      { return w.tick.Load() }
func (w *World) Metrics() WorldMetrics                    { return w.metrics.Load().(WorldMetrics) }
func (w *World) Palette() *blocks.Palette                 { return w.pal }

// Hooks is the entity event pipeline. Register damage and combust hooks before Run.
func (w *World) Hooks() *entity.Pipeline { return w.hooks }

func (w *World) ID() string {
	if w == nil {
		return ""
	}
	return w.cfg.ID
}

func (w *World) Config() WorldConfig {
	if w == nil {
		return WorldConfig{}
	}
	return w.cfg
}

func (w *World) BlockPalette() []string {
	if w == nil || w.catalogs == nil {
		return nil
	}
	p := w.catalogs.Blocks.Palette
	out := make([]string, len(p))
	copy(out, p)
	return out
}

// Emit implements flow.Notifier.
func (w *World) Emit(p voxel.Pos, sound string) {
	w.soundsThisTick = append(w.soundsThisTick, SoundEvent{Pos: p.ToArray(), Sound: sound})
}

// contactHooks adapts the entity pipeline to the contact handler's narrow interfaces. Entities
// the pipeline cannot hold are treated as cancelled.
type contactHooks struct{ p *entity.Pipeline }

func (h contactHooks) ApplyDamage(e contact.Entity, amount float64, cause string) bool {
	l, ok := e.(*entity.Living)
	if !ok {
		return true
	}
	return h.p.ApplyDamage(l, amount, cause)
}

func (h contactHooks) RequestIgnite(e contact.Entity, seconds int) bool {
	l, ok := e.(*entity.Living)
	if !ok {
		return true
	}
	return h.p.RequestIgnite(l, seconds)
}

func (h contactHooks) SetOnFire(e contact.Entity, seconds int) {
	if l, ok := e.(*entity.Living); ok {
		h.p.SetOnFire(l, seconds)
	}
}
