package world

import "voxelflow.ai/internal/sim/flow"

const actorWorld = "WORLD"

func (w *World) auditChange(c flow.Change) {
	w.auditSetBlock(AuditEntry{
		Tick:   w.curTick,
		Actor:  actorWorld,
		Action: "SET_BLOCK",
		Pos:    c.Pos.ToArray(),
		From:   uint16(c.From),
		To:     uint16(c.To),
		Reason: c.Reason,
	})
}

func (w *World) auditSetBlock(e AuditEntry) {
	w.auditsThisTick = append(w.auditsThisTick, e)
	if w.auditLogger != nil {
		_ = w.auditLogger.WriteAudit(e)
	}
}

func (w *World) auditEntity(tick uint64, id, action string) {
	e := AuditEntry{
		Tick:    tick,
		Actor:   actorWorld,
		Action:  action,
		Details: map[string]any{"entity_id": id},
	}
	if ent, ok := w.entities.Get(id); ok {
		e.Pos = blockOf(ent.Pos).ToArray()
		e.Details["kind"] = ent.Kind
	}
	w.auditsThisTick = append(w.auditsThisTick, e)
	if w.auditLogger != nil {
		_ = w.auditLogger.WriteAudit(e)
	}
}
