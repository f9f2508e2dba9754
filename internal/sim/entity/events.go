package entity

const (
	CauseLava     = "LAVA"
	CauseFireTick = "FIRE_TICK"
)

// DamageEvent is offered to damage hooks before health changes. A hook may cancel it or
// change the amount.
type DamageEvent struct {
	Entity *Living
	Cause  string
	Amount float64

	cancelled bool
}

func (ev *DamageEvent) Cancel()         { ev.cancelled = true }
func (ev *DamageEvent) Cancelled() bool { return ev.cancelled }

// CombustEvent is offered to combust hooks before an entity is set on fire.
type CombustEvent struct {
	Entity  *Living
	Seconds int

	cancelled bool
}

func (ev *CombustEvent) Cancel()         { ev.cancelled = true }
func (ev *CombustEvent) Cancelled() bool { return ev.cancelled }

// Pipeline runs damage and ignition through registered hooks.
type Pipeline struct {
	damageHooks  []func(*DamageEvent)
	combustHooks []func(*CombustEvent)
}

func NewPipeline() *Pipeline { return &Pipeline{} }

func (p *Pipeline) OnDamage(fn func(*DamageEvent))   { p.damageHooks = append(p.damageHooks, fn) }
func (p *Pipeline) OnCombust(fn func(*CombustEvent)) { p.combustHooks = append(p.combustHooks, fn) }

// ApplyDamage reports whether the damage was cancelled.
func (p *Pipeline) ApplyDamage(e *Living, amount float64, cause string) bool {
	ev := &DamageEvent{Entity: e, Cause: cause, Amount: amount}
	for _, h := range p.damageHooks {
		h(ev)
	}
	if ev.cancelled {
		return true
	}
	if ev.Amount > 0 {
		e.Health -= ev.Amount
		if e.Health < 0 {
			e.Health = 0
		}
	}
	e.lastCause = cause
	return false
}

// RequestIgnite reports whether ignition was cancelled. It does not set the fire.
func (p *Pipeline) RequestIgnite(e *Living, seconds int) bool {
	ev := &CombustEvent{Entity: e, Seconds: seconds}
	for _, h := range p.combustHooks {
		h(ev)
	}
	return ev.cancelled
}

// SetOnFire keeps whichever fire lasts longer.
func (p *Pipeline) SetOnFire(e *Living, seconds int) {
	if t := seconds * TicksPerSecond; t > e.fireTicks {
		e.fireTicks = t
	}
}

// Extinguish puts out any fire.
func (p *Pipeline) Extinguish(e *Living) { e.fireTicks = 0 }

// BurnTick advances fire by one tick; a burning entity takes one damage every second.
func (p *Pipeline) BurnTick(e *Living) {
	if e.fireTicks <= 0 {
		return
	}
	if e.fireTicks%TicksPerSecond == 0 {
		p.ApplyDamage(e, 1, CauseFireTick)
	}
	e.fireTicks--
}
