package entity

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestSpawnIDsAreDeterministic(t *testing.T) {
	a, b := NewStore("w1"), NewStore("w1")
	for i := 0; i < 3; i++ {
		ea, err := a.Spawn("HUMAN", mgl64.Vec3{})
		if err != nil {
			t.Fatalf("spawn: %v", err)
		}
		eb, _ := b.Spawn("HUMAN", mgl64.Vec3{})
		if ea.ID != eb.ID {
			t.Fatalf("ids differ: %s vs %s", ea.ID, eb.ID)
		}
	}
	other := NewStore("w2")
	e, _ := other.Spawn("HUMAN", mgl64.Vec3{})
	if first := a.All()[0]; first.ID == e.ID {
		t.Fatalf("different worlds share ids")
	}
	if _, err := a.Spawn("DRAGON", mgl64.Vec3{}); err == nil {
		t.Fatalf("expected unknown kind error")
	}
}

func TestMoveAccumulatesFallDistance(t *testing.T) {
	s := NewStore("w")
	e, _ := s.Spawn("PIG", mgl64.Vec3{0, 10, 0})
	e.MoveTo(mgl64.Vec3{0, 7, 0})
	e.MoveTo(mgl64.Vec3{1, 5.5, 0})
	if e.FallDistance() != 4.5 {
		t.Fatalf("fall distance=%v want 4.5", e.FallDistance())
	}
	e.MoveTo(mgl64.Vec3{1, 6, 0})
	if e.FallDistance() != 0 {
		t.Fatalf("climbing should reset fall distance, got %v", e.FallDistance())
	}
}

func TestBoundsBlocks(t *testing.T) {
	e := &Living{Pos: mgl64.Vec3{1.0, 2, 0.5}, Width: 0.6, Height: 1.8}
	var cells [][3]int
	e.Bounds().Blocks(func(x, y, z int) { cells = append(cells, [3]int{x, y, z}) })
	want := [][3]int{{0, 2, 0}, {1, 2, 0}, {0, 3, 0}, {1, 3, 0}}
	if len(cells) != len(want) {
		t.Fatalf("cells=%v want %v", cells, want)
	}
	for i := range want {
		if cells[i] != want[i] {
			t.Fatalf("cells=%v want %v", cells, want)
		}
	}
}

func TestPipelineCancellation(t *testing.T) {
	p := NewPipeline()
	e := &Living{Health: 20, MaxHealth: 20}

	p.OnDamage(func(ev *DamageEvent) {
		if ev.Cause == CauseLava && ev.Entity.Health <= 12 {
			ev.Cancel()
		}
	})
	p.OnCombust(func(ev *CombustEvent) {
		if ev.Seconds > 10 {
			ev.Cancel()
		}
	})

	for i := 0; i < 3; i++ {
		p.ApplyDamage(e, 4, CauseLava)
	}
	if e.Health != 12 {
		t.Fatalf("health=%v want 12 (third hit cancelled)", e.Health)
	}
	if e.LastDamageCause() != CauseLava {
		t.Fatalf("last cause=%q", e.LastDamageCause())
	}
	if !p.RequestIgnite(e, 15) {
		t.Fatalf("15s ignite should be cancelled")
	}
	if p.RequestIgnite(e, 5) {
		t.Fatalf("5s ignite should pass")
	}
}

func TestFireBurnsDown(t *testing.T) {
	p := NewPipeline()
	e := &Living{Health: 20, MaxHealth: 20}
	p.SetOnFire(e, 2)
	p.SetOnFire(e, 1) // shorter fire does not shorten the burn
	if e.FireTicks() != 40 {
		t.Fatalf("fire ticks=%d want 40", e.FireTicks())
	}
	for i := 0; i < 50; i++ {
		p.BurnTick(e)
	}
	if e.OnFire() {
		t.Fatalf("still burning after 50 ticks")
	}
	if e.Health != 18 {
		t.Fatalf("health=%v want 18 after two seconds of fire", e.Health)
	}
}

func TestExportImportKeepsOrderAndCounter(t *testing.T) {
	s := NewStore("w")
	s.Spawn("HUMAN", mgl64.Vec3{1, 2, 3})
	e2, _ := s.Spawn("PIG", mgl64.Vec3{4, 5, 6})
	e2.SetFallDistance(2)
	seq, states := s.Export()

	r := NewStore("w")
	if err := r.Import(seq, states); err != nil {
		t.Fatalf("import: %v", err)
	}
	got := r.All()
	if len(got) != 2 || got[1].ID != e2.ID || got[1].FallDistance() != 2 {
		t.Fatalf("imported: %+v", got)
	}
	next, _ := r.Spawn("HUMAN", mgl64.Vec3{})
	want, _ := s.Spawn("HUMAN", mgl64.Vec3{})
	if next.ID != want.ID {
		t.Fatalf("spawn counter not restored")
	}
	if err := r.Import(0, []State{{ID: "a"}, {ID: "a"}}); err == nil {
		t.Fatalf("expected duplicate id error")
	}
}

func TestRemoveDead(t *testing.T) {
	s := NewStore("w")
	a, _ := s.Spawn("HUMAN", mgl64.Vec3{})
	b, _ := s.Spawn("HUMAN", mgl64.Vec3{})
	a.Health = 0
	dead := s.RemoveDead()
	if len(dead) != 1 || dead[0] != a.ID || s.Len() != 1 || s.All()[0].ID != b.ID {
		t.Fatalf("dead=%v remaining=%d", dead, s.Len())
	}
}
