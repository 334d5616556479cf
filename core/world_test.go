package core

import (
	"testing"

	"github.com/signalsfoundry/ewsim/config"
)

func TestCreateAndDestroyEntity(t *testing.T) {
	w := NewWorld()

	id := w.CreateEntity()
	if !w.Exists(id) {
		t.Fatalf("entity %d should exist after create", id)
	}
	if w.EntityCount() != 1 {
		t.Fatalf("EntityCount = %d, want 1", w.EntityCount())
	}

	if !w.DestroyEntity(id) {
		t.Fatalf("DestroyEntity returned false for live entity")
	}
	if w.Exists(id) {
		t.Fatalf("entity %d still exists after destroy", id)
	}
	if w.DestroyEntity(id) {
		t.Fatalf("DestroyEntity returned true for dead entity")
	}
}

func TestEntityIDsNeverReused(t *testing.T) {
	w := NewWorld()
	a := w.CreateEntity()
	w.DestroyEntity(a)
	b := w.CreateEntity()
	if b == a {
		t.Fatalf("entity id %d was reused", a)
	}
}

func TestAddComponentToUnknownEntity(t *testing.T) {
	w := NewWorld()
	if got := w.AddTransform(999, NewTransform(Vec3{})); got != nil {
		t.Fatalf("AddTransform on unknown entity returned %v, want nil", got)
	}
	if w.AddTeam(999, TeamPlayer) {
		t.Fatalf("AddTeam on unknown entity returned true")
	}
}

func TestComponentRoundTrip(t *testing.T) {
	w := NewWorld()
	id := w.CreateEntity()

	tr := w.AddTransform(id, NewTransform(Vec3{X: 10, Y: 20}))
	if tr == nil {
		t.Fatalf("AddTransform returned nil")
	}
	// The stored pointer is live state: mutations must be visible to the
	// next lookup.
	tr.Position.X = 99
	if got := w.Transform(id); got.Position.X != 99 {
		t.Fatalf("Transform.Position.X = %v, want 99", got.Position.X)
	}

	if !w.Has(id, KindTransform) {
		t.Fatalf("Has(KindTransform) = false")
	}
	if w.Has(id, KindJammer) {
		t.Fatalf("Has(KindJammer) = true for entity without jammer")
	}
}

func TestAddReplacesExistingComponent(t *testing.T) {
	w := NewWorld()
	id := w.CreateEntity()

	w.AddReceiver(id, NewReceiver(config.BandUHF433, -100))
	w.AddReceiver(id, NewReceiver(config.BandISM915, -90))

	rx := w.Receiver(id)
	if rx.Band != config.BandISM915 || rx.SensitivityDBm != -90 {
		t.Fatalf("receiver not replaced: %+v", rx)
	}
}

func TestAddComponentByKind(t *testing.T) {
	w := NewWorld()
	id := w.CreateEntity()

	for kind := Kind(0); kind < kindCount; kind++ {
		if !w.AddComponent(id, kind) {
			t.Fatalf("AddComponent(%s) failed", kind)
		}
		if !w.Has(id, kind) {
			t.Fatalf("Has(%s) = false after AddComponent", kind)
		}
	}

	if got := w.Transform(id).Scale; got != 1 {
		t.Fatalf("default transform scale = %v, want 1", got)
	}
	if w.AddComponent(999, KindTransform) {
		t.Fatalf("AddComponent on unknown entity returned true")
	}
}

func TestAddComponentUnknownKindPanics(t *testing.T) {
	w := NewWorld()
	id := w.CreateEntity()

	defer func() {
		if recover() == nil {
			t.Fatalf("AddComponent with unknown kind did not panic")
		}
	}()
	w.AddComponent(id, kindCount)
}

func TestRemoveComponent(t *testing.T) {
	w := NewWorld()
	id := w.CreateEntity()
	w.AddJammer(id, Jammer{Type: "STANDARD"})

	if !w.RemoveComponent(id, KindJammer) {
		t.Fatalf("RemoveComponent returned false")
	}
	if w.Jammer(id) != nil {
		t.Fatalf("jammer still present after remove")
	}
	if w.RemoveComponent(id, KindJammer) {
		t.Fatalf("RemoveComponent returned true for absent component")
	}
}

func TestDestroyRemovesAllComponents(t *testing.T) {
	w := NewWorld()
	id := w.CreateEntity()
	w.AddTransform(id, NewTransform(Vec3{}))
	w.AddTransmitter(id, Transmitter{Band: config.BandUHF433})
	w.AddTeam(id, TeamEnemy)

	w.DestroyEntity(id)

	if w.Transform(id) != nil || w.Transmitter(id) != nil {
		t.Fatalf("components survived destroy")
	}
	if _, ok := w.Team(id); ok {
		t.Fatalf("team survived destroy")
	}
	for _, ids := range [][]EntityID{
		w.EntitiesWith(KindTransform),
		w.EntitiesWith(KindTransmitter),
		w.EntitiesWith(KindTeam),
	} {
		if len(ids) != 0 {
			t.Fatalf("index still lists destroyed entity: %v", ids)
		}
	}
}

func TestEntitiesWithIntersection(t *testing.T) {
	w := NewWorld()

	both := w.CreateEntity()
	w.AddTransform(both, NewTransform(Vec3{}))
	w.AddTransmitter(both, Transmitter{Band: config.BandUHF433})

	onlyTransform := w.CreateEntity()
	w.AddTransform(onlyTransform, NewTransform(Vec3{}))

	onlyTx := w.CreateEntity()
	w.AddTransmitter(onlyTx, Transmitter{Band: config.BandUHF433})

	got := w.EntitiesWith(KindTransform, KindTransmitter)
	if len(got) != 1 || got[0] != both {
		t.Fatalf("EntitiesWith = %v, want [%d]", got, both)
	}
}

func TestEntitiesWithOrderIsAscending(t *testing.T) {
	w := NewWorld()
	var want []EntityID
	for i := 0; i < 8; i++ {
		id := w.CreateEntity()
		w.AddTeam(id, TeamPlayer)
		want = append(want, id)
	}

	got := w.EntitiesWith(KindTeam)
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range got {
		if got[i] != want[i] {
			t.Fatalf("order mismatch at %d: got %v want %v", i, got, want)
		}
	}
}

func TestEventQueueDrain(t *testing.T) {
	w := NewWorld()
	id := w.CreateEntity()
	w.AddTransform(id, NewTransform(Vec3{}))
	w.DestroyEntity(id)

	events := w.DrainEvents()
	kinds := make([]EventKind, 0, len(events))
	for _, ev := range events {
		kinds = append(kinds, ev.Kind)
	}
	want := []EventKind{EventEntityCreated, EventComponentAdded, EventComponentRemoved, EventEntityDestroyed}
	if len(kinds) != len(want) {
		t.Fatalf("events = %v, want %v", kinds, want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Fatalf("event %d = %v, want %v", i, kinds[i], want[i])
		}
	}

	if again := w.DrainEvents(); len(again) != 0 {
		t.Fatalf("second drain returned %d events, want 0", len(again))
	}
}

func TestClearEmptiesWorld(t *testing.T) {
	w := NewWorld()
	for i := 0; i < 5; i++ {
		id := w.CreateEntity()
		w.AddTransform(id, NewTransform(Vec3{}))
	}
	w.Clear()

	if w.EntityCount() != 0 {
		t.Fatalf("EntityCount = %d after clear", w.EntityCount())
	}
	if evs := w.DrainEvents(); len(evs) != 0 {
		t.Fatalf("clear left %d queued events", len(evs))
	}
}
