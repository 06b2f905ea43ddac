package game

import (
	"testing"
	"time"

	"github.com/wfunc/planetserver/models"
)

func TestAddPlayer_SpawnInsideVolume(t *testing.T) {
	w := newTestWorld()

	for i := 0; i < 50; i++ {
		p := w.AddPlayer("p")
		if p.Position.X < -20 || p.Position.X > 20 || p.Position.Z < -20 || p.Position.Z > 20 {
			t.Fatalf("Spawn outside the volume: %+v", p.Position)
		}
		if p.Position.Y != 1 {
			t.Fatalf("Expected spawn height 1, got %f", p.Position.Y)
		}
		if p.VerticalState != VerticalGrounded || p.PlanetID != "" {
			t.Fatal("New players start grounded in free flight")
		}
		w.RemovePlayer("p")
	}
}

func TestRemovePlayer_CascadesProjectiles(t *testing.T) {
	w := newTestWorld()
	w.AddPlayer("p1")
	w.AddPlayer("p2")
	now := time.Now()

	w.SpawnProjectile("p1", models.ProjectileInput{Direction: models.Vector3{X: 1}}, now)
	w.SpawnProjectile("p2", models.ProjectileInput{Direction: models.Vector3{X: 1}}, now)

	if !w.RemovePlayer("p1") {
		t.Fatal("First removal should report success")
	}
	if _, exists := w.GetProjectile("p1_0"); exists {
		t.Error("Owned projectile must be cascade-deleted")
	}
	if _, exists := w.GetProjectile("p2_0"); !exists {
		t.Error("Other players' projectiles must survive")
	}

	// Idempotent
	if w.RemovePlayer("p1") {
		t.Error("Second removal must be a no-op")
	}
}

func TestSnapshot_ReportsRemovalsOnce(t *testing.T) {
	w := newTestWorld()
	w.AddPlayer("p1")
	w.SpawnProjectile("p1", models.ProjectileInput{Direction: models.Vector3{X: 1}}, time.Now())
	w.RemovePlayer("p1")

	snap := w.Snapshot(1)
	if len(snap.RemovedPlayers) != 1 || snap.RemovedPlayers[0] != "p1" {
		t.Errorf("Expected p1 in removed players, got %v", snap.RemovedPlayers)
	}
	if len(snap.RemovedProjectiles) != 1 {
		t.Errorf("Expected cascade removal in snapshot, got %v", snap.RemovedProjectiles)
	}

	// Removal lists are cleared after each snapshot
	snap = w.Snapshot(2)
	if len(snap.RemovedPlayers) != 0 || len(snap.RemovedProjectiles) != 0 {
		t.Error("Removals must only be reported once")
	}
}

func TestSnapshot_ContainsPlanets(t *testing.T) {
	w := newTestWorld()
	w.AddPlayer("p1")

	snap := w.Snapshot(1)
	if len(snap.Planets) != 2 {
		t.Fatalf("Expected 2 planets, got %d", len(snap.Planets))
	}
	if len(snap.Players) != 1 {
		t.Fatalf("Expected 1 player, got %d", len(snap.Players))
	}
}
