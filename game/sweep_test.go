package game

import (
	"math"
	"testing"
	"time"

	"github.com/wfunc/planetserver/models"
)

func TestSweepProjectiles_RemovesExpired(t *testing.T) {
	w := newTestWorld()
	w.AddPlayer("p1")
	now := time.Now()

	w.SpawnProjectile("p1", models.ProjectileInput{Direction: models.Vector3{X: 1}}, now)
	w.SpawnProjectile("p1", models.ProjectileInput{Direction: models.Vector3{X: 1}}, now.Add(5*time.Second))

	// 11 seconds later the first projectile (lifetime 10s) is expired
	removed := w.SweepProjectiles(now.Add(11 * time.Second))
	if removed != 1 {
		t.Fatalf("Expected 1 removal, got %d", removed)
	}
	if _, exists := w.GetProjectile("p1_0"); exists {
		t.Error("Expired projectile still present after sweep")
	}
	if _, exists := w.GetProjectile("p1_1"); !exists {
		t.Error("Live projectile was removed")
	}

	// The removal is explicit in the next snapshot
	snap := w.Snapshot(1)
	if len(snap.RemovedProjectiles) != 1 || snap.RemovedProjectiles[0] != "p1_0" {
		t.Errorf("Removal not reported in snapshot: %v", snap.RemovedProjectiles)
	}
}

func TestSweepProjectiles_ExactLifetimeSurvives(t *testing.T) {
	w := newTestWorld()
	w.AddPlayer("p1")
	now := time.Now()
	w.SpawnProjectile("p1", models.ProjectileInput{Direction: models.Vector3{X: 1}}, now)

	// now - createdAt == maxLifetime is still within bounds
	if removed := w.SweepProjectiles(now.Add(10 * time.Second)); removed != 0 {
		t.Errorf("Projectile at exactly maxLifetime must survive, removed %d", removed)
	}
}

func TestAdvanceMotion_JumpArc(t *testing.T) {
	w := newTestWorld()
	p := w.AddPlayer("p1")
	w.Land("p1", models.LandInput{PlanetID: "planet1", Position: models.Vector3{X: 5.5}})
	ground := p.Position
	w.Jump("p1")

	dt := 100 * time.Millisecond

	// Ascending through the first half of the 1.2s arc
	w.AdvanceMotion(dt)
	if p.VerticalState != VerticalAscending {
		t.Fatalf("Expected ascending, got %s", p.VerticalState)
	}
	if vecLength(p.Position) <= vecLength(ground) {
		t.Error("Player did not lift off the surface")
	}

	// Past the midpoint: descending
	for i := 0; i < 5; i++ {
		w.AdvanceMotion(dt)
	}
	if p.VerticalState != VerticalDescending {
		t.Fatalf("Expected descending after midpoint, got %s", p.VerticalState)
	}

	// Completion: snapped exactly to ground height, no residual drift
	for i := 0; i < 6; i++ {
		w.AdvanceMotion(dt)
	}
	if p.VerticalState != VerticalGrounded || p.VerticalElapsed != 0 {
		t.Fatalf("Expected grounded/0, got %s/%f", p.VerticalState, p.VerticalElapsed)
	}
	if p.Position != ground {
		t.Errorf("Residual drift after landing: %+v vs %+v", p.Position, ground)
	}
}

func TestAdvanceMotion_PeakNearJumpHeight(t *testing.T) {
	w := newTestWorld()
	p := w.AddPlayer("p1")
	w.Land("p1", models.LandInput{PlanetID: "planet1", Position: models.Vector3{X: 5.5}})
	w.Jump("p1")

	// Step to the exact midpoint: 6 × 100ms of a 1.2s arc
	for i := 0; i < 6; i++ {
		w.AdvanceMotion(100 * time.Millisecond)
	}
	lift := vecLength(p.Position) - 5.5
	if math.Abs(lift-2.0) > 1e-6 {
		t.Errorf("Expected apex lift 2.0, got %f", lift)
	}
}

func TestAdvanceMotion_CancelledWithoutPlanet(t *testing.T) {
	w := newTestWorld()
	p := w.AddPlayer("p1")
	w.Land("p1", models.LandInput{PlanetID: "planet1", Position: models.Vector3{X: 5.5}})
	w.Jump("p1")

	// Simulate a dangling planet reference mid-arc
	p.PlanetID = "gone"
	w.AdvanceMotion(100 * time.Millisecond)

	if p.VerticalState != VerticalGrounded {
		t.Error("Jump must be cancelled when the planet cannot be resolved")
	}
}

func TestAdvanceMotion_DisconnectedPlayerTolerated(t *testing.T) {
	w := newTestWorld()
	w.AddPlayer("p1")
	w.Land("p1", models.LandInput{PlanetID: "planet1", Position: models.Vector3{X: 5.5}})
	w.Jump("p1")
	w.RemovePlayer("p1")

	// Must not panic with the jumping player gone
	w.AdvanceMotion(100 * time.Millisecond)
}
