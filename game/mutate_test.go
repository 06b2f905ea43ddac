package game

import (
	"math"
	"testing"
	"time"

	"github.com/wfunc/planetserver/models"
)

func testParams() Params {
	return Params{
		ProjectileLifetime: 10 * time.Second,
		ProjectileInterval: 150 * time.Millisecond,
		JumpDuration:       1200 * time.Millisecond,
		JumpHeight:         2.0,
		SurfaceStandoff:    0.5,
		TakeoffClearance:   2.0,
		SpawnExtent:        20,
		SpawnHeight:        1,
	}
}

func testPlanets() []Planet {
	return []Planet{
		{ID: "planet1", Name: "Earth", Position: models.Vector3{}, Radius: 5, Color: "#2233ff"},
		{ID: "planet2", Name: "Mars", Position: models.Vector3{X: 15, Z: 15}, Radius: 3, Color: "#ff3300"},
	}
}

func newTestWorld() *World {
	return NewWorld(testParams(), testPlanets(), 1)
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

func TestMove_OverwritesPositionAndRotation(t *testing.T) {
	w := newTestWorld()
	p := w.AddPlayer("p1")

	q := models.Quaternion{X: 0, Y: 0.7071, Z: 0, W: 0.7071}
	w.Move("p1", models.MoveInput{
		Position:   models.Vector3{X: 1, Y: 2, Z: 3},
		Quaternion: &q,
		Animation:  AnimationWalking,
	})

	if p.Position != (models.Vector3{X: 1, Y: 2, Z: 3}) {
		t.Errorf("Expected position to be overwritten, got %+v", p.Position)
	}
	if p.Rotation != q {
		t.Errorf("Expected rotation to be overwritten, got %+v", p.Rotation)
	}
	if p.Animation != AnimationWalking {
		t.Errorf("Expected animation %q, got %q", AnimationWalking, p.Animation)
	}

	// The stored state always equals the last applied move
	w.Move("p1", models.MoveInput{Position: models.Vector3{X: 9, Y: 8, Z: 7}})
	if p.Position != (models.Vector3{X: 9, Y: 8, Z: 7}) {
		t.Errorf("Expected last move to win, got %+v", p.Position)
	}
}

func TestMove_EulerConvertedToQuaternion(t *testing.T) {
	w := newTestWorld()
	p := w.AddPlayer("p1")

	// 90° yaw
	e := models.Euler{Y: math.Pi / 2}
	w.Move("p1", models.MoveInput{Position: models.Vector3{}, Rotation: &e})

	if !approx(p.Rotation.Y, math.Sin(math.Pi/4)) || !approx(p.Rotation.W, math.Cos(math.Pi/4)) {
		t.Errorf("Euler yaw not converted correctly: %+v", p.Rotation)
	}
}

func TestMove_IgnoredWhileAttached(t *testing.T) {
	w := newTestWorld()
	p := w.AddPlayer("p1")
	w.Land("p1", models.LandInput{PlanetID: "planet1", Position: models.Vector3{X: 5.5}})

	before := p.Position
	w.Move("p1", models.MoveInput{Position: models.Vector3{X: 100, Y: 100, Z: 100}})
	if p.Position != before {
		t.Error("Move must be a no-op while attached to a planet")
	}
}

func TestMove_UnknownPlayerIsNoop(t *testing.T) {
	w := newTestWorld()
	// Races between leave and in-flight intents resolve to no-ops
	w.Move("ghost", models.MoveInput{Position: models.Vector3{X: 1}})
	w.Walk("ghost", models.WalkInput{Angle: 1})
	w.Jump("ghost")
	w.Takeoff("ghost")
	if w.PlayerCount() != 0 {
		t.Error("No player should have been created")
	}
}

func TestLand_ComputesSurfaceAngle(t *testing.T) {
	w := newTestWorld()
	p := w.AddPlayer("p1")

	w.Land("p1", models.LandInput{PlanetID: "planet1", Position: models.Vector3{X: 5.5}})

	if p.PlanetID != "planet1" {
		t.Fatalf("Expected attachment to planet1, got %q", p.PlanetID)
	}
	if !approx(p.SurfaceAngle, 0) {
		t.Errorf("Expected angle ~0, got %f", p.SurfaceAngle)
	}
	// Clamped to radius + standoff on the surface
	if !approx(p.Position.X, 5.5) || !approx(p.Position.Y, 0) || !approx(p.Position.Z, 0) {
		t.Errorf("Expected position (5.5,0,0), got %+v", p.Position)
	}
}

func TestLand_UnknownPlanetIsNoop(t *testing.T) {
	w := newTestWorld()
	p := w.AddPlayer("p1")
	before := p.Position

	w.Land("p1", models.LandInput{PlanetID: "nope", Position: models.Vector3{X: 5.5}})
	if p.PlanetID != "" || p.Position != before {
		t.Error("Landing on an unknown planet must not change state")
	}
}

func TestWalk_QuarterTurn(t *testing.T) {
	w := newTestWorld()
	p := w.AddPlayer("p1")
	w.Land("p1", models.LandInput{PlanetID: "planet1", Position: models.Vector3{X: 5.5}})

	w.Walk("p1", models.WalkInput{Angle: math.Pi / 2})

	// XZ equator: angle π/2 is (0, 0, 5.5)
	if !approx(p.Position.X, 0) || !approx(p.Position.Y, 0) || !approx(p.Position.Z, 5.5) {
		t.Errorf("Expected position (0,0,5.5), got %+v", p.Position)
	}
	if p.Animation != AnimationWalking {
		t.Errorf("Expected walking animation, got %q", p.Animation)
	}
}

func TestWalk_Deterministic(t *testing.T) {
	w := newTestWorld()
	p := w.AddPlayer("p1")
	w.Land("p1", models.LandInput{PlanetID: "planet1", Position: models.Vector3{X: 5.5}})

	w.Walk("p1", models.WalkInput{Angle: 1.234})
	pos1, rot1 := p.Position, p.Rotation
	w.Walk("p1", models.WalkInput{Angle: 1.234})

	if p.Position != pos1 || p.Rotation != rot1 {
		t.Errorf("Walk must be idempotent: %+v vs %+v", pos1, p.Position)
	}
}

func TestWalk_OrientationTangentAndUp(t *testing.T) {
	w := newTestWorld()
	p := w.AddPlayer("p1")
	w.Land("p1", models.LandInput{PlanetID: "planet1", Position: models.Vector3{X: 5.5}})

	angle := math.Pi / 3
	w.Walk("p1", models.WalkInput{Angle: angle})

	// The rotation must carry local up onto the outward normal.
	up := rotate(p.Rotation, models.Vector3{Y: 1})
	normal := models.Vector3{X: math.Cos(angle), Z: math.Sin(angle)}
	if !approx(vecDot(up, normal), 1) {
		t.Errorf("Local up not aligned to surface normal: %+v", up)
	}

	// Local -Z (forward) must be tangent, i.e. orthogonal to the normal.
	forward := rotate(p.Rotation, models.Vector3{Z: -1})
	if !approx(vecDot(forward, normal), 0) {
		t.Errorf("Forward not tangent to the sphere: dot=%f", vecDot(forward, normal))
	}
}

func TestWalk_RequiresAttachment(t *testing.T) {
	w := newTestWorld()
	p := w.AddPlayer("p1")
	before := p.Position

	w.Walk("p1", models.WalkInput{Angle: 1})
	if p.Position != before {
		t.Error("Walk must be a no-op in free flight")
	}
}

func TestTakeoff_DisplacesAlongNormal(t *testing.T) {
	w := newTestWorld()
	p := w.AddPlayer("p1")
	w.Land("p1", models.LandInput{PlanetID: "planet1", Position: models.Vector3{X: 3, Y: 0, Z: 4}})

	before := p.Position
	w.Takeoff("p1")

	if p.PlanetID != "" {
		t.Fatal("Takeoff should clear the attachment")
	}

	// Vector from center to the new position stays parallel to the old one
	n1, _ := vecNormalize(before)
	n2, _ := vecNormalize(p.Position)
	if !approx(vecDot(n1, n2), 1) {
		t.Errorf("Takeoff not radial: dot=%f", vecDot(n1, n2))
	}
	if !approx(vecLength(p.Position), vecLength(before)+2.0) {
		t.Errorf("Expected clearance 2.0, got %f", vecLength(p.Position)-vecLength(before))
	}
}

func TestTakeoff_DegenerateNormalRejected(t *testing.T) {
	w := newTestWorld()
	p := w.AddPlayer("p1")
	w.Land("p1", models.LandInput{PlanetID: "planet1", Position: models.Vector3{X: 5.5}})

	// Force the impossible case: player exactly at the planet center
	p.Position = models.Vector3{}
	w.Takeoff("p1")

	if p.PlanetID != "planet1" {
		t.Error("Degenerate takeoff must stay attached, not produce NaN state")
	}
	if math.IsNaN(p.Position.X) || math.IsNaN(p.Position.Y) || math.IsNaN(p.Position.Z) {
		t.Error("Position became NaN")
	}
}

func TestJump_StateMachine(t *testing.T) {
	w := newTestWorld()
	p := w.AddPlayer("p1")

	// Not attached: ignored
	w.Jump("p1")
	if p.VerticalState != VerticalGrounded {
		t.Fatal("Jump in free flight must be ignored")
	}

	w.Land("p1", models.LandInput{PlanetID: "planet1", Position: models.Vector3{X: 5.5}})
	w.Jump("p1")
	if p.VerticalState != VerticalAscending || p.VerticalElapsed != 0 {
		t.Fatalf("Expected ascending with elapsed 0, got %s/%f", p.VerticalState, p.VerticalElapsed)
	}

	// Already mid-jump: ignored
	p.VerticalElapsed = 0.3
	w.Jump("p1")
	if p.VerticalElapsed != 0.3 {
		t.Error("Jump while mid-jump must not restart the arc")
	}
}

func TestSpawnProjectile(t *testing.T) {
	w := newTestWorld()
	w.AddPlayer("p1")
	now := time.Now()

	proj := w.SpawnProjectile("p1", models.ProjectileInput{
		Position:  models.Vector3{X: 1, Y: 2, Z: 3},
		Direction: models.Vector3{X: 2, Y: 0, Z: 0},
		Color:     "#00ff88",
	}, now)

	if proj == nil {
		t.Fatal("Expected a projectile")
	}
	if proj.ID != "p1_0" || proj.OwnerID != "p1" {
		t.Errorf("Unexpected identity: %s owned by %s", proj.ID, proj.OwnerID)
	}
	if !approx(proj.Direction.X, 1) {
		t.Errorf("Direction not normalized: %+v", proj.Direction)
	}

	// Inside the minimum spawn interval: dropped
	if w.SpawnProjectile("p1", models.ProjectileInput{Direction: models.Vector3{X: 1}}, now.Add(50*time.Millisecond)) != nil {
		t.Error("Spawn inside the rate-limit window must be dropped")
	}

	// After the window: accepted with the next sequence number
	proj2 := w.SpawnProjectile("p1", models.ProjectileInput{Direction: models.Vector3{X: 1}}, now.Add(200*time.Millisecond))
	if proj2 == nil || proj2.ID != "p1_1" {
		t.Fatalf("Expected p1_1 after the window, got %+v", proj2)
	}
}

func TestSpawnProjectile_ZeroDirectionDropped(t *testing.T) {
	w := newTestWorld()
	w.AddPlayer("p1")

	if w.SpawnProjectile("p1", models.ProjectileInput{}, time.Now()) != nil {
		t.Error("Zero direction must be rejected")
	}
	if w.ProjectileCount() != 0 {
		t.Error("No projectile should exist")
	}
}

// rotate applies a quaternion to a vector (q v q*).
func rotate(q models.Quaternion, v models.Vector3) models.Vector3 {
	// t = 2 q_vec × v
	tx := 2 * (q.Y*v.Z - q.Z*v.Y)
	ty := 2 * (q.Z*v.X - q.X*v.Z)
	tz := 2 * (q.X*v.Y - q.Y*v.X)
	// v' = v + w t + q_vec × t
	return models.Vector3{
		X: v.X + q.W*tx + q.Y*tz - q.Z*ty,
		Y: v.Y + q.W*ty + q.Z*tx - q.X*tz,
		Z: v.Z + q.W*tz + q.X*ty - q.Y*tx,
	}
}
