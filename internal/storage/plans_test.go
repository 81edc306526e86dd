package storage

import (
	"path/filepath"
	"reflect"
	"testing"

	"plan-studio/internal/plan/model"
)

func testPlanStore(t *testing.T) *PlanStore {
	t.Helper()
	s, err := NewPlanStore(filepath.Join(t.TempDir(), "plans.bolt"))
	if err != nil {
		t.Fatalf("open plan store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func samplePlan() *model.FloorPlan {
	plan := &model.FloorPlan{}
	plan.Rooms.Elements = []model.Room{{
		ID:   "room-1",
		Name: "Room 1",
		Bounds: model.RoomBounds{
			Corners: []model.Point{{X: 0, Y: 0}, {X: 1000, Y: 0}, {X: 1000, Y: 1000}, {X: 0, Y: 1000}},
			Area:    1_000_000,
		},
	}}
	plan.Metadata = model.PlanMetadata{
		BoundingBox: model.BoundingBox{MinX: 0, MinY: 0, MaxX: 1000, MaxY: 1000},
		GridSize:    100,
	}
	return plan
}

func TestPlanStore_RoundTrip(t *testing.T) {
	s := testPlanStore(t)

	want := samplePlan()
	if err := s.SavePlan("design-1", want); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := s.GetPlan("design-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !reflect.DeepEqual(got.Rooms.Elements, want.Rooms.Elements) {
		t.Fatalf("rooms mismatch:\n got %+v\nwant %+v", got.Rooms.Elements, want.Rooms.Elements)
	}
	if got.Metadata.BoundingBox != want.Metadata.BoundingBox {
		t.Fatalf("bounding box mismatch: %+v", got.Metadata.BoundingBox)
	}
}

func TestPlanStore_MissingPlan(t *testing.T) {
	s := testPlanStore(t)
	if _, err := s.GetPlan("nope"); err == nil {
		t.Fatal("expected error for missing plan")
	}
}

func TestPlanStore_Delete(t *testing.T) {
	s := testPlanStore(t)

	if err := s.SavePlan("design-1", samplePlan()); err != nil {
		t.Fatal(err)
	}
	if err := s.DeletePlan("design-1"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GetPlan("design-1"); err == nil {
		t.Fatal("plan still present after delete")
	}
}
