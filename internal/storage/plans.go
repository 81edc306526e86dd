package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"

	"plan-studio/internal/plan/model"
)

// ============================================================
// Plan Artifact Store
// ============================================================

// Floor-plan geometry is stored as an opaque versioned blob, keyed by
// design ID. Once written an artifact never mutates; regeneration stores
// a new design row and a new blob.

var bucketPlans = []byte("plans")

type PlanStore struct {
	db *bbolt.DB
}

func NewPlanStore(path string) (*PlanStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir artifact dir: %w", err)
	}

	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, err
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketPlans)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &PlanStore{db: db}, nil
}

func (s *PlanStore) SavePlan(designID string, plan *model.FloorPlan) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketPlans)
		data, err := json.Marshal(plan)
		if err != nil {
			return err
		}
		return b.Put([]byte(designID), data)
	})
}

func (s *PlanStore) GetPlan(designID string) (*model.FloorPlan, error) {
	var plan model.FloorPlan
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketPlans)
		data := b.Get([]byte(designID))
		if data == nil {
			return fmt.Errorf("plan not found: %s", designID)
		}
		return json.Unmarshal(data, &plan)
	})
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

func (s *PlanStore) DeletePlan(designID string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketPlans).Delete([]byte(designID))
	})
}

func (s *PlanStore) Close() error {
	return s.db.Close()
}
