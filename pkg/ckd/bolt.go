package ckd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
)

const (
	artifactsBucket = "artifacts"
	defaultBoltName = "default"
)

// boltStore keeps artifacts in a single bolt database file.  Each
// artifact lives in the bucket artifacts/<name>; both parts are
// written in one transaction.
type boltStore struct {
	path string
	name string
}

func (s boltStore) Location() string { return s.path + "#" + s.name }

func (s boltStore) open(readOnly bool) (*bbolt.DB, error) {
	if !readOnly {
		if dir := filepath.Dir(s.path); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, err
			}
		}
	}
	return bbolt.Open(s.path, 0o600, &bbolt.Options{
		Timeout:  1 * time.Second,
		ReadOnly: readOnly,
	})
}

func (s boltStore) Save(a Artifact) error {
	model, pre, err := encodeParts(a)
	if err != nil {
		return fmt.Errorf("save %s: %v", s.Location(), err)
	}
	db, err := s.open(false)
	if err != nil {
		return fmt.Errorf("save %s: %v", s.Location(), err)
	}
	defer db.Close()
	err = db.Update(func(tx *bbolt.Tx) error {
		root, err := tx.CreateBucketIfNotExists([]byte(artifactsBucket))
		if err != nil {
			return fmt.Errorf("create artifacts bucket: %w", err)
		}
		b, err := root.CreateBucketIfNotExists([]byte(s.name))
		if err != nil {
			return fmt.Errorf("create bucket %s: %w", s.name, err)
		}
		if err := b.Put([]byte(ModelPart), model); err != nil {
			return err
		}
		return b.Put([]byte(PreprocessingPart), pre)
	})
	if err != nil {
		return fmt.Errorf("save %s: %v", s.Location(), err)
	}
	return nil
}

func (s boltStore) Load() (Artifact, error) {
	if _, err := os.Stat(s.path); err != nil {
		return Artifact{}, fmt.Errorf("load %s: %v: %w", s.Location(), err, ErrSourceUnavailable)
	}
	db, err := s.open(true)
	if err != nil {
		return Artifact{}, fmt.Errorf("load %s: %v: %w", s.Location(), err, ErrSourceUnavailable)
	}
	defer db.Close()
	var model, pre []byte
	err = db.View(func(tx *bbolt.Tx) error {
		root := tx.Bucket([]byte(artifactsBucket))
		if root == nil {
			return nil
		}
		b := root.Bucket([]byte(s.name))
		if b == nil {
			return nil
		}
		// Values are only valid for the life of the transaction.
		model = clone(b.Get([]byte(ModelPart)))
		pre = clone(b.Get([]byte(PreprocessingPart)))
		return nil
	})
	if err != nil {
		return Artifact{}, fmt.Errorf("load %s: %v: %w", s.Location(), err, ErrSourceUnavailable)
	}
	ret, err := decodeParts(model, pre)
	if err != nil {
		return Artifact{}, fmt.Errorf("load %s: %w", s.Location(), err)
	}
	return ret, nil
}

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	return append([]byte{}, b...)
}
