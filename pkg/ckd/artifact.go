package ckd

import (
	"bytes"
	"compress/gzip"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"git.sr.ht/~flobar/ckd/pkg/ckd/ml"
)

// Format is the version of the artifact format.  Artifacts with a
// different format cannot be loaded.
const Format = "ckd/1"

// Names of the two persisted parts of an artifact.
const (
	ModelPart         = "model"
	PreprocessingPart = "preprocessing"
)

// Artifact bundles a fitted model with the preprocessing statistics,
// the schema and the missing value sentinels that produced its input
// space.  The parts are always saved and loaded together.
type Artifact struct {
	Schema        Schema
	Classes       [2]string
	Missing       []string
	Preprocessing *Preprocessing
	Model         ml.Classifier
	Report        Report
}

// Predict transforms the given records and returns their predicted
// labels and scores.
func (a Artifact) Predict(rows [][]Value) (labels, scores []float64, err error) {
	x, err := a.Preprocessing.TransformRows(rows)
	if err != nil {
		return nil, nil, fmt.Errorf("predict: %w", err)
	}
	return a.Model.PredictLabels(x).RawVector().Data, a.Model.PredictScores(x).RawVector().Data, nil
}

// Loader returns a loader that reads records the way the training
// data was read.  Missing overrides the artifact's sentinels if it is
// not empty.
func (a Artifact) Loader(missing []string) Loader {
	if len(missing) == 0 {
		missing = a.Missing
	}
	if len(missing) == 0 {
		missing = DefaultMissing
	}
	return Loader{
		Schema:  a.Schema,
		Missing: append([]string(nil), missing...),
		Classes: a.Classes[:],
	}
}

// Store persists artifacts.
type Store interface {
	Save(Artifact) error
	Load() (Artifact, error)
	Location() string
}

// OpenStore returns the store for the given location.  Locations
// ending in .db or .bolt (optionally followed by #name) denote a
// single file bolt store; all other locations denote a directory that
// holds the two parts as gzipped json files.
func OpenStore(location string) (Store, error) {
	if location == "" {
		return nil, fmt.Errorf("openStore: empty location: %w", ErrInvalidConfig)
	}
	path, name := location, defaultBoltName
	if i := strings.LastIndexByte(location, '#'); i >= 0 {
		path, name = location[:i], location[i+1:]
	}
	if ext := filepath.Ext(path); ext == ".db" || ext == ".bolt" {
		if name == "" {
			return nil, fmt.Errorf("openStore %s: empty name: %w", location, ErrInvalidConfig)
		}
		return boltStore{path: path, name: name}, nil
	}
	return dirStore{dir: location}, nil
}

// part is the envelope of a persisted part.  Pair binds the two parts
// of an artifact together; Sum is the checksum of the payload.
type part struct {
	Format  string          `json:"format"`
	Kind    string          `json:"kind"`
	Pair    string          `json:"pair"`
	Sum     string          `json:"sum"`
	Payload json.RawMessage `json:"payload"`
}

type modelPayload struct {
	Model  json.RawMessage `json:"model"`
	Report Report          `json:"report"`
}

type preprocessingPayload struct {
	Schema        Schema         `json:"schema"`
	Classes       [2]string      `json:"classes"`
	Missing       []string       `json:"missing"`
	Preprocessing *Preprocessing `json:"preprocessing"`
}

func checksum(data ...[]byte) string {
	h := sha256.New()
	for _, d := range data {
		h.Write(d)
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// encodeParts encodes the artifact into its gzipped model and
// preprocessing parts.
func encodeParts(a Artifact) (model, pre []byte, err error) {
	if a.Model == nil || a.Preprocessing == nil {
		return nil, nil, fmt.Errorf("encode: incomplete artifact")
	}
	m, err := ml.Marshal(a.Model)
	if err != nil {
		return nil, nil, fmt.Errorf("encode: %v", err)
	}
	mp, err := json.Marshal(modelPayload{Model: m, Report: a.Report})
	if err != nil {
		return nil, nil, fmt.Errorf("encode: %v", err)
	}
	pp, err := json.Marshal(preprocessingPayload{
		Schema:        a.Schema,
		Classes:       a.Classes,
		Missing:       a.Missing,
		Preprocessing: a.Preprocessing,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("encode: %v", err)
	}
	pair := checksum(mp, pp)
	if model, err = gzipPart(part{Format, ModelPart, pair, checksum(mp), mp}); err != nil {
		return nil, nil, fmt.Errorf("encode: %v", err)
	}
	if pre, err = gzipPart(part{Format, PreprocessingPart, pair, checksum(pp), pp}); err != nil {
		return nil, nil, fmt.Errorf("encode: %v", err)
	}
	return model, pre, nil
}

func gzipPart(p part) ([]byte, error) {
	var buf bytes.Buffer
	zip := gzip.NewWriter(&buf)
	if err := json.NewEncoder(zip).Encode(p); err != nil {
		return nil, err
	}
	if err := zip.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func gunzipPart(data []byte, kind string) (part, error) {
	zip, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return part{}, fmt.Errorf("%s: %v", kind, err)
	}
	defer zip.Close()
	var p part
	if err := json.NewDecoder(zip).Decode(&p); err != nil {
		return part{}, fmt.Errorf("%s: %v", kind, err)
	}
	// Read to EOF to verify the gzip checksum.
	if _, err := io.Copy(io.Discard, zip); err != nil {
		return part{}, fmt.Errorf("%s: %v", kind, err)
	}
	switch {
	case p.Format != Format:
		return part{}, fmt.Errorf("%s: incompatible format %q", kind, p.Format)
	case p.Kind != kind:
		return part{}, fmt.Errorf("%s: bad kind %q", kind, p.Kind)
	case p.Sum != checksum(p.Payload):
		return part{}, fmt.Errorf("%s: bad checksum", kind)
	}
	return p, nil
}

// decodeParts decodes and validates both parts of an artifact.  Any
// problem is reported as ErrArtifactCorrupt.
func decodeParts(model, pre []byte) (Artifact, error) {
	a, err := decode(model, pre)
	if err != nil {
		return Artifact{}, fmt.Errorf("decode: %v: %w", err, ErrArtifactCorrupt)
	}
	return a, nil
}

func decode(model, pre []byte) (Artifact, error) {
	if model == nil || pre == nil {
		return Artifact{}, fmt.Errorf("missing part")
	}
	mp, err := gunzipPart(model, ModelPart)
	if err != nil {
		return Artifact{}, err
	}
	pp, err := gunzipPart(pre, PreprocessingPart)
	if err != nil {
		return Artifact{}, err
	}
	if mp.Pair != pp.Pair || mp.Pair != checksum(mp.Payload, pp.Payload) {
		return Artifact{}, fmt.Errorf("parts do not belong together")
	}
	var m modelPayload
	if err := json.Unmarshal(mp.Payload, &m); err != nil {
		return Artifact{}, err
	}
	var p preprocessingPayload
	if err := json.Unmarshal(pp.Payload, &p); err != nil {
		return Artifact{}, err
	}
	if p.Preprocessing == nil {
		return Artifact{}, fmt.Errorf("missing preprocessing")
	}
	if !p.Schema.Equal(p.Preprocessing.Schema) {
		return Artifact{}, fmt.Errorf("preprocessing does not match schema")
	}
	if err := p.Preprocessing.Check(); err != nil {
		return Artifact{}, err
	}
	classifier, err := ml.Unmarshal(m.Model)
	if err != nil {
		return Artifact{}, err
	}
	if err := ml.CheckInputs(classifier, len(p.Preprocessing.Stats)); err != nil {
		return Artifact{}, err
	}
	return Artifact{
		Schema:        p.Schema,
		Classes:       p.Classes,
		Missing:       p.Missing,
		Preprocessing: p.Preprocessing,
		Model:         classifier,
		Report:        m.Report,
	}, nil
}

// Names of the part files of a directory store.
const (
	ModelFile         = ModelPart + ".json.gz"
	PreprocessingFile = PreprocessingPart + ".json.gz"
)

// dirStore keeps the two parts as files in one directory.  Save
// writes a complete new directory next to the target and renames it
// into place, so a reader sees either the old or the new artifact.
type dirStore struct {
	dir string
}

func (s dirStore) Location() string { return s.dir }

func (s dirStore) Save(a Artifact) (err error) {
	model, pre, err := encodeParts(a)
	if err != nil {
		return fmt.Errorf("save %s: %v", s.dir, err)
	}
	if err := s.checkTarget(); err != nil {
		return fmt.Errorf("save %s: %v", s.dir, err)
	}
	parent, base := filepath.Split(filepath.Clean(s.dir))
	if parent == "" {
		parent = "."
	}
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return fmt.Errorf("save %s: %v", s.dir, err)
	}
	tmp, err := os.MkdirTemp(parent, "."+base+".tmp-")
	if err != nil {
		return fmt.Errorf("save %s: %v", s.dir, err)
	}
	defer func() {
		if err != nil {
			os.RemoveAll(tmp)
		}
	}()
	if err := writeFile(filepath.Join(tmp, ModelFile), model); err != nil {
		return fmt.Errorf("save %s: %v", s.dir, err)
	}
	if err := writeFile(filepath.Join(tmp, PreprocessingFile), pre); err != nil {
		return fmt.Errorf("save %s: %v", s.dir, err)
	}
	if err := os.Chmod(tmp, 0o755); err != nil {
		return fmt.Errorf("save %s: %v", s.dir, err)
	}
	if err := replaceDir(tmp, s.dir); err != nil {
		return fmt.Errorf("save %s: %v", s.dir, err)
	}
	return nil
}

// checkTarget refuses to replace directories that contain anything
// but artifact parts.
func (s dirStore) checkTarget() error {
	entries, err := os.ReadDir(s.dir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	for _, e := range entries {
		if name := e.Name(); name != ModelFile && name != PreprocessingFile {
			return fmt.Errorf("not an artifact directory: contains %s", name)
		}
	}
	return nil
}

func replaceDir(tmp, dir string) error {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return os.Rename(tmp, dir)
	}
	old := tmp + ".old"
	if err := os.Rename(dir, old); err != nil {
		return err
	}
	if err := os.Rename(tmp, dir); err != nil {
		if exx := os.Rename(old, dir); exx != nil {
			return fmt.Errorf("%v (restore: %v)", err, exx)
		}
		return err
	}
	return os.RemoveAll(old)
}

func writeFile(path string, data []byte) (err error) {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if exx := out.Close(); exx != nil && err == nil {
			err = exx
		}
	}()
	if _, err := out.Write(data); err != nil {
		return err
	}
	return out.Sync()
}

func (s dirStore) Load() (Artifact, error) {
	model, err := readPart(filepath.Join(s.dir, ModelFile))
	if err != nil {
		return Artifact{}, fmt.Errorf("load %s: %w", s.dir, err)
	}
	pre, err := readPart(filepath.Join(s.dir, PreprocessingFile))
	if err != nil {
		return Artifact{}, fmt.Errorf("load %s: %w", s.dir, err)
	}
	a, err := decodeParts(model, pre)
	if err != nil {
		return Artifact{}, fmt.Errorf("load %s: %w", s.dir, err)
	}
	return a, nil
}

func readPart(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("missing part %s: %w", filepath.Base(path), ErrArtifactCorrupt)
	}
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, ErrSourceUnavailable)
	}
	return data, nil
}
