// Sawitrec - Recommendation Serving for Plantation Supply Commerce
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sawitrec

package storage

import (
	"bytes"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/tomtom215/sawitrec/internal/metrics"
	"github.com/tomtom215/sawitrec/internal/recommend"
)

const (
	filePrefix = "snapshot_v"
	fileSuffix = ".gob.gz"
)

var (
	// ErrNotFound is returned when no snapshot exists for the requested version.
	ErrNotFound = errors.New("snapshot not found")

	// ErrChecksumMismatch is returned when stored data fails verification.
	ErrChecksumMismatch = errors.New("snapshot checksum mismatch")

	// ErrUnsupportedModel is returned when a snapshot carries a model that
	// cannot be persisted.
	ErrUnsupportedModel = errors.New("snapshot model is not a factor model")

	// ErrVersionExists is returned by Save when the version is already
	// stored. Stored versions are never overwritten.
	ErrVersionExists = errors.New("snapshot version already exists")
)

// SnapshotMetadata describes a stored snapshot.
type SnapshotMetadata struct {
	Version   int       `json:"version"`
	TrainedAt time.Time `json:"trained_at"`
	SavedAt   time.Time `json:"saved_at"`

	UserCount int `json:"user_count"`
	ItemCount int `json:"item_count"`
	Factors   int `json:"factors"`
	NNZ       int `json:"nnz"`

	// Checksum is the SHA-256 of the uncompressed state.
	Checksum string `json:"checksum"`

	// SizeBytes is the compressed state size.
	SizeBytes int64 `json:"size_bytes"`

	TrainingDurationMS int64 `json:"training_duration_ms,omitempty"`
}

// snapshotState is the gob-encoded form of a recommend.Snapshot.
type snapshotState struct {
	UserIDs     []string
	ProductIDs  []string
	Entries     []recommend.MatrixEntry
	UserFactors [][]float64
	ItemFactors [][]float64
}

// storedFile is the on-disk format.
type storedFile struct {
	Metadata       SnapshotMetadata
	CompressedData []byte
}

// Store persists snapshots as versioned files in one directory.
type Store struct {
	baseDir string

	mu       sync.RWMutex
	versions []int // ascending
}

// NewStore opens or creates a snapshot store at baseDir.
func NewStore(baseDir string) (*Store, error) {
	if err := os.MkdirAll(baseDir, 0o750); err != nil { //nolint:gosec // 0750 is acceptable for model storage
		return nil, fmt.Errorf("create storage directory: %w", err)
	}

	s := &Store{baseDir: baseDir}
	if err := s.Rescan(); err != nil {
		return nil, fmt.Errorf("scan existing snapshots: %w", err)
	}
	return s, nil
}

// Dir returns the storage directory.
func (s *Store) Dir() string {
	return s.baseDir
}

// Rescan rebuilds the version index from the directory contents.
func (s *Store) Rescan() error {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return err
	}

	var versions []int
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if v, ok := ParseFilename(entry.Name()); ok {
			versions = append(versions, v)
		}
	}
	sort.Ints(versions)

	s.mu.Lock()
	s.versions = versions
	s.mu.Unlock()
	return nil
}

// ParseFilename extracts the version from a name like "snapshot_v12.gob.gz".
func ParseFilename(name string) (int, bool) {
	if !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, fileSuffix) {
		return 0, false
	}
	v, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(name, filePrefix), fileSuffix))
	if err != nil || v < 1 {
		return 0, false
	}
	return v, true
}

// Path returns the file path of a snapshot version.
func (s *Store) Path(version int) string {
	return filepath.Join(s.baseDir, fmt.Sprintf("%s%d%s", filePrefix, version, fileSuffix))
}

// Save writes snap under its version. The file is written to a temporary
// name and linked into place so that watchers never observe partial files.
// An existing version is left untouched and ErrVersionExists returned.
//
//nolint:gocritic // meta passed by value is acceptable for this write operation
func (s *Store) Save(ctx context.Context, snap *recommend.Snapshot, meta SnapshotMetadata) (*SnapshotMetadata, error) {
	start := time.Now()
	out, err := s.save(ctx, snap, meta)
	metrics.RecordSnapshotIO("save", time.Since(start), err)
	return out, err
}

//nolint:gocritic // see Save
func (s *Store) save(ctx context.Context, snap *recommend.Snapshot, meta SnapshotMetadata) (*SnapshotMetadata, error) {
	if snap == nil {
		return nil, fmt.Errorf("%w: nil snapshot", recommend.ErrInvalidSnapshot)
	}
	if snap.Version < 1 {
		return nil, fmt.Errorf("%w: version %d", recommend.ErrInvalidSnapshot, snap.Version)
	}
	fm := snap.FactorModel()
	if fm == nil {
		return nil, ErrUnsupportedModel
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	state := snapshotState{
		UserIDs:     snap.Users.IDs(),
		ProductIDs:  snap.Products.IDs(),
		Entries:     snap.Interactions.Entries(),
		UserFactors: fm.UserFactors(),
		ItemFactors: fm.ItemFactors(),
	}

	var raw bytes.Buffer
	if err := gob.NewEncoder(&raw).Encode(state); err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	hash := sha256.Sum256(raw.Bytes())

	var compressed bytes.Buffer
	gzw := gzip.NewWriter(&compressed)
	if _, err := gzw.Write(raw.Bytes()); err != nil {
		return nil, fmt.Errorf("compress snapshot: %w", err)
	}
	if err := gzw.Close(); err != nil {
		return nil, fmt.Errorf("finalize compression: %w", err)
	}

	meta.Version = snap.Version
	meta.TrainedAt = snap.TrainedAt
	meta.SavedAt = time.Now().UTC()
	meta.UserCount = snap.Users.Len()
	meta.ItemCount = snap.Products.Len()
	meta.Factors = fm.Factors()
	meta.NNZ = snap.Interactions.NNZ()
	meta.Checksum = hex.EncodeToString(hash[:])
	meta.SizeBytes = int64(compressed.Len())

	tmp, err := os.CreateTemp(s.baseDir, ".snapshot-*.tmp")
	if err != nil {
		return nil, fmt.Errorf("create snapshot file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }() //nolint:errcheck // the linked copy survives

	sf := storedFile{Metadata: meta, CompressedData: compressed.Bytes()}
	if err := gob.NewEncoder(tmp).Encode(sf); err != nil {
		_ = tmp.Close() //nolint:errcheck // write error takes precedence
		return nil, fmt.Errorf("write snapshot file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close() //nolint:errcheck // sync error takes precedence
		return nil, fmt.Errorf("sync snapshot file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("close snapshot file: %w", err)
	}
	// Link fails when the target exists, unlike Rename.
	if err := os.Link(tmpName, s.Path(snap.Version)); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return nil, fmt.Errorf("%w: v%d", ErrVersionExists, snap.Version)
		}
		return nil, fmt.Errorf("install snapshot file: %w", err)
	}

	s.mu.Lock()
	s.addVersion(snap.Version)
	s.mu.Unlock()

	return &meta, nil
}

// addVersion inserts v keeping versions sorted. Caller holds mu.
func (s *Store) addVersion(v int) {
	i := sort.SearchInts(s.versions, v)
	if i < len(s.versions) && s.versions[i] == v {
		return
	}
	s.versions = append(s.versions, 0)
	copy(s.versions[i+1:], s.versions[i:])
	s.versions[i] = v
}

// Load reads and verifies a snapshot. Version 0 loads the latest.
func (s *Store) Load(ctx context.Context, version int) (*recommend.Snapshot, *SnapshotMetadata, error) {
	start := time.Now()
	snap, meta, err := s.load(ctx, version)
	metrics.RecordSnapshotIO("load", time.Since(start), err)
	return snap, meta, err
}

func (s *Store) load(ctx context.Context, version int) (*recommend.Snapshot, *SnapshotMetadata, error) {
	if version == 0 {
		latest, ok := s.LatestVersion()
		if !ok {
			return nil, nil, fmt.Errorf("%w: store %s is empty", ErrNotFound, s.baseDir)
		}
		version = latest
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	sf, err := s.readFile(version)
	if err != nil {
		return nil, nil, err
	}

	gzr, err := gzip.NewReader(bytes.NewReader(sf.CompressedData))
	if err != nil {
		return nil, nil, fmt.Errorf("decompress snapshot: %w", err)
	}
	defer func() { _ = gzr.Close() }() //nolint:errcheck // error on gzip close after read is not actionable

	raw, err := io.ReadAll(gzr)
	if err != nil {
		return nil, nil, fmt.Errorf("read decompressed data: %w", err)
	}

	hash := sha256.Sum256(raw)
	if checksum := hex.EncodeToString(hash[:]); checksum != sf.Metadata.Checksum {
		return nil, nil, fmt.Errorf("%w: expected %s, got %s", ErrChecksumMismatch, sf.Metadata.Checksum, checksum)
	}

	var state snapshotState
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(&state); err != nil {
		return nil, nil, fmt.Errorf("decode snapshot: %w", err)
	}

	snap, err := state.build(sf.Metadata.Version, sf.Metadata.TrainedAt)
	if err != nil {
		return nil, nil, err
	}
	return snap, &sf.Metadata, nil
}

func (st *snapshotState) build(version int, trainedAt time.Time) (*recommend.Snapshot, error) {
	users, err := recommend.NewEncoder(st.UserIDs)
	if err != nil {
		return nil, fmt.Errorf("user encoder: %w", err)
	}
	products, err := recommend.NewEncoder(st.ProductIDs)
	if err != nil {
		return nil, fmt.Errorf("product encoder: %w", err)
	}
	matrix, err := recommend.NewInteractionMatrix(users.Len(), products.Len(), st.Entries)
	if err != nil {
		return nil, fmt.Errorf("interaction matrix: %w", err)
	}
	model, err := recommend.NewFactorModel(st.UserFactors, st.ItemFactors)
	if err != nil {
		return nil, fmt.Errorf("factor model: %w", err)
	}
	return recommend.NewSnapshot(version, trainedAt, users, products, matrix, model)
}

func (s *Store) readFile(version int) (*storedFile, error) {
	f, err := os.Open(s.Path(version))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: version %d", ErrNotFound, version)
	}
	if err != nil {
		return nil, fmt.Errorf("open snapshot file: %w", err)
	}
	defer func() { _ = f.Close() }() //nolint:errcheck // error on close after read is not actionable

	var sf storedFile
	if err := gob.NewDecoder(f).Decode(&sf); err != nil {
		return nil, fmt.Errorf("read snapshot file: %w", err)
	}
	return &sf, nil
}

// LatestVersion returns the highest stored version.
func (s *Store) LatestVersion() (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.versions) == 0 {
		return 0, false
	}
	return s.versions[len(s.versions)-1], true
}

// List returns metadata for every readable stored snapshot, oldest first.
func (s *Store) List(ctx context.Context) ([]SnapshotMetadata, error) {
	s.mu.RLock()
	versions := append([]int(nil), s.versions...)
	s.mu.RUnlock()

	out := make([]SnapshotMetadata, 0, len(versions))
	for _, v := range versions {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		sf, err := s.readFile(v)
		if err != nil {
			continue
		}
		out = append(out, sf.Metadata)
	}
	return out, nil
}

// Prune removes all but the newest keep versions. keep < 1 is treated as 1.
func (s *Store) Prune(ctx context.Context, keep int) (int, error) {
	if keep < 1 {
		keep = 1
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.versions) <= keep {
		return 0, nil
	}

	cut := len(s.versions) - keep
	removed := 0
	for _, v := range s.versions[:cut] {
		if err := ctx.Err(); err != nil {
			s.versions = s.versions[removed:]
			return removed, err
		}
		if err := os.Remove(s.Path(v)); err != nil && !errors.Is(err, os.ErrNotExist) {
			s.versions = s.versions[removed:]
			return removed, fmt.Errorf("remove version %d: %w", v, err)
		}
		removed++
	}
	s.versions = append([]int(nil), s.versions[cut:]...)
	return removed, nil
}

//nolint:gochecknoinits // gob.Register must be called in init for type registration
func init() {
	gob.Register(snapshotState{})
	gob.Register(storedFile{})
}
