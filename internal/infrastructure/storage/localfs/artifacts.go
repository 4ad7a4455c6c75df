package localfs

import (
	"context"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kirillkom/jobmatch/internal/core/domain"
)

// ArtifactStore keeps encoded corpus vectors on local disk, one directory per
// corpus version. A version mismatch or missing manifest reads as
// ErrArtifactStale so the builder re-encodes instead of serving vectors from
// another corpus.
type ArtifactStore struct {
	basePath string
}

type manifest struct {
	Version   string    `json:"version"`
	Count     int       `json:"count"`
	Dim       int       `json:"dim"`
	CreatedAt time.Time `json:"created_at"`
}

func New(basePath string) (*ArtifactStore, error) {
	if basePath == "" {
		basePath = "./data/artifacts"
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create artifact dir: %w", err)
	}
	return &ArtifactStore{basePath: basePath}, nil
}

func (s *ArtifactStore) dir(version string) string {
	return filepath.Join(s.basePath, version)
}

func (s *ArtifactStore) SaveVectors(_ context.Context, version string, vectors [][]float32) error {
	dir := s.dir(version)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create version dir: %w", err)
	}

	f, err := os.Create(filepath.Join(dir, "vectors.gob"))
	if err != nil {
		return fmt.Errorf("create vectors file: %w", err)
	}
	defer f.Close()
	if err := gob.NewEncoder(f).Encode(vectors); err != nil {
		return fmt.Errorf("encode vectors: %w", err)
	}

	m := manifest{Version: version, Count: len(vectors), CreatedAt: time.Now().UTC()}
	if len(vectors) > 0 {
		m.Dim = len(vectors[0])
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "manifest.json"), raw, 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

func (s *ArtifactStore) LoadVectors(_ context.Context, version string) ([][]float32, error) {
	dir := s.dir(version)

	raw, err := os.ReadFile(filepath.Join(dir, "manifest.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.WrapError(domain.ErrArtifactStale, "load vectors",
				fmt.Errorf("no artifacts for version %s", version))
		}
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m manifest
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	if m.Version != version {
		return nil, domain.WrapError(domain.ErrArtifactStale, "load vectors",
			fmt.Errorf("manifest version %s does not match requested %s", m.Version, version))
	}

	f, err := os.Open(filepath.Join(dir, "vectors.gob"))
	if err != nil {
		return nil, domain.WrapError(domain.ErrArtifactStale, "load vectors", err)
	}
	defer f.Close()

	var vectors [][]float32
	if err := gob.NewDecoder(f).Decode(&vectors); err != nil {
		return nil, fmt.Errorf("decode vectors: %w", err)
	}
	if len(vectors) != m.Count {
		return nil, domain.WrapError(domain.ErrArtifactStale, "load vectors",
			fmt.Errorf("vector count %d does not match manifest %d", len(vectors), m.Count))
	}
	return vectors, nil
}
