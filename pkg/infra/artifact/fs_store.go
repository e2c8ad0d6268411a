package artifact

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/trustlocal/scamguard/pkg/domain"
	"github.com/trustlocal/scamguard/pkg/domain/model"
)

const (
	artifactExt       = ".json"
	latestPointerFile = "LATEST"
)

// FSStore persists model artifacts as one JSON file per version inside
// a single directory, plus a LATEST pointer file. Writes go to a temp
// file first and land with an atomic rename, so a reader never sees a
// half-written artifact and a crash mid-write leaves only a stray temp
// file behind.
type FSStore struct {
	logger *logrus.Logger
	dir    string
}

func NewFSStore(logger *logrus.Logger, dir string) (*FSStore, error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create artifact directory: %w", err)
	}
	return &FSStore{
		logger: logger,
		dir:    dir,
	}, nil
}

func (s *FSStore) Save(ctx context.Context, artifact *model.Artifact) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(artifact)
	if err != nil {
		return fmt.Errorf("failed to serialize artifact: %w", err)
	}

	final := s.versionPath(artifact.Version)
	if err := s.writeAtomic(final, data); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrUpstreamUnavailable, err)
	}

	// the pointer moves only after the artifact itself is durable
	if err := s.writeAtomic(filepath.Join(s.dir, latestPointerFile), []byte(artifact.Version)); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrUpstreamUnavailable, err)
	}

	s.logger.WithFields(logrus.Fields{
		"version": artifact.Version,
		"bytes":   len(data),
	}).Info("model artifact persisted")
	return nil
}

func (s *FSStore) Load(ctx context.Context, version string) (*model.Artifact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.versionPath(version))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("model version %s not found: %w", version, err)
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrUpstreamUnavailable, err)
	}

	var artifact model.Artifact
	if err := json.Unmarshal(data, &artifact); err != nil {
		return nil, domain.NewCorruptArtifactError(version, fmt.Sprintf("stored artifact is not valid JSON: %v", err))
	}
	if artifact.Version != version {
		return nil, domain.NewCorruptArtifactError(version, fmt.Sprintf("stored artifact claims version %q", artifact.Version))
	}
	return &artifact, nil
}

// Versions lists the stored version ids, most recently created first.
func (s *FSStore) Versions(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrUpstreamUnavailable, err)
	}

	type versionInfo struct {
		name    string
		modTime int64
	}
	var versions []versionInfo
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), artifactExt) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		versions = append(versions, versionInfo{
			name:    strings.TrimSuffix(entry.Name(), artifactExt),
			modTime: info.ModTime().UnixNano(),
		})
	}
	sort.Slice(versions, func(i, j int) bool {
		return versions[i].modTime > versions[j].modTime
	})

	names := make([]string, len(versions))
	for i, v := range versions {
		names[i] = v.name
	}
	return names, nil
}

func (s *FSStore) LatestVersion(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, err := os.ReadFile(filepath.Join(s.dir, latestPointerFile))
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("%w: %w", domain.ErrUpstreamUnavailable, err)
	}
	return strings.TrimSpace(string(data)), nil
}

func (s *FSStore) versionPath(version string) string {
	return filepath.Join(s.dir, version+artifactExt)
}

func (s *FSStore) writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(s.dir, ".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
