package corpus

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/sha3"
)

// manifestName is the per-mirror record of fixture content hashes from the
// last successful synchronization. Hidden so mirror walks skip it.
const manifestName = ".corpus-manifest.json"

// Diff lists the fixture paths (relative to the mirror root) that changed
// relative to the last synchronization.
type Diff struct {
	Added    []string
	Modified []string
	Removed  []string
}

func (d Diff) Empty() bool {
	return len(d.Added) == 0 && len(d.Modified) == 0 && len(d.Removed) == 0
}

func (d Diff) String() string {
	return fmt.Sprintf("%d added, %d modified, %d removed",
		len(d.Added), len(d.Modified), len(d.Removed))
}

// Synchronizer maintains a local mirror of the upstream corpus and detects
// fixture changes between synchronizations.
type Synchronizer struct {
	source Source
	dir    string
}

func NewSynchronizer(source Source, dir string) *Synchronizer {
	return &Synchronizer{source: source, dir: dir}
}

// Sync updates the mirror via the source and returns the set of fixtures
// added, modified, and removed since the last successful synchronization.
// The change manifest is only replaced after the whole synchronization
// succeeded, so a failed attempt leaves the previous state retryable.
func (s *Synchronizer) Sync(ctx context.Context) (Diff, error) {
	if err := s.source.Sync(ctx); err != nil {
		return Diff{}, fmt.Errorf("corpus synchronization failed: %w", err)
	}
	if err := flattenNestedSubGroups(s.dir); err != nil {
		return Diff{}, fmt.Errorf("corpus synchronization failed: %w", err)
	}

	current, err := s.scan()
	if err != nil {
		return Diff{}, fmt.Errorf("corpus synchronization failed: %w", err)
	}
	previous, err := s.loadManifest()
	if err != nil {
		return Diff{}, fmt.Errorf("corpus synchronization failed: %w", err)
	}

	diff := diffManifests(previous, current)
	if err := s.writeManifest(current); err != nil {
		return Diff{}, fmt.Errorf("corpus synchronization failed: %w", err)
	}

	logger := log.WithField("diff", diff.String())
	if revision, err := s.source.Revision(ctx); err == nil {
		logger = logger.WithField("revision", revision)
	} else {
		log.Warnf("Failed to resolve corpus revision: %v", err)
	}
	logger.Info("Corpus synchronized")
	return diff, nil
}

// Fixtures lists all fixture files of the mirror in lexicographic order,
// relative to the mirror root.
func (s *Synchronizer) Fixtures() ([]string, error) {
	manifest, err := s.scan()
	if err != nil {
		return nil, err
	}
	paths := make([]string, 0, len(manifest))
	for path := range manifest {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths, nil
}

// ReadFixture returns the content of one mirrored fixture file.
func (s *Synchronizer) ReadFixture(path string) ([]byte, error) {
	return os.ReadFile(filepath.Join(s.dir, path))
}

// scan hashes every fixture file in the mirror. Only files at the
// group/sub-group level count; directories below that level hold the nested
// hardfork copies the flattening step already lifted into their sub-group,
// so descending into them would enumerate those fixtures twice.
func (s *Synchronizer) scan() (map[string]string, error) {
	manifest := make(map[string]string)
	err := filepath.WalkDir(s.dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := entry.Name()
		if entry.IsDir() {
			if path == s.dir {
				return nil
			}
			if strings.HasPrefix(name, ".") || pathDepth(s.dir, path) > 2 {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(name, ".") || !strings.HasSuffix(name, ".json") {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(s.dir, path)
		if err != nil {
			return err
		}
		manifest[filepath.ToSlash(rel)] = contentHash(data)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan corpus mirror: %w", err)
	}
	return manifest, nil
}

func (s *Synchronizer) manifestPath() string {
	return filepath.Join(s.dir, manifestName)
}

func (s *Synchronizer) loadManifest() (map[string]string, error) {
	data, err := os.ReadFile(s.manifestPath())
	if os.IsNotExist(err) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, err
	}
	manifest := make(map[string]string)
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("corrupt corpus manifest: %w", err)
	}
	return manifest, nil
}

// writeManifest replaces the manifest atomically so an interrupted write
// cannot leave a half-written manifest behind.
func (s *Synchronizer) writeManifest(manifest map[string]string) error {
	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.manifestPath() + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, s.manifestPath())
}

func diffManifests(previous, current map[string]string) Diff {
	var diff Diff
	for path, hash := range current {
		before, existed := previous[path]
		switch {
		case !existed:
			diff.Added = append(diff.Added, path)
		case before != hash:
			diff.Modified = append(diff.Modified, path)
		}
	}
	for path := range previous {
		if _, exists := current[path]; !exists {
			diff.Removed = append(diff.Removed, path)
		}
	}
	sort.Strings(diff.Added)
	sort.Strings(diff.Modified)
	sort.Strings(diff.Removed)
	return diff
}

// flattenNestedSubGroups copies fixture files nested one directory deeper
// than the regular group/sub-group layout into their sub-group directory.
// A few upstream groups organize fixtures by hardfork below the sub-group
// level; the harness treats them as part of the sub-group.
func flattenNestedSubGroups(dir string) error {
	groups, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, group := range groups {
		if !group.IsDir() || strings.HasPrefix(group.Name(), ".") {
			continue
		}
		subs, err := os.ReadDir(filepath.Join(dir, group.Name()))
		if err != nil {
			return err
		}
		for _, sub := range subs {
			if !sub.IsDir() {
				continue
			}
			subDir := filepath.Join(dir, group.Name(), sub.Name())
			if err := flattenInto(subDir); err != nil {
				return err
			}
		}
	}
	return nil
}

func flattenInto(subDir string) error {
	entries, err := os.ReadDir(subDir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		nested, err := os.ReadDir(filepath.Join(subDir, entry.Name()))
		if err != nil {
			return err
		}
		for _, file := range nested {
			if file.IsDir() || !strings.HasSuffix(file.Name(), ".json") {
				continue
			}
			data, err := os.ReadFile(filepath.Join(subDir, entry.Name(), file.Name()))
			if err != nil {
				return err
			}
			if err := os.WriteFile(filepath.Join(subDir, file.Name()), data, 0644); err != nil {
				return err
			}
		}
	}
	return nil
}

// pathDepth counts the path segments of path below root.
func pathDepth(root, path string) int {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." {
		return 0
	}
	return strings.Count(filepath.ToSlash(rel), "/") + 1
}

func contentHash(data []byte) string {
	hasher := sha3.NewLegacyKeccak256()
	hasher.Write(data)
	return fmt.Sprintf("%x", hasher.Sum(nil))
}
