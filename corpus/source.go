package corpus

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"
)

// Source brings a local mirror of the upstream fixture corpus up to date.
// The harness only depends on the mirrored file tree; transport and
// authentication are the source's business.
type Source interface {
	// Sync updates the local mirror to match the remote corpus. On error the
	// previous mirror content is left usable.
	Sync(ctx context.Context) error

	// Revision identifies the content the mirror currently holds.
	Revision(ctx context.Context) (string, error)
}

// GitSource mirrors the upstream tests repository via git. The clone is
// shallow and sparse, restricted to the configured test groups, since the
// full repository is far larger than the groups the harness consumes.
type GitSource struct {
	URL    string
	Dir    string
	Groups []string
}

func (s *GitSource) Sync(ctx context.Context) error {
	if _, err := os.Stat(filepath.Join(s.Dir, ".git")); err == nil {
		return s.pull(ctx)
	}
	return s.clone(ctx)
}

func (s *GitSource) pull(ctx context.Context) error {
	log.WithField("dir", s.Dir).Info("Pulling the latest upstream corpus changes")
	return runGit(ctx, "-C", s.Dir, "pull", "--ff-only")
}

func (s *GitSource) clone(ctx context.Context) error {
	log.WithField("url", s.URL).Info("Cloning the upstream corpus")
	err := runGit(ctx,
		"clone",
		"--depth=1",
		"--sparse",
		"--filter=blob:none",
		s.URL,
		s.Dir,
	)
	if err != nil {
		return err
	}
	args := append([]string{"-C", s.Dir, "sparse-checkout", "set"}, s.Groups...)
	return runGit(ctx, args...)
}

func (s *GitSource) Revision(ctx context.Context) (string, error) {
	out, err := exec.CommandContext(ctx, "git", "-C", s.Dir, "rev-parse", "HEAD").Output()
	if err != nil {
		return "", fmt.Errorf("failed to resolve corpus revision: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}

func runGit(ctx context.Context, args ...string) error {
	cmd := exec.CommandContext(ctx, "git", args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("git %s: %w\n%s", strings.Join(args, " "), err, out)
	}
	return nil
}

// DirSource treats an existing local mirror as authoritative. Used in
// no-fetch mode when re-parsing after a normalization-policy change rather
// than an upstream change.
type DirSource struct {
	Dir string
}

func (s *DirSource) Sync(ctx context.Context) error {
	info, err := os.Stat(s.Dir)
	if err != nil {
		return fmt.Errorf("local corpus mirror unavailable: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("local corpus mirror %s is not a directory", s.Dir)
	}
	return nil
}

func (s *DirSource) Revision(ctx context.Context) (string, error) {
	return "local", nil
}
