// Package worktree lists, creates and reconciles the linked worktrees of a
// repository.
package worktree

import (
	"cmp"
	"context"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/thiagokokada/wtdiff/internal/git"
	"github.com/thiagokokada/wtdiff/internal/git/backend"
)

const (
	DefaultConcurrency     = 4
	DefaultMetadataTimeout = 3 * time.Second
)

// Options configures a Service.
type Options struct {
	// Concurrency bounds the git calls made while enriching a catalog.
	Concurrency int
	// MetadataTimeout is the deadline applied by BranchMetadata.
	MetadataTimeout time.Duration
}

// Service is stateless apart from its configuration and safe for
// concurrent use.
type Service struct {
	runner backend.Runner
	pool   *git.Pool
	opts   Options
}

// New returns a Service executing git through runner.
func New(runner backend.Runner, opts Options) *Service {
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.MetadataTimeout <= 0 {
		opts.MetadataTimeout = DefaultMetadataTimeout
	}
	return &Service{runner: runner, pool: git.NewPool(opts.Concurrency), opts: opts}
}

// Descriptor describes one worktree. WorktreePath is canonical and is the
// identity key.
type Descriptor struct {
	RepositoryRootPath string `json:"repositoryRootPath"`
	WorktreePath       string `json:"worktreePath"`
	BranchName         string `json:"branchName"`
	HeadShortSHA       string `json:"headShortSHA"`
	IsDetachedHead     bool   `json:"isDetachedHead"`
	IsCurrent          bool   `json:"isCurrent"`
	IsDirty            bool   `json:"isDirty"`
	AheadCount         int    `json:"aheadCount"`
	BehindCount        int    `json:"behindCount"`
	IsBare             bool   `json:"isBare,omitempty"`
	IsLocked           bool   `json:"isLocked,omitempty"`
	IsPrunable         bool   `json:"isPrunable,omitempty"`
}

// Catalog is every worktree of one repository, current first and then by
// branch name.
type Catalog struct {
	RepositoryRootPath  string       `json:"repositoryRootPath"`
	CurrentWorktreePath string       `json:"currentWorktreePath,omitempty"`
	Descriptors         []Descriptor `json:"descriptors"`
}

// Find returns the descriptor whose canonical path is path.
func (c Catalog) Find(path string) (Descriptor, bool) {
	for _, d := range c.Descriptors {
		if d.WorktreePath == path {
			return d, true
		}
	}
	return Descriptor{}, false
}

// Catalog lists the worktrees of the repository containing path. The
// current worktree is the one whose path is the longest prefix of path.
func (s *Service) Catalog(ctx context.Context, path string) (Catalog, error) {
	canonical, err := git.Canonicalize(path)
	if err != nil {
		return Catalog{}, git.NewError(git.KindNotARepository, "").WithPath(path).WithCause(err)
	}
	top, err := git.Toplevel(ctx, s.runner, canonical)
	if err != nil {
		return Catalog{}, err
	}
	out, err := git.Output(ctx, s.runner, top, "worktree", "list", "--porcelain")
	if err != nil {
		return Catalog{}, err
	}
	records, err := parsePorcelain(out)
	if err != nil {
		return Catalog{}, err
	}
	if len(records) == 0 {
		return Catalog{}, git.NewError(git.KindParseFailed, "worktree list is empty").WithPath(top)
	}
	for i := range records {
		records[i].path = git.CanonicalizeLenient(records[i].path)
	}

	cat := Catalog{RepositoryRootPath: records[0].path}
	if i := currentIndex(records, canonical); i >= 0 {
		cat.CurrentWorktreePath = records[i].path
	}

	descs := make([]Descriptor, len(records))
	g, gctx := errgroup.WithContext(ctx)
	for i, rec := range records {
		g.Go(func() error {
			return s.pool.Run(gctx, func() error {
				d, err := s.describe(gctx, rec)
				if err != nil {
					return err
				}
				d.RepositoryRootPath = cat.RepositoryRootPath
				d.IsCurrent = rec.path == cat.CurrentWorktreePath
				descs[i] = d
				return nil
			})
		})
	}
	if err := g.Wait(); err != nil {
		return Catalog{}, err
	}

	slices.SortStableFunc(descs, compareDescriptors)
	cat.Descriptors = descs
	slog.Debug("worktree catalog",
		slog.String("root", cat.RepositoryRootPath),
		slog.String("current", cat.CurrentWorktreePath),
		slog.Int("count", len(descs)),
	)
	return cat, nil
}

func currentIndex(records []record, path string) int {
	best := -1
	for i, rec := range records {
		if !git.HasPathPrefix(path, rec.path) {
			continue
		}
		if best < 0 || len(rec.path) > len(records[best].path) {
			best = i
		}
	}
	return best
}

func compareDescriptors(a, b Descriptor) int {
	if a.IsCurrent != b.IsCurrent {
		if a.IsCurrent {
			return -1
		}
		return 1
	}
	if c := cmp.Compare(strings.ToLower(a.BranchName), strings.ToLower(b.BranchName)); c != 0 {
		return c
	}
	return cmp.Compare(a.WorktreePath, b.WorktreePath)
}

// describe runs the per-worktree queries. Bare and prunable entries have no
// working directory to query.
func (s *Service) describe(ctx context.Context, rec record) (Descriptor, error) {
	d := Descriptor{
		WorktreePath:   rec.path,
		BranchName:     rec.label(),
		HeadShortSHA:   shortSHA(rec.head),
		IsDetachedHead: rec.detached,
		IsBare:         rec.bare,
		IsLocked:       rec.locked,
		IsPrunable:     rec.prunable,
	}
	if rec.bare || rec.prunable {
		return d, nil
	}

	out, err := git.Output(ctx, s.runner, rec.path, "status", "--porcelain")
	if err != nil {
		return Descriptor{}, err
	}
	d.IsDirty = strings.TrimSpace(out) != ""

	if !rec.detached {
		d.AheadCount, d.BehindCount, err = s.aheadBehind(ctx, rec.path)
		if err != nil {
			return Descriptor{}, err
		}
	}
	return d, nil
}

// aheadBehind counts commits on each side of HEAD...@{upstream}; no upstream
// is (0, 0).
func (s *Service) aheadBehind(ctx context.Context, dir string) (int, int, error) {
	out, ok, err := git.Probe(ctx, s.runner, dir, "rev-list", "--left-right", "--count", "HEAD...@{upstream}")
	if err != nil || !ok {
		return 0, 0, err
	}
	fields := strings.Fields(out)
	if len(fields) != 2 {
		return 0, 0, git.Errorf(git.KindParseFailed, "rev-list --count: %q", strings.TrimSpace(out)).WithPath(dir)
	}
	ahead, err1 := strconv.Atoi(fields[0])
	behind, err2 := strconv.Atoi(fields[1])
	if err1 != nil || err2 != nil {
		return 0, 0, git.Errorf(git.KindParseFailed, "rev-list --count: %q", strings.TrimSpace(out)).WithPath(dir)
	}
	return ahead, behind, nil
}
