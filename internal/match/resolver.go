package match

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"

	"mediamerge/internal/content"
	"mediamerge/internal/logging"
	"mediamerge/internal/media"
)

// Verification defaults: small groups of small files skip the re-read.
const (
	DefaultVerifyMinGroup = 4
	DefaultVerifyMinSize  = 1 << 30
)

// ErrVerifyMismatch marks a file whose contents no longer hash like the
// rest of its group.
var ErrVerifyMismatch = errors.New("file contents no longer match the group")

// ResolverConfig configures a Resolver.
type ResolverConfig struct {
	// Provider re-reads files when verification is on.
	Provider content.Provider

	// Verify re-hashes group members before merging. Only groups with
	// at least VerifyMinGroup members or files of at least
	// VerifyMinSize bytes are re-checked.
	Verify         bool
	VerifyMinGroup int
	VerifyMinSize  int64

	Logger *slog.Logger
}

// Resolver merges each confirmed duplicate group into one surviving
// entity.
type Resolver struct {
	provider content.Provider
	verify   bool
	minGroup int
	minSize  int64
	logger   *slog.Logger
}

// NewResolver creates a resolver from cfg, filling unset verification
// bounds with the defaults.
func NewResolver(cfg ResolverConfig) *Resolver {
	r := &Resolver{
		provider: cfg.Provider,
		verify:   cfg.Verify,
		minGroup: cfg.VerifyMinGroup,
		minSize:  cfg.VerifyMinSize,
		logger:   cfg.Logger,
	}
	if r.minGroup <= 0 {
		r.minGroup = DefaultVerifyMinGroup
	}
	if r.minSize <= 0 {
		r.minSize = DefaultVerifyMinSize
	}
	if r.logger == nil {
		r.logger = logging.Discard()
	}
	return r
}

// Plan is the outcome of resolving a grouping pass against a collection.
// Removals and Replacements are keyed by the identities the entities had
// when the plan was built.
type Plan struct {
	Replacements map[media.FileIdentity]media.Entity
	Removals     map[media.FileIdentity]bool
	Merged       int
	Skipped      int
}

// Resolve builds a merge plan for every confirmed group. Groups that
// fail verification or whose members have gone missing are skipped, not
// fatal; the rest of the plan still applies.
func (r *Resolver) Resolve(col *media.Collection, groups []Group) Plan {
	plan := Plan{
		Replacements: make(map[media.FileIdentity]media.Entity),
		Removals:     make(map[media.FileIdentity]bool),
	}

	for _, g := range groups {
		if !g.Confirmed() {
			continue
		}

		entities := make([]media.Entity, 0, len(g.Members))
		for _, id := range g.Members {
			ent, ok := col.Get(id)
			if !ok {
				r.logger.Warn("group member vanished from collection", "path", id.SourcePath)
				continue
			}
			entities = append(entities, ent)
		}
		if len(entities) < 2 {
			plan.Skipped++
			continue
		}

		sort.Slice(entities, func(i, j int) bool {
			return keeperLess(entities[i], entities[j])
		})

		if r.shouldVerify(g) {
			entities = r.verifyGroup(entities)
			if len(entities) < 2 {
				plan.Skipped++
				continue
			}
		}

		keeper := entities[0]
		merged := keeper
		for _, other := range entities[1:] {
			merged = merged.Merge(other)
			plan.Removals[other.Identity()] = true
		}
		plan.Replacements[keeper.Identity()] = merged
		plan.Merged++
	}
	return plan
}

func (r *Resolver) shouldVerify(g Group) bool {
	if !r.verify {
		return false
	}
	return len(g.Members) >= r.minGroup || g.Size >= r.minSize
}

// verifyGroup re-hashes every member against the keeper. Members that
// fail drop out individually; a keeper that cannot be re-read dissolves
// the whole group because there is nothing trustworthy to merge into.
func (r *Resolver) verifyGroup(entities []media.Entity) []media.Entity {
	keeper := entities[0]
	want, err := r.provider.Hash(keeper.Primary().SourcePath())
	if err != nil {
		r.logger.Warn("skipping group, keeper could not be re-read",
			"path", keeper.Primary().SourcePath(), "error", err)
		return nil
	}

	kept := make([]media.Entity, 1, len(entities))
	kept[0] = keeper
	for _, ent := range entities[1:] {
		path := ent.Primary().SourcePath()
		if err := r.verifyMember(path, want); err != nil {
			r.logger.Warn("excluding member from merge", "path", path, "error", err)
			continue
		}
		kept = append(kept, ent)
	}
	return kept
}

func (r *Resolver) verifyMember(path, want string) error {
	got, err := r.provider.Hash(path)
	if err != nil {
		return fmt.Errorf("failed to re-read file: %w", err)
	}
	if got != want {
		return fmt.Errorf("%w: %s", ErrVerifyMismatch, path)
	}
	return nil
}

// Apply executes the plan. Removals run before replacements: a merged
// entity may have adopted the identity of an entity being removed, and
// replacing first would let the removal sweep the merged row away.
func (p Plan) Apply(col *media.Collection) (removed, failures int) {
	removed = col.RemoveAll(p.Removals)
	for id, merged := range p.Replacements {
		if !col.Replace(id, merged) {
			failures++
		}
	}
	return removed, failures
}

// keeperLess orders a group's entities best-keeper-first: the most
// accurate capture date, then the shortest name, canonical placement,
// the shortest path, and finally the path itself.
func keeperLess(a, b media.Entity) bool {
	if oa, ob := accuracyOrdinal(a), accuracyOrdinal(b); oa != ob {
		return oa < ob
	}
	pa, pb := a.Primary(), b.Primary()
	if la, lb := len(pa.Basename()), len(pb.Basename()); la != lb {
		return la < lb
	}
	if pa.IsCanonical() != pb.IsCanonical() {
		return pa.IsCanonical()
	}
	if la, lb := len(pa.SourcePath()), len(pb.SourcePath()); la != lb {
		return la < lb
	}
	return pa.SourcePath() < pb.SourcePath()
}

// accuracyOrdinal treats an unset accuracy as the worst possible.
func accuracyOrdinal(e media.Entity) int {
	if e.DateAccuracy() == 0 {
		return math.MaxInt
	}
	return e.DateAccuracy()
}
