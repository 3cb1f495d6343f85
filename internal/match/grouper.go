package match

import (
	"log/slog"
	"sort"
	"sync/atomic"
	"time"

	"mediamerge/internal/content"
	"mediamerge/internal/logging"
	"mediamerge/internal/media"
)

// Engine defaults.
const (
	DefaultMinWorkers = 1
	DefaultMaxWorkers = 32
	DefaultHeavySize  = 256 << 20
)

// ProgressFunc receives progress updates per phase. It is called with
// processed == 0 when a phase starts and once per file afterwards, and
// must be safe for concurrent use.
type ProgressFunc func(phase string, processed, total int)

// Option configures the engine.
type Option func(*Engine)

// WithCache shares a signature cache across runs so unchanged files are
// not fingerprinted or hashed again.
func WithCache(cache *content.Cache) Option {
	return func(e *Engine) {
		if cache != nil {
			e.cache = cache
		}
	}
}

// WithLogger sets the engine's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithWorkerBounds sets the worker count range the engine may adapt
// within.
func WithWorkerBounds(min, max int) Option {
	return func(e *Engine) {
		if min > 0 {
			e.minWorkers = min
		}
		if max > 0 {
			e.maxWorkers = max
		}
	}
}

// WithHeavySizeThreshold sets the size at which a file is scheduled on
// the reduced heavy worker pool.
func WithHeavySizeThreshold(bytes int64) Option {
	return func(e *Engine) {
		if bytes > 0 {
			e.heavySize = bytes
		}
	}
}

// WithProgress sets a progress callback.
func WithProgress(fn ProgressFunc) Option {
	return func(e *Engine) { e.progress = fn }
}

// WithFingerprintFunc replaces the fingerprint function.
func WithFingerprintFunc(fn func(path string, size int64) (string, error)) Option {
	return func(e *Engine) {
		if fn != nil {
			e.fingerprint = fn
		}
	}
}

// Engine groups entities whose primary files hold identical bytes. It
// narrows candidates in phases, each cheaper check pruning the work the
// next one has to do: size, then extension, then sampled fingerprints,
// then a full hash.
type Engine struct {
	provider    content.Provider
	cache       *content.Cache
	logger      *slog.Logger
	minWorkers  int
	maxWorkers  int
	heavySize   int64
	fingerprint func(path string, size int64) (string, error)
	progress    ProgressFunc
}

// NewEngine creates a grouping engine reading through provider.
func NewEngine(provider content.Provider, opts ...Option) *Engine {
	e := &Engine{
		provider:    provider,
		cache:       content.NewCache(),
		logger:      logging.Discard(),
		minWorkers:  DefaultMinWorkers,
		maxWorkers:  DefaultMaxWorkers,
		heavySize:   DefaultHeavySize,
		fingerprint: content.Fingerprint,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// memberFile tracks one entity's primary file through the phases.
type memberFile struct {
	identity media.FileIdentity
	path     string
	size     int64
	heavy    bool
}

type bucket struct {
	key     string
	size    int64
	members []memberFile
}

// Groups partitions the collection's entities into groups. Multi-member
// hash groups are confirmed duplicates; an entity whose content turns
// out to be unique appears as a singleton group keyed by the phase that
// separated it. Unreadable files become singleton groups instead of
// failing the pass.
func (e *Engine) Groups(col *media.Collection) ([]Group, Stats) {
	start := time.Now()
	stats := Stats{Entities: col.Len()}
	if col.Len() == 0 {
		stats.Elapsed = time.Since(start)
		return nil, stats
	}

	members := make([]memberFile, 0, col.Len())
	for _, ent := range col.Entities() {
		members = append(members, memberFile{
			identity: ent.Identity(),
			path:     ent.Primary().SourcePath(),
		})
	}

	var groups []Group

	members, sizePhase, failed := e.measureSizes(members)
	groups = append(groups, failed...)
	stats.Phases = append(stats.Phases, sizePhase)

	buckets, singles := bucketBySize(members)
	groups = append(groups, singles...)
	stats.Phases[len(stats.Phases)-1].Buckets = len(buckets)

	buckets, extPhase, singles := splitByExtension(buckets)
	groups = append(groups, singles...)
	stats.Phases = append(stats.Phases, extPhase)

	buckets, fpPhase, singles, failed := e.refine(buckets, "fingerprint", KindFingerprint,
		func(m memberFile) (string, bool) {
			sig, ok := e.cache.Lookup(m.path)
			return sig.Fingerprint, ok && sig.Size == m.size && sig.Fingerprint != ""
		},
		func(m memberFile) (string, error) {
			fp, err := e.fingerprint(m.path, m.size)
			if err == nil {
				e.cache.StoreFingerprint(m.path, fp)
			}
			return fp, err
		})
	groups = append(groups, singles...)
	groups = append(groups, failed...)
	stats.Phases = append(stats.Phases, fpPhase)

	buckets, hashPhase, singles, failed := e.refine(buckets, "hash", KindHash,
		func(m memberFile) (string, bool) {
			sig, ok := e.cache.Lookup(m.path)
			return sig.Hash, ok && sig.Size == m.size && sig.Hash != ""
		},
		func(m memberFile) (string, error) {
			h, err := e.provider.Hash(m.path)
			if err == nil {
				e.cache.StoreHash(m.path, h)
			}
			return h, err
		})
	groups = append(groups, singles...)
	groups = append(groups, failed...)
	stats.Phases = append(stats.Phases, hashPhase)

	for _, b := range buckets {
		group := Group{
			Key:  Key{Kind: KindHash, Value: b.key},
			Size: b.size,
		}
		for _, m := range b.members {
			group.Members = append(group.Members, m.identity)
		}
		groups = append(groups, group)
	}

	sort.Slice(groups, func(i, j int) bool {
		if groups[i].Key.Kind != groups[j].Key.Kind {
			return groups[i].Key.Kind < groups[j].Key.Kind
		}
		return groups[i].Key.Value < groups[j].Key.Value
	})

	for _, g := range groups {
		switch {
		case g.Confirmed():
			stats.Confirmed++
		case g.Key.Kind == KindUnreadable:
			stats.Unreadable++
		default:
			stats.Unique++
		}
	}
	stats.Elapsed = time.Since(start)
	return groups, stats
}

// measureSizes stats every file and classifies the heavy ones. Files
// that cannot be statted become unreadable singletons.
func (e *Engine) measureSizes(members []memberFile) ([]memberFile, PhaseStats, []Group) {
	phase := PhaseStats{Name: "size", Files: len(members), Computed: len(members)}
	start := time.Now()

	tasks := make([]task, len(members))
	for i, m := range members {
		tasks[i] = task{index: i, path: m.path}
	}
	results := e.runPhase("size", tasks, func(t task) taskResult {
		size, err := e.provider.Size(t.path)
		if err == nil {
			e.cache.StoreSize(t.path, size)
		}
		return taskResult{size: size, err: err}
	})

	var ok []memberFile
	var failed []Group
	for i, m := range members {
		r := results[i]
		if r.err != nil {
			phase.Errors++
			e.logger.Warn("file could not be measured", "path", m.path, "error", r.err)
			failed = append(failed, singletonGroup(m))
			continue
		}
		m.size = r.size
		m.heavy = r.size >= e.heavySize || content.IsVideo(m.path)
		ok = append(ok, m)
	}
	phase.Elapsed = time.Since(start)
	return ok, phase, failed
}

// refine computes a digest per member and splits each bucket by it.
// Child buckets with one member leave the pipeline as singleton groups;
// their content is unique.
func (e *Engine) refine(buckets []bucket, name string, kind KeyKind,
	cached func(memberFile) (string, bool),
	compute func(memberFile) (string, error)) ([]bucket, PhaseStats, []Group, []Group) {

	phase := PhaseStats{Name: name}
	start := time.Now()

	// Largest buckets first so the widest groups begin narrowing early.
	ordered := make([]bucket, len(buckets))
	copy(ordered, buckets)
	sort.Slice(ordered, func(i, j int) bool {
		if len(ordered[i].members) != len(ordered[j].members) {
			return len(ordered[i].members) > len(ordered[j].members)
		}
		return ordered[i].key < ordered[j].key
	})

	type slot struct {
		bucket, member int
	}
	var tasks []task
	var slots []slot
	digests := make([][]string, len(ordered))
	for bi, b := range ordered {
		digests[bi] = make([]string, len(b.members))
		for mi, m := range b.members {
			phase.Files++
			if digest, ok := cached(m); ok {
				digests[bi][mi] = digest
				phase.Cached++
				continue
			}
			tasks = append(tasks, task{index: len(tasks), path: m.path, size: m.size, heavy: m.heavy})
			slots = append(slots, slot{bucket: bi, member: mi})
		}
	}
	phase.Computed = len(tasks)

	results := e.runPhase(name, tasks, func(t task) taskResult {
		digest, err := compute(memberFile{path: t.path, size: t.size})
		return taskResult{digest: digest, err: err}
	})

	errored := make(map[int]map[int]error)
	for i, r := range results {
		s := slots[i]
		if r.err != nil {
			if errored[s.bucket] == nil {
				errored[s.bucket] = make(map[int]error)
			}
			errored[s.bucket][s.member] = r.err
			continue
		}
		digests[s.bucket][s.member] = r.digest
	}

	var kept []bucket
	var singles, failed []Group
	for bi, b := range ordered {
		children := make(map[string]*bucket)
		var childKeys []string
		for mi, m := range b.members {
			if err, bad := errored[bi][mi]; bad {
				phase.Errors++
				e.logger.Warn("file could not be read", "phase", name, "path", m.path, "error", err)
				failed = append(failed, singletonGroup(m))
				continue
			}
			key := digestKey(b.key, digests[bi][mi])
			child, ok := children[key]
			if !ok {
				child = &bucket{key: key, size: b.size}
				children[key] = child
				childKeys = append(childKeys, key)
			}
			child.members = append(child.members, m)
		}
		for _, key := range childKeys {
			child := children[key]
			if len(child.members) >= 2 {
				phase.Buckets++
				kept = append(kept, *child)
				continue
			}
			singles = append(singles, uniqueGroup(kind, child.key, *child))
		}
	}
	phase.Elapsed = time.Since(start)
	return kept, phase, singles, failed
}

// runPhase executes tasks in waves, letting the limiter adapt the worker
// count between them.
func (e *Engine) runPhase(name string, tasks []task, fn func(task) taskResult) []taskResult {
	results := make([]taskResult, len(tasks))
	if len(tasks) == 0 {
		return results
	}

	total := len(tasks)
	var processed atomic.Int64
	if e.progress != nil {
		e.progress(name, 0, total)
	}
	wrapped := fn
	if e.progress != nil {
		wrapped = func(t task) taskResult {
			r := fn(t)
			e.progress(name, int(processed.Add(1)), total)
			return r
		}
	}

	lim := newLimiter(e.minWorkers, e.maxWorkers)
	for start := 0; start < len(tasks); start += waveSize {
		end := start + waveSize
		if end > len(tasks) {
			end = len(tasks)
		}
		wave := tasks[start:end]
		waveStart := time.Now()
		runWave(wave, lim.workers(), results, wrapped)
		lim.observe(len(wave), time.Since(waveStart))
	}
	return results
}

func singletonGroup(m memberFile) Group {
	return Group{
		Key:     Key{Kind: KindUnreadable, Value: unreadableKey(m.path)},
		Size:    m.size,
		Members: []media.FileIdentity{m.identity},
	}
}

// uniqueGroup emits a one-member bucket as a confirmed-unique singleton
// keyed by the phase that separated it.
func uniqueGroup(kind KeyKind, key string, b bucket) Group {
	return Group{
		Key:     Key{Kind: kind, Value: key},
		Size:    b.size,
		Members: []media.FileIdentity{b.members[0].identity},
	}
}

// bucketBySize partitions members by size. Unique sizes leave as
// singleton groups.
func bucketBySize(members []memberFile) ([]bucket, []Group) {
	bySize := make(map[int64]*bucket)
	var order []int64
	for _, m := range members {
		b, ok := bySize[m.size]
		if !ok {
			b = &bucket{key: sizeKey(m.size), size: m.size}
			bySize[m.size] = b
			order = append(order, m.size)
		}
		b.members = append(b.members, m)
	}

	sort.Slice(order, func(i, j int) bool { return order[i] < order[j] })
	var out []bucket
	var singles []Group
	for _, size := range order {
		b := bySize[size]
		if len(b.members) >= 2 {
			out = append(out, *b)
			continue
		}
		singles = append(singles, uniqueGroup(KindSize, b.key, *b))
	}
	return out, singles
}

// splitByExtension divides each size bucket by lowercased extension.
// Identical bytes stored under different extensions stay apart from
// here on.
func splitByExtension(buckets []bucket) ([]bucket, PhaseStats, []Group) {
	phase := PhaseStats{Name: "extension"}
	start := time.Now()

	var out []bucket
	var singles []Group
	for _, b := range buckets {
		children := make(map[string]*bucket)
		var childKeys []string
		for _, m := range b.members {
			phase.Files++
			key := extensionKey(b.key, m.path)
			child, ok := children[key]
			if !ok {
				child = &bucket{key: key, size: b.size}
				children[key] = child
				childKeys = append(childKeys, key)
			}
			child.members = append(child.members, m)
		}
		for _, key := range childKeys {
			child := children[key]
			if len(child.members) >= 2 {
				phase.Buckets++
				out = append(out, *child)
				continue
			}
			singles = append(singles, uniqueGroup(KindExtension, child.key, *child))
		}
	}
	phase.Elapsed = time.Since(start)
	return out, phase, singles
}
