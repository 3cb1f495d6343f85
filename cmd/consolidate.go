package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"mediamerge/internal/content"
	"mediamerge/internal/janitor"
	"mediamerge/internal/match"
	"mediamerge/internal/media"
	"mediamerge/internal/scan"
	"mediamerge/internal/storage"
)

var (
	cleanupMode   string
	quarantineDir string
	verifyMerges  bool
	readEXIF      bool
)

var consolidateCmd = &cobra.Command{
	Use:   "consolidate <folder>",
	Short: "Find and merge identical copies in an archive",
	Long: `Scan an archive and merge entries whose files are byte-identical.

The consolidation will:
1. Discover media files, their albums and their capture dates
2. Narrow duplicate candidates by size, extension and sampled fingerprints
3. Confirm duplicates with a full content hash and merge their entries
4. Flag redundant same-folder copies for cleanup

With --mode=report (the default) redundant copies are only recorded; run
'mediamerge clean' to remove them later. With --mode=delete or
--mode=quarantine they are handled immediately.

Example:
  mediamerge consolidate ./takeout
  mediamerge consolidate ./takeout --verify --mode=quarantine`,
	Args: cobra.ExactArgs(1),
	RunE: runConsolidate,
}

func init() {
	consolidateCmd.Flags().StringVar(&cleanupMode, "mode", "", "What to do with redundant copies: report, delete or quarantine (overrides the config file)")
	consolidateCmd.Flags().StringVar(&quarantineDir, "quarantine-dir", "", "Where quarantined copies go (overrides the config file)")
	consolidateCmd.Flags().BoolVar(&verifyMerges, "verify", false, "Re-read file contents before merging large groups")
	consolidateCmd.Flags().BoolVar(&readEXIF, "exif", true, "Fall back to EXIF capture dates when no sidecar is present")
	rootCmd.AddCommand(consolidateCmd)
}

func runConsolidate(cmd *cobra.Command, args []string) error {
	root, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("folder not found: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("not a directory: %s", root)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cleanupMode == "" {
		cleanupMode = cfg.Cleanup.Mode
	}
	mode, err := janitor.ParseMode(cleanupMode)
	if err != nil {
		return err
	}
	if quarantineDir == "" {
		quarantineDir = cfg.Paths.QuarantineDir
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	lock, err := acquireLock(cfg)
	if err != nil {
		return err
	}
	defer lock.Unlock()

	fmt.Printf("Consolidating: %s\n", root)
	fmt.Printf("Hash: %s  Cleanup: %s\n\n", cfg.Grouping.HashAlgorithm, mode)

	scanWorkers := cfg.Scan.Workers
	if scanWorkers == 0 {
		scanWorkers = runtime.NumCPU()
	}
	scanner := scan.NewScanner(
		scan.WithWorkers(scanWorkers),
		scan.WithEXIF(readEXIF && cfg.Scan.EXIF),
		scan.WithLogger(logger),
		scan.WithProgress(scanProgress()),
	)
	col, err := scanner.ScanRoot(root)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}
	fmt.Printf("Discovered: %d media files\n", col.Len())
	if col.Len() == 0 {
		fmt.Println("Nothing to consolidate.")
		return nil
	}

	provider, err := content.NewFSProvider(cfg.Grouping.HashAlgorithm)
	if err != nil {
		return err
	}
	cache := content.NewCache()
	if seeded, err := store.LoadCache(cache, provider.Algorithm()); err != nil {
		logger.Warn("could not load the signature cache", "error", err)
	} else if seeded > 0 {
		fmt.Printf("Signature cache: %d files already known\n", seeded)
	}

	pipeline, err := match.NewPipeline(match.PipelineConfig{
		Provider:       provider,
		Cache:          cache,
		Logger:         logger,
		MinWorkers:     cfg.Grouping.MinWorkers,
		MaxWorkers:     cfg.Grouping.MaxWorkers,
		HeavySize:      int64(cfg.Grouping.HeavyFileMiB) << 20,
		Verify:         verifyMerges || cfg.Merge.Verify,
		VerifyMinGroup: cfg.Merge.VerifyMinGroup,
		VerifyMinSize:  int64(cfg.Merge.VerifyMinMiB) << 20,
		Progress:       phaseProgress(),
	})
	if err != nil {
		return err
	}

	summary, groups := pipeline.Run(col)

	if err := store.StoreCache(cache, provider.Algorithm()); err != nil {
		logger.Warn("could not persist the signature cache", "error", err)
	}
	if err := store.RecordRun(storage.RunRecord{
		ID:              summary.RunID,
		Root:            root,
		StartedAt:       summary.Started,
		Duration:        summary.Elapsed,
		EntitiesBefore:  summary.EntitiesBefore,
		EntitiesAfter:   summary.EntitiesAfter,
		Merged:          summary.Merged,
		GroupsConfirmed: summary.GroupsConfirmed,
		MergeFailures:   summary.MergeFailures,
	}); err != nil {
		logger.Warn("could not record the run", "error", err)
	}
	if err := store.RecordGroups(summary.RunID, groupRecords(groups)); err != nil {
		logger.Warn("could not record the duplicate groups", "error", err)
	}

	printSummary(summary)

	return handleDuplicates(store, logger, summary.RunID, root, mode, col)
}

// scanProgress renders a discovery progress bar on a terminal. The bar
// is created on the first callback because the total is not known until
// the walk finishes.
func scanProgress() func(scanned, total int, current string) {
	if !showProgress() {
		return nil
	}
	var (
		mu  sync.Mutex
		bar *progressbar.ProgressBar
	)
	return func(scanned, total int, current string) {
		mu.Lock()
		defer mu.Unlock()
		if bar == nil {
			bar = progressbar.Default(int64(total), "Reading metadata")
		}
		bar.Add(1)
	}
}

// phaseProgress renders one progress bar per grouping phase.
func phaseProgress() match.ProgressFunc {
	if !showProgress() {
		return nil
	}
	labels := map[string]string{
		"size":        "Measuring files",
		"fingerprint": "Fingerprinting",
		"hash":        "Hashing",
	}
	var (
		mu  sync.Mutex
		bar *progressbar.ProgressBar
	)
	return func(phase string, processed, total int) {
		mu.Lock()
		defer mu.Unlock()
		if processed == 0 {
			label, ok := labels[phase]
			if !ok {
				label = phase
			}
			bar = progressbar.Default(int64(total), label)
			return
		}
		if bar != nil {
			bar.Add(1)
		}
	}
}

func groupRecords(groups []match.Group) []storage.GroupRecord {
	var records []storage.GroupRecord
	for _, g := range groups {
		if !g.Confirmed() {
			continue
		}
		record := storage.GroupRecord{Key: g.Key.Kind.String() + ":" + g.Key.Value}
		for _, id := range g.Members {
			record.Members = append(record.Members, id.SourcePath)
		}
		records = append(records, record)
	}
	return records
}

func printSummary(summary match.Summary) {
	var rows [][]string
	for _, phase := range summary.Grouping.Phases {
		rows = append(rows, []string{
			phase.Name,
			fmt.Sprintf("%d", phase.Files),
			fmt.Sprintf("%d", phase.Buckets),
			fmt.Sprintf("%d", phase.Cached),
			fmt.Sprintf("%d", phase.Errors),
			phase.Elapsed.Round(time.Millisecond).String(),
		})
	}

	fmt.Println()
	fmt.Println("=== Consolidation Complete ===")
	fmt.Println(renderTable(
		[]string{"Phase", "Files", "Buckets", "Cached", "Errors", "Time"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight},
	))
	fmt.Printf("Entities:         %d -> %d\n", summary.EntitiesBefore, summary.EntitiesAfter)
	fmt.Printf("Confirmed groups: %d\n", summary.GroupsConfirmed)
	fmt.Printf("Merged:           %d\n", summary.Merged)
	if summary.GroupsSkipped > 0 {
		fmt.Printf("Skipped groups:   %d\n", summary.GroupsSkipped)
	}
	if summary.Grouping.Unreadable > 0 {
		fmt.Printf("Unreadable files: %d\n", summary.Grouping.Unreadable)
	}
	fmt.Printf("Elapsed:          %s\n", summary.Elapsed.Round(time.Millisecond))
}

// handleDuplicates records the redundant same-folder copies the merge
// left behind and, unless the mode is report, removes them right away.
func handleDuplicates(store *storage.Store, logger *slog.Logger, runID, root string, mode janitor.Mode, col *media.Collection) error {
	sizes := make(map[string]int64)
	var paths []string
	for _, e := range col.Entities() {
		for _, d := range e.Duplicates() {
			if d.IsShortcut() {
				continue
			}
			path := d.SourcePath()
			info, err := os.Stat(path)
			if err != nil {
				continue
			}
			sizes[path] = info.Size()
			paths = append(paths, path)
		}
	}

	fmt.Println()
	if len(paths) == 0 {
		fmt.Println("No redundant copies to clean up.")
		return nil
	}

	var total int64
	for _, path := range paths {
		total += sizes[path]
	}

	if mode == janitor.ModeReport {
		var records []storage.DuplicateRecord
		for _, path := range paths {
			records = append(records, storage.DuplicateRecord{Path: path, Size: sizes[path]})
		}
		if err := store.RecordDuplicates(runID, records); err != nil {
			return fmt.Errorf("failed to record duplicates: %w", err)
		}
		fmt.Printf("Redundant copies: %d files (%s) recorded\n", len(paths), formatSize(total))
		fmt.Println("Run 'mediamerge clean' to delete or quarantine them.")
		return nil
	}

	results := make(map[string]error, len(paths))
	j, err := janitor.New(janitor.Config{
		Mode:          mode,
		InputRoot:     root,
		QuarantineDir: quarantineDir,
		Logger:        logger,
		OnFile: func(path, dest string, err error) {
			results[path] = err
		},
	})
	if err != nil {
		return err
	}

	result := j.SweepFiles(paths)

	var records []storage.DuplicateRecord
	for _, path := range paths {
		status := storage.StatusCleaned
		if results[path] != nil {
			status = storage.StatusFailed
		}
		records = append(records, storage.DuplicateRecord{Path: path, Size: sizes[path], Status: status})
	}
	if err := store.RecordDuplicates(runID, records); err != nil {
		return fmt.Errorf("failed to record duplicates: %w", err)
	}

	switch mode {
	case janitor.ModeDelete:
		fmt.Printf("Deleted %d redundant copies (%s)\n", result.Removed, formatSize(result.Reclaimed))
	case janitor.ModeQuarantine:
		fmt.Printf("Quarantined %d redundant copies (%s) under %s\n", result.Quarantined, formatSize(result.Reclaimed), quarantineDir)
	}
	if result.Failed > 0 {
		fmt.Printf("Failed: %d files\n", result.Failed)
	}
	return nil
}
