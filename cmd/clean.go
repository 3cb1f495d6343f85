package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"mediamerge/internal/janitor"
	"mediamerge/internal/storage"
)

var (
	cleanDryRun     bool
	cleanMode       string
	cleanQuarantine string
	cleanRoot       string
	cleanNoConfirm  bool
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Delete or quarantine recorded redundant copies",
	Long: `Process the redundant copies recorded by earlier consolidation runs.

Only same-folder copies of files that survived a merge are touched; the
canonical copy and legitimate album copies always stay. Quarantined
files keep their layout relative to the archive root so they can be
inspected or restored.

Options:
  --dry-run          Preview what would be removed without touching anything
  --mode             delete or quarantine (overrides the config file)
  --quarantine-dir   Where quarantined files go (overrides the config file)
  --root             Archive root mirrored under the quarantine directory
  --yes              Skip confirmation prompt

Example:
  mediamerge clean --dry-run           # Preview only
  mediamerge clean                     # Use the configured cleanup mode
  mediamerge clean --mode=delete -y    # Delete without confirmation`,
	RunE: runClean,
}

func init() {
	cleanCmd.Flags().BoolVar(&cleanDryRun, "dry-run", false, "Preview without removing")
	cleanCmd.Flags().StringVar(&cleanMode, "mode", "", "What to do with redundant copies: delete or quarantine (overrides the config file)")
	cleanCmd.Flags().StringVar(&cleanQuarantine, "quarantine-dir", "", "Where quarantined copies go (overrides the config file)")
	cleanCmd.Flags().StringVar(&cleanRoot, "root", "", "Archive root mirrored under the quarantine directory (default: the last run's root)")
	cleanCmd.Flags().BoolVarP(&cleanNoConfirm, "yes", "y", false, "Skip confirmation prompt")
	rootCmd.AddCommand(cleanCmd)
}

func runClean(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cleanMode == "" {
		cleanMode = cfg.Cleanup.Mode
	}
	mode, err := janitor.ParseMode(cleanMode)
	if err != nil {
		return err
	}
	if mode == janitor.ModeReport && !cleanDryRun {
		// The configured mode never made a decision; previewing is the
		// only safe interpretation.
		cleanDryRun = true
	}
	if cleanQuarantine == "" {
		cleanQuarantine = cfg.Paths.QuarantineDir
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

	pending, err := store.PendingDuplicates()
	if err != nil {
		return fmt.Errorf("failed to get pending duplicates: %w", err)
	}
	if len(pending) == 0 {
		fmt.Println("No redundant copies pending cleanup.")
		fmt.Println("Run 'mediamerge consolidate <folder>' first.")
		return nil
	}

	if cleanRoot == "" {
		if latest, err := store.LatestRun(); err == nil && latest != nil {
			cleanRoot = latest.Root
		}
	}

	// Files already gone are marked off without counting them.
	var toProcess []storage.DuplicateRecord
	var totalSize int64
	for _, d := range pending {
		if _, err := os.Stat(d.Path); err != nil {
			store.MarkDuplicateCleaned(d.ID)
			continue
		}
		toProcess = append(toProcess, d)
		totalSize += d.Size
	}
	if len(toProcess) == 0 {
		fmt.Println("No files to clean up (they may have been removed already).")
		return nil
	}

	var action string
	if mode == janitor.ModeQuarantine {
		action = fmt.Sprintf("quarantine under %s", cleanQuarantine)
	} else {
		action = "permanently delete"
	}
	fmt.Printf("Will %s %d files (%s)\n\n", action, len(toProcess), formatSize(totalSize))

	if cleanDryRun {
		fmt.Println("Files to be cleaned:")
		for _, d := range toProcess {
			fmt.Printf("  %s\n", d.Path)
		}
		fmt.Println()
		fmt.Println("(Dry run - no files were modified)")
		fmt.Println("Run with --mode=delete or --mode=quarantine to clean them up.")
		return nil
	}

	if !cleanNoConfirm {
		fmt.Printf("Are you sure you want to %s %d files? [y/N]: ", action, len(toProcess))
		reader := bufio.NewReader(os.Stdin)
		response, _ := reader.ReadString('\n')
		response = strings.TrimSpace(strings.ToLower(response))
		if response != "y" && response != "yes" {
			fmt.Println("Aborted.")
			return nil
		}
	}

	byPath := make(map[string]int64, len(toProcess))
	var paths []string
	for _, d := range toProcess {
		byPath[d.Path] = d.ID
		paths = append(paths, d.Path)
	}

	j, err := janitor.New(janitor.Config{
		Mode:          mode,
		InputRoot:     cleanRoot,
		QuarantineDir: cleanQuarantine,
		Logger:        logger,
		OnFile: func(path, dest string, err error) {
			id := byPath[path]
			if err != nil {
				store.MarkDuplicateFailed(id)
				return
			}
			store.MarkDuplicateCleaned(id)
		},
	})
	if err != nil {
		return err
	}

	result := j.SweepFiles(paths)

	fmt.Println()
	if mode == janitor.ModeQuarantine {
		fmt.Printf("Quarantined %d files under %s\n", result.Quarantined, cleanQuarantine)
	} else {
		fmt.Printf("Permanently deleted %d files\n", result.Removed)
	}
	if result.Failed > 0 {
		fmt.Printf("Failed: %d files\n", result.Failed)
	}
	fmt.Printf("Space reclaimed: %s\n", formatSize(result.Reclaimed))
	return nil
}
