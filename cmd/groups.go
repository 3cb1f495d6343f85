package cmd

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"mediamerge/internal/storage"
)

var (
	groupsRunID   string
	groupsHistory int
	groupsLimit   int
	groupsOffset  int
)

var groupsCmd = &cobra.Command{
	Use:   "groups",
	Short: "Show the duplicate groups of a consolidation run",
	Long: `Display the confirmed duplicate groups recorded by a run.

Each group lists the byte-identical files that were merged into one
entry. Without --run the most recent run is shown.

Example:
  mediamerge groups                # Groups of the last run
  mediamerge groups -n 0           # Show all groups
  mediamerge groups --run <id>     # Groups of a specific run
  mediamerge groups --history 10   # Recent run history instead`,
	RunE: runGroups,
}

func init() {
	groupsCmd.Flags().StringVar(&groupsRunID, "run", "", "Run ID to show (default: the most recent run)")
	groupsCmd.Flags().IntVar(&groupsHistory, "history", 0, "Show the N most recent runs instead of groups")
	groupsCmd.Flags().IntVarP(&groupsLimit, "limit", "n", 10, "Limit number of groups to display (0 = all)")
	groupsCmd.Flags().IntVar(&groupsOffset, "offset", 0, "Skip first N groups (for pagination)")
	rootCmd.AddCommand(groupsCmd)
}

func runGroups(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	if groupsHistory > 0 {
		return printRunHistory(store, groupsHistory)
	}

	runID := groupsRunID
	if runID == "" {
		latest, err := store.LatestRun()
		if err != nil {
			return err
		}
		if latest == nil {
			fmt.Println("No runs recorded yet.")
			fmt.Println("Run 'mediamerge consolidate <folder>' first.")
			return nil
		}
		runID = latest.ID
		fmt.Printf("Run %s (%s)\n\n", runID, latest.Root)
	}

	groups, err := store.GroupsForRun(runID)
	if err != nil {
		return err
	}
	if len(groups) == 0 {
		fmt.Println("No duplicate groups recorded for this run.")
		return nil
	}

	totalFiles := 0
	for _, g := range groups {
		totalFiles += len(g.Members)
	}
	fmt.Printf("Found %d duplicate groups (%d files)\n\n", len(groups), totalFiles)

	totalGroups := len(groups)
	startIdx := groupsOffset
	if startIdx > len(groups) {
		startIdx = len(groups)
	}
	groups = groups[startIdx:]
	if groupsLimit > 0 && groupsLimit < len(groups) {
		groups = groups[:groupsLimit]
	}

	for _, g := range groups {
		fmt.Printf("Group #%d (%d files)  %s\n", g.ID, len(g.Members), shortenKey(g.Key))
		fmt.Println(strings.Repeat("-", 60))
		for _, path := range g.Members {
			fmt.Printf("  %s\n", shortenPath(path, 70))
		}
		fmt.Println()
	}

	endIdx := startIdx + len(groups)
	if len(groups) > 0 {
		fmt.Printf("Showing groups %d-%d of %d\n", startIdx+1, endIdx, totalGroups)
		if endIdx < totalGroups {
			fmt.Printf("Next page: mediamerge groups -n %d --offset %d\n", groupsLimit, endIdx)
		}
	}
	return nil
}

func printRunHistory(store *storage.Store, limit int) error {
	runs, err := store.ListRuns(limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No runs recorded yet.")
		return nil
	}

	var rows [][]string
	for _, run := range runs {
		rows = append(rows, []string{
			run.ID,
			formatRunTime(run.StartedAt),
			shortenPath(run.Root, 40),
			fmt.Sprintf("%d", run.EntitiesBefore),
			fmt.Sprintf("%d", run.EntitiesAfter),
			fmt.Sprintf("%d", run.Merged),
			run.Duration.Round(time.Second).String(),
		})
	}
	fmt.Println(renderTable(
		[]string{"Run", "Started", "Root", "Before", "After", "Merged", "Time"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight},
	))
	return nil
}

func shortenKey(key string) string {
	if len(key) <= 24 {
		return key
	}
	return key[:21] + "..."
}

func shortenPath(path string, maxLen int) string {
	if len(path) <= maxLen {
		return path
	}

	dir, file := filepath.Split(path)
	if len(file) >= maxLen-3 {
		return "..." + file[len(file)-(maxLen-3):]
	}

	remaining := maxLen - len(file) - 4
	if remaining > 0 && len(dir) > remaining {
		dir = dir[len(dir)-remaining:]
	}
	return "..." + dir + file
}

func formatRunTime(t time.Time) string {
	return t.Local().Format("2006-01-02 15:04")
}
