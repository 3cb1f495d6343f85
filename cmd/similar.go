package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/cobra"

	"mediamerge/internal/scan"
	"mediamerge/internal/similar"
)

var similarThreshold int

var similarCmd = &cobra.Command{
	Use:   "similar <folder>",
	Short: "Report visually similar images",
	Long: `Find images that look alike even when their bytes differ.

Images are compared by perceptual hash, so resized or re-compressed
copies of the same shot cluster together. The report is advisory:
nothing is merged or removed based on it, because only byte-identical
files are ever consolidated.

Example:
  mediamerge similar ./takeout
  mediamerge similar ./takeout --threshold 5`,
	Args: cobra.ExactArgs(1),
	RunE: runSimilar,
}

func init() {
	similarCmd.Flags().IntVar(&similarThreshold, "threshold", -1, "Hamming distance threshold, 0-64, lower = stricter (overrides the config file)")
	rootCmd.AddCommand(similarCmd)
}

func runSimilar(cmd *cobra.Command, args []string) error {
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
	if similarThreshold < 0 {
		similarThreshold = cfg.Similar.Threshold
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}

	scanWorkers := cfg.Scan.Workers
	if scanWorkers == 0 {
		scanWorkers = runtime.NumCPU()
	}
	scanner := scan.NewScanner(
		scan.WithWorkers(scanWorkers),
		scan.WithEXIF(false),
		scan.WithLogger(logger),
	)
	col, err := scanner.ScanRoot(root)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}
	if col.Len() == 0 {
		fmt.Println("No images found.")
		return nil
	}

	simWorkers := cfg.Similar.Workers
	if simWorkers == 0 {
		simWorkers = runtime.NumCPU()
	}
	finder := similar.NewFinder(similarThreshold,
		similar.WithWorkers(simWorkers),
		similar.WithLogger(logger),
	)

	fmt.Printf("Comparing %d images (threshold %d)...\n\n", col.Len(), finder.Threshold())
	clusters := finder.FindClusters(col)
	if len(clusters) == 0 {
		fmt.Println("No similar images found.")
		return nil
	}

	for i, cluster := range clusters {
		fmt.Printf("Cluster #%d (%d images)\n", i+1, len(cluster.Paths))
		for _, path := range cluster.Paths {
			fmt.Printf("  %s\n", shortenPath(path, 70))
		}
		fmt.Println()
	}
	fmt.Printf("Found %d clusters. These files are similar, not identical;\n", len(clusters))
	fmt.Println("review them by hand before removing anything.")
	return nil
}
