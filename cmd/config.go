package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"mediamerge/internal/config"
)

var configForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a sample configuration file",
	Long: `Write a commented sample configuration to the default location,
or to the path given with --config.

Example:
  mediamerge config init
  mediamerge config init --config ./mediamerge.toml`,
	RunE: runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the resolved configuration path and contents",
	RunE:  runConfigShow,
}

func init() {
	configInitCmd.Flags().BoolVarP(&configForce, "force", "f", false, "Overwrite an existing file")
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := configPath
	if path == "" {
		defaultPath, err := config.DefaultConfigPath()
		if err != nil {
			return err
		}
		path = defaultPath
	} else {
		expanded, err := config.ExpandPath(path)
		if err != nil {
			return err
		}
		path = expanded
	}

	if _, err := os.Stat(path); err == nil && !configForce {
		return fmt.Errorf("config file already exists at %s (use --force to overwrite)", path)
	}

	if err := config.CreateSample(path); err != nil {
		return err
	}
	fmt.Printf("Wrote sample configuration to %s\n", path)
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	_, path, exists, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if !exists {
		fmt.Printf("No config file at %s; built-in defaults are in effect.\n", path)
		fmt.Println("Run 'mediamerge config init' to create one.")
		return nil
	}

	fmt.Printf("Config file: %s\n\n", path)
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	os.Stdout.Write(data)
	return nil
}
