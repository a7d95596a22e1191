// Package cmd implements the looper command line.
package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/vsariola/looper/config"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "looper",
	Short: "MIDI loop recorder",
	Long: `looper records the notes played on a MIDI input into a loop of up to 16
notes and plays them back, in time with an internal or external MIDI clock.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", defaultConfigPath(), "config file")
}

func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}

func defaultConfigPath() string {
	if configDir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(configDir, "Looper", "config.yaml")
	}
	return "looper.yaml"
}

func loadConfig() (config.Config, error) {
	c, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("loading config: %w", err)
	}
	return c, nil
}
