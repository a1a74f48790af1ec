package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "airmouse",
	Short: "AirMouse controls the computer with hand gestures",
	Long: `AirMouse reads webcam frames, finds one hand, classifies which fingers are
raised and maps the pose to a pointer move, click, scroll, zoom hotkey or
volume change.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to a YAML config file")
}
