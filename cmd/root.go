package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global output flags only
	verbose bool
	quiet   bool
)

var rootCmd = &cobra.Command{
	Use:   "numbfs",
	Short: "NumbFS filesystem image tools",
	Long: `numbfs creates and inspects NumbFS filesystem images.

NumbFS is a minimal on-disk format: a 128-byte superblock, flat
bitmap-allocated inode and data zones, and files addressed through a
fixed array of ten direct block pointers.

Commands:
  mkfs       Create a NumbFS filesystem image
  fsck       Inspect an image and verify free-space accounting`,
	Version: "0.1.0-dev",
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress output except errors")
}
