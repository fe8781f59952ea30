package cmd

import (
	"fmt"
	"os"

	"github.com/rodaine/table"
	"github.com/spf13/cobra"

	"github.com/numbfs/go-numbfs/internal/device"
	"github.com/numbfs/go-numbfs/internal/format"
)

var (
	mkfsInodes uint32
	mkfsSize   string
)

var mkfsCmd = &cobra.Command{
	Use:   "mkfs [flags] IMAGE",
	Short: "Create a NumbFS filesystem image",
	Long: `Create a NumbFS filesystem on IMAGE, a regular file or block device.

A regular file is grown to --size if it is smaller; a block device must
already be at least that large. Without --size the whole device is used.`,
	Args: cobra.ExactArgs(1),
	RunE: runMkfs,
}

func init() {
	mkfsCmd.Flags().Uint32Var(&mkfsInodes, "inodes", 0,
		"number of inodes, a positive multiple of 8 (default from config, 4096)")
	mkfsCmd.Flags().StringVarP(&mkfsSize, "size", "s", "",
		"filesystem size with optional K/M/G suffix (default: whole device)")
	rootCmd.AddCommand(mkfsCmd)
}

func runMkfs(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	inodes := mkfsInodes
	if inodes == 0 {
		inodes = cfg.Inodes
	}

	size, err := parseSize(mkfsSize)
	if err != nil {
		return err
	}

	dev, err := device.Create(args[0])
	if err != nil {
		return err
	}
	defer dev.Close()

	if size > dev.Size() {
		if err := dev.Truncate(size); err != nil {
			return err
		}
	}

	sb, err := format.Run(dev, format.Options{InodeCount: inodes, Size: size})
	if err != nil {
		return fmt.Errorf("failed to mkfs %s: %w", args[0], err)
	}

	if quiet {
		return nil
	}

	fmt.Printf("created NumbFS image %s, volume %s\n", args[0], sb.VolumeUUID)

	if verbose {
		geo := sb.Geometry()
		tbl := table.New("zone", "start block", "size").WithWriter(os.Stdout)
		tbl.AddRow("reserved", 0, "1 block")
		tbl.AddRow("superblock", 1, "1 block")
		tbl.AddRow("inode bitmap", geo.IBitmapStart, fmt.Sprintf("%d blocks", geo.InodeStart-geo.IBitmapStart))
		tbl.AddRow("inode table", geo.InodeStart, fmt.Sprintf("%d inodes", geo.TotalInodes))
		tbl.AddRow("block bitmap", geo.BBitmapStart, fmt.Sprintf("%d blocks", geo.DataStart-geo.BBitmapStart))
		tbl.AddRow("data", geo.DataStart, fmt.Sprintf("%d blocks", geo.DataBlocks))
		tbl.Print()
	}
	return nil
}
