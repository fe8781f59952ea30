package cmd

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/rodaine/table"
	"github.com/spf13/cobra"

	"github.com/numbfs/go-numbfs/internal/check"
	"github.com/numbfs/go-numbfs/internal/device"
	"github.com/numbfs/go-numbfs/internal/superblock"
	"github.com/numbfs/go-numbfs/internal/types"
)

var (
	fsckShowInodes bool
	fsckShowBlocks bool
	fsckNid        int64
)

var fsckCmd = &cobra.Command{
	Use:   "fsck [flags] IMAGE",
	Short: "Inspect an image and verify free-space accounting",
	Long: `Inspect a NumbFS image: recompute inode and block usage from the
bitmaps and compare against the counters stored at format time. The
bitmaps are authoritative; a mismatch makes fsck exit non-zero.`,
	Args: cobra.ExactArgs(1),
	RunE: runFsck,
}

func init() {
	fsckCmd.Flags().BoolVarP(&fsckShowInodes, "inodes", "i", false, "display inode usage")
	fsckCmd.Flags().BoolVarP(&fsckShowBlocks, "blocks", "b", false, "display block usage")
	fsckCmd.Flags().Int64VarP(&fsckNid, "nid", "n", -1, "display the inode information of inode@nid")
	rootCmd.AddCommand(fsckCmd)
}

func runFsck(cmd *cobra.Command, args []string) error {
	dev, err := device.OpenReadOnly(args[0])
	if err != nil {
		return err
	}
	defer dev.Close()

	sb, err := superblock.Read(dev)
	if err != nil {
		return err
	}

	report, err := check.Run(sb)
	if err != nil {
		return err
	}

	if !quiet {
		uuidStr := report.VolumeUUID.String()
		if report.VolumeUUID == uuid.Nil {
			uuidStr = "none"
		}
		fmt.Printf("volume: %s\n", uuidStr)
	}

	if fsckShowInodes {
		printUsage("inodes", report.Inodes)
	}
	if fsckShowBlocks {
		printUsage("blocks", report.Blocks)
	}

	if fsckNid >= 0 {
		if err := printInode(sb, uint32(fsckNid)); err != nil {
			return err
		}
	}

	if !report.Clean() {
		return fmt.Errorf(
			"free counters drifted from bitmaps (inodes stored %d actual %d, blocks stored %d actual %d)",
			report.Inodes.StoredFree, report.Inodes.Free,
			report.Blocks.StoredFree, report.Blocks.Free)
	}

	if !quiet {
		fmt.Println("filesystem is consistent")
	}
	return nil
}

func printUsage(name string, u check.Usage) {
	pct := 0.0
	if u.Total > 0 {
		pct = 100 * float64(u.Used) / float64(u.Total)
	}
	tbl := table.New("zone", "total", "used", "free", "usage").WithWriter(os.Stdout)
	tbl.AddRow(name, u.Total, u.Used, u.Free, fmt.Sprintf("%.1f%%", pct))
	tbl.Print()
}

func printInode(sb *superblock.Superblock, nid uint32) error {
	info, err := check.InspectInode(sb, nid)
	if err != nil {
		return err
	}

	fmt.Println("================================")
	fmt.Println("Inode Information")
	fmt.Printf("    inode number:    %d\n", info.Nid)
	fmt.Printf("    inode type:      %s\n", info.TypeName())
	fmt.Printf("    mode:            %#o\n", info.Mode&^types.ModeTypeMask)
	fmt.Printf("    nlink:           %d\n", info.Nlink)
	fmt.Printf("    uid/gid:         %d/%d\n", info.Uid, info.Gid)
	fmt.Printf("    size:            %d\n", info.Size)

	if verbose {
		for i, blk := range info.Data {
			if blk == types.HoleAddr {
				fmt.Printf("    data[%d]:         hole\n", i)
			} else {
				fmt.Printf("    data[%d]:         %d\n", i, blk)
			}
		}
	}

	if info.Entries != nil {
		tbl := table.New("name", "type", "inode").WithWriter(os.Stdout)
		for _, entry := range info.Entries {
			tbl.AddRow(entry.Name, entryType(entry.Type), entry.Ino)
		}
		tbl.Print()
	}
	return nil
}

func entryType(t uint8) string {
	switch t {
	case types.EntryDir:
		return "DIR"
	case types.EntrySymlink:
		return "SYMLINK"
	default:
		return "REGULAR"
	}
}
