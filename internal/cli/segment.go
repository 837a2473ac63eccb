package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"go.pageloc/internal/pagecache"
)

var segmentPid uint64

var segmentCmd = &cobra.Command{
	Use:   "segment <bits> <segment-offset>",
	Short: "Check whether a pointer keeps a log segment alive",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		bits, err := strconv.ParseUint(args[0], 0, 64)
		if err != nil {
			return fmt.Errorf("not a pointer value: %w", err)
		}
		segment, err := strconv.ParseUint(args[1], 0, 64)
		if err != nil {
			return fmt.Errorf("not a segment offset: %w", err)
		}

		p := pagecache.FromBits(bits)
		if k := p.Kind(); k == pagecache.KindInMemory || k == pagecache.KindLogAndHeap {
			return fmt.Errorf("%s pointers cannot be inspected from outside the owning process", k)
		}

		read, err := p.Read()
		if err != nil {
			return err
		}

		alive := read.ExistsOnSegment(pagecache.LogOffset(segment), cfg.SegmentSize, pagecache.PageID(segmentPid))
		fmt.Println(row("segment size", fmt.Sprintf("%d", cfg.SegmentSize)))
		fmt.Println(row("on segment", strconv.FormatBool(alive)))
		return nil
	},
}

func init() {
	segmentCmd.Flags().Uint64Var(&segmentPid, "pid", 2, "page id the pointer was read through")
}
