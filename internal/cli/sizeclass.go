package cli

import (
	"fmt"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.pageloc/internal/heap"
	"go.pageloc/internal/pagecache"
)

var sizeclassCmd = &cobra.Command{
	Use:   "sizeclass <length>",
	Short: "Show the power-of-two bucket a byte length compresses into",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := strconv.ParseUint(args[0], 0, 64)
		if err != nil {
			return fmt.Errorf("not a length: %w", err)
		}

		class := pagecache.SizeClassFor(n)
		fmt.Println(row("exponent", fmt.Sprintf("%d", class.Exponent())))
		fmt.Println(row("size", humanize.IBytes(class.Size())))

		if class.Exponent() >= heap.MinTrailingZeros {
			fmt.Println(row("heap slab", fmt.Sprintf("%d", heap.SlabForExponent(class.Exponent()))))
		} else {
			fmt.Println(noteStyle.Render("below the slab floor, too small for the heap store"))
		}
		return nil
	},
}
