package cli

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.pageloc/internal/pagecache"
)

var labelStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63")).Width(14)
var noteStyle = lipgloss.NewStyle().Faint(true)

func row(label, value string) string {
	return labelStyle.Render(label) + value
}

var decodeCmd = &cobra.Command{
	Use:   "decode <bits>",
	Short: "Decode an 8-byte page pointer from its integer form",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		bits, err := strconv.ParseUint(args[0], 0, 64)
		if err != nil {
			return fmt.Errorf("not a pointer value: %w", err)
		}

		p := pagecache.FromBits(bits)
		kind := p.Kind()

		fmt.Println(row("kind", kind.String()))

		switch kind {
		case pagecache.KindLog, pagecache.KindFree:
			at, _ := p.LogOffset()
			fmt.Println(row("log offset", fmt.Sprintf("%d", at)))
			fmt.Println(row("segment", fmt.Sprintf("%d", uint64(at)/cfg.SegmentSize*cfg.SegmentSize)))
		case pagecache.KindHeap:
			id := p.HeapID()
			fmt.Println(row("slab", fmt.Sprintf("%d", id.Slab)))
			fmt.Println(row("slot index", fmt.Sprintf("%d", id.Index)))
			fmt.Println(row("slot size", humanize.IBytes(id.SlabSize())))
		case pagecache.KindInMemory, pagecache.KindLogAndHeap:
			fmt.Println(row("payload", p.String()))
			fmt.Println(noteStyle.Render("resident handles are only resolvable inside the owning process"))
		case pagecache.KindUnassigned:
			fmt.Println(noteStyle.Render("unassigned sentinel, payload is undefined"))
			return nil
		default:
			return fmt.Errorf("%w: %d", pagecache.ErrUnknownPointerKind, uint8(kind))
		}

		if kind != pagecache.KindFree {
			fmt.Println(row("encoded size", humanize.IBytes(p.SizeClass().Size())))
		}
		return nil
	},
}
