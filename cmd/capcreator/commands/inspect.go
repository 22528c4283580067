package commands

import (
	"fmt"

	"github.com/capforge/autoloader"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <image>",
	Short: "Show the layout of an autoloader",
	Args:  cobra.ExactArgs(1),
	RunE:  runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	img, err := autoloader.Open(args[0])
	if err != nil {
		return err
	}
	defer img.Close()

	fmt.Printf("📦 %s\n", args[0])
	fmt.Printf("\tcap:    %s (%d bytes)\n", humanize.Bytes(uint64(img.StubSize())), img.StubSize())
	fmt.Printf("\ttable:  %d bytes, %d signed file(s)\n", img.TableSize(), img.Count())
	for slot := 1; slot <= img.Count(); slot++ {
		fmt.Printf("\t#%d      offset %-12d %s (%d bytes)\n",
			slot, img.Offset(slot), humanize.Bytes(uint64(img.Size(slot))), img.Size(slot))
	}
	return nil
}
