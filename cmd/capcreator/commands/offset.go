package commands

import (
	"encoding/hex"
	"fmt"

	"github.com/capforge/autoloader/internal"
	"github.com/capforge/autoloader/pseudocap"
	"github.com/spf13/cobra"
)

var offsetCmd = &cobra.Command{
	Use:   "offset <signed-file>...",
	Short: "Write offset.hex for the given signed files without building an image",
	Args:  cobra.RangeArgs(1, 6),
	RunE:  runOffset,
}

func init() {
	rootCmd.AddCommand(offsetCmd)
}

func runOffset(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	stub, err := pseudocap.LocateStub(cfg.StubPath, cfg.WorkDir)
	if err != nil {
		return err
	}
	offset, err := pseudocap.MakeOffset(stub, args, cfg.WorkDir)
	if err != nil {
		return err
	}

	fmt.Printf("📄 %s (%d bytes, cap %d bytes)\n", offset.Path, offset.Size, offset.CapSize)
	for i, path := range offset.Files {
		field := internal.EncodeField(offset.Table.Offsets[i])
		fmt.Printf("\t#%d %-12d %s  %s\n", i+1, offset.Table.Offsets[i], hex.EncodeToString(field[:]), path)
	}
	return nil
}
