package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/capforge/autoloader"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var extractStub bool

var extractCmd = &cobra.Command{
	Use:   "extract <image> <dir>",
	Short: "Write the signed files of an autoloader to a directory",
	Args:  cobra.ExactArgs(2),
	RunE:  runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)
	extractCmd.Flags().BoolVar(&extractStub, "stub", false, "Extract the cap stub as well")
}

func runExtract(cmd *cobra.Command, args []string) error {
	img, err := autoloader.Open(args[0])
	if err != nil {
		return err
	}
	defer img.Close()

	dir := args[1]
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}

	if extractStub {
		if err := extractSection(img.Stub(), filepath.Join(dir, "cap.dat")); err != nil {
			return err
		}
	}
	for slot := 1; slot <= img.Count(); slot++ {
		if err := extractSection(img.Reader(slot), filepath.Join(dir, slotName(slot))); err != nil {
			return err
		}
	}
	return nil
}

func slotName(slot int) string {
	return fmt.Sprintf("slot%d.signed", slot)
}

func extractSection(r autoloader.Reader, path string) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return fmt.Errorf("extract %s: %w", path, err)
	}
	if err := out.Close(); err != nil {
		return err
	}
	fmt.Printf("✅ %s (%s)\n", path, humanize.Bytes(uint64(r.Size())))
	return nil
}
