package commands

import (
	"context"
	"fmt"
	"strconv"

	"github.com/capforge/autoloader/history"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history [id]",
	Short: "List recorded builds, or show one build in detail",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := ensureDirectories(cfg.HistoryPath); err != nil {
		return err
	}

	repo, err := history.NewRepository(cfg.HistoryPath)
	if err != nil {
		return fmt.Errorf("db init failed: %w", err)
	}
	defer repo.Close()

	ctx := context.Background()
	if len(args) == 1 {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid build id %q", args[0])
		}
		return showBuild(ctx, repo, id)
	}

	builds, err := repo.List(ctx)
	if err != nil {
		return fmt.Errorf("list failed: %w", err)
	}
	if len(builds) == 0 {
		fmt.Println("No builds recorded.")
		return nil
	}

	fmt.Printf("%-6s %-30s %-10s %-10s %-8s %s\n", "ID", "OUTPUT", "SIZE", "STATUS", "FILES", "CREATED")
	for _, b := range builds {
		fmt.Printf("%-6d %-30s %-10s %-10s %-8d %s\n",
			b.ID, b.Output, humanize.Bytes(uint64(b.ImageSize)), b.Status, b.FileCount, b.CreatedAt)
	}
	return nil
}

func showBuild(ctx context.Context, repo *history.Repository, id int64) error {
	b, err := repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if b == nil {
		return fmt.Errorf("build %d not found", id)
	}

	fmt.Printf("Build #%d (%s)\n", b.ID, b.Status)
	fmt.Printf("\toutput:  %s (%s)\n", b.Output, humanize.Bytes(uint64(b.ImageSize)))
	fmt.Printf("\tcap:     %s (%d bytes)\n", b.StubPath, b.StubSize)
	fmt.Printf("\ttable:   %d bytes\n", b.TableSize)
	if b.SHA512 != "" {
		fmt.Printf("\tsha512:  %s\n", b.SHA512)
	}
	for _, p := range b.Payloads {
		fmt.Printf("\t#%d       %s (%d bytes)\n", p.Slot, p.Path, p.Size)
	}
	if b.Errors != "" {
		fmt.Printf("\terrors:  %s\n", b.Errors)
	}
	fmt.Printf("\tcreated: %s\n", b.CreatedAt)
	return nil
}
