package commands

import (
	"context"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/capforge/autoloader/hashes"
	"github.com/capforge/autoloader/history"
	"github.com/capforge/autoloader/internal"
	"github.com/capforge/autoloader/internal/config"
	"github.com/capforge/autoloader/pseudocap"
	"github.com/capforge/autoloader/publish"
	"github.com/capforge/autoloader/signing"
	"github.com/spf13/cobra"
	"github.com/vbauerster/mpb/v7"
	"github.com/vbauerster/mpb/v7/decor"
)

var (
	createHash         bool
	createSign         bool
	createRecord       bool
	createPublish      bool
	createProgress     bool
	createAllowPartial bool
)

var createCmd = &cobra.Command{
	Use:   "create <name> <signed-file>...",
	Short: "Build an autoloader from a cap stub and up to six signed files",
	Long: `Build an autoloader in the working directory.

Signed files are glob patterns and must match exactly one file each.
".exe" is appended to names without an extension.`,
	Args: cobra.MinimumNArgs(2),
	RunE: runCreate,
}

func init() {
	rootCmd.AddCommand(createCmd)
	createCmd.Flags().BoolVar(&createHash, "hash", false, "Write a checksum manifest next to the image")
	createCmd.Flags().BoolVar(&createSign, "sign", false, "Sign the manifest with the configured signing key (implies --hash)")
	createCmd.Flags().BoolVar(&createRecord, "record", false, "Record the build in the history database")
	createCmd.Flags().BoolVar(&createPublish, "publish", false, "Upload the image and its manifest to S3")
	createCmd.Flags().BoolVar(&createProgress, "progress", false, "Show a progress bar")
	createCmd.Flags().BoolVar(&createAllowPartial, "allow-partial", false, "Exit successfully even if some sections failed")
}

func runCreate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if createSign && cfg.SigningKey == "" {
		return fmt.Errorf("--sign requires signing-key to be configured")
	}
	if createPublish && cfg.S3Bucket == "" {
		return fmt.Errorf("--publish requires s3-bucket to be configured")
	}

	req := pseudocap.Request{
		Filename: imageName(args[0]),
		Files:    args[1:],
		WorkDir:  cfg.WorkDir,
		Stub:     cfg.StubPath,
		Logger:   printLine,
	}

	var progress *mpb.Progress
	var bar *mpb.Bar
	if createProgress {
		total, err := estimateSize(req)
		if err != nil {
			return err
		}
		progress, bar = newProgressBar(total)
		req.Progress = func(n int) { bar.IncrBy(n) }
	}

	report, err := pseudocap.MakeAutoloader(req)
	if progress != nil {
		if !bar.Completed() {
			bar.Abort(err != nil)
		}
		progress.Wait()
	}
	if err != nil {
		return err
	}

	fmt.Print(report)

	ctx := context.Background()
	if err := afterBuild(ctx, cfg, report); err != nil {
		return err
	}

	if err := report.Err(); err != nil && !createAllowPartial {
		return fmt.Errorf("image incomplete: %w", err)
	}
	return nil
}

// afterBuild hashes, signs, records and publishes a finished image as requested.
func afterBuild(ctx context.Context, cfg *config.Config, report *pseudocap.Report) error {
	var manifest, signature string
	var results []hashes.Result

	if createHash || createSign || createRecord {
		algs := cfg.HashAlgorithms
		if createRecord && !slices.Contains(algs, "sha512") {
			algs = append(append([]string{}, algs...), "sha512")
		}
		var err error
		if results, err = hashes.Compute(report.Output, algs); err != nil {
			return fmt.Errorf("hash image: %w", err)
		}
	}

	if createHash || createSign {
		var err error
		if manifest, err = hashes.WriteManifest(report.Output, results); err != nil {
			return fmt.Errorf("write manifest: %w", err)
		}
		fmt.Printf("📄 Manifest: %s\n", manifest)
	}

	if createSign {
		key, err := signing.LoadKey(cfg.SigningKey)
		if err != nil {
			return fmt.Errorf("load signing key: %w", err)
		}
		if signature, err = signing.SignFile(key, manifest); err != nil {
			return fmt.Errorf("sign manifest: %w", err)
		}
		fmt.Printf("🔏 Signature: %s\n", signature)
	}

	if createRecord {
		if err := recordBuild(ctx, cfg, report, results); err != nil {
			return err
		}
	}

	if createPublish {
		client, err := publish.NewClient(ctx, cfg.S3Bucket, cfg.S3Region, cfg.S3Prefix)
		if err != nil {
			return fmt.Errorf("s3 client init failed: %w", err)
		}
		for _, path := range []string{report.Output, manifest, signature} {
			if path == "" {
				continue
			}
			exists, err := client.Exists(ctx, client.Key(path))
			if err != nil {
				return fmt.Errorf("publish %s: %w", path, err)
			}
			if exists {
				fmt.Printf("⚠️  Replacing s3://%s/%s\n", cfg.S3Bucket, client.Key(path))
			}
			res, err := client.Upload(ctx, path)
			if err != nil {
				return fmt.Errorf("publish %s: %w", path, err)
			}
			fmt.Printf("☁️  Uploaded: s3://%s/%s\n", cfg.S3Bucket, res.Key)
		}
	}
	return nil
}

func recordBuild(ctx context.Context, cfg *config.Config, report *pseudocap.Report, results []hashes.Result) error {
	if err := ensureDirectories(cfg.HistoryPath); err != nil {
		return err
	}
	repo, err := history.NewRepository(cfg.HistoryPath)
	if err != nil {
		return fmt.Errorf("db init failed: %w", err)
	}
	defer repo.Close()

	var sum string
	for _, r := range results {
		if r.Algorithm == "sha512" {
			sum = r.Value
		}
	}
	build := history.FromReport(report, sum)
	if err := repo.Record(ctx, build); err != nil {
		return fmt.Errorf("record build: %w", err)
	}
	fmt.Printf("🗂️  Recorded build #%d (%s)\n", build.ID, build.Status)
	return nil
}

// estimateSize predicts the image size for the progress bar.
func estimateSize(req pseudocap.Request) (int64, error) {
	workDir := req.WorkDir
	if workDir == "" {
		workDir = pseudocap.DefaultWorkDir
	}
	stub, err := pseudocap.LocateStub(req.Stub, workDir)
	if err != nil {
		return 0, err
	}
	info, err := os.Stat(stub)
	if err != nil {
		return 0, err
	}
	total := info.Size()
	count := 0
	for _, pattern := range req.Files {
		if pattern == "" {
			continue
		}
		path, err := pseudocap.ResolveOne(pattern)
		if err != nil {
			return 0, err
		}
		if info, err = os.Stat(path); err != nil {
			return 0, err
		}
		total += info.Size()
		count++
	}
	if count < 1 || count > internal.MaxFiles {
		return 0, fmt.Errorf("%w (got %d)", pseudocap.ErrFileCount, count)
	}
	return total + int64(internal.TableSize(count)), nil
}

func newProgressBar(total int64) (*mpb.Progress, *mpb.Bar) {
	p := mpb.New(
		mpb.WithWidth(60),
		mpb.WithRefreshRate(180*time.Millisecond),
	)
	bar := p.New(total,
		mpb.BarStyle().Lbound("[").Filler("=").Tip(">").Padding("-").Rbound("|"),
		mpb.PrependDecorators(
			decor.CountersKibiByte("\t% .2f / % .2f"),
		),
		mpb.AppendDecorators(
			decor.OnComplete(decor.AverageETA(decor.ET_STYLE_GO), "✅ "),
			decor.Name(" ] "),
			decor.AverageSpeed(decor.UnitKiB, "% .2f"),
		),
	)
	return p, bar
}
