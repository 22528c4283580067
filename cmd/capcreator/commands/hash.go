package commands

import (
	"fmt"

	"github.com/capforge/autoloader/hashes"
	"github.com/capforge/autoloader/signing"
	"github.com/spf13/cobra"
)

var (
	hashAlgorithms []string
	hashManifest   bool
	verifyKey      string
)

var hashCmd = &cobra.Command{
	Use:   "hash <file>...",
	Short: "Print checksums of files",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runHash,
}

var verifyCmd = &cobra.Command{
	Use:   "verify <manifest>...",
	Short: "Check files against their checksum manifests",
	Long: `Check files against their checksum manifests.

With --key, the signature next to each manifest is verified first.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(hashCmd)
	rootCmd.AddCommand(verifyCmd)
	hashCmd.Flags().StringSliceVarP(&hashAlgorithms, "algorithm", "a", nil, "Algorithms to compute (default: hash-algorithms)")
	hashCmd.Flags().BoolVar(&hashManifest, "manifest", false, "Write a manifest next to every file")
	verifyCmd.Flags().StringVar(&verifyKey, "key", "", "Key file whose public half verifies the manifest signatures")
}

func runHash(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	algs := hashAlgorithms
	if len(algs) == 0 {
		algs = cfg.HashAlgorithms
	}

	for _, file := range args {
		results, err := hashes.Compute(file, algs)
		if err != nil {
			return err
		}
		for _, r := range results {
			fmt.Println(hashes.Entry{Algorithm: r.Algorithm, File: file, Value: r.Value})
		}
		if hashManifest {
			manifest, err := hashes.WriteManifest(file, results)
			if err != nil {
				return err
			}
			fmt.Printf("📄 Manifest: %s\n", manifest)
		}
	}
	return nil
}

func runVerify(cmd *cobra.Command, args []string) error {
	var key *signing.Key
	if verifyKey != "" {
		var err error
		if key, err = signing.LoadKey(verifyKey); err != nil {
			return fmt.Errorf("load key: %w", err)
		}
	}

	failed := 0
	for _, manifest := range args {
		if key != nil {
			if err := signing.VerifyFile(key, manifest); err != nil {
				fmt.Printf("❌ %s: %v\n", manifest, err)
				failed++
				continue
			}
		}
		mismatches, err := hashes.VerifyManifest(manifest)
		if err != nil {
			return err
		}
		for _, m := range mismatches {
			fmt.Printf("❌ %s (got %s)\n", m.Entry, m.Actual)
		}
		if len(mismatches) > 0 {
			failed++
			continue
		}
		fmt.Printf("✅ %s\n", manifest)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d manifest(s) failed verification", failed, len(args))
	}
	return nil
}
