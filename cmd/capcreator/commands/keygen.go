package commands

import (
	"crypto/rand"
	"fmt"
	"os"

	"github.com/capforge/autoloader/signing"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var keygenForce bool

var keygenCmd = &cobra.Command{
	Use:   "keygen <path>",
	Short: "Generate a signing key",
	Args:  cobra.ExactArgs(1),
	RunE:  runKeygen,
}

func init() {
	rootCmd.AddCommand(keygenCmd)
	keygenCmd.Flags().String("scheme", signing.Ed25519, "Signature scheme (ed25519 or dilithium3)")
	keygenCmd.Flags().BoolVar(&keygenForce, "force", false, "Overwrite an existing key file")
	viper.BindPFlag("signing-scheme", keygenCmd.Flags().Lookup("scheme"))
}

func runKeygen(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	path := args[0]
	if _, err := os.Stat(path); err == nil && !keygenForce {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}
	if err := ensureDirectories(path); err != nil {
		return err
	}

	key, err := signing.GenerateKey(cfg.SigningScheme, rand.Reader)
	if err != nil {
		return err
	}
	if err := key.Save(path); err != nil {
		return fmt.Errorf("save key: %w", err)
	}
	fmt.Printf("🔑 %s key written to %s\n", key.Scheme, path)
	return nil
}
