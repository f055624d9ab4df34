package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/amansahu205/ETH-GLOBAL-NYC-2025/pkg/auth"
	"github.com/amansahu205/ETH-GLOBAL-NYC-2025/pkg/models"
)

var genkeyLabel string

var genkeyCmd = &cobra.Command{
	Use:   "genkey <address>",
	Short: "Mint an API key bound to a caller address",
	Long: `genkey mints a bearer API key that authenticates as the given address.
The key is printed once and only its bcrypt hash is stored in the keyring.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, err := models.ParseAddress(args[0])
		if err != nil {
			return err
		}

		keyring, err := auth.LoadKeyring(viper.GetString("keyring"))
		if err != nil {
			return err
		}

		key, err := keyring.GenerateKey(addr, genkeyLabel)
		if err != nil {
			return err
		}

		fmt.Printf("API key for %s (shown once, store it safely):\n%s\n", addr, key)
		return nil
	},
}

func init() {
	genkeyCmd.Flags().StringVar(&genkeyLabel, "label", "", "human-readable label for the key")
	rootCmd.AddCommand(genkeyCmd)
}
