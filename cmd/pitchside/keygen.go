package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alecgard/pitchside/internal/token"
)

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate a signing secret and encryption key for auth config",
	RunE: func(cmd *cobra.Command, args []string) error {
		secret, err := token.GenerateKey()
		if err != nil {
			return err
		}
		key, err := token.GenerateKey()
		if err != nil {
			return err
		}
		fmt.Println("auth:")
		fmt.Printf("  signing_secret: %q\n", secret)
		fmt.Printf("  encryption_key: %q\n", key)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(keygenCmd)
}
