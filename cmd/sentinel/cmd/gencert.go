package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/amansahu205/ETH-GLOBAL-NYC-2025/pkg/tlsutil"
)

var (
	gencertCert string
	gencertKey  string
	gencertSANs []string
)

var gencertCmd = &cobra.Command{
	Use:   "gencert",
	Short: "Generate a self-signed TLS certificate",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := tlsutil.GenerateSelfSignedCert(gencertCert, gencertKey, "sentinel", gencertSANs...); err != nil {
			return err
		}
		fmt.Printf("Certificate written to %s, key to %s\n", gencertCert, gencertKey)
		return nil
	},
}

func init() {
	gencertCmd.Flags().StringVar(&gencertCert, "cert", "certs/sentinel.crt", "certificate output path")
	gencertCmd.Flags().StringVar(&gencertKey, "key", "certs/sentinel.key", "key output path")
	gencertCmd.Flags().StringSliceVar(&gencertSANs, "san", nil, "additional IPs or hostnames for the certificate")
	rootCmd.AddCommand(gencertCmd)
}
