package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "paybridge",
	Short: "Payment broker microservice",
	Long:  "A payment broker that opens gateway payments, reconciles their lifecycle, and keeps merchant balances.",
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
