package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.pageloc/internal/config"
)

var cfg *config.Config

var homeFlag string
var configFlag string

var rootCmd = &cobra.Command{
	Use:   "pageloc",
	Short: "Inspect page-location pointer encodings",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.LoadConfig(homeFlag, configFlag)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("Error: ", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&homeFlag, "home", "", "override the pageloc home directory")
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "override the config file path")

	rootCmd.AddCommand(decodeCmd)
	rootCmd.AddCommand(sizeclassCmd)
	rootCmd.AddCommand(segmentCmd)
}
