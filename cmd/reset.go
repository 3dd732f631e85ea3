package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// resetCmd represents the reset command
var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete the entire catalog, including all learned data",
	Run: func(cmd *cobra.Command, args []string) {
		if !viper.GetBool("yes") {
			fmt.Println("This deletes every song, counter, and connection. Re-run with --yes to confirm.")
			return
		}
		if err := resetDatabase(); err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(resetCmd)

	var yes bool
	resetCmd.Flags().BoolVar(&yes, "yes", false, "Confirm the reset")
	viper.BindPFlag("yes", resetCmd.Flags().Lookup("yes"))
}

func resetDatabase() error {
	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.Reset(); err != nil {
		return err
	}
	fmt.Println("Catalog reset")
	return nil
}
