package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/example/minstrel/internal/library"
)

// updateCmd represents the update command
var updateCmd = &cobra.Command{
	Use:   "update <music-directory>",
	Short: "Add new music files to the catalog",
	Long: `Incrementally rescans the music directory and catalogs files that
are not in the database yet. Existing songs and their learned statistics
are untouched.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := updateDatabase(args[0], viper.GetInt("scan-depth")); err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(updateCmd)

	var scanDepth int
	updateCmd.Flags().IntVar(&scanDepth, "scan-depth", 10, "Maximum directory depth to scan")
	viper.BindPFlag("scan-depth", updateCmd.Flags().Lookup("scan-depth"))
}

func updateDatabase(musicDir string, scanDepth int) error {
	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	songs, err := library.Scan(musicDir, scanDepth)
	if err != nil {
		return err
	}
	fmt.Printf("Found %d music files\n", len(songs))

	added, err := db.AddSongs(songs)
	if err != nil {
		return err
	}
	fmt.Printf("Added %d new songs\n", added)
	return nil
}
