package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/example/minstrel/internal/library"
)

// initDbCmd represents the init-db command
var initDbCmd = &cobra.Command{
	Use:   "init-db <music-directory>",
	Short: "Build the catalog from a music directory",
	Long: `Scans the music directory recursively and catalogs every supported
audio file (mp3, flac, ogg, m4a, wav, opus). Artist, album, and title are
read from the artist/album/title.ext path layout. Paths are stored relative
to the music directory so MPD can play them directly.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := initDatabase(args[0], viper.GetBool("force")); err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(initDbCmd)

	var force bool
	initDbCmd.Flags().BoolVarP(&force, "force", "f", false, "Discard an existing catalog, including all learned data")
	viper.BindPFlag("force", initDbCmd.Flags().Lookup("force"))
}

func initDatabase(musicDir string, force bool) error {
	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	if force {
		if err := db.Reset(); err != nil {
			return fmt.Errorf("resetting catalog: %w", err)
		}
		fmt.Println("Discarded existing catalog")
	}

	songs, err := library.Scan(musicDir, -1)
	if err != nil {
		return err
	}
	fmt.Printf("Found %d music files\n", len(songs))

	added, err := db.AddSongs(songs)
	if err != nil {
		return err
	}
	fmt.Printf("Cataloged %d new songs\n", added)
	return nil
}
