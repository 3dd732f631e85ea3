package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/minstrel/internal/store"
	"github.com/example/minstrel/internal/tracker"
)

// skipCmd represents the skip command
var skipCmd = &cobra.Command{
	Use:   "skip",
	Short: "Count the playing song as skipped and advance to the next",
	Long: `Counts a skip against the song MPD is currently playing and tells
MPD to move on. The watch daemon observes the same change; counters are
additive, so the two never conflict.`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := skipCurrent(); err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(skipCmd)
}

func skipCurrent() error {
	mpd, err := dialMPD()
	if err != nil {
		return err
	}
	defer mpd.Close()

	status, err := mpd.Status()
	if err != nil {
		return err
	}
	if status.State == tracker.Stopped || status.Path == "" {
		return fmt.Errorf("nothing is playing")
	}

	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	song, err := db.SongByPath(status.Path)
	if err != nil {
		return err
	}
	if err := db.IncrementCounters(song.ID, store.CounterDelta{Skips: 1}); err != nil {
		return err
	}
	if err := mpd.Next(); err != nil {
		return err
	}

	fmt.Printf("Skipped %s - %s\n", song.Artist, song.Title)
	return nil
}
