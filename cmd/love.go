package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// loveCmd represents the love command
var loveCmd = &cobra.Command{
	Use:   "love <song>",
	Short: "Mark a song as loved, doubling its score",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := setLoved(strings.Join(args, " "), true); err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	},
}

// unloveCmd represents the unlove command
var unloveCmd = &cobra.Command{
	Use:   "unlove <song>",
	Short: "Remove a song's loved mark",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := setLoved(strings.Join(args, " "), false); err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(loveCmd)
	rootCmd.AddCommand(unloveCmd)
}

func setLoved(query string, loved bool) error {
	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	song, err := db.FindByName(query)
	if err != nil {
		return err
	}
	if err := db.SetLoved(song.ID, loved); err != nil {
		return err
	}

	verb := "Loved"
	if !loved {
		verb = "Unloved"
	}
	fmt.Printf("%s %s - %s\n", verb, song.Artist, song.Title)
	return nil
}
