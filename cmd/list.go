package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all songs in the catalog with their statistics",
	Run: func(cmd *cobra.Command, args []string) {
		if err := listSongs(); err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func listSongs() error {
	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	songs, err := db.AllSongs()
	if err != nil {
		return err
	}

	loved := color.New(color.FgRed).SprintFunc()

	table := tablewriter.NewWriter(os.Stdout)
	table.Header([]string{"", "Artist", "Album", "Title", "Touches", "Listens", "Skips"})
	for _, song := range songs {
		mark := ""
		if song.Loved {
			mark = loved("♥")
		}
		table.Append([]string{
			mark,
			song.Artist,
			song.Album,
			song.Title,
			strconv.Itoa(song.Touches),
			strconv.Itoa(song.Listens),
			strconv.Itoa(song.Skips),
		})
	}
	table.Render()

	fmt.Printf("%d songs\n", len(songs))
	return nil
}
