package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/example/minstrel/internal/queue"
	"github.com/example/minstrel/internal/scoring"
)

// The three queue commands share one runner; only the strategy differs.

var currentCmd = &cobra.Command{
	Use:   "current <song>",
	Short: "Generate and play a dual-path queue from a song",
	Long: `Follows the two strongest connections from the starting song and
interleaves them, for background listening with some variety.`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runQueue(queue.Current, strings.Join(args, " "))
	},
}

var threadCmd = &cobra.Command{
	Use:   "thread <song>",
	Short: "Generate and play the single strongest path from a song",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runQueue(queue.Thread, strings.Join(args, " "))
	},
}

var streamCmd = &cobra.Command{
	Use:   "stream <song>",
	Short: "Generate and play a long exploratory queue from a song",
	Long: `Walks the connection graph with randomized selection, falling back
to catalog samples where the graph is thin. Good for teaching minstrel
about music it has not connected yet.`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runQueue(queue.Stream, strings.Join(args, " "))
	},
}

func init() {
	rootCmd.AddCommand(currentCmd)
	rootCmd.AddCommand(threadCmd)
	rootCmd.AddCommand(streamCmd)

	for _, cmd := range []*cobra.Command{currentCmd, threadCmd, streamCmd} {
		var noPlay bool
		cmd.Flags().BoolVar(&noPlay, "no-play", false, "Print the queue without loading it into MPD")
		viper.BindPFlag(cmd.Name()+".no-play", cmd.Flags().Lookup("no-play"))
	}
}

func runQueue(strategy queue.Strategy, query string) {
	entries, err := generateQueue(strategy, query)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	fmt.Printf("Generated %s queue (%d songs):\n", strategy, len(entries))
	for i, entry := range entries {
		fmt.Printf("%3d. %s - %s\n", i+1, entry.Artist, entry.Title)
	}

	if viper.GetBool(strategy.String() + ".no-play") {
		return
	}

	mpd, err := dialMPD()
	if err != nil {
		color.Yellow("MPD unavailable, queue not loaded: %v", err)
		return
	}
	defer mpd.Close()

	if err := mpd.Load(entries); err != nil {
		color.Yellow("Loading queue into MPD failed: %v", err)
		return
	}
	color.Green("Playing.")
}

func generateQueue(strategy queue.Strategy, query string) ([]queue.Entry, error) {
	db, err := openStore()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	generator := queue.New(db, scoring.DefaultParams(), queue.DefaultConfig(), nil)
	return generator.Generate(strategy, query)
}
