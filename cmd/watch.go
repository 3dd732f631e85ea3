package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/example/minstrel/internal/tracker"
)

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Track listening behavior until interrupted",
	Long: `Observes MPD and records touches, listens, skips, and song-to-song
connections as you listen. Runs until SIGINT or SIGTERM; the song being
tracked at shutdown still gets classified.`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := watch(); err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)

	var pollInterval time.Duration
	watchCmd.Flags().DurationVar(&pollInterval, "poll-interval", time.Second,
		"How often to observe MPD")
	viper.BindPFlag("poll-interval", watchCmd.Flags().Lookup("poll-interval"))

	var threshold float64
	watchCmd.Flags().Float64Var(&threshold, "listened-threshold", 0.8,
		"Fraction of a song that must play for it to count as listened")
	viper.BindPFlag("listened-threshold", watchCmd.Flags().Lookup("listened-threshold"))

	var defaultDuration time.Duration
	watchCmd.Flags().DurationVar(&defaultDuration, "default-duration", 3*time.Minute,
		"Assumed song length when MPD does not report one")
	viper.BindPFlag("default-duration", watchCmd.Flags().Lookup("default-duration"))
}

func watch() error {
	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	mpd, err := dialMPD()
	if err != nil {
		return err
	}
	defer mpd.Close()

	cfg := tracker.DefaultConfig()
	cfg.PollInterval = viper.GetDuration("poll-interval")
	cfg.ListenedThreshold = viper.GetFloat64("listened-threshold")
	cfg.DefaultDuration = viper.GetDuration("default-duration")

	logger := log.New(os.Stderr, "", log.LstdFlags)
	t := tracker.New(mpd, db, cfg, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	color.Green("Watching MPD at %s", viper.GetString("mpd-address"))
	return t.Run(ctx)
}
