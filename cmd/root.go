package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"

	"github.com/example/minstrel/internal/mpdgw"
	"github.com/example/minstrel/internal/store"
)

var cfgFile string
var databasePath string
var mpdAddress string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "minstrel",
	Short: "Offline music suggestions learned from your listening behavior",
	Long: `Minstrel watches what you play through MPD, learns which songs you
finish and which you skip, and generates queues from that history.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default is $HOME/.minstrel.yaml)")

	rootCmd.PersistentFlags().StringVarP(
		&databasePath, "database", "d", defaultDatabasePath(), "Path to the SQLite database")
	viper.BindPFlag("database", rootCmd.PersistentFlags().Lookup("database"))

	rootCmd.PersistentFlags().StringVar(
		&mpdAddress, "mpd-address", "localhost:6600", "MPD server address (host:port)")
	viper.BindPFlag("mpd-address", rootCmd.PersistentFlags().Lookup("mpd-address"))
}

func defaultDatabasePath() string {
	home, err := homedir.Dir()
	if err != nil {
		return "./minstrel.db"
	}
	return filepath.Join(home, ".local", "share", "minstrel", "minstrel.db")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := homedir.Dir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		// Search config in home directory with name ".minstrel" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigName(".minstrel")
	}

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}

	// See https://github.com/spf13/viper/pull/852
	rootCmd.Flags().VisitAll(func(f *pflag.Flag) {
		if viper.IsSet(f.Name) && viper.GetString(f.Name) != "" {
			rootCmd.Flags().Set(f.Name, viper.GetString(f.Name))
		}
	})
}

func openStore() (*store.Store, error) {
	db, err := store.New(viper.GetString("database"))
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return db, nil
}

func dialMPD() (*mpdgw.Client, error) {
	return mpdgw.Dial("tcp", viper.GetString("mpd-address"))
}
