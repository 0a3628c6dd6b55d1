package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/aretw0/arbor/internal/cli"
	"github.com/aretw0/arbor/internal/config"
	"github.com/aretw0/arbor/internal/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "arbor",
	Short: "Arbor manages typed trees of structures and their relations",
	Long: `Arbor creates, links and projects instances of typed structures, backed by
an in-memory graph, a JSON graph file or a SQLite database. Output is JSON.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "config file (default .arbor.yaml)")
	flags.String("backend", config.BackendFile, "storage backend: memory, file or sqlite")
	flags.String("store", "", "path of the graph file or database (default under .arbor/)")
	flags.String("redis", "", "redis address for prototype sources and the writer lock")
	flags.Bool("debug", false, "enable debug logging")
}

func initConfig() {
	flags := rootCmd.PersistentFlags()
	_ = viper.BindPFlag("backend", flags.Lookup("backend"))
	_ = viper.BindPFlag("store", flags.Lookup("store"))
	_ = viper.BindPFlag("redis.addr", flags.Lookup("redis"))
	_ = viper.BindPFlag("debug", flags.Lookup("debug"))

	if cfgFile, _ := rootCmd.Flags().GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName(".arbor")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(home)
		}
	}

	config.InitEnv()

	// It's fine if no config file is found; we use defaults.
	_ = viper.ReadInConfig()
}

// openSession loads the configuration and opens the platform it describes.
func openSession(cmd *cobra.Command) (*cli.Session, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	return cli.Open(cmd.Context(), cfg, logging.New(cfg.Debug))
}

// withSession runs fn against an open session and closes it afterwards.
func withSession(cmd *cobra.Command, fn func(s *cli.Session) error) (err error) {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := s.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return fn(s)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
