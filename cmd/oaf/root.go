package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// app carries the state shared by every subcommand.
type app struct {
	v      *viper.Viper
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}

	rootCmd := &cobra.Command{
		Use:          "oaf",
		Short:        "Pack and read sharded asset archives",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
	}
	rootCmd.PersistentFlags().String("config", "", "Config file (yaml, toml or json); flags and OAF_* variables override it")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(newPackCmd(a), newLsCmd(a), newCatCmd(a))
	return rootCmd
}

// init binds flags, environment and the optional config file into the
// viper instance, then installs the logger.
func (a *app) init(cmd *cobra.Command) error {
	if err := a.v.BindPFlags(cmd.Flags()); err != nil {
		return err
	}
	a.v.SetEnvPrefix("OAF")
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()

	if path := a.v.GetString("config"); path != "" {
		a.v.SetConfigFile(path)
		if err := a.v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", path, err)
		}
	}

	level := log.InfoLevel
	if a.v.GetBool("verbose") {
		level = log.DebugLevel
	}
	handler := log.NewWithOptions(cmd.ErrOrStderr(), log.Options{
		Prefix: "oaf",
		Level:  level,
	})
	a.logger = slog.New(handler)
	return nil
}
