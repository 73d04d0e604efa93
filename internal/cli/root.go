// Package cli implements the benor command-line tool.
package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/relab/benor/logging"
	"github.com/spf13/cobra"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

var (
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   "benor",
		Short: "A command-line utility for running Ben-Or consensus.",
		Long: `benor runs Ben-Or randomized binary consensus among a set of nodes,
some of which may be faulty.

To run a cluster in this process, use the 'benor run' command.
By default, four nodes are connected through a simulated in-memory network.
To inspect or control a single node over gRPC, use the 'benor ctl' commands.`,
		SilenceUsage: true,
	}
)

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.benor.yaml)")

	rootCmd.PersistentFlags().String("log-level", "info", "sets the log level (debug, info, warn, error)")
	cobra.CheckErr(viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level")))
	rootCmd.PersistentFlags().StringSlice("log-pkgs", []string{}, "set the log level on a per-package basis.")
	cobra.CheckErr(viper.BindPFlag("log-pkgs", rootCmd.PersistentFlags().Lookup("log-pkgs")))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".benor" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigName(".benor")
	}

	viper.SetEnvPrefix("benor")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}

	cobra.CheckErr(setLogLevels(viper.GetString("log-level"), viper.GetStringSlice("log-pkgs")))
}

func setLogLevels(level string, packageLevels []string) error {
	if _, ok := logging.ParseLevel(level); !ok {
		return fmt.Errorf("invalid log level %q", level)
	}
	logging.SetLogLevel(level)

	for _, packageLevel := range packageLevels {
		pkg, lvl, found := strings.Cut(packageLevel, ":")
		if !found {
			return fmt.Errorf("log-pkgs flag must be a comma-separated list of package:level strings")
		}
		if _, ok := logging.ParseLevel(lvl); !ok {
			return fmt.Errorf("invalid log level %q for package %s", lvl, pkg)
		}
		logging.SetPackageLogLevel(pkg, lvl)
	}
	return nil
}
