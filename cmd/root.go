package cmd

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/papapumpkin/linkrank/internal/config"
	"github.com/papapumpkin/linkrank/internal/ui"
)

var rootCmd = &cobra.Command{
	Use:   "linkrank [edge-list.tsv]",
	Short: "Degree and closeness centrality for directed link graphs",
	Long: `linkrank reads a tab-separated edge list (one hyperlink per row) and reports
the nodes with the highest out/in degree and out/in closeness centrality.

Running linkrank with a file argument is shorthand for "linkrank analyze <file>".`,
	Args:          cobra.MaximumNArgs(1),
	RunE:          runRootDefault,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		ui.New().Error(err.Error())
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default .linkrank.yaml)")
	rootCmd.PersistentFlags().String("env-file", ".env", "dotenv file loaded before the environment is read")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output")
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	addAnalyzeFlags(rootCmd.Flags())
}

func initConfig() {
	envFile, _ := rootCmd.PersistentFlags().GetString("env-file")
	if err := config.LoadDotEnv(envFile); err != nil {
		ui.New().Warn(err.Error())
	}

	if cfgFile, _ := rootCmd.PersistentFlags().GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName(".linkrank")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
	}

	viper.SetEnvPrefix("LINKRANK")
	viper.AutomaticEnv()

	// A missing config file leaves the defaults in place.
	_ = viper.ReadInConfig()
}

// runRootDefault analyzes the given file, or shows help without one.
func runRootDefault(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return cmd.Help()
	}
	return runAnalyze(cmd, args)
}
