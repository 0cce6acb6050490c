package main

import (
	"context"
	"os"

	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/drone/drone-testng-ctrf/plugin"
)

func main() {
	logrus.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})

	if err := newCommand().Execute(); err != nil {
		logrus.Error(err)
		os.Exit(1)
	}
}

func newCommand() *cobra.Command {
	var args plugin.Args
	cmd := &cobra.Command{
		Use:           "drone-testng-ctrf [path]",
		Short:         "Convert a TestNG XML report to CTRF",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, positional []string) error {
			if err := loadArgs(&args, cmd.Flags(), positional); err != nil {
				return err
			}
			if err := setLogLevel(args.Level); err != nil {
				return err
			}
			if err := plugin.ValidateInputs(args); err != nil {
				return err
			}
			return plugin.Exec(context.Background(), args)
		},
	}

	flags := cmd.Flags()
	flags.StringP("output", "o", "", "Output directory and filename for the CTRF report (default \"ctrf/ctrf-report.json\")")
	flags.StringP("tool", "t", "", "Tool name (default \"TestNG\")")
	flags.StringArrayP("env", "e", nil, "Environment property as key=value, may be repeated")
	flags.StringP("log-level", "l", "", "Log level. Can be any level supported by logrus (\"info\", \"debug\", etc...)")
	return cmd
}

// loadArgs reads the plugin configuration from the environment, then applies
// the positional path and any flags set on the command line.
func loadArgs(args *plugin.Args, flags *pflag.FlagSet, positional []string) error {
	if err := envconfig.Process("", args); err != nil {
		return err
	}
	if len(positional) == 1 {
		args.ReportFilenamePattern = positional[0]
		args.PluginFailIfNoResults = true
	}
	if flags.Changed("output") {
		args.OutputPath, _ = flags.GetString("output")
	}
	if flags.Changed("tool") {
		args.ToolName, _ = flags.GetString("tool")
	}
	if flags.Changed("env") {
		env, _ := flags.GetStringArray("env")
		args.Environment = plugin.EnvironmentList(env)
	}
	if flags.Changed("log-level") {
		args.Level, _ = flags.GetString("log-level")
	}
	return nil
}

func setLogLevel(level string) error {
	if level == "" {
		return nil
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	logrus.SetLevel(lvl)
	return nil
}
