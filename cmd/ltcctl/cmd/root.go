package cmd

import (
	"github.com/nats-io/nats.go"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tinarmengineering/ltc/internal/common/config"
	"github.com/tinarmengineering/ltc/internal/common/logging"
	"github.com/tinarmengineering/ltc/internal/ltcctl"
	"github.com/tinarmengineering/ltc/pkg/client"
	"github.com/tinarmengineering/ltc/pkg/monitor"
)

// RootCmd is the root Cobra command that gets called from the main func.
// All other sub-commands should be registered here.
func RootCmd() *cobra.Command {
	return rootCmdWithApp(ltcctl.New(), viper.New())
}

// Takes a caller-supplied app struct; useful for testing.
func rootCmdWithApp(app *ltcctl.App, v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ltcctl",
		Short: "ltcctl watches simulation jobs and converts quantities to and from their wire format.",
		Long: `ltcctl watches simulation jobs and converts quantities to and from their wire format.

Persistent config can be saved in a config file so it doesn't have to be specified every command.

Example structure:
api:
  url: https://api.example.com
  apiKey: secret
nats:
  servers: [nats://localhost:4222]
logging:
  level: debug

The location of this file can be passed in using the --config argument.
If not provided, $HOME/.ltcctl.yaml is used. Every key can also be set through an
environment variable, e.g. LTC_API_APIKEY.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().String("config", "", "config file (default is $HOME/.ltcctl.yaml)")
	flags := cmd.PersistentFlags()
	flags.StringSlice("nats", []string{nats.DefaultURL}, "NATS servers carrying job progress")
	flags.String("topic", monitor.DefaultTopic, "destination pattern subscribed to per job, {job_id} is replaced by the job id")
	flags.String("queued-status", "QueuedForMeshing", "status a job is moved to once its progress is being watched")
	flags.String("metrics-addr", "", "address to serve Prometheus metrics on while watching, e.g. :9090")
	flags.String("log-level", "info", "log level, e.g. debug")
	flags.String("log-format", logging.FormatCommandLine, "log format, one of text, json or cli")

	bindings := map[string]string{
		"nats.servers":   "nats",
		"topic":          "topic",
		"queuedStatus":   "queued-status",
		"metricsAddr":    "metrics-addr",
		"logging.level":  "log-level",
		"logging.format": "log-format",
	}
	for key, flag := range bindings {
		cobra.CheckErr(v.BindPFlag(key, flags.Lookup(flag)))
	}
	cobra.CheckErr(client.AddApiConnectionCommandlineArgs(cmd, v))
	config.BindEnv(v)

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return initParams(cmd, app, v)
	}

	cmd.AddCommand(
		watchCmd(app),
		watchBatchCmd(app),
		decodeCmd(app),
		encodeCmd(app),
		versionCmd(app),
	)

	return cmd
}

func initParams(cmd *cobra.Command, app *ltcctl.App, v *viper.Viper) error {
	cfgFile, err := cmd.Flags().GetString("config")
	if err != nil {
		return errors.WithStack(err)
	}
	if err := client.LoadCommandlineArgsFromConfigFile(v, cfgFile); err != nil {
		return err
	}
	if err := config.Load(v, app.Params); err != nil {
		return err
	}
	if err := config.Validate(app.Params.Logging); err != nil {
		config.LogValidationErrors(err)
		return errors.WithMessage(err, "invalid logging configuration")
	}
	return logging.Configure(app.Params.Logging, cmd.ErrOrStderr())
}
