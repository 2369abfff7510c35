package client

import (
	"os"

	"github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// DefaultConfigName is looked for in the user's home directory when no config file is given.
const DefaultConfigName = ".ltcctl"

// AddApiConnectionCommandlineArgs adds the flags locating the compute service and binds them
// to the api.* keys of v.
func AddApiConnectionCommandlineArgs(rootCmd *cobra.Command, v *viper.Viper) error {
	flags := rootCmd.PersistentFlags()
	flags.String("url", "", "compute service url, e.g. https://api.example.com")
	flags.String("api-key", "", "key sent with every request to the compute service")
	flags.String("org-id", "", "organisation the jobs belong to")
	flags.String("node-id", "", "name this node reports to the compute service")
	flags.Duration("timeout", DefaultTimeout, "timeout of each request to the compute service")
	flags.Float64("rate-limit", DefaultRateLimit, "maximum requests per second to the compute service, 0 for unlimited")

	for key, flag := range map[string]string{
		"api.url":       "url",
		"api.apiKey":    "api-key",
		"api.orgId":     "org-id",
		"api.nodeId":    "node-id",
		"api.timeout":   "timeout",
		"api.rateLimit": "rate-limit",
	} {
		if err := v.BindPFlag(key, flags.Lookup(flag)); err != nil {
			return errors.WithStack(err)
		}
	}
	return nil
}

// LoadCommandlineArgsFromConfigFile merges cfgFile into v. With no cfgFile, $HOME/.ltcctl.yaml is
// read if present.
func LoadCommandlineArgsFromConfigFile(v *viper.Viper, cfgFile string) error {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			return errors.Wrap(err, "error getting user home directory")
		}
		v.AddConfigPath(home)
		v.SetConfigName(DefaultConfigName)
	}

	err := v.MergeInConfig()
	if err != nil {
		var notFound viper.ConfigFileNotFoundError
		switch {
		case errors.As(err, &notFound) && cfgFile == "":
			// The default config file is optional
		case errors.Is(err, os.ErrNotExist) && cfgFile == "":
		default:
			return errors.WithMessagef(err, "error reading config file %s", v.ConfigFileUsed())
		}
	}
	return nil
}
