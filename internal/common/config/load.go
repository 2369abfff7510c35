// Package config loads layered YAML and environment configuration through viper.
package config

import (
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

const EnvPrefix = "LTC"

// BindEnv makes every key v knows about overridable by an LTC_ environment variable, with
// nested keys joined by underscores, e.g. LTC_NATS_SERVERS.
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Load merges the files at paths into v, later files overriding earlier ones, then decodes the
// result into config. Missing files are an error since they were asked for explicitly.
func Load(v *viper.Viper, config interface{}, paths ...string) error {
	for _, path := range paths {
		v.SetConfigFile(path)
		if err := v.MergeInConfig(); err != nil {
			return errors.WithMessagef(err, "failed to read config %s", path)
		}
		log.Debugf("Read config from %s", path)
	}
	if err := v.Unmarshal(config, CustomHooks...); err != nil {
		return errors.WithMessage(err, "failed to decode config")
	}
	return nil
}
