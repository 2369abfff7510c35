package config

import (
	"reflect"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"github.com/tinarmengineering/ltc/pkg/api"
)

// CustomHooks replace viper's default decode hooks, so the defaults are composed back in.
var CustomHooks = []viper.DecoderConfigOption{
	viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
		JobStatusHookFunc(),
	)),
}

// JobStatusHookFunc lets a job status be configured by name, e.g. "QueuedForMeshing".
func JobStatusHookFunc() mapstructure.DecodeHookFuncType {
	return func(
		f reflect.Type,
		t reflect.Type,
		data interface{},
	) (interface{}, error) {
		if f.Kind() != reflect.String || t != reflect.TypeOf(api.JobStatus(0)) {
			return data, nil
		}
		return api.ParseJobStatus(data.(string))
	}
}
