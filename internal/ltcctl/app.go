package ltcctl

import (
	"io"
	"os"
	"sync"

	"github.com/nats-io/nats.go"
	"github.com/pkg/errors"

	"github.com/tinarmengineering/ltc/internal/common/config"
	"github.com/tinarmengineering/ltc/internal/common/logging"
	"github.com/tinarmengineering/ltc/internal/common/pubsub"
	"github.com/tinarmengineering/ltc/pkg/api"
	"github.com/tinarmengineering/ltc/pkg/client"
	"github.com/tinarmengineering/ltc/pkg/monitor"
	"github.com/tinarmengineering/ltc/pkg/units"
)

type App struct {
	// Parameters passed to the CLI by the user.
	Params *Params
	// Out is used to write the output. Defaults to standard out,
	// but can be overridden in tests to make assertions on the application's output.
	Out io.Writer
	// In supplies records to decode when no file is named. Defaults to standard in.
	In io.Reader
	// Registry resolves unit names for encode and decode.
	Registry *units.Registry
	// MonitorAPI builds the broker connection and job service client used by the watch commands.
	MonitorAPI *MonitorAPI

	outMutex sync.Mutex
}

// Params struct holds all user-customizable parameters.
// Using a single struct for all CLI commands ensures that all flags are distinct
// and that they can be provided either dynamically on a command line, or
// statically in a config file that's reused between command runs.
type Params struct {
	Api  client.ApiConnectionDetails
	Nats pubsub.NatsConfig
	// Destination pattern subscribed to per job; {job_id} is replaced by the job id.
	Topic string
	// Status a job is moved to once its progress subscription is in place.
	QueuedStatus api.JobStatus
	// Address to serve Prometheus metrics on while watching; empty disables it.
	MetricsAddr string
	Logging     logging.Config
}

// MonitorAPI holds the constructors for a monitor's collaborators. Tests swap them for in-memory fakes.
type MonitorAPI struct {
	Connect func(config pubsub.NatsConfig) (monitor.Connection, func(), error)
	Jobs    func(details *client.ApiConnectionDetails) (monitor.JobAPI, error)
}

func DefaultParams() *Params {
	return &Params{
		Nats: pubsub.NatsConfig{
			Servers:    []string{nats.DefaultURL},
			ClientName: "ltcctl",
		},
		Topic:        monitor.DefaultTopic,
		QueuedStatus: api.QueuedForMeshing,
		Logging:      logging.DefaultConfig(),
	}
}

// New instantiates an App with default parameters, reading standard in and writing to standard out.
func New() *App {
	return &App{
		Params:   DefaultParams(),
		Out:      os.Stdout,
		In:       os.Stdin,
		Registry: units.NewRegistry(),
		MonitorAPI: &MonitorAPI{
			Connect: connectNats,
			Jobs:    newJobApi,
		},
	}
}

func connectNats(natsConfig pubsub.NatsConfig) (monitor.Connection, func(), error) {
	if err := config.Validate(natsConfig); err != nil {
		config.LogValidationErrors(err)
		return nil, nil, errors.WithMessage(err, "invalid nats configuration")
	}
	conn, err := pubsub.ConnectNats(natsConfig)
	if err != nil {
		return nil, nil, err
	}
	return conn, conn.Close, nil
}

func newJobApi(details *client.ApiConnectionDetails) (monitor.JobAPI, error) {
	if err := config.Validate(details); err != nil {
		config.LogValidationErrors(err)
		return nil, errors.WithMessage(err, "invalid api connection details")
	}
	return client.NewApi(details), nil
}
