package domain

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/tinarmengineering/ltc/pkg/api"
	"github.com/tinarmengineering/ltc/pkg/quantity"
	"github.com/tinarmengineering/ltc/pkg/units"
)

const (
	JobType  = "electromagnetic_spmbrl_fscwseg"
	JobTasks = 11

	SectionOperatingPoint = "operating_point"
	SectionSimulation     = "simulation"

	StringDataMeshReuseSeries = "mesh_reuse_series"
	StringDataNetlist         = "netlist"
)

// Job is a simulation of a machine at an operating point.
type Job struct {
	Id              string
	Title           string
	Type            string
	Status          api.JobStatus
	Machine         *Machine
	OperatingPoint  map[string]*quantity.Quantity
	Simulation      map[string]*quantity.Quantity
	MeshReuseSeries string
	// Netlist is sent JSON encoded; nil means no netlist.
	Netlist interface{}
}

type JobOption func(*Job)

func WithTitle(title string) JobOption {
	return func(j *Job) {
		j.Title = title
	}
}

// WithMeshReuseSeries lets jobs sharing a series reuse one another's mesh.
func WithMeshReuseSeries(series string) JobOption {
	return func(j *Job) {
		j.MeshReuseSeries = series
	}
}

func WithNetlist(netlist interface{}) JobOption {
	return func(j *Job) {
		j.Netlist = netlist
	}
}

// NewJob creates a job with a random title and a fresh mesh reuse series unless options set them.
func NewJob(machine *Machine, operatingPoint, simulation map[string]*quantity.Quantity, opts ...JobOption) *Job {
	j := &Job{
		Type:           JobType,
		Status:         api.New,
		Machine:        machine,
		OperatingPoint: operatingPoint,
		Simulation:     simulation,
	}
	for _, opt := range opts {
		opt(j)
	}
	if j.Title == "" {
		j.Title = GenerateTitle()
	}
	if j.MeshReuseSeries == "" {
		j.MeshReuseSeries = uuid.NewString()
	}
	return j
}

func (j *Job) String() string {
	return fmt.Sprintf("Job(%s, %v, %v)", j.Machine, j.OperatingPoint, j.Simulation)
}

// ToAPI builds the record submitted to the service. New jobs always start with status New.
func (j *Job) ToAPI(reg *units.Registry) (*api.Job, error) {
	var data []quantity.NamedQuantity
	for _, section := range []struct {
		name   string
		values map[string]*quantity.Quantity
	}{
		{SectionOperatingPoint, j.OperatingPoint},
		{SectionSimulation, j.Simulation},
	} {
		records, err := quantity.EncodeSection(reg, section.name, section.values)
		if err != nil {
			return nil, errors.WithMessagef(err, "encoding job %s", j.Title)
		}
		data = append(data, records...)
	}

	var materials []api.JobMaterial
	if j.Machine != nil {
		machineData, err := j.Machine.ToAPI(reg)
		if err != nil {
			return nil, errors.WithMessagef(err, "encoding machine of job %s", j.Title)
		}
		data = append(data, machineData...)
		materials = j.Machine.MaterialsToAPI()
	}

	stringData, err := j.stringData()
	if err != nil {
		return nil, err
	}
	return &api.Job{
		Id:         j.Id,
		Status:     api.New,
		Title:      j.Title,
		Type:       j.Type,
		Tasks:      JobTasks,
		Data:       data,
		Materials:  materials,
		StringData: stringData,
	}, nil
}

func (j *Job) stringData() ([]api.StringData, error) {
	out := []api.StringData{{Name: StringDataMeshReuseSeries, Value: j.MeshReuseSeries}}
	if j.Netlist != nil {
		netlist, err := json.Marshal(j.Netlist)
		if err != nil {
			return nil, errors.WithMessagef(err, "encoding netlist of job %s", j.Title)
		}
		out = append(out, api.StringData{Name: StringDataNetlist, Value: string(netlist)})
	}
	return out, nil
}

// JobFromAPI rebuilds a job from a service record. Quantities come back in base units.
func JobFromAPI(reg *units.Registry, rec *api.Job) (*Job, error) {
	var result *multierror.Error

	machine, err := MachineFromAPI(reg, rec.Data, rec.Materials)
	if err != nil {
		result = multierror.Append(result, err)
	}
	operatingPoint, err := quantity.DecodeSection(reg, SectionOperatingPoint, rec.Data)
	if err != nil {
		result = multierror.Append(result, err)
	}
	simulation, err := quantity.DecodeSection(reg, SectionSimulation, rec.Data)
	if err != nil {
		result = multierror.Append(result, err)
	}

	j := &Job{
		Id:             rec.Id,
		Title:          rec.Title,
		Type:           rec.Type,
		Status:         rec.Status,
		Machine:        machine,
		OperatingPoint: operatingPoint,
		Simulation:     simulation,
	}
	for _, entry := range rec.StringData {
		switch entry.Name {
		case StringDataMeshReuseSeries:
			j.MeshReuseSeries = entry.Value
		case StringDataNetlist:
			if err := json.Unmarshal([]byte(entry.Value), &j.Netlist); err != nil {
				result = multierror.Append(result, errors.Wrapf(err, "decoding netlist of job %s", rec.Id))
			}
		}
	}

	if err := result.ErrorOrNil(); err != nil {
		return nil, err
	}
	return j, nil
}

var (
	titleMutex  sync.Mutex
	titleSource = rand.New(rand.NewSource(time.Now().UnixNano()))

	titleAdjectives = []string{
		"amber", "brisk", "calm", "dapper", "eager", "fancy", "gentle", "hasty", "icy", "jolly",
		"keen", "lively", "mellow", "nimble", "odd", "plucky", "quiet", "rapid", "sturdy", "tidy",
		"upbeat", "vivid", "witty", "young", "zesty",
	}
	titleNouns = []string{
		"anchor", "badger", "comet", "dynamo", "ember", "falcon", "glacier", "harbor", "island", "jigsaw",
		"kettle", "lantern", "magnet", "nebula", "orbit", "pylon", "quartz", "rotor", "stator", "turbine",
		"umbra", "vortex", "winding", "yarrow", "zephyr",
	}
)

// GenerateTitle returns a random adjective-noun title.
func GenerateTitle() string {
	titleMutex.Lock()
	defer titleMutex.Unlock()
	adjective := titleAdjectives[titleSource.Intn(len(titleAdjectives))]
	noun := titleNouns[titleSource.Intn(len(titleNouns))]
	return adjective + "-" + noun
}
