package api

import (
	"github.com/tinarmengineering/ltc/pkg/quantity"
)

// Job is the job record exchanged with the compute service.
type Job struct {
	Id         string                   `json:"id,omitempty"`
	Status     JobStatus                `json:"status"`
	Title      string                   `json:"title"`
	Type       string                   `json:"type"`
	Tasks      int                      `json:"tasks"`
	Data       []quantity.NamedQuantity `json:"data"`
	Materials  []JobMaterial            `json:"materials"`
	StringData []StringData             `json:"string_data"`
	Artifacts  []Artifact               `json:"artifacts,omitempty"`
}

// JobMaterial assigns a stored material to one part of the machine.
type JobMaterial struct {
	Part       string `json:"part"`
	MaterialId string `json:"material_id"`
}

type StringData struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type Artifact struct {
	Id            string `json:"id,omitempty"`
	Type          string `json:"type"`
	Url           string `json:"url"`
	CreatedOnNode string `json:"created_on_node,omitempty"`
}

type Material struct {
	Id        string                   `json:"id,omitempty"`
	Name      string                   `json:"name"`
	Reference string                   `json:"reference"`
	KeyWords  []string                 `json:"key_words"`
	Data      []quantity.NamedQuantity `json:"data"`
}

// Log is a log entry attached to a job on the service.
type Log struct {
	Level           string `json:"level"`
	Service         string `json:"service"`
	Node            string `json:"node"`
	Code            string `json:"code"`
	Message         string `json:"message"`
	AssociatedJobId string `json:"associated_job_id"`
}

// StatusUpdate is the service's reply to a status change.
type StatusUpdate struct {
	Id                 string    `json:"id,omitempty"`
	Status             JobStatus `json:"status"`
	PercentageComplete *int      `json:"percentage_complete,omitempty"`
}
