package platform

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// JobStatus is the overall status of a job.
type JobStatus string

const (
	JobPending   JobStatus = "PENDING"
	JobRunning   JobStatus = "RUNNING"
	JobCompleted JobStatus = "COMPLETED"
	JobFailed    JobStatus = "FAILED"
	JobCanceled  JobStatus = "CANCELED"
	JobUnknown   JobStatus = "UNKNOWN"
)

// StageStatus is the status of a single job stage.
type StageStatus string

const (
	StagePending   StageStatus = "PENDING"
	StageRunning   StageStatus = "RUNNING"
	StageDone      StageStatus = "DONE"
	StageCancelled StageStatus = "CANCELLED"
	StageError     StageStatus = "ERROR"
	StageUnknown   StageStatus = "UNKNOWN"
)

// UnmarshalJSON maps statuses this client doesn't know about to JobUnknown.
func (s *JobStatus) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	switch status := JobStatus(raw); status {
	case JobPending, JobRunning, JobCompleted, JobFailed, JobCanceled:
		*s = status
	default:
		*s = JobUnknown
	}

	return nil
}

// Active reports whether the job has not reached a terminal status.
func (s JobStatus) Active() bool {
	return s == JobPending || s == JobRunning
}

// UnmarshalJSON maps statuses this client doesn't know about to StageUnknown.
func (s *StageStatus) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	switch status := StageStatus(raw); status {
	case StagePending, StageRunning, StageDone, StageCancelled, StageError:
		*s = status
	default:
		*s = StageUnknown
	}

	return nil
}

// Timestamp is a point in time sent by the API as milliseconds since the epoch.
type Timestamp struct {
	time.Time
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}

	var ms json.Number
	if err := json.Unmarshal(data, &ms); err != nil {
		return err
	}

	v, err := strconv.ParseInt(ms.String(), 10, 64)
	if err != nil {
		return err
	}

	t.Time = time.UnixMilli(v).UTC()
	return nil
}

type (
	// Recipe is a custom recipe registered in a use case.
	Recipe struct {
		ID          string          `json:"id"`
		Key         *string         `json:"key"`
		Name        string          `json:"name"`
		Description *string         `json:"description"`
		CreatedAt   Timestamp       `json:"createdAt"`
		JSONSchema  json.RawMessage `json:"jsonSchema"`
	}

	// Job is a recipe run.
	Job struct {
		ID        uuid.UUID `json:"id"`
		Name      string    `json:"name"`
		Status    JobStatus `json:"status"`
		Error     *string   `json:"error"`
		CreatedAt Timestamp `json:"createdAt"`
		Recipe    *struct {
			Name string `json:"name"`
		} `json:"recipe"`
		Stages []Stage `json:"stages"`
	}

	// Stage is one step of a job.
	Stage struct {
		Name   string      `json:"name"`
		Status StageStatus `json:"status"`
		Info   *StageInfo  `json:"info"`
	}

	// StageInfo carries sample progress for training, evaluation and batch
	// inference stages.
	StageInfo struct {
		Kind                string `json:"__typename"`
		ProcessedNumSamples *int64 `json:"processedNumSamples"`
		TotalNumSamples     *int64 `json:"totalNumSamples"`
	}

	// ModelService is a model deployed in a use case.
	ModelService struct {
		ID        string `json:"id"`
		Key       string `json:"key"`
		Name      string `json:"name"`
		IsDefault bool   `json:"isDefault"`
		Status    string `json:"status"`
	}

	// Model is an entry in the model registry.
	Model struct {
		ID         string `json:"id"`
		Key        string `json:"key"`
		Name       string `json:"name"`
		Online     string `json:"online"`
		IsExternal bool   `json:"isExternal"`
	}

	// Dataset is a dataset created from an upload.
	Dataset struct {
		ID  string  `json:"id"`
		Key *string `json:"key"`
	}

	// RunRequest starts a custom recipe.
	RunRequest struct {
		UseCase     string
		Recipe      string
		Parameters  map[string]any
		Name        string
		ComputePool string
		GPUs        uint32
	}
)

// Progress returns the processed and total sample counts when both are known.
func (s Stage) Progress() (int64, int64, bool) {
	if s.Info == nil || s.Info.ProcessedNumSamples == nil || s.Info.TotalNumSamples == nil {
		return 0, 0, false
	}

	return *s.Info.ProcessedNumSamples, *s.Info.TotalNumSamples, true
}
