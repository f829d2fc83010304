// Package model defines the job record, its value objects and the request
// types accepted by the job store.
package model

import (
	"slices"
	"time"
)

// Field length limits enforced on every transport.
const (
	MaxLenUser        = 100
	MaxLenService     = 100
	MaxLenStatus      = 200
	MaxLenDescription = 1000
	MaxLenError       = 100000
)

// Authorization strategy name and parameter assigned to jobs that do not
// request a custom strategy.
const (
	DefaultAuthStrategy = "DEFAULT"
	DefaultAuthParam    = "DEFAULT"
)

// ProgressType determines which progress fields a started job carries.
type ProgressType string

const (
	// ProgressNone tracks no progress.
	ProgressNone ProgressType = "none"
	// ProgressTask tracks progress against a caller supplied maximum.
	ProgressTask ProgressType = "task"
	// ProgressPercent tracks progress against a fixed maximum of 100.
	ProgressPercent ProgressType = "percent"
)

// Valid returns true if the ProgressType is known.
func (p ProgressType) Valid() bool {
	return p == ProgressNone || p == ProgressTask || p == ProgressPercent
}

// Stage is the lifecycle stage derived from a job's stored fields.
type Stage string

const (
	StageCreated  Stage = "created"
	StageStarted  Stage = "started"
	StageComplete Stage = "complete"
	StageError    Stage = "error"
	StageCanceled Stage = "canceled"
)

// MetaPair is one immutable metadata entry attached at creation.
type MetaPair struct {
	Key   string `json:"k"`
	Value string `json:"v"`
}

// JobResult points at one result produced by a job.
type JobResult struct {
	ServType string `json:"servtype,omitempty"`
	URL      string `json:"url,omitempty"`
	ID       string `json:"id,omitempty"`
	Desc     string `json:"desc,omitempty"`
}

// JobResults is attached to a job exactly once, at completion.
type JobResults struct {
	Results      []JobResult `json:"results,omitempty"`
	ShockURL     string      `json:"shockurl,omitempty"`
	ShockNodes   []string    `json:"shocknodes,omitempty"`
	WorkspaceURL string      `json:"workspaceurl,omitempty"`
	WorkspaceIDs []string    `json:"workspaceids,omitempty"`
}

// Validate checks that every string member can be stored. A nil value is valid.
func (r *JobResults) Validate() error {
	if r == nil {
		return nil
	}
	strs := []string{r.ShockURL, r.WorkspaceURL}
	strs = append(strs, r.ShockNodes...)
	strs = append(strs, r.WorkspaceIDs...)
	for _, res := range r.Results {
		strs = append(strs, res.ServType, res.URL, res.ID, res.Desc)
	}
	for _, v := range strs {
		if err := CheckMaxLen(v, "results", 0); err != nil {
			return err
		}
	}
	return nil
}

// Clone returns a deep copy of the results.
func (r *JobResults) Clone() *JobResults {
	if r == nil {
		return nil
	}
	return &JobResults{
		Results:      slices.Clone(r.Results),
		ShockURL:     r.ShockURL,
		ShockNodes:   slices.Clone(r.ShockNodes),
		WorkspaceURL: r.WorkspaceURL,
		WorkspaceIDs: slices.Clone(r.WorkspaceIDs),
	}
}

// Job is a tracked unit of external work.
//
// Service is nil until the job is started. Complete and Error are false for
// jobs that have not been started; Stage is the authoritative classification.
type Job struct {
	ID           string       `json:"id"                     db:"id"`
	Owner        string       `json:"owner"                  db:"owner"`
	AuthStrategy string       `json:"authstrat"              db:"auth_strategy"`
	AuthParam    string       `json:"authparam"              db:"auth_param"`
	Metadata     []MetaPair   `json:"meta"                   db:"metadata"`
	Service      *string      `json:"service,omitempty"      db:"service"`
	Status       *string      `json:"status,omitempty"       db:"status"`
	Description  *string      `json:"desc,omitempty"         db:"description"`
	ProgressType ProgressType `json:"progtype,omitempty"     db:"progress_type"`
	Progress     *int         `json:"prog,omitempty"         db:"progress"`
	MaxProgress  *int         `json:"maxprog,omitempty"      db:"max_progress"`
	Created      time.Time    `json:"created"                db:"created"`
	Updated      time.Time    `json:"updated"                db:"updated"`
	Started      *time.Time   `json:"started,omitempty"      db:"started"`
	EstComplete  *time.Time   `json:"estcompl,omitempty"     db:"est_complete"`
	Complete     bool         `json:"complete"               db:"complete"`
	Error        bool         `json:"error"                  db:"error"`
	ErrorMsg     *string      `json:"errormsg,omitempty"     db:"error_msg"`
	Results      *JobResults  `json:"results,omitempty"      db:"results"`
	CanceledBy   *string      `json:"canceledby,omitempty"   db:"canceled_by"`
	Shared       []string     `json:"shared"                 db:"shared"`
}

// Stage derives the lifecycle stage from the stored flags.
func (j *Job) Stage() Stage {
	switch {
	case j.CanceledBy != nil:
		return StageCanceled
	case j.Service == nil:
		return StageCreated
	case j.Error:
		return StageError
	case j.Complete:
		return StageComplete
	default:
		return StageStarted
	}
}

// IsDefaultAuth reports whether the job uses the default authorization strategy.
func (j *Job) IsDefaultAuth() bool {
	return j.AuthStrategy == DefaultAuthStrategy
}

// IsSharedWith reports whether user is in the job's shared set.
func (j *Job) IsSharedWith(user string) bool {
	return slices.Contains(j.Shared, user)
}

// StageFilter selects which derived stages a listing includes. No bits and
// all bits both select every stage.
type StageFilter struct {
	Running  bool `json:"running"`
	Complete bool `json:"complete"`
	Canceled bool `json:"canceled"`
	Error    bool `json:"error"`
}

// StageMask packs a StageFilter into four bits.
type StageMask uint8

const (
	MaskRunning StageMask = 1 << iota
	MaskComplete
	MaskCanceled
	MaskError

	MaskNone StageMask = 0
	MaskAll  StageMask = MaskRunning | MaskComplete | MaskCanceled | MaskError
)

// Mask returns the bit form of the filter.
func (f StageFilter) Mask() StageMask {
	var m StageMask
	if f.Running {
		m |= MaskRunning
	}
	if f.Complete {
		m |= MaskComplete
	}
	if f.Canceled {
		m |= MaskCanceled
	}
	if f.Error {
		m |= MaskError
	}
	return m
}

// ParseStageFilter builds a filter from letters R (running), C (complete),
// X (canceled) and E (error). Unknown letters are ignored.
func ParseStageFilter(s string) StageFilter {
	var f StageFilter
	for _, c := range s {
		switch c {
		case 'R', 'r':
			f.Running = true
		case 'C', 'c':
			f.Complete = true
		case 'X', 'x':
			f.Canceled = true
		case 'E', 'e':
			f.Error = true
		}
	}
	return f
}
