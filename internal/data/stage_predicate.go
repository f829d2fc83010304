package data

import "github.com/MrCreosote/user-and-job-state/internal/domain/model"

// Stage fragments. "running" means the complete flag is false, which also
// excludes jobs that were never started.
const (
	predRunning      = "complete = false"
	predCanceled     = "canceled_by IS NOT NULL"
	predError        = "error = true"
	predNotCanceled  = "canceled_by IS NULL"
	predNotError     = "error = false"
	predCompleteFlag = "complete = true"
)

// stagePredicates holds the SQL for every partial stage selection. Complete,
// error and cancel are independent columns, so the unions cannot be built
// mechanically from the single-stage fragments; each entry is written out.
// Neither MaskNone nor MaskAll appears: both mean no stage filter.
var stagePredicates = map[model.StageMask]string{
	model.MaskRunning:  predRunning,
	model.MaskComplete: predCompleteFlag + " AND " + predNotError + " AND " + predNotCanceled,
	model.MaskCanceled: predCanceled,
	model.MaskError:    predError,

	model.MaskRunning | model.MaskComplete: predNotError + " AND " + predNotCanceled,
	model.MaskRunning | model.MaskCanceled: "(" + predRunning + " OR " + predCanceled + ")",
	model.MaskRunning | model.MaskError:    "(" + predRunning + " OR " + predError + ")",

	model.MaskRunning | model.MaskComplete | model.MaskCanceled: predNotError,
	model.MaskRunning | model.MaskComplete | model.MaskError:    predNotCanceled,
	model.MaskRunning | model.MaskCanceled | model.MaskError: "(" + predRunning + " OR " + predError +
		" OR " + predCanceled + ")",

	model.MaskComplete | model.MaskCanceled: predCompleteFlag + " AND " + predNotError,
	model.MaskComplete | model.MaskError:    predCompleteFlag + " AND " + predNotCanceled,

	model.MaskComplete | model.MaskCanceled | model.MaskError: predCompleteFlag,

	model.MaskCanceled | model.MaskError: "(" + predError + " OR " + predCanceled + ")",
}

// StagePredicate returns the SQL fragment selecting the requested stages and
// false when the selection imposes no filter.
func StagePredicate(f model.StageFilter) (string, bool) {
	pred, ok := stagePredicates[f.Mask()]
	return pred, ok
}
