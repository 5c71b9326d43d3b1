package engine

import (
	"errors"

	"github.com/lazypower/rapport/internal/export"
)

// Reason codes for data-quality problems. They are reported on the Report and
// never returned as errors.
const (
	ReasonMalformedRecord       = "malformed_record"
	ReasonMissingIdentity       = "missing_identity"
	ReasonAmbiguousEgoDetection = "ambiguous_ego_detection"
	ReasonTargetNotFound        = "target_not_found"
	ReasonEmptyInputSet         = "empty_input_set"
	ReasonNoWarmPath            = "no_warm_path"
)

// Report status values.
const (
	StatusOK       = "ok"
	StatusDegraded = "degraded"
	StatusEmpty    = "empty"
)

// Invalid input shapes. These are the only non-context errors Analyze returns.
var (
	ErrUnknownKind = export.ErrUnknownKind
	ErrNoFiles     = export.ErrNoFiles
	ErrEmptyTarget = errors.New("empty warm path target")
)
