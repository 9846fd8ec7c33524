package models

import (
	"github.com/cockroachdb/errors"
)

// Base errors, from which domain errors are derived
var (
	BadParameterError = errors.New("bad parameter")

	NotFoundError = errors.New("not found")

	ConflictError = errors.New("duplicate value")
)

// Campaign definition related errors. They are all fatal to loading the
// campaign: a campaign with an invalid definition is rejected, never
// partially loaded.
var (
	ErrCampaignDefinitionInvalid = errors.Wrap(BadParameterError, "invalid campaign definition")
	ErrConditionTreeInvalid      = errors.Wrap(ErrCampaignDefinitionInvalid, "invalid condition tree")
	ErrEffectParametersInvalid   = errors.Wrap(ErrCampaignDefinitionInvalid, "invalid effect parameters")
	ErrBudgetsInvalid            = errors.Wrap(ErrCampaignDefinitionInvalid, "invalid budget configuration")
)

// Evaluation related errors
var (
	ErrCampaignNotPublished      = errors.Wrap(BadParameterError, "campaign is not published")
	ErrPanicInCampaignEvaluation = errors.New("panic during campaign evaluation")
)

// Budget ledger related errors
var (
	// ErrBudgetContention is returned when a reservation keeps losing the
	// compare-and-swap race after the bounded number of retries.
	ErrBudgetContention = errors.New("budget reservation contention")

	ErrLedgerVersionConflict = errors.Wrap(ConflictError, "ledger entry version conflict")
)

// Formula and effect execution errors
var (
	ErrNegativePointAward = errors.New("formula produced a negative point award")
)
