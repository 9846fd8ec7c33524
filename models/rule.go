package models

import (
	"github.com/google/uuid"

	"github.com/incentiva/campaign-engine/models/conditions"
)

///////////////////////////////
// Rule
///////////////////////////////

type Rule struct {
	Id         uuid.UUID
	CampaignId uuid.UUID
	Name       string

	// Priority defines evaluation order, ascending. Lower number wins
	// HighestPayout ties.
	Priority int
	Enabled  bool

	Root conditions.Group

	// Effects runs when the rule matches, ElseEffects when it does not.
	// An empty ElseEffects list means "do nothing".
	Effects     []Effect
	ElseEffects []Effect
}
