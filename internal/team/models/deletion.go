package models

import id "samved/pkg/domain"

// DeletionResult reports what a team deletion did to member identities.
type DeletionResult struct {
	TeamID   id.TeamID       `json:"team_id"`
	Deleted  []id.IdentityID `json:"deleted_identities"`
	Detached []id.IdentityID `json:"detached_identities"`
}
