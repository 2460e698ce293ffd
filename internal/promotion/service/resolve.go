package service

import (
	"context"
	"errors"

	identitymodels "samved/internal/identity/models"
	"samved/internal/promotion/models"
	id "samved/pkg/domain"
	dErrors "samved/pkg/domain-errors"
	"samved/pkg/platform/audit"
	"samved/pkg/platform/sentinel"
	"samved/pkg/requestcontext"
	"samved/pkg/secrets"
)

const generatedPasswordLength = 12

// participant is everything find-or-create needs to build an identity.
// An empty PasswordHash means a password is generated.
type participant struct {
	Email         string
	Name          string
	Phone         string
	Role          id.Role
	PasswordHash  string
	InstituteCode id.InstituteCode
	InstituteName string
	District      string
	State         string
}

// resolve finds an identity by email or creates one. Reused identities are
// returned as stored except for a location backfill on spoc and mentor.
// For participants the team back reference is classified as live or dangling.
func (s *Service) resolve(ctx context.Context, p participant) (models.Resolution, error) {
	existing, err := s.identities.FindByEmail(ctx, p.Email)
	switch {
	case err == nil:
		return s.reuse(ctx, p, existing)
	case !errors.Is(err, sentinel.ErrNotFound):
		return models.Resolution{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up "+p.Email)
	}

	password := ""
	hash := p.PasswordHash
	if hash == "" {
		password, err = secrets.GeneratePassword(generatedPasswordLength)
		if err != nil {
			return models.Resolution{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate password")
		}
		hash, err = secrets.Hash(password)
		if err != nil {
			return models.Resolution{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
		}
	}

	ident, err := identitymodels.NewIdentity(id.NewIdentityID(), p.Email, p.Role, p.Name, hash, requestcontext.Now(ctx))
	if err != nil {
		return models.Resolution{}, dErrors.Wrap(err, dErrors.CodeValidation, "cannot create account for "+p.Email)
	}
	ident.Phone = p.Phone
	ident.InstituteCode = p.InstituteCode
	ident.InstituteName = p.InstituteName
	ident.District = p.District
	ident.State = p.State

	if err := s.identities.Create(ctx, ident); err != nil {
		switch {
		case errors.Is(err, sentinel.ErrAlreadyUsed):
			// Lost a race with another writer for this email.
			existing, findErr := s.identities.FindByEmail(ctx, p.Email)
			if findErr != nil {
				return models.Resolution{}, dErrors.Wrap(findErr, dErrors.CodeInternal, "failed to look up "+p.Email)
			}
			return s.reuse(ctx, p, existing)
		case errors.Is(err, sentinel.ErrConflict):
			return models.Resolution{}, dErrors.New(dErrors.CodePromotionConflict,
				"institute "+p.InstituteCode.String()+" already has a "+p.Role.String())
		}
		return models.Resolution{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create account for "+p.Email)
	}

	s.logAudit(ctx, string(audit.EventIdentityCreated),
		"identity_id", ident.ID.String(),
		"email", ident.Email,
		"role", ident.Role.String(),
	)
	if s.metrics != nil {
		s.metrics.IncrementIdentity(p.Role.String(), string(models.OutcomeCreated))
	}
	return models.Resolution{Identity: ident, Outcome: models.OutcomeCreated, GeneratedPassword: password}, nil
}

func (s *Service) reuse(ctx context.Context, p participant, ident *identitymodels.Identity) (models.Resolution, error) {
	res := models.Resolution{Identity: ident, Outcome: models.OutcomeReused}

	if p.Role.IsSingleOccupancy() && ident.BackfillLocation(p.District, p.State, requestcontext.Now(ctx)) {
		if err := s.identities.Update(ctx, ident); err != nil {
			s.warn(ctx, "location backfill failed", "identity_id", ident.ID.String(), "error", err)
		}
	}

	if p.Role.IsParticipant() && ident.HasTeam() {
		team, err := s.teams.FindByID(ctx, *ident.TeamID)
		switch {
		case err == nil:
			res.ActiveTeamName = team.Name
		case errors.Is(err, sentinel.ErrNotFound):
			dangling := *ident.TeamID
			res.DanglingTeamID = &dangling
			s.logAudit(ctx, string(audit.EventDanglingTeamRef),
				"identity_id", ident.ID.String(),
				"team_id", dangling.String(),
				"email", ident.Email,
			)
		default:
			return models.Resolution{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load team for "+ident.Email)
		}
	}

	s.logAudit(ctx, string(audit.EventIdentityReused),
		"identity_id", ident.ID.String(),
		"email", ident.Email,
		"role", p.Role.String(),
	)
	if s.metrics != nil {
		s.metrics.IncrementIdentity(p.Role.String(), string(models.OutcomeReused))
	}
	return res, nil
}
