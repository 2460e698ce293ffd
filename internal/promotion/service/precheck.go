package service

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	regmodels "samved/internal/registration/models"
	id "samved/pkg/domain"
	dErrors "samved/pkg/domain-errors"
	"samved/pkg/platform/sentinel"
)

// precheck runs the read-only checks for every participant before anything
// is written. Lookups fan out; the first refusal in participant order wins
// so the reported reason does not depend on scheduling.
func (s *Service) precheck(ctx context.Context, reg *regmodels.StagedRegistration) error {
	ctx, span := tracer.Start(ctx, "promotion.Precheck")
	defer span.End()

	exists, err := s.teams.ExistsByName(ctx, reg.TeamName)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check team name")
	}
	if exists {
		return dErrors.New(dErrors.CodeConflict, "team name already exists")
	}

	type check func(ctx context.Context) error
	checks := []check{
		func(ctx context.Context) error {
			return s.checkParticipant(ctx, "leader", reg.LeaderEmail)
		},
	}
	for _, m := range reg.Members {
		addr := m.Email
		checks = append(checks, func(ctx context.Context) error {
			return s.checkParticipant(ctx, "member", addr)
		})
	}
	checks = append(checks,
		func(ctx context.Context) error {
			return s.checkOccupancy(ctx, id.RoleSPOC, reg.SPOCEmail, reg.InstituteCode)
		},
		func(ctx context.Context) error {
			return s.checkOccupancy(ctx, id.RoleMentor, reg.MentorEmail, reg.InstituteCode)
		},
	)

	refusals := make([]error, len(checks))
	g, gctx := errgroup.WithContext(ctx)
	for i, c := range checks {
		g.Go(func() error {
			err := c(gctx)
			if dErrors.HasCode(err, dErrors.CodePromotionConflict) {
				refusals[i] = err
				return nil
			}
			return err
		})
	}
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check participants")
	}
	for _, refusal := range refusals {
		if refusal != nil {
			return refusal
		}
	}
	return nil
}

// checkParticipant refuses a leader or member who already belongs to a live
// team. Dangling references pass.
func (s *Service) checkParticipant(ctx context.Context, label, addr string) error {
	ident, err := s.identities.FindByEmail(ctx, addr)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil
		}
		return err
	}
	if !ident.HasTeam() {
		return nil
	}
	team, err := s.teams.FindByID(ctx, *ident.TeamID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil
		}
		return err
	}
	return dErrors.New(dErrors.CodePromotionConflict,
		fmt.Sprintf("%s %s is already on team %q", label, addr, team.Name))
}

// checkOccupancy refuses a new spoc or mentor when the institute already has
// one under a different email. A known email is reused instead.
func (s *Service) checkOccupancy(ctx context.Context, role id.Role, addr string, code id.InstituteCode) error {
	if _, err := s.identities.FindByEmail(ctx, addr); err == nil {
		return nil
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return err
	}
	occupant, err := s.identities.FindOccupant(ctx, role, code)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil
		}
		return err
	}
	return dErrors.New(dErrors.CodePromotionConflict,
		fmt.Sprintf("institute %s already has a %s: %s", code, role.DisplayName(), occupant.Email))
}
