package service

import (
	"context"
	"fmt"

	notifymodels "samved/internal/notify/models"
	"samved/internal/promotion/models"
	teammodels "samved/internal/team/models"
	id "samved/pkg/domain"
	"samved/pkg/requestcontext"
)

// enqueueApproval queues the welcome mail, credential mail for spoc and
// mentor, and the in-app notice for the whole roster, leader included. Delivery is asynchronous and
// never affects the approval.
func (s *Service) enqueueApproval(ctx context.Context, team *teammodels.Team, leader, spoc, mentor models.Resolution) {
	s.notifier.Enqueue(ctx, notifymodels.Intent{
		Kind:     notifymodels.KindTeamApproved,
		To:       leader.Identity.Email,
		Name:     leader.Identity.Name,
		TeamName: team.Name,
	})

	spocGrant := notifymodels.Grant{Role: id.RoleSPOC, Password: spoc.GeneratedPassword}
	mentorGrant := notifymodels.Grant{Role: id.RoleMentor, Password: mentor.GeneratedPassword}
	if spoc.Identity.Email == mentor.Identity.Email {
		s.notifier.Enqueue(ctx, credentialIntent(spoc, team.Name, spocGrant, mentorGrant))
	} else {
		s.notifier.Enqueue(ctx, credentialIntent(spoc, team.Name, spocGrant))
		s.notifier.Enqueue(ctx, credentialIntent(mentor, team.Name, mentorGrant))
	}

	recipients := make([]id.IdentityID, 0, len(team.MemberIDs)+1)
	recipients = append(recipients, team.LeaderID)
	for _, memberID := range team.MemberIDs {
		if memberID != team.LeaderID {
			recipients = append(recipients, memberID)
		}
	}
	teamID := team.ID
	s.notifier.Enqueue(ctx, notifymodels.Intent{
		Kind:        notifymodels.KindInApp,
		Recipients:  recipients,
		Title:       "Team Approved",
		Message:     fmt.Sprintf("Your team %q has been approved. Welcome aboard!", team.Name),
		Level:       notifymodels.LevelSuccess,
		TeamID:      &teamID,
		TriggeredBy: requestcontext.ActorID(ctx),
	})
}

func credentialIntent(res models.Resolution, teamName string, grants ...notifymodels.Grant) notifymodels.Intent {
	return notifymodels.Intent{
		Kind:     notifymodels.KindCredentials,
		To:       res.Identity.Email,
		Name:     res.Identity.Name,
		TeamName: teamName,
		Grants:   grants,
	}
}

// issuedCredentials lists the one-time passwords of newly created spoc and
// mentor accounts.
func issuedCredentials(spoc, mentor models.Resolution) []models.IssuedCredential {
	var out []models.IssuedCredential
	for _, r := range []struct {
		role id.Role
		res  models.Resolution
	}{{id.RoleSPOC, spoc}, {id.RoleMentor, mentor}} {
		if r.res.Created() && r.res.GeneratedPassword != "" {
			out = append(out, models.IssuedCredential{
				Role:     r.role,
				Email:    r.res.Identity.Email,
				Password: r.res.GeneratedPassword,
			})
		}
	}
	return out
}
