package store

import (
	"time"

	"samved/internal/team/models"
	id "samved/pkg/domain"
)

func newTeam(name string, members ...id.IdentityID) *models.Team {
	leader := id.NewIdentityID()
	team, err := models.NewApprovedTeam(id.NewTeamID(), name, leader, id.NewIdentityID(), time.Now().UTC().Truncate(time.Microsecond))
	if err != nil {
		panic(err)
	}
	team.InstituteCode = "ABC"
	team.InstituteName = "ABC College"
	team.SPOC = models.Contact{ID: id.NewIdentityID(), Name: "Spoc", Email: "spoc@abc.edu"}
	team.Mentor = models.Contact{ID: id.NewIdentityID(), Name: "Mentor", Email: "mentor@abc.edu"}
	team.SetMembers(members, team.CreatedAt)
	return team
}
