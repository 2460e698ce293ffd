package store

import (
	"time"

	"samved/internal/registration/models"
	id "samved/pkg/domain"
)

func newRegistration(teamName, leader string, members ...string) *models.StagedRegistration {
	reg := &models.StagedRegistration{
		ID:                 id.NewRegistrationID(),
		TeamName:           teamName,
		LeaderName:         "Leader",
		LeaderEmail:        leader,
		LeaderPhone:        "9876543210",
		LeaderPasswordHash: "$2a$10$abcdefghijklmnopqrstuv",
		InstituteCode:      "ABC",
		InstituteName:      "ABC College",
		MentorName:         "Mentor",
		MentorEmail:        "mentor@abc.edu",
		SPOCName:           "Spoc",
		SPOCEmail:          "spoc@abc.edu",
		ConsentDocument:    "consent.pdf",
		Status:             models.StatusPending,
		CreatedAt:          time.Now().UTC().Truncate(time.Microsecond),
	}
	for _, m := range members {
		reg.Members = append(reg.Members, models.Member{Name: "Member", Email: m})
	}
	return reg
}
