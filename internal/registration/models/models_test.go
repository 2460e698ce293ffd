package models

import (
	"testing"

	"github.com/stretchr/testify/suite"

	dErrors "samved/pkg/domain-errors"
)

type SubmitRequestSuite struct {
	suite.Suite
}

func TestSubmitRequestSuite(t *testing.T) {
	suite.Run(t, new(SubmitRequestSuite))
}

func validSubmitRequest() *SubmitRequest {
	return &SubmitRequest{
		TeamName:       "Byte Me",
		LeaderName:     "Lead Person",
		LeaderEmail:    "lead@abc.edu",
		LeaderPhone:    "9876543210",
		LeaderPassword: "hunter22!",
		InstituteCode:  "abc",
		InstituteName:  "ABC College",
		Members: []Member{
			{Name: "M One", Email: "m1@abc.edu"},
			{Name: "M Two", Email: "m2@abc.edu"},
			{Name: "M Three", Email: "m3@abc.edu"},
			{Name: "M Four", Email: "m4@abc.edu"},
		},
		MentorName:      "Mentor",
		MentorEmail:     "mentor@abc.edu",
		SPOCName:        "Spoc",
		SPOCEmail:       "spoc@abc.edu",
		SPOCDistrict:    "Pune",
		SPOCState:       "MH",
		ConsentDocument: "uploads/consent.pdf",
	}
}

func (s *SubmitRequestSuite) TestValidate() {
	s.Run("valid request passes", func() {
		req := validSubmitRequest()
		req.Normalize()
		s.NoError(req.Validate())
		s.Equal("ABC", req.InstituteCode)
	})

	cases := map[string]func(r *SubmitRequest){
		"missing team name":     func(r *SubmitRequest) { r.TeamName = "  " },
		"missing phone":         func(r *SubmitRequest) { r.LeaderPhone = "" },
		"bad leader email":      func(r *SubmitRequest) { r.LeaderEmail = "not-an-email" },
		"bad spoc email":        func(r *SubmitRequest) { r.SPOCEmail = "spoc@" },
		"short password":        func(r *SubmitRequest) { r.LeaderPassword = "short" },
		"member without name":   func(r *SubmitRequest) { r.Members[2].Name = "" },
		"member with bad email": func(r *SubmitRequest) { r.Members[1].Email = "m2" },
		"malformed problem id":  func(r *SubmitRequest) { r.ProblemID = "nope" },
		"missing consent":       func(r *SubmitRequest) { r.ConsentDocument = "" },
	}
	for name, mutate := range cases {
		s.Run(name, func() {
			req := validSubmitRequest()
			mutate(req)
			req.Normalize()
			err := req.Validate()
			s.Require().Error(err)
			s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		})
	}

	s.Run("member count is not a shape check", func() {
		req := validSubmitRequest()
		req.Members = req.Members[:2]
		req.Normalize()
		s.NoError(req.Validate())
	})
}

func (s *SubmitRequestSuite) TestParticipantEmails() {
	req := validSubmitRequest()
	s.Equal([]string{"lead@abc.edu", "m1@abc.edu", "m2@abc.edu", "m3@abc.edu", "m4@abc.edu"}, req.ParticipantEmails())
}

func (s *SubmitRequestSuite) TestReject() {
	r := &RejectRequest{Reason: "  nope  "}
	r.Normalize()
	s.Equal("nope", r.Reason)
	s.NoError(r.Validate())
}
