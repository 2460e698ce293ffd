package promotion

import (
	"context"
	"fmt"
	"strings"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	POST(path string, body any) error
	AdminPOST(path string, body any) error
	AdminGET(path string) error
	AdminDELETE(path string) error
	GetLastStatus() int
	GetResponseField(field string) (any, error)
	RunID() string
	Save(key, value string)
	Saved(key string) string
}

// RegisterSteps registers registration, approval and rejection steps
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &promotionSteps{tc: tc}

	// Registration steps
	ctx.Step(`^I submit a registration for team "([^"]*)"$`, steps.submit)
	ctx.Step(`^a registration for team "([^"]*)" is pending$`, steps.submitPending)
	ctx.Step(`^I submit a registration for team "([^"]*)" led by the leader of "([^"]*)"$`, steps.submitWithLeaderOf)
	ctx.Step(`^I GET the pending registration for team "([^"]*)"$`, steps.getPending)

	// Review steps
	ctx.Step(`^the administrator approves team "([^"]*)"$`, steps.approve)
	ctx.Step(`^team "([^"]*)" has been approved$`, steps.approved)
	ctx.Step(`^the administrator rejects team "([^"]*)" with reason "([^"]*)"$`, steps.reject)
	ctx.Step(`^the administrator deletes team "([^"]*)"$`, steps.deleteTeam)
	ctx.Step(`^the response should carry (\d+) issued credentials?$`, steps.credentialCount)
}

type promotionSteps struct {
	tc TestContext
}

func (s *promotionSteps) slug(team string) string {
	return strings.ToLower(strings.ReplaceAll(team, " ", "-")) + "-" + s.tc.RunID()
}

func (s *promotionSteps) payload(team, leaderEmail string) map[string]any {
	slug := s.slug(team)
	if leaderEmail == "" {
		leaderEmail = slug + "-lead@e2e.test"
	}
	members := make([]map[string]string, 0, 4)
	for i := 1; i <= 4; i++ {
		members = append(members, map[string]string{
			"name":  fmt.Sprintf("Member %d", i),
			"email": fmt.Sprintf("%s-m%d@e2e.test", slug, i),
		})
	}
	return map[string]any{
		"team_name":        team + " " + s.tc.RunID(),
		"leader_name":      "Lead " + team,
		"leader_email":     leaderEmail,
		"leader_phone":     "9876543210",
		"leader_password":  "e2e-password-1",
		"institute_code":   "E2E" + strings.ToUpper(s.tc.RunID()),
		"institute_name":   "End To End Institute",
		"members":          members,
		"mentor_name":      "Mentor",
		"mentor_email":     "mentor-" + s.tc.RunID() + "@e2e.test",
		"spoc_name":        "Spoc",
		"spoc_email":       "spoc-" + s.tc.RunID() + "@e2e.test",
		"spoc_district":    "Pune",
		"spoc_state":       "Maharashtra",
		"consent_document": "consent.pdf",
	}
}

func (s *promotionSteps) post(team, leaderEmail string) error {
	body := s.payload(team, leaderEmail)
	if err := s.tc.POST("/registrations", body); err != nil {
		return err
	}
	if s.tc.GetLastStatus() == 201 {
		regID, err := s.tc.GetResponseField("registration_id")
		if err != nil {
			return err
		}
		s.tc.Save("registration:"+team, fmt.Sprint(regID))
		s.tc.Save("leader:"+team, body["leader_email"].(string))
	}
	return nil
}

func (s *promotionSteps) submit(ctx context.Context, team string) error {
	return s.post(team, "")
}

func (s *promotionSteps) submitPending(ctx context.Context, team string) error {
	if err := s.post(team, ""); err != nil {
		return err
	}
	return s.expect(201)
}

func (s *promotionSteps) submitWithLeaderOf(ctx context.Context, team, other string) error {
	leader := s.tc.Saved("leader:" + other)
	if leader == "" {
		return fmt.Errorf("no leader recorded for team %q", other)
	}
	return s.post(team, leader)
}

func (s *promotionSteps) getPending(ctx context.Context, team string) error {
	return s.tc.AdminGET("/admin/registrations/" + s.registrationID(team))
}

func (s *promotionSteps) approve(ctx context.Context, team string) error {
	if err := s.tc.AdminPOST("/admin/registrations/"+s.registrationID(team)+"/approve", nil); err != nil {
		return err
	}
	if s.tc.GetLastStatus() == 201 {
		raw, err := s.tc.GetResponseField("team")
		if err != nil {
			return err
		}
		if created, ok := raw.(map[string]any); ok {
			s.tc.Save("team:"+team, fmt.Sprint(created["id"]))
		}
	}
	return nil
}

func (s *promotionSteps) approved(ctx context.Context, team string) error {
	if err := s.submitPending(ctx, team); err != nil {
		return err
	}
	if err := s.approve(ctx, team); err != nil {
		return err
	}
	return s.expect(201)
}

func (s *promotionSteps) reject(ctx context.Context, team, reason string) error {
	return s.tc.AdminPOST("/admin/registrations/"+s.registrationID(team)+"/reject", map[string]string{"reason": reason})
}

func (s *promotionSteps) deleteTeam(ctx context.Context, team string) error {
	teamID := s.tc.Saved("team:" + team)
	if teamID == "" {
		return fmt.Errorf("team %q was never approved", team)
	}
	return s.tc.AdminDELETE("/admin/teams/" + teamID)
}

func (s *promotionSteps) credentialCount(ctx context.Context, n int) error {
	raw, err := s.tc.GetResponseField("credentials")
	if err != nil {
		if n == 0 {
			return nil
		}
		return err
	}
	creds, ok := raw.([]any)
	if !ok {
		return fmt.Errorf("credentials is not a list: %v", raw)
	}
	if len(creds) != n {
		return fmt.Errorf("expected %d credentials, got %d", n, len(creds))
	}
	return nil
}

func (s *promotionSteps) registrationID(team string) string {
	return s.tc.Saved("registration:" + team)
}

func (s *promotionSteps) expect(status int) error {
	if got := s.tc.GetLastStatus(); got != status {
		return fmt.Errorf("expected status %d, got %d", status, got)
	}
	return nil
}
