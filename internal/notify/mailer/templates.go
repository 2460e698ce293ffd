package mailer

import (
	"bytes"
	"fmt"
	"html/template"

	"samved/internal/notify/models"
	"samved/pkg/email"
)

const eventName = "SAMVED Hackathon"

const layout = `<!DOCTYPE html>
<html><body style="font-family: Arial, sans-serif; color: #374151;">
<h2>Hello, {{.Greeting}}!</h2>
{{template "body" .}}
<p style="color:#64748b;font-size:13px;">{{.Event}}</p>
</body></html>`

var bodies = map[models.Kind]string{
	models.KindRegistrationReceived: `<p>We received the registration for team <strong>{{.TeamName}}</strong>.</p>
<p>An administrator will review it shortly. You will hear from us once it is approved.</p>`,

	models.KindTeamApproved: `<p>Your team <strong>{{.TeamName}}</strong> has been approved.</p>
<p>Log in with the email and password you chose during registration.</p>`,

	models.KindRegistrationRejected: `<p>The registration for team <strong>{{.TeamName}}</strong> was not approved.</p>
<p><strong>Reason:</strong> {{.Reason}}</p>
<p>You are welcome to register again.</p>`,

	models.KindCredentials: `{{range .Grants}}{{if .Reused}}
<p>A new team has been registered under your institute and you have been assigned as its <strong>{{.Role.DisplayName}}</strong>. Please use your existing credentials to log in.</p>
{{else}}
<p>Your account has been created as <strong>{{.Role.DisplayName}}</strong>.</p>
<p><strong>Email:</strong> {{$.To}}<br><strong>Password:</strong> <code>{{.Password}}</code></p>
<p>Please change your password after your first login.</p>
{{end}}{{end}}`,

	models.KindTeamMemberRemoved: `<p>You have been removed from team <strong>{{.TeamName}}</strong>.</p>`,
}

// templates holds one parsed layout+body pair per mail kind.
var templates = func() map[models.Kind]*template.Template {
	out := make(map[models.Kind]*template.Template, len(bodies))
	for kind, body := range bodies {
		t := template.Must(template.New("layout").Parse(layout))
		out[kind] = template.Must(t.New("body").Parse(body))
	}
	return out
}()

type view struct {
	models.Intent
	Greeting string
	Event    string
}

// Render builds the mail for an email intent.
func Render(intent models.Intent) (Message, error) {
	t, ok := templates[intent.Kind]
	if !ok {
		return Message{}, fmt.Errorf("no mail template for kind %q", intent.Kind)
	}
	var buf bytes.Buffer
	err := t.ExecuteTemplate(&buf, "layout", view{
		Intent:   intent,
		Greeting: email.Greeting(intent.Name, intent.To),
		Event:    eventName,
	})
	if err != nil {
		return Message{}, fmt.Errorf("render %s template: %w", intent.Kind, err)
	}
	return Message{To: intent.To, Subject: subject(intent), HTML: buf.String()}, nil
}

func subject(intent models.Intent) string {
	switch intent.Kind {
	case models.KindRegistrationReceived:
		return fmt.Sprintf("%s - Registration Received for %q", eventName, intent.TeamName)
	case models.KindTeamApproved:
		return fmt.Sprintf("%s - Team %q Approved!", eventName, intent.TeamName)
	case models.KindRegistrationRejected:
		return fmt.Sprintf("%s - Registration Update for %q", eventName, intent.TeamName)
	case models.KindTeamMemberRemoved:
		return fmt.Sprintf("%s - Removed from Team %q", eventName, intent.TeamName)
	case models.KindCredentials:
		return credentialSubject(intent.Grants)
	}
	return eventName
}

func credentialSubject(grants []models.Grant) string {
	if len(grants) == 1 {
		g := grants[0]
		if g.Reused() {
			return fmt.Sprintf("%s - Team Assigned (%s Role)", eventName, g.Role.DisplayName())
		}
		return fmt.Sprintf("%s - Account Credentials (%s Role)", eventName, g.Role.DisplayName())
	}
	return fmt.Sprintf("%s - Institute Roles Assigned", eventName)
}
