package mailer

import (
	"fmt"
	"html/template"
	"strings"
	"time"
)

// Templates renders the service's transactional emails. BaseURL is the
// public web origin links point at.
type Templates struct {
	BaseURL string
}

var emailShell = template.Must(template.New("shell").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: sans-serif; color: #1f2933; max-width: 560px; margin: 0 auto;">
  <h2>{{.Heading}}</h2>
  <p>{{.Lead}}</p>
  {{if .ButtonURL}}<p style="margin: 24px 0;">
    <a href="{{.ButtonURL}}" style="background: #2563eb; color: #fff; padding: 10px 20px; border-radius: 6px; text-decoration: none;">{{.ButtonLabel}}</a>
  </p>{{end}}
  {{if .Footnote}}<p style="color: #6b7280; font-size: 13px;">{{.Footnote}}</p>{{end}}
</body>
</html>`))

type shellData struct {
	Heading     string
	Lead        string
	ButtonURL   string
	ButtonLabel string
	Footnote    string
}

func renderShell(d shellData) string {
	var b strings.Builder
	// The shell template renders any shellData; a render error is a
	// programming bug caught by the template tests.
	if err := emailShell.Execute(&b, d); err != nil {
		return d.Lead
	}
	return b.String()
}

// Welcome greets a new account in its first company.
func (t Templates) Welcome(name, companyName string) Email {
	lead := fmt.Sprintf("Hi %s, your account is ready and you've joined %s. Log in to see your tasks and your team.", name, companyName)
	return Email{
		Subject:  "Welcome to CrewDesk",
		TextBody: lead + "\n\n" + t.BaseURL + "/login",
		HTMLBody: renderShell(shellData{
			Heading:     "Welcome to CrewDesk",
			Lead:        lead,
			ButtonURL:   t.BaseURL + "/login",
			ButtonLabel: "Log in",
		}),
	}
}

// PasswordReset carries the reset link. The token expires quickly; the email
// says so.
func (t Templates) PasswordReset(name, token string, ttl time.Duration) Email {
	link := fmt.Sprintf("%s/reset-password?token=%s", t.BaseURL, token)
	lead := fmt.Sprintf("Hi %s, we received a request to reset your password.", name)
	note := fmt.Sprintf("This link expires in %s. If you didn't request a reset, ignore this email; your password is unchanged.", formatTTL(ttl))
	return Email{
		Subject:  "Reset your CrewDesk password",
		TextBody: lead + "\n\n" + link + "\n\n" + note,
		HTMLBody: renderShell(shellData{
			Heading:     "Reset your password",
			Lead:        lead,
			ButtonURL:   link,
			ButtonLabel: "Choose a new password",
			Footnote:    note,
		}),
	}
}

// PasswordResetConfirmation is sent after a successful reset.
func (t Templates) PasswordResetConfirmation(name string) Email {
	lead := fmt.Sprintf("Hi %s, your CrewDesk password was just changed. If this was you, there's nothing to do.", name)
	note := "If you didn't change your password, reset it immediately and contact your administrator."
	return Email{
		Subject:  "Your CrewDesk password was changed",
		TextBody: lead + "\n\n" + note,
		HTMLBody: renderShell(shellData{
			Heading:  "Password changed",
			Lead:     lead,
			Footnote: note,
		}),
	}
}

// MagicLink carries a one-click login link.
func (t Templates) MagicLink(name, token string, ttl time.Duration) Email {
	link := fmt.Sprintf("%s/magic-login?token=%s", t.BaseURL, token)
	lead := fmt.Sprintf("Hi %s, here's your sign-in link.", name)
	note := fmt.Sprintf("The link expires in %s and can only be used once.", formatTTL(ttl))
	return Email{
		Subject:  "Your CrewDesk sign-in link",
		TextBody: lead + "\n\n" + link + "\n\n" + note,
		HTMLBody: renderShell(shellData{
			Heading:     "Sign in to CrewDesk",
			Lead:        lead,
			ButtonURL:   link,
			ButtonLabel: "Sign in",
			Footnote:    note,
		}),
	}
}

// Invite tells someone they've been added to a company, with a temporary
// password to log in with.
func (t Templates) Invite(name, companyName, inviterName, tempPassword string) Email {
	lead := fmt.Sprintf("Hi %s, %s added you to %s on CrewDesk. Log in with this temporary password and change it right away: %s", name, inviterName, companyName, tempPassword)
	return Email{
		Subject:  fmt.Sprintf("You've been added to %s on CrewDesk", companyName),
		TextBody: lead + "\n\n" + t.BaseURL + "/login",
		HTMLBody: renderShell(shellData{
			Heading:     fmt.Sprintf("You've joined %s", companyName),
			Lead:        lead,
			ButtonURL:   t.BaseURL + "/login",
			ButtonLabel: "Log in",
			Footnote:    "Change the temporary password after your first login.",
		}),
	}
}

// Meeting announces a meeting to a team member.
func (t Templates) Meeting(name, organizerName, title, agenda string, when time.Time) Email {
	lead := fmt.Sprintf("Hi %s, %s scheduled \"%s\" for %s.", name, organizerName, title, when.Format("Monday, Jan 2 at 15:04 MST"))
	text := lead
	if agenda != "" {
		text += "\n\nAgenda:\n" + agenda
	}
	d := shellData{
		Heading: "Meeting: " + title,
		Lead:    lead,
	}
	if agenda != "" {
		d.Footnote = "Agenda: " + agenda
	}
	return Email{
		Subject:  "Meeting: " + title,
		TextBody: text,
		HTMLBody: renderShell(d),
	}
}

func formatTTL(ttl time.Duration) string {
	if ttl >= time.Hour {
		h := int(ttl.Hours())
		if h == 1 {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", h)
	}
	m := int(ttl.Minutes())
	if m == 1 {
		return "1 minute"
	}
	return fmt.Sprintf("%d minutes", m)
}
