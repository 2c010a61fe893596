package notification

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/frahmantamala/it-helpdesk/internal/core/events"
	"github.com/frahmantamala/it-helpdesk/internal/ticket"
)

// Message is an e-mail ready to be rendered. Body is Markdown.
type Message struct {
	Kind    string
	To      []string
	Subject string
	Body    string
}

const (
	KindWelcome       = "welcome"
	KindTicketOwner   = "ticket_owner"
	KindTicketITTeam  = "ticket_it_team"
	KindStatusUpdate  = "status_update"
	urgentSubjectFlag = "[URGENT] "
)

var templates = template.Must(template.New("mail").Funcs(template.FuncMap{
	"priority": priorityLabel,
	"status":   statusLabel,
	"quote":    quote,
}).Parse(`
{{define "welcome"}}# Welcome, {{.Name}}!

Your account on the IT helpdesk has been created.

You can now sign in and open support tickets.

Thank you!
{{end}}

{{define "ticket_owner"}}## Hello, {{.OwnerName}}

Your ticket has been registered.

### Ticket details

- **Ticket:** #{{.Ref}}
- **Title:** {{.Title}}
- **Priority:** {{priority .Priority}}

The IT team has been notified and will handle your request shortly.
{{end}}

{{define "ticket_it_team"}}## A new IT ticket was opened

### Details

- **Requester:** {{.OwnerName}}
- **Department:** {{.OwnerDepartment}}
- **Ticket:** #{{.Ref}}
- **Title:** {{.Title}}
- **Priority:** {{priority .Priority}}

**Description:**

{{quote .Description}}

Open the IT dashboard to manage this ticket.
{{end}}

{{define "status_update"}}## Hello, {{.OwnerName}}

Your ticket "**{{.Title}}**" was updated.

New status: **{{status .Status}}**

{{if eq .Status "COMPLETED"}}Your request has been resolved. Thank you for reaching out!{{else}}Our team is already working on your request.{{end}}
{{end}}
`))

type ticketView struct {
	events.TicketSnapshot
	Ref string
}

func WelcomeMessage(e *events.UserRegisteredEvent) (*Message, error) {
	body, err := execute(KindWelcome, e)
	if err != nil {
		return nil, err
	}
	return &Message{
		Kind:    KindWelcome,
		To:      []string{e.Email},
		Subject: "Your helpdesk account is ready",
		Body:    body,
	}, nil
}

func TicketOwnerMessage(t events.TicketSnapshot) (*Message, error) {
	view := ticketView{TicketSnapshot: t, Ref: ticket.ShortRef(t.ID)}
	body, err := execute(KindTicketOwner, view)
	if err != nil {
		return nil, err
	}
	return &Message{
		Kind:    KindTicketOwner,
		To:      []string{t.OwnerEmail},
		Subject: fmt.Sprintf("Ticket #%s created", view.Ref),
		Body:    body,
	}, nil
}

// TicketITTeamMessage addresses the IT distribution list. Urgent tickets get a subject prefix.
func TicketITTeamMessage(t events.TicketSnapshot, itTeamEmail string) (*Message, error) {
	view := ticketView{TicketSnapshot: t, Ref: ticket.ShortRef(t.ID)}
	body, err := execute(KindTicketITTeam, view)
	if err != nil {
		return nil, err
	}
	subject := fmt.Sprintf("New IT ticket opened by %s", t.OwnerName)
	if t.Priority == string(ticket.PriorityUrgent) {
		subject = urgentSubjectFlag + subject
	}
	return &Message{
		Kind:    KindTicketITTeam,
		To:      []string{itTeamEmail},
		Subject: subject,
		Body:    body,
	}, nil
}

func StatusUpdateMessage(t events.TicketSnapshot) (*Message, error) {
	view := ticketView{TicketSnapshot: t, Ref: ticket.ShortRef(t.ID)}
	body, err := execute(KindStatusUpdate, view)
	if err != nil {
		return nil, err
	}
	return &Message{
		Kind:    KindStatusUpdate,
		To:      []string{t.OwnerEmail},
		Subject: fmt.Sprintf("Update on your ticket #%s", view.Ref),
		Body:    body,
	}, nil
}

func execute(name string, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s template: %w", name, err)
	}
	return strings.TrimSpace(buf.String()) + "\n", nil
}

func priorityLabel(p string) string {
	if p == string(ticket.PriorityUrgent) {
		return "Urgent"
	}
	return "Normal"
}

func statusLabel(s string) string {
	switch ticket.Status(s) {
	case ticket.StatusRequested:
		return "Requested"
	case ticket.StatusInProgress:
		return "In progress"
	case ticket.StatusCompleted:
		return "Completed"
	}
	return s
}

func quote(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	for i, line := range lines {
		lines[i] = "> " + line
	}
	return strings.Join(lines, "\n")
}
