package notify

import (
	"bytes"
	htmltmpl "html/template"
	texttmpl "text/template"
)

type rendered struct {
	Subject string
	Text    string
	HTML    string
}

var (
	approvedText = texttmpl.Must(texttmpl.New("approved.txt").Parse(
		`Dear {{.FullName}},

Your account has been approved as a {{.Role}}. You can now log in to EventHub.

Best regards,
EventHub Team
`))
	approvedHTML = htmltmpl.Must(htmltmpl.New("approved.html").Parse(
		`<h1>Your Account Has Been Approved!</h1>
<p>Dear {{.FullName}},</p>
<p>Your account has been approved as a {{.Role}}. You can now log in to EventHub.</p>
<p>Best regards,<br>EventHub Team</p>
`))

	eventText = texttmpl.Must(texttmpl.New("event.txt").Parse(
		`New Event: {{.Title}}

Description: {{.Description}}
Date: {{.Date.Format "Monday, January 2, 2006 03:04 PM"}}
Location: {{.Location}}

We hope to see you there!

Best regards,
EventHub Team
`))
	eventHTML = htmltmpl.Must(htmltmpl.New("event.html").Parse(
		`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
<h2>New Event: {{.Title}}</h2>
<p><strong>Description:</strong><br>{{.Description}}</p>
<p><strong>Date:</strong><br>{{.Date.Format "Monday, January 2, 2006 03:04 PM"}}</p>
<p><strong>Location:</strong><br>{{.Location}}</p>
<p>We hope to see you there!</p>
<p>Best regards,<br>EventHub Team</p>
</div>
`))
)

func renderUserApproved(n UserApproved) (rendered, error) {
	var text, html bytes.Buffer
	if err := approvedText.Execute(&text, n); err != nil {
		return rendered{}, err
	}
	if err := approvedHTML.Execute(&html, n); err != nil {
		return rendered{}, err
	}
	return rendered{Subject: "Account Approved", Text: text.String(), HTML: html.String()}, nil
}

func renderEventApproved(n EventApproved) (rendered, error) {
	var text, html bytes.Buffer
	if err := eventText.Execute(&text, n); err != nil {
		return rendered{}, err
	}
	if err := eventHTML.Execute(&html, n); err != nil {
		return rendered{}, err
	}
	return rendered{Subject: "New Event Approved: " + n.Title, Text: text.String(), HTML: html.String()}, nil
}
