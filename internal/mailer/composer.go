package mailer

import (
	"fmt"
	"net/url"
	"strings"
	"text/template"

	"listkeeper/internal/model"
)

var confirmationBody = template.Must(template.New("confirmation").Parse(
	`Hello,

You signed up for the mailing list "{{.ListName}}" with this address.
To confirm your subscription, open the link below:

{{.ConfirmURL}}

If you did not sign up, you can ignore this message and nothing will be
sent to you.
`))

// Composer renders the confirmation message for a subscriber.
type Composer struct {
	baseURL string
}

func NewComposer(baseURL string) *Composer {
	return &Composer{baseURL: strings.TrimRight(baseURL, "/")}
}

// Compose returns the subject and body of the confirmation email.
func (c *Composer) Compose(sub *model.Subscriber, list *model.MailingList, token string) (subject, body string, err error) {
	confirmURL := fmt.Sprintf("%s/confirm?token=%s", c.baseURL, url.QueryEscape(token))

	var b strings.Builder
	err = confirmationBody.Execute(&b, struct {
		ListName   string
		ConfirmURL string
	}{
		ListName:   list.Name,
		ConfirmURL: confirmURL,
	})
	if err != nil {
		return "", "", err
	}

	subject = fmt.Sprintf("Confirm your subscription to %s", list.Name)
	return subject, b.String(), nil
}
