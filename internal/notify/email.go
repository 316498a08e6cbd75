package notify

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-salon/internal/common"
	"github.com/noah-isme/backend-salon/internal/events"
	"github.com/noah-isme/backend-salon/internal/store"
)

// EmailNotifier mails customers about their own sales and registrations.
type EmailNotifier struct {
	Mail         common.EmailSender
	Enabled      bool
	From         string
	BusinessName string
	// TopicToggles switches individual topics off; missing topics stay on.
	TopicToggles map[string]bool
}

type emailData struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Customer *struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	} `json:"customer"`
	Sale *struct {
		InvoiceNumber string          `json:"invoiceNumber"`
		Total         decimal.Decimal `json:"total"`
	} `json:"sale"`
}

func (d emailData) recipient() (email, name string) {
	if d.Customer != nil {
		return strings.TrimSpace(d.Customer.Email), d.Customer.Name
	}
	return strings.TrimSpace(d.Email), d.Name
}

// Notify implements events.Notifier.
func (n EmailNotifier) Notify(ctx context.Context, ev store.DomainEvent) error {
	if !n.Enabled || n.Mail == nil {
		return nil
	}
	if enabled, ok := n.TopicToggles[ev.Topic]; ok && !enabled {
		return nil
	}
	if ev.Topic != events.TopicSaleCompleted && ev.Topic != events.TopicCustomerCreated {
		return nil
	}
	var data emailData
	if err := events.DecodeData(ev, &data); err != nil {
		return fmt.Errorf("email notify: decode payload: %w", err)
	}
	to, name := data.recipient()
	if to == "" {
		return nil
	}
	subject, body := n.compose(ev.Topic, name, data)
	return n.Mail.Send(ctx, common.Email{From: n.From, To: to, Subject: subject, HTML: body})
}

func (n EmailNotifier) compose(topic, name string, data emailData) (string, string) {
	business := n.BusinessName
	if business == "" {
		business = "our salon"
	}
	greeting := "Hello"
	if name != "" {
		greeting = "Hello " + html.EscapeString(name)
	}
	if topic == events.TopicCustomerCreated {
		return "Welcome to " + business,
			fmt.Sprintf("<p>%s,</p><p>Thanks for registering with %s. You will earn loyalty points on every visit.</p>",
				greeting, html.EscapeString(business))
	}
	invoice, total := "", "0.00"
	if data.Sale != nil {
		invoice = data.Sale.InvoiceNumber
		total = data.Sale.Total.StringFixed(2)
	}
	return "Your receipt " + invoice,
		fmt.Sprintf("<p>%s,</p><p>Thank you for visiting %s. Invoice <b>%s</b> total: ₹%s.</p>",
			greeting, html.EscapeString(business), html.EscapeString(invoice), total)
}
