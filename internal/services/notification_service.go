// internal/services/notification_service.go
package services

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/smtp"

	"github.com/goldenrice/rice-backend/internal/config"
	"github.com/goldenrice/rice-backend/internal/models"
	"github.com/goldenrice/rice-backend/internal/repository"
	"github.com/goldenrice/rice-backend/internal/utils"
)

// NotificationService emails customers about their orders. Without an SMTP
// host the messages are only logged.
type NotificationService struct {
	users     repository.UserRepository
	accounts  repository.CompanyAccountRepository
	email     config.EmailConfig
	frontend  string
	templates map[string]EmailTemplate
	send      func(to, subject, body string) error
}

type EmailTemplate struct {
	Subject string
	Body    *template.Template
}

type orderEmailData struct {
	CustomerName  string
	OrderNumber   string
	Status        models.OrderStatus
	PreviousState models.OrderStatus
	PaymentType   models.PaymentType
	Total         string
	Items         []orderEmailItem
	AccountType   models.PaymentAccountType
	AccountName   string
	AccountNumber string
	Note          string
	OrderURL      string
	StoreName     string
}

type orderEmailItem struct {
	Name      string
	Quantity  int64
	LineTotal string
}

func NewNotificationService(users repository.UserRepository, accounts repository.CompanyAccountRepository, cfg *config.Config) *NotificationService {
	s := &NotificationService{
		users:     users,
		accounts:  accounts,
		email:     cfg.Email,
		frontend:  cfg.Frontend.BaseURL,
		templates: emailTemplates(),
	}
	s.send = s.sendEmail
	return s
}

func (s *NotificationService) OrderPlaced(ctx context.Context, order *models.Order) {
	s.notify(ctx, "order_placed", order, func(data *orderEmailData) {
		if order.PaymentType != models.PaymentTypeOnlineTransfer || order.CompanyPaymentAccountID == nil {
			return
		}
		account, err := s.accounts.FindByID(ctx, *order.CompanyPaymentAccountID)
		if err != nil {
			return
		}
		data.AccountType = account.Type
		data.AccountName = account.AccountName
		data.AccountNumber = utils.MaskAccountNumber(account.AccountNumber)
	})
}

func (s *NotificationService) OrderStatusChanged(ctx context.Context, order *models.Order, from models.OrderStatus) {
	s.notify(ctx, "status_changed", order, func(data *orderEmailData) {
		data.PreviousState = from
		data.Note = order.CancelReason
	})
}

func (s *NotificationService) PaymentReviewed(ctx context.Context, order *models.Order, accepted bool) {
	kind := "payment_rejected"
	if accepted {
		kind = "payment_verified"
	}
	s.notify(ctx, kind, order, func(data *orderEmailData) {
		data.Note = order.PaymentNote
	})
}

func (s *NotificationService) notify(ctx context.Context, kind string, order *models.Order, fill func(*orderEmailData)) {
	log := entryLog("notification." + kind).WithField("order_id", order.ID)

	user, err := s.users.FindByID(ctx, order.UserID)
	if err != nil {
		log.WithError(err).Warn("failed to load order owner")
		return
	}

	data := &orderEmailData{
		CustomerName: user.Name,
		OrderNumber:  order.OrderNumber,
		Status:       order.Status,
		PaymentType:  order.PaymentType,
		Total:        order.Total.StringFixed(2),
		OrderURL:     fmt.Sprintf("%s/orders/%s", s.frontend, order.ID),
		StoreName:    s.email.FromName,
	}
	for _, item := range order.Items {
		data.Items = append(data.Items, orderEmailItem{
			Name:      item.ProductName,
			Quantity:  item.Quantity,
			LineTotal: item.LineTotal.StringFixed(2),
		})
	}
	if fill != nil {
		fill(data)
	}

	tmpl := s.templates[kind]
	body, err := s.renderTemplate(tmpl.Body, data)
	if err != nil {
		log.WithError(err).Error("failed to render email template")
		return
	}
	subject := fmt.Sprintf(tmpl.Subject, order.OrderNumber)
	if err := s.send(user.Email, subject, body); err != nil {
		log.WithError(err).Error("failed to send email")
	}
}

func (s *NotificationService) sendEmail(to, subject, body string) error {
	if s.email.SMTPHost == "" {
		entryLog("notification.email").WithFields(map[string]interface{}{
			"to":      to,
			"subject": subject,
		}).Info("smtp not configured, email not sent")
		return nil
	}

	auth := smtp.PlainAuth("", s.email.SMTPUsername, s.email.SMTPPassword, s.email.SMTPHost)
	from := s.email.FromEmail
	if s.email.FromName != "" {
		from = fmt.Sprintf("%s <%s>", s.email.FromName, s.email.FromEmail)
	}
	msg := []byte(fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=\"UTF-8\"\r\n\r\n%s",
		from, to, subject, body))

	addr := fmt.Sprintf("%s:%s", s.email.SMTPHost, s.email.SMTPPort)
	return smtp.SendMail(addr, auth, s.email.FromEmail, []string{to}, msg)
}

func (s *NotificationService) renderTemplate(tmpl *template.Template, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

const itemsTable = `{{define "items"}}
	<table>
	{{range .Items}}<tr><td>{{.Name}}</td><td>x {{.Quantity}}</td><td>{{.LineTotal}}</td></tr>
	{{end}}</table>
	<p><strong>Total: {{.Total}}</strong></p>
{{end}}`

func emailTemplates() map[string]EmailTemplate {
	parse := func(body string) *template.Template {
		return template.Must(template.Must(template.New("email").Parse(itemsTable)).Parse(body))
	}

	return map[string]EmailTemplate{
		"order_placed": {
			Subject: "Order %s received",
			Body: parse(`<!DOCTYPE html>
<html>
<body>
	<h2>Thank you, {{.CustomerName}}!</h2>
	<p>We received your order {{.OrderNumber}}.</p>
	{{template "items" .}}
	{{if .AccountNumber}}<p>Please transfer the total to {{.AccountType}} {{.AccountName}} ({{.AccountNumber}}) and upload your payment screenshot.</p>{{end}}
	{{if eq .PaymentType "COD"}}<p>Please pay in cash when the order is delivered.</p>{{end}}
	<a href="{{.OrderURL}}">View order</a>
	<p>{{.StoreName}}</p>
</body>
</html>`),
		},
		"status_changed": {
			Subject: "Order %s update",
			Body: parse(`<!DOCTYPE html>
<html>
<body>
	<p>Hello {{.CustomerName}},</p>
	<p>Your order {{.OrderNumber}} moved from {{.PreviousState}} to <strong>{{.Status}}</strong>.</p>
	{{if .Note}}<p>{{.Note}}</p>{{end}}
	<a href="{{.OrderURL}}">View order</a>
	<p>{{.StoreName}}</p>
</body>
</html>`),
		},
		"payment_verified": {
			Subject: "Payment for order %s confirmed",
			Body: parse(`<!DOCTYPE html>
<html>
<body>
	<p>Hello {{.CustomerName}},</p>
	<p>We confirmed your transfer of {{.Total}} for order {{.OrderNumber}}. We will start preparing it shortly.</p>
	<a href="{{.OrderURL}}">View order</a>
	<p>{{.StoreName}}</p>
</body>
</html>`),
		},
		"payment_rejected": {
			Subject: "Payment for order %s could not be confirmed",
			Body: parse(`<!DOCTYPE html>
<html>
<body>
	<p>Hello {{.CustomerName}},</p>
	<p>We could not confirm the payment for order {{.OrderNumber}}.</p>
	{{if .Note}}<p>Reason: {{.Note}}</p>{{end}}
	{{if eq .Status "PENDING"}}<p>You can upload a new payment screenshot from the order page.</p>{{end}}
	<a href="{{.OrderURL}}">View order</a>
	<p>{{.StoreName}}</p>
</body>
</html>`),
		},
	}
}

// NopNotifier discards every notification.
type NopNotifier struct{}

func (NopNotifier) OrderPlaced(context.Context, *models.Order) {}
func (NopNotifier) OrderStatusChanged(context.Context, *models.Order, models.OrderStatus) {}
func (NopNotifier) PaymentReviewed(context.Context, *models.Order, bool) {}
