package notification

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	"text/template"

	"github.com/linemk/shop-checkout/internal/domain/models"
	"github.com/shopspring/decimal"
)

const siteName = "SK Mart"

// OrderNumber - номер заказа фиксированной ширины: SK-0001, SK-0042
func OrderNumber(orderID int64) string {
	return fmt.Sprintf("SK-%04d", orderID)
}

// Message - готовое письмо: текстовая и html-версии
type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

type renderLine struct {
	Name      string
	Quantity  int
	UnitPrice string
	Subtotal  string
}

type renderData struct {
	SiteName    string
	OrderNumber string
	OrderDate   string
	Status      string
	Items       []renderLine
	Total       string
}

func money(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}

var textTemplate = template.Must(template.New("text").Parse(`Order Confirmation - {{.SiteName}}

Order Number: {{.OrderNumber}}
Order Date: {{.OrderDate}}
Status: {{.Status}}

Items Ordered:
{{range .Items}}- {{.Name}} (Qty: {{.Quantity}} × {{.UnitPrice}}) = {{.Subtotal}}
{{end}}
Total Amount: {{.Total}}

Thank you for shopping with {{.SiteName}}!
`))

var htmlTemplate = htmltemplate.Must(htmltemplate.New("html").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Order Confirmation - {{.SiteName}}</title></head>
<body style="font-family: Arial, sans-serif; color: #333;">
  <h1>Order Confirmed!</h1>
  <p>Thank you for your purchase at {{.SiteName}}</p>
  <h2>Order Details</h2>
  <p><strong>Order Number:</strong> {{.OrderNumber}}</p>
  <p><strong>Order Date:</strong> {{.OrderDate}}</p>
  <p><strong>Status:</strong> {{.Status}}</p>
  <h3>Items Ordered</h3>
  <table>
  {{range .Items}}<tr><td><strong>{{.Name}}</strong><br><small>Quantity: {{.Quantity}} × {{.UnitPrice}}</small></td><td>{{.Subtotal}}</td></tr>
  {{end}}</table>
  <p><strong>Total Amount: {{.Total}}</strong></p>
  <p>Thank you for shopping with {{.SiteName}}!</p>
</body>
</html>
`))

// Render собирает письмо-подтверждение по заказу с позициями
func Render(order *models.Order, to string) (Message, error) {
	data := renderData{
		SiteName:    siteName,
		OrderNumber: OrderNumber(order.ID),
		OrderDate:   order.CreatedAt.Format("January 02, 2006 at 03:04 PM"),
		Status:      string(order.Status),
		Total:       money(order.TotalAmount),
	}
	for _, item := range order.Items {
		data.Items = append(data.Items, renderLine{
			Name:      item.ProductName,
			Quantity:  item.Quantity,
			UnitPrice: money(item.UnitPrice),
			Subtotal:  money(item.Subtotal()),
		})
	}

	var text, html bytes.Buffer
	if err := textTemplate.Execute(&text, data); err != nil {
		return Message{}, fmt.Errorf("render text: %w", err)
	}
	if err := htmlTemplate.Execute(&html, data); err != nil {
		return Message{}, fmt.Errorf("render html: %w", err)
	}

	return Message{
		To:      to,
		Subject: fmt.Sprintf("Order Confirmation - %s | %s", data.OrderNumber, siteName),
		Text:    text.String(),
		HTML:    html.String(),
	}, nil
}
