// internal/pkg/pdf/service.go
package pdf

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"github.com/SebastiaanKlippert/go-wkhtmltopdf"
	"github.com/electrostore/ecommerce-backend/internal/config"
	"github.com/electrostore/ecommerce-backend/internal/domain/order"
	"github.com/electrostore/ecommerce-backend/internal/pkg/apperrors"
	"github.com/shopspring/decimal"
)

// RenderFunc turns an HTML document into PDF bytes
type RenderFunc func(html []byte) ([]byte, error)

// Service builds receipts for paid orders
type Service struct {
	company config.ReceiptConfig
	render  RenderFunc
	tmpl    *template.Template
}

// NewService creates a receipt service backed by wkhtmltopdf
func NewService(cfg config.ReceiptConfig) *Service {
	return NewServiceWithRenderer(cfg, renderWkhtmltopdf)
}

// NewServiceWithRenderer creates a receipt service with a custom PDF renderer
func NewServiceWithRenderer(cfg config.ReceiptConfig, render RenderFunc) *Service {
	funcs := template.FuncMap{"money": FormatMoney}
	return &Service{
		company: cfg,
		render:  render,
		tmpl:    template.Must(template.New("receipt").Funcs(funcs).Parse(receiptTemplate)),
	}
}

// ReceiptData represents the data passed to the receipt template
type ReceiptData struct {
	Company   config.ReceiptConfig
	Order     *order.Order
	PaidAt    string
	Generated string
}

// GenerateReceipt renders a PDF receipt. Orders that were never paid have no receipt.
func (s *Service) GenerateReceipt(o *order.Order) ([]byte, error) {
	html, err := s.RenderHTML(o)
	if err != nil {
		return nil, err
	}

	out, err := s.render(html)
	if err != nil {
		return nil, fmt.Errorf("failed to create PDF: %w", err)
	}
	return out, nil
}

// RenderHTML renders the receipt document without converting it
func (s *Service) RenderHTML(o *order.Order) ([]byte, error) {
	if !o.IsPaid() || o.PaidAt == nil {
		return nil, apperrors.Policy("receipt is only available for paid orders")
	}

	data := ReceiptData{
		Company:   s.company,
		Order:     o,
		PaidAt:    o.PaidAt.Format("02/01/2006 15:04"),
		Generated: time.Now().Format("02/01/2006 15:04"),
	}

	var buf bytes.Buffer
	if err := s.tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to execute template: %w", err)
	}
	return buf.Bytes(), nil
}

// FormatMoney prints cents as a decimal amount with two places
func FormatMoney(cents int64) string {
	return "S/ " + decimal.New(cents, -2).StringFixed(2)
}

func renderWkhtmltopdf(html []byte) ([]byte, error) {
	pdfg, err := wkhtmltopdf.NewPDFGenerator()
	if err != nil {
		return nil, fmt.Errorf("failed to create PDF generator: %w", err)
	}

	pdfg.Dpi.Set(300)
	pdfg.Orientation.Set(wkhtmltopdf.OrientationPortrait)
	pdfg.PageSize.Set(wkhtmltopdf.PageSizeA5)

	page := wkhtmltopdf.NewPageReader(bytes.NewReader(html))
	page.FooterRight.Set("[page]")
	page.FooterFontSize.Set(8)
	pdfg.AddPage(page)

	if err := pdfg.Create(); err != nil {
		return nil, err
	}
	return pdfg.Bytes(), nil
}

const receiptTemplate = `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Receipt {{.Order.Code}}</title>
    <style>
        body { font-family: Arial, sans-serif; color: #333; padding: 16px; }
        h1 { font-size: 22px; color: #2563eb; margin: 0 0 4px 0; }
        .muted { color: #666; font-size: 12px; }
        table { width: 100%; border-collapse: collapse; margin-top: 20px; }
        th, td { border-bottom: 1px solid #ddd; padding: 8px 4px; text-align: left; }
        th { background-color: #f8f9fa; }
        .num { text-align: right; }
        .total td { font-weight: bold; border-top: 2px solid #333; }
    </style>
</head>
<body>
    <h1>{{.Company.CompanyName}}</h1>
    {{if .Company.CompanyAddress}}<div class="muted">{{.Company.CompanyAddress}}</div>{{end}}
    {{if .Company.CompanyEmail}}<div class="muted">{{.Company.CompanyEmail}}</div>{{end}}

    <p>
        <strong>Order {{.Order.Code}}</strong><br>
        Paid: {{.PaidAt}}<br>
        {{if .Order.PaymentID}}Payment: {{.Order.PaymentID}}<br>{{end}}
        Delivery: {{.Order.DeliveryMode}}
    </p>

    <table>
        <tr><th>Product</th><th class="num">Qty</th><th class="num">Unit</th><th class="num">Total</th></tr>
        {{range .Order.Items}}
        <tr>
            <td>{{.ProductName}}</td>
            <td class="num">{{.Quantity}}</td>
            <td class="num">{{money .UnitPrice}}</td>
            <td class="num">{{money .LineTotal}}</td>
        </tr>
        {{end}}
        <tr class="total"><td colspan="3">Total</td><td class="num">{{money .Order.Total}}</td></tr>
    </table>

    <p class="muted">Generated {{.Generated}}</p>
</body>
</html>
`
