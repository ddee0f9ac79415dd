package notification

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/rtmanagement/backend/internal/domain/sales"
	"github.com/shopspring/decimal"
)

var invoiceTemplate = template.Must(template.New("invoice").Funcs(template.FuncMap{
	"amount": formatAmount,
	"qty": func(d decimal.Decimal) string {
		return d.String()
	},
}).Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<title>{{.ID}}</title>
<style>
body { font-family: sans-serif; font-size: 12px; color: #222; }
h1 { font-size: 18px; margin-bottom: 4px; }
table { width: 100%; border-collapse: collapse; margin-top: 16px; }
th, td { border-bottom: 1px solid #ddd; padding: 6px; text-align: left; }
td.num, th.num { text-align: right; }
.totals td { border: none; font-weight: bold; }
</style>
</head>
<body>
<h1>{{.Company}}</h1>
<p>Tagihan <strong>{{.ID}}</strong><br>
Tanggal: {{.PostingDate.Format "02-01-2006"}}{{if .DueDate}}<br>
Jatuh tempo: {{.DueDate.Format "02-01-2006"}}{{end}}</p>
<p>Kepada: {{.CustomerName}}</p>
<table>
<thead>
<tr><th>Item</th><th>Unit</th><th class="num">Qty</th><th class="num">Harga</th><th class="num">Jumlah</th></tr>
</thead>
<tbody>
{{range .Items}}<tr><td>{{if .ItemName}}{{.ItemName}}{{else}}{{.ItemCode}}{{end}}</td><td>{{.Unit}}</td><td class="num">{{qty .Qty}}</td><td class="num">{{amount .Rate}}</td><td class="num">{{amount .Amount}}</td></tr>
{{end}}</tbody>
</table>
<table class="totals">
<tr><td class="num">Total</td><td class="num">Rp {{amount .GrandTotal}}</td></tr>
<tr><td class="num">Sisa tagihan</td><td class="num">Rp {{amount .OutstandingAmount}}</td></tr>
</table>
</body>
</html>
`))

// RenderInvoiceHTML renders the printable invoice document
func RenderInvoiceHTML(invoice *sales.SalesInvoice) (string, error) {
	var buf bytes.Buffer
	if err := invoiceTemplate.Execute(&buf, invoice); err != nil {
		return "", fmt.Errorf("failed to render invoice %s: %w", invoice.ID, err)
	}
	return buf.String(), nil
}
