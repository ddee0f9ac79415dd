package notification

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		in   decimal.Decimal
		want string
	}{
		{in: decimal.NewFromInt(0), want: "0.00"},
		{in: decimal.NewFromInt(1234), want: "1,234.00"},
		{in: decimal.RequireFromString("1500000.5"), want: "1,500,000.50"},
		{in: decimal.RequireFromString("99.999"), want: "100.00"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, formatAmount(tt.in))
		})
	}
}

func TestInvoiceCaption(t *testing.T) {
	got := InvoiceCaption("Siti", "SINV-7", decimal.NewFromInt(250000))
	assert.Equal(t, "Assalamualaikum Bapak/Ibu Siti,\nBerikut adalah tagihan Anda bulan ini:\n🔔 *No. Inv SINV-7* sebesar Rp 250,000.00\n", got)
}

func TestInvoiceCaption_EscapesMarkdown(t *testing.T) {
	got := InvoiceCaption("a_b*c", "SINV_1", decimal.NewFromInt(1))
	assert.Contains(t, got, "Bapak/Ibu a\\_b\\*c,")
	assert.Contains(t, got, "*No. Inv SINV\\_1*")
}

func TestPaymentConfirmation(t *testing.T) {
	t.Run("invoice linked", func(t *testing.T) {
		got := PaymentConfirmation("Siti", "SINV-7", decimal.NewFromInt(50000))
		assert.Equal(t, "Assalamualaikum Bapak/Ibu Siti,\nPembayaran Anda sebesar Rp 50,000.00 telah kami terima.\n✅ *No. Inv SINV-7*\nTerima kasih.", got)
	})

	t.Run("on account", func(t *testing.T) {
		got := PaymentConfirmation("Siti", "", decimal.NewFromInt(50000))
		assert.Equal(t, "Assalamualaikum Bapak/Ibu Siti,\nPembayaran Anda sebesar Rp 50,000.00 telah kami terima sebagai deposit.\nTerima kasih.", got)
	})
}

func TestRenderInvoiceHTML(t *testing.T) {
	invoice := testInvoice()
	due := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
	invoice.DueDate = &due
	invoice.CustomerName = "Budi <Santoso>"

	html, err := RenderInvoiceHTML(invoice)
	require.NoError(t, err)
	assert.Contains(t, html, "<title>ACC-SINV-2025-00001</title>")
	assert.Contains(t, html, "Tanggal: 01-06-2025")
	assert.Contains(t, html, "Jatuh tempo: 10-06-2025")
	assert.Contains(t, html, "Budi &lt;Santoso&gt;")
	assert.Contains(t, html, "<td>A-12</td>")
	assert.Contains(t, html, "Rp 150,000.00")
}
