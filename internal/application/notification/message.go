package notification

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var amountPrinter = message.NewPrinter(language.English)

// formatAmount renders an amount with thousands separators and two decimals,
// e.g. 1234 -> "1,234.00"
func formatAmount(d decimal.Decimal) string {
	return amountPrinter.Sprintf("%.2f", d.Round(2).InexactFloat64())
}

var markdownEscaper = strings.NewReplacer(
	"_", "\\_",
	"*", "\\*",
	"`", "\\`",
	"[", "\\[",
)

// escapeMarkdown escapes the characters legacy Telegram Markdown treats as
// entity delimiters
func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}

// InvoiceCaption is the caption sent with an invoice PDF
func InvoiceCaption(customerName, invoiceID string, grandTotal decimal.Decimal) string {
	var b strings.Builder
	b.WriteString("Assalamualaikum Bapak/Ibu ")
	b.WriteString(escapeMarkdown(customerName))
	b.WriteString(",\nBerikut adalah tagihan Anda bulan ini:\n")
	b.WriteString("🔔 *No. Inv ")
	b.WriteString(escapeMarkdown(invoiceID))
	b.WriteString("* sebesar Rp ")
	b.WriteString(formatAmount(grandTotal))
	b.WriteString("\n")
	return b.String()
}

// PaymentConfirmation is the text sent when a payment entry is submitted
func PaymentConfirmation(customerName, invoiceID string, amount decimal.Decimal) string {
	var b strings.Builder
	b.WriteString("Assalamualaikum Bapak/Ibu ")
	b.WriteString(escapeMarkdown(customerName))
	b.WriteString(",\nPembayaran Anda sebesar Rp ")
	b.WriteString(formatAmount(amount))
	if invoiceID != "" {
		b.WriteString(" telah kami terima.\n✅ *No. Inv ")
		b.WriteString(escapeMarkdown(invoiceID))
		b.WriteString("*\n")
	} else {
		b.WriteString(" telah kami terima sebagai deposit.\n")
	}
	b.WriteString("Terima kasih.")
	return b.String()
}
