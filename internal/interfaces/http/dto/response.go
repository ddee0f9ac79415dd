package dto

// Response is the envelope of every API response
type Response struct {
	OK    bool       `json:"ok"`
	Data  any        `json:"data,omitempty"`
	Error *ErrorInfo `json:"error,omitempty"`
}

// ErrorInfo describes a failed request
type ErrorInfo struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// NewSuccessResponse wraps data in a success envelope
func NewSuccessResponse(data any) Response {
	return Response{OK: true, Data: data}
}

// NewErrorResponse builds a failure envelope
func NewErrorResponse(code, message, requestID string) Response {
	return Response{
		OK: false,
		Error: &ErrorInfo{
			Code:      code,
			Message:   message,
			RequestID: requestID,
		},
	}
}

// PaymentResponse is the data of a committed submission
type PaymentResponse struct {
	PaymentEntry       string `json:"payment_entry"`
	LinkedSalesInvoice string `json:"linked_sales_invoice,omitempty"`
	Message            string `json:"message"`
}

// CashReportQuery binds the report query string. Dates are YYYY-MM-DD.
type CashReportQuery struct {
	FromDate string `form:"from_date" binding:"required,datetime=2006-01-02"`
	ToDate   string `form:"to_date" binding:"required,datetime=2006-01-02"`
	Account  string `form:"account" binding:"omitempty,max=140"`
}

// CustomerUnitsResponse lists the house units of one customer
type CustomerUnitsResponse struct {
	Customer string   `json:"customer"`
	Units    []string `json:"units"`
}

// InvoiceNotificationResponse acknowledges a queued invoice notification
type InvoiceNotificationResponse struct {
	SalesInvoice string `json:"sales_invoice"`
	Queued       bool   `json:"queued"`
}

// HealthResponse reports service liveness
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}
