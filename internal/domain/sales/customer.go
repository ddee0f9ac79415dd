package sales

// Customer is the party payments are received from.
// Units lists the house units registered to the customer.
type Customer struct {
	ID            string
	CustomerName  string
	CustomerGroup string
	Units         []string
}

// DisplayName returns the customer name, falling back to the ID
func (c *Customer) DisplayName() string {
	if c.CustomerName != "" {
		return c.CustomerName
	}
	return c.ID
}

// OwnsUnit reports whether unit is registered to the customer
func (c *Customer) OwnsUnit(unit string) bool {
	for _, u := range c.Units {
		if u == unit {
			return true
		}
	}
	return false
}

// TelegramRecipient is the chat a customer's notifications are delivered to,
// resolved through the customer's portal user.
type TelegramRecipient struct {
	CustomerID   string
	CustomerName string
	SystemUser   string
	ChatID       string
}
