package jobs

// Payloads stay minimal and ID-based; the worker loads details from the DB.

type OrderPlacedPayload struct {
	OrderID   string `json:"orderId"`
	RequestID string `json:"requestId,omitempty"`
}

type OrderStatusChangedPayload struct {
	OrderID   string `json:"orderId"`
	Status    string `json:"status"`
	ChangedBy string `json:"changedBy,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

type WelcomePayload struct {
	UserID    string `json:"userId"`
	FirstName string `json:"firstName,omitempty"`
}
