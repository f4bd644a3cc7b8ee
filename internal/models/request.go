package models

import "strings"

// Hotmart webhook event names.
const (
	EventPurchaseApproved   = "PURCHASE_APPROVED"
	EventPurchaseRefunded   = "PURCHASE_REFUNDED"
	EventPurchaseChargeback = "PURCHASE_CHARGEBACK"
	EventReportReady        = "REPORT_READY"
)

type HotmartWebhook struct {
	Event string       `json:"event"`
	Data  *HotmartData `json:"data"`
}

type HotmartData struct {
	Buyer    HotmartBuyer    `json:"buyer"`
	Purchase HotmartPurchase `json:"purchase"`
}

type HotmartBuyer struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

type HotmartPurchase struct {
	Transaction string `json:"transaction"`
}

// Purchase is the normalised subset of a webhook the cascades act on.
type Purchase struct {
	Email       string
	Name        string
	Transaction string
}

// Purchase returns the normalised buyer and transaction. Email is lower-cased.
func (w *HotmartWebhook) Purchase() Purchase {
	if w.Data == nil {
		return Purchase{}
	}
	return Purchase{
		Email:       strings.ToLower(strings.TrimSpace(w.Data.Buyer.Email)),
		Name:        strings.TrimSpace(w.Data.Buyer.Name),
		Transaction: strings.TrimSpace(w.Data.Purchase.Transaction),
	}
}
