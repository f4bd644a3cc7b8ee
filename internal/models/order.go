package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrOrderNotFound    = errors.New("order not found")
	ErrIdentityNotFound = errors.New("identity not found")
	ErrIdentityExists   = errors.New("identity already registered")
	ErrInvalidToken     = errors.New("invalid token")
)

// Order status values as stored in pedidos.status.
const (
	StatusAwaitingEvidence  = "aguardando_prints"
	StatusEvidenceSubmitted = "prints_enviados"
	StatusAnalysisComplete  = "analise_concluida"
	StatusRefunded          = "reembolsado"
)

// Order is one row of pedidos.
type Order struct {
	ID                 uuid.UUID `db:"id" json:"id"`
	Email              string    `db:"email" json:"email"`
	Name               string    `db:"nome" json:"nome"`
	HotmartTransaction string    `db:"hotmart_transaction" json:"hotmart_transaction"`
	Status             string    `db:"status" json:"status"`
	CreatedAt          time.Time `db:"created_at" json:"created_at"`
}

// ShortRef is the order reference shown to customers.
func (o Order) ShortRef() string {
	id := o.ID.String()
	if len(id) < 8 {
		return id
	}
	return id[:8]
}

// NewOrder is the insert payload for pedidos.
type NewOrder struct {
	Email              string `db:"email" json:"email"`
	Name               string `db:"nome" json:"nome"`
	HotmartTransaction string `db:"hotmart_transaction" json:"hotmart_transaction"`
	Status             string `db:"status" json:"status"`
}

// Identity is an auth user as seen by this service.
type Identity struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
	Name  string    `json:"nome,omitempty"`
}
