package models

import "time"

type OKResponse struct {
	OK      bool   `json:"ok"`
	Ignored string `json:"ignored,omitempty"`
}

type OrderView struct {
	ID          string    `json:"id"`
	Reference   string    `json:"reference"`
	Email       string    `json:"email,omitempty"`
	Name        string    `json:"nome,omitempty"`
	Status      string    `json:"status"`
	StatusLabel string    `json:"status_label"`
	StatusClass string    `json:"status_class"`
	CreatedAt   time.Time `json:"created_at"`
	CreatedAtBR string    `json:"created_at_display"`
}

type OrderListResponse struct {
	Orders []OrderView `json:"orders"`
}

type HealthResponse struct {
	Status string `json:"status"`
}
