package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates/*.html
var templatesFS embed.FS

// Branding is the fixed chrome around every email.
type Branding struct {
	LogoURL      string
	SiteURL      string
	ContactEmail string
}

// Notification is a single call-to-action email.
type Notification struct {
	Heading     string
	Body        string
	ActionLabel string
	ActionURL   string
}

// removedCategories lists what an account deletion erases.
var removedCategories = []string{
	"Prints de conversas enviados",
	"Respostas do questionário",
	"Relatórios gerados",
	"Dados de pedidos",
	"Conta de acesso",
}

type page struct {
	Brand       Branding
	Heading     string
	Body        string
	Footnote    string
	ActionLabel string
	ActionURL   string
	Removed     []string
}

type Renderer struct {
	brand          Branding
	notification   *template.Template
	accountDeleted *template.Template
}

func NewRenderer(brand Branding) (*Renderer, error) {
	notification, err := template.ParseFS(templatesFS, "templates/layout.html", "templates/notification.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse notification template: %w", err)
	}
	accountDeleted, err := template.ParseFS(templatesFS, "templates/layout.html", "templates/account_deleted.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse account deleted template: %w", err)
	}
	return &Renderer{
		brand:          brand,
		notification:   notification,
		accountDeleted: accountDeleted,
	}, nil
}

func (r *Renderer) RenderNotification(n Notification) (string, error) {
	return r.execute(r.notification, page{
		Brand:       r.brand,
		Heading:     n.Heading,
		Body:        n.Body,
		Footnote:    "Dúvidas? Fale com a gente em",
		ActionLabel: n.ActionLabel,
		ActionURL:   n.ActionURL,
	})
}

// RenderAccountDeleted renders the deletion confirmation. It has no button.
func (r *Renderer) RenderAccountDeleted(name string) (string, error) {
	body := "Seus dados foram removidos da plataforma REAL 4D conforme sua solicitação, em conformidade com a Lei Geral de Proteção de Dados (LGPD)."
	if name != "" {
		body = "Olá " + name + ", seus dados foram removidos da plataforma REAL 4D conforme sua solicitação, em conformidade com a Lei Geral de Proteção de Dados (LGPD)."
	}
	return r.execute(r.accountDeleted, page{
		Brand:    r.brand,
		Heading:  "Conta excluída",
		Body:     body,
		Footnote: "Se você não solicitou esta exclusão, entre em contato conosco em",
		Removed:  removedCategories,
	})
}

func (r *Renderer) execute(t *template.Template, data page) (string, error) {
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		return "", fmt.Errorf("failed to render email: %w", err)
	}
	return buf.String(), nil
}
