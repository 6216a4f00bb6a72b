package domain

// Tenant is an isolated site context identified by its host name. It is
// immutable after registry load; per-tenant resources are tracked by the
// registry, never on the tenant itself.
type Tenant struct {
	HostName string            `json:"host"`
	Site     map[string]string `json:"site"`
	Service  ServiceConfig     `json:"service"`
}

// ServiceConfig describes the scoped resources a tenant owns.
type ServiceConfig struct {
	DatabaseURL string       `json:"db_url"`
	Mailer      MailerConfig `json:"mailer"`
}

// MailerConfig holds per-tenant outbound mail settings. Provider selects the
// implementation; "log" (or an empty API key) gives the development mailer
// that writes messages to the tenant log instead of sending them.
type MailerConfig struct {
	Provider string `json:"provider"`
	Domain   string `json:"domain"`
	APIKey   string `json:"api_key"`
	Sender   string `json:"sender"`
}
