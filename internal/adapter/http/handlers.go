package http

import (
	"github.com/teamspan/agentcore/internal/service"
)

const maxRequestBodySize = 1 << 20 // 1 MB

// Handlers bundles the coordination services behind the HTTP surface.
type Handlers struct {
	Registry *service.RegistryService
	Bus      *service.BusService
	Ledger   *service.LedgerService
	Audit    *service.AuditService
}

// NewHandlers creates the handler set.
func NewHandlers(registry *service.RegistryService, bus *service.BusService, ledger *service.LedgerService, audit *service.AuditService) *Handlers {
	return &Handlers{Registry: registry, Bus: bus, Ledger: ledger, Audit: audit}
}
