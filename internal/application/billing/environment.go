package billing

import (
	"fmt"
	"sync"

	"github.com/ticodev/facturele-api/internal/domain"
	pkghacienda "github.com/ticodev/facturele-api/pkg/hacienda"
)

// EnvironmentSwitch guarda el ambiente activo de emisión (sandbox o
// producción) y permite cambiarlo en caliente. Los contadores de numeración
// no se tocan al cambiar: cada ambiente tiene los suyos bajo su propio
// alcance.
type EnvironmentSwitch struct {
	mu  sync.RWMutex
	env string
}

// NewEnvironmentSwitch crea el conmutador con el ambiente inicial. Un valor
// desconocido cae a sandbox.
func NewEnvironmentSwitch(initial string) *EnvironmentSwitch {
	if initial != pkghacienda.EnvironmentProduction {
		initial = pkghacienda.EnvironmentSandbox
	}
	return &EnvironmentSwitch{env: initial}
}

// Current devuelve el ambiente activo.
func (e *EnvironmentSwitch) Current() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.env
}

// Set cambia el ambiente activo. Solo acepta sandbox o production.
func (e *EnvironmentSwitch) Set(env string) error {
	if env != pkghacienda.EnvironmentSandbox && env != pkghacienda.EnvironmentProduction {
		return fmt.Errorf("%w: ambiente %q", domain.ErrInvalidInput, env)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.env = env
	return nil
}
