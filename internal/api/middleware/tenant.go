package middleware

import (
	"net/http"
	"strings"

	"github.com/m04kA/SMC-SchedulingService/internal/api/handlers"
)

const msgMissingTenant = "отсутствует заголовок X-Tenant-ID"

// Tenant требует заголовок X-Tenant-ID и кладет его в контекст
func Tenant(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tenantID := strings.TrimSpace(r.Header.Get(handlers.TenantHeader))
		if tenantID == "" {
			handlers.RespondBadRequest(w, msgMissingTenant)
			return
		}
		next.ServeHTTP(w, r.WithContext(handlers.WithTenantID(r.Context(), tenantID)))
	})
}
