package middleware

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/velora-hq/velora-hcm/modules/core/domain/aggregates/user"
	"github.com/velora-hq/velora-hcm/modules/core/services"
	"github.com/velora-hq/velora-hcm/pkg/composables"
	"github.com/velora-hq/velora-hcm/pkg/httpapi"
)

// ResolveActor authenticates the caller from the X-Actor-Id header and
// scopes the request to the actor's tenant. All downstream reads and
// writes carry that tenant.
func ResolveActor(directory *services.DirectoryService) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := ""
			if params, ok := composables.UseParams(r.Context()); ok {
				requestID = params.RequestID
			}

			raw := r.Header.Get("X-Actor-Id")
			if raw == "" {
				httpapi.WriteError(w, http.StatusUnauthorized, requestID, "LC_NO_ACTOR", "X-Actor-Id header is required")
				return
			}
			actorID, err := uuid.Parse(raw)
			if err != nil {
				httpapi.WriteError(w, http.StatusUnauthorized, requestID, "LC_NO_ACTOR", "X-Actor-Id must be a UUID")
				return
			}

			tenantID, err := directory.ResolveTenant(r.Context(), actorID)
			if err != nil {
				if errors.Is(err, user.ErrNotFound) {
					httpapi.WriteError(w, http.StatusUnauthorized, requestID, "LC_NO_ACTOR", "unknown actor")
					return
				}
				httpapi.WriteError(w, http.StatusInternalServerError, requestID, "LC_INTERNAL", "failed to resolve actor")
				return
			}

			ctx := composables.WithActorID(r.Context(), actorID)
			ctx = composables.WithTenantID(ctx, tenantID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
