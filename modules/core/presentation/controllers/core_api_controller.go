package controllers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/velora-hq/velora-hcm/modules/core/domain/aggregates/user"
	"github.com/velora-hq/velora-hcm/modules/core/domain/entities/tenant"
	"github.com/velora-hq/velora-hcm/modules/core/services"
	"github.com/velora-hq/velora-hcm/pkg/composables"
	"github.com/velora-hq/velora-hcm/pkg/httpapi"
)

// CoreAPIController administers tenants and users. It is mounted
// without actor resolution so a fresh deployment can bootstrap its
// first tenant and admin user.
type CoreAPIController struct {
	directory *services.DirectoryService
	apiPrefix string
}

func NewCoreAPIController(directory *services.DirectoryService) *CoreAPIController {
	return &CoreAPIController{
		directory: directory,
		apiPrefix: "/core/api",
	}
}

func (c *CoreAPIController) Key() string {
	return c.apiPrefix
}

func (c *CoreAPIController) Register(r *mux.Router) {
	api := r.PathPrefix(c.apiPrefix).Subrouter()

	api.HandleFunc("/tenants", c.CreateTenant).Methods(http.MethodPost)
	api.HandleFunc("/tenants/{id}", c.GetTenant).Methods(http.MethodGet)
	api.HandleFunc("/users", c.CreateUser).Methods(http.MethodPost)
	api.HandleFunc("/users/{id}", c.GetUser).Methods(http.MethodGet)
}

type tenantResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Domain    string `json:"domain,omitempty"`
	Active    bool   `json:"active"`
	CreatedAt string `json:"created_at"`
}

func toTenantResponse(t *tenant.Tenant) tenantResponse {
	return tenantResponse{
		ID:        t.ID().String(),
		Name:      t.Name(),
		Domain:    t.Domain(),
		Active:    t.IsActive(),
		CreatedAt: t.CreatedAt().UTC().Format(time.RFC3339),
	}
}

type userResponse struct {
	ID          string   `json:"id"`
	TenantID    string   `json:"tenant_id"`
	Email       string   `json:"email"`
	DisplayName string   `json:"display_name"`
	Roles       []string `json:"roles"`
	Active      bool     `json:"active"`
	CreatedAt   string   `json:"created_at"`
}

func toUserResponse(u *user.User) userResponse {
	roles := make([]string, 0, len(u.Roles()))
	for _, role := range u.Roles() {
		roles = append(roles, string(role))
	}
	return userResponse{
		ID:          u.ID().String(),
		TenantID:    u.TenantID().String(),
		Email:       u.Email(),
		DisplayName: u.DisplayName(),
		Roles:       roles,
		Active:      u.IsActive(),
		CreatedAt:   u.CreatedAt().UTC().Format(time.RFC3339),
	}
}

func (c *CoreAPIController) CreateTenant(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFrom(r)

	var body struct {
		Name   string `json:"name"`
		Domain string `json:"domain,omitempty"`
	}
	if err := decodeJSON(r.Body, &body); err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "CORE_INVALID_BODY", "malformed request body")
		return
	}
	if body.Name == "" {
		writeAPIError(w, http.StatusBadRequest, requestID, "CORE_INVALID_BODY", "name is required")
		return
	}

	created, err := c.directory.CreateTenant(r.Context(), tenant.New(body.Name, body.Domain))
	if err != nil {
		writeAPIError(w, http.StatusInternalServerError, requestID, "CORE_INTERNAL", err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, toTenantResponse(created))
}

func (c *CoreAPIController) GetTenant(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFrom(r)
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "CORE_INVALID_BODY", "id must be a UUID")
		return
	}
	t, err := c.directory.GetTenant(r.Context(), id)
	if err != nil {
		writeAPIError(w, http.StatusNotFound, requestID, "CORE_NOT_FOUND", "tenant not found")
		return
	}
	writeJSON(w, http.StatusOK, toTenantResponse(t))
}

func (c *CoreAPIController) CreateUser(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFrom(r)

	var body struct {
		TenantID    string   `json:"tenant_id"`
		Email       string   `json:"email"`
		DisplayName string   `json:"display_name"`
		Roles       []string `json:"roles"`
	}
	if err := decodeJSON(r.Body, &body); err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "CORE_INVALID_BODY", "malformed request body")
		return
	}
	tenantID, err := uuid.Parse(body.TenantID)
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "CORE_INVALID_BODY", "tenant_id must be a UUID")
		return
	}
	if body.Email == "" {
		writeAPIError(w, http.StatusBadRequest, requestID, "CORE_INVALID_BODY", "email is required")
		return
	}
	roles := make([]user.Role, 0, len(body.Roles))
	for _, raw := range body.Roles {
		role := user.Role(raw)
		switch role {
		case user.RoleAdmin, user.RoleHR, user.RoleManager, user.RoleRecruiter, user.RoleEmployee:
			roles = append(roles, role)
		default:
			writeAPIError(w, http.StatusBadRequest, requestID, "CORE_INVALID_BODY", "unknown role "+raw)
			return
		}
	}

	created, err := c.directory.CreateUser(r.Context(), user.New(tenantID, body.Email, body.DisplayName, roles))
	if err != nil {
		writeAPIError(w, http.StatusInternalServerError, requestID, "CORE_INTERNAL", err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, toUserResponse(created))
}

func (c *CoreAPIController) GetUser(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFrom(r)
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "CORE_INVALID_BODY", "id must be a UUID")
		return
	}
	u, err := c.directory.GetUser(r.Context(), id)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			writeAPIError(w, http.StatusNotFound, requestID, "CORE_NOT_FOUND", "user not found")
			return
		}
		writeAPIError(w, http.StatusInternalServerError, requestID, "CORE_INTERNAL", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(u))
}

func requestIDFrom(r *http.Request) string {
	if params, ok := composables.UseParams(r.Context()); ok {
		return params.RequestID
	}
	return ""
}

func decodeJSON(body io.ReadCloser, out any) error {
	defer func() { _ = body.Close() }()
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	return dec.Decode(out)
}

func writeAPIError(w http.ResponseWriter, status int, requestID, code, message string) {
	_ = httpapi.WriteError(w, status, requestID, code, message)
}

func writeJSON[T any](w http.ResponseWriter, status int, payload T) {
	_ = httpapi.WriteJSON(w, status, payload)
}
