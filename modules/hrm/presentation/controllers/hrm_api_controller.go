package controllers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	coreservices "github.com/velora-hq/velora-hcm/modules/core/services"
	"github.com/velora-hq/velora-hcm/modules/hrm/domain/aggregates/employee"
	"github.com/velora-hq/velora-hcm/modules/hrm/domain/entities/termination"
	"github.com/velora-hq/velora-hcm/modules/hrm/services"
	"github.com/velora-hq/velora-hcm/pkg/composables"
	"github.com/velora-hq/velora-hcm/pkg/httpapi"
	"github.com/velora-hq/velora-hcm/pkg/middleware"
	"github.com/velora-hq/velora-hcm/pkg/serrors"
)

// HRMAPIController exposes the employee directory and offboarding
// operations consumed by HR tooling. The lifecycle workflow reads the
// same records through its own services.
type HRMAPIController struct {
	employees   *services.EmployeeService
	offboarding *services.OffboardingService
	directory   *coreservices.DirectoryService
	apiPrefix   string
}

func NewHRMAPIController(
	employees *services.EmployeeService,
	offboarding *services.OffboardingService,
	directory *coreservices.DirectoryService,
) *HRMAPIController {
	return &HRMAPIController{
		employees:   employees,
		offboarding: offboarding,
		directory:   directory,
		apiPrefix:   "/hrm/api",
	}
}

func (c *HRMAPIController) Key() string {
	return c.apiPrefix
}

func (c *HRMAPIController) Register(r *mux.Router) {
	api := r.PathPrefix(c.apiPrefix).Subrouter()
	api.Use(middleware.ResolveActor(c.directory))

	api.HandleFunc("/employees", c.CreateEmployee).Methods(http.MethodPost)
	api.HandleFunc("/employees", c.ListEmployees).Methods(http.MethodGet)
	api.HandleFunc("/employees/{id}", c.GetEmployee).Methods(http.MethodGet)
	api.HandleFunc("/employees/{id}:terminate", c.TerminateEmployee).Methods(http.MethodPost)
	api.HandleFunc("/employees/{id}/termination", c.GetLatestTermination).Methods(http.MethodGet)
}

type employeeResponse struct {
	ID                 string          `json:"id"`
	TenantID           string          `json:"tenant_id"`
	Pernr              string          `json:"pernr"`
	FirstName          string          `json:"first_name"`
	LastName           string          `json:"last_name"`
	Email              string          `json:"email"`
	Designation        string          `json:"designation,omitempty"`
	Grade              string          `json:"grade,omitempty"`
	Department         string          `json:"department,omitempty"`
	Compensation       decimal.Decimal `json:"compensation"`
	ReportingManagerID *string         `json:"reporting_manager_id,omitempty"`
	Active             bool            `json:"active"`
	CreatedAt          string          `json:"created_at"`
	UpdatedAt          string          `json:"updated_at"`
}

func toEmployeeResponse(e *employee.Employee) employeeResponse {
	resp := employeeResponse{
		ID:           e.ID().String(),
		TenantID:     e.TenantID().String(),
		Pernr:        e.Pernr(),
		FirstName:    e.FirstName(),
		LastName:     e.LastName(),
		Email:        e.Email(),
		Designation:  e.Designation(),
		Grade:        e.Grade(),
		Department:   e.Department(),
		Compensation: e.Compensation(),
		Active:       e.IsActive(),
		CreatedAt:    e.CreatedAt().UTC().Format(time.RFC3339),
		UpdatedAt:    e.UpdatedAt().UTC().Format(time.RFC3339),
	}
	if mgr := e.ReportingManagerID(); mgr != nil {
		v := mgr.String()
		resp.ReportingManagerID = &v
	}
	return resp
}

type terminationResponse struct {
	ID             string  `json:"id"`
	SubjectID      string  `json:"subject_id"`
	Type           string  `json:"type"`
	Reason         string  `json:"reason,omitempty"`
	LastWorkingDay *string `json:"last_working_day,omitempty"`
	RecordedAt     string  `json:"recorded_at"`
}

func toTerminationResponse(rec *termination.Record) terminationResponse {
	resp := terminationResponse{
		ID:         rec.ID.String(),
		SubjectID:  rec.SubjectID.String(),
		Type:       string(rec.Type),
		Reason:     rec.Reason,
		RecordedAt: rec.RecordedAt.UTC().Format(time.RFC3339),
	}
	if rec.LastWorkingDay != nil {
		v := rec.LastWorkingDay.UTC().Format("2006-01-02")
		resp.LastWorkingDay = &v
	}
	return resp
}

func (c *HRMAPIController) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	_, requestID, ok := requireActor(w, r)
	if !ok {
		return
	}

	var dto employee.CreateDTO
	if err := decodeJSON(r.Body, &dto); err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "HRM_INVALID_BODY", "malformed request body")
		return
	}

	created, err := c.employees.Create(r.Context(), &dto)
	if err != nil {
		writeHRMError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusCreated, toEmployeeResponse(created))
}

func (c *HRMAPIController) ListEmployees(w http.ResponseWriter, r *http.Request) {
	_, requestID, ok := requireActor(w, r)
	if !ok {
		return
	}

	params := &employee.FindParams{Limit: 50}
	q := r.URL.Query()
	params.Q = strings.TrimSpace(q.Get("q"))
	params.Department = strings.TrimSpace(q.Get("department"))
	if v := q.Get("active"); v != "" {
		active, err := strconv.ParseBool(v)
		if err != nil {
			writeAPIError(w, http.StatusBadRequest, requestID, "HRM_INVALID_QUERY", "active is invalid")
			return
		}
		params.Active = &active
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 200 {
			writeAPIError(w, http.StatusBadRequest, requestID, "HRM_INVALID_QUERY", "limit is invalid")
			return
		}
		params.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeAPIError(w, http.StatusBadRequest, requestID, "HRM_INVALID_QUERY", "offset is invalid")
			return
		}
		params.Offset = n
	}

	items, total, err := c.employees.GetPaginated(r.Context(), params)
	if err != nil {
		writeHRMError(w, requestID, err)
		return
	}

	type listResponse struct {
		Total int64              `json:"total"`
		Items []employeeResponse `json:"items"`
	}
	resp := listResponse{Total: total, Items: make([]employeeResponse, 0, len(items))}
	for _, item := range items {
		resp.Items = append(resp.Items, toEmployeeResponse(item))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (c *HRMAPIController) GetEmployee(w http.ResponseWriter, r *http.Request) {
	_, requestID, ok := requireActor(w, r)
	if !ok {
		return
	}
	raw := mux.Vars(r)["id"]

	// Pernr lookups share the route: anything that is not a UUID is
	// treated as a personnel number.
	var (
		found *employee.Employee
		err   error
	)
	if id, perr := uuid.Parse(raw); perr == nil {
		found, err = c.employees.GetByID(r.Context(), id)
	} else {
		found, err = c.employees.GetByPernr(r.Context(), raw)
	}
	if err != nil {
		writeHRMError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeResponse(found))
}

type terminateBody struct {
	Type             string `json:"type"`
	Reason           string `json:"reason,omitempty"`
	LastWorkingDay   string `json:"last_working_day,omitempty"`
	RaiseDoNotRehire bool   `json:"raise_do_not_rehire,omitempty"`
	FlagReason       string `json:"flag_reason,omitempty"`
	FlagExpiresAt    string `json:"flag_expires_at,omitempty"`
}

func (c *HRMAPIController) TerminateEmployee(w http.ResponseWriter, r *http.Request) {
	_, requestID, ok := requireActor(w, r)
	if !ok {
		return
	}
	raw := mux.Vars(r)["id"]
	subjectID, err := uuid.Parse(raw)
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "HRM_INVALID_BODY", "id must be a UUID")
		return
	}

	var body terminateBody
	if err := decodeJSON(r.Body, &body); err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "HRM_INVALID_BODY", "malformed request body")
		return
	}

	input := services.TerminateInput{
		SubjectID:        subjectID,
		Type:             termination.Type(body.Type),
		Reason:           body.Reason,
		RaiseDoNotRehire: body.RaiseDoNotRehire,
		FlagReason:       body.FlagReason,
	}
	if body.LastWorkingDay != "" {
		day, derr := parseDate(body.LastWorkingDay)
		if derr != nil {
			writeAPIError(w, http.StatusBadRequest, requestID, "HRM_INVALID_BODY", "last_working_day is invalid")
			return
		}
		input.LastWorkingDay = &day
	}
	if body.FlagExpiresAt != "" {
		day, derr := parseDate(body.FlagExpiresAt)
		if derr != nil {
			writeAPIError(w, http.StatusBadRequest, requestID, "HRM_INVALID_BODY", "flag_expires_at is invalid")
			return
		}
		input.FlagExpiresAt = &day
	}

	rec, err := c.offboarding.Terminate(r.Context(), input)
	if err != nil {
		writeHRMError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTerminationResponse(rec))
}

func (c *HRMAPIController) GetLatestTermination(w http.ResponseWriter, r *http.Request) {
	_, requestID, ok := requireActor(w, r)
	if !ok {
		return
	}
	raw := mux.Vars(r)["id"]
	subjectID, err := uuid.Parse(raw)
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "HRM_INVALID_BODY", "id must be a UUID")
		return
	}

	rec, err := c.offboarding.LatestTermination(r.Context(), subjectID)
	if err != nil {
		writeHRMError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusOK, toTerminationResponse(rec))
}

// writeHRMError maps domain and validation failures onto HTTP statuses.
func writeHRMError(w http.ResponseWriter, requestID string, err error) {
	var validationErrs serrors.ValidationErrors
	if errors.As(err, &validationErrs) {
		type validationResponse struct {
			Code      string                         `json:"code"`
			Message   string                         `json:"message"`
			RequestID string                         `json:"request_id,omitempty"`
			Fields    map[string]*serrors.FieldError `json:"fields"`
		}
		writeJSON(w, http.StatusBadRequest, validationResponse{
			Code:      "HRM_VALIDATION",
			Message:   "validation failed",
			RequestID: requestID,
			Fields:    validationErrs,
		})
		return
	}
	var fieldErr *serrors.FieldError
	if errors.As(err, &fieldErr) {
		writeAPIError(w, http.StatusBadRequest, requestID, fieldErr.Code, fieldErr.Error())
		return
	}
	switch {
	case errors.Is(err, employee.ErrNotFound), errors.Is(err, termination.ErrNoRecord):
		writeAPIError(w, http.StatusNotFound, requestID, "HRM_NOT_FOUND", err.Error())
	case errors.Is(err, employee.ErrPernrTaken):
		writeAPIError(w, http.StatusConflict, requestID, "HRM_CONFLICT", err.Error())
	default:
		writeAPIError(w, http.StatusInternalServerError, requestID, "HRM_INTERNAL", err.Error())
	}
}

func requireActor(w http.ResponseWriter, r *http.Request) (uuid.UUID, string, bool) {
	requestID := ""
	if params, ok := composables.UseParams(r.Context()); ok {
		requestID = params.RequestID
	}
	actorID, err := composables.UseActorID(r.Context())
	if err != nil {
		writeAPIError(w, http.StatusUnauthorized, requestID, "LC_NO_ACTOR", "no actor in request context")
		return uuid.Nil, requestID, false
	}
	return actorID, requestID, true
}

func parseDate(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if t, err := time.Parse("2006-01-02", v); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
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
