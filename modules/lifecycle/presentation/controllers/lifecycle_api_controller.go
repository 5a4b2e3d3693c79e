package controllers

import (
	"context"
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
	"github.com/velora-hq/velora-hcm/modules/lifecycle/domain/changerequest"
	"github.com/velora-hq/velora-hcm/modules/lifecycle/domain/entities/auditlog"
	"github.com/velora-hq/velora-hcm/modules/lifecycle/services"
	"github.com/velora-hq/velora-hcm/pkg/composables"
	"github.com/velora-hq/velora-hcm/pkg/httpapi"
	"github.com/velora-hq/velora-hcm/pkg/middleware"
)

// LifecycleAPIController exposes the change-request workflow over JSON.
// Actor and tenant identity are established by the middleware chain
// before any handler runs.
type LifecycleAPIController struct {
	workflow      *services.WorkflowService
	scheduler     *services.SchedulerService
	notifications *services.NotificationService
	audit         *services.AuditLogService
	directory     *coreservices.DirectoryService
	apiPrefix     string
}

func NewLifecycleAPIController(
	workflow *services.WorkflowService,
	scheduler *services.SchedulerService,
	notifications *services.NotificationService,
	audit *services.AuditLogService,
	directory *coreservices.DirectoryService,
) *LifecycleAPIController {
	return &LifecycleAPIController{
		workflow:      workflow,
		scheduler:     scheduler,
		notifications: notifications,
		audit:         audit,
		directory:     directory,
		apiPrefix:     "/lifecycle/api",
	}
}

func (c *LifecycleAPIController) Key() string {
	return c.apiPrefix
}

func (c *LifecycleAPIController) Register(r *mux.Router) {
	api := r.PathPrefix(c.apiPrefix).Subrouter()
	api.Use(middleware.ResolveActor(c.directory))

	api.HandleFunc("/requests", c.CreateRequest).Methods(http.MethodPost)
	api.HandleFunc("/requests", c.ListRequests).Methods(http.MethodGet)
	api.HandleFunc("/requests/{id}", c.GetRequest).Methods(http.MethodGet)
	api.HandleFunc("/requests/{id}", c.UpdateRequest).Methods(http.MethodPatch)
	api.HandleFunc("/requests/{id}:submit", c.SubmitRequest).Methods(http.MethodPost)
	api.HandleFunc("/requests/{id}:approve", c.ApproveRequest).Methods(http.MethodPost)
	api.HandleFunc("/requests/{id}:reject", c.RejectRequest).Methods(http.MethodPost)
	api.HandleFunc("/requests/{id}:advance", c.AdvanceRequest).Methods(http.MethodPost)
	api.HandleFunc("/requests/{id}:decide", c.DecideRequest).Methods(http.MethodPost)
	api.HandleFunc("/requests/{id}:reevaluate", c.ReevaluateRequest).Methods(http.MethodPost)
	api.HandleFunc("/requests/{id}/decisions", c.ListDecisions).Methods(http.MethodGet)

	api.HandleFunc("/subjects/{id}/notifications", c.ListNotifications).Methods(http.MethodGet)
	api.HandleFunc("/notifications/{id}:read", c.MarkNotificationRead).Methods(http.MethodPost)
	api.HandleFunc("/audit", c.ListAuditLog).Methods(http.MethodGet)

	api.HandleFunc("/sweep", c.RunSweep).Methods(http.MethodPost)
}

type verdictResponse struct {
	Status      string `json:"status"`
	ReasonCode  string `json:"reason_code,omitempty"`
	EvaluatedAt string `json:"evaluated_at"`
}

type changeRequestResponse struct {
	ID            string           `json:"id"`
	TenantID      string           `json:"tenant_id"`
	Kind          string           `json:"kind"`
	SubjectID     string           `json:"subject_id"`
	RequesterID   string           `json:"requester_id"`
	Status        string           `json:"status"`
	SchemaVersion int              `json:"schema_version"`
	Payload       json.RawMessage  `json:"payload"`
	EffectiveDate string           `json:"effective_date"`
	Applied       bool             `json:"applied"`
	AppliedAt     *string          `json:"applied_at,omitempty"`
	Eligibility   *verdictResponse `json:"eligibility,omitempty"`
	CreatedAt     string           `json:"created_at"`
	UpdatedAt     string           `json:"updated_at"`
}

type decisionResponse struct {
	ID         string `json:"id"`
	RequestID  string `json:"request_id"`
	ActorID    string `json:"actor_id"`
	Action     string `json:"action"`
	Note       string `json:"note,omitempty"`
	FromStatus string `json:"from_status"`
	ToStatus   string `json:"to_status"`
	CreatedAt  string `json:"created_at"`
}

func toVerdictResponse(v *changerequest.Verdict) *verdictResponse {
	if v == nil {
		return nil
	}
	return &verdictResponse{
		Status:      string(v.Status),
		ReasonCode:  v.ReasonCode,
		EvaluatedAt: v.EvaluatedAt.UTC().Format(time.RFC3339),
	}
}

func toChangeRequestResponse(req *changerequest.ChangeRequest) changeRequestResponse {
	resp := changeRequestResponse{
		ID:            req.ID.String(),
		TenantID:      req.TenantID.String(),
		Kind:          string(req.Kind),
		SubjectID:     req.SubjectID.String(),
		RequesterID:   req.RequesterID.String(),
		Status:        string(req.Status),
		SchemaVersion: req.SchemaVersion,
		Payload:       req.Payload,
		EffectiveDate: req.EffectiveDate.UTC().Format("2006-01-02"),
		Applied:       req.Applied,
		Eligibility:   toVerdictResponse(req.Eligibility),
		CreatedAt:     req.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:     req.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if req.AppliedAt != nil {
		v := req.AppliedAt.UTC().Format(time.RFC3339)
		resp.AppliedAt = &v
	}
	return resp
}

func toDecisionResponse(e *changerequest.DecisionEntry) decisionResponse {
	return decisionResponse{
		ID:         e.ID.String(),
		RequestID:  e.RequestID.String(),
		ActorID:    e.ActorID.String(),
		Action:     string(e.Action),
		Note:       e.Note,
		FromStatus: string(e.FromStatus),
		ToStatus:   string(e.ToStatus),
		CreatedAt:  e.CreatedAt.UTC().Format(time.RFC3339),
	}
}

type createRequestBody struct {
	Kind      string `json:"kind"`
	SubjectID string `json:"subject_id"`

	// Promotion fields.
	EffectiveDate string          `json:"effective_date,omitempty"`
	Designation   string          `json:"designation,omitempty"`
	Grade         string          `json:"grade,omitempty"`
	Department    string          `json:"department,omitempty"`
	Compensation  decimal.Decimal `json:"compensation,omitempty"`
	Reason        string          `json:"reason,omitempty"`

	// Rehire fields.
	RequestedStartDate  string `json:"requested_start_date,omitempty"`
	PriorTerminationID  string `json:"prior_termination_id,omitempty"`
	ProposedDesignation string `json:"proposed_designation,omitempty"`
	ProposedDepartment  string `json:"proposed_department,omitempty"`
}

func (c *LifecycleAPIController) CreateRequest(w http.ResponseWriter, r *http.Request) {
	actorID, requestID, ok := requireActor(w, r)
	if !ok {
		return
	}

	var body createRequestBody
	if err := decodeJSON(r.Body, &body); err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, services.CodeInvalidBody, "malformed request body")
		return
	}
	subjectID, err := uuid.Parse(body.SubjectID)
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, services.CodeInvalidBody, "subject_id must be a UUID")
		return
	}

	var req *changerequest.ChangeRequest
	switch changerequest.Kind(body.Kind) {
	case changerequest.KindPromotion:
		effectiveDate, derr := parseDate(body.EffectiveDate)
		if derr != nil {
			writeAPIError(w, http.StatusBadRequest, requestID, services.CodeInvalidBody, "effective_date is invalid")
			return
		}
		req, err = c.workflow.CreatePromotion(r.Context(), actorID, &services.CreatePromotionDTO{
			SubjectID:     subjectID,
			EffectiveDate: effectiveDate,
			Designation:   body.Designation,
			Grade:         body.Grade,
			Department:    body.Department,
			Compensation:  body.Compensation,
			Reason:        body.Reason,
		})
	case changerequest.KindRehire:
		startDate, derr := parseDate(body.RequestedStartDate)
		if derr != nil {
			writeAPIError(w, http.StatusBadRequest, requestID, services.CodeInvalidBody, "requested_start_date is invalid")
			return
		}
		var priorTermination *uuid.UUID
		if body.PriorTerminationID != "" {
			id, perr := uuid.Parse(body.PriorTerminationID)
			if perr != nil {
				writeAPIError(w, http.StatusBadRequest, requestID, services.CodeInvalidBody, "prior_termination_id must be a UUID")
				return
			}
			priorTermination = &id
		}
		req, err = c.workflow.CreateRehire(r.Context(), actorID, &services.CreateRehireDTO{
			SubjectID:           subjectID,
			RequestedStartDate:  startDate,
			PriorTerminationID:  priorTermination,
			ProposedDesignation: body.ProposedDesignation,
			ProposedDepartment:  body.ProposedDepartment,
		})
	default:
		writeAPIError(w, http.StatusBadRequest, requestID, services.CodeInvalidBody, "kind must be promotion or rehire")
		return
	}
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusCreated, toChangeRequestResponse(req))
}

func (c *LifecycleAPIController) ListRequests(w http.ResponseWriter, r *http.Request) {
	_, requestID, ok := requireActor(w, r)
	if !ok {
		return
	}

	params := &changerequest.FindParams{Limit: 50}
	q := r.URL.Query()
	if v := strings.TrimSpace(q.Get("kind")); v != "" {
		kind := changerequest.Kind(v)
		if kind != changerequest.KindPromotion && kind != changerequest.KindRehire {
			writeAPIError(w, http.StatusBadRequest, requestID, services.CodeInvalidBody, "kind is invalid")
			return
		}
		params.Kind = kind
	}
	if v := strings.TrimSpace(q.Get("status")); v != "" {
		params.Status = changerequest.Status(v)
	}
	if v := strings.TrimSpace(q.Get("subject_id")); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			writeAPIError(w, http.StatusBadRequest, requestID, services.CodeInvalidBody, "subject_id must be a UUID")
			return
		}
		params.SubjectID = id
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 200 {
			writeAPIError(w, http.StatusBadRequest, requestID, services.CodeInvalidBody, "limit is invalid")
			return
		}
		params.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeAPIError(w, http.StatusBadRequest, requestID, services.CodeInvalidBody, "offset is invalid")
			return
		}
		params.Offset = n
	}

	items, total, err := c.workflow.ListRequests(r.Context(), params)
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}

	type listResponse struct {
		Total int64                   `json:"total"`
		Items []changeRequestResponse `json:"items"`
	}
	resp := listResponse{Total: total, Items: make([]changeRequestResponse, 0, len(items))}
	for _, item := range items {
		resp.Items = append(resp.Items, toChangeRequestResponse(item))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (c *LifecycleAPIController) GetRequest(w http.ResponseWriter, r *http.Request) {
	_, requestID, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, requestID)
	if !ok {
		return
	}
	req, err := c.workflow.GetRequest(r.Context(), id)
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusOK, toChangeRequestResponse(req))
}

type updateRequestBody struct {
	Payload       json.RawMessage `json:"payload"`
	EffectiveDate string          `json:"effective_date"`
}

func (c *LifecycleAPIController) UpdateRequest(w http.ResponseWriter, r *http.Request) {
	actorID, requestID, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, requestID)
	if !ok {
		return
	}

	var body updateRequestBody
	if err := decodeJSON(r.Body, &body); err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, services.CodeInvalidBody, "malformed request body")
		return
	}
	if len(body.Payload) == 0 {
		writeAPIError(w, http.StatusBadRequest, requestID, services.CodeInvalidBody, "payload is required")
		return
	}
	effectiveDate, err := parseDate(body.EffectiveDate)
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, services.CodeInvalidBody, "effective_date is invalid")
		return
	}

	req, err := c.workflow.UpdatePayload(r.Context(), actorID, id, body.Payload, effectiveDate)
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusOK, toChangeRequestResponse(req))
}

type noteBody struct {
	Note   string `json:"note,omitempty"`
	Reason string `json:"reason,omitempty"`
}

func (b noteBody) text() string {
	if b.Reason != "" {
		return b.Reason
	}
	return b.Note
}

func (c *LifecycleAPIController) SubmitRequest(w http.ResponseWriter, r *http.Request) {
	c.handleTransition(w, r, c.workflow.Submit)
}

func (c *LifecycleAPIController) ApproveRequest(w http.ResponseWriter, r *http.Request) {
	c.handleTransition(w, r, c.workflow.Approve)
}

func (c *LifecycleAPIController) RejectRequest(w http.ResponseWriter, r *http.Request) {
	c.handleTransition(w, r, c.workflow.Reject)
}

func (c *LifecycleAPIController) AdvanceRequest(w http.ResponseWriter, r *http.Request) {
	c.handleTransition(w, r, c.workflow.Advance)
}

// DecideRequest is the generic decision entry point: reject closes the
// request, anything else advances it one step.
func (c *LifecycleAPIController) DecideRequest(w http.ResponseWriter, r *http.Request) {
	actorID, requestID, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, requestID)
	if !ok {
		return
	}

	var body struct {
		Action string `json:"action"`
		Note   string `json:"note,omitempty"`
		Reason string `json:"reason,omitempty"`
	}
	if err := decodeJSON(r.Body, &body); err != nil && !errors.Is(err, io.EOF) {
		writeAPIError(w, http.StatusBadRequest, requestID, services.CodeInvalidBody, "malformed request body")
		return
	}

	note := body.Note
	if body.Reason != "" {
		note = body.Reason
	}

	var (
		req *changerequest.ChangeRequest
		err error
	)
	switch body.Action {
	case "reject":
		req, err = c.workflow.Reject(r.Context(), actorID, id, note)
	case "", "advance", "approve":
		req, err = c.workflow.Advance(r.Context(), actorID, id, note)
	default:
		writeAPIError(w, http.StatusBadRequest, requestID, services.CodeInvalidBody, "action must be advance or reject")
		return
	}
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusOK, toChangeRequestResponse(req))
}

func (c *LifecycleAPIController) handleTransition(
	w http.ResponseWriter,
	r *http.Request,
	op func(ctx context.Context, actorID, requestID uuid.UUID, note string) (*changerequest.ChangeRequest, error),
) {
	actorID, requestID, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, requestID)
	if !ok {
		return
	}

	var body noteBody
	if r.Body != nil && r.Body != http.NoBody {
		if err := decodeJSON(r.Body, &body); err != nil && !errors.Is(err, io.EOF) {
			writeAPIError(w, http.StatusBadRequest, requestID, services.CodeInvalidBody, "malformed request body")
			return
		}
	}

	req, err := op(r.Context(), actorID, id, body.text())
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusOK, toChangeRequestResponse(req))
}

func (c *LifecycleAPIController) ReevaluateRequest(w http.ResponseWriter, r *http.Request) {
	actorID, requestID, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, requestID)
	if !ok {
		return
	}
	verdict, err := c.workflow.ReevaluateEligibility(r.Context(), actorID, id)
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusOK, toVerdictResponse(verdict))
}

func (c *LifecycleAPIController) ListDecisions(w http.ResponseWriter, r *http.Request) {
	_, requestID, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, requestID)
	if !ok {
		return
	}
	entries, err := c.workflow.ListDecisions(r.Context(), id)
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}

	type decisionsResponse struct {
		Items []decisionResponse `json:"items"`
	}
	resp := decisionsResponse{Items: make([]decisionResponse, 0, len(entries))}
	for _, e := range entries {
		resp.Items = append(resp.Items, toDecisionResponse(e))
	}
	writeJSON(w, http.StatusOK, resp)
}

type notificationResponse struct {
	ID        string  `json:"id"`
	SubjectID string  `json:"subject_id"`
	Title     string  `json:"title"`
	Message   string  `json:"message,omitempty"`
	Category  string  `json:"category"`
	CreatedAt string  `json:"created_at"`
	ReadAt    *string `json:"read_at,omitempty"`
}

func (c *LifecycleAPIController) ListNotifications(w http.ResponseWriter, r *http.Request) {
	_, requestID, ok := requireActor(w, r)
	if !ok {
		return
	}
	subjectID, ok := pathUUID(w, r, requestID)
	if !ok {
		return
	}
	limit, offset, ok := pageParams(w, r, requestID)
	if !ok {
		return
	}

	items, err := c.notifications.ListForSubject(r.Context(), subjectID, limit, offset)
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}

	type listResponse struct {
		Items []notificationResponse `json:"items"`
	}
	resp := listResponse{Items: make([]notificationResponse, 0, len(items))}
	for _, n := range items {
		item := notificationResponse{
			ID:        n.ID.String(),
			SubjectID: n.SubjectID.String(),
			Title:     n.Title,
			Message:   n.Message,
			Category:  string(n.Category),
			CreatedAt: n.CreatedAt.UTC().Format(time.RFC3339),
		}
		if n.ReadAt != nil {
			v := n.ReadAt.UTC().Format(time.RFC3339)
			item.ReadAt = &v
		}
		resp.Items = append(resp.Items, item)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (c *LifecycleAPIController) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	_, requestID, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, requestID)
	if !ok {
		return
	}
	if err := c.notifications.MarkRead(r.Context(), id); err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (c *LifecycleAPIController) ListAuditLog(w http.ResponseWriter, r *http.Request) {
	_, requestID, ok := requireActor(w, r)
	if !ok {
		return
	}

	params := &auditlog.FindParams{Limit: 50}
	q := r.URL.Query()
	params.EntityType = strings.TrimSpace(q.Get("entity_type"))
	if v := strings.TrimSpace(q.Get("entity_id")); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			writeAPIError(w, http.StatusBadRequest, requestID, services.CodeInvalidBody, "entity_id must be a UUID")
			return
		}
		params.EntityID = id
	}
	var ok2 bool
	params.Limit, params.Offset, ok2 = pageParams(w, r, requestID)
	if !ok2 {
		return
	}

	items, total, err := c.audit.GetPaginated(r.Context(), params)
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}

	type auditResponse struct {
		ID         string          `json:"id"`
		ActorID    string          `json:"actor_id"`
		Action     string          `json:"action"`
		EntityType string          `json:"entity_type"`
		EntityID   string          `json:"entity_id"`
		Details    json.RawMessage `json:"details,omitempty"`
		Reason     string          `json:"reason,omitempty"`
		CreatedAt  string          `json:"created_at"`
	}
	type listResponse struct {
		Total int64           `json:"total"`
		Items []auditResponse `json:"items"`
	}
	resp := listResponse{Total: total, Items: make([]auditResponse, 0, len(items))}
	for _, e := range items {
		resp.Items = append(resp.Items, auditResponse{
			ID:         e.ID.String(),
			ActorID:    e.ActorID.String(),
			Action:     e.Action,
			EntityType: e.EntityType,
			EntityID:   e.EntityID.String(),
			Details:    e.Details,
			Reason:     e.Reason,
			CreatedAt:  e.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func pageParams(w http.ResponseWriter, r *http.Request, requestID string) (int, int, bool) {
	limit, offset := 50, 0
	q := r.URL.Query()
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 200 {
			writeAPIError(w, http.StatusBadRequest, requestID, services.CodeInvalidBody, "limit is invalid")
			return 0, 0, false
		}
		limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeAPIError(w, http.StatusBadRequest, requestID, services.CodeInvalidBody, "offset is invalid")
			return 0, 0, false
		}
		offset = n
	}
	return limit, offset, true
}

func (c *LifecycleAPIController) RunSweep(w http.ResponseWriter, r *http.Request) {
	_, requestID, ok := requireActor(w, r)
	if !ok {
		return
	}
	stats, err := c.scheduler.RunSweep(r.Context())
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}

	type sweepResponse struct {
		Due            int `json:"due"`
		Applied        int `json:"applied"`
		AlreadyApplied int `json:"already_applied"`
		Failed         int `json:"failed"`
	}
	writeJSON(w, http.StatusOK, sweepResponse{
		Due:            stats.Due,
		Applied:        stats.Applied,
		AlreadyApplied: stats.AlreadyApplied,
		Failed:         stats.Failed,
	})
}

func pathUUID(w http.ResponseWriter, r *http.Request, requestID string) (uuid.UUID, bool) {
	raw := mux.Vars(r)["id"]
	id, err := uuid.Parse(raw)
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, services.CodeInvalidBody, "id must be a UUID")
		return uuid.Nil, false
	}
	return id, true
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
	if v == "" {
		return time.Time{}, nil
	}
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

func writeServiceError(w http.ResponseWriter, requestID string, err error) {
	var svcErr *services.ServiceError
	if errors.As(err, &svcErr) {
		writeAPIError(w, svcErr.Status, requestID, svcErr.Code, svcErr.Message)
		return
	}
	writeAPIError(w, http.StatusInternalServerError, requestID, "LC_INTERNAL", err.Error())
}

func writeAPIError(w http.ResponseWriter, status int, requestID, code, message string) {
	_ = httpapi.WriteError(w, status, requestID, code, message)
}

func writeJSON[T any](w http.ResponseWriter, status int, payload T) {
	_ = httpapi.WriteJSON(w, status, payload)
}
