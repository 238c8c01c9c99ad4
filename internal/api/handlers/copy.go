package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/hbnoboa/CRM-Builder-sub000/internal/audit"
	"github.com/hbnoboa/CRM-Builder-sub000/internal/cache"
	"github.com/hbnoboa/CRM-Builder-sub000/internal/config"
	"github.com/hbnoboa/CRM-Builder-sub000/internal/copyengine"
	"github.com/hbnoboa/CRM-Builder-sub000/internal/queue"
	"github.com/hbnoboa/CRM-Builder-sub000/internal/tenant"
)

type CopyHandler struct {
	engine   *copyengine.Engine
	cache    *cache.Cache
	auditSvc *audit.Service
	queue    *queue.Client
	cfg      config.CopyConfig
}

func NewCopyHandler(engine *copyengine.Engine, c *cache.Cache, auditSvc *audit.Service, q *queue.Client, cfg config.CopyConfig) *CopyHandler {
	return &CopyHandler{engine: engine, cache: c, auditSvc: auditSvc, queue: q, cfg: cfg}
}

func (h *CopyHandler) Preview(w http.ResponseWriter, r *http.Request) {
	tenantID, err := uuid.Parse(chi.URLParam(r, "tenantID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid tenant ID"})
		return
	}

	cacheKey := "copy:preview:" + tenantID.String()
	if h.cache != nil {
		var cached copyengine.Preview
		if err := h.cache.Get(r.Context(), cacheKey, &cached); err == nil {
			writeJSON(w, http.StatusOK, cached)
			return
		}
	}

	preview, err := h.engine.Preview(r.Context(), tenantID)
	if err != nil {
		if errors.Is(err, copyengine.ErrTenantNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "tenant not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	if h.cache != nil {
		_ = h.cache.Set(r.Context(), cacheKey, preview, h.cfg.PreviewCacheTTL)
	}
	writeJSON(w, http.StatusOK, preview)
}

func (h *CopyHandler) Execute(w http.ResponseWriter, r *http.Request) {
	var req copyengine.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	result, err := h.engine.Execute(r.Context(), req)
	if err != nil {
		writeJSON(w, copyErrorStatus(err), map[string]string{"error": err.Error()})
		return
	}

	if h.cache != nil {
		_ = h.cache.Delete(r.Context(), "copy:preview:"+req.TargetTenantID.String())
	}
	if h.auditSvc != nil {
		_ = h.auditSvc.Log(r.Context(), audit.LogEntry{
			Action:       "tenant.copy",
			ResourceType: "tenant",
			ResourceID:   &req.TargetTenantID,
			Details: map[string]interface{}{
				"source":   req.SourceTenantID,
				"strategy": req.Strategy,
				"copied":   result.Copied,
				"skipped":  len(result.Skipped),
				"warnings": len(result.Warnings),
			},
			IPAddress: r.RemoteAddr,
		})
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *CopyHandler) Enqueue(w http.ResponseWriter, r *http.Request) {
	var req copyengine.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	payload := queue.TenantCopyPayload{Request: req}
	if u := tenant.UserFromContext(r.Context()); u != nil {
		payload.RequestedBy = u.Email
	}

	taskID, err := h.queue.EnqueueTenantCopy(payload)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"task_id": taskID})
}

func copyErrorStatus(err error) int {
	switch {
	case errors.Is(err, copyengine.ErrTenantNotFound):
		return http.StatusNotFound
	case errors.Is(err, copyengine.ErrSameTenant),
		errors.Is(err, copyengine.ErrEmptySelection),
		errors.Is(err, copyengine.ErrInvalidStrategy):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
