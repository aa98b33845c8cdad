package handler

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"

	"rumor-trust-system/internal/ratelimit"
	"rumor-trust-system/internal/scheduler"
	"rumor-trust-system/internal/service"
	apperrors "rumor-trust-system/pkg/errors"
	"rumor-trust-system/pkg/logger"
)

func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

// writeAppError 按错误类别映射HTTP状态码，不检查错误消息内容
// 内部错误只返回笼统消息，不外泄细节
func writeAppError(w http.ResponseWriter, err error) {
	kind := apperrors.KindOf(err)

	status := http.StatusInternalServerError
	switch kind {
	case apperrors.KindDuplicateVote, apperrors.KindClaimResolved:
		status = http.StatusConflict
	case apperrors.KindNotFound:
		status = http.StatusNotFound
	case apperrors.KindUnauthorized:
		status = http.StatusUnauthorized
	case apperrors.KindValidation:
		status = http.StatusBadRequest
	}

	if status == http.StatusInternalServerError {
		logger.Error("internal error:", err)
		writeError(w, status, "internal server error")
		return
	}

	var appErr *apperrors.AppError
	message := err.Error()
	if errors.As(err, &appErr) {
		message = appErr.Message
	}
	writeError(w, status, message)
}

// voterID 上游身份组件注入的已认证投票人标识
// 本服务信任该值，不做二次认证
func voterID(r *http.Request) string {
	return r.Header.Get("X-Voter-ID")
}

// RateLimit 按投票人（匿名请求退回IP）限流的中间件
func RateLimit(limiter *ratelimit.Limiter, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := voterID(r)
		if key == "" {
			host, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				host = r.RemoteAddr
			}
			key = host
		}

		if !limiter.Allow(key) {
			writeError(w, http.StatusTooManyRequests, "too many requests, please try again later")
			return
		}

		next.ServeHTTP(w, r)
	})
}

type ClaimHandler struct {
	claimSvc *service.ClaimService
}

func NewClaimHandler(claimSvc *service.ClaimService) *ClaimHandler {
	return &ClaimHandler{claimSvc: claimSvc}
}

// HandleClaims 处理 /api/claims 的列表与创建
func (h *ClaimHandler) HandleClaims(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.listClaims(w, r)
	case http.MethodPost:
		h.createClaim(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (h *ClaimHandler) listClaims(w http.ResponseWriter, r *http.Request) {
	sort := r.URL.Query().Get("sort")

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	offset := (page - 1) * pageSize

	ctx := r.Context()
	claims, err := h.claimSvc.ListClaims(ctx, sort, offset, pageSize)
	if err != nil {
		writeAppError(w, err)
		return
	}

	total, err := h.claimSvc.CountClaims(ctx)
	if err != nil {
		writeAppError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"items":    claims,
		"total":    total,
		"page":     page,
		"pageSize": pageSize,
	})
}

func (h *ClaimHandler) createClaim(w http.ResponseWriter, r *http.Request) {
	if voterID(r) == "" {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var body struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	claim, err := h.claimSvc.CreateClaim(r.Context(), body.Content)
	if err != nil {
		writeAppError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, claim)
}

// HandleClaimByID 处理 /api/claims/{id} 与 /api/claims/{id}/evidence
func (h *ClaimHandler) HandleClaimByID(w http.ResponseWriter, r *http.Request) {
	pathParts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(pathParts) < 3 {
		writeError(w, http.StatusBadRequest, "invalid path format, expected /api/claims/{id}")
		return
	}

	id, err := strconv.ParseUint(pathParts[2], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "claim id must be numeric")
		return
	}

	if len(pathParts) == 4 && pathParts[3] == "evidence" {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		h.createEvidence(w, r, id)
		return
	}

	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	detail, err := h.claimSvc.GetClaim(r.Context(), id)
	if err != nil {
		writeAppError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, detail)
}

func (h *ClaimHandler) createEvidence(w http.ResponseWriter, r *http.Request, claimID uint64) {
	if voterID(r) == "" {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var body struct {
		Content      string `json:"content"`
		URL          string `json:"url"`
		IsSupporting bool   `json:"is_supporting"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	evidence, err := h.claimSvc.CreateEvidence(r.Context(), claimID, body.Content, body.URL, body.IsSupporting)
	if err != nil {
		writeAppError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, evidence)
}

type VoteHandler struct {
	voteSvc *service.VoteService
}

func NewVoteHandler(voteSvc *service.VoteService) *VoteHandler {
	return &VoteHandler{voteSvc: voteSvc}
}

// HandleVote 处理 /api/evidence/{id}/vote
func (h *VoteHandler) HandleVote(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	voter := voterID(r)
	if voter == "" {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	pathParts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(pathParts) != 4 || pathParts[3] != "vote" {
		writeError(w, http.StatusBadRequest, "invalid path format, expected /api/evidence/{id}/vote")
		return
	}

	evidenceID, err := strconv.ParseUint(pathParts[2], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "evidence id must be numeric")
		return
	}

	var body struct {
		IsHelpful *bool `json:"is_helpful"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.IsHelpful == nil {
		writeError(w, http.StatusBadRequest, "is_helpful is required")
		return
	}

	result, err := h.voteSvc.SubmitVote(r.Context(), evidenceID, voter, *body.IsHelpful)
	if err != nil {
		writeAppError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":         true,
		"new_trust_score": result.TrustScore,
		"new_status":      result.Status,
	})
}

type ReputationHandler struct {
	reputationSvc *service.ReputationService
}

func NewReputationHandler(reputationSvc *service.ReputationService) *ReputationHandler {
	return &ReputationHandler{reputationSvc: reputationSvc}
}

// HandleStats 处理 /api/user/stats
func (h *ReputationHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	voter := voterID(r)
	if voter == "" {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	account, err := h.reputationSvc.Stats(r.Context(), voter)
	if err != nil {
		writeAppError(w, err)
		return
	}

	reputation := 0.0
	if account.TotalVotes > 0 {
		reputation = float64(account.CorrectVotes) / float64(account.TotalVotes)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"points_total":  account.PointsTotal,
		"points_staked": account.PointsStaked,
		"correct_votes": account.CorrectVotes,
		"total_votes":   account.TotalVotes,
		"reputation":    reputation,
	})
}

type AdminHandler struct {
	scheduler *scheduler.ResolutionScheduler
}

func NewAdminHandler(scheduler *scheduler.ResolutionScheduler) *AdminHandler {
	return &AdminHandler{scheduler: scheduler}
}

// HandleSweep 处理 /api/admin/sweep，手动触发一轮清扫
func (h *AdminHandler) HandleSweep(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	result, err := h.scheduler.TriggerManualSweep(r.Context())
	if err != nil {
		writeAppError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
