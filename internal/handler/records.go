package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/paigang/paigang/internal/repository"
	"github.com/paigang/paigang/pkg/errors"
)

// RecordListResponse 求解记录列表响应
type RecordListResponse struct {
	Records []*repository.SolveRecord `json:"records"`
	Total   int                       `json:"total"`
	Limit   int                       `json:"limit"`
	Offset  int                       `json:"offset"`
}

// RecordDetailResponse 单条求解记录及其全部分配
type RecordDetailResponse struct {
	Record      *repository.SolveRecord       `json:"record"`
	Assignments []*repository.SolveAssignment `json:"assignments"`
}

// Records 处理 GET /api/v1/roster/records，按条件列出历史求解记录
func (h *RosterHandler) Records(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, errors.New(errors.CodeInvalidInput, "仅支持GET方法"))
		return
	}
	if h.repo == nil {
		respondError(w, errors.New(errors.CodeNotFound, "结果持久化未启用"))
		return
	}

	filter := repository.DefaultListFilter()
	q := r.URL.Query()
	if v := q.Get("org_id"); v != "" {
		orgID, err := uuid.Parse(v)
		if err != nil {
			respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "无效的组织ID格式"))
			return
		}
		filter = filter.WithOrgID(orgID)
	}
	if v := q.Get("status"); v != "" {
		filter = filter.WithStatus(v)
	}
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			filter = filter.WithLimit(n)
		}
	}
	if v := q.Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			filter.Offset = n
		}
	}

	records, total, err := h.repo.List(r.Context(), filter)
	if err != nil {
		respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "查询求解记录失败"))
		return
	}
	if records == nil {
		records = []*repository.SolveRecord{}
	}
	respondJSON(w, http.StatusOK, RecordListResponse{
		Records: records,
		Total:   total,
		Limit:   filter.Limit,
		Offset:  filter.Offset,
	})
}

// Record 处理 /api/v1/roster/records/ 下的单条记录操作
// GET latest 返回组织最近一次求解，GET {id} 返回记录详情，DELETE {id} 删除记录
func (h *RosterHandler) Record(w http.ResponseWriter, r *http.Request) {
	if h.repo == nil {
		respondError(w, errors.New(errors.CodeNotFound, "结果持久化未启用"))
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/api/v1/roster/records/")
	if rest == "latest" {
		h.latestRecord(w, r)
		return
	}

	id, err := uuid.Parse(rest)
	if err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "无效的记录ID格式"))
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.getRecord(w, r, id)
	case http.MethodDelete:
		h.deleteRecord(w, r, id)
	default:
		respondError(w, errors.New(errors.CodeInvalidInput, "不支持的方法"))
	}
}

// latestRecord 返回组织最近一次求解记录
func (h *RosterHandler) latestRecord(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, errors.New(errors.CodeInvalidInput, "仅支持GET方法"))
		return
	}
	orgID, err := uuid.Parse(r.URL.Query().Get("org_id"))
	if err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "无效的组织ID格式"))
		return
	}

	record, repoErr := h.repo.GetLatest(r.Context(), orgID)
	if repoErr != nil {
		respondError(w, errors.Wrap(repoErr, errors.CodeDatabaseError, "查询求解记录失败"))
		return
	}
	if record == nil {
		respondError(w, errors.New(errors.CodeNotFound, "该组织暂无求解记录"))
		return
	}
	respondJSON(w, http.StatusOK, record)
}

// getRecord 返回记录详情及其全部分配
func (h *RosterHandler) getRecord(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	record, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "查询求解记录失败"))
		return
	}
	if record == nil {
		respondError(w, errors.New(errors.CodeNotFound, "求解记录不存在"))
		return
	}

	assignments, err := h.repo.GetAssignments(r.Context(), id)
	if err != nil {
		respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "查询分配记录失败"))
		return
	}
	if assignments == nil {
		assignments = []*repository.SolveAssignment{}
	}
	respondJSON(w, http.StatusOK, RecordDetailResponse{Record: record, Assignments: assignments})
}

// deleteRecord 删除记录及其分配
func (h *RosterHandler) deleteRecord(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	record, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "查询求解记录失败"))
		return
	}
	if record == nil {
		respondError(w, errors.New(errors.CodeNotFound, "求解记录不存在"))
		return
	}
	if err := h.repo.Delete(r.Context(), id); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "删除求解记录失败"))
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"deleted": true,
		"id":      id.String(),
	})
}
