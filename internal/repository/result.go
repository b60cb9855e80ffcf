package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/paigang/paigang/pkg/model"
)

// SolveRecord 一次求解的持久化记录
type SolveRecord struct {
	ID            uuid.UUID `json:"id"`
	OrgID         uuid.UUID `json:"org_id"`
	Status        string    `json:"status"`
	SolveTimeMs   int64     `json:"solve_time_ms"`
	ObjectiveCost int64     `json:"objective_cost"`
	TotalScore    int       `json:"total_score"`
	TotalCost     float64   `json:"total_cost"`
	CoverageRate  float64   `json:"coverage_rate"`
	FairnessScore float64   `json:"fairness_score"`
	EmployeesUsed int       `json:"employees_used"`
	Explanation   string    `json:"explanation"`
	CreatedAt     time.Time `json:"created_at"`
}

// SolveAssignment 求解记录下的单条分配
type SolveAssignment struct {
	ID         uuid.UUID `json:"id"`
	RecordID   uuid.UUID `json:"record_id"`
	ShiftID    string    `json:"shift_id"`
	EmployeeID string    `json:"employee_id"`
	Score      int       `json:"score"`
	Reasons    []string  `json:"reasons,omitempty"`
	Warnings   []string  `json:"warnings,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// ResultRepositoryInterface 求解结果仓储接口
type ResultRepositoryInterface interface {
	Save(ctx context.Context, orgID uuid.UUID, result *model.SchedulingResult) (*SolveRecord, error)
	GetByID(ctx context.Context, id uuid.UUID) (*SolveRecord, error)
	GetAssignments(ctx context.Context, recordID uuid.UUID) ([]*SolveAssignment, error)
	List(ctx context.Context, filter ListFilter) ([]*SolveRecord, int, error)
	GetLatest(ctx context.Context, orgID uuid.UUID) (*SolveRecord, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// ResultRepository 求解结果仓储实现
type ResultRepository struct {
	db DB
}

// NewResultRepository 创建求解结果仓储
func NewResultRepository(db DB) *ResultRepository {
	return &ResultRepository{db: db}
}

// Save 在单个事务中持久化求解记录与全部分配
// 任一插入失败整体回滚，不留下部分写入的记录
func (r *ResultRepository) Save(ctx context.Context, orgID uuid.UUID, result *model.SchedulingResult) (*SolveRecord, error) {
	record := &SolveRecord{
		ID:            uuid.New(),
		OrgID:         orgID,
		Status:        string(result.Status),
		SolveTimeMs:   result.SolveTimeMs,
		ObjectiveCost: result.ObjectiveCost,
		TotalScore:    result.Metrics.TotalScore,
		TotalCost:     result.Metrics.TotalCost,
		CoverageRate:  result.Metrics.CoverageRate,
		FairnessScore: result.Metrics.FairnessScore,
		EmployeesUsed: result.Metrics.EmployeesUsed,
		Explanation:   result.Explanation,
		CreatedAt:     time.Now(),
	}

	err := r.db.Transaction(ctx, func(tx *sql.Tx) error {
		return insertRecordWithAssignments(ctx, tx, record, result.Assignments)
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

// execer 事务内外通用的语句执行接口
type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// insertRecordWithAssignments 依次写入求解记录与全部分配，遇错立即返回
func insertRecordWithAssignments(ctx context.Context, ex execer, record *SolveRecord, assignments []model.Assignment) error {
	query := `
		INSERT INTO solve_records (
			id, org_id, status, solve_time_ms, objective_cost,
			total_score, total_cost, coverage_rate, fairness_score,
			employees_used, explanation, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := ex.ExecContext(ctx, query,
		record.ID, record.OrgID, record.Status, record.SolveTimeMs, record.ObjectiveCost,
		record.TotalScore, record.TotalCost, record.CoverageRate, record.FairnessScore,
		record.EmployeesUsed, record.Explanation, record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("创建求解记录失败: %w", err)
	}

	for _, a := range assignments {
		if err := insertAssignment(ctx, ex, record.ID, a); err != nil {
			return err
		}
	}
	return nil
}

// insertAssignment 写入单条分配
func insertAssignment(ctx context.Context, ex execer, recordID uuid.UUID, a model.Assignment) error {
	reasonsJSON, _ := json.Marshal(a.Reasons)
	warningsJSON, _ := json.Marshal(a.Warnings)

	query := `
		INSERT INTO solve_assignments (
			id, record_id, shift_id, employee_id, score, reasons, warnings, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := ex.ExecContext(ctx, query,
		uuid.New(), recordID, a.ShiftID, a.EmployeeID, a.Score, reasonsJSON, warningsJSON, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("创建分配记录失败: %w", err)
	}
	return nil
}

// GetByID 根据ID获取求解记录
func (r *ResultRepository) GetByID(ctx context.Context, id uuid.UUID) (*SolveRecord, error) {
	query := selectRecordColumns + " FROM solve_records WHERE id = $1"
	return scanRecord(r.db.QueryRowContext(ctx, query, id))
}

// GetLatest 获取组织最近一次求解记录
func (r *ResultRepository) GetLatest(ctx context.Context, orgID uuid.UUID) (*SolveRecord, error) {
	query := selectRecordColumns + ` FROM solve_records
		WHERE org_id = $1 ORDER BY created_at DESC LIMIT 1`
	return scanRecord(r.db.QueryRowContext(ctx, query, orgID))
}

// GetAssignments 获取求解记录下的全部分配
func (r *ResultRepository) GetAssignments(ctx context.Context, recordID uuid.UUID) ([]*SolveAssignment, error) {
	query := `
		SELECT id, record_id, shift_id, employee_id, score, reasons, warnings, created_at
		FROM solve_assignments
		WHERE record_id = $1
		ORDER BY created_at
	`
	rows, err := r.db.QueryContext(ctx, query, recordID)
	if err != nil {
		return nil, fmt.Errorf("查询分配记录失败: %w", err)
	}
	defer rows.Close()

	var assignments []*SolveAssignment
	for rows.Next() {
		a := &SolveAssignment{}
		var reasonsJSON, warningsJSON []byte
		if err := rows.Scan(
			&a.ID, &a.RecordID, &a.ShiftID, &a.EmployeeID, &a.Score,
			&reasonsJSON, &warningsJSON, &a.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("扫描分配记录失败: %w", err)
		}
		json.Unmarshal(reasonsJSON, &a.Reasons)
		json.Unmarshal(warningsJSON, &a.Warnings)
		assignments = append(assignments, a)
	}
	return assignments, rows.Err()
}

// List 列出求解记录
func (r *ResultRepository) List(ctx context.Context, filter ListFilter) ([]*SolveRecord, int, error) {
	var conditions []string
	var args []interface{}
	argNum := 1

	if filter.OrgID != nil {
		conditions = append(conditions, fmt.Sprintf("org_id = $%d", argNum))
		args = append(args, *filter.OrgID)
		argNum++
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argNum))
		args = append(args, filter.Status)
		argNum++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM solve_records %s", whereClause)
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("统计求解记录失败: %w", err)
	}

	orderBy := filter.OrderBy
	if orderBy == "" {
		orderBy = "created_at"
	}
	orderDir := filter.OrderDir
	if orderDir != "asc" {
		orderDir = "desc"
	}

	query := fmt.Sprintf("%s FROM solve_records %s ORDER BY %s %s LIMIT $%d OFFSET $%d",
		selectRecordColumns, whereClause, orderBy, orderDir, argNum, argNum+1)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("查询求解记录失败: %w", err)
	}
	defer rows.Close()

	var records []*SolveRecord
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, 0, err
		}
		records = append(records, record)
	}
	return records, total, rows.Err()
}

// Delete 删除求解记录及其分配
func (r *ResultRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM solve_assignments WHERE record_id = $1", id); err != nil {
		return fmt.Errorf("删除分配记录失败: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, "DELETE FROM solve_records WHERE id = $1", id); err != nil {
		return fmt.Errorf("删除求解记录失败: %w", err)
	}
	return nil
}

const selectRecordColumns = `
	SELECT id, org_id, status, solve_time_ms, objective_cost,
		total_score, total_cost, coverage_rate, fairness_score,
		employees_used, explanation, created_at`

// scanRecord 从一行扫描求解记录
func scanRecord(s Scanner) (*SolveRecord, error) {
	record := &SolveRecord{}
	err := s.Scan(
		&record.ID, &record.OrgID, &record.Status, &record.SolveTimeMs, &record.ObjectiveCost,
		&record.TotalScore, &record.TotalCost, &record.CoverageRate, &record.FairnessScore,
		&record.EmployeesUsed, &record.Explanation, &record.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("扫描求解记录失败: %w", err)
	}
	return record, nil
}
