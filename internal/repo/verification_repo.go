package repo

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/ZerosAndOnesLLC/OpenGRC-sub001/internal/domain"
)

const verificationColumns = `
	id, control_id, name, test_type, automation_config, frequency,
	next_due_at, end_at, max_runs, runs_completed, created_at, updated_at
`

// InsertVerification 插入一条控制测试
func InsertVerification(ctx context.Context, q Querier, v *domain.Verification) error {
	cfg, err := marshalConfig(v.Config)
	if err != nil {
		return err
	}
	_, err = q.Exec(ctx, `
		INSERT INTO verifications (id, control_id, name, test_type, automation_config, frequency, next_due_at, end_at, max_runs, runs_completed, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,NOW(),NOW())
	`, v.ID, v.ControlID, v.Name, v.TestType, cfg, v.Frequency, v.NextDueAt, v.EndAt, v.MaxRuns, v.RunsCompleted)
	return err
}

// GetVerificationByID 根据 ID 查询控制测试
func GetVerificationByID(ctx context.Context, q Querier, id uuid.UUID) (*domain.Verification, error) {
	row := q.QueryRow(ctx, `SELECT `+verificationColumns+` FROM verifications WHERE id=$1`, id)
	return scanVerification(row)
}

// ListVerifications 查询全部控制测试
func ListVerifications(ctx context.Context, q Querier) ([]domain.Verification, error) {
	rows, err := q.Query(ctx, `SELECT `+verificationColumns+` FROM verifications ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectVerifications(rows)
}

// ListDueVerifications 查询到期的自动化测试，最多 limit 条
// 只取 test_type='automated' 且配置了 automation_config 的行；
// next_due_at 为 NULL 表示从未执行，排在最前优先拾取，其余按到期时间升序
// limit 用于限制单个调度周期的工作量，超出的行留到下个周期
func ListDueVerifications(ctx context.Context, q Querier, now time.Time, limit int) ([]domain.Verification, error) {
	rows, err := q.Query(ctx, `
		SELECT `+verificationColumns+`
		FROM verifications
		WHERE test_type = 'automated'
		  AND automation_config IS NOT NULL
		  AND (next_due_at IS NULL OR next_due_at <= $1)
		ORDER BY next_due_at ASC NULLS FIRST
		LIMIT $2
	`, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectVerifications(rows)
}

// UpdateVerificationSchedule 执行一次之后写回调度状态
func UpdateVerificationSchedule(ctx context.Context, q Querier, v *domain.Verification) error {
	_, err := q.Exec(ctx, `
		UPDATE verifications
		SET next_due_at=$2, runs_completed=$3, updated_at=NOW()
		WHERE id=$1
	`, v.ID, v.NextDueAt, v.RunsCompleted)
	return err
}

func marshalConfig(cfg *domain.AutomationConfig) ([]byte, error) {
	if cfg == nil {
		return nil, nil
	}
	return json.Marshal(cfg)
}

func scanVerification(row rowScanner) (*domain.Verification, error) {
	var v domain.Verification
	var cfg []byte
	if err := row.Scan(
		&v.ID, &v.ControlID, &v.Name, &v.TestType, &cfg, &v.Frequency,
		&v.NextDueAt, &v.EndAt, &v.MaxRuns, &v.RunsCompleted, &v.CreatedAt, &v.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if len(cfg) > 0 {
		var parsed domain.AutomationConfig
		if err := json.Unmarshal(cfg, &parsed); err != nil {
			return nil, err
		}
		v.Config = &parsed
	}
	return &v, nil
}

func collectVerifications(rows interface {
	rowScanner
	Next() bool
	Err() error
}) ([]domain.Verification, error) {
	var res []domain.Verification
	for rows.Next() {
		v, err := scanVerification(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, *v)
	}
	return res, rows.Err()
}
