package repo

import (
	"context"

	"github.com/google/uuid"

	"github.com/ZerosAndOnesLLC/OpenGRC-sub001/internal/domain"
)

// InsertResult 追加一条执行结果（结果只追加，调度状态在 verification 行上）
func InsertResult(ctx context.Context, q Querier, r *domain.VerificationResult) error {
	var performedBy *string
	if r.PerformedBy != "" {
		performedBy = &r.PerformedBy
	}
	evidence := make([]string, 0, len(r.EvidenceIDs))
	for _, id := range r.EvidenceIDs {
		evidence = append(evidence, id.String())
	}
	_, err := q.Exec(ctx, `
		INSERT INTO verification_results (id, verification_id, performed_by, executed_at, status, notes, evidence_ids, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,NOW())
	`, r.ID, r.VerificationID, performedBy, r.ExecutedAt, r.Status, r.Notes, evidence)
	return err
}

// ListResultsByVerification 查询某控制测试的执行结果，最近的在前
func ListResultsByVerification(ctx context.Context, q Querier, verificationID uuid.UUID, limit int) ([]domain.VerificationResult, error) {
	rows, err := q.Query(ctx, `
		SELECT id, verification_id, performed_by, executed_at, status, notes, evidence_ids, created_at
		FROM verification_results
		WHERE verification_id=$1
		ORDER BY executed_at DESC
		LIMIT $2
	`, verificationID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []domain.VerificationResult
	for rows.Next() {
		var r domain.VerificationResult
		var performedBy *string
		var evidence []string
		if err := rows.Scan(&r.ID, &r.VerificationID, &performedBy, &r.ExecutedAt, &r.Status, &r.Notes, &evidence, &r.CreatedAt); err != nil {
			return nil, err
		}
		if performedBy != nil {
			r.PerformedBy = *performedBy
		}
		for _, s := range evidence {
			if id, err := uuid.Parse(s); err == nil {
				r.EvidenceIDs = append(r.EvidenceIDs, id)
			}
		}
		res = append(res, r)
	}
	return res, rows.Err()
}
