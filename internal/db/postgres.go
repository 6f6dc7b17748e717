package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

func Init(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	//连接测试
	if err := pool.Ping(ctx); err != nil {
		return nil, err
	}
	return pool, nil
}

func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS task_templates (
            id UUID PRIMARY KEY,
            title TEXT NOT NULL,
            description TEXT NOT NULL DEFAULT '',
            task_type TEXT NOT NULL DEFAULT '',
            assignee TEXT NOT NULL DEFAULT '',
            priority INT NOT NULL DEFAULT 0,
            pattern TEXT NOT NULL,
            interval_count INT NOT NULL DEFAULT 1,
            anchor_day_of_week INT,
            anchor_day_of_month INT,
            anchor_month_of_year INT,
            cron_expr TEXT NOT NULL DEFAULT '',
            end_at TIMESTAMPTZ,
            max_occurrences INT,
            next_occurrence_at TIMESTAMPTZ,
            last_occurrence_at TIMESTAMPTZ,
            occurrences_created INT NOT NULL DEFAULT 0,
            active BOOLEAN NOT NULL DEFAULT TRUE,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );`,
		`CREATE TABLE IF NOT EXISTS task_occurrences (
            id UUID PRIMARY KEY,
            template_id UUID NOT NULL REFERENCES task_templates(id),
            title TEXT NOT NULL,
            description TEXT NOT NULL DEFAULT '',
            task_type TEXT NOT NULL DEFAULT '',
            assignee TEXT NOT NULL DEFAULT '',
            priority INT NOT NULL DEFAULT 0,
            due_at TIMESTAMPTZ NOT NULL,
            status TEXT NOT NULL,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );`,
		`CREATE TABLE IF NOT EXISTS occurrence_history (
            id UUID PRIMARY KEY,
            template_id UUID NOT NULL REFERENCES task_templates(id),
            seq INT NOT NULL,
            occurrence_id UUID,
            scheduled_for TIMESTAMPTZ NOT NULL,
            skipped BOOLEAN NOT NULL DEFAULT FALSE,
            skip_reason TEXT,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_occurrence_history_template_seq ON occurrence_history(template_id, seq);`,
		`CREATE TABLE IF NOT EXISTS verifications (
            id UUID PRIMARY KEY,
            control_id UUID NOT NULL,
            name TEXT NOT NULL,
            test_type TEXT NOT NULL,
            automation_config JSONB,
            frequency TEXT NOT NULL DEFAULT '',
            next_due_at TIMESTAMPTZ,
            end_at TIMESTAMPTZ,
            max_runs INT,
            runs_completed INT NOT NULL DEFAULT 0,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );`,
		`CREATE INDEX IF NOT EXISTS idx_verifications_due ON verifications(test_type, next_due_at ASC NULLS FIRST);`,
		`CREATE TABLE IF NOT EXISTS verification_results (
            id UUID PRIMARY KEY,
            verification_id UUID NOT NULL REFERENCES verifications(id),
            performed_by TEXT,
            executed_at TIMESTAMPTZ NOT NULL,
            status TEXT NOT NULL,
            notes TEXT NOT NULL DEFAULT '',
            evidence_ids TEXT[],
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );`,
		`CREATE INDEX IF NOT EXISTS idx_verification_results_verification ON verification_results(verification_id, executed_at DESC);`,
		`CREATE TABLE IF NOT EXISTS connectors (
            id TEXT PRIMARY KEY,
            name TEXT NOT NULL DEFAULT '',
            kind TEXT NOT NULL,
            config JSONB,
            enabled BOOLEAN NOT NULL DEFAULT TRUE,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );`,
	}
	for _, q := range ddl {
		if _, err := pool.Exec(ctx, q); err != nil {
			return err
		}
	}
	return nil
}
