package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/ZerosAndOnesLLC/OpenGRC-sub001/internal/domain"
)

// InsertConnector 注册一个连接器
func InsertConnector(ctx context.Context, q Querier, c *domain.Connector) error {
	_, err := q.Exec(ctx, `
		INSERT INTO connectors (id, name, kind, config, enabled, created_at)
		VALUES ($1,$2,$3,$4,$5,NOW())
	`, c.ID, c.Name, c.Kind, []byte(c.Config), c.Enabled)
	return err
}

// GetConnectorByID 根据 ID 查询连接器，不存在时返回 (nil, nil)
func GetConnectorByID(ctx context.Context, q Querier, id string) (*domain.Connector, error) {
	row := q.QueryRow(ctx, `
		SELECT id, name, kind, config, enabled, created_at
		FROM connectors
		WHERE id=$1
	`, id)
	var c domain.Connector
	var cfg []byte
	if err := row.Scan(&c.ID, &c.Name, &c.Kind, &cfg, &c.Enabled, &c.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	c.Config = cfg
	return &c, nil
}

// ListConnectors 查询全部连接器
func ListConnectors(ctx context.Context, q Querier) ([]domain.Connector, error) {
	rows, err := q.Query(ctx, `
		SELECT id, name, kind, config, enabled, created_at
		FROM connectors
		ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []domain.Connector
	for rows.Next() {
		var c domain.Connector
		var cfg []byte
		if err := rows.Scan(&c.ID, &c.Name, &c.Kind, &cfg, &c.Enabled, &c.CreatedAt); err != nil {
			return nil, err
		}
		c.Config = cfg
		res = append(res, c)
	}
	return res, rows.Err()
}
