package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ZerosAndOnesLLC/OpenGRC-sub001/internal/domain"
	"github.com/ZerosAndOnesLLC/OpenGRC-sub001/internal/repo"
)

// ConnectorService 连接器注册与查询，同时实现 strategy.ConnectorSource
type ConnectorService struct {
	db *pgxpool.Pool
}

func NewConnectorService(db *pgxpool.Pool) *ConnectorService {
	return &ConnectorService{db: db}
}

type RegisterConnectorParams struct {
	ID      string
	Name    string
	Kind    string
	Config  map[string]any
	Enabled bool
}

func (s *ConnectorService) RegisterConnector(ctx context.Context, p RegisterConnectorParams) error {
	if p.ID == "" || p.Kind == "" {
		return errors.New("connector requires id and kind")
	}
	cfg, err := json.Marshal(p.Config)
	if err != nil {
		return err
	}
	return repo.InsertConnector(ctx, s.db, &domain.Connector{
		ID:        p.ID,
		Name:      p.Name,
		Kind:      p.Kind,
		Config:    cfg,
		Enabled:   p.Enabled,
		CreatedAt: time.Now(),
	})
}

// GetConnector 连接器不存在时返回 (nil, nil)
func (s *ConnectorService) GetConnector(ctx context.Context, id string) (*domain.Connector, error) {
	return repo.GetConnectorByID(ctx, s.db, id)
}

func (s *ConnectorService) ListConnectors(ctx context.Context) ([]domain.Connector, error) {
	return repo.ListConnectors(ctx, s.db)
}
