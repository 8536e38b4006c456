package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/boldcity/gymgate/internal/gym/store"
	"github.com/boldcity/gymgate/internal/gym/types"
	"github.com/boldcity/gymgate/internal/metrics"
)

var ErrInvalidKioskID = errors.New("kiosk_id is required")

// HeartbeatService records kiosk health reports. Heartbeats are telemetry —
// nothing in the access path depends on them.
type HeartbeatService struct {
	heartbeats store.KioskHeartbeatStore
	registry   *KioskRegistry
	metrics    *metrics.Metrics
}

func NewHeartbeatService(hs store.KioskHeartbeatStore, reg *KioskRegistry, m *metrics.Metrics) *HeartbeatService {
	return &HeartbeatService{heartbeats: hs, registry: reg, metrics: m}
}

func (s *HeartbeatService) Record(ctx context.Context, req types.HeartbeatRequest) (types.HeartbeatResponse, error) {
	kioskID := strings.TrimSpace(req.KioskID)
	if kioskID == "" {
		return types.HeartbeatResponse{}, ErrInvalidKioskID
	}

	known, err := s.registry.IsKnown(ctx, kioskID)
	if err != nil {
		return types.HeartbeatResponse{}, err
	}
	_ = s.registry.NoteSeen(ctx, kioskID)

	rec := store.KioskHeartbeatRecord{
		ReceivedAt: time.Now().UTC(),
		Request:    req,
	}
	if err := s.heartbeats.Append(ctx, kioskID, rec); err != nil {
		return types.HeartbeatResponse{}, err
	}

	s.metrics.ObserveHeartbeat()

	return types.HeartbeatResponse{
		OK:         true,
		Known:      known,
		KioskID:    kioskID,
		ServerTime: time.Now().UTC().Format(time.RFC3339Nano),
	}, nil
}
