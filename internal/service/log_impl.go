package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"self-sim-server/internal/interfaces"
	"self-sim-server/internal/models"
)

var _ LogService = (*logServiceImpl)(nil)

type logServiceImpl struct {
	logRepo interfaces.LogRepository
	logger  *zap.Logger
}

// NewLogService creates a new instance of logServiceImpl.
func NewLogService(logRepo interfaces.LogRepository, logger *zap.Logger) LogService {
	return &logServiceImpl{
		logRepo: logRepo,
		logger:  logger.Named("LogService"),
	}
}

// Record appends a log entry. A missing client timestamp is filled in
// server-side so every entry carries one.
func (s *logServiceImpl) Record(ctx context.Context, userID uuid.UUID, timestamp string, sceneID *string, data json.RawMessage) (int64, error) {
	if timestamp == "" {
		timestamp = time.Now().UTC().Format(time.RFC3339)
	}
	if len(data) == 0 {
		data = json.RawMessage("{}")
	}

	entry := &models.Log{
		Timestamp: timestamp,
		Data:      data,
		UserID:    userID,
		SceneID:   sceneID,
	}
	if err := s.logRepo.Create(ctx, entry); err != nil {
		return 0, err
	}
	s.logger.Debug("Log entry recorded", zap.Int64("logID", entry.ID), zap.String("userID", userID.String()))
	return entry.ID, nil
}

// GetLast returns the most recent entry for a user.
func (s *logServiceImpl) GetLast(ctx context.Context, userID uuid.UUID) (*models.Log, error) {
	return s.logRepo.GetLastByUser(ctx, userID)
}

// DeleteByUser removes all log entries for a user.
func (s *logServiceImpl) DeleteByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.logRepo.DeleteByUser(ctx, userID)
}
