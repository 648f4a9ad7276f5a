package schedule

import (
	"context"

	"github.com/m04kA/SMC-SchedulingService/internal/service/schedule/models"
)

type ScheduleService interface {
	CreateRule(ctx context.Context, req *models.CreateRuleRequest) (*models.RuleResponse, error)
	DeleteRule(ctx context.Context, tenantID, resourceID, ruleID string) error
	ListRules(ctx context.Context, tenantID, resourceID string) ([]*models.RuleResponse, error)
	CreateException(ctx context.Context, req *models.CreateExceptionRequest) (*models.ExceptionResponse, error)
	DeleteException(ctx context.Context, tenantID, resourceID, exceptionID string) error
	CreateTimeBlock(ctx context.Context, req *models.CreateTimeBlockRequest) (*models.TimeBlockResponse, error)
	ListTimeBlocks(ctx context.Context, tenantID, resourceID string) ([]*models.TimeBlockResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
