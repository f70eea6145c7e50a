package usecase

import (
	"context"
	"encoding/json"
	"time"

	"gorm.io/datatypes"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

// writeAuditは管理者操作を同じtxで記録する
func writeAudit(
	ctx context.Context,
	r repo.TxRepos,
	actor Principal,
	action model.AuditAction,
	resourceType model.AuditResourceType,
	resourceID int64,
	before, after any,
) error {
	beforeJSON, err := toJSON(before)
	if err != nil {
		return internal(err)
	}
	afterJSON, err := toJSON(after)
	if err != nil {
		return internal(err)
	}

	if err := r.AuditLogs().Create(ctx, model.AuditLog{
		ActorUserID:  actor.UserID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Before:       beforeJSON,
		After:        afterJSON,
		CreatedAt:    time.Now(),
	}); err != nil {
		return internal(err)
	}
	return nil
}

func toJSON(v any) (datatypes.JSON, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(b), nil
}

type AuditUsecase struct {
	auditRepo repo.AuditLogRepository
}

func NewAuditUsecase(auditRepo repo.AuditLogRepository) *AuditUsecase {
	return &AuditUsecase{auditRepo: auditRepo}
}

func (u *AuditUsecase) List(ctx context.Context, f repo.AuditLogFilter) ([]model.AuditLog, error) {
	if f.Limit < 0 || f.Limit > 200 {
		return nil, NewInvalid(CodeBadRequest, "invalid limit")
	}
	if f.Offset < 0 {
		return nil, NewInvalid(CodeBadRequest, "invalid offset")
	}
	logs, err := u.auditRepo.List(ctx, f)
	if err != nil {
		return nil, internal(err)
	}
	if logs == nil {
		logs = []model.AuditLog{}
	}
	return logs, nil
}
