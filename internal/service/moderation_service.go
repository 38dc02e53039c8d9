package service

import (
	"context"
	"fmt"

	"The_Connection/internal/model"
	"The_Connection/internal/repository"
)

type ModerationService struct {
	store repository.Store
}

func NewModerationService(store repository.Store) *ModerationService {
	return &ModerationService{store: store}
}

// Report 必填字段在进入存储前校验
func (s *ModerationService) Report(ctx context.Context, reporterID uint64, r *model.ContentReport) (*model.ContentReport, error) {
	r.ReporterID = reporterID
	if r.ContentType == "" || r.ContentID == 0 {
		return nil, fmt.Errorf("%w: contentType and contentId are required", model.ErrValidation)
	}
	if !model.ContentTypes[r.ContentType] {
		return nil, fmt.Errorf("%w: unknown content type %q", model.ErrValidation, r.ContentType)
	}
	out, err := s.store.CreateContentReport(ctx, r)
	if err != nil {
		return nil, err
	}
	reportsCreated.WithLabelValues(out.ContentType).Inc()
	log.Info("content reported", "report", out.ID, "type", out.ContentType, "content", out.ContentID)
	return out, nil
}

func (s *ModerationService) Reports(ctx context.Context, adminID uint64, status model.ReportStatus, limit int) ([]model.ContentReport, error) {
	if _, err := requireAdmin(ctx, s.store, adminID); err != nil {
		return nil, err
	}
	if status != "" && !status.Valid() {
		return nil, fmt.Errorf("%w: unknown report status %q", model.ErrValidation, status)
	}
	return s.store.GetReports(ctx, repository.ReportFilter{Status: status, Limit: limit})
}

// Resolve 管理员处理举报，处理人以当前管理员为准
func (s *ModerationService) Resolve(ctx context.Context, adminID, reportID uint64, upd model.ReportUpdate) (*model.ContentReport, error) {
	if _, err := requireAdmin(ctx, s.store, adminID); err != nil {
		return nil, err
	}
	upd.ModeratorID = adminID
	return s.store.UpdateReport(ctx, reportID, upd)
}

func (s *ModerationService) Block(ctx context.Context, blockerID, blockedID uint64, reason string) (*model.UserBlock, error) {
	if blockedID == 0 {
		return nil, fmt.Errorf("%w: blockedUserId is required", model.ErrValidation)
	}
	if blockerID == blockedID {
		return nil, fmt.Errorf("%w: cannot block self", model.ErrValidation)
	}
	if _, err := s.store.GetUser(ctx, blockedID); err != nil {
		return nil, err
	}
	return s.store.CreateUserBlock(ctx, &model.UserBlock{BlockerID: blockerID, BlockedID: blockedID, Reason: reason})
}

func (s *ModerationService) Unblock(ctx context.Context, blockerID, blockedID uint64) error {
	return s.store.DeleteUserBlock(ctx, blockerID, blockedID)
}

func (s *ModerationService) Blocks(ctx context.Context, blockerID uint64) ([]model.UserBlock, error) {
	return s.store.ListUserBlocks(ctx, blockerID)
}
