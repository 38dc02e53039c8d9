package policy

import (
	"fmt"

	"The_Connection/internal/model"
)

// CheckConnectionTransition 只有被邀请方可以 accept，双方都可以 block。
//
// TODO: 其余状态（目前只有 pending）任一方都能设置，等于允许发起方把已接受的关系改回 pending，需产品确认后收紧。
func CheckConnectionTransition(conn *model.Connection, next model.ConnectionStatus, actorID uint64) error {
	if !next.Valid() {
		return fmt.Errorf("%w: unknown connection status %q", model.ErrValidation, next)
	}
	switch next {
	case model.ConnectionAccepted:
		if actorID != conn.ConnectedUserID {
			return fmt.Errorf("%w: only the invited user can accept", model.ErrForbidden)
		}
	default:
		if !conn.Involves(actorID) {
			return fmt.Errorf("%w: not a party of this connection", model.ErrForbidden)
		}
	}
	return nil
}

// CheckReportTransition 举报只能从 pending 变为 resolved 或 dismissed，之后不可再改。
// next 为空表示只更新备注。
func CheckReportTransition(current, next model.ReportStatus) error {
	if next != "" && !next.Valid() {
		return fmt.Errorf("%w: unknown report status %q", model.ErrValidation, next)
	}
	if current != model.ReportPending {
		return fmt.Errorf("%w: report already %s", model.ErrConflict, current)
	}
	if next == model.ReportPending {
		return fmt.Errorf("%w: report is already pending", model.ErrValidation)
	}
	return nil
}

// CheckApplicationReview 主播申请只能审核一次
func CheckApplicationReview(current, next model.ApplicationStatus) error {
	if next != model.ApplicationApproved && next != model.ApplicationRejected {
		return fmt.Errorf("%w: review must approve or reject", model.ErrValidation)
	}
	if current != model.ApplicationPending {
		return fmt.Errorf("%w: application already %s", model.ErrConflict, current)
	}
	return nil
}

// IsOwner 社区所有者
func IsOwner(m *model.CommunityMember) bool {
	return m != nil && m.Role == model.RoleOwner
}

// IsModerator 所有者也拥有版主权限
func IsModerator(m *model.CommunityMember) bool {
	return m != nil && (m.Role == model.RoleOwner || m.Role == model.RoleModerator)
}
