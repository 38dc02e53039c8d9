// Package policy 放置与存储无关的可见性与权限判断，内存实现、数据库实现和服务层共用同一套规则。
package policy

import (
	"The_Connection/internal/model"
)

// CanViewPrayerRequest 公开可见；group-only 需要是小组成员；作者本人始终可见
func CanViewPrayerRequest(req *model.PrayerRequest, viewerID uint64, inGroup bool) bool {
	if req.PrivacyLevel == model.PrivacyPublic {
		return true
	}
	if viewerID != 0 && req.AuthorID == viewerID {
		return true
	}
	return req.PrivacyLevel == model.PrivacyGroupOnly && req.GroupID != nil && inGroup
}

// CanSendDM 接收方拉黑了发送方时一律拒绝，否则按接收方的 dmPrivacy 判断。
// conn 为两人之间的关系，没有时传 nil。
func CanSendDM(receiver *model.User, senderBlocked bool, conn *model.Connection) bool {
	if senderBlocked {
		return false
	}
	switch receiver.DMPrivacy {
	case model.DMPrivacyEveryone:
		return true
	case model.DMPrivacyConnections:
		return conn != nil && conn.Status == model.ConnectionAccepted
	default:
		return false
	}
}

// BlockSet 把拉黑列表转成集合
func BlockSet(ids []uint64) map[uint64]struct{} {
	set := make(map[uint64]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

// ExcludeAuthors 过滤掉作者在 blocked 集合中的记录
func ExcludeAuthors[T any](rows []T, author func(*T) uint64, blocked map[uint64]struct{}) []T {
	if len(blocked) == 0 {
		return rows
	}
	out := rows[:0]
	for i := range rows {
		if _, ok := blocked[author(&rows[i])]; ok {
			continue
		}
		out = append(out, rows[i])
	}
	return out
}
