package postgres

import (
	"context"

	"The_Connection/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// counterSpec 一个冗余计数列及其真实来源
type counterSpec struct {
	name   string
	parent any
	column string
	child  any
	fkey   string
	// 子表是否软删除
	soft bool
}

var counters = []counterSpec{
	{"community.member_count", &model.Community{}, "member_count", &model.CommunityMember{}, "community_id", false},
	{"post.comment_count", &model.Post{}, "comment_count", &model.Comment{}, "post_id", true},
	{"prayer_request.prayer_count", &model.PrayerRequest{}, "prayer_count", &model.Prayer{}, "prayer_request_id", false},
	{"event.rsvp_count", &model.Event{}, "rsvp_count", &model.EventRSVP{}, "event_id", false},
	{"microblog.like_count", &model.Microblog{}, "like_count", &model.MicroblogLike{}, "microblog_id", false},
	{"microblog.reply_count", &model.Microblog{}, "reply_count", &model.Microblog{}, "parent_id", true},
}

type counterRow struct {
	ID    uint64
	Count int64
}

// ReconcileCounters 以子表为准分批修正所有计数列，返回修正的行数
func (s *Store) ReconcileCounters(ctx context.Context, batchSize int) (int, error) {
	if batchSize <= 0 {
		batchSize = 500
	}
	fixed := 0
	for _, c := range counters {
		n, err := s.reconcile(ctx, c, batchSize)
		fixed += n
		if err != nil {
			return fixed, err
		}
		if n > 0 {
			log.Info("counter reconciled", "counter", c.name, "fixed", n)
		}
	}
	return fixed, nil
}

func (s *Store) reconcile(ctx context.Context, c counterSpec, batchSize int) (int, error) {
	db := s.DB.WithContext(ctx)
	fixed := 0
	var lastID uint64
	for {
		var rows []counterRow
		err := db.Unscoped().Model(c.parent).
			Select("id", c.column+" AS count").
			Where("id > ?", lastID).
			Order("id ASC").
			Limit(batchSize).
			Find(&rows).Error
		if err != nil {
			return fixed, err
		}
		if len(rows) == 0 {
			return fixed, nil
		}
		for _, r := range rows {
			actual, err := countChildren(db, c, r.ID)
			if err != nil {
				return fixed, err
			}
			if actual == r.Count {
				continue
			}
			changed, err := repair(db, c, r.ID)
			if err != nil {
				return fixed, err
			}
			if changed {
				fixed++
			}
		}
		lastID = rows[len(rows)-1].ID
	}
}

func countChildren(db *gorm.DB, c counterSpec, id uint64) (int64, error) {
	var n int64
	q := db.Model(c.child)
	if !c.soft {
		q = q.Unscoped()
	}
	err := q.Where(c.fkey+" = ?", id).Count(&n).Error
	return n, err
}

// repair 先锁父行再重新计数并写回，与 adjustCounter 的增减串行
func repair(db *gorm.DB, c counterSpec, id uint64) (bool, error) {
	changed := false
	err := db.Transaction(func(tx *gorm.DB) error {
		var current int64
		err := tx.Unscoped().Model(c.parent).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Select(c.column).
			Where("id = ?", id).
			Scan(&current).Error
		if err != nil {
			return err
		}
		actual, err := countChildren(tx, c, id)
		if err != nil {
			return err
		}
		if actual == current {
			return nil
		}
		changed = true
		return tx.Unscoped().Model(c.parent).Where("id = ?", id).UpdateColumn(c.column, actual).Error
	})
	return changed, err
}
