// Package postgres 是 repository.Store 的 gorm 实现。生产环境使用 Postgres，
// 测试与本地调试可以用 sqlite:// 连接串。
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"The_Connection/internal/model"
	"The_Connection/internal/repository"

	slogGorm "github.com/orandin/slog-gorm"
	pgdriver "gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var log = slog.Default().With("system", "store")

type Store struct {
	DB *gorm.DB
}

var _ repository.Store = (*Store)(nil)

func New(db *gorm.DB) *Store {
	return &Store{DB: db}
}

// Open 按连接串前缀选择驱动：postgres://、postgresql://、postgres=、sqlite://、sqlite=
func Open(dburl string, maxConnections int) (*gorm.DB, error) {
	var dial gorm.Dialector
	isSqlite := false
	openConns := maxConnections
	switch {
	case strings.HasPrefix(dburl, "sqlite://"), strings.HasPrefix(dburl, "sqlite="):
		path := strings.TrimPrefix(strings.TrimPrefix(dburl, "sqlite://"), "sqlite=")
		if !strings.Contains(path, ":memory:") {
			if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
				return nil, err
			}
		}
		dial = sqlite.Open(path)
		// 内存库每个连接都是独立的库，只能保留一个连接
		openConns = 1
		isSqlite = true
	case strings.HasPrefix(dburl, "postgresql://"), strings.HasPrefix(dburl, "postgres://"):
		dial = pgdriver.Open(dburl)
	case strings.HasPrefix(dburl, "postgres="):
		dial = pgdriver.Open(strings.TrimPrefix(dburl, "postgres="))
	default:
		return nil, fmt.Errorf("unsupported or unrecognized DATABASE_URL value")
	}

	db, err := gorm.Open(dial, &gorm.Config{
		SkipDefaultTransaction: true,
		TranslateError:         true,
		Logger:                 slogGorm.New(slogGorm.WithLogger(log)),
	})
	if err != nil {
		return nil, err
	}
	sqldb, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqldb.SetMaxIdleConns(openConns)
	sqldb.SetMaxOpenConns(openConns)
	if !isSqlite {
		sqldb.SetConnMaxIdleTime(time.Hour)
	} else if err := db.Exec("PRAGMA journal_mode=WAL;").Error; err != nil {
		return nil, err
	}
	return db, nil
}

// tables 由 AutoMigrate 建表
var tables = []any{
	&model.User{},
	&model.PushToken{},
	&model.Community{},
	&model.CommunityMember{},
	&model.CommunityRoom{},
	&model.ChatMessage{},
	&model.Post{},
	&model.Comment{},
	&model.Group{},
	&model.GroupMember{},
	&model.PrayerRequest{},
	&model.Prayer{},
	&model.Event{},
	&model.EventRSVP{},
	&model.Microblog{},
	&model.MicroblogLike{},
	&model.Livestream{},
	&model.LivestreamerApplication{},
	&model.DirectMessage{},
	&model.Connection{},
	&model.ContentReport{},
	&model.UserBlock{},
	&model.NotificationOutbox{},
}

// AutoMigrate 建表（开发阶段 OK）
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(tables...)
}

// translate 把 gorm 错误转换成 model 中的错误类型
func translate(err error, kind string, key any) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%w: %s %v", model.ErrNotFound, kind, key)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %s %v", model.ErrConflict, kind, key)
	}
	return err
}

// adjustCounter 原子地调整计数列，结果不小于 0。
// 使用 Unscoped，父记录已软删除时计数仍与子记录保持一致。
func adjustCounter(tx *gorm.DB, m any, column string, id uint64, delta int64) error {
	expr := gorm.Expr(fmt.Sprintf("CASE WHEN %s + ? < 0 THEN 0 ELSE %s + ? END", column, column), delta, delta)
	return tx.Unscoped().Model(m).Where("id = ?", id).UpdateColumn(column, expr).Error
}

// softDelete 幂等软删除：已删除返回 nil，从未存在返回 ErrNotFound
func softDelete[T any](ctx context.Context, db *gorm.DB, kind string, id uint64) error {
	res := db.WithContext(ctx).Delete(new(T), id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}
	var n int64
	if err := db.WithContext(ctx).Unscoped().Model(new(T)).Where("id = ?", id).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return translate(gorm.ErrRecordNotFound, kind, id)
	}
	return nil
}

// excludeBlocked 排除 viewer 拉黑的用户所产生的记录
func (s *Store) excludeBlocked(q *gorm.DB, column string, viewerID uint64) *gorm.DB {
	if viewerID == 0 {
		return q
	}
	blocked := s.DB.Model(&model.UserBlock{}).Select("blocked_id").Where("blocker_id = ?", viewerID)
	return q.Where(column+" NOT IN (?)", blocked)
}

func likePattern(term string) string {
	return "%" + strings.ToLower(strings.TrimSpace(term)) + "%"
}

func limit(q *gorm.DB, n int) *gorm.DB {
	if n > 0 {
		return q.Limit(n)
	}
	return q
}
