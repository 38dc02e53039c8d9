package postgres

import (
	"context"
	"os"
	"regexp"
	"testing"
	"time"

	"The_Connection/internal/model"
	"The_Connection/internal/repository"
	"The_Connection/internal/repository/storetest"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	pgdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	db, err := Open("sqlite://:memory:", 1)
	require.NoError(t, err)
	require.NoError(t, AutoMigrate(db))
	sqldb, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqldb.Close() })
	return New(db)
}

func TestSqliteStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) repository.Store {
		return testStore(t)
	})
}

// TestPostgresStore 需要一个可以随意清空的库
func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set")
	}
	db, err := Open(dsn, 4)
	require.NoError(t, err)
	storetest.Run(t, func(t *testing.T) repository.Store {
		require.NoError(t, db.Migrator().DropTable(tables...))
		require.NoError(t, AutoMigrate(db))
		return New(db)
	})
}

func TestReconcileCounters(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	s := testStore(t)

	alice, err := s.CreateUser(ctx, &model.User{Username: "alice", Email: "alice@example.com"})
	require.NoError(t, err)
	bob, err := s.CreateUser(ctx, &model.User{Username: "bob", Email: "bob@example.com"})
	require.NoError(t, err)

	c, err := s.CreateCommunity(ctx, &model.Community{Name: "Choir", CreatedBy: alice.ID})
	require.NoError(t, err)
	_, err = s.AddCommunityMember(ctx, c.ID, bob.ID, model.RoleMember)
	require.NoError(t, err)

	post, err := s.CreatePost(ctx, &model.Post{Title: "hello", AuthorID: alice.ID})
	require.NoError(t, err)
	for _, text := range []string{"one", "two"} {
		_, err = s.CreateComment(ctx, &model.Comment{PostID: post.ID, AuthorID: bob.ID, Content: text})
		require.NoError(t, err)
	}

	root, err := s.CreateMicroblog(ctx, &model.Microblog{AuthorID: alice.ID, Content: "root"})
	require.NoError(t, err)
	reply, err := s.CreateMicroblog(ctx, &model.Microblog{AuthorID: bob.ID, Content: "reply", ParentID: &root.ID})
	require.NoError(t, err)
	require.NoError(t, s.DeleteMicroblog(ctx, reply.ID))

	fixed, err := s.ReconcileCounters(ctx, 0)
	require.NoError(t, err)
	assert.Zero(fixed)

	// 模拟计数漂移
	require.NoError(t, s.DB.Model(&model.Post{}).Where("id = ?", post.ID).UpdateColumn("comment_count", 9).Error)
	require.NoError(t, s.DB.Model(&model.Community{}).Where("id = ?", c.ID).UpdateColumn("member_count", 0).Error)
	require.NoError(t, s.DB.Model(&model.Microblog{}).Where("id = ?", root.ID).UpdateColumn("reply_count", 5).Error)

	fixed, err = s.ReconcileCounters(ctx, 1)
	require.NoError(t, err)
	assert.Equal(3, fixed)

	gotPost, err := s.GetPost(ctx, post.ID)
	require.NoError(t, err)
	assert.EqualValues(2, gotPost.CommentCount)
	gotCommunity, err := s.GetCommunity(ctx, c.ID)
	require.NoError(t, err)
	assert.EqualValues(2, gotCommunity.MemberCount)
	gotRoot, err := s.GetMicroblog(ctx, root.ID)
	require.NoError(t, err)
	assert.Zero(gotRoot.ReplyCount)

	fixed, err = s.ReconcileCounters(ctx, 100)
	require.NoError(t, err)
	assert.Zero(fixed)
}

func TestAdjustCounterNeverNegative(t *testing.T) {
	sqldb, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqldb.Close()

	db, err := gorm.Open(pgdriver.New(pgdriver.Config{Conn: sqldb}), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "posts" SET "upvotes"=CASE WHEN upvotes + $1 < 0 THEN 0 ELSE upvotes + $2 END WHERE id = $3`)).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, adjustCounter(db, &model.Post{}, "upvotes", 7, -1))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func mockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqldb, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqldb.Close() })
	db, err := gorm.Open(pgdriver.New(pgdriver.Config{Conn: sqldb}), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)
	return db, mock
}

// 修正计数时先 FOR UPDATE 锁父行，再在同一事务里重新计数
func TestRepairLocksParentBeforeCounting(t *testing.T) {
	commentCount := counters[1]
	require.Equal(t, "post.comment_count", commentCount.name)

	t.Run("fixes drift", func(t *testing.T) {
		db, mock := mockDB(t)
		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT .*comment_count.* FROM "posts" WHERE id = \$1 .*FOR UPDATE`).
			WithArgs(sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"comment_count"}).AddRow(2))
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "comments" WHERE post_id = $1`)).
			WithArgs(sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
		mock.ExpectExec(regexp.QuoteMeta(`UPDATE "posts" SET "comment_count"=$1 WHERE id = $2`)).
			WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		changed, err := repair(db, commentCount, 7)
		require.NoError(t, err)
		assert.True(t, changed)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("already consistent after lock", func(t *testing.T) {
		db, mock := mockDB(t)
		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT .*comment_count.* FROM "posts" WHERE id = \$1 .*FOR UPDATE`).
			WithArgs(sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"comment_count"}).AddRow(3))
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "comments" WHERE post_id = $1`)).
			WithArgs(sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
		mock.ExpectCommit()

		changed, err := repair(db, commentCount, 7)
		require.NoError(t, err)
		assert.False(t, changed)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestConnectionPairIsUnordered(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	s := testStore(t)
	alice, err := s.CreateUser(ctx, &model.User{Username: "alice", Email: "alice@example.com"})
	require.NoError(t, err)
	bob, err := s.CreateUser(ctx, &model.User{Username: "bob", Email: "bob@example.com"})
	require.NoError(t, err)

	c, err := s.CreateConnection(ctx, &model.Connection{UserID: alice.ID, ConnectedUserID: bob.ID})
	require.NoError(t, err)
	assert.Equal(model.ConnectionPairKey(bob.ID, alice.ID), c.PairKey)

	// 绕过存在性检查直接插入反向关系，模拟两个请求同时通过检查
	reverse := model.Connection{UserID: bob.ID, ConnectedUserID: alice.ID}
	require.NoError(t, reverse.Prepare())
	err = s.DB.WithContext(ctx).Create(&reverse).Error
	assert.ErrorIs(translate(err, "connection", reverse.PairKey), model.ErrConflict)

	var n int64
	require.NoError(t, s.DB.Model(&model.Connection{}).Count(&n).Error)
	assert.EqualValues(1, n)
}

func TestOpenRejectsUnknownScheme(t *testing.T) {
	_, err := Open("mysql://root@localhost/app", 4)
	assert.Error(t, err)
}

func TestSoftDeletedUserIsHidden(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	s := testStore(t)

	u, err := s.CreateUser(ctx, &model.User{Username: "ghost", Email: "ghost@example.com", CreatedAt: time.Now().UTC()})
	require.NoError(t, err)
	require.NoError(t, s.DeleteUser(ctx, u.ID))

	var n int64
	require.NoError(t, s.DB.Unscoped().Model(&model.User{}).Where("id = ?", u.ID).Count(&n).Error)
	assert.EqualValues(1, n)
	_, err = s.GetUserByEmail(ctx, "ghost@example.com")
	assert.ErrorIs(err, model.ErrNotFound)
}

func TestSoftDeletedCommunityIsRetained(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	s := testStore(t)

	owner, err := s.CreateUser(ctx, &model.User{Username: "owner", Email: "owner@example.com"})
	require.NoError(t, err)
	c, err := s.CreateCommunity(ctx, &model.Community{Name: "Night Watch", CreatedBy: owner.ID})
	require.NoError(t, err)
	require.NoError(t, s.DeleteCommunity(ctx, c.ID))
	require.NoError(t, s.DeleteCommunity(ctx, c.ID))

	var n int64
	require.NoError(t, s.DB.Unscoped().Model(&model.Community{}).Where("id = ?", c.ID).Count(&n).Error)
	assert.EqualValues(1, n)
	var deleted model.Community
	require.NoError(t, s.DB.Unscoped().First(&deleted, c.ID).Error)
	assert.True(deleted.DeletedAt.Valid)

	_, err = s.GetCommunity(ctx, c.ID)
	assert.ErrorIs(err, model.ErrNotFound)
	_, err = s.GetCommunityBySlug(ctx, c.Slug)
	assert.ErrorIs(err, model.ErrNotFound)
}
