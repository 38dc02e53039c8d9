package service

import (
	"context"
	"testing"

	"The_Connection/internal/model"
	"The_Connection/internal/repository/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportsAdminOnly(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	store := memory.New()
	svc := NewModerationService(store)
	reporter := newUser(t, store, "reporter")
	admin := newUser(t, store, "admin")
	makeAdmin(t, store, admin.ID)

	_, err := svc.Report(ctx, reporter.ID, &model.ContentReport{ContentType: "post"})
	assert.ErrorIs(err, model.ErrValidation)
	_, err = svc.Report(ctx, reporter.ID, &model.ContentReport{ContentType: "sermon", ContentID: 3})
	assert.ErrorIs(err, model.ErrValidation)

	r, err := svc.Report(ctx, reporter.ID, &model.ContentReport{ContentType: "post", ContentID: 3, Reason: "spam"})
	require.NoError(t, err)
	assert.Equal(model.ReportPending, r.Status)
	assert.Equal(reporter.ID, r.ReporterID)

	_, err = svc.Reports(ctx, reporter.ID, "", 10)
	assert.ErrorIs(err, model.ErrForbidden)
	_, err = svc.Resolve(ctx, reporter.ID, r.ID, model.ReportUpdate{Status: model.ReportResolved})
	assert.ErrorIs(err, model.ErrForbidden)
	_, err = svc.Reports(ctx, admin.ID, "bogus", 10)
	assert.ErrorIs(err, model.ErrValidation)

	pending, err := svc.Reports(ctx, admin.ID, model.ReportPending, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	notes := "removed"
	done, err := svc.Resolve(ctx, admin.ID, r.ID, model.ReportUpdate{Status: model.ReportResolved, ModeratorID: reporter.ID, ModeratorNotes: &notes})
	require.NoError(t, err)
	assert.Equal(model.ReportResolved, done.Status)
	require.NotNil(t, done.ModeratorID)
	assert.Equal(admin.ID, *done.ModeratorID)
	assert.NotNil(done.ResolvedAt)

	_, err = svc.Resolve(ctx, admin.ID, r.ID, model.ReportUpdate{Status: model.ReportDismissed})
	assert.ErrorIs(err, model.ErrConflict)
}

func TestBlocks(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	store := memory.New()
	svc := NewModerationService(store)
	alice := newUser(t, store, "alice")
	bob := newUser(t, store, "bob")

	_, err := svc.Block(ctx, alice.ID, alice.ID, "")
	assert.ErrorIs(err, model.ErrValidation)
	_, err = svc.Block(ctx, alice.ID, 0, "")
	assert.ErrorIs(err, model.ErrValidation)
	_, err = svc.Block(ctx, alice.ID, 987654, "")
	assert.ErrorIs(err, model.ErrNotFound)

	_, err = svc.Block(ctx, alice.ID, bob.ID, "rude")
	require.NoError(t, err)
	blocks, err := svc.Blocks(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(bob.ID, blocks[0].BlockedID)

	require.NoError(t, svc.Unblock(ctx, alice.ID, bob.ID))
	blocks, err = svc.Blocks(ctx, alice.ID)
	require.NoError(t, err)
	assert.Empty(blocks)
}

func TestLivestreamGating(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	store := memory.New()
	svc := NewLivestreamService(store)
	host := newUser(t, store, "host")
	admin := newUser(t, store, "admin")
	viewer := newUser(t, store, "viewer")
	makeAdmin(t, store, admin.ID)

	_, err := svc.Create(ctx, host.ID, &model.Livestream{Title: "Sunday service"})
	assert.ErrorIs(err, model.ErrForbidden)

	app, err := svc.Apply(ctx, host.ID, &model.LivestreamerApplication{MinistryName: "Grace", Reason: "reach shut-ins"})
	require.NoError(t, err)
	assert.Equal(model.ApplicationPending, app.Status)
	_, err = svc.Apply(ctx, host.ID, &model.LivestreamerApplication{Reason: "again"})
	assert.ErrorIs(err, model.ErrConflict)

	_, err = svc.Applications(ctx, host.ID, model.ApplicationPending)
	assert.ErrorIs(err, model.ErrForbidden)
	_, err = svc.Review(ctx, host.ID, app.ID, model.ApplicationApproved, "")
	assert.ErrorIs(err, model.ErrForbidden)
	_, err = svc.Stats(ctx, viewer.ID)
	assert.ErrorIs(err, model.ErrForbidden)

	apps, err := svc.Applications(ctx, admin.ID, model.ApplicationPending)
	require.NoError(t, err)
	assert.Len(apps, 1)

	reviewed, err := svc.Review(ctx, admin.ID, app.ID, model.ApplicationApproved, "welcome")
	require.NoError(t, err)
	assert.Equal(model.ApplicationApproved, reviewed.Status)
	require.NotNil(t, reviewed.ReviewedBy)
	assert.Equal(admin.ID, *reviewed.ReviewedBy)
	_, err = svc.Review(ctx, admin.ID, app.ID, model.ApplicationRejected, "")
	assert.ErrorIs(err, model.ErrConflict)

	stats, err := svc.Stats(ctx, admin.ID)
	require.NoError(t, err)
	assert.Equal(model.ApplicationStats{Total: 1, Approved: 1}, stats)

	live, err := svc.Create(ctx, host.ID, &model.Livestream{Title: "Sunday service"})
	require.NoError(t, err)
	assert.Equal(host.ID, live.HostID)
	assert.Equal("upcoming", live.Status)

	// 管理员无需申请
	_, err = svc.Create(ctx, admin.ID, &model.Livestream{Title: "Announcements"})
	require.NoError(t, err)

	assert.ErrorIs(svc.Delete(ctx, viewer.ID, live.ID), model.ErrForbidden)
	require.NoError(t, svc.Delete(ctx, admin.ID, live.ID))
}

func TestConnectionTransitions(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	store := memory.New()
	svc := NewConnectionService(store)
	alice := newUser(t, store, "alice")
	bob := newUser(t, store, "bob")
	carol := newUser(t, store, "carol")

	_, err := svc.Request(ctx, alice.ID, 987654)
	assert.ErrorIs(err, model.ErrNotFound)

	c, err := svc.Request(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(model.ConnectionPending, c.Status)

	_, err = svc.SetStatus(ctx, alice.ID, c.ID, model.ConnectionAccepted)
	assert.ErrorIs(err, model.ErrForbidden)
	_, err = svc.SetStatus(ctx, carol.ID, c.ID, model.ConnectionBlocked)
	assert.ErrorIs(err, model.ErrForbidden)

	accepted, err := svc.SetStatus(ctx, bob.ID, c.ID, model.ConnectionAccepted)
	require.NoError(t, err)
	assert.Equal(model.ConnectionAccepted, accepted.Status)

	list, err := svc.List(ctx, alice.ID, model.ConnectionAccepted)
	require.NoError(t, err)
	assert.Len(list, 1)
}
