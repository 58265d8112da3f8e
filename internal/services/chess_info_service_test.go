package services

import (
	"context"
	"testing"

	"chessconnect/api/internal/chesscom"
	"chessconnect/api/internal/models"
	"chessconnect/api/internal/testhelpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinkAndRefreshRejectsSecondClaimant(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userA := testhelpers.SeedUser(t, f.db, "g-a", "")
	userB := testhelpers.SeedUser(t, f.db, "g-b", "")
	f.source.addPlayer("shared", chesscom.Stats{Blitz: 1800, Bullet: 1700, Rapid: 1900, Puzzle: 2000})

	infoA, err := f.chess.LinkAndRefresh(ctx, userA.ID, "shared")
	require.NoError(t, err)
	require.NotNil(t, infoA)

	f.source.addPlayer("shared", chesscom.Stats{Blitz: 1})
	_, err = f.chess.LinkAndRefresh(ctx, userB.ID, "shared")
	assert.ErrorIs(t, err, ErrUsernameAlreadyLinked)

	stored, err := f.chessInfos.GetByUserID(userA.ID)
	require.NoError(t, err)
	assert.Equal(t, 1800, stored.Blitz)

	b, err := f.users.GetUserByID(userB.ID)
	require.NoError(t, err)
	assert.Nil(t, b.ChessUsername)
}

func TestLinkAndRefreshKeepsPriorRecordWhenStatsUnavailable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := testhelpers.SeedUser(t, f.db, "g-c", "")
	require.NoError(t, f.chessInfos.Upsert(&models.ChessInfo{UserID: user.ID, Blitz: 1000, Bullet: 900, Rapid: 1100, Puzzle: 1200}))

	f.source.addPlayer("flaky", chesscom.Stats{Blitz: 2000})
	f.source.failStats["flaky"] = true

	info, err := f.chess.LinkAndRefresh(ctx, user.ID, "flaky")
	require.NoError(t, err)
	require.NotNil(t, info)
	assert.Equal(t, 1000, info.Blitz)
	assert.Equal(t, 1200, info.Puzzle)

	linked, err := f.users.GetUserByID(user.ID)
	require.NoError(t, err)
	require.NotNil(t, linked.ChessUsername)
	assert.Equal(t, "flaky", *linked.ChessUsername)
}

func TestLinkAndRefreshWithoutPriorRecordReturnsNil(t *testing.T) {
	f := newFixture(t)
	user := testhelpers.SeedUser(t, f.db, "g-d", "")

	info, err := f.chess.LinkAndRefresh(context.Background(), user.ID, "ghost")
	require.NoError(t, err)
	assert.Nil(t, info)

	_, err = f.chessInfos.GetByUserID(user.ID)
	assert.Error(t, err)
}

func TestLinkAndRefreshIsIdempotentForSameUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := testhelpers.SeedUser(t, f.db, "g-e", "")
	f.source.addPlayer("again", chesscom.Stats{Rapid: 1400})

	_, err := f.chess.LinkAndRefresh(ctx, user.ID, "again")
	require.NoError(t, err)

	f.source.addPlayer("again", chesscom.Stats{Rapid: 1450})
	info, err := f.chess.LinkAndRefresh(ctx, user.ID, "Again")
	require.NoError(t, err)
	assert.Equal(t, 1450, info.Rapid)
	assert.Equal(t, 0, info.Blitz)
}

func TestLinkAndRefreshUnknownUser(t *testing.T) {
	f := newFixture(t)
	_, err := f.chess.LinkAndRefresh(context.Background(), 4242, "nobody")
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestRefreshRatingsReportsUpstreamFailure(t *testing.T) {
	f := newFixture(t)
	user := testhelpers.SeedUser(t, f.db, "g-f", "gone")

	_, err := f.chess.RefreshRatings(context.Background(), user.ID, "gone")
	assert.ErrorIs(t, err, ErrUpstreamUnavailable)
}

func TestPercentilesEmptyPopulation(t *testing.T) {
	f := newFixture(t)
	f.source.addPlayer("solo", chesscom.Stats{Blitz: 1500, Bullet: 1200, Rapid: 1600})

	pct, err := f.chess.Percentiles(context.Background(), "solo")
	require.NoError(t, err)
	assert.Equal(t, models.Percentiles{}, pct)
}

func TestPercentilesAgainstStoredRatings(t *testing.T) {
	f := newFixture(t)
	u1 := testhelpers.SeedUser(t, f.db, "g-1", "low")
	u2 := testhelpers.SeedUser(t, f.db, "g-2", "high")
	require.NoError(t, f.chessInfos.Upsert(&models.ChessInfo{UserID: u1.ID, Blitz: 1000, Bullet: 1000, Rapid: 1000}))
	require.NoError(t, f.chessInfos.Upsert(&models.ChessInfo{UserID: u2.ID, Blitz: 2000, Bullet: 2000, Rapid: 2000}))
	f.source.addPlayer("mid", chesscom.Stats{Blitz: 1500, Bullet: 2500, Rapid: 1000})

	pct, err := f.chess.Percentiles(context.Background(), "mid")
	require.NoError(t, err)
	assert.Equal(t, 50.0, pct.Blitz)
	assert.Equal(t, 100.0, pct.Bullet)
	assert.Equal(t, 0.0, pct.Rapid)
}

func TestPercentilesUnknownUsername(t *testing.T) {
	f := newFixture(t)
	_, err := f.chess.Percentiles(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrInvalidUsername)
}

func TestComputePercentiles(t *testing.T) {
	stored := []models.ChessInfo{
		{Blitz: 800, Bullet: 800, Rapid: 800},
		{Blitz: 1200, Bullet: 1200, Rapid: 1200},
		{Blitz: 1600, Bullet: 1600, Rapid: 1600},
		{Blitz: 2000, Bullet: 2000, Rapid: 2000},
	}

	tests := []struct {
		name string
		live chesscom.Stats
		want models.Percentiles
	}{
		{name: "below everyone", live: chesscom.Stats{Blitz: 100, Bullet: 100, Rapid: 100}, want: models.Percentiles{}},
		{name: "ties do not count", live: chesscom.Stats{Blitz: 1200, Bullet: 1201, Rapid: 2000}, want: models.Percentiles{Blitz: 25, Bullet: 50, Rapid: 75}},
		{name: "above everyone", live: chesscom.Stats{Blitz: 3000, Bullet: 3000, Rapid: 3000}, want: models.Percentiles{Blitz: 100, Bullet: 100, Rapid: 100}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, computePercentiles(tc.live, stored))
		})
	}
}

func TestDashboard(t *testing.T) {
	f := newFixture(t)
	ratings := []struct {
		username string
		info     models.ChessInfo
	}{
		{"anna", models.ChessInfo{Blitz: 1500, Bullet: 1400, Rapid: 1000}},
		{"ben", models.ChessInfo{Blitz: 2100, Bullet: 1400, Rapid: 2000}},
		{"cleo", models.ChessInfo{Blitz: 1800, Bullet: 2200, Rapid: 1500}},
	}
	for _, r := range ratings {
		u := testhelpers.SeedUser(t, f.db, "g-"+r.username, r.username)
		info := r.info
		info.UserID = u.ID
		require.NoError(t, f.chessInfos.Upsert(&info))
	}
	testhelpers.SeedUser(t, f.db, "g-unlinked", "")

	dash, err := f.chess.Dashboard(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(4), dash.TotalUsers)
	assert.Equal(t, models.HighestRatings{Blitz: 2100, Bullet: 2200, Rapid: 2000}, dash.Highest)
	assert.InDelta(t, 1500.0, dash.AverageRapid, 0.001)

	require.Len(t, dash.Top10.Blitz, 3)
	assert.Equal(t, "ben", dash.Top10.Blitz[0].ChessUsername)
	assert.Equal(t, 2100, dash.Top10.Blitz[0].Rating)

	require.Len(t, dash.Top10.Bullet, 3)
	assert.Equal(t, "cleo", dash.Top10.Bullet[0].ChessUsername)
	// equal bullet ratings keep storage order
	assert.Equal(t, "anna", dash.Top10.Bullet[1].ChessUsername)
	assert.Equal(t, "ben", dash.Top10.Bullet[2].ChessUsername)
}

func TestDashboardEmpty(t *testing.T) {
	f := newFixture(t)

	dash, err := f.chess.Dashboard(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), dash.TotalUsers)
	assert.Equal(t, 0.0, dash.AverageRapid)
	assert.Empty(t, dash.Top10.Rapid)
}

func TestDashboardStoreDown(t *testing.T) {
	f := newFixture(t)
	testhelpers.DropChessInfoTable(t, f.db)

	_, err := f.chess.Dashboard(context.Background())
	assert.ErrorIs(t, err, ErrUpstreamUnavailable)
}

func TestPercentilesStoreDown(t *testing.T) {
	f := newFixture(t)
	f.source.addPlayer("solo", chesscom.Stats{Blitz: 1500})
	testhelpers.DropChessInfoTable(t, f.db)

	_, err := f.chess.Percentiles(context.Background(), "solo")
	assert.ErrorIs(t, err, ErrUpstreamUnavailable)
}
