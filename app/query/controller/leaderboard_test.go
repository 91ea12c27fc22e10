package controller_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-jose/go-jose/v4/json"
	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/mux"
	"github.com/liftlab/rankx/app/query/controller"
	"github.com/liftlab/rankx/app/query/types"
	"github.com/liftlab/rankx/pkg/leaderboard"
	"github.com/puzpuzpuz/xsync/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const testSecret = "test-secret"

type stubSource struct {
	overall   map[string][]leaderboard.Entry
	usernames map[string]string
}

func (s *stubSource) OverallScores(_ context.Context, column string) ([]leaderboard.Entry, error) {
	return s.overall[column], nil
}

func (s *stubSource) ExerciseScores(_ context.Context, _, _ string) ([]leaderboard.Entry, error) {
	return nil, nil
}

func (s *stubSource) Username(_ context.Context, userID string) (string, error) {
	return s.usernames[userID], nil
}

type stubTotalsStore struct {
	result *leaderboard.CumulativeTotals
}

func (s *stubTotalsStore) AddTotals(_ context.Context, _ leaderboard.WorkoutRecord) (*leaderboard.CumulativeTotals, error) {
	return s.result, nil
}

func newTestRouter(t *testing.T) *mux.Router {
	t.Helper()

	source := &stubSource{
		overall: map[string][]leaderboard.Entry{
			"volume": {
				{Member: "u1", Score: 500},
				{Member: "u2", Score: 400},
				{Member: "u3", Score: 300},
			},
		},
		usernames: map[string]string{"u1": "ann", "u2": "ben", "u3": "cam"},
	}

	index := leaderboard.NewMemoryIndex()
	logger := zaptest.NewLogger(t)
	app := &types.App{
		Leaderboard: leaderboard.NewService(index, source, logger),
		Recorder: leaderboard.NewRecorder(&stubTotalsStore{
			result: &leaderboard.CumulativeTotals{
				Overall:   leaderboard.OverallTotals{Volume: 100, Workouts: 1},
				Exercises: map[string]leaderboard.ExerciseCumulative{},
			},
		}, index, nil, logger),
		LastServed: xsync.NewMap[string, time.Time](),
		JWTSecret:  []byte(testSecret),
		Logger:     logger,
	}

	router, err := controller.NewController(app).NewRouter()
	require.NoError(t, err)
	return router
}

func bearerToken(t *testing.T, userID string) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	signed, err := tok.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return "Bearer " + signed
}

func TestLeaderboardOverallRequiresAuth(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/leaderboard/overall/volume?top_num=3&side_num=2&num_rank_points=100", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLeaderboardOverallRejectsBadSignature(t *testing.T) {
	router := newTestRouter(t)

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"user_id": "u2"})
	signed, err := tok.SignedString([]byte("wrong-secret"))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/leaderboard/overall/volume?top_num=3&side_num=2&num_rank_points=100", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLeaderboardOverall(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/leaderboard/overall/volume?top_num=3&side_num=2&num_rank_points=100", nil)
	req.Header.Set("Authorization", bearerToken(t, "u2"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Leaderboard leaderboard.View `json:"leaderboard"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))

	view := body.Leaderboard
	require.Len(t, view.Leaderboard, 3)
	assert.Equal(t, "u1", view.Leaderboard[0].UserID)
	assert.Equal(t, "ann", view.Leaderboard[0].Username)
	assert.Equal(t, int64(1), view.Leaderboard[0].Rank)
	require.NotNil(t, view.UserRank)
	assert.Equal(t, int64(2), *view.UserRank)
	assert.Equal(t, int64(3), view.MaxRank)
	assert.Nil(t, view.Fracture)
	assert.Len(t, view.RankData, 3)
}

func TestLeaderboardOverallBadParams(t *testing.T) {
	router := newTestRouter(t)

	for _, query := range []string{
		"",
		"top_num=3&side_num=2",
		"top_num=-1&side_num=2&num_rank_points=100",
		"top_num=x&side_num=2&num_rank_points=100",
	} {
		req := httptest.NewRequest(http.MethodGet, "/leaderboard/overall/volume?"+query, nil)
		req.Header.Set("Authorization", bearerToken(t, "u1"))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code, "query %q", query)
	}
}

func TestLeaderboardOverallUnknownMetric(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/leaderboard/overall/stamina?top_num=3&side_num=2&num_rank_points=100", nil)
	req.Header.Set("Authorization", bearerToken(t, "u1"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRecordWorkoutUsesTokenIdentity(t *testing.T) {
	router := newTestRouter(t)

	payload, err := json.Marshal(map[string]any{
		"workout": leaderboard.WorkoutTotals{Volume: 100},
		// The payload cannot spoof another user; identity comes from the token.
		"user_id":   "someone-else",
		"exercises": map[string]leaderboard.ExerciseTotals{},
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/internal/records/workout", bytes.NewReader(payload))
	req.Header.Set("Authorization", bearerToken(t, "u9"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var cums leaderboard.CumulativeTotals
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&cums))
	assert.Equal(t, float64(100), cums.Overall.Volume)
}

func TestCORSPreflight(t *testing.T) {
	handler := controller.WithCORS(newTestRouter(t))

	req := httptest.NewRequest(http.MethodOptions, "/leaderboard/overall/volume", nil)
	req.Header.Set("Origin", "https://app.liftlab.io")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://app.liftlab.io", rec.Header().Get("Access-Control-Allow-Origin"))
}
