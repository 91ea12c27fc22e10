package controller

import (
	"net/http"
	"strconv"

	"github.com/liftlab/rankx/pkg/leaderboard"
)

// windowSpec carries the leaderboard window query parameters. All three are
// required; negatives are rejected before any cache access.
type windowSpec struct {
	TopN       int
	SideN      int
	RankPoints int
}

func parseWindowSpec(r *http.Request) (windowSpec, error) {
	qs := r.URL.Query()

	topN, err := nonNegativeInt(qs.Get("top_num"))
	if err != nil {
		return windowSpec{}, errInvalidTopNum
	}
	sideN, err := nonNegativeInt(qs.Get("side_num"))
	if err != nil {
		return windowSpec{}, errInvalidSideNum
	}
	rankPoints, err := nonNegativeInt(qs.Get("num_rank_points"))
	if err != nil {
		return windowSpec{}, errInvalidRankPoints
	}

	return windowSpec{TopN: topN, SideN: sideN, RankPoints: rankPoints}, nil
}

func (ws windowSpec) params() leaderboard.Params {
	return leaderboard.Params{TopN: ws.TopN, SideN: ws.SideN, RankPoints: ws.RankPoints}
}

func nonNegativeInt(v string) (int, error) {
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, errNegative
	}
	return n, nil
}

var (
	errNegative          = &parseError{msg: "must be a non-negative integer"}
	errInvalidTopNum     = &parseError{msg: "invalid top_num, must be a non-negative integer"}
	errInvalidSideNum    = &parseError{msg: "invalid side_num, must be a non-negative integer"}
	errInvalidRankPoints = &parseError{msg: "invalid num_rank_points, must be a non-negative integer"}
)

type parseError struct{ msg string }

func (e *parseError) Error() string { return e.msg }
