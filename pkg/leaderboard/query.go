package leaderboard

import (
	"context"

	"go.uber.org/zap"
)

// Params is the window specification carried by a leaderboard request.
type Params struct {
	// TopN is the size of the always-shown top block.
	TopN int
	// SideN is the half-width of the window around the requester.
	SideN int
	// RankPoints is the distribution-sample threshold (see sampler notes).
	RankPoints int
}

// Row is one displayed leaderboard entry. Rank is one-based and positioned
// within the full ranking, not within the returned slice.
type Row struct {
	UserID   string  `json:"user_id"`
	Username string  `json:"username"`
	Rank     int64   `json:"rank"`
	Value    float64 `json:"value"`
}

// RankPoint is one sampled score for the client-side distribution chart.
type RankPoint struct {
	Value            float64 `json:"value"`
	ShowVerticalLine bool    `json:"showVerticalLine"`
}

// View is the composed leaderboard response.
type View struct {
	Leaderboard []Row       `json:"leaderboard"`
	Fracture    *int        `json:"fracture"`
	UserRank    *int64      `json:"user_rank"`
	MaxRank     int64       `json:"max_rank"`
	FriendIDs   []string    `json:"friend_ids"`
	RankData    []RankPoint `json:"rank_data"`
}

// Service answers leaderboard reads. It resolves ranks entirely from the
// ranking index; the relational source is touched only for cold rebuilds and
// display-name lookups.
type Service struct {
	Index  RankingIndex
	Source ScoreSource
	Syncer *Syncer
	Logger *zap.Logger
}

func NewService(index RankingIndex, source ScoreSource, logger *zap.Logger) *Service {
	return &Service{
		Index:  index,
		Source: source,
		Syncer: NewSyncer(index, source, logger),
		Logger: logger,
	}
}

// Overall returns the windowed overall-scope leaderboard for metric.
func (s *Service) Overall(ctx context.Context, metric Metric, requester string, p Params) (*View, error) {
	key, err := s.Syncer.EnsureOverall(ctx, metric)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, key, requester, p)
}

// Exercise returns the windowed per-exercise leaderboard for metric.
func (s *Service) Exercise(ctx context.Context, exerciseID string, metric Metric, requester string, p Params) (*View, error) {
	key, err := s.Syncer.EnsureExercise(ctx, exerciseID, metric)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, key, requester, p)
}

// view assembles the top block, the side window around the requester, the
// fracture marker and the distribution sample.
//
// Placement cases, with rank zero-based and count the set size:
//   - requester absent or rank <= topN+sideN: one contiguous block
//     [0, topN+2*sideN], no fracture.
//   - rank >= count-sideN-1: top block plus a bottom-aligned side block
//     [maxRank-2*sideN, maxRank], fracture at topN.
//   - otherwise: top block plus a centered side block
//     [rank-sideN, rank+sideN], fracture at topN.
//
// The side block start is clamped to topN so the two blocks never overlap.
func (s *Service) view(ctx context.Context, key, requester string, p Params) (*View, error) {
	if p.TopN < 0 || p.SideN < 0 {
		return nil, ErrInvalidWindow
	}

	view := &View{
		Leaderboard: []Row{},
		FriendIDs:   []string{},
		RankData:    []RankPoint{},
	}

	count, err := s.Index.Cardinality(ctx, key)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return view, nil
	}
	maxRank := count - 1
	view.MaxRank = maxRank + 1

	rank, present, err := s.Index.RankDesc(ctx, key, requester)
	if err != nil {
		return nil, err
	}
	if present {
		displayRank := rank + 1
		view.UserRank = &displayRank
	}

	topN := int64(p.TopN)
	sideN := int64(p.SideN)

	switch {
	case !present || rank <= topN+sideN:
		entries, rangeErr := s.Index.RangeDesc(ctx, key, 0, topN+2*sideN)
		if rangeErr != nil {
			return nil, rangeErr
		}
		rows, rowsErr := s.rows(ctx, entries, 0)
		if rowsErr != nil {
			return nil, rowsErr
		}
		view.Leaderboard = rows

	case rank >= count-sideN-1:
		fracture := p.TopN
		view.Fracture = &fracture
		rows, blockErr := s.blocks(ctx, key, topN, maxRank-2*sideN, maxRank)
		if blockErr != nil {
			return nil, blockErr
		}
		view.Leaderboard = rows

	default:
		fracture := p.TopN
		view.Fracture = &fracture
		rows, blockErr := s.blocks(ctx, key, topN, rank-sideN, rank+sideN)
		if blockErr != nil {
			return nil, blockErr
		}
		view.Leaderboard = rows
	}

	all, err := s.Index.RangeAll(ctx, key)
	if err != nil {
		return nil, err
	}
	view.RankData = sampleDistribution(all, requester, p.RankPoints, nil)

	return view, nil
}

// blocks fetches the top block [0, topN-1] followed by the side block
// [sideStart, sideStop], with the side start clamped to topN.
func (s *Service) blocks(ctx context.Context, key string, topN, sideStart, sideStop int64) ([]Row, error) {
	var rows []Row

	if topN > 0 {
		top, err := s.Index.RangeDesc(ctx, key, 0, topN-1)
		if err != nil {
			return nil, err
		}
		topRows, err := s.rows(ctx, top, 0)
		if err != nil {
			return nil, err
		}
		rows = topRows
	}

	if sideStart < topN {
		sideStart = topN
	}
	sides, err := s.Index.RangeDesc(ctx, key, sideStart, sideStop)
	if err != nil {
		return nil, err
	}
	sideRows, err := s.rows(ctx, sides, sideStart)
	if err != nil {
		return nil, err
	}

	return append(rows, sideRows...), nil
}

// rows resolves display names and assigns one-based ranks offset by the
// block's position in the full ranking.
func (s *Service) rows(ctx context.Context, entries []Entry, startRank int64) ([]Row, error) {
	rows := make([]Row, 0, len(entries))
	for i, e := range entries {
		name, err := s.Source.Username(ctx, e.Member)
		if err != nil {
			return nil, err
		}
		rows = append(rows, Row{
			UserID:   e.Member,
			Username: name,
			Rank:     startRank + int64(i) + 1,
			Value:    e.Score,
		})
	}
	return rows, nil
}
