package leaderboard

import (
	"math/rand"
	"sort"
)

// distributionSampleSize is the fixed draw size once a set crosses the
// numPoints threshold. The threshold parameter intentionally does not drive
// the draw size; clients calibrated their charts against this constant.
const distributionSampleSize = 50

// sampleDistribution produces the bounded score sample for the distribution
// chart. Sets at or under numPoints pass through whole; larger sets get a
// random draw of distributionSampleSize points (capped at the set size). The
// requester's own point is always present exactly once, highlighted, and the
// result is ascending by score.
//
// rng may be nil, in which case the shared math/rand source is used.
func sampleDistribution(entries []Entry, requester string, numPoints int, rng *rand.Rand) []RankPoint {
	points := make([]RankPoint, 0, len(entries))
	var requesterPoint *RankPoint
	for _, e := range entries {
		p := RankPoint{Value: e.Score, ShowVerticalLine: e.Member == requester}
		if p.ShowVerticalLine {
			requesterPoint = &RankPoint{Value: e.Score, ShowVerticalLine: true}
		}
		points = append(points, p)
	}

	if len(points) <= numPoints {
		return points
	}

	size := distributionSampleSize
	if size > len(points) {
		size = len(points)
	}

	var order []int
	if rng != nil {
		order = rng.Perm(len(points))
	} else {
		order = rand.Perm(len(points))
	}

	sample := make([]RankPoint, 0, size+1)
	sampledRequester := false
	for _, idx := range order[:size] {
		sample = append(sample, points[idx])
		if points[idx].ShowVerticalLine {
			sampledRequester = true
		}
	}

	if requesterPoint != nil && !sampledRequester {
		sample = append(sample, *requesterPoint)
	}

	sort.Slice(sample, func(i, j int) bool { return sample[i].Value < sample[j].Value })
	return sample
}
