// Package ranking provides a deterministic ordered index over lecturer
// scores.
//
// Treap-based, in-memory. Ordering: score DESC, then lecturer id ASC, so an
// in-order traversal produces the performer list from best to worst with a
// total order even under score ties. Unlike a leaderboard of personal bests,
// Update replaces the indexed score in both directions: a lecturer's latest
// overall score can drop.
package ranking

import (
	"context"
	"math"
	"time"

	"github.com/mweemba/staffkpi/pkg/metrics"
)

// scoreScale controls fixed-point scaling from float64. Overall scores are
// small integers, but department-scoped averages may carry decimals.
const scoreScale = 1_000_000

type scoreFP int64

func toFixedPoint(x float64) scoreFP {
	if math.IsNaN(x) {
		return 0
	}
	scaled := x * scoreScale
	if scaled > float64(math.MaxInt64) {
		return scoreFP(math.MaxInt64)
	}
	if scaled < float64(math.MinInt64) {
		return scoreFP(math.MinInt64)
	}
	return scoreFP(math.Round(scaled))
}

func toFloat(x scoreFP) float64 {
	return float64(x) / scoreScale
}

// Entry is one row of the performer index.
type Entry struct {
	Rank       int
	LecturerID string
	Score      float64
}

// treap node
type node struct {
	id    string
	score scoreFP
	prio  uint64
	left  *node
	right *node
	size  int
}

func nsize(n *node) int {
	if n == nil {
		return 0
	}
	return n.size
}

func fix(n *node) {
	if n != nil {
		n.size = 1 + nsize(n.left) + nsize(n.right)
	}
}

// less returns true if (aScore, aID) ranks earlier than (bScore, bID):
// higher score first, lecturer id ascending on ties.
func less(aScore scoreFP, aID string, bScore scoreFP, bID string) bool {
	if aScore != bScore {
		return aScore > bScore
	}
	return aID < bID
}

func rotateRight(y *node) *node {
	x := y.left
	t2 := x.right
	x.right = y
	y.left = t2
	fix(y)
	fix(x)
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	t2 := y.left
	y.left = x
	x.right = t2
	fix(x)
	fix(y)
	return y
}

// scoreToPriority keeps higher scores near the treap root. The offset shifts
// the signed fixed-point value into unsigned order.
func scoreToPriority(score scoreFP) uint64 {
	const offset = uint64(1) << 63
	return uint64(score) + offset
}

func insert(n *node, id string, score scoreFP) *node {
	if n == nil {
		return &node{id: id, score: score, prio: scoreToPriority(score), size: 1}
	}
	if less(score, id, n.score, n.id) {
		n.left = insert(n.left, id, score)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, id, score)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

func deleteNode(n *node, id string, score scoreFP) *node {
	if n == nil {
		return nil
	}
	if score == n.score && id == n.id {
		if n.left == nil {
			return n.right
		}
		if n.right == nil {
			return n.left
		}
		if n.left.prio > n.right.prio {
			n = rotateRight(n)
			n.right = deleteNode(n.right, id, score)
		} else {
			n = rotateLeft(n)
			n.left = deleteNode(n.left, id, score)
		}
	} else if less(score, id, n.score, n.id) {
		n.left = deleteNode(n.left, id, score)
	} else {
		n.right = deleteNode(n.right, id, score)
	}
	fix(n)
	return n
}

// collectTopN appends up to limit entries in rank order (best first).
func collectTopN(n *node, limit int, out *[]Entry) {
	if n == nil || len(*out) >= limit {
		return
	}
	collectTopN(n.left, limit, out)
	if len(*out) < limit {
		*out = append(*out, Entry{LecturerID: n.id, Score: toFloat(n.score)})
	}
	if len(*out) < limit {
		collectTopN(n.right, limit, out)
	}
}

// Index is the in-memory score index.
// Not safe for concurrent use; callers serialize access.
type Index struct {
	root *node
	byID map[string]scoreFP
}

// NewIndex constructs an empty index.
func NewIndex() *Index {
	return &Index{byID: make(map[string]scoreFP)}
}

// Update sets the indexed score for a lecturer, replacing any previous one
// regardless of direction. O(log n) expected time.
func (x *Index) Update(ctx context.Context, lecturerID string, score float64) {
	start := time.Now()
	defer func() {
		metrics.RecordRankingUpdateDuration(float64(time.Since(start).Microseconds()) / 1e3)
	}()

	ns := toFixedPoint(score)
	if old, ok := x.byID[lecturerID]; ok {
		if old == ns {
			return
		}
		x.root = deleteNode(x.root, lecturerID, old)
	}
	x.byID[lecturerID] = ns
	x.root = insert(x.root, lecturerID, ns)
}

// Remove drops a lecturer from the index, e.g. when they become unscoreable.
func (x *Index) Remove(ctx context.Context, lecturerID string) {
	old, ok := x.byID[lecturerID]
	if !ok {
		return
	}
	x.root = deleteNode(x.root, lecturerID, old)
	delete(x.byID, lecturerID)
}

// TopN returns the best n entries with ranks assigned. Entries with equal
// scores share a rank and keep lecturer-id order.
func (x *Index) TopN(ctx context.Context, n int) []Entry {
	if n < 1 {
		return nil
	}
	out := make([]Entry, 0, n)
	collectTopN(x.root, n, &out)
	assignRanksWithTies(out)
	return out
}

// Count returns the number of indexed lecturers.
func (x *Index) Count(ctx context.Context) int {
	return len(x.byID)
}

// assignRanksWithTies gives equal scores equal ranks; ranks advance by one
// per distinct score (consecutive ranking).
func assignRanksWithTies(entries []Entry) {
	rank := 0
	for i := range entries {
		if i == 0 || entries[i].Score != entries[i-1].Score {
			rank++
		}
		entries[i].Rank = rank
	}
}
