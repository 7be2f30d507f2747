package ledger

import (
	"sort"

	"github.com/dev0xiinko/don-8-sub001/internal/model"
)

// MergeResult outcome of folding a candidate batch into a collection
type MergeResult struct {
	Collection []model.DonationModel // existing + accepted, newest first
	Accepted   []model.DonationModel
	Duplicates int
}

// MergeDonations appends candidates whose tx hash is not already present,
// either in existing or earlier in the batch. Hashes are compared after
// NormalizeTxHash; callers are expected to have normalised candidates.
func MergeDonations(existing, candidates []model.DonationModel) MergeResult {
	seen := make(map[string]struct{}, len(existing)+len(candidates))
	for _, d := range existing {
		seen[NormalizeTxHash(d.TxHash)] = struct{}{}
	}

	res := MergeResult{
		Collection: make([]model.DonationModel, 0, len(existing)+len(candidates)),
	}
	res.Collection = append(res.Collection, existing...)

	for _, c := range candidates {
		key := NormalizeTxHash(c.TxHash)
		if _, dup := seen[key]; dup {
			res.Duplicates++
			continue
		}
		seen[key] = struct{}{}
		res.Accepted = append(res.Accepted, c)
		res.Collection = append(res.Collection, c)
	}

	SortNewestFirst(res.Collection)
	return res
}

// SortNewestFirst orders donations by timestamp descending, ties by tx hash
func SortNewestFirst(donations []model.DonationModel) {
	sort.SliceStable(donations, func(i, j int) bool {
		a, b := donations[i], donations[j]
		if !a.Timestamp.Equal(b.Timestamp) {
			return a.Timestamp.After(b.Timestamp)
		}
		return a.TxHash < b.TxHash
	})
}
