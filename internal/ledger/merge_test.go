package ledger

import (
	"testing"
	"time"

	"github.com/dev0xiinko/don-8-sub001/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func txHashes(ds []model.DonationModel) []string {
	out := make([]string, len(ds))
	for i, d := range ds {
		out[i] = d.TxHash
	}
	return out
}

func TestMergeDonationsAppendsAndSorts(t *testing.T) {
	existing := []model.DonationModel{
		donation("0xa", "1", model.DonationStatusConfirmed, "", t0.Add(2*time.Hour)),
		donation("0xb", "1", model.DonationStatusConfirmed, "", t0),
	}
	batch := []model.DonationModel{
		donation("0xc", "1", model.DonationStatusPending, "", t0.Add(time.Hour)),
		donation("0xd", "1", model.DonationStatusPending, "", t0.Add(3*time.Hour)),
	}
	res := MergeDonations(existing, batch)

	assert.Equal(t, 0, res.Duplicates)
	assert.Equal(t, []string{"0xc", "0xd"}, txHashes(res.Accepted))
	assert.Equal(t, []string{"0xd", "0xa", "0xc", "0xb"}, txHashes(res.Collection))
}

func TestMergeDonationsScenarioB(t *testing.T) {
	d := donation("0xabc", "5", model.DonationStatusPending, "", t0)

	first := MergeDonations(nil, []model.DonationModel{d})
	require.Len(t, first.Accepted, 1)

	second := MergeDonations(first.Collection, []model.DonationModel{d})
	assert.Empty(t, second.Accepted)
	assert.Equal(t, 1, second.Duplicates)
	assert.Len(t, second.Collection, 1)
}

func TestMergeDonationsIdempotent(t *testing.T) {
	batch := []model.DonationModel{
		donation("0x1", "1", model.DonationStatusPending, "", t0),
		donation("0x2", "2", model.DonationStatusPending, "", t0.Add(time.Minute)),
	}
	once := MergeDonations(nil, batch)
	twice := MergeDonations(once.Collection, batch)
	assert.Equal(t, txHashes(once.Collection), txHashes(twice.Collection))
	assert.Equal(t, 2, twice.Duplicates)
}

func TestMergeDonationsDuplicateWithinBatch(t *testing.T) {
	hash := "0x" + "AB" + "00000000000000000000000000000000000000000000000000000000000000"
	batch := []model.DonationModel{
		donation(hash, "1", model.DonationStatusPending, "", t0),
		donation(NormalizeTxHash(hash), "1", model.DonationStatusPending, "", t0),
	}
	res := MergeDonations(nil, batch)
	assert.Len(t, res.Accepted, 1)
	assert.Equal(t, 1, res.Duplicates)
}
