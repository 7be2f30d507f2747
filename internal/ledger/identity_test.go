package ledger

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeTxHash(t *testing.T) {
	upper := "0x" + strings.Repeat("AB", 32)
	assert.True(t, IsEthTxHash(upper))
	assert.Equal(t, "0x"+strings.Repeat("ab", 32), NormalizeTxHash(upper))

	// solana signatures are base58 and case-sensitive
	sig := "5VERv8NMvzbJMEkV8xnrLkEaWRtSz9CosKDYjCJjBRnbJLgp8uirBgmQpjKhoR4tjF3ZpRzrFmBV6UjKdiSZkQUW"
	assert.False(t, IsEthTxHash(sig))
	assert.Equal(t, sig, NormalizeTxHash(" "+sig+" "))

	assert.False(t, IsEthTxHash("0xabc"))
	assert.Equal(t, "0xabc", NormalizeTxHash("0xabc"))
}

func TestNormalizeAddress(t *testing.T) {
	assert.Equal(t,
		"0x52908400098527886E0F7030069857D2E4169EE7",
		NormalizeAddress("0x52908400098527886e0f7030069857d2e4169ee7"))
	assert.Equal(t, "phantomWallet", NormalizeAddress(" phantomWallet "))
}

func TestDonorIdentity(t *testing.T) {
	assert.Equal(t, AnonymousDonor, DonorIdentity("0xabc", true))
	assert.Equal(t, AnonymousDonor, DonorIdentity("", false))
	assert.Equal(t, "wallet", DonorIdentity("wallet", false))
}

func TestParseAmount(t *testing.T) {
	d, err := ParseAmount(" 30.50 ")
	require.NoError(t, err)
	assert.Equal(t, "30.5", FormatAmount(d))

	_, err = ParseAmount("-1")
	assert.ErrorIs(t, err, ErrNegativeAmount)

	_, err = ParseAmount("ten")
	assert.Error(t, err)

	_, err = ParseAmount("")
	assert.Error(t, err)

	assert.True(t, AmountOrZero("NaN").IsZero())

	s, err := CanonicalAmount("0020.000")
	require.NoError(t, err)
	assert.Equal(t, "20", s)
}

func TestKeyedMutexSerialisesPerKey(t *testing.T) {
	km := NewKeyedMutex()
	counters := map[string]*int{"a": new(int), "b": new(int)}
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		for key, counter := range counters {
			wg.Add(1)
			go func(key string, counter *int) {
				defer wg.Done()
				unlock := km.Lock(key)
				v := *counter
				time.Sleep(time.Microsecond)
				*counter = v + 1
				unlock()
			}(key, counter)
		}
	}
	wg.Wait()

	assert.Equal(t, 50, *counters["a"])
	assert.Equal(t, 50, *counters["b"])
	assert.Equal(t, 0, km.Len())
}
