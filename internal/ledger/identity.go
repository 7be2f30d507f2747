package ledger

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// AnonymousDonor is the identity every anonymous donation collapses into
const AnonymousDonor = "anonymous"

// IsEthTxHash reports whether s is a 0x-prefixed 32-byte hex hash
func IsEthTxHash(s string) bool {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		return false
	}
	return len(s) == 2+2*common.HashLength && isHex(s[2:])
}

// NormalizeTxHash lower-cases Ethereum hashes so the same transaction always
// dedups; other chains' signatures (base58) are case-sensitive and kept as is.
func NormalizeTxHash(s string) string {
	s = strings.TrimSpace(s)
	if IsEthTxHash(s) {
		return common.HexToHash(s).Hex()
	}
	return s
}

// NormalizeAddress returns the EIP-55 form of Ethereum addresses and the
// trimmed input for anything else.
func NormalizeAddress(s string) string {
	s = strings.TrimSpace(s)
	if common.IsHexAddress(s) {
		return common.HexToAddress(s).Hex()
	}
	return s
}

// DonorIdentity is the key used to count unique donors
func DonorIdentity(address string, anonymous bool) string {
	addr := NormalizeAddress(address)
	if anonymous || addr == "" {
		return AnonymousDonor
	}
	return addr
}

func isHex(s string) bool {
	for _, c := range s {
		switch {
		case c >= '0' && c <= '9', c >= 'a' && c <= 'f', c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}
