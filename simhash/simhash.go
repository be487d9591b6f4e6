// Package simhash fingerprints extracted page content so a pagination step
// that did not actually move can be told apart from a genuinely new page.
package simhash

import (
	"hash/fnv"
	"math/bits"
	"strconv"

	"github.com/use-agent/variantsync/models"
)

// Fingerprint computes a 64-bit SimHash over the given tokens.
// Uses FNV-64a per token with bit vector accumulation.
func Fingerprint(tokens []string) uint64 {
	var vector [64]int
	n := 0

	for _, tok := range tokens {
		if tok == "" {
			continue
		}
		n++
		h := fnv.New64a()
		h.Write([]byte(tok))
		hash := h.Sum64()

		for i := 0; i < 64; i++ {
			if hash&(1<<uint(i)) != 0 {
				vector[i]++
			} else {
				vector[i]--
			}
		}
	}
	if n == 0 {
		return 0
	}

	var fingerprint uint64
	for i := 0; i < 64; i++ {
		if vector[i] > 0 {
			fingerprint |= 1 << uint(i)
		}
	}
	return fingerprint
}

// FingerprintProducts fingerprints the identity of a page's products:
// product names, variant names and stock. Toggle state and prices are left
// out so that adjustments made on a page do not change its fingerprint.
func FingerprintProducts(products []models.Product) uint64 {
	tokens := make([]string, 0, len(products)*4)
	for _, p := range products {
		tokens = append(tokens, "p:"+p.Name)
		for _, v := range p.Variants {
			tokens = append(tokens, "v:"+p.Name+"/"+v.Name+"#"+strconv.Itoa(v.Stock))
		}
	}
	return Fingerprint(tokens)
}

// Distance counts the bits in which two fingerprints differ.
func Distance(a, b uint64) int {
	return bits.OnesCount64(a ^ b)
}

// Similar reports whether two page fingerprints are at most threshold bits
// apart. The zero fingerprint (no products) is similar to nothing.
func Similar(a, b uint64, threshold int) bool {
	if a == 0 || b == 0 {
		return false
	}
	return Distance(a, b) <= threshold
}
