// Package corpustest builds synthetic hundred-poem corpora for tests.
package corpustest

import (
	"fmt"

	"github.com/fudahub/fudahub/internal/corpus"
)

// kimarijiDistribution mirrors the real deck: 7 one-character poems
// (む・す・め・ふ・さ・ほ・せ), 42 two-character, 37 three-character,
// 6 four-character, 2 five-character and 6 six-character.
var kimarijiDistribution = map[int]int{1: 7, 2: 42, 3: 37, 4: 6, 5: 2, 6: 6}

// Corpus returns 100 synthetic poems whose kimariji lengths follow the real
// deck's distribution, ordered 1..100 with one-character poems first.
func Corpus() []corpus.Poem {
	poems := make([]corpus.Poem, 0, corpus.Size)
	ord := 1
	for k := 1; k <= 6; k++ {
		for i := 0; i < kimarijiDistribution[k]; i++ {
			poems = append(poems, corpus.Poem{
				ID:          fmt.Sprintf("poem-%03d", ord),
				Order:       ord,
				Kami:        fmt.Sprintf("kami %03d", ord),
				KamiKana:    fmt.Sprintf("かみ%03d", ord),
				Shimo:       fmt.Sprintf("shimo %03d", ord),
				ShimoKana:   fmt.Sprintf("しも%03d", ord),
				Kimariji:    fmt.Sprintf("き%02d", ord),
				KimarijiLen: k,
				Author:      fmt.Sprintf("author %03d", ord),
			})
			ord++
		}
	}
	return poems
}

// Accessor wraps Corpus in an in-memory accessor.
func Accessor() *corpus.MemoryAccessor {
	return corpus.NewMemoryAccessor(Corpus())
}
