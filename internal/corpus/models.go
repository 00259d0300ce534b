package corpus

import "fmt"

// Poem is one of the hundred cards. Kami is the recited half (上の句), Shimo
// the grabbing-card half (下の句). Kimariji is the shortest prefix of the kana
// reading that uniquely identifies the poem.
type Poem struct {
	ID          string `json:"id"`
	Order       int    `json:"order"` // 1..100
	Kami        string `json:"kami"`
	KamiKana    string `json:"kami_kana"`
	Shimo       string `json:"shimo"`
	ShimoKana   string `json:"shimo_kana"`
	Kimariji    string `json:"kimariji"`
	KimarijiLen int    `json:"kimariji_len"` // 1..6
	Author      string `json:"author"`
}

const Size = 100

// Validate checks the full-corpus invariants before an import is accepted:
// exactly 100 poems, unique IDs, orders dense 1..100, kimariji length 1..6.
func Validate(poems []Poem) error {
	if len(poems) != Size {
		return fmt.Errorf("corpus must hold exactly %d poems, got %d", Size, len(poems))
	}
	ids := make(map[string]bool, len(poems))
	orders := make(map[int]bool, len(poems))
	for _, p := range poems {
		if p.ID == "" {
			return fmt.Errorf("poem %d has empty id", p.Order)
		}
		if ids[p.ID] {
			return fmt.Errorf("duplicate poem id %q", p.ID)
		}
		ids[p.ID] = true
		if p.Order < 1 || p.Order > Size {
			return fmt.Errorf("poem %q order %d out of range", p.ID, p.Order)
		}
		if orders[p.Order] {
			return fmt.Errorf("duplicate poem order %d", p.Order)
		}
		orders[p.Order] = true
		if p.KimarijiLen < 1 || p.KimarijiLen > 6 {
			return fmt.Errorf("poem %q kimariji length %d out of range", p.ID, p.KimarijiLen)
		}
	}
	return nil
}
