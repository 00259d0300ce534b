package match

// Level is a difficulty tier (級). BoardSize is the number of cards shown per
// round, RoundCount the fixed match length, MaxKimariji the decisive-prefix
// ceiling for eligible poems. A level whose pool is smaller than its board
// is a configuration error caught at session start.
type Level struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	BoardSize   int    `json:"board_size"`
	RoundCount  int    `json:"round_count"`
	MaxKimariji int    `json:"max_kimariji"`
}

// Levels is the fixed tier table. The lowest tier restricts the pool to the
// seven one-character poems, which is exactly its board size.
var Levels = []Level{
	{ID: "kyu-10", Name: "十級", BoardSize: 7, RoundCount: 5, MaxKimariji: 1},
	{ID: "kyu-8", Name: "八級", BoardSize: 7, RoundCount: 8, MaxKimariji: 2},
	{ID: "kyu-6", Name: "六級", BoardSize: 9, RoundCount: 10, MaxKimariji: 3},
	{ID: "kyu-4", Name: "四級", BoardSize: 9, RoundCount: 12, MaxKimariji: 4},
	{ID: "kyu-2", Name: "二級", BoardSize: 12, RoundCount: 15, MaxKimariji: 5},
	{ID: "kyu-1", Name: "一級", BoardSize: 12, RoundCount: 20, MaxKimariji: 6},
}

func LevelByID(id string) (Level, bool) {
	for _, l := range Levels {
		if l.ID == id {
			return l, true
		}
	}
	return Level{}, false
}
