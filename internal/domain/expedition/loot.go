package expedition

// Roller is the randomness source. *rand.Rand from math/rand/v2 satisfies it.
type Roller interface {
	Float64() float64
	IntN(n int) int
}

// RollLoot evaluates every entry on its own, so a hunt can return nothing, one item or several.
func RollLoot(entries []LootEntry, rng Roller) []Item {
	var items []Item
	for _, e := range entries {
		if rng.Float64()*100 >= e.Chance {
			continue
		}
		qty := e.Min
		if e.Max > e.Min {
			qty += rng.IntN(e.Max - e.Min + 1)
		}
		items = append(items, Item{ItemID: e.ItemID, Quantity: qty})
	}
	return items
}

// MergeItems sums quantities per item id, keeping first-seen order.
func MergeItems(stacks ...[]Item) []Item {
	index := make(map[string]int)
	var out []Item
	for _, stack := range stacks {
		for _, it := range stack {
			if i, ok := index[it.ItemID]; ok {
				out[i].Quantity += it.Quantity
				continue
			}
			index[it.ItemID] = len(out)
			out = append(out, it)
		}
	}
	return out
}
