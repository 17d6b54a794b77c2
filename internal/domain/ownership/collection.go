package ownership

import "github.com/samber/lo"

// Collection is the ordered list of card instances a character holds. Each element is a
// card definition id; the same id may appear several times.
type Collection []int64

func (c Collection) Count(cardID int64) int {
	return lo.Count(c, cardID)
}

func (c Collection) Has(cardID int64) bool {
	return lo.Contains(c, cardID)
}

// Owned returns the set of distinct card ids in the collection.
func (c Collection) Owned() map[int64]struct{} {
	set := make(map[int64]struct{}, len(c))
	for _, id := range c {
		set[id] = struct{}{}
	}
	return set
}

// Add returns a new collection with one instance of cardID appended.
func (c Collection) Add(cardID int64) Collection {
	out := make(Collection, len(c), len(c)+1)
	copy(out, c)
	return append(out, cardID)
}

// Remove returns a new collection without the last instance of cardID.
// ok is false when the collection holds no instance of it.
func (c Collection) Remove(cardID int64) (Collection, bool) {
	idx := lo.LastIndexOf(c, cardID)
	if idx < 0 {
		return c, false
	}
	out := make(Collection, 0, len(c)-1)
	out = append(out, c[:idx]...)
	return append(out, c[idx+1:]...), true
}

func (c Collection) Clone() Collection {
	if c == nil {
		return nil
	}
	return append(Collection(nil), c...)
}
