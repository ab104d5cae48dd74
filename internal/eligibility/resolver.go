// Package eligibility maps a registrant's visit order (rank) to the
// voucher tier it earns.  The tier table is fixed at build time; the
// lookup is pure and safe to call from anywhere.
package eligibility

// MaxEligibleRank is the highest rank that earns a voucher.
const MaxEligibleRank = 10

// Tier is one of the four fixed voucher categories.
type Tier struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Ranks []int  `json:"ranks"`
}

var tiers = []Tier{
	{ID: "premium_combo", Name: "Premium Combo (Coffee + Burger + Dark Chocolate)", Ranks: []int{1}},
	{ID: "combo_coffee_burger", Name: "Combo: Coffee + Burger", Ranks: []int{2, 3}},
	{ID: "burger", Name: "Burger Voucher", Ranks: []int{4, 5, 6}},
	{ID: "coffee", Name: "Coffee Voucher", Ranks: []int{7, 8, 9, 10}},
}

// byRank is built once from tiers; ranks are disjoint so every key
// has exactly one owner.
var byRank = func() map[int]int {
	m := make(map[int]int, MaxEligibleRank)
	for i, t := range tiers {
		for _, r := range t.Ranks {
			m[r] = i
		}
	}
	return m
}()

// Resolve returns the tier for rank.  The boolean is false when rank
// is absent, not positive, or above MaxEligibleRank.
func Resolve(rank *int) (Tier, bool) {
	if rank == nil {
		return Tier{}, false
	}
	return ResolveRank(*rank)
}

// ResolveRank is Resolve for an assigned rank.
func ResolveRank(rank int) (Tier, bool) {
	if rank < 1 || rank > MaxEligibleRank {
		return Tier{}, false
	}
	i, ok := byRank[rank]
	if !ok {
		return Tier{}, false
	}
	return clone(tiers[i]), true
}

// TierByID looks a tier up by its identifier.
func TierByID(id string) (Tier, bool) {
	for _, t := range tiers {
		if t.ID == id {
			return clone(t), true
		}
	}
	return Tier{}, false
}

// Tiers returns a copy of the tier table in rank order.
func Tiers() []Tier {
	out := make([]Tier, 0, len(tiers))
	for _, t := range tiers {
		out = append(out, clone(t))
	}
	return out
}

func clone(t Tier) Tier {
	t.Ranks = append([]int(nil), t.Ranks...)
	return t
}
