package eligibility

import "testing"

func intPtr(v int) *int { return &v }

func TestTiersAreDisjointAndCoverEligibleRanks(t *testing.T) {
	seen := make(map[int]string)
	for _, tier := range Tiers() {
		for _, r := range tier.Ranks {
			if owner, dup := seen[r]; dup {
				t.Fatalf("rank %d claimed by both %s and %s", r, owner, tier.ID)
			}
			seen[r] = tier.ID
		}
	}
	if len(seen) != MaxEligibleRank {
		t.Fatalf("expected %d ranks covered, got %d", MaxEligibleRank, len(seen))
	}
	for r := 1; r <= MaxEligibleRank; r++ {
		if _, ok := seen[r]; !ok {
			t.Fatalf("rank %d not covered by any tier", r)
		}
	}
	if got := len(Tiers()); got != 4 {
		t.Fatalf("expected 4 tiers, got %d", got)
	}
}

func TestResolveEveryEligibleRankReturnsOneTier(t *testing.T) {
	for r := 1; r <= MaxEligibleRank; r++ {
		tier, ok := Resolve(intPtr(r))
		if !ok {
			t.Fatalf("rank %d: expected a tier", r)
		}
		matches := 0
		for _, candidate := range tier.Ranks {
			if candidate == r {
				matches++
			}
		}
		if matches != 1 {
			t.Fatalf("rank %d resolved to %s which does not list it", r, tier.ID)
		}
	}
}

func TestResolveScenarios(t *testing.T) {
	cases := []struct {
		name   string
		rank   *int
		wantID string
		wantOK bool
	}{
		{"first visitor", intPtr(1), "premium_combo", true},
		{"second visitor", intPtr(2), "combo_coffee_burger", true},
		{"third visitor", intPtr(3), "combo_coffee_burger", true},
		{"fifth visitor", intPtr(5), "burger", true},
		{"tenth visitor", intPtr(10), "coffee", true},
		{"eleventh visitor", intPtr(11), "", false},
		{"large rank", intPtr(500), "", false},
		{"zero", intPtr(0), "", false},
		{"negative", intPtr(-3), "", false},
		{"absent", nil, "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tier, ok := Resolve(tc.rank)
			if ok != tc.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tc.wantOK)
			}
			if tier.ID != tc.wantID {
				t.Fatalf("tier = %q, want %q", tier.ID, tc.wantID)
			}
		})
	}
}

func TestResolveIsDeterministic(t *testing.T) {
	first, _ := ResolveRank(7)
	for i := 0; i < 5; i++ {
		again, _ := ResolveRank(7)
		if again.ID != first.ID {
			t.Fatalf("call %d returned %s, want %s", i, again.ID, first.ID)
		}
	}
}

func TestReturnedTiersDoNotAliasTable(t *testing.T) {
	tier, _ := ResolveRank(4)
	tier.Ranks[0] = 99
	again, _ := ResolveRank(4)
	if again.Ranks[0] == 99 {
		t.Fatal("mutating a resolved tier changed the shared table")
	}
}

func TestTierByID(t *testing.T) {
	tier, ok := TierByID("coffee")
	if !ok || len(tier.Ranks) != 4 {
		t.Fatalf("unexpected coffee tier: %+v ok=%v", tier, ok)
	}
	if _, ok := TierByID("caviar"); ok {
		t.Fatal("unknown tier id resolved")
	}
}
