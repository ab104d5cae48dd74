package repository_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/iliyamo/faculty-fest/internal/database/dbtest"
	"github.com/iliyamo/faculty-fest/internal/model"
	"github.com/iliyamo/faculty-fest/internal/repository"
)

func newRegistrant(i int) *model.Registrant {
	return &model.Registrant{
		SICNumber:    fmt.Sprintf("SIC%03d", i),
		Email:        fmt.Sprintf("Faculty%d@College.edu ", i),
		Phone:        "98765 43210",
		Name:         fmt.Sprintf("Faculty %d", i),
		PasswordHash: "hash",
	}
}

func seed(t *testing.T, repo *repository.RegistrantRepo, n int) []model.Registrant {
	t.Helper()
	out := make([]model.Registrant, 0, n)
	for i := 1; i <= n; i++ {
		reg := newRegistrant(i)
		if err := repo.Create(context.Background(), reg); err != nil {
			t.Fatalf("create registrant %d: %v", i, err)
		}
		out = append(out, *reg)
	}
	return out
}

func TestRegistrantCreateAssignsSequentialRanks(t *testing.T) {
	repo := repository.NewRegistrantRepo(dbtest.Open(t))
	regs := seed(t, repo, 3)
	for i, reg := range regs {
		if reg.Rank == nil || *reg.Rank != i+1 {
			t.Fatalf("registrant %d: rank = %v, want %d", i, reg.Rank, i+1)
		}
		if reg.ID == 0 {
			t.Fatalf("registrant %d: id not populated", i)
		}
	}
	if regs[0].Email != "faculty1@college.edu" {
		t.Fatalf("email not normalized: %q", regs[0].Email)
	}
}

func TestConcurrentSignupsGetDistinctRanks(t *testing.T) {
	repo := repository.NewRegistrantRepo(dbtest.OpenFile(t, 8))
	const n = 16
	ranks := make(chan int, n)
	var wg sync.WaitGroup
	for i := 1; i <= n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			reg := newRegistrant(i)
			if err := repo.Create(context.Background(), reg); err != nil {
				t.Errorf("create %d: %v", i, err)
				return
			}
			ranks <- *reg.Rank
		}(i)
	}
	wg.Wait()
	close(ranks)

	seen := make(map[int]bool)
	for r := range ranks {
		if r < 1 || r > n || seen[r] {
			t.Fatalf("rank %d out of range or repeated", r)
		}
		seen[r] = true
	}
	if len(seen) != n {
		t.Fatalf("%d ranks assigned, want %d", len(seen), n)
	}
}

func TestRegistrantCreateDuplicateSIC(t *testing.T) {
	repo := repository.NewRegistrantRepo(dbtest.Open(t))
	seed(t, repo, 1)

	dup := newRegistrant(1)
	dup.Email = "other@college.edu"
	err := repo.Create(context.Background(), dup)
	if !errors.Is(err, repository.ErrDuplicate) {
		t.Fatalf("expected duplicate, got %v", err)
	}
	if key := repository.DuplicateKey(err); key != repository.KeySICNumber {
		t.Fatalf("duplicate key = %q, want %q", key, repository.KeySICNumber)
	}
}

func TestRegistrantLookups(t *testing.T) {
	repo := repository.NewRegistrantRepo(dbtest.Open(t))
	seed(t, repo, 2)
	ctx := context.Background()

	email, err := repo.EmailBySIC(ctx, " SIC002 ")
	if err != nil || email != "faculty2@college.edu" {
		t.Fatalf("EmailBySIC = %q, %v", email, err)
	}
	if _, err := repo.EmailBySIC(ctx, "nope"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := repo.GetByID(ctx, 999); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	reg, err := repo.GetByEmail(ctx, "FACULTY1@college.edu")
	if err != nil || reg.SICNumber != "SIC001" {
		t.Fatalf("GetByEmail = %+v, %v", reg, err)
	}
}

func TestClaimUniquePerRegistrantUnderConcurrency(t *testing.T) {
	db := dbtest.OpenFile(t, 4)
	regs := seed(t, repository.NewRegistrantRepo(db), 1)
	claims := repository.NewClaimRepo(db)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		dupes     int
	)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c := &model.VoucherClaim{RegistrantID: regs[0].ID, TierID: "premium_combo", Code: fmt.Sprintf("code-%d", i)}
			err := claims.Create(context.Background(), c)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, repository.ErrDuplicate):
				dupes++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()
	if successes != 1 || dupes != 1 {
		t.Fatalf("successes=%d dupes=%d, want 1 and 1", successes, dupes)
	}
	all, err := claims.List(context.Background())
	if err != nil || len(all) != 1 {
		t.Fatalf("claims after race = %d (%v), want 1", len(all), err)
	}
}

func TestBookingUniqueness(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	regs := seed(t, repository.NewRegistrantRepo(db), 2)
	events := repository.NewEventRepo(db)
	bookings := repository.NewBookingRepo(db)

	ev := &model.Event{Name: "Gala", EventDate: time.Now().Add(48 * time.Hour), TotalSeats: 20}
	if err := events.Create(ctx, ev); err != nil {
		t.Fatalf("create event: %v", err)
	}

	first := &model.SeatBooking{RegistrantID: regs[0].ID, EventID: ev.ID, SeatNumber: 7}
	if err := bookings.Create(ctx, first); err != nil {
		t.Fatalf("first booking: %v", err)
	}

	again := &model.SeatBooking{RegistrantID: regs[0].ID, EventID: ev.ID, SeatNumber: 8}
	err := bookings.Create(ctx, again)
	if !errors.Is(err, repository.ErrDuplicate) || repository.DuplicateKey(err) != repository.KeyEventBooker {
		t.Fatalf("same registrant second seat: %v (key %q)", err, repository.DuplicateKey(err))
	}

	other := &model.SeatBooking{RegistrantID: regs[1].ID, EventID: ev.ID, SeatNumber: 7}
	err = bookings.Create(ctx, other)
	if !errors.Is(err, repository.ErrDuplicate) || repository.DuplicateKey(err) != repository.KeyEventSeat {
		t.Fatalf("other registrant taken seat: %v (key %q)", err, repository.DuplicateKey(err))
	}

	taken, err := bookings.TakenSeats(ctx, ev.ID)
	if err != nil || len(taken) != 1 || taken[0] != 7 {
		t.Fatalf("taken seats = %v (%v), want [7]", taken, err)
	}
}

func TestSeatRaceExactlyOneWins(t *testing.T) {
	db := dbtest.OpenFile(t, 4)
	ctx := context.Background()
	regs := seed(t, repository.NewRegistrantRepo(db), 2)
	events := repository.NewEventRepo(db)
	bookings := repository.NewBookingRepo(db)
	ev := &model.Event{Name: "Concert", EventDate: time.Now(), TotalSeats: 10}
	if err := events.Create(ctx, ev); err != nil {
		t.Fatalf("create event: %v", err)
	}

	errs := make(chan error, 2)
	var wg sync.WaitGroup
	for _, reg := range regs {
		wg.Add(1)
		go func(id uint64) {
			defer wg.Done()
			errs <- bookings.Create(ctx, &model.SeatBooking{RegistrantID: id, EventID: ev.ID, SeatNumber: 3})
		}(reg.ID)
	}
	wg.Wait()
	close(errs)

	ok := 0
	for err := range errs {
		if err == nil {
			ok++
		} else if !errors.Is(err, repository.ErrDuplicate) {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if ok != 1 {
		t.Fatalf("%d bookings succeeded, want 1", ok)
	}
}

func TestListEligibleUnclaimed(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	repo := repository.NewRegistrantRepo(db)
	regs := seed(t, repo, 12)
	claims := repository.NewClaimRepo(db)
	if err := claims.Create(ctx, &model.VoucherClaim{RegistrantID: regs[1].ID, TierID: "combo_coffee_burger", Code: "c-2"}); err != nil {
		t.Fatalf("claim: %v", err)
	}

	got, err := repo.ListEligibleUnclaimed(ctx, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 9 {
		t.Fatalf("got %d eligible unclaimed, want 9", len(got))
	}
	for i := 1; i < len(got); i++ {
		if *got[i-1].Rank >= *got[i].Rank {
			t.Fatalf("not ordered by rank: %d before %d", *got[i-1].Rank, *got[i].Rank)
		}
	}
	for _, reg := range got {
		if reg.ID == regs[1].ID {
			t.Fatal("claimed registrant listed as unclaimed")
		}
	}

	summaries, err := repo.ListWithClaims(ctx)
	if err != nil || len(summaries) != 12 {
		t.Fatalf("summaries = %d (%v)", len(summaries), err)
	}
	if summaries[1].ClaimedAt == nil || summaries[1].TierID != "combo_coffee_burger" {
		t.Fatalf("claim not joined: %+v", summaries[1])
	}
}

func TestRoles(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	regs := seed(t, repository.NewRegistrantRepo(db), 1)
	roles := repository.NewRoleRepo(db)

	if ok, err := roles.HasRole(ctx, regs[0].ID, model.RoleAdmin); err != nil || ok {
		t.Fatalf("HasRole before grant = %v, %v", ok, err)
	}
	if err := roles.Grant(ctx, regs[0].ID, model.RoleAdmin); err != nil {
		t.Fatalf("grant: %v", err)
	}
	if err := roles.Grant(ctx, regs[0].ID, model.RoleAdmin); err != nil {
		t.Fatalf("second grant: %v", err)
	}
	if ok, err := roles.HasRole(ctx, regs[0].ID, model.RoleAdmin); err != nil || !ok {
		t.Fatalf("HasRole after grant = %v, %v", ok, err)
	}
}

func TestRefreshTokenLifecycle(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	regs := seed(t, repository.NewRegistrantRepo(db), 1)
	tokens := repository.NewTokenRepo(db)

	if err := tokens.StoreRefresh(ctx, regs[0].ID, "h1", time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("store: %v", err)
	}
	if id, err := tokens.ValidateRefresh(ctx, "h1"); err != nil || id != regs[0].ID {
		t.Fatalf("validate = %d, %v", id, err)
	}
	if err := tokens.RevokeByHash(ctx, "h1"); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if _, err := tokens.ValidateRefresh(ctx, "h1"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("revoked token validated: %v", err)
	}
	if err := tokens.StoreRefresh(ctx, regs[0].ID, "h2", time.Now().Add(-time.Minute)); err != nil {
		t.Fatalf("store expired: %v", err)
	}
	if _, err := tokens.ValidateRefresh(ctx, "h2"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expired token validated: %v", err)
	}
}
