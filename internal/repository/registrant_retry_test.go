package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"

	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/faculty-fest/internal/database/dbtest"
	"github.com/iliyamo/faculty-fest/internal/model"
)

// lockingDB fails the first n registrant inserts with err, then
// delegates to the real database.
type lockingDB struct {
	*sql.DB
	fail  int
	err   error
	calls int
}

func (d *lockingDB) ExecContext(ctx context.Context, q string, args ...any) (sql.Result, error) {
	if strings.Contains(q, "INSERT INTO registrants") {
		d.calls++
		if d.calls <= d.fail {
			return nil, d.err
		}
	}
	return d.DB.ExecContext(ctx, q, args...)
}

func faculty() *model.Registrant {
	return &model.Registrant{
		SICNumber:    "SIC001",
		Email:        "prof1@college.edu",
		Phone:        "9876543210",
		Name:         "Prof. Rao",
		PasswordHash: "x",
	}
}

func TestCreateRetriesLockConflicts(t *testing.T) {
	for name, number := range map[string]uint16{"deadlock": 1213, "lock wait timeout": 1205} {
		t.Run(name, func(t *testing.T) {
			db := &lockingDB{DB: dbtest.Open(t), fail: 1, err: &mysql.MySQLError{Number: number, Message: name}}
			reg := faculty()
			if err := NewRegistrantRepo(db).Create(context.Background(), reg); err != nil {
				t.Fatalf("create: %v", err)
			}
			if reg.Rank == nil || *reg.Rank != 1 {
				t.Fatalf("rank = %v", reg.Rank)
			}
			if db.calls != 2 {
				t.Fatalf("insert ran %d times, want 2", db.calls)
			}
		})
	}
}

func TestCreateGivesUpAfterRepeatedDeadlocks(t *testing.T) {
	deadlock := &mysql.MySQLError{Number: 1213, Message: "Deadlock found"}
	db := &lockingDB{DB: dbtest.Open(t), fail: rankAttempts, err: deadlock}
	err := NewRegistrantRepo(db).Create(context.Background(), faculty())
	var me *mysql.MySQLError
	if !errors.As(err, &me) || me.Number != 1213 {
		t.Fatalf("err = %v", err)
	}
	if db.calls != rankAttempts {
		t.Fatalf("insert ran %d times, want %d", db.calls, rankAttempts)
	}
}

func TestCreateDoesNotRetryOtherErrors(t *testing.T) {
	db := &lockingDB{DB: dbtest.Open(t), fail: 1, err: &mysql.MySQLError{Number: 1146, Message: "Table doesn't exist"}}
	if err := NewRegistrantRepo(db).Create(context.Background(), faculty()); err == nil {
		t.Fatal("expected error")
	}
	if db.calls != 1 {
		t.Fatalf("insert ran %d times, want 1", db.calls)
	}
}
