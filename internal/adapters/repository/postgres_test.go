package repository_test

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v4"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/futurisys/attrition/internal/adapters/repository"
)

// fakeRow scripts one Scan: either an error or positional values copied into
// the destinations.
type fakeRow struct {
	err  error
	vals []any
}

func (r fakeRow) Scan(dest ...interface{}) error {
	if r.err != nil {
		return r.err
	}
	for i := range dest {
		if i >= len(r.vals) {
			break
		}
		rv := reflect.ValueOf(dest[i]).Elem()
		rv.Set(reflect.ValueOf(r.vals[i]))
	}
	return nil
}

// call records one statement the store issued.
type call struct {
	sql  string
	args []interface{}
}

// fakeConn serves as both DB and Tx, routing each QueryRow through a
// test-provided function and counting transaction outcomes.
type fakeConn struct {
	route     func(sql string, args []interface{}) pgx.Row
	calls     []call
	beginErr  error
	begins    int
	commits   int
	rollbacks int
}

func (f *fakeConn) QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row {
	f.calls = append(f.calls, call{sql: sql, args: args})
	return f.route(sql, args)
}

func (f *fakeConn) Begin(ctx context.Context) (repository.Tx, error) {
	f.begins++
	if f.beginErr != nil {
		return nil, f.beginErr
	}
	return f, nil
}

func (f *fakeConn) Commit(ctx context.Context) error   { f.commits++; return nil }
func (f *fakeConn) Rollback(ctx context.Context) error { f.rollbacks++; return nil }
func (f *fakeConn) Close()                             {}

var _ repository.DB = (*fakeConn)(nil)

func i64(v int64) *int64 { return &v }

func (f *fakeConn) sqlContaining(fragment string) []call {
	var out []call
	for _, c := range f.calls {
		if strings.Contains(c.sql, fragment) {
			out = append(out, c)
		}
	}
	return out
}

func TestSavePrediction(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)

	entry := repository.PredictionLog{
		Endpoint:   "/predict",
		EmployeeID: i64(42),
		Status:     "OK",
		Payload:    map[string]any{"age": json.Number("30")},
		Output:     map[string]any{"pred_quitte_entreprise": "NON"},
	}

	Convey("Given a subject with no existing audit row", t, func() {
		db := &fakeConn{}
		db.route = func(sql string, args []interface{}) pgx.Row {
			switch {
			case strings.Contains(sql, "SELECT id FROM"):
				return fakeRow{err: pgx.ErrNoRows}
			case strings.Contains(sql, "INSERT INTO"):
				return fakeRow{vals: []any{int64(101), now}}
			}
			return fakeRow{err: errors.New("unexpected statement: " + sql)}
		}
		store := repository.NewLogStore(db)

		Convey("A new row is inserted and committed", func() {
			saved, err := store.SavePrediction(ctx, entry)
			So(err, ShouldBeNil)
			So(saved.ID, ShouldEqual, 101)
			So(saved.CreatedAt.Equal(now), ShouldBeTrue)
			So(db.begins, ShouldEqual, 1)
			So(db.commits, ShouldEqual, 1)
			So(db.sqlContaining("UPDATE"), ShouldBeEmpty)
		})

		Convey("The persisted payload is sanitized to native JSON", func() {
			_, err := store.SavePrediction(ctx, entry)
			So(err, ShouldBeNil)

			inserts := db.sqlContaining("INSERT INTO")
			So(inserts, ShouldHaveLength, 1)
			var payload map[string]any
			So(json.Unmarshal(inserts[0].args[5].([]byte), &payload), ShouldBeNil)
			So(payload["age"], ShouldEqual, 30.0)
		})

		Convey("Statements target the default logging schema", func() {
			_, err := store.SavePrediction(ctx, entry)
			So(err, ShouldBeNil)
			So(db.sqlContaining("ml_logs.prediction_log"), ShouldNotBeEmpty)
		})
	})

	Convey("Given a subject that already has audit rows", t, func() {
		db := &fakeConn{}
		db.route = func(sql string, args []interface{}) pgx.Row {
			switch {
			case strings.Contains(sql, "SELECT id FROM"):
				return fakeRow{vals: []any{int64(7)}}
			case strings.Contains(sql, "UPDATE"):
				return fakeRow{vals: []any{now}}
			}
			return fakeRow{err: errors.New("unexpected statement: " + sql)}
		}
		store := repository.NewLogStore(db)

		Convey("The newest row is overwritten in place", func() {
			saved, err := store.SavePrediction(ctx, entry)
			So(err, ShouldBeNil)
			So(saved.ID, ShouldEqual, 7)
			So(db.sqlContaining("INSERT INTO"), ShouldBeEmpty)
			So(db.commits, ShouldEqual, 1)
		})
	})

	Convey("Given a concurrent writer that wins the insert race", t, func() {
		db := &fakeConn{}
		lookups := 0
		db.route = func(sql string, args []interface{}) pgx.Row {
			switch {
			case strings.Contains(sql, "SELECT id FROM"):
				lookups++
				if lookups == 1 {
					return fakeRow{err: pgx.ErrNoRows}
				}
				return fakeRow{vals: []any{int64(9)}}
			case strings.Contains(sql, "INSERT INTO"):
				return fakeRow{err: &pgconn.PgError{Code: pgerrcode.UniqueViolation}}
			case strings.Contains(sql, "UPDATE"):
				return fakeRow{vals: []any{now}}
			}
			return fakeRow{err: errors.New("unexpected statement: " + sql)}
		}
		store := repository.NewLogStore(db)

		Convey("The losing writer degrades to an update", func() {
			saved, err := store.SavePrediction(ctx, entry)
			So(err, ShouldBeNil)
			So(saved.ID, ShouldEqual, 9)
			So(lookups, ShouldEqual, 2)
			So(db.commits, ShouldEqual, 1)
		})
	})

	Convey("Given an entry without an employee id", t, func() {
		db := &fakeConn{}
		db.route = func(sql string, args []interface{}) pgx.Row {
			if strings.Contains(sql, "INSERT INTO") {
				return fakeRow{vals: []any{int64(55), now}}
			}
			return fakeRow{err: errors.New("unexpected statement: " + sql)}
		}
		store := repository.NewLogStore(db)

		Convey("No lookup happens and a row is always appended", func() {
			anon := entry
			anon.EmployeeID = nil
			saved, err := store.SavePrediction(ctx, anon)
			So(err, ShouldBeNil)
			So(saved.ID, ShouldEqual, 55)
			So(db.sqlContaining("SELECT id FROM"), ShouldBeEmpty)
		})
	})

	Convey("Given a failing database", t, func() {
		db := &fakeConn{beginErr: errors.New("pool exhausted")}
		store := repository.NewLogStore(db)

		Convey("The failure maps onto the persistence sentinel", func() {
			_, err := store.SavePrediction(ctx, entry)
			So(errors.Is(err, repository.ErrPersistence), ShouldBeTrue)
		})
	})

	Convey("Given a custom logging schema", t, func() {
		db := &fakeConn{}
		db.route = func(sql string, args []interface{}) pgx.Row {
			switch {
			case strings.Contains(sql, "SELECT id FROM"):
				return fakeRow{err: pgx.ErrNoRows}
			default:
				return fakeRow{vals: []any{int64(1), now}}
			}
		}
		store := repository.NewLogStore(db, repository.WithLogSchema("audit"))

		Convey("Statements target that schema", func() {
			_, err := store.SavePrediction(ctx, entry)
			So(err, ShouldBeNil)
			So(db.sqlContaining("audit.prediction_log"), ShouldNotBeEmpty)
			So(db.sqlContaining("ml_logs."), ShouldBeEmpty)
		})
	})
}

func TestLatestPrediction(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)

	Convey("Given a stored audit row", t, func() {
		db := &fakeConn{}
		db.route = func(sql string, args []interface{}) pgx.Row {
			return fakeRow{vals: []any{
				int64(3), now, "/predict", (*string)(nil), i64(42), (*int64)(nil), "OK",
				[]byte(`{"age":30}`), []byte(`{"pred_quitte_entreprise":"OUI"}`),
			}}
		}
		store := repository.NewLogStore(db)

		Convey("The row comes back with decoded payloads", func() {
			row, err := store.LatestPrediction(ctx, 42)
			So(err, ShouldBeNil)
			So(row.ID, ShouldEqual, 3)
			So(*row.EmployeeID, ShouldEqual, 42)
			So(row.Payload["age"], ShouldEqual, 30.0)
			So(row.Output["pred_quitte_entreprise"], ShouldEqual, "OUI")
		})
	})

	Convey("Given no audit row for the subject", t, func() {
		db := &fakeConn{}
		db.route = func(sql string, args []interface{}) pgx.Row {
			return fakeRow{err: pgx.ErrNoRows}
		}
		store := repository.NewLogStore(db)

		Convey("Lookup reports not found", func() {
			_, err := store.LatestPrediction(ctx, 42)
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
		})
	})
}

func TestSaveError(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)

	Convey("Given the error log", t, func() {
		db := &fakeConn{}
		db.route = func(sql string, args []interface{}) pgx.Row {
			if strings.Contains(sql, "error_log") {
				return fakeRow{vals: []any{int64(12), now}}
			}
			return fakeRow{err: errors.New("unexpected statement: " + sql)}
		}
		store := repository.NewLogStore(db)

		Convey("Rows append without any lookup", func() {
			msg := "model exploded"
			saved, err := store.SaveError(ctx, repository.ErrorLog{
				ErrorMessage: &msg,
				Context:      map[string]any{"error_id": "abc"},
			})
			So(err, ShouldBeNil)
			So(saved.ID, ShouldEqual, 12)
			So(db.begins, ShouldEqual, 0)
		})
	})
}

func TestGetEmployee(t *testing.T) {
	ctx := context.Background()

	Convey("Given the employee feature table", t, func() {
		Convey("A present row scans into a stored record", func() {
			age := 30.0
			genre := "MASCULIN"
			vals := make([]any, 0, 28)
			vals = append(vals, int64(42), (*string)(nil))
			for i := 0; i < 19; i++ {
				vals = append(vals, (*float64)(nil))
			}
			for i := 0; i < 7; i++ {
				vals = append(vals, (*string)(nil))
			}
			vals[2] = &age
			vals[21] = &genre

			db := &fakeConn{}
			db.route = func(sql string, args []interface{}) pgx.Row {
				return fakeRow{vals: vals}
			}
			store := repository.NewFeatureStore(db, repository.WithMartSchema("mart"))

			row, err := store.GetEmployee(ctx, 42)
			So(err, ShouldBeNil)
			So(row.IDEmployee, ShouldEqual, 42)
			So(*row.Age, ShouldEqual, 30)
			So(*row.Genre, ShouldEqual, "MASCULIN")
			So(row.Poste, ShouldBeNil)
			So(db.sqlContaining("mart.employee_features"), ShouldNotBeEmpty)
			So(db.sqlContaining("::float8"), ShouldNotBeEmpty)
		})

		Convey("A missing row reports not found", func() {
			db := &fakeConn{}
			db.route = func(sql string, args []interface{}) pgx.Row {
				return fakeRow{err: pgx.ErrNoRows}
			}
			store := repository.NewFeatureStore(db)

			_, err := store.GetEmployee(ctx, 9000)
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
		})
	})
}
