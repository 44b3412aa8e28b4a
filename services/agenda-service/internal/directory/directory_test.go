package directory

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/clinicagenda/services/agenda-service/internal/model"
)

func TestDefaultRoster(t *testing.T) {
	d := Default()
	list, err := d.List(context.Background())
	if err != nil || len(list) != 3 {
		t.Fatalf("expected 3 providers, got %d (%v)", len(list), err)
	}
	if list[0].ID != "1" || list[2].ID != "3" {
		t.Fatalf("roster order changed: %+v", list)
	}
	p, ok, _ := d.Lookup(context.Background(), "2")
	if !ok || p.Name != "Dra. Ana Silva" {
		t.Fatalf("unexpected lookup %+v %v", p, ok)
	}
	if _, ok, _ := d.Lookup(context.Background(), "9"); ok {
		t.Fatal("unknown id must not resolve")
	}

	list[0].Name = "changed"
	again, _ := d.List(context.Background())
	if again[0].Name == "changed" {
		t.Fatal("List must return a copy")
	}
}

func TestFromJSON(t *testing.T) {
	d, err := FromJSON(`[{"id":"p1","name":"Dra. Beatriz","specialty":"Psiquiatria","color":"#ff0000"}]`)
	if err != nil {
		t.Fatalf("from json: %v", err)
	}
	if p, ok, _ := d.Lookup(context.Background(), "p1"); !ok || p.Specialty != "Psiquiatria" {
		t.Fatalf("unexpected provider %+v", p)
	}

	for _, bad := range []string{`[]`, `{}`, `[{"id":""}]`, `[{"id":"a"},{"id":"a"}]`, `[{"id":"a","age":3}]`} {
		if _, err := FromJSON(bad); err == nil {
			t.Fatalf("expected error for %s", bad)
		}
	}
}

type fakeRows struct {
	pgx.Rows
	data [][]string
	pos  int
	err  error
}

func (r *fakeRows) Next() bool {
	if r.pos >= len(r.data) {
		return false
	}
	r.pos++
	return true
}

func (r *fakeRows) Scan(dest ...any) error {
	row := r.data[r.pos-1]
	for i, d := range dest {
		*(d.(*string)) = row[i]
	}
	return nil
}

func (r *fakeRows) Close()     {}
func (r *fakeRows) Err() error { return r.err }

type fakeQuerier struct {
	rows *fakeRows
	err  error
	sql  string
}

func (q *fakeQuerier) Query(_ context.Context, sql string, _ ...any) (pgx.Rows, error) {
	q.sql = sql
	if q.err != nil {
		return nil, q.err
	}
	return q.rows, nil
}

func TestLoadPostgres(t *testing.T) {
	q := &fakeQuerier{rows: &fakeRows{data: [][]string{
		{"10", "Dr. Paulo", "Psicologia", "#111111"},
		{"11", "Dra. Lia", "", ""},
	}}}
	d, err := LoadPostgres(context.Background(), q)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !strings.Contains(q.sql, "FROM providers") {
		t.Fatalf("unexpected query %q", q.sql)
	}
	list, _ := d.List(context.Background())
	want := []model.Provider{
		{ID: "10", Name: "Dr. Paulo", Specialty: "Psicologia", Color: "#111111"},
		{ID: "11", Name: "Dra. Lia"},
	}
	if len(list) != 2 || list[0] != want[0] || list[1] != want[1] {
		t.Fatalf("unexpected roster %+v", list)
	}
}

func TestLoadPostgresErrors(t *testing.T) {
	if _, err := LoadPostgres(context.Background(), &fakeQuerier{err: errors.New("down")}); err == nil {
		t.Fatal("query error must surface")
	}
	if _, err := LoadPostgres(context.Background(), &fakeQuerier{rows: &fakeRows{}}); err == nil {
		t.Fatal("empty table must be an error")
	}
	rowsErr := errors.New("conn reset")
	_, err := LoadPostgres(context.Background(), &fakeQuerier{rows: &fakeRows{err: rowsErr}})
	if !errors.Is(err, rowsErr) {
		t.Fatalf("expected rows error, got %v", err)
	}
}
