package kvstore

import (
	"context"
	"os"
	"testing"
	"time"
)

func testSQLite(t *testing.T) *SQLite {
	t.Helper()
	f, err := os.CreateTemp("", "kenaz-focus-kv-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	s, err := OpenSQLite(f.Name())
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// drivers returns every driver that can run without external services.
func drivers(t *testing.T) map[string]Store {
	return map[string]Store{
		"sqlite": testSQLite(t),
		"memory": NewMemory(),
	}
}

func TestStore_PutGetStat(t *testing.T) {
	ctx := context.Background()
	at := time.Date(2026, 5, 1, 12, 0, 0, 123, time.UTC)

	for name, s := range drivers(t) {
		t.Run(name, func(t *testing.T) {
			if err := s.Put(ctx, map[string]Record{"k": {Value: []byte("v1"), WrittenAt: at}}); err != nil {
				t.Fatalf("Put: %v", err)
			}
			rec, ok, err := s.Get(ctx, "k")
			if err != nil || !ok {
				t.Fatalf("Get: ok=%v err=%v", ok, err)
			}
			if string(rec.Value) != "v1" {
				t.Errorf("value = %q", rec.Value)
			}
			if !rec.WrittenAt.Equal(at) {
				t.Errorf("written_at = %v, want %v", rec.WrittenAt, at)
			}
			ts, ok, err := s.Stat(ctx, "k")
			if err != nil || !ok || !ts.Equal(at) {
				t.Errorf("Stat = %v %v %v", ts, ok, err)
			}
		})
	}
}

func TestStore_Overwrite(t *testing.T) {
	ctx := context.Background()
	for name, s := range drivers(t) {
		t.Run(name, func(t *testing.T) {
			_ = s.Put(ctx, map[string]Record{"k": {Value: []byte("old"), WrittenAt: time.Unix(1, 0)}})
			_ = s.Put(ctx, map[string]Record{"k": {Value: []byte("new"), WrittenAt: time.Unix(2, 0)}})
			rec, _, _ := s.Get(ctx, "k")
			if string(rec.Value) != "new" || rec.WrittenAt.Unix() != 2 {
				t.Errorf("overwrite not applied: %q at %v", rec.Value, rec.WrittenAt)
			}
		})
	}
}

func TestStore_MissingKey(t *testing.T) {
	ctx := context.Background()
	for name, s := range drivers(t) {
		t.Run(name, func(t *testing.T) {
			if _, ok, err := s.Get(ctx, "nope"); ok || err != nil {
				t.Errorf("Get missing: ok=%v err=%v", ok, err)
			}
			if _, ok, err := s.Stat(ctx, "nope"); ok || err != nil {
				t.Errorf("Stat missing: ok=%v err=%v", ok, err)
			}
		})
	}
}

func TestStore_PutManyAndDelete(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	for name, s := range drivers(t) {
		t.Run(name, func(t *testing.T) {
			err := s.Put(ctx, map[string]Record{
				"a": {Value: []byte("1"), WrittenAt: now},
				"b": {Value: []byte("2"), WrittenAt: now},
			})
			if err != nil {
				t.Fatalf("Put: %v", err)
			}
			if err := s.Delete(ctx, "a", "b", "missing"); err != nil {
				t.Fatalf("Delete: %v", err)
			}
			for _, k := range []string{"a", "b"} {
				if _, ok, _ := s.Get(ctx, k); ok {
					t.Errorf("%s still present after delete", k)
				}
			}
		})
	}
}

func TestOpen_UnknownDriver(t *testing.T) {
	if _, err := Open(context.Background(), Options{Driver: "etcd"}); err == nil {
		t.Error("expected error for unknown driver")
	}
}

func TestOpen_Memory(t *testing.T) {
	s, err := Open(context.Background(), Options{Driver: DriverMemory})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, ok := s.(*Memory); !ok {
		t.Errorf("got %T, want *Memory", s)
	}
}
