package memory

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
)

func TestGetMissingKey(t *testing.T) {
	s := New()
	v, err := s.Get(context.Background(), "bookmarks:nobody")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if v != nil {
		t.Errorf("Get() = %q, want nil", v)
	}
}

func TestPutGetReturnsCopies(t *testing.T) {
	s := New()
	ctx := context.Background()

	in := []byte("hello")
	if err := s.Put(ctx, "k", in); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	in[0] = 'j'

	out, _ := s.Get(ctx, "k")
	if string(out) != "hello" {
		t.Errorf("Get() = %q, want hello (Put must copy)", out)
	}
	out[0] = 'y'
	again, _ := s.Get(ctx, "k")
	if string(again) != "hello" {
		t.Errorf("Get() = %q, want hello (Get must copy)", again)
	}
}

func TestUpdateNilSkipsWrite(t *testing.T) {
	s := New()
	ctx := context.Background()
	_ = s.Put(ctx, "k", []byte("v1"))

	err := s.Update(ctx, "k", func(cur []byte) ([]byte, error) { return nil, nil })
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	v, _ := s.Get(ctx, "k")
	if string(v) != "v1" {
		t.Errorf("value = %q, want v1", v)
	}
}

func TestUpdatePassesErrorThrough(t *testing.T) {
	s := New()
	boom := errors.New("boom")
	err := s.Update(context.Background(), "k", func(cur []byte) ([]byte, error) { return []byte("x"), boom })
	if !errors.Is(err, boom) {
		t.Fatalf("Update() error = %v, want boom", err)
	}
	if v, _ := s.Get(context.Background(), "k"); v != nil {
		t.Errorf("failed update wrote %q", v)
	}
}

func TestUpdateIsAtomic(t *testing.T) {
	s := New()
	ctx := context.Background()

	const writers = 50
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Update(ctx, "counter", func(cur []byte) ([]byte, error) {
				n := 0
				if cur != nil {
					n, _ = strconv.Atoi(string(cur))
				}
				return []byte(strconv.Itoa(n + 1)), nil
			})
		}()
	}
	wg.Wait()

	v, _ := s.Get(ctx, "counter")
	if string(v) != strconv.Itoa(writers) {
		t.Errorf("counter = %s, want %d", v, writers)
	}
}

func TestCanceledContext(t *testing.T) {
	s := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := s.Put(ctx, "k", []byte("v")); !errors.Is(err, context.Canceled) {
		t.Errorf("Put() error = %v, want context.Canceled", err)
	}
	if v, _ := s.Get(context.Background(), "k"); v != nil {
		t.Errorf("canceled Put wrote %q", v)
	}
}
