package store

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedisKV(t *testing.T) (*RedisKV, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	kv := NewRedisKVFromClient(client)
	t.Cleanup(func() { kv.Close() })
	return kv, mr
}

func TestRedisKV_RoundTrip(t *testing.T) {
	ctx := context.Background()
	kv, _ := newTestRedisKV(t)

	if _, ok, err := kv.Get(ctx, "absent"); err != nil || ok {
		t.Fatalf("Get(absent) = ok=%v err=%v, want miss", ok, err)
	}

	if err := kv.Set(ctx, "k", []byte("v1")); err != nil {
		t.Fatal(err)
	}
	got, ok, err := kv.Get(ctx, "k")
	if err != nil || !ok || string(got) != "v1" {
		t.Fatalf("Get(k) = %q ok=%v err=%v", got, ok, err)
	}

	if err := kv.Delete(ctx, "k"); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := kv.Get(ctx, "k"); ok {
		t.Error("Get(k) hit after delete")
	}
}

func TestRedisKV_KeysByPrefix(t *testing.T) {
	ctx := context.Background()
	kv, _ := newTestRedisKV(t)

	for _, k := range []string{"cache:products", "cache:orders", "session:1"} {
		if err := kv.Set(ctx, k, []byte("x")); err != nil {
			t.Fatal(err)
		}
	}

	keys, err := kv.Keys(ctx, "cache:")
	if err != nil {
		t.Fatal(err)
	}
	sort.Strings(keys)
	want := []string{"cache:orders", "cache:products"}
	if len(keys) != len(want) || keys[0] != want[0] || keys[1] != want[1] {
		t.Errorf("Keys(cache:) = %v, want %v", keys, want)
	}
}

func TestRedisKV_ServerDownIsUnavailable(t *testing.T) {
	ctx := context.Background()
	kv, mr := newTestRedisKV(t)

	mr.Close()

	if err := kv.Set(ctx, "k", []byte("v")); !errors.Is(err, ErrUnavailable) {
		t.Errorf("Set against closed server = %v, want ErrUnavailable", err)
	}
	if _, _, err := kv.Get(ctx, "k"); !errors.Is(err, ErrUnavailable) {
		t.Errorf("Get against closed server = %v, want ErrUnavailable", err)
	}
}
