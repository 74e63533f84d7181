package cache_test

import (
	"context"
	"fmt"
	"time"

	"github.com/shopsignal/steadfast/cache"
)

func ExampleManager() {
	m := cache.NewManager(cache.Config{DefaultTTL: time.Minute})
	defer m.Dispose()

	ctx := context.Background()
	m.Set(ctx, "greeting", []byte("hello"), cache.SetOptions{})

	if v, ok := m.Get(ctx, "greeting", nil); ok {
		fmt.Println(string(v))
	}
	if _, ok := m.Get(ctx, "absent", nil); !ok {
		fmt.Println("miss")
	}
	// Output:
	// hello
	// miss
}

func ExampleManager_InvalidateByPrefix() {
	m := cache.NewManager(cache.Config{})
	defer m.Dispose()

	ctx := context.Background()
	m.Set(ctx, "products:1", []byte("widget"), cache.SetOptions{})
	m.Set(ctx, "products:2", []byte("gadget"), cache.SetOptions{})
	m.Set(ctx, "orders:1", []byte("pending"), cache.SetOptions{})

	m.InvalidateByPrefix(ctx, "products:")

	_, products := m.Get(ctx, "products:1", nil)
	_, orders := m.Get(ctx, "orders:1", nil)
	fmt.Println(products, orders)
	// Output: false true
}
