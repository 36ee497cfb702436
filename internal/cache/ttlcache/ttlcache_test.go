package ttlcache

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Add(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

func newCacheForTest(maxSize int, ttl time.Duration) (*Cache[string], *fakeClock) {
	fc := &fakeClock{now: time.Unix(0, 0).UTC()}
	c := New[string](maxSize, ttl)
	c.now = fc.Now
	return c, fc
}

func TestGet_Miss(t *testing.T) {
	c, _ := newCacheForTest(10, time.Minute)
	if _, ok := c.Get("absent"); ok {
		t.Fatal("expected miss on empty cache")
	}
}

func TestTTL_Boundary(t *testing.T) {
	c, fc := newCacheForTest(10, time.Minute)
	c.Set("k", "v")

	fc.Add(time.Minute - time.Millisecond)
	if v, ok := c.Get("k"); !ok || v != "v" {
		t.Fatalf("expected hit just before expiry, got ok=%v v=%q", ok, v)
	}

	fc.Add(2 * time.Millisecond)
	if _, ok := c.Get("k"); ok {
		t.Fatal("expected miss just after expiry")
	}
	// expired read also evicts
	if st := c.Stats(); st.Size != 0 {
		t.Fatalf("expected expired entry deleted, size=%d", st.Size)
	}
}

func TestSet_Overwrite(t *testing.T) {
	c, _ := newCacheForTest(10, time.Minute)
	c.Set("k", "v1")
	c.Set("k", "v2")
	if v, _ := c.Get("k"); v != "v2" {
		t.Fatalf("got %q want v2", v)
	}
	if st := c.Stats(); st.Size != 1 {
		t.Fatalf("overwrite should not grow cache, size=%d", st.Size)
	}
}

func TestLRU_EvictsOldestAccess(t *testing.T) {
	c, fc := newCacheForTest(3, time.Hour)
	c.Set("a", "1")
	fc.Add(time.Second)
	c.Set("b", "2")
	fc.Add(time.Second)
	c.Set("c", "3")
	fc.Add(time.Second)

	// touch "a" so "b" becomes the least recently accessed
	if _, ok := c.Get("a"); !ok {
		t.Fatal("expected hit for a")
	}
	fc.Add(time.Second)

	c.Set("d", "4")

	if _, ok := c.Get("b"); ok {
		t.Fatal("expected b to be evicted")
	}
	for _, k := range []string{"a", "c", "d"} {
		if _, ok := c.Get(k); !ok {
			t.Fatalf("expected %s to survive eviction", k)
		}
	}
	if st := c.Stats(); st.Size != 3 {
		t.Fatalf("size=%d want 3", st.Size)
	}
}

func TestLRU_EvictsExactlyOne(t *testing.T) {
	c, fc := newCacheForTest(2, time.Hour)
	c.Set("a", "1")
	fc.Add(time.Second)
	c.Set("b", "2")
	fc.Add(time.Second)
	c.Set("c", "3")
	if st := c.Stats(); st.Size != 2 {
		t.Fatalf("size=%d want 2", st.Size)
	}
}

func TestInvalidate_Substring(t *testing.T) {
	c, _ := newCacheForTest(10, time.Minute)
	c.Set("nearby:23.027:72.559:2", "x")
	c.Set("nearby:23.027:72.559:3", "y")
	c.Set("geo:ahmedabad", "z")

	if n := c.Invalidate("23.027:72.559"); n != 2 {
		t.Fatalf("invalidated %d want 2", n)
	}
	if _, ok := c.Get("geo:ahmedabad"); !ok {
		t.Fatal("unrelated key should survive invalidation")
	}
}

func TestCleanup_RemovesOnlyExpired(t *testing.T) {
	c, fc := newCacheForTest(10, time.Minute)
	c.Set("old", "x")
	fc.Add(30 * time.Second)
	c.Set("young", "y")
	fc.Add(31 * time.Second)

	if n := c.Cleanup(); n != 1 {
		t.Fatalf("cleaned %d want 1", n)
	}
	if _, ok := c.Get("young"); !ok {
		t.Fatal("young entry should survive cleanup")
	}
}

func TestConcurrentAccess(t *testing.T) {
	c := New[int](100, time.Minute)
	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := range 200 {
				k := fmt.Sprintf("k%d", j%50)
				c.Set(k, n)
				c.Get(k)
				if j%40 == 0 {
					c.Invalidate(fmt.Sprintf("k%d", j%7))
					c.Cleanup()
				}
			}
		}(i)
	}
	wg.Wait()
	if st := c.Stats(); st.Size > st.MaxSize {
		t.Fatalf("size %d exceeds max %d", st.Size, st.MaxSize)
	}
}
