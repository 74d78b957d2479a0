package cache

import (
	"errors"
	"sync"
	"testing"

	"github.com/matryer/is"

	"github.com/domino14/setcover/config"
)

func TestLoadsOnce(t *testing.T) {
	is := is.New(t)
	c := New()
	cfg := config.DefaultConfig()
	calls := 0
	load := func(_ *config.Config, key string) (any, error) {
		calls++
		return "obj-" + key, nil
	}
	objs := make([]any, 8)
	errs := make([]error, 8)
	var wg sync.WaitGroup
	for i := range objs {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			objs[i], errs[i] = c.Load(cfg, "a", load)
		}()
	}
	wg.Wait()
	for i := range objs {
		is.NoErr(errs[i])
		is.Equal(objs[i], "obj-a")
	}
	is.Equal(calls, 1)
	hits, misses := c.Stats()
	is.Equal(hits, 7)
	is.Equal(misses, 1)
}

func TestFailedLoadIsRetried(t *testing.T) {
	is := is.New(t)
	c := New()
	boom := errors.New("boom")
	fail := true
	load := func(_ *config.Config, key string) (any, error) {
		if fail {
			return nil, boom
		}
		return 1, nil
	}
	_, err := c.Load(nil, "k", load)
	is.True(errors.Is(err, boom))
	fail = false
	obj, err := c.Load(nil, "k", load)
	is.NoErr(err)
	is.Equal(obj, 1)
}
