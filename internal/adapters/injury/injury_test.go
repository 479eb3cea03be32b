package injury_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/okian/matchup/internal/adapters/injury"
	"github.com/okian/matchup/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func lakersOut() model.InjuryState {
	return model.InjuryState{"LAL": {{Player: "Anthony Davis", Status: "Out", Description: "knee"}}}
}

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func TestTeamCode(t *testing.T) {
	Convey("Given team names in the formats injury pages use", t, func() {
		cases := []struct{ name, want string }{
			{"Los Angeles Lakers", "LAL"},
			{"LA Clippers Injuries", "LAC"},
			{" sixers ", "PHI"},
			{"Golden State Warriors Injury Report", "GSW"},
			{"okc", "OKC"},
		}
		for _, c := range cases {
			code, ok := injury.TeamCode(c.name)
			So(ok, ShouldBeTrue)
			So(code, ShouldEqual, c.want)
		}
		_, ok := injury.TeamCode("Seattle SuperSonics")
		So(ok, ShouldBeFalse)
	})
}

func TestHTTPSource(t *testing.T) {
	Convey("Given an injury endpoint", t, func() {
		var status int32 = http.StatusOK
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("X-Api-Key") != "k" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			w.WriteHeader(int(atomic.LoadInt32(&status)))
			_, _ = w.Write([]byte(`{
				"Los Angeles Lakers": [{"player": "Anthony  Davis", "status": "Out", "description": "knee"}],
				"Celtics": [{"player": "Jaylen Brown", "status": "Day-To-Day", "description": "ankle"}],
				"Unknown Team": [{"player": "Nobody", "status": "Out"}]
			}`))
		}))
		defer srv.Close()
		src := injury.NewHTTPSource(srv.URL, injury.WithHeader("X-Api-Key", "k"))

		Convey("When the fetch succeeds", func() {
			state, err := src.Fetch(context.Background())

			Convey("Then teams are keyed by code and unknown teams dropped", func() {
				So(err, ShouldBeNil)
				So(len(state), ShouldEqual, 2)
				So(state["LAL"][0].Player, ShouldEqual, "Anthony Davis")
				So(state["LAL"][0].Out(), ShouldBeTrue)
				So(state["BOS"][0].Status, ShouldEqual, "Day-To-Day")
			})
		})

		Convey("When the endpoint fails", func() {
			atomic.StoreInt32(&status, http.StatusBadGateway)
			_, err := src.Fetch(context.Background())

			Convey("Then the error is an upstream failure", func() {
				So(errors.Is(err, model.ErrUpstreamUnavailable), ShouldBeTrue)
				So(errors.Is(err, injury.ErrBadStatus), ShouldBeTrue)
			})
		})
	})
}

func TestChain(t *testing.T) {
	Convey("Given a chain whose first source fails", t, func() {
		bad := injury.SourceFunc(func(context.Context) (model.InjuryState, error) {
			return nil, model.ErrUpstreamUnavailable
		})
		good := injury.SourceFunc(func(context.Context) (model.InjuryState, error) {
			return lakersOut(), nil
		})

		Convey("Then the next source answers", func() {
			state, err := injury.Chain{bad, good}.Fetch(context.Background())
			So(err, ShouldBeNil)
			So(state, ShouldContainKey, "LAL")
		})

		Convey("Then an all-failing chain reports upstream unavailable", func() {
			_, err := injury.Chain{bad, bad}.Fetch(context.Background())
			So(errors.Is(err, model.ErrUpstreamUnavailable), ShouldBeTrue)
			_, err = injury.Chain{}.Fetch(context.Background())
			So(errors.Is(err, injury.ErrNoSources), ShouldBeTrue)
		})
	})
}

func TestMemoryCache(t *testing.T) {
	Convey("Given an empty memory cache", t, func() {
		c := injury.NewMemoryCache()
		ctx := context.Background()

		_, ok, err := c.Get(ctx)
		So(err, ShouldBeNil)
		So(ok, ShouldBeFalse)

		Convey("When an entry is stored", func() {
			at := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
			So(c.Set(ctx, injury.Entry{State: lakersOut(), FetchedAt: at}), ShouldBeNil)

			Convey("Then it is returned as is", func() {
				e, ok, err := c.Get(ctx)
				So(err, ShouldBeNil)
				So(ok, ShouldBeTrue)
				So(e.FetchedAt, ShouldEqual, at)
				So(e.State["LAL"][0].Player, ShouldEqual, "Anthony Davis")
			})
		})
	})
}

func TestProvider(t *testing.T) {
	Convey("Given a provider over a controllable source", t, func() {
		ctx := context.Background()
		clk := &clock{t: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
		var calls int32
		var fail atomic.Bool
		src := injury.SourceFunc(func(context.Context) (model.InjuryState, error) {
			atomic.AddInt32(&calls, 1)
			if fail.Load() {
				return nil, errors.New("connection refused")
			}
			return lakersOut(), nil
		})
		p := injury.NewProvider(src, injury.WithTTL(time.Hour), injury.WithClock(clk.now))

		Convey("When called twice within the freshness window", func() {
			_, first, err1 := p.Current(ctx)
			state, second, err2 := p.Current(ctx)

			Convey("Then the second call is served from cache", func() {
				So(err1, ShouldBeNil)
				So(err2, ShouldBeNil)
				So(first, ShouldEqual, model.InjuryLive)
				So(second, ShouldEqual, model.InjuryCache)
				So(state, ShouldContainKey, "LAL")
				So(atomic.LoadInt32(&calls), ShouldEqual, 1)
			})
		})

		Convey("When the window expires and the source is down", func() {
			_, _, err := p.Current(ctx)
			So(err, ShouldBeNil)
			clk.advance(2 * time.Hour)
			fail.Store(true)
			state, source, err := p.Current(ctx)

			Convey("Then the stale entry is served and flagged", func() {
				So(err, ShouldBeNil)
				So(source, ShouldEqual, model.InjuryStale)
				So(state, ShouldContainKey, "LAL")
			})
		})

		Convey("When the source is down with nothing cached", func() {
			fail.Store(true)
			_, _, err := p.Current(ctx)

			Convey("Then upstream unavailable is returned", func() {
				So(errors.Is(err, model.ErrUpstreamUnavailable), ShouldBeTrue)
			})
		})
	})

	Convey("Given a source that hangs", t, func() {
		src := injury.SourceFunc(func(ctx context.Context) (model.InjuryState, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		})
		p := injury.NewProvider(src, injury.WithTimeout(50*time.Millisecond))

		Convey("When fetching", func() {
			start := time.Now()
			_, _, err := p.Current(context.Background())

			Convey("Then the timeout bounds the call", func() {
				So(errors.Is(err, model.ErrUpstreamUnavailable), ShouldBeTrue)
				So(errors.Is(err, context.DeadlineExceeded), ShouldBeTrue)
				So(time.Since(start), ShouldBeLessThan, 2*time.Second)
			})
		})
	})

	Convey("Given a provider without a source", t, func() {
		_, _, err := injury.NewProvider(nil).Current(context.Background())
		So(errors.Is(err, injury.ErrNoSources), ShouldBeTrue)
	})

	Convey("Given concurrent callers on a cold cache", t, func() {
		var calls int32
		release := make(chan struct{})
		src := injury.SourceFunc(func(context.Context) (model.InjuryState, error) {
			atomic.AddInt32(&calls, 1)
			<-release
			return lakersOut(), nil
		})
		p := injury.NewProvider(src)

		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, _, _ = p.Current(context.Background())
			}()
		}
		time.Sleep(50 * time.Millisecond)
		close(release)
		wg.Wait()

		Convey("Then they share at most a couple of fetches", func() {
			So(atomic.LoadInt32(&calls), ShouldBeLessThanOrEqualTo, 2)
		})
	})
}

// slowCache blocks reads until the context ends and records how much budget
// each write was given.
type slowCache struct {
	mu       sync.Mutex
	writeFor time.Duration
}

func (c *slowCache) Get(ctx context.Context) (injury.Entry, bool, error) {
	<-ctx.Done()
	return injury.Entry{}, false, ctx.Err()
}

func (c *slowCache) Set(ctx context.Context, _ injury.Entry) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if dl, ok := ctx.Deadline(); ok {
		c.writeFor = time.Until(dl)
	}
	return nil
}

func TestProviderCacheBudget(t *testing.T) {
	Convey("Given a cache that hangs on reads and a slow source", t, func() {
		cache := &slowCache{}
		src := injury.SourceFunc(func(ctx context.Context) (model.InjuryState, error) {
			select {
			case <-time.After(80 * time.Millisecond):
				return lakersOut(), nil
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		})
		p := injury.NewProvider(src, injury.WithCache(cache), injury.WithTimeout(100*time.Millisecond))

		Convey("When the state is requested", func() {
			start := time.Now()
			state, source, err := p.Current(context.Background())

			Convey("Then the cache read is bounded and the fetch still answers", func() {
				So(err, ShouldBeNil)
				So(source, ShouldEqual, model.InjuryLive)
				So(state, ShouldContainKey, "LAL")
				So(time.Since(start), ShouldBeLessThan, 2*time.Second)
			})

			Convey("Then the cache write gets a fresh budget", func() {
				cache.mu.Lock()
				defer cache.mu.Unlock()
				So(cache.writeFor, ShouldBeGreaterThan, 50*time.Millisecond)
			})
		})
	})
}

func TestRedisCacheUnavailable(t *testing.T) {
	Convey("Given a redis cache pointing at a closed port", t, func() {
		rdb := redis.NewClient(&redis.Options{
			Addr:        "127.0.0.1:1",
			DialTimeout: 100 * time.Millisecond,
			MaxRetries:  -1,
		})
		defer func() { _ = rdb.Close() }()
		cache := injury.NewRedisCache(rdb, "", time.Hour)

		Convey("When the provider uses it", func() {
			src := injury.SourceFunc(func(context.Context) (model.InjuryState, error) {
				return lakersOut(), nil
			})
			p := injury.NewProvider(src, injury.WithCache(cache))
			state, source, err := p.Current(context.Background())

			Convey("Then cache failures degrade to a live fetch", func() {
				So(err, ShouldBeNil)
				So(source, ShouldEqual, model.InjuryLive)
				So(state, ShouldContainKey, "LAL")
			})
		})

		Convey("When read directly", func() {
			_, ok, err := cache.Get(context.Background())
			So(ok, ShouldBeFalse)
			So(err, ShouldNotBeNil)
		})
	})
}
