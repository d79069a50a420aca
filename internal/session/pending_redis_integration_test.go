//go:build integration

package session_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"openid-provider/internal/openid"
	"openid-provider/internal/session"
	"openid-provider/pkg/testutil/containers"
)

type RedisPendingSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *session.RedisPendingStore
}

func TestRedisPendingSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisPendingSuite))
}

func (s *RedisPendingSuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())
	s.store = session.NewRedisPendingStore(s.redis.Client, time.Hour)
}

func (s *RedisPendingSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func pendingRequest(trustRoot string) *openid.Request {
	return &openid.Request{
		Mode:      openid.ModeCheckIDSetup,
		Identity:  openid.IdentifierSelect,
		ClaimedID: openid.IdentifierSelect,
		TrustRoot: trustRoot,
		ReturnTo:  trustRoot + "return",
	}
}

func (s *RedisPendingSuite) TestPutAndTake() {
	ctx := context.Background()
	sid := uuid.NewString()

	s.Require().NoError(s.store.Put(ctx, sid, pendingRequest("https://rp.example/")))

	got, ok, err := s.store.Take(ctx, sid)
	s.Require().NoError(err)
	s.Require().True(ok)
	s.Equal("https://rp.example/", got.TrustRoot)
	s.Equal(openid.IdentifierSelect, got.Identity)

	// The slot is single use.
	_, ok, err = s.store.Take(ctx, sid)
	s.Require().NoError(err)
	s.False(ok)
}

func (s *RedisPendingSuite) TestTakeEmpty() {
	_, ok, err := s.store.Take(context.Background(), uuid.NewString())
	s.Require().NoError(err)
	s.False(ok)
}

func (s *RedisPendingSuite) TestPutOverwrites() {
	ctx := context.Background()
	sid := uuid.NewString()

	s.Require().NoError(s.store.Put(ctx, sid, pendingRequest("https://old.example/")))
	s.Require().NoError(s.store.Put(ctx, sid, pendingRequest("https://new.example/")))

	got, ok, err := s.store.Take(ctx, sid)
	s.Require().NoError(err)
	s.Require().True(ok)
	s.Equal("https://new.example/", got.TrustRoot)
}

func (s *RedisPendingSuite) TestPeekDoesNotConsume() {
	ctx := context.Background()
	sid := uuid.NewString()

	s.Require().NoError(s.store.Put(ctx, sid, pendingRequest("https://rp.example/")))

	for i := 0; i < 2; i++ {
		got, ok, err := s.store.Peek(ctx, sid)
		s.Require().NoError(err)
		s.Require().True(ok)
		s.Equal("https://rp.example/", got.TrustRoot)
	}

	_, ok, err := s.store.Take(ctx, sid)
	s.Require().NoError(err)
	s.True(ok)
}

func (s *RedisPendingSuite) TestExpiry() {
	ctx := context.Background()
	short := session.NewRedisPendingStore(s.redis.Client, 100*time.Millisecond)
	sid := uuid.NewString()

	s.Require().NoError(short.Put(ctx, sid, pendingRequest("https://rp.example/")))
	time.Sleep(200 * time.Millisecond)

	_, ok, err := short.Take(ctx, sid)
	s.Require().NoError(err)
	s.False(ok)
}

// TestConcurrentTake verifies that GETDEL hands the held request to exactly
// one of many racing callers (two tabs completing consent at once).
func (s *RedisPendingSuite) TestConcurrentTake() {
	ctx := context.Background()
	sid := uuid.NewString()
	s.Require().NoError(s.store.Put(ctx, sid, pendingRequest("https://rp.example/")))

	const goroutines = 50
	var wg sync.WaitGroup
	var winners atomic.Int32

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, ok, err := s.store.Take(ctx, sid)
			if err == nil && ok {
				winners.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), winners.Load(), "exactly one take should win")
}
