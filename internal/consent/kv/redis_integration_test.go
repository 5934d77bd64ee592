//go:build integration

package kv_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"consentkit/internal/consent/kv"
	"consentkit/pkg/testutil/containers"
)

type RedisSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *kv.Redis
}

func TestRedisSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisSuite))
}

func (s *RedisSuite) SetupSuite() {
	s.redis = containers.GetManager().GetRedis(s.T())
	s.store = kv.NewRedis(s.redis.Client, kv.WithKeyPrefix("consent:"))
}

func (s *RedisSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisSuite) TestRoundTrip() {
	ctx := context.Background()

	s.Require().NoError(s.store.Set(ctx, "CookieManager", "ads=allow", kv.Attributes{MaxAge: kv.Days(730)}))

	value, ok, err := s.store.Get(ctx, "CookieManager")
	s.Require().NoError(err)
	s.True(ok)
	s.Equal("ads=allow", value)

	raw, err := s.redis.Client.Get(ctx, "consent:CookieManager").Result()
	s.Require().NoError(err)
	s.Equal("ads=allow", raw)

	ttl, err := s.redis.Client.TTL(ctx, "consent:CookieManager").Result()
	s.Require().NoError(err)
	s.Greater(ttl, 729*24*time.Hour)
}

func (s *RedisSuite) TestMissingKey() {
	_, ok, err := s.store.Get(context.Background(), "absent")
	s.Require().NoError(err)
	s.False(ok)
}

func (s *RedisSuite) TestDelete() {
	ctx := context.Background()
	s.Require().NoError(s.store.Set(ctx, "CookieManager", "ads=allow", kv.Attributes{}))
	s.Require().NoError(s.store.Delete(ctx, "CookieManager", kv.Attributes{}))

	_, ok, err := s.store.Get(ctx, "CookieManager")
	s.Require().NoError(err)
	s.False(ok)
}
