package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/quizclient/internal/model"
)

type StorageSuite struct {
	suite.Suite
	mini    *miniredis.Miniredis
	storage *Storage
	ctx     context.Context
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.mini = miniredis.RunT(s.T())

	client := redis.NewClient(&redis.Options{
		Addr: s.mini.Addr(),
	})

	cfg := DefaultConfig()
	cfg.EntryTTL = time.Hour

	s.storage = NewWithClient(client, cfg)
	s.ctx = context.Background()
}

func (s *StorageSuite) TearDownTest() {
	if s.storage != nil {
		_ = s.storage.Close()
	}
	if s.mini != nil {
		s.mini.Close()
	}
}

func (s *StorageSuite) TestSetAndGet() {
	err := s.storage.Set(s.ctx, "adminToken", "tok-123")
	s.Require().NoError(err)

	value, err := s.storage.Get(s.ctx, "adminToken")
	s.Require().NoError(err)
	s.Equal("tok-123", value)
}

func (s *StorageSuite) TestKeysAreNamespaced() {
	_ = s.storage.Set(s.ctx, "adminToken", "tok-123")

	s.True(s.mini.Exists("quiz:client:adminToken"))
}

func (s *StorageSuite) TestGetMissingKey() {
	_, err := s.storage.Get(s.ctx, "nonexistent")
	s.ErrorIs(err, model.ErrKeyNotFound)
}

func (s *StorageSuite) TestSetAppliesTTL() {
	_ = s.storage.Set(s.ctx, "adminToken", "tok-123")

	s.Equal(time.Hour, s.mini.TTL("quiz:client:adminToken"))

	s.mini.FastForward(2 * time.Hour)

	_, err := s.storage.Get(s.ctx, "adminToken")
	s.ErrorIs(err, model.ErrKeyNotFound)
}

func (s *StorageSuite) TestSetMulti() {
	err := s.storage.SetMulti(s.ctx, map[string]string{
		"adminToken":        "tok-123",
		"adminTokenExpires": "1704196800000",
	})
	s.Require().NoError(err)

	token, err := s.storage.Get(s.ctx, "adminToken")
	s.Require().NoError(err)
	s.Equal("tok-123", token)

	expires, err := s.storage.Get(s.ctx, "adminTokenExpires")
	s.Require().NoError(err)
	s.Equal("1704196800000", expires)
}

func (s *StorageSuite) TestDelete() {
	_ = s.storage.Set(s.ctx, "a", "1")
	_ = s.storage.Set(s.ctx, "b", "2")

	err := s.storage.Delete(s.ctx, "a", "b", "missing")
	s.Require().NoError(err)

	s.False(s.mini.Exists("quiz:client:a"))
	s.False(s.mini.Exists("quiz:client:b"))
}

func (s *StorageSuite) TestDeleteNothing() {
	s.NoError(s.storage.Delete(s.ctx))
}
