package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/quizclient/internal/model"
)

type StorageSuite struct {
	suite.Suite
	storage *Storage
	ctx     context.Context
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.storage = New()
	s.ctx = context.Background()
}

func (s *StorageSuite) TestSetAndGet() {
	s.Require().NoError(s.storage.Set(s.ctx, "adminToken", "abc"))

	value, err := s.storage.Get(s.ctx, "adminToken")
	s.Require().NoError(err)
	s.Equal("abc", value)
}

func (s *StorageSuite) TestGetMissingKey() {
	_, err := s.storage.Get(s.ctx, "nonexistent")
	s.ErrorIs(err, model.ErrKeyNotFound)
}

func (s *StorageSuite) TestSetOverwrites() {
	_ = s.storage.Set(s.ctx, "k", "one")
	_ = s.storage.Set(s.ctx, "k", "two")

	value, _ := s.storage.Get(s.ctx, "k")
	s.Equal("two", value)
}

func (s *StorageSuite) TestSetMulti() {
	err := s.storage.SetMulti(s.ctx, map[string]string{"a": "1", "b": "2"})
	s.Require().NoError(err)

	a, _ := s.storage.Get(s.ctx, "a")
	b, _ := s.storage.Get(s.ctx, "b")
	s.Equal("1", a)
	s.Equal("2", b)
}

func (s *StorageSuite) TestDeleteIsIdempotent() {
	_ = s.storage.Set(s.ctx, "a", "1")

	s.Require().NoError(s.storage.Delete(s.ctx, "a", "missing"))
	s.Require().NoError(s.storage.Delete(s.ctx, "a"))

	s.Equal(0, s.storage.Len())
}
