package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"spverifier/internal/transaction/models"
	"spverifier/internal/verification"
	"spverifier/pkg/platform/sentinel"
)

type ArenaSuite struct {
	suite.Suite
	ctx   context.Context
	arena *Arena
}

func TestArenaSuite(t *testing.T) {
	suite.Run(t, new(ArenaSuite))
}

func (s *ArenaSuite) SetupTest() {
	s.ctx = context.Background()
	s.arena = New()
}

func newTx(n int) *models.Transaction {
	return models.NewTransaction(
		fmt.Sprintf("tx-%d", n),
		fmt.Sprintf("req-%d", n),
		fmt.Sprintf("ep-%d", n),
		fmt.Sprintf("http://sp/verify/ep-%d", n),
		"nonce",
		time.Unix(0, 0),
	)
}

func (s *ArenaSuite) TestLookupByBothKeys() {
	s.Require().NoError(s.arena.Create(s.ctx, newTx(1)))
	s.Require().NoError(s.arena.Create(s.ctx, newTx(2)))

	byEndpoint, err := s.arena.FindByEndpoint(s.ctx, "ep-2")
	s.Require().NoError(err)
	s.Equal("tx-2", byEndpoint.TransactionID)

	byID, err := s.arena.FindByID(s.ctx, "tx-1")
	s.Require().NoError(err)
	s.Equal("ep-1", byID.Endpoint)
	s.Equal(2, s.arena.Len())
}

func (s *ArenaSuite) TestIndicesAreIndependent() {
	s.Require().NoError(s.arena.Create(s.ctx, newTx(1)))

	_, err := s.arena.FindByEndpoint(s.ctx, "tx-1")
	s.ErrorIs(err, sentinel.ErrNotFound)
	_, err = s.arena.FindByID(s.ctx, "ep-1")
	s.ErrorIs(err, sentinel.ErrNotFound)
	_, err = s.arena.FindByID(s.ctx, "req-1")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *ArenaSuite) TestCreateRejectsReusedIdentifiers() {
	s.Require().NoError(s.arena.Create(s.ctx, newTx(1)))

	dupID := newTx(2)
	dupID.TransactionID = "tx-1"
	s.ErrorIs(s.arena.Create(s.ctx, dupID), sentinel.ErrInvalidState)

	dupEndpoint := newTx(3)
	dupEndpoint.Endpoint = "ep-1"
	s.ErrorIs(s.arena.Create(s.ctx, dupEndpoint), sentinel.ErrInvalidState)
	s.Equal(1, s.arena.Len())
}

func (s *ArenaSuite) TestReturnsCopies() {
	tx := newTx(1)
	s.Require().NoError(s.arena.Create(s.ctx, tx))
	tx.Nonce = "changed after create"

	found, err := s.arena.FindByEndpoint(s.ctx, "ep-1")
	s.Require().NoError(err)
	s.Equal("nonce", found.Nonce)

	found.Status = models.StatusResponded
	again, err := s.arena.FindByID(s.ctx, "tx-1")
	s.Require().NoError(err)
	s.Equal(models.StatusCreated, again.Status)
}

func (s *ArenaSuite) TestExecute() {
	s.Require().NoError(s.arena.Create(s.ctx, newTx(1)))

	s.Run("failed mutation is discarded", func() {
		_, err := s.arena.Execute(s.ctx, "ep-1", func(tx *models.Transaction) error {
			tx.ResponseCode = "ABC123"
			return errors.New("rejected")
		})
		s.EqualError(err, "rejected")
		found, _ := s.arena.FindByEndpoint(s.ctx, "ep-1")
		s.Empty(found.ResponseCode)
	})

	s.Run("identifiers cannot be rebound", func() {
		updated, err := s.arena.Execute(s.ctx, "ep-1", func(tx *models.Transaction) error {
			tx.Endpoint = "hijacked"
			tx.TransactionID = "hijacked"
			tx.MarkRequested()
			return nil
		})
		s.Require().NoError(err)
		s.Equal("ep-1", updated.Endpoint)
		s.Equal(models.StatusRequested, updated.Status)

		byID, err := s.arena.FindByID(s.ctx, "tx-1")
		s.Require().NoError(err)
		s.Equal(models.StatusRequested, byID.Status)
	})

	s.Run("unknown endpoint", func() {
		_, err := s.arena.Execute(s.ctx, "nope", func(*models.Transaction) error { return nil })
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *ArenaSuite) TestOnlyOneConcurrentResponseWins() {
	s.Require().NoError(s.arena.Create(s.ctx, newTx(1)))

	var wg sync.WaitGroup
	results := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.arena.Execute(s.ctx, "ep-1", func(tx *models.Transaction) error {
				return tx.MarkResponded("req-1", fmt.Sprintf("CODE%02d", i),
					[]verification.PresentedCredential{{Cred: "c"}}, time.Unix(1, 0))
			})
			results <- err
		}(i)
	}
	wg.Wait()
	close(results)

	wins := 0
	for err := range results {
		if err == nil {
			wins++
			continue
		}
		s.ErrorIs(err, sentinel.ErrAlreadyUsed)
	}
	s.Equal(1, wins)
}
