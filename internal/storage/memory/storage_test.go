package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/rpsmatch/internal/model"
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

func (s *StorageSuite) record(p0, p1 model.PlayerID, m0, m1 model.Move) {
	err := s.storage.RecordMatch(s.ctx, &model.MatchRecord{
		Players:  [2]model.PlayerID{p0, p1},
		Moves:    [2]model.Move{m0, m1},
		Outcome:  model.Resolve(m0, m1),
		PlayedAt: time.Now(),
	})
	s.Require().NoError(err)
}

// Player tests

func (s *StorageSuite) TestRegisterOrFetchPlayerIsStable() {
	alice, err := s.storage.RegisterOrFetchPlayer(s.ctx, "Alice")
	s.Require().NoError(err)
	bob, err := s.storage.RegisterOrFetchPlayer(s.ctx, "Bob")
	s.Require().NoError(err)
	again, err := s.storage.RegisterOrFetchPlayer(s.ctx, "Alice")
	s.Require().NoError(err)

	s.Equal(alice, again)
	s.NotEqual(alice, bob)
}

func (s *StorageSuite) TestRegisterEmptyNameFails() {
	_, err := s.storage.RegisterOrFetchPlayer(s.ctx, "  ")
	s.ErrorIs(err, model.ErrEmptyName)
}

func (s *StorageSuite) TestDisplayName() {
	id, _ := s.storage.RegisterOrFetchPlayer(s.ctx, "Alice")

	name, err := s.storage.DisplayName(s.ctx, id)
	s.Require().NoError(err)
	s.Equal("Alice", name)

	_, err = s.storage.DisplayName(s.ctx, id+100)
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

func (s *StorageSuite) TestConcurrentRegistrationYieldsOneID() {
	const workers = 16
	ids := make([]model.PlayerID, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ids[i], _ = s.storage.RegisterOrFetchPlayer(s.ctx, "Carol")
		}(i)
	}
	wg.Wait()

	for _, id := range ids {
		s.Equal(ids[0], id)
	}
}

// Score tests

func (s *StorageSuite) TestAggregateScore() {
	alice, _ := s.storage.RegisterOrFetchPlayer(s.ctx, "Alice")
	bob, _ := s.storage.RegisterOrFetchPlayer(s.ctx, "Bob")

	s.record(alice, bob, model.MoveRock, model.MoveScissors)
	s.record(alice, bob, model.MovePaper, model.MoveRock)
	s.record(alice, bob, model.MoveScissors, model.MoveScissors)
	s.record(alice, bob, model.MoveRock, model.MovePaper)

	score, err := s.storage.AggregateScore(s.ctx, alice, bob)
	s.Require().NoError(err)
	s.Equal(model.Score{FirstWins: 2, SecondWins: 1, Draws: 1}, score)
}

func (s *StorageSuite) TestAggregateScoreIsSymmetric() {
	alice, _ := s.storage.RegisterOrFetchPlayer(s.ctx, "Alice")
	bob, _ := s.storage.RegisterOrFetchPlayer(s.ctx, "Bob")

	s.record(alice, bob, model.MoveRock, model.MoveScissors)
	s.record(bob, alice, model.MoveRock, model.MoveScissors)
	s.record(bob, alice, model.MovePaper, model.MoveScissors)
	s.record(bob, alice, model.MovePaper, model.MovePaper)

	ab, err := s.storage.AggregateScore(s.ctx, alice, bob)
	s.Require().NoError(err)
	ba, err := s.storage.AggregateScore(s.ctx, bob, alice)
	s.Require().NoError(err)

	s.Equal(model.Score{FirstWins: 2, SecondWins: 1, Draws: 1}, ab)
	s.Equal(ab.Swap(), ba)
}

func (s *StorageSuite) TestAggregateScoreIgnoresOtherPairs() {
	alice, _ := s.storage.RegisterOrFetchPlayer(s.ctx, "Alice")
	bob, _ := s.storage.RegisterOrFetchPlayer(s.ctx, "Bob")
	carol, _ := s.storage.RegisterOrFetchPlayer(s.ctx, "Carol")

	s.record(alice, carol, model.MoveRock, model.MoveScissors)

	score, err := s.storage.AggregateScore(s.ctx, alice, bob)
	s.Require().NoError(err)
	s.Equal(model.Score{}, score)
}

// History tests

func (s *StorageSuite) TestListMatchesNewestFirst() {
	alice, _ := s.storage.RegisterOrFetchPlayer(s.ctx, "Alice")
	bob, _ := s.storage.RegisterOrFetchPlayer(s.ctx, "Bob")

	s.record(alice, bob, model.MoveRock, model.MoveScissors)
	s.record(bob, alice, model.MovePaper, model.MovePaper)
	s.record(alice, bob, model.MoveScissors, model.MoveRock)

	matches, err := s.storage.ListMatches(s.ctx, bob, alice, 2)
	s.Require().NoError(err)
	s.Require().Len(matches, 2)
	s.Equal(model.MoveScissors, matches[0].Moves[0])
	s.Equal(model.OutcomeDraw, matches[1].Outcome)
}
