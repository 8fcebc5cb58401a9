package score

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/beforeafter/internal/model"
	"github.com/mcoot/beforeafter/internal/storage/memory"
	"github.com/mcoot/beforeafter/internal/testutil"
)

var errRemoteDown = errors.New("remote unavailable")

// flakyRemote wraps memory storage and fails remote operations on demand
type flakyRemote struct {
	*memory.Storage
	failReads  bool
	failWrites bool
	writes     int
}

func (f *flakyRemote) GetRemoteScore(ctx context.Context, userID model.PlayerID) (model.ScoreRecord, error) {
	if f.failReads {
		return model.ScoreRecord{}, errRemoteDown
	}
	return f.Storage.GetRemoteScore(ctx, userID)
}

func (f *flakyRemote) SaveRemoteScore(ctx context.Context, userID model.PlayerID, record model.ScoreRecord) error {
	f.writes++
	if f.failWrites {
		return errRemoteDown
	}
	return f.Storage.SaveRemoteScore(ctx, userID, record)
}

type LedgerSuite struct {
	suite.Suite
	storage *memory.Storage
	remote  *flakyRemote
	ledger  *Ledger
	ctx     context.Context

	anon    model.Identity
	account model.Identity
}

func TestLedgerSuite(t *testing.T) {
	suite.Run(t, new(LedgerSuite))
}

func (s *LedgerSuite) SetupTest() {
	s.storage = memory.New()
	s.remote = &flakyRemote{Storage: s.storage}
	s.ledger = New(s.storage, s.remote, testutil.NopLogger())
	s.ctx = context.Background()
	s.anon = model.Anonymous("device-1")
	s.account = model.Authenticated("device-1", "user-1")
}

func (s *LedgerSuite) localScore() model.ScoreRecord {
	record, err := s.storage.GetLocalScore(s.ctx, "device-1")
	s.Require().NoError(err)
	return record
}

func (s *LedgerSuite) remoteScore() model.ScoreRecord {
	record, err := s.storage.GetRemoteScore(s.ctx, "user-1")
	s.Require().NoError(err)
	return record
}

// Load tests

func (s *LedgerSuite) TestLoadDefaultsToZero() {
	record, err := s.ledger.Load(s.ctx, s.anon)
	s.Require().NoError(err)
	s.Equal(model.ScoreRecord{}, record)

	record, err = s.ledger.Load(s.ctx, s.account)
	s.Require().NoError(err)
	s.Equal(model.ScoreRecord{}, record)
}

func (s *LedgerSuite) TestLoadUsesSurfaceForIdentity() {
	s.Require().NoError(s.storage.SaveLocalScore(s.ctx, "device-1", model.ScoreRecord{CurrentScore: 1, HighScore: 3}))
	s.Require().NoError(s.storage.SaveRemoteScore(s.ctx, "user-1", model.ScoreRecord{CurrentScore: 2, HighScore: 9}))

	local, err := s.ledger.Load(s.ctx, s.anon)
	s.Require().NoError(err)
	s.Equal(3, local.HighScore)

	remote, err := s.ledger.Load(s.ctx, s.account)
	s.Require().NoError(err)
	s.Equal(9, remote.HighScore)
}

func (s *LedgerSuite) TestLoadReportsRemoteFailure() {
	s.remote.failReads = true
	_, err := s.ledger.Load(s.ctx, s.account)
	s.ErrorIs(err, errRemoteDown)
}

// Increment tests

func (s *LedgerSuite) TestIncrementPersistsToLocalSurface() {
	record, err := s.ledger.Increment(s.ctx, s.anon, model.ScoreRecord{})
	s.Require().NoError(err)
	s.Equal(model.ScoreRecord{CurrentScore: 1, HighScore: 1}, record)
	s.Equal(record, s.localScore())

	_, err = s.storage.GetRemoteScore(s.ctx, "user-1")
	s.ErrorIs(err, model.ErrScoreNotFound)
}

func (s *LedgerSuite) TestIncrementPersistsToRemoteSurface() {
	record, err := s.ledger.Increment(s.ctx, s.account, model.ScoreRecord{CurrentScore: 4, HighScore: 10})
	s.Require().NoError(err)
	s.Equal(model.ScoreRecord{CurrentScore: 5, HighScore: 10}, record)
	s.Equal(record, s.remoteScore())
}

func (s *LedgerSuite) TestIncrementIsMonotonic() {
	record := model.ScoreRecord{CurrentScore: 0, HighScore: 3}
	previousHigh := record.HighScore
	for i := 0; i < 10; i++ {
		var err error
		record, err = s.ledger.Increment(s.ctx, s.anon, record)
		s.Require().NoError(err)
		s.GreaterOrEqual(record.HighScore, previousHigh)
		s.GreaterOrEqual(record.HighScore, record.CurrentScore)
		previousHigh = record.HighScore
	}
	s.Equal(model.ScoreRecord{CurrentScore: 10, HighScore: 10}, record)
}

func (s *LedgerSuite) TestIncrementKeepsAdvancedRecordOnFailure() {
	s.remote.failWrites = true

	record, err := s.ledger.Increment(s.ctx, s.account, model.ScoreRecord{CurrentScore: 2, HighScore: 2})
	s.ErrorIs(err, model.ErrScorePersistence)
	s.ErrorIs(err, errRemoteDown)
	s.Equal(model.ScoreRecord{CurrentScore: 3, HighScore: 3}, record)
}

func (s *LedgerSuite) TestWritesNeverLowerStoredHighScore() {
	s.Require().NoError(s.storage.SaveRemoteScore(s.ctx, "user-1", model.ScoreRecord{CurrentScore: 0, HighScore: 20}))

	// Another device holding a stale view of the account
	record, err := s.ledger.Increment(s.ctx, s.account, model.ScoreRecord{CurrentScore: 1, HighScore: 4})
	s.Require().NoError(err)
	s.Equal(model.ScoreRecord{CurrentScore: 2, HighScore: 20}, record)
	s.Equal(20, s.remoteScore().HighScore)
}

// ResetCurrent / Finalize tests

func (s *LedgerSuite) TestResetCurrentKeepsHighScore() {
	record, err := s.ledger.ResetCurrent(s.ctx, s.anon, model.ScoreRecord{CurrentScore: 6, HighScore: 8})
	s.Require().NoError(err)
	s.Equal(model.ScoreRecord{CurrentScore: 0, HighScore: 8}, record)
	s.Equal(record, s.localScore())
}

func (s *LedgerSuite) TestFinalizeRaisesStaleHighScore() {
	record, err := s.ledger.Finalize(s.ctx, s.anon, model.ScoreRecord{CurrentScore: 7, HighScore: 5})
	s.Require().NoError(err)
	s.Equal(model.ScoreRecord{CurrentScore: 7, HighScore: 7}, record)
	s.Equal(record, s.localScore())
}

func (s *LedgerSuite) TestFinalizeIsIdempotentWithIncrement() {
	record, err := s.ledger.Increment(s.ctx, s.anon, model.ScoreRecord{CurrentScore: 2, HighScore: 2})
	s.Require().NoError(err)

	final, err := s.ledger.Finalize(s.ctx, s.anon, record)
	s.Require().NoError(err)
	s.Equal(record, final)
}

// Sign in tests

func (s *LedgerSuite) TestReconcileOnSignInLocalHigher() {
	merged, writeBack := ReconcileOnSignIn(
		model.ScoreRecord{CurrentScore: 8, HighScore: 12},
		model.ScoreRecord{CurrentScore: 2, HighScore: 7},
	)
	s.Equal(model.ScoreRecord{CurrentScore: 2, HighScore: 12}, merged)
	s.True(writeBack)
}

func (s *LedgerSuite) TestReconcileOnSignInRemoteHigher() {
	merged, writeBack := ReconcileOnSignIn(
		model.ScoreRecord{HighScore: 5},
		model.ScoreRecord{CurrentScore: 4, HighScore: 10},
	)
	s.Equal(model.ScoreRecord{CurrentScore: 4, HighScore: 10}, merged)
	s.False(writeBack)
}

func (s *LedgerSuite) TestSignInLocalHigherWritesBack() {
	s.Require().NoError(s.storage.SaveLocalScore(s.ctx, "device-1", model.ScoreRecord{CurrentScore: 8, HighScore: 12}))
	s.Require().NoError(s.storage.SaveRemoteScore(s.ctx, "user-1", model.ScoreRecord{CurrentScore: 2, HighScore: 7}))

	merged, err := s.ledger.SignIn(s.ctx, "device-1", "user-1")
	s.Require().NoError(err)
	s.Equal(model.ScoreRecord{CurrentScore: 2, HighScore: 12}, merged)
	s.Equal(12, s.remoteScore().HighScore)

	_, err = s.storage.GetLocalScore(s.ctx, "device-1")
	s.ErrorIs(err, model.ErrScoreNotFound, "local score should be cleared")
}

func (s *LedgerSuite) TestSignInRemoteHigherSkipsWriteBack() {
	s.Require().NoError(s.storage.SaveLocalScore(s.ctx, "device-1", model.ScoreRecord{HighScore: 5}))
	s.Require().NoError(s.storage.SaveRemoteScore(s.ctx, "user-1", model.ScoreRecord{CurrentScore: 4, HighScore: 10}))
	writesBefore := s.remote.writes

	merged, err := s.ledger.SignIn(s.ctx, "device-1", "user-1")
	s.Require().NoError(err)
	s.Equal(model.ScoreRecord{CurrentScore: 4, HighScore: 10}, merged)
	s.Equal(writesBefore, s.remote.writes)

	_, err = s.storage.GetLocalScore(s.ctx, "device-1")
	s.ErrorIs(err, model.ErrScoreNotFound)
}

func (s *LedgerSuite) TestSignInWithNoRemoteRecord() {
	s.Require().NoError(s.storage.SaveLocalScore(s.ctx, "device-1", model.ScoreRecord{CurrentScore: 3, HighScore: 6}))

	merged, err := s.ledger.SignIn(s.ctx, "device-1", "user-1")
	s.Require().NoError(err)
	s.Equal(model.ScoreRecord{CurrentScore: 0, HighScore: 6}, merged)
	s.Equal(merged, s.remoteScore())
}

func (s *LedgerSuite) TestSignInWriteBackFailureStillClearsLocal() {
	s.Require().NoError(s.storage.SaveLocalScore(s.ctx, "device-1", model.ScoreRecord{CurrentScore: 8, HighScore: 12}))
	s.Require().NoError(s.storage.SaveRemoteScore(s.ctx, "user-1", model.ScoreRecord{CurrentScore: 2, HighScore: 7}))
	s.remote.failWrites = true

	merged, err := s.ledger.SignIn(s.ctx, "device-1", "user-1")
	s.ErrorIs(err, model.ErrIdentityReconciliation)
	s.ErrorIs(err, errRemoteDown)
	s.Equal(model.ScoreRecord{CurrentScore: 2, HighScore: 12}, merged)

	_, err = s.storage.GetLocalScore(s.ctx, "device-1")
	s.ErrorIs(err, model.ErrScoreNotFound)
}

func (s *LedgerSuite) TestSignInRemoteReadFailureKeepsLocal() {
	s.Require().NoError(s.storage.SaveLocalScore(s.ctx, "device-1", model.ScoreRecord{CurrentScore: 8, HighScore: 12}))
	s.remote.failReads = true

	_, err := s.ledger.SignIn(s.ctx, "device-1", "user-1")
	s.ErrorIs(err, model.ErrIdentityReconciliation)
	s.Equal(model.ScoreRecord{CurrentScore: 8, HighScore: 12}, s.localScore())
}

// Sign out tests

func (s *LedgerSuite) TestReconcileOnSignOut() {
	s.Equal(model.ScoreRecord{CurrentScore: 0, HighScore: 25},
		ReconcileOnSignOut(model.ScoreRecord{CurrentScore: 12, HighScore: 25}))
}

func (s *LedgerSuite) TestSignOutPreservesHighScore() {
	record, err := s.ledger.SignOut(s.ctx, "device-1", "user-1", model.ScoreRecord{CurrentScore: 12, HighScore: 25})
	s.Require().NoError(err)
	s.Equal(model.ScoreRecord{CurrentScore: 0, HighScore: 25}, record)
	s.Equal(record, s.localScore())
}

func (s *LedgerSuite) TestSignOutKeepsHigherLocalRecord() {
	s.Require().NoError(s.storage.SaveLocalScore(s.ctx, "device-1", model.ScoreRecord{CurrentScore: 3, HighScore: 40}))

	record, err := s.ledger.SignOut(s.ctx, "device-1", "user-1", model.ScoreRecord{CurrentScore: 12, HighScore: 25})
	s.Require().NoError(err)
	s.Equal(model.ScoreRecord{CurrentScore: 0, HighScore: 40}, record)
}

func (s *LedgerSuite) TestSignOutUsesAccountRecordWhenDeviceIsBehind() {
	// Another device raised the account's high score after this one last played
	s.Require().NoError(s.storage.SaveRemoteScore(s.ctx, "user-1", model.ScoreRecord{CurrentScore: 9, HighScore: 9}))

	record, err := s.ledger.SignOut(s.ctx, "device-1", "user-1", model.ScoreRecord{})
	s.Require().NoError(err)
	s.Equal(model.ScoreRecord{CurrentScore: 0, HighScore: 9}, record)
	s.Equal(record, s.localScore())
}

func (s *LedgerSuite) TestSignOutRemoteReadFailureStillWritesLocal() {
	s.remote.failReads = true

	record, err := s.ledger.SignOut(s.ctx, "device-1", "user-1", model.ScoreRecord{CurrentScore: 2, HighScore: 6})
	s.Require().NoError(err)
	s.Equal(model.ScoreRecord{CurrentScore: 0, HighScore: 6}, s.localScore())
	s.Equal(6, record.HighScore)
}

// Round trip

func (s *LedgerSuite) TestReconcileRoundTrip() {
	_, err := s.ledger.Increment(s.ctx, s.anon, model.ScoreRecord{CurrentScore: 4, HighScore: 4})
	s.Require().NoError(err)

	merged, err := s.ledger.Reconcile(s.ctx, model.SignIn("device-1", "user-1"), model.ScoreRecord{})
	s.Require().NoError(err)
	s.Equal(5, merged.HighScore)

	record, err := s.ledger.Increment(s.ctx, s.account, merged)
	s.Require().NoError(err)

	local, err := s.ledger.Reconcile(s.ctx, model.SignOut("device-1", "user-1"), record)
	s.Require().NoError(err)
	s.Equal(model.ScoreRecord{CurrentScore: 0, HighScore: 5}, local)
}

func (s *LedgerSuite) TestReconcileRejectsUnknownTransition() {
	_, err := s.ledger.Reconcile(s.ctx, model.IdentityTransition{Kind: "teleport"}, model.ScoreRecord{})
	s.ErrorIs(err, model.ErrIdentityReconciliation)
}
