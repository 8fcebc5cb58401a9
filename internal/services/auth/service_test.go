package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/beforeafter/internal/dependencies/mocks"
	"github.com/mcoot/beforeafter/internal/model"
	"github.com/mcoot/beforeafter/internal/storage/memory"
	"github.com/mcoot/beforeafter/internal/testutil"
)

type ServiceSuite struct {
	suite.Suite
	storage *memory.Storage
	clock   *mocks.MockClock
	service *Service
	ctx     context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.storage = memory.New()
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	cfg := DefaultConfig()
	cfg.PasswordCost = bcrypt.MinCost
	s.service = New(s.storage, s.clock, testutil.NopLogger(), cfg)
	s.ctx = context.Background()
}

func (s *ServiceSuite) device(name string) *Session {
	session, err := s.service.CreateDevice(s.ctx, name)
	s.Require().NoError(err)
	return session
}

// registerAndSignOut leaves an account "alice" and an anonymous device
func (s *ServiceSuite) registerAndSignOut() *Session {
	session := s.device("Phone")
	_, _, err := s.service.Register(s.ctx, session.Token, "alice", "password123", "Alice")
	s.Require().NoError(err)
	_, _, err = s.service.Logout(s.ctx, session.Token)
	s.Require().NoError(err)
	return session
}

// CreateDevice tests

func (s *ServiceSuite) TestCreateDeviceSucceeds() {
	session := s.device("Phone")

	s.NotEmpty(session.Token)
	s.NotEmpty(session.DeviceID)
	s.True(session.Device.IsGuest)
	s.Nil(session.Account)
	s.Equal(model.Anonymous(session.DeviceID), session.Identity())
	s.Equal("Phone", session.DisplayName())
}

func (s *ServiceSuite) TestCreateDevicePersistsPlayer() {
	session := s.device("Phone")

	player, err := s.storage.GetPlayer(s.ctx, session.DeviceID)
	s.Require().NoError(err)
	s.Equal("Phone", player.DisplayName)
	s.True(player.IsGuest)
}

func (s *ServiceSuite) TestCreateDeviceTokensAreUnique() {
	a := s.device("A")
	b := s.device("B")
	s.NotEqual(a.Token, b.Token)
	s.NotEqual(a.DeviceID, b.DeviceID)
}

// Register tests

func (s *ServiceSuite) TestRegisterSignsIn() {
	device := s.device("Phone")

	session, transition, err := s.service.Register(s.ctx, device.Token, "alice", "password123", "Alice")
	s.Require().NoError(err)

	s.Require().NotNil(session.Account)
	s.False(session.Account.IsGuest)
	s.Equal("Alice", session.DisplayName())
	s.Equal(model.TransitionSignIn, transition.Kind)
	s.Equal(device.DeviceID, transition.DeviceID)
	s.Equal(session.Account.ID, transition.UserID)
	s.Equal(transition.To(), session.Identity())
}

func (s *ServiceSuite) TestRegisterPersistsHashedPassword() {
	device := s.device("Phone")
	_, _, err := s.service.Register(s.ctx, device.Token, "alice", "password123", "Alice")
	s.Require().NoError(err)

	rp, err := s.storage.GetRegisteredPlayerByUsername(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal("alice", rp.Username)
	s.NotEqual("password123", rp.PasswordHash)
	s.NoError(bcrypt.CompareHashAndPassword([]byte(rp.PasswordHash), []byte("password123")))
}

func (s *ServiceSuite) TestRegisterDefaultsDisplayNameToUsername() {
	device := s.device("Phone")
	session, _, err := s.service.Register(s.ctx, device.Token, "alice", "password123", " ")
	s.Require().NoError(err)
	s.Equal("alice", session.DisplayName())
}

func (s *ServiceSuite) TestRegisterFailsIfUsernameExists() {
	s.registerAndSignOut()
	other := s.device("Laptop")

	_, _, err := s.service.Register(s.ctx, other.Token, "alice", "different", "Alice2")
	s.ErrorIs(err, ErrUsernameExists)
}

func (s *ServiceSuite) TestRegisterRequiresCredentials() {
	device := s.device("Phone")
	_, _, err := s.service.Register(s.ctx, device.Token, "", "password123", "")
	s.ErrorIs(err, ErrMissingCredentials)

	_, _, err = s.service.Register(s.ctx, device.Token, "alice", "", "")
	s.ErrorIs(err, ErrMissingCredentials)
}

func (s *ServiceSuite) TestRegisterFailsWhenSignedIn() {
	device := s.device("Phone")
	_, _, err := s.service.Register(s.ctx, device.Token, "alice", "password123", "Alice")
	s.Require().NoError(err)

	_, _, err = s.service.Register(s.ctx, device.Token, "bob", "password123", "Bob")
	s.ErrorIs(err, ErrAlreadySignedIn)
}

// Login tests

func (s *ServiceSuite) TestLoginSignsIn() {
	device := s.registerAndSignOut()

	session, transition, err := s.service.Login(s.ctx, device.Token, "alice", "password123")
	s.Require().NoError(err)
	s.Require().NotNil(session.Account)
	s.Equal("Alice", session.DisplayName())
	s.Equal(model.SignIn(device.DeviceID, session.Account.ID), transition)
}

func (s *ServiceSuite) TestLoginOnAnotherDevice() {
	s.registerAndSignOut()
	laptop := s.device("Laptop")

	session, transition, err := s.service.Login(s.ctx, laptop.Token, "alice", "password123")
	s.Require().NoError(err)
	s.Equal(laptop.DeviceID, transition.DeviceID)
	s.Equal(session.Account.ID, transition.UserID)
}

func (s *ServiceSuite) TestLoginFailsWithWrongPassword() {
	device := s.registerAndSignOut()

	_, _, err := s.service.Login(s.ctx, device.Token, "alice", "wrongpassword")
	s.ErrorIs(err, ErrInvalidCredentials)
}

func (s *ServiceSuite) TestLoginFailsWithUnknownUser() {
	device := s.device("Phone")
	_, _, err := s.service.Login(s.ctx, device.Token, "nobody", "password123")
	s.ErrorIs(err, ErrInvalidCredentials)
}

func (s *ServiceSuite) TestLoginFailsWithInvalidToken() {
	s.registerAndSignOut()
	_, _, err := s.service.Login(s.ctx, "invalid_token", "alice", "password123")
	s.ErrorIs(err, ErrInvalidSession)
}

// Logout tests

func (s *ServiceSuite) TestLogoutSignsOut() {
	device := s.device("Phone")
	signedIn, _, err := s.service.Register(s.ctx, device.Token, "alice", "password123", "Alice")
	s.Require().NoError(err)

	session, transition, err := s.service.Logout(s.ctx, device.Token)
	s.Require().NoError(err)
	s.Nil(session.Account)
	s.Equal(model.SignOut(device.DeviceID, signedIn.Account.ID), transition)
	s.Equal(model.Anonymous(device.DeviceID), transition.To())

	// The device token survives sign-out
	validated, err := s.service.ValidateSession(device.Token)
	s.Require().NoError(err)
	s.Equal(model.Anonymous(device.DeviceID), validated.Identity())
}

func (s *ServiceSuite) TestLogoutFailsWhenAnonymous() {
	device := s.device("Phone")
	_, _, err := s.service.Logout(s.ctx, device.Token)
	s.ErrorIs(err, ErrNotSignedIn)
}

// ValidateSession tests

func (s *ServiceSuite) TestValidateSessionSucceeds() {
	session := s.device("Phone")

	validated, err := s.service.ValidateSession(session.Token)
	s.Require().NoError(err)
	s.Equal(session.Token, validated.Token)
}

func (s *ServiceSuite) TestValidateSessionReturnsCopy() {
	device := s.device("Phone")
	_, _, err := s.service.Register(s.ctx, device.Token, "alice", "password123", "Alice")
	s.Require().NoError(err)

	validated, err := s.service.ValidateSession(device.Token)
	s.Require().NoError(err)
	validated.Account = nil

	again, err := s.service.ValidateSession(device.Token)
	s.Require().NoError(err)
	s.NotNil(again.Account)
}

func (s *ServiceSuite) TestValidateSessionFailsWithInvalidToken() {
	_, err := s.service.ValidateSession("invalid_token")
	s.ErrorIs(err, ErrInvalidSession)
}

func (s *ServiceSuite) TestValidateSessionFailsWhenExpired() {
	session := s.device("Phone")

	s.clock.Advance(25 * time.Hour)

	_, err := s.service.ValidateSession(session.Token)
	s.ErrorIs(err, ErrInvalidSession)
}

// InvalidateSession tests

func (s *ServiceSuite) TestInvalidateSessionRemovesSession() {
	session := s.device("Phone")

	s.service.InvalidateSession(session.Token)

	_, err := s.service.ValidateSession(session.Token)
	s.ErrorIs(err, ErrInvalidSession)
}

func (s *ServiceSuite) TestInvalidateSessionNoopForUnknownToken() {
	s.service.InvalidateSession("unknown_token")
}

// CleanExpiredSessions tests

func (s *ServiceSuite) TestCleanExpiredSessionsRemovesExpired() {
	session1 := s.device("Phone")

	s.clock.Advance(25 * time.Hour)

	session2 := s.device("Laptop")

	s.Equal(1, s.service.CleanExpiredSessions())

	_, err := s.service.ValidateSession(session1.Token)
	s.ErrorIs(err, ErrInvalidSession)

	_, err = s.service.ValidateSession(session2.Token)
	s.NoError(err)
}
