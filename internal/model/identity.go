package model

// Identity is who a score is being kept for.
//
// DeviceID always names the client the player is using and scopes the
// local-only score surface. UserID is set once a registered account has
// signed in on that device; it scopes the remote score surface.
type Identity struct {
	DeviceID PlayerID `json:"device_id"`
	UserID   PlayerID `json:"user_id,omitempty"`
}

// Anonymous returns the local-only identity for a device
func Anonymous(deviceID PlayerID) Identity {
	return Identity{DeviceID: deviceID}
}

// Authenticated returns the remote-backed identity for a signed-in account
func Authenticated(deviceID, userID PlayerID) Identity {
	return Identity{DeviceID: deviceID, UserID: userID}
}

// IsAuthenticated returns true when scores are kept on the remote surface
func (i Identity) IsAuthenticated() bool {
	return i.UserID != ""
}

// String is used in logs
func (i Identity) String() string {
	if i.IsAuthenticated() {
		return "user:" + string(i.UserID)
	}
	return "anonymous:" + string(i.DeviceID)
}

// TransitionKind tags an IdentityTransition
type TransitionKind string

const (
	TransitionSignIn  TransitionKind = "sign_in"
	TransitionSignOut TransitionKind = "sign_out"
)

// IdentityTransition is emitted when sign-in or sign-out completes on a device
type IdentityTransition struct {
	Kind     TransitionKind
	DeviceID PlayerID
	UserID   PlayerID // The account signing in or out
}

// SignIn builds an anonymous -> authenticated transition
func SignIn(deviceID, userID PlayerID) IdentityTransition {
	return IdentityTransition{Kind: TransitionSignIn, DeviceID: deviceID, UserID: userID}
}

// SignOut builds an authenticated -> anonymous transition
func SignOut(deviceID, userID PlayerID) IdentityTransition {
	return IdentityTransition{Kind: TransitionSignOut, DeviceID: deviceID, UserID: userID}
}

// From returns the identity before the transition
func (t IdentityTransition) From() Identity {
	if t.Kind == TransitionSignIn {
		return Anonymous(t.DeviceID)
	}
	return Authenticated(t.DeviceID, t.UserID)
}

// To returns the identity after the transition
func (t IdentityTransition) To() Identity {
	if t.Kind == TransitionSignIn {
		return Authenticated(t.DeviceID, t.UserID)
	}
	return Anonymous(t.DeviceID)
}
