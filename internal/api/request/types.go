package request

// CreateGuestRequest is the request body for registering a device
type CreateGuestRequest struct {
	DisplayName string `json:"display_name"`
}

// RegisterRequest is the request body for registering an account
type RegisterRequest struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

// LoginRequest is the request body for logging in
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// GuessRequest is the request body for submitting a guess
type GuessRequest struct {
	Guess string `json:"guess"` // before | after
}
