package models

// LoginRequest is the body of a login call
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResult holds the bearer token issued by the server
type LoginResult struct {
	Token    string `json:"token"`
	Username string `json:"username"`
}
