package session

// Session identifies an authenticated user. The zero value means the client
// is anonymous.
type Session struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	Token       string `json:"token,omitempty"`
}

// Anonymous reports whether the session carries no usable identity.
func (s Session) Anonymous() bool {
	return s.UserID == "" && s.Token == ""
}
