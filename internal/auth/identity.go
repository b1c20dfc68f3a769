package auth

// OAuthIdentity is the account an OAuth provider vouched for. Subject is the
// provider's stable account id and becomes the user uid.
type OAuthIdentity struct {
	Subject     string
	Email       string
	DisplayName string
	PhotoURL    string
}
