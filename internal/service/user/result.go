package user

import "github.com/heartmarshall/promptboard/internal/domain"

// SignInResult is returned by SignIn. Token restores the session later.
type SignInResult struct {
	User         domain.User
	Token        string
	IsNewAccount bool
}
