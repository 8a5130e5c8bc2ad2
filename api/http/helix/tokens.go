package helix

import (
	"context"
	"fmt"
)

// Tokens resolves the bearer token to call the registry with. An empty user id selects the app token.
type Tokens interface {
	Token(ctx context.Context, userId string) (token string, err error)
}

type staticTokens struct {
	app   string
	users map[string]string
}

func NewStaticTokens(app string, users map[string]string) Tokens {
	return staticTokens{
		app:   app,
		users: users,
	}
}

func (st staticTokens) Token(_ context.Context, userId string) (token string, err error) {
	switch userId {
	case "":
		token = st.app
		if token == "" {
			err = fmt.Errorf("%w: app token is not configured", ErrNoAuth)
		}
	default:
		var ok bool
		token, ok = st.users[userId]
		if !ok {
			err = fmt.Errorf("%w: no token for user %s", ErrNoAuth, userId)
		}
	}
	return
}
