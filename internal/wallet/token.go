package wallet

import "github.com/google/uuid"

// VersionToken is the opaque marker regenerated on every successful wallet
// write. It is compared for equality only.
type VersionToken = uuid.UUID

// TokenSource hands out fresh version tokens.
type TokenSource interface {
    Next() VersionToken
}

// RandomTokens generates random (v4) tokens.
type RandomTokens struct{}

// Next implements TokenSource.
func (RandomTokens) Next() VersionToken {
    return uuid.New()
}

// TokenFunc adapts a plain function to TokenSource.
type TokenFunc func() VersionToken

// Next implements TokenSource.
func (f TokenFunc) Next() VersionToken {
    return f()
}
