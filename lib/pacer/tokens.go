package pacer

import "context"

// TokenDispenser bounds how many operations run at once, such as APK
// writes to one device.
type TokenDispenser struct {
	tokens chan struct{}
}

// NewTokenDispenser makes a dispenser of n tokens, at least 1
func NewTokenDispenser(n int) *TokenDispenser {
	if n < 1 {
		n = 1
	}
	return &TokenDispenser{tokens: make(chan struct{}, n)}
}

// Get waits for a token. Return it with Put.
func (td *TokenDispenser) Get() {
	td.tokens <- struct{}{}
}

// GetContext is Get giving up with ctx.Err() when ctx is done
func (td *TokenDispenser) GetContext(ctx context.Context) error {
	select {
	case td.tokens <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Put returns a token
func (td *TokenDispenser) Put() {
	<-td.tokens
}

// Available is the number of tokens not handed out
func (td *TokenDispenser) Available() int {
	return cap(td.tokens) - len(td.tokens)
}
