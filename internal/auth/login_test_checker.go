package auth

import (
	"context"
	"sync"
)

// LoginTestChecker is an in-memory Checker used by tests and local runs
// without redis.
type LoginTestChecker struct {
	mutex    sync.RWMutex
	sessions map[string]string
}

func NewLoginTestChecker() *LoginTestChecker {
	return &LoginTestChecker{
		sessions: map[string]string{},
	}
}

func (c *LoginTestChecker) Login(token, userID string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.sessions[token] = userID
}

func (c *LoginTestChecker) Logout(token string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	delete(c.sessions, token)
}

func (c *LoginTestChecker) LoggedUser(_ context.Context, token string) (string, bool, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	userID, ok := c.sessions[token]
	return userID, ok, nil
}
