package session

// TokenRepo persists the raw session token across process restarts. Only
// the token survives a restart; user, flags, and errors are always
// recomputed from it.
type TokenRepo interface {
	// Load returns the persisted token, or "" when nothing is persisted.
	Load() (string, error)
	Save(token string) error
	Clear() error
}
