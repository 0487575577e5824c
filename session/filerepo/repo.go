// Package filerepo persists the session token as a small JSON file, the
// durable-storage equivalent of the dashboard's single local-storage key.
package filerepo

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/arghyam/jalsoochak-session/session"
)

var _ session.TokenRepo = (*Repo)(nil)

// persistedState is the on-disk layout. Only the raw token is stored;
// everything else about the session is recomputed on restore.
type persistedState struct {
	Token string `json:"token"`
}

type Repo struct {
	path string
}

func New(path string) *Repo {
	return &Repo{path: path}
}

func (r *Repo) Load() (string, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", errors.Wrap(err, "[filerepo.Load]")
	}

	var state persistedState
	if err := json.Unmarshal(data, &state); err != nil {
		// A corrupt state file is the same as no persisted token.
		return "", nil
	}
	return state.Token, nil
}

func (r *Repo) Save(token string) error {
	data, err := json.Marshal(persistedState{Token: token})
	if err != nil {
		return errors.Wrap(err, "[filerepo.Save]")
	}
	if err := os.MkdirAll(filepath.Dir(r.path), 0o700); err != nil {
		return errors.Wrap(err, "[filerepo.Save]")
	}
	if err := os.WriteFile(r.path, data, 0o600); err != nil {
		return errors.Wrap(err, "[filerepo.Save]")
	}
	return nil
}

func (r *Repo) Clear() error {
	if err := os.Remove(r.path); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "[filerepo.Clear]")
	}
	return nil
}
