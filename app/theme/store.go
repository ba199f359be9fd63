package theme

import (
	"github.com/lysyi3m/edgeboard/app/database"
)

// PreferenceStore adapts the preference repository to Store.
type PreferenceStore struct {
	repo *database.PreferenceRepository
}

func NewPreferenceStore(repo *database.PreferenceRepository) *PreferenceStore {
	return &PreferenceStore{repo: repo}
}

func (s *PreferenceStore) Get(key string) (string, bool, error) {
	pref, err := s.repo.GetPreference(key)
	if err != nil {
		return "", false, err
	}
	if pref == nil {
		return "", false, nil
	}
	return pref.Value, true, nil
}

func (s *PreferenceStore) Set(key, value string) error {
	return s.repo.SetPreference(key, value)
}
