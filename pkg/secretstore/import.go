package secretstore

import (
	"sort"
	"strings"
)

// envNames maps .env entry names to store keys. Both the bare and the AAVEBOT_-prefixed
// spellings are accepted.
var envNames = map[string]string{
	"PRIVATE_KEY":     KeyPrivateKey,
	"MNEMONIC":        KeyMnemonic,
	"DERIVATION_PATH": KeyDerivationPath,
}

// WalletEntries picks the wallet secrets out of a parsed .env file and returns them keyed
// by store key. Unrelated and empty entries are ignored.
func WalletEntries(env map[string]string) map[string]string {
	out := map[string]string{}
	for name, value := range env {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		key, ok := envNames[strings.TrimPrefix(strings.ToUpper(strings.TrimSpace(name)), "AAVEBOT_")]
		if !ok {
			continue
		}
		out[key] = value
	}
	return out
}

// Import writes entries into the store and returns the keys written, sorted.
func (s *Store) Import(entries map[string]string) ([]string, error) {
	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := s.SetString(k, entries[k]); err != nil {
			return nil, err
		}
	}
	return keys, nil
}
