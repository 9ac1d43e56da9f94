package regfile

import (
	"github.com/slpwire/slpd/internal/slp"
)

// Mapper converts file entries into service entries.
type Mapper struct{}

// NewMapper creates a new mapper.
func NewMapper() *Mapper {
	return &Mapper{}
}

// Map converts the parsed file into registry entries. Malformed
// entries are skipped and returned separately so the caller can log
// them; one bad line must not take down the rest of the file.
func (m *Mapper) Map(file File) ([]slp.ServiceEntry, []error) {
	entries := make([]slp.ServiceEntry, 0, len(file.Services))
	var errs []error

	for _, raw := range file.Services {
		lifetime := raw.Lifetime
		if lifetime == 0 {
			lifetime = slp.DefaultLifetime
		}
		entry, err := slp.NewServiceEntry(raw.Scopes, raw.URL, lifetime)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		entries = append(entries, entry)
	}
	return entries, errs
}
