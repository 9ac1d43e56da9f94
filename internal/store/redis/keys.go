package redis

const (
	// KeyPrefixEntry is the prefix for registration keys, suffixed
	// with the service URL.
	KeyPrefixEntry = "slpd:service:"
	// KeyAllEntries is the key for the set of all registered URLs.
	KeyAllEntries = "slpd:services:all"
)

// EntryKey returns the Redis key for a registration by service URL.
func EntryKey(url string) string {
	return KeyPrefixEntry + url
}

// AllEntriesKey returns the key for the set of all registered URLs.
func AllEntriesKey() string {
	return KeyAllEntries
}
