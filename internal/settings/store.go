// Package settings persists user-facing key-value settings for the daemon.
package settings

// Store is the key-value settings capability handed to components that need
// persistent user preferences. Implementations must be safe for concurrent
// use.
type Store interface {
	// Get returns the value for key and whether it was present.
	Get(key string) (string, bool)

	// Set stores a value in memory. Call Save to persist.
	Set(key, value string)

	// Delete removes a key. Deleting an absent key is a no-op.
	Delete(key string)

	// All returns a copy of every stored key-value pair.
	All() map[string]string

	// Save writes the current state to the backing storage.
	Save() error
}
