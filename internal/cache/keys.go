package cache

import "fmt"

// ProfileKey is the key of a user's cached reputation profile.
func ProfileKey(userID uint) string {
	return fmt.Sprintf("reputation:profile:%d", userID)
}
