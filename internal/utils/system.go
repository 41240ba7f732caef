package utils

import (
	"os"
	"os/user"
)

// GetUsername returns the current account name, falling back to $USER.
func GetUsername() (string, error) {
	u, err := user.Current()
	if err != nil {
		if name := os.Getenv("USER"); name != "" {
			return name, nil
		}
		return "", err
	}
	return u.Username, nil
}
