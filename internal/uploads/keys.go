package uploads

import (
	"errors"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const keyPrefix = "resumes/"

func GenerateKey(filename, contentType string) (string, error) {
	ext, ok := ExtForMime(contentType)
	if !ok {
		return "", errors.New("unsupported content type")
	}

	if filename != "" {
		fExt := filepath.Ext(filename)
		if fExt != "" && fExt != ext {
			return "", errors.New("file extension does not match content type")
		}
	}

	u, err := uuid.NewV7()
	if err != nil {
		return "", err
	}

	return keyPrefix + u.String() + ext, nil
}

func validateKey(key string) error {
	if key == "" {
		return errors.New("invalid key")
	}
	if !strings.HasPrefix(key, keyPrefix) {
		return errors.New("invalid key")
	}
	if strings.Contains(key, "..") {
		return errors.New("invalid key")
	}
	return nil
}
