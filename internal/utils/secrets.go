package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const secretsDir = "/run/secrets"

// ReadSecret читает секрет из файла /run/secrets/<name>.
// Фоллбэка на переменные окружения нет намеренно: секреты приходят
// только через файловый механизм оркестратора.
func ReadSecret(name string) (string, error) {
	path := filepath.Join(secretsDir, name)
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read secret %q: %w", name, err)
	}
	value := strings.TrimSpace(string(data))
	if value == "" {
		return "", fmt.Errorf("secret %q is empty", name)
	}
	return value, nil
}
