package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrInvalidArg — аргумент flow не в формате key=value.
var ErrInvalidArg = errors.New("argument must be key=value")

// parseArgs собирает аргументы flow из JSON-файла и пар key=value.
//
// Пары применяются после файла и перекрывают его значения. Ключ,
// повторённый в парах, даёт список строк:
//
//	--arg files=/a --arg files=/b  →  {"files": ["/a", "/b"]}
func parseArgs(pairs []string, file string) (map[string]any, error) {
	args := make(map[string]any)

	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read args file: %w", err)
		}
		if err := json.Unmarshal(data, &args); err != nil {
			return nil, fmt.Errorf("decode args file %s: %w", file, err)
		}
	}

	seen := make(map[string]bool)
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("%w: %q", ErrInvalidArg, pair)
		}

		if !seen[key] {
			seen[key] = true
			args[key] = value
			continue
		}

		switch prev := args[key].(type) {
		case string:
			args[key] = []string{prev, value}
		case []string:
			args[key] = append(prev, value)
		}
	}

	return args, nil
}
