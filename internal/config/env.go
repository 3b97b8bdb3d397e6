package config

import (
    "fmt"
    "os"
    "strconv"
    "strings"
    "time"
)

// The env* helpers fall back to the default when a variable is unset or
// malformed.  The strict* variants report malformed values instead; they
// are used for settings where a silent fallback would change behaviour
// the operator asked for.

func envStr(key, def string) string {
    if v := os.Getenv(key); v != "" {
        return v
    }
    return def
}

func envBool(key string, def bool) bool {
    switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
    case "1", "true", "yes", "on":
        return true
    case "0", "false", "no", "off":
        return false
    }
    return def
}

func envInt(key string, def int) int {
    if n, err := strconv.Atoi(os.Getenv(key)); err == nil {
        return n
    }
    return def
}

func envDur(key string, def time.Duration) time.Duration {
    if d, err := time.ParseDuration(os.Getenv(key)); err == nil {
        return d
    }
    return def
}

func strictInt(key string, def int) (int, error) {
    v := os.Getenv(key)
    if v == "" {
        return def, nil
    }
    n, err := strconv.Atoi(v)
    if err != nil {
        return def, fmt.Errorf("invalid int for %s: %q", key, v)
    }
    return n, nil
}

func strictDur(key string, def time.Duration) (time.Duration, error) {
    v := os.Getenv(key)
    if v == "" {
        return def, nil
    }
    d, err := time.ParseDuration(v)
    if err != nil {
        return def, fmt.Errorf("invalid duration for %s: %q", key, v)
    }
    return d, nil
}
