package logger

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"strings"
)

const redacted = "[REDACTED]"

// secretMarkers are key fragments whose values are never logged.
var secretMarkers = []string{
	"secret", "password", "token", "cookie", "authorization",
	"service_key", "api_key", "apikey",
}

// scrubber rewrites key/value pairs. The zero value passes everything through.
type scrubber struct {
	enabled bool
	salt    string
}

// scrubberFromEnv reads LOG_REDACTION_ENABLED (default on) and LOG_HASH_SALT.
func scrubberFromEnv() scrubber {
	s := scrubber{enabled: true, salt: strings.TrimSpace(os.Getenv("LOG_HASH_SALT"))}
	switch strings.ToLower(strings.TrimSpace(os.Getenv("LOG_REDACTION_ENABLED"))) {
	case "0", "false", "no", "off":
		s.enabled = false
	}
	return s
}

func (s scrubber) pairs(kv []interface{}) []interface{} {
	if !s.enabled || len(kv) == 0 {
		return kv
	}
	out := make([]interface{}, len(kv))
	copy(out, kv)
	for i := 0; i+1 < len(out); i += 2 {
		key, ok := out[i].(string)
		if !ok {
			continue
		}
		out[i+1] = s.value(strings.ToLower(key), out[i+1])
	}
	return out
}

func (s scrubber) value(key string, v interface{}) interface{} {
	for _, m := range secretMarkers {
		if strings.Contains(key, m) {
			return redacted
		}
	}
	if key == "user_id" || key == "session_id" {
		return s.pseudonym(v)
	}
	str, ok := v.(string)
	if !ok {
		return v
	}
	switch {
	case strings.HasPrefix(str, "data:"):
		return fmt.Sprintf("[data-uri %d bytes]", len(str))
	case isJWT(str):
		return redacted
	}
	return v
}

// pseudonym keeps user ids correlatable across log lines without exposing
// the id that names the user's blob directory.
func (s scrubber) pseudonym(v interface{}) string {
	raw := strings.TrimSpace(fmt.Sprint(v))
	if v == nil || raw == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(s.salt + raw))
	return "hash:" + hex.EncodeToString(sum[:6])
}

func isJWT(s string) bool {
	header, rest, ok := strings.Cut(s, ".")
	if !ok || !strings.HasPrefix(header, "eyJ") {
		return false
	}
	payload, sig, ok := strings.Cut(rest, ".")
	return ok && len(payload) > 0 && len(sig) > 0 && !strings.Contains(sig, ".")
}
