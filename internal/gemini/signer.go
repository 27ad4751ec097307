package gemini

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"
)

// Signer builds the authenticated-request envelope for private API
// calls: base64-encoded canonical JSON payload plus a hex HMAC-SHA384
// signature over the encoded bytes.
type Signer struct {
	secret []byte
	now    func() time.Time

	mu        sync.Mutex
	lastNonce int64
}

func NewSigner(secret []byte) *Signer {
	return &Signer{secret: secret, now: time.Now}
}

// Nonce returns a strictly increasing wall-clock-millisecond nonce.
// If two calls land in the same millisecond the counter advances past
// the clock, so sub-second call rates never repeat a nonce within the
// venue's replay window.
func (s *Signer) Nonce() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := s.now().UnixMilli()
	if n <= s.lastNonce {
		n = s.lastNonce + 1
	}
	s.lastNonce = n
	return strconv.FormatInt(n, 10)
}

// Sign serializes the payload to JSON, base64-encodes it and signs the
// encoded bytes. The payload must already carry its "request" route and
// "nonce" fields.
func (s *Signer) Sign(payload map[string]any) (encoded string, signature string, err error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", "", fmt.Errorf("marshal payload: %w", err)
	}

	encoded = base64.StdEncoding.EncodeToString(raw)
	mac := hmac.New(sha512.New384, s.secret)
	mac.Write([]byte(encoded))
	return encoded, hex.EncodeToString(mac.Sum(nil)), nil
}
