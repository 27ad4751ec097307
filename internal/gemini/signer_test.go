package gemini

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"strconv"
	"testing"
	"time"
)

func TestSignEnvelope(t *testing.T) {
	secret := []byte("1234abcd")
	s := NewSigner(secret)

	payload := map[string]any{
		"request": "/v1/order/status",
		"nonce":   "1700000000000",
		"order_id": "12345",
	}

	encoded, signature, err := s.Sign(payload)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	// The encoded payload must round-trip back to the same JSON object.
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		t.Fatalf("payload is not valid base64: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("payload is not valid JSON: %v", err)
	}
	if decoded["request"] != "/v1/order/status" {
		t.Fatalf("request field mismatch: %v", decoded["request"])
	}
	if decoded["nonce"] != "1700000000000" {
		t.Fatalf("nonce field mismatch: %v", decoded["nonce"])
	}

	// The signature is HMAC-SHA384 over the encoded bytes, hex form.
	mac := hmac.New(sha512.New384, secret)
	mac.Write([]byte(encoded))
	if want := hex.EncodeToString(mac.Sum(nil)); signature != want {
		t.Fatalf("signature mismatch:\n got %s\nwant %s", signature, want)
	}
	if len(signature) != 96 { // 384 bits hex-encoded
		t.Fatalf("expected 96 hex chars, got %d", len(signature))
	}
}

func TestSignDiffersBySecret(t *testing.T) {
	payload := map[string]any{"request": "/v1/notionalvolume", "nonce": "1"}

	_, sigA, err := NewSigner([]byte("secret-a")).Sign(payload)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	_, sigB, err := NewSigner([]byte("secret-b")).Sign(payload)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if sigA == sigB {
		t.Fatal("different secrets produced the same signature")
	}
}

func TestNonceStrictlyIncreasing(t *testing.T) {
	s := NewSigner([]byte("x"))

	prev := int64(-1)
	for i := 0; i < 1000; i++ {
		n, err := strconv.ParseInt(s.Nonce(), 10, 64)
		if err != nil {
			t.Fatalf("nonce is not an integer: %v", err)
		}
		if n <= prev {
			t.Fatalf("nonce %d not above previous %d (iteration %d)", n, prev, i)
		}
		prev = n
	}
}

func TestNonceSurvivesFrozenClock(t *testing.T) {
	s := NewSigner([]byte("x"))
	frozen := time.UnixMilli(1700000000000)
	s.now = func() time.Time { return frozen }

	first := s.Nonce()
	second := s.Nonce()
	if first == second {
		t.Fatalf("frozen clock produced duplicate nonce %s", first)
	}
	if first != "1700000000000" || second != "1700000000001" {
		t.Fatalf("expected counter past frozen clock, got %s then %s", first, second)
	}
}
