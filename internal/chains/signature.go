package chains

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/specialistvlad/defigrid/internal/handlers"
)

// DefaultSigningTimeout bounds the wait for an external signature when the
// node does not set signing_timeout_seconds.
const DefaultSigningTimeout = 5 * time.Minute

// MaxTimeout caps timeouts given in node inputs.
const MaxTimeout = 24 * time.Hour

// Seconds converts a positive number of seconds into a duration no longer
// than MaxTimeout.
func Seconds(s float64) time.Duration {
	if s >= MaxTimeout.Seconds() {
		return MaxTimeout
	}
	return time.Duration(s * float64(time.Second))
}

// SigningTimeout reads signing_timeout_seconds, falling back to def.
func SigningTimeout(in handlers.Inputs, def time.Duration) time.Duration {
	if s, ok := in.Float("signing_timeout_seconds"); ok && s > 0 {
		return Seconds(s)
	}
	if def <= 0 {
		return DefaultSigningTimeout
	}
	return def
}

// Signature is what a signer hands back for an unsigned transaction: the
// raw signed bytes to broadcast, or the hash of a transaction the wallet
// broadcast itself.
type Signature struct {
	Raw    string
	TxHash string
}

// ParseSignature accepts a bare hex string or an object carrying one of
// signed_tx, raw_transaction or tx_hash.
func ParseSignature(v any) (Signature, error) {
	switch t := v.(type) {
	case string:
		if t == "" {
			return Signature{}, fmt.Errorf("empty signature")
		}
		return Signature{Raw: t}, nil
	case map[string]any:
		in := handlers.Inputs(t)
		if raw, ok := in.String("signed_tx"); ok && raw != "" {
			return Signature{Raw: raw}, nil
		}
		if raw, ok := in.String("raw_transaction"); ok && raw != "" {
			return Signature{Raw: raw}, nil
		}
		if hash, ok := in.String("tx_hash"); ok && IsTxHash(hash) {
			return Signature{TxHash: hash}, nil
		}
	}
	return Signature{}, fmt.Errorf("unrecognized signature payload of type %T", v)
}

// TemplateHash derives a stable, well-formed transaction hash for template
// outputs from parts.
func TemplateHash(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return "0x" + hex.EncodeToString(h.Sum(nil))
}
