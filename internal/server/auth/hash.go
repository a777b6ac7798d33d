package auth

import (
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"strconv"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/crypto/scrypt"
)

// ScryptPrefix marks a legacy scrypt hash: scrypt:N:r:p$<base64 salt>$<hex digest>.
const ScryptPrefix = "scrypt:"

var bcryptPrefixes = []string{"$2a$", "$2b$", "$2y$"}

// Upper bound on the memory a stored scrypt hash may ask for (128*N*r bytes).
const maxScryptMemory = 256 << 20

// Upper bound on N*r*p, the work of one derivation (32x the common 16384:8:1).
const maxScryptWork = 1 << 22

// Hash is a parsed stored credential. It is one of BcryptHash, ScryptHash or
// UnknownHash.
type Hash interface {
	isHash()
}

// BcryptHash is a modular-crypt bcrypt string, kept verbatim.
type BcryptHash struct {
	Encoded string
}

// ScryptHash is a decoded legacy scrypt credential. The derived key length
// equals len(Digest).
type ScryptHash struct {
	N, R, P int
	Salt    []byte
	Digest  []byte
}

// UnknownHash is anything that did not parse. It never verifies.
type UnknownHash struct {
	Reason string
}

func (BcryptHash) isHash()  {}
func (ScryptHash) isHash()  {}
func (UnknownHash) isHash() {}

// ParseHash classifies a stored password hash by its prefix. A scrypt hash
// with malformed parameters comes back as UnknownHash.
func ParseHash(stored string) Hash {
	if strings.HasPrefix(stored, ScryptPrefix) {
		return parseScrypt(stored)
	}
	for _, p := range bcryptPrefixes {
		if strings.HasPrefix(stored, p) {
			return BcryptHash{Encoded: stored}
		}
	}
	return UnknownHash{Reason: "unrecognized hash format"}
}

func parseScrypt(stored string) Hash {
	segments := strings.Split(stored, "$")
	if len(segments) != 3 {
		return UnknownHash{Reason: "scrypt: expected params$salt$digest"}
	}

	params := strings.Split(segments[0], ":")
	if len(params) != 4 || params[0] != "scrypt" {
		return UnknownHash{Reason: "scrypt: expected scrypt:N:r:p"}
	}

	var nrp [3]int
	for i, s := range params[1:] {
		v, err := strconv.Atoi(s)
		if err != nil || v <= 0 {
			return UnknownHash{Reason: "scrypt: bad cost parameter"}
		}
		nrp[i] = v
	}
	n, r, p := nrp[0], nrp[1], nrp[2]
	if int64(n)*int64(r) > maxScryptMemory/128 || int64(n)*int64(r)*int64(p) > maxScryptWork {
		return UnknownHash{Reason: "scrypt: cost parameters too large"}
	}

	salt, err := decodeBase64(segments[1])
	if err != nil {
		return UnknownHash{Reason: "scrypt: bad salt encoding"}
	}

	digest, err := hex.DecodeString(segments[2])
	if err != nil || len(digest) == 0 {
		return UnknownHash{Reason: "scrypt: bad digest encoding"}
	}

	return ScryptHash{N: n, R: r, P: p, Salt: salt, Digest: digest}
}

// decodeBase64 accepts padded and unpadded standard base64.
func decodeBase64(s string) ([]byte, error) {
	if b, err := base64.StdEncoding.DecodeString(s); err == nil {
		return b, nil
	}
	return base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "="))
}

// Verify checks password against a stored bcrypt or legacy scrypt hash.
// Every failure, including unparsable input, is reported as false.
func Verify(password, stored string) bool {
	switch h := ParseHash(stored).(type) {
	case BcryptHash:
		return h.verify(password)
	case ScryptHash:
		return h.verify(password)
	case UnknownHash:
		return false
	default:
		return false
	}
}

// VerifyBcrypt is Verify restricted to bcrypt hashes.
func VerifyBcrypt(password, stored string) bool {
	h, ok := ParseHash(stored).(BcryptHash)
	return ok && h.verify(password)
}

func (h BcryptHash) verify(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(h.Encoded), []byte(password)) == nil
}

func (h ScryptHash) verify(password string) bool {
	derived, err := scrypt.Key([]byte(password), h.Salt, h.N, h.R, h.P, len(h.Digest))
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare(derived, h.Digest) == 1
}
