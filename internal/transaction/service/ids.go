package service

import (
	"crypto/rand"
	"encoding/base64"
	"math/big"

	"github.com/google/uuid"
)

const responseCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// ResponseCodeLength is the length of the code disclosed in the redirect.
const ResponseCodeLength = 6

// IDGenerator produces the unguessable identifiers of a transaction. Every
// call must be independent of every other.
type IDGenerator interface {
	TransactionID() string
	Token() string
	ResponseCode() string
}

// RandomIDs draws every identifier from crypto/rand.
type RandomIDs struct{}

func (RandomIDs) TransactionID() string {
	return uuid.NewString()
}

// Token returns 128 random bits, URL-safe, for request ids and endpoints.
func (RandomIDs) Token() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		panic("crypto/rand unavailable: " + err.Error())
	}
	return base64.RawURLEncoding.EncodeToString(b)
}

// ResponseCode returns six uniformly drawn uppercase alphanumerics.
func (RandomIDs) ResponseCode() string {
	max := big.NewInt(int64(len(responseCodeAlphabet)))
	code := make([]byte, ResponseCodeLength)
	for i := range code {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			panic("crypto/rand unavailable: " + err.Error())
		}
		code[i] = responseCodeAlphabet[n.Int64()]
	}
	return string(code)
}
