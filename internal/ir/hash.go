package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content hashes.
// Version suffix enables future algorithm migration.
const (
	DomainFunction = "zkssa/function/v1"
	DomainProgram  = "zkssa/program/v1"
)

// HashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte separator prevents domain/data boundary ambiguity.
func HashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// FunctionHash computes the content hash of a function over its
// canonical JSON form. Structurally identical functions hash the same.
func FunctionHash(f *Function) (string, error) {
	canonical, err := MarshalCanonical(f)
	if err != nil {
		return "", fmt.Errorf("FunctionHash: failed to marshal: %w", err)
	}
	return HashWithDomain(DomainFunction, canonical), nil
}

// MustFunctionHash is like FunctionHash but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustFunctionHash(f *Function) string {
	h, err := FunctionHash(f)
	if err != nil {
		panic(err)
	}
	return h
}
