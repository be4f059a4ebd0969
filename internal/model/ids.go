package model

import (
	"crypto/rand"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
)

const trackingAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// TrackingCodeLength is the number of characters in a tracking code.
const TrackingCodeLength = 6

// NewOrderID returns a time-ordered order identifier.
func NewOrderID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("failed to generate order id: %w", err)
	}
	return id.String(), nil
}

// NewOrderToken returns an opaque token a customer can use to look up an order.
func NewOrderToken() string {
	return "ORD_" + compactUUID()
}

// NewCustomerToken returns an opaque token shared by every order of a phone number.
func NewCustomerToken() string {
	return "CUST_" + compactUUID()
}

// NewTrackingCode returns TrackingCodeLength random upper-case alphanumerics.
func NewTrackingCode() (string, error) {
	return newTrackingCode(rand.Reader)
}

// newTrackingCode draws bytes from src, discarding those at or above the
// largest multiple of the alphabet size so every character is equally likely.
func newTrackingCode(src io.Reader) (string, error) {
	limit := 256 - 256%len(trackingAlphabet)
	code := make([]byte, 0, TrackingCodeLength)
	buf := make([]byte, TrackingCodeLength)

	for len(code) < TrackingCodeLength {
		if _, err := io.ReadFull(src, buf); err != nil {
			return "", fmt.Errorf("failed to generate tracking code: %w", err)
		}
		for _, b := range buf {
			if int(b) >= limit {
				continue
			}
			code = append(code, trackingAlphabet[int(b)%len(trackingAlphabet)])
			if len(code) == TrackingCodeLength {
				break
			}
		}
	}
	return string(code), nil
}

func compactUUID() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
}
