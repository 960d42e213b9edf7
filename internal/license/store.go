package license

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Record is the persisted license: who it is issued to and the last valid day
type Record struct {
	Email  string    `json:"email"`
	Expiry time.Time `json:"expiry"`
}

// ValidOn reports whether the license covers the calendar day of today
func (r Record) ValidOn(today time.Time) bool {
	return daysBetween(today, r.Expiry) >= 0
}

// LoadStatus tells apart the outcomes that LoadLicense folds into "no license"
type LoadStatus int

const (
	StatusPresent LoadStatus = iota
	StatusAbsent
	StatusMalformed
	StatusExpired
)

func (s LoadStatus) String() string {
	switch s {
	case StatusPresent:
		return "present"
	case StatusAbsent:
		return "absent"
	case StatusMalformed:
		return "malformed"
	case StatusExpired:
		return "expired"
	default:
		return fmt.Sprintf("LoadStatus(%d)", int(s))
	}
}

// fileRecord mirrors the on-disk JSON before base64 wrapping
type fileRecord struct {
	Email  string `json:"email"`
	Expiry string `json:"expiry"`
}

func encodeLicense(r Record) ([]byte, error) {
	payload, err := json.Marshal(fileRecord{Email: r.Email, Expiry: r.Expiry.Format(DateLayout)})
	if err != nil {
		return nil, fmt.Errorf("marshal license: %w", err)
	}
	out := make([]byte, base64.StdEncoding.EncodedLen(len(payload)))
	base64.StdEncoding.Encode(out, payload)
	return out, nil
}

// decodeLicense reverses encodeLicense and classifies the result against today
func decodeLicense(data []byte, today time.Time) (Record, LoadStatus) {
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(string(data)))
	if err != nil {
		return Record{}, StatusMalformed
	}

	var fr fileRecord
	if err := json.Unmarshal(raw, &fr); err != nil {
		return Record{}, StatusMalformed
	}

	expiry, err := time.ParseInLocation(DateLayout, fr.Expiry, today.Location())
	if err != nil {
		return Record{}, StatusMalformed
	}

	rec := Record{Email: fr.Email, Expiry: expiry}
	if !rec.ValidOn(today) {
		return rec, StatusExpired
	}
	return rec, StatusPresent
}
