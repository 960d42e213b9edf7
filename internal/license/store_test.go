package license

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeLicenseFormat(t *testing.T) {
	data, err := encodeLicense(Record{Email: "ana@example.com", Expiry: date(2026, time.March, 10)})
	require.NoError(t, err)
	assert.Equal(t, "eyJlbWFpbCI6ImFuYUBleGFtcGxlLmNvbSIsImV4cGlyeSI6IjIwMjYtMDMtMTAifQ==", string(data))
}

func TestDecodeLicense(t *testing.T) {
	today := date(2025, time.March, 10)
	encode := func(s string) []byte { return []byte(base64.StdEncoding.EncodeToString([]byte(s))) }

	tests := []struct {
		name       string
		data       []byte
		wantStatus LoadStatus
		wantEmail  string
	}{
		{
			name:       "spaced json from other writers",
			data:       []byte("eyJlbWFpbCI6ICJhbmFAZXhhbXBsZS5jb20iLCAiZXhwaXJ5IjogIjIwMjYtMDMtMTAifQ==\n"),
			wantStatus: StatusPresent,
			wantEmail:  "ana@example.com",
		},
		{
			name:       "expires today is still valid",
			data:       encode(`{"email":"a@b.c","expiry":"2025-03-10"}`),
			wantStatus: StatusPresent,
			wantEmail:  "a@b.c",
		},
		{
			name:       "expired yesterday",
			data:       encode(`{"email":"a@b.c","expiry":"2025-03-09"}`),
			wantStatus: StatusExpired,
			wantEmail:  "a@b.c",
		},
		{name: "not base64", data: []byte("%%%not-base64%%%"), wantStatus: StatusMalformed},
		{name: "not json", data: encode("hello"), wantStatus: StatusMalformed},
		{name: "bad date", data: encode(`{"email":"a@b.c","expiry":"10.03.2026"}`), wantStatus: StatusMalformed},
		{name: "missing expiry", data: encode(`{"email":"a@b.c"}`), wantStatus: StatusMalformed},
		{name: "empty file", data: []byte(""), wantStatus: StatusMalformed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, status := decodeLicense(tt.data, today)
			assert.Equal(t, tt.wantStatus, status, status.String())
			assert.Equal(t, tt.wantEmail, rec.Email)
		})
	}
}

func TestLoadStatusString(t *testing.T) {
	assert.Equal(t, "present", StatusPresent.String())
	assert.Equal(t, "absent", StatusAbsent.String())
	assert.Equal(t, "malformed", StatusMalformed.String())
	assert.Equal(t, "expired", StatusExpired.String())
	assert.Equal(t, "LoadStatus(9)", LoadStatus(9).String())
}
