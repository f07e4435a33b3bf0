package cache

import (
	"net/http"
	"testing"
	"time"
)

func TestParseExpiry(t *testing.T) {
	now := time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC)

	tests := []struct {
		name    string
		headers http.Header
		want    time.Time
	}{
		{
			name:    "no headers uses default TTL",
			headers: http.Header{},
			want:    now.Add(DefaultTTL),
		},
		{
			name:    "max-age",
			headers: http.Header{"Cache-Control": []string{"public, max-age=120"}},
			want:    now.Add(120 * time.Second),
		},
		{
			name:    "no-store",
			headers: http.Header{"Cache-Control": []string{"no-store"}},
			want:    now,
		},
		{
			name: "max-age wins over Expires",
			headers: http.Header{
				"Cache-Control": []string{"max-age=60"},
				"Expires":       []string{now.Add(time.Hour).Format(http.TimeFormat)},
			},
			want: now.Add(60 * time.Second),
		},
		{
			name:    "Expires header",
			headers: http.Header{"Expires": []string{now.Add(time.Hour).Format(http.TimeFormat)}},
			want:    now.Add(time.Hour),
		},
		{
			name:    "Expires in the past",
			headers: http.Header{"Expires": []string{now.Add(-time.Hour).Format(http.TimeFormat)}},
			want:    now,
		},
		{
			name:    "invalid Expires uses default TTL",
			headers: http.Header{"Expires": []string{"tomorrow"}},
			want:    now.Add(DefaultTTL),
		},
		{
			name:    "invalid max-age falls back to Expires",
			headers: http.Header{"Cache-Control": []string{"max-age=soon"}, "Expires": []string{now.Add(time.Minute).Format(http.TimeFormat)}},
			want:    now.Add(time.Minute),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseExpiry(tt.headers, now)
			if !got.Equal(tt.want) {
				t.Errorf("parseExpiry() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestResponseToEntry(t *testing.T) {
	resp := &http.Response{
		StatusCode: http.StatusOK,
		Header: http.Header{
			"Etag":          []string{`"abc123"`},
			"Cache-Control": []string{"max-age=300"},
		},
	}

	entry := ResponseToEntry(resp, []byte(`{"page":1}`))

	if string(entry.Data) != `{"page":1}` {
		t.Errorf("Data = %s", entry.Data)
	}
	if entry.ETag != `"abc123"` {
		t.Errorf("ETag = %v, want %v", entry.ETag, `"abc123"`)
	}
	if entry.StatusCode != http.StatusOK {
		t.Errorf("StatusCode = %d, want 200", entry.StatusCode)
	}
	if ttl := entry.TTL(); ttl < 299*time.Second || ttl > 300*time.Second {
		t.Errorf("TTL() = %v, want ~300s", ttl)
	}
}
