package http

import (
	"errors"
	"testing"
)

func TestParseAction(t *testing.T) {
	tests := []struct {
		token string
		want  Action
		err   error
	}{
		{":report", ActionReport, nil},
		{":alert", ActionAlert, nil},
		{":foo", 0, ErrUnsupportedAction},
		{":", 0, ErrUnsupportedAction},
		{":Report", 0, ErrUnsupportedAction},
		{"", 0, ErrInvalidActionFormat},
		{"report", 0, ErrInvalidActionFormat},
	}
	for _, tt := range tests {
		got, err := ParseAction(tt.token)
		if !errors.Is(err, tt.err) || got != tt.want {
			t.Errorf("ParseAction(%q) = %v, %v; want %v, %v", tt.token, got, err, tt.want, tt.err)
		}
	}
}

func TestParseCoordinates(t *testing.T) {
	lat, long, err := ParseCoordinates([]byte(`{"latitude": -33.8688, "longitude": 151.2093}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lat != -33.8688 || long != 151.2093 {
		t.Errorf("got %v, %v", lat, long)
	}

	for _, body := range []string{`{"latitude": 90, "longitude": -180}`, `{"latitude": 0, "longitude": 0, "extra": true}`} {
		if _, _, err := ParseCoordinates([]byte(body)); err != nil {
			t.Errorf("%s: unexpected error %v", body, err)
		}
	}

	_, _, err = ParseCoordinates([]byte(`{"latitude": 90.5, "longitude": 0}`))
	var fe *FieldError
	if !errors.As(err, &fe) || fe.Field != "latitude" {
		t.Errorf("expected latitude range error, got %v", err)
	}
}

func TestParseID(t *testing.T) {
	for _, raw := range []string{"", "0", "-4", "1.5", "abc", "99999999999999999999"} {
		if _, err := ParseID(raw, "id"); err == nil {
			t.Errorf("ParseID(%q) should fail", raw)
		}
	}
	if id, err := ParseID("42", "id"); err != nil || id != 42 {
		t.Errorf("ParseID(42) = %d, %v", id, err)
	}
}

func TestParseFloatParam(t *testing.T) {
	for _, raw := range []string{"", "abc", "NaN", "Inf", "-Inf", "1e400"} {
		if _, err := ParseFloatParam(raw, "minLat"); err == nil {
			t.Errorf("ParseFloatParam(%q) should fail", raw)
		}
	}
	if v, err := ParseFloatParam("-0.25", "minLat"); err != nil || v != -0.25 {
		t.Errorf("ParseFloatParam(-0.25) = %v, %v", v, err)
	}
}

func TestVerifyBase64(t *testing.T) {
	valid := []string{"AAAA", "AA==", "AAA=", "aGVsbG8gd29ybGQ=", "+/+/"}
	for _, s := range valid {
		if _, err := VerifyBase64(s); err != nil {
			t.Errorf("VerifyBase64(%q) unexpected error %v", s, err)
		}
	}

	invalid := []any{"", "A", "AAA", "AA=", "A===", "AAAA=", "not-base64!", "AA AA", "AA==AAAA", 42, nil, []any{"AAAA"}}
	for _, v := range invalid {
		if _, err := VerifyBase64(v); !errors.Is(err, ErrInvalidBase64) {
			t.Errorf("VerifyBase64(%v) = %v, want ErrInvalidBase64", v, err)
		}
	}

	data, _ := VerifyBase64("aGk=")
	if string(data) != "hi" {
		t.Errorf("decoded %q", data)
	}
}

func TestParseImageBody(t *testing.T) {
	var fe *FieldError
	if _, err := ParseImageBody([]byte(`{"image": "AAAA"}`)); !errors.As(err, &fe) || fe.Field != "encoding" {
		t.Errorf("expected encoding field error, got %v", err)
	}
	if _, err := ParseImageBody([]byte(`"AAAA"`)); !errors.As(err, &fe) {
		t.Errorf("expected field error for non-object body, got %v", err)
	}
	if _, err := ParseImageBody([]byte(`{"encoding": "AA=A"}`)); !errors.Is(err, ErrInvalidBase64) {
		t.Errorf("expected ErrInvalidBase64, got %v", err)
	}
}
