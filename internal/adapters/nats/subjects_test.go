package natsadapter

import (
	"strings"
	"testing"

	"github.com/aipothole/pothole-api/internal/core/domain"
)

func TestSubjects(t *testing.T) {
	tests := []struct {
		got, want string
	}{
		{PotholeSubject(&domain.PotholeEvent{Kind: domain.EventPotholeCreated, PotholeID: 42}), "potholes.created.42"},
		{PotholeSubject(&domain.PotholeEvent{Kind: domain.EventPotholeDeleted, PotholeID: 7}), "potholes.deleted.7"},
		{ImageSubject(&domain.ImageEvent{Kind: domain.EventImageCreated, PotholeID: 3, ImageID: 9}), "potholes.images.image_created.3"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("subject = %q, want %q", tt.got, tt.want)
		}
	}
}

// Every published subject must be captured by the stream, and only deletions
// must reach the janitor consumer.
func TestSubjectsMatchStream(t *testing.T) {
	deleted := PotholeSubject(&domain.PotholeEvent{Kind: domain.EventPotholeDeleted, PotholeID: 1})
	merged := PotholeSubject(&domain.PotholeEvent{Kind: domain.EventPotholeMerged, PotholeID: 1})
	image := ImageSubject(&domain.ImageEvent{Kind: domain.EventImageUploadFailed, PotholeID: 1})

	for _, s := range []string{deleted, merged, image} {
		if !matches(SubjectAll, s) {
			t.Errorf("%s not captured by %s", s, SubjectAll)
		}
	}
	if !matches(SubjectDeleted, deleted) {
		t.Errorf("%s not matched by %s", deleted, SubjectDeleted)
	}
	if matches(SubjectDeleted, merged) {
		t.Errorf("%s must not match %s", merged, SubjectDeleted)
	}
}

// matches applies NATS wildcard rules: "*" matches one token, ">" the rest.
func matches(filter, subject string) bool {
	f := strings.Split(filter, ".")
	s := strings.Split(subject, ".")
	for i, tok := range f {
		if tok == ">" {
			return len(s) > i
		}
		if i >= len(s) || (tok != "*" && tok != s[i]) {
			return false
		}
	}
	return len(f) == len(s)
}
