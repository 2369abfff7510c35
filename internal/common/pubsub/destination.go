// Package pubsub provides the shared connections progress monitors listen on.
package pubsub

import (
	"strings"

	"github.com/tinarmengineering/ltc/pkg/progress"
)

// Subject maps a topic destination such as /topic/job-1.*.progress to the broker subject
// job-1.*.progress. Destination tokens are separated by '.', '*' matches one token and '>' the rest.
func Subject(destination string) (string, error) {
	subject := strings.TrimPrefix(destination, progress.TopicPrefix)
	if subject == destination || subject == "" {
		return "", &ErrInvalidDestination{Destination: destination, Message: "expected " + progress.TopicPrefix + "<subject>"}
	}
	for _, token := range strings.Split(subject, ".") {
		if token == "" {
			return "", &ErrInvalidDestination{Destination: destination, Message: "empty token"}
		}
		if strings.ContainsAny(token, " \t\r\n") {
			return "", &ErrInvalidDestination{Destination: destination, Message: "whitespace in token"}
		}
	}
	return subject, nil
}

// Destination is the inverse of Subject.
func Destination(subject string) string {
	return progress.TopicPrefix + subject
}

// Matches reports whether a concrete subject is covered by a subscription pattern.
func Matches(pattern, subject string) bool {
	patternTokens := strings.Split(pattern, ".")
	subjectTokens := strings.Split(subject, ".")
	for i, token := range patternTokens {
		if token == ">" {
			return len(subjectTokens) > i
		}
		if i >= len(subjectTokens) {
			return false
		}
		if token != "*" && token != subjectTokens[i] {
			return false
		}
	}
	return len(patternTokens) == len(subjectTokens)
}
