// Package integration talks to the integration backend that loads records
// from third-party sources such as Notion or HubSpot.
package integration

import (
	"errors"
	"fmt"
	"strings"
)

// Type identifies an integration source.
type Type string

// Supported integration types.
const (
	Notion   Type = "Notion"
	Airtable Type = "Airtable"
	Hubspot  Type = "Hubspot"
	Slack    Type = "Slack"
)

// ErrUnknownIntegration is returned for types outside the supported set.
var ErrUnknownIntegration = errors.New("unknown integration type")

// endpoints maps each type to its backend route segment.
var endpoints = map[Type]string{
	Notion:   "notion",
	Airtable: "airtable",
	Hubspot:  "hubspot",
	Slack:    "slack",
}

// Types returns the supported types in display order.
func Types() []Type {
	return []Type{Notion, Airtable, Hubspot, Slack}
}

// Endpoint returns the route segment for t.
func Endpoint(t Type) (string, bool) {
	e, ok := endpoints[t]
	return e, ok
}

// ParseType resolves a type from its display name or its endpoint,
// ignoring case.
func ParseType(s string) (Type, error) {
	s = strings.TrimSpace(s)
	for t, e := range endpoints {
		if strings.EqualFold(s, string(t)) || strings.EqualFold(s, e) {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownIntegration, s)
}

// LoadPath returns the request path of the load route for t.
func LoadPath(t Type) (string, error) {
	e, ok := Endpoint(t)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownIntegration, string(t))
	}
	return "/integrations/" + e + "/load", nil
}
