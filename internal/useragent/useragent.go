// Package useragent classifies a raw User-Agent string into a coarse device
// descriptor. Detection is best-effort substring matching; every field falls
// back to "Unknown" when no rule matches.
package useragent

import "strings"

// Unknown is the fallback label for every unrecognized field.
const Unknown = "Unknown"

// Client is the classified device descriptor derived from a User-Agent string.
type Client struct {
	Device  string // e.g. "iPhone", "Windows PC"
	Browser string // e.g. "Chrome", "Firefox"
	OS      string // e.g. "Windows 10/11", "macOS"
	Type    string // "mobile", "tablet", or "desktop"
}

// rule maps a User-Agent substring to a label. Rules are evaluated in order;
// the first match wins, so more specific patterns must come first.
type rule struct {
	contains string
	not      string // when set, the rule only matches if this substring is absent
	label    string
}

var deviceRules = []rule{
	{contains: "iPhone", label: "iPhone"},
	{contains: "iPad", label: "iPad"},
	{contains: "Android", label: "Android Device"},
	{contains: "Windows", label: "Windows PC"},
	{contains: "Mac", label: "Mac"},
	{contains: "Linux", label: "Linux PC"},
}

var browserRules = []rule{
	{contains: "Edge", label: "Edge"},
	{contains: "Chrome", not: "Edge", label: "Chrome"},
	{contains: "Firefox", label: "Firefox"},
	{contains: "Safari", not: "Chrome", label: "Safari"},
	{contains: "Opera", label: "Opera"},
}

var osRules = []rule{
	{contains: "Windows NT 10", label: "Windows 10/11"},
	{contains: "Windows", label: "Windows"},
	// iOS before Mac OS X: iPhone/iPad UAs contain "like Mac OS X".
	{contains: "iPhone", label: "iOS"},
	{contains: "iPad", label: "iOS"},
	{contains: "iOS", label: "iOS"},
	{contains: "Mac OS X", label: "macOS"},
	{contains: "Android", label: "Android"},
	{contains: "Linux", label: "Linux"},
}

// Classify derives a device descriptor from ua. An empty or unrecognized
// string yields Unknown fields and the "desktop" type.
func Classify(ua string) Client {
	return Client{
		Device:  matchWithFallback(ua, deviceRules, "Unknown Device"),
		Browser: matchWithFallback(ua, browserRules, Unknown),
		OS:      matchWithFallback(ua, osRules, Unknown),
		Type:    deviceType(ua),
	}
}

// Describe returns the human-readable descriptor used for trusted-device
// records, e.g. "iPhone (Safari on iOS)".
func (c Client) Describe() string {
	return c.Device + " (" + c.Browser + " on " + c.OS + ")"
}

func matchWithFallback(ua string, rules []rule, fallback string) string {
	for _, r := range rules {
		if !strings.Contains(ua, r.contains) {
			continue
		}
		if r.not != "" && strings.Contains(ua, r.not) {
			continue
		}
		return r.label
	}
	return fallback
}

func deviceType(ua string) string {
	switch {
	case strings.Contains(ua, "Mobile"), strings.Contains(ua, "Android"), strings.Contains(ua, "iPhone"):
		return "mobile"
	case strings.Contains(ua, "iPad"), strings.Contains(ua, "Tablet"):
		return "tablet"
	default:
		return "desktop"
	}
}
