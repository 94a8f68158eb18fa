// Package topic holds the keyword table used to classify chat text into
// infrastructure topics, plus the naive intent classifier built on it.
package topic

import "strings"

const (
	Container       = "container"
	Image           = "image"
	Volume          = "volume"
	Network         = "network"
	Security        = "security"
	Troubleshooting = "troubleshooting"
	Backup          = "backup"
	Configuration   = "configuration"
)

// Intent values returned by ClassifyIntent.
const (
	IntentQuestion = "question"
	IntentCommand  = "command"
	IntentHelp     = "help"
	IntentUnknown  = "unknown"
)

type entry struct {
	name     string
	keywords []string
}

// table is ordered; Extract reports topics in this order.
var table = []entry{
	{Container, []string{"container", "docker", "pod", "kubernetes", "k8s", "compose"}},
	{Image, []string{"image", "dockerfile", "registry", "layer", "tag", "build"}},
	{Volume, []string{"volume", "storage", "mount", "persistent", "disk"}},
	{Network, []string{"network", "port", "dns", "proxy", "ingress", "firewall"}},
	{Security, []string{"security", "vulnerability", "cve", "exploit", "patch", "secret"}},
	{Troubleshooting, []string{"error", "issue", "problem", "debug", "crash", "fail", "unhealthy"}},
	{Backup, []string{"backup", "restore", "snapshot", "recovery"}},
	{Configuration, []string{"config", "setting", "environment", "variable", "yaml", "env"}},
}

var commandVerbs = []string{"start", "stop", "restart", "deploy", "create", "delete", "remove", "run", "scale", "pull", "update"}

var problemKeywords = []string{"error", "problem", "issue", "not working", "broken", "fail", "stuck", "help"}

// Extract returns every topic with at least one keyword contained in text.
// Matching is case-insensitive substring search.
func Extract(text string) []string {
	lower := strings.ToLower(text)
	topics := make([]string, 0, 2)
	for _, e := range table {
		if containsAny(lower, e.keywords) {
			topics = append(topics, e.name)
		}
	}
	return topics
}

// ClassifyIntent returns question, command, help or unknown, checked in that order.
func ClassifyIntent(text string) string {
	if strings.Contains(text, "?") {
		return IntentQuestion
	}
	lower := strings.ToLower(text)
	if containsAny(lower, commandVerbs) {
		return IntentCommand
	}
	if containsAny(lower, problemKeywords) {
		return IntentHelp
	}
	return IntentUnknown
}

// Names lists every known topic in table order.
func Names() []string {
	names := make([]string, len(table))
	for i, e := range table {
		names[i] = e.name
	}
	return names
}

// Known reports whether name is a topic from the table.
func Known(name string) bool {
	for _, e := range table {
		if e.name == name {
			return true
		}
	}
	return false
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
