package types

import (
	"regexp"
	"strings"
	"sync"
)

const (
	schemeSeparator = "://"
	portSeparator   = ":"
	pathSeparator   = "/"
	paramSeparator  = "?"
	wildcardType    = "*/*"
	typeWildcard    = "/*"
)

// SkillURI is one URI filter of a skill
type SkillURI struct {
	Scheme        string `json:"scheme,omitempty"`
	Host          string `json:"host,omitempty"`
	Port          string `json:"port,omitempty"`
	Path          string `json:"path,omitempty"`
	PathStartWith string `json:"path_start_with,omitempty"`
	PathRegex     string `json:"path_regex,omitempty"`
	Type          string `json:"type,omitempty"`
}

// Skill is an intent filter declared on an ability or extension
type Skill struct {
	Actions  []string   `json:"actions,omitempty"`
	Entities []string   `json:"entities,omitempty"`
	URIs     []SkillURI `json:"uris,omitempty"`
}

// Match reports whether the want satisfies action, entities, and uri/type
func (s Skill) Match(want Want) bool {
	if !s.MatchAction(want.Action) {
		return false
	}
	if !s.MatchEntities(want.Entities) {
		return false
	}
	return s.MatchURIAndType(want.URI, want.Type)
}

// MatchLauncher is the launcher variant: action and entities only
func (s Skill) MatchLauncher(want Want) bool {
	if !s.MatchAction(want.Action) {
		return false
	}
	return s.MatchEntities(want.Entities)
}

// MatchAction matches when the skill declares the action. An empty action
// matches any skill that declares at least one action.
func (s Skill) MatchAction(action string) bool {
	if len(s.Actions) == 0 {
		return false
	}
	if action == "" {
		return true
	}
	for _, configured := range s.Actions {
		if configured == action {
			return true
		}
		// both spellings of the home action are accepted
		if (action == ActionHome && configured == WantActionHome) ||
			(action == WantActionHome && configured == ActionHome) {
			return true
		}
	}
	return false
}

// MatchEntities matches when every requested entity is declared
func (s Skill) MatchEntities(entities []string) bool {
	if len(entities) == 0 {
		return true
	}
	if len(s.Entities) == 0 {
		return false
	}
	for _, entity := range entities {
		if !contains(s.Entities, entity) {
			return false
		}
	}
	return true
}

// MatchURIAndType matches the uri and MIME type of a want
func (s Skill) MatchURIAndType(uri, mimeType string) bool {
	if uri == "" && mimeType == "" {
		if len(s.URIs) == 0 {
			return true
		}
		for _, su := range s.URIs {
			if su.Scheme == "" && su.Type == "" {
				return true
			}
		}
		return false
	}
	if len(s.URIs) == 0 {
		return false
	}
	for _, su := range s.URIs {
		switch {
		case uri != "" && mimeType == "":
			if matchURI(uri, su) && su.Type == "" {
				return true
			}
		case uri == "" && mimeType != "":
			if su.Scheme == "" && matchType(mimeType, su.Type) {
				return true
			}
		default:
			if matchURI(uri, su) && matchType(mimeType, su.Type) {
				return true
			}
		}
	}
	return false
}

func matchURI(uri string, su SkillURI) bool {
	if su.Scheme == "" {
		return uri == ""
	}
	if su.Host == "" {
		// scheme, scheme:, scheme:/ and scheme:// all match a scheme-only filter
		return uri == su.Scheme || strings.HasPrefix(uri, su.Scheme+portSeparator)
	}

	uri = stripParams(uri)
	base := su.Scheme + schemeSeparator + su.Host
	if su.Port != "" {
		base += portSeparator + su.Port
	}

	if su.Path == "" && su.PathStartWith == "" && su.PathRegex == "" {
		ok := uri == base || strings.HasPrefix(uri, base+pathSeparator)
		if su.Port == "" {
			ok = ok || strings.HasPrefix(uri, base+portSeparator)
		}
		return ok
	}

	base += pathSeparator
	if su.Path != "" && uri == base+su.Path {
		return true
	}
	if su.PathStartWith != "" && strings.HasPrefix(uri, base+su.PathStartWith) {
		return true
	}
	if su.PathRegex != "" && strings.HasPrefix(uri, base) {
		if re := compilePathRegex(su.PathRegex); re != nil && re.MatchString(uri[len(base):]) {
			return true
		}
	}
	return false
}

// pathRegexes caches compiled skill path patterns. Invalid patterns are
// cached as nil and never match.
var pathRegexes sync.Map // map[string]*regexp.Regexp

func compilePathRegex(pattern string) *regexp.Regexp {
	if cached, ok := pathRegexes.Load(pattern); ok {
		return cached.(*regexp.Regexp)
	}
	re, _ := regexp.Compile("^(?:" + pattern + ")$")
	actual, _ := pathRegexes.LoadOrStore(pattern, re)
	return actual.(*regexp.Regexp)
}

func matchType(mimeType, declared string) bool {
	if mimeType == "" && declared == "" {
		return true
	}
	if mimeType == "" || declared == "" {
		return false
	}
	if mimeType == wildcardType || declared == wildcardType {
		return true
	}
	if mimeType == declared {
		return true
	}
	// type/* on either side matches the same top-level type
	if strings.HasSuffix(declared, typeWildcard) {
		return topLevelType(mimeType) == topLevelType(declared)
	}
	if strings.HasSuffix(mimeType, typeWildcard) {
		return topLevelType(mimeType) == topLevelType(declared)
	}
	return false
}

func topLevelType(mimeType string) string {
	if idx := strings.Index(mimeType, pathSeparator); idx >= 0 {
		return mimeType[:idx]
	}
	return mimeType
}

func stripParams(uri string) string {
	if idx := strings.Index(uri, paramSeparator); idx >= 0 {
		return uri[:idx]
	}
	return uri
}

func contains(list []string, value string) bool {
	for _, v := range list {
		if v == value {
			return true
		}
	}
	return false
}
