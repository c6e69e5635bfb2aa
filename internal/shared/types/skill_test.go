package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSkillMatchAction(t *testing.T) {
	tests := []struct {
		name    string
		actions []string
		action  string
		want    bool
	}{
		{"empty skill actions", nil, "action.view", false},
		{"empty want action", []string{"action.view"}, "", true},
		{"exact", []string{"action.view", "action.edit"}, "action.edit", true},
		{"miss", []string{"action.view"}, "action.edit", false},
		{"home alias", []string{WantActionHome}, ActionHome, true},
		{"home alias reversed", []string{ActionHome}, WantActionHome, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Skill{Actions: tt.actions}
			assert.Equal(t, tt.want, s.MatchAction(tt.action))
		})
	}
}

func TestSkillMatchEntities(t *testing.T) {
	s := Skill{Entities: []string{EntityHome, "entity.system.browsable"}}

	assert.True(t, s.MatchEntities(nil))
	assert.True(t, s.MatchEntities([]string{EntityHome}))
	assert.True(t, s.MatchEntities([]string{"entity.system.browsable", EntityHome}))
	assert.False(t, s.MatchEntities([]string{EntityHome, "entity.other"}))
	assert.False(t, Skill{}.MatchEntities([]string{EntityHome}))
}

func TestSkillMatchURIAndType(t *testing.T) {
	web := Skill{URIs: []SkillURI{{Scheme: "https", Host: "example.com", PathStartWith: "docs"}}}
	typed := Skill{URIs: []SkillURI{{Type: "image/*"}}}
	both := Skill{URIs: []SkillURI{{Scheme: "file", Type: "text/plain"}}}

	tests := []struct {
		name     string
		skill    Skill
		uri      string
		mimeType string
		want     bool
	}{
		{"no uri no type no filters", Skill{}, "", "", true},
		{"no uri no type typed filter", typed, "", "", false},
		{"uri against empty filters", Skill{}, "https://example.com", "", false},
		{"path prefix", web, "https://example.com/docs/readme", "", true},
		{"path prefix with query", web, "https://example.com/docs/a?x=1", "", true},
		{"wrong host", web, "https://other.com/docs/readme", "", false},
		{"type wildcard", typed, "", "image/png", true},
		{"type mismatch", typed, "", "text/plain", false},
		{"any type", typed, "", "*/*", true},
		{"uri and type", both, "file://tmp/a.txt", "text/plain", true},
		{"uri and wrong type", both, "file://tmp/a.txt", "text/html", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.skill.MatchURIAndType(tt.uri, tt.mimeType))
		})
	}
}

func TestMatchURIForms(t *testing.T) {
	assert.True(t, matchURI("https", SkillURI{Scheme: "https"}))
	assert.True(t, matchURI("https://anything", SkillURI{Scheme: "https"}))
	assert.False(t, matchURI("http://anything", SkillURI{Scheme: "https"}))

	withPort := SkillURI{Scheme: "http", Host: "localhost", Port: "8080"}
	assert.True(t, matchURI("http://localhost:8080", withPort))
	assert.True(t, matchURI("http://localhost:8080/x", withPort))
	assert.False(t, matchURI("http://localhost:9090/x", withPort))

	exact := SkillURI{Scheme: "http", Host: "h", Path: "a/b"}
	assert.True(t, matchURI("http://h/a/b", exact))
	assert.False(t, matchURI("http://h/a/bc", exact))

	re := SkillURI{Scheme: "http", Host: "h", PathRegex: "item/[0-9]+"}
	assert.True(t, matchURI("http://h/item/42", re))
	assert.False(t, matchURI("http://h/item/x", re))
	assert.False(t, matchURI("http://other/item/42", re))
}

func TestPathRegexCompiledOnce(t *testing.T) {
	first := compilePathRegex("doc/[a-z]+")
	require.NotNil(t, first)
	assert.Same(t, first, compilePathRegex("doc/[a-z]+"))
	assert.True(t, first.MatchString("doc/readme"))
	assert.False(t, first.MatchString("doc/readme/x1"))

	assert.Nil(t, compilePathRegex("doc/[a-z"))
	bad := SkillURI{Scheme: "http", Host: "h", PathRegex: "doc/[a-z"}
	assert.False(t, matchURI("http://h/doc/a", bad))
}

func TestSkillMatch(t *testing.T) {
	s := Skill{
		Actions:  []string{"action.view"},
		Entities: []string{"entity.system.default"},
	}

	assert.True(t, s.Match(Want{Action: "action.view"}))
	assert.True(t, s.Match(Want{Action: "action.view", Entities: []string{"entity.system.default"}}))
	assert.False(t, s.Match(Want{Action: "action.view", URI: "https://x"}))
	assert.False(t, s.Match(Want{Action: "action.send"}))
}

func TestSkillMatchLauncherIgnoresURI(t *testing.T) {
	s := Skill{
		Actions:  []string{ActionHome},
		Entities: []string{EntityHome},
		URIs:     []SkillURI{{Scheme: "https", Host: "example.com"}},
	}
	want := Want{Action: ActionHome, Entities: []string{EntityHome}}

	assert.False(t, s.Match(want))
	assert.True(t, s.MatchLauncher(want))
}
