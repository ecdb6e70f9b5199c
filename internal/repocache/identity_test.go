package repocache

import (
	"strings"
	"testing"
)

func TestParseURL(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want Identity
	}{
		{
			name: "plain https",
			url:  "https://github.com/acme/widget",
			want: Identity{Host: "github.com", Owner: "acme", Name: "widget"},
		},
		{
			name: "dot git suffix",
			url:  "https://github.com/acme/widget.git",
			want: Identity{Host: "github.com", Owner: "acme", Name: "widget"},
		},
		{
			name: "trailing slash",
			url:  "https://github.com/acme/widget/",
			want: Identity{Host: "github.com", Owner: "acme", Name: "widget"},
		},
		{
			name: "blob deep link",
			url:  "https://github.com/acme/widget/blob/main/src/app.py",
			want: Identity{Host: "github.com", Owner: "acme", Name: "widget", Ref: "main"},
		},
		{
			name: "tree link with ref",
			url:  "https://github.com/acme/widget/tree/v1.2.0",
			want: Identity{Host: "github.com", Owner: "acme", Name: "widget", Ref: "v1.2.0"},
		},
		{
			name: "tree link with subdir",
			url:  "https://github.com/acme/widget/tree/develop/src/pkg",
			want: Identity{Host: "github.com", Owner: "acme", Name: "widget", Ref: "develop"},
		},
		{
			name: "ssh form",
			url:  "git@github.com:acme/widget.git",
			want: Identity{Host: "github.com", Owner: "acme", Name: "widget"},
		},
		{
			name: "self-hosted",
			url:  "https://git.example.org/team/tool",
			want: Identity{Host: "git.example.org", Owner: "team", Name: "tool"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseURL(tt.url)
			if err != nil {
				t.Fatalf("ParseURL(%q) failed: %v", tt.url, err)
			}
			if got != tt.want {
				t.Errorf("ParseURL(%q) = %+v, want %+v", tt.url, got, tt.want)
			}
		})
	}
}

func TestParseURL_Invalid(t *testing.T) {
	for _, url := range []string{"", "not a url", "https://github.com/onlyowner"} {
		if _, err := ParseURL(url); err == nil {
			t.Errorf("ParseURL(%q) should fail", url)
		}
	}
}

func TestIsRepositoryURL(t *testing.T) {
	if !IsRepositoryURL("https://github.com/a/b") {
		t.Error("https URL should be a repository URL")
	}
	if !IsRepositoryURL("git@github.com:a/b.git") {
		t.Error("ssh URL should be a repository URL")
	}
	if IsRepositoryURL("/home/user/project") {
		t.Error("local path is not a repository URL")
	}
	if IsRepositoryURL("./relative") {
		t.Error("relative path is not a repository URL")
	}
}

func TestIdentity_KeyStableAndRefSensitive(t *testing.T) {
	a := Identity{Host: "github.com", Owner: "acme", Name: "widget", Ref: "main"}
	b := Identity{Host: "github.com", Owner: "acme", Name: "widget", Ref: "main"}
	c := Identity{Host: "github.com", Owner: "acme", Name: "widget", Ref: "dev"}

	if a.Key() != b.Key() {
		t.Error("equal identities must share a key")
	}
	if a.Key() == c.Key() {
		t.Error("different refs must not share a key")
	}
	if !strings.HasPrefix(a.Key(), "widget-") {
		t.Errorf("Key = %q, want name prefix", a.Key())
	}
}

func TestIdentity_CloneURLCredential(t *testing.T) {
	id := Identity{Host: "github.com", Owner: "acme", Name: "widget"}

	plain := id.CloneURL("")
	if plain != "https://github.com/acme/widget.git" {
		t.Errorf("CloneURL = %q", plain)
	}

	withToken := id.CloneURL("tok123")
	if !strings.Contains(withToken, "x-access-token:tok123@github.com") {
		t.Errorf("CloneURL with credential = %q", withToken)
	}
	// The credential must never leak through String()
	if strings.Contains(id.String(), "tok123") {
		t.Error("String() must not carry credentials")
	}
}
