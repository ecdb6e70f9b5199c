package source

import (
	"os"

	"github.com/BurntSushi/toml"

	"scout/internal/errors"
)

// HostRule configures credential sourcing for one git host.
type HostRule struct {
	// TokenEnv names the environment variable holding the host's token.
	TokenEnv string `toml:"tokenEnv"`
}

// Hosts maps git hosts to their rules.
type Hosts map[string]HostRule

// hostsFile is the on-disk shape:
//
//	[hosts."github.com"]
//	tokenEnv = "GITHUB_TOKEN"
type hostsFile struct {
	Hosts Hosts `toml:"hosts"`
}

// defaultHosts covers github.com with the conventional token variable.
func defaultHosts() Hosts {
	return Hosts{
		"github.com": {TokenEnv: "GITHUB_TOKEN"},
	}
}

// LoadHosts reads a hosts file, merged over the defaults. An empty path
// yields the defaults alone.
func LoadHosts(path string) (Hosts, error) {
	hosts := defaultHosts()
	if path == "" {
		return hosts, nil
	}

	var parsed hostsFile
	if _, err := toml.DecodeFile(path, &parsed); err != nil {
		return nil, errors.Wrap(errors.InternalError, "failed to load hosts file: "+path, err)
	}
	for host, rule := range parsed.Hosts {
		hosts[host] = rule
	}
	return hosts, nil
}

// Credential resolves the ambient credential for a host, or "" when none
// is configured or set.
func (h Hosts) Credential(host string) string {
	rule, ok := h[host]
	if !ok || rule.TokenEnv == "" {
		return ""
	}
	return os.Getenv(rule.TokenEnv)
}
