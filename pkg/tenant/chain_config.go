package tenant

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ChainConfig declares the ordered resolver names, the consensus mode
// and the header allow-list. It is immutable after process startup;
// load it once via pkg/config or LoadChainConfigFile and build the
// chain from it.
type ChainConfig struct {
	Resolvers       []string `env:"TENANT_RESOLVERS" envDefault:"subdomain" yaml:"resolvers"`
	Strict          bool     `env:"TENANT_STRICT" envDefault:"false" yaml:"strict"`
	HeaderAllowList []string `env:"TENANT_HEADER_ALLOWLIST" envDefault:"X-Tenant-ID" yaml:"header_allow_list"`
}

// LoadChainConfigFile reads a ChainConfig from a YAML file:
//
//	resolvers: [subdomain, header, query]
//	strict: true
//	header_allow_list: [X-Tenant-ID]
func LoadChainConfigFile(path string) (ChainConfig, error) {
	var cfg ChainConfig

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read chain config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse chain config: %w", err)
	}
	return cfg, nil
}

// BuildChain assembles a Chain from configuration, selecting the ordered
// subset of the available resolvers by name. Unknown resolver names are
// a configuration error.
func BuildChain(cfg ChainConfig, registry Registry, available []NamedResolver, opts ...ChainOption) (*Chain, error) {
	byName := make(map[string]NamedResolver, len(available))
	for _, nr := range available {
		byName[nr.Name] = nr
	}

	selected := make([]NamedResolver, 0, len(cfg.Resolvers))
	for _, name := range cfg.Resolvers {
		nr, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("unknown resolver %q in chain configuration", name)
		}
		selected = append(selected, nr)
	}

	base := []ChainOption{
		WithStrict(cfg.Strict),
		WithAllowedHeaders(cfg.HeaderAllowList...),
	}
	return NewChain(registry, selected, append(base, opts...)...), nil
}
