package isolation

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type catalogFile struct {
	Entities []entityDecl `yaml:"entities"`
}

type entityDecl struct {
	Entity      string `yaml:"entity"`
	Table       string `yaml:"table"`
	TenantAware bool   `yaml:"tenant_aware"`
	Column      string `yaml:"column"`
	Type        string `yaml:"type"`
	Strategy    string `yaml:"strategy"`
}

// LoadCatalogFile builds a catalog from a YAML declaration file, so
// offline tools (the policy synchronizer CLI) can work from the same
// metadata the application registers in code:
//
//	entities:
//	  - entity: Product
//	    table: products
//	    tenant_aware: true
//	    type: integer
//	  - entity: GlobalSetting
//	    table: global_settings
func LoadCatalogFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read entity catalog: %w", err)
	}

	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse entity catalog: %w", err)
	}

	catalog := NewCatalog()
	for _, decl := range file.Entities {
		colType, err := parseColumnType(decl.Type)
		if err != nil {
			return nil, fmt.Errorf("entity %q: %w", decl.Entity, err)
		}
		strategy, err := parseStrategy(decl.Strategy)
		if err != nil {
			return nil, fmt.Errorf("entity %q: %w", decl.Entity, err)
		}

		if err := catalog.Register(EntityMeta{
			Entity:      decl.Entity,
			Table:       decl.Table,
			TenantAware: decl.TenantAware,
			Column:      decl.Column,
			ColumnType:  colType,
			Strategy:    strategy,
		}); err != nil {
			return nil, err
		}
	}
	return catalog, nil
}

func parseColumnType(s string) (ColumnType, error) {
	switch s {
	case "", "string":
		return ColumnString, nil
	case "integer", "int":
		return ColumnInteger, nil
	case "uuid":
		return ColumnUUID, nil
	default:
		return ColumnString, fmt.Errorf("unknown column type %q", s)
	}
}

func parseStrategy(s string) (Strategy, error) {
	switch s {
	case "", "shared_table":
		return SharedTable, nil
	case "database_per_tenant":
		return DatabasePerTenant, nil
	default:
		return SharedTable, fmt.Errorf("unknown isolation strategy %q", s)
	}
}
