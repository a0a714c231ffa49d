package stac

import (
	"github.com/hashicorp/hcl/v2/hclsimple"

	"github.com/agentic-research/satstac/api"
)

// Config holds the defaults a Store applies to the documents it creates and writes.
type Config struct {
	// Version is stamped as stac_version on created documents.
	Version string `hcl:"stac_version,optional"`
	// CatalogBasename names the file of a catalog added under another one.
	CatalogBasename string `hcl:"catalog_basename,optional"`
	// ItemBasename is the default filename template of added items.
	ItemBasename string `hcl:"item_basename,optional"`
	// BaseURL is used by Publish when it is called with an empty URL.
	BaseURL string `hcl:"base_url,optional"`
}

func DefaultConfig() Config {
	return Config{
		Version:         api.DefaultVersion,
		CatalogBasename: api.CatalogBasename,
		ItemBasename:    "${id}",
	}
}

// LoadConfig decodes an HCL (.hcl) or HCL-JSON (.json) file.
// Attributes missing from the file keep their DefaultConfig values.
func LoadConfig(filename string) (Config, error) {
	var fc Config
	if err := hclsimple.DecodeFile(filename, nil, &fc); err != nil {
		return Config{}, newError("load config", filename, err)
	}
	return DefaultConfig().merge(fc), nil
}

func (c Config) merge(o Config) Config {
	if o.Version != "" {
		c.Version = o.Version
	}
	if o.CatalogBasename != "" {
		c.CatalogBasename = o.CatalogBasename
	}
	if o.ItemBasename != "" {
		c.ItemBasename = o.ItemBasename
	}
	if o.BaseURL != "" {
		c.BaseURL = o.BaseURL
	}
	return c
}
