package model

import (
	"github.com/m-mizutani/goerr/v2"

	"github.com/devmon-lab/chreos/pkg/domain/types"
)

// ProductArea represents a scored unit of an organization's product.
// Key modules are business-critical areas subject to harsher
// usage-drop penalties.
type ProductArea struct {
	ID           types.AreaID `yaml:"id" json:"id"`
	Organization types.OrgID  `yaml:"-" json:"organization"`
	Name         string       `yaml:"name" json:"name"`
	Description  string       `yaml:"description,omitempty" json:"description,omitempty"`
	IsKeyModule  bool         `yaml:"key_module,omitempty" json:"isKeyModule"`
}

// Validate validates the product area
func (a *ProductArea) Validate() error {
	if a.ID == "" {
		return goerr.New("product area ID is required")
	}
	if a.Name == "" {
		return goerr.New("product area name is required")
	}
	return nil
}

// OrganizationAreas holds the product area catalog for one organization
type OrganizationAreas struct {
	Organization types.OrgID   `yaml:"organization"`
	Areas        []ProductArea `yaml:"areas"`
}

// AreasConfig represents the seed catalog of product areas per organization
type AreasConfig struct {
	Organizations []OrganizationAreas `yaml:"organizations"`
}

// Validate validates the catalog configuration
func (c *AreasConfig) Validate() error {
	if len(c.Organizations) == 0 {
		return goerr.New("at least one organization is required")
	}

	orgMap := make(map[types.OrgID]bool)
	for _, org := range c.Organizations {
		if org.Organization == "" {
			return goerr.New("organization name is required")
		}
		if orgMap[org.Organization] {
			return goerr.New("duplicate organization",
				goerr.V("organization", org.Organization))
		}
		orgMap[org.Organization] = true

		if len(org.Areas) == 0 {
			return goerr.New("at least one product area is required",
				goerr.V("organization", org.Organization))
		}

		areaMap := make(map[types.AreaID]bool)
		for i, area := range org.Areas {
			if err := area.Validate(); err != nil {
				return goerr.Wrap(err, "invalid product area at index",
					goerr.V("organization", org.Organization),
					goerr.V("index", i),
					goerr.V("id", area.ID))
			}
			if areaMap[area.ID] {
				return goerr.New("duplicate product area ID",
					goerr.V("organization", org.Organization),
					goerr.V("id", area.ID))
			}
			areaMap[area.ID] = true
		}
	}

	return nil
}

// AreasFor returns the catalog entries for one organization with the
// organization field stamped onto each area. Returns copies so callers
// cannot modify the catalog.
func (c *AreasConfig) AreasFor(org types.OrgID) []ProductArea {
	for _, entry := range c.Organizations {
		if entry.Organization != org {
			continue
		}
		areas := make([]ProductArea, len(entry.Areas))
		for i, area := range entry.Areas {
			area.Organization = org
			areas[i] = area
		}
		return areas
	}
	return nil
}

// FindArea finds a product area in the catalog by organization and ID
func (c *AreasConfig) FindArea(org types.OrgID, id types.AreaID) *ProductArea {
	for _, area := range c.AreasFor(org) {
		if area.ID == id {
			result := area
			return &result
		}
	}
	return nil
}
