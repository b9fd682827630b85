package storage

import (
	"maps"

	pdmodels "spverifier/internal/presentation/models"
)

// Metadata is the verifier's display information shown to wallets.
type Metadata struct {
	Name       string `json:"name"`
	Purpose    string `json:"purpose"`
	LogoPath   string `json:"logoPath,omitempty"`
	TOSPath    string `json:"tosPath,omitempty"`
	PolicyPath string `json:"policyPath,omitempty"`
}

// MetadataPatch is a partial metadata update; nil fields keep their value.
type MetadataPatch struct {
	Name       *string
	Purpose    *string
	LogoPath   *string
	TOSPath    *string
	PolicyPath *string
}

func (p MetadataPatch) apply(m *Metadata) {
	if p.Name != nil {
		m.Name = *p.Name
	}
	if p.Purpose != nil {
		m.Purpose = *p.Purpose
	}
	if p.LogoPath != nil {
		m.LogoPath = *p.LogoPath
	}
	if p.TOSPath != nil {
		m.TOSPath = *p.TOSPath
	}
	if p.PolicyPath != nil {
		m.PolicyPath = *p.PolicyPath
	}
}

// Data is the single persisted record of the service.
type Data struct {
	Metadata Metadata `json:"metadata"`
	Name     string   `json:"name"`
	DID      string   `json:"did"`
	// URL is the externally reachable base URL, used verbatim as a prefix.
	URL string `json:"url"`
	// Hash maps device id to password hash.
	Hash map[string]string `json:"hash"`
	// MobilePresentationDefinition is the raw JSON of the last credential
	// request list submitted by the admin app.
	MobilePresentationDefinition string               `json:"mobile_presentation_definition"`
	PresentationDefinition       *pdmodels.Definition `json:"presentation_definition"`
}

func (d Data) clone() Data {
	out := d
	out.Hash = maps.Clone(d.Hash)
	if out.Hash == nil {
		out.Hash = map[string]string{}
	}
	out.PresentationDefinition = d.PresentationDefinition.Clone()
	return out
}
