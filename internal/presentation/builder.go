// Package presentation builds Presentation Definitions from the admin app's
// credential requests and keeps the single active definition.
package presentation

import (
	"fmt"
	"regexp"
	"strings"

	"spverifier/internal/presentation/models"
	"spverifier/internal/verification"
	dErrors "spverifier/pkg/domain-errors"
)

// Build turns credential requests into a Presentation Definition with the
// given id. One input descriptor per request, in order. Blank filters are
// dropped; issuer and schema allow-lists become one alternation pattern each.
func Build(id string, credentials []models.CredentialRequest) *models.Definition {
	def := &models.Definition{
		Context: models.Contexts(),
		ID:      id,
		Format: models.Format{
			models.FormatLDPVC: {ProofType: []string{models.ProofTypeBBS}},
		},
		InputDescriptors: make([]models.InputDescriptor, 0, len(credentials)),
	}

	for _, cred := range credentials {
		fields := make([]models.Field, 0, len(cred.Fields)+2)
		for _, f := range cred.Fields {
			field := models.Field{Path: []string{f.Path}}
			if strings.TrimSpace(f.Filter) != "" {
				field.Filter = &models.Filter{Type: models.FilterTypeString, Pattern: f.Filter}
			}
			fields = append(fields, field)
		}
		if field, ok := allowList(models.IssuerPath, cred.SelectedIssuers); ok {
			fields = append(fields, field)
		}
		if field, ok := allowList(models.SchemaPath, cred.SelectedCredentialOptions); ok {
			fields = append(fields, field)
		}

		def.InputDescriptors = append(def.InputDescriptors, models.InputDescriptor{
			ID:          cred.ID,
			Name:        cred.Name,
			Purpose:     cred.Purpose,
			Constraints: models.Constraints{Fields: fields},
		})
	}
	return def
}

func allowList(path string, values []string) (models.Field, bool) {
	if len(values) == 0 {
		return models.Field{}, false
	}
	pattern := strings.Join(values, "|")
	if strings.TrimSpace(pattern) == "" {
		return models.Field{}, false
	}
	return models.Field{
		Path:   []string{path},
		Filter: &models.Filter{Type: models.FilterTypeString, Pattern: pattern},
	}, true
}

// Validate rejects requests that would produce a definition no wallet
// response could ever satisfy.
func Validate(credentials []models.CredentialRequest) error {
	seen := make(map[string]struct{}, len(credentials))
	for i, cred := range credentials {
		if strings.TrimSpace(cred.ID) == "" {
			return dErrors.Newf(dErrors.CodeBadRequest, "credential %d: id is required", i)
		}
		if _, dup := seen[cred.ID]; dup {
			return dErrors.Newf(dErrors.CodeBadRequest, "credential %s: duplicate id", cred.ID)
		}
		seen[cred.ID] = struct{}{}

		for _, f := range cred.Fields {
			if strings.TrimSpace(f.Path) == "" {
				return dErrors.Newf(dErrors.CodeBadRequest, "credential %s: field path is required", cred.ID)
			}
			if err := verification.ParsePath(f.Path); err != nil {
				return dErrors.Wrap(err, dErrors.CodeBadRequest, fmt.Sprintf("credential %s: invalid field path %s", cred.ID, f.Path))
			}
			if err := checkPattern(f.Filter); err != nil {
				return dErrors.Wrap(err, dErrors.CodeBadRequest, fmt.Sprintf("credential %s: invalid filter for %s", cred.ID, f.Path))
			}
		}
		if err := checkPattern(strings.Join(cred.SelectedIssuers, "|")); err != nil {
			return dErrors.Wrap(err, dErrors.CodeBadRequest, fmt.Sprintf("credential %s: invalid issuer list", cred.ID))
		}
		if err := checkPattern(strings.Join(cred.SelectedCredentialOptions, "|")); err != nil {
			return dErrors.Wrap(err, dErrors.CodeBadRequest, fmt.Sprintf("credential %s: invalid credential list", cred.ID))
		}
	}
	return nil
}

func checkPattern(pattern string) error {
	if strings.TrimSpace(pattern) == "" {
		return nil
	}
	_, err := regexp.Compile(pattern)
	return err
}
