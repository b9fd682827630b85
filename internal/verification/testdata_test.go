package verification

import (
	"encoding/json"

	"spverifier/internal/presentation/models"
)

const issuerDID = "did:web:issuer.example"

func testDefinition() *models.Definition {
	return &models.Definition{
		ID: "pd-1",
		InputDescriptors: []models.InputDescriptor{{
			ID: "test-cred",
			Constraints: models.Constraints{Fields: []models.Field{{
				Path:   []string{"$.credentialSubject.test"},
				Filter: &models.Filter{Type: "string", Pattern: "^test$"},
			}}},
		}},
	}
}

func credential(subject map[string]any) map[string]any {
	return map[string]any{
		"@context":          []any{"https://www.w3.org/2018/credentials/v1"},
		"type":              []any{"VerifiableCredential"},
		"issuer":            map[string]any{"id": issuerDID},
		"credentialSubject": subject,
		"proof":             map[string]any{"type": SuiteBBS},
	}
}

func presentation(creds ...map[string]any) Document {
	list := make([]any, len(creds))
	for i, c := range creds {
		list[i] = c
	}
	return Document{
		"type":                 []any{"VerifiablePresentation"},
		"verifiableCredential": list,
		"proof":                map[string]any{"type": SuiteBBS},
	}
}

func mapping(id string) DescriptorMapping {
	return DescriptorMapping{
		ID:         id,
		Format:     FormatLDPVP,
		Path:       "$",
		PathNested: &NestedPath{Format: "ldp_vc", Path: "$.verifiableCredential[0]"},
	}
}

func submission(mappings ...DescriptorMapping) *TransactionResponse {
	return &TransactionResponse{
		PresentationSubmission: PresentationSubmission{ID: "sub-1", DefinitionID: "pd-1", DescriptorMap: mappings},
	}
}

// roundTrip gives documents the shapes encoding/json produces.
func roundTrip(doc Document) Document {
	raw, err := json.Marshal(doc)
	if err != nil {
		panic(err)
	}
	var out Document
	if err := json.Unmarshal(raw, &out); err != nil {
		panic(err)
	}
	return out
}
