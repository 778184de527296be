package proposal

func validRequest() ProposalRequest {
	return ProposalRequest{
		ProjectName: "Inventory Platform",
		ClientName:  "Acme Corp",
		Industry:    "Retail",
		Timeline:    "6 months",
		Budget:      Float64Ptr(120000),
		TechnicalStack: TechnicalStack{
			Frontend: []string{"React"},
			Backend:  []string{"Go"},
			Database: []string{"PostgreSQL"},
			DevOps:   []string{"Kubernetes"},
		},
		DatabaseRequirements: DatabaseRequirements{Type: DatabaseSQL},
		APIRequirements:      APIRequirements{AuthenticationType: AuthJWT},
		SecurityRequirements: SecurityRequirements{
			Authentication: []string{"SSO"},
			Authorization:  []string{"RBAC"},
			DataEncryption: []string{"AtRest", "InTransit"},
		},
		SystemArchitecture: SystemArchitecture{ArchitectureType: ArchitectureMicroservices},
	}
}

func errorFields(errs []FieldError) []string {
	out := make([]string, 0, len(errs))
	for _, e := range errs {
		out = append(out, e.Field)
	}
	return out
}

func errorByField(errs []FieldError, field string) (FieldError, bool) {
	for _, e := range errs {
		if e.Field == field {
			return e, true
		}
	}
	return FieldError{}, false
}
