package generation

import (
	"github.com/gaborage/go-proposals/proposal"
	"github.com/gaborage/go-proposals/submission"
)

func validRequest() proposal.ProposalRequest {
	return proposal.ProposalRequest{
		ProjectName: "Inventory Platform",
		ClientName:  "Acme Corp",
		Industry:    "Retail",
		Timeline:    "6 months",
		Budget:      proposal.Float64Ptr(120000),
		TechnicalStack: proposal.TechnicalStack{
			Frontend: []string{"React", "TypeScript"},
			Backend:  []string{"Go"},
			Database: []string{"PostgreSQL"},
			DevOps:   []string{"Kubernetes"},
		},
		DatabaseRequirements: proposal.DatabaseRequirements{Type: proposal.DatabaseSQL, BackupRequirements: "daily snapshots"},
		APIRequirements: proposal.APIRequirements{
			AuthenticationType: proposal.AuthJWT,
			RateLimiting:       proposal.BoolPtr(true),
		},
		SecurityRequirements: proposal.SecurityRequirements{
			Authentication: []string{"SSO"},
			Authorization:  []string{"RBAC"},
			DataEncryption: []string{"AtRest", "InTransit"},
		},
		SystemArchitecture: proposal.SystemArchitecture{
			ArchitectureType:   proposal.ArchitectureMicroservices,
			DeploymentStrategy: proposal.DeploymentCloud,
		},
		IncludeDiagrams: proposal.BoolPtr(true),
		DiagramTypes:    []string{"architecture", "sequence"},
		Format:          proposal.FormatDOCX,
	}
}

func testJob() submission.Job {
	req := validRequest()
	payload, err := proposal.Marshal(req)
	if err != nil {
		panic(err)
	}
	return submission.Job{ID: "job-1", Attempt: 1, Request: req, Payload: payload}
}
