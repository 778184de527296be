package form

import (
	"fmt"
	"slices"

	"github.com/gaborage/go-proposals/proposal"
)

// FieldPath addresses a field of the request by its JSON path.
type FieldPath string

// List fields.
const (
	Frontend                 FieldPath = "technical_stack.frontend"
	Backend                  FieldPath = "technical_stack.backend"
	DatabaseStack            FieldPath = "technical_stack.database"
	DevOps                   FieldPath = "technical_stack.devops"
	OtherStack               FieldPath = "technical_stack.other"
	DatabaseSpecific         FieldPath = "database_requirements.specific_requirements"
	SpecificEndpoints        FieldPath = "api_requirements.specific_endpoints"
	Authentication           FieldPath = "security_requirements.authentication"
	Authorization            FieldPath = "security_requirements.authorization"
	DataEncryption           FieldPath = "security_requirements.data_encryption"
	ComplianceRequirements   FieldPath = "security_requirements.compliance_requirements"
	SpecificSecurityMeasures FieldPath = "security_requirements.specific_security_measures"
	ArchitectureSpecific     FieldPath = "system_architecture.specific_requirements"
	DiagramTypes             FieldPath = "diagram_types"
)

// Scalar fields.
const (
	ProjectName            FieldPath = "project_name"
	ClientName             FieldPath = "client_name"
	Industry               FieldPath = "industry"
	Timeline               FieldPath = "timeline"
	Budget                 FieldPath = "budget"
	Description            FieldPath = "description"
	DatabaseType           FieldPath = "database_requirements.type"
	DatabaseScaling        FieldPath = "database_requirements.scaling_requirements"
	DatabaseBackup         FieldPath = "database_requirements.backup_requirements"
	DatabaseSecurity       FieldPath = "database_requirements.security_requirements"
	APIAuthenticationType  FieldPath = "api_requirements.authentication_type"
	APIRateLimiting        FieldPath = "api_requirements.rate_limiting"
	APIVersioning          FieldPath = "api_requirements.versioning"
	APIDocumentation       FieldPath = "api_requirements.documentation_requirements"
	ArchitectureType       FieldPath = "system_architecture.architecture_type"
	ArchitectureDeployment FieldPath = "system_architecture.deployment_strategy"
	ArchitectureScaling    FieldPath = "system_architecture.scaling_strategy"
	IncludeDiagrams        FieldPath = "include_diagrams"
	Format                 FieldPath = "format"
)

type listAccessor func(*proposal.ProposalRequest) *[]string

var listFields = map[FieldPath]listAccessor{
	Frontend:                 func(r *proposal.ProposalRequest) *[]string { return &r.TechnicalStack.Frontend },
	Backend:                  func(r *proposal.ProposalRequest) *[]string { return &r.TechnicalStack.Backend },
	DatabaseStack:            func(r *proposal.ProposalRequest) *[]string { return &r.TechnicalStack.Database },
	DevOps:                   func(r *proposal.ProposalRequest) *[]string { return &r.TechnicalStack.DevOps },
	OtherStack:               func(r *proposal.ProposalRequest) *[]string { return &r.TechnicalStack.Other },
	DatabaseSpecific:         func(r *proposal.ProposalRequest) *[]string { return &r.DatabaseRequirements.SpecificRequirements },
	SpecificEndpoints:        func(r *proposal.ProposalRequest) *[]string { return &r.APIRequirements.SpecificEndpoints },
	Authentication:           func(r *proposal.ProposalRequest) *[]string { return &r.SecurityRequirements.Authentication },
	Authorization:            func(r *proposal.ProposalRequest) *[]string { return &r.SecurityRequirements.Authorization },
	DataEncryption:           func(r *proposal.ProposalRequest) *[]string { return &r.SecurityRequirements.DataEncryption },
	ComplianceRequirements:   func(r *proposal.ProposalRequest) *[]string { return &r.SecurityRequirements.ComplianceRequirements },
	SpecificSecurityMeasures: func(r *proposal.ProposalRequest) *[]string { return &r.SecurityRequirements.SpecificSecurityMeasures },
	ArchitectureSpecific:     func(r *proposal.ProposalRequest) *[]string { return &r.SystemArchitecture.SpecificRequirements },
	DiagramTypes:             func(r *proposal.ProposalRequest) *[]string { return &r.DiagramTypes },
}

// listOrder fixes the iteration order of list fields (declaration order).
var listOrder = []FieldPath{
	Frontend, Backend, DatabaseStack, DevOps, OtherStack,
	DatabaseSpecific, SpecificEndpoints,
	Authentication, Authorization, DataEncryption, ComplianceRequirements, SpecificSecurityMeasures,
	ArchitectureSpecific, DiagramTypes,
}

type textSetter func(*proposal.ProposalRequest, string)

var textFields = map[FieldPath]textSetter{
	ProjectName:      func(r *proposal.ProposalRequest, v string) { r.ProjectName = v },
	ClientName:       func(r *proposal.ProposalRequest, v string) { r.ClientName = v },
	Industry:         func(r *proposal.ProposalRequest, v string) { r.Industry = v },
	Timeline:         func(r *proposal.ProposalRequest, v string) { r.Timeline = v },
	Description:      func(r *proposal.ProposalRequest, v string) { r.Description = v },
	DatabaseType:     func(r *proposal.ProposalRequest, v string) { r.DatabaseRequirements.Type = proposal.DatabaseType(v) },
	DatabaseScaling:  func(r *proposal.ProposalRequest, v string) { r.DatabaseRequirements.ScalingRequirements = v },
	DatabaseBackup:   func(r *proposal.ProposalRequest, v string) { r.DatabaseRequirements.BackupRequirements = v },
	DatabaseSecurity: func(r *proposal.ProposalRequest, v string) { r.DatabaseRequirements.SecurityRequirements = v },
	APIAuthenticationType: func(r *proposal.ProposalRequest, v string) {
		r.APIRequirements.AuthenticationType = proposal.AuthenticationType(v)
	},
	APIDocumentation: func(r *proposal.ProposalRequest, v string) { r.APIRequirements.DocumentationRequirements = v },
	ArchitectureType: func(r *proposal.ProposalRequest, v string) {
		r.SystemArchitecture.ArchitectureType = proposal.ArchitectureType(v)
	},
	ArchitectureDeployment: func(r *proposal.ProposalRequest, v string) {
		r.SystemArchitecture.DeploymentStrategy = proposal.DeploymentStrategy(v)
	},
	ArchitectureScaling: func(r *proposal.ProposalRequest, v string) { r.SystemArchitecture.ScalingStrategy = v },
	Format:              func(r *proposal.ProposalRequest, v string) { r.Format = proposal.OutputFormat(v) },
}

type flagSetter func(*proposal.ProposalRequest, bool)

var flagFields = map[FieldPath]flagSetter{
	IncludeDiagrams: func(r *proposal.ProposalRequest, v bool) { r.IncludeDiagrams = proposal.BoolPtr(v) },
	APIRateLimiting: func(r *proposal.ProposalRequest, v bool) { r.APIRequirements.RateLimiting = proposal.BoolPtr(v) },
	APIVersioning:   func(r *proposal.ProposalRequest, v bool) { r.APIRequirements.Versioning = proposal.BoolPtr(v) },
}

// FieldKind tells which setter a path accepts.
type FieldKind int

const (
	KindUnknown FieldKind = iota
	KindList
	KindText
	KindFlag
	KindBudget
)

// KindOf reports the kind of the field at path.
func KindOf(path FieldPath) FieldKind {
	if _, ok := listFields[path]; ok {
		return KindList
	}
	if _, ok := textFields[path]; ok {
		return KindText
	}
	if _, ok := flagFields[path]; ok {
		return KindFlag
	}
	if path == Budget {
		return KindBudget
	}
	return KindUnknown
}

// ListPaths returns every list field in declaration order.
func ListPaths() []FieldPath {
	return slices.Clone(listOrder)
}

// ParsePath validates a raw path string.
func ParsePath(raw string) (FieldPath, error) {
	p := FieldPath(raw)
	if KindOf(p) == KindUnknown {
		return "", fmt.Errorf("%w: %q", ErrUnknownField, raw)
	}
	return p, nil
}
