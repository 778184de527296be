// Package proposal defines the Proposal Request schema: its nested requirement
// groups, the closed value sets of enumerated fields, normalization and
// validation rules, and the JSON/YAML codecs used on the wire.
package proposal

// DatabaseType is the storage family a project needs.
type DatabaseType string

const (
	DatabaseSQL        DatabaseType = "SQL"
	DatabaseNoSQL      DatabaseType = "NoSQL"
	DatabaseGraph      DatabaseType = "Graph"
	DatabaseTimeSeries DatabaseType = "TimeSeries"
)

// AuthenticationType is how API clients authenticate.
type AuthenticationType string

const (
	AuthJWT    AuthenticationType = "JWT"
	AuthOAuth  AuthenticationType = "OAuth"
	AuthAPIKey AuthenticationType = "APIKey"
)

// ArchitectureType is the overall system architecture style.
type ArchitectureType string

const (
	ArchitectureMonolithic    ArchitectureType = "Monolithic"
	ArchitectureMicroservices ArchitectureType = "Microservices"
	ArchitectureServerless    ArchitectureType = "Serverless"
	ArchitectureEventDriven   ArchitectureType = "EventDriven"
)

// DeploymentStrategy is where the system will run.
type DeploymentStrategy string

const (
	DeploymentCloud     DeploymentStrategy = "Cloud"
	DeploymentOnPremise DeploymentStrategy = "OnPremise"
	DeploymentHybrid    DeploymentStrategy = "Hybrid"
)

// OutputFormat is the document format requested from the generator.
type OutputFormat string

const (
	FormatPDF  OutputFormat = "pdf"
	FormatDOCX OutputFormat = "docx"
)

// Recognized values of the security requirement lists.
var (
	AuthenticationMethods = []string{"Password", "MFA", "SSO", "OAuth", "JWT", "APIKey", "Certificate", "Biometric"}
	AuthorizationModels   = []string{"RBAC", "ABAC", "ACL", "OAuthScopes", "PolicyBased"}
	EncryptionScopes      = []string{"AtRest", "InTransit", "EndToEnd", "FieldLevel"}
)

// DatabaseTypes returns the legal values of database_requirements.type.
func DatabaseTypes() []DatabaseType {
	return []DatabaseType{DatabaseSQL, DatabaseNoSQL, DatabaseGraph, DatabaseTimeSeries}
}

// AuthenticationTypes returns the legal values of api_requirements.authentication_type.
func AuthenticationTypes() []AuthenticationType {
	return []AuthenticationType{AuthJWT, AuthOAuth, AuthAPIKey}
}

// ArchitectureTypes returns the legal values of system_architecture.architecture_type.
func ArchitectureTypes() []ArchitectureType {
	return []ArchitectureType{ArchitectureMonolithic, ArchitectureMicroservices, ArchitectureServerless, ArchitectureEventDriven}
}

// DeploymentStrategies returns the legal values of system_architecture.deployment_strategy.
func DeploymentStrategies() []DeploymentStrategy {
	return []DeploymentStrategy{DeploymentCloud, DeploymentOnPremise, DeploymentHybrid}
}

// ProposalRequest is the complete input for one generated proposal.
// Nested groups carry validate:"-" because each group has its own validator.
type ProposalRequest struct {
	ProjectName string   `json:"project_name" validate:"required" doc:"Name of the project" example:"Inventory Platform"`
	ClientName  string   `json:"client_name" validate:"required" doc:"Client the proposal is addressed to" example:"Acme Corp"`
	Industry    string   `json:"industry" validate:"required" example:"Retail"`
	Timeline    string   `json:"timeline" validate:"required" example:"6 months"`
	Budget      *float64 `json:"budget,omitempty" validate:"omitempty,finite,gte=0" doc:"Budget in the client's currency"`
	Description string   `json:"description,omitempty"`

	TechnicalStack       TechnicalStack       `json:"technical_stack" validate:"-"`
	DatabaseRequirements DatabaseRequirements `json:"database_requirements" validate:"-"`
	APIRequirements      APIRequirements      `json:"api_requirements" validate:"-"`
	SecurityRequirements SecurityRequirements `json:"security_requirements" validate:"-"`
	SystemArchitecture   SystemArchitecture   `json:"system_architecture" validate:"-"`

	// IncludeDiagrams is nil until normalized; nil means true.
	IncludeDiagrams *bool        `json:"include_diagrams,omitempty" doc:"Defaults to true"`
	DiagramTypes    []string     `json:"diagram_types,omitempty" doc:"Only used when include_diagrams is true"`
	Format          OutputFormat `json:"format,omitempty" validate:"omitempty,oneof=pdf docx" doc:"Defaults to pdf"`
}

// TechnicalStack lists the technologies per layer. Every list may be empty.
type TechnicalStack struct {
	Frontend []string `json:"frontend"`
	Backend  []string `json:"backend"`
	Database []string `json:"database"`
	DevOps   []string `json:"devops"`
	Other    []string `json:"other,omitempty"`
}

// DatabaseRequirements describes the storage needs.
type DatabaseRequirements struct {
	Type                 DatabaseType `json:"type" validate:"required,oneof=SQL NoSQL Graph TimeSeries"`
	ScalingRequirements  string       `json:"scaling_requirements,omitempty"`
	BackupRequirements   string       `json:"backup_requirements,omitempty"`
	SecurityRequirements string       `json:"security_requirements,omitempty"`
	SpecificRequirements []string     `json:"specific_requirements,omitempty"`
}

// APIRequirements describes the exposed API.
type APIRequirements struct {
	AuthenticationType        AuthenticationType `json:"authentication_type" validate:"required,oneof=JWT OAuth APIKey"`
	RateLimiting              *bool              `json:"rate_limiting,omitempty"`
	Versioning                *bool              `json:"versioning,omitempty"`
	DocumentationRequirements string             `json:"documentation_requirements,omitempty"`
	SpecificEndpoints         []string           `json:"specific_endpoints,omitempty"`
}

// SecurityRequirements lists the security controls. The first three lists each
// need at least one recognized value.
type SecurityRequirements struct {
	Authentication           []string `json:"authentication" validate:"min=1,dive,oneof=Password MFA SSO OAuth JWT APIKey Certificate Biometric"`
	Authorization            []string `json:"authorization" validate:"min=1,dive,oneof=RBAC ABAC ACL OAuthScopes PolicyBased"`
	DataEncryption           []string `json:"data_encryption" validate:"min=1,dive,oneof=AtRest InTransit EndToEnd FieldLevel"`
	ComplianceRequirements   []string `json:"compliance_requirements,omitempty"`
	SpecificSecurityMeasures []string `json:"specific_security_measures,omitempty"`
}

// SystemArchitecture describes the target architecture.
type SystemArchitecture struct {
	ArchitectureType     ArchitectureType   `json:"architecture_type" validate:"required,oneof=Monolithic Microservices Serverless EventDriven"`
	DeploymentStrategy   DeploymentStrategy `json:"deployment_strategy,omitempty" validate:"omitempty,oneof=Cloud OnPremise Hybrid"`
	ScalingStrategy      string             `json:"scaling_strategy,omitempty"`
	SpecificRequirements []string           `json:"specific_requirements,omitempty"`
}

// DiagramsEnabled reports the effective include_diagrams value.
func (r ProposalRequest) DiagramsEnabled() bool {
	return r.IncludeDiagrams == nil || *r.IncludeDiagrams
}

// Clone returns a deep copy of r.
func (r ProposalRequest) Clone() ProposalRequest {
	out := r
	if r.Budget != nil {
		b := *r.Budget
		out.Budget = &b
	}
	if r.IncludeDiagrams != nil {
		v := *r.IncludeDiagrams
		out.IncludeDiagrams = &v
	}
	out.DiagramTypes = cloneStrings(r.DiagramTypes)

	out.TechnicalStack = TechnicalStack{
		Frontend: cloneStrings(r.TechnicalStack.Frontend),
		Backend:  cloneStrings(r.TechnicalStack.Backend),
		Database: cloneStrings(r.TechnicalStack.Database),
		DevOps:   cloneStrings(r.TechnicalStack.DevOps),
		Other:    cloneStrings(r.TechnicalStack.Other),
	}
	out.DatabaseRequirements.SpecificRequirements = cloneStrings(r.DatabaseRequirements.SpecificRequirements)

	if r.APIRequirements.RateLimiting != nil {
		v := *r.APIRequirements.RateLimiting
		out.APIRequirements.RateLimiting = &v
	}
	if r.APIRequirements.Versioning != nil {
		v := *r.APIRequirements.Versioning
		out.APIRequirements.Versioning = &v
	}
	out.APIRequirements.SpecificEndpoints = cloneStrings(r.APIRequirements.SpecificEndpoints)

	out.SecurityRequirements = SecurityRequirements{
		Authentication:           cloneStrings(r.SecurityRequirements.Authentication),
		Authorization:            cloneStrings(r.SecurityRequirements.Authorization),
		DataEncryption:           cloneStrings(r.SecurityRequirements.DataEncryption),
		ComplianceRequirements:   cloneStrings(r.SecurityRequirements.ComplianceRequirements),
		SpecificSecurityMeasures: cloneStrings(r.SecurityRequirements.SpecificSecurityMeasures),
	}
	out.SystemArchitecture.SpecificRequirements = cloneStrings(r.SystemArchitecture.SpecificRequirements)

	return out
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

// BoolPtr returns a pointer to v.
func BoolPtr(v bool) *bool { return &v }

// Float64Ptr returns a pointer to v.
func Float64Ptr(v float64) *float64 { return &v }
