package proposal

import (
	"fmt"
	"strings"
)

// Normalize returns a deep copy of req with defaults applied: free-text
// fields are trimmed, blank list entries are dropped, include_diagrams defaults to true, format
// defaults to pdf, and diagram_types are cleared when diagrams are disabled.
// Enumerated values are kept as received so that they must match exactly.
// The input is never modified.
func Normalize(req ProposalRequest) (ProposalRequest, []FieldWarning) {
	out := req.Clone()
	var warnings []FieldWarning

	out.ProjectName = strings.TrimSpace(out.ProjectName)
	out.ClientName = strings.TrimSpace(out.ClientName)
	out.Industry = strings.TrimSpace(out.Industry)
	out.Timeline = strings.TrimSpace(out.Timeline)
	out.Description = strings.TrimSpace(out.Description)

	ts := &out.TechnicalStack
	ts.Frontend = compactRequired(ts.Frontend)
	ts.Backend = compactRequired(ts.Backend)
	ts.Database = compactRequired(ts.Database)
	ts.DevOps = compactRequired(ts.DevOps)
	ts.Other = compactOptional(ts.Other)

	db := &out.DatabaseRequirements
	db.Type = DatabaseType(blankToEmpty(string(db.Type)))
	db.ScalingRequirements = strings.TrimSpace(db.ScalingRequirements)
	db.BackupRequirements = strings.TrimSpace(db.BackupRequirements)
	db.SecurityRequirements = strings.TrimSpace(db.SecurityRequirements)
	db.SpecificRequirements = compactOptional(db.SpecificRequirements)

	api := &out.APIRequirements
	api.AuthenticationType = AuthenticationType(blankToEmpty(string(api.AuthenticationType)))
	api.DocumentationRequirements = strings.TrimSpace(api.DocumentationRequirements)
	api.SpecificEndpoints = compactOptional(api.SpecificEndpoints)

	sec := &out.SecurityRequirements
	sec.Authentication = dropBlank(sec.Authentication)
	sec.Authorization = dropBlank(sec.Authorization)
	sec.DataEncryption = dropBlank(sec.DataEncryption)
	sec.ComplianceRequirements = compactOptional(sec.ComplianceRequirements)
	sec.SpecificSecurityMeasures = compactOptional(sec.SpecificSecurityMeasures)

	arch := &out.SystemArchitecture
	arch.ArchitectureType = ArchitectureType(blankToEmpty(string(arch.ArchitectureType)))
	arch.DeploymentStrategy = DeploymentStrategy(blankToEmpty(string(arch.DeploymentStrategy)))
	arch.ScalingStrategy = strings.TrimSpace(arch.ScalingStrategy)
	arch.SpecificRequirements = compactOptional(arch.SpecificRequirements)

	if out.IncludeDiagrams == nil {
		out.IncludeDiagrams = BoolPtr(true)
	}
	out.DiagramTypes = compactOptional(out.DiagramTypes)
	if !*out.IncludeDiagrams && len(out.DiagramTypes) > 0 {
		warnings = append(warnings, FieldWarning{
			Field:   "diagram_types",
			Code:    WarnDiagramTypesIgnored,
			Message: fmt.Sprintf("diagram_types ignored because include_diagrams is false (%d dropped)", len(out.DiagramTypes)),
			Value:   strings.Join(out.DiagramTypes, ","),
		})
		out.DiagramTypes = nil
	}

	out.Format = OutputFormat(blankToEmpty(string(out.Format)))
	if out.Format == "" {
		out.Format = FormatPDF
	}

	return out, warnings
}

// compactRequired trims entries and drops blanks; the result is never nil so
// that the list always serializes as an array.
func compactRequired(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// compactOptional is compactRequired for omitempty lists: empty becomes nil.
func compactOptional(in []string) []string {
	out := compactRequired(in)
	if len(out) == 0 {
		return nil
	}
	return out
}

// dropBlank removes whitespace-only entries and leaves the others untouched.
// The result is never nil.
func dropBlank(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return out
}

// blankToEmpty maps a whitespace-only value to "" and returns any other
// value unchanged.
func blankToEmpty(v string) string {
	if strings.TrimSpace(v) == "" {
		return ""
	}
	return v
}
