package generation

import (
	"fmt"
	"strings"

	"github.com/gaborage/go-proposals/proposal"
)

// SystemPrompt is the instruction given to LLM providers before the request.
func SystemPrompt() string {
	return `You are a senior solutions architect writing technical proposals for clients.

## Your Objective

Turn the structured project requirements you receive into a complete technical proposal
document that a client can review and sign off.

## Document Structure

1. Executive summary
2. Project scope and objectives
3. Technical stack and the reasoning behind each choice
4. Data storage design
5. API design
6. Security and compliance
7. System architecture and deployment
8. Delivery timeline and budget

## Rules

- Use only the technologies and constraints given. Do not invent requirements.
- When a section has no input, state the assumption you made.
- Write GitHub-flavored Markdown. Do not wrap the document in a code fence.`
}

// UserPrompt renders req as the requirements block sent to LLM providers.
func UserPrompt(req proposal.ProposalRequest) string {
	var b strings.Builder

	b.WriteString("## Project\n\n")
	fmt.Fprintf(&b, "- Name: %s\n", req.ProjectName)
	fmt.Fprintf(&b, "- Client: %s\n", req.ClientName)
	fmt.Fprintf(&b, "- Industry: %s\n", req.Industry)
	fmt.Fprintf(&b, "- Timeline: %s\n", req.Timeline)
	if req.Budget != nil {
		fmt.Fprintf(&b, "- Budget: %.2f\n", *req.Budget)
	}
	if req.Description != "" {
		fmt.Fprintf(&b, "\n%s\n", req.Description)
	}

	ts := req.TechnicalStack
	b.WriteString("\n## Technical Stack\n\n")
	writeList(&b, "Frontend", ts.Frontend)
	writeList(&b, "Backend", ts.Backend)
	writeList(&b, "Database", ts.Database)
	writeList(&b, "DevOps", ts.DevOps)
	writeList(&b, "Other", ts.Other)

	db := req.DatabaseRequirements
	b.WriteString("\n## Database\n\n")
	fmt.Fprintf(&b, "- Type: %s\n", db.Type)
	writeText(&b, "Scaling", db.ScalingRequirements)
	writeText(&b, "Backup", db.BackupRequirements)
	writeText(&b, "Security", db.SecurityRequirements)
	writeList(&b, "Specific requirements", db.SpecificRequirements)

	api := req.APIRequirements
	b.WriteString("\n## API\n\n")
	fmt.Fprintf(&b, "- Authentication: %s\n", api.AuthenticationType)
	writeFlag(&b, "Rate limiting", api.RateLimiting)
	writeFlag(&b, "Versioning", api.Versioning)
	writeText(&b, "Documentation", api.DocumentationRequirements)
	writeList(&b, "Endpoints", api.SpecificEndpoints)

	sec := req.SecurityRequirements
	b.WriteString("\n## Security\n\n")
	writeList(&b, "Authentication", sec.Authentication)
	writeList(&b, "Authorization", sec.Authorization)
	writeList(&b, "Data encryption", sec.DataEncryption)
	writeList(&b, "Compliance", sec.ComplianceRequirements)
	writeList(&b, "Additional measures", sec.SpecificSecurityMeasures)

	arch := req.SystemArchitecture
	b.WriteString("\n## Architecture\n\n")
	fmt.Fprintf(&b, "- Type: %s\n", arch.ArchitectureType)
	writeText(&b, "Deployment", string(arch.DeploymentStrategy))
	writeText(&b, "Scaling", arch.ScalingStrategy)
	writeList(&b, "Specific requirements", arch.SpecificRequirements)

	b.WriteString("\n## Output\n\n")
	fmt.Fprintf(&b, "- Target format: %s\n", strings.ToUpper(string(outputFormat(req))))
	if req.DiagramsEnabled() {
		types := req.DiagramTypes
		if len(types) == 0 {
			types = []string{"architecture"}
		}
		fmt.Fprintf(&b, "- Include Mermaid diagrams (fenced as mermaid) for: %s\n", strings.Join(types, ", "))
	} else {
		b.WriteString("- Do not include diagrams.\n")
	}
	return b.String()
}

func outputFormat(req proposal.ProposalRequest) proposal.OutputFormat {
	if req.Format == "" {
		return proposal.FormatPDF
	}
	return req.Format
}

func writeList(b *strings.Builder, label string, values []string) {
	if len(values) == 0 {
		return
	}
	fmt.Fprintf(b, "- %s: %s\n", label, strings.Join(values, ", "))
}

func writeText(b *strings.Builder, label, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(b, "- %s: %s\n", label, value)
}

func writeFlag(b *strings.Builder, label string, value *bool) {
	if value == nil {
		return
	}
	answer := "no"
	if *value {
		answer = "yes"
	}
	fmt.Fprintf(b, "- %s: %s\n", label, answer)
}
