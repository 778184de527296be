package commands

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/gaborage/go-proposals/proposal"
)

// errValidationFailed marks a run that already reported its findings.
var errValidationFailed = errors.New("proposal request is invalid")

// readRequest decodes a YAML or JSON request from path, or stdin for "-".
// Shape errors are returned as proposal.ValidationErrors.
func readRequest(path string, stdin io.Reader) (proposal.ProposalRequest, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return proposal.ProposalRequest{}, fmt.Errorf("read %s: %w", path, err)
	}
	return proposal.DecodeYAML(data)
}

// reportFindings prints errors and warnings of a validation.
func reportFindings(p *printer, errs []proposal.FieldError, warnings []proposal.FieldWarning) {
	for _, e := range errs {
		p.Error("%s: %s", fieldLabel(e.Field), e.Message)
	}
	for _, w := range warnings {
		p.Warning("%s: %s", fieldLabel(w.Field), w.Message)
	}
}

func fieldLabel(field string) string {
	if field == "" {
		return "(document)"
	}
	return field
}
