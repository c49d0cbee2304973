package controls

import (
	"fmt"
	"strings"

	"github.com/ethanbaker/controlfill/pkg/utils"
)

// PromptTemplate holds the static fragments wrapped around each control
type PromptTemplate struct {
	Introduction    string
	SecurityContext string
	Instruction     string
}

// LoadPromptTemplate reads the three fragments from disk
func LoadPromptTemplate(introductionPath, securityContextPath, instructionPath string) (PromptTemplate, error) {
	var tmpl PromptTemplate
	var err error

	if tmpl.Introduction, err = utils.LoadPrompt(introductionPath); err != nil {
		return PromptTemplate{}, fmt.Errorf("introduction context: %w", err)
	}
	if tmpl.SecurityContext, err = utils.LoadPrompt(securityContextPath); err != nil {
		return PromptTemplate{}, fmt.Errorf("security context: %w", err)
	}
	if tmpl.Instruction, err = utils.LoadPrompt(instructionPath); err != nil {
		return PromptTemplate{}, fmt.Errorf("action: %w", err)
	}

	return tmpl, nil
}

// Build assembles the prompt for one control description
func (t PromptTemplate) Build(description string) string {
	var sb strings.Builder

	sb.WriteString(t.Introduction)
	sb.WriteString("\nSECURITY CONTEXT ABOUT OUR PRODUCT:\n")
	sb.WriteString(t.SecurityContext)
	sb.WriteString("\nEND OF SECURITY CONTEXT.\n\n")
	sb.WriteString("NIST CONTROL:\n")
	sb.WriteString(description)
	sb.WriteString("\n\n")
	sb.WriteString(t.Instruction)

	return sb.String()
}
