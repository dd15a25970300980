package archive

import (
	"strings"

	"genesearch/internal/gene"
)

const (
	// ActionSeparator joins an action name and a gene path in a gene id.
	ActionSeparator = ">>"
	// TemplateSeparator joins the action names of one initialization group.
	TemplateSeparator = "$$"
	pathSeparator     = "."
)

// GeneID derives the impact id of g inside the action called actionName.
// Genes of an individual without actions use an empty action name.
func GeneID(actionName string, g gene.Gene) string {
	path := strings.Join(gene.Path(g), pathSeparator)
	if actionName == "" {
		return path
	}
	return actionName + ActionSeparator + path
}

// ActionNameOf returns the action name encoded in a gene id.
func ActionNameOf(id string) string {
	name, _, found := strings.Cut(id, ActionSeparator)
	if !found {
		return ""
	}
	return name
}

// TemplateKey identifies a group of initializing actions by their names.
func TemplateKey(names []string) string {
	return strings.Join(names, TemplateSeparator)
}
