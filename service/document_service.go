package service

import (
	"strings"

	"github.com/tieubaoca/compliance-be/types"
)

// DocumentService reconstructs document structure from the flat element
// stream produced by extraction.
type DocumentService struct{}

func NewDocumentService() *DocumentService {
	return &DocumentService{}
}

// BuildSectionTree folds the element stream into a section tree. A Title
// element starts a new top-level section; a Header element opens a child
// of the current section. Content elements attach to the innermost open
// section. Content seen before any heading goes into an untitled root
// section so nothing is dropped.
func (s *DocumentService) BuildSectionTree(elements []types.Element) []*types.SectionNode {
	var roots []*types.SectionNode
	var current *types.SectionNode // innermost open section
	var top *types.SectionNode     // current top-level section

	openRoot := func(title string) {
		node := &types.SectionNode{Title: title, Level: 1}
		roots = append(roots, node)
		top = node
		current = node
	}

	for _, elem := range elements {
		switch elem.Kind {
		case types.ElementTitle:
			openRoot(strings.TrimSpace(elem.Text))
		case types.ElementHeader:
			if top == nil {
				openRoot("")
			}
			child := &types.SectionNode{
				Title: strings.TrimSpace(elem.Text),
				Level: top.Level + 1,
			}
			top.Children = append(top.Children, child)
			current = child
		case types.ElementPageBreak:
			// structural noise, carries no content
		default:
			if current == nil {
				openRoot("")
			}
			current.Elements = append(current.Elements, elem)
		}
	}
	return roots
}

// SectionOutline returns the titled section paths of a tree in document
// order, one path per section that has a title.
func (s *DocumentService) SectionOutline(roots []*types.SectionNode) [][]string {
	var outline [][]string
	var walk func(node *types.SectionNode, path []string)
	walk = func(node *types.SectionNode, path []string) {
		if node.Title != "" {
			path = append(path, node.Title)
			outline = append(outline, append([]string(nil), path...))
		}
		for _, child := range node.Children {
			walk(child, path)
		}
	}
	for _, root := range roots {
		walk(root, nil)
	}
	return outline
}

// CollectTables returns every table element in document order.
func (s *DocumentService) CollectTables(elements []types.Element) []types.Element {
	var tables []types.Element
	for _, elem := range elements {
		if elem.Kind == types.ElementTable {
			tables = append(tables, elem)
		}
	}
	return tables
}

var documentTypeMarkers = []struct {
	docType string
	markers []string
}{
	{"annual_report", []string{"annual report", "directors' report", "board's report"}},
	{"financial_statements", []string{"balance sheet", "statement of profit and loss", "cash flow statement"}},
	{"audit_report", []string{"independent auditor", "auditor's report", "audit opinion"}},
	{"brsr_report", []string{"business responsibility", "sustainability report", "brsr"}},
	{"prospectus", []string{"prospectus", "offer document", "red herring"}},
}

// DetectDocumentType classifies a document from its leading text. Checks
// only the first few pages; generic filings match the first marker set
// that appears.
func (s *DocumentService) DetectDocumentType(elements []types.Element) string {
	var sb strings.Builder
	for _, elem := range elements {
		if elem.PageNumber > 5 {
			break
		}
		sb.WriteString(strings.ToLower(elem.Text))
		sb.WriteString("\n")
	}
	head := sb.String()
	for _, candidate := range documentTypeMarkers {
		for _, marker := range candidate.markers {
			if strings.Contains(head, marker) {
				return candidate.docType
			}
		}
	}
	return "financial_document"
}

// PageCount returns the highest page number seen in the element stream.
func (s *DocumentService) PageCount(elements []types.Element) int {
	max := 0
	for _, elem := range elements {
		if elem.PageNumber > max {
			max = elem.PageNumber
		}
	}
	return max
}
