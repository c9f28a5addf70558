package service

import (
	"github.com/tieubaoca/compliance-be/database"
	"github.com/tieubaoca/compliance-be/types"
)

// frameworkCatalog is the static description of every supported
// regulatory framework. Rule counts are filled in at request time.
var frameworkCatalog = []types.FrameworkInfo{
	{
		Name:        types.FrameworkIndAS,
		DisplayName: "Indian Accounting Standards",
		Description: "Recognition, measurement, presentation and disclosure requirements under Ind AS notified by MCA.",
	},
	{
		Name:        types.FrameworkScheduleIII,
		DisplayName: "Schedule III (Companies Act)",
		Description: "Format and disclosure requirements for financial statements under Schedule III of the Companies Act, 2013.",
	},
	{
		Name:        types.FrameworkSEBILODR,
		DisplayName: "SEBI LODR Regulations",
		Description: "Listing obligations and disclosure requirements for listed entities under SEBI (LODR) Regulations, 2015.",
	},
	{
		Name:        types.FrameworkRBINorms,
		DisplayName: "RBI Prudential Norms",
		Description: "RBI master directions and prudential norms applicable to banks and NBFCs.",
	},
	{
		Name:        types.FrameworkESGBRSR,
		DisplayName: "ESG / BRSR",
		Description: "Business Responsibility and Sustainability Reporting requirements under SEBI's BRSR framework.",
	},
	{
		Name:        types.FrameworkAuditingStandards,
		DisplayName: "Standards on Auditing",
		Description: "ICAI Standards on Auditing governing auditor reporting and audit documentation.",
	},
	{
		Name:        types.FrameworkDisclosureChecklists,
		DisplayName: "Disclosure Checklists",
		Description: "Consolidated disclosure checklists compiled across statutes and standards.",
	},
}

// ListFrameworks returns the catalog with each framework's vector
// collection attached.
func ListFrameworks() []types.FrameworkInfo {
	out := make([]types.FrameworkInfo, len(frameworkCatalog))
	copy(out, frameworkCatalog)
	for i := range out {
		out[i].Collection = database.FrameworkCollections[out[i].Name]
	}
	return out
}

// IsKnownFramework reports whether name is a supported framework.
func IsKnownFramework(name string) bool {
	_, ok := database.FrameworkCollections[name]
	return ok
}

func frameworkDescription(name string) string {
	for _, f := range frameworkCatalog {
		if f.Name == name {
			return f.Description
		}
	}
	return ""
}
