package finding

// AllowlistEntry waives one rule for one package.
type AllowlistEntry struct {
	RuleID  string `json:"ruleId" jsonschema:"title=Rule ID"`
	Package string `json:"package" jsonschema:"title=Package"`
	Because string `json:"because" jsonschema:"title=Because"`
}

// Allowlist is an ordered set of waivers. The first matching entry wins.
type Allowlist []AllowlistEntry

// Lookup returns the entry waiving rule for pkg.
func (a Allowlist) Lookup(rule, pkg string) (AllowlistEntry, bool) {
	for _, e := range a {
		if e.RuleID == rule && e.Package == pkg {
			return e, true
		}
	}

	return AllowlistEntry{}, false
}

// Apply downgrades a waived finding to [Info] and replaces its
// justification. Findings without a matching entry are returned unchanged.
func (a Allowlist) Apply(f Finding) Finding {
	e, ok := a.Lookup(f.Rule, f.PackageName)
	if !ok {
		return f
	}

	f.Severity = Info
	f.Because = "allowlisted: " + e.Because

	return f
}
