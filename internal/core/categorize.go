package core

import "strings"

// categoryRule matches a lowercased domain by substring or by suffix.
type categoryRule struct {
	name     string
	keywords []string // matched with strings.Contains
	suffixes []string // matched with strings.HasSuffix
	sector   string
	org      string
}

func (r categoryRule) matches(domain string) bool {
	for _, kw := range r.keywords {
		if strings.Contains(domain, kw) {
			return true
		}
	}
	for _, sfx := range r.suffixes {
		if strings.HasSuffix(domain, sfx) {
			return true
		}
	}
	return false
}

// categoryRules is evaluated top to bottom and the first match wins.
// Keyword sets overlap ("india" vs "indianbank", "edu" vs ".gov.in" portals),
// so position is part of the contract. Suffix rules only run after every
// keyword rule has missed.
var categoryRules = []categoryRule{
	{
		name: "banking",
		keywords: []string{
			"bank", "sbi", "hdfc", "icici", "pnb", "bob", "axis", "kotak", "canara",
			"paytm", "phonepe", "gpay", "bhim", "paypal", "razorpay", "cashfree",
		},
		sector: "BFSI",
		org:    "Banking/Financial Services",
	},
	{
		name:     "government",
		keywords: []string{".gov", "nic", "india", "ministry", "department", "portal"},
		sector:   "Government",
		org:      "Government of India",
	},
	{
		name: "ecommerce",
		keywords: []string{
			"shop", "store", "market", "amazon", "flipkart", "myntra", "snapdeal",
			"nykaa", "zomato", "swiggy", "uber", "ola",
		},
		sector: "E-commerce",
		org:    "E-commerce Platform",
	},
	{
		name:     "telecom",
		keywords: []string{"airtel", "jio", "vodafone", "bsnl", "mtnl", "idea"},
		sector:   "Telecom",
		org:      "Telecom Service Provider",
	},
	{
		name:     "healthcare",
		keywords: []string{"health", "medical", "hospital", "pharma", "medicine", "doctor"},
		sector:   "Healthcare",
		org:      "Healthcare Provider",
	},
	{
		name:     "education",
		keywords: []string{"edu", "university", "college", "school", "institute", "academy"},
		sector:   "Education",
		org:      "Educational Institution",
	},
	{
		name:     "technology",
		keywords: []string{"tech", "software", "digital", "cloud", "infosys", "wipro"},
		sector:   "Technology",
		org:      "Technology Company",
	},
	{
		name:     "government-suffix",
		suffixes: []string{".gov.in", ".nic.in"},
		sector:   "Government",
		org:      "Government of India",
	},
	{
		name:     "education-suffix",
		suffixes: []string{".edu", ".ac.in"},
		sector:   "Education",
		org:      "Educational Institution",
	},
	{
		name:     "nonprofit-suffix",
		suffixes: []string{".org", ".org.in"},
		sector:   "Non-Profit",
		org:      "Non-Profit Organization",
	},
}

// defaultCategory is returned when no rule matches.
var defaultCategory = categoryRule{name: "default", sector: "Other", org: "Unknown Organization"}

// Categorize guesses (sector, organization) for a bare domain from its
// spelling alone. It is pure and deterministic.
//
//	sector, org := Categorize("sbi.co.in")
//	// sector == "BFSI", org == "Banking/Financial Services"
func Categorize(domain string) (sector, org string) {
	rule := matchRule(domain)
	return rule.sector, rule.org
}

// CategoryName returns the name of the rule that Categorize would apply.
func CategoryName(domain string) string {
	return matchRule(domain).name
}

func matchRule(domain string) categoryRule {
	d := strings.ToLower(strings.TrimSpace(domain))
	for _, r := range categoryRules {
		if r.matches(d) {
			return r
		}
	}
	return defaultCategory
}

// CategoryRule describes one entry of the categorizer table.
type CategoryRule struct {
	Name     string
	Keywords []string
	Suffixes []string
	Sector   string
	Org      string
}

// CategoryRules returns a copy of the rule table in evaluation order,
// followed by the default.
func CategoryRules() []CategoryRule {
	out := make([]CategoryRule, 0, len(categoryRules)+1)
	for _, r := range append(categoryRules[:len(categoryRules):len(categoryRules)], defaultCategory) {
		out = append(out, CategoryRule{
			Name:     r.name,
			Keywords: append([]string(nil), r.keywords...),
			Suffixes: append([]string(nil), r.suffixes...),
			Sector:   r.sector,
			Org:      r.org,
		})
	}
	return out
}
