package skills

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

type TechCategory string

const (
	TechLanguage       TechCategory = "language"
	TechFramework      TechCategory = "framework"
	TechDatabase       TechCategory = "database"
	TechInfrastructure TechCategory = "infrastructure"
	TechSecurityCert   TechCategory = "security_cert"
	TechMethodology    TechCategory = "methodology"
	TechTool           TechCategory = "tool"
)

type RequirementLevel string

const (
	RequirementMandatory  RequirementLevel = "mandatory"
	RequirementNiceToHave RequirementLevel = "nice_to_have"
	RequirementForbidden  RequirementLevel = "forbidden"
)

// TechEntity is one normalized technology mention.
type TechEntity struct {
	Raw       string
	Canonical string
	Category  TechCategory
	Level     RequirementLevel
	Version   string
}

// TechStackReport is the result of extracting technology mentions from text.
type TechStackReport struct {
	Entities   []TechEntity
	Mandatory  []TechEntity
	NiceToHave []TechEntity
	Forbidden  []TechEntity
	Summary    string
}

type canonicalEntry struct {
	name     string
	category TechCategory
}

// Alias -> canonical name and category. Longest alias wins on overlap.
var canonicalMap = map[string]canonicalEntry{
	"javascript": {"JavaScript", TechLanguage},
	"typescript": {"TypeScript", TechLanguage},
	"node.js":    {"Node.js", TechFramework},
	"nodejs":     {"Node.js", TechFramework},
	"react":      {"React", TechFramework},
	"angular":    {"Angular", TechFramework},
	"vue.js":     {"Vue.js", TechFramework},
	"vue":        {"Vue.js", TechFramework},
	"next.js":    {"Next.js", TechFramework},

	"python":  {"Python", TechLanguage},
	"django":  {"Django", TechFramework},
	"flask":   {"Flask", TechFramework},
	"fastapi": {"FastAPI", TechFramework},

	"java":        {"Java", TechLanguage},
	"spring boot": {"Spring Boot", TechFramework},
	"springboot":  {"Spring Boot", TechFramework},
	"spring":      {"Spring Framework", TechFramework},
	"hibernate":   {"Hibernate", TechFramework},
	"maven":       {"Maven", TechTool},
	"gradle":      {"Gradle", TechTool},

	"c#":     {"C#", TechLanguage},
	".net":   {".NET", TechFramework},
	"dotnet": {".NET", TechFramework},
	"golang": {"Go", TechLanguage},
	"rust":   {"Rust", TechLanguage},
	"php":    {"PHP", TechLanguage},
	"ruby":   {"Ruby", TechLanguage},

	"postgresql":    {"PostgreSQL", TechDatabase},
	"postgres":      {"PostgreSQL", TechDatabase},
	"mysql":         {"MySQL", TechDatabase},
	"mariadb":       {"MariaDB", TechDatabase},
	"oracle":        {"Oracle Database", TechDatabase},
	"sql server":    {"SQL Server", TechDatabase},
	"mongodb":       {"MongoDB", TechDatabase},
	"redis":         {"Redis", TechDatabase},
	"elasticsearch": {"Elasticsearch", TechDatabase},
	"sqlite":        {"SQLite", TechDatabase},

	"aws":          {"AWS", TechInfrastructure},
	"azure":        {"Microsoft Azure", TechInfrastructure},
	"gcp":          {"Google Cloud Platform", TechInfrastructure},
	"google cloud": {"Google Cloud Platform", TechInfrastructure},
	"docker":       {"Docker", TechInfrastructure},
	"kubernetes":   {"Kubernetes", TechInfrastructure},
	"k8s":          {"Kubernetes", TechInfrastructure},
	"terraform":    {"Terraform", TechInfrastructure},
	"jenkins":      {"Jenkins", TechInfrastructure},
	"nginx":        {"NGINX", TechInfrastructure},
	"kafka":        {"Apache Kafka", TechInfrastructure},
	"rabbitmq":     {"RabbitMQ", TechInfrastructure},
	"prometheus":   {"Prometheus", TechInfrastructure},
	"grafana":      {"Grafana", TechInfrastructure},

	"iso 27001": {"ISO 27001", TechSecurityCert},
	"iso27001":  {"ISO 27001", TechSecurityCert},
	"iso 9001":  {"ISO 9001", TechSecurityCert},
	"soc 2":     {"SOC 2", TechSecurityCert},
	"soc2":      {"SOC 2", TechSecurityCert},
	"gdpr":      {"GDPR", TechSecurityCert},
	"pci dss":   {"PCI DSS", TechSecurityCert},
	"oauth2":    {"OAuth 2.0", TechSecurityCert},
	"oauth":     {"OAuth", TechSecurityCert},
	"saml":      {"SAML", TechSecurityCert},
	"ldap":      {"LDAP", TechSecurityCert},
	"tls":       {"SSL/TLS", TechSecurityCert},
	"ssl":       {"SSL/TLS", TechSecurityCert},

	"agile":  {"Agile", TechMethodology},
	"scrum":  {"Scrum", TechMethodology},
	"kanban": {"Kanban", TechMethodology},
	"devops": {"DevOps", TechMethodology},
	"ci/cd":  {"CI/CD", TechMethodology},

	"git":     {"Git", TechTool},
	"github":  {"GitHub", TechTool},
	"gitlab":  {"GitLab", TechTool},
	"jira":    {"Jira", TechTool},
	"swagger": {"Swagger/OpenAPI", TechTool},
	"openapi": {"Swagger/OpenAPI", TechTool},
}

var mandatoryKeywords = []string{
	"debe", "deberá", "deberan", "obligatorio", "obligatoria",
	"requerido", "requerida", "imprescindible", "indispensable",
	"excluyente", "necesario", "necesaria", "exigido", "exigida",
	"must", "shall", "required", "mandatory", "essential",
}

var niceToHaveKeywords = []string{
	"valorará", "valorara", "deseable", "preferible", "preferente",
	"opcional", "plus", "bonificará", "bonificara", "puntuará",
	"puntuara", "adicional", "ventaja", "bonus",
	"preferred", "nice to have", "optional", "desirable", "advantage",
}

var forbiddenKeywords = []string{
	"no usar", "no utilizar", "prohibido", "prohibida",
	"evitar", "nunca", "migrar desde", "migrar de",
	"reemplazar", "sustituir", "legacy", "obsoleto", "obsoleta",
	"descartado", "descartada", "excluido", "excluida",
	"must not", "forbidden", "avoid", "deprecated",
}

const contextWindow = 50

// TechStackMapper extracts technology mentions from RFP text and normalizes
// them to canonical names with a requirement level inferred from nearby
// keywords.
type TechStackMapper struct {
	pattern        *regexp.Regexp
	versionPattern *regexp.Regexp
}

func NewTechStackMapper() *TechStackMapper {
	aliases := make([]string, 0, len(canonicalMap))
	for alias := range canonicalMap {
		aliases = append(aliases, alias)
	}
	// Longer aliases must win, so they come first in the alternation.
	sort.Slice(aliases, func(i, j int) bool { return len(aliases[i]) > len(aliases[j]) })
	for i, a := range aliases {
		aliases[i] = regexp.QuoteMeta(a)
	}

	return &TechStackMapper{
		pattern:        regexp.MustCompile(`(?i)(^|[^\p{L}\p{N}])(` + strings.Join(aliases, "|") + `)($|[^\p{L}\p{N}])`),
		versionPattern: regexp.MustCompile(`^\s*(\d+(?:\.\d+)*|[<>=!]+\s*\d+(?:\.\d+)*)`),
	}
}

// Extract analyzes text and returns all detected technologies, deduplicated
// by canonical name. Empty input is an error.
func (m *TechStackMapper) Extract(text string) (*TechStackReport, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("tech stack extraction requires non-empty text")
	}

	seen := map[string]bool{}
	var entities []TechEntity

	for _, loc := range m.pattern.FindAllStringSubmatchIndex(text, -1) {
		start, end := loc[4], loc[5] // the alias capture group
		raw := text[start:end]
		entry, ok := canonicalMap[strings.ToLower(raw)]
		if !ok || seen[entry.name] {
			continue
		}
		seen[entry.name] = true

		ctxStart := start - contextWindow
		if ctxStart < 0 {
			ctxStart = 0
		}
		ctxEnd := end + contextWindow
		if ctxEnd > len(text) {
			ctxEnd = len(text)
		}
		context := text[ctxStart:ctxEnd]

		entities = append(entities, TechEntity{
			Raw:       raw,
			Canonical: entry.name,
			Category:  entry.category,
			Level:     detectRequirementLevel(context),
			Version:   m.extractVersion(text[end:]),
		})
	}

	report := &TechStackReport{Entities: entities}
	for _, e := range entities {
		switch e.Level {
		case RequirementMandatory:
			report.Mandatory = append(report.Mandatory, e)
		case RequirementNiceToHave:
			report.NiceToHave = append(report.NiceToHave, e)
		case RequirementForbidden:
			report.Forbidden = append(report.Forbidden, e)
		}
	}
	report.Summary = buildSummary(report)
	return report, nil
}

func (m *TechStackMapper) extractVersion(after string) string {
	if len(after) > 15 {
		after = after[:15]
	}
	if match := m.versionPattern.FindStringSubmatch(after); match != nil {
		return strings.TrimSpace(match[1])
	}
	return ""
}

// detectRequirementLevel scores keyword hits sentence by sentence. Short
// sentences count for more: a direct "prohibido usar X" is a stronger signal
// than a keyword buried in a long paragraph. Priority: forbidden over
// nice-to-have over mandatory; the default for RFPs is mandatory.
func detectRequirementLevel(context string) RequirementLevel {
	lower := strings.ToLower(strings.ReplaceAll(context, "\n", ". "))
	sentences := strings.Split(lower, ".")

	scores := map[RequirementLevel]int{}
	for _, sentence := range sentences {
		sentence = strings.TrimSpace(sentence)
		if sentence == "" {
			continue
		}
		words := len(strings.Fields(sentence))
		score := func(short int, keywords []string, level RequirementLevel) {
			for _, kw := range keywords {
				if strings.Contains(sentence, kw) {
					if words < short {
						scores[level] += 3
					} else {
						scores[level]++
					}
				}
			}
		}
		score(15, forbiddenKeywords, RequirementForbidden)
		score(20, niceToHaveKeywords, RequirementNiceToHave)
		score(20, mandatoryKeywords, RequirementMandatory)
	}

	switch {
	case scores[RequirementForbidden] >= 2:
		return RequirementForbidden
	case scores[RequirementNiceToHave] >= 2:
		return RequirementNiceToHave
	default:
		return RequirementMandatory
	}
}

func buildSummary(r *TechStackReport) string {
	var parts []string

	if len(r.Mandatory) > 0 {
		names := canonicalNames(r.Mandatory, 5)
		s := "Stack requerido: " + strings.Join(names, ", ")
		if extra := len(r.Mandatory) - 5; extra > 0 {
			s += fmt.Sprintf(" (+%d más)", extra)
		}
		parts = append(parts, s)
	}
	if len(r.NiceToHave) > 0 {
		parts = append(parts, "Deseable: "+strings.Join(canonicalNames(r.NiceToHave, 3), ", "))
	}
	if len(r.Forbidden) > 0 {
		parts = append(parts, "Prohibido: "+strings.Join(canonicalNames(r.Forbidden, len(r.Forbidden)), ", "))
	}

	if len(parts) == 0 {
		return "No se detectaron tecnologías."
	}
	return strings.Join(parts, ". ") + "."
}

func canonicalNames(entities []TechEntity, limit int) []string {
	if len(entities) < limit {
		limit = len(entities)
	}
	names := make([]string, 0, limit)
	for _, e := range entities[:limit] {
		names = append(names, e.Canonical)
	}
	return names
}
