package preferences

import (
	"regexp"
	"strings"
)

// Signals are the preference hints found in a single question.
type Signals struct {
	Languages     []string
	Interests     []string
	Skill         SkillLevel
	SkillDetected bool
}

var knownLanguages = []string{
	"python", "javascript", "typescript", "java", "c#", "csharp", "c++", "go", "rust",
	"ruby", "php", "kotlin", "swift", "html", "css", "shell", "scala", "r",
	"dart", "lua", "perl", "haskell", "julia", "objective-c", "elixir",
}

// languageAliases folds abbreviations and alternate spellings.
var languageAliases = map[string]string{
	"js":          "javascript",
	"ts":          "typescript",
	"py":          "python",
	"csharp":      "c#",
	"golang":      "go",
	"rb":          "ruby",
	"objective-c": "objectivec",
	"c++":         "cpp",
	"c plus plus": "cpp",
}

var languageTemplates = []*regexp.Regexp{
	regexp.MustCompile(`(\w+) projects`),
	regexp.MustCompile(`(\w+) repositories`),
	regexp.MustCompile(`(\w+) developers`),
	regexp.MustCompile(`(\w+) programming`),
	regexp.MustCompile(`coding in (\w+)`),
	regexp.MustCompile(`develop in (\w+)`),
	regexp.MustCompile(`(\w+) codebase`),
}

var knownInterests = []string{
	"web", "mobile", "data science", "machine learning", "ai", "game",
	"database", "frontend", "backend", "fullstack", "devops", "cloud",
	"security", "blockchain", "iot", "embedded", "desktop", "cli",
	"networking", "visualization", "automation", "testing", "docs",
	"documentation", "ui", "ux", "api", "microservices", "serverless",
	"graphics", "audio", "video", "image processing", "nlp",
}

// interestPhrases maps longer phrases and synonyms onto knownInterests.
// Order is kept so extraction output is deterministic.
var interestPhrases = [][2]string{
	{"web development", "web"},
	{"web dev", "web"},
	{"website", "web"},
	{"front end", "frontend"},
	{"front-end", "frontend"},
	{"back end", "backend"},
	{"back-end", "backend"},
	{"full stack", "fullstack"},
	{"full-stack", "fullstack"},
	{"data analysis", "data science"},
	{"data analytics", "data science"},
	{"ml", "machine learning"},
	{"artificial intelligence", "ai"},
	{"game development", "game"},
	{"game dev", "game"},
	{"gaming", "game"},
	{"cloud computing", "cloud"},
	{"cybersecurity", "security"},
	{"crypto", "blockchain"},
	{"internet of things", "iot"},
	{"embedded systems", "embedded"},
	{"desktop applications", "desktop"},
	{"desktop app", "desktop"},
	{"command line", "cli"},
	{"command-line", "cli"},
	{"terminal", "cli"},
	{"network", "networking"},
	{"data visualization", "visualization"},
	{"automate", "automation"},
	{"test", "testing"},
	{"document", "documentation"},
	{"docs", "documentation"},
	{"user interface", "ui"},
	{"user experience", "ux"},
	{"apis", "api"},
	{"rest", "api"},
	{"graphql", "api"},
	{"micro services", "microservices"},
	{"micro-services", "microservices"},
	{"lambda", "serverless"},
	{"computer graphics", "graphics"},
	{"audio processing", "audio"},
	{"video processing", "video"},
	{"image", "image processing"},
	{"natural language processing", "nlp"},
	{"text processing", "nlp"},
}

// Skill phrase lists; checked beginner → intermediate → advanced.
var skillPhrases = []struct {
	level   SkillLevel
	phrases []string
}{
	{Beginner, []string{
		"new to", "beginner", "starting out", "first time", "never contributed",
		"no experience", "newbie", "noob", "just learning", "just started",
		"learning to code", "new developer", "learning programming", "novice",
	}},
	{Intermediate, []string{
		"some experience", "intermediate", "familiar with", "worked with",
		"contributed before", "have experience", "comfortable with",
		"have used", "know how to", "proficient",
	}},
	{Advanced, []string{
		"advanced", "expert", "very experienced", "senior", "professional",
		"extensive experience", "many years", "maintain", "core contributor",
		"lead developer", "architect",
	}},
}

type vocabPattern struct {
	word      string
	canonical string
	re        *regexp.Regexp
}

var (
	languagePatterns []vocabPattern
	skillPatterns    []struct {
		level SkillLevel
		res   []*regexp.Regexp
	}
)

func init() {
	seen := map[string]bool{}
	add := func(word string) {
		if seen[word] {
			return
		}
		seen[word] = true
		languagePatterns = append(languagePatterns, vocabPattern{
			word:      word,
			canonical: CanonicalLanguage(word),
			re:        wholeWord(word),
		})
	}
	for _, lang := range knownLanguages {
		add(lang)
	}
	for _, alias := range []string{"js", "ts", "py", "golang", "rb", "c plus plus"} {
		add(alias)
	}

	for _, group := range skillPhrases {
		entry := struct {
			level SkillLevel
			res   []*regexp.Regexp
		}{level: group.level}
		for _, phrase := range group.phrases {
			entry.res = append(entry.res, regexp.MustCompile(`\b`+regexp.QuoteMeta(phrase)+`\b`))
		}
		skillPatterns = append(skillPatterns, entry)
	}
}

// wholeWord matches word when it is not glued to letters, digits or the
// symbols that are part of language names (so "c" never matches "c++").
func wholeWord(word string) *regexp.Regexp {
	return regexp.MustCompile(`(?:^|[^a-z0-9_+#])` + regexp.QuoteMeta(word) + `(?:$|[^a-z0-9_+#])`)
}

// CanonicalLanguage resolves aliases ("js" → "javascript", "golang" → "go").
func CanonicalLanguage(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if canonical, ok := languageAliases[lang]; ok {
		return canonical
	}
	return lang
}

func isLanguageWord(word string) bool {
	if _, ok := languageAliases[word]; ok {
		return true
	}
	for _, lang := range knownLanguages {
		if lang == word {
			return true
		}
	}
	return false
}

// DetectLanguages returns the canonical languages mentioned in text.
func DetectLanguages(text string) []string {
	lower := strings.ToLower(text)
	var found []string
	addUnique := func(lang string) {
		for _, f := range found {
			if f == lang {
				return
			}
		}
		found = append(found, lang)
	}

	for _, p := range languagePatterns {
		if p.re.MatchString(lower) {
			addUnique(p.canonical)
		}
	}

	for _, re := range languageTemplates {
		for _, m := range re.FindAllStringSubmatch(lower, -1) {
			if isLanguageWord(m[1]) {
				addUnique(CanonicalLanguage(m[1]))
			}
		}
	}
	return found
}

// DetectInterests returns the topics mentioned in text, folded onto the
// canonical topic vocabulary.
func DetectInterests(text string) []string {
	lower := strings.ToLower(text)
	var found []string
	contains := func(v string) bool {
		for _, f := range found {
			if f == v {
				return true
			}
		}
		return false
	}

	for _, interest := range knownInterests {
		if strings.Contains(lower, interest) {
			found = append(found, interest)
		}
	}
	for _, pair := range interestPhrases {
		if strings.Contains(lower, pair[0]) && !contains(pair[1]) {
			found = append(found, pair[1])
		}
	}
	return found
}

// DetectSkill returns the first skill level whose phrases appear in text.
func DetectSkill(text string) (SkillLevel, bool) {
	lower := strings.ToLower(text)
	for _, group := range skillPatterns {
		for _, re := range group.res {
			if re.MatchString(lower) {
				return group.level, true
			}
		}
	}
	return "", false
}

// Extract runs all three detectors.
func Extract(text string) Signals {
	skill, ok := DetectSkill(text)
	return Signals{
		Languages:     DetectLanguages(text),
		Interests:     DetectInterests(text),
		Skill:         skill,
		SkillDetected: ok,
	}
}
