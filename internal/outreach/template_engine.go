package outreach

import (
	"fmt"
	"math/rand"
	"regexp"
	"strings"
	"sync"
)

// The outreach template language, processed in a fixed order:
//
//  1. Conditionals   {if:VAR}...{/if}, {if:VAR}...{else}...{/if}, {ifnot:VAR}...{/ifnot}
//  2. Fallbacks      {{VAR|fallback}}
//  3. Spintax        {option a|option b|option c}
//  4. Plain vars     {{VAR}}
//
// Smart placeholders ([free-form instruction]) are never resolved here; an
// external service replaces them before the message may enter the queue.

var (
	ifElseRe  = regexp.MustCompile(`(?s)\{if:([a-zA-Z0-9_.]+)\}(.*?)\{else\}(.*?)\{/if\}`)
	ifRe      = regexp.MustCompile(`(?s)\{if:([a-zA-Z0-9_.]+)\}(.*?)\{/if\}`)
	ifNotRe   = regexp.MustCompile(`(?s)\{ifnot:([a-zA-Z0-9_.]+)\}(.*?)\{/ifnot\}`)
	fallbackRe = regexp.MustCompile(`\{\{\s*([a-zA-Z0-9_.]+)\s*\|([^{}]*)\}\}`)
	spintaxRe = regexp.MustCompile(`\{([^{}|]*(?:\|[^{}|]*)+)\}`)
	plainVarRe = regexp.MustCompile(`\{\{\s*([a-zA-Z0-9_.]+)\s*\}\}`)

	smartPlaceholderRe = regexp.MustCompile(`\[[^\[\]]+\]`)

	greetingNameRe = regexp.MustCompile(`\b(Hi|Hello|Hey|Dear)\s+([A-Z][a-z]+)([\s,!.]|$)`)
	honorificRe    = regexp.MustCompile(`\b(Mr\.|Ms\.|Mrs\.)\s+([A-Z][a-z]+)([\s,!.]|$)`)
)

// TemplateEngine renders outreach templates. The zero-value-unsafe rng is
// injectable so previews and tests are deterministic.
type TemplateEngine struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewTemplateEngine returns an engine seeded for production sends.
func NewTemplateEngine() *TemplateEngine {
	return &TemplateEngine{rng: rand.New(rand.NewSource(rand.Int63()))}
}

// NewSeededTemplateEngine returns an engine with a fixed seed for tests.
func NewSeededTemplateEngine(seed int64) *TemplateEngine {
	return &TemplateEngine{rng: rand.New(rand.NewSource(seed))}
}

// Render substitutes the template against vars, choosing spintax options at
// random. Missing variables resolve to the empty string.
func (e *TemplateEngine) Render(text string, vars map[string]string) string {
	return e.render(text, vars, -1)
}

// RenderPreview renders deterministically: spintax block i resolves to
// option (variationIndex mod optionCount).
func (e *TemplateEngine) RenderPreview(text string, vars map[string]string, variationIndex int) string {
	if variationIndex < 0 {
		variationIndex = 0
	}
	return e.render(text, vars, variationIndex)
}

func (e *TemplateEngine) render(text string, vars map[string]string, variationIndex int) string {
	out := resolveConditionals(text, vars)
	out = resolveFallbacks(out, vars)
	out = e.resolveSpintax(out, variationIndex)
	out = resolvePlainVars(out, vars)
	return out
}

// lookupVar resolves a variable in both camelCase and snake_case forms,
// including custom_fields.* paths.
func lookupVar(vars map[string]string, name string) (string, bool) {
	if v, ok := vars[name]; ok {
		return v, true
	}
	if v, ok := vars[toSnake(name)]; ok {
		return v, true
	}
	if v, ok := vars[toCamel(name)]; ok {
		return v, true
	}
	if rest, ok := strings.CutPrefix(name, "custom_fields."); ok {
		if v, found := vars[rest]; found {
			return v, true
		}
	}
	return "", false
}

func hasValue(vars map[string]string, name string) bool {
	v, ok := lookupVar(vars, name)
	return ok && strings.TrimSpace(v) != ""
}

// resolveConditionals keeps or drops branches in a single outer-first pass.
// Nested blocks of the same kind are not supported.
func resolveConditionals(text string, vars map[string]string) string {
	text = ifElseRe.ReplaceAllStringFunc(text, func(m string) string {
		parts := ifElseRe.FindStringSubmatch(m)
		if hasValue(vars, parts[1]) {
			return parts[2]
		}
		return parts[3]
	})
	text = ifRe.ReplaceAllStringFunc(text, func(m string) string {
		parts := ifRe.FindStringSubmatch(m)
		if hasValue(vars, parts[1]) {
			return parts[2]
		}
		return ""
	})
	text = ifNotRe.ReplaceAllStringFunc(text, func(m string) string {
		parts := ifNotRe.FindStringSubmatch(m)
		if hasValue(vars, parts[1]) {
			return ""
		}
		return parts[2]
	})
	return text
}

func resolveFallbacks(text string, vars map[string]string) string {
	return fallbackRe.ReplaceAllStringFunc(text, func(m string) string {
		parts := fallbackRe.FindStringSubmatch(m)
		if v, ok := lookupVar(vars, parts[1]); ok && strings.TrimSpace(v) != "" {
			return v
		}
		return parts[2]
	})
}

func (e *TemplateEngine) resolveSpintax(text string, variationIndex int) string {
	return spintaxRe.ReplaceAllStringFunc(text, func(m string) string {
		inner := m[1 : len(m)-1]
		options := strings.Split(inner, "|")
		if len(options) == 0 {
			return ""
		}
		if variationIndex >= 0 {
			return options[variationIndex%len(options)]
		}
		e.mu.Lock()
		idx := e.rng.Intn(len(options))
		e.mu.Unlock()
		return options[idx]
	})
}

func resolvePlainVars(text string, vars map[string]string) string {
	return plainVarRe.ReplaceAllStringFunc(text, func(m string) string {
		parts := plainVarRe.FindStringSubmatch(m)
		v, _ := lookupVar(vars, parts[1])
		return v
	})
}

// ContainsSmartPlaceholders reports whether the text still carries any
// [bracketed instruction] for the AI rewrite pass.
func ContainsSmartPlaceholders(text string) bool {
	return smartPlaceholderRe.MatchString(text)
}

// ValidateRendered rejects output that still contains template markers or
// unresolved smart placeholders. Emails failing this check must not be
// queued.
func ValidateRendered(text string) error {
	switch {
	case strings.Contains(text, "{{"):
		return fmt.Errorf("rendered output contains unresolved variable markers")
	case strings.Contains(text, "{if:"), strings.Contains(text, "{ifnot:"),
		strings.Contains(text, "{/if}"), strings.Contains(text, "{/ifnot}"):
		return fmt.Errorf("rendered output contains unresolved conditional markers")
	case smartPlaceholderRe.MatchString(text):
		return fmt.Errorf("rendered output contains unresolved smart placeholders")
	}
	return nil
}

// VariableWarning describes a hygiene fix applied to imported content.
type VariableWarning struct {
	Original string
	Fixed    string
	Message  string
}

// ValidateAndFixVariables rewrites hardcoded greeting names in AI-generated
// content into {{firstName}} substitutions, returning the fixed text and a
// warning per rewrite.
func ValidateAndFixVariables(text string) (string, []VariableWarning) {
	var warnings []VariableWarning

	fix := func(re *regexp.Regexp, input string) string {
		return re.ReplaceAllStringFunc(input, func(m string) string {
			parts := re.FindStringSubmatch(m)
			fixed := parts[1] + " {{firstName}}" + parts[3]
			warnings = append(warnings, VariableWarning{
				Original: m,
				Fixed:    fixed,
				Message:  fmt.Sprintf("hardcoded greeting name %q replaced with {{firstName}}", parts[2]),
			})
			return fixed
		})
	}

	text = fix(greetingNameRe, text)
	text = fix(honorificRe, text)
	return text, warnings
}

// toSnake converts camelCase to snake_case: firstName -> first_name.
func toSnake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r - 'A' + 'a')
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// toCamel converts snake_case to camelCase: first_name -> firstName.
func toCamel(s string) string {
	parts := strings.Split(s, "_")
	if len(parts) == 1 {
		return s
	}
	var b strings.Builder
	b.WriteString(parts[0])
	for _, p := range parts[1:] {
		if p == "" {
			continue
		}
		b.WriteString(strings.ToUpper(p[:1]))
		b.WriteString(p[1:])
	}
	return b.String()
}
