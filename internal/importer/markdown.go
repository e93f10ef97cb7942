// Package importer bulk-creates memory fragments from Markdown files.
// Each file becomes one fragment; YAML frontmatter supplies category,
// tags, and importance, and inline #hashtags are merged into the tags.
package importer

import (
	"bufio"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/scrypster/persona/pkg/types"
)

// ParsedFile is the result of parsing one Markdown note.
type ParsedFile struct {
	// Content is the Markdown body with frontmatter stripped.
	Content string

	// Frontmatter holds the parsed YAML frontmatter key/value pairs.
	Frontmatter map[string]interface{}

	// Tags is the merged set of tags from frontmatter and inline #tags.
	Tags []string

	// Category is the fragment category from the frontmatter, already
	// validated against the known category values.
	Category types.Category

	// Importance is the clamped importance from the frontmatter, or the
	// default when absent.
	Importance int
}

// ParseMarkdown parses a single Markdown file into fragment fields.
// relativePath is only used for error messages.
func ParseMarkdown(content []byte, relativePath string) (*ParsedFile, error) {
	text := string(content)
	if strings.ContainsRune(text, '\x00') {
		return nil, fmt.Errorf("%s: binary content", relativePath)
	}

	fm, body, err := splitFrontmatter(text)
	if err != nil {
		return nil, fmt.Errorf("frontmatter parse error in %s: %w", relativePath, err)
	}

	category := types.Category(extractString(fm, "category", ""))
	if !category.IsValid() {
		category = types.CategoryOther
	}

	importance := types.DefaultImportance
	if v, ok := extractInt(fm, "importance"); ok {
		importance = types.ClampImportance(v)
	}

	tags := mergeTags(extractTags(fm), extractInlineTags(body))

	return &ParsedFile{
		Content:     strings.TrimSpace(body),
		Frontmatter: fm,
		Tags:        tags,
		Category:    category,
		Importance:  importance,
	}, nil
}

// Fragment converts the parsed file into a fragment ready for the store.
// The store assigns identity and timestamps.
func (pf *ParsedFile) Fragment() types.Fragment {
	return types.Fragment{
		Content:    pf.Content,
		Category:   pf.Category,
		Tags:       pf.Tags,
		Importance: pf.Importance,
		Enabled:    true,
	}
}

// splitFrontmatter separates YAML frontmatter (between --- delimiters) from
// the Markdown body. Returns empty map and full text when no frontmatter found.
func splitFrontmatter(text string) (map[string]interface{}, string, error) {
	scanner := bufio.NewScanner(strings.NewReader(text))

	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}

	if len(lines) == 0 {
		return map[string]interface{}{}, text, nil
	}

	// Frontmatter must start with "---" on the first line.
	if strings.TrimSpace(lines[0]) != "---" {
		return map[string]interface{}{}, text, nil
	}

	// Find closing "---".
	closeIdx := -1
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			closeIdx = i
			break
		}
	}

	if closeIdx == -1 {
		// No closing delimiter - treat entire file as body.
		return map[string]interface{}{}, text, nil
	}

	fmText := strings.Join(lines[1:closeIdx], "\n")
	fm := make(map[string]interface{})
	if err := yaml.Unmarshal([]byte(fmText), &fm); err != nil {
		return map[string]interface{}{}, text, fmt.Errorf("invalid YAML: %w", err)
	}

	body := strings.Join(lines[closeIdx+1:], "\n")
	return fm, body, nil
}

// extractTags reads tags from frontmatter. Handles both list and string forms.
func extractTags(fm map[string]interface{}) []string {
	raw, ok := fm["tags"]
	if !ok {
		return nil
	}

	switch v := raw.(type) {
	case []interface{}:
		var tags []string
		for _, item := range v {
			if s, ok := item.(string); ok && s != "" {
				tags = append(tags, s)
			}
		}
		return tags
	case string:
		if v == "" {
			return nil
		}
		// Comma-separated tags in a single string.
		var tags []string
		for _, t := range strings.Split(v, ",") {
			if t = strings.TrimSpace(t); t != "" {
				tags = append(tags, t)
			}
		}
		return tags
	}
	return nil
}

// extractString pulls a string value from frontmatter by key with a default.
func extractString(fm map[string]interface{}, key, defaultVal string) string {
	v, ok := fm[key]
	if !ok {
		return defaultVal
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s)
	}
	return defaultVal
}

// extractInt pulls an integer value from frontmatter by key. YAML numbers
// decode as int; quoted numbers arrive as strings and are parsed too.
func extractInt(fm map[string]interface{}, key string) (int, bool) {
	raw, ok := fm[key]
	if !ok {
		return 0, false
	}
	switch v := raw.(type) {
	case int:
		return v, true
	case float64:
		return int(v), true
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n, true
		}
	}
	return 0, false
}

// inlineTagRe finds #hashtag patterns in body text.
var inlineTagRe = regexp.MustCompile(`(?:^|\s)#([A-Za-z][A-Za-z0-9_/-]*)`)

// extractInlineTags finds #hashtag patterns in body text.
func extractInlineTags(body string) []string {
	matches := inlineTagRe.FindAllStringSubmatch(body, -1)
	seen := make(map[string]bool)
	var tags []string
	for _, m := range matches {
		tag := strings.TrimSpace(m[1])
		lower := strings.ToLower(tag)
		if !seen[lower] {
			seen[lower] = true
			tags = append(tags, tag)
		}
	}
	return tags
}

// mergeTags combines two tag slices deduplicating by lowercase value.
func mergeTags(a, b []string) []string {
	seen := make(map[string]bool)
	var result []string
	for _, tag := range append(a, b...) {
		lower := strings.ToLower(tag)
		if !seen[lower] {
			seen[lower] = true
			result = append(result, tag)
		}
	}
	return result
}
