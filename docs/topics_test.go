package docs

import (
	"bufio"
	"os"
	"regexp"
	"slices"
	"strings"
	"testing"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

func TestTopics(t *testing.T) {
	// Every topic listed in readme.md can be loaded, and every topic is listed.
	file, err := os.Open("readme.md")
	if err != nil {
		t.Fatalf("failed to open readme.md: %v", err)
	}
	defer file.Close()

	var listed []string
	scanner := bufio.NewScanner(file)
	topicRegex := regexp.MustCompile(`^\*\s+([^:]+):.*$`)
	for scanner.Scan() {
		if m := topicRegex.FindStringSubmatch(scanner.Text()); len(m) > 1 {
			listed = append(listed, strings.TrimSpace(m[1]))
		}
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("error scanning readme.md: %v", err)
	}

	for _, topic := range listed {
		if _, err := Topic(topic); err != nil {
			t.Errorf("Topic(%q) error: %v", topic, err)
		}
	}
	for _, topic := range All() {
		if !slices.Contains(listed, topic) {
			t.Errorf("topic %q is not listed in readme.md", topic)
		}
	}
}

func TestTopicsStar(t *testing.T) {
	all, err := Topics("*")
	if err != nil {
		t.Fatalf("Topics(*) error: %v", err)
	}
	for _, topic := range All() {
		content, _ := Topic(topic)
		if !strings.Contains(all, content) {
			t.Errorf("Topics(*) does not contain %q", topic)
		}
	}
	if _, err := Topics("readme", "nope"); err == nil {
		t.Errorf("Topics(nope) want error")
	}
}

// TestHeadings checks that every topic starts with a single level 1 heading.
func TestHeadings(t *testing.T) {
	for _, topic := range append(All(), Readme) {
		content, err := Topic(topic)
		if err != nil {
			t.Fatal(err)
		}
		source := []byte(content)
		root := goldmark.DefaultParser().Parse(text.NewReader(source))

		var titles int
		ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
			if h, ok := n.(*ast.Heading); ok && entering && h.Level == 1 {
				titles++
			}
			return ast.WalkContinue, nil
		})
		if titles != 1 {
			t.Errorf("topic %q has %d level 1 headings want 1", topic, titles)
		}
		if first, ok := root.FirstChild().(*ast.Heading); !ok || first.Level != 1 {
			t.Errorf("topic %q does not start with a level 1 heading", topic)
		}
	}
}
