package services

import (
	"log"
	"regexp"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
)

var (
	htmlTagPattern    = regexp.MustCompile(`(?i)<(?:p|br|div|ul|ol|li|h[1-6]|strong|em|b|i|span)\b[^>]*>`)
	headingPattern    = regexp.MustCompile(`(?m)^[ \t]*#{1,6}[ \t]+`)
	emphasisPattern   = regexp.MustCompile(`\*\*|__`)
	horizontalPattern = regexp.MustCompile(`(?m)^[ \t]*(?:-{3,}|\*{3,}|_{3,})[ \t]*$`)
)

// NormalizePlanText prepares generated text for the itinerary parser:
// HTML becomes markdown, then markdown emphasis and heading marks are dropped
// so "**Day 1:** Vienna" reads "Day 1: Vienna".
func NormalizePlanText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")

	if htmlTagPattern.MatchString(text) {
		markdown, err := htmltomarkdown.ConvertString(text)
		if err != nil {
			log.Printf("[PLANNER] HTML to markdown conversion failed, using raw text: %v", err)
		} else {
			text = markdown
		}
	}

	text = headingPattern.ReplaceAllString(text, "")
	text = emphasisPattern.ReplaceAllString(text, "")
	text = horizontalPattern.ReplaceAllString(text, "")

	return strings.TrimSpace(text)
}
