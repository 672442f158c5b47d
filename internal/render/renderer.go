// Package render formats the assistant's replies. Every intent except
// general questions gets a deterministic markdown template so prices, part
// numbers and stock status never pass through the language model.
package render

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/partpilot/server/internal/agent/model"
	"github.com/partpilot/server/internal/rules"
)

const (
	emptySearchReply = "I couldn't find any parts matching your search. Could you provide more details or try different keywords?"

	emptyDiagnosisReply = "I understand you're having an issue, but I need more information. Can you describe what's happening in more detail?"

	emptyDetailsReply = "I couldn't find that part number in our database. Could you double-check the part number?"

	emptyInstallationReply = "I couldn't find that part. Could you provide the part number or try searching for the part first?"
)

// Renderer builds templated replies from the turn's recommended parts.
type Renderer struct {
	rules  *rules.Rules
	guides model.GuideLookup
}

func New(r *rules.Rules, guides model.GuideLookup) *Renderer {
	return &Renderer{rules: r, guides: guides}
}

// Search lists the recommended parts with prices, stock and links.
func (r *Renderer) Search(state *model.ConversationState) string {
	parts := state.RecommendedParts
	if len(parts) == 0 {
		return emptySearchReply
	}

	var b strings.Builder
	if state.Reasoning != "" {
		fmt.Fprintf(&b, "%s\n\n", state.Reasoning)
	}
	b.WriteString("Here are the parts I found:\n\n")

	for i, part := range top3(parts) {
		fmt.Fprintf(&b, "%d. **%s** (Part #%s)\n", i+1, r.rules.CleanProductName(part.Name), part.PartNumber)
		fmt.Fprintf(&b, "   - Brand: %s\n", part.Brand)
		fmt.Fprintf(&b, "   - Price: %s\n", price(part.Price))
		fmt.Fprintf(&b, "   - %s\n", stockBadge(part.InStock))
		if url := part.ProductURL(); url != "" {
			fmt.Fprintf(&b, "   - 🔗 View: %s\n", url)
		}
		b.WriteString("\n")
	}

	b.WriteString("Would you like more details about any of these parts?")
	return b.String()
}

// Diagnosis opens with the ranker's reasoning and lists the likely fixes.
func (r *Renderer) Diagnosis(state *model.ConversationState) string {
	parts := state.RecommendedParts
	if len(parts) == 0 {
		return emptyDiagnosisReply
	}

	var b strings.Builder
	b.WriteString("Based on the symptoms you described, here's what might help:\n\n")
	if state.Reasoning != "" {
		fmt.Fprintf(&b, "%s\n\n", state.Reasoning)
	}
	b.WriteString("**Recommended parts:**\n\n")

	for i, part := range top3(parts) {
		fmt.Fprintf(&b, "%d. **%s** (%s)\n", i+1, r.rules.CleanProductName(part.Name), price(part.Price))
		fmt.Fprintf(&b, "   Part #: %s\n", part.PartNumber)
		fmt.Fprintf(&b, "   Brand: %s\n", part.Brand)
		if url := part.ProductURL(); url != "" {
			fmt.Fprintf(&b, "   🔗 %s\n", url)
		}
		b.WriteString("\n")
	}

	b.WriteString("Would you like installation instructions for any of these parts?")
	return b.String()
}

// ProductDetails renders the full catalog card for the first recommended
// part, including its installation summary when one exists.
func (r *Renderer) ProductDetails(ctx context.Context, state *model.ConversationState) (string, error) {
	if len(state.RecommendedParts) == 0 {
		return emptyDetailsReply, nil
	}
	part := state.RecommendedParts[0].Part

	var b strings.Builder
	fmt.Fprintf(&b, "**%s**\n\n", r.rules.CleanProductName(part.Name))
	fmt.Fprintf(&b, "**Part Number:** %s\n", part.PartNumber)
	fmt.Fprintf(&b, "**Price:** %s\n", price(part.Price))
	fmt.Fprintf(&b, "**Brand:** %s\n", part.Brand)
	fmt.Fprintf(&b, "**Category:** %s\n", title(part.Category))
	fmt.Fprintf(&b, "**Availability:** %s\n\n", stockTitle(part.InStock))

	if url := part.ProductURL(); url != "" {
		fmt.Fprintf(&b, "**🔗 View Product Page:** %s\n\n", url)
	}
	if part.Description != "" {
		fmt.Fprintf(&b, "**Description:**\n%s\n\n", part.Description)
	}
	if replaces := part.Specifications.ReplaceParts; len(replaces) > 0 {
		b.WriteString("**Compatible Part Numbers:**\n")
		b.WriteString(strings.Join(capList(replaces, 5), ", "))
		b.WriteString("\n\n")
	}
	if symptoms := part.Specifications.Symptoms; len(symptoms) > 0 {
		b.WriteString("**Fixes These Issues:**\n")
		for _, symptom := range capList(symptoms, 5) {
			fmt.Fprintf(&b, "• %s\n", symptom)
		}
		b.WriteString("\n")
	}

	guide, err := r.guides(ctx, part.PartNumber)
	if err != nil {
		return "", err
	}
	if guide != nil {
		b.WriteString("**Installation Information:**\n")
		fmt.Fprintf(&b, "• Difficulty: %s\n", title(guide.Difficulty))
		fmt.Fprintf(&b, "• Estimated Time: %d minutes\n", guide.EstimatedTimeMinutes)
		if guide.VideoURL != "" {
			fmt.Fprintf(&b, "• 📹 Video Tutorial: %s\n", guide.VideoURL)
		}
	}

	b.WriteString("\nNeed help with installation or have questions? Just ask!")
	return b.String(), nil
}

// Installation walks the user through installing the first recommended
// part, falling back to generic steps when no guide is on file.
func (r *Renderer) Installation(ctx context.Context, state *model.ConversationState) (string, error) {
	if len(state.RecommendedParts) == 0 {
		return emptyInstallationReply, nil
	}
	part := state.RecommendedParts[0].Part

	guide, err := r.guides(ctx, part.PartNumber)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "**Installation Guide for %s**\n\n", r.rules.CleanProductName(part.Name))
	fmt.Fprintf(&b, "Part Number: %s\n", part.PartNumber)
	fmt.Fprintf(&b, "Price: %s\n", price(part.Price))
	if url := part.ProductURL(); url != "" {
		fmt.Fprintf(&b, "🔗 Product Page: %s\n", url)
	}
	b.WriteString("\n")

	if guide != nil {
		fmt.Fprintf(&b, "**Difficulty:** %s\n", title(guide.Difficulty))
		fmt.Fprintf(&b, "**Estimated Time:** %d minutes\n\n", guide.EstimatedTimeMinutes)
		if len(guide.ToolsRequired) > 0 {
			fmt.Fprintf(&b, "**Tools Needed:** %s\n\n", strings.Join(guide.ToolsRequired, ", "))
		}
		if guide.VideoURL != "" {
			fmt.Fprintf(&b, "**📹 Video Tutorial:** %s\n\n", guide.VideoURL)
			b.WriteString("Watch the video for step-by-step visual instructions!\n\n")
		}
		if guide.PDFURL != "" {
			fmt.Fprintf(&b, "**📄 PDF Guide:** %s\n\n", guide.PDFURL)
		}
	} else {
		b.WriteString("⚠️ Detailed installation guide not available for this specific part.\n\n")
		b.WriteString("However, general installation tips:\n")
		b.WriteString("1. Turn off power/water supply\n")
		b.WriteString("2. Remove old part carefully\n")
		b.WriteString("3. Clean the area\n")
		b.WriteString("4. Install new part following reverse removal steps\n")
		b.WriteString("5. Test for proper operation\n\n")
	}

	fmt.Fprintf(&b, "Stock Status: %s\n\n", stockBadge(part.InStock))
	b.WriteString("Need more help? Feel free to ask!")
	return b.String(), nil
}

func top3(parts []model.RecommendedPart) []model.RecommendedPart {
	if len(parts) > 3 {
		return parts[:3]
	}
	return parts
}

func capList(items []string, n int) []string {
	if len(items) > n {
		return items[:n]
	}
	return items
}

func price(v float64) string {
	return fmt.Sprintf("$%.2f", v)
}

func stockBadge(inStock bool) string {
	if inStock {
		return "✅ In stock"
	}
	return "❌ Out of stock"
}

func stockTitle(inStock bool) string {
	if inStock {
		return "✅ In Stock"
	}
	return "❌ Out of Stock"
}

// title uppercases the first letter of each word, lowercasing the rest.
func title(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		runes := []rune(strings.ToLower(w))
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}
